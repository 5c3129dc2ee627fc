package outbox

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	_ Store  = (*MemoryStore)(nil)
	_ Purger = (*MemoryStore)(nil)
)

// MemoryStore keeps outbox rows in process. Repositories that persist in
// memory append to it while holding their own write lock.
type MemoryStore struct {
	mu     sync.Mutex
	events []*memoryEntry
	now    func() time.Time
}

type memoryEntry struct {
	event       Event
	lockedBy    string
	lockedUntil time.Time
	sentAt      time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{now: time.Now}
}

// WithClock overrides the time source for deterministic tests.
func (s *MemoryStore) WithClock(now func() time.Time) {
	if now == nil {
		return
	}
	s.mu.Lock()
	s.now = now
	s.mu.Unlock()
}

// Append stores events as pending.
func (s *MemoryStore) Append(events ...Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range events {
		e.Status = StatusPending
		if e.CreatedAt.IsZero() {
			e.CreatedAt = s.now()
		}
		s.events = append(s.events, &memoryEntry{event: cloneEvent(e)})
	}
}

func (s *MemoryStore) LockBatch(_ context.Context, relayID string, batchSize int, lease time.Duration) ([]Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	var batch []Event
	for _, entry := range s.events {
		if len(batch) >= batchSize {
			break
		}
		switch entry.event.Status {
		case StatusPending:
		case StatusInProgress:
			if now.Before(entry.lockedUntil) {
				continue
			}
		default:
			continue
		}
		entry.event.Status = StatusInProgress
		entry.lockedBy = relayID
		entry.lockedUntil = now.Add(lease)
		batch = append(batch, cloneEvent(entry.event))
	}
	return batch, nil
}

func (s *MemoryStore) MarkSent(_ context.Context, ids []uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	wanted := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		wanted[id] = struct{}{}
	}
	for _, entry := range s.events {
		if _, ok := wanted[entry.event.ID]; ok {
			entry.event.Status = StatusSent
			entry.lockedBy = ""
			entry.sentAt = s.now()
		}
	}
	return nil
}

func (s *MemoryStore) MarkFailed(_ context.Context, id uuid.UUID, errMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, entry := range s.events {
		if entry.event.ID == id {
			msg := errMsg
			entry.event.Status = StatusFailed
			entry.event.RetryCount++
			entry.event.LastError = &msg
			entry.lockedBy = ""
		}
	}
	return nil
}

func (s *MemoryStore) ExtendLease(_ context.Context, relayID string, ids []uuid.UUID, lease time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	wanted := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		wanted[id] = struct{}{}
	}
	until := s.now().Add(lease)
	for _, entry := range s.events {
		if _, ok := wanted[entry.event.ID]; !ok {
			continue
		}
		if entry.event.Status == StatusInProgress && entry.lockedBy == relayID {
			entry.lockedUntil = until
		}
	}
	return nil
}

func (s *MemoryStore) PurgeSent(_ context.Context, olderThan time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.events[:0]
	var purged int64
	for _, entry := range s.events {
		if entry.event.Status == StatusSent && entry.sentAt.Before(olderThan) {
			purged++
			continue
		}
		kept = append(kept, entry)
	}
	s.events = kept
	return purged, nil
}

// Events returns a snapshot of every stored row.
func (s *MemoryStore) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, 0, len(s.events))
	for _, entry := range s.events {
		out = append(out, cloneEvent(entry.event))
	}
	return out
}

func cloneEvent(e Event) Event {
	clone := e
	clone.Payload = append([]byte(nil), e.Payload...)
	if e.Headers != nil {
		clone.Headers = make(map[string]string, len(e.Headers))
		for k, v := range e.Headers {
			clone.Headers[k] = v
		}
	}
	if e.LastError != nil {
		msg := *e.LastError
		clone.LastError = &msg
	}
	return clone
}
