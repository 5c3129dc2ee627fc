package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Apurer/repairshop-api/internal/domains/orders/ports"
)

var _ ports.IdempotencyStore = (*IdempotencyStore)(nil)

type idempotencyKey struct {
	tenantID uuid.UUID
	key      string
}

// IdempotencyStore provides an in-memory implementation for development and tests.
type IdempotencyStore struct {
	mu      sync.RWMutex
	records map[idempotencyKey]ports.IdempotencyRecord
	now     func() time.Time
}

func NewIdempotencyStore() *IdempotencyStore {
	return &IdempotencyStore{
		records: map[idempotencyKey]ports.IdempotencyRecord{},
		now:     time.Now,
	}
}

// WithClock overrides the time source for deterministic testing.
func (s *IdempotencyStore) WithClock(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

func (s *IdempotencyStore) Get(_ context.Context, tenantID uuid.UUID, key string) (*ports.IdempotencyRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[idempotencyKey{tenantID, key}]
	if !ok {
		return nil, nil
	}
	copied := record
	return &copied, nil
}

func (s *IdempotencyStore) Save(_ context.Context, record ports.IdempotencyRecord) (*ports.IdempotencyRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := idempotencyKey{record.TenantID, record.Key}
	if existing, ok := s.records[k]; ok {
		copied := existing
		if existing.Operation != record.Operation || existing.RequestHash != record.RequestHash {
			return &copied, ports.ErrIdempotencyConflict
		}
		return &copied, nil
	}
	record.CreatedAt = s.now().UTC()
	s.records[k] = record
	saved := record
	return &saved, nil
}
