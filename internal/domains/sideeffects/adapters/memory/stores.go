package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Apurer/repairshop-api/internal/domains/sideeffects/domain"
	"github.com/Apurer/repairshop-api/internal/domains/sideeffects/ports"
)

var (
	_ ports.NotificationStore = (*NotificationStore)(nil)
	_ ports.SubscriptionStore = (*SubscriptionStore)(nil)
	_ ports.Deduper           = (*Deduper)(nil)
)

// NotificationStore keeps notifications in memory.
type NotificationStore struct {
	mu    sync.RWMutex
	items map[uuid.UUID]domain.Notification
	now   func() time.Time
}

func NewNotificationStore() *NotificationStore {
	return &NotificationStore{items: map[uuid.UUID]domain.Notification{}, now: time.Now}
}

func (s *NotificationStore) Create(_ context.Context, n *domain.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *n
	if copied.ID == uuid.Nil {
		copied.ID = uuid.New()
	}
	if copied.CreatedAt.IsZero() {
		copied.CreatedAt = s.now().UTC()
	}
	s.items[copied.ID] = copied
	n.ID, n.CreatedAt = copied.ID, copied.CreatedAt
	return nil
}

func (s *NotificationStore) ListForRecipient(_ context.Context, tenantID, userID uuid.UUID, unreadOnly bool) ([]*domain.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*domain.Notification, 0)
	for _, n := range s.items {
		if n.TenantID != tenantID || n.RecipientUserID != userID {
			continue
		}
		if unreadOnly && n.Read {
			continue
		}
		copied := n
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *NotificationStore) MarkRead(_ context.Context, tenantID, userID, notificationID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.items[notificationID]
	if !ok || n.TenantID != tenantID || n.RecipientUserID != userID {
		return ports.ErrNotFound
	}
	n.Read = true
	s.items[notificationID] = n
	return nil
}

// SubscriptionStore keeps webhook subscriptions in memory.
type SubscriptionStore struct {
	mu   sync.RWMutex
	subs map[uuid.UUID]domain.Subscription
}

func NewSubscriptionStore() *SubscriptionStore {
	return &SubscriptionStore{subs: map[uuid.UUID]domain.Subscription{}}
}

func (s *SubscriptionStore) Save(_ context.Context, sub *domain.Subscription) error {
	if err := sub.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if sub.ID == uuid.Nil {
		sub.ID = uuid.New()
	}
	copied := *sub
	copied.EventTypes = append([]string(nil), sub.EventTypes...)
	s.subs[copied.ID] = copied
	return nil
}

func (s *SubscriptionStore) ActiveForEvent(_ context.Context, tenantID uuid.UUID, eventType string) ([]*domain.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*domain.Subscription, 0)
	for _, sub := range s.subs {
		if sub.TenantID != tenantID || !sub.Wants(eventType) {
			continue
		}
		copied := sub
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out, nil
}

// Deduper remembers keys until their TTL elapses. Expired keys are swept on
// insert at most once per TTL.
type Deduper struct {
	mu        sync.Mutex
	ttl       time.Duration
	keys      map[string]time.Time
	nextSweep time.Time
	now       func() time.Time
}

func NewDeduper(ttl time.Duration) *Deduper {
	return &Deduper{ttl: ttl, keys: map[string]time.Time{}, now: time.Now}
}

func (d *Deduper) Seen(_ context.Context, key string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	current := d.now()
	if expires, ok := d.keys[key]; ok && current.Before(expires) {
		return true, nil
	}
	if !current.Before(d.nextSweep) {
		for k, expires := range d.keys {
			if !current.Before(expires) {
				delete(d.keys, k)
			}
		}
		d.nextSweep = current.Add(d.ttl)
	}
	d.keys[key] = current.Add(d.ttl)
	return false, nil
}
