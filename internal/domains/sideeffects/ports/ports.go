package ports

import (
	"context"
	"errors"

	"github.com/google/uuid"

	orderdomain "github.com/Apurer/repairshop-api/internal/domains/orders/domain"
	"github.com/Apurer/repairshop-api/internal/domains/sideeffects/domain"
)

var ErrNotFound = errors.New("record not found")

// NotificationStore persists in-app notifications.
type NotificationStore interface {
	Create(ctx context.Context, notification *domain.Notification) error
	ListForRecipient(ctx context.Context, tenantID, userID uuid.UUID, unreadOnly bool) ([]*domain.Notification, error)
	// MarkRead returns ErrNotFound unless userID is the recipient.
	MarkRead(ctx context.Context, tenantID, userID, notificationID uuid.UUID) error
}

// SubscriptionStore reads webhook subscriptions managed in tenant settings.
type SubscriptionStore interface {
	Save(ctx context.Context, sub *domain.Subscription) error
	ActiveForEvent(ctx context.Context, tenantID uuid.UUID, eventType string) ([]*domain.Subscription, error)
}

// AccountDirectory maps a customer to the platform account they sign in with.
type AccountDirectory interface {
	AccountForCustomer(ctx context.Context, tenantID, customerID uuid.UUID) (uuid.UUID, bool, error)
}

// WebhookSender performs a single HTTP delivery attempt.
type WebhookSender interface {
	Send(ctx context.Context, delivery domain.Delivery) error
}

// WebhookDelivery hands a delivery off. Implementations decide whether
// failures are retried.
type WebhookDelivery interface {
	Deliver(ctx context.Context, delivery domain.Delivery) error
}

// Deduper remembers keys it has seen for a bounded time.
type Deduper interface {
	// Seen records key and reports whether it had been recorded before.
	Seen(ctx context.Context, key string) (bool, error)
}

// EventPublisher mirrors envelopes to a message broker.
type EventPublisher interface {
	Publish(ctx context.Context, key string, envelope domain.Envelope) error
}

// NotificationService exposes notification use cases to adapters.
type NotificationService interface {
	ListForRecipient(ctx context.Context, actor orderdomain.Actor, unreadOnly bool) ([]*domain.Notification, error)
	MarkRead(ctx context.Context, actor orderdomain.Actor, notificationID uuid.UUID) error
}
