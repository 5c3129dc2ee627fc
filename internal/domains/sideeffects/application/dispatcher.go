package application

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	orderdomain "github.com/Apurer/repairshop-api/internal/domains/orders/domain"
	"github.com/Apurer/repairshop-api/internal/domains/sideeffects/domain"
	"github.com/Apurer/repairshop-api/internal/domains/sideeffects/ports"
	"github.com/Apurer/repairshop-api/internal/platform/outbox"
)

const (
	channelNotification = "notification"
	channelWebhook      = "webhook"
	channelBroker       = "broker"
)

var _ outbox.Dispatcher = (*Dispatcher)(nil)

// Dispatcher fans a committed status change out to notifications, webhook
// subscribers and the optional broker mirror. Channel failures never reach
// the caller.
type Dispatcher struct {
	log           *slog.Logger
	notifications ports.NotificationStore
	subscriptions ports.SubscriptionStore
	accounts      ports.AccountDirectory
	webhooks      ports.WebhookDelivery
	publisher     ports.EventPublisher
	dedup         ports.Deduper
}

type DispatcherOption func(*Dispatcher)

func WithAccountDirectory(accounts ports.AccountDirectory) DispatcherOption {
	return func(d *Dispatcher) {
		d.accounts = accounts
	}
}

func WithPublisher(publisher ports.EventPublisher) DispatcherOption {
	return func(d *Dispatcher) {
		d.publisher = publisher
	}
}

func WithDeduper(dedup ports.Deduper) DispatcherOption {
	return func(d *Dispatcher) {
		d.dedup = dedup
	}
}

func NewDispatcher(log *slog.Logger, notifications ports.NotificationStore, subscriptions ports.SubscriptionStore, webhooks ports.WebhookDelivery, opts ...DispatcherOption) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}
	d := &Dispatcher{
		log:           log,
		notifications: notifications,
		subscriptions: subscriptions,
		webhooks:      webhooks,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	return d
}

// Dispatch only fails for events it cannot interpret; those are marked
// failed by the relay and never retried.
func (d *Dispatcher) Dispatch(ctx context.Context, event outbox.Event) error {
	if event.Type != orderdomain.EventStatusChange {
		return fmt.Errorf("%w: unsupported event type %q", outbox.ErrPermanent, event.Type)
	}
	var change orderdomain.StatusChanged
	if err := event.Decode(&change); err != nil {
		return err
	}
	ctx = event.Context(ctx)
	log := d.log.With(
		slog.String("event.id", event.ID.String()),
		slog.String("order.id", change.OrderID.String()),
		slog.String("tenant.id", change.TenantID.String()),
	)

	if change.RequiresApproval() {
		d.notifyApproval(ctx, log, event.ID, change)
	}
	envelope := domain.Envelope{
		EventType: event.Type,
		OrderID:   change.OrderID,
		NewStatus: string(change.NewStatus),
		UpdatedBy: change.UpdatedBy,
		Timestamp: change.Timestamp,
	}
	d.sendWebhooks(ctx, log, event.ID, change.TenantID, envelope)
	d.publish(ctx, log, event.ID, envelope)
	return nil
}

func (d *Dispatcher) notifyApproval(ctx context.Context, log *slog.Logger, eventID uuid.UUID, change orderdomain.StatusChanged) {
	if d.accounts == nil || d.notifications == nil {
		return
	}
	recipient, ok, err := d.accounts.AccountForCustomer(ctx, change.TenantID, change.CustomerID)
	if err != nil {
		log.WarnContext(ctx, "account lookup failed", slog.String("channel", channelNotification), slog.Any("error", err))
		return
	}
	if !ok {
		log.DebugContext(ctx, "customer has no account; approval notification skipped")
		return
	}
	if d.duplicate(ctx, log, dedupKey(channelNotification, eventID)) {
		return
	}
	notification := domain.NewApprovalNotification(change.TenantID, recipient, change.OrderID, change.Folio)
	if err := d.notifications.Create(ctx, notification); err != nil {
		log.WarnContext(ctx, "approval notification failed", slog.Any("error", err))
	}
}

func (d *Dispatcher) sendWebhooks(ctx context.Context, log *slog.Logger, eventID, tenantID uuid.UUID, envelope domain.Envelope) {
	if d.subscriptions == nil || d.webhooks == nil {
		return
	}
	subs, err := d.subscriptions.ActiveForEvent(ctx, tenantID, envelope.EventType)
	if err != nil {
		log.WarnContext(ctx, "webhook subscriptions lookup failed", slog.Any("error", err))
		return
	}
	for _, sub := range subs {
		if !sub.Wants(envelope.EventType) {
			continue
		}
		if d.duplicate(ctx, log, dedupKey(channelWebhook, eventID, sub.ID.String())) {
			continue
		}
		if err := d.webhooks.Deliver(ctx, domain.NewDelivery(eventID, sub, envelope)); err != nil {
			log.WarnContext(ctx, "webhook delivery failed",
				slog.String("subscription.id", sub.ID.String()),
				slog.Any("error", err),
			)
		}
	}
}

func (d *Dispatcher) publish(ctx context.Context, log *slog.Logger, eventID uuid.UUID, envelope domain.Envelope) {
	if d.publisher == nil {
		return
	}
	if d.duplicate(ctx, log, dedupKey(channelBroker, eventID)) {
		return
	}
	if err := d.publisher.Publish(ctx, envelope.OrderID.String(), envelope); err != nil {
		log.WarnContext(ctx, "event publish failed", slog.Any("error", err))
	}
}

// duplicate reports whether key was already handled. Dedup store errors
// fall through to delivery.
func (d *Dispatcher) duplicate(ctx context.Context, log *slog.Logger, key string) bool {
	if d.dedup == nil {
		return false
	}
	seen, err := d.dedup.Seen(ctx, key)
	if err != nil {
		log.WarnContext(ctx, "dedup check failed", slog.String("dedup.key", key), slog.Any("error", err))
		return false
	}
	if seen {
		log.DebugContext(ctx, "duplicate side effect skipped", slog.String("dedup.key", key))
	}
	return seen
}

func dedupKey(channel string, eventID uuid.UUID, parts ...string) string {
	key := "dedup:" + channel + ":" + eventID.String()
	for _, part := range parts {
		key += ":" + part
	}
	return key
}
