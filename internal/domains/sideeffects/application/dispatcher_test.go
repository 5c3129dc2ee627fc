package application_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	orderdomain "github.com/Apurer/repairshop-api/internal/domains/orders/domain"
	"github.com/Apurer/repairshop-api/internal/domains/sideeffects/adapters/memory"
	sideeffectsobs "github.com/Apurer/repairshop-api/internal/domains/sideeffects/adapters/observability"
	"github.com/Apurer/repairshop-api/internal/domains/sideeffects/application"
	"github.com/Apurer/repairshop-api/internal/domains/sideeffects/domain"
	"github.com/Apurer/repairshop-api/internal/platform/outbox"
)

type stubAccounts struct {
	accounts map[uuid.UUID]uuid.UUID
	err      error
}

func (s stubAccounts) AccountForCustomer(_ context.Context, _ uuid.UUID, customerID uuid.UUID) (uuid.UUID, bool, error) {
	if s.err != nil {
		return uuid.Nil, false, s.err
	}
	id, ok := s.accounts[customerID]
	return id, ok, nil
}

type recordingDelivery struct {
	deliveries []domain.Delivery
	err        error
}

func (r *recordingDelivery) Deliver(_ context.Context, d domain.Delivery) error {
	r.deliveries = append(r.deliveries, d)
	return r.err
}

type recordingPublisher struct {
	keys []string
}

func (p *recordingPublisher) Publish(_ context.Context, key string, _ domain.Envelope) error {
	p.keys = append(p.keys, key)
	return nil
}

type fixture struct {
	tenantID      uuid.UUID
	customerID    uuid.UUID
	accountID     uuid.UUID
	notifications *memory.NotificationStore
	subscriptions *memory.SubscriptionStore
	delivery      *recordingDelivery
	publisher     *recordingPublisher
	dispatcher    *application.Dispatcher
}

func newFixture(t *testing.T, accounts stubAccounts) *fixture {
	t.Helper()
	f := &fixture{
		tenantID:      uuid.New(),
		customerID:    uuid.New(),
		accountID:     uuid.New(),
		notifications: memory.NewNotificationStore(),
		subscriptions: memory.NewSubscriptionStore(),
		delivery:      &recordingDelivery{},
		publisher:     &recordingPublisher{},
	}
	if accounts.accounts == nil && accounts.err == nil {
		accounts.accounts = map[uuid.UUID]uuid.UUID{f.customerID: f.accountID}
	}
	f.dispatcher = application.NewDispatcher(
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		f.notifications,
		f.subscriptions,
		f.delivery,
		application.WithAccountDirectory(accounts),
		application.WithPublisher(f.publisher),
		application.WithDeduper(memory.NewDeduper(time.Hour)),
	)
	return f
}

func (f *fixture) event(t *testing.T, status orderdomain.Status) (outbox.Event, orderdomain.StatusChanged) {
	t.Helper()
	order := &orderdomain.Order{
		ID:         uuid.New(),
		TenantID:   f.tenantID,
		CustomerID: f.customerID,
		Folio:      1042,
		Status:     status,
	}
	change := orderdomain.NewStatusChanged(order, orderdomain.StatusDiagnosis, orderdomain.Actor{TenantID: f.tenantID, UserID: uuid.New()}, time.Now().UTC())
	event, err := outbox.NewEvent(context.Background(), f.tenantID, "order", order.ID.String(), orderdomain.EventStatusChange, change)
	require.NoError(t, err)
	return event, change
}

func (f *fixture) subscribe(t *testing.T, active bool, eventTypes ...string) *domain.Subscription {
	t.Helper()
	sub := &domain.Subscription{
		TenantID:   f.tenantID,
		URL:        "https://hooks.example.com/orders",
		Secret:     "s",
		EventTypes: eventTypes,
		Active:     active,
	}
	require.NoError(t, f.subscriptions.Save(context.Background(), sub))
	return sub
}

func TestDispatchApprovalNotifiesCustomerAccount(t *testing.T) {
	f := newFixture(t, stubAccounts{})
	event, change := f.event(t, orderdomain.StatusApproval)

	require.NoError(t, f.dispatcher.Dispatch(context.Background(), event))

	list, err := f.notifications.ListForRecipient(context.Background(), f.tenantID, f.accountID, false)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Aprobación requerida", list[0].Title)
	assert.Equal(t, "La orden #1042 requiere su aprobación", list[0].Message)
	assert.Equal(t, "/orders/"+change.OrderID.String(), list[0].Link)
	assert.False(t, list[0].Read)
}

func TestDispatchSkipsNotificationWithoutAccount(t *testing.T) {
	f := newFixture(t, stubAccounts{accounts: map[uuid.UUID]uuid.UUID{}})
	event, _ := f.event(t, orderdomain.StatusApproval)

	require.NoError(t, f.dispatcher.Dispatch(context.Background(), event))

	list, err := f.notifications.ListForRecipient(context.Background(), f.tenantID, f.accountID, false)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestDispatchNoNotificationOutsideApproval(t *testing.T) {
	f := newFixture(t, stubAccounts{})
	event, _ := f.event(t, orderdomain.StatusRepair)

	require.NoError(t, f.dispatcher.Dispatch(context.Background(), event))

	list, err := f.notifications.ListForRecipient(context.Background(), f.tenantID, f.accountID, false)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestDispatchDeliversToMatchingActiveSubscriptions(t *testing.T) {
	f := newFixture(t, stubAccounts{})
	wanted := f.subscribe(t, true, orderdomain.EventStatusChange)
	f.subscribe(t, false, orderdomain.EventStatusChange)
	f.subscribe(t, true, "order.created")
	event, change := f.event(t, orderdomain.StatusRepair)

	require.NoError(t, f.dispatcher.Dispatch(context.Background(), event))

	require.Len(t, f.delivery.deliveries, 1)
	got := f.delivery.deliveries[0]
	assert.Equal(t, wanted.ID, got.SubscriptionID)
	assert.Equal(t, orderdomain.EventStatusChange, got.Envelope.EventType)
	assert.Equal(t, change.OrderID, got.Envelope.OrderID)
	assert.Equal(t, "repair", got.Envelope.NewStatus)
	assert.Equal(t, change.UpdatedBy, got.Envelope.UpdatedBy)
	assert.Equal(t, []string{change.OrderID.String()}, f.publisher.keys)
}

func TestDispatchSwallowsChannelFailures(t *testing.T) {
	f := newFixture(t, stubAccounts{err: errors.New("directory down")})
	f.delivery.err = errors.New("connection refused")
	f.subscribe(t, true, orderdomain.EventStatusChange)
	event, _ := f.event(t, orderdomain.StatusApproval)

	assert.NoError(t, f.dispatcher.Dispatch(context.Background(), event))
	assert.Len(t, f.delivery.deliveries, 1)
}

func TestDispatchLogsWebhookFailureOnce(t *testing.T) {
	f := newFixture(t, stubAccounts{})
	f.delivery.err = errors.New("connection refused")
	sub := f.subscribe(t, true, orderdomain.EventStatusChange)
	event, _ := f.event(t, orderdomain.StatusRepair)

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	dispatcher := application.NewDispatcher(logger, f.notifications, f.subscriptions,
		sideeffectsobs.NewDelivery(f.delivery, sideeffectsobs.WithLogger(logger)))

	require.NoError(t, dispatcher.Dispatch(context.Background(), event))

	assert.Equal(t, 1, strings.Count(buf.String(), "webhook delivery failed"), buf.String())
	assert.Contains(t, buf.String(), sub.ID.String())
}

func TestDispatchRedeliveredEventIsDeduplicated(t *testing.T) {
	f := newFixture(t, stubAccounts{})
	f.subscribe(t, true, orderdomain.EventStatusChange)
	event, _ := f.event(t, orderdomain.StatusApproval)

	require.NoError(t, f.dispatcher.Dispatch(context.Background(), event))
	require.NoError(t, f.dispatcher.Dispatch(context.Background(), event))

	list, err := f.notifications.ListForRecipient(context.Background(), f.tenantID, f.accountID, false)
	require.NoError(t, err)
	assert.Len(t, list, 1)
	assert.Len(t, f.delivery.deliveries, 1)
	assert.Len(t, f.publisher.keys, 1)
}

func TestDispatchRejectsUnknownEvents(t *testing.T) {
	f := newFixture(t, stubAccounts{})

	err := f.dispatcher.Dispatch(context.Background(), outbox.Event{ID: uuid.New(), Type: "order.unknown"})
	assert.ErrorIs(t, err, outbox.ErrPermanent)

	err = f.dispatcher.Dispatch(context.Background(), outbox.Event{ID: uuid.New(), Type: orderdomain.EventStatusChange, Payload: []byte("{")})
	assert.ErrorIs(t, err, outbox.ErrPermanent)
}
