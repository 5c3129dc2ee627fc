package application

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ordermemory "github.com/Apurer/repairshop-api/internal/domains/orders/adapters/memory"
	ordertypes "github.com/Apurer/repairshop-api/internal/domains/orders/application/types"
	"github.com/Apurer/repairshop-api/internal/domains/orders/domain"
	"github.com/Apurer/repairshop-api/internal/domains/orders/ports"
)

func newIdempotentFixture(t *testing.T) *fixture {
	t.Helper()
	f := newFixture(t)
	f.svc.idempotency = ordermemory.NewIdempotencyStore()
	return f
}

func TestCreateOrder_IdempotencyKeyReplays(t *testing.T) {
	f := newIdempotentFixture(t)
	ctx := context.Background()
	input := ordertypes.CreateOrderInput{
		Customer:           domain.CustomerRef{ID: &f.customer},
		AssetID:            uuid.New(),
		ProblemDescription: "no enciende",
		IdempotencyKey:     "intake-1",
	}

	first, err := f.svc.CreateOrder(ctx, f.actor, input)
	require.NoError(t, err)
	input.ProblemDescription = "  no enciende "
	second, err := f.svc.CreateOrder(ctx, f.actor, input)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.Folio, second.Folio)

	orders, err := f.svc.ListOrders(ctx, f.actor, ordertypes.ListOrdersInput{})
	require.NoError(t, err)
	assert.Len(t, orders, 1)

	input.ProblemDescription = "otra falla"
	_, err = f.svc.CreateOrder(ctx, f.actor, input)
	require.ErrorIs(t, err, ports.ErrIdempotencyConflict)
}

func TestCreateOrder_KeysAreScopedByTenant(t *testing.T) {
	f := newIdempotentFixture(t)
	ctx := context.Background()
	other := domain.Actor{TenantID: uuid.New(), UserID: uuid.New()}
	otherCustomer := uuid.New()
	f.customers.AddCustomer(other.TenantID, otherCustomer, "Luis", nil)

	first, err := f.svc.CreateOrder(ctx, f.actor, ordertypes.CreateOrderInput{
		Customer: domain.CustomerRef{ID: &f.customer}, ProblemDescription: "x", IdempotencyKey: "k",
	})
	require.NoError(t, err)
	second, err := f.svc.CreateOrder(ctx, other, ordertypes.CreateOrderInput{
		Customer: domain.CustomerRef{ID: &otherCustomer}, ProblemDescription: "y", IdempotencyKey: "k",
	})
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestRegisterPayment_IdempotencyKeyReplays(t *testing.T) {
	f := newIdempotentFixture(t)
	ctx := context.Background()
	order := f.createOrder(t, "bateria")
	input := ordertypes.RegisterPaymentInput{
		OrderID:        order.ID,
		Amount:         decimal.NewFromInt(50),
		Method:         domain.PaymentCash,
		IdempotencyKey: "pay-1",
	}

	first, err := f.svc.RegisterPayment(ctx, f.actor, input)
	require.NoError(t, err)
	input.Amount = decimal.RequireFromString("50.00")
	second, err := f.svc.RegisterPayment(ctx, f.actor, input)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	summary, err := f.svc.LedgerSummary(ctx, f.actor, order.ID)
	require.NoError(t, err)
	assert.True(t, summary.TotalPaid.Equal(decimal.NewFromInt(50)))

	input.Method = domain.PaymentCard
	_, err = f.svc.RegisterPayment(ctx, f.actor, input)
	require.ErrorIs(t, err, ports.ErrIdempotencyConflict)
}

func TestIdempotencyKey_ReuseAcrossOperationsConflicts(t *testing.T) {
	f := newIdempotentFixture(t)
	ctx := context.Background()
	order, err := f.svc.CreateOrder(ctx, f.actor, ordertypes.CreateOrderInput{
		Customer: domain.CustomerRef{ID: &f.customer}, ProblemDescription: "x", IdempotencyKey: "shared",
	})
	require.NoError(t, err)

	_, err = f.svc.RegisterPayment(ctx, f.actor, ordertypes.RegisterPaymentInput{
		OrderID: order.ID, Amount: decimal.NewFromInt(1), Method: domain.PaymentCash, IdempotencyKey: "shared",
	})
	require.ErrorIs(t, err, ports.ErrIdempotencyConflict)
}

func TestIdempotencyKey_IgnoredWithoutStore(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	input := ordertypes.CreateOrderInput{
		Customer: domain.CustomerRef{ID: &f.customer}, ProblemDescription: "x", IdempotencyKey: "k",
	}
	first, err := f.svc.CreateOrder(ctx, f.actor, input)
	require.NoError(t, err)
	second, err := f.svc.CreateOrder(ctx, f.actor, input)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
}
