package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransition_Graph(t *testing.T) {
	allowed := map[Status][]Status{
		StatusReception: {StatusDiagnosis},
		StatusDiagnosis: {StatusApproval, StatusReception},
		StatusApproval:  {StatusRepair, StatusDiagnosis},
		StatusRepair:    {StatusQA, StatusApproval},
		StatusQA:        {StatusReady, StatusRepair},
		StatusReady:     {StatusDelivered, StatusQA},
		StatusDelivered: {},
	}
	for _, from := range Statuses {
		for _, to := range Statuses {
			expected := false
			for _, candidate := range allowed[from] {
				if candidate == to {
					expected = true
				}
			}
			assert.Equalf(t, expected, CanTransition(from, to), "%s -> %s", from, to)
		}
	}
}

func TestStatus_DeliveredIsTerminal(t *testing.T) {
	assert.True(t, StatusDelivered.IsTerminal())
	assert.Empty(t, StatusDelivered.AllowedNext())
	assert.False(t, StatusReady.IsTerminal())
	assert.Equal(t, []Status{StatusQA, StatusDelivered}, StatusReady.AllowedNext())
}

func TestTransitionTo(t *testing.T) {
	order := &Order{Status: StatusReception}

	changed, err := order.TransitionTo(StatusRepair)
	require.ErrorIs(t, err, ErrInvalidTransition)
	assert.False(t, changed)
	assert.Equal(t, StatusReception, order.Status)

	var transitionErr *TransitionError
	require.ErrorAs(t, err, &transitionErr)
	assert.Equal(t, StatusReception, transitionErr.From)
	assert.Equal(t, StatusRepair, transitionErr.To)

	changed, err = order.TransitionTo(StatusReception)
	require.NoError(t, err)
	assert.False(t, changed)

	changed, err = order.TransitionTo(StatusDiagnosis)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, StatusDiagnosis, order.Status)

	_, err = order.TransitionTo(Status("archived"))
	require.ErrorIs(t, err, ErrInvalidStatus)
}

func TestNewOrder_Defaults(t *testing.T) {
	order, err := NewOrder(uuid.New(), uuid.New(), uuid.New(), "", "  no enciende ")
	require.NoError(t, err)
	assert.Equal(t, StatusReception, order.Status)
	assert.Equal(t, PriorityNormal, order.Priority)
	assert.Equal(t, "no enciende", order.ProblemDescription)

	_, err = NewOrder(uuid.New(), uuid.New(), uuid.New(), PriorityHigh, " ")
	require.ErrorIs(t, err, ErrMissingProblem)

	_, err = NewOrder(uuid.New(), uuid.New(), uuid.New(), Priority("asap"), "x")
	require.ErrorIs(t, err, ErrInvalidPriority)
}

func TestNewWarrantyOrder(t *testing.T) {
	original := &Order{
		ID:                 uuid.New(),
		TenantID:           uuid.New(),
		CustomerID:         uuid.New(),
		AssetID:            uuid.New(),
		Folio:              1042,
		Status:             StatusDelivered,
		Priority:           PriorityLow,
		ProblemDescription: "pantalla rota",
	}

	warranty := NewWarrantyOrder(original)

	assert.NotEqual(t, original.ID, warranty.ID)
	assert.Equal(t, original.TenantID, warranty.TenantID)
	assert.Equal(t, original.CustomerID, warranty.CustomerID)
	assert.Equal(t, original.AssetID, warranty.AssetID)
	assert.Equal(t, StatusReception, warranty.Status)
	assert.Equal(t, PriorityUrgent, warranty.Priority)
	assert.True(t, warranty.IsWarranty)
	require.NotNil(t, warranty.OriginalOrderID)
	assert.Equal(t, original.ID, *warranty.OriginalOrderID)
	assert.Contains(t, warranty.ProblemDescription, "#1042")
	assert.Contains(t, warranty.ProblemDescription, "pantalla rota")
	assert.Zero(t, warranty.Folio)
}

func TestNewLineItem_TotalSnapshot(t *testing.T) {
	item, err := NewLineItem(uuid.New(), uuid.New(), 2, decimal.NewFromInt(50))
	require.NoError(t, err)
	assert.True(t, item.Total.Equal(decimal.NewFromInt(100)))

	_, err = NewLineItem(uuid.New(), uuid.New(), 0, decimal.NewFromInt(50))
	require.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = NewLineItem(uuid.New(), uuid.New(), 1, decimal.NewFromInt(-1))
	require.ErrorIs(t, err, ErrInvalidPrice)

	free, err := NewLineItem(uuid.New(), uuid.New(), 3, decimal.Zero)
	require.NoError(t, err)
	assert.True(t, free.Total.IsZero())
}

func TestNewLineItem_RejectsSubCentPrices(t *testing.T) {
	_, err := NewLineItem(uuid.New(), uuid.New(), 3, decimal.RequireFromString("0.333"))
	require.ErrorIs(t, err, ErrInvalidPrice)

	item, err := NewLineItem(uuid.New(), uuid.New(), 3, decimal.RequireFromString("0.330"))
	require.NoError(t, err)
	assert.Equal(t, "0.99", item.Total.StringFixed(MoneyScale))
	assert.True(t, item.Total.Equal(item.UnitPrice.Mul(decimal.NewFromInt(3))))
}

func TestStockAdjustments(t *testing.T) {
	physical := &Product{ID: uuid.New(), Kind: ProductPhysical}
	service := &Product{ID: uuid.New(), Kind: ProductService}

	consume := ConsumeStock(physical, 3)
	require.NotNil(t, consume)
	assert.Equal(t, -3, consume.Delta)
	restore := RestoreStock(physical, 3)
	require.NotNil(t, restore)
	assert.Equal(t, 3, restore.Delta)

	assert.Nil(t, ConsumeStock(service, 3))
	assert.Nil(t, RestoreStock(nil, 3))
}

func TestNewPayment_Validation(t *testing.T) {
	_, err := NewPayment(uuid.New(), decimal.Zero, PaymentCash, "", uuid.New())
	require.ErrorIs(t, err, ErrInvalidAmount)

	_, err = NewPayment(uuid.New(), decimal.NewFromInt(-5), PaymentCash, "", uuid.New())
	require.ErrorIs(t, err, ErrInvalidAmount)

	_, err = NewPayment(uuid.New(), decimal.RequireFromString("0.004"), PaymentCash, "", uuid.New())
	require.ErrorIs(t, err, ErrInvalidAmount)

	_, err = NewPayment(uuid.New(), decimal.RequireFromString("10.555"), PaymentCash, "", uuid.New())
	require.ErrorIs(t, err, ErrInvalidAmount)

	_, err = NewPayment(uuid.New(), decimal.RequireFromString("0.01"), PaymentCash, "", uuid.New())
	require.NoError(t, err)

	_, err = NewPayment(uuid.New(), decimal.NewFromInt(5), PaymentMethod("crypto"), "", uuid.New())
	require.ErrorIs(t, err, ErrInvalidMethod)

	payment, err := NewPayment(uuid.New(), decimal.NewFromInt(5), PaymentCard, " anticipo ", uuid.New())
	require.NoError(t, err)
	require.NotNil(t, payment.Note)
	assert.Equal(t, "anticipo", *payment.Note)
}

func TestSummarize(t *testing.T) {
	items := []*LineItem{
		{Total: decimal.NewFromInt(100)},
		{Total: decimal.NewFromInt(30)},
	}

	summary := Summarize(items, []*Payment{{Amount: decimal.NewFromInt(100)}})
	assert.True(t, summary.TotalCost.Equal(decimal.NewFromInt(130)))
	assert.True(t, summary.Balance.Equal(decimal.NewFromInt(30)))
	assert.False(t, summary.IsFullyPaid)

	summary = Summarize(items, []*Payment{{Amount: decimal.NewFromInt(100)}, {Amount: decimal.NewFromInt(30)}})
	assert.True(t, summary.Balance.IsZero())
	assert.True(t, summary.IsFullyPaid)

	summary = Summarize(items, []*Payment{{Amount: decimal.NewFromInt(200)}})
	assert.True(t, summary.Balance.Equal(decimal.NewFromInt(-70)))
	assert.True(t, summary.IsFullyPaid)

	empty := Summarize(nil, nil)
	assert.True(t, empty.TotalCost.IsZero())
	assert.False(t, empty.IsFullyPaid)
}
