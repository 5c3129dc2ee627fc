package application

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ordermemory "github.com/Apurer/repairshop-api/internal/domains/orders/adapters/memory"
	ordertypes "github.com/Apurer/repairshop-api/internal/domains/orders/application/types"
	"github.com/Apurer/repairshop-api/internal/domains/orders/domain"
	"github.com/Apurer/repairshop-api/internal/platform/outbox"
)

type fixture struct {
	repo      *ordermemory.Repository
	customers *ordermemory.CustomerDirectory
	svc       *Service
	actor     domain.Actor
	customer  uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo := ordermemory.NewRepository()
	customers := ordermemory.NewCustomerDirectory()
	actor := domain.Actor{TenantID: uuid.New(), UserID: uuid.New()}
	customer := uuid.New()
	customers.AddCustomer(actor.TenantID, customer, "Ana", nil)
	now := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	svc := NewService(repo, repo, repo,
		WithCustomerResolver(customers),
		WithClock(func() time.Time { return now }),
	)
	return &fixture{repo: repo, customers: customers, svc: svc, actor: actor, customer: customer}
}

func (f *fixture) createOrder(t *testing.T, problem string) *domain.Order {
	t.Helper()
	customer := f.customer
	order, err := f.svc.CreateOrder(context.Background(), f.actor, ordertypes.CreateOrderInput{
		Customer:           domain.CustomerRef{ID: &customer},
		AssetID:            uuid.New(),
		ProblemDescription: problem,
	})
	require.NoError(t, err)
	return order
}

func (f *fixture) product(t *testing.T, kind domain.ProductKind, stock int) *domain.Product {
	t.Helper()
	product := &domain.Product{ID: uuid.New(), TenantID: f.actor.TenantID, Name: "pieza", Kind: kind, Stock: stock}
	f.repo.SaveProduct(product)
	return product
}

func (f *fixture) stock(t *testing.T, productID uuid.UUID) int {
	t.Helper()
	product, err := f.repo.GetProduct(context.Background(), f.actor.TenantID, productID)
	require.NoError(t, err)
	return product.Stock
}

func (f *fixture) moveTo(t *testing.T, orderID uuid.UUID, path ...domain.Status) {
	t.Helper()
	for _, status := range path {
		_, err := f.svc.Transition(context.Background(), f.actor, orderID, status)
		require.NoError(t, err)
	}
}

func TestCreateOrder_AssignsSequentialFolios(t *testing.T) {
	f := newFixture(t)
	first := f.createOrder(t, "no carga")
	second := f.createOrder(t, "sin audio")

	assert.Equal(t, int64(1), first.Folio)
	assert.Equal(t, int64(2), second.Folio)
	assert.Equal(t, domain.StatusReception, first.Status)
	assert.Equal(t, domain.PriorityNormal, first.Priority)
}

func TestCreateOrder_MaterializesVirtualCustomer(t *testing.T) {
	f := newFixture(t)
	input := ordertypes.CreateOrderInput{
		Customer:           domain.CustomerRef{Virtual: &domain.VirtualCustomer{Name: "Luis", Phone: "5550001"}},
		ProblemDescription: "bisagra floja",
	}
	first, err := f.svc.CreateOrder(context.Background(), f.actor, input)
	require.NoError(t, err)
	second, err := f.svc.CreateOrder(context.Background(), f.actor, input)
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, first.CustomerID)
	assert.Equal(t, first.CustomerID, second.CustomerID)

	_, err = f.svc.CreateOrder(context.Background(), f.actor, ordertypes.CreateOrderInput{ProblemDescription: "x"})
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestTransition_ValidMovePersistsAndEnqueuesEvent(t *testing.T) {
	f := newFixture(t)
	order := f.createOrder(t, "no enciende")

	result, err := f.svc.Transition(context.Background(), f.actor, order.ID, domain.StatusDiagnosis)
	require.NoError(t, err)
	assert.True(t, result.Changed)
	assert.Equal(t, domain.StatusDiagnosis, result.Order.Status)

	stored, err := f.svc.GetOrder(context.Background(), f.actor, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDiagnosis, stored.Status)

	events := f.repo.Outbox().Events()
	require.Len(t, events, 1)
	assert.Equal(t, domain.EventStatusChange, events[0].Type)
	assert.Equal(t, order.ID.String(), events[0].AggregateID)
	assert.Equal(t, outbox.StatusPending, events[0].Status)

	var payload domain.StatusChanged
	require.NoError(t, json.Unmarshal(events[0].Payload, &payload))
	assert.Equal(t, domain.StatusReception, payload.PreviousStatus)
	assert.Equal(t, domain.StatusDiagnosis, payload.NewStatus)
	assert.Equal(t, f.actor.UserID, payload.UpdatedBy)
	assert.Equal(t, order.CustomerID, payload.CustomerID)
}

func TestTransition_InvalidMoveLeavesOrderUntouched(t *testing.T) {
	f := newFixture(t)
	order := f.createOrder(t, "no enciende")

	_, err := f.svc.Transition(context.Background(), f.actor, order.ID, domain.StatusRepair)
	require.ErrorIs(t, err, domain.ErrInvalidTransition)

	stored, err := f.svc.GetOrder(context.Background(), f.actor, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusReception, stored.Status)
	assert.Empty(t, f.repo.Outbox().Events())
}

func TestTransition_BackwardCorrection(t *testing.T) {
	f := newFixture(t)
	order := f.createOrder(t, "no enciende")
	f.moveTo(t, order.ID, domain.StatusDiagnosis, domain.StatusApproval, domain.StatusRepair, domain.StatusQA)

	result, err := f.svc.Transition(context.Background(), f.actor, order.ID, domain.StatusRepair)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRepair, result.Order.Status)
}

func TestTransition_DeliveredIsTerminal(t *testing.T) {
	f := newFixture(t)
	order := f.createOrder(t, "no enciende")
	f.moveTo(t, order.ID,
		domain.StatusDiagnosis, domain.StatusApproval, domain.StatusRepair,
		domain.StatusQA, domain.StatusReady, domain.StatusDelivered)

	for _, target := range domain.Statuses {
		if target == domain.StatusDelivered {
			continue
		}
		_, err := f.svc.Transition(context.Background(), f.actor, order.ID, target)
		require.ErrorIsf(t, err, domain.ErrInvalidTransition, "delivered -> %s", target)
	}
}

func TestTransition_NoopEnqueuesNothing(t *testing.T) {
	f := newFixture(t)
	order := f.createOrder(t, "no enciende")

	result, err := f.svc.Transition(context.Background(), f.actor, order.ID, domain.StatusReception)
	require.NoError(t, err)
	assert.False(t, result.Changed)
	assert.Empty(t, f.repo.Outbox().Events())
}

func TestTransition_UnknownOrderAndStatus(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Transition(context.Background(), f.actor, uuid.New(), domain.StatusDiagnosis)
	require.ErrorIs(t, err, domain.ErrOrderNotFound)

	order := f.createOrder(t, "x")
	_, err = f.svc.Transition(context.Background(), f.actor, order.ID, domain.Status("archived"))
	require.ErrorIs(t, err, ErrInvalidInput)
	require.ErrorIs(t, err, domain.ErrInvalidStatus)
}

func TestTransition_OtherTenantCannotSeeOrder(t *testing.T) {
	f := newFixture(t)
	order := f.createOrder(t, "x")
	stranger := domain.Actor{TenantID: uuid.New(), UserID: uuid.New()}

	_, err := f.svc.Transition(context.Background(), stranger, order.ID, domain.StatusDiagnosis)
	require.ErrorIs(t, err, domain.ErrOrderNotFound)
}

type failingStatusRepo struct {
	*ordermemory.Repository
}

func (r failingStatusRepo) UpdateStatus(context.Context, *domain.Order, ...outbox.Event) (*domain.Order, error) {
	return nil, errors.New("connection reset")
}

func TestTransition_PersistenceFailureEnqueuesNothing(t *testing.T) {
	f := newFixture(t)
	order := f.createOrder(t, "x")
	svc := NewService(failingStatusRepo{f.repo}, f.repo, f.repo)

	_, err := svc.Transition(context.Background(), f.actor, order.ID, domain.StatusDiagnosis)
	require.ErrorIs(t, err, ErrPersistence)
	var persistenceErr *PersistenceError
	require.ErrorAs(t, err, &persistenceErr)
	assert.Equal(t, "update status", persistenceErr.Op)
	assert.Empty(t, f.repo.Outbox().Events())
}

func TestAddAndRemoveItem_RoundTripsStock(t *testing.T) {
	f := newFixture(t)
	order := f.createOrder(t, "cambio de bateria")
	battery := f.product(t, domain.ProductPhysical, 10)

	item, err := f.svc.AddItem(context.Background(), f.actor, ordertypes.AddItemInput{
		OrderID: order.ID, ProductID: battery.ID, Quantity: 3, UnitPrice: decimal.NewFromInt(25),
	})
	require.NoError(t, err)
	assert.True(t, item.Total.Equal(decimal.NewFromInt(75)))
	assert.Equal(t, 7, f.stock(t, battery.ID))

	require.NoError(t, f.svc.RemoveItem(context.Background(), f.actor, item.ID, order.ID))
	assert.Equal(t, 10, f.stock(t, battery.ID))

	total, err := f.svc.OrderTotal(context.Background(), f.actor, order.ID)
	require.NoError(t, err)
	assert.True(t, total.IsZero())
}

func TestAddItem_ServiceProductKeepsStock(t *testing.T) {
	f := newFixture(t)
	order := f.createOrder(t, "limpieza")
	labour := f.product(t, domain.ProductService, 0)

	_, err := f.svc.AddItem(context.Background(), f.actor, ordertypes.AddItemInput{
		OrderID: order.ID, ProductID: labour.ID, Quantity: 2, UnitPrice: decimal.NewFromInt(40),
	})
	require.NoError(t, err)
	assert.Equal(t, 0, f.stock(t, labour.ID))
}

func TestAddItem_AllowsOverselling(t *testing.T) {
	f := newFixture(t)
	order := f.createOrder(t, "pantalla")
	screen := f.product(t, domain.ProductPhysical, 1)

	_, err := f.svc.AddItem(context.Background(), f.actor, ordertypes.AddItemInput{
		OrderID: order.ID, ProductID: screen.ID, Quantity: 3, UnitPrice: decimal.NewFromInt(10),
	})
	require.NoError(t, err)
	assert.Equal(t, -2, f.stock(t, screen.ID))
}

func TestAddItem_Errors(t *testing.T) {
	f := newFixture(t)
	order := f.createOrder(t, "x")
	part := f.product(t, domain.ProductPhysical, 5)

	_, err := f.svc.AddItem(context.Background(), f.actor, ordertypes.AddItemInput{
		OrderID: order.ID, ProductID: uuid.New(), Quantity: 1, UnitPrice: decimal.NewFromInt(1),
	})
	require.ErrorIs(t, err, domain.ErrProductNotFound)

	_, err = f.svc.AddItem(context.Background(), f.actor, ordertypes.AddItemInput{
		OrderID: uuid.New(), ProductID: part.ID, Quantity: 1, UnitPrice: decimal.NewFromInt(1),
	})
	require.ErrorIs(t, err, domain.ErrOrderNotFound)

	_, err = f.svc.AddItem(context.Background(), f.actor, ordertypes.AddItemInput{
		OrderID: order.ID, ProductID: part.ID, Quantity: 0, UnitPrice: decimal.NewFromInt(1),
	})
	require.ErrorIs(t, err, domain.ErrInvalidQuantity)
	assert.Equal(t, 5, f.stock(t, part.ID))
}

func TestRemoveItem_Errors(t *testing.T) {
	f := newFixture(t)
	order := f.createOrder(t, "x")
	other := f.createOrder(t, "y")
	part := f.product(t, domain.ProductPhysical, 5)
	item, err := f.svc.AddItem(context.Background(), f.actor, ordertypes.AddItemInput{
		OrderID: order.ID, ProductID: part.ID, Quantity: 1, UnitPrice: decimal.NewFromInt(1),
	})
	require.NoError(t, err)

	err = f.svc.RemoveItem(context.Background(), f.actor, uuid.New(), order.ID)
	require.ErrorIs(t, err, domain.ErrLineItemNotFound)

	err = f.svc.RemoveItem(context.Background(), f.actor, item.ID, other.ID)
	require.ErrorIs(t, err, domain.ErrOrderMismatch)
	assert.Equal(t, 4, f.stock(t, part.ID))
}

func TestRemoveItem_OtherTenantSeesNotFound(t *testing.T) {
	f := newFixture(t)
	order := f.createOrder(t, "x")
	part := f.product(t, domain.ProductPhysical, 5)
	item, err := f.svc.AddItem(context.Background(), f.actor, ordertypes.AddItemInput{
		OrderID: order.ID, ProductID: part.ID, Quantity: 1, UnitPrice: decimal.NewFromInt(1),
	})
	require.NoError(t, err)
	stranger := domain.Actor{TenantID: uuid.New(), UserID: uuid.New()}

	err = f.svc.RemoveItem(context.Background(), stranger, item.ID, uuid.New())
	require.ErrorIs(t, err, domain.ErrLineItemNotFound)

	err = f.svc.RemoveItem(context.Background(), stranger, item.ID, order.ID)
	require.ErrorIs(t, err, domain.ErrLineItemNotFound)

	items, err := f.svc.ListItems(context.Background(), f.actor, order.ID)
	require.NoError(t, err)
	assert.Len(t, items, 1)
	assert.Equal(t, 4, f.stock(t, part.ID))
}

func TestOrderTotal_SumsLineItems(t *testing.T) {
	f := newFixture(t)
	order := f.createOrder(t, "x")
	a := f.product(t, domain.ProductPhysical, 10)
	b := f.product(t, domain.ProductService, 0)

	_, err := f.svc.AddItem(context.Background(), f.actor, ordertypes.AddItemInput{
		OrderID: order.ID, ProductID: a.ID, Quantity: 2, UnitPrice: decimal.NewFromInt(50),
	})
	require.NoError(t, err)
	_, err = f.svc.AddItem(context.Background(), f.actor, ordertypes.AddItemInput{
		OrderID: order.ID, ProductID: b.ID, Quantity: 1, UnitPrice: decimal.NewFromInt(30),
	})
	require.NoError(t, err)

	total, err := f.svc.OrderTotal(context.Background(), f.actor, order.ID)
	require.NoError(t, err)
	assert.True(t, total.Equal(decimal.NewFromInt(130)), "got %s", total)
}

func TestPayments_LedgerScenario(t *testing.T) {
	f := newFixture(t)
	order := f.createOrder(t, "x")
	a := f.product(t, domain.ProductPhysical, 10)
	b := f.product(t, domain.ProductService, 0)
	for _, in := range []ordertypes.AddItemInput{
		{OrderID: order.ID, ProductID: a.ID, Quantity: 2, UnitPrice: decimal.NewFromInt(50)},
		{OrderID: order.ID, ProductID: b.ID, Quantity: 1, UnitPrice: decimal.NewFromInt(30)},
	} {
		_, err := f.svc.AddItem(context.Background(), f.actor, in)
		require.NoError(t, err)
	}

	_, err := f.svc.RegisterPayment(context.Background(), f.actor, ordertypes.RegisterPaymentInput{
		OrderID: order.ID, Amount: decimal.NewFromInt(100), Method: domain.PaymentCash,
	})
	require.NoError(t, err)

	summary, err := f.svc.LedgerSummary(context.Background(), f.actor, order.ID)
	require.NoError(t, err)
	assert.True(t, summary.TotalCost.Equal(decimal.NewFromInt(130)))
	assert.True(t, summary.TotalPaid.Equal(decimal.NewFromInt(100)))
	assert.True(t, summary.Balance.Equal(decimal.NewFromInt(30)))
	assert.False(t, summary.IsFullyPaid)

	payment, err := f.svc.RegisterPayment(context.Background(), f.actor, ordertypes.RegisterPaymentInput{
		OrderID: order.ID, Amount: decimal.NewFromInt(30), Method: domain.PaymentCard, Note: "liquidación",
	})
	require.NoError(t, err)
	assert.Equal(t, f.actor.UserID, payment.RecordedBy)

	summary, err = f.svc.LedgerSummary(context.Background(), f.actor, order.ID)
	require.NoError(t, err)
	assert.True(t, summary.Balance.IsZero())
	assert.True(t, summary.IsFullyPaid)

	payments, err := f.svc.ListPayments(context.Background(), f.actor, order.ID)
	require.NoError(t, err)
	assert.Len(t, payments, 2)
}

func TestRegisterPayment_Errors(t *testing.T) {
	f := newFixture(t)
	order := f.createOrder(t, "x")

	_, err := f.svc.RegisterPayment(context.Background(), f.actor, ordertypes.RegisterPaymentInput{
		OrderID: order.ID, Amount: decimal.Zero, Method: domain.PaymentCash,
	})
	require.ErrorIs(t, err, domain.ErrInvalidAmount)

	_, err = f.svc.RegisterPayment(context.Background(), f.actor, ordertypes.RegisterPaymentInput{
		OrderID: uuid.New(), Amount: decimal.NewFromInt(1), Method: domain.PaymentCash,
	})
	require.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestRegisterPayment_AcceptedOnDeliveredOrder(t *testing.T) {
	f := newFixture(t)
	order := f.createOrder(t, "x")
	f.moveTo(t, order.ID,
		domain.StatusDiagnosis, domain.StatusApproval, domain.StatusRepair,
		domain.StatusQA, domain.StatusReady, domain.StatusDelivered)

	_, err := f.svc.RegisterPayment(context.Background(), f.actor, ordertypes.RegisterPaymentInput{
		OrderID: order.ID, Amount: decimal.NewFromInt(15), Method: domain.PaymentTransfer,
	})
	require.NoError(t, err)
}

func TestCreateWarrantyOrder(t *testing.T) {
	f := newFixture(t)
	f.repo.SetLastFolio(f.actor.TenantID, 1041)
	original := f.createOrder(t, "pantalla rota")
	require.Equal(t, int64(1042), original.Folio)
	part := f.product(t, domain.ProductPhysical, 3)
	_, err := f.svc.AddItem(context.Background(), f.actor, ordertypes.AddItemInput{
		OrderID: original.ID, ProductID: part.ID, Quantity: 1, UnitPrice: decimal.NewFromInt(80),
	})
	require.NoError(t, err)
	f.moveTo(t, original.ID,
		domain.StatusDiagnosis, domain.StatusApproval, domain.StatusRepair,
		domain.StatusQA, domain.StatusReady, domain.StatusDelivered)

	warranty, err := f.svc.CreateWarrantyOrder(context.Background(), f.actor, original.ID)
	require.NoError(t, err)

	assert.Equal(t, domain.StatusReception, warranty.Status)
	assert.Equal(t, domain.PriorityUrgent, warranty.Priority)
	assert.True(t, warranty.IsWarranty)
	require.NotNil(t, warranty.OriginalOrderID)
	assert.Equal(t, original.ID, *warranty.OriginalOrderID)
	assert.Equal(t, original.CustomerID, warranty.CustomerID)
	assert.Equal(t, original.AssetID, warranty.AssetID)
	assert.Contains(t, warranty.ProblemDescription, "#1042")
	assert.Contains(t, warranty.ProblemDescription, "pantalla rota")
	assert.Equal(t, int64(1043), warranty.Folio)

	summary, err := f.svc.LedgerSummary(context.Background(), f.actor, warranty.ID)
	require.NoError(t, err)
	assert.True(t, summary.TotalCost.IsZero())
	assert.True(t, summary.TotalPaid.IsZero())

	again, err := f.svc.CreateWarrantyOrder(context.Background(), f.actor, original.ID)
	require.NoError(t, err)
	assert.NotEqual(t, warranty.ID, again.ID)

	_, err = f.svc.CreateWarrantyOrder(context.Background(), f.actor, uuid.New())
	require.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestListOrders_FiltersByStatus(t *testing.T) {
	f := newFixture(t)
	a := f.createOrder(t, "a")
	f.createOrder(t, "b")
	f.moveTo(t, a.ID, domain.StatusDiagnosis)

	list, err := f.svc.ListOrders(context.Background(), f.actor, ordertypes.ListOrdersInput{Statuses: []string{"diagnosis"}})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, a.ID, list[0].ID)

	all, err := f.svc.ListOrders(context.Background(), f.actor, ordertypes.ListOrdersInput{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = f.svc.ListOrders(context.Background(), f.actor, ordertypes.ListOrdersInput{Statuses: []string{"lost"}})
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestUpdateDetails_DoNotTouchStatus(t *testing.T) {
	f := newFixture(t)
	order := f.createOrder(t, "x")
	f.moveTo(t, order.ID, domain.StatusDiagnosis)

	updated, err := f.svc.UpdateDiagnosis(context.Background(), f.actor, order.ID, "flex dañado")
	require.NoError(t, err)
	require.NotNil(t, updated.Diagnosis)
	assert.Equal(t, "flex dañado", *updated.Diagnosis)
	assert.Equal(t, domain.StatusDiagnosis, updated.Status)

	tech := uuid.New()
	updated, err = f.svc.AssignTechnician(context.Background(), f.actor, order.ID, tech)
	require.NoError(t, err)
	require.NotNil(t, updated.AssignedTechnicianID)
	assert.Equal(t, tech, *updated.AssignedTechnicianID)
	assert.Equal(t, domain.StatusDiagnosis, updated.Status)
}

type countingDetailsRepo struct {
	*ordermemory.Repository
	writes int
}

func (r *countingDetailsRepo) UpdateDetails(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	r.writes++
	return r.Repository.UpdateDetails(ctx, order)
}

func TestUpdateDetails_AppliesBothFieldsInOneWrite(t *testing.T) {
	f := newFixture(t)
	order := f.createOrder(t, "x")
	repo := &countingDetailsRepo{Repository: f.repo}
	svc := NewService(repo, f.repo, f.repo)
	diagnosis := "  conector de carga  "
	tech := uuid.New()

	updated, err := svc.UpdateDetails(context.Background(), f.actor, order.ID, ordertypes.UpdateDetailsInput{
		Diagnosis:            &diagnosis,
		AssignedTechnicianID: &tech,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, repo.writes)
	require.NotNil(t, updated.Diagnosis)
	assert.Equal(t, "conector de carga", *updated.Diagnosis)
	require.NotNil(t, updated.AssignedTechnicianID)
	assert.Equal(t, tech, *updated.AssignedTechnicianID)

	empty, none := "", uuid.Nil
	updated, err = svc.UpdateDetails(context.Background(), f.actor, order.ID, ordertypes.UpdateDetailsInput{
		Diagnosis:            &empty,
		AssignedTechnicianID: &none,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, repo.writes)
	assert.Nil(t, updated.Diagnosis)
	assert.Nil(t, updated.AssignedTechnicianID)
}

type failingDetailsRepo struct {
	*ordermemory.Repository
}

func (r failingDetailsRepo) UpdateDetails(context.Context, *domain.Order) (*domain.Order, error) {
	return nil, errors.New("connection reset")
}

func TestUpdateDetails_FailureLeavesOrderUnchanged(t *testing.T) {
	f := newFixture(t)
	order := f.createOrder(t, "x")
	svc := NewService(failingDetailsRepo{f.repo}, f.repo, f.repo)
	diagnosis := "flex dañado"
	tech := uuid.New()

	_, err := svc.UpdateDetails(context.Background(), f.actor, order.ID, ordertypes.UpdateDetailsInput{
		Diagnosis:            &diagnosis,
		AssignedTechnicianID: &tech,
	})
	require.ErrorIs(t, err, ErrPersistence)

	stored, err := f.svc.GetOrder(context.Background(), f.actor, order.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.Diagnosis)
	assert.Nil(t, stored.AssignedTechnicianID)
}
