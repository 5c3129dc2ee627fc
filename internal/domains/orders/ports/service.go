package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	ordertypes "github.com/Apurer/repairshop-api/internal/domains/orders/application/types"
	"github.com/Apurer/repairshop-api/internal/domains/orders/domain"
)

// Service exposes repair order use cases to adapters. Every call carries the
// acting user and tenant explicitly.
type Service interface {
	CreateOrder(ctx context.Context, actor domain.Actor, input ordertypes.CreateOrderInput) (*domain.Order, error)
	GetOrder(ctx context.Context, actor domain.Actor, orderID uuid.UUID) (*domain.Order, error)
	ListOrders(ctx context.Context, actor domain.Actor, input ordertypes.ListOrdersInput) ([]*domain.Order, error)
	UpdateDetails(ctx context.Context, actor domain.Actor, orderID uuid.UUID, input ordertypes.UpdateDetailsInput) (*domain.Order, error)
	UpdateDiagnosis(ctx context.Context, actor domain.Actor, orderID uuid.UUID, diagnosis string) (*domain.Order, error)
	AssignTechnician(ctx context.Context, actor domain.Actor, orderID, technicianID uuid.UUID) (*domain.Order, error)

	Transition(ctx context.Context, actor domain.Actor, orderID uuid.UUID, target domain.Status) (*ordertypes.TransitionResult, error)

	AddItem(ctx context.Context, actor domain.Actor, input ordertypes.AddItemInput) (*domain.LineItem, error)
	RemoveItem(ctx context.Context, actor domain.Actor, lineItemID, orderID uuid.UUID) error
	ListItems(ctx context.Context, actor domain.Actor, orderID uuid.UUID) ([]*domain.LineItem, error)
	OrderTotal(ctx context.Context, actor domain.Actor, orderID uuid.UUID) (decimal.Decimal, error)

	RegisterPayment(ctx context.Context, actor domain.Actor, input ordertypes.RegisterPaymentInput) (*domain.Payment, error)
	ListPayments(ctx context.Context, actor domain.Actor, orderID uuid.UUID) ([]*domain.Payment, error)
	LedgerSummary(ctx context.Context, actor domain.Actor, orderID uuid.UUID) (domain.LedgerSummary, error)

	CreateWarrantyOrder(ctx context.Context, actor domain.Actor, originalOrderID uuid.UUID) (*domain.Order, error)
}
