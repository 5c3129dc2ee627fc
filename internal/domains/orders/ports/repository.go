package ports

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/Apurer/repairshop-api/internal/domains/orders/domain"
	"github.com/Apurer/repairshop-api/internal/platform/outbox"
)

var ErrNotFound = errors.New("record not found")

// ListFilter narrows order listings. Empty Statuses returns every stage.
type ListFilter struct {
	Statuses []domain.Status
	Limit    int
}

// OrderRepository persists repair orders scoped by tenant.
type OrderRepository interface {
	// Create assigns the next folio of the order's tenant and stores the order.
	Create(ctx context.Context, order *domain.Order) (*domain.Order, error)
	Get(ctx context.Context, tenantID, id uuid.UUID) (*domain.Order, error)
	List(ctx context.Context, tenantID uuid.UUID, filter ListFilter) ([]*domain.Order, error)
	// UpdateDetails writes every mutable field except status.
	UpdateDetails(ctx context.Context, order *domain.Order) (*domain.Order, error)
	// UpdateStatus writes the status and appends events to the outbox in the
	// same transaction. Nothing is written when it fails.
	UpdateStatus(ctx context.Context, order *domain.Order, events ...outbox.Event) (*domain.Order, error)
}

// LedgerRepository persists line items and payments.
type LedgerRepository interface {
	// AttachItem inserts item and applies adjust, when present, atomically.
	AttachItem(ctx context.Context, item *domain.LineItem, adjust *domain.StockAdjustment) (*domain.LineItem, error)
	// DetachItem deletes item and applies adjust, when present, atomically.
	DetachItem(ctx context.Context, item *domain.LineItem, adjust *domain.StockAdjustment) error
	GetItem(ctx context.Context, id uuid.UUID) (*domain.LineItem, error)
	ListItems(ctx context.Context, orderID uuid.UUID) ([]*domain.LineItem, error)
	AddPayment(ctx context.Context, payment *domain.Payment) (*domain.Payment, error)
	ListPayments(ctx context.Context, orderID uuid.UUID) ([]*domain.Payment, error)
}

// Inventory reads the product catalog.
type Inventory interface {
	GetProduct(ctx context.Context, tenantID, productID uuid.UUID) (*domain.Product, error)
}
