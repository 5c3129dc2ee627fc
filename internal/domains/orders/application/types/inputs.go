package types

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Apurer/repairshop-api/internal/domains/orders/domain"
)

// CreateOrderInput carries intake data for a new repair order.
type CreateOrderInput struct {
	Customer           domain.CustomerRef
	AssetID            uuid.UUID
	Priority           domain.Priority
	ProblemDescription string
	// IdempotencyKey, when set, makes retries of the same intake return the
	// order created by the first attempt.
	IdempotencyKey string
}

// ListOrdersInput filters the board feed.
type ListOrdersInput struct {
	Statuses []string
	Limit    int
}

// UpdateDetailsInput edits the free-form fields of an order. An empty
// diagnosis or a nil technician UUID clears the field.
type UpdateDetailsInput struct {
	Diagnosis            *string
	AssignedTechnicianID *uuid.UUID
}

// AddItemInput attaches a product to an order.
type AddItemInput struct {
	OrderID   uuid.UUID
	ProductID uuid.UUID
	Quantity  int
	UnitPrice decimal.Decimal
}

// RegisterPaymentInput records money received against an order.
type RegisterPaymentInput struct {
	OrderID uuid.UUID
	Amount  decimal.Decimal
	Method  domain.PaymentMethod
	Note    string

	IdempotencyKey string
}

// TransitionResult reports the order after a transition request. Changed is
// false when the order already was in the requested stage.
type TransitionResult struct {
	Order   *domain.Order
	Changed bool
}
