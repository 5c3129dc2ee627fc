package mapper

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	ordertypes "github.com/Apurer/repairshop-api/internal/domains/orders/application/types"
	"github.com/Apurer/repairshop-api/internal/domains/orders/domain"
)

// VirtualCustomer is a walk-in customer not yet stored locally.
type VirtualCustomer struct {
	Name  string `json:"name"`
	Phone string `json:"phone,omitempty"`
	Email string `json:"email,omitempty"`
}

// CreateOrder is the intake payload. Exactly one of CustomerID and Customer
// is expected.
type CreateOrder struct {
	CustomerID         *uuid.UUID       `json:"customerId,omitempty"`
	Customer           *VirtualCustomer `json:"customer,omitempty"`
	AssetID            uuid.UUID        `json:"assetId"`
	Priority           string           `json:"priority,omitempty"`
	ProblemDescription string           `json:"problemDescription" binding:"required"`
}

// UpdateOrder edits fields that never affect the stage.
type UpdateOrder struct {
	Diagnosis            *string    `json:"diagnosis,omitempty"`
	AssignedTechnicianID *uuid.UUID `json:"assignedTechnicianId,omitempty"`
}

type Transition struct {
	Status string `json:"status" binding:"required"`
}

type AddItem struct {
	ProductID uuid.UUID       `json:"productId" binding:"required"`
	Quantity  int             `json:"quantity" binding:"required"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

type RegisterPayment struct {
	Amount decimal.Decimal `json:"amount"`
	Method string          `json:"method" binding:"required"`
	Note   string          `json:"note,omitempty"`
}

// Order is the HTTP representation of a repair order.
type Order struct {
	ID                   uuid.UUID  `json:"id"`
	Folio                int64      `json:"folio"`
	DisplayFolio         string     `json:"displayFolio"`
	CustomerID           uuid.UUID  `json:"customerId"`
	AssetID              uuid.UUID  `json:"assetId"`
	Status               string     `json:"status"`
	AllowedNext          []string   `json:"allowedNext"`
	Priority             string     `json:"priority"`
	ProblemDescription   string     `json:"problemDescription"`
	Diagnosis            *string    `json:"diagnosis,omitempty"`
	AssignedTechnicianID *uuid.UUID `json:"assignedTechnicianId,omitempty"`
	IsWarranty           bool       `json:"isWarranty"`
	OriginalOrderID      *uuid.UUID `json:"originalOrderId,omitempty"`
	CreatedAt            time.Time  `json:"createdAt"`
	UpdatedAt            time.Time  `json:"updatedAt"`
}

type TransitionResult struct {
	Success bool   `json:"success"`
	Changed bool   `json:"changed"`
	Order   *Order `json:"order"`
}

type LineItem struct {
	ID        uuid.UUID       `json:"id"`
	OrderID   uuid.UUID       `json:"orderId"`
	ProductID uuid.UUID       `json:"productId"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Total     decimal.Decimal `json:"total"`
	CreatedAt time.Time       `json:"createdAt"`
}

type Payment struct {
	ID         uuid.UUID       `json:"id"`
	OrderID    uuid.UUID       `json:"orderId"`
	Amount     decimal.Decimal `json:"amount"`
	Method     string          `json:"method"`
	Note       *string         `json:"note,omitempty"`
	RecordedBy uuid.UUID       `json:"recordedBy"`
	CreatedAt  time.Time       `json:"createdAt"`
}

type Total struct {
	OrderID uuid.UUID       `json:"orderId"`
	Total   decimal.Decimal `json:"total"`
}

type Ledger struct {
	TotalCost   decimal.Decimal `json:"totalCost"`
	TotalPaid   decimal.Decimal `json:"totalPaid"`
	Balance     decimal.Decimal `json:"balance"`
	IsFullyPaid bool            `json:"isFullyPaid"`
}

func ToCreateInput(req CreateOrder) ordertypes.CreateOrderInput {
	input := ordertypes.CreateOrderInput{
		Customer:           domain.CustomerRef{ID: req.CustomerID},
		AssetID:            req.AssetID,
		Priority:           domain.Priority(req.Priority),
		ProblemDescription: req.ProblemDescription,
	}
	if req.Customer != nil {
		input.Customer.Virtual = &domain.VirtualCustomer{
			Name:  req.Customer.Name,
			Phone: req.Customer.Phone,
			Email: req.Customer.Email,
		}
	}
	return input
}

func FromOrder(o *domain.Order) *Order {
	if o == nil {
		return nil
	}
	allowed := make([]string, 0, 2)
	for _, next := range o.Status.AllowedNext() {
		allowed = append(allowed, string(next))
	}
	return &Order{
		ID:                   o.ID,
		Folio:                o.Folio,
		DisplayFolio:         o.DisplayFolio(),
		CustomerID:           o.CustomerID,
		AssetID:              o.AssetID,
		Status:               string(o.Status),
		AllowedNext:          allowed,
		Priority:             string(o.Priority),
		ProblemDescription:   o.ProblemDescription,
		Diagnosis:            o.Diagnosis,
		AssignedTechnicianID: o.AssignedTechnicianID,
		IsWarranty:           o.IsWarranty,
		OriginalOrderID:      o.OriginalOrderID,
		CreatedAt:            o.CreatedAt,
		UpdatedAt:            o.UpdatedAt,
	}
}

func FromOrders(orders []*domain.Order) []*Order {
	out := make([]*Order, 0, len(orders))
	for _, o := range orders {
		out = append(out, FromOrder(o))
	}
	return out
}

func FromTransition(result *ordertypes.TransitionResult) TransitionResult {
	return TransitionResult{Success: true, Changed: result.Changed, Order: FromOrder(result.Order)}
}

func FromLineItem(item *domain.LineItem) LineItem {
	return LineItem{
		ID:        item.ID,
		OrderID:   item.OrderID,
		ProductID: item.ProductID,
		Quantity:  item.Quantity,
		UnitPrice: item.UnitPrice,
		Total:     item.Total,
		CreatedAt: item.CreatedAt,
	}
}

func FromLineItems(items []*domain.LineItem) []LineItem {
	out := make([]LineItem, 0, len(items))
	for _, item := range items {
		out = append(out, FromLineItem(item))
	}
	return out
}

func FromPayment(p *domain.Payment) Payment {
	return Payment{
		ID:         p.ID,
		OrderID:    p.OrderID,
		Amount:     p.Amount,
		Method:     string(p.Method),
		Note:       p.Note,
		RecordedBy: p.RecordedBy,
		CreatedAt:  p.CreatedAt,
	}
}

func FromPayments(payments []*domain.Payment) []Payment {
	out := make([]Payment, 0, len(payments))
	for _, p := range payments {
		out = append(out, FromPayment(p))
	}
	return out
}

func FromSummary(s domain.LedgerSummary) Ledger {
	return Ledger{
		TotalCost:   s.TotalCost,
		TotalPaid:   s.TotalPaid,
		Balance:     s.Balance,
		IsFullyPaid: s.IsFullyPaid,
	}
}
