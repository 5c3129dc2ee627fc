package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Actor identifies who performs an operation and on behalf of which tenant.
type Actor struct {
	TenantID uuid.UUID
	UserID   uuid.UUID
}

// Order is the repair order aggregate.
type Order struct {
	ID                   uuid.UUID
	TenantID             uuid.UUID
	CustomerID           uuid.UUID
	AssetID              uuid.UUID
	Folio                int64
	Status               Status
	Priority             Priority
	ProblemDescription   string
	Diagnosis            *string
	AssignedTechnicianID *uuid.UUID
	IsWarranty           bool
	OriginalOrderID      *uuid.UUID
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// NewOrder builds an order at intake. The folio is assigned by the store.
func NewOrder(tenantID, customerID, assetID uuid.UUID, priority Priority, problem string) (*Order, error) {
	if priority == "" {
		priority = PriorityNormal
	}
	order := &Order{
		ID:                 uuid.New(),
		TenantID:           tenantID,
		CustomerID:         customerID,
		AssetID:            assetID,
		Status:             StatusReception,
		Priority:           priority,
		ProblemDescription: strings.TrimSpace(problem),
	}
	if err := order.Validate(); err != nil {
		return nil, err
	}
	return order, nil
}

// Validate enforces invariants on the aggregate.
func (o *Order) Validate() error {
	if o.TenantID == uuid.Nil {
		return ErrMissingTenant
	}
	if o.CustomerID == uuid.Nil {
		return ErrMissingCustomer
	}
	if o.ProblemDescription == "" {
		return ErrMissingProblem
	}
	if !o.Status.IsValid() {
		return ErrInvalidStatus
	}
	if !o.Priority.IsValid() {
		return ErrInvalidPriority
	}
	return nil
}

// TransitionTo moves the order to target. It reports false without error when
// target equals the current status.
func (o *Order) TransitionTo(target Status) (bool, error) {
	if !target.IsValid() {
		return false, ErrInvalidStatus
	}
	if target == o.Status {
		return false, nil
	}
	if !CanTransition(o.Status, target) {
		return false, &TransitionError{From: o.Status, To: target}
	}
	o.Status = target
	return true, nil
}

// DisplayFolio renders the folio the way staff and customers see it.
func (o *Order) DisplayFolio() string {
	return FormatFolio(o.Folio)
}

func FormatFolio(folio int64) string {
	return fmt.Sprintf("#%d", folio)
}

// NewWarrantyOrder derives a follow-up order from original. The new order
// starts over at reception with an empty ledger.
func NewWarrantyOrder(original *Order) *Order {
	originalID := original.ID
	return &Order{
		ID:                 uuid.New(),
		TenantID:           original.TenantID,
		CustomerID:         original.CustomerID,
		AssetID:            original.AssetID,
		Status:             StatusReception,
		Priority:           PriorityUrgent,
		ProblemDescription: WarrantyProblem(original.Folio, original.ProblemDescription),
		IsWarranty:         true,
		OriginalOrderID:    &originalID,
	}
}

// WarrantyProblem builds the problem text of a warranty order.
func WarrantyProblem(originalFolio int64, originalProblem string) string {
	return fmt.Sprintf("Garantía: reingreso de la orden %s. Problema original: %s", FormatFolio(originalFolio), originalProblem)
}

// Clone returns a deep copy safe to hand out of a store.
func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	clone := *o
	if o.Diagnosis != nil {
		diagnosis := *o.Diagnosis
		clone.Diagnosis = &diagnosis
	}
	if o.AssignedTechnicianID != nil {
		tech := *o.AssignedTechnicianID
		clone.AssignedTechnicianID = &tech
	}
	if o.OriginalOrderID != nil {
		original := *o.OriginalOrderID
		clone.OriginalOrderID = &original
	}
	return &clone
}
