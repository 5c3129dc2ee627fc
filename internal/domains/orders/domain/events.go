package domain

import (
	"time"

	"github.com/google/uuid"
)

// Event is the base interface for all domain events.
type Event interface {
	EventName() string
	OccurredAt() time.Time
}

// BaseEvent provides common event metadata.
type BaseEvent struct {
	Timestamp time.Time `json:"timestamp"`
}

// OccurredAt returns when the event occurred.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// EventStatusChange is the event type consumers subscribe to.
const EventStatusChange = "order.status_change"

// StatusChanged is raised whenever an order moves to a different stage.
// It is persisted in the outbox together with the status update.
type StatusChanged struct {
	BaseEvent
	OrderID        uuid.UUID `json:"orderId"`
	TenantID       uuid.UUID `json:"tenantId"`
	CustomerID     uuid.UUID `json:"customerId"`
	Folio          int64     `json:"folio"`
	PreviousStatus Status    `json:"previousStatus"`
	NewStatus      Status    `json:"newStatus"`
	UpdatedBy      uuid.UUID `json:"updatedBy"`
}

// EventName returns the event type identifier.
func (e StatusChanged) EventName() string {
	return EventStatusChange
}

// NewStatusChanged captures the transition of order performed by actor.
func NewStatusChanged(order *Order, previous Status, actor Actor, at time.Time) StatusChanged {
	return StatusChanged{
		BaseEvent:      BaseEvent{Timestamp: at},
		OrderID:        order.ID,
		TenantID:       order.TenantID,
		CustomerID:     order.CustomerID,
		Folio:          order.Folio,
		PreviousStatus: previous,
		NewStatus:      order.Status,
		UpdatedBy:      actor.UserID,
	}
}

// RequiresApproval reports whether the customer must be asked to approve.
func (e StatusChanged) RequiresApproval() bool {
	return e.NewStatus == StatusApproval
}
