package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotificationNotFound = errors.New("notification not found")
	ErrInvalidSubscription  = errors.New("webhook subscription is invalid")
)

// Notification is an in-app message for a platform user.
type Notification struct {
	ID              uuid.UUID
	TenantID        uuid.UUID
	RecipientUserID uuid.UUID
	Title           string
	Message         string
	Link            string
	Read            bool
	CreatedAt       time.Time
}

const approvalTitle = "Aprobación requerida"

// NewApprovalNotification asks the customer behind recipient to approve the
// quote of an order.
func NewApprovalNotification(tenantID, recipient, orderID uuid.UUID, folio int64) *Notification {
	return &Notification{
		ID:              uuid.New(),
		TenantID:        tenantID,
		RecipientUserID: recipient,
		Title:           approvalTitle,
		Message:         fmt.Sprintf("La orden #%d requiere su aprobación", folio),
		Link:            "/orders/" + orderID.String(),
	}
}
