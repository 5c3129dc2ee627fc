package domain

import (
	"errors"
	"strings"

	"github.com/google/uuid"
)

var ErrInvalidCustomerRef = errors.New("customer reference must carry an id or a virtual customer name")

// VirtualCustomer is captured at the counter and does not exist in the
// customer directory yet.
type VirtualCustomer struct {
	Name  string
	Phone string
	Email string
}

// CustomerRef points at an existing customer or describes a virtual one.
type CustomerRef struct {
	ID      *uuid.UUID
	Virtual *VirtualCustomer
}

func (r CustomerRef) Validate() error {
	if r.ID != nil && *r.ID != uuid.Nil {
		return nil
	}
	if r.Virtual != nil && strings.TrimSpace(r.Virtual.Name) != "" {
		return nil
	}
	return ErrInvalidCustomerRef
}
