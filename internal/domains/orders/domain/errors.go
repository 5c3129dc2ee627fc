package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrInvalidStatus     = errors.New("order status is invalid")
	ErrInvalidPriority   = errors.New("order priority is invalid")
	ErrOrderNotFound     = errors.New("order not found")
	ErrProductNotFound   = errors.New("product not found")
	ErrLineItemNotFound  = errors.New("line item not found")
	ErrOrderMismatch     = errors.New("line item does not belong to order")
	ErrInvalidAmount     = errors.New("payment amount must be a positive amount in whole cents")
	ErrInvalidMethod     = errors.New("payment method is invalid")
	ErrInvalidQuantity   = errors.New("quantity must be at least one")
	ErrInvalidPrice      = errors.New("unit price must be a non-negative amount in whole cents")
	ErrMissingTenant     = errors.New("tenant id is required")
	ErrMissingCustomer   = errors.New("customer is required")
	ErrMissingProblem    = errors.New("problem description is required")
)

// TransitionError describes a rejected move between two stages.
type TransitionError struct {
	From Status
	To   Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s: %s -> %s", ErrInvalidTransition, e.From, e.To)
}

func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}
