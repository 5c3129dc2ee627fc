package application

import (
	"errors"
	"fmt"

	"github.com/Apurer/repairshop-api/internal/domains/orders/domain"
)

var (
	// ErrInvalidInput signals the request violated a domain invariant.
	ErrInvalidInput = errors.New("invalid order input")
	// ErrPersistence matches every PersistenceError.
	ErrPersistence = errors.New("persistence failure")
)

// PersistenceError wraps a store failure. No side effects were enqueued for
// the operation that produced it.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrPersistence, e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func (e *PersistenceError) Is(target error) bool { return target == ErrPersistence }

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrInvalidStatus) ||
		errors.Is(err, domain.ErrInvalidPriority) ||
		errors.Is(err, domain.ErrInvalidAmount) ||
		errors.Is(err, domain.ErrInvalidMethod) ||
		errors.Is(err, domain.ErrInvalidQuantity) ||
		errors.Is(err, domain.ErrInvalidPrice) ||
		errors.Is(err, domain.ErrMissingTenant) ||
		errors.Is(err, domain.ErrMissingCustomer) ||
		errors.Is(err, domain.ErrMissingProblem) ||
		errors.Is(err, domain.ErrInvalidCustomerRef) {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return err
}

func persistenceError(op string, err error) error {
	if err == nil {
		return nil
	}
	var pe *PersistenceError
	if errors.As(err, &pe) {
		return err
	}
	return &PersistenceError{Op: op, Err: err}
}
