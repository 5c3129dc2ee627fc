// Package board keeps a column view of orders in sync with the server while
// moves are applied optimistically.
package board

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	orderdomain "github.com/Apurer/repairshop-api/internal/domains/orders/domain"
)

var (
	ErrUnknownOrder  = errors.New("order is not on the board")
	ErrInvalidTarget = errors.New("drop target must name a column or an order")
	ErrUnknownColumn = errors.New("unknown board column")
)

// Transitioner asks the server to move an order to target.
type Transitioner interface {
	Transition(ctx context.Context, orderID uuid.UUID, target orderdomain.Status) error
}

// DropTarget is where a card was released: a column or another card.
type DropTarget struct {
	Column  *orderdomain.Status
	OnOrder *uuid.UUID
}

func Column(status orderdomain.Status) DropTarget {
	return DropTarget{Column: &status}
}

func OnOrder(orderID uuid.UUID) DropTarget {
	return DropTarget{OnOrder: &orderID}
}

// Phase tells observers what happened to a card.
type Phase string

const (
	PhaseOptimistic Phase = "optimistic"
	PhaseConfirmed  Phase = "confirmed"
	PhaseReverted   Phase = "reverted"
)

// Change is published to observers for every step of a move.
type Change struct {
	OrderID uuid.UUID
	From    orderdomain.Status
	To      orderdomain.Status
	Phase   Phase
	Err     error
}

type Observer func(Change)

// MoveError reports a move the server refused; the card is back in From.
type MoveError struct {
	OrderID uuid.UUID
	From    orderdomain.Status
	To      orderdomain.Status
	Err     error
}

func (e *MoveError) Error() string {
	return fmt.Sprintf("move order %s from %s to %s: %v", e.OrderID, e.From, e.To, e.Err)
}

func (e *MoveError) Unwrap() error { return e.Err }

// Board is safe for concurrent use. Moves of the same order are serialized;
// moves of different orders run in parallel.
type Board struct {
	transitioner Transitioner

	mu        sync.Mutex
	statuses  map[uuid.UUID]orderdomain.Status
	inflight  map[uuid.UUID]chan struct{}
	observers []Observer
	lastErr   error
}

func New(transitioner Transitioner) *Board {
	return &Board{
		transitioner: transitioner,
		statuses:     map[uuid.UUID]orderdomain.Status{},
		inflight:     map[uuid.UUID]chan struct{}{},
	}
}

// Load replaces the local view with orders, typically from ListOrders.
func (b *Board) Load(orders []*orderdomain.Order) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.statuses = make(map[uuid.UUID]orderdomain.Status, len(orders))
	for _, o := range orders {
		if o != nil {
			b.statuses[o.ID] = o.Status
		}
	}
}

func (b *Board) Observe(fn Observer) {
	if fn == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.observers = append(b.observers, fn)
}

func (b *Board) Status(orderID uuid.UUID) (orderdomain.Status, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	status, ok := b.statuses[orderID]
	return status, ok
}

// Columns groups order ids by status.
func (b *Board) Columns() map[orderdomain.Status][]uuid.UUID {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make(map[orderdomain.Status][]uuid.UUID, len(orderdomain.Statuses))
	for _, status := range orderdomain.Statuses {
		out[status] = nil
	}
	for id, status := range b.statuses {
		out[status] = append(out[status], id)
	}
	return out
}

// LastError returns the most recent failed move, if any.
func (b *Board) LastError() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastErr
}

// Move applies a drop. The target is resolved at release time; if the order
// already sits in the target column nothing is sent.
func (b *Board) Move(ctx context.Context, orderID uuid.UUID, drop DropTarget) error {
	target, err := b.resolve(orderID, drop)
	if err != nil {
		return err
	}
	release, err := b.acquire(ctx, orderID)
	if err != nil {
		return err
	}
	defer release()

	b.mu.Lock()
	from, ok := b.statuses[orderID]
	if !ok {
		b.mu.Unlock()
		return ErrUnknownOrder
	}
	if from == target {
		b.mu.Unlock()
		return nil
	}
	b.statuses[orderID] = target
	b.mu.Unlock()
	b.notify(Change{OrderID: orderID, From: from, To: target, Phase: PhaseOptimistic})

	if err := b.transitioner.Transition(ctx, orderID, target); err != nil {
		moveErr := &MoveError{OrderID: orderID, From: from, To: target, Err: err}
		b.mu.Lock()
		b.statuses[orderID] = from
		b.lastErr = moveErr
		b.mu.Unlock()
		b.notify(Change{OrderID: orderID, From: target, To: from, Phase: PhaseReverted, Err: moveErr})
		return moveErr
	}
	b.notify(Change{OrderID: orderID, From: from, To: target, Phase: PhaseConfirmed})
	return nil
}

func (b *Board) resolve(orderID uuid.UUID, drop DropTarget) (orderdomain.Status, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.statuses[orderID]; !ok {
		return "", ErrUnknownOrder
	}
	switch {
	case drop.Column != nil:
		if !drop.Column.IsValid() {
			return "", ErrUnknownColumn
		}
		return *drop.Column, nil
	case drop.OnOrder != nil:
		status, ok := b.statuses[*drop.OnOrder]
		if !ok {
			return "", ErrUnknownOrder
		}
		return status, nil
	default:
		return "", ErrInvalidTarget
	}
}

// acquire waits for the order's in-flight move to finish. A cancelled ctx
// gives up the wait without touching the board.
func (b *Board) acquire(ctx context.Context, orderID uuid.UUID) (func(), error) {
	for {
		b.mu.Lock()
		busy, ok := b.inflight[orderID]
		if !ok {
			done := make(chan struct{})
			b.inflight[orderID] = done
			b.mu.Unlock()
			return func() {
				b.mu.Lock()
				delete(b.inflight, orderID)
				b.mu.Unlock()
				close(done)
			}, nil
		}
		b.mu.Unlock()
		select {
		case <-busy:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func (b *Board) notify(change Change) {
	b.mu.Lock()
	observers := append([]Observer(nil), b.observers...)
	b.mu.Unlock()
	for _, fn := range observers {
		fn(change)
	}
}
