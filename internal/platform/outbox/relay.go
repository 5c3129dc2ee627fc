package outbox

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// ErrPermanent marks dispatch failures that retrying cannot fix.
var ErrPermanent = errors.New("permanent")

// Store is implemented by every persistence adapter that writes outbox rows.
type Store interface {
	LockBatch(ctx context.Context, relayID string, batchSize int, lease time.Duration) ([]Event, error)
	MarkSent(ctx context.Context, ids []uuid.UUID) error
	MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error
	// ExtendLease pushes the lease of rows still held by relayID.
	ExtendLease(ctx context.Context, relayID string, ids []uuid.UUID, lease time.Duration) error
}

// Purger removes delivered rows.
type Purger interface {
	PurgeSent(ctx context.Context, olderThan time.Time) (int64, error)
}

// Dispatcher performs the side effects of one event.
type Dispatcher interface {
	Dispatch(ctx context.Context, event Event) error
}

// DispatcherFunc adapts a function to Dispatcher.
type DispatcherFunc func(ctx context.Context, event Event) error

func (f DispatcherFunc) Dispatch(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// Relay polls the store and hands pending events to the dispatcher.
type Relay struct {
	log       *slog.Logger
	store     Store
	dispatch  Dispatcher
	relayID   string
	batchSize int
	interval  time.Duration
	lease     time.Duration
	now       func() time.Time
}

type Option func(*Relay)

func WithBatchSize(n int) Option {
	return func(r *Relay) {
		if n > 0 {
			r.batchSize = n
		}
	}
}

func WithInterval(d time.Duration) Option {
	return func(r *Relay) {
		if d > 0 {
			r.interval = d
		}
	}
}

func WithLease(d time.Duration) Option {
	return func(r *Relay) {
		if d > 0 {
			r.lease = d
		}
	}
}

func NewRelay(log *slog.Logger, store Store, dispatch Dispatcher, relayID string, opts ...Option) *Relay {
	if log == nil {
		log = slog.Default()
	}
	r := &Relay{
		log:       log,
		store:     store,
		dispatch:  dispatch,
		relayID:   relayID,
		batchSize: 100,
		interval:  500 * time.Millisecond,
		lease:     5 * time.Second,
		now:       time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Run polls until ctx is cancelled.
func (r *Relay) Run(ctx context.Context) error {
	t := time.NewTicker(r.interval)
	defer t.Stop()

	r.log.Info("relay started", slog.String("relay_id", r.relayID), slog.Duration("interval", r.interval))
	for {
		select {
		case <-ctx.Done():
			r.log.Info("relay stopping", slog.String("relay_id", r.relayID))
			return nil
		case <-t.C:
			if _, err := r.RunOnce(ctx); err != nil && ctx.Err() == nil {
				r.log.Error("relay batch error", slog.String("relay_id", r.relayID), slog.String("error", err.Error()))
			}
		}
	}
}

// RunOnce drains a single batch and returns how many events were sent. The
// batch lease is renewed once half of it has elapsed; rows stay leased until
// MarkSent or MarkFailed releases them.
func (r *Relay) RunOnce(ctx context.Context) (int, error) {
	leasedUntil := r.now().Add(r.lease)
	events, err := r.store.LockBatch(ctx, r.relayID, r.batchSize, r.lease)
	if err != nil {
		return 0, err
	}
	if len(events) == 0 {
		return 0, nil
	}

	ids := make([]uuid.UUID, 0, len(events))
	for _, e := range events {
		if r.now().Add(r.lease / 2).After(leasedUntil) {
			renewAt := r.now()
			if err := r.store.ExtendLease(ctx, r.relayID, eventIDs(events), r.lease); err != nil {
				r.log.Error("relay extend lease failed",
					slog.String("relay_id", r.relayID),
					slog.String("error", err.Error()))
				break
			}
			leasedUntil = renewAt.Add(r.lease)
		}
		if err := r.dispatch.Dispatch(e.Context(ctx), e); err != nil {
			r.log.Error("outbox dispatch failed",
				slog.String("event.id", e.ID.String()),
				slog.String("event.type", e.Type),
				slog.String("error", err.Error()))
			if markErr := r.store.MarkFailed(ctx, e.ID, err.Error()); markErr != nil {
				r.log.Error("relay mark failed error", slog.String("event.id", e.ID.String()), slog.String("error", markErr.Error()))
			}
			continue
		}
		ids = append(ids, e.ID)
	}
	if len(ids) > 0 {
		if err := r.store.MarkSent(ctx, ids); err != nil {
			return 0, err
		}
	}
	return len(ids), nil
}

func eventIDs(events []Event) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(events))
	for _, e := range events {
		ids = append(ids, e.ID)
	}
	return ids
}
