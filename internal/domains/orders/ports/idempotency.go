package ports

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrIdempotencyConflict indicates the same key was used with a different payload or operation.
var ErrIdempotencyConflict = errors.New("idempotency key reused with a different request")

// IdempotencyRecord ties a client-supplied key to the resource its first request produced.
type IdempotencyRecord struct {
	TenantID    uuid.UUID
	Key         string
	Operation   string
	RequestHash string
	ResourceID  uuid.UUID
	CreatedAt   time.Time
}

// IdempotencyStore remembers keys per tenant so retried intake and payment
// requests replay instead of duplicating.
type IdempotencyStore interface {
	// Get returns the stored record for the key, or nil when unknown.
	Get(ctx context.Context, tenantID uuid.UUID, key string) (*IdempotencyRecord, error)
	// Save stores record unless the key exists, in which case the stored
	// record is returned. ErrIdempotencyConflict accompanies a stored record
	// whose operation or hash differs.
	Save(ctx context.Context, record IdempotencyRecord) (*IdempotencyRecord, error)
}
