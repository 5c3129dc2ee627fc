package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/Apurer/repairshop-api/internal/domains/orders/domain"
)

// CustomerResolver turns a customer reference into a durable customer id,
// materializing virtual customers when needed.
type CustomerResolver interface {
	Resolve(ctx context.Context, tenantID uuid.UUID, ref domain.CustomerRef) (uuid.UUID, error)
}
