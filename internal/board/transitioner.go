package board

import (
	"context"

	"github.com/google/uuid"

	orderdomain "github.com/Apurer/repairshop-api/internal/domains/orders/domain"
	orderports "github.com/Apurer/repairshop-api/internal/domains/orders/ports"
)

// ServiceTransitioner moves orders through the in-process orders service on
// behalf of a fixed actor.
type ServiceTransitioner struct {
	service orderports.Service
	actor   orderdomain.Actor
}

func NewServiceTransitioner(service orderports.Service, actor orderdomain.Actor) *ServiceTransitioner {
	return &ServiceTransitioner{service: service, actor: actor}
}

func (t *ServiceTransitioner) Transition(ctx context.Context, orderID uuid.UUID, target orderdomain.Status) error {
	_, err := t.service.Transition(ctx, t.actor, orderID, target)
	return err
}
