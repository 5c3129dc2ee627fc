package webhooks

import (
	"context"
	"errors"

	"go.temporal.io/sdk/activity"

	"github.com/Apurer/repairshop-api/internal/domains/sideeffects/domain"
	"github.com/Apurer/repairshop-api/internal/domains/sideeffects/ports"
)

// DeliverWebhookActivityName posts one envelope to one subscriber.
const DeliverWebhookActivityName = "webhooks.activities.DeliverWebhook"

// Activities groups the outbound webhook activities.
type Activities struct {
	sender ports.WebhookSender
}

func NewActivities(sender ports.WebhookSender) *Activities {
	return &Activities{sender: sender}
}

// DeliverWebhook makes a single attempt; the workflow retry policy decides
// whether to try again.
func (a *Activities) DeliverWebhook(ctx context.Context, delivery domain.Delivery) error {
	logger := activity.GetLogger(ctx)
	if a == nil || a.sender == nil {
		logger.Error("webhook activity not initialized", "deliveryId", delivery.ID)
		return errors.New("webhook activity not initialized")
	}
	attempt := activity.GetInfo(ctx).Attempt
	logger.Info("DeliverWebhook activity started", "deliveryId", delivery.ID, "attempt", attempt)
	if err := a.sender.Send(ctx, delivery); err != nil {
		logger.Warn("DeliverWebhook attempt failed", "deliveryId", delivery.ID, "attempt", attempt, "error", err)
		return err
	}
	logger.Info("DeliverWebhook activity completed", "deliveryId", delivery.ID)
	return nil
}
