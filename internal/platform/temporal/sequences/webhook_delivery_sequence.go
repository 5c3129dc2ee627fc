package sequences

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/Apurer/repairshop-api/internal/domains/sideeffects/domain"
	webhookactivities "github.com/Apurer/repairshop-api/internal/platform/temporal/activities/webhooks"
)

// RunWebhookDeliverySequence retries a delivery with exponential backoff
// until it succeeds or the attempts run out.
func RunWebhookDeliverySequence(ctx workflow.Context, delivery domain.Delivery) error {
	logger := workflow.GetLogger(ctx)
	logger.Info("webhook delivery sequence started", "deliveryId", delivery.ID)
	options := workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    2 * time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    10 * time.Second,
			MaximumAttempts:    5,
		},
	}
	err := workflow.ExecuteActivity(workflow.WithActivityOptions(ctx, options), webhookactivities.DeliverWebhookActivityName, delivery).Get(ctx, nil)
	if err != nil {
		logger.Error("webhook delivery sequence failed", "deliveryId", delivery.ID, "error", err)
		return err
	}
	logger.Info("webhook delivery sequence completed", "deliveryId", delivery.ID)
	return nil
}
