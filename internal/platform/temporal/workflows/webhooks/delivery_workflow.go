package webhooks

import (
	"go.temporal.io/sdk/workflow"

	"github.com/Apurer/repairshop-api/internal/domains/sideeffects/domain"
	"github.com/Apurer/repairshop-api/internal/platform/temporal/sequences"
)

const (
	// DeliveryWorkflowName is the public identifier for registering the workflow.
	DeliveryWorkflowName = "webhooks.workflows.Delivery"
	// DeliveryTaskQueue is the queue consumed by the webhook worker.
	DeliveryTaskQueue = "WEBHOOK_DELIVERY"
)

// DeliveryWorkflowInput carries one delivery and the trace that produced it.
type DeliveryWorkflowInput struct {
	Delivery domain.Delivery
	TraceID  string
}

// DeliveryWorkflow delivers a webhook durably.
func DeliveryWorkflow(ctx workflow.Context, input DeliveryWorkflowInput) error {
	logger := workflow.GetLogger(ctx)
	logger.Info("DeliveryWorkflow started", withTraceID(input.TraceID, "deliveryId", input.Delivery.ID)...)
	if err := sequences.RunWebhookDeliverySequence(ctx, input.Delivery); err != nil {
		logger.Error("DeliveryWorkflow gave up", withTraceID(input.TraceID, "deliveryId", input.Delivery.ID, "error", err)...)
		return err
	}
	logger.Info("DeliveryWorkflow completed", withTraceID(input.TraceID, "deliveryId", input.Delivery.ID)...)
	return nil
}

func withTraceID(traceID string, keyvals ...interface{}) []interface{} {
	if traceID == "" {
		return keyvals
	}
	return append(keyvals, "traceId", traceID)
}
