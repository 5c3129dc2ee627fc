package workflows

import (
	"context"
	"errors"
	"fmt"

	oteltrace "go.opentelemetry.io/otel/trace"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"

	"github.com/Apurer/repairshop-api/internal/domains/sideeffects/domain"
	"github.com/Apurer/repairshop-api/internal/domains/sideeffects/ports"
	webhookworkflows "github.com/Apurer/repairshop-api/internal/platform/temporal/workflows/webhooks"
)

var (
	_ ports.WebhookDelivery = (*TemporalDelivery)(nil)
	_ ports.WebhookDelivery = (*InlineDelivery)(nil)
)

// TemporalDelivery hands deliveries to a Temporal workflow that retries them
// with backoff. Deliver returns once the workflow is started.
type TemporalDelivery struct {
	client    client.Client
	taskQueue string
}

func NewTemporalDelivery(c client.Client) *TemporalDelivery {
	return &TemporalDelivery{client: c, taskQueue: webhookworkflows.DeliveryTaskQueue}
}

func (d *TemporalDelivery) Deliver(ctx context.Context, delivery domain.Delivery) error {
	if d == nil || d.client == nil {
		return errors.New("temporal webhook delivery not configured")
	}
	options := client.StartWorkflowOptions{
		ID:        deliveryWorkflowID(delivery),
		TaskQueue: d.taskQueue,
	}
	_, err := d.client.ExecuteWorkflow(
		ctx,
		options,
		webhookworkflows.DeliveryWorkflowName,
		webhookworkflows.DeliveryWorkflowInput{Delivery: delivery, TraceID: traceID(ctx)},
	)
	var alreadyStarted *serviceerror.WorkflowExecutionAlreadyStarted
	if errors.As(err, &alreadyStarted) {
		return nil
	}
	return err
}

// InlineDelivery posts from the caller's goroutine with a single attempt.
type InlineDelivery struct {
	sender ports.WebhookSender
}

func NewInlineDelivery(sender ports.WebhookSender) *InlineDelivery {
	return &InlineDelivery{sender: sender}
}

func (d *InlineDelivery) Deliver(ctx context.Context, delivery domain.Delivery) error {
	if d == nil || d.sender == nil {
		return errors.New("inline webhook delivery not configured")
	}
	return d.sender.Send(ctx, delivery)
}

func deliveryWorkflowID(delivery domain.Delivery) string {
	return fmt.Sprintf("webhook-delivery-%s", delivery.ID)
}

func traceID(ctx context.Context) string {
	spanCtx := oteltrace.SpanContextFromContext(ctx)
	if !spanCtx.TraceID().IsValid() {
		return ""
	}
	return spanCtx.TraceID().String()
}
