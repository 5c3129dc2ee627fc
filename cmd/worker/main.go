package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"

	"github.com/Apurer/repairshop-api/internal/app/api"
	"github.com/Apurer/repairshop-api/internal/domains/sideeffects/adapters/webhook"
	platformobservability "github.com/Apurer/repairshop-api/internal/platform/observability"
	webhookactivities "github.com/Apurer/repairshop-api/internal/platform/temporal/activities/webhooks"
	webhookworkflows "github.com/Apurer/repairshop-api/internal/platform/temporal/workflows/webhooks"
)

func main() {
	ctx := context.Background()
	const serviceName = "repairshop-worker"
	cfg, err := api.LoadConfig()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	instruments, shutdown, err := platformobservability.Init(ctx, serviceName)
	if err != nil {
		log.Fatalf("failed to initialize observability: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			instruments.Logger.Error("failed to shutdown observability", slog.String("error", err.Error()))
		}
	}()
	logger := instruments.Logger

	temporalClient, err := api.ConnectTemporal(cfg, instruments, "temporal-worker")
	if err != nil {
		logger.Error("failed to create Temporal client", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer temporalClient.Close()

	activities := webhookactivities.NewActivities(webhook.NewSender(nil, cfg.WebhookTimeout))

	w := worker.New(temporalClient, webhookworkflows.DeliveryTaskQueue, worker.Options{})
	w.RegisterWorkflowWithOptions(webhookworkflows.DeliveryWorkflow, workflow.RegisterOptions{Name: webhookworkflows.DeliveryWorkflowName})
	w.RegisterActivityWithOptions(activities.DeliverWebhook, activity.RegisterOptions{Name: webhookactivities.DeliverWebhookActivityName})

	logger.Info("worker listening", slog.String("taskQueue", webhookworkflows.DeliveryTaskQueue), slog.String("namespace", cfg.TemporalNamespace))
	if err := w.Run(worker.InterruptCh()); err != nil {
		logger.Error("Temporal worker exited with error", slog.String("error", err.Error()))
		return
	}
	logger.Info("Temporal worker stopped")
}
