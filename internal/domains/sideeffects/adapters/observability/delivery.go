package observability

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/Apurer/repairshop-api/internal/domains/sideeffects/domain"
	"github.com/Apurer/repairshop-api/internal/domains/sideeffects/ports"
	"github.com/Apurer/repairshop-api/internal/platform/outbox"
)

const tracerName = "github.com/Apurer/repairshop-api/internal/domains/sideeffects/adapters/observability"

type config struct {
	tracer trace.Tracer
	logger *slog.Logger
	meter  metric.Meter
}

type Option func(*config)

func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

func WithTracer(tr trace.Tracer) Option {
	return func(c *config) {
		c.tracer = tr
	}
}

func WithMeter(m metric.Meter) Option {
	return func(c *config) {
		c.meter = m
	}
}

func newConfig(opts []Option) config {
	c := config{tracer: nooptrace.NewTracerProvider().Tracer(tracerName)}
	for _, opt := range opts {
		if opt != nil {
			opt(&c)
		}
	}
	if c.tracer == nil {
		c.tracer = nooptrace.NewTracerProvider().Tracer(tracerName)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// Delivery traces and counts webhook hand-offs by outcome. Failures are
// logged by the dispatcher that owns the subscription.
type Delivery struct {
	inner      ports.WebhookDelivery
	cfg        config
	deliveries metric.Int64Counter
}

func NewDelivery(inner ports.WebhookDelivery, opts ...Option) ports.WebhookDelivery {
	d := &Delivery{inner: inner, cfg: newConfig(opts)}
	if d.cfg.meter != nil {
		d.deliveries, _ = d.cfg.meter.Int64Counter("sideeffects.webhook.deliveries",
			metric.WithDescription("Number of webhook deliveries by outcome"))
	}
	return d
}

func (d *Delivery) Deliver(ctx context.Context, delivery domain.Delivery) error {
	ctx, span := d.cfg.tracer.Start(ctx, "WebhookDelivery.Deliver", trace.WithAttributes(
		attribute.String("webhook.delivery_id", delivery.ID),
		attribute.String("webhook.subscription_id", delivery.SubscriptionID.String()),
		attribute.String("webhook.event", delivery.Envelope.EventType),
	))
	defer span.End()

	err := d.inner.Deliver(ctx, delivery)
	outcome := "ok"
	if err != nil {
		outcome = "failed"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	if d.deliveries != nil {
		d.deliveries.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	}
	return err
}

// Dispatcher wraps each relayed event in a span.
type Dispatcher struct {
	inner outbox.Dispatcher
	cfg   config
}

func NewDispatcher(inner outbox.Dispatcher, opts ...Option) outbox.Dispatcher {
	return &Dispatcher{inner: inner, cfg: newConfig(opts)}
}

func (d *Dispatcher) Dispatch(ctx context.Context, event outbox.Event) error {
	ctx, span := d.cfg.tracer.Start(event.Context(ctx), "SideEffects.Dispatch", trace.WithAttributes(
		attribute.String("event.id", event.ID.String()),
		attribute.String("event.type", event.Type),
		attribute.String("aggregate.id", event.AggregateID),
	))
	defer span.End()
	if err := d.inner.Dispatch(ctx, event); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		d.cfg.logger.LogAttrs(ctx, slog.LevelError, "event dispatch failed",
			slog.String("event.id", event.ID.String()),
			slog.String("error", err.Error()),
		)
		return err
	}
	return nil
}
