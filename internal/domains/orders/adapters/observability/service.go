package observability

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	ordertypes "github.com/Apurer/repairshop-api/internal/domains/orders/application/types"
	orderdomain "github.com/Apurer/repairshop-api/internal/domains/orders/domain"
	orderports "github.com/Apurer/repairshop-api/internal/domains/orders/ports"
)

const tracerName = "github.com/Apurer/repairshop-api/internal/domains/orders/adapters/observability/service"

// Service decorates the orders service with tracing, logging, and metrics.
type Service struct {
	inner   orderports.Service
	tracer  trace.Tracer
	logger  *slog.Logger
	metrics serviceMetrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithTracer(tr trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tr
	}
}

func WithMeter(m metric.Meter) Option {
	return func(s *Service) {
		s.metrics = newServiceMetrics(m)
	}
}

// New wraps the core orders service.
func New(inner orderports.Service, opts ...Option) orderports.Service {
	s := &Service{
		inner:   inner,
		tracer:  nooptrace.NewTracerProvider().Tracer(tracerName),
		metrics: newServiceMetrics(nil),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.tracer == nil {
		s.tracer = nooptrace.NewTracerProvider().Tracer(tracerName)
	}
	return s
}

func (s *Service) start(ctx context.Context, name string, actor orderdomain.Actor, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append(attrs,
		attribute.String("tenant.id", actor.TenantID.String()),
		attribute.String("user.id", actor.UserID.String()))
	return s.tracer.Start(ctx, "OrderService."+name, trace.WithAttributes(attrs...))
}

func (s *Service) CreateOrder(ctx context.Context, actor orderdomain.Actor, input ordertypes.CreateOrderInput) (*orderdomain.Order, error) {
	ctx, span := s.start(ctx, "CreateOrder", actor, attribute.String("order.priority", string(input.Priority)))
	defer span.End()

	result, err := s.inner.CreateOrder(ctx, actor, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to create order", slog.String("tenant.id", actor.TenantID.String()))
	}
	span.SetAttributes(attribute.String("order.id", result.ID.String()), attribute.Int64("order.folio", result.Folio))
	s.metrics.recordCreated(ctx, result.IsWarranty)
	s.logInfo(ctx, "order created",
		slog.String("order.id", result.ID.String()),
		slog.Int64("order.folio", result.Folio),
		slog.String("tenant.id", actor.TenantID.String()))
	return result, nil
}

func (s *Service) GetOrder(ctx context.Context, actor orderdomain.Actor, orderID uuid.UUID) (*orderdomain.Order, error) {
	ctx, span := s.start(ctx, "GetOrder", actor, attribute.String("order.id", orderID.String()))
	defer span.End()

	result, err := s.inner.GetOrder(ctx, actor, orderID)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to load order", slog.String("order.id", orderID.String()))
	}
	return result, nil
}

func (s *Service) ListOrders(ctx context.Context, actor orderdomain.Actor, input ordertypes.ListOrdersInput) ([]*orderdomain.Order, error) {
	ctx, span := s.start(ctx, "ListOrders", actor, attribute.StringSlice("order.statuses", input.Statuses))
	defer span.End()

	result, err := s.inner.ListOrders(ctx, actor, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to list orders")
	}
	span.SetAttributes(attribute.Int("order.count", len(result)))
	return result, nil
}

func (s *Service) UpdateDetails(ctx context.Context, actor orderdomain.Actor, orderID uuid.UUID, input ordertypes.UpdateDetailsInput) (*orderdomain.Order, error) {
	ctx, span := s.start(ctx, "UpdateDetails", actor,
		attribute.String("order.id", orderID.String()),
		attribute.Bool("order.diagnosis_set", input.Diagnosis != nil),
		attribute.Bool("order.technician_set", input.AssignedTechnicianID != nil))
	defer span.End()

	result, err := s.inner.UpdateDetails(ctx, actor, orderID, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to update order details", slog.String("order.id", orderID.String()))
	}
	return result, nil
}

func (s *Service) UpdateDiagnosis(ctx context.Context, actor orderdomain.Actor, orderID uuid.UUID, diagnosis string) (*orderdomain.Order, error) {
	ctx, span := s.start(ctx, "UpdateDiagnosis", actor, attribute.String("order.id", orderID.String()))
	defer span.End()

	result, err := s.inner.UpdateDiagnosis(ctx, actor, orderID, diagnosis)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to update diagnosis", slog.String("order.id", orderID.String()))
	}
	return result, nil
}

func (s *Service) AssignTechnician(ctx context.Context, actor orderdomain.Actor, orderID, technicianID uuid.UUID) (*orderdomain.Order, error) {
	ctx, span := s.start(ctx, "AssignTechnician", actor,
		attribute.String("order.id", orderID.String()),
		attribute.String("technician.id", technicianID.String()))
	defer span.End()

	result, err := s.inner.AssignTechnician(ctx, actor, orderID, technicianID)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to assign technician", slog.String("order.id", orderID.String()))
	}
	return result, nil
}

func (s *Service) Transition(ctx context.Context, actor orderdomain.Actor, orderID uuid.UUID, target orderdomain.Status) (*ordertypes.TransitionResult, error) {
	ctx, span := s.start(ctx, "Transition", actor,
		attribute.String("order.id", orderID.String()),
		attribute.String("order.target_status", string(target)))
	defer span.End()

	s.logInfo(ctx, "transitioning order", slog.String("order.id", orderID.String()), slog.String("target", string(target)))
	result, err := s.inner.Transition(ctx, actor, orderID, target)
	if err != nil {
		s.metrics.recordTransition(ctx, target, outcomeFor(err))
		return nil, s.handleError(ctx, span, err, "failed to transition order",
			slog.String("order.id", orderID.String()),
			slog.String("target", string(target)))
	}
	outcome := "changed"
	if !result.Changed {
		outcome = "noop"
	}
	span.SetAttributes(attribute.String("order.transition.outcome", outcome))
	s.metrics.recordTransition(ctx, target, outcome)
	s.logInfo(ctx, "order transitioned",
		slog.String("order.id", orderID.String()),
		slog.String("status", string(result.Order.Status)),
		slog.Bool("changed", result.Changed))
	return result, nil
}

func (s *Service) AddItem(ctx context.Context, actor orderdomain.Actor, input ordertypes.AddItemInput) (*orderdomain.LineItem, error) {
	ctx, span := s.start(ctx, "AddItem", actor,
		attribute.String("order.id", input.OrderID.String()),
		attribute.String("product.id", input.ProductID.String()),
		attribute.Int("item.quantity", input.Quantity))
	defer span.End()

	result, err := s.inner.AddItem(ctx, actor, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to add line item",
			slog.String("order.id", input.OrderID.String()),
			slog.String("product.id", input.ProductID.String()))
	}
	s.logInfo(ctx, "line item added",
		slog.String("order.id", input.OrderID.String()),
		slog.String("item.id", result.ID.String()),
		slog.Int("quantity", result.Quantity))
	return result, nil
}

func (s *Service) RemoveItem(ctx context.Context, actor orderdomain.Actor, lineItemID, orderID uuid.UUID) error {
	ctx, span := s.start(ctx, "RemoveItem", actor,
		attribute.String("order.id", orderID.String()),
		attribute.String("item.id", lineItemID.String()))
	defer span.End()

	if err := s.inner.RemoveItem(ctx, actor, lineItemID, orderID); err != nil {
		return s.handleError(ctx, span, err, "failed to remove line item",
			slog.String("order.id", orderID.String()),
			slog.String("item.id", lineItemID.String()))
	}
	s.logInfo(ctx, "line item removed", slog.String("order.id", orderID.String()), slog.String("item.id", lineItemID.String()))
	return nil
}

func (s *Service) ListItems(ctx context.Context, actor orderdomain.Actor, orderID uuid.UUID) ([]*orderdomain.LineItem, error) {
	ctx, span := s.start(ctx, "ListItems", actor, attribute.String("order.id", orderID.String()))
	defer span.End()

	result, err := s.inner.ListItems(ctx, actor, orderID)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to list line items", slog.String("order.id", orderID.String()))
	}
	return result, nil
}

func (s *Service) OrderTotal(ctx context.Context, actor orderdomain.Actor, orderID uuid.UUID) (decimal.Decimal, error) {
	ctx, span := s.start(ctx, "OrderTotal", actor, attribute.String("order.id", orderID.String()))
	defer span.End()

	result, err := s.inner.OrderTotal(ctx, actor, orderID)
	if err != nil {
		return decimal.Zero, s.handleError(ctx, span, err, "failed to compute order total", slog.String("order.id", orderID.String()))
	}
	return result, nil
}

func (s *Service) RegisterPayment(ctx context.Context, actor orderdomain.Actor, input ordertypes.RegisterPaymentInput) (*orderdomain.Payment, error) {
	ctx, span := s.start(ctx, "RegisterPayment", actor,
		attribute.String("order.id", input.OrderID.String()),
		attribute.String("payment.method", string(input.Method)))
	defer span.End()

	result, err := s.inner.RegisterPayment(ctx, actor, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to register payment", slog.String("order.id", input.OrderID.String()))
	}
	s.metrics.recordPayment(ctx, result.Method)
	s.logInfo(ctx, "payment registered",
		slog.String("order.id", input.OrderID.String()),
		slog.String("payment.id", result.ID.String()),
		slog.String("amount", result.Amount.StringFixed(2)),
		slog.String("method", string(result.Method)))
	return result, nil
}

func (s *Service) ListPayments(ctx context.Context, actor orderdomain.Actor, orderID uuid.UUID) ([]*orderdomain.Payment, error) {
	ctx, span := s.start(ctx, "ListPayments", actor, attribute.String("order.id", orderID.String()))
	defer span.End()

	result, err := s.inner.ListPayments(ctx, actor, orderID)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to list payments", slog.String("order.id", orderID.String()))
	}
	return result, nil
}

func (s *Service) LedgerSummary(ctx context.Context, actor orderdomain.Actor, orderID uuid.UUID) (orderdomain.LedgerSummary, error) {
	ctx, span := s.start(ctx, "LedgerSummary", actor, attribute.String("order.id", orderID.String()))
	defer span.End()

	result, err := s.inner.LedgerSummary(ctx, actor, orderID)
	if err != nil {
		return orderdomain.LedgerSummary{}, s.handleError(ctx, span, err, "failed to compute ledger summary", slog.String("order.id", orderID.String()))
	}
	span.SetAttributes(attribute.Bool("ledger.fully_paid", result.IsFullyPaid))
	return result, nil
}

func (s *Service) CreateWarrantyOrder(ctx context.Context, actor orderdomain.Actor, originalOrderID uuid.UUID) (*orderdomain.Order, error) {
	ctx, span := s.start(ctx, "CreateWarrantyOrder", actor, attribute.String("order.original_id", originalOrderID.String()))
	defer span.End()

	result, err := s.inner.CreateWarrantyOrder(ctx, actor, originalOrderID)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to create warranty order", slog.String("order.original_id", originalOrderID.String()))
	}
	s.metrics.recordCreated(ctx, true)
	s.logInfo(ctx, "warranty order created",
		slog.String("order.id", result.ID.String()),
		slog.String("order.original_id", originalOrderID.String()),
		slog.Int64("order.folio", result.Folio))
	return result, nil
}

func (s *Service) logInfo(ctx context.Context, msg string, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, msg, attrs...)
}

func (s *Service) logError(ctx context.Context, msg string, err error, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	s.logger.LogAttrs(ctx, slog.LevelError, msg, attrs...)
}

func (s *Service) handleError(ctx context.Context, span trace.Span, err error, msg string, attrs ...slog.Attr) error {
	if span != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	s.logError(ctx, msg, err, attrs...)
	return err
}

func outcomeFor(err error) string {
	switch {
	case errors.Is(err, orderdomain.ErrInvalidTransition):
		return "rejected"
	case errors.Is(err, orderdomain.ErrOrderNotFound):
		return "not_found"
	default:
		return "error"
	}
}

type serviceMetrics struct {
	transitions   metric.Int64Counter
	payments      metric.Int64Counter
	ordersCreated metric.Int64Counter
}

func newServiceMetrics(m metric.Meter) serviceMetrics {
	if m == nil {
		return serviceMetrics{}
	}
	transitions, _ := m.Int64Counter("orders.service.transitions", metric.WithDescription("Number of order transition requests by outcome"))
	payments, _ := m.Int64Counter("orders.service.payments", metric.WithDescription("Number of payments registered"))
	ordersCreated, _ := m.Int64Counter("orders.service.orders_created", metric.WithDescription("Number of orders created"))
	return serviceMetrics{transitions: transitions, payments: payments, ordersCreated: ordersCreated}
}

func (m serviceMetrics) recordTransition(ctx context.Context, target orderdomain.Status, outcome string) {
	if m.transitions != nil {
		m.transitions.Add(ctx, 1, metric.WithAttributes(
			attribute.String("order.target_status", string(target)),
			attribute.String("outcome", outcome)))
	}
}

func (m serviceMetrics) recordPayment(ctx context.Context, method orderdomain.PaymentMethod) {
	if m.payments != nil {
		m.payments.Add(ctx, 1, metric.WithAttributes(attribute.String("payment.method", string(method))))
	}
}

func (m serviceMetrics) recordCreated(ctx context.Context, warranty bool) {
	if m.ordersCreated != nil {
		m.ordersCreated.Add(ctx, 1, metric.WithAttributes(attribute.Bool("order.warranty", warranty)))
	}
}

var _ orderports.Service = (*Service)(nil)
