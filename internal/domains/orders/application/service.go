package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	ordertypes "github.com/Apurer/repairshop-api/internal/domains/orders/application/types"
	"github.com/Apurer/repairshop-api/internal/domains/orders/domain"
	"github.com/Apurer/repairshop-api/internal/domains/orders/ports"
	"github.com/Apurer/repairshop-api/internal/platform/outbox"
)

const orderAggregate = "order"

// Service orchestrates the repair order lifecycle and its ledger.
type Service struct {
	orders    ports.OrderRepository
	ledger    ports.LedgerRepository
	inventory ports.Inventory
	customers ports.CustomerResolver
	now       func() time.Time

	// idempotency is optional; without it keys are ignored.
	idempotency ports.IdempotencyStore
}

// Option configures optional collaborators.
type Option func(*Service)

// WithCustomerResolver enables intake from customer references.
func WithCustomerResolver(resolver ports.CustomerResolver) Option {
	return func(s *Service) {
		s.customers = resolver
	}
}

// WithIdempotencyStore enables Idempotency-Key replay for intake and payments.
func WithIdempotencyStore(store ports.IdempotencyStore) Option {
	return func(s *Service) {
		s.idempotency = store
	}
}

// WithClock overrides the time source used for event timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func NewService(orders ports.OrderRepository, ledger ports.LedgerRepository, inventory ports.Inventory, opts ...Option) *Service {
	s := &Service{
		orders:    orders,
		ledger:    ledger,
		inventory: inventory,
		now:       time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *Service) CreateOrder(ctx context.Context, actor domain.Actor, input ordertypes.CreateOrderInput) (*domain.Order, error) {
	if err := input.Customer.Validate(); err != nil {
		return nil, mapError(err)
	}
	key := strings.TrimSpace(input.IdempotencyKey)
	var hash string
	if key != "" && s.idempotency != nil {
		var err error
		if hash, err = FingerprintCreateOrder(input); err != nil {
			return nil, fmt.Errorf("fingerprint order intake: %w", err)
		}
		prior, err := s.replay(ctx, actor.TenantID, key, opCreateOrder, hash)
		if err != nil {
			return nil, err
		}
		if prior != nil {
			return s.loadOrder(ctx, actor, prior.ResourceID)
		}
	}
	customerID, err := s.resolveCustomer(ctx, actor.TenantID, input.Customer)
	if err != nil {
		return nil, err
	}
	order, err := domain.NewOrder(actor.TenantID, customerID, input.AssetID, input.Priority, input.ProblemDescription)
	if err != nil {
		return nil, mapError(err)
	}
	created, err := s.orders.Create(ctx, order)
	if err != nil {
		return nil, persistenceError("create order", err)
	}
	winner, err := s.remember(ctx, actor.TenantID, key, opCreateOrder, hash, created.ID)
	if err != nil {
		return nil, err
	}
	if winner != created.ID {
		return s.loadOrder(ctx, actor, winner)
	}
	return created, nil
}

func (s *Service) resolveCustomer(ctx context.Context, tenantID uuid.UUID, ref domain.CustomerRef) (uuid.UUID, error) {
	if s.customers == nil {
		if ref.ID == nil {
			return uuid.Nil, mapError(domain.ErrInvalidCustomerRef)
		}
		return *ref.ID, nil
	}
	id, err := s.customers.Resolve(ctx, tenantID, ref)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCustomerRef) {
			return uuid.Nil, mapError(err)
		}
		return uuid.Nil, persistenceError("resolve customer", err)
	}
	return id, nil
}

func (s *Service) GetOrder(ctx context.Context, actor domain.Actor, orderID uuid.UUID) (*domain.Order, error) {
	return s.loadOrder(ctx, actor, orderID)
}

func (s *Service) ListOrders(ctx context.Context, actor domain.Actor, input ordertypes.ListOrdersInput) ([]*domain.Order, error) {
	filter := ports.ListFilter{Limit: input.Limit}
	for _, raw := range input.Statuses {
		status, err := domain.ParseStatus(strings.TrimSpace(raw))
		if err != nil {
			return nil, mapError(err)
		}
		filter.Statuses = append(filter.Statuses, status)
	}
	orders, err := s.orders.List(ctx, actor.TenantID, filter)
	if err != nil {
		return nil, persistenceError("list orders", err)
	}
	return orders, nil
}

// UpdateDetails applies diagnosis and technician edits to an order in a
// single write. Nil fields keep their current value.
func (s *Service) UpdateDetails(ctx context.Context, actor domain.Actor, orderID uuid.UUID, input ordertypes.UpdateDetailsInput) (*domain.Order, error) {
	order, err := s.loadOrder(ctx, actor, orderID)
	if err != nil {
		return nil, err
	}
	if input.Diagnosis != nil {
		if diagnosis := strings.TrimSpace(*input.Diagnosis); diagnosis == "" {
			order.Diagnosis = nil
		} else {
			order.Diagnosis = &diagnosis
		}
	}
	if input.AssignedTechnicianID != nil {
		if technicianID := *input.AssignedTechnicianID; technicianID == uuid.Nil {
			order.AssignedTechnicianID = nil
		} else {
			order.AssignedTechnicianID = &technicianID
		}
	}
	updated, err := s.orders.UpdateDetails(ctx, order)
	if err != nil {
		return nil, persistenceError("update details", err)
	}
	return updated, nil
}

func (s *Service) UpdateDiagnosis(ctx context.Context, actor domain.Actor, orderID uuid.UUID, diagnosis string) (*domain.Order, error) {
	return s.UpdateDetails(ctx, actor, orderID, ordertypes.UpdateDetailsInput{Diagnosis: &diagnosis})
}

func (s *Service) AssignTechnician(ctx context.Context, actor domain.Actor, orderID, technicianID uuid.UUID) (*domain.Order, error) {
	return s.UpdateDetails(ctx, actor, orderID, ordertypes.UpdateDetailsInput{AssignedTechnicianID: &technicianID})
}

// Transition moves an order along the workshop graph. The status change and
// its outbox event are committed together; side effects run later from the
// outbox and never affect the result.
func (s *Service) Transition(ctx context.Context, actor domain.Actor, orderID uuid.UUID, target domain.Status) (*ordertypes.TransitionResult, error) {
	order, err := s.loadOrder(ctx, actor, orderID)
	if err != nil {
		return nil, err
	}
	previous := order.Status
	changed, err := order.TransitionTo(target)
	if err != nil {
		return nil, mapError(err)
	}
	if !changed {
		return &ordertypes.TransitionResult{Order: order, Changed: false}, nil
	}

	event := domain.NewStatusChanged(order, previous, actor, s.now().UTC())
	record, err := outbox.NewEvent(ctx, order.TenantID, orderAggregate, order.ID.String(), event.EventName(), event)
	if err != nil {
		return nil, err
	}
	updated, err := s.orders.UpdateStatus(ctx, order, record)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, persistenceError("update status", err)
	}
	return &ordertypes.TransitionResult{Order: updated, Changed: true}, nil
}

func (s *Service) AddItem(ctx context.Context, actor domain.Actor, input ordertypes.AddItemInput) (*domain.LineItem, error) {
	item, err := domain.NewLineItem(input.OrderID, input.ProductID, input.Quantity, input.UnitPrice)
	if err != nil {
		return nil, mapError(err)
	}
	if _, err := s.loadOrder(ctx, actor, input.OrderID); err != nil {
		return nil, err
	}
	product, err := s.loadProduct(ctx, actor.TenantID, input.ProductID)
	if err != nil {
		return nil, err
	}
	saved, err := s.ledger.AttachItem(ctx, item, domain.ConsumeStock(product, item.Quantity))
	if err != nil {
		return nil, persistenceError("attach item", err)
	}
	return saved, nil
}

func (s *Service) RemoveItem(ctx context.Context, actor domain.Actor, lineItemID, orderID uuid.UUID) error {
	item, err := s.ledger.GetItem(ctx, lineItemID)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return domain.ErrLineItemNotFound
		}
		return persistenceError("load item", err)
	}
	if _, err := s.loadOrder(ctx, actor, item.OrderID); err != nil {
		// Items on another tenant's order are reported as missing.
		if errors.Is(err, domain.ErrOrderNotFound) {
			return domain.ErrLineItemNotFound
		}
		return err
	}
	if item.OrderID != orderID {
		return domain.ErrOrderMismatch
	}
	product, err := s.inventory.GetProduct(ctx, actor.TenantID, item.ProductID)
	if err != nil && !errors.Is(err, ports.ErrNotFound) {
		return persistenceError("load product", err)
	}
	if err := s.ledger.DetachItem(ctx, item, domain.RestoreStock(product, item.Quantity)); err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return domain.ErrLineItemNotFound
		}
		return persistenceError("detach item", err)
	}
	return nil
}

func (s *Service) ListItems(ctx context.Context, actor domain.Actor, orderID uuid.UUID) ([]*domain.LineItem, error) {
	if _, err := s.loadOrder(ctx, actor, orderID); err != nil {
		return nil, err
	}
	items, err := s.ledger.ListItems(ctx, orderID)
	if err != nil {
		return nil, persistenceError("list items", err)
	}
	return items, nil
}

func (s *Service) OrderTotal(ctx context.Context, actor domain.Actor, orderID uuid.UUID) (decimal.Decimal, error) {
	items, err := s.ListItems(ctx, actor, orderID)
	if err != nil {
		return decimal.Zero, err
	}
	return domain.SumItems(items), nil
}

func (s *Service) RegisterPayment(ctx context.Context, actor domain.Actor, input ordertypes.RegisterPaymentInput) (*domain.Payment, error) {
	payment, err := domain.NewPayment(input.OrderID, input.Amount, input.Method, input.Note, actor.UserID)
	if err != nil {
		return nil, mapError(err)
	}
	if _, err := s.loadOrder(ctx, actor, input.OrderID); err != nil {
		return nil, err
	}
	key := strings.TrimSpace(input.IdempotencyKey)
	var hash string
	if key != "" && s.idempotency != nil {
		if hash, err = FingerprintPayment(input); err != nil {
			return nil, fmt.Errorf("fingerprint payment: %w", err)
		}
		prior, err := s.replay(ctx, actor.TenantID, key, opRegisterPayment, hash)
		if err != nil {
			return nil, err
		}
		if prior != nil {
			return s.findPayment(ctx, input.OrderID, prior.ResourceID)
		}
	}
	saved, err := s.ledger.AddPayment(ctx, payment)
	if err != nil {
		return nil, persistenceError("add payment", err)
	}
	winner, err := s.remember(ctx, actor.TenantID, key, opRegisterPayment, hash, saved.ID)
	if err != nil {
		return nil, err
	}
	if winner != saved.ID {
		return s.findPayment(ctx, input.OrderID, winner)
	}
	return saved, nil
}

func (s *Service) findPayment(ctx context.Context, orderID, paymentID uuid.UUID) (*domain.Payment, error) {
	payments, err := s.ledger.ListPayments(ctx, orderID)
	if err != nil {
		return nil, persistenceError("list payments", err)
	}
	for _, p := range payments {
		if p.ID == paymentID {
			return p, nil
		}
	}
	return nil, persistenceError("replay payment", fmt.Errorf("payment %s recorded under idempotency key is missing", paymentID))
}

func (s *Service) ListPayments(ctx context.Context, actor domain.Actor, orderID uuid.UUID) ([]*domain.Payment, error) {
	if _, err := s.loadOrder(ctx, actor, orderID); err != nil {
		return nil, err
	}
	payments, err := s.ledger.ListPayments(ctx, orderID)
	if err != nil {
		return nil, persistenceError("list payments", err)
	}
	return payments, nil
}

func (s *Service) LedgerSummary(ctx context.Context, actor domain.Actor, orderID uuid.UUID) (domain.LedgerSummary, error) {
	items, err := s.ListItems(ctx, actor, orderID)
	if err != nil {
		return domain.LedgerSummary{}, err
	}
	payments, err := s.ledger.ListPayments(ctx, orderID)
	if err != nil {
		return domain.LedgerSummary{}, persistenceError("list payments", err)
	}
	return domain.Summarize(items, payments), nil
}

func (s *Service) CreateWarrantyOrder(ctx context.Context, actor domain.Actor, originalOrderID uuid.UUID) (*domain.Order, error) {
	original, err := s.loadOrder(ctx, actor, originalOrderID)
	if err != nil {
		return nil, err
	}
	created, err := s.orders.Create(ctx, domain.NewWarrantyOrder(original))
	if err != nil {
		return nil, persistenceError("create warranty order", err)
	}
	return created, nil
}

func (s *Service) loadOrder(ctx context.Context, actor domain.Actor, orderID uuid.UUID) (*domain.Order, error) {
	order, err := s.orders.Get(ctx, actor.TenantID, orderID)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, persistenceError("load order", err)
	}
	return order, nil
}

func (s *Service) loadProduct(ctx context.Context, tenantID, productID uuid.UUID) (*domain.Product, error) {
	product, err := s.inventory.GetProduct(ctx, tenantID, productID)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return nil, domain.ErrProductNotFound
		}
		return nil, persistenceError("load product", err)
	}
	return product, nil
}

var _ ports.Service = (*Service)(nil)
