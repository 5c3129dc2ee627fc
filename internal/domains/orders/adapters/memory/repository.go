package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Apurer/repairshop-api/internal/domains/orders/domain"
	"github.com/Apurer/repairshop-api/internal/domains/orders/ports"
	"github.com/Apurer/repairshop-api/internal/platform/outbox"
)

var (
	_ ports.OrderRepository  = (*Repository)(nil)
	_ ports.LedgerRepository = (*Repository)(nil)
	_ ports.Inventory        = (*Repository)(nil)
)

// Repository is an in-memory ledger store. Orders, line items, payments and
// product stock share one lock so multi-row operations stay atomic.
type Repository struct {
	mu       sync.RWMutex
	orders   map[uuid.UUID]*domain.Order
	items    map[uuid.UUID]*domain.LineItem
	payments map[uuid.UUID]*domain.Payment
	products map[uuid.UUID]*domain.Product
	folios   map[uuid.UUID]int64
	outbox   *outbox.MemoryStore
	now      func() time.Time
}

func NewRepository() *Repository {
	return &Repository{
		orders:   map[uuid.UUID]*domain.Order{},
		items:    map[uuid.UUID]*domain.LineItem{},
		payments: map[uuid.UUID]*domain.Payment{},
		products: map[uuid.UUID]*domain.Product{},
		folios:   map[uuid.UUID]int64{},
		outbox:   outbox.NewMemoryStore(),
		now:      time.Now,
	}
}

// WithClock overrides the timestamp source.
func (r *Repository) WithClock(now func() time.Time) {
	if now == nil {
		return
	}
	r.mu.Lock()
	r.now = now
	r.mu.Unlock()
	r.outbox.WithClock(now)
}

// Outbox exposes the rows written together with status changes.
func (r *Repository) Outbox() *outbox.MemoryStore {
	return r.outbox
}

// SetLastFolio makes the next order of tenantID receive last+1.
func (r *Repository) SetLastFolio(tenantID uuid.UUID, last int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.folios[tenantID] = last
}

// SaveProduct upserts a catalog product.
func (r *Repository) SaveProduct(product *domain.Product) {
	if product == nil {
		return
	}
	clone := *product
	r.mu.Lock()
	defer r.mu.Unlock()
	r.products[clone.ID] = &clone
}

func (r *Repository) Create(_ context.Context, order *domain.Order) (*domain.Order, error) {
	if order == nil {
		return nil, errors.New("order is nil")
	}
	clone := order.Clone()
	if clone.ID == uuid.Nil {
		clone.ID = uuid.New()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.folios[clone.TenantID]++
	clone.Folio = r.folios[clone.TenantID]
	now := r.now()
	clone.CreatedAt = now
	clone.UpdatedAt = now
	r.orders[clone.ID] = clone
	return clone.Clone(), nil
}

func (r *Repository) Get(_ context.Context, tenantID, id uuid.UUID) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	order, ok := r.orders[id]
	if !ok || order.TenantID != tenantID {
		return nil, ports.ErrNotFound
	}
	return order.Clone(), nil
}

func (r *Repository) List(_ context.Context, tenantID uuid.UUID, filter ports.ListFilter) ([]*domain.Order, error) {
	wanted := map[domain.Status]bool{}
	for _, status := range filter.Statuses {
		wanted[status] = true
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := make([]*domain.Order, 0, len(r.orders))
	for _, order := range r.orders {
		if order.TenantID != tenantID {
			continue
		}
		if len(wanted) > 0 && !wanted[order.Status] {
			continue
		}
		list = append(list, order.Clone())
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Folio < list[j].Folio })
	if filter.Limit > 0 && len(list) > filter.Limit {
		list = list[:filter.Limit]
	}
	return list, nil
}

func (r *Repository) UpdateDetails(_ context.Context, order *domain.Order) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.orders[order.ID]
	if !ok || stored.TenantID != order.TenantID {
		return nil, ports.ErrNotFound
	}
	status := stored.Status
	clone := order.Clone()
	clone.Status = status
	clone.Folio = stored.Folio
	clone.CreatedAt = stored.CreatedAt
	clone.UpdatedAt = r.now()
	r.orders[clone.ID] = clone
	return clone.Clone(), nil
}

func (r *Repository) UpdateStatus(_ context.Context, order *domain.Order, events ...outbox.Event) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.orders[order.ID]
	if !ok || stored.TenantID != order.TenantID {
		return nil, ports.ErrNotFound
	}
	stored.Status = order.Status
	stored.UpdatedAt = r.now()
	r.outbox.Append(events...)
	return stored.Clone(), nil
}

func (r *Repository) AttachItem(_ context.Context, item *domain.LineItem, adjust *domain.StockAdjustment) (*domain.LineItem, error) {
	if item == nil {
		return nil, errors.New("line item is nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if adjust != nil {
		product, ok := r.products[adjust.ProductID]
		if !ok {
			return nil, ports.ErrNotFound
		}
		product.Stock += adjust.Delta
	}
	clone := *item
	clone.CreatedAt = r.now()
	r.items[clone.ID] = &clone
	out := clone
	return &out, nil
}

func (r *Repository) DetachItem(_ context.Context, item *domain.LineItem, adjust *domain.StockAdjustment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[item.ID]; !ok {
		return ports.ErrNotFound
	}
	delete(r.items, item.ID)
	if adjust != nil {
		if product, ok := r.products[adjust.ProductID]; ok {
			product.Stock += adjust.Delta
		}
	}
	return nil
}

func (r *Repository) GetItem(_ context.Context, id uuid.UUID) (*domain.LineItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	item, ok := r.items[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	clone := *item
	return &clone, nil
}

func (r *Repository) ListItems(_ context.Context, orderID uuid.UUID) ([]*domain.LineItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var list []*domain.LineItem
	for _, item := range r.items {
		if item.OrderID == orderID {
			clone := *item
			list = append(list, &clone)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.Before(list[j].CreatedAt) })
	return list, nil
}

func (r *Repository) AddPayment(_ context.Context, payment *domain.Payment) (*domain.Payment, error) {
	if payment == nil {
		return nil, errors.New("payment is nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *payment
	clone.CreatedAt = r.now()
	r.payments[clone.ID] = &clone
	out := clone
	return &out, nil
}

func (r *Repository) ListPayments(_ context.Context, orderID uuid.UUID) ([]*domain.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var list []*domain.Payment
	for _, payment := range r.payments {
		if payment.OrderID == orderID {
			clone := *payment
			list = append(list, &clone)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.Before(list[j].CreatedAt) })
	return list, nil
}

func (r *Repository) GetProduct(_ context.Context, tenantID, productID uuid.UUID) (*domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	product, ok := r.products[productID]
	if !ok || product.TenantID != tenantID {
		return nil, ports.ErrNotFound
	}
	clone := *product
	return &clone, nil
}
