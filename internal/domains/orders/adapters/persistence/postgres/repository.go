package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Apurer/repairshop-api/internal/domains/orders/domain"
	"github.com/Apurer/repairshop-api/internal/domains/orders/ports"
	"github.com/Apurer/repairshop-api/internal/platform/outbox"
)

var (
	_ ports.OrderRepository  = (*Repository)(nil)
	_ ports.LedgerRepository = (*Repository)(nil)
	_ ports.Inventory        = (*Repository)(nil)
)

// Repository is the PostgreSQL ledger store built on GORM. Every multi-row
// operation runs in a single transaction.
type Repository struct {
	db *gorm.DB
}

// NewRepository wires a PostgreSQL-backed repository. Caller manages DB
// lifecycle and schema migration.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if order == nil {
		return nil, errors.New("order is nil")
	}
	record := toOrderRecord(order)
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		folio, err := nextFolio(tx, record.TenantID)
		if err != nil {
			return err
		}
		record.Folio = folio
		return tx.Create(&record).Error
	})
	if err != nil {
		return nil, err
	}
	return record.toDomain(), nil
}

func nextFolio(tx *gorm.DB, tenantID uuid.UUID) (int64, error) {
	var folio int64
	err := tx.Raw(`INSERT INTO order_folio_counters (tenant_id, last_folio) VALUES (?, 1)
ON CONFLICT (tenant_id) DO UPDATE SET last_folio = order_folio_counters.last_folio + 1
RETURNING last_folio`, tenantID).Scan(&folio).Error
	return folio, err
}

// SeedFolio sets the last folio issued for a tenant, e.g. when importing
// orders from a previous system.
func (r *Repository) SeedFolio(ctx context.Context, tenantID uuid.UUID, last int64) error {
	if err := r.ensureDB(); err != nil {
		return err
	}
	rec := folioCounterRecord{TenantID: tenantID, LastFolio: last}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "tenant_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"last_folio"}),
		}).
		Create(&rec).Error
}

func (r *Repository) Get(ctx context.Context, tenantID, id uuid.UUID) (*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var record orderRecord
	if err := r.db.WithContext(ctx).First(&record, "id = ? AND tenant_id = ?", id, tenantID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	return record.toDomain(), nil
}

func (r *Repository) List(ctx context.Context, tenantID uuid.UUID, filter ports.ListFilter) ([]*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	query := r.db.WithContext(ctx).Where("tenant_id = ?", tenantID)
	if len(filter.Statuses) > 0 {
		statuses := make([]string, 0, len(filter.Statuses))
		for _, status := range filter.Statuses {
			statuses = append(statuses, string(status))
		}
		query = query.Where("status IN ?", statuses)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	var records []orderRecord
	if err := query.Order("folio").Find(&records).Error; err != nil {
		return nil, err
	}
	orders := make([]*domain.Order, 0, len(records))
	for i := range records {
		orders = append(orders, records[i].toDomain())
	}
	return orders, nil
}

func (r *Repository) UpdateDetails(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	result := r.db.WithContext(ctx).
		Model(&orderRecord{}).
		Where("id = ? AND tenant_id = ?", order.ID, order.TenantID).
		Updates(map[string]any{
			"priority":               string(order.Priority),
			"problem_description":    order.ProblemDescription,
			"diagnosis":              order.Diagnosis,
			"assigned_technician_id": order.AssignedTechnicianID,
			"updated_at":             gorm.Expr("NOW()"),
		})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ports.ErrNotFound
	}
	return r.Get(ctx, order.TenantID, order.ID)
}

func (r *Repository) UpdateStatus(ctx context.Context, order *domain.Order, events ...outbox.Event) (*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&orderRecord{}).
			Where("id = ? AND tenant_id = ?", order.ID, order.TenantID).
			Updates(map[string]any{
				"status":     string(order.Status),
				"updated_at": gorm.Expr("NOW()"),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ports.ErrNotFound
		}
		if len(events) == 0 {
			return nil
		}
		records := make([]outboxRecord, 0, len(events))
		for _, e := range events {
			records = append(records, toOutboxRecord(e))
		}
		return tx.Create(&records).Error
	})
	if err != nil {
		return nil, err
	}
	return r.Get(ctx, order.TenantID, order.ID)
}

func (r *Repository) AttachItem(ctx context.Context, item *domain.LineItem, adjust *domain.StockAdjustment) (*domain.LineItem, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if item == nil {
		return nil, errors.New("line item is nil")
	}
	record := toLineItemRecord(item)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&record).Error; err != nil {
			return err
		}
		return adjustStock(tx, adjust)
	})
	if err != nil {
		return nil, err
	}
	return record.toDomain(), nil
}

func (r *Repository) DetachItem(ctx context.Context, item *domain.LineItem, adjust *domain.StockAdjustment) error {
	if err := r.ensureDB(); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Delete(&lineItemRecord{}, "id = ?", item.ID)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ports.ErrNotFound
		}
		return adjustStock(tx, adjust)
	})
}

// adjustStock applies a relative change so concurrent adjustments never
// overwrite each other.
func adjustStock(tx *gorm.DB, adjust *domain.StockAdjustment) error {
	if adjust == nil {
		return nil
	}
	result := tx.Model(&productRecord{}).
		Where("id = ?", adjust.ProductID).
		UpdateColumns(map[string]any{
			"stock":      gorm.Expr("stock + ?", adjust.Delta),
			"updated_at": gorm.Expr("NOW()"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ports.ErrNotFound
	}
	return nil
}

func (r *Repository) GetItem(ctx context.Context, id uuid.UUID) (*domain.LineItem, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var record lineItemRecord
	if err := r.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	return record.toDomain(), nil
}

func (r *Repository) ListItems(ctx context.Context, orderID uuid.UUID) ([]*domain.LineItem, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var records []lineItemRecord
	if err := r.db.WithContext(ctx).Where("order_id = ?", orderID).Order("created_at").Find(&records).Error; err != nil {
		return nil, err
	}
	items := make([]*domain.LineItem, 0, len(records))
	for i := range records {
		items = append(items, records[i].toDomain())
	}
	return items, nil
}

func (r *Repository) AddPayment(ctx context.Context, payment *domain.Payment) (*domain.Payment, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, errors.New("payment is nil")
	}
	record := toPaymentRecord(payment)
	if err := r.db.WithContext(ctx).Create(&record).Error; err != nil {
		return nil, err
	}
	return record.toDomain(), nil
}

func (r *Repository) ListPayments(ctx context.Context, orderID uuid.UUID) ([]*domain.Payment, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var records []paymentRecord
	if err := r.db.WithContext(ctx).Where("order_id = ?", orderID).Order("created_at").Find(&records).Error; err != nil {
		return nil, err
	}
	payments := make([]*domain.Payment, 0, len(records))
	for i := range records {
		payments = append(payments, records[i].toDomain())
	}
	return payments, nil
}

func (r *Repository) GetProduct(ctx context.Context, tenantID, productID uuid.UUID) (*domain.Product, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var record productRecord
	if err := r.db.WithContext(ctx).First(&record, "id = ? AND tenant_id = ?", productID, tenantID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	return record.toDomain(), nil
}

// SaveProduct upserts a catalog product. The catalog owns products; this
// exists for seeding and tests.
func (r *Repository) SaveProduct(ctx context.Context, product *domain.Product) error {
	if err := r.ensureDB(); err != nil {
		return err
	}
	record := toProductRecord(product)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "kind", "stock", "price", "updated_at"}),
		}).
		Create(&record).Error
}

func (r *Repository) ensureDB() error {
	if r == nil || r.db == nil {
		return errors.New("postgres order repository not configured")
	}
	return nil
}

func now() time.Time { return time.Now().UTC() }
