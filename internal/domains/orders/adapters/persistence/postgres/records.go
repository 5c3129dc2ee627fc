package postgres

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"github.com/Apurer/repairshop-api/internal/domains/orders/domain"
	"github.com/Apurer/repairshop-api/internal/platform/outbox"
)

// Models lists the tables owned by this adapter for schema migration.
func Models() []any {
	return []any{
		&orderRecord{},
		&folioCounterRecord{},
		&lineItemRecord{},
		&paymentRecord{},
		&productRecord{},
		&customerRecord{},
		&outboxRecord{},
		&idempotencyRecord{},
	}
}

type orderRecord struct {
	ID                   uuid.UUID  `gorm:"primaryKey;column:id;type:uuid"`
	TenantID             uuid.UUID  `gorm:"column:tenant_id;type:uuid;not null;uniqueIndex:idx_orders_tenant_folio,priority:1;index:idx_orders_tenant_status,priority:1"`
	Folio                int64      `gorm:"column:folio;not null;uniqueIndex:idx_orders_tenant_folio,priority:2"`
	CustomerID           uuid.UUID  `gorm:"column:customer_id;type:uuid;not null;index"`
	AssetID              uuid.UUID  `gorm:"column:asset_id;type:uuid"`
	Status               string     `gorm:"column:status;type:varchar(32);not null;index:idx_orders_tenant_status,priority:2"`
	Priority             string     `gorm:"column:priority;type:varchar(16);not null"`
	ProblemDescription   string     `gorm:"column:problem_description;type:text;not null"`
	Diagnosis            *string    `gorm:"column:diagnosis;type:text"`
	AssignedTechnicianID *uuid.UUID `gorm:"column:assigned_technician_id;type:uuid"`
	IsWarranty           bool       `gorm:"column:is_warranty;not null;default:false"`
	OriginalOrderID      *uuid.UUID `gorm:"column:original_order_id;type:uuid;index"`
	CreatedAt            time.Time  `gorm:"column:created_at"`
	UpdatedAt            time.Time  `gorm:"column:updated_at"`
}

func (orderRecord) TableName() string { return "repair_orders" }

type folioCounterRecord struct {
	TenantID  uuid.UUID `gorm:"primaryKey;column:tenant_id;type:uuid"`
	LastFolio int64     `gorm:"column:last_folio;not null"`
}

func (folioCounterRecord) TableName() string { return "order_folio_counters" }

type lineItemRecord struct {
	ID        uuid.UUID       `gorm:"primaryKey;column:id;type:uuid"`
	OrderID   uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID uuid.UUID       `gorm:"column:product_id;type:uuid;not null"`
	Quantity  int             `gorm:"column:quantity;not null"`
	UnitPrice decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null"`
	Total     decimal.Decimal `gorm:"column:total;type:numeric(12,2);not null"`
	CreatedAt time.Time       `gorm:"column:created_at"`
}

func (lineItemRecord) TableName() string { return "order_line_items" }

type paymentRecord struct {
	ID         uuid.UUID       `gorm:"primaryKey;column:id;type:uuid"`
	OrderID    uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index"`
	Amount     decimal.Decimal `gorm:"column:amount;type:numeric(12,2);not null"`
	Method     string          `gorm:"column:method;type:varchar(16);not null"`
	Note       *string         `gorm:"column:note;type:text"`
	RecordedBy uuid.UUID       `gorm:"column:recorded_by;type:uuid"`
	CreatedAt  time.Time       `gorm:"column:created_at"`
}

func (paymentRecord) TableName() string { return "order_payments" }

type productRecord struct {
	ID        uuid.UUID       `gorm:"primaryKey;column:id;type:uuid"`
	TenantID  uuid.UUID       `gorm:"column:tenant_id;type:uuid;not null;index"`
	Name      string          `gorm:"column:name;not null"`
	Kind      string          `gorm:"column:kind;type:varchar(16);not null"`
	Stock     int             `gorm:"column:stock;not null;default:0"`
	Price     decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	CreatedAt time.Time       `gorm:"column:created_at"`
	UpdatedAt time.Time       `gorm:"column:updated_at"`
}

func (productRecord) TableName() string { return "products" }

type customerRecord struct {
	ID            uuid.UUID  `gorm:"primaryKey;column:id;type:uuid"`
	TenantID      uuid.UUID  `gorm:"column:tenant_id;type:uuid;not null;index:idx_customers_tenant_contact,priority:1"`
	Name          string     `gorm:"column:name;not null"`
	Contact       *string    `gorm:"column:contact;index:idx_customers_tenant_contact,priority:2"`
	AccountUserID *uuid.UUID `gorm:"column:account_user_id;type:uuid"`
	CreatedAt     time.Time  `gorm:"column:created_at"`
	UpdatedAt     time.Time  `gorm:"column:updated_at"`
}

func (customerRecord) TableName() string { return "customers" }

type outboxRecord struct {
	ID            uuid.UUID         `gorm:"primaryKey;column:id;type:uuid"`
	TenantID      uuid.UUID         `gorm:"column:tenant_id;type:uuid;not null"`
	AggregateType string            `gorm:"column:aggregate_type;type:varchar(64);not null"`
	AggregateID   string            `gorm:"column:aggregate_id;type:varchar(64);not null;index"`
	Type          string            `gorm:"column:event_type;type:varchar(128);not null"`
	Payload       datatypes.JSON    `gorm:"column:payload;type:jsonb;not null"`
	Headers       map[string]string `gorm:"column:headers;serializer:json"`
	Status        string            `gorm:"column:status;type:varchar(16);not null;index:idx_outbox_status_created,priority:1"`
	RetryCount    int               `gorm:"column:retry_count;not null;default:0"`
	LastError     *string           `gorm:"column:last_error;type:text"`
	LockedBy      *string           `gorm:"column:locked_by"`
	LockedUntil   *time.Time        `gorm:"column:locked_until"`
	SentAt        *time.Time        `gorm:"column:sent_at;index"`
	CreatedAt     time.Time         `gorm:"column:created_at;index:idx_outbox_status_created,priority:2"`
}

func (outboxRecord) TableName() string { return "outbox_events" }

func toOrderRecord(order *domain.Order) orderRecord {
	return orderRecord{
		ID:                   order.ID,
		TenantID:             order.TenantID,
		Folio:                order.Folio,
		CustomerID:           order.CustomerID,
		AssetID:              order.AssetID,
		Status:               string(order.Status),
		Priority:             string(order.Priority),
		ProblemDescription:   order.ProblemDescription,
		Diagnosis:            order.Diagnosis,
		AssignedTechnicianID: order.AssignedTechnicianID,
		IsWarranty:           order.IsWarranty,
		OriginalOrderID:      order.OriginalOrderID,
		CreatedAt:            order.CreatedAt,
		UpdatedAt:            order.UpdatedAt,
	}
}

func (r orderRecord) toDomain() *domain.Order {
	return &domain.Order{
		ID:                   r.ID,
		TenantID:             r.TenantID,
		CustomerID:           r.CustomerID,
		AssetID:              r.AssetID,
		Folio:                r.Folio,
		Status:               domain.Status(r.Status),
		Priority:             domain.Priority(r.Priority),
		ProblemDescription:   r.ProblemDescription,
		Diagnosis:            r.Diagnosis,
		AssignedTechnicianID: r.AssignedTechnicianID,
		IsWarranty:           r.IsWarranty,
		OriginalOrderID:      r.OriginalOrderID,
		CreatedAt:            r.CreatedAt,
		UpdatedAt:            r.UpdatedAt,
	}
}

func toLineItemRecord(item *domain.LineItem) lineItemRecord {
	return lineItemRecord{
		ID:        item.ID,
		OrderID:   item.OrderID,
		ProductID: item.ProductID,
		Quantity:  item.Quantity,
		UnitPrice: item.UnitPrice,
		Total:     item.Total,
		CreatedAt: item.CreatedAt,
	}
}

func (r lineItemRecord) toDomain() *domain.LineItem {
	return &domain.LineItem{
		ID:        r.ID,
		OrderID:   r.OrderID,
		ProductID: r.ProductID,
		Quantity:  r.Quantity,
		UnitPrice: r.UnitPrice,
		Total:     r.Total,
		CreatedAt: r.CreatedAt,
	}
}

func toPaymentRecord(payment *domain.Payment) paymentRecord {
	return paymentRecord{
		ID:         payment.ID,
		OrderID:    payment.OrderID,
		Amount:     payment.Amount,
		Method:     string(payment.Method),
		Note:       payment.Note,
		RecordedBy: payment.RecordedBy,
		CreatedAt:  payment.CreatedAt,
	}
}

func (r paymentRecord) toDomain() *domain.Payment {
	return &domain.Payment{
		ID:         r.ID,
		OrderID:    r.OrderID,
		Amount:     r.Amount,
		Method:     domain.PaymentMethod(r.Method),
		Note:       r.Note,
		RecordedBy: r.RecordedBy,
		CreatedAt:  r.CreatedAt,
	}
}

func toProductRecord(product *domain.Product) productRecord {
	return productRecord{
		ID:       product.ID,
		TenantID: product.TenantID,
		Name:     product.Name,
		Kind:     string(product.Kind),
		Stock:    product.Stock,
		Price:    product.Price,
	}
}

func (r productRecord) toDomain() *domain.Product {
	return &domain.Product{
		ID:       r.ID,
		TenantID: r.TenantID,
		Name:     r.Name,
		Kind:     domain.ProductKind(r.Kind),
		Stock:    r.Stock,
		Price:    r.Price,
	}
}

func toOutboxRecord(e outbox.Event) outboxRecord {
	return outboxRecord{
		ID:            e.ID,
		TenantID:      e.TenantID,
		AggregateType: e.AggregateType,
		AggregateID:   e.AggregateID,
		Type:          e.Type,
		Payload:       datatypes.JSON(e.Payload),
		Headers:       e.Headers,
		Status:        string(outbox.StatusPending),
		CreatedAt:     e.CreatedAt,
	}
}

func (r outboxRecord) toEvent() outbox.Event {
	return outbox.Event{
		ID:            r.ID,
		TenantID:      r.TenantID,
		AggregateType: r.AggregateType,
		AggregateID:   r.AggregateID,
		Type:          r.Type,
		Payload:       []byte(r.Payload),
		Headers:       r.Headers,
		CreatedAt:     r.CreatedAt,
		Status:        outbox.Status(r.Status),
		RetryCount:    r.RetryCount,
		LastError:     r.LastError,
	}
}
