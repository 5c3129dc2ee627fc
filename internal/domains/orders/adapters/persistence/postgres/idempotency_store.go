package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Apurer/repairshop-api/internal/domains/orders/ports"
)

var _ ports.IdempotencyStore = (*IdempotencyStore)(nil)

// IdempotencyStore persists idempotency keys in PostgreSQL.
type IdempotencyStore struct {
	db *gorm.DB
}

func NewIdempotencyStore(db *gorm.DB) *IdempotencyStore {
	return &IdempotencyStore{db: db}
}

func (s *IdempotencyStore) Get(ctx context.Context, tenantID uuid.UUID, key string) (*ports.IdempotencyRecord, error) {
	if err := s.ensureDB(); err != nil {
		return nil, err
	}
	var record idempotencyRecord
	err := s.db.WithContext(ctx).First(&record, "tenant_id = ? AND key = ?", tenantID, key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return record.toPort(), nil
}

// Save inserts the record; a key already present is returned as stored, with
// ErrIdempotencyConflict when it belongs to a different request.
func (s *IdempotencyStore) Save(ctx context.Context, record ports.IdempotencyRecord) (*ports.IdempotencyRecord, error) {
	if err := s.ensureDB(); err != nil {
		return nil, err
	}
	dbRecord := idempotencyRecord{
		TenantID:    record.TenantID,
		Key:         record.Key,
		Operation:   record.Operation,
		RequestHash: record.RequestHash,
		ResourceID:  record.ResourceID,
		CreatedAt:   now(),
	}
	result := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&dbRecord)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 1 {
		return dbRecord.toPort(), nil
	}
	existing, err := s.Get(ctx, record.TenantID, record.Key)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, errors.New("idempotency key vanished after conflict")
	}
	if existing.Operation != record.Operation || existing.RequestHash != record.RequestHash {
		return existing, ports.ErrIdempotencyConflict
	}
	return existing, nil
}

func (s *IdempotencyStore) ensureDB() error {
	if s == nil || s.db == nil {
		return errors.New("postgres idempotency store not configured")
	}
	return nil
}

type idempotencyRecord struct {
	TenantID    uuid.UUID `gorm:"primaryKey;column:tenant_id;type:uuid"`
	Key         string    `gorm:"primaryKey;column:key;size:255"`
	Operation   string    `gorm:"column:operation;size:64;not null"`
	RequestHash string    `gorm:"column:request_hash;size:128;not null"`
	ResourceID  uuid.UUID `gorm:"column:resource_id;type:uuid;not null"`
	CreatedAt   time.Time `gorm:"column:created_at"`
}

func (idempotencyRecord) TableName() string { return "idempotency_keys" }

func (r idempotencyRecord) toPort() *ports.IdempotencyRecord {
	return &ports.IdempotencyRecord{
		TenantID:    r.TenantID,
		Key:         r.Key,
		Operation:   r.Operation,
		RequestHash: r.RequestHash,
		ResourceID:  r.ResourceID,
		CreatedAt:   r.CreatedAt,
	}
}
