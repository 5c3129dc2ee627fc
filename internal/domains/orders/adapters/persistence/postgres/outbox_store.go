package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Apurer/repairshop-api/internal/platform/outbox"
)

var (
	_ outbox.Store  = (*OutboxStore)(nil)
	_ outbox.Purger = (*OutboxStore)(nil)
)

// OutboxStore reads the rows Repository.UpdateStatus writes. Several relays
// may poll concurrently; rows are claimed with FOR UPDATE SKIP LOCKED.
type OutboxStore struct {
	db *gorm.DB
}

func NewOutboxStore(db *gorm.DB) *OutboxStore {
	return &OutboxStore{db: db}
}

func (s *OutboxStore) LockBatch(ctx context.Context, relayID string, batchSize int, lease time.Duration) ([]outbox.Event, error) {
	if err := s.ensureDB(); err != nil {
		return nil, err
	}
	var records []outboxRecord
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current := now()
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
			Where("status = ? OR (status = ? AND locked_until < ?)",
				string(outbox.StatusPending), string(outbox.StatusInProgress), current).
			Order("created_at").
			Limit(batchSize).
			Find(&records).Error; err != nil {
			return err
		}
		if len(records) == 0 {
			return nil
		}
		ids := make([]uuid.UUID, 0, len(records))
		for _, rec := range records {
			ids = append(ids, rec.ID)
		}
		return tx.Model(&outboxRecord{}).
			Where("id IN ?", ids).
			Updates(map[string]any{
				"status":       string(outbox.StatusInProgress),
				"locked_by":    relayID,
				"locked_until": current.Add(lease),
			}).Error
	})
	if err != nil {
		return nil, err
	}
	events := make([]outbox.Event, 0, len(records))
	for _, rec := range records {
		rec.Status = string(outbox.StatusInProgress)
		events = append(events, rec.toEvent())
	}
	return events, nil
}

func (s *OutboxStore) MarkSent(ctx context.Context, ids []uuid.UUID) error {
	if err := s.ensureDB(); err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).
		Model(&outboxRecord{}).
		Where("id IN ?", ids).
		Updates(map[string]any{
			"status":       string(outbox.StatusSent),
			"sent_at":      now(),
			"locked_by":    nil,
			"locked_until": nil,
		}).Error
}

func (s *OutboxStore) MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error {
	if err := s.ensureDB(); err != nil {
		return err
	}
	return s.db.WithContext(ctx).
		Model(&outboxRecord{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":       string(outbox.StatusFailed),
			"retry_count":  gorm.Expr("retry_count + 1"),
			"last_error":   errMsg,
			"locked_by":    nil,
			"locked_until": nil,
		}).Error
}

func (s *OutboxStore) ExtendLease(ctx context.Context, relayID string, ids []uuid.UUID, lease time.Duration) error {
	if err := s.ensureDB(); err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).
		Model(&outboxRecord{}).
		Where("id IN ? AND locked_by = ? AND status = ?", ids, relayID, string(outbox.StatusInProgress)).
		Update("locked_until", now().Add(lease)).Error
}

// PurgeSent deletes delivered rows older than the cutoff.
func (s *OutboxStore) PurgeSent(ctx context.Context, olderThan time.Time) (int64, error) {
	if err := s.ensureDB(); err != nil {
		return 0, err
	}
	result := s.db.WithContext(ctx).
		Where("status = ? AND sent_at < ?", string(outbox.StatusSent), olderThan).
		Delete(&outboxRecord{})
	return result.RowsAffected, result.Error
}

func (s *OutboxStore) ensureDB() error {
	if s == nil || s.db == nil {
		return errors.New("postgres outbox store not configured")
	}
	return nil
}
