package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Apurer/repairshop-api/internal/domains/sideeffects/domain"
	"github.com/Apurer/repairshop-api/internal/domains/sideeffects/ports"
)

var (
	_ ports.NotificationStore = (*Store)(nil)
	_ ports.SubscriptionStore = (*Store)(nil)
)

// Models lists the tables owned by this adapter for schema migration.
func Models() []any {
	return []any{&notificationRecord{}, &subscriptionRecord{}}
}

type notificationRecord struct {
	ID              uuid.UUID `gorm:"primaryKey;column:id;type:uuid"`
	TenantID        uuid.UUID `gorm:"column:tenant_id;type:uuid;not null;index:idx_notifications_recipient,priority:1"`
	RecipientUserID uuid.UUID `gorm:"column:recipient_user_id;type:uuid;not null;index:idx_notifications_recipient,priority:2"`
	Title           string    `gorm:"column:title;not null"`
	Message         string    `gorm:"column:message;type:text;not null"`
	Link            string    `gorm:"column:link"`
	Read            bool      `gorm:"column:read;not null;default:false"`
	CreatedAt       time.Time `gorm:"column:created_at"`
}

func (notificationRecord) TableName() string { return "notifications" }

type subscriptionRecord struct {
	ID         uuid.UUID      `gorm:"primaryKey;column:id;type:uuid"`
	TenantID   uuid.UUID      `gorm:"column:tenant_id;type:uuid;not null;index"`
	URL        string         `gorm:"column:url;not null"`
	Secret     string         `gorm:"column:secret"`
	EventTypes pq.StringArray `gorm:"column:event_types;type:text[];not null"`
	Active     bool           `gorm:"column:active;not null"`
	CreatedAt  time.Time      `gorm:"column:created_at"`
	UpdatedAt  time.Time      `gorm:"column:updated_at"`
}

func (subscriptionRecord) TableName() string { return "webhook_subscriptions" }

// Store persists notifications and webhook subscriptions.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Create(ctx context.Context, n *domain.Notification) error {
	if err := s.ensureDB(); err != nil {
		return err
	}
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	record := notificationRecord{
		ID:              n.ID,
		TenantID:        n.TenantID,
		RecipientUserID: n.RecipientUserID,
		Title:           n.Title,
		Message:         n.Message,
		Link:            n.Link,
		Read:            n.Read,
		CreatedAt:       n.CreatedAt,
	}
	return s.db.WithContext(ctx).Create(&record).Error
}

func (s *Store) ListForRecipient(ctx context.Context, tenantID, userID uuid.UUID, unreadOnly bool) ([]*domain.Notification, error) {
	if err := s.ensureDB(); err != nil {
		return nil, err
	}
	query := s.db.WithContext(ctx).Where("tenant_id = ? AND recipient_user_id = ?", tenantID, userID)
	if unreadOnly {
		query = query.Where("read = ?", false)
	}
	var records []notificationRecord
	if err := query.Order("created_at DESC").Find(&records).Error; err != nil {
		return nil, err
	}
	out := make([]*domain.Notification, 0, len(records))
	for _, rec := range records {
		out = append(out, &domain.Notification{
			ID:              rec.ID,
			TenantID:        rec.TenantID,
			RecipientUserID: rec.RecipientUserID,
			Title:           rec.Title,
			Message:         rec.Message,
			Link:            rec.Link,
			Read:            rec.Read,
			CreatedAt:       rec.CreatedAt,
		})
	}
	return out, nil
}

func (s *Store) MarkRead(ctx context.Context, tenantID, userID, notificationID uuid.UUID) error {
	if err := s.ensureDB(); err != nil {
		return err
	}
	result := s.db.WithContext(ctx).Model(&notificationRecord{}).
		Where("id = ? AND tenant_id = ? AND recipient_user_id = ?", notificationID, tenantID, userID).
		Update("read", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ports.ErrNotFound
	}
	return nil
}

func (s *Store) Save(ctx context.Context, sub *domain.Subscription) error {
	if err := s.ensureDB(); err != nil {
		return err
	}
	if err := sub.Validate(); err != nil {
		return err
	}
	if sub.ID == uuid.Nil {
		sub.ID = uuid.New()
	}
	record := subscriptionRecord{
		ID:         sub.ID,
		TenantID:   sub.TenantID,
		URL:        sub.URL,
		Secret:     sub.Secret,
		EventTypes: pq.StringArray(sub.EventTypes),
		Active:     sub.Active,
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"url", "secret", "event_types", "active", "updated_at"}),
	}).Create(&record).Error
}

func (s *Store) ActiveForEvent(ctx context.Context, tenantID uuid.UUID, eventType string) ([]*domain.Subscription, error) {
	if err := s.ensureDB(); err != nil {
		return nil, err
	}
	var records []subscriptionRecord
	err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND active = ? AND ? = ANY(event_types)", tenantID, true, eventType).
		Order("id").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	out := make([]*domain.Subscription, 0, len(records))
	for _, rec := range records {
		out = append(out, &domain.Subscription{
			ID:         rec.ID,
			TenantID:   rec.TenantID,
			URL:        rec.URL,
			Secret:     rec.Secret,
			EventTypes: []string(rec.EventTypes),
			Active:     rec.Active,
		})
	}
	return out, nil
}

func (s *Store) ensureDB() error {
	if s == nil || s.db == nil {
		return errors.New("postgres side-effect store not configured")
	}
	return nil
}
