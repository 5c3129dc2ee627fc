package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	orderdomain "github.com/Apurer/repairshop-api/internal/domains/orders/domain"
	"github.com/Apurer/repairshop-api/internal/domains/sideeffects/domain"
	"github.com/Apurer/repairshop-api/internal/domains/sideeffects/ports"
)

var _ ports.NotificationService = (*NotificationService)(nil)

// NotificationService serves a user's in-app notifications.
type NotificationService struct {
	store ports.NotificationStore
}

func NewNotificationService(store ports.NotificationStore) *NotificationService {
	return &NotificationService{store: store}
}

func (s *NotificationService) ListForRecipient(ctx context.Context, actor orderdomain.Actor, unreadOnly bool) ([]*domain.Notification, error) {
	notifications, err := s.store.ListForRecipient(ctx, actor.TenantID, actor.UserID, unreadOnly)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return notifications, nil
}

// MarkRead hides notifications addressed to other users behind
// ErrNotificationNotFound.
func (s *NotificationService) MarkRead(ctx context.Context, actor orderdomain.Actor, notificationID uuid.UUID) error {
	err := s.store.MarkRead(ctx, actor.TenantID, actor.UserID, notificationID)
	if errors.Is(err, ports.ErrNotFound) {
		return domain.ErrNotificationNotFound
	}
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	return nil
}
