package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sakif/devnode/internal/model"
	"github.com/sakif/devnode/internal/repository"
)

// RecentNotifications is how many notifications List returns.
const RecentNotifications = 10

// NotificationService reads and acknowledges notifications. Writing them is
// the business of the services whose actions trigger them.
type NotificationService struct {
	store  repository.Store
	logger *slog.Logger
}

func NewNotificationService(store repository.Store, logger *slog.Logger) *NotificationService {
	return &NotificationService{store: store, logger: logger}
}

// List returns the latest notifications for userID, read or unread.
func (s *NotificationService) List(ctx context.Context, userID int64) ([]model.Notification, error) {
	list, err := s.store.Notifications().ListRecent(ctx, userID, RecentNotifications)
	if err != nil {
		return nil, fmt.Errorf("service/notification: listing for %d: %w", userID, err)
	}
	return list, nil
}

// MarkRead is idempotent and silently ignores ids userID does not own.
func (s *NotificationService) MarkRead(ctx context.Context, userID, id int64) error {
	if err := s.store.Notifications().MarkRead(ctx, id, userID); err != nil {
		return fmt.Errorf("service/notification: marking %d read: %w", id, err)
	}
	return nil
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID int64) error {
	if err := s.store.Notifications().MarkAllRead(ctx, userID); err != nil {
		return fmt.Errorf("service/notification: marking all read for %d: %w", userID, err)
	}
	s.logger.Debug("notifications marked read", slog.Int64("userID", userID))
	return nil
}
