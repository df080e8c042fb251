package services

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/yukikurage/workforce-api/internal/metrics"
	"github.com/yukikurage/workforce-api/internal/models"
	"github.com/yukikurage/workforce-api/internal/repository"
	"github.com/yukikurage/workforce-api/internal/utils"
)

var ErrNotificationNotFound = errors.New("notification not found")

// NotificationService serves a user's inbox and its maintenance.
type NotificationService struct {
	notifications repository.NotificationRepository
	readRetention time.Duration
	log           *zap.Logger
}

// NewNotificationService creates a new NotificationService. Read notifications
// older than readRetention are removed by Cleanup.
func NewNotificationService(notifications repository.NotificationRepository, readRetention time.Duration, log *zap.Logger) *NotificationService {
	return &NotificationService{
		notifications: notifications,
		readRetention: readRetention,
		log:           log,
	}
}

// ListNotificationsInput filters the inbox.
type ListNotificationsInput struct {
	IsRead     *bool
	Type       *models.NotificationType
	Pagination utils.PaginationParams
}

// List lists actor's notifications, newest first.
func (s *NotificationService) List(actor *models.User, input ListNotificationsInput) ([]models.Notification, int64, error) {
	notifications, total, err := s.notifications.List(repository.NotificationFilter{
		RecipientID: actor.ID,
		IsRead:      input.IsRead,
		Type:        input.Type,
		Pagination:  input.Pagination,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list notifications: %w", err)
	}
	return notifications, total, nil
}

// Get returns one of actor's notifications. Other users' notifications are
// reported as missing.
func (s *NotificationService) Get(actor *models.User, id uint64) (*models.Notification, error) {
	notification, err := s.notifications.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotificationNotFound
		}
		return nil, fmt.Errorf("failed to find notification: %w", err)
	}
	if notification.RecipientID != actor.ID {
		return nil, ErrNotificationNotFound
	}
	return notification, nil
}

// SetRead flags one notification read or unread.
func (s *NotificationService) SetRead(actor *models.User, id uint64, read bool) (*models.Notification, error) {
	notification, err := s.Get(actor, id)
	if err != nil {
		return nil, err
	}
	notification.IsRead = read
	if err := s.notifications.Update(notification); err != nil {
		return nil, fmt.Errorf("failed to update notification: %w", err)
	}
	return notification, nil
}

// MarkAllRead flags every unread notification of actor as read.
func (s *NotificationService) MarkAllRead(actor *models.User) (int64, error) {
	n, err := s.notifications.MarkAllRead(actor.ID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return n, nil
}

// UnreadCount counts actor's unread notifications.
func (s *NotificationService) UnreadCount(actor *models.User) (int64, error) {
	n, err := s.notifications.CountUnread(actor.ID)
	if err != nil {
		return 0, fmt.Errorf("failed to count notifications: %w", err)
	}
	return n, nil
}

// Delete removes one of actor's notifications.
func (s *NotificationService) Delete(actor *models.User, id uint64) error {
	if _, err := s.Get(actor, id); err != nil {
		return err
	}
	if err := s.notifications.Delete(id); err != nil {
		return fmt.Errorf("failed to delete notification: %w", err)
	}
	return nil
}

// CleanupResult reports how many notifications a cleanup removed.
type CleanupResult struct {
	Read    int64
	Expired int64
}

// Cleanup deletes read notifications past the retention period and every
// notification whose expiry has passed.
func (s *NotificationService) Cleanup(now time.Time) (CleanupResult, error) {
	var result CleanupResult

	read, err := s.notifications.DeleteReadBefore(now.Add(-s.readRetention))
	if err != nil {
		return result, fmt.Errorf("failed to delete read notifications: %w", err)
	}
	result.Read = read

	expired, err := s.notifications.DeleteExpired(now)
	if err != nil {
		return result, fmt.Errorf("failed to delete expired notifications: %w", err)
	}
	result.Expired = expired

	metrics.NotificationsCleaned.WithLabelValues("read").Add(float64(read))
	metrics.NotificationsCleaned.WithLabelValues("expired").Add(float64(expired))
	s.log.Info("notifications cleaned up", zap.Int64("read", read), zap.Int64("expired", expired))

	return result, nil
}
