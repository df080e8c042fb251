package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/yukikurage/workforce-api/internal/database"
	"github.com/yukikurage/workforce-api/internal/models"
)

// notificationBatchSize bounds the rows per INSERT statement.
const notificationBatchSize = 100

// GormNotificationRepository is a GORM implementation of NotificationRepository
type GormNotificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository creates a new NotificationRepository
func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &GormNotificationRepository{db: db}
}

// CreateBatch inserts every notification in a single statement batch
func (r *GormNotificationRepository) CreateBatch(notifications []models.Notification) error {
	if len(notifications) == 0 {
		return nil
	}
	return r.db.Omit("Task").CreateInBatches(&notifications, notificationBatchSize).Error
}

// FindByID finds a notification by ID
func (r *GormNotificationRepository) FindByID(id uint64) (*models.Notification, error) {
	var notification models.Notification
	if err := r.db.First(&notification, id).Error; err != nil {
		return nil, err
	}
	return &notification, nil
}

// List lists a recipient's notifications, newest first
func (r *GormNotificationRepository) List(filter NotificationFilter) ([]models.Notification, int64, error) {
	query := r.db.Model(&models.Notification{}).Where("recipient_id = ?", filter.RecipientID)

	if filter.IsRead != nil {
		query = query.Where("is_read = ?", *filter.IsRead)
	}
	if filter.Type != nil {
		query = query.Where("notification_type = ?", *filter.Type)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var notifications []models.Notification
	err := query.
		Order("created_at DESC").
		Order("id DESC").
		Scopes(database.Paginate(filter.Pagination)).
		Preload("Task").
		Find(&notifications).Error
	return notifications, total, err
}

// CountUnread counts a recipient's unread notifications
func (r *GormNotificationRepository) CountUnread(recipientID uint64) (int64, error) {
	var count int64
	err := r.db.Model(&models.Notification{}).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).
		Count(&count).Error
	return count, err
}

// Update updates a notification
func (r *GormNotificationRepository) Update(notification *models.Notification) error {
	return r.db.Omit("Task").Save(notification).Error
}

// MarkAllRead flags every unread notification of a recipient as read
func (r *GormNotificationRepository) MarkAllRead(recipientID uint64) (int64, error) {
	result := r.db.Model(&models.Notification{}).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).
		Update("is_read", true)
	return result.RowsAffected, result.Error
}

// Delete deletes a notification
func (r *GormNotificationRepository) Delete(id uint64) error {
	return r.db.Delete(&models.Notification{}, id).Error
}

// ExistsSince reports whether a notification of the type was created for the task after since
func (r *GormNotificationRepository) ExistsSince(taskID uint64, notificationType models.NotificationType, since time.Time) (bool, error) {
	var count int64
	err := r.db.Model(&models.Notification{}).
		Where("task_id = ? AND notification_type = ? AND created_at >= ?", taskID, notificationType, since).
		Count(&count).Error
	return count > 0, err
}

// DeleteReadBefore removes read notifications created before cutoff
func (r *GormNotificationRepository) DeleteReadBefore(cutoff time.Time) (int64, error) {
	result := r.db.Where("is_read = ? AND created_at < ?", true, cutoff).Delete(&models.Notification{})
	return result.RowsAffected, result.Error
}

// DeleteExpired removes notifications whose expiry is before now
func (r *GormNotificationRepository) DeleteExpired(now time.Time) (int64, error) {
	result := r.db.Where("expires_at IS NOT NULL AND expires_at < ?", now).Delete(&models.Notification{})
	return result.RowsAffected, result.Error
}
