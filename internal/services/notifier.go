package services

import (
	"time"

	"go.uber.org/zap"

	"github.com/yukikurage/workforce-api/internal/metrics"
	"github.com/yukikurage/workforce-api/internal/models"
	"github.com/yukikurage/workforce-api/internal/repository"
)

type notificationKey struct {
	recipientID uint64
	kind        models.NotificationType
	taskID      uint64
}

// notificationBatch collects the notifications produced by one mutation so
// they are written with a single batch insert.
type notificationBatch struct {
	now   time.Time
	items []models.Notification
	seen  map[notificationKey]struct{}
}

func newNotificationBatch(now time.Time) *notificationBatch {
	return &notificationBatch{now: now, seen: make(map[notificationKey]struct{})}
}

// add queues one notification. Repeats of the same recipient, type and task
// inside a batch are dropped.
func (b *notificationBatch) add(recipientID uint64, kind models.NotificationType, taskID uint64, message string, priority models.NotificationPriority, expiresAt *time.Time) {
	key := notificationKey{recipientID: recipientID, kind: kind, taskID: taskID}
	if _, ok := b.seen[key]; ok {
		return
	}
	b.seen[key] = struct{}{}

	id := taskID
	b.items = append(b.items, models.Notification{
		RecipientID:      recipientID,
		NotificationType: kind,
		TaskID:           &id,
		Message:          message,
		Priority:         priority,
		ExpiresAt:        expiresAt,
		CreatedAt:        b.now,
	})
}

func (b *notificationBatch) len() int {
	return len(b.items)
}

func (b *notificationBatch) flush(tx *repository.Repositories) error {
	return tx.Notifications.CreateBatch(b.items)
}

// record counts the batch once its transaction has committed.
func (b *notificationBatch) record(log *zap.Logger, taskID uint64) {
	if len(b.items) == 0 {
		return
	}
	for _, n := range b.items {
		metrics.NotificationsCreated.WithLabelValues(string(n.NotificationType)).Inc()
	}
	log.Debug("notifications created", zap.Uint64("task_id", taskID), zap.Int("count", len(b.items)))
}
