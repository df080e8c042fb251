package models

import "time"

type NotificationType string

const (
	NotificationTaskAssigned            NotificationType = "TASK_ASSIGNED"
	NotificationTaskStatusChanged       NotificationType = "TASK_STATUS_CHANGED"
	NotificationTaskComment             NotificationType = "TASK_COMMENT"
	NotificationTaskMention             NotificationType = "TASK_MENTION"
	NotificationTaskDueSoon             NotificationType = "TASK_DUE_SOON"
	NotificationTaskOverdue             NotificationType = "TASK_OVERDUE"
	NotificationTaskReviewed            NotificationType = "TASK_REVIEWED"
	NotificationTaskReviewCompleted     NotificationType = "TASK_REVIEW_COMPLETED"
	NotificationTaskPriorityChanged     NotificationType = "TASK_PRIORITY_CHANGED"
	NotificationTaskBlocked             NotificationType = "TASK_BLOCKED"
	NotificationTaskUnblocked           NotificationType = "TASK_UNBLOCKED"
	NotificationTaskDependencyCompleted NotificationType = "TASK_DEPENDENCY_COMPLETED"
)

type NotificationPriority string

const (
	NotificationPriorityHigh   NotificationPriority = "HIGH"
	NotificationPriorityMedium NotificationPriority = "MEDIUM"
	NotificationPriorityLow    NotificationPriority = "LOW"
)

type Notification struct {
	ID               uint64               `gorm:"primarykey" json:"id"`
	RecipientID      uint64               `gorm:"not null;index" json:"recipient_id"`
	NotificationType NotificationType     `gorm:"type:varchar(40);not null" json:"notification_type"`
	TaskID           *uint64              `gorm:"index" json:"task_id"`
	Message          string               `gorm:"type:text;not null" json:"message"`
	IsRead           bool                 `gorm:"not null;default:false" json:"is_read"`
	Priority         NotificationPriority `gorm:"type:varchar(10);not null;default:'MEDIUM'" json:"priority"`
	ExpiresAt        *time.Time           `json:"expires_at"`
	CreatedAt        time.Time            `gorm:"index" json:"created_at"`

	// Relations
	Task *Task `gorm:"foreignKey:TaskID" json:"task,omitempty"`
}
