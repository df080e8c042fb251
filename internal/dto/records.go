package dto

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/yukikurage/workforce-api/internal/models"
)

// CommentDTO represents a task comment in API responses
type CommentDTO struct {
	ID         uint64    `json:"id"`
	Task       uint64    `json:"task"`
	Author     uint64    `json:"author"`
	AuthorName string    `json:"author_name"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func ToCommentDTO(comment models.TaskComment) CommentDTO {
	return CommentDTO{
		ID:         comment.ID,
		Task:       comment.TaskID,
		Author:     comment.AuthorID,
		AuthorName: DisplayName(comment.Author),
		Content:    comment.Content,
		CreatedAt:  comment.CreatedAt,
		UpdatedAt:  comment.UpdatedAt,
	}
}

// AttachmentDTO represents an uploaded file in API responses
type AttachmentDTO struct {
	ID             uint64    `json:"id"`
	Task           uint64    `json:"task"`
	Filename       string    `json:"filename"`
	ContentType    string    `json:"content_type"`
	Size           int64     `json:"size"`
	DownloadURL    string    `json:"download_url"`
	UploadedBy     uint64    `json:"uploaded_by"`
	UploadedByName string    `json:"uploaded_by_name"`
	CreatedAt      time.Time `json:"created_at"`
}

func ToAttachmentDTO(att models.TaskAttachment) AttachmentDTO {
	return AttachmentDTO{
		ID:             att.ID,
		Task:           att.TaskID,
		Filename:       att.Filename,
		ContentType:    att.ContentType,
		Size:           att.Size,
		DownloadURL:    fmt.Sprintf("/api/task-attachments/%d/download", att.ID),
		UploadedBy:     att.UploadedByID,
		UploadedByName: DisplayName(att.UploadedBy),
		CreatedAt:      att.CreatedAt,
	}
}

// HistoryDTO represents one status transition in API responses
type HistoryDTO struct {
	ID                  uint64            `json:"id"`
	Task                uint64            `json:"task"`
	ChangedBy           uint64            `json:"changed_by"`
	ChangedByName       string            `json:"changed_by_name"`
	PreviousStatus      models.TaskStatus `json:"previous_status"`
	PreviousStatusLabel string            `json:"previous_status_label"`
	NewStatus           models.TaskStatus `json:"new_status"`
	NewStatusLabel      string            `json:"new_status_label"`
	Comment             string            `json:"comment"`
	CreatedAt           time.Time         `json:"created_at"`
}

func ToHistoryDTO(h models.TaskHistory) HistoryDTO {
	return HistoryDTO{
		ID:                  h.ID,
		Task:                h.TaskID,
		ChangedBy:           h.ChangedByID,
		ChangedByName:       DisplayName(h.ChangedBy),
		PreviousStatus:      h.PreviousStatus,
		PreviousStatusLabel: h.PreviousStatus.Label(),
		NewStatus:           h.NewStatus,
		NewStatusLabel:      h.NewStatus.Label(),
		Comment:             h.Comment,
		CreatedAt:           h.CreatedAt,
	}
}

// TimeLogDTO represents a work session. Duration is HH:MM:SS.
type TimeLogDTO struct {
	ID              uint64     `json:"id"`
	Task            uint64     `json:"task"`
	LoggedBy        uint64     `json:"logged_by"`
	LoggedByName    string     `json:"logged_by_name"`
	StartTime       time.Time  `json:"start_time"`
	EndTime         *time.Time `json:"end_time"`
	Duration        string     `json:"duration"`
	DurationSeconds int64      `json:"duration_seconds"`
}

func ToTimeLogDTO(l models.TaskTimeLog) TimeLogDTO {
	d := l.Duration()
	secs := int64(d.Seconds())
	return TimeLogDTO{
		ID:              l.ID,
		Task:            l.TaskID,
		LoggedBy:        l.LoggedByID,
		LoggedByName:    DisplayName(l.LoggedBy),
		StartTime:       l.StartTime,
		EndTime:         l.EndTime,
		Duration:        fmt.Sprintf("%02d:%02d:%02d", secs/3600, secs%3600/60, secs%60),
		DurationSeconds: secs,
	}
}

// EvaluationDTO represents a task evaluation in API responses
type EvaluationDTO struct {
	ID               uint64                `json:"id"`
	Task             uint64                `json:"task"`
	Evaluator        uint64                `json:"evaluator"`
	EvaluatorName    string                `json:"evaluator_name"`
	Difficulty       models.TaskDifficulty `json:"difficulty"`
	PerformanceScore int                   `json:"performance_score"`
	Feedback         string                `json:"feedback"`
	CreatedAt        time.Time             `json:"created_at"`
	UpdatedAt        time.Time             `json:"updated_at"`
}

func ToEvaluationDTO(e models.TaskEvaluation) EvaluationDTO {
	return EvaluationDTO{
		ID:               e.ID,
		Task:             e.TaskID,
		Evaluator:        e.EvaluatorID,
		EvaluatorName:    DisplayName(e.Evaluator),
		Difficulty:       e.Difficulty,
		PerformanceScore: e.PerformanceScore,
		Feedback:         e.Feedback,
		CreatedAt:        e.CreatedAt,
		UpdatedAt:        e.UpdatedAt,
	}
}

// NotificationDTO represents an inbox entry in API responses
type NotificationDTO struct {
	ID               uint64                      `json:"id"`
	Recipient        uint64                      `json:"recipient"`
	NotificationType models.NotificationType     `json:"notification_type"`
	Task             *uint64                     `json:"task"`
	TaskTitle        string                      `json:"task_title"`
	Message          string                      `json:"message"`
	IsRead           bool                        `json:"is_read"`
	Priority         models.NotificationPriority `json:"priority"`
	ExpiresAt        *time.Time                  `json:"expires_at"`
	CreatedAt        time.Time                   `json:"created_at"`
}

func ToNotificationDTO(n models.Notification) NotificationDTO {
	dto := NotificationDTO{
		ID:               n.ID,
		Recipient:        n.RecipientID,
		NotificationType: n.NotificationType,
		Task:             n.TaskID,
		Message:          n.Message,
		IsRead:           n.IsRead,
		Priority:         n.Priority,
		ExpiresAt:        n.ExpiresAt,
		CreatedAt:        n.CreatedAt,
	}
	if n.Task != nil {
		dto.TaskTitle = n.Task.Title
	}
	return dto
}

// ReportTemplateDTO represents a saved report layout. Content is the stored JSON document.
type ReportTemplateDTO struct {
	ID            uint64          `json:"id"`
	Name          string          `json:"name"`
	Content       json.RawMessage `json:"content"`
	CreatedBy     uint64          `json:"created_by"`
	CreatedByName string          `json:"created_by_name"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func ToReportTemplateDTO(t models.ReportTemplate) ReportTemplateDTO {
	content := json.RawMessage(t.Content)
	if !json.Valid(content) {
		content = json.RawMessage("null")
	}
	return ReportTemplateDTO{
		ID:            t.ID,
		Name:          t.Name,
		Content:       content,
		CreatedBy:     t.CreatedByID,
		CreatedByName: DisplayName(t.CreatedBy),
		CreatedAt:     t.CreatedAt,
		UpdatedAt:     t.UpdatedAt,
	}
}
