package dto

import (
	"time"

	"github.com/yukikurage/workforce-api/internal/models"
)

// TaskDTO represents a task in API responses
type TaskDTO struct {
	ID             uint64                `json:"id"`
	Title          string                `json:"title"`
	Description    string                `json:"description"`
	Status         models.TaskStatus     `json:"status"`
	StatusLabel    string                `json:"status_label"`
	Priority       models.TaskPriority   `json:"priority"`
	Difficulty     models.TaskDifficulty `json:"difficulty"`
	Assignee       uint64                `json:"assignee"`
	AssigneeName   string                `json:"assignee_name"`
	Reporter       uint64                `json:"reporter"`
	ReporterName   string                `json:"reporter_name"`
	Department     uint64                `json:"department"`
	DepartmentName string                `json:"department_name"`
	StartDate      time.Time             `json:"start_date"`
	DueDate        time.Time             `json:"due_date"`
	CompletedAt    *time.Time            `json:"completed_at"`
	EstimatedHours float64               `json:"estimated_hours"`
	ActualHours    *float64              `json:"actual_hours"`
	IsDelayed      bool                  `json:"is_delayed"`
	CreatedAt      time.Time             `json:"created_at"`
	UpdatedAt      time.Time             `json:"updated_at"`
}

// TaskDetailDTO adds comments and dependency ids to TaskDTO
type TaskDetailDTO struct {
	TaskDTO
	Comments     []CommentDTO `json:"comments"`
	Dependencies []uint64     `json:"dependencies"`
}

// CalendarEventDTO is one task rendered for a calendar view
type CalendarEventDTO struct {
	ID       uint64              `json:"id"`
	Title    string              `json:"title"`
	Start    time.Time           `json:"start"`
	End      time.Time           `json:"end"`
	Status   models.TaskStatus   `json:"status"`
	Priority models.TaskPriority `json:"priority"`
	Assignee string              `json:"assignee"`
}

// ToTaskDTO converts a Task model to TaskDTO. Relation names are empty when not preloaded.
func ToTaskDTO(task models.Task, now time.Time) TaskDTO {
	dto := TaskDTO{
		ID:             task.ID,
		Title:          task.Title,
		Description:    task.Description,
		Status:         task.Status,
		StatusLabel:    task.Status.Label(),
		Priority:       task.Priority,
		Difficulty:     task.Difficulty,
		Assignee:       task.AssigneeID,
		Reporter:       task.ReporterID,
		Department:     task.DepartmentID,
		StartDate:      task.StartDate,
		DueDate:        task.DueDate,
		CompletedAt:    task.CompletedAt,
		EstimatedHours: task.EstimatedHours,
		ActualHours:    task.ActualHours,
		IsDelayed:      task.IsDelayed(now),
		CreatedAt:      task.CreatedAt,
		UpdatedAt:      task.UpdatedAt,
	}
	if task.Assignee.ID != 0 {
		dto.AssigneeName = DisplayName(task.Assignee)
	}
	if task.Reporter.ID != 0 {
		dto.ReporterName = DisplayName(task.Reporter)
	}
	if task.Department.ID != 0 {
		dto.DepartmentName = task.Department.Name
	}
	return dto
}

// ToTaskDetailDTO converts a Task model with its comments preloaded to TaskDetailDTO
func ToTaskDetailDTO(task models.Task, dependencies []uint64, delayed bool) TaskDetailDTO {
	if dependencies == nil {
		dependencies = []uint64{}
	}
	dto := TaskDetailDTO{
		TaskDTO:      ToTaskDTO(task, time.Time{}),
		Comments:     Map(task.Comments, ToCommentDTO),
		Dependencies: dependencies,
	}
	dto.IsDelayed = delayed
	return dto
}

// ToCalendarEventDTO converts a Task model to CalendarEventDTO
func ToCalendarEventDTO(task models.Task) CalendarEventDTO {
	return CalendarEventDTO{
		ID:       task.ID,
		Title:    task.Title,
		Start:    task.StartDate,
		End:      task.DueDate,
		Status:   task.Status,
		Priority: task.Priority,
		Assignee: DisplayName(task.Assignee),
	}
}
