package models

import "time"

type TaskStatus string

const (
	TaskStatusTodo       TaskStatus = "TODO"
	TaskStatusInProgress TaskStatus = "IN_PROGRESS"
	TaskStatusReview     TaskStatus = "REVIEW"
	TaskStatusDone       TaskStatus = "DONE"
	TaskStatusHold       TaskStatus = "HOLD"
)

// TaskStatusOrder is the display order of statuses.
var TaskStatusOrder = []TaskStatus{
	TaskStatusTodo,
	TaskStatusInProgress,
	TaskStatusReview,
	TaskStatusDone,
	TaskStatusHold,
}

// Label returns the Korean label shown in activity feeds.
func (s TaskStatus) Label() string {
	switch s {
	case TaskStatusTodo:
		return "예정"
	case TaskStatusInProgress:
		return "진행중"
	case TaskStatusReview:
		return "검토중"
	case TaskStatusDone:
		return "완료"
	case TaskStatusHold:
		return "보류"
	}
	return string(s)
}

func (s TaskStatus) Valid() bool {
	for _, v := range TaskStatusOrder {
		if v == s {
			return true
		}
	}
	return false
}

type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "LOW"
	TaskPriorityMedium TaskPriority = "MEDIUM"
	TaskPriorityHigh   TaskPriority = "HIGH"
	TaskPriorityUrgent TaskPriority = "URGENT"
)

// TaskPriorityOrder is the declaration order used by priority statistics.
var TaskPriorityOrder = []TaskPriority{
	TaskPriorityLow,
	TaskPriorityMedium,
	TaskPriorityHigh,
	TaskPriorityUrgent,
}

func (p TaskPriority) Valid() bool {
	for _, v := range TaskPriorityOrder {
		if v == p {
			return true
		}
	}
	return false
}

type TaskDifficulty string

const (
	TaskDifficultyEasy     TaskDifficulty = "EASY"
	TaskDifficultyMedium   TaskDifficulty = "MEDIUM"
	TaskDifficultyHard     TaskDifficulty = "HARD"
	TaskDifficultyVeryHard TaskDifficulty = "VERY_HARD"
)

func (d TaskDifficulty) Valid() bool {
	switch d {
	case TaskDifficultyEasy, TaskDifficultyMedium, TaskDifficultyHard, TaskDifficultyVeryHard:
		return true
	}
	return false
}

type Task struct {
	ID             uint64         `gorm:"primarykey" json:"id"`
	Title          string         `gorm:"type:varchar(200);not null" json:"title"`
	Description    string         `gorm:"type:text" json:"description"`
	Status         TaskStatus     `gorm:"type:varchar(20);not null;default:'TODO';index" json:"status"`
	Priority       TaskPriority   `gorm:"type:varchar(20);not null;default:'MEDIUM'" json:"priority"`
	Difficulty     TaskDifficulty `gorm:"type:varchar(20);not null;default:'MEDIUM'" json:"difficulty"`
	AssigneeID     uint64         `gorm:"not null;index" json:"assignee_id"`
	ReporterID     uint64         `gorm:"not null" json:"reporter_id"`
	DepartmentID   uint64         `gorm:"not null;index" json:"department_id"`
	StartDate      time.Time      `gorm:"not null" json:"start_date"`
	DueDate        time.Time      `gorm:"not null;index" json:"due_date"`
	CompletedAt    *time.Time     `json:"completed_at"`
	EstimatedHours float64        `gorm:"not null;default:0" json:"estimated_hours"`
	ActualHours    *float64       `json:"actual_hours"`
	CreatedAt      time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`

	// Relations
	Assignee     User             `gorm:"foreignKey:AssigneeID" json:"assignee,omitempty"`
	Reporter     User             `gorm:"foreignKey:ReporterID" json:"reporter,omitempty"`
	Department   Department       `gorm:"foreignKey:DepartmentID" json:"department,omitempty"`
	Comments     []TaskComment    `gorm:"foreignKey:TaskID" json:"comments,omitempty"`
	Dependencies []TaskDependency `gorm:"foreignKey:TaskID" json:"dependencies,omitempty"`
}

// IsDelayed reports whether the due date has passed while the task is unfinished.
func (t Task) IsDelayed(now time.Time) bool {
	return t.DueDate.Before(now) && t.Status != TaskStatusDone
}

// TaskDependency records that TaskID cannot finish before DependsOnID.
type TaskDependency struct {
	TaskID      uint64    `gorm:"primaryKey;autoIncrement:false" json:"task_id"`
	DependsOnID uint64    `gorm:"primaryKey;autoIncrement:false;index" json:"depends_on_id"`
	CreatedAt   time.Time `json:"created_at"`
}
