package models

import "time"

type TaskComment struct {
	ID        uint64    `gorm:"primarykey" json:"id"`
	TaskID    uint64    `gorm:"not null;index" json:"task_id"`
	AuthorID  uint64    `gorm:"not null" json:"author_id"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Author User `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
}

type TaskAttachment struct {
	ID           uint64    `gorm:"primarykey" json:"id"`
	TaskID       uint64    `gorm:"not null;index" json:"task_id"`
	File         string    `gorm:"type:varchar(255);not null" json:"file"`
	Filename     string    `gorm:"type:varchar(255);not null" json:"filename"`
	ContentType  string    `gorm:"type:varchar(100)" json:"content_type"`
	Size         int64     `json:"size"`
	UploadedByID uint64    `gorm:"not null" json:"uploaded_by_id"`
	CreatedAt    time.Time `json:"created_at"`

	// Relations
	UploadedBy User `gorm:"foreignKey:UploadedByID" json:"uploaded_by,omitempty"`
}

// TaskHistory rows are written once per status transition and never changed.
type TaskHistory struct {
	ID             uint64     `gorm:"primarykey" json:"id"`
	TaskID         uint64     `gorm:"not null;index" json:"task_id"`
	ChangedByID    uint64     `gorm:"not null" json:"changed_by_id"`
	PreviousStatus TaskStatus `gorm:"type:varchar(20);not null" json:"previous_status"`
	NewStatus      TaskStatus `gorm:"type:varchar(20);not null" json:"new_status"`
	Comment        string     `gorm:"type:text" json:"comment"`
	CreatedAt      time.Time  `gorm:"index" json:"created_at"`

	// Relations
	Task      Task `gorm:"foreignKey:TaskID" json:"task,omitempty"`
	ChangedBy User `gorm:"foreignKey:ChangedByID" json:"changed_by,omitempty"`
}

type TaskTimeLog struct {
	ID         uint64     `gorm:"primarykey" json:"id"`
	TaskID     uint64     `gorm:"not null;index" json:"task_id"`
	LoggedByID uint64     `gorm:"not null" json:"logged_by_id"`
	StartTime  time.Time  `gorm:"not null" json:"start_time"`
	EndTime    *time.Time `json:"end_time"`

	// Relations
	LoggedBy User `gorm:"foreignKey:LoggedByID" json:"logged_by,omitempty"`
}

// Duration is zero while the session is still open.
func (l TaskTimeLog) Duration() time.Duration {
	if l.EndTime == nil {
		return 0
	}
	return l.EndTime.Sub(l.StartTime)
}

type TaskEvaluation struct {
	ID               uint64         `gorm:"primarykey" json:"id"`
	TaskID           uint64         `gorm:"not null;index" json:"task_id"`
	EvaluatorID      uint64         `gorm:"not null" json:"evaluator_id"`
	Difficulty       TaskDifficulty `gorm:"type:varchar(20);not null" json:"difficulty"`
	PerformanceScore int            `gorm:"not null" json:"performance_score"`
	Feedback         string         `gorm:"type:text" json:"feedback"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`

	// Relations
	Task      Task `gorm:"foreignKey:TaskID" json:"task,omitempty"`
	Evaluator User `gorm:"foreignKey:EvaluatorID" json:"evaluator,omitempty"`
}
