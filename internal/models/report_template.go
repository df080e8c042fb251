package models

import "time"

type ReportTemplate struct {
	ID          uint64    `gorm:"primarykey" json:"id"`
	Name        string    `gorm:"type:varchar(100);not null" json:"name"`
	Content     string    `gorm:"type:text;not null" json:"content"`
	CreatedByID uint64    `gorm:"not null;index" json:"created_by_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Relations
	CreatedBy User `gorm:"foreignKey:CreatedByID" json:"created_by,omitempty"`
}
