package models

import "time"

type Department struct {
	ID        uint64    `gorm:"primarykey" json:"id"`
	Name      string    `gorm:"type:varchar(100);not null" json:"name"`
	Code      string    `gorm:"type:varchar(20);uniqueIndex;not null" json:"code"`
	ParentID  *uint64   `gorm:"index" json:"parent_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Parent   *Department  `gorm:"foreignKey:ParentID;references:ID" json:"parent,omitempty"`
	Children []Department `gorm:"foreignKey:ParentID" json:"children,omitempty"`
}

// IsHeadquarters reports whether the department is a root of the two-level tree.
func (d Department) IsHeadquarters() bool {
	return d.ParentID == nil
}

// HeadquartersID returns the headquarters the department belongs to.
func (d Department) HeadquartersID() uint64 {
	if d.ParentID != nil {
		return *d.ParentID
	}
	return d.ID
}
