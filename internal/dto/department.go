package dto

import (
	"time"

	"github.com/yukikurage/workforce-api/internal/models"
)

// DepartmentDTO represents a department in API responses
type DepartmentDTO struct {
	ID             uint64    `json:"id"`
	Name           string    `json:"name"`
	Code           string    `json:"code"`
	Parent         *uint64   `json:"parent"`
	ParentName     string    `json:"parent_name"`
	IsHeadquarters bool      `json:"is_headquarters"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// ToDepartmentDTO converts a Department model to DepartmentDTO
func ToDepartmentDTO(dept models.Department) DepartmentDTO {
	dto := DepartmentDTO{
		ID:             dept.ID,
		Name:           dept.Name,
		Code:           dept.Code,
		Parent:         dept.ParentID,
		IsHeadquarters: dept.IsHeadquarters(),
		CreatedAt:      dept.CreatedAt,
		UpdatedAt:      dept.UpdatedAt,
	}
	if dept.Parent != nil {
		dto.ParentName = dept.Parent.Name
	}
	return dto
}
