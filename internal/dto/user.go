package dto

import (
	"time"

	"github.com/yukikurage/workforce-api/internal/models"
)

// UserDTO represents a user in API responses
type UserDTO struct {
	ID             uint64      `json:"id"`
	Username       string      `json:"username"`
	Email          string      `json:"email"`
	EmployeeID     string      `json:"employee_id"`
	FirstName      string      `json:"first_name"`
	LastName       string      `json:"last_name"`
	Role           models.Role `json:"role"`
	Rank           models.Rank `json:"rank"`
	Department     *uint64     `json:"department"`
	DepartmentName string      `json:"department_name"`
	IsActive       bool        `json:"is_active"`
	DateJoined     time.Time   `json:"date_joined"`
}

// UserSummaryDTO is the compact user embedded in other resources.
type UserSummaryDTO struct {
	ID         uint64      `json:"id"`
	Username   string      `json:"username"`
	Name       string      `json:"name"`
	EmployeeID string      `json:"employee_id"`
	Rank       models.Rank `json:"rank"`
}

// DisplayName prefers the full name and falls back to the username.
func DisplayName(user models.User) string {
	if name := user.FullName(); name != "" {
		return name
	}
	return user.Username
}

// ToUserDTO converts a User model to UserDTO
func ToUserDTO(user models.User) UserDTO {
	dto := UserDTO{
		ID:         user.ID,
		Username:   user.Username,
		Email:      user.Email,
		EmployeeID: user.EmployeeID,
		FirstName:  user.FirstName,
		LastName:   user.LastName,
		Role:       user.Role,
		Rank:       user.Rank,
		Department: user.DepartmentID,
		IsActive:   user.IsActive,
		DateJoined: user.DateJoined,
	}
	if user.Department != nil {
		dto.DepartmentName = user.Department.Name
	}
	return dto
}

// ToUserSummaryDTO converts a User model to UserSummaryDTO
func ToUserSummaryDTO(user models.User) UserSummaryDTO {
	return UserSummaryDTO{
		ID:         user.ID,
		Username:   user.Username,
		Name:       DisplayName(user),
		EmployeeID: user.EmployeeID,
		Rank:       user.Rank,
	}
}
