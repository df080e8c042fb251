package models

import "time"

type Role string

const (
	RoleEmployee Role = "EMPLOYEE"
	RoleManager  Role = "MANAGER"
	RoleAdmin    Role = "ADMIN"
)

type Rank string

const (
	RankStaff                Rank = "STAFF"
	RankSenior               Rank = "SENIOR"
	RankAssistantManager     Rank = "ASSISTANT_MANAGER"
	RankManager              Rank = "MANAGER"
	RankDeputyGeneralManager Rank = "DEPUTY_GENERAL_MANAGER"
	RankGeneralManager       Rank = "GENERAL_MANAGER"
	RankDirector             Rank = "DIRECTOR"
)

// RankOrder lists ranks from most to least senior. The index is the sort ordinal.
var RankOrder = []Rank{
	RankDirector,
	RankGeneralManager,
	RankDeputyGeneralManager,
	RankManager,
	RankAssistantManager,
	RankSenior,
	RankStaff,
}

// Ordinal returns the seniority ordinal of the rank (DIRECTOR=0 ... STAFF=6).
func (r Rank) Ordinal() int {
	for i, rank := range RankOrder {
		if rank == r {
			return i
		}
	}
	return len(RankOrder)
}

// AtLeast reports whether r is as senior as other or more.
func (r Rank) AtLeast(other Rank) bool {
	return r.Ordinal() <= other.Ordinal()
}

// Valid reports whether r is a known rank.
func (r Rank) Valid() bool {
	return r.Ordinal() < len(RankOrder)
}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleEmployee, RoleManager, RoleAdmin:
		return true
	}
	return false
}

type User struct {
	ID           uint64    `gorm:"primarykey" json:"id"`
	Username     string    `gorm:"type:varchar(150);uniqueIndex;not null" json:"username"`
	PasswordHash string    `gorm:"type:varchar(255);not null" json:"-"`
	EmployeeID   string    `gorm:"type:varchar(10);uniqueIndex;not null" json:"employee_id"`
	Email        string    `gorm:"type:varchar(255)" json:"email"`
	FirstName    string    `gorm:"type:varchar(150)" json:"first_name"`
	LastName     string    `gorm:"type:varchar(150)" json:"last_name"`
	Role         Role      `gorm:"type:varchar(20);not null;default:'EMPLOYEE'" json:"role"`
	Rank         Rank      `gorm:"column:job_rank;type:varchar(30);not null;default:'STAFF'" json:"rank"`
	DepartmentID *uint64   `gorm:"index" json:"department_id"`
	IsActive     bool      `gorm:"not null;default:true" json:"is_active"`
	IsStaff      bool      `gorm:"not null;default:false" json:"is_staff"`
	IsSuperuser  bool      `gorm:"not null;default:false" json:"is_superuser"`
	DateJoined   time.Time `json:"date_joined"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	// Relations
	Department *Department `gorm:"foreignKey:DepartmentID;constraint:OnDelete:SET NULL" json:"department,omitempty"`
}

// FullName joins last and first name the way the organization chart prints them.
func (u User) FullName() string {
	return u.LastName + u.FirstName
}

// IsAdmin reports whether the user has the ADMIN role or is a superuser.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin || u.IsSuperuser
}

// IsExecutive reports whether the user holds a DIRECTOR or GENERAL_MANAGER rank.
func (u User) IsExecutive() bool {
	return u.Rank == RankDirector || u.Rank == RankGeneralManager
}
