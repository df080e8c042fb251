package repository

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/yukikurage/workforce-api/internal/database"
	"github.com/yukikurage/workforce-api/internal/models"
)

// GormUserRepository is a GORM implementation of UserRepository
type GormUserRepository struct {
	db *gorm.DB
}

var (
	// ErrCreateUser is returned when inserting a user row fails.
	ErrCreateUser = errors.New("user repository: create user failed")
	// ErrListUsers is returned when the user listing query fails.
	ErrListUsers = errors.New("user repository: list users failed")
)

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &GormUserRepository{db: db}
}

// Create creates a new user
func (r *GormUserRepository) Create(user *models.User) error {
	if err := r.db.Create(user).Error; err != nil {
		return fmt.Errorf("%w: %v", ErrCreateUser, err)
	}
	return nil
}

// FindByID finds a user by ID with the department loaded
func (r *GormUserRepository) FindByID(id uint64) (*models.User, error) {
	var user models.User
	if err := r.db.Preload("Department").First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByUsername finds a user by username
func (r *GormUserRepository) FindByUsername(username string) (*models.User, error) {
	var user models.User
	if err := r.db.Preload("Department").Where("username = ?", username).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByUsernames returns the active users with any of the usernames
func (r *GormUserRepository) FindByUsernames(usernames []string) ([]models.User, error) {
	if len(usernames) == 0 {
		return []models.User{}, nil
	}
	var users []models.User
	err := r.db.Where("username IN ? AND is_active = ?", usernames, true).Find(&users).Error
	return users, err
}

// EmployeeIDExists reports whether an employee number is already taken
func (r *GormUserRepository) EmployeeIDExists(employeeID string) (bool, error) {
	var count int64
	err := r.db.Model(&models.User{}).Where("employee_id = ?", employeeID).Count(&count).Error
	return count > 0, err
}

// rankOrdinalExpr sorts ranks from DIRECTOR (0) to STAFF (6).
func rankOrdinalExpr() string {
	var b strings.Builder
	b.WriteString("CASE users.job_rank")
	for i, rank := range models.RankOrder {
		fmt.Fprintf(&b, " WHEN '%s' THEN %d", rank, i)
	}
	fmt.Fprintf(&b, " ELSE %d END", len(models.RankOrder))
	return b.String()
}

// List retrieves users ordered headquarters first, then department name,
// rank seniority and first name.
func (r *GormUserRepository) List(filter UserFilter) ([]models.User, int64, error) {
	query := r.db.Model(&models.User{}).
		Joins("LEFT JOIN departments ON departments.id = users.department_id")

	query = applyUserScope(query, filter.Scope)

	if len(filter.DepartmentIDs) > 0 {
		query = query.Where("users.department_id IN ?", filter.DepartmentIDs)
	}
	if filter.Rank != nil {
		query = query.Where("users.job_rank = ?", *filter.Rank)
	}
	if filter.Role != nil {
		query = query.Where("users.role = ?", *filter.Role)
	}
	if filter.IsActive != nil {
		query = query.Where("users.is_active = ?", *filter.IsActive)
	}
	if len(filter.ExcludeRanks) > 0 {
		query = query.Where("users.job_rank NOT IN ?", filter.ExcludeRanks)
	}
	if filter.Search != "" {
		query = query.Scopes(database.ContainsAny(filter.Search,
			database.Concat(r.db, "users.last_name", "users.first_name"),
			"users.first_name",
			"users.last_name",
			"users.employee_id",
			"users.email",
		))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrListUsers, err)
	}

	var users []models.User
	err := query.
		Select("users.*").
		Order("CASE WHEN departments.parent_id IS NULL THEN 0 ELSE 1 END").
		Order("departments.name").
		Order(rankOrdinalExpr()).
		Order("users.first_name").
		Order("users.id").
		Scopes(database.Paginate(filter.Pagination)).
		Preload("Department").
		Find(&users).Error
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrListUsers, err)
	}

	return users, total, nil
}

// Update updates a user
func (r *GormUserRepository) Update(user *models.User) error {
	return r.db.Omit("Department").Save(user).Error
}

// ListReviewers lists active MANAGER and ADMIN users of a department
func (r *GormUserRepository) ListReviewers(departmentID uint64) ([]models.User, error) {
	var users []models.User
	err := r.db.
		Where("department_id = ? AND role IN ? AND is_active = ?",
			departmentID, []models.Role{models.RoleManager, models.RoleAdmin}, true).
		Order("id").
		Find(&users).Error
	return users, err
}
