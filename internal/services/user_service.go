package services

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/yukikurage/workforce-api/internal/constants"
	"github.com/yukikurage/workforce-api/internal/models"
	"github.com/yukikurage/workforce-api/internal/policy"
	"github.com/yukikurage/workforce-api/internal/repository"
	"github.com/yukikurage/workforce-api/internal/utils"
)

var (
	ErrUsernameTaken        = errors.New("username already exists")
	ErrPasswordTooShort     = errors.New("password too short")
	ErrInvalidUsername      = errors.New("invalid username")
	ErrDepartmentNotFound   = errors.New("department not found")
	ErrEmployeeIDExhausted  = errors.New("failed to allocate employee id")
	ErrSelfUpdateRestricted = errors.New("only name, email and password can be changed on the own account")
)

const employeeIDAttempts = 5

// UserService handles employee directory operations.
type UserService struct {
	users       repository.UserRepository
	departments repository.DepartmentRepository
	tasks       repository.TaskRepository
	scopes      *ScopeResolver
	now         Clock
}

// NewUserService creates a new UserService.
func NewUserService(repos *repository.Repositories, scopes *ScopeResolver) *UserService {
	return &UserService{
		users:       repos.Users,
		departments: repos.Departments,
		tasks:       repos.Tasks,
		scopes:      scopes,
		now:         systemClock,
	}
}

// ListUsersInput holds the optional filters of the user listing.
type ListUsersInput struct {
	DepartmentID      *uint64
	IncludeChildDepts bool
	Rank              *models.Rank
	Role              *models.Role
	IsActive          *bool
	Search            string
	Pagination        utils.PaginationParams
}

// List lists the users visible to actor.
func (s *UserService) List(actor *models.User, input ListUsersInput) ([]models.User, int64, error) {
	scope, err := s.scopes.Scope(actor)
	if err != nil {
		return nil, 0, err
	}

	filter := repository.UserFilter{
		Scope:      scope,
		Rank:       input.Rank,
		Role:       input.Role,
		IsActive:   input.IsActive,
		Search:     strings.TrimSpace(input.Search),
		Pagination: input.Pagination,
	}
	if input.DepartmentID != nil {
		ids, err := s.scopes.ExpandDepartment(*input.DepartmentID, input.IncludeChildDepts)
		if err != nil {
			return nil, 0, err
		}
		filter.DepartmentIDs = ids
	}

	users, total, err := s.users.List(filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	return users, total, nil
}

// Get returns a user inside actor's scope.
func (s *UserService) Get(actor *models.User, id uint64) (*models.User, error) {
	user, err := s.find(id)
	if err != nil {
		return nil, err
	}
	scope, err := s.scopes.Scope(actor)
	if err != nil {
		return nil, err
	}
	if !policy.CanSeeUser(scope, user) {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func (s *UserService) find(id uint64) (*models.User, error) {
	user, err := s.users.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

// CreateUserInput represents the information to onboard an employee.
type CreateUserInput struct {
	Username     string
	Password     string
	Email        string
	FirstName    string
	LastName     string
	Role         *models.Role
	Rank         *models.Rank
	DepartmentID *uint64
	IsStaff      bool
	IsSuperuser  bool
}

// Create onboards a user with a generated employee number.
func (s *UserService) Create(actor *models.User, input CreateUserInput) (*models.User, error) {
	if !policy.CanManageUsers(actor) {
		return nil, ErrPermissionDenied
	}

	username := strings.TrimSpace(input.Username)
	if len(username) < constants.MinUsernameLength || len(username) > constants.MaxUsernameLength {
		return nil, ErrInvalidUsername
	}
	if len(input.Password) < constants.MinPasswordLength {
		return nil, ErrPasswordTooShort
	}

	if _, err := s.users.FindByUsername(username); err == nil {
		return nil, ErrUsernameTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}

	if input.DepartmentID != nil {
		if err := s.ensureDepartment(*input.DepartmentID); err != nil {
			return nil, err
		}
	}

	hashed, err := HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	employeeID, err := s.allocateEmployeeID()
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username:     username,
		PasswordHash: hashed,
		EmployeeID:   employeeID,
		Email:        strings.TrimSpace(input.Email),
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
		Role:         models.RoleEmployee,
		Rank:         models.RankStaff,
		DepartmentID: input.DepartmentID,
		IsActive:     true,
		IsStaff:      input.IsStaff,
		IsSuperuser:  input.IsSuperuser,
		DateJoined:   s.now(),
	}
	if input.Role != nil {
		user.Role = *input.Role
	}
	if input.Rank != nil {
		user.Rank = *input.Rank
	}

	if err := s.users.Create(user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return s.find(user.ID)
}

func (s *UserService) allocateEmployeeID() (string, error) {
	for i := 0; i < employeeIDAttempts; i++ {
		candidate, err := utils.GenerateEmployeeID()
		if err != nil {
			return "", fmt.Errorf("failed to generate employee id: %w", err)
		}
		taken, err := s.users.EmployeeIDExists(candidate)
		if err != nil {
			return "", fmt.Errorf("failed to check employee id: %w", err)
		}
		if !taken {
			return candidate, nil
		}
	}
	return "", ErrEmployeeIDExhausted
}

func (s *UserService) ensureDepartment(id uint64) error {
	if _, err := s.departments.FindByID(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrDepartmentNotFound
		}
		return fmt.Errorf("failed to find department: %w", err)
	}
	return nil
}

// UpdateUserInput holds the fields to change. Nil fields are left alone.
type UpdateUserInput struct {
	Email        *string
	FirstName    *string
	LastName     *string
	Password     *string
	Role         *models.Role
	Rank         *models.Rank
	DepartmentID *uint64
	// ClearDepartment detaches the user from any department.
	ClearDepartment bool
	IsActive        *bool
	IsStaff         *bool
}

func (in UpdateUserInput) touchesAdminFields() bool {
	return in.Role != nil || in.Rank != nil || in.DepartmentID != nil ||
		in.ClearDepartment || in.IsActive != nil || in.IsStaff != nil
}

// Update changes a user. Admins may change anything, everyone else only
// their own name, email and password.
func (s *UserService) Update(actor *models.User, id uint64, input UpdateUserInput) (*models.User, error) {
	user, err := s.Get(actor, id)
	if err != nil {
		return nil, err
	}

	admin := policy.CanManageUsers(actor)
	if !admin {
		if actor.ID != user.ID {
			return nil, ErrPermissionDenied
		}
		if input.touchesAdminFields() {
			return nil, ErrSelfUpdateRestricted
		}
	}

	if input.Email != nil {
		user.Email = strings.TrimSpace(*input.Email)
	}
	if input.FirstName != nil {
		user.FirstName = strings.TrimSpace(*input.FirstName)
	}
	if input.LastName != nil {
		user.LastName = strings.TrimSpace(*input.LastName)
	}
	if input.Password != nil {
		if len(*input.Password) < constants.MinPasswordLength {
			return nil, ErrPasswordTooShort
		}
		hashed, err := HashPassword(*input.Password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hashed
	}
	if input.Role != nil {
		user.Role = *input.Role
	}
	if input.Rank != nil {
		user.Rank = *input.Rank
	}
	if input.ClearDepartment {
		user.DepartmentID = nil
	} else if input.DepartmentID != nil {
		if err := s.ensureDepartment(*input.DepartmentID); err != nil {
			return nil, err
		}
		user.DepartmentID = input.DepartmentID
	}
	if input.IsActive != nil {
		user.IsActive = *input.IsActive
	}
	if input.IsStaff != nil {
		user.IsStaff = *input.IsStaff
	}

	user.Department = nil
	if err := s.users.Update(user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	return s.find(user.ID)
}

// Deactivate soft deletes a user. Users are never removed.
func (s *UserService) Deactivate(actor *models.User, id uint64) error {
	if !policy.CanManageUsers(actor) {
		return ErrPermissionDenied
	}
	user, err := s.find(id)
	if err != nil {
		return err
	}
	user.IsActive = false
	user.Department = nil
	if err := s.users.Update(user); err != nil {
		return fmt.Errorf("failed to deactivate user: %w", err)
	}
	return nil
}

// CurrentTasks lists the IN_PROGRESS tasks of a visible user, newest first.
func (s *UserService) CurrentTasks(actor *models.User, id uint64) ([]models.Task, error) {
	user, err := s.Get(actor, id)
	if err != nil {
		return nil, err
	}

	tasks, _, err := s.tasks.List(repository.TaskFilter{
		Scope:      policy.Scope{All: true},
		AssigneeID: &user.ID,
		Statuses:   []models.TaskStatus{models.TaskStatusInProgress},
		Ordering:   "-created_at",
		Preload:    []string{"Assignee", "Reporter", "Department"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list current tasks: %w", err)
	}
	return tasks, nil
}
