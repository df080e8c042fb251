package services

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/yukikurage/workforce-api/internal/models"
	"github.com/yukikurage/workforce-api/internal/policy"
	"github.com/yukikurage/workforce-api/internal/repository"
	"github.com/yukikurage/workforce-api/internal/storage"
	"github.com/yukikurage/workforce-api/internal/utils"
)

var (
	ErrDepartmentCodeTaken     = errors.New("department code already exists")
	ErrParentNotHeadquarters   = errors.New("parent department must be a headquarters")
	ErrDepartmentHasChildren   = errors.New("department with teams cannot become a team")
	ErrInvalidDepartmentFields = errors.New("department name and code are required")
)

// DepartmentService manages the headquarters and team tree.
type DepartmentService struct {
	departments repository.DepartmentRepository
	tasks       repository.TaskRepository
	attachments repository.AttachmentRepository
	files       storage.FileStorage
	log         *zap.Logger
}

// NewDepartmentService creates a new DepartmentService.
func NewDepartmentService(repos *repository.Repositories, files storage.FileStorage, log *zap.Logger) *DepartmentService {
	return &DepartmentService{
		departments: repos.Departments,
		tasks:       repos.Tasks,
		attachments: repos.Attachments,
		files:       files,
		log:         log,
	}
}

// ListDepartmentsInput filters the department listing.
type ListDepartmentsInput struct {
	ParentID   *uint64
	RootsOnly  bool
	Search     string
	Pagination utils.PaginationParams
}

// List lists departments, headquarters first.
func (s *DepartmentService) List(input ListDepartmentsInput) ([]models.Department, int64, error) {
	departments, total, err := s.departments.List(repository.DepartmentFilter{
		ParentID:   input.ParentID,
		RootsOnly:  input.RootsOnly,
		Search:     strings.TrimSpace(input.Search),
		Pagination: input.Pagination,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list departments: %w", err)
	}
	return departments, total, nil
}

// Get retrieves a department with its parent.
func (s *DepartmentService) Get(id uint64) (*models.Department, error) {
	department, err := s.departments.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDepartmentNotFound
		}
		return nil, fmt.Errorf("failed to find department: %w", err)
	}
	return department, nil
}

// Children lists the teams under a department.
func (s *DepartmentService) Children(id uint64) ([]models.Department, error) {
	if _, err := s.Get(id); err != nil {
		return nil, err
	}
	children, _, err := s.departments.List(repository.DepartmentFilter{ParentID: &id})
	if err != nil {
		return nil, fmt.Errorf("failed to list child departments: %w", err)
	}
	return children, nil
}

// DepartmentInput holds the writable department fields.
type DepartmentInput struct {
	Name     string
	Code     string
	ParentID *uint64
}

// Create adds a headquarters or a team.
func (s *DepartmentService) Create(actor *models.User, input DepartmentInput) (*models.Department, error) {
	if !policy.CanManageDepartments(actor) {
		return nil, ErrPermissionDenied
	}

	department := &models.Department{
		Name:     strings.TrimSpace(input.Name),
		Code:     strings.TrimSpace(input.Code),
		ParentID: input.ParentID,
	}
	if err := s.validate(department); err != nil {
		return nil, err
	}

	if err := s.departments.Create(department); err != nil {
		return nil, fmt.Errorf("failed to create department: %w", err)
	}
	return s.Get(department.ID)
}

// Update replaces the department fields.
func (s *DepartmentService) Update(actor *models.User, id uint64, input DepartmentInput) (*models.Department, error) {
	if !policy.CanManageDepartments(actor) {
		return nil, ErrPermissionDenied
	}

	department, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	department.Name = strings.TrimSpace(input.Name)
	department.Code = strings.TrimSpace(input.Code)
	department.ParentID = input.ParentID
	department.Parent = nil

	if err := s.validate(department); err != nil {
		return nil, err
	}
	if department.ParentID != nil {
		children, err := s.departments.ChildIDs(department.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load child departments: %w", err)
		}
		if len(children) > 0 {
			return nil, ErrDepartmentHasChildren
		}
	}

	if err := s.departments.Update(department); err != nil {
		return nil, fmt.Errorf("failed to update department: %w", err)
	}
	return s.Get(department.ID)
}

func (s *DepartmentService) validate(department *models.Department) error {
	if department.Name == "" || department.Code == "" {
		return ErrInvalidDepartmentFields
	}

	existing, err := s.departments.FindByCode(department.Code)
	switch {
	case err == nil && existing.ID != department.ID:
		return ErrDepartmentCodeTaken
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("failed to check department code: %w", err)
	}

	if department.ParentID == nil {
		return nil
	}
	if *department.ParentID == department.ID {
		return ErrParentNotHeadquarters
	}
	parent, err := s.Get(*department.ParentID)
	if err != nil {
		return err
	}
	if !parent.IsHeadquarters() {
		return ErrParentNotHeadquarters
	}
	return nil
}

// Delete removes a department with its teams and their tasks. Members stay
// and lose their department.
func (s *DepartmentService) Delete(actor *models.User, id uint64) error {
	if !policy.CanManageDepartments(actor) {
		return ErrPermissionDenied
	}
	if _, err := s.Get(id); err != nil {
		return err
	}

	children, err := s.departments.ChildIDs(id)
	if err != nil {
		return fmt.Errorf("failed to load child departments: %w", err)
	}
	tasks, _, err := s.tasks.List(repository.TaskFilter{
		Scope:         policy.Scope{All: true},
		DepartmentIDs: append([]uint64{id}, children...),
	})
	if err != nil {
		return fmt.Errorf("failed to list department tasks: %w", err)
	}
	files, err := s.attachments.FilesForTasks(idsOf(tasks))
	if err != nil {
		return fmt.Errorf("failed to list attachment files: %w", err)
	}

	if err := s.departments.Delete(id); err != nil {
		return fmt.Errorf("failed to delete department: %w", err)
	}

	removeFiles(s.files, s.log, files)
	return nil
}

// removeFiles deletes stored attachment files after their rows are gone.
// Failures leave orphaned files behind and are only logged.
func removeFiles(files storage.FileStorage, log *zap.Logger, keys []string) {
	for _, key := range keys {
		if err := files.Remove(key); err != nil {
			log.Error("failed to remove attachment file", zap.String("key", key), zap.Error(err))
		}
	}
}
