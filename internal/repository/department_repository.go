package repository

import (
	"gorm.io/gorm"

	"github.com/yukikurage/workforce-api/internal/database"
	"github.com/yukikurage/workforce-api/internal/models"
)

// GormDepartmentRepository is a GORM implementation of DepartmentRepository
type GormDepartmentRepository struct {
	db *gorm.DB
}

// NewDepartmentRepository creates a new DepartmentRepository
func NewDepartmentRepository(db *gorm.DB) DepartmentRepository {
	return &GormDepartmentRepository{db: db}
}

// Create creates a new department
func (r *GormDepartmentRepository) Create(department *models.Department) error {
	return r.db.Omit("Parent", "Children").Create(department).Error
}

// FindByID finds a department by ID with its parent loaded
func (r *GormDepartmentRepository) FindByID(id uint64) (*models.Department, error) {
	var department models.Department
	if err := r.db.Preload("Parent").First(&department, id).Error; err != nil {
		return nil, err
	}
	return &department, nil
}

// FindByCode finds a department by its unique code
func (r *GormDepartmentRepository) FindByCode(code string) (*models.Department, error) {
	var department models.Department
	if err := r.db.Where("code = ?", code).First(&department).Error; err != nil {
		return nil, err
	}
	return &department, nil
}

// List lists departments, optionally only the children of a parent or only roots
func (r *GormDepartmentRepository) List(filter DepartmentFilter) ([]models.Department, int64, error) {
	query := r.db.Model(&models.Department{})

	if filter.RootsOnly {
		query = query.Where("parent_id IS NULL")
	} else if filter.ParentID != nil {
		query = query.Where("parent_id = ?", *filter.ParentID)
	}
	if filter.Search != "" {
		query = query.Scopes(database.ContainsAny(filter.Search, "departments.name", "departments.code"))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var departments []models.Department
	err := query.
		Order("CASE WHEN parent_id IS NULL THEN 0 ELSE 1 END").
		Order("name").
		Order("id").
		Scopes(database.Paginate(filter.Pagination)).
		Preload("Parent").
		Find(&departments).Error
	if err != nil {
		return nil, 0, err
	}

	return departments, total, nil
}

// ChildIDs returns the IDs of the teams directly under a department
func (r *GormDepartmentRepository) ChildIDs(id uint64) ([]uint64, error) {
	var ids []uint64
	err := r.db.Model(&models.Department{}).Where("parent_id = ?", id).Order("id").Pluck("id", &ids).Error
	return ids, err
}

// Update updates a department
func (r *GormDepartmentRepository) Update(department *models.Department) error {
	return r.db.Omit("Parent", "Children").Save(department).Error
}

// Delete deletes a department and the teams beneath it in a transaction.
// Tasks of the removed departments are deleted with their records and
// members lose their department.
func (r *GormDepartmentRepository) Delete(id uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var childIDs []uint64
		if err := tx.Model(&models.Department{}).Where("parent_id = ?", id).Pluck("id", &childIDs).Error; err != nil {
			return err
		}
		departmentIDs := append([]uint64{id}, childIDs...)

		if err := tx.Model(&models.User{}).
			Where("department_id IN ?", departmentIDs).
			Update("department_id", nil).Error; err != nil {
			return err
		}

		var taskIDs []uint64
		if err := tx.Model(&models.Task{}).Where("department_id IN ?", departmentIDs).Pluck("id", &taskIDs).Error; err != nil {
			return err
		}
		if err := deleteTasks(tx, taskIDs); err != nil {
			return err
		}

		if len(childIDs) > 0 {
			if err := tx.Where("id IN ?", childIDs).Delete(&models.Department{}).Error; err != nil {
				return err
			}
		}

		return tx.Delete(&models.Department{}, id).Error
	})
}
