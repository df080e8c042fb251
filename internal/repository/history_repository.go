package repository

import (
	"gorm.io/gorm"

	"github.com/yukikurage/workforce-api/internal/database"
	"github.com/yukikurage/workforce-api/internal/models"
	"github.com/yukikurage/workforce-api/internal/policy"
)

// GormHistoryRepository is a GORM implementation of HistoryRepository
type GormHistoryRepository struct {
	db *gorm.DB
}

// NewHistoryRepository creates a new HistoryRepository
func NewHistoryRepository(db *gorm.DB) HistoryRepository {
	return &GormHistoryRepository{db: db}
}

// Create appends a history row
func (r *GormHistoryRepository) Create(history *models.TaskHistory) error {
	return r.db.Omit("Task", "ChangedBy").Create(history).Error
}

// FindByID finds a history row by ID
func (r *GormHistoryRepository) FindByID(id uint64) (*models.TaskHistory, error) {
	var history models.TaskHistory
	if err := r.db.Preload("ChangedBy").First(&history, id).Error; err != nil {
		return nil, err
	}
	return &history, nil
}

// List lists history rows of visible tasks, newest first
func (r *GormHistoryRepository) List(filter TaskRecordFilter) ([]models.TaskHistory, int64, error) {
	if filter.Scope.Empty() {
		return []models.TaskHistory{}, 0, nil
	}

	query := withTaskJoin(r.db.Model(&models.TaskHistory{}), "task_histories", filter.Scope, filter.TaskID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var histories []models.TaskHistory
	err := query.
		Select("task_histories.*").
		Order("task_histories.created_at DESC").
		Order("task_histories.id DESC").
		Scopes(database.Paginate(filter.Pagination)).
		Preload("ChangedBy").
		Find(&histories).Error
	return histories, total, err
}

// Recent lists the newest rows inside the scope or written by the actor
func (r *GormHistoryRepository) Recent(scope policy.Scope, actorID uint64, limit int) ([]models.TaskHistory, error) {
	query := r.db.Model(&models.TaskHistory{}).Joins("JOIN tasks ON tasks.id = task_histories.task_id")

	if !scope.All {
		cond, args := taskScopeCondition(scope)
		args = append(args, actorID)
		query = query.Where("("+cond+") OR task_histories.changed_by_id = ?", args...)
	}

	var histories []models.TaskHistory
	err := query.
		Select("task_histories.*").
		Order("task_histories.created_at DESC").
		Order("task_histories.id DESC").
		Limit(limit).
		Preload("Task").
		Preload("ChangedBy").
		Find(&histories).Error
	return histories, err
}

// ReworkedTaskIDs returns which of the tasks were moved back out of DONE
func (r *GormHistoryRepository) ReworkedTaskIDs(taskIDs []uint64) ([]uint64, error) {
	if len(taskIDs) == 0 {
		return []uint64{}, nil
	}
	var ids []uint64
	err := r.db.Model(&models.TaskHistory{}).
		Distinct("task_id").
		Where("task_id IN ?", taskIDs).
		Where("previous_status = ? AND new_status IN ?", models.TaskStatusDone,
			[]models.TaskStatus{models.TaskStatusInProgress, models.TaskStatusReview}).
		Pluck("task_id", &ids).Error
	return ids, err
}
