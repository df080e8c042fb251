package repository

import (
	"gorm.io/gorm"

	"github.com/yukikurage/workforce-api/internal/database"
	"github.com/yukikurage/workforce-api/internal/models"
)

// GormTimeLogRepository is a GORM implementation of TimeLogRepository
type GormTimeLogRepository struct {
	db *gorm.DB
}

// NewTimeLogRepository creates a new TimeLogRepository
func NewTimeLogRepository(db *gorm.DB) TimeLogRepository {
	return &GormTimeLogRepository{db: db}
}

// Create creates a new time log
func (r *GormTimeLogRepository) Create(log *models.TaskTimeLog) error {
	return r.db.Omit("LoggedBy").Create(log).Error
}

// FindByID finds a time log by ID
func (r *GormTimeLogRepository) FindByID(id uint64) (*models.TaskTimeLog, error) {
	var log models.TaskTimeLog
	if err := r.db.Preload("LoggedBy").First(&log, id).Error; err != nil {
		return nil, err
	}
	return &log, nil
}

// List lists time logs of visible tasks, latest session first
func (r *GormTimeLogRepository) List(filter TaskRecordFilter) ([]models.TaskTimeLog, int64, error) {
	if filter.Scope.Empty() {
		return []models.TaskTimeLog{}, 0, nil
	}

	query := withTaskJoin(r.db.Model(&models.TaskTimeLog{}), "task_time_logs", filter.Scope, filter.TaskID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var logs []models.TaskTimeLog
	err := query.
		Select("task_time_logs.*").
		Order("task_time_logs.start_time DESC").
		Order("task_time_logs.id DESC").
		Scopes(database.Paginate(filter.Pagination)).
		Preload("LoggedBy").
		Find(&logs).Error
	return logs, total, err
}

// Update updates a time log
func (r *GormTimeLogRepository) Update(log *models.TaskTimeLog) error {
	return r.db.Omit("LoggedBy").Save(log).Error
}

// Delete deletes a time log
func (r *GormTimeLogRepository) Delete(id uint64) error {
	return r.db.Delete(&models.TaskTimeLog{}, id).Error
}

// ListForTasks returns every closed time log of the tasks
func (r *GormTimeLogRepository) ListForTasks(taskIDs []uint64) ([]models.TaskTimeLog, error) {
	if len(taskIDs) == 0 {
		return []models.TaskTimeLog{}, nil
	}
	var logs []models.TaskTimeLog
	err := r.db.Where("task_id IN ? AND end_time IS NOT NULL", taskIDs).Order("start_time").Find(&logs).Error
	return logs, err
}
