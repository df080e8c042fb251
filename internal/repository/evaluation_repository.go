package repository

import (
	"gorm.io/gorm"

	"github.com/yukikurage/workforce-api/internal/database"
	"github.com/yukikurage/workforce-api/internal/models"
)

// GormEvaluationRepository is a GORM implementation of EvaluationRepository
type GormEvaluationRepository struct {
	db *gorm.DB
}

// NewEvaluationRepository creates a new EvaluationRepository
func NewEvaluationRepository(db *gorm.DB) EvaluationRepository {
	return &GormEvaluationRepository{db: db}
}

// Create creates a new evaluation
func (r *GormEvaluationRepository) Create(evaluation *models.TaskEvaluation) error {
	return r.db.Omit("Task", "Evaluator").Create(evaluation).Error
}

// FindByID finds an evaluation by ID
func (r *GormEvaluationRepository) FindByID(id uint64) (*models.TaskEvaluation, error) {
	var evaluation models.TaskEvaluation
	if err := r.db.Preload("Evaluator").First(&evaluation, id).Error; err != nil {
		return nil, err
	}
	return &evaluation, nil
}

// List lists evaluations of visible tasks, newest first
func (r *GormEvaluationRepository) List(filter TaskRecordFilter) ([]models.TaskEvaluation, int64, error) {
	if filter.Scope.Empty() {
		return []models.TaskEvaluation{}, 0, nil
	}

	query := withTaskJoin(r.db.Model(&models.TaskEvaluation{}), "task_evaluations", filter.Scope, filter.TaskID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var evaluations []models.TaskEvaluation
	err := query.
		Select("task_evaluations.*").
		Order("task_evaluations.created_at DESC").
		Order("task_evaluations.id DESC").
		Scopes(database.Paginate(filter.Pagination)).
		Preload("Evaluator").
		Find(&evaluations).Error
	return evaluations, total, err
}

// Update updates an evaluation
func (r *GormEvaluationRepository) Update(evaluation *models.TaskEvaluation) error {
	return r.db.Omit("Task", "Evaluator").Save(evaluation).Error
}

// Delete deletes an evaluation
func (r *GormEvaluationRepository) Delete(id uint64) error {
	return r.db.Delete(&models.TaskEvaluation{}, id).Error
}

// ListForTasks returns every evaluation of the tasks
func (r *GormEvaluationRepository) ListForTasks(taskIDs []uint64) ([]models.TaskEvaluation, error) {
	if len(taskIDs) == 0 {
		return []models.TaskEvaluation{}, nil
	}
	var evaluations []models.TaskEvaluation
	err := r.db.Where("task_id IN ?", taskIDs).Order("created_at").Find(&evaluations).Error
	return evaluations, err
}
