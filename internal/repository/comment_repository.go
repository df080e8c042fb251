package repository

import (
	"gorm.io/gorm"

	"github.com/yukikurage/workforce-api/internal/database"
	"github.com/yukikurage/workforce-api/internal/models"
)

// GormCommentRepository is a GORM implementation of CommentRepository
type GormCommentRepository struct {
	db *gorm.DB
}

// NewCommentRepository creates a new CommentRepository
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &GormCommentRepository{db: db}
}

// Create creates a new comment
func (r *GormCommentRepository) Create(comment *models.TaskComment) error {
	return r.db.Omit("Author").Create(comment).Error
}

// FindByID finds a comment by ID with its author
func (r *GormCommentRepository) FindByID(id uint64) (*models.TaskComment, error) {
	var comment models.TaskComment
	if err := r.db.Preload("Author").First(&comment, id).Error; err != nil {
		return nil, err
	}
	return &comment, nil
}

// List lists comments of visible tasks, newest first
func (r *GormCommentRepository) List(filter TaskRecordFilter) ([]models.TaskComment, int64, error) {
	if filter.Scope.Empty() {
		return []models.TaskComment{}, 0, nil
	}

	query := withTaskJoin(r.db.Model(&models.TaskComment{}), "task_comments", filter.Scope, filter.TaskID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var comments []models.TaskComment
	err := query.
		Select("task_comments.*").
		Order("task_comments.created_at DESC").
		Order("task_comments.id DESC").
		Scopes(database.Paginate(filter.Pagination)).
		Preload("Author").
		Find(&comments).Error
	return comments, total, err
}

// Update updates a comment
func (r *GormCommentRepository) Update(comment *models.TaskComment) error {
	return r.db.Omit("Author").Save(comment).Error
}

// Delete deletes a comment
func (r *GormCommentRepository) Delete(id uint64) error {
	return r.db.Delete(&models.TaskComment{}, id).Error
}
