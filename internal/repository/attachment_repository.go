package repository

import (
	"gorm.io/gorm"

	"github.com/yukikurage/workforce-api/internal/database"
	"github.com/yukikurage/workforce-api/internal/models"
)

// GormAttachmentRepository is a GORM implementation of AttachmentRepository
type GormAttachmentRepository struct {
	db *gorm.DB
}

// NewAttachmentRepository creates a new AttachmentRepository
func NewAttachmentRepository(db *gorm.DB) AttachmentRepository {
	return &GormAttachmentRepository{db: db}
}

// Create creates a new attachment record
func (r *GormAttachmentRepository) Create(attachment *models.TaskAttachment) error {
	return r.db.Omit("UploadedBy").Create(attachment).Error
}

// FindByID finds an attachment by ID
func (r *GormAttachmentRepository) FindByID(id uint64) (*models.TaskAttachment, error) {
	var attachment models.TaskAttachment
	if err := r.db.Preload("UploadedBy").First(&attachment, id).Error; err != nil {
		return nil, err
	}
	return &attachment, nil
}

// List lists attachments of visible tasks, newest first
func (r *GormAttachmentRepository) List(filter TaskRecordFilter) ([]models.TaskAttachment, int64, error) {
	if filter.Scope.Empty() {
		return []models.TaskAttachment{}, 0, nil
	}

	query := withTaskJoin(r.db.Model(&models.TaskAttachment{}), "task_attachments", filter.Scope, filter.TaskID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var attachments []models.TaskAttachment
	err := query.
		Select("task_attachments.*").
		Order("task_attachments.created_at DESC").
		Order("task_attachments.id DESC").
		Scopes(database.Paginate(filter.Pagination)).
		Preload("UploadedBy").
		Find(&attachments).Error
	return attachments, total, err
}

// Delete deletes an attachment record
func (r *GormAttachmentRepository) Delete(id uint64) error {
	return r.db.Delete(&models.TaskAttachment{}, id).Error
}

// FilesForTasks returns the storage keys of every attachment of the tasks
func (r *GormAttachmentRepository) FilesForTasks(taskIDs []uint64) ([]string, error) {
	if len(taskIDs) == 0 {
		return []string{}, nil
	}
	var files []string
	err := r.db.Model(&models.TaskAttachment{}).Where("task_id IN ?", taskIDs).Pluck("file", &files).Error
	return files, err
}
