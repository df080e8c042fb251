package repository

import (
	"gorm.io/gorm"

	"github.com/yukikurage/workforce-api/internal/database"
	"github.com/yukikurage/workforce-api/internal/models"
	"github.com/yukikurage/workforce-api/internal/utils"
)

// GormReportTemplateRepository is a GORM implementation of ReportTemplateRepository
type GormReportTemplateRepository struct {
	db *gorm.DB
}

// NewReportTemplateRepository creates a new ReportTemplateRepository
func NewReportTemplateRepository(db *gorm.DB) ReportTemplateRepository {
	return &GormReportTemplateRepository{db: db}
}

// Create creates a new report template
func (r *GormReportTemplateRepository) Create(template *models.ReportTemplate) error {
	return r.db.Omit("CreatedBy").Create(template).Error
}

// FindByID finds a report template by ID
func (r *GormReportTemplateRepository) FindByID(id uint64) (*models.ReportTemplate, error) {
	var template models.ReportTemplate
	if err := r.db.Preload("CreatedBy").First(&template, id).Error; err != nil {
		return nil, err
	}
	return &template, nil
}

// List lists templates, restricted to one owner when ownerID is set
func (r *GormReportTemplateRepository) List(ownerID *uint64, pagination utils.PaginationParams) ([]models.ReportTemplate, int64, error) {
	query := r.db.Model(&models.ReportTemplate{})
	if ownerID != nil {
		query = query.Where("created_by_id = ?", *ownerID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var templates []models.ReportTemplate
	err := query.
		Order("updated_at DESC").
		Order("id DESC").
		Scopes(database.Paginate(pagination)).
		Preload("CreatedBy").
		Find(&templates).Error
	return templates, total, err
}

// Update updates a report template
func (r *GormReportTemplateRepository) Update(template *models.ReportTemplate) error {
	return r.db.Omit("CreatedBy").Save(template).Error
}

// Delete deletes a report template
func (r *GormReportTemplateRepository) Delete(id uint64) error {
	return r.db.Delete(&models.ReportTemplate{}, id).Error
}
