package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/yukikurage/workforce-api/internal/models"
	"github.com/yukikurage/workforce-api/internal/policy"
	"github.com/yukikurage/workforce-api/internal/repository"
	"github.com/yukikurage/workforce-api/internal/utils"
)

var (
	ErrReportTemplateNotFound = errors.New("report template not found")
	ErrInvalidTemplateContent = errors.New("template content must be a JSON document")
	ErrInvalidTemplateName    = errors.New("template name is required")
)

// ReportTemplateService stores saved report layouts. Users manage their own
// templates and admins manage all of them.
type ReportTemplateService struct {
	templates repository.ReportTemplateRepository
}

// NewReportTemplateService creates a new ReportTemplateService.
func NewReportTemplateService(templates repository.ReportTemplateRepository) *ReportTemplateService {
	return &ReportTemplateService{templates: templates}
}

func (s *ReportTemplateService) List(actor *models.User, pagination utils.PaginationParams) ([]models.ReportTemplate, int64, error) {
	var owner *uint64
	if !actor.IsAdmin() {
		owner = &actor.ID
	}
	templates, total, err := s.templates.List(owner, pagination)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list report templates: %w", err)
	}
	return templates, total, nil
}

// Get retrieves a template. Templates of other users are reported as missing.
func (s *ReportTemplateService) Get(actor *models.User, id uint64) (*models.ReportTemplate, error) {
	template, err := s.templates.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReportTemplateNotFound
		}
		return nil, fmt.Errorf("failed to find report template: %w", err)
	}
	if !policy.CanModifyOwned(actor, template.CreatedByID) {
		return nil, ErrReportTemplateNotFound
	}
	return template, nil
}

// ReportTemplateInput holds the template fields. Nil fields keep their value on update.
type ReportTemplateInput struct {
	Name    *string
	Content json.RawMessage
}

// validContent accepts JSON objects and arrays.
func validContent(content json.RawMessage) bool {
	trimmed := strings.TrimSpace(string(content))
	if trimmed == "" || !json.Valid([]byte(trimmed)) {
		return false
	}
	return trimmed[0] == '{' || trimmed[0] == '['
}

func (s *ReportTemplateService) Create(actor *models.User, input ReportTemplateInput) (*models.ReportTemplate, error) {
	if input.Name == nil || strings.TrimSpace(*input.Name) == "" {
		return nil, ErrInvalidTemplateName
	}
	if !validContent(input.Content) {
		return nil, ErrInvalidTemplateContent
	}

	template := &models.ReportTemplate{
		Name:        strings.TrimSpace(*input.Name),
		Content:     strings.TrimSpace(string(input.Content)),
		CreatedByID: actor.ID,
	}
	if err := s.templates.Create(template); err != nil {
		return nil, fmt.Errorf("failed to create report template: %w", err)
	}
	return s.Get(actor, template.ID)
}

func (s *ReportTemplateService) Update(actor *models.User, id uint64, input ReportTemplateInput) (*models.ReportTemplate, error) {
	template, err := s.Get(actor, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, ErrInvalidTemplateName
		}
		template.Name = name
	}
	if input.Content != nil {
		if !validContent(input.Content) {
			return nil, ErrInvalidTemplateContent
		}
		template.Content = strings.TrimSpace(string(input.Content))
	}

	if err := s.templates.Update(template); err != nil {
		return nil, fmt.Errorf("failed to update report template: %w", err)
	}
	return template, nil
}

func (s *ReportTemplateService) Delete(actor *models.User, id uint64) error {
	template, err := s.Get(actor, id)
	if err != nil {
		return err
	}
	if err := s.templates.Delete(template.ID); err != nil {
		return fmt.Errorf("failed to delete report template: %w", err)
	}
	return nil
}
