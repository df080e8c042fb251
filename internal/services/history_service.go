package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/yukikurage/workforce-api/internal/models"
	"github.com/yukikurage/workforce-api/internal/repository"
	"github.com/yukikurage/workforce-api/internal/utils"
)

var ErrHistoryNotFound = errors.New("task history not found")

// HistoryService reads the status history of tasks. Rows are only written by
// TaskService.Update.
type HistoryService struct {
	repos  *repository.Repositories
	scopes *ScopeResolver
}

// NewHistoryService creates a new HistoryService.
func NewHistoryService(repos *repository.Repositories, scopes *ScopeResolver) *HistoryService {
	return &HistoryService{repos: repos, scopes: scopes}
}

func (s *HistoryService) List(actor *models.User, taskID *uint64, pagination utils.PaginationParams) ([]models.TaskHistory, int64, error) {
	scope, err := s.scopes.Scope(actor)
	if err != nil {
		return nil, 0, err
	}
	histories, total, err := s.repos.Histories.List(repository.TaskRecordFilter{
		Scope:      scope,
		TaskID:     taskID,
		Pagination: pagination,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list task history: %w", err)
	}
	return histories, total, nil
}

func (s *HistoryService) Get(actor *models.User, id uint64) (*models.TaskHistory, error) {
	history, err := s.repos.Histories.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrHistoryNotFound
		}
		return nil, fmt.Errorf("failed to find task history: %w", err)
	}
	scope, err := s.scopes.Scope(actor)
	if err != nil {
		return nil, err
	}
	if _, err := loadVisibleTask(s.repos, scope, history.TaskID); err != nil {
		if errors.Is(err, ErrTaskNotFound) {
			return nil, ErrHistoryNotFound
		}
		return nil, err
	}
	return history, nil
}
