package services

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/yukikurage/workforce-api/internal/models"
	"github.com/yukikurage/workforce-api/internal/policy"
	"github.com/yukikurage/workforce-api/internal/repository"
	"github.com/yukikurage/workforce-api/internal/utils"
)

var (
	ErrTimeLogNotFound = errors.New("time log not found")
	ErrInvalidTimeLog  = errors.New("end time must not be before start time")
)

// TimeLogService records work sessions on tasks.
type TimeLogService struct {
	repos  *repository.Repositories
	scopes *ScopeResolver
	now    Clock
}

// NewTimeLogService creates a new TimeLogService.
func NewTimeLogService(repos *repository.Repositories, scopes *ScopeResolver) *TimeLogService {
	return &TimeLogService{repos: repos, scopes: scopes, now: systemClock}
}

func (s *TimeLogService) List(actor *models.User, taskID *uint64, pagination utils.PaginationParams) ([]models.TaskTimeLog, int64, error) {
	scope, err := s.scopes.Scope(actor)
	if err != nil {
		return nil, 0, err
	}
	logs, total, err := s.repos.TimeLogs.List(repository.TaskRecordFilter{
		Scope:      scope,
		TaskID:     taskID,
		Pagination: pagination,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list time logs: %w", err)
	}
	return logs, total, nil
}

func (s *TimeLogService) Get(actor *models.User, id uint64) (*models.TaskTimeLog, error) {
	log, err := s.repos.TimeLogs.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTimeLogNotFound
		}
		return nil, fmt.Errorf("failed to find time log: %w", err)
	}
	scope, err := s.scopes.Scope(actor)
	if err != nil {
		return nil, err
	}
	if _, err := loadVisibleTask(s.repos, scope, log.TaskID); err != nil {
		if errors.Is(err, ErrTaskNotFound) {
			return nil, ErrTimeLogNotFound
		}
		return nil, err
	}
	return log, nil
}

// TimeLogInput opens or changes a work session. A nil start means now.
type TimeLogInput struct {
	StartTime *time.Time
	EndTime   *time.Time
}

// Create starts a work session of actor on a visible task.
func (s *TimeLogService) Create(actor *models.User, taskID uint64, input TimeLogInput) (*models.TaskTimeLog, error) {
	scope, err := s.scopes.Scope(actor)
	if err != nil {
		return nil, err
	}
	if _, err := loadVisibleTask(s.repos, scope, taskID); err != nil {
		return nil, err
	}

	log := &models.TaskTimeLog{
		TaskID:     taskID,
		LoggedByID: actor.ID,
		StartTime:  s.now(),
		EndTime:    input.EndTime,
	}
	if input.StartTime != nil {
		log.StartTime = *input.StartTime
	}
	if log.EndTime != nil && log.EndTime.Before(log.StartTime) {
		return nil, ErrInvalidTimeLog
	}

	if err := s.repos.TimeLogs.Create(log); err != nil {
		return nil, fmt.Errorf("failed to create time log: %w", err)
	}
	return s.Get(actor, log.ID)
}

// Update changes the bounds of a session logged by actor. Admins may change
// any session.
func (s *TimeLogService) Update(actor *models.User, id uint64, input TimeLogInput) (*models.TaskTimeLog, error) {
	log, err := s.Get(actor, id)
	if err != nil {
		return nil, err
	}
	if !policy.CanModifyOwned(actor, log.LoggedByID) {
		return nil, ErrPermissionDenied
	}

	if input.StartTime != nil {
		log.StartTime = *input.StartTime
	}
	if input.EndTime != nil {
		log.EndTime = input.EndTime
	}
	if log.EndTime != nil && log.EndTime.Before(log.StartTime) {
		return nil, ErrInvalidTimeLog
	}

	if err := s.repos.TimeLogs.Update(log); err != nil {
		return nil, fmt.Errorf("failed to update time log: %w", err)
	}
	return log, nil
}

func (s *TimeLogService) Delete(actor *models.User, id uint64) error {
	log, err := s.Get(actor, id)
	if err != nil {
		return err
	}
	if !policy.CanModifyOwned(actor, log.LoggedByID) {
		return ErrPermissionDenied
	}
	if err := s.repos.TimeLogs.Delete(log.ID); err != nil {
		return fmt.Errorf("failed to delete time log: %w", err)
	}
	return nil
}
