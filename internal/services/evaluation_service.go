package services

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/yukikurage/workforce-api/internal/constants"
	"github.com/yukikurage/workforce-api/internal/models"
	"github.com/yukikurage/workforce-api/internal/policy"
	"github.com/yukikurage/workforce-api/internal/repository"
	"github.com/yukikurage/workforce-api/internal/utils"
)

var (
	ErrEvaluationNotFound = errors.New("evaluation not found")
	ErrTaskNotDone        = errors.New("only completed tasks can be evaluated")
	ErrInvalidScore       = errors.New("performance score must be between 1 and 5")
)

// EvaluationService manages performance evaluations of finished tasks.
type EvaluationService struct {
	repos  *repository.Repositories
	scopes *ScopeResolver
	log    *zap.Logger
	now    Clock
}

// NewEvaluationService creates a new EvaluationService.
func NewEvaluationService(repos *repository.Repositories, scopes *ScopeResolver, log *zap.Logger) *EvaluationService {
	return &EvaluationService{repos: repos, scopes: scopes, log: log, now: systemClock}
}

func (s *EvaluationService) List(actor *models.User, taskID *uint64, pagination utils.PaginationParams) ([]models.TaskEvaluation, int64, error) {
	scope, err := s.scopes.Scope(actor)
	if err != nil {
		return nil, 0, err
	}
	evaluations, total, err := s.repos.Evaluations.List(repository.TaskRecordFilter{
		Scope:      scope,
		TaskID:     taskID,
		Pagination: pagination,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list evaluations: %w", err)
	}
	return evaluations, total, nil
}

func (s *EvaluationService) Get(actor *models.User, id uint64) (*models.TaskEvaluation, error) {
	evaluation, err := s.repos.Evaluations.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEvaluationNotFound
		}
		return nil, fmt.Errorf("failed to find evaluation: %w", err)
	}
	scope, err := s.scopes.Scope(actor)
	if err != nil {
		return nil, err
	}
	if _, err := loadVisibleTask(s.repos, scope, evaluation.TaskID); err != nil {
		if errors.Is(err, ErrTaskNotFound) {
			return nil, ErrEvaluationNotFound
		}
		return nil, err
	}
	return evaluation, nil
}

// EvaluationInput carries the evaluation fields. A nil difficulty on create
// copies the task's difficulty.
type EvaluationInput struct {
	Difficulty       *models.TaskDifficulty
	PerformanceScore *int
	Feedback         *string
}

func validScore(score int) bool {
	return score >= constants.MinScore && score <= constants.MaxScore
}

// Create evaluates a completed task and tells its assignee.
func (s *EvaluationService) Create(actor *models.User, taskID uint64, input EvaluationInput) (*models.TaskEvaluation, error) {
	if input.PerformanceScore == nil || !validScore(*input.PerformanceScore) {
		return nil, ErrInvalidScore
	}
	scope, err := s.scopes.Scope(actor)
	if err != nil {
		return nil, err
	}

	evaluation := &models.TaskEvaluation{
		TaskID:           taskID,
		EvaluatorID:      actor.ID,
		PerformanceScore: *input.PerformanceScore,
	}
	if input.Feedback != nil {
		evaluation.Feedback = strings.TrimSpace(*input.Feedback)
	}

	batch := newNotificationBatch(s.now())
	err = s.repos.Transaction(func(tx *repository.Repositories) error {
		task, err := loadVisibleTask(tx, scope, taskID, "Department")
		if err != nil {
			return err
		}
		if !policy.CanEvaluateTask(actor, task) {
			return ErrPermissionDenied
		}
		if task.Status != models.TaskStatusDone {
			return ErrTaskNotDone
		}

		evaluation.Difficulty = task.Difficulty
		if input.Difficulty != nil {
			evaluation.Difficulty = *input.Difficulty
		}
		if err := tx.Evaluations.Create(evaluation); err != nil {
			return fmt.Errorf("failed to create evaluation: %w", err)
		}

		if task.AssigneeID != actor.ID {
			batch.add(task.AssigneeID, models.NotificationTaskReviewCompleted, task.ID,
				fmt.Sprintf("작업 평가가 완료되었습니다: %s", task.Title),
				models.NotificationPriorityMedium, nil)
		}
		return batch.flush(tx)
	})
	if err != nil {
		return nil, err
	}
	batch.record(s.log, taskID)

	return s.Get(actor, evaluation.ID)
}

// Update changes an evaluation written by actor. Admins may change any.
func (s *EvaluationService) Update(actor *models.User, id uint64, input EvaluationInput) (*models.TaskEvaluation, error) {
	evaluation, err := s.Get(actor, id)
	if err != nil {
		return nil, err
	}
	if !policy.CanManageEvaluation(actor, evaluation) {
		return nil, ErrPermissionDenied
	}

	if input.PerformanceScore != nil {
		if !validScore(*input.PerformanceScore) {
			return nil, ErrInvalidScore
		}
		evaluation.PerformanceScore = *input.PerformanceScore
	}
	if input.Difficulty != nil {
		evaluation.Difficulty = *input.Difficulty
	}
	if input.Feedback != nil {
		evaluation.Feedback = strings.TrimSpace(*input.Feedback)
	}

	if err := s.repos.Evaluations.Update(evaluation); err != nil {
		return nil, fmt.Errorf("failed to update evaluation: %w", err)
	}
	return evaluation, nil
}

func (s *EvaluationService) Delete(actor *models.User, id uint64) error {
	evaluation, err := s.Get(actor, id)
	if err != nil {
		return err
	}
	if !policy.CanManageEvaluation(actor, evaluation) {
		return ErrPermissionDenied
	}
	if err := s.repos.Evaluations.Delete(evaluation.ID); err != nil {
		return fmt.Errorf("failed to delete evaluation: %w", err)
	}
	return nil
}
