package services

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/yukikurage/workforce-api/internal/models"
	"github.com/yukikurage/workforce-api/internal/policy"
	"github.com/yukikurage/workforce-api/internal/repository"
	"github.com/yukikurage/workforce-api/internal/utils"
)

var (
	ErrCommentNotFound = errors.New("comment not found")
	ErrEmptyComment    = errors.New("comment content is required")
)

// mentionPattern matches @username tokens using the username alphabet.
var mentionPattern = regexp.MustCompile(`@([\w.+-]+)`)

// CommentService manages task comments and the notifications they send.
type CommentService struct {
	repos  *repository.Repositories
	scopes *ScopeResolver
	log    *zap.Logger
	now    Clock
}

// NewCommentService creates a new CommentService.
func NewCommentService(repos *repository.Repositories, scopes *ScopeResolver, log *zap.Logger) *CommentService {
	return &CommentService{repos: repos, scopes: scopes, log: log, now: systemClock}
}

// List lists comments on visible tasks, optionally of one task.
func (s *CommentService) List(actor *models.User, taskID *uint64, pagination utils.PaginationParams) ([]models.TaskComment, int64, error) {
	scope, err := s.scopes.Scope(actor)
	if err != nil {
		return nil, 0, err
	}
	comments, total, err := s.repos.Comments.List(repository.TaskRecordFilter{
		Scope:      scope,
		TaskID:     taskID,
		Pagination: pagination,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list comments: %w", err)
	}
	return comments, total, nil
}

// Get retrieves a comment on a visible task.
func (s *CommentService) Get(actor *models.User, id uint64) (*models.TaskComment, error) {
	comment, err := s.repos.Comments.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCommentNotFound
		}
		return nil, fmt.Errorf("failed to find comment: %w", err)
	}
	scope, err := s.scopes.Scope(actor)
	if err != nil {
		return nil, err
	}
	if _, err := loadVisibleTask(s.repos, scope, comment.TaskID); err != nil {
		if errors.Is(err, ErrTaskNotFound) {
			return nil, ErrCommentNotFound
		}
		return nil, err
	}
	return comment, nil
}

// Create posts a comment. The assignee hears about it unless they wrote it,
// and every mentioned user other than the author gets a mention.
func (s *CommentService) Create(actor *models.User, taskID uint64, content string) (*models.TaskComment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyComment
	}
	scope, err := s.scopes.Scope(actor)
	if err != nil {
		return nil, err
	}

	comment := &models.TaskComment{TaskID: taskID, AuthorID: actor.ID, Content: content}
	batch := newNotificationBatch(s.now())
	err = s.repos.Transaction(func(tx *repository.Repositories) error {
		task, err := loadVisibleTask(tx, scope, taskID)
		if err != nil {
			return err
		}
		if err := tx.Comments.Create(comment); err != nil {
			return fmt.Errorf("failed to create comment: %w", err)
		}

		if task.AssigneeID != actor.ID {
			batch.add(task.AssigneeID, models.NotificationTaskComment, task.ID,
				fmt.Sprintf("작업에 새로운 코멘트가 작성되었습니다: %s", task.Title),
				models.NotificationPriorityMedium, nil)
		}

		mentioned, err := tx.Users.FindByUsernames(Mentions(content))
		if err != nil {
			return fmt.Errorf("failed to resolve mentions: %w", err)
		}
		for _, user := range mentioned {
			if user.ID == actor.ID {
				continue
			}
			batch.add(user.ID, models.NotificationTaskMention, task.ID,
				fmt.Sprintf("작업 코멘트에서 회원님이 언급되었습니다: %s", task.Title),
				models.NotificationPriorityMedium, nil)
		}

		return batch.flush(tx)
	})
	if err != nil {
		return nil, err
	}
	batch.record(s.log, taskID)

	return s.repos.Comments.FindByID(comment.ID)
}

// Mentions extracts the distinct usernames mentioned in content.
func Mentions(content string) []string {
	matches := mentionPattern.FindAllStringSubmatch(content, -1)
	seen := make(map[string]struct{}, len(matches))
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		name := strings.TrimRight(m[1], ".")
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	return names
}

// Update edits a comment written by actor. Admins may edit any comment.
func (s *CommentService) Update(actor *models.User, id uint64, content string) (*models.TaskComment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyComment
	}
	comment, err := s.Get(actor, id)
	if err != nil {
		return nil, err
	}
	if !policy.CanModifyOwned(actor, comment.AuthorID) {
		return nil, ErrPermissionDenied
	}

	comment.Content = content
	if err := s.repos.Comments.Update(comment); err != nil {
		return nil, fmt.Errorf("failed to update comment: %w", err)
	}
	return comment, nil
}

// Delete removes a comment written by actor. Admins may remove any comment.
func (s *CommentService) Delete(actor *models.User, id uint64) error {
	comment, err := s.Get(actor, id)
	if err != nil {
		return err
	}
	if !policy.CanModifyOwned(actor, comment.AuthorID) {
		return ErrPermissionDenied
	}
	if err := s.repos.Comments.Delete(comment.ID); err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}
	return nil
}
