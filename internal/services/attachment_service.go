package services

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/yukikurage/workforce-api/internal/models"
	"github.com/yukikurage/workforce-api/internal/policy"
	"github.com/yukikurage/workforce-api/internal/repository"
	"github.com/yukikurage/workforce-api/internal/storage"
	"github.com/yukikurage/workforce-api/internal/utils"
)

var (
	ErrAttachmentNotFound = errors.New("attachment not found")
	ErrFileTooLarge       = errors.New("file exceeds the upload size limit")
	ErrEmptyFile          = errors.New("file is empty")
)

// AttachmentService stores files uploaded to tasks.
type AttachmentService struct {
	repos    *repository.Repositories
	scopes   *ScopeResolver
	files    storage.FileStorage
	maxBytes int64
	log      *zap.Logger
}

// NewAttachmentService creates a new AttachmentService. Uploads larger than
// maxBytes are rejected; zero disables the limit.
func NewAttachmentService(repos *repository.Repositories, scopes *ScopeResolver, files storage.FileStorage, maxBytes int64, log *zap.Logger) *AttachmentService {
	return &AttachmentService{
		repos:    repos,
		scopes:   scopes,
		files:    files,
		maxBytes: maxBytes,
		log:      log,
	}
}

func (s *AttachmentService) List(actor *models.User, taskID *uint64, pagination utils.PaginationParams) ([]models.TaskAttachment, int64, error) {
	scope, err := s.scopes.Scope(actor)
	if err != nil {
		return nil, 0, err
	}
	attachments, total, err := s.repos.Attachments.List(repository.TaskRecordFilter{
		Scope:      scope,
		TaskID:     taskID,
		Pagination: pagination,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list attachments: %w", err)
	}
	return attachments, total, nil
}

// Get retrieves an attachment of a visible task.
func (s *AttachmentService) Get(actor *models.User, id uint64) (*models.TaskAttachment, error) {
	attachment, err := s.repos.Attachments.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAttachmentNotFound
		}
		return nil, fmt.Errorf("failed to find attachment: %w", err)
	}
	scope, err := s.scopes.Scope(actor)
	if err != nil {
		return nil, err
	}
	if _, err := loadVisibleTask(s.repos, scope, attachment.TaskID); err != nil {
		if errors.Is(err, ErrTaskNotFound) {
			return nil, ErrAttachmentNotFound
		}
		return nil, err
	}
	return attachment, nil
}

// UploadInput describes one uploaded file.
type UploadInput struct {
	TaskID      uint64
	Filename    string
	ContentType string
	Size        int64
	Content     io.Reader
}

// Upload stores the file and records it on the task.
func (s *AttachmentService) Upload(actor *models.User, input UploadInput) (*models.TaskAttachment, error) {
	if input.Size == 0 {
		return nil, ErrEmptyFile
	}
	if s.maxBytes > 0 && input.Size > s.maxBytes {
		return nil, ErrFileTooLarge
	}
	scope, err := s.scopes.Scope(actor)
	if err != nil {
		return nil, err
	}
	if _, err := loadVisibleTask(s.repos, scope, input.TaskID); err != nil {
		return nil, err
	}

	content := input.Content
	if s.maxBytes > 0 {
		content = io.LimitReader(content, s.maxBytes+1)
	}
	key, size, err := s.files.Save(content, input.Filename)
	if err != nil {
		return nil, fmt.Errorf("failed to store file: %w", err)
	}
	if s.maxBytes > 0 && size > s.maxBytes {
		removeFiles(s.files, s.log, []string{key})
		return nil, ErrFileTooLarge
	}

	attachment := &models.TaskAttachment{
		TaskID:       input.TaskID,
		File:         key,
		Filename:     filepath.Base(input.Filename),
		ContentType:  input.ContentType,
		Size:         size,
		UploadedByID: actor.ID,
	}
	if err := s.repos.Attachments.Create(attachment); err != nil {
		removeFiles(s.files, s.log, []string{key})
		return nil, fmt.Errorf("failed to create attachment: %w", err)
	}

	return s.Get(actor, attachment.ID)
}

// Open returns the stored file of a visible attachment. The caller closes it.
func (s *AttachmentService) Open(actor *models.User, id uint64) (*models.TaskAttachment, io.ReadSeekCloser, os.FileInfo, error) {
	attachment, err := s.Get(actor, id)
	if err != nil {
		return nil, nil, nil, err
	}
	file, info, err := s.files.Open(attachment.File)
	if err != nil {
		if errors.Is(err, storage.ErrFileNotFound) || errors.Is(err, storage.ErrInvalidKey) {
			return nil, nil, nil, ErrAttachmentNotFound
		}
		return nil, nil, nil, fmt.Errorf("failed to open attachment: %w", err)
	}
	return attachment, file, info, nil
}

// Delete removes an attachment uploaded by actor together with its file.
// Admins may remove any attachment.
func (s *AttachmentService) Delete(actor *models.User, id uint64) error {
	attachment, err := s.Get(actor, id)
	if err != nil {
		return err
	}
	if !policy.CanModifyOwned(actor, attachment.UploadedByID) {
		return ErrPermissionDenied
	}
	if err := s.repos.Attachments.Delete(attachment.ID); err != nil {
		return fmt.Errorf("failed to delete attachment: %w", err)
	}
	removeFiles(s.files, s.log, []string{attachment.File})
	return nil
}
