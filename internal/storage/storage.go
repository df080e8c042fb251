// Package storage keeps uploaded attachment files on the local disk.
package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrFileNotFound = errors.New("storage: file not found")
	ErrInvalidKey   = errors.New("storage: invalid key")
)

// FileStorage stores and retrieves attachment payloads by key.
type FileStorage interface {
	Save(r io.Reader, filename string) (key string, size int64, err error)
	Open(key string) (io.ReadSeekCloser, os.FileInfo, error)
	Remove(key string) error
}

// LocalStorage writes files below a root directory as
// task_attachments/YYYY/MM/DD/<uuid><ext>.
type LocalStorage struct {
	root string
	now  func() time.Time
}

// NewLocalStorage creates the root directory if needed.
func NewLocalStorage(root string) (*LocalStorage, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &LocalStorage{root: root, now: time.Now}, nil
}

func (s *LocalStorage) Save(r io.Reader, filename string) (string, int64, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	key := path.Join("task_attachments", s.now().UTC().Format("2006/01/02"), uuid.NewString()+ext)

	full, err := s.resolve(key)
	if err != nil {
		return "", 0, err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", 0, fmt.Errorf("failed to create directory: %w", err)
	}

	f, err := os.Create(full)
	if err != nil {
		return "", 0, fmt.Errorf("failed to create file: %w", err)
	}
	size, err := io.Copy(f, r)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(full)
		return "", 0, fmt.Errorf("failed to write file: %w", err)
	}

	return key, size, nil
}

func (s *LocalStorage) Open(key string) (io.ReadSeekCloser, os.FileInfo, error) {
	full, err := s.resolve(key)
	if err != nil {
		return nil, nil, err
	}
	f, err := os.Open(full)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil, ErrFileNotFound
		}
		return nil, nil, fmt.Errorf("failed to open file: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("failed to stat file: %w", err)
	}
	return f, info, nil
}

// Remove deletes the file. A missing file is not an error.
func (s *LocalStorage) Remove(key string) error {
	full, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove file: %w", err)
	}
	return nil
}

// resolve maps a key to a path and rejects keys escaping the root.
func (s *LocalStorage) resolve(key string) (string, error) {
	cleaned := path.Clean("/" + key)
	if key == "" || cleaned == "/" || cleaned[1:] != key {
		return "", ErrInvalidKey
	}
	return filepath.Join(s.root, filepath.FromSlash(key)), nil
}
