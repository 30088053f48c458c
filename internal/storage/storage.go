package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/frahmantamala/leave-management/internal"
)

// Storage persists leave attachments. The stored name returned by Store
// is opaque; callers keep it on the application record.
type Storage interface {
	Store(filename string, r io.Reader) (string, error)
	Retrieve(storedName string) (io.ReadCloser, error)
	Delete(storedName string) error
}

// LocalStorage writes attachments to a directory on disk under random
// names, keeping only the original extension.
type LocalStorage struct {
	baseDir string
}

func NewLocalStorage(baseDir string) (*LocalStorage, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create attachment dir: %w", err)
	}
	return &LocalStorage{baseDir: baseDir}, nil
}

func (s *LocalStorage) Store(filename string, r io.Reader) (string, error) {
	storedName := uuid.NewString() + strings.ToLower(filepath.Ext(filename))

	f, err := os.Create(filepath.Join(s.baseDir, storedName))
	if err != nil {
		return "", fmt.Errorf("create attachment: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("write attachment: %w", err)
	}
	return storedName, nil
}

func (s *LocalStorage) Retrieve(storedName string) (io.ReadCloser, error) {
	path, err := s.safePath(storedName)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, internal.NewNotFoundError("attachment not found", internal.ErrCodeAttachmentNotFound)
		}
		return nil, err
	}
	return f, nil
}

func (s *LocalStorage) Delete(storedName string) error {
	path, err := s.safePath(storedName)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// safePath rejects names that would escape the attachment directory.
func (s *LocalStorage) safePath(storedName string) (string, error) {
	if storedName == "" || storedName != filepath.Base(storedName) {
		return "", internal.NewValidationError("invalid attachment name", internal.ErrCodeValidationFailed)
	}
	return filepath.Join(s.baseDir, storedName), nil
}
