// Package fs keeps uploaded media on the local disk.
package fs

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/forumcore/forum/internal/domain"
	internal_errors "github.com/forumcore/forum/internal/errors"
	"github.com/forumcore/forum/internal/service"

	"github.com/google/uuid"
)

type Storage struct {
	rootPath string
}

// Ensure Storage struct implements the interface at compile time.
var _ service.MediaStorage = (*Storage)(nil)

func New(rootPath string) (*Storage, error) {
	p := filepath.Clean(rootPath)

	if err := os.MkdirAll(p, 0755); err != nil {
		return nil, fmt.Errorf("failed to create root storage directory %s: %w", p, err)
	}

	return &Storage{rootPath: p}, nil
}

// SaveFile writes the file under dir with a random name that keeps the original
// extension. The returned reference is relative to the storage root.
func (s *Storage) SaveFile(fileData io.Reader, dir, originalFilename string) (domain.FileRef, error) {
	ext := strings.ToLower(filepath.Ext(filepath.Base(originalFilename)))
	relativePath := filepath.Join(filepath.Base(filepath.Clean("/"+dir)), uuid.NewString()+ext)

	fullPath, err := s.resolve(relativePath)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return "", fmt.Errorf("failed to create subdirectories: %w", err)
	}

	dst, err := os.Create(fullPath)
	if err != nil {
		return "", fmt.Errorf("failed to create destination file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, fileData); err != nil {
		os.Remove(fullPath)
		return "", fmt.Errorf("failed to copy file data: %w", err)
	}

	return filepath.ToSlash(relativePath), nil
}

func (s *Storage) Read(ref domain.FileRef) (io.ReadCloser, error) {
	fullPath, err := s.resolve(ref)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, internal_errors.NotFound("file", ref)
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return file, nil
}

// DeleteFile removes a single file. A file that is already gone is not an error.
func (s *Storage) DeleteFile(ref domain.FileRef) error {
	fullPath, err := s.resolve(ref)
	if err != nil {
		return err
	}

	if err := os.Remove(fullPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// resolve maps a reference to a path inside the root, rejecting traversal.
func (s *Storage) resolve(ref domain.FileRef) (string, error) {
	fullPath := filepath.Join(s.rootPath, filepath.FromSlash(ref))
	rel, err := filepath.Rel(s.rootPath, fullPath)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", &internal_errors.ValidationError{Message: fmt.Sprintf("invalid file reference %q", ref)}
	}
	return fullPath, nil
}
