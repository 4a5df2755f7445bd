// Package validation checks uploaded post attachments and avatars before they
// reach file storage.
package validation

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"mime"
	"mime/multipart"
	"path/filepath"
	"slices"

	"github.com/forumcore/forum/internal/domain"

	_ "golang.org/x/image/webp"
)

// ValidateImage checks the MIME type of an uploaded file against the allowed
// list and probes its dimensions. The returned PendingFile owns the opened file,
// callers must close it through CloseFile.
func ValidateImage(fileHeader *multipart.FileHeader, allowedMimes []string) (*domain.PendingFile, error) {
	mimeType, err := DetectMimeType(fileHeader)
	if err != nil {
		return nil, err
	}
	if !slices.Contains(allowedMimes, mimeType) {
		return nil, fmt.Errorf("%w: %s (file: %s)", ErrInvalidMimeType, mimeType, fileHeader.Filename)
	}

	file, err := fileHeader.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open uploaded file: %w", err)
	}

	width, height, err := ProbeDimensions(file)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("%w: %s", ErrUndecodableImage, fileHeader.Filename)
	}

	return &domain.PendingFile{
		Filename:    fileHeader.Filename,
		MimeType:    mimeType,
		SizeBytes:   fileHeader.Size,
		ImageWidth:  &width,
		ImageHeight: &height,
		Data:        file,
	}, nil
}

func DetectMimeType(fileHeader *multipart.FileHeader) (string, error) {
	mimeType := fileHeader.Header.Get("Content-Type")

	// generic or missing content type falls back to the extension
	if mimeType == "" || mimeType == "application/octet-stream" {
		if detected := mime.TypeByExtension(filepath.Ext(fileHeader.Filename)); detected != "" {
			mimeType = detected
		}
	}
	if mimeType == "" {
		return "", fmt.Errorf("%w: could not detect MIME type for file %s", ErrInvalidMimeType, fileHeader.Filename)
	}
	return mimeType, nil
}

// ProbeDimensions decodes only the image header and rewinds the reader.
func ProbeDimensions(r io.ReadSeeker) (int, int, error) {
	cfg, _, err := image.DecodeConfig(r)
	if _, seekErr := r.Seek(0, io.SeekStart); seekErr != nil && err == nil {
		err = seekErr
	}
	if err != nil {
		return 0, 0, err
	}
	return cfg.Width, cfg.Height, nil
}

// CloseFile releases the upload held by a PendingFile, if any.
func CloseFile(pf *domain.PendingFile) {
	if pf == nil {
		return
	}
	if closer, ok := pf.Data.(io.Closer); ok {
		closer.Close()
	}
}
