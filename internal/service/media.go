package service

import (
	"io"

	"github.com/forumcore/forum/internal/domain"
	"github.com/forumcore/forum/internal/logger"
)

const (
	postMediaDir   = "posts"
	avatarMediaDir = "avatars"
)

type MediaStorage interface {
	// SaveFile stores a file's content under dir with a generated unique name.
	// It returns the opaque reference of the stored file.
	SaveFile(fileData io.Reader, dir, originalFilename string) (domain.FileRef, error)

	// Read opens a stored file for reading.
	Read(ref domain.FileRef) (io.ReadCloser, error)

	// DeleteFile removes a single file.
	DeleteFile(ref domain.FileRef) error
}

// saveUpload stores a validated upload. A nil upload yields a nil reference.
func saveUpload(media MediaStorage, dir string, file *domain.PendingFile) (*domain.FileRef, error) {
	if file == nil {
		return nil, nil
	}
	ref, err := media.SaveFile(file.Data, dir, file.Filename)
	if err != nil {
		logger.Log.Error("failed to save file", "filename", file.Filename, "dir", dir, "error", err)
		return nil, err
	}
	return &ref, nil
}

// deleteFiles removes files of deleted content. Failures are logged and counted,
// the database is the source of truth and a stray file is harmless.
func deleteFiles(media MediaStorage, refs []domain.FileRef) {
	for _, ref := range refs {
		if err := media.DeleteFile(ref); err != nil {
			mediaDeleteFailures.Inc()
			logger.Log.Warn("failed to delete media file", "file", ref, "error", err)
		}
	}
}

// discardUpload removes a file saved for a write that did not go through.
func discardUpload(media MediaStorage, ref *domain.FileRef) {
	if ref != nil {
		deleteFiles(media, []domain.FileRef{*ref})
	}
}
