package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/forumcore/forum/internal/config"
	"github.com/forumcore/forum/internal/domain"
	internal_errors "github.com/forumcore/forum/internal/errors"
	"github.com/forumcore/forum/internal/logger"
)

const (
	maxThreadNameLen  = 100
	maxPostContentLen = 10000
)

type ThreadService interface {
	Create(ctx context.Context, data domain.ThreadCreationData, file *domain.PendingFile) (domain.Thread, domain.Post, error)
	Get(ctx context.Context, id domain.ThreadId) (domain.Thread, error)
	Tree(ctx context.Context, id domain.ThreadId) (domain.ThreadTree, error)
	List(ctx context.Context, board *domain.BoardName, page int) ([]*domain.Thread, error)
	Update(ctx context.Context, data domain.ThreadUpdateData) (domain.Thread, error)
	Delete(ctx context.Context, id domain.ThreadId) error
	RefreshLastPostAdded(ctx context.Context, id domain.ThreadId) error
}

type Thread struct {
	storage ThreadStorage
	media   MediaStorage
	cfg     *config.Public
}

type ThreadStorage interface {
	CreateThread(ctx context.Context, data domain.ThreadCreationData) (domain.Thread, domain.Post, error)
	GetThread(ctx context.Context, id domain.ThreadId) (domain.Thread, error)
	ThreadPosts(ctx context.Context, id domain.ThreadId) ([]*domain.Post, error)
	ListThreads(ctx context.Context, board *domain.BoardName, page, perPage int) ([]*domain.Thread, error)
	UpdateThread(ctx context.Context, data domain.ThreadUpdateData) (domain.Thread, error)
	DeleteThread(ctx context.Context, id domain.ThreadId) ([]domain.FileRef, error)
	RefreshLastPostAdded(ctx context.Context, id domain.ThreadId) error
}

func NewThread(storage ThreadStorage, media MediaStorage, cfg *config.Public) ThreadService {
	return &Thread{storage: storage, media: media, cfg: cfg}
}

// Create opens a thread together with its starting post. The optional file is
// attached to the starting post and removed again if the thread is not created.
func (t *Thread) Create(ctx context.Context, data domain.ThreadCreationData, file *domain.PendingFile) (domain.Thread, domain.Post, error) {
	data.Name = strings.TrimSpace(data.Name)
	if err := validateThreadName(data.Name); err != nil {
		return domain.Thread{}, domain.Post{}, err
	}
	if err := validateContent(data.StartingPost.Content); err != nil {
		return domain.Thread{}, domain.Post{}, err
	}

	ref, err := saveUpload(t.media, postMediaDir, file)
	if err != nil {
		return domain.Thread{}, domain.Post{}, err
	}
	data.StartingPost.File = ref

	thread, post, err := t.storage.CreateThread(ctx, data)
	if err != nil {
		discardUpload(t.media, ref)
		return domain.Thread{}, domain.Post{}, err
	}
	threadsCreated.Inc()
	return thread, post, nil
}

func (t *Thread) Get(ctx context.Context, id domain.ThreadId) (domain.Thread, error) {
	return t.storage.GetThread(ctx, id)
}

// Tree loads every post of the thread and arranges it for display.
func (t *Thread) Tree(ctx context.Context, id domain.ThreadId) (domain.ThreadTree, error) {
	posts, err := t.storage.ThreadPosts(ctx, id)
	if err != nil {
		return domain.ThreadTree{}, err
	}
	tree := domain.BuildTree(posts)
	if len(tree.Orphans) > 0 {
		logger.Log.Warn("posts with missing parent promoted to top level", "thread_id", id, "post_ids", tree.Orphans)
	}
	return tree, nil
}

// List returns a page of threads ordered by recent activity. A nil board lists all boards.
func (t *Thread) List(ctx context.Context, board *domain.BoardName, page int) ([]*domain.Thread, error) {
	return t.storage.ListThreads(ctx, board, max(1, page), t.cfg.ThreadsPerPage)
}

func (t *Thread) Update(ctx context.Context, data domain.ThreadUpdateData) (domain.Thread, error) {
	if data.Name != nil {
		name := strings.TrimSpace(*data.Name)
		if err := validateThreadName(name); err != nil {
			return domain.Thread{}, err
		}
		data.Name = &name
	}
	if data.Content != nil {
		if err := validateContent(*data.Content); err != nil {
			return domain.Thread{}, err
		}
	}
	return t.storage.UpdateThread(ctx, data)
}

// Delete removes the thread with all its posts. Attached files are removed afterwards.
func (t *Thread) Delete(ctx context.Context, id domain.ThreadId) error {
	files, err := t.storage.DeleteThread(ctx, id)
	if err != nil {
		return err
	}
	logger.Log.Info("thread deleted", "thread_id", id, "files", len(files))
	deleteFiles(t.media, files)
	return nil
}

func (t *Thread) RefreshLastPostAdded(ctx context.Context, id domain.ThreadId) error {
	return t.storage.RefreshLastPostAdded(ctx, id)
}

func validateThreadName(name string) error {
	if name == "" {
		return &internal_errors.ValidationError{Message: "thread name must not be empty"}
	}
	if utf8.RuneCountInString(name) > maxThreadNameLen {
		return &internal_errors.ValidationError{Message: "thread name is too long"}
	}
	return nil
}

func validateContent(content domain.PostContent) error {
	if strings.TrimSpace(content) == "" {
		return &internal_errors.ValidationError{Message: "content must not be empty"}
	}
	if utf8.RuneCountInString(content) > maxPostContentLen {
		return &internal_errors.ValidationError{Message: "content is too long"}
	}
	return nil
}
