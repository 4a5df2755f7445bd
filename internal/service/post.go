package service

import (
	"context"

	"github.com/forumcore/forum/internal/domain"
	internal_errors "github.com/forumcore/forum/internal/errors"
	"github.com/forumcore/forum/internal/logger"
)

type PostService interface {
	Create(ctx context.Context, data domain.PostCreationData, file *domain.PendingFile) (domain.Post, error)
	Get(ctx context.Context, id domain.PostId) (domain.Post, error)
	Update(ctx context.Context, data domain.PostUpdateData, file *domain.PendingFile) (domain.Post, error)
	Delete(ctx context.Context, id domain.PostId) error
}

type Post struct {
	storage PostStorage
	media   MediaStorage
}

type PostStorage interface {
	CreatePost(ctx context.Context, data domain.PostCreationData) (domain.Post, error)
	GetPost(ctx context.Context, id domain.PostId) (domain.Post, error)
	UpdatePost(ctx context.Context, data domain.PostUpdateData) (domain.Post, error)
	DeletePost(ctx context.Context, id domain.PostId) ([]domain.FileRef, error)
}

func NewPost(storage PostStorage, media MediaStorage) PostService {
	return &Post{storage: storage, media: media}
}

func (p *Post) Create(ctx context.Context, data domain.PostCreationData, file *domain.PendingFile) (domain.Post, error) {
	if err := validateContent(data.Content); err != nil {
		return domain.Post{}, err
	}

	ref, err := saveUpload(p.media, postMediaDir, file)
	if err != nil {
		return domain.Post{}, err
	}
	data.File = ref

	post, err := p.storage.CreatePost(ctx, data)
	if err != nil {
		discardUpload(p.media, ref)
		if internal_errors.Is[*internal_errors.DuplicateStartingPostError](err) {
			startingPostConflicts.Inc()
		}
		return domain.Post{}, err
	}
	postsCreated.Inc()
	return post, nil
}

func (p *Post) Get(ctx context.Context, id domain.PostId) (domain.Post, error) {
	return p.storage.GetPost(ctx, id)
}

// Update edits a post. A new file replaces the previous attachment, which is
// removed once the update is committed.
func (p *Post) Update(ctx context.Context, data domain.PostUpdateData, file *domain.PendingFile) (domain.Post, error) {
	if err := validateContent(data.Content); err != nil {
		return domain.Post{}, err
	}

	current, err := p.storage.GetPost(ctx, data.Id)
	if err != nil {
		return domain.Post{}, err
	}

	ref, err := saveUpload(p.media, postMediaDir, file)
	if err != nil {
		return domain.Post{}, err
	}
	data.File = ref

	post, err := p.storage.UpdatePost(ctx, data)
	if err != nil {
		discardUpload(p.media, ref)
		if internal_errors.Is[*internal_errors.DuplicateStartingPostError](err) {
			startingPostConflicts.Inc()
		}
		return domain.Post{}, err
	}
	if ref != nil && current.File != nil {
		deleteFiles(p.media, []domain.FileRef{*current.File})
	}
	return post, nil
}

// Delete removes the post together with every reply beneath it.
func (p *Post) Delete(ctx context.Context, id domain.PostId) error {
	files, err := p.storage.DeletePost(ctx, id)
	if err != nil {
		return err
	}
	logger.Log.Info("post deleted", "post_id", id, "files", len(files))
	deleteFiles(p.media, files)
	return nil
}
