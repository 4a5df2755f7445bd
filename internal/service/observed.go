package service

import (
	"context"

	"github.com/forumcore/forum/internal/domain"
)

type ObservedService interface {
	Add(ctx context.Context, userId domain.UserId, threadId domain.ThreadId) error
	Remove(ctx context.Context, userId domain.UserId, threadId domain.ThreadId) error
	List(ctx context.Context, userId domain.UserId) ([]*domain.Thread, error)
}

// Observed keeps the set of threads each user follows. Adding and removing are
// idempotent, a thread that does not exist is reported as NotFound.
type Observed struct {
	storage ObservedStorage
}

type ObservedStorage interface {
	AddObserved(ctx context.Context, userId domain.UserId, threadId domain.ThreadId) error
	RemoveObserved(ctx context.Context, userId domain.UserId, threadId domain.ThreadId) error
	ObservedThreads(ctx context.Context, userId domain.UserId) ([]*domain.Thread, error)
}

func NewObserved(storage ObservedStorage) ObservedService {
	return &Observed{storage: storage}
}

func (o *Observed) Add(ctx context.Context, userId domain.UserId, threadId domain.ThreadId) error {
	return o.storage.AddObserved(ctx, userId, threadId)
}

func (o *Observed) Remove(ctx context.Context, userId domain.UserId, threadId domain.ThreadId) error {
	return o.storage.RemoveObserved(ctx, userId, threadId)
}

// List returns the observed threads, most recently active first.
func (o *Observed) List(ctx context.Context, userId domain.UserId) ([]*domain.Thread, error) {
	return o.storage.ObservedThreads(ctx, userId)
}
