package pg

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/forumcore/forum/internal/domain"
	internal_errors "github.com/forumcore/forum/internal/errors"
)

// =========================================================================
// Public Methods (satisfy the service.ObservedStorage interface)
// =========================================================================

// AddObserved is idempotent: observing an already observed thread succeeds
// without changes.
func (s *Storage) AddObserved(ctx context.Context, userId domain.UserId, threadId domain.ThreadId) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return s.addObserved(ctx, tx, userId, threadId)
	})
}

// RemoveObserved is idempotent as long as the thread exists.
func (s *Storage) RemoveObserved(ctx context.Context, userId domain.UserId, threadId domain.ThreadId) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return s.removeObserved(ctx, tx, userId, threadId)
	})
}

func (s *Storage) ObservedThreads(ctx context.Context, userId domain.UserId) ([]*domain.Thread, error) {
	return s.observedThreads(ctx, s.db, userId)
}

// =========================================================================
// Internal Methods
// =========================================================================

func (s *Storage) threadExists(ctx context.Context, q Querier, id domain.ThreadId) error {
	var exists bool
	if err := q.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM threads WHERE id = $1)", id).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check thread: %w", err)
	}
	if !exists {
		return internal_errors.NotFound("thread", id)
	}
	return nil
}

func (s *Storage) addObserved(ctx context.Context, q Querier, userId domain.UserId, threadId domain.ThreadId) error {
	if err := s.threadExists(ctx, q, threadId); err != nil {
		return err
	}
	var profileExists bool
	if err := q.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM user_profiles WHERE user_id = $1)", userId).Scan(&profileExists); err != nil {
		return fmt.Errorf("failed to check profile: %w", err)
	}
	if !profileExists {
		return internal_errors.NotFound("user", userId)
	}

	_, err := q.ExecContext(ctx, `
		INSERT INTO observed_threads (user_id, thread_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, thread_id) DO NOTHING`,
		userId, threadId,
	)
	// the existence checks above do not lock, so a concurrent delete still
	// surfaces here
	switch {
	case isForeignKeyViolation(err, "observed_threads_thread_id_fkey"):
		return internal_errors.NotFound("thread", threadId)
	case isForeignKeyViolation(err, "observed_threads_user_id_fkey"):
		return internal_errors.NotFound("user", userId)
	case err != nil:
		return fmt.Errorf("failed to observe thread: %w", err)
	}
	return nil
}

func (s *Storage) removeObserved(ctx context.Context, q Querier, userId domain.UserId, threadId domain.ThreadId) error {
	if err := s.threadExists(ctx, q, threadId); err != nil {
		return err
	}
	_, err := q.ExecContext(ctx,
		"DELETE FROM observed_threads WHERE user_id = $1 AND thread_id = $2",
		userId, threadId,
	)
	if err != nil {
		return fmt.Errorf("failed to stop observing thread: %w", err)
	}
	return nil
}

func (s *Storage) observedThreads(ctx context.Context, q Querier, userId domain.UserId) ([]*domain.Thread, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT `+threadColumns+`
		FROM observed_threads o
		JOIN threads t ON t.id = o.thread_id
		WHERE o.user_id = $1
		ORDER BY t.last_post_added DESC, t.id DESC`,
		userId,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list observed threads: %w", err)
	}
	defer rows.Close()
	return collectThreads(rows)
}
