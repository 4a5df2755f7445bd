package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/forumcore/forum/internal/domain"
	internal_errors "github.com/forumcore/forum/internal/errors"

	"github.com/lib/pq"
)

const threadColumns = `
	t.id, t.board, t.author_id, t.name, t.closed, t.created_at, t.updated_at, t.last_post_added,
	(SELECT COUNT(*) FROM posts c WHERE c.thread_id = t.id AND NOT c.starting_post)`

func scanThread(row rowScanner) (*domain.Thread, error) {
	var (
		thread domain.Thread
		closed sql.NullTime
	)
	if err := row.Scan(
		&thread.Id, &thread.Board, &thread.AuthorId, &thread.Name, &closed,
		&thread.CreatedAt, &thread.UpdatedAt, &thread.LastPostAdded, &thread.PostCount,
	); err != nil {
		return nil, err
	}
	if closed.Valid {
		thread.Closed = &closed.Time
	}
	return &thread, nil
}

// =========================================================================
// Public Methods (satisfy the service.ThreadStorage interface)
// =========================================================================

// CreateThread inserts the thread and its starting post atomically: if the
// starting post cannot be created the thread is rolled back as well.
func (s *Storage) CreateThread(ctx context.Context, data domain.ThreadCreationData) (domain.Thread, domain.Post, error) {
	var (
		thread domain.Thread
		post   domain.Post
	)
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		thread, post, err = s.createThread(ctx, tx, data)
		return err
	})
	return thread, post, err
}

func (s *Storage) GetThread(ctx context.Context, id domain.ThreadId) (domain.Thread, error) {
	return s.getThread(ctx, s.db, id)
}

// ThreadPosts returns the flat post set of a thread ordered by creation time.
func (s *Storage) ThreadPosts(ctx context.Context, id domain.ThreadId) ([]*domain.Post, error) {
	if _, err := s.getThread(ctx, s.db, id); err != nil {
		return nil, err
	}
	return s.threadPosts(ctx, s.db, id)
}

// ListThreads returns threads ordered by most recent activity. A nil board
// lists threads of every board.
func (s *Storage) ListThreads(ctx context.Context, board *domain.BoardName, page, perPage int) ([]*domain.Thread, error) {
	return s.listThreads(ctx, s.db, board, page, perPage)
}

func (s *Storage) UpdateThread(ctx context.Context, data domain.ThreadUpdateData) (domain.Thread, error) {
	var thread domain.Thread
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		thread, err = s.updateThread(ctx, tx, data)
		return err
	})
	return thread, err
}

// DeleteThread removes the thread with all of its posts and returns the file
// references attached to the removed posts.
func (s *Storage) DeleteThread(ctx context.Context, id domain.ThreadId) ([]domain.FileRef, error) {
	var files []domain.FileRef
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := s.lockThread(ctx, tx, id, true); err != nil {
			return err
		}
		var err error
		files, err = s.deleteThreads(ctx, tx, []domain.ThreadId{id})
		return err
	})
	return files, err
}

func (s *Storage) RefreshLastPostAdded(ctx context.Context, id domain.ThreadId) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := s.lockThread(ctx, tx, id, true); err != nil {
			return err
		}
		return s.refreshLastPostAdded(ctx, tx, id)
	})
}

// =========================================================================
// Internal Methods
// =========================================================================

func (s *Storage) createThread(ctx context.Context, q Querier, data domain.ThreadCreationData) (domain.Thread, domain.Post, error) {
	threadId, err := s.insertThread(ctx, q, data)
	if err != nil {
		return domain.Thread{}, domain.Post{}, err
	}

	startingPost := data.StartingPost
	startingPost.ThreadId = threadId
	startingPost.AuthorId = data.AuthorId
	startingPost.Starting = true
	post, err := s.createPost(ctx, q, startingPost)
	if err != nil {
		return domain.Thread{}, domain.Post{}, fmt.Errorf("failed to create starting post: %w", err)
	}

	thread, err := s.getThread(ctx, q, threadId)
	if err != nil {
		return domain.Thread{}, domain.Post{}, err
	}
	return thread, post, nil
}

func (s *Storage) insertThread(ctx context.Context, q Querier, data domain.ThreadCreationData) (domain.ThreadId, error) {
	var exists bool
	if err := q.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM boards WHERE name = $1)", data.Board).Scan(&exists); err != nil {
		return 0, fmt.Errorf("failed to validate board: %w", err)
	}
	if !exists {
		return 0, internal_errors.NotFound("board", data.Board)
	}

	var id domain.ThreadId
	err := q.QueryRowContext(ctx, `
		INSERT INTO threads (board, author_id, name)
		VALUES ($1, $2, $3)
		RETURNING id`,
		data.Board, data.AuthorId, data.Name,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert thread: %w", err)
	}
	return id, nil
}

func (s *Storage) getThread(ctx context.Context, q Querier, id domain.ThreadId) (domain.Thread, error) {
	row := q.QueryRowContext(ctx, "SELECT "+threadColumns+" FROM threads t WHERE t.id = $1", id)
	thread, err := scanThread(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Thread{}, internal_errors.NotFound("thread", id)
		}
		return domain.Thread{}, fmt.Errorf("failed to fetch thread: %w", err)
	}
	return *thread, nil
}

func (s *Storage) listThreads(ctx context.Context, q Querier, board *domain.BoardName, page, perPage int) ([]*domain.Thread, error) {
	if board != nil {
		if _, err := s.getBoard(ctx, q, *board); err != nil {
			return nil, err
		}
	}
	page = max(1, page)
	rows, err := q.QueryContext(ctx, `
		SELECT `+threadColumns+`
		FROM threads t
		WHERE $1::text IS NULL OR t.board = $1
		ORDER BY t.last_post_added DESC, t.id DESC
		LIMIT $2 OFFSET $3`,
		nullableString(board), perPage, (page-1)*perPage,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list threads: %w", err)
	}
	defer rows.Close()
	return collectThreads(rows)
}

func collectThreads(rows *sql.Rows) ([]*domain.Thread, error) {
	threads := []*domain.Thread{}
	for rows.Next() {
		thread, err := scanThread(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan thread: %w", err)
		}
		threads = append(threads, thread)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return threads, nil
}

func (s *Storage) updateThread(ctx context.Context, q Querier, data domain.ThreadUpdateData) (domain.Thread, error) {
	if err := s.lockThread(ctx, q, data.Id, true); err != nil {
		return domain.Thread{}, err
	}

	if data.Name != nil {
		if _, err := q.ExecContext(ctx, "UPDATE threads SET name = $2 WHERE id = $1", data.Id, *data.Name); err != nil {
			return domain.Thread{}, fmt.Errorf("failed to rename thread: %w", err)
		}
	}
	if data.Closed != nil {
		query := "UPDATE threads SET closed = NULL WHERE id = $1"
		if *data.Closed {
			query = "UPDATE threads SET closed = COALESCE(closed, CURRENT_DATE) WHERE id = $1"
		}
		if _, err := q.ExecContext(ctx, query, data.Id); err != nil {
			return domain.Thread{}, fmt.Errorf("failed to change thread state: %w", err)
		}
	}
	if data.Content != nil {
		var startingPostId domain.PostId
		err := q.QueryRowContext(ctx,
			"SELECT id FROM posts WHERE thread_id = $1 AND starting_post", data.Id,
		).Scan(&startingPostId)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return domain.Thread{}, internal_errors.NotFound("starting post of thread", data.Id)
			}
			return domain.Thread{}, fmt.Errorf("failed to fetch starting post: %w", err)
		}
		if _, err := s.updatePost(ctx, q, domain.PostUpdateData{Id: startingPostId, Content: *data.Content}); err != nil {
			return domain.Thread{}, err
		}
	}

	if _, err := q.ExecContext(ctx, "UPDATE threads SET updated_at = CLOCK_TIMESTAMP() WHERE id = $1", data.Id); err != nil {
		return domain.Thread{}, fmt.Errorf("failed to touch thread: %w", err)
	}
	return s.getThread(ctx, q, data.Id)
}

// refreshLastPostAdded recomputes last_post_added from the authoritative post
// set. A thread without posts keeps its current value.
func (s *Storage) refreshLastPostAdded(ctx context.Context, q Querier, id domain.ThreadId) error {
	_, err := q.ExecContext(ctx, `
		UPDATE threads t
		SET last_post_added = latest.created_at
		FROM (SELECT MAX(created_at) AS created_at FROM posts WHERE thread_id = $1) latest
		WHERE t.id = $1 AND latest.created_at IS NOT NULL`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to refresh last post timestamp: %w", err)
	}
	return nil
}

// deleteThreads cascades explicitly: reference edges, posts, observers, then
// the thread rows themselves.
func (s *Storage) deleteThreads(ctx context.Context, q Querier, ids []domain.ThreadId) ([]domain.FileRef, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	rows, err := q.QueryContext(ctx, "SELECT id FROM posts WHERE thread_id = ANY($1)", pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to collect thread posts: %w", err)
	}
	var postIds []domain.PostId
	for rows.Next() {
		var postId domain.PostId
		if err := rows.Scan(&postId); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan post id: %w", err)
		}
		postIds = append(postIds, postId)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	files, err := s.deletePostsByIds(ctx, q, postIds)
	if err != nil {
		return nil, err
	}

	if _, err := q.ExecContext(ctx, "DELETE FROM observed_threads WHERE thread_id = ANY($1)", pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("failed to delete thread observers: %w", err)
	}

	result, err := q.ExecContext(ctx, "DELETE FROM threads WHERE id = ANY($1)", pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to delete threads: %w", err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return nil, internal_errors.NotFound("thread", ids[0])
	}
	return files, nil
}
