package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"slices"

	"github.com/forumcore/forum/internal/domain"
	internal_errors "github.com/forumcore/forum/internal/errors"

	"github.com/lib/pq"
)

const startingPostIndex = "posts_one_starting_post_idx"

// postColumns selects a post together with its aggregated cross-references.
// Queries using it must alias posts as p and GROUP BY p.id.
const postColumns = `
	p.id, p.thread_id, p.author_id, p.content, p.created_at, p.updated_at,
	p.updated, p.hidden, p.parent_id, p.starting_post, p.file,
	COALESCE(array_agg(r.refers_to_id ORDER BY r.refers_to_id) FILTER (WHERE r.refers_to_id IS NOT NULL), '{}')`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner) (*domain.Post, error) {
	var (
		post     domain.Post
		hidden   sql.NullBool
		parentId sql.NullInt64
		file     sql.NullString
		refersTo pq.Int64Array
	)
	if err := row.Scan(
		&post.Id, &post.ThreadId, &post.AuthorId, &post.Content, &post.CreatedAt, &post.UpdatedAt,
		&post.Updated, &hidden, &parentId, &post.StartingPost, &file,
		&refersTo,
	); err != nil {
		return nil, err
	}
	if hidden.Valid {
		post.Hidden = &hidden.Bool
	}
	if parentId.Valid {
		post.ParentId = &parentId.Int64
	}
	post.File = stringPtr(file)
	post.RefersTo = []domain.PostId(refersTo)
	return &post, nil
}

// =========================================================================
// Public Methods (satisfy the service.PostStorage interface)
// =========================================================================

// CreatePost inserts a post and refreshes the owning thread's last_post_added
// in a single transaction.
func (s *Storage) CreatePost(ctx context.Context, data domain.PostCreationData) (domain.Post, error) {
	var post domain.Post
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		post, err = s.createPost(ctx, tx, data)
		return err
	})
	return post, err
}

func (s *Storage) GetPost(ctx context.Context, id domain.PostId) (domain.Post, error) {
	return s.getPost(ctx, s.db, id)
}

func (s *Storage) UpdatePost(ctx context.Context, data domain.PostUpdateData) (domain.Post, error) {
	var post domain.Post
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		post, err = s.updatePost(ctx, tx, data)
		return err
	})
	return post, err
}

// DeletePost removes a post with all of its descendant replies and returns the
// file references that were attached to the removed posts.
func (s *Storage) DeletePost(ctx context.Context, id domain.PostId) ([]domain.FileRef, error) {
	var files []domain.FileRef
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		files, err = s.deletePost(ctx, tx, id)
		return err
	})
	return files, err
}

// =========================================================================
// Internal Methods
// =========================================================================

// lockThread takes a row lock on the thread so that concurrent writers racing
// for the starting post slot are serialized. It fails for closed threads
// unless allowClosed is set.
func (s *Storage) lockThread(ctx context.Context, q Querier, id domain.ThreadId, allowClosed bool) error {
	var closed sql.NullTime
	err := q.QueryRowContext(ctx, "SELECT closed FROM threads WHERE id = $1 FOR UPDATE", id).Scan(&closed)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return internal_errors.NotFound("thread", id)
		}
		return fmt.Errorf("failed to lock thread: %w", err)
	}
	if closed.Valid && !allowClosed {
		return &internal_errors.ErrorWithStatusCode{
			Message:    "Thread is closed",
			StatusCode: http.StatusConflict,
		}
	}
	return nil
}

func (s *Storage) hasStartingPost(ctx context.Context, q Querier, threadId domain.ThreadId, exclude domain.PostId) (bool, error) {
	var exists bool
	err := q.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM posts WHERE thread_id = $1 AND starting_post AND id <> $2)",
		threadId, exclude,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check starting post: %w", err)
	}
	return exists, nil
}

func (s *Storage) createPost(ctx context.Context, q Querier, data domain.PostCreationData) (domain.Post, error) {
	if err := s.lockThread(ctx, q, data.ThreadId, false); err != nil {
		return domain.Post{}, err
	}

	if data.Starting {
		exists, err := s.hasStartingPost(ctx, q, data.ThreadId, 0)
		if err != nil {
			return domain.Post{}, err
		}
		if exists {
			return domain.Post{}, &internal_errors.DuplicateStartingPostError{ThreadId: data.ThreadId}
		}
	}

	if data.ParentId != nil {
		var parentThread domain.ThreadId
		err := q.QueryRowContext(ctx, "SELECT thread_id FROM posts WHERE id = $1", *data.ParentId).Scan(&parentThread)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return domain.Post{}, internal_errors.NotFound("post", *data.ParentId)
			}
			return domain.Post{}, fmt.Errorf("failed to fetch parent post: %w", err)
		}
		if parentThread != data.ThreadId {
			return domain.Post{}, &internal_errors.ValidationError{Message: "parent post belongs to another thread"}
		}
	}

	refersTo := slices.Compact(slices.Sorted(slices.Values(data.RefersTo)))
	if err := s.checkPostsExist(ctx, q, refersTo); err != nil {
		return domain.Post{}, err
	}

	var id domain.PostId
	err := q.QueryRowContext(ctx, `
		INSERT INTO posts (thread_id, author_id, content, parent_id, starting_post, file)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		data.ThreadId, data.AuthorId, data.Content, data.ParentId, data.Starting, nullableString(data.File),
	).Scan(&id)
	if err != nil {
		if isUniqueViolation(err, startingPostIndex) {
			return domain.Post{}, &internal_errors.DuplicateStartingPostError{ThreadId: data.ThreadId}
		}
		return domain.Post{}, fmt.Errorf("failed to insert post: %w", err)
	}

	if len(refersTo) > 0 {
		_, err = q.ExecContext(ctx, `
			INSERT INTO post_references (post_id, refers_to_id)
			SELECT $1, unnest($2::bigint[])`,
			id, pq.Array(refersTo),
		)
		if err != nil {
			return domain.Post{}, fmt.Errorf("failed to insert post references: %w", err)
		}
	}

	if err := s.refreshLastPostAdded(ctx, q, data.ThreadId); err != nil {
		return domain.Post{}, err
	}

	return s.getPost(ctx, q, id)
}

// checkPostsExist fails with NotFound for the first id that has no post.
func (s *Storage) checkPostsExist(ctx context.Context, q Querier, ids []domain.PostId) error {
	if len(ids) == 0 {
		return nil
	}
	rows, err := q.QueryContext(ctx, "SELECT id FROM posts WHERE id = ANY($1)", pq.Array(ids))
	if err != nil {
		return fmt.Errorf("failed to query referenced posts: %w", err)
	}
	defer rows.Close()

	found := make(map[domain.PostId]struct{}, len(ids))
	for rows.Next() {
		var id domain.PostId
		if err := rows.Scan(&id); err != nil {
			return fmt.Errorf("failed to scan referenced post: %w", err)
		}
		found[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("rows iteration error: %w", err)
	}

	for _, id := range ids {
		if _, ok := found[id]; !ok {
			return internal_errors.NotFound("post", id)
		}
	}
	return nil
}

func (s *Storage) getPost(ctx context.Context, q Querier, id domain.PostId) (domain.Post, error) {
	row := q.QueryRowContext(ctx, `
		SELECT `+postColumns+`
		FROM posts p
		LEFT JOIN post_references r ON r.post_id = p.id
		WHERE p.id = $1
		GROUP BY p.id`,
		id,
	)
	post, err := scanPost(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Post{}, internal_errors.NotFound("post", id)
		}
		return domain.Post{}, fmt.Errorf("failed to fetch post: %w", err)
	}
	return *post, nil
}

// threadPosts returns all posts of a thread ordered by creation time.
func (s *Storage) threadPosts(ctx context.Context, q Querier, threadId domain.ThreadId) ([]*domain.Post, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT `+postColumns+`
		FROM posts p
		LEFT JOIN post_references r ON r.post_id = p.id
		WHERE p.thread_id = $1
		GROUP BY p.id
		ORDER BY p.created_at, p.id`,
		threadId,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch posts: %w", err)
	}
	defer rows.Close()

	posts := []*domain.Post{}
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return posts, nil
}

func (s *Storage) updatePost(ctx context.Context, q Querier, data domain.PostUpdateData) (domain.Post, error) {
	var (
		threadId       domain.ThreadId
		storedContent  string
		updated        bool
		isStartingPost bool
	)
	err := q.QueryRowContext(ctx,
		"SELECT thread_id, content, updated, starting_post FROM posts WHERE id = $1 FOR NO KEY UPDATE",
		data.Id,
	).Scan(&threadId, &storedContent, &updated, &isStartingPost)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Post{}, internal_errors.NotFound("post", data.Id)
		}
		return domain.Post{}, fmt.Errorf("failed to fetch post for update: %w", err)
	}

	// sticky: once edited, always edited
	updated = updated || data.Content != storedContent

	startingPost := isStartingPost
	if data.StartingPost != nil {
		startingPost = *data.StartingPost
	}
	if startingPost && !isStartingPost {
		if err := s.lockThread(ctx, q, threadId, true); err != nil {
			return domain.Post{}, err
		}
		exists, err := s.hasStartingPost(ctx, q, threadId, data.Id)
		if err != nil {
			return domain.Post{}, err
		}
		if exists {
			return domain.Post{}, &internal_errors.DuplicateStartingPostError{ThreadId: threadId}
		}
	}

	var hidden sql.NullBool
	if data.Hidden != nil {
		hidden = sql.NullBool{Bool: *data.Hidden, Valid: true}
	}
	_, err = q.ExecContext(ctx, `
		UPDATE posts SET
			content = $2,
			updated = $3,
			starting_post = $4,
			file = COALESCE($5, file),
			hidden = CASE WHEN $6::boolean IS NULL THEN hidden ELSE $6 END,
			updated_at = CLOCK_TIMESTAMP()
		WHERE id = $1`,
		data.Id, data.Content, updated, startingPost, nullableString(data.File), hidden,
	)
	if err != nil {
		if isUniqueViolation(err, startingPostIndex) {
			return domain.Post{}, &internal_errors.DuplicateStartingPostError{ThreadId: threadId}
		}
		return domain.Post{}, fmt.Errorf("failed to update post: %w", err)
	}

	return s.getPost(ctx, q, data.Id)
}

func (s *Storage) deletePost(ctx context.Context, q Querier, id domain.PostId) ([]domain.FileRef, error) {
	var threadId domain.ThreadId
	err := q.QueryRowContext(ctx, "SELECT thread_id FROM posts WHERE id = $1", id).Scan(&threadId)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, internal_errors.NotFound("post", id)
		}
		return nil, fmt.Errorf("failed to fetch post: %w", err)
	}

	rows, err := q.QueryContext(ctx, `
		WITH RECURSIVE subtree AS (
			SELECT id FROM posts WHERE id = $1
			UNION
			SELECT p.id FROM posts p JOIN subtree s ON p.parent_id = s.id
		)
		SELECT id FROM subtree`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to collect replies: %w", err)
	}
	var ids []domain.PostId
	for rows.Next() {
		var replyId domain.PostId
		if err := rows.Scan(&replyId); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan reply id: %w", err)
		}
		ids = append(ids, replyId)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	files, err := s.deletePostsByIds(ctx, q, ids)
	if err != nil {
		return nil, err
	}

	if err := s.refreshLastPostAdded(ctx, q, threadId); err != nil {
		return nil, err
	}
	return files, nil
}

// deletePostsByIds removes the posts and every reference edge touching them.
// The id set must be closed under the parent relation.
func (s *Storage) deletePostsByIds(ctx context.Context, q Querier, ids []domain.PostId) ([]domain.FileRef, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	_, err := q.ExecContext(ctx,
		"DELETE FROM post_references WHERE post_id = ANY($1) OR refers_to_id = ANY($1)",
		pq.Array(ids),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to delete post references: %w", err)
	}

	rows, err := q.QueryContext(ctx, "DELETE FROM posts WHERE id = ANY($1) RETURNING file", pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to delete posts: %w", err)
	}
	defer rows.Close()

	var files []domain.FileRef
	for rows.Next() {
		var file sql.NullString
		if err := rows.Scan(&file); err != nil {
			return nil, fmt.Errorf("failed to scan deleted post file: %w", err)
		}
		if file.Valid && file.String != "" {
			files = append(files, file.String)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return files, nil
}
