package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/forumcore/forum/internal/domain"
	internal_errors "github.com/forumcore/forum/internal/errors"

	"github.com/lib/pq"
)

// =========================================================================
// Public Methods (satisfy the service.BoardStorage interface)
// =========================================================================

func (s *Storage) CreateBoard(ctx context.Context, data domain.BoardCreationData) (domain.Board, error) {
	var board domain.Board
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		board, err = s.createBoard(ctx, tx, data)
		return err
	})
	return board, err
}

func (s *Storage) GetBoard(ctx context.Context, name domain.BoardName) (domain.Board, error) {
	return s.getBoard(ctx, s.db, name)
}

func (s *Storage) ListBoards(ctx context.Context) ([]domain.Board, error) {
	return s.listBoards(ctx, s.db)
}

func (s *Storage) UpdateBoard(ctx context.Context, name domain.BoardName, description string) (domain.Board, error) {
	var board domain.Board
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		board, err = s.updateBoard(ctx, tx, name, description)
		return err
	})
	return board, err
}

// DeleteBoard removes the board together with every thread and post on it.
// The returned file references belong to the removed posts.
func (s *Storage) DeleteBoard(ctx context.Context, name domain.BoardName) ([]domain.FileRef, error) {
	var files []domain.FileRef
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		files, err = s.deleteBoard(ctx, tx, name)
		return err
	})
	return files, err
}

// =========================================================================
// Internal Methods
// =========================================================================

func (s *Storage) createBoard(ctx context.Context, q Querier, data domain.BoardCreationData) (domain.Board, error) {
	var board domain.Board
	err := q.QueryRowContext(ctx, `
		INSERT INTO boards (name, creator_id, description)
		VALUES ($1, $2, $3)
		RETURNING name, creator_id, description, created_at, updated_at`,
		data.Name, data.CreatorId, data.Description,
	).Scan(&board.Name, &board.CreatorId, &board.Description, &board.CreatedAt, &board.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err, "boards_pkey") {
			return domain.Board{}, &internal_errors.ErrorWithStatusCode{
				Message:    fmt.Sprintf("Board %q already exists", data.Name),
				StatusCode: http.StatusConflict,
			}
		}
		return domain.Board{}, fmt.Errorf("failed to insert board: %w", err)
	}
	return board, nil
}

func (s *Storage) getBoard(ctx context.Context, q Querier, name domain.BoardName) (domain.Board, error) {
	var board domain.Board
	err := q.QueryRowContext(ctx,
		"SELECT name, creator_id, description, created_at, updated_at FROM boards WHERE name = $1",
		name,
	).Scan(&board.Name, &board.CreatorId, &board.Description, &board.CreatedAt, &board.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Board{}, internal_errors.NotFound("board", name)
		}
		return domain.Board{}, fmt.Errorf("failed to fetch board: %w", err)
	}
	return board, nil
}

func (s *Storage) listBoards(ctx context.Context, q Querier) ([]domain.Board, error) {
	rows, err := q.QueryContext(ctx, "SELECT name, creator_id, description, created_at, updated_at FROM boards ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to list boards: %w", err)
	}
	defer rows.Close()

	boards := []domain.Board{}
	for rows.Next() {
		var board domain.Board
		if err := rows.Scan(&board.Name, &board.CreatorId, &board.Description, &board.CreatedAt, &board.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan board: %w", err)
		}
		boards = append(boards, board)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return boards, nil
}

func (s *Storage) updateBoard(ctx context.Context, q Querier, name domain.BoardName, description string) (domain.Board, error) {
	result, err := q.ExecContext(ctx,
		"UPDATE boards SET description = $2, updated_at = NOW() WHERE name = $1",
		name, description,
	)
	if err != nil {
		return domain.Board{}, fmt.Errorf("failed to update board: %w", err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return domain.Board{}, internal_errors.NotFound("board", name)
	}
	return s.getBoard(ctx, q, name)
}

func (s *Storage) deleteBoard(ctx context.Context, q Querier, name domain.BoardName) ([]domain.FileRef, error) {
	// lock the board so no thread can be added while the cascade runs
	var locked domain.BoardName
	err := q.QueryRowContext(ctx, "SELECT name FROM boards WHERE name = $1 FOR UPDATE", name).Scan(&locked)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, internal_errors.NotFound("board", name)
		}
		return nil, fmt.Errorf("failed to lock board: %w", err)
	}

	var threadIds pq.Int64Array
	err = q.QueryRowContext(ctx,
		"SELECT COALESCE(array_agg(id), '{}') FROM threads WHERE board = $1",
		name,
	).Scan(&threadIds)
	if err != nil {
		return nil, fmt.Errorf("failed to collect board threads: %w", err)
	}

	files, err := s.deleteThreads(ctx, q, []domain.ThreadId(threadIds))
	if err != nil {
		return nil, err
	}

	if _, err := q.ExecContext(ctx, "DELETE FROM boards WHERE name = $1", name); err != nil {
		return nil, fmt.Errorf("failed to delete board: %w", err)
	}
	return files, nil
}
