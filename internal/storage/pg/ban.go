package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/forumcore/forum/internal/domain"
	internal_errors "github.com/forumcore/forum/internal/errors"
)

// Ban durations are stored as whole microseconds, which is the resolution of
// a postgres interval.
const banColumns = "id, user_id, reason, created_at, duration_us"

const banActive = "created_at + duration_us * INTERVAL '1 microsecond' > $2"

func scanBan(row rowScanner) (*domain.Ban, error) {
	var (
		ban        domain.Ban
		durationUs int64
	)
	if err := row.Scan(&ban.Id, &ban.UserId, &ban.Reason, &ban.CreatedAt, &durationUs); err != nil {
		return nil, err
	}
	ban.Duration = time.Duration(durationUs) * time.Microsecond
	return &ban, nil
}

// =========================================================================
// Public Methods (satisfy the service.BanStorage interface)
// =========================================================================

func (s *Storage) CreateBan(ctx context.Context, data domain.BanCreationData) (domain.Ban, error) {
	var ban domain.Ban
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		ban, err = s.createBan(ctx, tx, data)
		return err
	})
	return ban, err
}

func (s *Storage) GetBan(ctx context.Context, id domain.BanId) (domain.Ban, error) {
	return s.getBan(ctx, s.db, id)
}

// ListBans returns bans newest first. A nil user lists every ban.
func (s *Storage) ListBans(ctx context.Context, userId *domain.UserId) ([]domain.Ban, error) {
	return s.listBans(ctx, s.db, userId)
}

func (s *Storage) UpdateBan(ctx context.Context, data domain.BanUpdateData) (domain.Ban, error) {
	var ban domain.Ban
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		ban, err = s.updateBan(ctx, tx, data)
		return err
	})
	return ban, err
}

func (s *Storage) DeleteBan(ctx context.Context, id domain.BanId) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return s.deleteBan(ctx, tx, id)
	})
}

// HasActiveBan reports whether any ban of the user is still running at now.
func (s *Storage) HasActiveBan(ctx context.Context, userId domain.UserId, now time.Time) (bool, error) {
	return s.hasActiveBan(ctx, s.db, userId, now)
}

// MostRecentActiveBan returns the latest created ban that is active at now,
// or nil when there is none.
func (s *Storage) MostRecentActiveBan(ctx context.Context, userId domain.UserId, now time.Time) (*domain.Ban, error) {
	return s.mostRecentActiveBan(ctx, s.db, userId, now)
}

// =========================================================================
// Internal Methods
// =========================================================================

func (s *Storage) createBan(ctx context.Context, q Querier, data domain.BanCreationData) (domain.Ban, error) {
	var exists bool
	if err := q.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)", data.UserId).Scan(&exists); err != nil {
		return domain.Ban{}, fmt.Errorf("failed to check user: %w", err)
	}
	if !exists {
		return domain.Ban{}, internal_errors.NotFound("user", data.UserId)
	}

	row := q.QueryRowContext(ctx, `
		INSERT INTO bans (user_id, reason, duration_us)
		VALUES ($1, $2, $3)
		RETURNING `+banColumns,
		data.UserId, data.Reason, data.Duration.Microseconds(),
	)
	ban, err := scanBan(row)
	if err != nil {
		return domain.Ban{}, fmt.Errorf("failed to insert ban: %w", err)
	}
	return *ban, nil
}

func (s *Storage) getBan(ctx context.Context, q Querier, id domain.BanId) (domain.Ban, error) {
	ban, err := scanBan(q.QueryRowContext(ctx, "SELECT "+banColumns+" FROM bans WHERE id = $1", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Ban{}, internal_errors.NotFound("ban", id)
		}
		return domain.Ban{}, fmt.Errorf("failed to fetch ban: %w", err)
	}
	return *ban, nil
}

func (s *Storage) listBans(ctx context.Context, q Querier, userId *domain.UserId) ([]domain.Ban, error) {
	var user sql.NullInt64
	if userId != nil {
		user = sql.NullInt64{Int64: *userId, Valid: true}
	}
	rows, err := q.QueryContext(ctx, `
		SELECT `+banColumns+`
		FROM bans
		WHERE $1::bigint IS NULL OR user_id = $1
		ORDER BY created_at DESC, id DESC`,
		user,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list bans: %w", err)
	}
	defer rows.Close()

	bans := []domain.Ban{}
	for rows.Next() {
		ban, err := scanBan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ban: %w", err)
		}
		bans = append(bans, *ban)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return bans, nil
}

func (s *Storage) updateBan(ctx context.Context, q Querier, data domain.BanUpdateData) (domain.Ban, error) {
	var (
		reason   sql.NullString
		duration sql.NullInt64
	)
	if data.Reason != nil {
		reason = sql.NullString{String: *data.Reason, Valid: true}
	}
	if data.Duration != nil {
		duration = sql.NullInt64{Int64: data.Duration.Microseconds(), Valid: true}
	}
	row := q.QueryRowContext(ctx, `
		UPDATE bans SET
			reason = COALESCE($2, reason),
			duration_us = COALESCE($3, duration_us)
		WHERE id = $1
		RETURNING `+banColumns,
		data.Id, reason, duration,
	)
	ban, err := scanBan(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Ban{}, internal_errors.NotFound("ban", data.Id)
		}
		return domain.Ban{}, fmt.Errorf("failed to update ban: %w", err)
	}
	return *ban, nil
}

func (s *Storage) deleteBan(ctx context.Context, q Querier, id domain.BanId) error {
	result, err := q.ExecContext(ctx, "DELETE FROM bans WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete ban: %w", err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return internal_errors.NotFound("ban", id)
	}
	return nil
}

func (s *Storage) hasActiveBan(ctx context.Context, q Querier, userId domain.UserId, now time.Time) (bool, error) {
	var active bool
	err := q.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM bans WHERE user_id = $1 AND "+banActive+")",
		userId, now,
	).Scan(&active)
	if err != nil {
		return false, fmt.Errorf("failed to check ban status: %w", err)
	}
	return active, nil
}

func (s *Storage) mostRecentActiveBan(ctx context.Context, q Querier, userId domain.UserId, now time.Time) (*domain.Ban, error) {
	row := q.QueryRowContext(ctx, `
		SELECT `+banColumns+`
		FROM bans
		WHERE user_id = $1 AND `+banActive+`
		ORDER BY created_at DESC, id DESC
		LIMIT 1`,
		userId, now,
	)
	ban, err := scanBan(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch active ban: %w", err)
	}
	return ban, nil
}
