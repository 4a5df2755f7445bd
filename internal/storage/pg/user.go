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

const userColumns = `
	u.id, u.username, u.pass_hash, u.created_at,
	COALESCE((SELECT array_agg(permission ORDER BY permission) FROM user_permissions WHERE user_id = u.id), '{}')`

func scanUser(row rowScanner) (domain.User, error) {
	var (
		user  domain.User
		perms pq.StringArray
	)
	if err := row.Scan(&user.Id, &user.Username, &user.PassHash, &user.CreatedAt, &perms); err != nil {
		return domain.User{}, err
	}
	user.Permissions = []domain.Permission(perms)
	return user, nil
}

// =========================================================================
// Public Methods (satisfy the service.UserStorage interface)
// =========================================================================

// CreateUser stores the user and its profile in one transaction, so a user
// never exists without a profile.
func (s *Storage) CreateUser(ctx context.Context, username domain.Username, passHash string) (domain.UserId, error) {
	var id domain.UserId
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		id, err = s.createUser(ctx, tx, username, passHash)
		return err
	})
	return id, err
}

func (s *Storage) GetUser(ctx context.Context, id domain.UserId) (domain.User, error) {
	return s.getUser(ctx, s.db, id)
}

func (s *Storage) UserByUsername(ctx context.Context, username domain.Username) (domain.User, error) {
	user, err := scanUser(s.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users u WHERE u.username = $1", username))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.User{}, internal_errors.NotFound("user", username)
		}
		return domain.User{}, fmt.Errorf("failed to fetch user: %w", err)
	}
	return user, nil
}

func (s *Storage) GrantPermission(ctx context.Context, id domain.UserId, perm domain.Permission) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return s.grantPermission(ctx, tx, id, perm)
	})
}

// Profile returns the user's profile with observed threads ordered by recent
// activity.
func (s *Storage) Profile(ctx context.Context, id domain.UserId) (domain.UserProfile, error) {
	return s.profile(ctx, s.db, id)
}

// UpdateAvatar replaces the avatar reference and returns the previous one.
func (s *Storage) UpdateAvatar(ctx context.Context, id domain.UserId, avatar *domain.FileRef) (*domain.FileRef, error) {
	var previous *domain.FileRef
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		previous, err = s.updateAvatar(ctx, tx, id, avatar)
		return err
	})
	return previous, err
}

// =========================================================================
// Internal Methods
// =========================================================================

func (s *Storage) createUser(ctx context.Context, q Querier, username domain.Username, passHash string) (domain.UserId, error) {
	var id domain.UserId
	err := q.QueryRowContext(ctx,
		"INSERT INTO users (username, pass_hash) VALUES ($1, $2) RETURNING id",
		username, passHash,
	).Scan(&id)
	if err != nil {
		if isUniqueViolation(err, "users_username_key") {
			return 0, &internal_errors.ErrorWithStatusCode{Message: "Username is taken", StatusCode: http.StatusConflict}
		}
		return 0, fmt.Errorf("failed to insert user: %w", err)
	}

	if _, err := q.ExecContext(ctx, "INSERT INTO user_profiles (user_id) VALUES ($1)", id); err != nil {
		return 0, fmt.Errorf("failed to create profile: %w", err)
	}
	return id, nil
}

func (s *Storage) getUser(ctx context.Context, q Querier, id domain.UserId) (domain.User, error) {
	user, err := scanUser(q.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users u WHERE u.id = $1", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.User{}, internal_errors.NotFound("user", id)
		}
		return domain.User{}, fmt.Errorf("failed to fetch user: %w", err)
	}
	return user, nil
}

func (s *Storage) grantPermission(ctx context.Context, q Querier, id domain.UserId, perm domain.Permission) error {
	if _, err := s.getUser(ctx, q, id); err != nil {
		return err
	}
	_, err := q.ExecContext(ctx,
		"INSERT INTO user_permissions (user_id, permission) VALUES ($1, $2) ON CONFLICT DO NOTHING",
		id, perm,
	)
	if err != nil {
		return fmt.Errorf("failed to grant permission: %w", err)
	}
	return nil
}

func (s *Storage) profile(ctx context.Context, q Querier, id domain.UserId) (domain.UserProfile, error) {
	var (
		profile domain.UserProfile
		avatar  sql.NullString
	)
	err := q.QueryRowContext(ctx, `
		SELECT u.id, u.username, p.avatar
		FROM users u
		JOIN user_profiles p ON p.user_id = u.id
		WHERE u.id = $1`,
		id,
	).Scan(&profile.UserId, &profile.Username, &avatar)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.UserProfile{}, internal_errors.NotFound("user", id)
		}
		return domain.UserProfile{}, fmt.Errorf("failed to fetch profile: %w", err)
	}
	profile.Avatar = stringPtr(avatar)

	profile.ObservedThreads, err = s.observedThreads(ctx, q, id)
	if err != nil {
		return domain.UserProfile{}, err
	}
	return profile, nil
}

func (s *Storage) updateAvatar(ctx context.Context, q Querier, id domain.UserId, avatar *domain.FileRef) (*domain.FileRef, error) {
	var previous sql.NullString
	err := q.QueryRowContext(ctx,
		"SELECT avatar FROM user_profiles WHERE user_id = $1 FOR UPDATE",
		id,
	).Scan(&previous)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, internal_errors.NotFound("user", id)
		}
		return nil, fmt.Errorf("failed to fetch profile: %w", err)
	}

	if _, err := q.ExecContext(ctx, "UPDATE user_profiles SET avatar = $2 WHERE user_id = $1", id, nullableString(avatar)); err != nil {
		return nil, fmt.Errorf("failed to update avatar: %w", err)
	}
	return stringPtr(previous), nil
}
