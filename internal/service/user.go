package service

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"slices"

	"github.com/forumcore/forum/internal/domain"
	internal_errors "github.com/forumcore/forum/internal/errors"
	"github.com/forumcore/forum/internal/logger"

	"golang.org/x/crypto/bcrypt"
)

const (
	minPasswordLen = 8
	// bcrypt ignores everything past 72 bytes
	maxPasswordLen = 72
)

var usernameRe = regexp.MustCompile(`^[A-Za-z0-9_]{3,32}$`)

type UserService interface {
	Register(ctx context.Context, creds domain.Credentials) (domain.UserId, error)
	Login(ctx context.Context, creds domain.Credentials) (string, error)
	Profile(ctx context.Context, id domain.UserId) (domain.UserProfile, error)
	UpdateAvatar(ctx context.Context, id domain.UserId, file *domain.PendingFile) (domain.UserProfile, error)
	GrantPermission(ctx context.Context, id domain.UserId, perm domain.Permission) error
}

type User struct {
	storage UserStorage
	media   MediaStorage
	jwt     Jwt
}

type UserStorage interface {
	CreateUser(ctx context.Context, username domain.Username, passHash string) (domain.UserId, error)
	UserByUsername(ctx context.Context, username domain.Username) (domain.User, error)
	GrantPermission(ctx context.Context, id domain.UserId, perm domain.Permission) error
	Profile(ctx context.Context, id domain.UserId) (domain.UserProfile, error)
	UpdateAvatar(ctx context.Context, id domain.UserId, avatar *domain.FileRef) (*domain.FileRef, error)
}

type Jwt interface {
	NewToken(user domain.User) (string, error)
}

func NewUser(storage UserStorage, media MediaStorage, jwt Jwt) UserService {
	return &User{storage: storage, media: media, jwt: jwt}
}

// Register creates a user and its empty profile.
func (u *User) Register(ctx context.Context, creds domain.Credentials) (domain.UserId, error) {
	if !usernameRe.MatchString(creds.Username) {
		return 0, &internal_errors.ValidationError{Message: "username must be 3-32 letters, digits or underscores"}
	}
	if len(creds.Password) < minPasswordLen || len(creds.Password) > maxPasswordLen {
		return 0, &internal_errors.ValidationError{
			Message: fmt.Sprintf("password must be %d-%d bytes long", minPasswordLen, maxPasswordLen),
		}
	}

	passHash, err := bcrypt.GenerateFromPassword([]byte(creds.Password), bcrypt.DefaultCost)
	if err != nil {
		logger.Log.Error("failed to hash password", "error", err)
		return 0, err
	}

	id, err := u.storage.CreateUser(ctx, creds.Username, string(passHash))
	if err != nil {
		return 0, err
	}
	logger.Log.Info("user registered", "user_id", id, "username", creds.Username)
	return id, nil
}

// Login checks the credentials and returns an access token.
// Unknown users and wrong passwords produce the same error.
func (u *User) Login(ctx context.Context, creds domain.Credentials) (string, error) {
	invalid := &internal_errors.ErrorWithStatusCode{Message: "Invalid credentials", StatusCode: http.StatusUnauthorized}

	user, err := u.storage.UserByUsername(ctx, creds.Username)
	if err != nil {
		// to not leak existing users
		if internal_errors.Is[*internal_errors.NotFoundError](err) {
			return "", invalid
		}
		return "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PassHash), []byte(creds.Password)); err != nil {
		logger.Log.Debug("password verification failed", "user_id", user.Id)
		return "", invalid
	}

	token, err := u.jwt.NewToken(user)
	if err != nil {
		logger.Log.Error("failed to create jwt token", "user_id", user.Id, "error", err)
		return "", err
	}
	return token, nil
}

func (u *User) Profile(ctx context.Context, id domain.UserId) (domain.UserProfile, error) {
	return u.storage.Profile(ctx, id)
}

// UpdateAvatar stores the new avatar and removes the previous one.
// A nil file clears the avatar.
func (u *User) UpdateAvatar(ctx context.Context, id domain.UserId, file *domain.PendingFile) (domain.UserProfile, error) {
	ref, err := saveUpload(u.media, avatarMediaDir, file)
	if err != nil {
		return domain.UserProfile{}, err
	}

	previous, err := u.storage.UpdateAvatar(ctx, id, ref)
	if err != nil {
		discardUpload(u.media, ref)
		return domain.UserProfile{}, err
	}
	discardUpload(u.media, previous)

	return u.storage.Profile(ctx, id)
}

func (u *User) GrantPermission(ctx context.Context, id domain.UserId, perm domain.Permission) error {
	if !slices.Contains(domain.KnownPermissions, perm) {
		return &internal_errors.ValidationError{Message: fmt.Sprintf("unknown permission %q", perm)}
	}
	if err := u.storage.GrantPermission(ctx, id, perm); err != nil {
		return err
	}
	logger.Log.Info("permission granted", "user_id", id, "permission", perm)
	return nil
}
