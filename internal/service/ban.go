package service

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/forumcore/forum/internal/domain"
	internal_errors "github.com/forumcore/forum/internal/errors"
	"github.com/forumcore/forum/internal/logger"
)

const maxBanReasonLen = 150

type BanService interface {
	IsBanned(ctx context.Context, userId domain.UserId) (bool, error)
	MostRecentActiveBan(ctx context.Context, userId domain.UserId) (*domain.Ban, error)
	TimeLeft(ban *domain.Ban) string

	Create(ctx context.Context, data domain.BanCreationData) (domain.Ban, error)
	Get(ctx context.Context, id domain.BanId) (domain.Ban, error)
	List(ctx context.Context, userId *domain.UserId) ([]domain.Ban, error)
	Update(ctx context.Context, data domain.BanUpdateData) (domain.Ban, error)
	Delete(ctx context.Context, id domain.BanId) error
}

// Ban is the ban ledger. Activity is always evaluated against the clock at call
// time, nothing is cached between calls.
type Ban struct {
	storage BanStorage
	now     func() time.Time
}

type BanStorage interface {
	CreateBan(ctx context.Context, data domain.BanCreationData) (domain.Ban, error)
	GetBan(ctx context.Context, id domain.BanId) (domain.Ban, error)
	ListBans(ctx context.Context, userId *domain.UserId) ([]domain.Ban, error)
	UpdateBan(ctx context.Context, data domain.BanUpdateData) (domain.Ban, error)
	DeleteBan(ctx context.Context, id domain.BanId) error
	HasActiveBan(ctx context.Context, userId domain.UserId, now time.Time) (bool, error)
	MostRecentActiveBan(ctx context.Context, userId domain.UserId, now time.Time) (*domain.Ban, error)
}

// NewBan creates the ledger. A nil clock means time.Now.
func NewBan(storage BanStorage, now func() time.Time) BanService {
	if now == nil {
		now = time.Now
	}
	return &Ban{storage: storage, now: now}
}

func (b *Ban) IsBanned(ctx context.Context, userId domain.UserId) (bool, error) {
	return b.storage.HasActiveBan(ctx, userId, b.now())
}

// MostRecentActiveBan returns the active ban created last, or nil if the user is not banned.
func (b *Ban) MostRecentActiveBan(ctx context.Context, userId domain.UserId) (*domain.Ban, error) {
	return b.storage.MostRecentActiveBan(ctx, userId, b.now())
}

func (b *Ban) TimeLeft(ban *domain.Ban) string {
	return ban.TimeLeft(b.now())
}

func (b *Ban) Create(ctx context.Context, data domain.BanCreationData) (domain.Ban, error) {
	data.Reason = strings.TrimSpace(data.Reason)
	if err := validateBan(data.Reason, data.Duration); err != nil {
		return domain.Ban{}, err
	}

	ban, err := b.storage.CreateBan(ctx, data)
	if err != nil {
		return domain.Ban{}, err
	}
	bansCreated.Inc()
	logger.Log.Info("user banned", "ban_id", ban.Id, "user_id", ban.UserId, "duration", ban.Duration)
	return ban, nil
}

func (b *Ban) Get(ctx context.Context, id domain.BanId) (domain.Ban, error) {
	return b.storage.GetBan(ctx, id)
}

func (b *Ban) List(ctx context.Context, userId *domain.UserId) ([]domain.Ban, error) {
	return b.storage.ListBans(ctx, userId)
}

func (b *Ban) Update(ctx context.Context, data domain.BanUpdateData) (domain.Ban, error) {
	if data.Reason != nil {
		reason := strings.TrimSpace(*data.Reason)
		if err := validateBanReason(reason); err != nil {
			return domain.Ban{}, err
		}
		data.Reason = &reason
	}
	if data.Duration != nil && *data.Duration <= 0 {
		return domain.Ban{}, &internal_errors.ValidationError{Message: "duration must be positive"}
	}
	return b.storage.UpdateBan(ctx, data)
}

func (b *Ban) Delete(ctx context.Context, id domain.BanId) error {
	if err := b.storage.DeleteBan(ctx, id); err != nil {
		return err
	}
	logger.Log.Info("ban deleted", "ban_id", id)
	return nil
}

func validateBan(reason string, duration time.Duration) error {
	if err := validateBanReason(reason); err != nil {
		return err
	}
	if duration <= 0 {
		return &internal_errors.ValidationError{Message: "duration must be positive"}
	}
	return nil
}

func validateBanReason(reason string) error {
	if reason == "" {
		return &internal_errors.ValidationError{Message: "reason must not be empty"}
	}
	if utf8.RuneCountInString(reason) > maxBanReasonLen {
		return &internal_errors.ValidationError{Message: "reason is too long"}
	}
	return nil
}
