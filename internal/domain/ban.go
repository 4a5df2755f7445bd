package domain

import (
	"fmt"
	"time"
)

type BanCreationData struct {
	UserId   UserId
	Reason   string
	Duration time.Duration
}

type BanUpdateData struct {
	Id       BanId
	Reason   *string
	Duration *time.Duration
}

// Ban is one entry of a user's ban history. Bans are never merged and
// stay in the ledger after they expire.
type Ban struct {
	Id        BanId
	UserId    UserId
	Reason    string
	CreatedAt time.Time
	Duration  time.Duration
}

func (b *Ban) Expires() time.Time {
	return b.CreatedAt.Add(b.Duration)
}

func (b *Ban) IsActive(now time.Time) bool {
	return b.Expires().After(now)
}

// TimeLeft renders the remaining ban time as whole hours, minutes and seconds.
// Hours are not folded into days.
func (b *Ban) TimeLeft(now time.Time) string {
	left := int64(b.Expires().Sub(now) / time.Second)
	if left < 0 {
		left = 0
	}
	hours, remainder := left/3600, left%3600
	minutes, seconds := remainder/60, remainder%60
	return fmt.Sprintf("%d hours %d minutes and %d seconds left", hours, minutes, seconds)
}
