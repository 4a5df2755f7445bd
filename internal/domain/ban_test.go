package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBanIsActive(t *testing.T) {
	created := time.Date(2012, 1, 14, 3, 0, 0, 0, time.UTC)
	ban := Ban{UserId: 1, CreatedAt: created, Duration: 2*24*time.Hour + 3*time.Hour}

	tests := []struct {
		name   string
		now    time.Time
		active bool
	}{
		{name: "at creation", now: created, active: true},
		{name: "during ban", now: time.Date(2012, 1, 15, 0, 0, 0, 0, time.UTC), active: true},
		{name: "exactly at expiry", now: time.Date(2012, 1, 16, 6, 0, 0, 0, time.UTC), active: false},
		{name: "after expiry", now: time.Date(2012, 1, 16, 6, 0, 1, 0, time.UTC), active: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.active, ban.IsActive(tt.now))
		})
	}
}

func TestBanTimeLeft(t *testing.T) {
	created := time.Date(2012, 1, 14, 3, 0, 0, 0, time.UTC)
	ban := Ban{CreatedAt: created, Duration: 2*24*time.Hour + 3*time.Hour}

	t.Run("hours are not folded into days", func(t *testing.T) {
		now := created.Add(10*time.Minute + 30*time.Second)
		assert.Equal(t, "50 hours 49 minutes and 30 seconds left", ban.TimeLeft(now))
	})

	t.Run("expired ban has nothing left", func(t *testing.T) {
		now := created.Add(100 * time.Hour)
		assert.Equal(t, "0 hours 0 minutes and 0 seconds left", ban.TimeLeft(now))
	})
}
