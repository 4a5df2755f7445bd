// Package ratelimiter keeps one token bucket per key.
package ratelimiter

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// UserRateLimiter manages rate limiting for many keys. Buckets idle for longer
// than the expiration time are dropped by a cleanup loop.
type UserRateLimiter struct {
	mu             sync.Mutex
	limiters       map[string]*entry
	rate           rate.Limit
	burst          int
	expirationTime time.Duration
}

// NewUserRateLimiter allows perSecond events per key with the given burst.
// The cleanup loop runs until ctx is cancelled.
func NewUserRateLimiter(ctx context.Context, perSecond float64, burst int, expirationTime time.Duration) *UserRateLimiter {
	url := &UserRateLimiter{
		limiters:       make(map[string]*entry),
		rate:           rate.Limit(perSecond),
		burst:          burst,
		expirationTime: expirationTime,
	}
	go url.cleanupLoop(ctx)
	return url
}

func (url *UserRateLimiter) Allow(key string) bool {
	return url.getLimiter(key, time.Now()).Allow()
}

func (url *UserRateLimiter) getLimiter(key string, now time.Time) *rate.Limiter {
	url.mu.Lock()
	defer url.mu.Unlock()

	e, ok := url.limiters[key]
	if !ok {
		e = &entry{limiter: rate.NewLimiter(url.rate, url.burst)}
		url.limiters[key] = e
	}
	e.lastSeen = now
	return e.limiter
}

func (url *UserRateLimiter) cleanupLoop(ctx context.Context) {
	interval := url.expirationTime / 2
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			url.cleanup(now)
		}
	}
}

// cleanup drops buckets not used since now minus the expiration time.
func (url *UserRateLimiter) cleanup(now time.Time) {
	cutoff := now.Add(-url.expirationTime)
	url.mu.Lock()
	defer url.mu.Unlock()
	for key, e := range url.limiters {
		if e.lastSeen.Before(cutoff) {
			delete(url.limiters, key)
		}
	}
}

// Len reports the number of tracked keys.
func (url *UserRateLimiter) Len() int {
	url.mu.Lock()
	defer url.mu.Unlock()
	return len(url.limiters)
}
