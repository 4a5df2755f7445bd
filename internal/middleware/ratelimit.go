package middleware

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/forumcore/forum/internal/middleware/ratelimiter"
	"github.com/forumcore/forum/internal/utils"
)

func RateLimit(rl *ratelimiter.UserRateLimiter, getIdentity func(r *http.Request) (string, error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := getIdentity(r)
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			if !rl.Allow(identity) {
				http.Error(w, "Rate limit exceeded, try again later", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GetUserIDFromContext keys limits by user. Needs a preceding auth middleware.
func GetUserIDFromContext(r *http.Request) (string, error) {
	actor := GetUserFromContext(r)
	if actor == nil {
		return "", errors.New("Can't get user id")
	}
	return fmt.Sprintf("user_%d", actor.Id), nil
}

// GetIPFromRequest keys limits by client address, for anonymous endpoints.
func GetIPFromRequest(r *http.Request) (string, error) {
	ip, err := utils.GetIP(r)
	if err != nil {
		return "", err
	}
	return "ip_" + ip, nil
}
