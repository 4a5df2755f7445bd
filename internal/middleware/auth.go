package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/forumcore/forum/internal/domain"
	jwt_internal "github.com/forumcore/forum/internal/jwt"
	"github.com/forumcore/forum/internal/logger"
	"github.com/forumcore/forum/internal/utils"
)

// Key to store the actor in the request context
type key int

const UserClaimsKey key = 0

type Auth struct {
	jwtService jwt_internal.JwtService
}

func NewAuth(jwtService jwt_internal.JwtService) *Auth {
	return &Auth{jwtService: jwtService}
}

// NeedAuth rejects requests without a valid token.
func (a *Auth) NeedAuth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, err := a.extractActor(r)
			if err != nil {
				if err == errNoToken {
					http.Error(w, "Please sign-in", http.StatusUnauthorized)
					return
				}
				utils.WriteErrorAndStatusCode(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), UserClaimsKey, actor)))
		})
	}
}

// OptionalAuth populates the actor if the token is valid, but doesn't require auth.
func (a *Auth) OptionalAuth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, err := a.extractActor(r)
			if err != nil {
				if err != errNoToken {
					logger.Log.Debug("ignoring invalid token", "error", err)
				}
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), UserClaimsKey, actor)))
		})
	}
}

var errNoToken = errorString("no token")

type errorString string

func (e errorString) Error() string { return string(e) }

// extractActor reads the token from the accessToken cookie (browser clients)
// or the Authorization header (API clients).
func (a *Auth) extractActor(r *http.Request) (*domain.Actor, error) {
	var tokenString string
	if accessCookie, err := r.Cookie("accessToken"); err == nil {
		tokenString = accessCookie.Value
	} else if token, found := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); found {
		tokenString = token
	}
	if tokenString == "" {
		return nil, errNoToken
	}

	token, err := a.jwtService.DecodeToken(tokenString)
	if err != nil {
		return nil, err
	}
	return jwt_internal.ActorFromToken(token)
}

// GetUserFromContext returns the authenticated actor or nil for anonymous requests.
func GetUserFromContext(r *http.Request) *domain.Actor {
	actor, ok := r.Context().Value(UserClaimsKey).(*domain.Actor)
	if !ok {
		return nil
	}
	return actor
}

// WithActor attaches an actor to ctx the same way the auth middleware does.
func WithActor(ctx context.Context, actor *domain.Actor) context.Context {
	return context.WithValue(ctx, UserClaimsKey, actor)
}
