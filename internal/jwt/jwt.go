package jwt

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/forumcore/forum/internal/domain"
	internal_errors "github.com/forumcore/forum/internal/errors"
	"github.com/forumcore/forum/internal/logger"

	"github.com/golang-jwt/jwt/v5"
)

type JwtService interface {
	NewToken(user domain.User) (string, error)
	DecodeToken(jwtStr string) (*jwt.Token, error)
}

type Jwt struct {
	secretKey string
	ttl       time.Duration
}

func New(secretKey string, ttl time.Duration) JwtService {
	return &Jwt{secretKey, ttl}
}

func (j *Jwt) NewToken(user domain.User) (string, error) {
	perms := user.Permissions
	if perms == nil {
		perms = []domain.Permission{}
	}
	claims := jwt.MapClaims{}
	claims["uid"] = user.Id
	claims["username"] = user.Username
	claims["perms"] = perms
	claims["exp"] = time.Now().Add(j.ttl).Unix()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(j.secretKey))
	if err != nil {
		logger.Log.Error("failed to sign token", "error", err)
		return "", errors.New("Can't create token")
	}

	return tokenString, nil
}

func (j *Jwt) DecodeToken(jwtStr string) (*jwt.Token, error) {
	token, err := jwt.Parse(jwtStr, func(token *jwt.Token) (interface{}, error) {
		// Verify signing algorithm
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, &internal_errors.ErrorWithStatusCode{Message: fmt.Sprintf("Unexpected signing method: %v", token.Header["alg"]), StatusCode: http.StatusUnauthorized}
		}
		return []byte(j.secretKey), nil
	})
	if err != nil {
		logger.Log.Debug("token rejected", "error", err)
		return nil, &internal_errors.ErrorWithStatusCode{Message: "Invalid token signature", StatusCode: http.StatusUnauthorized}
	}

	if !token.Valid {
		return nil, &internal_errors.ErrorWithStatusCode{Message: "Invalid access token", StatusCode: http.StatusUnauthorized}
	}

	return token, nil
}

var errInvalidClaims = &internal_errors.ErrorWithStatusCode{Message: "Invalid token claims", StatusCode: http.StatusUnauthorized}

// ActorFromToken reads the identity carried by a decoded token.
func ActorFromToken(token *jwt.Token) (*domain.Actor, error) {
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errInvalidClaims
	}

	uidFloat, ok := claims["uid"].(float64)
	if !ok {
		return nil, errInvalidClaims
	}
	username, _ := claims["username"].(string)

	rawPerms, ok := claims["perms"].([]interface{})
	if !ok {
		return nil, errInvalidClaims
	}
	perms := make([]domain.Permission, 0, len(rawPerms))
	for _, p := range rawPerms {
		perm, ok := p.(string)
		if !ok {
			return nil, errInvalidClaims
		}
		perms = append(perms, perm)
	}

	return &domain.Actor{Id: int64(uidFloat), Username: username, Permissions: perms}, nil
}
