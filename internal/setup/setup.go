package setup

import (
	"github.com/forumcore/forum/internal/access"
	"github.com/forumcore/forum/internal/config"
	"github.com/forumcore/forum/internal/handler"
	"github.com/forumcore/forum/internal/jwt"
	"github.com/forumcore/forum/internal/markdown"
	mw "github.com/forumcore/forum/internal/middleware"
	"github.com/forumcore/forum/internal/service"
	"github.com/forumcore/forum/internal/storage/fs"
	"github.com/forumcore/forum/internal/storage/pg"
)

// Dependencies struct to hold all initialized dependencies.
type Dependencies struct {
	Storage        *pg.Storage
	Handler        *handler.Handler
	AuthMiddleware *mw.Auth
	Jwt            jwt.JwtService
	User           service.UserService
	Config         *config.Config
}

// SetupDependencies initializes all dependencies required for the application.
func SetupDependencies(cfg *config.Config) (*Dependencies, error) {
	storage, err := pg.New(cfg)
	if err != nil {
		return nil, err
	}

	media, err := fs.New(cfg.Public.MediaPath)
	if err != nil {
		storage.Cleanup()
		return nil, err
	}

	jwt := jwt.New(cfg.JwtKey(), cfg.JwtTTL())

	services := handler.Services{
		User:     service.NewUser(storage, media, jwt),
		Board:    service.NewBoard(storage, media),
		Thread:   service.NewThread(storage, media, &cfg.Public),
		Post:     service.NewPost(storage, media),
		Ban:      service.NewBan(storage, nil),
		Observed: service.NewObserved(storage),
	}
	evaluator := access.New(services.Ban)

	h := handler.New(services, media, evaluator, markdown.New(), storage, cfg)

	return &Dependencies{
		Storage:        storage,
		Handler:        h,
		AuthMiddleware: mw.NewAuth(jwt),
		Jwt:            jwt,
		User:           services.User,
		Config:         cfg,
	}, nil
}
