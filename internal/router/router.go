package router

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/forumcore/forum/internal/setup"
	mw "github.com/forumcore/forum/internal/middleware"
	"github.com/forumcore/forum/internal/middleware/metrics"
	rl "github.com/forumcore/forum/internal/middleware/ratelimiter"
)

const limiterTTL = time.Hour

// New creates the chi router with all the routes. ctx stops the rate limiter
// cleanup loops.
// IMPORTANT! a limiter passed to several routes limits them combined
func New(ctx context.Context, deps *setup.Dependencies) http.Handler {
	r := chi.NewRouter()
	cfg := deps.Config.Public

	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	r.Use(metrics.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CorsOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	// JSON API only, no scripts or styles needed
	r.Use(mw.SecurityHeadersWithCSP(cfg.SecureCookies, "default-src 'none'; frame-ancestors 'none'"))

	h := deps.Handler
	authMw := deps.AuthMiddleware

	r.Get("/health", h.Health)
	r.Get("/ready", h.Ready)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/media/*", h.ServeMedia)

	// posts and threads share one per-user budget
	postLimit := mw.RateLimit(rl.NewUserRateLimiter(ctx, cfg.PostRatePerSecond, cfg.PostRateBurst, limiterTTL), mw.GetUserIDFromContext)
	loginLimit := mw.RateLimit(rl.NewUserRateLimiter(ctx, 1, 1, limiterTTL), mw.GetIPFromRequest)

	r.Route("/v1", func(v1 chi.Router) {
		v1.Route("/auth", func(auth chi.Router) {
			auth.With(loginLimit).Post("/register", h.Register)
			auth.With(loginLimit).Post("/login", h.Login)
			auth.Post("/logout", h.Logout)
		})

		// reads are open to everyone, the actor is attached when a token is present
		v1.Group(func(public chi.Router) {
			public.Use(authMw.OptionalAuth())

			public.Get("/boards", h.ListBoards)
			public.Get("/boards/{board}", h.GetBoard)
			public.Get("/boards/{board}/threads", h.ListThreads)
			public.Get("/threads", h.ListThreads)
			public.Get("/threads/{thread}", h.GetThread)
			public.Get("/posts/{post}", h.GetPost)
			public.Get("/users/{user}", h.GetProfile)
			public.Get("/users/{user}/ban", h.BanNotice)
		})

		v1.Group(func(loggedIn chi.Router) {
			loggedIn.Use(authMw.NeedAuth())

			loggedIn.Post("/boards", h.CreateBoard)
			loggedIn.Patch("/boards/{board}", h.UpdateBoard)
			loggedIn.Delete("/boards/{board}", h.DeleteBoard)

			loggedIn.With(postLimit).Post("/boards/{board}/threads", h.CreateThread)
			loggedIn.Patch("/threads/{thread}", h.UpdateThread)
			loggedIn.Delete("/threads/{thread}", h.DeleteThread)

			loggedIn.With(postLimit).Post("/threads/{thread}/posts", h.CreatePost)
			loggedIn.Put("/posts/{post}", h.UpdatePost)
			loggedIn.Delete("/posts/{post}", h.DeletePost)

			loggedIn.Get("/bans", h.ListBans)
			loggedIn.Post("/bans", h.CreateBan)
			loggedIn.Get("/bans/{ban}", h.GetBan)
			loggedIn.Patch("/bans/{ban}", h.UpdateBan)
			loggedIn.Delete("/bans/{ban}", h.DeleteBan)

			loggedIn.Get("/users/me", h.Me)
			loggedIn.Put("/users/me/avatar", h.UpdateAvatar)
			loggedIn.Get("/users/me/observed", h.ListObserved)
			loggedIn.Post("/users/me/observed/add", h.AddObserved)
			loggedIn.Post("/users/me/observed/remove", h.RemoveObserved)
		})
	})

	return r
}
