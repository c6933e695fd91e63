package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aora/backend/internal/metrics"
	"github.com/aora/backend/internal/middleware"
)

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Logger         *slog.Logger
	Content        ContentService
	Sessions       SessionManager
	Authenticator  middleware.Authenticator
	AuthLimiter    middleware.RateLimiter
	TrustProxy     bool
	Metrics        *metrics.Metrics
	MaxUploadBytes int64
}

// NewRouter wires HTTP handlers into a chi router.
func NewRouter(deps Dependencies) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	health := HealthHandler{}
	authH := AuthHandler{Accounts: deps.Content, Sessions: deps.Sessions}
	account := AccountHandler{Accounts: deps.Content}
	posts := PostHandler{Posts: deps.Content, MaxUploadBytes: deps.MaxUploadBytes}
	pages := ViewHandler{}

	r := chi.NewRouter()
	r.Use(middleware.RequestLogger(logger))
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Middleware)
		r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())
	}

	r.Get("/healthz", health.Handle)
	r.Head("/healthz", health.Handle)
	r.Get("/views/empty-state", pages.EmptyState)
	r.Get("/views/info-box", pages.InfoBox)

	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimit(deps.AuthLimiter, "auth", deps.TrustProxy))
			r.Post("/auth/signup", authH.SignUp)
			r.Post("/auth/login", authH.Login)
		})
		r.Post("/auth/refresh", authH.Refresh)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate(deps.Authenticator))
			r.Post("/auth/logout", authH.Logout)
			r.Get("/me", account.Me)
			r.Get("/account", account.Account)
			r.Get("/posts", posts.List)
			r.Post("/posts", posts.Create)
			r.Get("/posts/latest", posts.Latest)
			r.Get("/posts/search", posts.Search)
			r.Get("/users/{userID}/posts", posts.ByUser)
		})
	})

	return r
}
