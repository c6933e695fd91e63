package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/aora/backend/internal/appwrite"
	"github.com/aora/backend/internal/auth"
	"github.com/aora/backend/internal/config"
	"github.com/aora/backend/internal/content"
	"github.com/aora/backend/internal/db"
	"github.com/aora/backend/internal/handlers"
	"github.com/aora/backend/internal/metrics"
	"github.com/aora/backend/internal/middleware"
	"github.com/aora/backend/internal/repositories"
)

const sessionPurgeInterval = time.Hour

// buildDependencies wires together concrete implementations used by the HTTP handlers.
// The returned cleanup releases connections opened for the session store.
func buildDependencies(ctx context.Context, cfg config.Config, logger *slog.Logger, m *metrics.Metrics) (handlers.Dependencies, func(), error) {
	transport := http.DefaultTransport
	if m != nil {
		transport = m.InstrumentTransport(transport)
	}
	client := appwrite.New(cfg.Appwrite, appwrite.WithHTTPClient(&http.Client{
		Timeout:   cfg.HTTPTimeout,
		Transport: otelhttp.NewTransport(transport),
	}))

	store, cleanup, err := newSessionStore(ctx, cfg, logger)
	if err != nil {
		return handlers.Dependencies{}, nil, err
	}

	key := []byte(cfg.JWTSecret)
	if len(key) == 0 {
		generated, err := auth.RandomToken()
		if err != nil {
			cleanup()
			return handlers.Dependencies{}, nil, fmt.Errorf("generate signing key: %w", err)
		}
		key = []byte(generated)
		logger.Warn("AORA_JWT_SECRET not set; access tokens will not survive a restart")
	}
	manager := auth.NewManager(cfg.AccessTTL, cfg.RefreshTTL, key, store)

	return handlers.Dependencies{
		Logger:         logger,
		Content:        content.New(client, cfg.Appwrite),
		Sessions:       manager,
		Authenticator:  manager,
		AuthLimiter:    middleware.NewIPRateLimiter(cfg.AuthRate.Requests, cfg.AuthRate.Window, cfg.AuthRate.Burst, 10*time.Minute),
		TrustProxy:     cfg.TrustProxy,
		Metrics:        m,
		MaxUploadBytes: int64(cfg.MaxUploadMB) << 20,
	}, cleanup, nil
}

func newSessionStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (auth.SessionStore, func(), error) {
	switch cfg.SessionStore {
	case config.SessionStorePostgres:
		box, err := newSecretBox(cfg, logger)
		if err != nil {
			return nil, nil, err
		}
		pool, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		store := repositories.NewPostgresSessionStore(pool, box)

		purgeCtx, cancel := context.WithCancel(context.Background())
		go purgeSessions(purgeCtx, store, sessionPurgeInterval, logger)

		return store, func() {
			cancel()
			pool.Close()
		}, nil
	case config.SessionStoreRedis:
		box, err := newSecretBox(cfg, logger)
		if err != nil {
			return nil, nil, err
		}
		client, err := repositories.OpenRedis(ctx, cfg.RedisAddr)
		if err != nil {
			return nil, nil, err
		}
		return repositories.NewRedisSessionStore(client, box), func() { _ = client.Close() }, nil
	case config.SessionStoreMemory, "":
		return auth.NewInMemorySessionStore(), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown session store %q", cfg.SessionStore)
	}
}

// newSecretBox seals session secrets for the shared stores. Without
// AORA_SESSION_KEY a per-process key is generated.
func newSecretBox(cfg config.Config, logger *slog.Logger) (*auth.SecretBox, error) {
	key := []byte(cfg.SessionKey)
	if len(key) == 0 {
		generated, err := auth.RandomToken()
		if err != nil {
			return nil, fmt.Errorf("generate session key: %w", err)
		}
		key = []byte(generated)
		logger.Warn("AORA_SESSION_KEY not set; stored sessions will not survive a restart")
	}
	return auth.NewSecretBox(key)
}

type expiredSessionPurger interface {
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

func purgeSessions(ctx context.Context, store expiredSessionPurger, interval time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := store.PurgeExpired(ctx, time.Now())
			if err != nil {
				logger.Error("purge expired sessions", "error", err)
				continue
			}
			if removed > 0 {
				logger.Info("purged expired sessions", "count", removed)
			}
		}
	}
}
