package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/aora/backend/internal/appwrite"
	"github.com/aora/backend/internal/auth"
	"github.com/aora/backend/internal/logging"
)

// Authenticator resolves a bearer access token to its session.
type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (auth.Session, error)
}

type sessionCtxKey struct{}

// WithSession stores the authenticated session on the context.
func WithSession(ctx context.Context, session auth.Session) context.Context {
	return context.WithValue(ctx, sessionCtxKey{}, session)
}

// SessionFromContext returns the session stored by Authenticate.
func SessionFromContext(ctx context.Context) (auth.Session, bool) {
	session, ok := ctx.Value(sessionCtxKey{}).(auth.Session)
	return session, ok
}

// Authenticate requires a valid bearer token. The resolved session is put on
// the request context along with its Appwrite secret, so downstream Appwrite
// calls act on behalf of the caller.
func Authenticate(authenticator Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			logger := logging.FromContext(ctx)

			token, ok := bearerToken(r)
			if !ok {
				unauthorized(w, "missing bearer token")
				return
			}

			session, err := authenticator.Authenticate(ctx, token)
			if err != nil {
				logger.Warn("authentication failed", "error", err)
				unauthorized(w, "invalid or expired token")
				return
			}

			ctx = WithSession(ctx, session)
			ctx = appwrite.WithSession(ctx, session.Secret)
			ctx = logging.WithLogger(ctx, logger.With("account_id", session.AccountID))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="aora"`)
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
