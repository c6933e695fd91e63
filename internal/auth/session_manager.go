package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/aora/backend/internal/models"
)

var (
	// ErrSessionNotFound indicates the provided token does not map to an active session.
	ErrSessionNotFound = errors.New("session not found")
	// ErrRefreshTokenExpired indicates the refresh token has expired and cannot be used.
	ErrRefreshTokenExpired = errors.New("refresh token expired")
	// ErrInvalidToken indicates an access token that is malformed, forged or expired.
	ErrInvalidToken = errors.New("invalid access token")
)

// SessionStore persists issued sessions so they can survive process restarts.
type SessionStore interface {
	Save(ctx context.Context, session Session) error
	Find(ctx context.Context, id string) (Session, error)
	Delete(ctx context.Context, id string) error
}

// Session binds a refresh token to the Appwrite session it stands for.
// ID is the opaque record id carried in access tokens; only the SHA-256 of the
// refresh token's secret half is kept in RefreshHash.
type Session struct {
	ID          string
	RefreshHash string
	AccountID   string
	Secret      string
	ExpiresAt   time.Time
}

type accessClaims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// Manager manages the lifecycle of issued session tokens backed by a persistent store.
// Access tokens are HS256 JWTs naming the session; the session record holds
// the Appwrite secret and never leaves the server.
type Manager struct {
	accessTTL  time.Duration
	refreshTTL time.Duration
	key        []byte

	store SessionStore
	now   func() time.Time
}

// NewManager constructs a Manager that issues access and refresh tokens with the provided TTLs.
func NewManager(accessTTL, refreshTTL time.Duration, signingKey []byte, store SessionStore) *Manager {
	if store == nil {
		panic("auth: session store must not be nil")
	}
	if len(signingKey) == 0 {
		panic("auth: signing key must not be empty")
	}
	return &Manager{
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		key:        signingKey,
		store:      store,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Issue creates a new pair of access and refresh tokens for an Appwrite session.
func (m *Manager) Issue(ctx context.Context, accountID, secret string) (models.SessionTokens, error) {
	if accountID == "" {
		return models.SessionTokens{}, errors.New("account id must be provided")
	}
	if secret == "" {
		return models.SessionTokens{}, errors.New("session secret must be provided")
	}

	now := m.now()
	sessionID, err := RandomToken()
	if err != nil {
		return models.SessionTokens{}, err
	}
	refreshSecret, err := RandomToken()
	if err != nil {
		return models.SessionTokens{}, err
	}

	session := Session{
		ID:          sessionID,
		RefreshHash: hashRefreshSecret(refreshSecret),
		AccountID:   accountID,
		Secret:      secret,
		ExpiresAt:   now.Add(m.refreshTTL),
	}
	if err := m.store.Save(ctx, session); err != nil {
		return models.SessionTokens{}, fmt.Errorf("save session: %w", err)
	}

	accessExpires := now.Add(m.accessTTL)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, accessClaims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(accessExpires),
		},
	})
	accessToken, err := token.SignedString(m.key)
	if err != nil {
		return models.SessionTokens{}, fmt.Errorf("sign access token: %w", err)
	}

	return models.SessionTokens{
		AccessToken:      accessToken,
		AccessExpiresAt:  accessExpires,
		RefreshToken:     sessionID + refreshSeparator + refreshSecret,
		RefreshExpiresAt: session.ExpiresAt,
	}, nil
}

// Authenticate validates an access token and returns the session it names.
func (m *Manager) Authenticate(ctx context.Context, accessToken string) (Session, error) {
	if accessToken == "" {
		return Session{}, ErrInvalidToken
	}

	var claims accessClaims
	_, err := jwt.ParseWithClaims(accessToken, &claims, func(*jwt.Token) (any, error) {
		return m.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return Session{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	session, err := m.store.Find(ctx, claims.SessionID)
	if err != nil {
		return Session{}, err
	}
	if session.AccountID != claims.Subject {
		return Session{}, ErrInvalidToken
	}
	if m.now().After(session.ExpiresAt) {
		_ = m.store.Delete(ctx, session.ID)
		return Session{}, ErrRefreshTokenExpired
	}
	return session, nil
}

// Refresh exchanges a refresh token for a new session token pair bound to the
// same Appwrite session. The old refresh token stops working, and of two
// concurrent refreshes with the same token only one succeeds.
func (m *Manager) Refresh(ctx context.Context, refreshToken string) (models.SessionTokens, error) {
	sessionID, refreshSecret, ok := strings.Cut(refreshToken, refreshSeparator)
	if !ok || sessionID == "" || refreshSecret == "" {
		return models.SessionTokens{}, ErrSessionNotFound
	}

	session, err := m.store.Find(ctx, sessionID)
	if err != nil {
		return models.SessionTokens{}, err
	}
	want := hashRefreshSecret(refreshSecret)
	if session.RefreshHash == "" || subtle.ConstantTimeCompare([]byte(session.RefreshHash), []byte(want)) != 1 {
		return models.SessionTokens{}, ErrSessionNotFound
	}

	if m.now().After(session.ExpiresAt) {
		_ = m.store.Delete(ctx, sessionID)
		return models.SessionTokens{}, ErrRefreshTokenExpired
	}

	if err := m.store.Delete(ctx, sessionID); err != nil {
		return models.SessionTokens{}, err
	}

	return m.Issue(ctx, session.AccountID, session.Secret)
}

// Revoke removes the session with the given record id from the store.
func (m *Manager) Revoke(ctx context.Context, sessionID string) {
	if sessionID == "" {
		return
	}
	_ = m.store.Delete(ctx, sessionID)
}

// Base64url never produces a dot.
const refreshSeparator = "."

func hashRefreshSecret(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}

// RandomToken returns 32 random bytes, base64url encoded.
func RandomToken() (string, error) {
	const size = 32
	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
