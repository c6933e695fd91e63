package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/aora/backend/internal/auth"
	"github.com/aora/backend/internal/db"
)

// PostgresSessionStore persists sessions to PostgreSQL. Appwrite secrets are
// sealed before they are written.
type PostgresSessionStore struct {
	pool db.Pool
	box  *auth.SecretBox
}

// NewPostgresSessionStore constructs a session store backed by PostgreSQL.
func NewPostgresSessionStore(pool db.Pool, box *auth.SecretBox) *PostgresSessionStore {
	if box == nil {
		panic("repositories: secret box must not be nil")
	}
	return &PostgresSessionStore{pool: pool, box: box}
}

// Save stores or updates a session record.
func (s *PostgresSessionStore) Save(ctx context.Context, session auth.Session) error {
	sealed, err := s.box.Seal(session.Secret)
	if err != nil {
		return fmt.Errorf("seal session secret: %w", err)
	}

	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO sessions (id, refresh_hash, account_id, secret, expires_at)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (id)
        DO UPDATE SET refresh_hash = EXCLUDED.refresh_hash, account_id = EXCLUDED.account_id,
            secret = EXCLUDED.secret, expires_at = EXCLUDED.expires_at
    `, session.ID, session.RefreshHash, session.AccountID, sealed, session.ExpiresAt.UTC())
	if err != nil {
		return fmt.Errorf("upsert session: %w", err)
	}

	return nil
}

// Find loads a session by id.
func (s *PostgresSessionStore) Find(ctx context.Context, id string) (auth.Session, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return auth.Session{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT id, refresh_hash, account_id, secret, expires_at
        FROM sessions
        WHERE id = $1
    `, id)

	var session auth.Session
	var sealed string
	var expiresAt time.Time
	if err := row.Scan(&session.ID, &session.RefreshHash, &session.AccountID, &sealed, &expiresAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return auth.Session{}, auth.ErrSessionNotFound
		}
		return auth.Session{}, fmt.Errorf("select session: %w", err)
	}

	secret, err := s.box.Open(sealed)
	if err != nil {
		return auth.Session{}, fmt.Errorf("open session secret: %w", err)
	}
	session.Secret = secret
	session.ExpiresAt = expiresAt.UTC()
	return session, nil
}

// Delete removes a session by id.
func (s *PostgresSessionStore) Delete(ctx context.Context, id string) error {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        DELETE FROM sessions
        WHERE id = $1
    `, id)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return auth.ErrSessionNotFound
	}

	return nil
}

// PurgeExpired deletes every session that expired before now and reports how
// many rows were removed.
func (s *PostgresSessionStore) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return 0, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        DELETE FROM sessions
        WHERE expires_at < $1
    `, now.UTC())
	if err != nil {
		return 0, fmt.Errorf("purge sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}

var _ auth.SessionStore = (*PostgresSessionStore)(nil)
