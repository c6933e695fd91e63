package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/aora/backend/internal/auth"
)

const sessionKeyPrefix = "aora:session:"

// RedisSessionStore keeps one key per session and lets Redis expire it.
// Appwrite secrets are sealed before they are written.
type RedisSessionStore struct {
	client redis.UniversalClient
	box    *auth.SecretBox
	now    func() time.Time
}

// NewRedisSessionStore constructs a session store on top of an existing client.
func NewRedisSessionStore(client redis.UniversalClient, box *auth.SecretBox) *RedisSessionStore {
	if box == nil {
		panic("repositories: secret box must not be nil")
	}
	return &RedisSessionStore{
		client: client,
		box:    box,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// OpenRedis dials addr and verifies the connection.
func OpenRedis(ctx context.Context, addr string) (*redis.Client, error) {
	if addr == "" {
		return nil, errors.New("redis address must be provided")
	}

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

type redisSession struct {
	RefreshHash  string    `json:"refreshHash"`
	AccountID    string    `json:"accountId"`
	SealedSecret string    `json:"sealedSecret"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

func sessionKey(id string) string {
	return sessionKeyPrefix + id
}

// Save stores the session until it expires. Already expired sessions are not written.
func (s *RedisSessionStore) Save(ctx context.Context, session auth.Session) error {
	ttl := session.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return nil
	}

	sealed, err := s.box.Seal(session.Secret)
	if err != nil {
		return fmt.Errorf("seal session secret: %w", err)
	}

	payload, err := json.Marshal(redisSession{
		RefreshHash:  session.RefreshHash,
		AccountID:    session.AccountID,
		SealedSecret: sealed,
		ExpiresAt:    session.ExpiresAt.UTC(),
	})
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	if err := s.client.Set(ctx, sessionKey(session.ID), payload, ttl).Err(); err != nil {
		return fmt.Errorf("set session: %w", err)
	}
	return nil
}

// Find loads a session by id.
func (s *RedisSessionStore) Find(ctx context.Context, id string) (auth.Session, error) {
	payload, err := s.client.Get(ctx, sessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return auth.Session{}, auth.ErrSessionNotFound
		}
		return auth.Session{}, fmt.Errorf("get session: %w", err)
	}

	var stored redisSession
	if err := json.Unmarshal(payload, &stored); err != nil {
		return auth.Session{}, fmt.Errorf("decode session: %w", err)
	}

	secret, err := s.box.Open(stored.SealedSecret)
	if err != nil {
		return auth.Session{}, fmt.Errorf("open session secret: %w", err)
	}

	return auth.Session{
		ID:          id,
		RefreshHash: stored.RefreshHash,
		AccountID:   stored.AccountID,
		Secret:      secret,
		ExpiresAt:   stored.ExpiresAt,
	}, nil
}

// Delete removes a session by id.
func (s *RedisSessionStore) Delete(ctx context.Context, id string) error {
	removed, err := s.client.Del(ctx, sessionKey(id)).Result()
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if removed == 0 {
		return auth.ErrSessionNotFound
	}
	return nil
}

var _ auth.SessionStore = (*RedisSessionStore)(nil)
