package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cory-johannsen/fitquest/internal/config"
)

const sessionKeyPrefix = "fitquest:session:"

// SessionStore tracks which issued tokens are still live so logout can revoke them.
type SessionStore struct {
	client redis.Cmdable
	now    func() time.Time
}

// NewSessionStore creates a SessionStore on the given Redis client.
func NewSessionStore(client redis.Cmdable) *SessionStore {
	return &SessionStore{client: client, now: time.Now}
}

func sessionKey(id string) string {
	return sessionKeyPrefix + id
}

// Start records a session that lives until the token expires.
//
// Precondition: c must come from Issuer.Issue.
// Postcondition: Verify succeeds for c until it expires or is revoked.
func (s *SessionStore) Start(ctx context.Context, c Claims) error {
	ttl := c.TTL(s.now())
	if ttl <= 0 {
		return ErrTokenExpired
	}
	if err := s.client.Set(ctx, sessionKey(c.SessionID), c.UserID, ttl).Err(); err != nil {
		return fmt.Errorf("storing session: %w", err)
	}
	return nil
}

// Verify confirms that the session named by c is still live and belongs to c.UserID.
//
// Postcondition: Returns nil or ErrSessionNotFound.
func (s *SessionStore) Verify(ctx context.Context, c Claims) error {
	raw, err := s.client.Get(ctx, sessionKey(c.SessionID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrSessionNotFound
		}
		return fmt.Errorf("loading session: %w", err)
	}
	owner, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || owner != c.UserID {
		return ErrSessionNotFound
	}
	return nil
}

// Revoke ends a session. Revoking an unknown session returns ErrSessionNotFound.
func (s *SessionStore) Revoke(ctx context.Context, sessionID string) error {
	n, err := s.client.Del(ctx, sessionKey(sessionID)).Result()
	if err != nil {
		return fmt.Errorf("revoking session: %w", err)
	}
	if n == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// Ping reports whether Redis is reachable.
func (s *SessionStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// NewRedisClient connects to the Redis server named in cfg.
//
// Postcondition: Returns a client that answered PING, or a non-nil error.
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	if cfg.Addr == "" {
		return nil, errors.New("redis: addr is required")
	}
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}
	return client, nil
}
