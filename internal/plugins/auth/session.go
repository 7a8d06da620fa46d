package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/keyxmakerx/bookdir/internal/apperror"
)

// sessionKeyPrefix is the Redis key prefix for session data.
const sessionKeyPrefix = "session:"

// sessionTokenBytes is the number of random bytes in a session token.
// 32 bytes = 256 bits of entropy, hex-encoded to 64 characters.
const sessionTokenBytes = 32

// SessionStore keeps server-side session records keyed by opaque token.
type SessionStore interface {
	// Create stores a new session for userID and returns its token.
	Create(ctx context.Context, userID string) (string, error)

	// Resolve returns the session behind token, or an Unauthorized error if
	// the token is empty, unknown or expired.
	Resolve(ctx context.Context, token string) (*Session, error)

	// Destroy removes the session. Destroying a missing session is not an error.
	Destroy(ctx context.Context, token string) error
}

// redisSessionStore implements SessionStore with one Redis key per session,
// expired by Redis itself after the TTL.
type redisSessionStore struct {
	redis *redis.Client
	ttl   time.Duration
	now   func() time.Time
}

// NewRedisSessionStore creates a Redis-backed session store.
func NewRedisSessionStore(rdb *redis.Client, ttl time.Duration) SessionStore {
	return &redisSessionStore{
		redis: rdb,
		ttl:   ttl,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Create generates a random token and stores the session under it.
func (s *redisSessionStore) Create(ctx context.Context, userID string) (string, error) {
	token, err := generateSessionToken()
	if err != nil {
		return "", fmt.Errorf("generating session token: %w", err)
	}

	now := s.now()
	data, err := json.Marshal(Session{
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	})
	if err != nil {
		return "", fmt.Errorf("marshaling session: %w", err)
	}

	if err := s.redis.Set(ctx, sessionKeyPrefix+token, data, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("storing session in Redis: %w", err)
	}

	return token, nil
}

// Resolve looks up a session token in Redis.
func (s *redisSessionStore) Resolve(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, apperror.NewUnauthorized("please log in first")
	}

	data, err := s.redis.Get(ctx, sessionKeyPrefix+token).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, apperror.NewUnauthorized("session expired or invalid")
	}
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("reading session from Redis: %w", err))
	}

	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("unmarshaling session: %w", err))
	}

	// Redis expires the key; this covers clock skew and keys written
	// without a TTL.
	if !session.ExpiresAt.IsZero() && !s.now().Before(session.ExpiresAt) {
		return nil, apperror.NewUnauthorized("session expired or invalid")
	}

	return &session, nil
}

// Destroy deletes the session key.
func (s *redisSessionStore) Destroy(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.redis.Del(ctx, sessionKeyPrefix+token).Err(); err != nil {
		return fmt.Errorf("deleting session from Redis: %w", err)
	}
	return nil
}

// generateSessionToken creates a cryptographically random hex-encoded token.
func generateSessionToken() (string, error) {
	b := make([]byte, sessionTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
