package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ErrSessionNotFound is returned when a registry entry does not exist or has
// already expired.
var ErrSessionNotFound = errors.New("session not found")

const scanBatchSize = 100

var globEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)

// SessionRepository is the refresh-token registry. Each live refresh token
// owns one key "{prefix}{username}_{token}" with an empty value and a TTL.
type SessionRepository struct {
	client *redis.Client
	prefix string
	logger *zap.Logger
}

// NewSessionRepository constructs a session registry on top of Redis.
func NewSessionRepository(client *redis.Client, prefix string, logger *zap.Logger) *SessionRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionRepository{client: client, prefix: prefix, logger: logger}
}

// Key builds the registry key for a username/token pair.
func (r *SessionRepository) Key(username, token string) string {
	return r.prefix + username + "_" + token
}

// Put registers the token, overwriting any existing entry.
func (r *SessionRepository) Put(ctx context.Context, username, token string, ttl time.Duration) error {
	key := r.Key(username, token)
	if err := r.client.Set(ctx, key, "", ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Exists reports whether the token is still registered.
func (r *SessionRepository) Exists(ctx context.Context, username, token string) (bool, error) {
	key := r.Key(username, token)
	n, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists %s: %w", key, err)
	}
	return n > 0, nil
}

// TTL returns the remaining lifetime of the entry. Missing keys, and keys
// without an expiry, yield ErrSessionNotFound.
func (r *SessionRepository) TTL(ctx context.Context, username, token string) (time.Duration, error) {
	key := r.Key(username, token)
	ttl, err := r.client.TTL(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("redis ttl %s: %w", key, err)
	}
	if ttl <= 0 {
		return 0, ErrSessionNotFound
	}
	return ttl, nil
}

// Scan returns every registry key belonging to username, following the
// cursor until the server reports completion.
func (r *SessionRepository) Scan(ctx context.Context, username string) ([]string, error) {
	pattern := globEscaper.Replace(r.prefix+username) + "_*"

	var keys []string
	iter := r.client.Scan(ctx, 0, pattern, scanBatchSize).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis scan pattern %s: %w", pattern, err)
	}

	r.logger.Debug("registry scan", zap.String("username", username), zap.Int("keys", len(keys)))
	return keys, nil
}

// Delete removes the given keys. Absent keys are ignored.
func (r *SessionRepository) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis delete %d keys: %w", len(keys), err)
	}
	return nil
}
