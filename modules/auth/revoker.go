package auth

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const revokerTimeout = 3 * time.Second

// TokenRevoker tracks revoked token ids until they expire.
type TokenRevoker interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
	Close() error
}

// MemoryTokenRevoker keeps revocations in process memory.
type MemoryTokenRevoker struct {
	mu     sync.Mutex
	tokens map[string]time.Time
}

// NewMemoryTokenRevoker builds an in-memory revoker.
func NewMemoryTokenRevoker() *MemoryTokenRevoker {
	return &MemoryTokenRevoker{
		tokens: make(map[string]time.Time),
	}
}

// Revoke marks a token id as revoked for ttl.
func (r *MemoryTokenRevoker) Revoke(_ context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	for id, expiry := range r.tokens {
		if now.After(expiry) {
			delete(r.tokens, id)
		}
	}
	r.tokens[tokenID] = now.Add(ttl)
	return nil
}

// IsRevoked reports whether the token id is still revoked.
func (r *MemoryTokenRevoker) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	expiry, ok := r.tokens[tokenID]
	if !ok {
		return false, nil
	}
	if time.Now().After(expiry) {
		delete(r.tokens, tokenID)
		return false, nil
	}
	return true, nil
}

// Close is a no-op.
func (r *MemoryTokenRevoker) Close() error {
	return nil
}

// RedisTokenRevoker stores revocations in Redis with a TTL.
type RedisTokenRevoker struct {
	client *redis.Client
}

// NewRedisTokenRevoker builds a Redis-backed revoker.
func NewRedisTokenRevoker(addr, password string) *RedisTokenRevoker {
	return &RedisTokenRevoker{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
		}),
	}
}

// Revoke marks a token id as revoked for ttl.
func (r *RedisTokenRevoker) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, revokerTimeout)
	defer cancel()
	return r.client.Set(ctx, revocationKey(tokenID), "1", ttl).Err()
}

// IsRevoked reports whether the token id is still revoked.
func (r *RedisTokenRevoker) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, revokerTimeout)
	defer cancel()
	n, err := r.client.Exists(ctx, revocationKey(tokenID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Ping checks the Redis connection.
func (r *RedisTokenRevoker) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, revokerTimeout)
	defer cancel()
	return r.client.Ping(ctx).Err()
}

// Close closes the Redis client.
func (r *RedisTokenRevoker) Close() error {
	return r.client.Close()
}

func revocationKey(tokenID string) string {
	return "revoked:" + tokenID
}
