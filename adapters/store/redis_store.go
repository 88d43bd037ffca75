package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/lopushok9/whatbird/core"
)

// RedisRefreshStore is a Redis implementation of the RefreshStore interface.
// Records expire on their own through the key TTL.
type RedisRefreshStore struct {
	client *redis.Client
	prefix string
}

// NewRedisRefreshStore creates a new Redis refresh store
func NewRedisRefreshStore(client *redis.Client) *RedisRefreshStore {
	return &RedisRefreshStore{
		client: client,
		prefix: "whatbird:refresh:",
	}
}

// SaveRefresh stores the record with a TTL matching its expiry
func (s *RedisRefreshStore) SaveRefresh(ctx context.Context, record *core.RefreshRecord) error {
	ttl := time.Until(record.ExpiresAt)
	if ttl <= 0 {
		// Already expired, a later consume reports it as unknown
		return nil
	}

	payload, err := json.Marshal(toRefreshRecord(record))
	if err != nil {
		return fmt.Errorf("failed to marshal refresh record: %w", err)
	}

	if err := s.client.Set(ctx, s.prefix+record.TokenHash, payload, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store refresh record: %w", err)
	}
	return nil
}

// ConsumeRefresh atomically fetches and deletes the record with GETDEL
func (s *RedisRefreshStore) ConsumeRefresh(ctx context.Context, tokenHash string) (*core.RefreshRecord, error) {
	payload, err := s.client.GetDel(ctx, s.prefix+tokenHash).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, core.ErrRefreshNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to consume refresh record: %w", err)
	}

	var rec refreshRecord
	if err := json.Unmarshal(payload, &rec); err != nil {
		return nil, fmt.Errorf("failed to decode refresh record: %w", err)
	}
	return rec.record(), nil
}

// DeleteRefresh removes the record if present
func (s *RedisRefreshStore) DeleteRefresh(ctx context.Context, tokenHash string) error {
	if err := s.client.Del(ctx, s.prefix+tokenHash).Err(); err != nil {
		return fmt.Errorf("failed to delete refresh record: %w", err)
	}
	return nil
}
