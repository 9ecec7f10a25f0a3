package redisx

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// IdempotencyStore remembers which order a client-supplied key produced.
type IdempotencyStore struct {
	rdb *redis.Client
}

func NewIdempotencyStore(rdb *redis.Client) *IdempotencyStore {
	return &IdempotencyStore{rdb: rdb}
}

// TryLock claims the key for the caller; false means another request with
// the same key is in flight or already finished.
func (s *IdempotencyStore) TryLock(ctx context.Context, scope, key string) (bool, error) {
	return Claim(ctx, s.rdb, fmt.Sprintf(KeyIdemLock, scope, key), TTLIdemLock)
}

// Unlock releases a claim whose request failed before committing, so the
// client may retry with the same key.
func (s *IdempotencyStore) Unlock(ctx context.Context, scope, key string) error {
	return s.rdb.Del(ctx, fmt.Sprintf(KeyIdemLock, scope, key)).Err()
}

func (s *IdempotencyStore) Remember(ctx context.Context, scope, key, orderID string) error {
	return s.rdb.Set(ctx, fmt.Sprintf(KeyIdemPlaceOrder, scope, key), orderID, TTLIdempotency).Err()
}

func (s *IdempotencyStore) Recall(ctx context.Context, scope, key string) (string, bool, error) {
	v, err := s.rdb.Get(ctx, fmt.Sprintf(KeyIdemPlaceOrder, scope, key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}
