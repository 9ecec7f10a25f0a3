package orders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ariefcatur/go-canteen-orders/internal/redisx"
)

// CachedLog keeps each user's history in Redis for redisx.TTLHistory.
// Cache errors never fail a call; the underlying Log is authoritative.
type CachedLog struct {
	Log
	rdb *redis.Client
	log *zap.Logger
}

func NewCachedLog(inner Log, rdb *redis.Client, log *zap.Logger) *CachedLog {
	return &CachedLog{Log: inner, rdb: rdb, log: log}
}

var errHistoryChanged = errors.New("history changed during read")

func (c *CachedLog) Append(ctx context.Context, r Record) (Record, error) {
	saved, err := c.Log.Append(ctx, r)
	if err != nil {
		return Record{}, err
	}
	_, err = c.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Incr(ctx, fmt.Sprintf(redisx.KeyOrderHistoryGen, saved.UserID))
		p.Del(ctx, fmt.Sprintf(redisx.KeyOrderHistory, saved.UserID))
		return nil
	})
	if err != nil {
		c.log.Warn("history cache invalidate failed", zap.String("user_id", saved.UserID), zap.Error(err))
	}
	return saved, nil
}

func (c *CachedLog) FindByUser(ctx context.Context, userID string) ([]Record, error) {
	key := fmt.Sprintf(redisx.KeyOrderHistory, userID)
	genKey := fmt.Sprintf(redisx.KeyOrderHistoryGen, userID)

	raw, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var cached []Record
		if json.Unmarshal(raw, &cached) == nil {
			return cached, nil
		}
	case !errors.Is(err, redis.Nil):
		c.log.Warn("history cache read failed", zap.String("user_id", userID), zap.Error(err))
	}

	gen, genErr := generation(ctx, c.rdb, genKey)

	out, err := c.Log.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if genErr != nil {
		return out, nil
	}
	if err := c.fill(ctx, key, genKey, gen, out); err != nil && !errors.Is(err, errHistoryChanged) {
		c.log.Warn("history cache write failed", zap.String("user_id", userID), zap.Error(err))
	}
	return out, nil
}

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func generation(ctx context.Context, rdb getter, genKey string) (int64, error) {
	gen, err := rdb.Get(ctx, genKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

// fill caches out only if no Append bumped the generation since it was read.
func (c *CachedLog) fill(ctx context.Context, key, genKey string, gen int64, out []Record) error {
	b, err := json.Marshal(out)
	if err != nil {
		return err
	}
	err = c.rdb.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := generation(ctx, tx, genKey)
		if err != nil {
			return err
		}
		if cur != gen {
			return errHistoryChanged
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Set(ctx, key, b, redisx.TTLHistory)
			return nil
		})
		return err
	}, genKey)
	if errors.Is(err, redis.TxFailedErr) {
		return errHistoryChanged
	}
	return err
}
