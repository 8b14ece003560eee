package leaderboard

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// cache stores computed rankings as JSON. A nil client disables it.
type cache struct {
	rdb *redis.Client
	ttl time.Duration
}

func (c cache) get(ctx context.Context, key string) ([]Entry, bool, error) {
	if c.rdb == nil {
		return nil, false, nil
	}

	raw, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var entries []Entry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, false, err
	}
	return entries, true, nil
}

func (c cache) set(ctx context.Context, key string, entries []Entry) error {
	if c.rdb == nil || c.ttl <= 0 {
		return nil
	}

	raw, err := json.Marshal(entries)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, key, raw, c.ttl).Err()
}
