package dedup

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// IMessageDeduper filters webhook retries. Gateways redeliver message events
// on timeouts, so the webhook checks each message id once before enqueueing.
type IMessageDeduper interface {
	Seen(ctx context.Context, messageId string) (bool, error)
}

type redisDeduper struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisDeduper(rdb *redis.Client, ttl time.Duration) IMessageDeduper {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &redisDeduper{rdb: rdb, ttl: ttl}
}

func (d *redisDeduper) Seen(ctx context.Context, messageId string) (bool, error) {
	stored, err := d.rdb.SetNX(ctx, "wa:msg:"+messageId, 1, d.ttl).Result()
	if err != nil {
		return false, err
	}
	return !stored, nil
}
