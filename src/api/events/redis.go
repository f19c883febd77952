package events

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const streamEvents = "crowdfund.events"

// RedisStream appends events to a capped redis stream.
type RedisStream struct {
	rdb    *redis.Client
	stream string
	maxLen int64
}

func NewRedisStream(rdb *redis.Client) *RedisStream {
	return &RedisStream{rdb: rdb, stream: streamEvents, maxLen: 10000}
}

func (r *RedisStream) Publish(ctx context.Context, ev Event) error {
	_, err := r.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: r.stream,
		MaxLen: r.maxLen,
		Approx: true,
		Values: map[string]interface{}{
			"type":       ev.Type,
			"entityId":   ev.EntityID,
			"campaignId": ev.CampaignID,
			"title":      ev.Title,
			"actor":      ev.Actor,
			"at":         ev.At.Format(time.RFC3339Nano),
		},
	}).Result()
	return err
}

// Close is a no-op; the redis client is shared and closed by its owner.
func (r *RedisStream) Close() error { return nil }
