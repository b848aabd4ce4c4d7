package realtime

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

func NewRedis(addr, password string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})
}

// PublishNotification pushes a per-recipient event onto the notifications
// channel. Best effort: callers ignore the returned error on the request
// path and only log it.
func PublishNotification(ctx context.Context, rdb *redis.Client, recipient uuid.UUID, payload interface{}) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return rdb.Publish(ctx, "notifications:"+recipient.String(), b).Err()
}
