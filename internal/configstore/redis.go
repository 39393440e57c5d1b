package configstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	platformredis "vigil/internal/platform/redis"
	"vigil/pkg/platform/sentinel"
)

// Redis reads configuration values from the platform's shared redis instance.
type Redis struct {
	client *platformredis.Client
}

func NewRedis(client *platformredis.Client) *Redis {
	return &Redis{client: client}
}

func (r *Redis) Get(ctx context.Context, key string) (string, error) {
	v, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", sentinel.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("configstore get %q: %w", key, err)
	}
	return v, nil
}
