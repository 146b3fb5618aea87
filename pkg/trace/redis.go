package trace

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kode4food/bpmspec/pkg/log"
)

type (
	// Redis appends each phrase as a JSON document to a Redis list, so a
	// dashboard or another process can follow scenario progress
	Redis struct {
		client  redis.Cmdable
		key     string
		timeout time.Duration
	}

	// RedisOption configures a Redis sink
	RedisOption func(*Redis)
)

const DefaultRedisTimeout = 2 * time.Second

// NewRedis creates a sink that RPUSHes phrases onto key
func NewRedis(client redis.Cmdable, key string, opts ...RedisOption) *Redis {
	res := &Redis{
		client:  client,
		key:     key,
		timeout: DefaultRedisTimeout,
	}
	for _, opt := range opts {
		opt(res)
	}
	return res
}

// WithRedisTimeout bounds each push
func WithRedisTimeout(d time.Duration) RedisOption {
	return func(r *Redis) {
		r.timeout = d
	}
}

func (r *Redis) Write(p Phrase) {
	data, err := json.Marshal(p)
	if err != nil {
		slog.Warn("Failed to encode trace phrase", log.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	if err := r.client.RPush(ctx, r.key, data).Err(); err != nil {
		slog.Warn("Failed to push trace phrase",
			log.Scenario(p.Scenario),
			slog.String("key", r.key),
			log.Error(err))
	}
}

// ReadRedis loads every phrase stored under key
func ReadRedis(
	ctx context.Context, client redis.Cmdable, key string,
) ([]Phrase, error) {
	raw, err := client.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, err
	}
	res := make([]Phrase, 0, len(raw))
	for _, s := range raw {
		var p Phrase
		if err := json.Unmarshal([]byte(s), &p); err != nil {
			return nil, err
		}
		res = append(res, p)
	}
	return res, nil
}
