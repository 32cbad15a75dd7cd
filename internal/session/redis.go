package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const DefaultRedisKey = "apilens:sessions"

// RedisIndex keeps the encoded record set under a single key so several
// processes can share sessions.
type RedisIndex struct {
	client redis.Cmdable
	key    string
}

func NewRedisIndex(client redis.Cmdable, key string) *RedisIndex {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisIndex{client: client, key: key}
}

func (r *RedisIndex) Load(ctx context.Context) ([]Record, error) {
	data, err := r.client.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading session index from redis: %w", err)
	}
	return decodeRecords(data)
}

func (r *RedisIndex) Save(ctx context.Context, records []Record) error {
	data, err := encodeRecords(records)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, r.key, data, 0).Err(); err != nil {
		return fmt.Errorf("writing session index to redis: %w", err)
	}
	return nil
}
