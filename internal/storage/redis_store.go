package storage

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps each collection under its own key.
type RedisStore struct {
	Redis  *redis.Client
	Prefix string
}

func NewRedisStore(rdb *redis.Client, prefix string) *RedisStore {
	return &RedisStore{Redis: rdb, Prefix: prefix}
}

func (s *RedisStore) key(c Collection) string {
	return s.Prefix + string(c)
}

func (s *RedisStore) Load(ctx context.Context, c Collection) ([]byte, bool, error) {
	raw, err := s.Redis.Get(ctx, s.key(c)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return raw, true, nil
}

func (s *RedisStore) Save(ctx context.Context, c Collection, raw []byte) error {
	return s.Redis.Set(ctx, s.key(c), raw, 0).Err()
}
