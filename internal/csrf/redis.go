package csrf

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore comparte tokens entre instancias vía Redis. Consume usa
// GETDEL para que el quemado sea atómico aunque dos réplicas reciban
// el mismo POST.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

func NewRedisStore(client *redis.Client, ttl time.Duration, prefix string) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if prefix == "" {
		prefix = "csrf:"
	}
	return &RedisStore{client: client, ttl: ttl, prefix: prefix}
}

func (s *RedisStore) Issue(ctx context.Context) (string, error) {
	tok, err := newToken()
	if err != nil {
		return "", err
	}
	if err := s.client.Set(ctx, s.prefix+tok, "1", s.ttl).Err(); err != nil {
		return "", err
	}
	return tok, nil
}

func (s *RedisStore) Consume(ctx context.Context, token string) bool {
	if token == "" {
		return false
	}
	val, err := s.client.GetDel(ctx, s.prefix+token).Result()
	if err != nil {
		return false
	}
	return val != ""
}
