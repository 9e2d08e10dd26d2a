package verify

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

type redisStore struct {
	rdb    *redis.Client
	prefix string
}

// NewRedisStore создаёт хранилище кодов в Redis из URL
// (например, redis://:pass@host:6379/0). Если prefix пустой —
// используется "auth:vc:".
func NewRedisStore(ctx context.Context, redisURL, prefix string) (CodeStore, error) {
	if prefix == "" {
		prefix = "auth:vc:"
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	rdb := redis.NewClient(opt)

	// Fail-fast на старте.
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}

	return &redisStore{rdb: rdb, prefix: prefix}, nil
}

func (s *redisStore) key(phone string) string { return s.prefix + phone }

func (s *redisStore) Save(ctx context.Context, phone, code string, ttl time.Duration) error {
	return s.rdb.Set(ctx, s.key(phone), code, ttl).Err()
}

// Consume: чтение, сравнение, удаление при совпадении.
// Несовпадение не гасит код — у владельца остаются попытки до истечения TTL;
// одноразовость успешного кода обеспечивается DEL.
func (s *redisStore) Consume(ctx context.Context, phone, code string) (bool, error) {
	stored, err := s.rdb.Get(ctx, s.key(phone)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}

		return false, err
	}

	if !equalCodes(stored, code) {
		return false, nil
	}

	if err := s.rdb.Del(ctx, s.key(phone)).Err(); err != nil {
		return false, err
	}

	return true, nil
}

func (s *redisStore) Close() error { return s.rdb.Close() }
