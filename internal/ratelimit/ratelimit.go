// ratelimit реализует лимитирование запросов по фиксированному окну
// поверх Redis: INCR по ключу + EXPIRE на первом инкременте. Счётчик
// разделяется всеми инстансами сервиса, что даёт согласованный лимит
// при горизонтальном масштабировании.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter решает, пропускать ли очередное событие с данным ключом.
type Limiter interface {
	// Allow инкрементирует счётчик ключа и возвращает true, пока число
	// событий в текущем окне не превышает лимит.
	Allow(ctx context.Context, key string) (bool, error)
	// Close освобождает ресурсы лимитера.
	Close() error
}

// RedisLimiter — Limiter поверх Redis с фиксированным окном.
type RedisLimiter struct {
	client *redis.Client
	prefix string
	limit  int64
	window time.Duration
}

var _ Limiter = (*RedisLimiter)(nil)

// NewRedis создаёт RedisLimiter и проверяет соединение (fail-fast).
// prefix разделяет пространства ключей нескольких лимитеров на одном
// Redis (например, "auth:rl:login:" и "auth:rl:global:").
func NewRedis(ctx context.Context, redisURL, prefix string, limit int64, window time.Duration) (*RedisLimiter, error) {
	const op = "ratelimit.NewRedis"

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &RedisLimiter{
		client: client,
		prefix: prefix,
		limit:  limit,
		window: window,
	}, nil
}

// Allow реализует Limiter. EXPIRE ставится только на первом инкременте:
// окно отсчитывается от первого события, дальнейшие инкременты TTL не
// продлевают.
func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	const op = "ratelimit.RedisLimiter.Allow"

	k := l.prefix + key

	var incr *redis.IntCmd
	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, k)
		pipe.ExpireNX(ctx, k, l.window)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return incr.Val() <= l.limit, nil
}

// Close закрывает соединение с Redis.
func (l *RedisLimiter) Close() error {
	return l.client.Close()
}
