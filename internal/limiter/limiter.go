// Package limiter caps how often a room may start code runs. Counters
// live in Redis so the limit holds across restarts.
package limiter

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rx3lixir/codetogether/pkg/logger"
)

// Limiter reports whether another request under key is allowed.
type Limiter interface {
	Allow(ctx context.Context, key string) bool
}

// Unlimited allows everything. It is used when Redis is not configured.
type Unlimited struct{}

func (Unlimited) Allow(context.Context, string) bool { return true }

// fixedWindow increments the counter and starts its expiry on the first
// hit of a window.
var fixedWindow = redis.NewScript(`
	local current = redis.call("INCR", KEYS[1])
	if current == 1 then
		redis.call("EXPIRE", KEYS[1], ARGV[2])
	end
	if current > tonumber(ARGV[1]) then
		return 0
	end
	return 1
`)

// RedisLimiter is a fixed-window counter. Redis errors let the request
// through.
type RedisLimiter struct {
	rdb    redis.Scripter
	prefix string
	limit  int
	window time.Duration
	log    *logger.Logger
}

func NewRedisLimiter(rdb redis.Scripter, limit int, window time.Duration, log *logger.Logger) *RedisLimiter {
	return &RedisLimiter{
		rdb:    rdb,
		prefix: "codetogether:runs:",
		limit:  limit,
		window: window,
		log:    log,
	}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) bool {
	ok, err := l.allow(ctx, key)
	if err != nil {
		l.log.Warn("rate limiter unavailable, allowing request", "key", key, "error", err)
		return true
	}
	return ok
}

func (l *RedisLimiter) allow(ctx context.Context, key string) (bool, error) {
	seconds := int(l.window / time.Second)
	if seconds < 1 {
		seconds = 1
	}

	result, err := fixedWindow.Run(ctx, l.rdb, []string{l.prefix + key}, l.limit, seconds).Int()
	if err != nil {
		return false, fmt.Errorf("run limit script: %w", err)
	}
	return result == 1, nil
}

type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisClient connects and pings Redis
func NewRedisClient(parentCtx context.Context, opts RedisOptions) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(parentCtx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis connection test failed: %w", err)
	}
	return client, nil
}
