package limiter

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rx3lixir/codetogether/pkg/logger"
	"github.com/stretchr/testify/assert"
)

// counterScripter evaluates the fixed-window script in memory.
type counterScripter struct {
	redis.Scripter
	counts map[string]int
	keys   []string
}

func (c *counterScripter) EvalSha(_ context.Context, _ string, keys []string, args ...any) *redis.Cmd {
	c.keys = append(c.keys, keys[0])
	c.counts[keys[0]]++
	if c.counts[keys[0]] > args[0].(int) {
		return redis.NewCmdResult(int64(0), nil)
	}
	return redis.NewCmdResult(int64(1), nil)
}

func TestRedisLimiter(t *testing.T) {
	t.Run("fixed window per key", func(t *testing.T) {
		s := &counterScripter{counts: map[string]int{}}
		l := NewRedisLimiter(s, 2, time.Minute, logger.Nop())
		ctx := context.Background()

		assert.True(t, l.Allow(ctx, "room-a"))
		assert.True(t, l.Allow(ctx, "room-a"))
		assert.False(t, l.Allow(ctx, "room-a"))
		assert.True(t, l.Allow(ctx, "room-b"))

		assert.Equal(t, "codetogether:runs:room-a", s.keys[0])
	})

	t.Run("fails open when redis is unreachable", func(t *testing.T) {
		rdb := redis.NewClient(&redis.Options{
			Addr:        "127.0.0.1:1",
			DialTimeout: 50 * time.Millisecond,
			MaxRetries:  -1,
		})
		defer rdb.Close()

		l := NewRedisLimiter(rdb, 1, time.Minute, logger.Nop())
		for range 3 {
			assert.True(t, l.Allow(context.Background(), "room"))
		}
	})
}

func TestUnlimited(t *testing.T) {
	var l Limiter = Unlimited{}
	for range 100 {
		assert.True(t, l.Allow(context.Background(), "k"))
	}
}
