package middleware

import (
	"context"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/princinho/toursbackend/apperrors"
	"github.com/princinho/toursbackend/logger"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// Limiter decides whether the caller identified by key may make another
// request.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// RateLimit rejects callers over their quota with 429. A failing limiter
// lets the request through.
func RateLimit(l Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, err := l.Allow(c.Request.Context(), c.ClientIP())
		if err != nil {
			logger.FromContext(c.Request.Context()).Warn("rate limiter unavailable", "error", err)
			c.Next()
			return
		}
		if !ok {
			c.Error(apperrors.TooManyRequests("Too many requests from this IP, please try again in an hour!"))
			c.Abort()
			return
		}
		c.Next()
	}
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// MemoryLimiter keeps one token bucket per key in process. Buckets idle for
// a full window are dropped.
type MemoryLimiter struct {
	limit  rate.Limit
	burst  int
	window time.Duration
	now    func() time.Time

	mu        sync.Mutex
	visitors  map[string]*visitor
	lastSweep time.Time
}

// NewMemoryLimiter allows maxRequests per window, refilled evenly.
func NewMemoryLimiter(maxRequests int, window time.Duration) *MemoryLimiter {
	if maxRequests < 1 {
		maxRequests = 1
	}
	return &MemoryLimiter{
		limit:    rate.Every(window / time.Duration(maxRequests)),
		burst:    maxRequests,
		window:   window,
		now:      time.Now,
		visitors: make(map[string]*visitor),
	}
}

// WithClock swaps the time source, for tests.
func (m *MemoryLimiter) WithClock(now func() time.Time) *MemoryLimiter {
	m.now = now
	return m
}

func (m *MemoryLimiter) Allow(_ context.Context, key string) (bool, error) {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	if now.Sub(m.lastSweep) > m.window {
		for k, v := range m.visitors {
			if now.Sub(v.lastSeen) > m.window {
				delete(m.visitors, k)
			}
		}
		m.lastSweep = now
	}

	v, ok := m.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(m.limit, m.burst)}
		m.visitors[key] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1), nil
}

// RedisLimiter counts requests per key in a fixed window shared by every
// instance of the API.
type RedisLimiter struct {
	client *redis.Client
	max    int64
	window time.Duration
	prefix string
}

// NewRedisLimiter allows maxRequests per window. Like NewMemoryLimiter it
// never allows fewer than one request.
func NewRedisLimiter(client *redis.Client, maxRequests int, window time.Duration) *RedisLimiter {
	if maxRequests < 1 {
		maxRequests = 1
	}
	return &RedisLimiter{client: client, max: int64(maxRequests), window: window, prefix: "ratelimit:"}
}

// Allow opens the window with its expiry and counts the request in one
// MULTI/EXEC, so a counter never exists without a TTL.
func (r *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	key = r.prefix + key
	var count *redis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SetNX(ctx, key, 0, r.window)
		count = pipe.Incr(ctx, key)
		return nil
	})
	if err != nil {
		return false, err
	}
	return count.Val() <= r.max, nil
}
