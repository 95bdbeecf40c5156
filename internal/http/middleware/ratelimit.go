// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements request rate limiting with two interchangeable
// backends behind the same 429 response:
//
//   - RateLimiter: in-memory, per-key token buckets (golang.org/x/time/rate)
//     with opportunistic eviction of idle buckets. Suited to a single process.
//   - RedisRateLimiter: fixed-window counters in Redis shared by every
//     replica. It fails open when Redis is unreachable.
//
// Both skip requests that IdempotencyValidator marked as replays.
package middleware

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/tbourn/go-lifetrack-backend/internal/http/envelope"
)

// CodeRateLimited is the error code of a 429 response.
const CodeRateLimited = "RATE_LIMITED"

// KeyFunc selects the identity used to key a rate-limit bucket.
type KeyFunc func(*gin.Context) string

// KeyByUserOrIP keys by the authenticated user when known ("user:<id>"),
// otherwise by client IP ("ip:<addr>").
func KeyByUserOrIP() KeyFunc {
	return func(c *gin.Context) string {
		if uid := UserID(c); uid != "" {
			return "user:" + uid
		}
		return "ip:" + c.ClientIP()
	}
}

// IsRateBypass reports whether IdempotencyValidator marked the request as a
// replay that must not consume rate-limit tokens.
func IsRateBypass(c *gin.Context) bool {
	return c.GetBool(ctxKeyRateBypass)
}

func rejectRateLimited(c *gin.Context, retryAfter time.Duration) {
	secs := int(retryAfter.Round(time.Second).Seconds())
	if secs < 1 {
		secs = 1
	}
	c.Header("Retry-After", strconv.Itoa(secs))
	envelope.Raw(c, http.StatusTooManyRequests, envelope.ErrorBody{
		Code:    CodeRateLimited,
		Message: "Rate limit exceeded",
	})
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter is a per-key token-bucket limiter. Safe for concurrent use.
type RateLimiter struct {
	rps      rate.Limit
	burst    int
	keyFn    KeyFunc
	mu       sync.Mutex
	visitors map[string]*visitor

	ttl      time.Duration
	cleanupN uint64
}

// NewRateLimiter builds a limiter refilling rps tokens per second with the
// given burst (coerced to at least 1).
func NewRateLimiter(rps float64, burst int, keyFn KeyFunc) *RateLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{
		rps:      rate.Limit(rps),
		burst:    burst,
		keyFn:    keyFn,
		visitors: make(map[string]*visitor),
		ttl:      10 * time.Minute,
	}
}

// getVisitor returns the limiter for key, creating it if absent. Every 5000
// lookups idle buckets are evicted first, so a stale bucket is dropped even
// when it is the one being fetched.
func (rl *RateLimiter) getVisitor(key string) *rate.Limiter {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.cleanupN++
	if rl.cleanupN >= 5000 {
		for k, v := range rl.visitors {
			if now.Sub(v.lastSeen) >= rl.ttl {
				delete(rl.visitors, k)
			}
		}
		rl.cleanupN = 0
	}

	if v, ok := rl.visitors[key]; ok {
		v.lastSeen = now
		return v.limiter
	}
	lim := rate.NewLimiter(rl.rps, rl.burst)
	rl.visitors[key] = &visitor{limiter: lim, lastSeen: now}
	return lim
}

// Handler returns the limiting middleware.
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if IsRateBypass(c) || rl.getVisitor(rl.keyFn(c)).Allow() {
			c.Next()
			return
		}
		rejectRateLimited(c, time.Second)
	}
}

// RedisRateLimiter allows limit requests per key in each fixed window,
// counting in Redis so the budget is shared across replicas.
type RedisRateLimiter struct {
	client redis.UniversalClient
	limit  int64
	window time.Duration
	prefix string
	keyFn  KeyFunc

	// now is swapped in tests.
	now func() time.Time
}

// NewRedisRateLimiter builds a Redis-backed limiter. Keys are stored as
// "<prefix><identity>:<window-start-unix>".
func NewRedisRateLimiter(client redis.UniversalClient, limit int, window time.Duration, keyFn KeyFunc) *RedisRateLimiter {
	if limit <= 0 {
		limit = 1
	}
	if window <= 0 {
		window = time.Second
	}
	return &RedisRateLimiter{
		client: client,
		limit:  int64(limit),
		window: window,
		prefix: "lifetrack:rl:",
		keyFn:  keyFn,
		now:    time.Now,
	}
}

// allow increments the counter of the current window and reports whether
// the request fits in the budget, plus the time left in the window.
func (rl *RedisRateLimiter) allow(ctx context.Context, id string) (bool, time.Duration, error) {
	now := rl.now()
	start := now.Truncate(rl.window)
	key := rl.prefix + id + ":" + strconv.FormatInt(start.Unix(), 10)

	var incr *redis.IntCmd
	_, err := rl.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		incr = p.Incr(ctx, key)
		p.Expire(ctx, key, rl.window+time.Second)
		return nil
	})
	if err != nil {
		return true, 0, err
	}
	return incr.Val() <= rl.limit, start.Add(rl.window).Sub(now), nil
}

// Handler returns the limiting middleware. Redis errors are logged and the
// request is allowed.
func (rl *RedisRateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if IsRateBypass(c) {
			c.Next()
			return
		}
		ok, retry, err := rl.allow(c.Request.Context(), rl.keyFn(c))
		if err != nil {
			LoggerFrom(c).Warn().Err(err).Msg("redis rate limiter unavailable; allowing request")
		}
		if ok {
			c.Next()
			return
		}
		rejectRateLimited(c, retry)
	}
}
