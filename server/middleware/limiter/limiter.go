package limiter

import (
	"math"
	"strconv"
	"sync"
	"time"

	"bizpilot/pkg/logger"

	"github.com/gofiber/fiber/v2"
)

type TokenBucket struct {
	Capacity     int64         `json:"capacity"`
	Tokens       int64         `json:"tokens"`
	RefillRate   int64         `json:"refill_rate"`
	RefillPeriod time.Duration `json:"refill_period"`
	LastRefill   time.Time     `json:"last_refill"`
	mu           sync.Mutex
}

func NewTokenBucket(capacity, refillRate int64, refillPeriod time.Duration) *TokenBucket {
	return &TokenBucket{
		Capacity:     capacity,
		Tokens:       capacity,
		RefillRate:   refillRate,
		RefillPeriod: refillPeriod,
		LastRefill:   time.Now(),
	}
}

// Take removes n tokens if that many are available
func (tb *TokenBucket) Take(n int64) bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.refill(time.Now())

	if tb.Tokens >= n {
		tb.Tokens -= n
		return true
	}
	return false
}

func (tb *TokenBucket) Remaining() int64 {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	return tb.Tokens
}

// refill must be called with mu held. LastRefill only advances by whole
// periods so partial periods are not lost.
func (tb *TokenBucket) refill(now time.Time) {
	elapsed := now.Sub(tb.LastRefill)
	if elapsed < tb.RefillPeriod {
		return
	}

	periods := int64(elapsed / tb.RefillPeriod)
	tb.Tokens += periods * tb.RefillRate
	if tb.Tokens > tb.Capacity {
		tb.Tokens = tb.Capacity
	}
	tb.LastRefill = tb.LastRefill.Add(time.Duration(periods) * tb.RefillPeriod)
}

func New(config ...Config) fiber.Handler {
	cfg := configDefault(config...)

	return func(c *fiber.Ctx) error {
		if cfg.Next != nil && cfg.Next(c) {
			return c.Next()
		}

		ctx := c.UserContext()
		key := cfg.KeyGenerator(c)

		bucket, err := cfg.Storage.Get(ctx, key)
		if err == nil && bucket == nil {
			fresh := NewTokenBucket(cfg.Capacity, cfg.RefillRate, cfg.RefillPeriod)
			var created bool
			if created, err = cfg.Storage.SetIfNotExists(ctx, key, fresh); err == nil {
				if created {
					bucket = fresh
				} else {
					bucket, err = cfg.Storage.Get(ctx, key)
				}
			}
		}
		if err != nil || bucket == nil {
			logger.WithField("key", key).WithError(err).Warn("rate limiter storage unavailable, allowing request")
			return c.Next()
		}

		took := bucket.Take(1)

		if err := cfg.Storage.Set(ctx, key, bucket); err != nil {
			logger.WithField("key", key).WithError(err).Warn("rate limiter failed to persist bucket")
		}

		c.Set("X-RateLimit-Limit", strconv.FormatInt(cfg.Capacity, 10))
		c.Set("X-RateLimit-Remaining", strconv.FormatInt(bucket.Remaining(), 10))

		if !took {
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(math.Ceil(cfg.RefillPeriod.Seconds()))))
			return cfg.LimitReachedHandler(c)
		}

		return c.Next()
	}
}
