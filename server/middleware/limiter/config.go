package limiter

import (
	"time"

	"bizpilot/apperrors"
	"bizpilot/pkg/metrics"

	"github.com/gofiber/fiber/v2"
)

// Config defines the configuration for the rate limiter
type Config struct {
	// Next defines a function to skip middleware.
	//
	// Optional. Default: nil
	Next func(c *fiber.Ctx) bool

	// Max number of requests allowed in a burst
	//
	// Optional. Default: 100
	Capacity int64

	// Number of tokens to add per refill period
	//
	// Optional. Default: 10
	RefillRate int64

	// How often to refill tokens
	//
	// Optional. Default: 1 second
	RefillPeriod time.Duration

	// KeyGenerator allows you to generate custom keys for rate limiting
	//
	// Optional. Default: uses IP address
	KeyGenerator func(c *fiber.Ctx) string

	// LimitReachedHandler is called when rate limit is exceeded
	//
	// Optional. Default: returns a RATE_LIMITED AppError
	LimitReachedHandler fiber.Handler

	// Storage for buckets. When the storage fails the request is let through.
	//
	// Optional. Default: a fresh InMemoryStorage
	Storage Storage
}

// ConfigDefault provides default configuration
var ConfigDefault = Config{
	Capacity:     100,
	RefillRate:   10,
	RefillPeriod: time.Second,
	KeyGenerator: func(c *fiber.Ctx) string {
		return c.IP()
	},
	LimitReachedHandler: func(c *fiber.Ctx) error {
		metrics.IncrementRateLimitExceeded(c.Path())
		return apperrors.NewRateLimitError()
	},
}

func configDefault(config ...Config) Config {
	if len(config) < 1 {
		cfg := ConfigDefault
		cfg.Storage = NewInMemoryStorage()
		return cfg
	}

	cfg := config[0]

	if cfg.Capacity <= 0 {
		cfg.Capacity = ConfigDefault.Capacity
	}
	if cfg.RefillRate <= 0 {
		cfg.RefillRate = ConfigDefault.RefillRate
	}
	if cfg.RefillPeriod <= 0 {
		cfg.RefillPeriod = ConfigDefault.RefillPeriod
	}
	if cfg.KeyGenerator == nil {
		cfg.KeyGenerator = ConfigDefault.KeyGenerator
	}
	if cfg.LimitReachedHandler == nil {
		cfg.LimitReachedHandler = ConfigDefault.LimitReachedHandler
	}
	if cfg.Storage == nil {
		cfg.Storage = NewInMemoryStorage()
	}

	return cfg
}
