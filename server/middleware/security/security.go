package security

import (
	"github.com/gofiber/fiber/v2"
)

type Config struct {
	// Next defines a function to skip middleware.
	//
	// Optional. Default: nil
	Next func(c *fiber.Ctx) bool

	// NoStorePaths lists path prefixes whose responses must not be cached
	// (tokens, admin listings).
	//
	// Optional. Default: /login, /admin
	NoStorePaths []string

	// Development disables HSTS so plain http on localhost keeps working
	Development bool
}

var DefaultConfig = Config{
	NoStorePaths: []string{"/login", "/admin"},
	Development:  false,
}

// configDefault merges provided config with defaults
func configDefault(config ...Config) Config {
	if len(config) < 1 {
		return DefaultConfig
	}

	cfg := config[0]

	if cfg.NoStorePaths == nil {
		cfg.NoStorePaths = DefaultConfig.NoStorePaths
	}

	return cfg
}

// New sets the response headers appropriate for a JSON-only API
func New(config ...Config) fiber.Handler {
	cfg := configDefault(config...)

	return func(c *fiber.Ctx) error {
		if cfg.Next != nil && cfg.Next(c) {
			return c.Next()
		}

		c.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("Referrer-Policy", "no-referrer")

		if !cfg.Development {
			c.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		if hasPrefix(c.Path(), cfg.NoStorePaths) {
			c.Set(fiber.HeaderCacheControl, "no-store")
		}

		return c.Next()
	}
}

func hasPrefix(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if len(path) >= len(p) && path[:len(p)] == p {
			return true
		}
	}
	return false
}
