package auth

import (
	"strings"

	"bizpilot/apperrors"
	"bizpilot/pkg/metrics"
	authsvc "bizpilot/services/auth"

	"github.com/gofiber/fiber/v2"
)

// New requires a valid token and stores the caller's email in Locals
func New(config ...Config) fiber.Handler {
	cfg := configDefault(config...)
	if cfg.Verifier == nil {
		panic("auth middleware: Verifier is required")
	}

	return func(c *fiber.Ctx) error {
		if cfg.Next != nil && cfg.Next(c) {
			return c.Next()
		}

		id, err := cfg.Verifier.Verify(c.UserContext(), extractToken(c.Get(cfg.Header)))
		if err != nil {
			return cfg.Unauthorized(c, err)
		}

		c.Locals(cfg.ContextEmail, id.Email)
		return c.Next()
	}
}

// Identity returns the identity stored by New under the default key
func Identity(c *fiber.Ctx) (authsvc.Identity, bool) {
	email, ok := c.Locals(ConfigDefault.ContextEmail).(string)
	if !ok || email == "" {
		return authsvc.Identity{}, false
	}
	return authsvc.Identity{Email: email}, true
}

func extractToken(header string) string {
	header = strings.TrimSpace(header)
	if strings.EqualFold(header, "bearer") {
		return ""
	}
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return header
}

// NewAdmin only lets requests through that carry the administrator key
func NewAdmin(config AdminConfig) fiber.Handler {
	cfg := adminConfigDefault(config)
	if cfg.Gate == nil {
		panic("admin middleware: Gate is required")
	}

	return func(c *fiber.Ctx) error {
		if cfg.Next != nil && cfg.Next(c) {
			return c.Next()
		}

		if !cfg.Gate.Check(c.Get(cfg.Header)) {
			metrics.IncrementAdminAuthFailures()
			return apperrors.NewUnauthorizedAdmin()
		}

		return c.Next()
	}
}
