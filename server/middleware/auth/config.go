package auth

import (
	"context"

	authsvc "bizpilot/services/auth"

	"github.com/gofiber/fiber/v2"
)

// TokenVerifier turns a bearer token into an identity
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (authsvc.Identity, error)
}

type Config struct {
	// Next defines a function to skip middleware.
	//
	// Optional. Default: nil
	Next func(c *fiber.Ctx) bool

	// Verifier validates the token.
	//
	// Required. Default: nil
	Verifier TokenVerifier

	// Header is the request header carrying the token. Both "<token>" and
	// "Bearer <token>" are accepted.
	//
	// Optional. Default: "Authorization"
	Header string

	// ContextEmail is the key to store the verified email in Locals
	//
	// Optional. Default: "email"
	ContextEmail string

	// Unauthorized is called with the verification error.
	//
	// Optional. Default: returns the error to the app error handler
	Unauthorized func(c *fiber.Ctx, err error) error
}

var ConfigDefault = Config{
	Next:         nil,
	Verifier:     nil,
	Header:       fiber.HeaderAuthorization,
	ContextEmail: "email",
	Unauthorized: func(c *fiber.Ctx, err error) error {
		return err
	},
}

func configDefault(config ...Config) Config {
	if len(config) < 1 {
		return ConfigDefault
	}

	cfg := config[0]

	if cfg.Header == "" {
		cfg.Header = ConfigDefault.Header
	}
	if cfg.ContextEmail == "" {
		cfg.ContextEmail = ConfigDefault.ContextEmail
	}
	if cfg.Unauthorized == nil {
		cfg.Unauthorized = ConfigDefault.Unauthorized
	}

	return cfg
}

// AdminConfig configures the shared-secret gate in front of admin routes
type AdminConfig struct {
	// Next defines a function to skip middleware.
	//
	// Optional. Default: nil
	Next func(c *fiber.Ctx) bool

	// Gate compares the supplied key with the configured one.
	//
	// Required. Default: nil
	Gate *authsvc.AdminGate

	// Header carrying the admin key.
	//
	// Optional. Default: "x-admin-key"
	Header string
}

func adminConfigDefault(config AdminConfig) AdminConfig {
	if config.Header == "" {
		config.Header = "x-admin-key"
	}
	return config
}
