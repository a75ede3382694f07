package apperrors

import (
	"github.com/gofiber/fiber/v2"
)

// ErrorLogger is the subset of the application logger used by the handler.
// Messages are printf-style.
type ErrorLogger interface {
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// HandlerConfig configures the error handler
type HandlerConfig struct {
	// Logger for error logging
	Logger ErrorLogger

	// ShowInternalErrors shows internal error details in responses (dev only)
	ShowInternalErrors bool

	// OnError is called for each error (useful for metrics/monitoring)
	OnError func(c *fiber.Ctx, err *AppError)
}

// DefaultHandlerConfig returns sensible defaults
func DefaultHandlerConfig() HandlerConfig {
	return HandlerConfig{
		Logger:             nil,
		ShowInternalErrors: false,
		OnError:            nil,
	}
}

// Handler creates a Fiber error handler.
// Every error is answered with {"error": message, "code": code}.
func Handler(config HandlerConfig) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		appErr := FromError(err)

		if config.Logger != nil {
			logError(config.Logger, c, appErr)
		}

		if config.OnError != nil {
			config.OnError(c, appErr)
		}

		return writeJSON(c, appErr, config.ShowInternalErrors)
	}
}

func writeJSON(c *fiber.Ctx, err *AppError, showInternal bool) error {
	response := fiber.Map{
		"error": err.Message,
		"code":  err.Code,
	}

	if len(err.Details) > 0 {
		response["details"] = err.Details
	}

	if showInternal && err.Internal != nil {
		response["internal"] = err.Internal.Error()
	}

	return c.Status(err.StatusCode).JSON(response)
}

// logError logs the error with request context
func logError(logger ErrorLogger, c *fiber.Ctx, err *AppError) {
	// Expected client errors are warnings
	if err.StatusCode < 500 {
		logger.Warn("%s %s | %s | status=%d | user=%v",
			c.Method(), c.Path(), err.Error(), err.StatusCode, c.Locals("email"))
		return
	}

	logger.Error("%s %s | %s | status=%d | ip=%s | user=%v",
		c.Method(), c.Path(), err.Error(), err.StatusCode, c.IP(), c.Locals("email"))
}
