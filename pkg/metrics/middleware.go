package metrics

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
)

// HTTPMetricsMiddleware tracks HTTP request metrics
func HTTPMetricsMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		HTTPRequestsInFlight.Inc()
		defer HTTPRequestsInFlight.Dec()

		err := c.Next()

		// The error handler has not written the response yet, so derive the
		// status from the error the same way it will.
		status := c.Response().StatusCode()
		if err != nil {
			status = fiber.StatusInternalServerError

			var coded interface{ HTTPStatus() int }
			var fe *fiber.Error
			if errors.As(err, &coded) {
				status = coded.HTTPStatus()
			} else if errors.As(err, &fe) {
				status = fe.Code
			}
		}

		method := c.Method()
		path := sanitizePath(c.Path())
		statusStr := strconv.Itoa(status)

		HTTPRequestDuration.WithLabelValues(method, path, statusStr).Observe(time.Since(start).Seconds())
		HTTPRequestsTotal.WithLabelValues(method, path, statusStr).Inc()

		return err
	}
}

// sanitizePath collapses unknown paths to avoid high label cardinality
func sanitizePath(path string) string {
	switch path {
	case "/", "/signup", "/login", "/submit-request", "/health", "/ready", "/metrics":
		return path
	case "/admin/requests", "/admin/update-status":
		return path
	default:
		return "/other"
	}
}
