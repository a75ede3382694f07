package handlers

import (
	"context"
	"time"

	"bizpilot/db"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// HealthCheckHandler provides liveness and readiness checks
type HealthCheckHandler struct {
	udb *db.UsersDB
	rdb *db.RequestsDB
	rc  *redis.Client
}

// NewHealthCheckHandler creates a new health check handler. rc may be nil
// when rate limiting runs in memory.
func NewHealthCheckHandler(udb *db.UsersDB, rdb *db.RequestsDB, rc *redis.Client) *HealthCheckHandler {
	return &HealthCheckHandler{
		udb: udb,
		rdb: rdb,
		rc:  rc,
	}
}

// HealthCheckResponse represents the health status
type HealthCheckResponse struct {
	Status    string                 `json:"status"`
	Timestamp string                 `json:"timestamp"`
	Uptime    float64                `json:"uptime_seconds"`
	Checks    map[string]CheckStatus `json:"checks"`
}

// CheckStatus represents individual component status
type CheckStatus struct {
	Status      string  `json:"status"`
	Message     string  `json:"message,omitempty"`
	Latency     float64 `json:"latency_ms,omitempty"`
	LastChecked string  `json:"last_checked"`
}

var startTime = time.Now()

// HandleRoot answers the plain-text banner on /
func HandleRoot() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendString("BizPilot backend is running.")
	}
}

// HandleHealthCheck is a liveness probe that touches nothing but the process
func (h *HealthCheckHandler) HandleHealthCheck() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(HealthCheckResponse{
			Status:    "healthy",
			Timestamp: time.Now().Format(time.RFC3339),
			Uptime:    time.Since(startTime).Seconds(),
			Checks: map[string]CheckStatus{
				"server": {
					Status:      "up",
					Message:     "Server is running",
					LastChecked: time.Now().Format(time.RFC3339),
				},
			},
		})
	}
}

// HandleReadinessCheck verifies both stores can be read and, if configured,
// that Redis answers. It never writes to the stores.
func (h *HealthCheckHandler) HandleReadinessCheck() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
		defer cancel()

		response := HealthCheckResponse{
			Status:    "ready",
			Timestamp: time.Now().Format(time.RFC3339),
			Uptime:    time.Since(startTime).Seconds(),
			Checks:    make(map[string]CheckStatus),
		}

		response.Checks["users_store"] = timed(func() error {
			return h.udb.Check(ctx)
		}, "users store is readable")

		response.Checks["requests_store"] = timed(func() error {
			return h.rdb.Check(ctx)
		}, "requests store is readable")

		if h.rc != nil {
			response.Checks["redis"] = timed(func() error {
				return h.rc.Ping(ctx).Err()
			}, "Redis is responding")
		}

		for _, check := range response.Checks {
			if check.Status != "healthy" {
				response.Status = "degraded"
				return c.Status(fiber.StatusServiceUnavailable).JSON(response)
			}
		}

		return c.JSON(response)
	}
}

func timed(check func() error, okMessage string) CheckStatus {
	start := time.Now()
	err := check()
	latency := float64(time.Since(start).Microseconds()) / 1000

	if err != nil {
		return CheckStatus{
			Status:      "unhealthy",
			Message:     err.Error(),
			Latency:     latency,
			LastChecked: time.Now().Format(time.RFC3339),
		}
	}

	return CheckStatus{
		Status:      "healthy",
		Message:     okMessage,
		Latency:     latency,
		LastChecked: time.Now().Format(time.RFC3339),
	}
}
