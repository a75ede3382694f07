package breaker

import (
	"context"
	"time"

	"bizpilot/pkg/logger"

	"github.com/sony/gobreaker"
)

// Config allows custom settings for specific breakers
type Config struct {
	Name        string
	MaxRequests uint32
	Interval    time.Duration
	Timeout     time.Duration

	// Threshold is the failure ratio that opens the breaker. Default: 0.5
	Threshold float64
	// MinRequests is the sample size needed before Threshold applies. Default: 5
	MinRequests uint32
}

// New creates a new CircuitBreaker with sensible defaults
func New(cfg Config) *gobreaker.CircuitBreaker {
	if cfg.Threshold <= 0 {
		cfg.Threshold = 0.5
	}
	if cfg.MinRequests == 0 {
		cfg.MinRequests = 5
	}

	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= cfg.Threshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.WithFields(map[string]any{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("circuit breaker changed state")
		},
	}

	if settings.MaxRequests == 0 {
		settings.MaxRequests = 5 // half-open probes
	}
	if settings.Interval == 0 {
		settings.Interval = 60 * time.Second
	}
	if settings.Timeout == 0 {
		settings.Timeout = 30 * time.Second
	}

	return gobreaker.NewCircuitBreaker(settings)
}

// ExecuteCtx runs fn through cb unless ctx is already done
func ExecuteCtx[T any](ctx context.Context, cb *gobreaker.CircuitBreaker, fn func() (T, error)) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}

	res, err := cb.Execute(func() (interface{}, error) {
		return fn()
	})
	if err != nil {
		return zero, err
	}
	v, _ := res.(T)
	return v, nil
}
