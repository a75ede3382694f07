package server

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"time"

	"bizpilot/apperrors"
	"bizpilot/config"
	"bizpilot/db"
	"bizpilot/pkg/logger"
	"bizpilot/pkg/metrics"
	"bizpilot/server/handlers"
	"bizpilot/server/middleware/limiter"
	"bizpilot/server/middleware/security"
	"bizpilot/server/routes"
	authsvc "bizpilot/services/auth"
	"bizpilot/services/requests"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

const version = "1.0.0"

type Server struct {
	App *fiber.App
	cfg *config.Config
	log *logger.Logger
	udb *db.UsersDB
	rdb *db.RequestsDB
	rc  *redis.Client
}

// NewServer wires the HTTP surface. rc is optional; without it the rate
// limiter keeps its buckets in memory.
func NewServer(cfg *config.Config, log *logger.Logger, udb *db.UsersDB, rdb *db.RequestsDB, rc *redis.Client) (*Server, error) {
	if log == nil {
		log = logger.GetDefault()
	}

	errorConfig := apperrors.HandlerConfig{
		Logger:             log,
		ShowInternalErrors: cfg.IsDevelopment(),
		OnError: func(c *fiber.Ctx, err *apperrors.AppError) {
			metrics.RecordError(string(err.Code), strconv.Itoa(err.StatusCode))
		},
	}

	app := fiber.New(fiber.Config{
		AppName:               "BizPilot",
		ReadTimeout:           cfg.Server.ReadTimeout,
		WriteTimeout:          cfg.Server.WriteTimeout,
		BodyLimit:             cfg.Server.BodyLimit,
		ErrorHandler:          apperrors.Handler(errorConfig),
		DisableStartupMessage: !cfg.IsDevelopment(),
	})

	if err := metrics.RegisterCollectors(collectionStats(udb, rdb)); err != nil {
		return nil, fmt.Errorf("failed to register collectors: %w", err)
	}

	metrics.SystemInfo.WithLabelValues(
		version,
		runtime.Version(),
		time.Now().Format(time.RFC3339),
	).Set(1)

	app.Use(recover.New(recover.Config{EnableStackTrace: cfg.IsDevelopment()}))
	app.Use(metrics.HTTPMetricsMiddleware())
	app.Use(security.New(security.Config{Development: cfg.IsDevelopment()}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.Server.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, x-admin-key",
		AllowMethods: "GET,POST,OPTIONS",
	}))

	app.Use(fiberlogger.New(fiberlogger.Config{
		Format:     "${time} | ${status} | ${latency} | ${method} ${path} | ${ip}\n",
		TimeFormat: "2006-01-02 15:04:05",
		TimeZone:   "Local",
		Output:     log.Output,
	}))

	limiterCfg := limiter.Config{
		Capacity:     cfg.RateLimit.Capacity,
		RefillRate:   cfg.RateLimit.RefillRate,
		RefillPeriod: cfg.RateLimit.RefillPeriod,
		Next: func(c *fiber.Ctx) bool {
			switch c.Path() {
			case "/metrics", "/health", "/ready":
				return true
			}
			return false
		},
	}
	if rc != nil {
		limiterCfg.Storage = limiter.NewRedisStorage(rc, 10*time.Minute)
	}
	app.Use(limiter.New(limiterCfg))

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	as := authsvc.NewAuthService(udb, authsvc.Config{
		Secret:     []byte(cfg.Auth.JWTSecret),
		TokenTTL:   cfg.Auth.TokenTTL,
		BcryptCost: cfg.Auth.BcryptCost,
	})

	routes.RegisterRoutes(app, routes.Deps{
		Auth:     as,
		Admin:    authsvc.NewAdminGate(cfg.Auth.AdminKey),
		Requests: requests.NewRequestService(rdb),
		Health:   handlers.NewHealthCheckHandler(udb, rdb, rc),
	})

	return &Server{
		App: app,
		cfg: cfg,
		log: log,
		udb: udb,
		rdb: rdb,
		rc:  rc,
	}, nil
}

// collectionStats feeds the store gauges exposed on /metrics
func collectionStats(udb *db.UsersDB, rdb *db.RequestsDB) metrics.StatsFunc {
	return func(ctx context.Context) (metrics.CollectionStats, error) {
		users, err := udb.All(ctx)
		if err != nil {
			return metrics.CollectionStats{}, err
		}
		reqs, err := rdb.All(ctx)
		if err != nil {
			return metrics.CollectionStats{}, err
		}

		byStatus := make(map[string]int)
		for _, r := range reqs {
			byStatus[r.Status]++
		}
		return metrics.CollectionStats{Users: len(users), RequestsByStatus: byStatus}, nil
	}
}

func (s *Server) Start() error {
	addr := s.cfg.ServerAddress()
	s.log.Info("starting server on %s", addr)
	return s.App.Listen(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("shutting down server")
	return s.App.ShutdownWithContext(ctx)
}
