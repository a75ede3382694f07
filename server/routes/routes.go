package routes

import (
	"bizpilot/server/handlers"
	authmw "bizpilot/server/middleware/auth"
	authsvc "bizpilot/services/auth"
	"bizpilot/services/requests"

	"github.com/gofiber/fiber/v2"
)

// Deps carries everything the route table needs
type Deps struct {
	Auth     *authsvc.AuthService
	Admin    *authsvc.AdminGate
	Requests *requests.RequestService
	Health   *handlers.HealthCheckHandler
}

func RegisterRoutes(app *fiber.App, d Deps) {
	app.Get("/", handlers.HandleRoot())
	app.Get("/health", d.Health.HandleHealthCheck())
	app.Get("/ready", d.Health.HandleReadinessCheck())

	app.Post("/signup", handlers.HandleSignup(d.Auth))
	app.Post("/login", handlers.HandleLogin(d.Auth))

	app.Post("/submit-request",
		authmw.New(authmw.Config{Verifier: d.Auth}),
		handlers.HandleSubmitRequest(d.Requests),
	)

	admin := app.Group("/admin", authmw.NewAdmin(authmw.AdminConfig{Gate: d.Admin}))
	admin.Get("/requests", handlers.HandleListRequests(d.Requests))
	admin.Post("/update-status", handlers.HandleUpdateStatus(d.Requests))
}
