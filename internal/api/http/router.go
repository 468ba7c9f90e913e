package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/finance-api/internal/api/http/handlers"
	"github.com/spec-kit/finance-api/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health       *handlers.HealthHandler
	Users        *handlers.UsersHandler
	Transactions *handlers.TransactionsHandler
	Guard        *auth.Guard
	// MetricsPath and Metrics expose the Prometheus scrape endpoint when set.
	MetricsPath string
	Metrics     fiber.Handler
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil && cfg.MetricsPath != "" {
		app.Get(cfg.MetricsPath, cfg.Metrics)
	}

	users := app.Group("/users")
	users.Post("/signup", cfg.Users.SignUp)
	users.Post("/login", cfg.Users.Login)

	session := cfg.Guard.Handle("")
	users.Get("/me", session, cfg.Users.Me)
	users.Put("/password", session, cfg.Users.ChangePassword)
	users.Delete("/delete-account", session, cfg.Users.DeleteAccount)
	users.Delete("/logout", cfg.Guard.HandleSessionOnly(), cfg.Users.Logout)

	transactions := users.Group("/:userId/transactions", cfg.Guard.Handle("userId"))
	transactions.Get("/", cfg.Transactions.List)
	transactions.Post("/", cfg.Transactions.Create)
	transactions.Get("/:id", cfg.Transactions.Get)
	transactions.Put("/:id", cfg.Transactions.Update)
	transactions.Delete("/:id", cfg.Transactions.Delete)
}
