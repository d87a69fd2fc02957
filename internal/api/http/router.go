package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/account-service/internal/api/http/handlers"
	"github.com/spec-kit/account-service/internal/auth"
	"github.com/spec-kit/account-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	UserSessions   *handlers.SessionsHandler
	AdminSessions  *handlers.SessionsHandler
	Profile        *handlers.ProfileHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes. The user and admin groups carry the
// same session lifecycle shape under different prefixes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	api := app.Group("/api")
	authed := cfg.AuthMiddleware.Handle
	userOnly := auth.RequireRole(domain.RoleUser)
	adminOnly := auth.RequireRole(domain.RoleAdmin)

	users := api.Group("/users")
	users.Post("/register", cfg.UserSessions.Register)
	users.Post("/login", cfg.UserSessions.Login)
	users.Post("/refresh-token", cfg.UserSessions.Refresh)
	users.Post("/logout", authed, userOnly, cfg.UserSessions.Logout)
	users.Post("/change-password", authed, userOnly, cfg.Profile.ChangePassword)
	users.Get("/me", authed, userOnly, cfg.Profile.Me)
	users.Patch("/update-account", authed, userOnly, cfg.Profile.UpdateAccount)
	users.Get("/", authed, adminOnly, cfg.Profile.ListUsers)
	users.Get("/:id", authed, adminOnly, cfg.Profile.GetUserByID)

	admins := api.Group("/admins")
	admins.Post("/register", cfg.AdminSessions.Register)
	admins.Post("/login", cfg.AdminSessions.Login)
	admins.Post("/refresh-token", cfg.AdminSessions.Refresh)
	admins.Post("/logout", authed, adminOnly, cfg.AdminSessions.Logout)
	admins.Post("/change-password", authed, adminOnly, cfg.Profile.ChangePassword)
	admins.Get("/me", authed, adminOnly, cfg.Profile.Me)
}
