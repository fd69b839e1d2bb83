package routes

import (
	"log/slog"

	"github.com/go-chi/chi/v5"

	"github.com/SJarvie/gatehouse/internal/auth"
	"github.com/SJarvie/gatehouse/internal/handlers"
	"github.com/SJarvie/gatehouse/internal/middleware"
)

// RegisterRoutes registers all gateway routes
func RegisterRoutes(
	router chi.Router,
	gateHandler *handlers.GateHandler,
	csrfManager *auth.CSRFTokenManager,
	logger *slog.Logger,
) {
	rateLimitConfig := middleware.DefaultAuthRateLimit()

	// Session establishment - per-IP rate limited, no CSRF yet
	router.Group(func(r chi.Router) {
		r.Use(middleware.RateLimitByIP(rateLimitConfig))
		r.Post("/auth/login", gateHandler.Login)
		r.Post("/auth/anonymous", gateHandler.Anonymous)
		r.Post("/auth/password-check", gateHandler.PasswordCheck)
	})

	// Session reads
	router.Get("/session/status", gateHandler.Status)
	router.Get("/auth/csrf", gateHandler.CSRF)

	// State-changing session routes require a valid CSRF token
	router.Group(func(r chi.Router) {
		r.Use(middleware.CSRFProtection(csrfManager, logger))
		r.Post("/session/activity", gateHandler.Activity)
		r.Post("/auth/logout", gateHandler.Logout)
	})
}
