package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/SJarvie/gatehouse/internal/auth"
	"github.com/SJarvie/gatehouse/internal/backend"
	"github.com/SJarvie/gatehouse/internal/background"
	"github.com/SJarvie/gatehouse/internal/config"
	"github.com/SJarvie/gatehouse/internal/handlers"
	"github.com/SJarvie/gatehouse/internal/limiter"
	middlewareCustom "github.com/SJarvie/gatehouse/internal/middleware"
	"github.com/SJarvie/gatehouse/internal/routes"
	"github.com/SJarvie/gatehouse/internal/services"
	pkglogger "github.com/SJarvie/gatehouse/pkg/logger"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("configuration loaded", slog.String("env", cfg.Server.Env))

	// Identity backend client
	backendClient := backend.NewClient(backend.Config{
		BaseURL:      cfg.Backend.BaseURL,
		Timeout:      cfg.Backend.Timeout,
		ServiceToken: cfg.Backend.ServiceToken,
	}, logger)

	// Attempt limiters and CSRF token manager
	authLimiter := limiter.New(cfg.Limits.Auth)
	generalLimiter := limiter.New(cfg.Limits.General)
	csrfManager := auth.NewCSRFTokenManager(cfg.Session.CSRFTokenTTL)

	// Background janitor keeps the in-memory stores bounded
	janitor := background.NewJanitor(map[string]background.Sweeper{
		"auth_limiter":    authLimiter,
		"general_limiter": generalLimiter,
		"csrf_tokens":     csrfManager,
	}, logger, cfg.Limits.SweepInterval)

	// Audit logger
	auditLogger := pkglogger.NewAuditLogger(logger)

	// Gateway service
	gateService := services.NewGateService(
		authLimiter,
		generalLimiter,
		backendClient,
		csrfManager,
		cfg.Session.Timeout,
		logger,
		auditLogger,
	)

	// Handlers
	cookieConfig := auth.CookieConfig{
		Domain:   cfg.Session.CookieDomain,
		Secure:   cfg.Session.CookieSecure,
		SameSite: cfg.Session.SameSite,
	}
	gateHandler := handlers.NewGateHandler(gateService, cookieConfig, cfg.Session.CookieMaxAge)

	// Setup router
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middlewareCustom.SecurityHeaders(middlewareCustom.SecurityHeadersConfig{Env: cfg.Server.Env}))
	router.Use(middlewareCustom.SecureLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	// Register routes
	routes.RegisterRoutes(router, gateHandler, csrfManager, logger)

	// Health check with backend reachability
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		w.Header().Set("Content-Type", "application/json")
		if err := backendClient.Ping(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"unhealthy","backend":"down"}`))
			return
		}

		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy","backend":"up"}`))
	})

	// Create server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start janitor
	janitorCtx, janitorCancel := context.WithCancel(context.Background())
	defer janitorCancel()

	go janitor.Start(janitorCtx)

	// Start server
	go func() {
		logger.Info("starting server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received")

	janitorCancel()
	janitor.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("server stopped gracefully")
}
