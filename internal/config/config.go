package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/SJarvie/gatehouse/internal/limiter"
	"github.com/SJarvie/gatehouse/internal/session"
)

type Config struct {
	Server  ServerConfig
	Backend BackendConfig
	Limits  LimitsConfig
	Session SessionConfig
}

type ServerConfig struct {
	Port     string
	Env      string
	LogLevel string
}

type BackendConfig struct {
	BaseURL      string
	Timeout      time.Duration
	ServiceToken string
}

// LimitsConfig carries both attempt-limiter configurations. They are injected
// from here rather than hard-coded in the limiter so the composition root
// owns every instance.
type LimitsConfig struct {
	Auth          limiter.Config
	General       limiter.Config
	SweepInterval time.Duration
}

type SessionConfig struct {
	Timeout      session.TimeoutConfig
	CSRFTokenTTL time.Duration
	CookieDomain string
	CookieSecure bool
	SameSite     string
	CookieMaxAge time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	backendURL := getEnv("BACKEND_URL", "")
	if backendURL == "" {
		return nil, fmt.Errorf("BACKEND_URL is required")
	}

	env := getEnv("ENV", "development")

	defaultAuth := limiter.DefaultAuthConfig()
	defaultGeneral := limiter.DefaultGeneralConfig()
	defaultTimeout := session.DefaultTimeoutConfig()

	cfg := &Config{
		Server: ServerConfig{
			Port:     getEnv("PORT", "8080"),
			Env:      env,
			LogLevel: getEnv("LOG_LEVEL", "info"),
		},
		Backend: BackendConfig{
			BaseURL:      backendURL,
			Timeout:      getEnvAsDuration("BACKEND_TIMEOUT", 10*time.Second),
			ServiceToken: getEnv("BACKEND_SERVICE_TOKEN", ""),
		},
		Limits: LimitsConfig{
			Auth: limiter.Config{
				MaxAttempts: getEnvAsInt("AUTH_MAX_ATTEMPTS", defaultAuth.MaxAttempts),
				Window:      getEnvAsDuration("AUTH_ATTEMPT_WINDOW", defaultAuth.Window),
			},
			General: limiter.Config{
				MaxAttempts: getEnvAsInt("GENERAL_MAX_ATTEMPTS", defaultGeneral.MaxAttempts),
				Window:      getEnvAsDuration("GENERAL_ATTEMPT_WINDOW", defaultGeneral.Window),
			},
			SweepInterval: getEnvAsDuration("LIMITER_SWEEP_INTERVAL", 5*time.Minute),
		},
		Session: SessionConfig{
			Timeout: session.TimeoutConfig{
				WarningWindow: getEnvAsDuration("SESSION_WARNING_WINDOW", defaultTimeout.WarningWindow),
				HardWindow:    getEnvAsDuration("SESSION_HARD_WINDOW", defaultTimeout.HardWindow),
			},
			CSRFTokenTTL: getEnvAsDuration("CSRF_TOKEN_TTL", 15*time.Minute),
			CookieDomain: getEnv("COOKIE_DOMAIN", ""),
			CookieSecure: getEnvAsBool("COOKIE_SECURE", env == "production"),
			SameSite:     getEnv("COOKIE_SAMESITE", "lax"),
			CookieMaxAge: getEnvAsDuration("COOKIE_MAX_AGE", defaultTimeout.HardWindow),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Limits.Auth.MaxAttempts < 2 {
		return fmt.Errorf("AUTH_MAX_ATTEMPTS must be at least 2 (got %d)", c.Limits.Auth.MaxAttempts)
	}
	if c.Limits.General.MaxAttempts < 2 {
		return fmt.Errorf("GENERAL_MAX_ATTEMPTS must be at least 2 (got %d)", c.Limits.General.MaxAttempts)
	}
	if c.Session.Timeout.HardWindow <= c.Session.Timeout.WarningWindow {
		return fmt.Errorf("SESSION_HARD_WINDOW (%s) must exceed SESSION_WARNING_WINDOW (%s)",
			c.Session.Timeout.HardWindow, c.Session.Timeout.WarningWindow)
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultVal
}
