package middleware

import (
	"log/slog"
	"net/http"

	"github.com/SJarvie/gatehouse/internal/auth"
)

// CSRFProtection validates CSRF tokens on state-changing session requests.
// The client must echo its current token in the X-CSRF-Token header; the
// token is matched against the one issued for the session named by the
// session cookie.
func CSRFProtection(csrfManager *auth.CSRFTokenManager, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !isStateChangingMethod(r.Method) {
				next.ServeHTTP(w, r)
				return
			}

			sessionCookie, err := r.Cookie(auth.SessionCookieName)
			if err != nil || sessionCookie.Value == "" {
				http.Error(w, "No active session", http.StatusUnauthorized)
				return
			}

			token := r.Header.Get("X-CSRF-Token")
			if token == "" {
				logger.Warn("CSRF token missing",
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path))
				http.Error(w, "CSRF token missing", http.StatusForbidden)
				return
			}

			if !csrfManager.Validate(sessionCookie.Value, token) {
				logger.Warn("CSRF token validation failed",
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path))
				http.Error(w, "CSRF token invalid", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// isStateChangingMethod checks if the HTTP method modifies state
func isStateChangingMethod(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch:
		return true
	default:
		return false
	}
}
