package routes

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SJarvie/gatehouse/internal/auth"
	"github.com/SJarvie/gatehouse/internal/backend"
	"github.com/SJarvie/gatehouse/internal/handlers"
	"github.com/SJarvie/gatehouse/internal/limiter"
	"github.com/SJarvie/gatehouse/internal/models"
	"github.com/SJarvie/gatehouse/internal/services"
	"github.com/SJarvie/gatehouse/internal/session"
	pkglogger "github.com/SJarvie/gatehouse/pkg/logger"
)

// newStubBackend fakes the remote identity service: one known credential pair
// and an anonymous endpoint
func newStubBackend(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/authenticate", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if req.Email == "user@example.com" && req.Password == "correct-horse" {
			json.NewEncoder(w).Encode(backend.AuthResult{
				OK:          true,
				User:        &models.User{ID: "user-1", Email: "user@example.com", Name: "User"},
				SessionBlob: "blob-1",
			})
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(backend.AuthResult{OK: false, FailureReason: "bad_credentials"})
	})
	mux.HandleFunc("/v1/anonymous", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(backend.AuthResult{OK: true, SessionBlob: "anon-blob"})
	})
	mux.HandleFunc("/v1/signout", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/v1/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return httptest.NewServer(mux)
}

// newTestRouter wires the full stack: real service, real limiters, real CSRF
// manager, stub backend
func newTestRouter(t *testing.T) *chi.Mux {
	t.Helper()

	backendServer := newStubBackend(t)
	t.Cleanup(backendServer.Close)

	logger := slog.New(slog.NewTextHandler(testWriter{t}, nil))
	client := backend.NewClient(backend.Config{
		BaseURL: backendServer.URL,
		Timeout: 2 * time.Second,
	}, logger)

	authLimiter := limiter.New(limiter.Config{MaxAttempts: 3, Window: time.Minute})
	generalLimiter := limiter.New(limiter.Config{MaxAttempts: 10, Window: time.Minute})
	csrfManager := auth.NewCSRFTokenManager(15 * time.Minute)

	service := services.NewGateService(
		authLimiter,
		generalLimiter,
		client,
		csrfManager,
		sessionTimeoutConfig(),
		logger,
		pkglogger.NewAuditLogger(logger),
	)

	handler := handlers.NewGateHandler(service, auth.CookieConfig{SameSite: "lax"}, 30*time.Minute)

	router := chi.NewRouter()
	RegisterRoutes(router, handler, csrfManager, logger)
	return router
}

// sessionTimeoutConfig uses windows long enough that no timer fires mid-test
func sessionTimeoutConfig() session.TimeoutConfig {
	return session.TimeoutConfig{
		WarningWindow: time.Hour,
		HardWindow:    2 * time.Hour,
	}
}

type testWriter struct{ t *testing.T }

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(string(bytes.TrimSpace(p)))
	return len(p), nil
}

func loginRequest(t *testing.T, email, password string) *http.Request {
	t.Helper()
	body, err := json.Marshal(map[string]string{"email": email, "password": password})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func sessionCookieFrom(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == auth.SessionCookieName {
			return c
		}
	}
	t.Fatal("session cookie not set")
	return nil
}

func TestFullSessionLifecycle(t *testing.T) {
	router := newTestRouter(t)

	// Login
	w := httptest.NewRecorder()
	router.ServeHTTP(w, loginRequest(t, "user@example.com", "correct-horse"))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var session struct {
		SessionID string `json:"session_id"`
		CSRFToken string `json:"csrf_token"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&session))
	sessionCookie := sessionCookieFrom(t, w)

	// Status shows an active session with ordered deadlines
	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/session/status", nil)
	req.AddCookie(sessionCookie)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var status struct {
		Active          bool      `json:"active"`
		WarningDeadline time.Time `json:"warning_deadline"`
		HardDeadline    time.Time `json:"hard_deadline"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&status))
	assert.True(t, status.Active)
	assert.True(t, status.HardDeadline.After(status.WarningDeadline))

	// Activity with the CSRF token restarts the deadlines
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/session/activity", nil)
	req.AddCookie(sessionCookie)
	req.Header.Set("X-CSRF-Token", session.CSRFToken)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)

	// Rotating the CSRF token invalidates the old one
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/auth/csrf", nil)
	req.AddCookie(sessionCookie)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var rotated struct {
		CSRFToken string `json:"csrf_token"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&rotated))
	require.NotEqual(t, session.CSRFToken, rotated.CSRFToken)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/session/activity", nil)
	req.AddCookie(sessionCookie)
	req.Header.Set("X-CSRF-Token", session.CSRFToken)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code, "stale CSRF token should be rejected")

	// Logout with the fresh token
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.AddCookie(sessionCookie)
	req.Header.Set("X-CSRF-Token", rotated.CSRFToken)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)

	// Session is gone
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/session/status", nil)
	req.AddCookie(sessionCookie)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.NewDecoder(w.Body).Decode(&status))
	assert.False(t, status.Active)
}

func TestLoginThrottledAfterRepeatedFailures(t *testing.T) {
	router := newTestRouter(t)

	// With a 3-attempt limit, two failures reach the backend; the third is
	// throttled locally
	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, loginRequest(t, "user@example.com", "wrong-password"))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, loginRequest(t, "user@example.com", "wrong-password"))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
}

func TestAnonymousSession(t *testing.T) {
	router := newTestRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auth/anonymous", nil)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var session struct {
		SessionID string `json:"session_id"`
		CSRFToken string `json:"csrf_token"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&session))
	assert.NotEmpty(t, session.SessionID)
	assert.Len(t, session.CSRFToken, 64)
}

func TestActivityRequiresCSRFToken(t *testing.T) {
	router := newTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, loginRequest(t, "user@example.com", "correct-horse"))
	require.Equal(t, http.StatusOK, w.Code)
	sessionCookie := sessionCookieFrom(t, w)

	// Missing header
	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/session/activity", nil)
	req.AddCookie(sessionCookie)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Wrong token
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/session/activity", nil)
	req.AddCookie(sessionCookie)
	req.Header.Set("X-CSRF-Token", "not-the-token")
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// No session cookie at all
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/session/activity", nil)
	req.Header.Set("X-CSRF-Token", "not-the-token")
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestPasswordCheckRoute(t *testing.T) {
	router := newTestRouter(t)

	body, _ := json.Marshal(map[string]string{"password": "abc"})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auth/password-check", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var result struct {
		Score int      `json:"score"`
		Hints []string `json:"hints"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&result))
	assert.Equal(t, 1, result.Score)
	assert.NotEmpty(t, result.Hints)
}
