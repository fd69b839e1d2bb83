package middleware

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/SJarvie/gatehouse/internal/auth"
)

func csrfTestHandler(t *testing.T, csrfManager *auth.CSRFTokenManager) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(testLogWriter{t}, nil))
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return CSRFProtection(csrfManager, logger)(next)
}

type testLogWriter struct{ t *testing.T }

func (w testLogWriter) Write(p []byte) (int, error) {
	w.t.Log(string(p))
	return len(p), nil
}

func TestCSRFProtection_ValidToken(t *testing.T) {
	csrfManager := auth.NewCSRFTokenManager(time.Minute)
	token, err := csrfManager.Issue("sess-1")
	if err != nil {
		t.Fatalf("Issue() = %v", err)
	}

	handler := csrfTestHandler(t, csrfManager)

	req := httptest.NewRequest("POST", "/session/activity", nil)
	req.AddCookie(&http.Cookie{Name: auth.SessionCookieName, Value: "sess-1"})
	req.Header.Set("X-CSRF-Token", token)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}
}

func TestCSRFProtection_MissingToken(t *testing.T) {
	csrfManager := auth.NewCSRFTokenManager(time.Minute)
	handler := csrfTestHandler(t, csrfManager)

	req := httptest.NewRequest("POST", "/session/activity", nil)
	req.AddCookie(&http.Cookie{Name: auth.SessionCookieName, Value: "sess-1"})
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)
	if w.Code != http.StatusForbidden {
		t.Errorf("expected status 403, got %d", w.Code)
	}
}

func TestCSRFProtection_WrongToken(t *testing.T) {
	csrfManager := auth.NewCSRFTokenManager(time.Minute)
	if _, err := csrfManager.Issue("sess-1"); err != nil {
		t.Fatalf("Issue() = %v", err)
	}
	handler := csrfTestHandler(t, csrfManager)

	req := httptest.NewRequest("POST", "/session/activity", nil)
	req.AddCookie(&http.Cookie{Name: auth.SessionCookieName, Value: "sess-1"})
	req.Header.Set("X-CSRF-Token", "0000000000000000000000000000000000000000000000000000000000000000")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)
	if w.Code != http.StatusForbidden {
		t.Errorf("expected status 403, got %d", w.Code)
	}
}

func TestCSRFProtection_NoSessionCookie(t *testing.T) {
	csrfManager := auth.NewCSRFTokenManager(time.Minute)
	handler := csrfTestHandler(t, csrfManager)

	req := httptest.NewRequest("POST", "/session/activity", nil)
	req.Header.Set("X-CSRF-Token", "anything")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", w.Code)
	}
}

func TestCSRFProtection_SafeMethodsPass(t *testing.T) {
	csrfManager := auth.NewCSRFTokenManager(time.Minute)
	handler := csrfTestHandler(t, csrfManager)

	req := httptest.NewRequest("GET", "/session/status", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}
}
