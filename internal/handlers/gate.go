package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/SJarvie/gatehouse/internal/auth"
	"github.com/SJarvie/gatehouse/internal/models"
	"github.com/SJarvie/gatehouse/internal/services"
	pkghttp "github.com/SJarvie/gatehouse/pkg/http"
	pkgvalidate "github.com/SJarvie/gatehouse/pkg/validate"
)

// GateServiceInterface defines the interface for the gateway's session logic
type GateServiceInterface interface {
	Login(ctx context.Context, email, password, fingerprint, ipAddress, userAgent string) (*services.LoginResult, error)
	Anonymous(ctx context.Context, fingerprint, ipAddress, userAgent string) (*services.LoginResult, error)
	Activity(sessionID string) error
	Status(sessionID string) (*services.SessionStatus, error)
	RotateCSRF(sessionID string) (string, error)
	Logout(ctx context.Context, sessionID string) error
}

// GateHandler handles the gateway's HTTP surface
type GateHandler struct {
	service      GateServiceInterface
	cookieConfig auth.CookieConfig
	cookieMaxAge time.Duration
}

// NewGateHandler creates a new GateHandler
func NewGateHandler(service GateServiceInterface, cookieConfig auth.CookieConfig, cookieMaxAge time.Duration) *GateHandler {
	return &GateHandler{
		service:      service,
		cookieConfig: cookieConfig,
		cookieMaxAge: cookieMaxAge,
	}
}

// Request/response DTOs

// LoginRequest represents the request body for login. Signals are the
// client-reported fingerprint inputs; absent signals fall back to headers.
type LoginRequest struct {
	Email    string        `json:"email" validate:"required,email,max=254"`
	Password string        `json:"password" validate:"required,min=1,max=128"`
	Signals  *auth.Signals `json:"signals,omitempty"`
}

// SessionResponse represents an established session
type SessionResponse struct {
	SessionID       string       `json:"session_id"`
	User            *models.User `json:"user"`
	CSRFToken       string       `json:"csrf_token"`
	WarningDeadline time.Time    `json:"warning_deadline"`
	HardDeadline    time.Time    `json:"hard_deadline"`
}

// CSRFResponse carries a freshly rotated CSRF token
type CSRFResponse struct {
	CSRFToken string `json:"csrf_token"`
}

// PasswordCheckRequest asks for a strength estimate before signup
type PasswordCheckRequest struct {
	Password string `json:"password" validate:"required,max=128"`
}

// Login handles user login
func (h *GateHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if !pkgvalidate.IsValidEmail(req.Email) {
		pkghttp.WriteBadRequest(w, "Invalid email address")
		return
	}
	if pkgvalidate.ContainsSQLInjection(req.Email) || pkgvalidate.ContainsXSS(req.Email) {
		pkghttp.WriteBadRequest(w, "Invalid characters in input")
		return
	}

	result, err := h.service.Login(r.Context(), req.Email, req.Password,
		h.fingerprint(r, req.Signals), clientIP(r), r.Header.Get("User-Agent"))
	if err != nil {
		h.writeLoginError(w, err)
		return
	}

	h.writeSession(w, result)
}

// Anonymous establishes a session for an anonymous identity
func (h *GateHandler) Anonymous(w http.ResponseWriter, r *http.Request) {
	var signals *auth.Signals
	if r.Body != nil && r.ContentLength > 0 {
		var req struct {
			Signals *auth.Signals `json:"signals"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			pkghttp.WriteBadRequest(w, "Invalid request body")
			return
		}
		signals = req.Signals
	}

	result, err := h.service.Anonymous(r.Context(), h.fingerprint(r, signals), clientIP(r), r.Header.Get("User-Agent"))
	if err != nil {
		h.writeLoginError(w, err)
		return
	}

	h.writeSession(w, result)
}

// Activity restarts the session's inactivity deadlines; called by the client
// on qualifying user activity
func (h *GateHandler) Activity(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := sessionIDFromCookie(r)
	if !ok {
		pkghttp.WriteUnauthorized(w, "No active session")
		return
	}

	if err := h.service.Activity(sessionID); err != nil {
		if errors.Is(err, models.ErrSessionNotFound) {
			auth.ClearSessionCookies(w, h.cookieConfig)
			pkghttp.WriteUnauthorized(w, "Session expired")
			return
		}
		pkghttp.WriteInternalError(w, "Failed to record activity")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Status reports the session's inactivity deadlines
func (h *GateHandler) Status(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := sessionIDFromCookie(r)
	if !ok {
		pkghttp.WriteJSON(w, http.StatusOK, services.SessionStatus{Active: false})
		return
	}

	status, err := h.service.Status(sessionID)
	if err != nil {
		if errors.Is(err, models.ErrSessionNotFound) {
			pkghttp.WriteJSON(w, http.StatusOK, services.SessionStatus{Active: false})
			return
		}
		pkghttp.WriteInternalError(w, "Failed to load session status")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, status)
}

// CSRF rotates the session's CSRF token; called once per form render
func (h *GateHandler) CSRF(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := sessionIDFromCookie(r)
	if !ok {
		pkghttp.WriteUnauthorized(w, "No active session")
		return
	}

	token, err := h.service.RotateCSRF(sessionID)
	if err != nil {
		if errors.Is(err, models.ErrSessionNotFound) {
			pkghttp.WriteUnauthorized(w, "Session expired")
			return
		}
		pkghttp.WriteInternalError(w, "Failed to issue token")
		return
	}

	auth.SetCSRFCookie(w, token, h.cookieMaxAge, h.cookieConfig)
	pkghttp.WriteJSON(w, http.StatusOK, CSRFResponse{CSRFToken: token})
}

// Logout tears down the session; cookies are cleared wholesale even when the
// session is already gone
func (h *GateHandler) Logout(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := sessionIDFromCookie(r)
	if ok {
		if err := h.service.Logout(r.Context(), sessionID); err != nil && !errors.Is(err, models.ErrSessionNotFound) {
			pkghttp.WriteInternalError(w, "Logout failed")
			return
		}
	}

	auth.ClearSessionCookies(w, h.cookieConfig)
	w.WriteHeader(http.StatusNoContent)
}

// PasswordCheck returns a strength estimate with hints for the signup form
func (h *GateHandler) PasswordCheck(w http.ResponseWriter, r *http.Request) {
	var req PasswordCheckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, pkgvalidate.PasswordStrength(req.Password))
}

func (h *GateHandler) writeSession(w http.ResponseWriter, result *services.LoginResult) {
	auth.SetSessionCookie(w, result.Session.ID, h.cookieMaxAge, h.cookieConfig)
	auth.SetCSRFCookie(w, result.CSRFToken, h.cookieMaxAge, h.cookieConfig)

	status, err := h.service.Status(result.Session.ID)
	if err != nil {
		pkghttp.WriteInternalError(w, "Failed to load session status")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, SessionResponse{
		SessionID:       result.Session.ID,
		User:            result.Session.User,
		CSRFToken:       result.CSRFToken,
		WarningDeadline: status.WarningDeadline,
		HardDeadline:    status.HardDeadline,
	})
}

func (h *GateHandler) writeLoginError(w http.ResponseWriter, err error) {
	var rle *models.RateLimitError
	switch {
	case errors.As(err, &rle):
		pkghttp.WriteTooManyRequests(w, "Too many attempts, please wait before retrying",
			int(rle.RetryAfter.Round(time.Second).Seconds()))
	case errors.Is(err, models.ErrUnauthorized):
		pkghttp.WriteUnauthorized(w, "Authentication failed")
	case errors.Is(err, models.ErrBackendUnavailable):
		// Generic message; backend errors are never detailed to clients
		pkghttp.WriteBadGateway(w, "Authentication service unavailable, please try again later")
	default:
		pkghttp.WriteInternalError(w, "An unexpected error occurred")
	}
}

// fingerprint buckets the request for the attempt limiter: client-reported
// signals when present, header-derived signals otherwise
func (h *GateHandler) fingerprint(r *http.Request, signals *auth.Signals) string {
	if signals != nil {
		return auth.Fingerprint(*signals)
	}
	return auth.Fingerprint(auth.SignalsFromRequest(r))
}

func sessionIDFromCookie(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(auth.SessionCookieName)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	return cookie.Value, true
}

// clientIP is used for audit logging only; chi's RealIP middleware has
// already rewritten RemoteAddr when behind a trusted proxy
func clientIP(r *http.Request) string {
	if ip, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return ip
	}
	return r.RemoteAddr
}
