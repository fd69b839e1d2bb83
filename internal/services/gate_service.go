package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/SJarvie/gatehouse/internal/auth"
	"github.com/SJarvie/gatehouse/internal/backend"
	"github.com/SJarvie/gatehouse/internal/models"
	"github.com/SJarvie/gatehouse/internal/session"
	pkglogger "github.com/SJarvie/gatehouse/pkg/logger"
)

// AttemptLimiter is the local, advisory attempt throttle keyed by device
// fingerprint. It never errors; the backend remains the real security
// boundary.
type AttemptLimiter interface {
	Allow(identifier string) bool
	RemainingCooldown(identifier string) time.Duration
	Reset(identifier string)
}

// IdentityBackend is the remote authority on credentials and sessions
type IdentityBackend interface {
	Authenticate(ctx context.Context, email, password string) (*backend.AuthResult, error)
	CreateAnonymous(ctx context.Context) (*backend.AuthResult, error)
	SignOut(ctx context.Context, sessionBlob string) error
}

// GateService orchestrates the gateway's session lifecycle: throttle locally,
// delegate the credential decision to the backend, then track the session's
// inactivity deadlines until logout or hard timeout.
type GateService struct {
	authLimiter    AttemptLimiter
	generalLimiter AttemptLimiter
	backend        IdentityBackend
	csrf           *auth.CSRFTokenManager
	registry       *session.Registry
	logger         *slog.Logger
	audit          *pkglogger.AuditLogger
}

// NewGateService wires the service and its session registry. The registry's
// timeout hooks point back at the service so a hard timeout performs the same
// teardown as an explicit logout.
func NewGateService(
	authLimiter, generalLimiter AttemptLimiter,
	identityBackend IdentityBackend,
	csrf *auth.CSRFTokenManager,
	timeoutConfig session.TimeoutConfig,
	logger *slog.Logger,
	audit *pkglogger.AuditLogger,
) *GateService {
	s := &GateService{
		authLimiter:    authLimiter,
		generalLimiter: generalLimiter,
		backend:        identityBackend,
		csrf:           csrf,
		logger:         logger,
		audit:          audit,
	}
	s.registry = session.NewRegistry(timeoutConfig, session.Hooks{
		OnWarning: s.onSessionWarning,
		OnTimeout: s.onSessionTimeout,
	}, logger)
	return s
}

// LoginResult is what a successful login hands back to the HTTP layer
type LoginResult struct {
	Session   *models.Session
	CSRFToken string
}

// SessionStatus describes a live session's inactivity deadlines
type SessionStatus struct {
	Active          bool         `json:"active"`
	User            *models.User `json:"user,omitempty"`
	WarningDeadline time.Time    `json:"warning_deadline,omitzero"`
	HardDeadline    time.Time    `json:"hard_deadline,omitzero"`
}

// Login checks the auth attempt limiter, delegates the credential decision to
// the backend, and on success clears the limiter penalty and starts a session
func (s *GateService) Login(ctx context.Context, email, password, fingerprint, ipAddress, userAgent string) (*LoginResult, error) {
	if !s.authLimiter.Allow(fingerprint) {
		cooldown := s.authLimiter.RemainingCooldown(fingerprint)
		s.audit.LogAuthAttempt(pkglogger.AuditEvent{
			EventType:     "login_throttled",
			Fingerprint:   fingerprint,
			IPAddress:     ipAddress,
			FailureReason: "rate_limit_exceeded",
		})
		return nil, &models.RateLimitError{RetryAfter: cooldown}
	}

	result, err := s.backend.Authenticate(ctx, email, password)
	if err != nil {
		// Remote failure: logged here, surfaced generically, never retried
		s.logger.Error("backend authenticate failed",
			slog.String("email", pkglogger.SanitizedEmail(email)),
			slog.Any("error", err))
		return nil, models.ErrBackendUnavailable
	}

	if !result.OK {
		s.audit.LogAuthAttempt(pkglogger.AuditEvent{
			EventType:     "login_failed",
			Fingerprint:   fingerprint,
			IPAddress:     ipAddress,
			UserAgent:     userAgent,
			FailureReason: result.FailureReason,
		})
		return nil, models.ErrUnauthorized
	}

	// Successful authentication clears the throttle penalty
	s.authLimiter.Reset(fingerprint)

	return s.startSession(result, fingerprint, ipAddress, userAgent, "login_succeeded")
}

// Anonymous asks the backend for an anonymous identity, throttled by the
// general-action limiter
func (s *GateService) Anonymous(ctx context.Context, fingerprint, ipAddress, userAgent string) (*LoginResult, error) {
	if !s.generalLimiter.Allow(fingerprint) {
		cooldown := s.generalLimiter.RemainingCooldown(fingerprint)
		return nil, &models.RateLimitError{RetryAfter: cooldown}
	}

	result, err := s.backend.CreateAnonymous(ctx)
	if err != nil {
		s.logger.Error("backend anonymous identity failed", slog.Any("error", err))
		return nil, models.ErrBackendUnavailable
	}
	if !result.OK {
		return nil, models.ErrUnauthorized
	}

	return s.startSession(result, fingerprint, ipAddress, userAgent, "anonymous_session")
}

// Activity restarts the session's inactivity deadlines
func (s *GateService) Activity(sessionID string) error {
	return s.registry.Touch(sessionID)
}

// Status reports the session's deadlines, or an inactive status when the
// session is unknown (already logged out or timed out)
func (s *GateService) Status(sessionID string) (*SessionStatus, error) {
	sess, manager, err := s.registry.Get(sessionID)
	if err != nil {
		return nil, err
	}

	warning, hard := manager.Deadlines()
	return &SessionStatus{
		Active:          manager.Active(),
		User:            sess.User,
		WarningDeadline: warning,
		HardDeadline:    hard,
	}, nil
}

// RotateCSRF issues a fresh CSRF token for the session, invalidating the
// previous one. Called once per form render.
func (s *GateService) RotateCSRF(sessionID string) (string, error) {
	if _, _, err := s.registry.Get(sessionID); err != nil {
		return "", err
	}
	return s.csrf.Issue(sessionID)
}

// Logout tears down local state and tells the backend to invalidate the
// session. Backend failure is logged but local teardown always completes.
func (s *GateService) Logout(ctx context.Context, sessionID string) error {
	sess, _, err := s.registry.Get(sessionID)
	if err != nil {
		return err
	}

	s.registry.Remove(sessionID)
	s.csrf.Revoke(sessionID)

	if err := s.backend.SignOut(ctx, sess.Blob); err != nil {
		s.logger.Warn("backend signout failed", slog.String("session_id", sessionID), slog.Any("error", err))
	}

	s.audit.LogSessionEvent("logout", sessionID)
	return nil
}

func (s *GateService) startSession(result *backend.AuthResult, fingerprint, ipAddress, userAgent, eventType string) (*LoginResult, error) {
	sess := &models.Session{
		ID:        uuid.NewString(),
		User:      result.User,
		Blob:      result.SessionBlob,
		CreatedAt: time.Now(),
	}
	s.registry.Add(sess)

	csrfToken, err := s.csrf.Issue(sess.ID)
	if err != nil {
		s.registry.Remove(sess.ID)
		s.logger.Error("failed to issue csrf token", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.audit.LogAuthAttempt(pkglogger.AuditEvent{
		EventType:   eventType,
		SessionID:   sess.ID,
		Fingerprint: fingerprint,
		IPAddress:   ipAddress,
		UserAgent:   userAgent,
		Success:     true,
	})

	return &LoginResult{Session: sess, CSRFToken: csrfToken}, nil
}

// onSessionWarning runs when a session's warning timer fires; the session
// stays live through the grace period
func (s *GateService) onSessionWarning(sess *models.Session) {
	s.audit.LogSessionEvent("inactivity_warning", sess.ID)
}

// onSessionTimeout runs after the registry has evicted a hard-timed-out
// session; remaining local state is dropped and the backend is told to sign
// the session out
func (s *GateService) onSessionTimeout(sess *models.Session) {
	s.csrf.Revoke(sess.ID)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.backend.SignOut(ctx, sess.Blob); err != nil {
		s.logger.Warn("backend signout after timeout failed", slog.String("session_id", sess.ID), slog.Any("error", err))
	}

	s.audit.LogSessionEvent("inactivity_timeout", sess.ID)
}
