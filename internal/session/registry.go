package session

import (
	"log/slog"
	"sync"

	"github.com/SJarvie/gatehouse/internal/models"
)

// Hooks are invoked by the registry when a session's inactivity timers fire.
// OnTimeout runs after the session has already been removed from the
// registry. Either hook may be nil. Hooks run on timer goroutines.
type Hooks struct {
	OnWarning func(sess *models.Session)
	OnTimeout func(sess *models.Session)
}

type registryEntry struct {
	sess    *models.Session
	manager *TimeoutManager
}

// Registry owns the set of live sessions and their timeout managers: exactly
// one manager per authenticated session, created on login and discarded on
// logout or hard timeout. Hard timeouts are self-cleaning, so the registry
// never accumulates dead sessions.
type Registry struct {
	mu      sync.Mutex
	config  TimeoutConfig
	hooks   Hooks
	entries map[string]*registryEntry
	logger  *slog.Logger
}

// NewRegistry creates an empty session registry
func NewRegistry(config TimeoutConfig, hooks Hooks, logger *slog.Logger) *Registry {
	return &Registry{
		config:  config,
		hooks:   hooks,
		entries: make(map[string]*registryEntry),
		logger:  logger,
	}
}

// Add registers the session and starts its inactivity timers. Adding an ID
// that is already tracked replaces the previous entry and cancels its timers.
func (r *Registry) Add(sess *models.Session) {
	r.mu.Lock()
	if prev, ok := r.entries[sess.ID]; ok {
		prev.manager.Clear()
	}

	manager := NewTimeoutManager(r.config,
		func() { r.handleWarning(sess) },
		func() { r.handleTimeout(sess) },
	)
	r.entries[sess.ID] = &registryEntry{sess: sess, manager: manager}
	r.mu.Unlock()

	manager.Start()
}

// Touch restarts the session's inactivity deadlines from now. Called on every
// qualifying activity event.
func (r *Registry) Touch(sessionID string) error {
	r.mu.Lock()
	entry, ok := r.entries[sessionID]
	r.mu.Unlock()

	if !ok {
		return models.ErrSessionNotFound
	}
	entry.manager.Reset()
	return nil
}

// Get returns the session with its current deadlines
func (r *Registry) Get(sessionID string) (*models.Session, *TimeoutManager, error) {
	r.mu.Lock()
	entry, ok := r.entries[sessionID]
	r.mu.Unlock()

	if !ok {
		return nil, nil, models.ErrSessionNotFound
	}
	return entry.sess, entry.manager, nil
}

// Remove cancels the session's timers and drops it from the registry.
// Idempotent: removing an unknown ID is a no-op.
func (r *Registry) Remove(sessionID string) {
	r.mu.Lock()
	entry, ok := r.entries[sessionID]
	if ok {
		delete(r.entries, sessionID)
	}
	r.mu.Unlock()

	if ok {
		entry.manager.Clear()
	}
}

// Size returns the number of live sessions
func (r *Registry) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

func (r *Registry) handleWarning(sess *models.Session) {
	r.logger.Info("session inactivity warning", slog.String("session_id", sess.ID))
	if r.hooks.OnWarning != nil {
		r.hooks.OnWarning(sess)
	}
}

func (r *Registry) handleTimeout(sess *models.Session) {
	r.mu.Lock()
	// The manager already cleared itself; only drop the entry if it still
	// belongs to this session object (a re-login may have replaced it).
	if entry, ok := r.entries[sess.ID]; ok && entry.sess == sess {
		delete(r.entries, sess.ID)
	}
	r.mu.Unlock()

	r.logger.Info("session timed out due to inactivity", slog.String("session_id", sess.ID))
	if r.hooks.OnTimeout != nil {
		r.hooks.OnTimeout(sess)
	}
}
