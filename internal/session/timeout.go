package session

import (
	"sync"
	"time"
)

// TimeoutConfig holds inactivity timeout settings. The warning fires first,
// leaving a grace period before the hard timeout forces sign-out.
type TimeoutConfig struct {
	WarningWindow time.Duration
	HardWindow    time.Duration
}

// DefaultTimeoutConfig returns a 25 minute warning with a 30 minute hard
// cutoff (5 minute grace period)
func DefaultTimeoutConfig() TimeoutConfig {
	return TimeoutConfig{
		WarningWindow: 25 * time.Minute,
		HardWindow:    30 * time.Minute,
	}
}

// TimeoutManager tracks inactivity for a single session. It is a small state
// machine: Idle (no timers) -> Active (both timers scheduled) -> Idle again on
// Clear or hard-timeout firing. Any qualifying activity restarts both
// deadlines from the activity instant; nothing extends a running deadline in
// place.
//
// The generation counter makes cancellation race-free: every Reset/Clear bumps
// it, and a timer firing with a stale generation is a no-op. Callbacks run on
// the timer goroutine with no internal lock held, so they may safely call back
// into the manager.
type TimeoutManager struct {
	mu     sync.Mutex
	config TimeoutConfig

	onWarning func()
	onTimeout func()

	generation      uint64
	warningTimer    *time.Timer
	hardTimer       *time.Timer
	warningDeadline time.Time
	hardDeadline    time.Time
	active          bool
}

// NewTimeoutManager creates an Idle manager. onWarning is expected to surface
// a notice to the user; onTimeout is expected to perform sign-out. Either may
// be nil.
func NewTimeoutManager(config TimeoutConfig, onWarning, onTimeout func()) *TimeoutManager {
	return &TimeoutManager{
		config:    config,
		onWarning: onWarning,
		onTimeout: onTimeout,
	}
}

// Start schedules both timers from now
func (m *TimeoutManager) Start() {
	m.Reset()
}

// Reset cancels any pending firings and restarts both deadlines from now
func (m *TimeoutManager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.cancelLocked()

	now := time.Now()
	m.generation++
	gen := m.generation
	m.warningDeadline = now.Add(m.config.WarningWindow)
	m.hardDeadline = now.Add(m.config.HardWindow)
	m.warningTimer = time.AfterFunc(m.config.WarningWindow, func() { m.fireWarning(gen) })
	m.hardTimer = time.AfterFunc(m.config.HardWindow, func() { m.fireTimeout(gen) })
	m.active = true
}

// Clear cancels both timers and returns to Idle. Safe to call repeatedly and
// from within callbacks.
func (m *TimeoutManager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.generation++
	m.cancelLocked()
	m.active = false
	m.warningDeadline = time.Time{}
	m.hardDeadline = time.Time{}
}

// Active reports whether timers are currently scheduled
func (m *TimeoutManager) Active() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

// Deadlines returns the current warning and hard deadlines; both are zero
// when the manager is Idle
func (m *TimeoutManager) Deadlines() (warning, hard time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.warningDeadline, m.hardDeadline
}

// cancelLocked stops pending timers; callers hold m.mu
func (m *TimeoutManager) cancelLocked() {
	if m.warningTimer != nil {
		m.warningTimer.Stop()
		m.warningTimer = nil
	}
	if m.hardTimer != nil {
		m.hardTimer.Stop()
		m.hardTimer = nil
	}
}

// fireWarning invokes the warning callback without altering timer state
func (m *TimeoutManager) fireWarning(gen uint64) {
	m.mu.Lock()
	stale := gen != m.generation || !m.active
	callback := m.onWarning
	m.mu.Unlock()

	if stale || callback == nil {
		return
	}
	callback()
}

// fireTimeout transitions to Idle and then invokes the timeout callback, so a
// hard timeout can never fire twice for one activity period
func (m *TimeoutManager) fireTimeout(gen uint64) {
	m.mu.Lock()
	if gen != m.generation || !m.active {
		m.mu.Unlock()
		return
	}
	m.generation++
	m.cancelLocked()
	m.active = false
	m.warningDeadline = time.Time{}
	m.hardDeadline = time.Time{}
	callback := m.onTimeout
	m.mu.Unlock()

	if callback != nil {
		callback()
	}
}
