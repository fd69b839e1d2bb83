package limiter

import (
	"math"
	"sync"
	"time"
)

// Config holds fixed-window limiter settings
type Config struct {
	MaxAttempts int           // attempts denied once the window count reaches this
	Window      time.Duration // fixed window length
}

// DefaultAuthConfig returns the limiter settings for authentication actions
func DefaultAuthConfig() Config {
	return Config{
		MaxAttempts: 5,
		Window:      15 * time.Minute,
	}
}

// DefaultGeneralConfig returns the limiter settings for general actions
func DefaultGeneralConfig() Config {
	return Config{
		MaxAttempts: 10,
		Window:      1 * time.Minute,
	}
}

// record tracks attempts for one identifier within the current window
type record struct {
	count         int
	windowResetAt time.Time
}

// Limiter implements fixed-window attempt counting per identifier.
// It is purely advisory: it never touches the network and never fails.
// The backend remains the authority on whether a credential is valid;
// this only throttles locally.
type Limiter struct {
	mu      sync.Mutex
	config  Config
	records map[string]*record
	now     func() time.Time
}

// New creates a Limiter with the given config
func New(config Config) *Limiter {
	return &Limiter{
		config:  config,
		records: make(map[string]*record),
		now:     time.Now,
	}
}

// Allow reports whether an attempt for the identifier is permitted and counts
// it against the current window. A fresh or expired window starts at count 1
// and is permitted. Within a live window the first MaxAttempts-1 calls are
// permitted; the call that brings the count to MaxAttempts is denied, as is
// every later call until the window resets. The count never grows past
// MaxAttempts.
func (l *Limiter) Allow(identifier string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()

	rec, ok := l.records[identifier]
	if !ok || now.After(rec.windowResetAt) {
		l.records[identifier] = &record{
			count:         1,
			windowResetAt: now.Add(l.config.Window),
		}
		return true
	}

	if rec.count >= l.config.MaxAttempts {
		return false
	}

	rec.count++
	return rec.count < l.config.MaxAttempts
}

// RemainingCooldown returns the time until the identifier's window resets,
// or zero when no live window exists
func (l *Limiter) RemainingCooldown(identifier string) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec, ok := l.records[identifier]
	if !ok {
		return 0
	}

	remaining := rec.windowResetAt.Sub(l.now())
	if remaining < 0 {
		return 0
	}
	return remaining
}

// RemainingCooldownSeconds returns RemainingCooldown rounded up to whole
// seconds, for countdown display
func (l *Limiter) RemainingCooldownSeconds(identifier string) int {
	remaining := l.RemainingCooldown(identifier)
	if remaining <= 0 {
		return 0
	}
	return int(math.Ceil(remaining.Seconds()))
}

// Reset deletes the identifier's record immediately, so the next Allow call
// behaves as if no prior attempts occurred. Called after a successful
// authentication to clear the penalty.
func (l *Limiter) Reset(identifier string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.records, identifier)
}

// Sweep removes records whose window has expired and returns how many were
// removed. Without it the record map grows without bound in a long-lived
// process; the janitor calls this periodically.
func (l *Limiter) Sweep() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	removed := 0
	for identifier, rec := range l.records {
		if now.After(rec.windowResetAt) {
			delete(l.records, identifier)
			removed++
		}
	}
	return removed
}

// Size returns the number of tracked identifiers
func (l *Limiter) Size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.records)
}
