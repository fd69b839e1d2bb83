package limiter

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// fakeClock lets tests control the limiter's view of time
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func newTestLimiter(config Config) (*Limiter, *fakeClock) {
	clock := &fakeClock{now: time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)}
	l := New(config)
	l.now = clock.Now
	return l, clock
}

func TestLimiterAllow_DeniesAtBoundary(t *testing.T) {
	l, _ := newTestLimiter(Config{MaxAttempts: 5, Window: 15 * time.Minute})

	for i := 1; i <= 4; i++ {
		assert.True(t, l.Allow("device-1"), "call %d should be allowed", i)
	}
	assert.False(t, l.Allow("device-1"), "call reaching the limit must be denied")
	assert.False(t, l.Allow("device-1"), "calls past the limit must stay denied")
}

func TestLimiterAllow_IdentifiersAreIndependent(t *testing.T) {
	l, _ := newTestLimiter(Config{MaxAttempts: 3, Window: time.Minute})

	assert.True(t, l.Allow("device-1"))
	assert.True(t, l.Allow("device-1"))
	assert.False(t, l.Allow("device-1"))

	// A different identifier starts with a fresh window
	assert.True(t, l.Allow("device-2"))
}

func TestLimiterAllow_WindowExpiryResetsCount(t *testing.T) {
	l, clock := newTestLimiter(Config{MaxAttempts: 3, Window: time.Minute})

	l.Allow("device-1")
	l.Allow("device-1")
	assert.False(t, l.Allow("device-1"))

	clock.Advance(time.Minute + time.Second)

	assert.True(t, l.Allow("device-1"), "expired window should allow again regardless of prior count")
	assert.True(t, l.Allow("device-1"))
	assert.False(t, l.Allow("device-1"))
}

func TestLimiterReset_ClearsPenalty(t *testing.T) {
	l, _ := newTestLimiter(Config{MaxAttempts: 2, Window: time.Minute})

	l.Allow("device-1")
	assert.False(t, l.Allow("device-1"))

	l.Reset("device-1")

	assert.True(t, l.Allow("device-1"), "after reset the identifier behaves as if untouched")
	assert.Equal(t, 0, l.RemainingCooldownSeconds("device-2"))
}

func TestLimiterRemainingCooldown(t *testing.T) {
	l, clock := newTestLimiter(Config{MaxAttempts: 5, Window: 15 * time.Minute})

	assert.Equal(t, time.Duration(0), l.RemainingCooldown("device-1"))

	l.Allow("device-1")
	assert.Equal(t, 15*time.Minute, l.RemainingCooldown("device-1"))

	clock.Advance(5 * time.Minute)
	assert.Equal(t, 10*time.Minute, l.RemainingCooldown("device-1"))
	assert.Equal(t, 600, l.RemainingCooldownSeconds("device-1"))

	clock.Advance(11 * time.Minute)
	assert.Equal(t, time.Duration(0), l.RemainingCooldown("device-1"))
	assert.Equal(t, 0, l.RemainingCooldownSeconds("device-1"))
}

func TestLimiterSweep_RemovesExpiredRecords(t *testing.T) {
	l, clock := newTestLimiter(Config{MaxAttempts: 5, Window: time.Minute})

	for i := 0; i < 10; i++ {
		l.Allow(fmt.Sprintf("device-%d", i))
	}
	assert.Equal(t, 10, l.Size())

	clock.Advance(30 * time.Second)
	l.Allow("device-fresh")

	clock.Advance(45 * time.Second) // first batch expired, device-fresh still live
	removed := l.Sweep()

	assert.Equal(t, 10, removed)
	assert.Equal(t, 1, l.Size())
}

func TestDefaultConfigs(t *testing.T) {
	auth := DefaultAuthConfig()
	assert.Equal(t, 5, auth.MaxAttempts)
	assert.Equal(t, 15*time.Minute, auth.Window)

	general := DefaultGeneralConfig()
	assert.Equal(t, 10, general.MaxAttempts)
	assert.Equal(t, 1*time.Minute, general.Window)
}
