package background

import (
	"context"
	"log/slog"
	"time"
)

// Sweeper is any component that can evict its expired state and report how
// many entries were removed. The attempt limiters and the CSRF token manager
// all qualify.
type Sweeper interface {
	Sweep() int
}

// Janitor periodically sweeps expired records out of in-memory stores.
// Without it the limiter's attempt records and the CSRF token map grow
// without bound in a long-lived process.
type Janitor struct {
	sweepers map[string]Sweeper
	logger   *slog.Logger
	interval time.Duration
	stopCh   chan struct{}
}

// NewJanitor creates a janitor over the named sweepers
func NewJanitor(sweepers map[string]Sweeper, logger *slog.Logger, interval time.Duration) *Janitor {
	return &Janitor{
		sweepers: sweepers,
		logger:   logger,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the periodic sweep loop; it blocks until Stop is called or the
// context is cancelled
func (j *Janitor) Start(ctx context.Context) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	// Run immediately on startup
	j.runSweep()

	for {
		select {
		case <-ticker.C:
			j.runSweep()
		case <-j.stopCh:
			j.logger.Info("janitor stopped")
			return
		case <-ctx.Done():
			j.logger.Info("janitor context cancelled")
			return
		}
	}
}

func (j *Janitor) runSweep() {
	for name, sweeper := range j.sweepers {
		if removed := sweeper.Sweep(); removed > 0 {
			j.logger.Info("swept expired records",
				slog.String("store", name),
				slog.Int("removed", removed))
		}
	}
}

// Stop signals the janitor to stop
func (j *Janitor) Stop() {
	close(j.stopCh)
}
