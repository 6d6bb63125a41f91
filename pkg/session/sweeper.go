package session

import (
	"context"
	"log/slog"
	"time"

	"github.com/talhaorak/taiga-mcp/internal/logging"
)

// Sweeper periodically reclaims expired sessions so an idle session releases
// its transport without an explicit logout. A sweep failure does not stop the
// loop; it shortens the pause before the next try.
type Sweeper struct {
	store           *Store
	interval        time.Duration
	failureInterval time.Duration
	logger          *slog.Logger
}

// NewSweeper creates a sweeper over the given store. interval is the pause
// after a clean sweep, failureInterval the shorter pause after an error.
func NewSweeper(store *Store, interval, failureInterval time.Duration, logger *slog.Logger) *Sweeper {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Sweeper{
		store:           store,
		interval:        interval,
		failureInterval: failureInterval,
		logger:          logger,
	}
}

// Run sweeps until ctx is cancelled. It returns promptly on cancellation and
// leaves no timer running. Intended to be launched as a goroutine.
func (sw *Sweeper) Run(ctx context.Context) {
	timer := time.NewTimer(sw.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		next := sw.interval
		if _, err := sw.store.Sweep(ctx); err != nil {
			sw.logger.Error("Session sweep failed", "err", err)
			next = sw.failureInterval
		}
		timer.Reset(next)
	}
}
