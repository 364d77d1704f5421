// Package worker holds background jobs run under the supervisor.
package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/ganjinghwan/E-Recipe-HubG-sub000/internal/logging"
	"github.com/ganjinghwan/E-Recipe-HubG-sub000/internal/services"
)

// Sweeper runs one cleanup pass.
type Sweeper interface {
	Sweep(ctx context.Context, now time.Time) (*services.SweepResult, error)
}

// CleanupRunner sweeps once at start and then every interval until its
// context is cancelled.
type CleanupRunner struct {
	sweeper  Sweeper
	interval time.Duration
	timeout  time.Duration
	log      zerolog.Logger
	now      func() time.Time
}

func NewCleanupRunner(sweeper Sweeper, interval time.Duration) *CleanupRunner {
	if interval <= 0 {
		interval = time.Hour
	}
	return &CleanupRunner{
		sweeper:  sweeper,
		interval: interval,
		timeout:  5 * time.Minute,
		log:      logging.Component("cleanup-runner"),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Serve implements suture.Service. A failed sweep is logged and retried on
// the next tick rather than restarting the service.
func (c *CleanupRunner) Serve(ctx context.Context) error {
	c.log.Info().Dur("interval", c.interval).Msg("cleanup runner started")
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.runOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			c.log.Info().Msg("cleanup runner stopped")
			return ctx.Err()
		case <-ticker.C:
			c.runOnce(ctx)
		}
	}
}

func (c *CleanupRunner) runOnce(ctx context.Context) {
	sweepCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	res, err := c.sweeper.Sweep(sweepCtx, c.now())
	if err != nil {
		if ctx.Err() == nil {
			c.log.Error().Err(err).Msg("cleanup sweep failed")
		}
		return
	}
	c.log.Info().Int("users_deleted", res.UsersDeleted).Int64("events_deleted", res.EventsDeleted).Msg("cleanup sweep done")
}

func (c *CleanupRunner) String() string { return "cleanup-runner" }
