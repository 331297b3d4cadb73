// Package sweeper reaps idle playback sessions on a cron schedule.
// Transcripts only live as long as their session; a dashboard tab left open
// overnight should not pin its timers and stores forever.
package sweeper

import (
	"context"
	"fmt"
	"time"

	"github.com/adhocore/gronx"

	"playbackd/pkg/config"
	"playbackd/pkg/logger"
	"playbackd/pkg/playback"
)

// Start launches the sweep scheduler if enabled. Returns a cancel func.
func Start(ctx context.Context, cfg config.SweeperConfig, m *playback.Manager) (context.CancelFunc, error) {
	if !cfg.Enabled {
		logger.Info("sweeper_disabled")
		return func() {}, nil
	}
	cronExpr := cfg.Cron
	if cronExpr == "" {
		cronExpr = "*/5 * * * *"
	}
	if !gronx.IsValid(cronExpr) {
		logger.Error("sweeper_invalid_cron", "cron", cfg.Cron)
		return nil, fmt.Errorf("invalid sweeper cron expression: %s", cfg.Cron)
	}

	logger.Info("sweeper_enabled", "cron", cronExpr, "max_idle", cfg.MaxIdle.Duration().String())
	ctx2, cancel := context.WithCancel(ctx)
	go run(ctx2, cronExpr, cfg.MaxIdle.Duration(), m)
	return cancel, nil
}

// run computes the next cron tick with gronx and sleeps until it, sweeping
// idle sessions on each wakeup.
func run(ctx context.Context, cronExpr string, maxIdle time.Duration, m *playback.Manager) {
	for {
		select {
		case <-ctx.Done():
			logger.Info("sweeper_stopping")
			return
		default:
		}

		now := time.Now().UTC()
		next, err := gronx.NextTickAfter(cronExpr, now, false)
		if err != nil {
			logger.Error("sweeper_nexttick_failed", "cron", cronExpr, "error", err)
			select {
			case <-time.After(30 * time.Second):
			case <-ctx.Done():
				return
			}
			continue
		}

		select {
		case <-time.After(time.Until(next)):
			if n := m.SweepIdle(maxIdle); n > 0 {
				logger.Info("sweeper_reaped", "sessions", n)
			}
		case <-ctx.Done():
			logger.Info("sweeper_stopping")
			return
		}
	}
}
