package coordinator

import (
	"context"
	"log/slog"
	"time"
)

// Ticker is anything that can be asked to start a timer-driven cycle
type Ticker interface {
	Tick()
}

// AutoRefresh periodically triggers a new cycle
type AutoRefresh struct {
	target   Ticker
	interval time.Duration
	enabled  bool
	logger   *slog.Logger
}

// NewAutoRefresh creates a new AutoRefresh. A disabled or non-positive
// interval timer never ticks.
func NewAutoRefresh(target Ticker, interval time.Duration, enabled bool, logger *slog.Logger) *AutoRefresh {
	if logger == nil {
		logger = slog.Default()
	}
	return &AutoRefresh{
		target:   target,
		interval: interval,
		enabled:  enabled,
		logger:   logger,
	}
}

// Run starts the timer loop. It blocks until the context is cancelled.
func (a *AutoRefresh) Run(ctx context.Context) {
	if !a.enabled || a.interval <= 0 {
		a.logger.Info("AutoRefresh: disabled")
		<-ctx.Done()
		return
	}

	a.logger.Info("AutoRefresh: starting", "interval", a.interval)

	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			a.logger.Info("AutoRefresh: shutting down")
			return
		case <-ticker.C:
			a.target.Tick()
		}
	}
}
