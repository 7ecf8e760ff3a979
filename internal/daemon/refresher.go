package daemon

import (
	"context"
	"log/slog"
	"time"
)

// DefaultRefreshInterval is the periodic pipeline interval.
const DefaultRefreshInterval = 5 * time.Second

// Pipeline is what the refresher drives; *Controller implements it.
type Pipeline interface {
	Refresh(ctx context.Context, force bool) (bool, error)
	RefreshRequests() <-chan struct{}
}

// RefresherConfig holds configuration for the refresher.
type RefresherConfig struct {
	Interval time.Duration
	Logger   *slog.Logger
}

// Refresher triggers the pipeline on a ticker and on explicit requests.
type Refresher struct {
	interval time.Duration
	pipeline Pipeline
	logger   *slog.Logger
}

// NewRefresher creates a new refresher with the given configuration.
func NewRefresher(cfg RefresherConfig, pipeline Pipeline) *Refresher {
	interval := cfg.Interval
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Refresher{
		interval: interval,
		pipeline: pipeline,
		logger:   logger,
	}
}

// Run performs an initial pass and then refreshes on every tick and every
// explicit request. Blocks until context is cancelled.
func (r *Refresher) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("refresher started", "interval", r.interval)
	r.refresh(ctx, false)

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("refresher stopped")
			return
		case <-ticker.C:
			r.refresh(ctx, false)
		case <-r.pipeline.RefreshRequests():
			r.refresh(ctx, true)
		}
	}
}

// refresh performs a single pipeline pass.
func (r *Refresher) refresh(ctx context.Context, force bool) {
	// Recover from panics to prevent crashing the daemon
	defer func() {
		if err := recover(); err != nil {
			r.logger.Error("refresher panic recovered", "error", err)
		}
	}()

	published, err := r.pipeline.Refresh(ctx, force)
	if err != nil {
		if ctx.Err() == nil {
			r.logger.Warn("refresh failed", "error", err)
		}
		return
	}
	if published {
		r.logger.Debug("refresh published", "forced", force)
	}
}

// RefreshNow triggers an immediate forced pass.
func (r *Refresher) RefreshNow(ctx context.Context) (bool, error) {
	return r.pipeline.Refresh(ctx, true)
}
