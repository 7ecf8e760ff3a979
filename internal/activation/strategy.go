package activation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/1broseidon/barkeep/internal/apps"
	"github.com/1broseidon/barkeep/internal/platform"
)

// DefaultAttemptTimeout bounds a single strategy attempt.
const DefaultAttemptTimeout = 2 * time.Second

// Strategy identifies one way of bringing an application forward.
type Strategy int

const (
	// StrategyNone means no strategy succeeded
	StrategyNone Strategy = iota
	// StrategyDirect asks the running process to take the foreground
	StrategyDirect
	// StrategyLaunch asks the host registry to start or focus the identity
	StrategyLaunch
	// StrategyOpenLocation opens the on-disk bundle; may spawn a duplicate
	StrategyOpenLocation
)

// String returns the string representation of the strategy
func (s Strategy) String() string {
	switch s {
	case StrategyNone:
		return "none"
	case StrategyDirect:
		return "direct"
	case StrategyLaunch:
		return "launch"
	case StrategyOpenLocation:
		return "open-location"
	default:
		return "unknown"
	}
}

// MarshalText lets strategies appear by name in JSON.
func (s Strategy) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses a strategy name.
func (s *Strategy) UnmarshalText(text []byte) error {
	for _, candidate := range []Strategy{StrategyNone, StrategyDirect, StrategyLaunch, StrategyOpenLocation} {
		if candidate.String() == string(text) {
			*s = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown strategy %q", string(text))
}

// Outcome is the result of an activation request. Failed outcomes are not
// retried.
type Outcome struct {
	Succeeded bool     `json:"succeeded"`
	Via       Strategy `json:"via"`
}

// Failed is the outcome when every strategy failed.
var Failed = Outcome{}

// Activator runs the activation fallback chain.
type Activator struct {
	launcher platform.Launcher
	timeout  time.Duration
	logger   *slog.Logger
}

// NewActivator creates an activator. A non-positive timeout selects
// DefaultAttemptTimeout.
func NewActivator(launcher platform.Launcher, timeout time.Duration, logger *slog.Logger) *Activator {
	if timeout <= 0 {
		timeout = DefaultAttemptTimeout
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Activator{launcher: launcher, timeout: timeout, logger: logger}
}

// Activate tries direct activation, then launch by identity, then opening the
// bundle location, stopping at the first success. Each attempt is bounded by
// the attempt timeout.
func (a *Activator) Activate(ctx context.Context, app apps.Application) Outcome {
	for _, s := range []Strategy{StrategyDirect, StrategyLaunch, StrategyOpenLocation} {
		if ctx.Err() != nil {
			break
		}
		if s == StrategyOpenLocation && !app.HasBundleLocation {
			continue
		}
		if a.attempt(ctx, s, app) {
			a.logger.Info("activated", "identity", app.Identity, "via", s.String())
			return Outcome{Succeeded: true, Via: s}
		}
		a.logger.Debug("activation strategy failed", "identity", app.Identity, "strategy", s.String())
	}
	a.logger.Warn("activation failed", "identity", app.Identity, "name", app.Name())
	return Failed
}

// Launch runs only the launch-by-identity strategy, falling back to the
// bundle location. Used to bring an application back after a restart.
func (a *Activator) Launch(ctx context.Context, app apps.Application) Outcome {
	for _, s := range []Strategy{StrategyLaunch, StrategyOpenLocation} {
		if s == StrategyOpenLocation && !app.HasBundleLocation {
			continue
		}
		if a.attempt(ctx, s, app) {
			return Outcome{Succeeded: true, Via: s}
		}
	}
	return Failed
}

func (a *Activator) attempt(ctx context.Context, s Strategy, app apps.Application) bool {
	actx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	// Launchers are not trusted to honor ctx; the select enforces the bound.
	done := make(chan bool, 1)
	go func() {
		done <- a.try(actx, s, app)
	}()

	select {
	case ok := <-done:
		return ok
	case <-actx.Done():
		a.logger.Debug("activation strategy timed out", "identity", app.Identity, "strategy", s.String())
		return false
	}
}

func (a *Activator) try(ctx context.Context, s Strategy, app apps.Application) bool {
	switch s {
	case StrategyDirect:
		return a.launcher.Activate(ctx, app.Identity)
	case StrategyLaunch:
		return a.launcher.Launch(ctx, app.Identity)
	case StrategyOpenLocation:
		if err := a.launcher.OpenByLocation(ctx, app.Location); err != nil {
			a.logger.Debug("open by location failed", "identity", app.Identity, "location", app.Location, "error", err)
			return false
		}
		return true
	default:
		return false
	}
}
