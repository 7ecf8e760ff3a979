package platform

import (
	"context"

	"github.com/1broseidon/barkeep/internal/apps"
)

// SnapshotProvider lists the processes currently running on the host.
type SnapshotProvider interface {
	ListRunningApplications() ([]apps.RawProcess, error)
}

// Launcher performs best-effort activation and termination requests. None of
// the calls guarantee completion.
type Launcher interface {
	// Activate asks the process owning identity to come to the foreground.
	Activate(ctx context.Context, identity string) bool
	// Launch asks the host application registry to start or focus identity.
	Launch(ctx context.Context, identity string) bool
	// Terminate requests a graceful exit of the process.
	Terminate(pid int) error
	// OpenByLocation opens the application at its on-disk location.
	OpenByLocation(ctx context.Context, location string) error
}

// ExitWatcher is an optional interface for launchers that can tell whether a
// process is still alive.
type ExitWatcher interface {
	IsRunning(pid int) bool
}

// HostHinter nudges the host into re-laying out its status area. Purely
// cosmetic; callers must not depend on it.
type HostHinter interface {
	AttemptHostRefreshHint()
}

// Backend bundles everything the daemon needs from the host.
type Backend interface {
	SnapshotProvider
	Launcher
}

// NopHinter is a HostHinter that does nothing.
type NopHinter struct{}

// AttemptHostRefreshHint implements HostHinter.
func (NopHinter) AttemptHostRefreshHint() {}
