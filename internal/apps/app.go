package apps

import (
	"strings"
	"time"
)

// IconHandle is an opaque reference to a renderable icon. Zero means absent.
type IconHandle uint32

// RawProcess is one running process as reported by a snapshot provider.
type RawProcess struct {
	BundleID   string
	Name       string
	Icon       IconHandle
	Accessory  bool   // registered as status-area only (no normal windows)
	Hidden     bool   // host-reported hidden state
	Location   string // on-disk bundle/executable location, empty when unresolved
	LaunchTime time.Time
	PID        int
}

// Application is a running process accepted as a status-area utility.
type Application struct {
	Identity          string     `json:"identity"`
	BundleID          string     `json:"bundle_id,omitempty"`
	DisplayName       string     `json:"display_name,omitempty"`
	Icon              IconHandle `json:"icon,omitempty"`
	Accessory         bool       `json:"accessory"`
	Hidden            bool       `json:"hidden"`
	HasBundleLocation bool       `json:"has_bundle_location"`
	Location          string     `json:"location,omitempty"`
	LaunchTime        time.Time  `json:"launch_time,omitempty"`
	PID               int        `json:"pid,omitempty"`
	OrderIndex        int        `json:"order_index"`
}

// IdentityOf returns the stable key for a process: the bundle id when
// present, otherwise the display name.
func IdentityOf(bundleID, name string) string {
	if id := strings.TrimSpace(bundleID); id != "" {
		return id
	}
	return strings.TrimSpace(name)
}

// Name returns the display name, or "unknown" when the host reported none.
func (a Application) Name() string {
	if a.DisplayName == "" {
		return "unknown"
	}
	return a.DisplayName
}

// HasLaunchTime reports whether the host supplied a launch timestamp.
func (a Application) HasLaunchTime() bool {
	return !a.LaunchTime.IsZero()
}

// Status returns a short human-readable state line such as
// "running • status-area app • hidden".
func (a Application) Status() string {
	status := "running"
	if a.Accessory {
		status += " • status-area app"
	}
	if a.Hidden {
		status += " • hidden"
	}
	return status
}

// Identities returns the identities of ordered in sequence.
func Identities(ordered []Application) []string {
	ids := make([]string, len(ordered))
	for i, a := range ordered {
		ids[i] = a.Identity
	}
	return ids
}

// IndexOf returns the position of identity in ordered, or -1.
func IndexOf(ordered []Application, identity string) int {
	for i, a := range ordered {
		if a.Identity == identity {
			return i
		}
	}
	return -1
}

// Find returns the application with the given identity.
func Find(ordered []Application, identity string) (Application, bool) {
	if i := IndexOf(ordered, identity); i >= 0 {
		return ordered[i], true
	}
	return Application{}, false
}

func fromRaw(p RawProcess) Application {
	return Application{
		Identity:          IdentityOf(p.BundleID, p.Name),
		BundleID:          strings.TrimSpace(p.BundleID),
		DisplayName:       strings.TrimSpace(p.Name),
		Icon:              p.Icon,
		Accessory:         p.Accessory,
		Hidden:            p.Hidden,
		HasBundleLocation: p.Location != "",
		Location:          p.Location,
		LaunchTime:        p.LaunchTime,
		PID:               p.PID,
	}
}
