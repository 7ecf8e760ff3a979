package daemon

import "github.com/1broseidon/barkeep/internal/apps"

// Detector decides whether a freshly ordered sequence should replace the
// published one. Only a change in count publishes, and never while the user
// is interacting; this keeps the menu from flickering between identical
// lists.
type Detector struct {
	lastCount int
	published []apps.Application
}

// NewDetector returns a detector whose first tick always publishes.
func NewDetector() *Detector {
	return &Detector{lastCount: -1}
}

// OnTick publishes ordered when its length differs from the last published
// count and busy is false. It returns the sequence now published.
func (d *Detector) OnTick(ordered []apps.Application, busy bool) (bool, []apps.Application) {
	if busy || !d.Changed(ordered) {
		return false, d.Published()
	}
	d.lastCount = len(ordered)
	d.published = cloneApps(ordered)
	return true, d.Published()
}

// Changed reports whether ordered would publish if nothing suppressed it.
func (d *Detector) Changed(ordered []apps.Application) bool {
	return len(ordered) != d.lastCount
}

// CountChanged reports whether ordered differs in length from the published
// sequence. It is true before anything has been published.
func (d *Detector) CountChanged(ordered []apps.Application) bool {
	return d.published == nil || len(ordered) != len(d.published)
}

// Force makes the next unsuppressed tick publish regardless of count.
func (d *Detector) Force() {
	d.lastCount = -1
}

// Replace publishes ordered directly, as after a reorder.
func (d *Detector) Replace(ordered []apps.Application) {
	d.lastCount = len(ordered)
	d.published = cloneApps(ordered)
}

// Published returns a copy of the published sequence.
func (d *Detector) Published() []apps.Application {
	return cloneApps(d.published)
}

// Count returns the number of published applications.
func (d *Detector) Count() int {
	return len(d.published)
}

func cloneApps(in []apps.Application) []apps.Application {
	if in == nil {
		return []apps.Application{}
	}
	out := make([]apps.Application, len(in))
	copy(out, in)
	return out
}
