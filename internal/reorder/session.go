package reorder

import (
	"math"

	"github.com/1broseidon/barkeep/internal/apps"
)

// DefaultThreshold is the minimum pointer displacement that turns a press
// into a drag.
const DefaultThreshold = 5.0

// Phase represents the current phase of a reorder gesture
type Phase int

const (
	// PhaseIdle means no drag is in progress (a press below the threshold
	// still counts as idle)
	PhaseIdle Phase = iota
	// PhaseDragging means a row has been picked up and is following the pointer
	PhaseDragging
	// PhaseDropped means the row was released over a different row
	PhaseDropped
)

// String returns the string representation of the phase
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseDragging:
		return "dragging"
	case PhaseDropped:
		return "dropped"
	default:
		return "unknown"
	}
}

// Point is a pointer position in presentation units.
type Point struct {
	X float64
	Y float64
}

// Result is the outcome of a completed drop.
type Result struct {
	Source  string
	Target  string
	Ordered []apps.Application
}

// Session captures one drag gesture. It is not safe for concurrent use; the
// owning control loop serializes access.
type Session struct {
	threshold float64

	phase   Phase
	source  string
	pressed bool
	origin  Point
}

// NewSession creates an idle session. A non-positive threshold selects
// DefaultThreshold.
func NewSession(threshold float64) *Session {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Session{threshold: threshold}
}

// Phase returns the current phase.
func (s *Session) Phase() Phase { return s.phase }

// Source returns the identity being dragged, if any.
func (s *Session) Source() string { return s.source }

// Dragging reports whether a drag is in progress.
func (s *Session) Dragging() bool { return s.phase == PhaseDragging }

// Armed reports whether a press or a drag is in progress.
func (s *Session) Armed() bool { return s.pressed || s.phase == PhaseDragging }

// Threshold returns the displacement needed to start dragging.
func (s *Session) Threshold() float64 { return s.threshold }

// Press arms a gesture on source. Only accepted while idle and not already
// armed.
func (s *Session) Press(source string, at Point) bool {
	if s.phase != PhaseIdle || s.pressed || source == "" {
		return false
	}
	s.pressed = true
	s.source = source
	s.origin = at
	return true
}

// Motion reports pointer movement. It returns true on the transition into
// PhaseDragging.
func (s *Session) Motion(at Point) bool {
	if !s.pressed || s.phase != PhaseIdle {
		return false
	}
	if math.Hypot(at.X-s.origin.X, at.Y-s.origin.Y) <= s.threshold {
		return false
	}
	s.phase = PhaseDragging
	return true
}

// Drop releases the dragged row over target and, when valid, returns the
// spliced ordering. Drops onto the source itself, onto identities absent
// from ordered, or without an active drag are no-ops. The session is idle
// again afterwards in every case.
func (s *Session) Drop(target string, ordered []apps.Application) (Result, bool) {
	defer s.Reset()

	if s.phase != PhaseDragging || target == s.source {
		return Result{}, false
	}
	if apps.IndexOf(ordered, s.source) < 0 || apps.IndexOf(ordered, target) < 0 {
		return Result{}, false
	}

	s.phase = PhaseDropped
	return Result{
		Source:  s.source,
		Target:  target,
		Ordered: Splice(ordered, s.source, target),
	}, true
}

// Release ends the gesture without a drop target (pointer released outside
// any row, or a plain click below the threshold).
func (s *Session) Release() {
	s.Reset()
}

// Cancel abandons the gesture.
func (s *Session) Cancel() {
	s.Reset()
}

// Reset returns the session to idle.
func (s *Session) Reset() {
	s.phase = PhaseIdle
	s.source = ""
	s.pressed = false
	s.origin = Point{}
}

// Splice moves source to target's position: the source is removed and then
// inserted at the index the target had before removal. The input is not
// modified. Unknown identities or source == target return an unchanged copy.
func Splice(ordered []apps.Application, source, target string) []apps.Application {
	out := make([]apps.Application, len(ordered))
	copy(out, ordered)

	si := apps.IndexOf(out, source)
	ti := apps.IndexOf(out, target)
	if si < 0 || ti < 0 || si == ti {
		apps.Renumber(out)
		return out
	}

	moved := out[si]
	out = append(out[:si], out[si+1:]...)
	out = append(out[:ti], append([]apps.Application{moved}, out[ti:]...)...)
	apps.Renumber(out)
	return out
}
