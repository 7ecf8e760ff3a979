package reorder

import (
	"reflect"
	"testing"

	"github.com/1broseidon/barkeep/internal/apps"
)

func seq(ids ...string) []apps.Application {
	out := make([]apps.Application, len(ids))
	for i, id := range ids {
		out[i] = apps.Application{Identity: id, OrderIndex: i}
	}
	return out
}

func TestSplice(t *testing.T) {
	tests := []struct {
		name           string
		source, target string
		want           []string
	}{
		{"A onto C", "A", "C", []string{"B", "C", "A", "D"}},
		{"D onto A", "D", "A", []string{"D", "A", "B", "C"}},
		{"A onto A", "A", "A", []string{"A", "B", "C", "D"}},
		{"B onto D", "B", "D", []string{"A", "C", "D", "B"}},
		{"unknown source", "X", "A", []string{"A", "B", "C", "D"}},
		{"unknown target", "A", "X", []string{"A", "B", "C", "D"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := seq("A", "B", "C", "D")
			got := Splice(in, tt.source, tt.target)
			if ids := apps.Identities(got); !reflect.DeepEqual(ids, tt.want) {
				t.Fatalf("Splice(%s, %s) = %v, want %v", tt.source, tt.target, ids, tt.want)
			}
			for i, a := range got {
				if a.OrderIndex != i {
					t.Errorf("OrderIndex of %s = %d, want %d", a.Identity, a.OrderIndex, i)
				}
			}
			if ids := apps.Identities(in); !reflect.DeepEqual(ids, []string{"A", "B", "C", "D"}) {
				t.Errorf("input mutated: %v", ids)
			}
		})
	}
}

func TestSplice_RepeatedDropStaysAdjacent(t *testing.T) {
	ordered := seq("A", "B", "C", "D")
	for i := 0; i < 3; i++ {
		ordered = Splice(ordered, "A", "C")
		ai := apps.IndexOf(ordered, "A")
		ci := apps.IndexOf(ordered, "C")
		if d := ai - ci; d != 1 && d != -1 {
			t.Fatalf("drop %d: A at %d not adjacent to C at %d (%v)", i+1, ai, ci, apps.Identities(ordered))
		}
		if len(ordered) != 4 {
			t.Fatalf("drop %d changed length: %v", i+1, apps.Identities(ordered))
		}
	}
}

func TestSession_BelowThresholdIsClick(t *testing.T) {
	s := NewSession(5)
	if !s.Press("A", Point{X: 10, Y: 10}) {
		t.Fatal("Press rejected on idle session")
	}
	if s.Motion(Point{X: 13, Y: 13}) {
		t.Fatal("Motion within threshold started a drag")
	}
	if s.Phase() != PhaseIdle {
		t.Fatalf("phase = %v, want idle", s.Phase())
	}
	if _, ok := s.Drop("C", seq("A", "B", "C")); ok {
		t.Fatal("Drop without drag should be a no-op")
	}
	if s.Phase() != PhaseIdle || s.Source() != "" {
		t.Errorf("session not reset: phase=%v source=%q", s.Phase(), s.Source())
	}
}

func TestSession_DragAndDrop(t *testing.T) {
	s := NewSession(5)
	s.Press("A", Point{})
	if !s.Motion(Point{Y: 6}) {
		t.Fatal("Motion beyond threshold should start dragging")
	}
	if !s.Dragging() || s.Source() != "A" {
		t.Fatalf("phase=%v source=%q", s.Phase(), s.Source())
	}
	if s.Press("B", Point{}) {
		t.Fatal("Press accepted while dragging")
	}

	res, ok := s.Drop("C", seq("A", "B", "C", "D"))
	if !ok {
		t.Fatal("valid drop rejected")
	}
	if res.Source != "A" || res.Target != "C" {
		t.Errorf("result pair = (%s, %s)", res.Source, res.Target)
	}
	if ids := apps.Identities(res.Ordered); !reflect.DeepEqual(ids, []string{"B", "C", "A", "D"}) {
		t.Errorf("ordered = %v", ids)
	}
	if s.Phase() != PhaseIdle {
		t.Errorf("phase after drop = %v, want idle", s.Phase())
	}
}

func TestSession_InvalidDrops(t *testing.T) {
	tests := []struct {
		name   string
		target string
		list   []apps.Application
	}{
		{"onto self", "A", seq("A", "B")},
		{"target vanished", "Z", seq("A", "B")},
		{"source vanished", "B", seq("B", "C")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSession(1)
			s.Press("A", Point{})
			s.Motion(Point{X: 2})
			if _, ok := s.Drop(tt.target, tt.list); ok {
				t.Fatal("invalid drop accepted")
			}
			if s.Phase() != PhaseIdle {
				t.Errorf("phase = %v, want idle", s.Phase())
			}
		})
	}
}

func TestSession_Cancel(t *testing.T) {
	s := NewSession(0)
	if s.Threshold() != DefaultThreshold {
		t.Errorf("threshold = %v, want default %v", s.Threshold(), DefaultThreshold)
	}
	s.Press("A", Point{})
	if !s.Armed() || s.Dragging() {
		t.Fatalf("after Press: armed=%v dragging=%v", s.Armed(), s.Dragging())
	}
	s.Motion(Point{X: 100})
	s.Cancel()
	if s.Dragging() || s.Armed() {
		t.Fatal("still dragging after Cancel")
	}
	if !s.Press("B", Point{}) {
		t.Error("Press rejected after Cancel")
	}
}

func TestPhaseString(t *testing.T) {
	for phase, want := range map[Phase]string{
		PhaseIdle:     "idle",
		PhaseDragging: "dragging",
		PhaseDropped:  "dropped",
		Phase(42):     "unknown",
	} {
		if got := phase.String(); got != want {
			t.Errorf("Phase(%d).String() = %q, want %q", phase, got, want)
		}
	}
}
