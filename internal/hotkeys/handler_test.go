package hotkeys

import (
	"errors"
	"reflect"
	"sort"
	"testing"
)

type countingRefresher struct{ n int }

func (c *countingRefresher) RequestRefresh() { c.n++ }

func TestHandler_WithoutDisplay(t *testing.T) {
	h := NewHandler(struct{}{}, nil)
	if err := h.RegisterRefresh("Mod4-b", &countingRefresher{}); !errors.Is(err, ErrNoDisplay) {
		t.Fatalf("RegisterRefresh err = %v, want ErrNoDisplay", err)
	}
}

func TestLockCombinations(t *testing.T) {
	tests := []struct {
		name  string
		masks []uint16
		want  []uint16
	}{
		{"caps only", []uint16{2, 0, 0}, []uint16{2}},
		{"caps and numlock", []uint16{2, 16, 0}, []uint16{2, 16, 18}},
		{"duplicate mask collapses", []uint16{2, 2, 16}, []uint16{2, 16, 18}},
		{"three locks", []uint16{2, 16, 128}, []uint16{2, 16, 18, 128, 130, 144, 146}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := lockCombinations(tt.masks...)
			sort.Slice(got, func(i, j int) bool { return got[i] < got[j] })
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("lockCombinations(%v) = %v, want %v", tt.masks, got, tt.want)
			}
		})
	}
}
