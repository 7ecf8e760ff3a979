package apps

import (
	"math"
	"sort"
	"strings"
)

// Dedupe drops later applications that share an identity with an earlier
// one. First-seen order is preserved.
func Dedupe(candidates []Application) []Application {
	seen := make(map[string]struct{}, len(candidates))
	out := make([]Application, 0, len(candidates))
	for _, a := range candidates {
		if _, dup := seen[a.Identity]; dup {
			continue
		}
		seen[a.Identity] = struct{}{}
		out = append(out, a)
	}
	return out
}

// PriorityList is an ordered list of name substrings for well-known status
// utilities. Earlier entries sort further left.
type PriorityList []string

// Rank returns the index of the first entry contained in name
// (case-insensitive), or math.MaxInt when nothing matches.
func (p PriorityList) Rank(name string) int {
	lower := strings.ToLower(name)
	for i, entry := range p {
		entry = strings.ToLower(strings.TrimSpace(entry))
		if entry == "" {
			continue
		}
		if strings.Contains(lower, entry) {
			return i
		}
	}
	return math.MaxInt
}

// Order returns a new slice sorted by priority rank, then launch time (or
// display name when either launch time is unknown). Equal keys keep their
// input order. overrides, when non-empty, is a manual identity order that is
// layered on top; see ApplyOverrides. OrderIndex is reassigned 0..n-1.
func Order(unique []Application, priority PriorityList, overrides []string) []Application {
	ordered := make([]Application, len(unique))
	copy(ordered, unique)

	ranks := make(map[string]int, len(ordered))
	for _, a := range ordered {
		ranks[a.Identity] = priority.Rank(a.DisplayName)
	}

	sort.SliceStable(ordered, func(i, j int) bool {
		ai, aj := ordered[i], ordered[j]
		ri, rj := ranks[ai.Identity], ranks[aj.Identity]
		if ri != rj {
			return ri < rj
		}
		if !ai.HasLaunchTime() || !aj.HasLaunchTime() {
			return ai.DisplayName < aj.DisplayName
		}
		return ai.LaunchTime.Before(aj.LaunchTime)
	})

	ordered = ApplyOverrides(ordered, overrides)
	Renumber(ordered)
	return ordered
}

// ApplyOverrides rearranges the applications named in overrides so they
// appear in the manual relative order, using only the slots they already
// occupy. Applications not named keep their position. ordered is modified in
// place and returned.
func ApplyOverrides(ordered []Application, overrides []string) []Application {
	if len(overrides) == 0 {
		return ordered
	}

	manual := make(map[string]int, len(overrides))
	for i, id := range overrides {
		if _, ok := manual[id]; !ok {
			manual[id] = i
		}
	}

	var slots []int
	var pinned []Application
	for i, a := range ordered {
		if _, ok := manual[a.Identity]; ok {
			slots = append(slots, i)
			pinned = append(pinned, a)
		}
	}
	sort.SliceStable(pinned, func(i, j int) bool {
		return manual[pinned[i].Identity] < manual[pinned[j].Identity]
	})
	for k, slot := range slots {
		ordered[slot] = pinned[k]
	}
	return ordered
}

// Renumber assigns OrderIndex to match slice position.
func Renumber(ordered []Application) {
	for i := range ordered {
		ordered[i].OrderIndex = i
	}
}

// SuggestHide returns the applications whose name or identity contains one
// of the low-priority keywords (case-insensitive), in ordered sequence.
func SuggestHide(ordered []Application, keywords []string) []Application {
	lowered := compact(keywords, true)
	var out []Application
	for _, a := range ordered {
		if containsAny(strings.ToLower(a.DisplayName), strings.ToLower(a.Identity), lowered) {
			out = append(out, a)
		}
	}
	return out
}
