package apps

import (
	"log/slog"
	"strings"
)

// Reason explains why the classifier accepted or rejected a process.
type Reason int

const (
	Accepted Reason = iota
	RejectMissingIdentity
	RejectSystemVendor
	RejectHardExclusion
	RejectHelper
	RejectNotStatusArea
)

// String returns the string representation of the reason
func (r Reason) String() string {
	switch r {
	case Accepted:
		return "accepted"
	case RejectMissingIdentity:
		return "missing identity or name"
	case RejectSystemVendor:
		return "system vendor process"
	case RejectHardExclusion:
		return "hard exclusion"
	case RejectHelper:
		return "helper process"
	case RejectNotStatusArea:
		return "not a visible status-area app"
	default:
		return "unknown"
	}
}

// RuleOptions are the raw tables a Rules value is built from.
type RuleOptions struct {
	SystemPrefixes     []string
	HardExclusions     []string
	HelperPatterns     []string
	ImportantOverrides []string
	// RequireIcon selects the stricter filter that also demands an icon.
	RequireIcon bool
}

// Rules is the immutable classification rule set. Build it once with
// NewRules and share the pointer; nothing mutates it afterwards.
type Rules struct {
	systemPrefixes []string
	hardExclusions map[string]struct{}
	helpers        []string
	important      []string
	requireIcon    bool
}

// NewRules compiles opts into a Rules value. Substring tables are lowercased
// once here so matching stays case-insensitive.
func NewRules(opts RuleOptions) *Rules {
	r := &Rules{
		systemPrefixes: compact(opts.SystemPrefixes, false),
		hardExclusions: make(map[string]struct{}, len(opts.HardExclusions)),
		helpers:        compact(opts.HelperPatterns, true),
		important:      compact(opts.ImportantOverrides, true),
		requireIcon:    opts.RequireIcon,
	}
	for _, name := range opts.HardExclusions {
		if name = strings.TrimSpace(name); name != "" {
			r.hardExclusions[name] = struct{}{}
		}
	}
	return r
}

// RequireIcon reports whether the stricter icon check is active.
func (r *Rules) RequireIcon() bool {
	return r.requireIcon
}

// Evaluate runs the short-circuiting decision order for one process.
func (r *Rules) Evaluate(p RawProcess) Reason {
	id := strings.TrimSpace(p.BundleID)
	name := strings.TrimSpace(p.Name)
	if id == "" || name == "" {
		return RejectMissingIdentity
	}

	for _, prefix := range r.systemPrefixes {
		if strings.HasPrefix(id, prefix) {
			return RejectSystemVendor
		}
	}

	if r.isHardExcluded(id) || r.isHardExcluded(name) {
		return RejectHardExclusion
	}

	lowerID := strings.ToLower(id)
	lowerName := strings.ToLower(name)
	isHelper := containsAny(lowerName, lowerID, r.helpers)
	isImportant := containsAny(lowerName, lowerID, r.important)
	if isHelper && !isImportant {
		return RejectHelper
	}

	if !p.Accessory || p.Hidden || p.Location == "" {
		return RejectNotStatusArea
	}
	if r.requireIcon && p.Icon == 0 {
		return RejectNotStatusArea
	}

	return Accepted
}

func (r *Rules) isHardExcluded(key string) bool {
	_, ok := r.hardExclusions[key]
	return ok
}

// Classifier turns a raw snapshot into candidate applications.
type Classifier struct {
	rules  *Rules
	logger *slog.Logger
}

// NewClassifier creates a classifier. A nil logger discards diagnostics.
func NewClassifier(rules *Rules, logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Classifier{rules: rules, logger: logger}
}

// Classify returns the accepted processes in snapshot order. Rejections are
// not errors; they are traced at debug level.
func (c *Classifier) Classify(snapshot []RawProcess) []Application {
	return classify(snapshot, c.rules, c.logger)
}

// Classify is the pure form of Classifier.Classify without diagnostics.
func Classify(snapshot []RawProcess, rules *Rules) []Application {
	return classify(snapshot, rules, nil)
}

func classify(snapshot []RawProcess, rules *Rules, logger *slog.Logger) []Application {
	out := make([]Application, 0, len(snapshot))
	for _, p := range snapshot {
		reason := rules.Evaluate(p)
		if reason != Accepted {
			if logger != nil {
				logger.Debug("skipping process",
					"name", p.Name,
					"bundle_id", p.BundleID,
					"pid", p.PID,
					"reason", reason.String())
			}
			continue
		}
		out = append(out, fromRaw(p))
	}
	return out
}

func containsAny(name, id string, patterns []string) bool {
	for _, pattern := range patterns {
		if strings.Contains(name, pattern) || strings.Contains(id, pattern) {
			return true
		}
	}
	return false
}

func compact(values []string, lower bool) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]bool, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if lower {
			v = strings.ToLower(v)
		}
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
