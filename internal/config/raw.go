package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// IncludeList supports either:
//
//	include: "/path/to/file.yaml"
//
// or:
//
//	include:
//	  - "/path/to/file.yaml"
//	  - "/path/to/dir"
type IncludeList []string

func (l *IncludeList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case 0:
		// Not present.
		*l = nil
		return nil
	case yaml.ScalarNode:
		if value.Tag != "!!str" {
			return fmt.Errorf("include must be a string or list of strings")
		}
		*l = []string{value.Value}
		return nil
	case yaml.SequenceNode:
		out := make([]string, 0, len(value.Content))
		for _, item := range value.Content {
			if item.Kind != yaml.ScalarNode || item.Tag != "!!str" {
				return fmt.Errorf("include entries must be strings")
			}
			out = append(out, item.Value)
		}
		*l = out
		return nil
	default:
		return fmt.Errorf("include must be a string or list of strings")
	}
}

// A nil list means "not set"; an explicit empty list clears the default.
type RawRules struct {
	SystemPrefixes           []string `yaml:"system_prefixes"`
	HardExclusions           []string `yaml:"hard_exclusions"`
	HelperPatterns           []string `yaml:"helper_patterns"`
	ImportantOverrides       []string `yaml:"important_overrides"`
	ExtendSystemPrefixes     []string `yaml:"extend_system_prefixes"`
	ExtendHardExclusions     []string `yaml:"extend_hard_exclusions"`
	ExtendHelperPatterns     []string `yaml:"extend_helper_patterns"`
	ExtendImportantOverrides []string `yaml:"extend_important_overrides"`
	RequireIcon              *bool    `yaml:"require_icon"`
}

type RawActivation struct {
	AttemptTimeout *time.Duration `yaml:"attempt_timeout"`
}

type RawRestart struct {
	TerminateWait    *time.Duration `yaml:"terminate_wait"`
	ExitPollInterval *time.Duration `yaml:"exit_poll_interval"`
	Spacing          *time.Duration `yaml:"spacing"`
}

type RawLoggingConfig struct {
	Level *string `yaml:"level"`
}

type RawHistory struct {
	Enabled *bool   `yaml:"enabled"`
	Path    *string `yaml:"path"`
}

type RawMetrics struct {
	Listen *string `yaml:"listen"`
}

type RawHotkeys struct {
	Refresh *string `yaml:"refresh"`
	Palette *string `yaml:"palette"`
}

type RawPalette struct {
	Backend *string `yaml:"backend"`
}

type RawConfig struct {
	Include             IncludeList       `yaml:"include"`
	RefreshInterval     *time.Duration    `yaml:"refresh_interval"`
	DragThreshold       *float64          `yaml:"drag_threshold"`
	Rules               *RawRules         `yaml:"rules"`
	Priority            []string          `yaml:"priority"`
	ExtendPriority      []string          `yaml:"extend_priority"`
	LowPriorityKeywords []string          `yaml:"low_priority_keywords"`
	Activation          *RawActivation    `yaml:"activation"`
	Restart             *RawRestart       `yaml:"restart"`
	Logging             *RawLoggingConfig `yaml:"logging"`
	History             *RawHistory       `yaml:"history"`
	Metrics             *RawMetrics       `yaml:"metrics"`
	Hotkeys             *RawHotkeys       `yaml:"hotkeys"`
	Palette             *RawPalette       `yaml:"palette"`
	HostHintCommand     *string           `yaml:"host_hint_command"`
}

// merge layers other over r: set fields in other win, extend_* lists
// accumulate.
func (r RawConfig) merge(other RawConfig) RawConfig {
	out := r
	out.Include = nil

	if other.RefreshInterval != nil {
		out.RefreshInterval = other.RefreshInterval
	}
	if other.DragThreshold != nil {
		out.DragThreshold = other.DragThreshold
	}
	if other.Rules != nil {
		out.Rules = mergeRawRules(out.Rules, other.Rules)
	}
	if other.Priority != nil {
		out.Priority = other.Priority
	}
	out.ExtendPriority = appendUnique(out.ExtendPriority, other.ExtendPriority)
	if other.LowPriorityKeywords != nil {
		out.LowPriorityKeywords = other.LowPriorityKeywords
	}
	if other.Activation != nil {
		a := RawActivation{}
		if out.Activation != nil {
			a = *out.Activation
		}
		if other.Activation.AttemptTimeout != nil {
			a.AttemptTimeout = other.Activation.AttemptTimeout
		}
		out.Activation = &a
	}
	if other.Restart != nil {
		rs := RawRestart{}
		if out.Restart != nil {
			rs = *out.Restart
		}
		if other.Restart.TerminateWait != nil {
			rs.TerminateWait = other.Restart.TerminateWait
		}
		if other.Restart.ExitPollInterval != nil {
			rs.ExitPollInterval = other.Restart.ExitPollInterval
		}
		if other.Restart.Spacing != nil {
			rs.Spacing = other.Restart.Spacing
		}
		out.Restart = &rs
	}
	if other.Logging != nil && other.Logging.Level != nil {
		out.Logging = &RawLoggingConfig{Level: other.Logging.Level}
	}
	if other.History != nil {
		h := RawHistory{}
		if out.History != nil {
			h = *out.History
		}
		if other.History.Enabled != nil {
			h.Enabled = other.History.Enabled
		}
		if other.History.Path != nil {
			h.Path = other.History.Path
		}
		out.History = &h
	}
	if other.Metrics != nil && other.Metrics.Listen != nil {
		out.Metrics = &RawMetrics{Listen: other.Metrics.Listen}
	}
	if other.Hotkeys != nil {
		hk := RawHotkeys{}
		if out.Hotkeys != nil {
			hk = *out.Hotkeys
		}
		if other.Hotkeys.Refresh != nil {
			hk.Refresh = other.Hotkeys.Refresh
		}
		if other.Hotkeys.Palette != nil {
			hk.Palette = other.Hotkeys.Palette
		}
		out.Hotkeys = &hk
	}
	if other.Palette != nil && other.Palette.Backend != nil {
		out.Palette = &RawPalette{Backend: other.Palette.Backend}
	}
	if other.HostHintCommand != nil {
		out.HostHintCommand = other.HostHintCommand
	}
	return out
}

func mergeRawRules(base, other *RawRules) *RawRules {
	out := RawRules{}
	if base != nil {
		out = *base
	}
	if other.SystemPrefixes != nil {
		out.SystemPrefixes = other.SystemPrefixes
	}
	if other.HardExclusions != nil {
		out.HardExclusions = other.HardExclusions
	}
	if other.HelperPatterns != nil {
		out.HelperPatterns = other.HelperPatterns
	}
	if other.ImportantOverrides != nil {
		out.ImportantOverrides = other.ImportantOverrides
	}
	out.ExtendSystemPrefixes = appendUnique(out.ExtendSystemPrefixes, other.ExtendSystemPrefixes)
	out.ExtendHardExclusions = appendUnique(out.ExtendHardExclusions, other.ExtendHardExclusions)
	out.ExtendHelperPatterns = appendUnique(out.ExtendHelperPatterns, other.ExtendHelperPatterns)
	out.ExtendImportantOverrides = appendUnique(out.ExtendImportantOverrides, other.ExtendImportantOverrides)
	if other.RequireIcon != nil {
		out.RequireIcon = other.RequireIcon
	}
	return &out
}

func appendUnique(base, extra []string) []string {
	if len(extra) == 0 {
		return base
	}
	seen := make(map[string]bool, len(base)+len(extra))
	out := make([]string, 0, len(base)+len(extra))
	for _, list := range [][]string{base, extra} {
		for _, v := range list {
			if seen[v] {
				continue
			}
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}
