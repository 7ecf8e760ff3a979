package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/1broseidon/barkeep/internal/apps"
)

const (
	DefaultRefreshInterval  = 5 * time.Second
	MinRefreshInterval      = time.Second
	DefaultDragThreshold    = 5.0
	DefaultAttemptTimeout   = 2 * time.Second
	DefaultTerminateWait    = 2 * time.Second
	DefaultExitPollInterval = 100 * time.Millisecond
	DefaultRestartSpacing   = 500 * time.Millisecond
)

// RulesConfig holds the classification tables.
type RulesConfig struct {
	SystemPrefixes     []string `yaml:"system_prefixes"`
	HardExclusions     []string `yaml:"hard_exclusions"`
	HelperPatterns     []string `yaml:"helper_patterns"`
	ImportantOverrides []string `yaml:"important_overrides"`
	// RequireIcon also rejects processes without a status-area icon.
	RequireIcon bool `yaml:"require_icon"`
}

// ActivationConfig bounds each activation strategy attempt.
type ActivationConfig struct {
	AttemptTimeout time.Duration `yaml:"attempt_timeout"`
}

// RestartConfig tunes the sequential restart worker.
type RestartConfig struct {
	// TerminateWait is the longest wait for the old process to exit before
	// relaunching anyway.
	TerminateWait time.Duration `yaml:"terminate_wait"`
	// ExitPollInterval is how often exit is checked; 0 sleeps TerminateWait.
	ExitPollInterval time.Duration `yaml:"exit_poll_interval"`
	// Spacing is the minimum gap between consecutive restarts.
	Spacing time.Duration `yaml:"spacing"`
}

// LoggingConfig configures daemon logging.
type LoggingConfig struct {
	// Level controls verbosity: debug, info, warn, error
	Level string `yaml:"level"`
}

// HistoryConfig configures the event journal.
type HistoryConfig struct {
	Enabled bool `yaml:"enabled"`
	// Path is the sqlite database file (default: $XDG_DATA_HOME/barkeep/history.db)
	Path string `yaml:"path,omitempty"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	// Listen is a host:port for /metrics; empty disables the endpoint.
	Listen string `yaml:"listen,omitempty"`
}

// PaletteConfig selects the launcher menu program.
type PaletteConfig struct {
	// Backend is auto, rofi, fuzzel, wofi or dmenu.
	Backend string `yaml:"backend"`
}

// HotkeysConfig holds global key bindings.
type HotkeysConfig struct {
	// Refresh forces a refresh, e.g. "Mod4-Mod1-b". Empty disables it.
	Refresh string `yaml:"refresh,omitempty"`
	// Palette opens "barkeep palette".
	Palette string `yaml:"palette,omitempty"`
}

// Config is the effective daemon configuration.
type Config struct {
	RefreshInterval     time.Duration    `yaml:"refresh_interval"`
	DragThreshold       float64          `yaml:"drag_threshold"`
	Rules               RulesConfig      `yaml:"rules"`
	Priority            []string         `yaml:"priority"`
	LowPriorityKeywords []string         `yaml:"low_priority_keywords"`
	Activation          ActivationConfig `yaml:"activation"`
	Restart             RestartConfig    `yaml:"restart"`
	Logging             LoggingConfig    `yaml:"logging"`
	History             HistoryConfig    `yaml:"history"`
	Metrics             MetricsConfig    `yaml:"metrics"`
	Hotkeys             HotkeysConfig    `yaml:"hotkeys"`
	Palette             PaletteConfig    `yaml:"palette"`
	// HostHintCommand runs through sh -c after restarts to nudge the tray host.
	HostHintCommand string `yaml:"host_hint_command,omitempty"`
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		RefreshInterval: DefaultRefreshInterval,
		DragThreshold:   DefaultDragThreshold,
		Rules: RulesConfig{
			SystemPrefixes:     BuiltinSystemPrefixes(),
			HardExclusions:     BuiltinHardExclusions(),
			HelperPatterns:     BuiltinHelperPatterns(),
			ImportantOverrides: BuiltinImportantOverrides(),
		},
		Priority:            BuiltinPriority(),
		LowPriorityKeywords: BuiltinLowPriorityKeywords(),
		Activation: ActivationConfig{
			AttemptTimeout: DefaultAttemptTimeout,
		},
		Restart: RestartConfig{
			TerminateWait:    DefaultTerminateWait,
			ExitPollInterval: DefaultExitPollInterval,
			Spacing:          DefaultRestartSpacing,
		},
		Logging: LoggingConfig{Level: "info"},
		History: HistoryConfig{Enabled: true},
		Palette: PaletteConfig{Backend: "auto"},
	}
}

// RuleOptions converts the rules section into classifier input.
func (c *Config) RuleOptions() apps.RuleOptions {
	return apps.RuleOptions{
		SystemPrefixes:     c.Rules.SystemPrefixes,
		HardExclusions:     c.Rules.HardExclusions,
		HelperPatterns:     c.Rules.HelperPatterns,
		ImportantOverrides: c.Rules.ImportantOverrides,
		RequireIcon:        c.Rules.RequireIcon,
	}
}

// SlogLevel maps logging.level onto a slog level.
func (l LoggingConfig) SlogLevel() slog.Level {
	switch strings.ToLower(l.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.RefreshInterval < MinRefreshInterval {
		return &ValidationError{Path: "refresh_interval", Err: fmt.Errorf("refresh_interval must be >= %s", MinRefreshInterval)}
	}
	if c.DragThreshold <= 0 {
		return &ValidationError{Path: "drag_threshold", Err: fmt.Errorf("drag_threshold must be > 0")}
	}
	for _, check := range []struct {
		path   string
		values []string
	}{
		{"rules.system_prefixes", c.Rules.SystemPrefixes},
		{"rules.hard_exclusions", c.Rules.HardExclusions},
		{"rules.helper_patterns", c.Rules.HelperPatterns},
		{"rules.important_overrides", c.Rules.ImportantOverrides},
		{"priority", c.Priority},
		{"low_priority_keywords", c.LowPriorityKeywords},
	} {
		for i, v := range check.values {
			if strings.TrimSpace(v) == "" {
				return &ValidationError{Path: check.path, Err: fmt.Errorf("entry %d is empty", i)}
			}
		}
	}
	if c.Activation.AttemptTimeout <= 0 {
		return &ValidationError{Path: "activation.attempt_timeout", Err: fmt.Errorf("attempt_timeout must be > 0")}
	}
	if c.Restart.TerminateWait <= 0 {
		return &ValidationError{Path: "restart.terminate_wait", Err: fmt.Errorf("terminate_wait must be > 0")}
	}
	if c.Restart.ExitPollInterval < 0 {
		return &ValidationError{Path: "restart.exit_poll_interval", Err: fmt.Errorf("exit_poll_interval must be >= 0")}
	}
	if c.Restart.ExitPollInterval > c.Restart.TerminateWait {
		return &ValidationError{Path: "restart.exit_poll_interval", Err: fmt.Errorf("exit_poll_interval must not exceed terminate_wait")}
	}
	if c.Restart.Spacing < 0 {
		return &ValidationError{Path: "restart.spacing", Err: fmt.Errorf("spacing must be >= 0")}
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return &ValidationError{Path: "logging.level", Err: fmt.Errorf("level must be one of: debug, info, warn, error")}
	}
	switch strings.ToLower(strings.TrimSpace(c.Palette.Backend)) {
	case "", "auto", "rofi", "fuzzel", "wofi", "dmenu":
	default:
		return &ValidationError{Path: "palette.backend", Err: fmt.Errorf("backend must be one of: auto, rofi, fuzzel, wofi, dmenu")}
	}
	if c.Metrics.Listen != "" && !strings.Contains(c.Metrics.Listen, ":") {
		return &ValidationError{Path: "metrics.listen", Err: fmt.Errorf("listen must be host:port")}
	}
	return nil
}

// ValidationError reports an invalid value at a YAML path, with the file
// position that set it when known.
type ValidationError struct {
	Path   string
	Source Source
	Err    error
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Source.Kind == SourceFile && e.Source.File != "" && e.Source.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s: %v", e.Source.File, e.Source.Line, e.Source.Column, e.Path, e.Err)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
