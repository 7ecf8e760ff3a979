package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"

	"github.com/1broseidon/barkeep/internal/config"
	"github.com/1broseidon/barkeep/internal/palette"
)

// initForm holds the editable fields as strings, the way huh inputs want
// them.
type initForm struct {
	refreshInterval string
	dragThreshold   string
	logLevel        string
	paletteBackend  string
	refreshHotkey   string
	paletteHotkey   string
	history         bool
	metricsListen   string
}

func newInitForm(cfg *config.Config) *initForm {
	return &initForm{
		refreshInterval: cfg.RefreshInterval.String(),
		dragThreshold:   strconv.FormatFloat(cfg.DragThreshold, 'f', -1, 64),
		logLevel:        cfg.Logging.Level,
		paletteBackend:  cfg.Palette.Backend,
		refreshHotkey:   cfg.Hotkeys.Refresh,
		paletteHotkey:   cfg.Hotkeys.Palette,
		history:         cfg.History.Enabled,
		metricsListen:   cfg.Metrics.Listen,
	}
}

// apply copies the form into cfg and validates the result.
func (f *initForm) apply(cfg *config.Config) error {
	interval, err := time.ParseDuration(f.refreshInterval)
	if err != nil {
		return fmt.Errorf("refresh interval: %w", err)
	}
	threshold, err := strconv.ParseFloat(f.dragThreshold, 64)
	if err != nil {
		return fmt.Errorf("drag threshold: %w", err)
	}
	cfg.RefreshInterval = interval
	cfg.DragThreshold = threshold
	cfg.Logging.Level = f.logLevel
	cfg.Palette.Backend = f.paletteBackend
	cfg.Hotkeys.Refresh = f.refreshHotkey
	cfg.Hotkeys.Palette = f.paletteHotkey
	cfg.History.Enabled = f.history
	cfg.Metrics.Listen = f.metricsListen
	return cfg.Validate()
}

func validDuration(s string) error {
	d, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	if d < config.MinRefreshInterval {
		return fmt.Errorf("must be at least %s", config.MinRefreshInterval)
	}
	return nil
}

func validPositive(s string) error {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	if v <= 0 {
		return errors.New("must be > 0")
	}
	return nil
}

func (f *initForm) form() *huh.Form {
	backends := append([]string{"auto"}, palette.Backends...)
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Refresh interval").
				Description("How often running apps are rescanned (e.g. 5s)").
				Validate(validDuration).
				Value(&f.refreshInterval),
			huh.NewInput().
				Title("Drag threshold").
				Description("Pointer travel before a press becomes a drag").
				Validate(validPositive).
				Value(&f.dragThreshold),
			huh.NewSelect[string]().
				Title("Log level").
				Options(huh.NewOptions("debug", "info", "warn", "error")...).
				Value(&f.logLevel),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Palette backend").
				Description("Launcher used by 'barkeep palette'").
				Options(huh.NewOptions(backends...)...).
				Value(&f.paletteBackend),
			huh.NewInput().
				Title("Refresh hotkey").
				Description("X11 key combo, e.g. Mod4-Mod1-b (empty disables)").
				Value(&f.refreshHotkey),
			huh.NewInput().
				Title("Palette hotkey").
				Description("X11 key combo that opens the palette (empty disables)").
				Value(&f.paletteHotkey),
		),
		huh.NewGroup(
			huh.NewConfirm().
				Title("Keep a history journal?").
				Value(&f.history),
			huh.NewInput().
				Title("Metrics listen address").
				Description("host:port for Prometheus /metrics (empty disables)").
				Value(&f.metricsListen),
		),
	).WithShowHelp(true).WithShowErrors(true)
}

func runConfigInit(args []string) int {
	fs := newFlagSet("init", "barkeep config init [--path PATH] [--force]", "Interactively write a config file.")
	path := fs.String("path", "", "Config file path (default: ~/.config/barkeep/config.yaml)")
	force := fs.Bool("force", false, "Overwrite an existing file")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}

	target := *path
	if target == "" {
		p, err := config.DefaultConfigPath()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		target = p
	}
	if _, err := os.Stat(target); err == nil && !*force {
		fmt.Fprintf(os.Stderr, "%s already exists (use --force to overwrite)\n", target)
		return 1
	}
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		fmt.Fprintln(os.Stderr, "config init requires an interactive terminal")
		return 1
	}

	cfg := config.DefaultConfig()
	fields := newInitForm(cfg)
	if err := fields.form().Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return 0
		}
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if err := fields.apply(cfg); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if err := cfg.SaveTo(target); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Printf("wrote %s\n", target)
	return 0
}
