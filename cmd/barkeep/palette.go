package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/1broseidon/barkeep/internal/config"
	"github.com/1broseidon/barkeep/internal/ipc"
	"github.com/1broseidon/barkeep/internal/palette"
)

// menuRenewInterval stays well inside daemon.DefaultInteractionLease.
const menuRenewInterval = 5 * time.Second

func runPalette(args []string) int {
	fs := newFlagSet("palette", "barkeep palette [--backend NAME] [--path PATH]",
		"Show the status-area menu in rofi, fuzzel, wofi or dmenu.\nAlt+Return on an app restarts it (rofi only).")
	backend := fs.String("backend", "", "Launcher program: auto, rofi, fuzzel, wofi, dmenu (default: palette.backend)")
	path := fs.String("path", "", "Config file path (default: ~/.config/barkeep/config.yaml)")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}

	name := *backend
	if name == "" {
		name = config.DefaultConfig().Palette.Backend
		if res, err := loadConfig(*path); err == nil {
			name = res.Config.Palette.Backend
		}
	}
	launcher, err := palette.New(name)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	client := ipc.NewClient()
	published, err := client.ListApps()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	suggested, _ := client.Suggest()

	// Hold the menu open so a refresh cannot reshuffle rows mid-choice.
	if err := client.SetMenuOpen(true); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	stop := holdMenu(client)
	action, err := palette.NewMenu(launcher).Choose(published, suggested)
	stop()
	_ = client.SetMenuOpen(false)
	if errors.Is(err, palette.ErrCancelled) {
		return 0
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	return performPaletteAction(client, action)
}

// holdMenu renews the daemon's menu lease until the returned func is called.
func holdMenu(client *ipc.Client) func() {
	done := make(chan struct{})
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		ticker := time.NewTicker(menuRenewInterval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				_ = client.SetMenuOpen(true)
			}
		}
	}()
	return func() {
		close(done)
		<-finished
	}
}

func performPaletteAction(client *ipc.Client, action palette.Action) int {
	switch action.Kind {
	case palette.ActionActivate:
		res, err := client.Activate(action.Identity)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		if !res.Outcome.Succeeded {
			fmt.Fprintf(os.Stderr, "could not activate %s\n", action.Identity)
			return 1
		}
	case palette.ActionRestart:
		if _, err := client.Restart(action.Identity); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
	case palette.ActionRestartAll:
		if _, err := client.RestartAll(); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
	case palette.ActionRefresh:
		if _, err := client.Refresh(true); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
	}
	return 0
}
