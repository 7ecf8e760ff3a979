package main

import (
	"context"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
	"time"

	"github.com/1broseidon/barkeep/internal/config"
	"github.com/1broseidon/barkeep/internal/daemon"
	"github.com/1broseidon/barkeep/internal/history"
	"github.com/1broseidon/barkeep/internal/hotkeys"
	"github.com/1broseidon/barkeep/internal/ipc"
	"github.com/1broseidon/barkeep/internal/metrics"
	"github.com/1broseidon/barkeep/internal/platform"
)

func runDaemon(args []string) int {
	fs := newFlagSet("daemon", "barkeep daemon [--path PATH]", "Run the status-area daemon in the foreground.")
	path := fs.String("path", "", "Config file path (default: ~/.config/barkeep/config.yaml)")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	if fs.NArg() != 0 {
		fs.Usage()
		return 2
	}

	res, err := loadConfig(*path)
	if err != nil {
		newLogger(config.LoggingConfig{}).Error("failed to load configuration", "error", err)
		return 1
	}
	cfg := res.Config
	logger := newLogger(cfg.Logging)
	logger.Info("configuration loaded", "files", len(res.Files), "refresh_interval", cfg.RefreshInterval)

	backend, err := platform.NewLinuxBackendFromDisplay(logger)
	if err != nil {
		logger.Error("failed to connect to display", "error", err)
		return 1
	}
	defer backend.Disconnect()

	var hinter platform.HostHinter = platform.NopHinter{}
	if cfg.HostHintCommand != "" {
		hinter = platform.CommandHinter{Command: cfg.HostHintCommand, Logger: logger}
	}

	sinks := []daemon.Sink{daemon.LogSink{Logger: logger}}

	var historyReader ipc.HistoryReader
	if cfg.History.Enabled {
		store, err := history.Open(cfg.History.Path)
		if err != nil {
			logger.Warn("history disabled", "error", err)
		} else {
			defer store.Close()
			if n, err := store.Prune(time.Now().Add(-history.Retention)); err != nil {
				logger.Warn("history prune failed", "error", err)
			} else if n > 0 {
				logger.Info("history pruned", "entries", n)
			}
			sinks = append(sinks, history.NewSink(store, logger))
			historyReader = store
		}
	}

	var m *metrics.Metrics
	if cfg.Metrics.Listen != "" {
		m = metrics.New()
		sinks = append(sinks, m)
	}

	dispatcher := daemon.NewDispatcher(logger, sinks...)
	ctrl := daemon.NewController(daemon.SettingsFromConfig(cfg), backend, hinter, dispatcher, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go ctrl.Run(ctx)

	refresher := daemon.NewRefresher(daemon.RefresherConfig{
		Interval: cfg.RefreshInterval,
		Logger:   logger,
	}, ctrl)
	go refresher.Run(ctx)

	if m != nil {
		go func() {
			if err := m.Serve(ctx, cfg.Metrics.Listen, logger); err != nil {
				logger.Warn("metrics server stopped", "error", err)
			}
		}()
	}

	configPath := *path
	if configPath == "" {
		configPath, _ = config.DefaultConfigPath()
	}
	ipcServer, err := ipc.NewServer(ipc.ServerOptions{
		ConfigPath: configPath,
		Config:     cfg,
		Engine:     ctrl,
		History:    historyReader,
		Logger:     logger,
	})
	if err != nil {
		logger.Error("failed to create IPC server", "error", err)
		return 1
	}
	if err := ipcServer.Start(); err != nil {
		logger.Error("failed to start IPC server", "error", err)
		return 1
	}
	defer ipcServer.Stop()

	registerHotkeys(hotkeys.NewHandler(backend, logger), cfg.Hotkeys, ctrl, logger)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)

	go func() {
		for {
			select {
			case sig := <-sigCh:
				switch sig {
				case syscall.SIGHUP:
					logger.Info("received SIGHUP, reloading config")
					newRes, err := config.LoadFromPath(configPath)
					if err != nil {
						logger.Warn("config reload failed", "error", err)
						continue
					}
					if err := ctrl.Reload(ctx, daemon.SettingsFromConfig(newRes.Config)); err != nil {
						logger.Warn("config reload failed", "error", err)
						continue
					}
					ipcServer.UpdateConfig(newRes.Config)
					logger.Info("config reloaded")

				case os.Interrupt, syscall.SIGTERM:
					logger.Info("shutting down barkeep daemon")
					cancel()
					backend.StopEventLoop()
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	logger.Info("barkeep daemon started")
	backend.EventLoop()
	cancel()
	return 0
}

func registerHotkeys(handler *hotkeys.Handler, cfg config.HotkeysConfig, ctrl *daemon.Controller, logger *slog.Logger) {
	if cfg.Refresh != "" {
		if err := handler.RegisterRefresh(cfg.Refresh, ctrl); err != nil {
			logger.Warn("refresh hotkey not registered", "error", err)
		} else {
			logger.Info("refresh hotkey registered", "keys", cfg.Refresh)
		}
	}

	if cfg.Palette != "" {
		if err := handler.RegisterFunc(cfg.Palette, func() { spawnPalette(logger) }); err != nil {
			logger.Warn("palette hotkey not registered", "error", err)
		} else {
			logger.Info("palette hotkey registered", "keys", cfg.Palette)
		}
	}
}

// spawnPalette runs "barkeep palette" detached from the X event loop.
func spawnPalette(logger *slog.Logger) {
	exe, err := os.Executable()
	if err != nil {
		logger.Warn("cannot locate barkeep executable", "error", err)
		return
	}
	cmd := exec.Command(exe, "palette")
	if err := cmd.Start(); err != nil {
		logger.Warn("failed to start palette", "error", err)
		return
	}
	go func() {
		if err := cmd.Wait(); err != nil {
			logger.Debug("palette exited", "error", err)
		}
	}()
}
