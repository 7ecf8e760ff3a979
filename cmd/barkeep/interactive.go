package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/1broseidon/barkeep/internal/ipc"
	"github.com/1broseidon/barkeep/internal/mcp"
	"github.com/1broseidon/barkeep/internal/tui"
)

func runTUI(args []string) int {
	fs := newFlagSet("tui", "barkeep tui", `Interactive status-area menu. Requires a running daemon.

Keybindings:
  j/k, up/down  Navigate
  Enter, a      Activate selected app
  r             Restart selected app
  R             Restart all apps
  f             Force a refresh
  s             Show hide suggestions
  Space         Grab selected row; move with up/down, drop with Enter/Space
  Esc           Cancel a grab
  q, Ctrl+C     Quit`)
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}

	if err := tui.Run(ipc.NewClient()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func runMCP(args []string) int {
	if len(args) == 0 || args[0] != "serve" {
		fmt.Fprintln(os.Stderr, "Usage: barkeep mcp serve")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Start an MCP server on stdio that forwards tool calls to the daemon.")
		return 2
	}
	fs := newFlagSet("mcp serve", "barkeep mcp serve", "Start an MCP server on stdio.")
	if code, ok := parseFlags(fs, args[1:]); !ok {
		return code
	}

	// Stdout carries the protocol; logs go to stderr.
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := mcp.NewServer(ipc.NewClient(), logger)
	if err := server.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Error("mcp server failed", "error", err)
		return 1
	}
	return 0
}
