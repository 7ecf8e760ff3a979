//go:build linux

package platform

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"sync"
	"syscall"

	"github.com/1broseidon/barkeep/internal/apps"
	"github.com/1broseidon/barkeep/internal/x11"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"golang.org/x/sys/unix"
)

// launchCommand starts an application by desktop entry id.
const launchCommand = "gtk-launch"

// LinuxBackend discovers system tray utilities over X11 and controls their
// processes through /proc and signals.
type LinuxBackend struct {
	conn   *x11.Connection
	proc   procFS
	logger *slog.Logger

	// X requests from the refresher and from activation workers interleave.
	mu sync.Mutex
}

var (
	_ Backend     = (*LinuxBackend)(nil)
	_ ExitWatcher = (*LinuxBackend)(nil)
)

// NewLinuxBackend creates a Linux platform backend from an existing X11 connection.
func NewLinuxBackend(conn *x11.Connection, logger *slog.Logger) *LinuxBackend {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &LinuxBackend{conn: conn, proc: newProcFS(), logger: logger}
}

// NewLinuxBackendFromDisplay creates a new Linux backend by opening a fresh X11 connection.
func NewLinuxBackendFromDisplay(logger *slog.Logger) (*LinuxBackend, error) {
	conn, err := x11.NewConnection()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X11: %w", err)
	}
	return NewLinuxBackend(conn, logger), nil
}

// Disconnect closes the underlying X11 connection.
func (b *LinuxBackend) Disconnect() {
	if b != nil && b.conn != nil {
		b.conn.Close()
	}
}

// EventLoop starts the X11 event loop (blocking).
func (b *LinuxBackend) EventLoop() {
	if b != nil && b.conn != nil {
		b.conn.EventLoop()
	}
}

// StopEventLoop makes a running EventLoop return.
func (b *LinuxBackend) StopEventLoop() {
	if b != nil && b.conn != nil {
		b.conn.Quit()
	}
}

// XUtil returns the underlying xgbutil connection for X11-specific operations.
func (b *LinuxBackend) XUtil() *xgbutil.XUtil {
	if b == nil || b.conn == nil {
		return nil
	}
	return b.conn.XUtil
}

// RootWindow returns the root window of the default screen.
func (b *LinuxBackend) RootWindow() xproto.Window {
	if b == nil || b.conn == nil {
		return 0
	}
	return b.conn.Root
}

// ListRunningApplications reports one RawProcess per tray icon. Processes
// that also own a normal client window are not accessory.
func (b *LinuxBackend) ListRunningApplications() ([]apps.RawProcess, error) {
	conn, err := b.connection()
	if err != nil {
		return nil, err
	}

	b.mu.Lock()
	icons, err := conn.TrayIcons()
	if err != nil {
		b.mu.Unlock()
		return nil, err
	}
	clients, err := conn.ClientWindows()
	b.mu.Unlock()
	if err != nil {
		// Without a client list every icon is still a tray-only candidate.
		b.logger.Debug("client list unavailable", "error", err)
	}

	windowed := make(map[int]bool, len(clients))
	for _, c := range clients {
		if c.PID > 0 && c.Normal {
			windowed[c.PID] = true
		}
	}

	out := make([]apps.RawProcess, 0, len(icons))
	for _, icon := range icons {
		out = append(out, b.rawProcess(icon, windowed[icon.PID]))
	}
	return out, nil
}

func (b *LinuxBackend) rawProcess(icon x11.TrayIcon, windowed bool) apps.RawProcess {
	p := apps.RawProcess{
		Name:      icon.Class,
		BundleID:  icon.Instance,
		Accessory: !windowed,
		Hidden:    !icon.Mapped,
		PID:       icon.PID,
	}
	if icon.HasIcon {
		p.Icon = apps.IconHandle(icon.Window)
	}
	if icon.PID <= 0 {
		return p
	}

	if id := b.proc.DesktopID(icon.PID); id != "" {
		p.BundleID = id
	}
	if p.Name == "" {
		p.Name = b.proc.Comm(icon.PID)
	}
	p.Location = b.proc.Executable(icon.PID)
	if start, err := b.proc.StartTime(icon.PID); err == nil {
		p.LaunchTime = start
	} else {
		b.logger.Debug("launch time unavailable", "pid", icon.PID, "error", err)
	}
	return p
}

// Activate brings the process behind identity forward. Any client window it
// owns is focused, visible ones first; a tray-only process gets a click on
// its tray icon instead.
func (b *LinuxBackend) Activate(ctx context.Context, identity string) bool {
	snapshot, err := b.ListRunningApplications()
	if err != nil {
		return false
	}
	pids := make(map[int]bool)
	for _, p := range snapshot {
		if p.PID > 0 && apps.IdentityOf(p.BundleID, p.Name) == identity {
			pids[p.PID] = true
		}
	}
	if len(pids) == 0 || ctx.Err() != nil {
		return false
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	clients, err := b.conn.ClientWindows()
	if err != nil {
		b.logger.Debug("client list unavailable", "error", err)
	}
	icons, err := b.conn.TrayIcons()
	if err != nil {
		b.logger.Debug("tray icons unavailable", "error", err)
	}

	for _, target := range activationTargets(clients, icons, pids) {
		if ctx.Err() != nil {
			return false
		}
		act := b.conn.FocusWindow
		if target.click {
			act = b.conn.ClickWindow
		}
		if err := act(target.window); err != nil {
			b.logger.Debug("activation target failed", "identity", identity, "window", target.window, "click", target.click, "error", err)
			continue
		}
		return true
	}
	return false
}

// activationTarget is a window to focus, or to click when it is a tray icon.
type activationTarget struct {
	window xproto.Window
	click  bool
}

// activationTargets orders the windows owned by pids: normal visible client
// windows, then any other visible client window (utility, dialog,
// skip-taskbar), then hidden ones, and finally the mapped tray icons.
func activationTargets(clients []x11.ClientWindow, icons []x11.TrayIcon, pids map[int]bool) []activationTarget {
	var normal, other, hidden, tray []activationTarget
	for _, c := range clients {
		if !pids[c.PID] {
			continue
		}
		t := activationTarget{window: c.Window}
		switch {
		case c.Hidden:
			hidden = append(hidden, t)
		case c.Normal:
			normal = append(normal, t)
		default:
			other = append(other, t)
		}
	}
	for _, icon := range icons {
		if pids[icon.PID] && icon.Mapped {
			tray = append(tray, activationTarget{window: icon.Window, click: true})
		}
	}

	out := append(normal, other...)
	out = append(out, hidden...)
	return append(out, tray...)
}

// Launch asks the desktop registry to start identity.
func (b *LinuxBackend) Launch(ctx context.Context, identity string) bool {
	cmd := exec.CommandContext(ctx, launchCommand, identity)
	if out, err := cmd.CombinedOutput(); err != nil {
		b.logger.Debug("launch failed", "identity", identity, "error", err, "output", string(out))
		return false
	}
	return true
}

// OpenByLocation starts the executable at location without waiting for it.
func (b *LinuxBackend) OpenByLocation(_ context.Context, location string) error {
	if location == "" {
		return errors.New("empty location")
	}
	cmd := exec.Command(location)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start %q: %w", location, err)
	}
	// Do not wait; tray utilities are long-lived.
	go func() { _ = cmd.Wait() }()
	return nil
}

// Terminate sends SIGTERM to pid.
func (b *LinuxBackend) Terminate(pid int) error {
	if pid <= 0 {
		return fmt.Errorf("invalid pid %d", pid)
	}
	if err := unix.Kill(pid, unix.SIGTERM); err != nil {
		return fmt.Errorf("failed to signal pid %d: %w", pid, err)
	}
	return nil
}

// IsRunning reports whether pid still exists.
func (b *LinuxBackend) IsRunning(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := unix.Kill(pid, 0)
	return err == nil || errors.Is(err, unix.EPERM)
}

func (b *LinuxBackend) connection() (*x11.Connection, error) {
	if b == nil || b.conn == nil {
		return nil, fmt.Errorf("x11 backend connection is nil")
	}
	return b.conn, nil
}
