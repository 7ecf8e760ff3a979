package platform

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// userHZ is the kernel's exported clock tick rate for /proc/<pid>/stat.
// It is 100 on every mainstream Linux architecture.
const userHZ = 100

// desktopFileKeys are environment variables launchers set to the .desktop
// file that started a process, in lookup order.
var desktopFileKeys = []string{"GIO_LAUNCHED_DESKTOP_FILE", "BAMF_DESKTOP_FILE_HINT"}

// procFS reads process metadata from a proc filesystem mounted at root.
type procFS struct {
	root string
}

func newProcFS() procFS {
	return procFS{root: "/proc"}
}

func (p procFS) path(pid int, name string) string {
	return filepath.Join(p.root, strconv.Itoa(pid), name)
}

// DesktopID returns the desktop entry id the process was launched from, or ""
func (p procFS) DesktopID(pid int) string {
	data, err := os.ReadFile(p.path(pid, "environ"))
	if err != nil {
		return ""
	}
	return desktopIDFromEnviron(data)
}

// Executable resolves the on-disk location of the process image.
func (p procFS) Executable(pid int) string {
	exe, err := os.Readlink(p.path(pid, "exe"))
	if err != nil {
		return ""
	}
	// Replaced binaries keep running from the unlinked inode.
	return strings.TrimSuffix(exe, " (deleted)")
}

// Comm returns the kernel command name.
func (p procFS) Comm(pid int) string {
	data, err := os.ReadFile(p.path(pid, "comm"))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// StartTime returns the wall-clock launch time of the process.
func (p procFS) StartTime(pid int) (time.Time, error) {
	stat, err := os.ReadFile(p.path(pid, "stat"))
	if err != nil {
		return time.Time{}, err
	}
	ticks, err := parseStartTicks(stat)
	if err != nil {
		return time.Time{}, err
	}
	global, err := os.ReadFile(filepath.Join(p.root, "stat"))
	if err != nil {
		return time.Time{}, err
	}
	boot, err := parseBootTime(global)
	if err != nil {
		return time.Time{}, err
	}
	return boot.Add(time.Duration(ticks) * time.Second / userHZ), nil
}

func desktopIDFromEnviron(data []byte) string {
	values := make(map[string]string)
	for _, entry := range bytes.Split(data, []byte{0}) {
		key, value, ok := strings.Cut(string(entry), "=")
		if ok {
			values[key] = value
		}
	}
	for _, key := range desktopFileKeys {
		if v := strings.TrimSpace(values[key]); v != "" {
			return strings.TrimSuffix(filepath.Base(v), ".desktop")
		}
	}
	return ""
}

// parseStartTicks extracts field 22 (starttime) of /proc/<pid>/stat. The
// command name in field 2 may contain spaces and parentheses, so fields are
// counted from the last ')'.
func parseStartTicks(stat []byte) (uint64, error) {
	end := bytes.LastIndexByte(stat, ')')
	if end < 0 {
		return 0, fmt.Errorf("malformed stat: missing command terminator")
	}
	fields := strings.Fields(string(stat[end+1:]))
	// fields[0] is field 3 (state); starttime is field 22.
	const startTimeIndex = 22 - 3
	if len(fields) <= startTimeIndex {
		return 0, fmt.Errorf("malformed stat: %d fields after command", len(fields))
	}
	ticks, err := strconv.ParseUint(fields[startTimeIndex], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed starttime: %w", err)
	}
	return ticks, nil
}

func parseBootTime(stat []byte) (time.Time, error) {
	scanner := bufio.NewScanner(bytes.NewReader(stat))
	for scanner.Scan() {
		line := scanner.Text()
		rest, ok := strings.CutPrefix(line, "btime ")
		if !ok {
			continue
		}
		secs, err := strconv.ParseInt(strings.TrimSpace(rest), 10, 64)
		if err != nil {
			return time.Time{}, fmt.Errorf("malformed btime: %w", err)
		}
		return time.Unix(secs, 0), nil
	}
	return time.Time{}, fmt.Errorf("btime not found")
}
