package palette

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// ErrCancelled is returned when the user closes the launcher without
// choosing a row.
var ErrCancelled = errors.New("palette cancelled")

// Item is one row in a launcher menu.
type Item struct {
	Label  string // Display text
	Action string // Returned on selection
	Icon   string // Icon name, rofi and wofi only
	Meta   string // Extra search keywords, rofi only
	Header bool   // Non-selectable section header
	Active bool   // Highlighted row
	Urgent bool   // Emphasized row
}

// Selection is the row the user picked. Alt is set when the row was chosen
// with the alternate key (Alt+Return in rofi).
type Selection struct {
	Item Item
	Alt  bool
}

// Launcher shows a list of rows and returns the chosen one.
type Launcher interface {
	Show(prompt string, items []Item, message string) (Selection, error)
	// SupportsAlt reports whether Selection.Alt can ever be set.
	SupportsAlt() bool
}

// Backends lists the supported launcher programs in detection order.
var Backends = []string{"rofi", "fuzzel", "wofi", "dmenu"}

var lookPath = exec.LookPath

// New returns the launcher for name. "auto" or "" picks the first program
// of Backends found in PATH.
func New(name string) (Launcher, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" || name == "auto" {
		for _, candidate := range Backends {
			if _, err := lookPath(candidate); err == nil {
				return newProgram(candidate), nil
			}
		}
		return nil, fmt.Errorf("no palette backend found in PATH (looked for: %s)", strings.Join(Backends, ", "))
	}

	for _, candidate := range Backends {
		if candidate != name {
			continue
		}
		if _, err := lookPath(name); err != nil {
			return nil, fmt.Errorf("palette backend %q not found in PATH", name)
		}
		return newProgram(name), nil
	}
	return nil, fmt.Errorf("unknown palette backend: %q (expected: auto, %s)", name, strings.Join(Backends, ", "))
}
