package palette

import (
	"errors"
	"fmt"
	"strings"

	"github.com/1broseidon/barkeep/internal/apps"
)

// ActionKind is what the user asked the daemon to do.
type ActionKind string

const (
	ActionActivate   ActionKind = "activate"
	ActionRestart    ActionKind = "restart"
	ActionRestartAll ActionKind = "restart-all"
	ActionRefresh    ActionKind = "refresh"
)

// Action is a parsed menu choice.
type Action struct {
	Kind     ActionKind
	Identity string
}

const (
	actionBack        = "back"
	actionRestartMenu = "submenu:restart"
	actionNoop        = "noop"
)

// ParseAction decodes an Item.Action produced by this package.
func ParseAction(s string) (Action, error) {
	switch s {
	case string(ActionRestartAll):
		return Action{Kind: ActionRestartAll}, nil
	case string(ActionRefresh):
		return Action{Kind: ActionRefresh}, nil
	}
	kind, id, ok := strings.Cut(s, ":")
	if !ok || id == "" {
		return Action{}, fmt.Errorf("unknown action %q", s)
	}
	switch ActionKind(kind) {
	case ActionActivate, ActionRestart:
		return Action{Kind: ActionKind(kind), Identity: id}, nil
	}
	return Action{}, fmt.Errorf("unknown action %q", s)
}

func encode(kind ActionKind, identity string) string {
	return string(kind) + ":" + identity
}

// Menu is the launcher rendition of the status-area menu: one row per
// published app (activate on select), a restart submenu, and global
// actions.
type Menu struct {
	launcher Launcher
}

// NewMenu wraps launcher.
func NewMenu(launcher Launcher) *Menu {
	return &Menu{launcher: launcher}
}

// Choose shows the menu until the user picks an action. Apps listed in
// suggested are marked urgent. Returns ErrCancelled when the user closes
// the top level.
func (m *Menu) Choose(published, suggested []apps.Application) (Action, error) {
	hide := make(map[string]bool, len(suggested))
	for _, a := range suggested {
		hide[a.Identity] = true
	}

	message := fmt.Sprintf("%d apps", len(published))
	if m.launcher.SupportsAlt() {
		message += " · Alt+Return restarts"
	}

	for {
		sel, err := m.launcher.Show("barkeep", m.rootItems(published, hide), message)
		if err != nil {
			return Action{}, err
		}

		switch {
		case sel.Item.Action == actionNoop || sel.Item.Header:
			continue
		case sel.Item.Action == actionRestartMenu:
			action, err := m.chooseRestart(published)
			if errors.Is(err, ErrCancelled) {
				continue
			}
			return action, err
		}

		action, err := ParseAction(sel.Item.Action)
		if err != nil {
			return Action{}, err
		}
		if sel.Alt && action.Kind == ActionActivate {
			action.Kind = ActionRestart
		}
		return action, nil
	}
}

// chooseRestart returns ErrCancelled for Back as well as for closing.
func (m *Menu) chooseRestart(published []apps.Application) (Action, error) {
	items := []Item{{Label: "← Back", Action: actionBack, Icon: "go-previous"}}
	for _, a := range published {
		items = append(items, Item{
			Label:  "Restart " + a.Name(),
			Action: encode(ActionRestart, a.Identity),
			Icon:   "view-refresh",
			Meta:   a.Identity,
		})
	}

	sel, err := m.launcher.Show("restart", items, "")
	if err != nil {
		return Action{}, err
	}
	if sel.Item.Action == actionBack {
		return Action{}, ErrCancelled
	}
	return ParseAction(sel.Item.Action)
}

func (m *Menu) rootItems(published []apps.Application, hide map[string]bool) []Item {
	items := make([]Item, 0, len(published)+5)
	items = append(items, Item{Label: "Status-area apps", Action: actionNoop, Header: true})
	if len(published) == 0 {
		items = append(items, Item{Label: "No status-area apps running", Action: actionNoop})
	}
	for _, a := range published {
		label := a.Name()
		if a.Hidden {
			label += " (hidden)"
		}
		items = append(items, Item{
			Label:  label,
			Action: encode(ActionActivate, a.Identity),
			Icon:   iconName(a),
			Meta:   a.Identity,
			Urgent: hide[a.Identity],
		})
	}
	items = append(items,
		Item{Label: "Actions", Action: actionNoop, Header: true},
		Item{Label: "Restart…", Action: actionRestartMenu, Icon: "view-refresh"},
		Item{Label: "Restart all", Action: string(ActionRestartAll), Icon: "system-reboot"},
		Item{Label: "Refresh", Action: string(ActionRefresh), Icon: "view-refresh"},
	)
	return items
}

// iconName guesses a theme icon from the identity: the last dotted
// component of a bundle id, or the lowercased name.
func iconName(a apps.Application) string {
	id := a.BundleID
	if id == "" {
		return strings.ToLower(a.Name())
	}
	if i := strings.LastIndexByte(id, '.'); i >= 0 && i+1 < len(id) {
		return strings.ToLower(id[i+1:])
	}
	return strings.ToLower(id)
}
