package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/1broseidon/barkeep/internal/apps"
	"github.com/1broseidon/barkeep/internal/ipc"
)

// rowHeight is the pointer distance reported per list row. It exceeds the
// default drag threshold so one row of movement starts a drag.
const rowHeight = 10.0

const pollInterval = 2 * time.Second

// Daemon is the IPC surface the menu drives. *ipc.Client implements it.
type Daemon interface {
	GetStatus() (*ipc.StatusData, error)
	ListApps() ([]apps.Application, error)
	Suggest() ([]apps.Application, error)
	Refresh(force bool) (*ipc.RefreshData, error)
	Activate(identity string) (*ipc.ActivateData, error)
	Restart(identities ...string) ([]string, error)
	RestartAll() ([]string, error)
	SetMenuOpen(open bool) error
	DragBegin(source string, x, y float64) (*ipc.DragData, error)
	DragMotion(x, y float64) (*ipc.DragData, error)
	DragDrop(target string) (*ipc.MoveData, error)
	DragCancel() error
}

var _ Daemon = (*ipc.Client)(nil)

// appItem implements list.Item for one published application.
type appItem struct {
	app      apps.Application
	grabbed  bool
	suggests bool
}

func (i appItem) Title() string {
	prefix := "  "
	if i.grabbed {
		prefix = lipgloss.NewStyle().Foreground(lipgloss.Color("226")).Render("↕ ")
	}
	title := prefix + i.app.Name()
	if i.suggests {
		title += lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Render("  (hide?)")
	}
	return title
}

func (i appItem) Description() string { return i.app.Status() }
func (i appItem) FilterValue() string { return i.app.Name() }

// pollMsg triggers a reload of the published sequence.
type pollMsg struct{}

// clearStatusMsg clears the status message after a delay.
type clearStatusMsg struct{}

// model is the bubbletea model for the status-area menu.
type model struct {
	list   list.Model
	client Daemon

	apps      []apps.Application
	suggested map[string]bool
	connected bool

	// armed is set between space and drop/cancel.
	armed    bool
	dragging bool
	grabbed  string

	statusText string

	width  int
	height int
}

func newModel(client Daemon) model {
	delegate := list.NewDefaultDelegate()
	delegate.SetSpacing(0)

	l := list.New(nil, delegate, 60, 20)
	l.Title = "Status-area utilities"
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.DisableQuitKeybindings()
	l.Styles.Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("15")).
		Background(lipgloss.Color("62")).
		Padding(0, 1)

	m := model{
		list:      l,
		client:    client,
		suggested: map[string]bool{},
	}
	if err := client.SetMenuOpen(true); err != nil {
		m.statusText = fmt.Sprintf("error: %v", err)
	}
	m.reload()
	return m
}

func poll() tea.Cmd {
	return tea.Tick(pollInterval, func(time.Time) tea.Msg { return pollMsg{} })
}

func clearStatus() tea.Cmd {
	return tea.Tick(3*time.Second, func(time.Time) tea.Msg { return clearStatusMsg{} })
}

// Init implements tea.Model.
func (m model) Init() tea.Cmd {
	return poll()
}

// Update implements tea.Model.
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		listHeight := m.height - 3
		if listHeight < 1 {
			listHeight = 1
		}
		m.list.SetSize(m.width, listHeight)
		return m, nil

	case pollMsg:
		// Keeps the daemon's menu lease alive.
		m.client.SetMenuOpen(true)
		// The published order is frozen while a row is grabbed.
		if !m.armed {
			m.reload()
		}
		return m, poll()

	case clearStatusMsg:
		m.statusText = ""
		return m, nil

	case tea.KeyMsg:
		if m.armed {
			return m.updateDrag(msg)
		}
		switch msg.String() {
		case "ctrl+c", "q":
			m.close()
			return m, tea.Quit
		case " ":
			return m.grab()
		case "enter", "a":
			return m.activateSelected()
		case "r":
			return m.restartSelected()
		case "R":
			return m.restartAll()
		case "f":
			return m.refresh()
		case "s":
			return m.suggest()
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// updateDrag handles keys while a row is grabbed. Arrow keys move the
// pointer one row at a time.
func (m model) updateDrag(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.close()
		return m, tea.Quit
	case "up", "k":
		return m.movePointer(-1)
	case "down", "j":
		return m.movePointer(1)
	case "enter", " ":
		return m.drop()
	case "esc", "q":
		if err := m.client.DragCancel(); err != nil {
			m.statusText = fmt.Sprintf("error: %v", err)
		}
		m.release()
		m.reload()
		return m, nil
	}
	return m, nil
}

func (m model) grab() (tea.Model, tea.Cmd) {
	item, ok := m.selected()
	if !ok {
		return m, nil
	}
	data, err := m.client.DragBegin(item.app.Identity, 0, pointerY(m.list.Index()))
	if err != nil {
		m.statusText = fmt.Sprintf("error: %v", err)
		return m, clearStatus()
	}
	if !data.Accepted {
		m.statusText = "cannot grab right now"
		return m, clearStatus()
	}
	m.armed = true
	m.grabbed = item.app.Identity
	m.rebuildItems()
	return m, nil
}

func (m model) movePointer(delta int) (tea.Model, tea.Cmd) {
	next := m.list.Index() + delta
	if next < 0 || next >= len(m.list.Items()) {
		return m, nil
	}
	m.list.Select(next)
	data, err := m.client.DragMotion(0, pointerY(next))
	if err != nil {
		m.statusText = fmt.Sprintf("error: %v", err)
		return m, clearStatus()
	}
	m.dragging = data.Dragging
	return m, nil
}

func (m model) drop() (tea.Model, tea.Cmd) {
	item, ok := m.selected()
	if !ok {
		return m, nil
	}
	source := m.grabbed
	data, err := m.client.DragDrop(item.app.Identity)
	m.release()
	switch {
	case err != nil:
		m.statusText = fmt.Sprintf("error: %v", err)
	case data.Moved:
		m.statusText = fmt.Sprintf("moved %s", source)
	default:
		m.statusText = "order unchanged"
	}
	m.reload()
	m.selectIdentity(source)
	return m, clearStatus()
}

func (m model) activateSelected() (tea.Model, tea.Cmd) {
	item, ok := m.selected()
	if !ok {
		return m, nil
	}
	data, err := m.client.Activate(item.app.Identity)
	switch {
	case err != nil:
		m.statusText = fmt.Sprintf("error: %v", err)
	case data.Outcome.Succeeded:
		m.statusText = fmt.Sprintf("activated %s (%s)", item.app.Name(), data.Outcome.Via)
	default:
		m.statusText = fmt.Sprintf("could not activate %s", item.app.Name())
	}
	return m, clearStatus()
}

func (m model) restartSelected() (tea.Model, tea.Cmd) {
	item, ok := m.selected()
	if !ok {
		return m, nil
	}
	if _, err := m.client.Restart(item.app.Identity); err != nil {
		m.statusText = fmt.Sprintf("error: %v", err)
	} else {
		m.statusText = fmt.Sprintf("restarting %s", item.app.Name())
	}
	return m, clearStatus()
}

func (m model) restartAll() (tea.Model, tea.Cmd) {
	jobs, err := m.client.RestartAll()
	if err != nil {
		m.statusText = fmt.Sprintf("error: %v", err)
	} else {
		m.statusText = fmt.Sprintf("restarting %d apps", len(jobs))
	}
	return m, clearStatus()
}

func (m model) refresh() (tea.Model, tea.Cmd) {
	data, err := m.client.Refresh(true)
	if err != nil {
		m.statusText = fmt.Sprintf("error: %v", err)
	} else {
		m.statusText = fmt.Sprintf("refreshed: %d apps", data.Count)
	}
	m.reload()
	return m, clearStatus()
}

func (m model) suggest() (tea.Model, tea.Cmd) {
	found, err := m.client.Suggest()
	if err != nil {
		m.statusText = fmt.Sprintf("error: %v", err)
		return m, clearStatus()
	}
	m.suggested = map[string]bool{}
	for _, a := range found {
		m.suggested[a.Identity] = true
	}
	if len(found) == 0 {
		m.statusText = "nothing to suggest"
	} else {
		m.statusText = fmt.Sprintf("%d apps look safe to hide", len(found))
	}
	m.rebuildItems()
	return m, clearStatus()
}

func (m *model) release() {
	m.armed = false
	m.dragging = false
	m.grabbed = ""
}

func (m *model) close() {
	if m.armed {
		m.client.DragCancel()
	}
	m.client.SetMenuOpen(false)
}

// reload fetches the published sequence, keeping the selection on the same
// identity when it is still present.
func (m *model) reload() {
	selected := ""
	if item, ok := m.selected(); ok {
		selected = item.app.Identity
	}

	published, err := m.client.ListApps()
	if err != nil {
		m.connected = false
		m.apps = nil
		m.rebuildItems()
		return
	}
	m.connected = true
	m.apps = published
	m.rebuildItems()
	m.selectIdentity(selected)
}

func (m *model) rebuildItems() {
	items := make([]list.Item, len(m.apps))
	for i, a := range m.apps {
		items[i] = appItem{app: a, grabbed: a.Identity == m.grabbed, suggests: m.suggested[a.Identity]}
	}
	m.list.SetItems(items)
}

func (m *model) selectIdentity(identity string) {
	if i := apps.IndexOf(m.apps, identity); i >= 0 {
		m.list.Select(i)
	}
}

func (m model) selected() (appItem, bool) {
	item, ok := m.list.SelectedItem().(appItem)
	return item, ok
}

func pointerY(row int) float64 {
	return float64(row) * rowHeight
}

// View implements tea.Model.
func (m model) View() string {
	statusBar := renderStatusBar(m.connected, len(m.apps), m.width)
	help := renderHelpBar(m.armed, m.width)

	footer := ""
	if m.statusText != "" {
		footer = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Padding(0, 1).Render(m.statusText)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		statusBar,
		m.list.View(),
		footer,
		help,
	)
}

func renderStatusBar(connected bool, count, width int) string {
	var status string
	if connected {
		dot := lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Render("●")
		status = fmt.Sprintf("%s daemon connected  %d apps", dot, count)
	} else {
		dot := lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Render("●")
		status = dot + " daemon not running"
	}

	style := lipgloss.NewStyle().
		Background(lipgloss.Color("235")).
		Foreground(lipgloss.Color("250")).
		Padding(0, 1)
	if width > 0 {
		style = style.Width(width)
	}
	return style.Render(status)
}

func renderHelpBar(dragging bool, width int) string {
	keys := []string{"space: grab", "enter/a: activate", "r: restart", "R: restart all", "f: refresh", "s: suggest", "q: quit"}
	if dragging {
		keys = []string{"up/down: move", "enter: drop", "esc: cancel"}
	}
	style := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241")).
		Padding(0, 1)
	if width > 0 {
		style = style.Width(width)
	}
	return style.Render(strings.Join(keys, "  "))
}
