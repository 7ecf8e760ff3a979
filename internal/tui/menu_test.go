package tui

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/1broseidon/barkeep/internal/activation"
	"github.com/1broseidon/barkeep/internal/apps"
	"github.com/1broseidon/barkeep/internal/ipc"
)

type fakeDaemon struct {
	list      []apps.Application
	menuOpen  bool
	renewals  int
	calls     []string
	dragFrom  string
	dragStart float64
	dragging  bool
	down      bool
}

func newFakeDaemon(ids ...string) *fakeDaemon {
	d := &fakeDaemon{}
	for i, id := range ids {
		d.list = append(d.list, apps.Application{Identity: id, DisplayName: strings.ToUpper(id), OrderIndex: i})
	}
	return d
}

func (d *fakeDaemon) record(call string) { d.calls = append(d.calls, call) }

func (d *fakeDaemon) GetStatus() (*ipc.StatusData, error) { return &ipc.StatusData{DaemonRunning: true}, nil }

func (d *fakeDaemon) ListApps() ([]apps.Application, error) {
	if d.down {
		return nil, errors.New("connection refused")
	}
	return append([]apps.Application(nil), d.list...), nil
}

func (d *fakeDaemon) Suggest() ([]apps.Application, error) { return d.list[len(d.list)-1:], nil }

func (d *fakeDaemon) Refresh(force bool) (*ipc.RefreshData, error) {
	d.record("refresh")
	return &ipc.RefreshData{Published: force, Count: len(d.list)}, nil
}

func (d *fakeDaemon) Activate(id string) (*ipc.ActivateData, error) {
	d.record("activate " + id)
	return &ipc.ActivateData{Identity: id, Outcome: activation.Outcome{Succeeded: true, Via: activation.StrategyDirect}}, nil
}

func (d *fakeDaemon) Restart(ids ...string) ([]string, error) {
	d.record("restart " + strings.Join(ids, ","))
	return ids, nil
}

func (d *fakeDaemon) RestartAll() ([]string, error) {
	d.record("restart-all")
	return apps.Identities(d.list), nil
}

func (d *fakeDaemon) SetMenuOpen(open bool) error {
	d.menuOpen = open
	if open {
		d.renewals++
	}
	return nil
}

func (d *fakeDaemon) DragBegin(source string, _, y float64) (*ipc.DragData, error) {
	d.dragFrom, d.dragStart = source, y
	return &ipc.DragData{Accepted: true}, nil
}

func (d *fakeDaemon) DragMotion(_, y float64) (*ipc.DragData, error) {
	if y-d.dragStart > 5 || d.dragStart-y > 5 {
		d.dragging = true
	}
	return &ipc.DragData{Accepted: d.dragging, Dragging: d.dragging}, nil
}

func (d *fakeDaemon) DragDrop(target string) (*ipc.MoveData, error) {
	defer func() { d.dragFrom, d.dragging = "", false }()
	if !d.dragging || target == d.dragFrom {
		return &ipc.MoveData{}, nil
	}
	si, ti := apps.IndexOf(d.list, d.dragFrom), apps.IndexOf(d.list, target)
	moved := d.list[si]
	rest := append(append([]apps.Application(nil), d.list[:si]...), d.list[si+1:]...)
	d.list = append(rest[:ti], append([]apps.Application{moved}, rest[ti:]...)...)
	return &ipc.MoveData{Moved: true, Order: apps.Identities(d.list)}, nil
}

func (d *fakeDaemon) DragCancel() error {
	d.record("drag-cancel")
	d.dragFrom, d.dragging = "", false
	return nil
}

func press(m model, keys ...tea.KeyMsg) model {
	for _, k := range keys {
		next, _ := m.Update(k)
		m = next.(model)
	}
	return m
}

func runes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

var (
	keyUp    = tea.KeyMsg{Type: tea.KeyUp}
	keyDown  = tea.KeyMsg{Type: tea.KeyDown}
	keyEnter = tea.KeyMsg{Type: tea.KeyEnter}
	keyEsc   = tea.KeyMsg{Type: tea.KeyEsc}
	keySpace = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
)

func TestModel_OpensMenuAndLoads(t *testing.T) {
	d := newFakeDaemon("a", "b", "c")
	m := newModel(d)
	if !d.menuOpen {
		t.Error("menu not reported open")
	}
	if !m.connected || len(m.list.Items()) != 3 {
		t.Fatalf("connected=%v items=%d", m.connected, len(m.list.Items()))
	}

	m = press(m, runes("q"))
	if d.menuOpen {
		t.Error("menu still open after quit")
	}
}

func TestModel_DisconnectedDaemon(t *testing.T) {
	d := newFakeDaemon("a")
	d.down = true
	m := newModel(d)
	if m.connected || len(m.list.Items()) != 0 {
		t.Errorf("connected=%v items=%d", m.connected, len(m.list.Items()))
	}
	if !strings.Contains(m.View(), "daemon not running") {
		t.Error("view does not show disconnected state")
	}
}

func TestModel_DragReorders(t *testing.T) {
	d := newFakeDaemon("a", "b", "c")
	m := newModel(d)

	m = press(m, keySpace)
	if !m.armed || m.grabbed != "a" {
		t.Fatalf("grab: armed=%v grabbed=%q", m.armed, m.grabbed)
	}
	m = press(m, keyDown, keyDown)
	if !m.dragging {
		t.Fatal("pointer movement did not start a drag")
	}
	m = press(m, keyEnter)
	if m.armed {
		t.Error("still armed after drop")
	}
	if ids := apps.Identities(m.apps); !reflect.DeepEqual(ids, []string{"b", "c", "a"}) {
		t.Errorf("order after drop = %v", ids)
	}
	if item, _ := m.selected(); item.app.Identity != "a" {
		t.Errorf("selection = %q, want the moved row", item.app.Identity)
	}
}

func TestModel_DragCancel(t *testing.T) {
	d := newFakeDaemon("a", "b")
	m := newModel(d)
	m = press(m, keySpace, keyDown, keyEsc)
	if m.armed || m.dragging {
		t.Error("drag not released")
	}
	if !reflect.DeepEqual(d.calls, []string{"drag-cancel"}) {
		t.Errorf("calls = %v", d.calls)
	}
	if ids := apps.Identities(m.apps); !reflect.DeepEqual(ids, []string{"a", "b"}) {
		t.Errorf("order changed: %v", ids)
	}
}

func TestModel_Actions(t *testing.T) {
	d := newFakeDaemon("a", "b", "c")
	m := newModel(d)

	m = press(m, keyDown, runes("a"))
	if !strings.Contains(m.statusText, "activated B") {
		t.Errorf("status after activate = %q", m.statusText)
	}
	m = press(m, runes("r"), runes("R"), runes("f"))
	want := []string{"activate b", "restart b", "restart-all", "refresh"}
	if !reflect.DeepEqual(d.calls, want) {
		t.Errorf("calls = %v, want %v", d.calls, want)
	}

	m = press(m, runes("s"))
	if !m.suggested["c"] || m.suggested["a"] {
		t.Errorf("suggested = %v", m.suggested)
	}
}

func TestModel_PollKeepsOrderWhileGrabbed(t *testing.T) {
	d := newFakeDaemon("a", "b")
	m := newModel(d)
	m = press(m, keySpace)

	d.list = d.list[:1]
	next, _ := m.Update(pollMsg{})
	m = next.(model)
	if len(m.apps) != 2 {
		t.Errorf("poll reloaded while grabbed: %v", apps.Identities(m.apps))
	}

	m = press(m, keyEsc)
	next, _ = m.Update(pollMsg{})
	m = next.(model)
	if len(m.apps) != 1 {
		t.Errorf("poll did not reload after release: %v", apps.Identities(m.apps))
	}
}

func TestModel_PollRenewsMenu(t *testing.T) {
	d := newFakeDaemon("a")
	m := newModel(d)
	for i := 0; i < 2; i++ {
		next, _ := m.Update(pollMsg{})
		m = next.(model)
	}
	if d.renewals != 3 {
		t.Errorf("menu opened %d times, want 3", d.renewals)
	}
}

func TestModel_UpAtTopIsNoop(t *testing.T) {
	d := newFakeDaemon("a", "b")
	m := newModel(d)
	m = press(m, keySpace, keyUp)
	if m.dragging || m.list.Index() != 0 {
		t.Errorf("dragging=%v index=%d", m.dragging, m.list.Index())
	}
}
