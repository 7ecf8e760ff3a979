package tui

import (
	"context"
	"reflect"
	"sync"
	"testing"

	"github.com/1broseidon/barkeep/internal/apps"
	"github.com/1broseidon/barkeep/internal/daemon"
	"github.com/1broseidon/barkeep/internal/ipc"
)

type trayBackend struct {
	mu    sync.Mutex
	procs []apps.RawProcess
}

func (b *trayBackend) set(names ...string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.procs = nil
	for i, name := range names {
		b.procs = append(b.procs, apps.RawProcess{
			BundleID:  "org." + name,
			Name:      name,
			Accessory: true,
			Location:  "/usr/bin/" + name,
			PID:       100 + i,
		})
	}
}

func (b *trayBackend) ListRunningApplications() ([]apps.RawProcess, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]apps.RawProcess(nil), b.procs...), nil
}

func (b *trayBackend) Activate(context.Context, string) bool        { return false }
func (b *trayBackend) Launch(context.Context, string) bool          { return true }
func (b *trayBackend) Terminate(int) error                          { return nil }
func (b *trayBackend) OpenByLocation(context.Context, string) error { return nil }

// controllerDaemon drives a real controller in-process.
type controllerDaemon struct {
	c   *daemon.Controller
	ctx context.Context
}

func (d controllerDaemon) GetStatus() (*ipc.StatusData, error) {
	st, err := d.c.Status(d.ctx)
	if err != nil {
		return nil, err
	}
	return &ipc.StatusData{Status: st, DaemonRunning: true}, nil
}

func (d controllerDaemon) ListApps() ([]apps.Application, error) { return d.c.Apps(d.ctx) }
func (d controllerDaemon) Suggest() ([]apps.Application, error)  { return d.c.Suggest(d.ctx) }

func (d controllerDaemon) Refresh(force bool) (*ipc.RefreshData, error) {
	published, err := d.c.Refresh(d.ctx, force)
	if err != nil {
		return nil, err
	}
	list, err := d.c.Apps(d.ctx)
	if err != nil {
		return nil, err
	}
	return &ipc.RefreshData{Published: published, Count: len(list)}, nil
}

func (d controllerDaemon) Activate(identity string) (*ipc.ActivateData, error) {
	outcome, err := d.c.Activate(d.ctx, identity)
	if err != nil {
		return nil, err
	}
	return &ipc.ActivateData{Identity: identity, Outcome: outcome}, nil
}

func (d controllerDaemon) Restart(identities ...string) ([]string, error) {
	return d.c.Restart(d.ctx, identities...)
}

func (d controllerDaemon) RestartAll() ([]string, error) { return d.c.RestartAll(d.ctx) }
func (d controllerDaemon) SetMenuOpen(open bool) error   { return d.c.SetMenuOpen(d.ctx, open) }
func (d controllerDaemon) DragCancel() error             { return d.c.DragCancel(d.ctx) }

func (d controllerDaemon) DragBegin(source string, x, y float64) (*ipc.DragData, error) {
	ok, err := d.c.DragBegin(d.ctx, source, x, y)
	if err != nil {
		return nil, err
	}
	return &ipc.DragData{Accepted: ok}, nil
}

func (d controllerDaemon) DragMotion(x, y float64) (*ipc.DragData, error) {
	dragging, err := d.c.DragMotion(d.ctx, x, y)
	if err != nil {
		return nil, err
	}
	return &ipc.DragData{Accepted: true, Dragging: dragging}, nil
}

func (d controllerDaemon) DragDrop(target string) (*ipc.MoveData, error) {
	moved, err := d.c.DragDrop(d.ctx, target)
	if err != nil {
		return nil, err
	}
	return &ipc.MoveData{Moved: moved}, nil
}

func startDaemon(t *testing.T, backend *trayBackend) controllerDaemon {
	t.Helper()
	c := daemon.NewController(daemon.Settings{DragThreshold: 5}, backend, nil, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go c.Run(ctx)
	return controllerDaemon{c: c, ctx: context.Background()}
}

func TestModel_RefreshKeyPublishesWhileOpen(t *testing.T) {
	backend := &trayBackend{}
	backend.set("clock")
	d := startDaemon(t, backend)
	if data, err := d.Refresh(false); err != nil || !data.Published {
		t.Fatalf("initial refresh = %+v, %v", data, err)
	}

	m := newModel(d)
	if st, _ := d.GetStatus(); !st.MenuOpen {
		t.Fatal("menu not open on the controller")
	}

	backend.set("clock", "volume")
	if data, _ := d.Refresh(false); data.Published {
		t.Fatal("background tick published under the menu")
	}

	m = press(m, runes("f"))
	if ids := apps.Identities(m.apps); !reflect.DeepEqual(ids, []string{"org.clock", "org.volume"}) {
		t.Errorf("menu rows after f = %v", ids)
	}

	press(m, runes("q"))
	if st, _ := d.GetStatus(); st.MenuOpen {
		t.Error("menu still open after quit")
	}
}
