package mcp

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/1broseidon/barkeep/internal/activation"
	"github.com/1broseidon/barkeep/internal/apps"
	"github.com/1broseidon/barkeep/internal/daemon"
	"github.com/1broseidon/barkeep/internal/history"
	"github.com/1broseidon/barkeep/internal/ipc"
)

type fakeDaemon struct {
	list      []apps.Application
	restarted []string
	all       bool
	moved     [2]string
	forced    bool
	err       error
}

func (d *fakeDaemon) GetStatus() (*ipc.StatusData, error) {
	return &ipc.StatusData{Status: daemon.Status{Count: len(d.list), PendingRestarts: 2}, UptimeSeconds: 30}, d.err
}

func (d *fakeDaemon) ListApps() ([]apps.Application, error) { return d.list, d.err }

func (d *fakeDaemon) Suggest() ([]apps.Application, error) { return d.list[1:], nil }

func (d *fakeDaemon) Refresh(force bool) (*ipc.RefreshData, error) {
	d.forced = force
	return &ipc.RefreshData{Published: force, Count: len(d.list)}, nil
}

func (d *fakeDaemon) Activate(id string) (*ipc.ActivateData, error) {
	return &ipc.ActivateData{Identity: id, Outcome: activation.Outcome{Succeeded: true, Via: activation.StrategyOpenLocation}}, nil
}

func (d *fakeDaemon) Restart(ids ...string) ([]string, error) {
	d.restarted = ids
	return []string{"job-1"}, nil
}

func (d *fakeDaemon) RestartAll() ([]string, error) {
	d.all = true
	return []string{"job-1", "job-2"}, nil
}

func (d *fakeDaemon) Move(source, target string) (*ipc.MoveData, error) {
	d.moved = [2]string{source, target}
	return &ipc.MoveData{Moved: true, Order: []string{target, source}}, nil
}

func (d *fakeDaemon) History(identity string, limit int) (*ipc.HistoryData, error) {
	return &ipc.HistoryData{Entries: []history.Entry{{Kind: history.KindRestart, Identity: identity, Succeeded: true, Strategy: "launch"}}}, nil
}

func newTestServer() (*Server, *fakeDaemon) {
	d := &fakeDaemon{list: []apps.Application{
		{Identity: "com.docker.docker", DisplayName: "Docker", Accessory: true},
		{Identity: "com.vendor.Stats", DisplayName: "Stats", Accessory: true, PID: 42},
	}}
	return NewServer(d, nil), d
}

func TestHandleListApps(t *testing.T) {
	s, _ := newTestServer()
	ctx := context.Background()

	_, out, err := s.handleListApps(ctx, nil, ListAppsInput{})
	if err != nil {
		t.Fatal(err)
	}
	if out.Count != 2 || out.Apps[1].Position != 1 || out.Apps[1].PID != 42 || out.Apps[1].Suggested {
		t.Errorf("out = %+v", out)
	}
	if out.Apps[0].Status != "running • status-area app" {
		t.Errorf("status = %q", out.Apps[0].Status)
	}

	_, out, err = s.handleListApps(ctx, nil, ListAppsInput{WithSuggestions: true})
	if err != nil {
		t.Fatal(err)
	}
	if out.Apps[0].Suggested || !out.Apps[1].Suggested {
		t.Errorf("suggestions = %+v", out.Apps)
	}
}

func TestHandleListApps_DaemonDown(t *testing.T) {
	s, d := newTestServer()
	d.err = errors.New("failed to connect to daemon")
	if _, _, err := s.handleListApps(context.Background(), nil, ListAppsInput{}); err == nil {
		t.Fatal("expected error")
	}
}

func TestHandleActivateAndStatus(t *testing.T) {
	s, _ := newTestServer()
	ctx := context.Background()

	if _, _, err := s.handleActivateApp(ctx, nil, ActivateAppInput{}); err == nil {
		t.Error("empty identity accepted")
	}
	_, act, err := s.handleActivateApp(ctx, nil, ActivateAppInput{Identity: "com.docker.docker"})
	if err != nil || !act.Succeeded || act.Via != "open-location" {
		t.Errorf("activate = %+v, %v", act, err)
	}

	_, st, err := s.handleGetStatus(ctx, nil, GetStatusInput{})
	if err != nil || st.Count != 2 || st.PendingRestarts != 2 || st.UptimeSeconds != 30 {
		t.Errorf("status = %+v, %v", st, err)
	}
}

func TestHandleRestartApps(t *testing.T) {
	s, d := newTestServer()
	ctx := context.Background()

	if _, _, err := s.handleRestartApps(ctx, nil, RestartAppsInput{}); err == nil {
		t.Error("empty restart accepted")
	}
	_, out, err := s.handleRestartApps(ctx, nil, RestartAppsInput{Identities: []string{"a", "b"}})
	if err != nil || len(out.JobIDs) != 1 || !reflect.DeepEqual(d.restarted, []string{"a", "b"}) {
		t.Errorf("restart = %+v, %v (restarted %v)", out, err, d.restarted)
	}
	_, out, err = s.handleRestartApps(ctx, nil, RestartAppsInput{All: true, Identities: []string{"ignored"}})
	if err != nil || !d.all || len(out.JobIDs) != 2 {
		t.Errorf("restart all = %+v, %v", out, err)
	}
}

func TestHandleMoveRefreshHistory(t *testing.T) {
	s, d := newTestServer()
	ctx := context.Background()

	if _, _, err := s.handleMoveApp(ctx, nil, MoveAppInput{Source: "a"}); err == nil {
		t.Error("move without target accepted")
	}
	_, mv, err := s.handleMoveApp(ctx, nil, MoveAppInput{Source: "a", Target: "b"})
	if err != nil || !mv.Moved || d.moved != [2]string{"a", "b"} {
		t.Errorf("move = %+v, %v", mv, err)
	}

	_, rf, err := s.handleRefreshApps(ctx, nil, RefreshAppsInput{Force: true})
	if err != nil || !rf.Published || !d.forced {
		t.Errorf("refresh = %+v, %v", rf, err)
	}

	_, h, err := s.handleGetHistory(ctx, nil, GetHistoryInput{Identity: "a"})
	if err != nil || len(h.Entries) != 1 || h.Entries[0].Kind != "restart" || h.Entries[0].Identity != "a" {
		t.Errorf("history = %+v, %v", h, err)
	}
}
