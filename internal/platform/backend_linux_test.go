//go:build linux

package platform

import (
	"reflect"
	"testing"

	"github.com/BurntSushi/xgb/xproto"

	"github.com/1broseidon/barkeep/internal/x11"
)

func TestActivationTargets(t *testing.T) {
	clients := []x11.ClientWindow{
		{Window: 10, PID: 7, Normal: true},
		{Window: 11, PID: 42, Hidden: true},
		{Window: 12, PID: 42},
		{Window: 13, PID: 42, Normal: true},
	}
	icons := []x11.TrayIcon{
		{Window: 20, PID: 42, Mapped: true},
		{Window: 21, PID: 42},
		{Window: 22, PID: 7, Mapped: true},
	}

	tests := []struct {
		name    string
		clients []x11.ClientWindow
		pids    map[int]bool
		want    []activationTarget
	}{
		{
			name:    "windows before the tray icon",
			clients: clients,
			pids:    map[int]bool{42: true},
			want: []activationTarget{
				{window: 13},
				{window: 12},
				{window: 11},
				{window: 20, click: true},
			},
		},
		{
			name: "tray-only process is clicked",
			pids: map[int]bool{42: true},
			want: []activationTarget{{window: 20, click: true}},
		},
		{
			name:    "unknown process",
			clients: clients,
			pids:    map[int]bool{99: true},
			want:    nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := activationTargets(tt.clients, icons, tt.pids)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("activationTargets = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestActivationTargets_SkipTaskbarWindow(t *testing.T) {
	// A tray utility's popup is typically skip-taskbar, so not Normal.
	clients := []x11.ClientWindow{{Window: xproto.Window(5), PID: 3}}
	got := activationTargets(clients, nil, map[int]bool{3: true})
	if len(got) != 1 || got[0].window != 5 || got[0].click {
		t.Errorf("activationTargets = %+v", got)
	}
}
