package activation

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/1broseidon/barkeep/internal/apps"
	"github.com/1broseidon/barkeep/internal/platform"
)

type fakeLauncher struct {
	mu sync.Mutex

	activate bool
	launch   bool
	openErr  error
	block    time.Duration // delay before Activate returns, ignoring ctx

	calls      []string
	terminated []int
	// alive counts down IsRunning checks before the process is gone; -1 never exits.
	alive int
}

func (f *fakeLauncher) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeLauncher) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeLauncher) Activate(_ context.Context, identity string) bool {
	f.record("activate:" + identity)
	if f.block > 0 {
		time.Sleep(f.block)
	}
	return f.activate
}

func (f *fakeLauncher) Launch(_ context.Context, identity string) bool {
	f.record("launch:" + identity)
	return f.launch
}

func (f *fakeLauncher) Terminate(pid int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.terminated = append(f.terminated, pid)
	f.calls = append(f.calls, "terminate")
	return nil
}

func (f *fakeLauncher) OpenByLocation(_ context.Context, location string) error {
	f.record("open:" + location)
	return f.openErr
}

// watchingLauncher adds exit observation to fakeLauncher.
type watchingLauncher struct {
	*fakeLauncher
}

func (w watchingLauncher) IsRunning(int) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.alive < 0 {
		return true
	}
	if w.alive == 0 {
		return false
	}
	w.alive--
	return true
}

var redis = apps.Application{
	Identity:          "com.vendor.Redis",
	DisplayName:       "Redis",
	HasBundleLocation: true,
	Location:          "/opt/redis/redis-tray",
	PID:               4242,
}

func TestActivate_FallbackOrder(t *testing.T) {
	tests := []struct {
		name      string
		launcher  *fakeLauncher
		app       apps.Application
		want      Outcome
		wantCalls []string
	}{
		{
			name:      "direct succeeds",
			launcher:  &fakeLauncher{activate: true},
			app:       redis,
			want:      Outcome{Succeeded: true, Via: StrategyDirect},
			wantCalls: []string{"activate:com.vendor.Redis"},
		},
		{
			name:      "launch after direct fails",
			launcher:  &fakeLauncher{launch: true},
			app:       redis,
			want:      Outcome{Succeeded: true, Via: StrategyLaunch},
			wantCalls: []string{"activate:com.vendor.Redis", "launch:com.vendor.Redis"},
		},
		{
			name:      "open location last",
			launcher:  &fakeLauncher{},
			app:       redis,
			want:      Outcome{Succeeded: true, Via: StrategyOpenLocation},
			wantCalls: []string{"activate:com.vendor.Redis", "launch:com.vendor.Redis", "open:/opt/redis/redis-tray"},
		},
		{
			name:      "all fail",
			launcher:  &fakeLauncher{openErr: errors.New("no such file")},
			app:       redis,
			want:      Failed,
			wantCalls: []string{"activate:com.vendor.Redis", "launch:com.vendor.Redis", "open:/opt/redis/redis-tray"},
		},
		{
			name:      "no location skips open",
			launcher:  &fakeLauncher{},
			app:       apps.Application{Identity: "Clock"},
			want:      Failed,
			wantCalls: []string{"activate:Clock", "launch:Clock"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewActivator(tt.launcher, time.Second, nil)
			got := a.Activate(context.Background(), tt.app)
			if got != tt.want {
				t.Errorf("Activate = %+v, want %+v", got, tt.want)
			}
			if calls := tt.launcher.Calls(); !reflect.DeepEqual(calls, tt.wantCalls) {
				t.Errorf("calls = %v, want %v", calls, tt.wantCalls)
			}
		})
	}
}

func TestActivate_AttemptTimeoutFallsThrough(t *testing.T) {
	l := &fakeLauncher{activate: true, launch: true, block: 500 * time.Millisecond}
	a := NewActivator(l, 20*time.Millisecond, nil)

	start := time.Now()
	got := a.Activate(context.Background(), redis)
	if got.Via != StrategyLaunch || !got.Succeeded {
		t.Fatalf("Activate = %+v, want launch success", got)
	}
	if elapsed := time.Since(start); elapsed > 400*time.Millisecond {
		t.Errorf("hung attempt was not bounded: %s", elapsed)
	}
}

func TestStrategyText(t *testing.T) {
	for _, s := range []Strategy{StrategyNone, StrategyDirect, StrategyLaunch, StrategyOpenLocation} {
		text, _ := s.MarshalText()
		var back Strategy
		if err := back.UnmarshalText(text); err != nil || back != s {
			t.Errorf("round trip of %v gave %v, %v", s, back, err)
		}
	}
	var s Strategy
	if err := s.UnmarshalText([]byte("teleport")); err == nil {
		t.Error("expected error for unknown strategy")
	}
	if Strategy(9).String() != "unknown" {
		t.Error("out of range strategy should be unknown")
	}
}

func newTestRestarter(l platform.Launcher, opts RestartOptions, results chan<- RestartResult) *Restarter {
	a := NewActivator(l, time.Second, nil)
	r := NewRestarter(l, a, opts, func(res RestartResult) { results <- res }, nil)
	r.sleep = func(ctx context.Context, _ time.Duration) error { return ctx.Err() }
	return r
}

func TestRestart_ExitConfirmed(t *testing.T) {
	l := watchingLauncher{&fakeLauncher{launch: true, alive: 3}}
	results := make(chan RestartResult, 1)
	r := newTestRestarter(l, RestartOptions{TerminateWait: time.Hour, ExitPollInterval: time.Millisecond}, results)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go r.Run(ctx)

	id, err := r.Enqueue(redis)
	if err != nil {
		t.Fatal(err)
	}
	res := <-results
	if res.JobID != id || res.Identity != redis.Identity {
		t.Errorf("result ids = %q/%q", res.JobID, res.Identity)
	}
	if !res.ExitConfirmed || !res.Relaunched || res.Via != StrategyLaunch {
		t.Errorf("result = %+v", res)
	}
	if got := l.Calls(); !reflect.DeepEqual(got, []string{"terminate", "launch:com.vendor.Redis"}) {
		t.Errorf("calls = %v", got)
	}
	if l.terminated[0] != redis.PID {
		t.Errorf("terminated pid %d", l.terminated[0])
	}
}

func TestRestart_RaceRelaunchesWithoutConfirmation(t *testing.T) {
	l := watchingLauncher{&fakeLauncher{launch: true, alive: -1}}
	results := make(chan RestartResult, 1)
	r := newTestRestarter(l, RestartOptions{TerminateWait: 30 * time.Millisecond, ExitPollInterval: 5 * time.Millisecond}, results)
	// Real sleeps so the deadline can pass.
	r.sleep = sleepContext

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go r.Run(ctx)

	if _, err := r.Enqueue(redis); err != nil {
		t.Fatal(err)
	}
	res := <-results
	if res.ExitConfirmed {
		t.Error("exit should not be confirmed for a process that never exits")
	}
	if !res.Relaunched {
		t.Error("relaunch should still happen after the bounded wait")
	}
}

func TestRestart_NoWatcherSleepsAndRelaunches(t *testing.T) {
	l := &fakeLauncher{launch: true}
	results := make(chan RestartResult, 1)
	r := newTestRestarter(l, RestartOptions{}, results)
	if r.watcher != nil {
		t.Fatal("plain launcher should not be an exit watcher")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go r.Run(ctx)

	r.Enqueue(redis)
	res := <-results
	if res.ExitConfirmed || !res.Relaunched {
		t.Errorf("result = %+v", res)
	}
}

func TestRestart_SequentialWithSpacing(t *testing.T) {
	l := &fakeLauncher{launch: true}
	results := make(chan RestartResult, 3)
	spacing := 30 * time.Millisecond
	r := newTestRestarter(l, RestartOptions{Spacing: spacing}, results)

	batchDone := make(chan struct{})
	list := []apps.Application{
		{Identity: "a", PID: 1},
		{Identity: "b", PID: 2},
		{Identity: "c", PID: 3},
	}
	ids, err := r.EnqueueAll(list, func() { close(batchDone) })
	if err != nil || len(ids) != 3 {
		t.Fatalf("EnqueueAll = %v, %v", ids, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go r.Run(ctx)

	var got []RestartResult
	for i := 0; i < 3; i++ {
		got = append(got, <-results)
	}
	select {
	case <-batchDone:
	case <-time.After(time.Second):
		t.Fatal("batch completion callback not called")
	}

	for i, res := range got {
		if res.Identity != list[i].Identity || res.JobID != ids[i] {
			t.Errorf("result %d = %s/%s, want %s/%s", i, res.Identity, res.JobID, list[i].Identity, ids[i])
		}
		if i == 0 {
			continue
		}
		prev := got[i-1]
		if res.Started.Before(prev.Finished) {
			t.Errorf("restart %d started before %d finished", i, i-1)
		}
		if gap := res.Started.Sub(prev.Finished); gap < spacing-5*time.Millisecond {
			t.Errorf("gap between %d and %d = %s, want >= %s", i-1, i, gap, spacing)
		}
	}
}

func TestEnqueueAll_EmptyRunsDone(t *testing.T) {
	r := NewRestarter(&fakeLauncher{}, NewActivator(&fakeLauncher{}, 0, nil), RestartOptions{}, nil, nil)
	called := false
	if _, err := r.EnqueueAll(nil, func() { called = true }); err != nil {
		t.Fatal(err)
	}
	if !called {
		t.Error("done not called for empty batch")
	}
}

func TestEnqueue_QueueFull(t *testing.T) {
	r := NewRestarter(&fakeLauncher{}, NewActivator(&fakeLauncher{}, 0, nil), RestartOptions{}, nil, nil)
	for i := 0; i < queueSize; i++ {
		if _, err := r.Enqueue(redis); err != nil {
			t.Fatalf("enqueue %d: %v", i, err)
		}
	}
	if _, err := r.Enqueue(redis); !errors.Is(err, ErrQueueFull) {
		t.Fatalf("err = %v, want ErrQueueFull", err)
	}
	if r.Pending() != queueSize {
		t.Errorf("Pending = %d", r.Pending())
	}
}
