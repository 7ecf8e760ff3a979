package activation

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/1broseidon/barkeep/internal/apps"
	"github.com/1broseidon/barkeep/internal/platform"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

const (
	DefaultTerminateWait    = 2 * time.Second
	DefaultExitPollInterval = 100 * time.Millisecond
	DefaultSpacing          = 500 * time.Millisecond

	queueSize = 64
)

// ErrQueueFull is returned when too many restarts are pending.
var ErrQueueFull = errors.New("restart queue is full")

// RestartOptions tunes the restart worker.
type RestartOptions struct {
	// TerminateWait bounds the wait for the old process to exit.
	TerminateWait time.Duration
	// ExitPollInterval is the exit check period; 0 sleeps TerminateWait.
	ExitPollInterval time.Duration
	// Spacing is the minimum gap between one restart finishing and the
	// next one starting.
	Spacing time.Duration
}

// RestartResult describes one finished restart job.
type RestartResult struct {
	JobID    string `json:"job_id"`
	Identity string `json:"identity"`
	Name     string `json:"name"`
	// ExitConfirmed is false when the relaunch went ahead without seeing the
	// old process exit.
	ExitConfirmed bool      `json:"exit_confirmed"`
	Relaunched    bool      `json:"relaunched"`
	Via           Strategy  `json:"via"`
	Started       time.Time `json:"started"`
	Finished      time.Time `json:"finished"`
}

type restartJob struct {
	id    string
	app   apps.Application
	batch *batch
}

type batch struct {
	mu      sync.Mutex
	pending int
	done    func()
}

func (b *batch) finish() {
	if b == nil {
		return
	}
	b.mu.Lock()
	b.pending--
	last := b.pending == 0
	b.mu.Unlock()
	if last && b.done != nil {
		b.done()
	}
}

// Restarter terminates and relaunches applications on a single background
// worker, strictly one after another.
type Restarter struct {
	launcher  platform.Launcher
	watcher   platform.ExitWatcher
	activator *Activator
	opts      RestartOptions
	limiter   *rate.Limiter
	logger    *slog.Logger
	onResult  func(RestartResult)

	queue chan restartJob
	sleep func(ctx context.Context, d time.Duration) error
}

// NewRestarter creates a restarter. onResult is called on the worker
// goroutine after every job and must not block for long.
func NewRestarter(launcher platform.Launcher, activator *Activator, opts RestartOptions, onResult func(RestartResult), logger *slog.Logger) *Restarter {
	if opts.TerminateWait <= 0 {
		opts.TerminateWait = DefaultTerminateWait
	}
	if opts.ExitPollInterval < 0 {
		opts.ExitPollInterval = 0
	}
	if opts.Spacing < 0 {
		opts.Spacing = 0
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if onResult == nil {
		onResult = func(RestartResult) {}
	}

	limit := rate.Inf
	if opts.Spacing > 0 {
		limit = rate.Every(opts.Spacing)
	}

	r := &Restarter{
		launcher:  launcher,
		activator: activator,
		opts:      opts,
		limiter:   rate.NewLimiter(limit, 1),
		logger:    logger,
		onResult:  onResult,
		queue:     make(chan restartJob, queueSize),
		sleep:     sleepContext,
	}
	if w, ok := launcher.(platform.ExitWatcher); ok {
		r.watcher = w
	}
	return r
}

// Enqueue schedules a restart of app and returns its job id.
func (r *Restarter) Enqueue(app apps.Application) (string, error) {
	return r.enqueue(app, nil)
}

// EnqueueAll schedules restarts of every app in order. done runs once after
// the last of them finishes; it also runs immediately when list is empty.
func (r *Restarter) EnqueueAll(list []apps.Application, done func()) ([]string, error) {
	if len(list) == 0 {
		if done != nil {
			done()
		}
		return nil, nil
	}
	if len(list) > cap(r.queue)-len(r.queue) {
		return nil, ErrQueueFull
	}
	b := &batch{pending: len(list), done: done}
	ids := make([]string, 0, len(list))
	for _, app := range list {
		id, err := r.enqueue(app, b)
		if err != nil {
			return ids, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (r *Restarter) enqueue(app apps.Application, b *batch) (string, error) {
	job := restartJob{id: uuid.NewString(), app: app, batch: b}
	select {
	case r.queue <- job:
		r.logger.Info("restart queued", "job", job.id, "identity", app.Identity)
		return job.id, nil
	default:
		return "", ErrQueueFull
	}
}

// Pending returns the number of queued jobs not yet started.
func (r *Restarter) Pending() int {
	return len(r.queue)
}

// Run processes queued restarts until ctx is done.
func (r *Restarter) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-r.queue:
			if err := r.limiter.Wait(ctx); err != nil {
				return
			}
			result := r.restart(ctx, job)
			// Count the gap from completion, not from the start.
			r.limiter.Reserve()
			r.onResult(result)
			job.batch.finish()
		}
	}
}

func (r *Restarter) restart(ctx context.Context, job restartJob) RestartResult {
	app := job.app
	result := RestartResult{
		JobID:    job.id,
		Identity: app.Identity,
		Name:     app.Name(),
		Started:  time.Now(),
	}
	logger := r.logger.With("job", job.id, "identity", app.Identity)

	if err := r.launcher.Terminate(app.PID); err != nil {
		logger.Warn("terminate failed", "pid", app.PID, "error", err)
	}

	result.ExitConfirmed = r.waitForExit(ctx, app.PID)
	if !result.ExitConfirmed {
		logger.Warn("relaunching without exit confirmation", "pid", app.PID, "waited", r.opts.TerminateWait)
	}

	if ctx.Err() == nil {
		outcome := r.activator.Launch(ctx, app)
		result.Relaunched = outcome.Succeeded
		result.Via = outcome.Via
	}
	result.Finished = time.Now()

	if result.Relaunched {
		logger.Info("restarted", "via", result.Via.String(), "exit_confirmed", result.ExitConfirmed)
	} else {
		logger.Warn("relaunch failed", "exit_confirmed", result.ExitConfirmed)
	}
	return result
}

// waitForExit polls the exit watcher until pid is gone or TerminateWait
// elapses. Without a watcher or a poll interval it sleeps the full wait and
// reports false.
func (r *Restarter) waitForExit(ctx context.Context, pid int) bool {
	if r.watcher == nil || r.opts.ExitPollInterval <= 0 {
		_ = r.sleep(ctx, r.opts.TerminateWait)
		return false
	}

	deadline := time.Now().Add(r.opts.TerminateWait)
	for {
		if !r.watcher.IsRunning(pid) {
			return true
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return false
		}
		if err := r.sleep(ctx, min(r.opts.ExitPollInterval, remaining)); err != nil {
			return false
		}
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
