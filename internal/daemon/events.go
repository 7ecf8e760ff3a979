package daemon

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/1broseidon/barkeep/internal/activation"
	"github.com/1broseidon/barkeep/internal/apps"
)

const eventBuffer = 128

// PublishReason says why a sequence was published.
type PublishReason string

const (
	ReasonRefresh PublishReason = "refresh"
	ReasonForced  PublishReason = "forced"
	ReasonReorder PublishReason = "reorder"
)

// Event is anything the control loop reports to presentation sinks.
type Event interface {
	eventKind() string
}

// PublishEvent carries a newly published sequence. CountChanged is false
// for forced and reorder publications that kept the previous length.
type PublishEvent struct {
	Apps         []apps.Application
	Reason       PublishReason
	CountChanged bool
	At           time.Time
}

// ActivationEvent reports the outcome of an activation request.
type ActivationEvent struct {
	Identity string
	Name     string
	Outcome  activation.Outcome
	At       time.Time
}

// RestartEvent reports a finished restart job.
type RestartEvent struct {
	activation.RestartResult
}

// ReorderEvent reports a successful drop or move.
type ReorderEvent struct {
	Source string
	Target string
	Order  []string
	At     time.Time
}

// PipelineEvent reports one classification pass.
type PipelineEvent struct {
	Candidates int
	Published  bool
	Suppressed bool
	Duration   time.Duration
	At         time.Time
}

func (PublishEvent) eventKind() string    { return "publish" }
func (ActivationEvent) eventKind() string { return "activation" }
func (RestartEvent) eventKind() string    { return "restart" }
func (ReorderEvent) eventKind() string    { return "reorder" }
func (PipelineEvent) eventKind() string   { return "pipeline" }

// Sink receives presentation events on the dispatcher goroutine.
type Sink interface {
	Published(PublishEvent)
	Activated(ActivationEvent)
	Restarted(RestartEvent)
	Reordered(ReorderEvent)
}

// PipelineObserver is an optional interface for sinks that want every
// pipeline pass, including the ones that publish nothing.
type PipelineObserver interface {
	PipelineRan(PipelineEvent)
}

// BaseSink implements Sink with no-ops so sinks can embed it and override
// what they need.
type BaseSink struct{}

func (BaseSink) Published(PublishEvent)    {}
func (BaseSink) Activated(ActivationEvent) {}
func (BaseSink) Restarted(RestartEvent)    {}
func (BaseSink) Reordered(ReorderEvent)    {}

// Dispatcher delivers queued events to its sinks, one event at a time, on
// a single goroutine. Only pipeline events are dropped when the queue is
// backed up; publishes, activations, restarts and reorders always queue.
type Dispatcher struct {
	mu      sync.Mutex
	pending []Event
	wake    chan struct{}
	sinks   []Sink
	logger  *slog.Logger
}

// NewDispatcher creates a dispatcher. Sinks are fixed at construction.
func NewDispatcher(logger *slog.Logger, sinks ...Sink) *Dispatcher {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Dispatcher{
		wake:   make(chan struct{}, 1),
		sinks:  sinks,
		logger: logger,
	}
}

// Emit queues ev without blocking. It returns false when a pipeline event
// was dropped because eventBuffer events are already waiting.
func (d *Dispatcher) Emit(ev Event) bool {
	d.mu.Lock()
	if _, ok := ev.(PipelineEvent); ok && len(d.pending) >= eventBuffer {
		d.mu.Unlock()
		d.logger.Debug("pipeline event dropped, dispatcher is behind")
		return false
	}
	d.pending = append(d.pending, ev)
	d.mu.Unlock()

	select {
	case d.wake <- struct{}{}:
	default:
	}
	return true
}

// Run delivers events until ctx is done, then drains what is already
// queued.
func (d *Dispatcher) Run(ctx context.Context) {
	for {
		select {
		case <-d.wake:
			d.drain()
		case <-ctx.Done():
			d.drain()
			return
		}
	}
}

func (d *Dispatcher) drain() {
	for {
		d.mu.Lock()
		batch := d.pending
		d.pending = nil
		d.mu.Unlock()
		if len(batch) == 0 {
			return
		}
		for _, ev := range batch {
			d.deliver(ev)
		}
	}
}

func (d *Dispatcher) deliver(ev Event) {
	for _, sink := range d.sinks {
		d.deliverTo(sink, ev)
	}
}

func (d *Dispatcher) deliverTo(sink Sink, ev Event) {
	defer func() {
		if err := recover(); err != nil {
			d.logger.Error("sink panic recovered", "kind", ev.eventKind(), "error", err)
		}
	}()

	switch e := ev.(type) {
	case PublishEvent:
		sink.Published(e)
	case ActivationEvent:
		sink.Activated(e)
	case RestartEvent:
		sink.Restarted(e)
	case ReorderEvent:
		sink.Reordered(e)
	case PipelineEvent:
		if obs, ok := sink.(PipelineObserver); ok {
			obs.PipelineRan(e)
		}
	}
}

// LogSink writes every event to a structured logger.
type LogSink struct {
	Logger *slog.Logger
}

func (s LogSink) Published(e PublishEvent) {
	s.Logger.Info("published", "count", len(e.Apps), "reason", string(e.Reason), "count_changed", e.CountChanged)
}

func (s LogSink) Activated(e ActivationEvent) {
	if e.Outcome.Succeeded {
		s.Logger.Info("activation", "identity", e.Identity, "via", e.Outcome.Via.String())
		return
	}
	s.Logger.Warn("activation failed", "identity", e.Identity, "name", e.Name)
}

func (s LogSink) Restarted(e RestartEvent) {
	s.Logger.Info("restart finished",
		"job", e.JobID,
		"identity", e.Identity,
		"relaunched", e.Relaunched,
		"exit_confirmed", e.ExitConfirmed)
}

func (s LogSink) Reordered(e ReorderEvent) {
	s.Logger.Info("reordered", "source", e.Source, "target", e.Target)
}
