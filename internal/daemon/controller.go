package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/1broseidon/barkeep/internal/activation"
	"github.com/1broseidon/barkeep/internal/apps"
	"github.com/1broseidon/barkeep/internal/config"
	"github.com/1broseidon/barkeep/internal/platform"
	"github.com/1broseidon/barkeep/internal/reorder"
)

var (
	// ErrUnknownApp is returned for identities that are not published.
	ErrUnknownApp = errors.New("unknown application")
	// ErrStopped is returned once the control loop has exited.
	ErrStopped = errors.New("controller stopped")
)

// DefaultInteractionLease is how long an open menu or an armed drag holds
// back publication without being renewed.
const DefaultInteractionLease = 15 * time.Second

// Settings are the tunables the controller reads from config.
type Settings struct {
	Rules               *apps.Rules
	Priority            apps.PriorityList
	LowPriorityKeywords []string
	DragThreshold       float64
	AttemptTimeout      time.Duration
	Restart             activation.RestartOptions
	// InteractionLease bounds MENU_OPEN and drag gestures from clients that
	// went away. Zero selects DefaultInteractionLease.
	InteractionLease time.Duration
}

// SettingsFromConfig builds controller settings from the effective config.
func SettingsFromConfig(cfg *config.Config) Settings {
	return Settings{
		Rules:               apps.NewRules(cfg.RuleOptions()),
		Priority:            apps.PriorityList(cfg.Priority),
		LowPriorityKeywords: cfg.LowPriorityKeywords,
		DragThreshold:       cfg.DragThreshold,
		AttemptTimeout:      cfg.Activation.AttemptTimeout,
		Restart: activation.RestartOptions{
			TerminateWait:    cfg.Restart.TerminateWait,
			ExitPollInterval: cfg.Restart.ExitPollInterval,
			Spacing:          cfg.Restart.Spacing,
		},
	}
}

// Status is a point-in-time view of the control loop.
type Status struct {
	Count           int           `json:"count"`
	Dragging        bool          `json:"dragging"`
	DragSource      string        `json:"drag_source,omitempty"`
	MenuOpen        bool          `json:"menu_open"`
	Suppressed      bool          `json:"suppressed"`
	ManualOrder     bool          `json:"manual_order"`
	Runs            uint64        `json:"runs"`
	LastRefresh     time.Time     `json:"last_refresh"`
	Uptime          time.Duration `json:"uptime"`
	PendingRestarts int           `json:"pending_restarts"`
}

// Controller owns the published sequence, the change detector, the reorder
// session and the manual order. All of that state is touched only on the
// goroutine running Run; everything else submits closures.
type Controller struct {
	provider   platform.SnapshotProvider
	activator  *activation.Activator
	restarter  *activation.Restarter
	hinter     platform.HostHinter
	dispatcher *Dispatcher
	logger     *slog.Logger

	cmds    chan func()
	kick    chan struct{}
	done    chan struct{}
	started time.Time
	now     func() time.Time

	// Owned by the control goroutine.
	classifier  *apps.Classifier
	settings    Settings
	detector    *Detector
	session     *reorder.Session
	overrides   []string
	menuOpen    bool
	leaseUntil  time.Time
	suppressed  bool
	runs        uint64
	lastRefresh time.Time
}

// NewController wires a controller over backend. hinter and dispatcher may
// be nil.
func NewController(settings Settings, backend platform.Backend, hinter platform.HostHinter, dispatcher *Dispatcher, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if hinter == nil {
		hinter = platform.NopHinter{}
	}
	if dispatcher == nil {
		dispatcher = NewDispatcher(logger)
	}
	if settings.Rules == nil {
		settings.Rules = apps.NewRules(apps.RuleOptions{})
	}
	if settings.InteractionLease <= 0 {
		settings.InteractionLease = DefaultInteractionLease
	}

	c := &Controller{
		provider:   backend,
		hinter:     hinter,
		dispatcher: dispatcher,
		logger:     logger,
		cmds:       make(chan func()),
		kick:       make(chan struct{}, 1),
		done:       make(chan struct{}),
		started:    time.Now(),
		now:        time.Now,
		classifier: apps.NewClassifier(settings.Rules, logger),
		settings:   settings,
		detector:   NewDetector(),
		session:    reorder.NewSession(settings.DragThreshold),
	}
	c.activator = activation.NewActivator(backend, settings.AttemptTimeout, logger)
	c.restarter = activation.NewRestarter(backend, c.activator, settings.Restart, c.restartFinished, logger)
	return c
}

// Run processes commands until ctx is done. It also runs the restart worker
// and the event dispatcher.
func (c *Controller) Run(ctx context.Context) {
	defer close(c.done)

	go c.restarter.Run(ctx)
	go c.dispatcher.Run(ctx)

	c.logger.Info("controller started")
	for {
		select {
		case <-ctx.Done():
			c.logger.Info("controller stopped")
			return
		case fn := <-c.cmds:
			fn()
		}
	}
}

// RefreshRequests delivers explicit refresh requests raised from inside the
// controller (finished restarts, a closed menu with a pending change).
func (c *Controller) RefreshRequests() <-chan struct{} {
	return c.kick
}

// RequestRefresh asks the refresher for a forced pass without blocking.
func (c *Controller) RequestRefresh() {
	select {
	case c.kick <- struct{}{}:
	default:
	}
}

// do runs fn on the control goroutine and waits for it.
func (c *Controller) do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	wrapped := func() {
		defer close(finished)
		defer func() {
			if err := recover(); err != nil {
				c.logger.Error("control loop panic recovered", "error", err)
			}
		}()
		fn()
	}

	select {
	case c.cmds <- wrapped:
	case <-ctx.Done():
		return ctx.Err()
	case <-c.done:
		return ErrStopped
	}

	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-c.done:
		return ErrStopped
	}
}

// post runs fn on the control goroutine without waiting.
func (c *Controller) post(fn func()) {
	go func() {
		_ = c.do(context.Background(), fn)
	}()
}

// Refresh runs one pipeline pass: snapshot, classify, dedupe, order, and
// hand the result to the change detector. force republishes even when the
// count is unchanged and even under an open menu; an active drag still
// holds it back.
func (c *Controller) Refresh(ctx context.Context, force bool) (bool, error) {
	begin := time.Now()
	snapshot, err := c.provider.ListRunningApplications()
	if err != nil {
		return false, fmt.Errorf("failed to list running applications: %w", err)
	}

	var published bool
	err = c.do(ctx, func() {
		ordered := apps.Order(apps.Dedupe(c.classifier.Classify(snapshot)), c.settings.Priority, c.overrides)
		if force {
			c.detector.Force()
		}

		c.expireLease()
		busy := c.session.Dragging() || (c.menuOpen && !force)
		suppressed := busy && c.detector.Changed(ordered)
		countChanged := c.detector.CountChanged(ordered)
		ok, seq := c.detector.OnTick(ordered, busy)

		c.runs++
		c.lastRefresh = time.Now()
		if suppressed {
			c.suppressed = true
		}
		if ok {
			c.suppressed = false
			reason := ReasonRefresh
			if force {
				reason = ReasonForced
			}
			c.dispatcher.Emit(PublishEvent{Apps: seq, Reason: reason, CountChanged: countChanged, At: c.lastRefresh})
		}
		c.dispatcher.Emit(PipelineEvent{
			Candidates: len(ordered),
			Published:  ok,
			Suppressed: suppressed,
			Duration:   time.Since(begin),
			At:         c.lastRefresh,
		})
		published = ok
	})
	return published, err
}

// Apps returns the published sequence.
func (c *Controller) Apps(ctx context.Context) ([]apps.Application, error) {
	var out []apps.Application
	err := c.do(ctx, func() { out = c.detector.Published() })
	return out, err
}

// Status reports the control loop state.
func (c *Controller) Status(ctx context.Context) (Status, error) {
	var st Status
	err := c.do(ctx, func() {
		c.expireLease()
		st = Status{
			Count:           c.detector.Count(),
			Dragging:        c.session.Dragging(),
			DragSource:      c.session.Source(),
			MenuOpen:        c.menuOpen,
			Suppressed:      c.suppressed,
			ManualOrder:     len(c.overrides) > 0,
			Runs:            c.runs,
			LastRefresh:     c.lastRefresh,
			Uptime:          time.Since(c.started),
			PendingRestarts: c.restarter.Pending(),
		}
	})
	return st, err
}

// Suggest returns published applications matching a low-priority keyword.
func (c *Controller) Suggest(ctx context.Context) ([]apps.Application, error) {
	var out []apps.Application
	err := c.do(ctx, func() {
		out = apps.SuggestHide(c.detector.Published(), c.settings.LowPriorityKeywords)
	})
	return out, err
}

func (c *Controller) lookup(ctx context.Context, identity string) (apps.Application, error) {
	var (
		app   apps.Application
		found bool
	)
	if err := c.do(ctx, func() { app, found = apps.Find(c.detector.Published(), identity) }); err != nil {
		return apps.Application{}, err
	}
	if !found {
		return apps.Application{}, fmt.Errorf("%w: %s", ErrUnknownApp, identity)
	}
	return app, nil
}

// Activate brings a published application forward. It runs on the caller's
// goroutine and reports the outcome back to the control loop.
func (c *Controller) Activate(ctx context.Context, identity string) (activation.Outcome, error) {
	app, err := c.lookup(ctx, identity)
	if err != nil {
		return activation.Failed, err
	}

	outcome := c.activator.Activate(ctx, app)
	ev := ActivationEvent{Identity: app.Identity, Name: app.Name(), Outcome: outcome, At: time.Now()}
	c.post(func() { c.dispatcher.Emit(ev) })
	return outcome, nil
}

// Restart queues restarts of the given identities in order and returns their
// job ids. Unknown identities fail the whole request before anything is
// queued.
func (c *Controller) Restart(ctx context.Context, identities ...string) ([]string, error) {
	targets := make([]apps.Application, 0, len(identities))
	for _, id := range identities {
		app, err := c.lookup(ctx, id)
		if err != nil {
			return nil, err
		}
		targets = append(targets, app)
	}

	ids := make([]string, 0, len(targets))
	for _, app := range targets {
		id, err := c.restarter.Enqueue(app)
		if err != nil {
			return ids, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// RestartAll restarts every published application one after another, then
// nudges the tray host and forces a refresh.
func (c *Controller) RestartAll(ctx context.Context) ([]string, error) {
	list, err := c.Apps(ctx)
	if err != nil {
		return nil, err
	}
	return c.restarter.EnqueueAll(list, func() {
		c.hinter.AttemptHostRefreshHint()
		c.RequestRefresh()
	})
}

// restartFinished runs on the restart worker.
func (c *Controller) restartFinished(res activation.RestartResult) {
	c.post(func() {
		c.dispatcher.Emit(RestartEvent{RestartResult: res})
		c.detector.Force()
	})
	c.RequestRefresh()
}

// Move places source at target's position, as a completed drag would.
// Invalid moves return false and change nothing.
func (c *Controller) Move(ctx context.Context, source, target string) (bool, error) {
	var moved bool
	err := c.do(ctx, func() {
		published := c.detector.Published()
		if source == target || apps.IndexOf(published, source) < 0 || apps.IndexOf(published, target) < 0 {
			return
		}
		c.applyReorder(reorder.Result{
			Source:  source,
			Target:  target,
			Ordered: reorder.Splice(published, source, target),
		})
		moved = true
	})
	return moved, err
}

// DragBegin arms a reorder gesture on source at pointer position (x, y).
func (c *Controller) DragBegin(ctx context.Context, source string, x, y float64) (bool, error) {
	var ok bool
	err := c.do(ctx, func() {
		if apps.IndexOf(c.detector.Published(), source) < 0 {
			return
		}
		ok = c.session.Press(source, reorder.Point{X: x, Y: y})
		if ok {
			c.renewLease()
		}
	})
	return ok, err
}

// DragMotion reports pointer movement and returns whether a drag is active.
func (c *Controller) DragMotion(ctx context.Context, x, y float64) (bool, error) {
	var dragging bool
	err := c.do(ctx, func() {
		if !c.session.Armed() {
			return
		}
		c.renewLease()
		c.session.Motion(reorder.Point{X: x, Y: y})
		dragging = c.session.Dragging()
	})
	return dragging, err
}

// DragDrop releases the gesture over target. It returns false for clicks
// and invalid drops.
func (c *Controller) DragDrop(ctx context.Context, target string) (bool, error) {
	var moved bool
	err := c.do(ctx, func() {
		res, ok := c.session.Drop(target, c.detector.Published())
		if ok {
			c.applyReorder(res)
			moved = true
		}
		c.releaseSuppression()
	})
	return moved, err
}

// DragCancel abandons any gesture in progress.
func (c *Controller) DragCancel(ctx context.Context) error {
	return c.do(ctx, func() {
		c.session.Cancel()
		c.releaseSuppression()
	})
}

// SetMenuOpen records whether the interactive menu is showing. Publication
// is suppressed while it is. Opening is a lease: a client holding the menu
// must send it again within the interaction lease or the menu counts as
// closed.
func (c *Controller) SetMenuOpen(ctx context.Context, open bool) error {
	return c.do(ctx, func() {
		c.menuOpen = open
		if open {
			c.renewLease()
		} else {
			c.session.Cancel()
			c.releaseSuppression()
		}
	})
}

// Reload swaps in new classification and ordering settings and forces the
// next publication. Restart and activation timings keep their startup
// values.
func (c *Controller) Reload(ctx context.Context, settings Settings) error {
	if settings.Rules == nil {
		return fmt.Errorf("reload: rules are required")
	}
	err := c.do(ctx, func() {
		c.settings.Rules = settings.Rules
		c.settings.Priority = settings.Priority
		c.settings.LowPriorityKeywords = settings.LowPriorityKeywords
		c.classifier = apps.NewClassifier(settings.Rules, c.logger)
		if !c.session.Dragging() && settings.DragThreshold != c.settings.DragThreshold {
			c.settings.DragThreshold = settings.DragThreshold
			c.session = reorder.NewSession(settings.DragThreshold)
		}
		c.detector.Force()
	})
	if err == nil {
		c.RequestRefresh()
	}
	return err
}

// applyReorder must run on the control goroutine.
func (c *Controller) applyReorder(res reorder.Result) {
	c.overrides = apps.Identities(res.Ordered)
	countChanged := c.detector.CountChanged(res.Ordered)
	c.detector.Replace(res.Ordered)
	now := time.Now()
	c.dispatcher.Emit(ReorderEvent{Source: res.Source, Target: res.Target, Order: c.overrides, At: now})
	c.dispatcher.Emit(PublishEvent{Apps: c.detector.Published(), Reason: ReasonReorder, CountChanged: countChanged, At: now})
}

// renewLease must run on the control goroutine.
func (c *Controller) renewLease() {
	c.leaseUntil = c.now().Add(c.settings.InteractionLease)
}

// expireLease drops a menu or gesture whose client stopped renewing it. It
// must run on the control goroutine.
func (c *Controller) expireLease() {
	if !c.menuOpen && !c.session.Armed() {
		return
	}
	if !c.now().After(c.leaseUntil) {
		return
	}
	c.logger.Warn("interaction lease expired", "menu_open", c.menuOpen, "drag_source", c.session.Source())
	c.menuOpen = false
	c.session.Cancel()
}

// releaseSuppression must run on the control goroutine. A change held back
// while the user was busy is picked up by a forced refresh.
func (c *Controller) releaseSuppression() {
	if c.suppressed && !c.menuOpen && !c.session.Dragging() {
		c.RequestRefresh()
	}
}
