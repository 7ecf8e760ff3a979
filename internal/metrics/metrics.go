package metrics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/1broseidon/barkeep/internal/daemon"
)

// Metrics holds the daemon's Prometheus collectors and receives daemon
// events as a sink.
type Metrics struct {
	daemon.BaseSink

	PublishedApps    prometheus.Gauge
	Publications     *prometheus.CounterVec
	Activations      *prometheus.CounterVec
	Restarts         *prometheus.CounterVec
	UnconfirmedExits prometheus.Counter
	RestartDuration  prometheus.Histogram
	Reorders         prometheus.Counter
	PipelineRuns     *prometheus.CounterVec
	PipelineDuration prometheus.Histogram
	Candidates       prometheus.Gauge

	registry *prometheus.Registry
}

// New creates collectors registered on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		PublishedApps: factory.NewGauge(prometheus.GaugeOpts{
			Name: "barkeep_published_apps",
			Help: "Number of applications in the last published sequence",
		}),
		Publications: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "barkeep_publications_total",
			Help: "Published sequences by reason",
		}, []string{"reason"}),
		Activations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "barkeep_activations_total",
			Help: "Activation requests by winning strategy and result",
		}, []string{"strategy", "result"}),
		Restarts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "barkeep_restarts_total",
			Help: "Finished restart jobs by result",
		}, []string{"result"}),
		UnconfirmedExits: factory.NewCounter(prometheus.CounterOpts{
			Name: "barkeep_restart_unconfirmed_exits_total",
			Help: "Restart jobs that relaunched without observing the old process exit",
		}),
		RestartDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "barkeep_restart_duration_seconds",
			Help:    "Restart job duration in seconds",
			Buckets: []float64{.1, .25, .5, 1, 2, 3, 5, 10},
		}),
		Reorders: factory.NewCounter(prometheus.CounterOpts{
			Name: "barkeep_reorders_total",
			Help: "Successful drag drops and moves",
		}),
		PipelineRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "barkeep_pipeline_runs_total",
			Help: "Classification passes by outcome",
		}, []string{"outcome"}),
		PipelineDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "barkeep_pipeline_duration_seconds",
			Help:    "Classification pass duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		}),
		Candidates: factory.NewGauge(prometheus.GaugeOpts{
			Name: "barkeep_pipeline_candidates",
			Help: "Applications accepted by the last classification pass",
		}),
	}
}

// Registry returns the registry the collectors live on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Published(e daemon.PublishEvent) {
	m.PublishedApps.Set(float64(len(e.Apps)))
	m.Publications.WithLabelValues(string(e.Reason)).Inc()
}

func (m *Metrics) Activated(e daemon.ActivationEvent) {
	m.Activations.WithLabelValues(e.Outcome.Via.String(), result(e.Outcome.Succeeded)).Inc()
}

func (m *Metrics) Restarted(e daemon.RestartEvent) {
	m.Restarts.WithLabelValues(result(e.Relaunched)).Inc()
	if !e.ExitConfirmed {
		m.UnconfirmedExits.Inc()
	}
	if !e.Finished.IsZero() && !e.Started.IsZero() {
		m.RestartDuration.Observe(e.Finished.Sub(e.Started).Seconds())
	}
}

func (m *Metrics) Reordered(daemon.ReorderEvent) {
	m.Reorders.Inc()
}

// PipelineRan implements daemon.PipelineObserver.
func (m *Metrics) PipelineRan(e daemon.PipelineEvent) {
	outcome := "unchanged"
	switch {
	case e.Published:
		outcome = "published"
	case e.Suppressed:
		outcome = "suppressed"
	}
	m.PipelineRuns.WithLabelValues(outcome).Inc()
	m.PipelineDuration.Observe(e.Duration.Seconds())
	m.Candidates.Set(float64(e.Candidates))
}

func result(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}

// Serve exposes /metrics on listen until ctx is done.
func (m *Metrics) Serve(ctx context.Context, listen string, logger *slog.Logger) error {
	ln, err := net.Listen("tcp", listen)
	if err != nil {
		return fmt.Errorf("failed to listen for metrics on %s: %w", listen, err)
	}
	return m.serve(ctx, ln, logger)
}

func (m *Metrics) serve(ctx context.Context, ln net.Listener, logger *slog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	logger.Info("metrics listening", "addr", ln.Addr().String())
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("metrics server: %w", err)
	}
	return nil
}
