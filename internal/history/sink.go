package history

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/1broseidon/barkeep/internal/daemon"
)

// Sink journals activation, restart and reorder events.
type Sink struct {
	daemon.BaseSink
	store  *Store
	logger *slog.Logger
}

// NewSink creates a sink writing to store.
func NewSink(store *Store, logger *slog.Logger) *Sink {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Sink{store: store, logger: logger}
}

func (s *Sink) Activated(e daemon.ActivationEvent) {
	s.record(&Entry{
		Timestamp: e.At,
		Kind:      KindActivation,
		Identity:  e.Identity,
		Name:      e.Name,
		Succeeded: e.Outcome.Succeeded,
		Strategy:  e.Outcome.Via.String(),
	})
}

func (s *Sink) Restarted(e daemon.RestartEvent) {
	s.record(&Entry{
		Timestamp:     e.Finished,
		Kind:          KindRestart,
		Identity:      e.Identity,
		Name:          e.Name,
		Succeeded:     e.Relaunched,
		Strategy:      e.Via.String(),
		JobID:         e.JobID,
		ExitConfirmed: e.ExitConfirmed,
		Detail:        fmt.Sprintf("took %s", e.Finished.Sub(e.Started).Round(time.Millisecond)),
	})
}

func (s *Sink) Reordered(e daemon.ReorderEvent) {
	s.record(&Entry{
		Timestamp: e.At,
		Kind:      KindReorder,
		Identity:  e.Source,
		Succeeded: true,
		Detail:    fmt.Sprintf("onto %s: %s", e.Target, strings.Join(e.Order, ", ")),
	})
}

func (s *Sink) record(entry *Entry) {
	if err := s.store.Record(entry); err != nil {
		s.logger.Warn("history write failed", "kind", string(entry.Kind), "identity", entry.Identity, "error", err)
	}
}
