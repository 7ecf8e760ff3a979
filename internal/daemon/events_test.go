package daemon

import (
	"context"
	"testing"
)

type countingSink struct {
	BaseSink
	published int
	reordered int
	pipelines int
}

func (s *countingSink) Published(PublishEvent)    { s.published++ }
func (s *countingSink) Reordered(ReorderEvent)    { s.reordered++ }
func (s *countingSink) PipelineRan(PipelineEvent) { s.pipelines++ }

func TestDispatcher_KeepsPublishesWhenBehind(t *testing.T) {
	sink := &countingSink{}
	d := NewDispatcher(nil, sink)

	const backlog = eventBuffer * 2
	for i := 0; i < backlog; i++ {
		if !d.Emit(PublishEvent{}) {
			t.Fatalf("publish %d dropped", i)
		}
	}
	if !d.Emit(ReorderEvent{}) {
		t.Fatal("reorder dropped")
	}
	if d.Emit(PipelineEvent{}) {
		t.Error("pipeline event queued past the buffer")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d.Run(ctx)

	if sink.published != backlog || sink.reordered != 1 || sink.pipelines != 0 {
		t.Errorf("delivered publish=%d reorder=%d pipeline=%d", sink.published, sink.reordered, sink.pipelines)
	}
}

func TestDispatcher_DeliversInOrder(t *testing.T) {
	var got []string
	sink := &orderSink{seen: &got}
	d := NewDispatcher(nil, sink)
	d.Emit(PublishEvent{Reason: ReasonRefresh})
	d.Emit(ReorderEvent{Source: "a"})
	d.Emit(PublishEvent{Reason: ReasonReorder})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d.Run(ctx)

	want := []string{"refresh", "reorder a", "reorder"}
	if len(got) != len(want) {
		t.Fatalf("delivered %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("delivered %v, want %v", got, want)
		}
	}
}

type orderSink struct {
	BaseSink
	seen *[]string
}

func (s *orderSink) Published(e PublishEvent) { *s.seen = append(*s.seen, string(e.Reason)) }
func (s *orderSink) Reordered(e ReorderEvent) { *s.seen = append(*s.seen, "reorder "+e.Source) }
