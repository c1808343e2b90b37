package streaming

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"threatscope-lab/pkg/logger"
)

// recordingSink captures delivered events in order
type recordingSink struct {
	mu     sync.Mutex
	events []*AnalysisEvent
}

func (s *recordingSink) BroadcastEvent(event *AnalysisEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
}

func (s *recordingSink) ids() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.events))
	for i, e := range s.events {
		out[i] = e.ID
	}
	return out
}

func newTestBus() (*EventBus, *recordingSink) {
	eb := NewEventBus(nil, logger.New(logger.Config{Level: "error", Format: "json"}))
	sink := &recordingSink{}
	eb.AttachHub(sink)
	return eb, sink
}

func event(id string) *AnalysisEvent {
	return &AnalysisEvent{ID: id, Type: EventTypeThreatDetected, AnalysisID: "a-1", ThreatModelID: "tm-1"}
}

func TestEventBus_PublishDeliversToSink(t *testing.T) {
	eb, sink := newTestBus()

	if err := eb.Publish(context.Background(), event("e-1")); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if err := eb.Publish(context.Background(), event("e-2")); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	got := sink.ids()
	if len(got) != 2 || got[0] != "e-1" || got[1] != "e-2" {
		t.Errorf("delivered ids = %v, want [e-1 e-2]", got)
	}
}

func TestEventBus_RelayDropsOwnEvents(t *testing.T) {
	eb, sink := newTestBus()

	own := event("e-own")
	if err := eb.Publish(context.Background(), own); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	// the stream echoes this instance's event back
	eb.relayRemote(own)

	if got := sink.ids(); len(got) != 1 {
		t.Errorf("own event relayed twice: %v", got)
	}
}

func TestEventBus_RelayForwardsRemoteEventsOnce(t *testing.T) {
	eb, sink := newTestBus()

	remote := event("e-remote")
	eb.relayRemote(remote)
	eb.relayRemote(remote)

	if got := sink.ids(); len(got) != 1 || got[0] != "e-remote" {
		t.Errorf("delivered ids = %v, want [e-remote]", got)
	}
}

func TestEventBus_RememberEvictsOldest(t *testing.T) {
	eb, sink := newTestBus()

	first := event("e-0")
	if err := eb.Publish(context.Background(), first); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	for i := 1; i <= recentLimit; i++ {
		eb.remember(fmt.Sprintf("e-%d", i))
	}

	// the oldest id has been evicted, so a late echo is treated as remote
	eb.relayRemote(first)

	got := sink.ids()
	if len(got) != 2 {
		t.Errorf("delivered %d events, want 2 (evicted id no longer deduped)", len(got))
	}
}

func TestEventBus_PublishWithoutSink(t *testing.T) {
	eb := NewEventBus(nil, logger.New(logger.Config{Level: "error", Format: "json"}))

	if err := eb.Publish(context.Background(), event("e-1")); err != nil {
		t.Errorf("Publish without sink: %v", err)
	}
}
