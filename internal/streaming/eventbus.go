package streaming

import (
	"context"
	"sync"

	"threatscope-lab/pkg/logger"
)

// recentLimit bounds the set of event ids remembered for relay dedup
const recentLimit = 1024

// EventSink receives events for local delivery. Satisfied by the
// WebSocket hub.
type EventSink interface {
	BroadcastEvent(event *AnalysisEvent)
}

// EventBus distributes analysis events. A locally produced event goes to
// the attached sink immediately and to NATS when connected; Run relays
// events published by other instances back into the sink, so dashboards
// on any instance see the whole cluster. A missing or disconnected NATS
// degrades to local delivery only.
type EventBus struct {
	nats   *NATSPublisher
	sink   EventSink
	logger *logger.Logger

	mu     sync.Mutex
	recent map[string]struct{}
	order  []string
}

// NewEventBus creates a new event bus. nats may be nil.
func NewEventBus(nats *NATSPublisher, log *logger.Logger) *EventBus {
	return &EventBus{
		nats:   nats,
		logger: log.WithComponent("event-bus"),
		recent: make(map[string]struct{}, recentLimit),
	}
}

// AttachHub routes delivered events to a local sink. Must be called
// before Publish or Run.
func (eb *EventBus) AttachHub(sink EventSink) {
	eb.sink = sink
}

// Publish delivers an event locally and, when connected, to NATS
func (eb *EventBus) Publish(ctx context.Context, event *AnalysisEvent) error {
	eb.remember(event.ID)

	if eb.sink != nil {
		eb.sink.BroadcastEvent(event)
	}

	if eb.nats != nil && eb.nats.IsConnected() {
		if err := eb.nats.Publish(ctx, event); err != nil {
			eb.logger.Warn().Err(err).Msg("failed to publish to NATS, delivered locally only")
		}
	}

	return nil
}

// Run consumes the NATS stream and relays events from other instances to
// the local sink. Events this instance published itself are recognized by
// id and dropped, since Publish already delivered them. Returns when the
// context is cancelled or when NATS is unavailable.
func (eb *EventBus) Run(ctx context.Context) {
	if eb.nats == nil || !eb.nats.IsConnected() {
		eb.logger.Debug().Msg("no NATS connection, cross-instance relay disabled")
		return
	}

	ch, err := eb.nats.Subscribe(ctx, nil)
	if err != nil {
		eb.logger.Warn().Err(err).Msg("failed to subscribe to NATS, cross-instance relay disabled")
		return
	}

	eb.logger.Info().Msg("cross-instance event relay started")
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			eb.relayRemote(event)
		}
	}
}

// relayRemote forwards a NATS-delivered event to the sink unless this
// instance produced it.
func (eb *EventBus) relayRemote(event *AnalysisEvent) {
	if eb.seen(event.ID) {
		return
	}
	eb.remember(event.ID)
	if eb.sink != nil {
		eb.sink.BroadcastEvent(event)
	}
}

// Close closes the underlying NATS connection
func (eb *EventBus) Close() {
	if eb.nats != nil {
		eb.nats.Close()
	}
}

// remember records an event id, evicting the oldest past the limit
func (eb *EventBus) remember(id string) {
	if id == "" {
		return
	}
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if _, ok := eb.recent[id]; ok {
		return
	}
	eb.recent[id] = struct{}{}
	eb.order = append(eb.order, id)
	if len(eb.order) > recentLimit {
		delete(eb.recent, eb.order[0])
		eb.order = eb.order[1:]
	}
}

func (eb *EventBus) seen(id string) bool {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	_, ok := eb.recent[id]
	return ok
}
