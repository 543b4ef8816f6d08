// Package live provides the snapshot publisher that hands immutable
// simulation state to concurrent consumers (HTTP API, WebSocket hub,
// journal, price archiver) without exposing live engine state.
package live

import (
	"sync"

	"papersim/internal/domain"
)

// Event is emitted to subscribers after every completed tick. NewPoints,
// NewExecutions, and NewSignals cover only the tick that produced the event;
// Snapshot is the full cumulative view.
type Event struct {
	Snapshot      domain.Snapshot
	NewPoints     []domain.PricePoint
	NewExecutions []domain.Execution
	NewSignals    []domain.SignalEvent
}

// Publisher retains the latest published snapshot and fans events out to
// subscribers. Publishing never blocks: slow subscribers drop events and can
// recover from the latest snapshot.
type Publisher struct {
	mu     sync.RWMutex
	latest domain.Snapshot
	ready  bool

	subsMu    sync.Mutex
	nextSubID int
	subs      map[int]chan Event
}

// NewPublisher creates an empty Publisher.
func NewPublisher() *Publisher {
	return &Publisher{
		subs: make(map[int]chan Event),
	}
}

// Publish stores the event's snapshot as the latest state and notifies all
// subscribers with a non-blocking send.
func (p *Publisher) Publish(evt Event) {
	p.mu.Lock()
	p.latest = evt.Snapshot
	p.ready = true
	p.mu.Unlock()

	p.subsMu.Lock()
	for _, ch := range p.subs {
		select {
		case ch <- evt:
		default:
			// Slow subscriber, drop event.
		}
	}
	p.subsMu.Unlock()
}

// Latest returns a deep copy of the most recently published snapshot. The
// second return value is false until the first publish.
func (p *Publisher) Latest() (domain.Snapshot, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if !p.ready {
		return domain.Snapshot{}, false
	}
	return p.latest.Clone(), true
}

// Subscribe registers a new subscriber with the given channel buffer and
// returns its ID and receive channel.
func (p *Publisher) Subscribe(buf int) (int, <-chan Event) {
	p.subsMu.Lock()
	defer p.subsMu.Unlock()

	id := p.nextSubID
	p.nextSubID++
	ch := make(chan Event, buf)
	p.subs[id] = ch
	return id, ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (p *Publisher) Unsubscribe(id int) {
	p.subsMu.Lock()
	defer p.subsMu.Unlock()

	if ch, ok := p.subs[id]; ok {
		delete(p.subs, id)
		close(ch)
	}
}
