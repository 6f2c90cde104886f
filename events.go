package core

import (
	"sync"

	"github.com/filemesh/node/peer"
)

// Event reports a peer registry change as it happens. It is the only
// thing adminapi's /events stream carries — a purely observational
// surface, never a control one.
type Event struct {
	Kind string // "connect" or "disconnect"
	Peer peer.Address
}

// historyLimit bounds how many recent events are replayed to a newly
// connecting admin client, so a long-lived node's history doesn't grow
// unbounded.
const historyLimit = 256

// eventBus fans registry changes out to however many admin-surface
// subscribers are currently listening, and keeps a short rolling
// history of Events so a client connecting to /events after the fact
// still sees what it missed. Grounded on Filter.go's multiWriter
// fan-out shape for the live side, generalized from io.Writer
// destinations to typed Event channels; the history is a fixed-size
// ring over Event values directly, not a byte-oriented key/value cache
// — there is no encoding step between a publish and a replay.
type eventBus struct {
	mu      sync.Mutex
	subs    map[chan Event]struct{}
	history []Event
	next    int // next write position once history is full
}

func newEventBus() *eventBus {
	return &eventBus{subs: make(map[chan Event]struct{})}
}

func (b *eventBus) publish(e Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.history) < historyLimit {
		b.history = append(b.history, e)
	} else {
		b.history[b.next] = e
		b.next = (b.next + 1) % historyLimit
	}

	for ch := range b.subs {
		select {
		case ch <- e:
		default:
			// slow subscriber; drop rather than block peer handling
		}
	}
}

// recent returns the events still held in the rolling history, oldest
// first.
func (b *eventBus) recent() []Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.history) < historyLimit {
		out := make([]Event, len(b.history))
		copy(out, b.history)
		return out
	}

	out := make([]Event, historyLimit)
	copy(out, b.history[b.next:])
	copy(out[historyLimit-b.next:], b.history[:b.next])
	return out
}

func (b *eventBus) subscribe() (chan Event, func()) {
	ch := make(chan Event, 16)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()
	return ch, func() {
		b.mu.Lock()
		delete(b.subs, ch)
		b.mu.Unlock()
		close(ch)
	}
}

// Subscribe returns a channel of future peer connect/disconnect events
// and an unsubscribe function the caller must invoke when done
// listening. Used by adminapi's /events websocket route.
func (n *Node) Subscribe() (<-chan Event, func()) {
	ch, unsubscribe := n.events.subscribe()
	return ch, unsubscribe
}

// RecentEvents returns the events still held in the rolling history,
// oldest first. Used by adminapi's /events route to replay recent
// activity to a client that connects after the fact.
func (n *Node) RecentEvents() []Event {
	return n.events.recent()
}
