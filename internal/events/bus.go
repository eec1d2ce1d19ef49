package events

import (
	"sync"
	"time"
)

// Kind identifies a state-change event published by the core.
type Kind string

const (
	NotificationCreated Kind = "notification.created"
	NotificationRead    Kind = "notification.read"
	EndpointEvicted     Kind = "endpoint.evicted"
)

// Event is one state change. Real-time propagation to UI observers is
// layered on top of this bus by the transport outside the core.
type Event struct {
	Kind           Kind      `json:"kind"`
	UserID         string    `json:"user_id,omitempty"`
	NotificationID string    `json:"notification_id,omitempty"`
	EndpointID     string    `json:"endpoint_id,omitempty"`
	At             time.Time `json:"at"`
}

type subscriber struct {
	kinds map[Kind]bool // nil means all kinds
	ch    chan Event
}

// Bus is an in-process observer registry. Publish never blocks: when a
// subscriber's buffer is full its oldest pending event is dropped.
type Bus struct {
	mu     sync.Mutex
	subs   map[int]*subscriber
	nextID int
	closed bool
}

func NewBus() *Bus {
	return &Bus{subs: make(map[int]*subscriber)}
}

// Subscribe returns a channel receiving events of the given kinds (all kinds
// when none are given) and a function that cancels the subscription.
func (b *Bus) Subscribe(buffer int, kinds ...Kind) (<-chan Event, func()) {
	if buffer < 1 {
		buffer = 1
	}
	sub := &subscriber{ch: make(chan Event, buffer)}
	if len(kinds) > 0 {
		sub.kinds = make(map[Kind]bool, len(kinds))
		for _, k := range kinds {
			sub.kinds[k] = true
		}
	}

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	if !b.closed {
		b.subs[id] = sub
	} else {
		close(sub.ch)
	}
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		if s, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(s.ch)
		}
		b.mu.Unlock()
	}
	return sub.ch, cancel
}

// Publish delivers ev to every matching subscriber without blocking.
func (b *Bus) Publish(ev Event) {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, sub := range b.subs {
		if sub.kinds != nil && !sub.kinds[ev.Kind] {
			continue
		}
		select {
		case sub.ch <- ev:
		default:
			// Full buffer: drop the oldest pending event for this
			// subscriber, then retry once.
			select {
			case <-sub.ch:
			default:
			}
			select {
			case sub.ch <- ev:
			default:
			}
		}
	}
}

// Close cancels all subscriptions. Publish after Close is a no-op.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, sub := range b.subs {
		delete(b.subs, id)
		close(sub.ch)
	}
}
