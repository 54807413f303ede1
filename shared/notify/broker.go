package notify

import (
	"context"
	"sync"

	"github.com/inkpress/inkpress/blog/domain"
)

var _ domain.Notifier = (*Broker)(nil)

// subscriberBuffer bounds each subscriber channel. A subscriber that falls
// this far behind starts losing events; delivery is at-most-once.
const subscriberBuffer = 16

// Broker is an in-process change-notification fan-out. It is the default
// notifier for single-instance deployments; multi-instance setups use the
// NATS-backed notifier instead.
type Broker struct {
	mu     sync.Mutex
	subs   map[int]chan domain.ChangeEvent
	nextID int
	closed bool
}

func NewBroker() *Broker {
	return &Broker{
		subs: make(map[int]chan domain.ChangeEvent),
	}
}

// Publish fans the event out to every subscriber without blocking. Events
// to a full subscriber channel are dropped.
func (b *Broker) Publish(ctx context.Context, ev domain.ChangeEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}

	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	return nil
}

// Subscribe registers a new subscriber. The returned function unsubscribes
// and closes the channel; it is safe to call more than once.
func (b *Broker) Subscribe(ctx context.Context) (<-chan domain.ChangeEvent, func(), error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++

	ch := make(chan domain.ChangeEvent, subscriberBuffer)
	if b.closed {
		close(ch)
		return ch, func() {}, nil
	}
	b.subs[id] = ch

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if _, ok := b.subs[id]; ok {
				delete(b.subs, id)
				close(ch)
			}
		})
	}

	return ch, unsubscribe, nil
}

// Close tears down all subscribers.
func (b *Broker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true

	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}
