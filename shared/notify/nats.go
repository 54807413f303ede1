package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/inkpress/inkpress/blog/domain"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

var _ domain.Notifier = (*NATSNotifier)(nil)

// changeSubject carries post change events between instances.
const changeSubject = "posts.changes"

// NATSNotifier relays change events over NATS so every instance sees
// mutations made through any other. Delivery retains the Notifier
// contract: at-most-once, unordered.
type NATSNotifier struct {
	nc *nats.Conn
}

func NewNATSNotifier(nc *nats.Conn) *NATSNotifier {
	return &NATSNotifier{nc: nc}
}

func (n *NATSNotifier) Publish(ctx context.Context, ev domain.ChangeEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal change event: %w", err)
	}

	if err := n.nc.Publish(changeSubject, data); err != nil {
		return fmt.Errorf("failed to publish change event: %w", err)
	}
	return nil
}

func (n *NATSNotifier) Subscribe(ctx context.Context) (<-chan domain.ChangeEvent, func(), error) {
	ch := make(chan domain.ChangeEvent, subscriberBuffer)

	// The callback and unsubscribe race on the channel; the mutex keeps a
	// late delivery from hitting a closed channel.
	var mu sync.Mutex
	closed := false

	sub, err := n.nc.Subscribe(changeSubject, func(msg *nats.Msg) {
		var ev domain.ChangeEvent
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			log.Warn().Err(err).Msg("Dropping malformed change event")
			return
		}

		mu.Lock()
		defer mu.Unlock()
		if closed {
			return
		}

		select {
		case ch <- ev:
		default:
			// Slow consumer; drop rather than block the NATS callback.
		}
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to subscribe to %s: %w", changeSubject, err)
	}

	unsubscribe := func() {
		mu.Lock()
		defer mu.Unlock()
		if closed {
			return
		}
		closed = true

		if err := sub.Unsubscribe(); err != nil {
			log.Warn().Err(err).Msg("Failed to unsubscribe from change events")
		}
		close(ch)
	}

	return ch, unsubscribe, nil
}
