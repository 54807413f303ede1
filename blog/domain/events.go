package domain

import "context"

// ChangeOp identifies the kind of mutation behind a change event.
type ChangeOp string

const (
	ChangeInsert ChangeOp = "insert"
	ChangeUpdate ChangeOp = "update"
	ChangeDelete ChangeOp = "delete"
)

// ChangeEvent notifies subscribers that a post changed. Consumers are
// expected to re-fetch idempotently; delivery is at-most-once and unordered.
type ChangeEvent struct {
	Op     ChangeOp `json:"op"`
	PostID string   `json:"post_id"`
}

// Notifier is the change-notification boundary. Subscribe returns a channel
// of events plus an unsubscribe function; the channel is closed after
// unsubscribe. Publish never blocks on slow subscribers.
type Notifier interface {
	Publish(ctx context.Context, ev ChangeEvent) error
	Subscribe(ctx context.Context) (<-chan ChangeEvent, func(), error)
}
