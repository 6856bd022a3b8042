package core

import (
	"context"

	"pkt.systems/pslog"
	"pkt.systems/sayam/schema"
)

// Sender delivers outbound messages to the agent backend. Implementations
// are best-effort: a send while the link is down is dropped, not queued.
type Sender interface {
	Send(ctx context.Context, msg schema.ClientMessage) error
}

// BrowserControl is the slice of the embedded browser the session drives.
type BrowserControl interface {
	Navigate(ctx context.Context, rawURL string) error
	SetBlocking(ctx context.Context, enabled bool) error
	ActivePageText(ctx context.Context) (string, error)
}

// SnapshotSaver persists study session artifacts. Passing the id of a
// previously saved snapshot overwrites it in place.
type SnapshotSaver interface {
	Save(subject string, cards []schema.Flashcard, resources []schema.Resource, id schema.SnapshotID) (schema.SnapshotID, error)
}

// ServiceDeps captures optional dependencies for the core service.
type ServiceDeps struct {
	Sender    Sender
	Browser   BrowserControl
	Snapshots SnapshotSaver
	EventSink EventSink
	Logger    pslog.Logger
}
