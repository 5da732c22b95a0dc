package ports

import (
	"context"
	"time"

	"siostam-backend/domain/graph"
)

// SourceProvider produces the descriptor files the graph is built
// from. This is a port in hexagonal architecture - the update flow
// doesn't know whether a target is a local folder or a git remote.
type SourceProvider interface {
	// Load synchronizes every configured target and returns their
	// parsed descriptor files in a stable order. One unreadable or
	// unparseable file fails the whole load; the caller keeps serving
	// its previous graph.
	Load(ctx context.Context) ([]graph.SourceFile, error)
}

// ConfigSource exposes the live configuration the update scheduler
// consults on every pass. Implementations may swap the configuration
// behind it at any time.
type ConfigSource interface {
	// Generation identifies the currently applied configuration. It
	// increases every time a new configuration takes effect.
	Generation() uint64

	// RebuildInterval is how long a published snapshot stays fresh
	// before the scheduler rebuilds it.
	RebuildInterval() time.Duration
}

// Notifier announces a newly published snapshot version to whoever
// listens. Implementations dedup: announcing the same version twice
// must reach subscribers at most once.
type Notifier interface {
	NotifyVersion(version uint64)
}
