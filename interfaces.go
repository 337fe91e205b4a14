package assetdb

import (
	"context"

	"github.com/mwantia/assetdb/data"
)

// Logger is the logging surface the database writes to. *log.Logger satisfies it.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Watcher is toggled around mutating tasks so the database does not react to its own writes.
type Watcher interface {
	Enable()
	Disable()
}

// Indexer receives a full snapshot of the identity map after every mutating task.
type Indexer interface {
	Sync(ctx context.Context, entries []data.IndexEntry) error
	Close() error
}
