package core

import "context"

// Store defines the contract for persisting the application state.
// Adhering to this interface keeps the session independent of the
// underlying storage mechanism.
type Store interface {
	// Save writes the full state. Failures are returned as *StorageError.
	Save(ctx context.Context, state AppState) error

	// Load returns the last committed state. It never fails: missing or
	// corrupt data degrades to an older copy or to an empty state.
	Load(ctx context.Context) AppState

	// HasSavedState reports whether any committed state exists.
	HasSavedState() bool

	// DeleteState removes every committed copy of the state.
	DeleteState() error

	// Initialize ensures the underlying storage is ready (e.g. create directories).
	Initialize(ctx context.Context) error
}

// Watchable defines an interface for stores that report external changes.
type Watchable interface {
	// Watch emits an EventExternal whenever the committed state changes
	// behind the store's back. The channel closes when ctx is done.
	Watch(ctx context.Context) (<-chan Event, error)
}
