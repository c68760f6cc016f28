package noats

import (
	"context"
	"log/slog"

	"github.com/jonboulle/clockwork"

	"github.com/aretw0/noats/internal/platform"
	"github.com/aretw0/noats/pkg/config"
	"github.com/aretw0/noats/pkg/core"
	"github.com/aretw0/noats/pkg/hotkey"
	"github.com/aretw0/noats/pkg/theme"
	"github.com/aretw0/noats/pkg/widget"
)

// --- Types ---

// App is a fully wired session.
type App = platform.App

// Option defines a functional option for configuring Noats.
type Option = platform.Option

// --- Configuration ---

// WithLogger sets the logger for every component.
func WithLogger(logger *slog.Logger) Option {
	return platform.WithLogger(logger)
}

// WithConfig supplies settings loaded with config.Load.
func WithConfig(cfg *config.Config) Option {
	return platform.WithConfig(cfg)
}

// WithStore injects a custom state store.
func WithStore(store core.Store) Option {
	return platform.WithStore(store)
}

// WithCatalog replaces the theme catalog.
func WithCatalog(c *theme.Catalog) Option {
	return platform.WithCatalog(c)
}

// WithBridge connects a hotkey source.
func WithBridge(b hotkey.Bridge) Option {
	return platform.WithBridge(b)
}

// WithClock sets the clock behind debounces and timestamps.
func WithClock(c clockwork.Clock) Option {
	return platform.WithClock(c)
}

// WithMeasurer plugs in the toolkit's text measurement.
func WithMeasurer(m widget.Measurer) Option {
	return platform.WithMeasurer(m)
}

// WithScreens plugs in the toolkit's screen geometry.
func WithScreens(s widget.ScreenLocator) Option {
	return platform.WithScreens(s)
}

// WithForceTemp forces the data directory into a temporary location.
func WithForceTemp(force bool) Option {
	return platform.WithForceTemp(force)
}

// WithDevSafety controls the sandbox used under `go run` and `go test`.
func WithDevSafety(enabled bool) Option {
	return platform.WithDevSafety(enabled)
}

// WithWatch enables reloading when the state file is edited by hand.
func WithWatch(enabled bool) Option {
	return platform.WithWatch(enabled)
}

// WithEventBuffer sets the size of the session event buffer.
func WithEventBuffer(size int) Option {
	return platform.WithEventBuffer(size)
}

// WithWatcherErrorHandler registers a callback for runtime watcher failures.
func WithWatcherErrorHandler(fn func(error)) Option {
	return platform.WithWatcherErrorHandler(fn)
}

// --- Factory ---

// New wires a session on dataDir. An empty dataDir uses the configured one.
func New(ctx context.Context, dataDir string, opts ...Option) (*App, error) {
	return platform.New(ctx, dataDir, opts...)
}

// --- Operations ---

// Snapshot reads the saved state without starting a session.
func Snapshot(ctx context.Context, dataDir string, opts ...Option) (core.AppState, error) {
	return platform.Snapshot(ctx, dataDir, opts...)
}

// Reset deletes the saved state and its backup.
func Reset(ctx context.Context, dataDir string, opts ...Option) error {
	return platform.Reset(ctx, dataDir, opts...)
}

// --- Safety & Utils ---

// ResolveDataDir determines the actual data directory based on safety rules.
func ResolveDataDir(userPath string, forceTemp bool) string {
	return platform.ResolveDataDir(userPath, forceTemp)
}

// IsDevRun checks if the current process is running via `go run` or `go test`.
func IsDevRun() bool {
	return platform.IsDevRun()
}
