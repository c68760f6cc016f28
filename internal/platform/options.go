package platform

import (
	"log/slog"

	"github.com/jonboulle/clockwork"

	"github.com/aretw0/noats/pkg/config"
	"github.com/aretw0/noats/pkg/core"
	"github.com/aretw0/noats/pkg/hotkey"
	"github.com/aretw0/noats/pkg/theme"
	"github.com/aretw0/noats/pkg/widget"
)

// options holds the internal configuration of a Noats session.
type options struct {
	store    core.Store
	logger   *slog.Logger
	cfg      *config.Config
	catalog  *theme.Catalog
	bridge   hotkey.Bridge
	clock    clockwork.Clock
	measurer widget.Measurer
	screens  widget.ScreenLocator
	flags    map[string]any
}

// Option defines a functional option for configuring Noats.
type Option func(*options)

func defaultOptions() *options {
	return &options{
		flags: make(map[string]any),
	}
}

func parseOptions(opts []Option) *options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.DiscardHandler)
	}
	if o.cfg == nil {
		o.cfg = config.Default()
	}
	if o.clock == nil {
		o.clock = clockwork.NewRealClock()
	}
	return o
}

// WithLogger sets the logger for every component.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithConfig supplies settings loaded from a configuration file.
func WithConfig(cfg *config.Config) Option {
	return func(o *options) {
		o.cfg = cfg
	}
}

// WithStore injects a custom state store (e.g. an in-memory fake).
// If provided, the filesystem store is skipped.
func WithStore(store core.Store) Option {
	return func(o *options) {
		o.store = store
	}
}

// WithCatalog replaces the theme catalog built from the configuration.
func WithCatalog(c *theme.Catalog) Option {
	return func(o *options) {
		o.catalog = c
	}
}

// WithBridge connects a hotkey source to the session loop.
func WithBridge(b hotkey.Bridge) Option {
	return func(o *options) {
		o.bridge = b
	}
}

// WithClock sets the clock behind debounces and timestamps.
func WithClock(c clockwork.Clock) Option {
	return func(o *options) {
		o.clock = c
	}
}

// WithMeasurer plugs in the toolkit's text measurement.
func WithMeasurer(m widget.Measurer) Option {
	return func(o *options) {
		o.measurer = m
	}
}

// WithScreens plugs in the toolkit's screen geometry. It takes precedence
// over screens listed in the configuration.
func WithScreens(s widget.ScreenLocator) Option {
	return func(o *options) {
		o.screens = s
	}
}

// WithForceTemp forces the data directory into a temporary location.
func WithForceTemp(force bool) Option {
	return func(o *options) {
		o.flags["temp_dir"] = force
	}
}

// WithDevSafety controls the sandbox used under `go run` and `go test`.
// By default (true) the data directory is re-rooted under the system temp
// directory so development runs never touch real notes.
//
// CAUTION: Only disable this if you are sure your code is safe.
func WithDevSafety(enabled bool) Option {
	return func(o *options) {
		o.flags["dev_safety"] = enabled
	}
}

// WithWatch enables reloading when the state file is edited by hand.
// It overrides watch_external from the configuration.
func WithWatch(enabled bool) Option {
	return func(o *options) {
		o.flags["watch"] = enabled
	}
}

// WithEventBuffer sets the size of the session event buffer.
// Zero means default (64).
func WithEventBuffer(size int) Option {
	return func(o *options) {
		o.flags["event_buffer"] = size
	}
}

// WithWatcherErrorHandler registers a callback for runtime watcher failures
// (e.g. permission denied), which are otherwise only logged.
func WithWatcherErrorHandler(fn func(error)) Option {
	return func(o *options) {
		o.flags["watcher_error_handler"] = fn
	}
}
