package platform

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aretw0/lifecycle"

	lcadapter "github.com/aretw0/noats/pkg/adapters/lifecycle"
	"github.com/aretw0/noats/pkg/config"
	"github.com/aretw0/noats/pkg/core"
	"github.com/aretw0/noats/pkg/session"
	"github.com/aretw0/noats/pkg/theme"
	"github.com/aretw0/noats/pkg/widget"
)

// App is a fully wired Noats session.
type App struct {
	Controller *session.Controller
	Loop       *session.Loop
	Store      core.Store
	Catalog    *theme.Catalog
	Config     *config.Config
	DataDir    string

	logger *slog.Logger
	watch  bool
	opts   *options
}

// app, err := platform.New(ctx, "", platform.WithConfig(cfg))
// An empty dataDir uses the configured one.
func New(ctx context.Context, dataDir string, opts ...Option) (*App, error) {
	o := parseOptions(opts)

	store, resolved, err := initStore(ctx, dataDir, o)
	if err != nil {
		return nil, err
	}

	catalog, err := buildCatalog(o)
	if err != nil {
		return nil, err
	}

	screens := o.screens
	if screens == nil {
		screens = o.cfg.WorkingAreas()
	}
	eventBuffer, _ := o.flags["event_buffer"].(int)

	ctrl := session.NewController(ctx, session.Config{
		Store:   store,
		Catalog: catalog,
		Env: widget.Env{
			Clock:    o.clock,
			Measurer: o.measurer,
			Screens:  screens,
			Layout:   o.cfg.Layout(),
		},
		Logger:          o.logger,
		SaveDebounce:    o.cfg.SaveDebounce.Duration,
		DuplicateOffset: o.cfg.DuplicateOffset,
		EventBuffer:     eventBuffer,
	})

	watch := o.cfg.WatchExternal
	if v, ok := o.flags["watch"].(bool); ok {
		watch = v
	}

	return &App{
		Controller: ctrl,
		Store:      store,
		Catalog:    catalog,
		Config:     o.cfg,
		DataDir:    resolved,
		logger:     o.logger,
		watch:      watch,
		opts:       o,
	}, nil
}

// Events exposes session events as a lifecycle.Source.
func (a *App) Events() lifecycle.Source {
	return lcadapter.NewSource(a.Controller.Events())
}

// Run restores the saved notes and drives the session until ctx is done.
// Pending saves are flushed before it returns.
func (a *App) Run(ctx context.Context) error {
	loopOpts := []session.LoopOption{}
	if a.opts.bridge != nil {
		loopOpts = append(loopOpts, session.WithBridge(a.opts.bridge))
	}

	if a.watch {
		watchable, ok := a.Store.(core.Watchable)
		if !ok {
			return fmt.Errorf("store %T cannot watch for external changes", a.Store)
		}
		external, err := watchable.Watch(ctx)
		if err != nil {
			return fmt.Errorf("failed to start watcher: %w", err)
		}
		loopOpts = append(loopOpts, session.WithExternalChanges(external))
	}

	a.Loop = session.NewLoop(a.Controller, loopOpts...)

	n := a.Controller.ReloadFromDisk(ctx)
	a.logger.Info("session started", "dir", a.DataDir, "widgets", n, "watch", a.watch)

	return a.Loop.Run(ctx)
}

// Close flushes pending work when the app is torn down without Run.
func (a *App) Close(ctx context.Context) error {
	return a.Controller.Shutdown(ctx)
}

func buildCatalog(o *options) (*theme.Catalog, error) {
	if o.catalog != nil {
		return o.catalog, nil
	}
	extra, err := theme.LoadTOMLFile(o.cfg.ResolvedThemesFile())
	if err != nil {
		return nil, fmt.Errorf("themes: %w", err)
	}
	if len(extra) > 0 {
		o.logger.Debug("loaded extra themes", "count", len(extra))
	}
	return theme.NewCatalog(theme.WithThemes(extra...))
}
