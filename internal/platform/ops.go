package platform

import (
	"context"
	"fmt"

	"github.com/aretw0/noats/pkg/adapters/fs"
	"github.com/aretw0/noats/pkg/core"
)

// Open returns the initialized state store for dataDir without starting a
// session. An empty dataDir uses the configured one.
func Open(ctx context.Context, dataDir string, opts ...Option) (core.Store, string, error) {
	return initStore(ctx, dataDir, parseOptions(opts))
}

// Snapshot reads the saved state the way a session start would.
func Snapshot(ctx context.Context, dataDir string, opts ...Option) (core.AppState, error) {
	store, _, err := Open(ctx, dataDir, opts...)
	if err != nil {
		return core.AppState{}, err
	}
	return store.Load(ctx), nil
}

// Reset deletes the saved state and its backup.
func Reset(ctx context.Context, dataDir string, opts ...Option) error {
	store, _, err := Open(ctx, dataDir, opts...)
	if err != nil {
		return err
	}
	return store.DeleteState()
}

// initStore resolves the data directory and prepares the store.
func initStore(ctx context.Context, dataDir string, o *options) (core.Store, string, error) {
	if o.store != nil {
		if err := o.store.Initialize(ctx); err != nil {
			return nil, "", err
		}
		return o.store, dataDir, nil
	}

	if dataDir == "" {
		dataDir = o.cfg.DataDir
	}

	tempDir, _ := o.flags["temp_dir"].(bool)
	// Default to safe when not set.
	devSafety := true
	if val, ok := o.flags["dev_safety"].(bool); ok {
		devSafety = val
	}

	useTemp := tempDir || (IsDevRun() && devSafety)
	resolved := ResolveDataDir(dataDir, useTemp)

	if IsDevRun() {
		if devSafety {
			o.logger.Debug("running in SAFE mode (dev sandbox enabled)", "path", resolved)
		} else {
			o.logger.Warn("running in UNSAFE mode (bypassing dev sandbox)", "path", resolved)
		}
	}
	if useTemp && resolved != dataDir {
		o.logger.Warn("running in SAFE MODE (Dev/Test)", "original_path", dataDir, "resolved_path", resolved)
	}

	serializer, err := fs.SerializerFor(o.cfg.Format)
	if err != nil {
		return nil, "", err
	}
	errorHandler, _ := o.flags["watcher_error_handler"].(func(error))

	store := fs.NewStore(fs.Config{
		Dir:          resolved,
		Serializer:   serializer,
		Logger:       o.logger,
		Clock:        o.clock,
		ErrorHandler: errorHandler,
	})
	if err := store.Initialize(ctx); err != nil {
		return nil, "", fmt.Errorf("failed to initialize %s: %w", resolved, err)
	}
	return store, resolved, nil
}
