// Package noats is the composition root for Noats, floating sticky notes
// that are created by a global hotkey, resize themselves to fit their text
// and survive restarts.
//
// It connects the note state machine and session controller (pkg/widget,
// pkg/session) with the file store (pkg/adapters/fs), the theme catalog and
// the hotkey bridge. Rendering, text measurement, screen geometry and native
// hotkey registration are supplied by the host toolkit through small
// interfaces; without them the session runs headless with built-in
// approximations.
//
// Persistence:
//
//   - Every change schedules a debounced save of the full state.
//   - Before the state file is replaced, the previous one is copied to a backup.
//   - Loading never fails: a corrupt file falls back to the backup, then to an
//     empty state, and the problem is appended to load_error.log.
//
// Usage:
//
//	app, err := noats.New(ctx, "",
//		noats.WithConfig(cfg),
//		noats.WithLogger(logger),
//		noats.WithBridge(bridge),
//	)
//	if err != nil {
//		return err
//	}
//	return app.Run(ctx) // blocks; flushes pending saves on exit
package noats
