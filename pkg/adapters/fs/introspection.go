package fs

import (
	"time"

	"github.com/aretw0/introspection"
)

// StoreState exposes internal state for observability.
type StoreState struct {
	Dir            string     `json:"dir"`
	Format         string     `json:"format"`
	HasSavedState  bool       `json:"has_saved_state"`
	WatcherActive  bool       `json:"watcher_active"`
	LastSave       *time.Time `json:"last_save,omitempty"`
	LastLoadSource string     `json:"last_load_source,omitempty"`
}

// State implements introspection.Introspectable.
func (s *Store) State() any {
	hasSaved := s.HasSavedState()

	s.mu.RLock()
	defer s.mu.RUnlock()

	return StoreState{
		Dir:            s.Dir,
		Format:         s.config.Serializer.Ext(),
		HasSavedState:  hasSaved,
		WatcherActive:  s.watcherActive,
		LastSave:       s.lastSave,
		LastLoadSource: s.lastLoadSource,
	}
}

// ComponentType implements introspection.Component.
func (s *Store) ComponentType() string {
	return "store"
}

var _ introspection.Introspectable = (*Store)(nil)
var _ introspection.Component = (*Store)(nil)

func (s *Store) setWatcherActive(active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.watcherActive = active
}
