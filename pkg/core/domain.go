// Package core holds the persisted data model of Noats and the ports the
// session layer talks to.
package core

import "time"

// SchemaVersion is the current version of the persisted state document.
const SchemaVersion = 1

// Snapshot is the persisted representation of one note at save time.
type Snapshot struct {
	Content      string    `json:"content" yaml:"content"`
	X            float64   `json:"x" yaml:"x"`
	Y            float64   `json:"y" yaml:"y"`
	Width        float64   `json:"width" yaml:"width"`
	Height       float64   `json:"height" yaml:"height"`
	IsVisible    bool      `json:"isVisible" yaml:"isVisible"`
	ThemeName    string    `json:"themeName" yaml:"themeName"`
	LastModified time.Time `json:"lastModified" yaml:"lastModified"`
}

// AppState is the full application state written to durable storage.
// Widgets keep registration order so reloads are stable.
type AppState struct {
	Widgets   []Snapshot `json:"widgets" yaml:"widgets"`
	LastSaved time.Time  `json:"lastSaved" yaml:"lastSaved"`
	Version   int        `json:"version" yaml:"version"`
}

// NewAppState returns an empty state stamped with now.
func NewAppState(now time.Time) AppState {
	return AppState{
		Widgets:   []Snapshot{},
		LastSaved: now,
		Version:   SchemaVersion,
	}
}

// EventType represents the kind of change in a session.
type EventType string

const (
	EventCreate     EventType = "CREATE"
	EventClose      EventType = "CLOSE"
	EventHide       EventType = "HIDE"
	EventShow       EventType = "SHOW"
	EventSave       EventType = "SAVE"
	EventSaveFailed EventType = "SAVE_FAILED"
	EventReload     EventType = "RELOAD"
	EventExternal   EventType = "EXTERNAL_CHANGE"
)

// Event represents a change observed in a session or its storage.
// WidgetID is empty for session-wide events.
type Event struct {
	Type      EventType
	WidgetID  string
	Timestamp int64 // Unix timestamp
}

// String implements lifecycle.Event.
func (e Event) String() string {
	if e.WidgetID == "" {
		return string(e.Type)
	}
	return string(e.Type) + " " + e.WidgetID
}
