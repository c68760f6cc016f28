package fs

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/noats/pkg/core"
)

// Serializer defines how to read and write the state document in a specific format.
type Serializer interface {
	// Ext is the file extension of the format, including the dot.
	Ext() string
	// Parse decodes a state document. Widgets that fail to decode are dropped
	// as a whole and reported in skipped; err is set only when the document
	// itself is unusable.
	Parse(r io.Reader) (state core.AppState, skipped []error, err error)
	// Serialize converts the state to bytes.
	Serialize(state core.AppState) ([]byte, error)
}

// DefaultSerializers returns the standard set of serializers keyed by extension.
func DefaultSerializers() map[string]Serializer {
	return map[string]Serializer{
		".json": NewJSONSerializer(),
		".yaml": NewYAMLSerializer(),
	}
}

// SerializerFor returns the serializer for a format name ("json", "yaml").
// An empty name selects JSON.
func SerializerFor(format string) (Serializer, error) {
	if format == "" {
		format = "json"
	}
	s, ok := DefaultSerializers()["."+strings.ToLower(format)]
	if !ok {
		return nil, fmt.Errorf("unknown state format: %s", format)
	}
	return s, nil
}

// --- JSON Serializer ---

// JSONSerializer reads and writes the indented JSON state document.
type JSONSerializer struct{}

// NewJSONSerializer creates a new JSON serializer.
func NewJSONSerializer() *JSONSerializer {
	return &JSONSerializer{}
}

type jsonState struct {
	Widgets   []json.RawMessage `json:"widgets"`
	LastSaved time.Time         `json:"lastSaved"`
	Version   int               `json:"version"`
}

func (s *JSONSerializer) Ext() string { return ".json" }

func (s *JSONSerializer) Parse(r io.Reader) (core.AppState, []error, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return core.AppState{}, nil, err
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return core.AppState{}, nil, errors.New("state document is not an object")
	}

	var payload jsonState
	if err := json.Unmarshal(trimmed, &payload); err != nil {
		return core.AppState{}, nil, fmt.Errorf("invalid json: %w", err)
	}

	state, err := newParsedState(payload.LastSaved, payload.Version)
	if err != nil {
		return core.AppState{}, nil, err
	}

	var skipped []error
	for i, raw := range payload.Widgets {
		if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
			skipped = append(skipped, fmt.Errorf("widget %d: null entry", i))
			continue
		}
		var snap core.Snapshot
		if err := json.Unmarshal(raw, &snap); err != nil {
			skipped = append(skipped, fmt.Errorf("widget %d: %w", i, err))
			continue
		}
		if err := validateSnapshot(snap); err != nil {
			skipped = append(skipped, fmt.Errorf("widget %d: %w", i, err))
			continue
		}
		state.Widgets = append(state.Widgets, snap)
	}

	return state, skipped, nil
}

func (s *JSONSerializer) Serialize(state core.AppState) ([]byte, error) {
	if state.Widgets == nil {
		state.Widgets = []core.Snapshot{}
	}
	return json.MarshalIndent(state, "", "  ")
}

// --- YAML Serializer ---

// YAMLSerializer reads and writes the state document as YAML.
type YAMLSerializer struct{}

// NewYAMLSerializer creates a new YAML serializer.
func NewYAMLSerializer() *YAMLSerializer {
	return &YAMLSerializer{}
}

type yamlState struct {
	Widgets   []yaml.Node `yaml:"widgets"`
	LastSaved time.Time   `yaml:"lastSaved"`
	Version   int         `yaml:"version"`
}

func (s *YAMLSerializer) Ext() string { return ".yaml" }

func (s *YAMLSerializer) Parse(r io.Reader) (core.AppState, []error, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return core.AppState{}, nil, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return core.AppState{}, nil, errors.New("state document is empty")
	}

	var payload yamlState
	if err := yaml.Unmarshal(data, &payload); err != nil {
		return core.AppState{}, nil, fmt.Errorf("invalid yaml: %w", err)
	}

	state, err := newParsedState(payload.LastSaved, payload.Version)
	if err != nil {
		return core.AppState{}, nil, err
	}

	var skipped []error
	for i := range payload.Widgets {
		node := &payload.Widgets[i]
		if node.Kind != yaml.MappingNode {
			skipped = append(skipped, fmt.Errorf("widget %d: not a mapping", i))
			continue
		}
		var snap core.Snapshot
		if err := node.Decode(&snap); err != nil {
			skipped = append(skipped, fmt.Errorf("widget %d: %w", i, err))
			continue
		}
		if err := validateSnapshot(snap); err != nil {
			skipped = append(skipped, fmt.Errorf("widget %d: %w", i, err))
			continue
		}
		state.Widgets = append(state.Widgets, snap)
	}

	return state, skipped, nil
}

func (s *YAMLSerializer) Serialize(state core.AppState) ([]byte, error) {
	if state.Widgets == nil {
		state.Widgets = []core.Snapshot{}
	}
	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(state); err != nil {
		return nil, err
	}
	if err := encoder.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// --- Helpers ---

// newParsedState checks the document header. Documents written before the
// version field existed carry 0 and are read as version 1.
func newParsedState(lastSaved time.Time, version int) (core.AppState, error) {
	switch {
	case version == 0:
		version = core.SchemaVersion
	case version < 0 || version > core.SchemaVersion:
		return core.AppState{}, fmt.Errorf("unsupported state version %d", version)
	}
	return core.AppState{
		Widgets:   []core.Snapshot{},
		LastSaved: lastSaved,
		Version:   version,
	}, nil
}

func validateSnapshot(s core.Snapshot) error {
	for name, v := range map[string]float64{"x": s.X, "y": s.Y, "width": s.Width, "height": s.Height} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%s is not finite", name)
		}
	}
	if s.Width < 0 || s.Height < 0 {
		return fmt.Errorf("negative size %vx%v", s.Width, s.Height)
	}
	return nil
}
