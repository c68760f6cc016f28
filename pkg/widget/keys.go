package widget

import (
	"fmt"
	"strings"
)

// Key is a key press as seen by a note. Anything the note does not handle
// is KeyOther and belongs to the text surface.
type Key int

const (
	KeyOther Key = iota
	KeyEnterEdit
	KeyEscape
	KeyDelete
	KeyHide
	KeyDuplicate
)

var keyNames = map[Key]string{
	KeyOther:     "other",
	KeyEnterEdit: "e",
	KeyEscape:    "escape",
	KeyDelete:    "delete",
	KeyHide:      "h",
	KeyDuplicate: "d",
}

func (k Key) String() string {
	if name, ok := keyNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Key(%d)", int(k))
}

// ParseKey maps a key name ("e", "esc", "delete", "h", "d") to a Key.
// Unknown names yield KeyOther.
func ParseKey(name string) Key {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "e", "edit":
		return KeyEnterEdit
	case "esc", "escape":
		return KeyEscape
	case "del", "delete":
		return KeyDelete
	case "h", "hide":
		return KeyHide
	case "d", "duplicate":
		return KeyDuplicate
	default:
		return KeyOther
	}
}

// Effect is what a note asks its session to do after handling input.
type Effect int

const (
	EffectNone Effect = iota
	EffectSave
	EffectClose
	EffectHide
	EffectDuplicate
)

func (e Effect) String() string {
	switch e {
	case EffectNone:
		return "none"
	case EffectSave:
		return "save"
	case EffectClose:
		return "close"
	case EffectHide:
		return "hide"
	case EffectDuplicate:
		return "duplicate"
	default:
		return fmt.Sprintf("Effect(%d)", int(e))
	}
}
