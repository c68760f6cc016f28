package hotkey

import (
	"fmt"
	"sort"
	"strings"
)

var modifierOrder = map[string]int{
	"ctrl":  0,
	"alt":   1,
	"shift": 2,
	"super": 3,
}

var modifierAliases = map[string]string{
	"control": "ctrl",
	"ctl":     "ctrl",
	"option":  "alt",
	"win":     "super",
	"cmd":     "super",
	"meta":    "super",
}

// ParseChord normalises a chord such as "Shift+Ctrl+H" to "ctrl+shift+h".
// A chord needs exactly one non-modifier key.
func ParseChord(chord string) (string, error) {
	parts := strings.Split(strings.ToLower(strings.TrimSpace(chord)), "+")
	var mods []string
	key := ""
	seen := make(map[string]bool)
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if alias, ok := modifierAliases[p]; ok {
			p = alias
		}
		_, isModifier := modifierOrder[p]
		switch {
		case p == "":
			return "", fmt.Errorf("empty key in chord %q", chord)
		case isModifier:
			if seen[p] {
				return "", fmt.Errorf("repeated modifier %q in chord %q", p, chord)
			}
			seen[p] = true
			mods = append(mods, p)
		case key != "":
			return "", fmt.Errorf("chord %q has more than one key", chord)
		default:
			key = p
		}
	}
	if key == "" {
		return "", fmt.Errorf("chord %q has no key", chord)
	}
	sort.Slice(mods, func(i, j int) bool { return modifierOrder[mods[i]] < modifierOrder[mods[j]] })
	return strings.Join(append(mods, key), "+"), nil
}

// Bindings maps normalised chords to triggers.
type Bindings map[string]Trigger

// DefaultBindings returns the stock chords.
func DefaultBindings() Bindings {
	return Bindings{
		"ctrl+j":       TriggerCreate,
		"ctrl+shift+h": TriggerHideAll,
		"ctrl+shift+s": TriggerShowAll,
		"ctrl+shift+r": TriggerReload,
	}
}

// NewBindings builds bindings from chord → action-name pairs, as found in
// the configuration file.
func NewBindings(spec map[string]string) (Bindings, error) {
	b := make(Bindings, len(spec))
	for chord, action := range spec {
		norm, err := ParseChord(chord)
		if err != nil {
			return nil, err
		}
		t, err := ParseTrigger(action)
		if err != nil {
			return nil, fmt.Errorf("chord %s: %w", chord, err)
		}
		if prev, ok := b[norm]; ok && prev != t {
			return nil, fmt.Errorf("chord %s bound to both %s and %s", norm, prev, t)
		}
		b[norm] = t
	}
	return b, nil
}

// Lookup resolves a chord or a bare action name.
func (b Bindings) Lookup(input string) (Trigger, bool) {
	if norm, err := ParseChord(input); err == nil {
		if t, ok := b[norm]; ok {
			return t, true
		}
	}
	if t, err := ParseTrigger(input); err == nil {
		return t, true
	}
	return 0, false
}

// Chords lists the bound chords in sorted order.
func (b Bindings) Chords() []string {
	out := make([]string, 0, len(b))
	for c := range b {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}
