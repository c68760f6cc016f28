// Package theme provides the immutable catalog of note colour themes.
package theme

import (
	"fmt"
	"math/rand/v2"
	"regexp"
	"strings"

	"github.com/aretw0/noats/pkg/core"
)

// Definition is one named colour scheme. Colours are #RRGGBB strings.
type Definition struct {
	Name       string `toml:"name"`
	Background string `toml:"background"`
	Text       string `toml:"text"`
	Selection  string `toml:"selection"`
}

var builtin = []Definition{
	{Name: "LemonDrop", Background: "#FFF9C4", Text: "#433E27", Selection: "#FFE082"},
	{Name: "SkyBlue", Background: "#BBDEFB", Text: "#1A237E", Selection: "#90CAF9"},
	{Name: "Mint", Background: "#E0F2F1", Text: "#004D40", Selection: "#B2DFDB"},
	{Name: "Peach", Background: "#FFE0B2", Text: "#4E342E", Selection: "#FFCC80"},
	{Name: "Rose", Background: "#F8BBD0", Text: "#880E4F", Selection: "#F48FB1"},
}

var hexColor = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// Catalog is a fixed, read-only set of themes. It is safe for concurrent use
// as long as the random source is.
type Catalog struct {
	themes []Definition
	byName map[string]int
	intn   func(n int) int
}

// Option configures a Catalog.
type Option func(*Catalog)

// WithRand replaces the source used by Random. intn must return a value in [0, n).
func WithRand(intn func(n int) int) Option {
	return func(c *Catalog) {
		c.intn = intn
	}
}

// WithThemes appends extra themes after the built-in ones.
func WithThemes(extra ...Definition) Option {
	return func(c *Catalog) {
		c.themes = append(c.themes, extra...)
	}
}

// NewCatalog builds a catalog from the built-in themes plus any extras.
// Names must be unique regardless of case.
func NewCatalog(opts ...Option) (*Catalog, error) {
	c := &Catalog{
		themes: append([]Definition(nil), builtin...),
		intn:   rand.IntN,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.byName = make(map[string]int, len(c.themes))
	for i, t := range c.themes {
		if err := validate(t); err != nil {
			return nil, err
		}
		key := strings.ToLower(t.Name)
		if _, dup := c.byName[key]; dup {
			return nil, fmt.Errorf("theme: duplicate name %q", t.Name)
		}
		c.byName[key] = i
	}
	return c, nil
}

// Default returns a catalog holding only the built-in themes.
func Default() *Catalog {
	c, err := NewCatalog()
	if err != nil {
		panic(err)
	}
	return c
}

// Random returns a theme chosen uniformly over the catalog.
func (c *Catalog) Random() Definition {
	return c.themes[c.intn(len(c.themes))]
}

// ByName looks a theme up by case-insensitive exact name.
func (c *Catalog) ByName(name string) (Definition, bool) {
	i, ok := c.byName[strings.ToLower(name)]
	if !ok {
		return Definition{}, false
	}
	return c.themes[i], true
}

// Lookup is ByName reporting a miss as core.ErrThemeNotFound.
func (c *Catalog) Lookup(name string) (Definition, error) {
	t, ok := c.ByName(name)
	if !ok {
		return Definition{}, fmt.Errorf("%w: %q", core.ErrThemeNotFound, name)
	}
	return t, nil
}

// Resolve returns the named theme, or a random one when the name is unknown.
func (c *Catalog) Resolve(name string) Definition {
	if t, ok := c.ByName(name); ok {
		return t
	}
	return c.Random()
}

// Default returns the first theme of the catalog.
func (c *Catalog) Default() Definition {
	return c.themes[0]
}

// Names lists theme names in catalog order.
func (c *Catalog) Names() []string {
	names := make([]string, len(c.themes))
	for i, t := range c.themes {
		names[i] = t.Name
	}
	return names
}

// Len returns the number of themes.
func (c *Catalog) Len() int {
	return len(c.themes)
}

func validate(t Definition) error {
	if t.Name == "" {
		return fmt.Errorf("theme: missing name")
	}
	colors := []struct{ field, value string }{
		{"background", t.Background},
		{"text", t.Text},
		{"selection", t.Selection},
	}
	for _, c := range colors {
		if !hexColor.MatchString(c.value) {
			return fmt.Errorf("theme %q: invalid hex color %q for field %q (expected #RRGGBB)", t.Name, c.value, c.field)
		}
	}
	return nil
}
