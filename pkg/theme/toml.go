package theme

import (
	"fmt"
	"io"
	"os"

	"github.com/BurntSushi/toml"
)

// tomlFile is the on-disk layout of a theme file:
//
//	[[theme]]
//	name = "Lavender"
//	background = "#EDE7F6"
//	text = "#311B92"
//	selection = "#D1C4E9"
type tomlFile struct {
	Themes []Definition `toml:"theme"`
}

// LoadTOML parses theme definitions from r. Colours are validated when the
// themes are added to a catalog.
func LoadTOML(r io.Reader) ([]Definition, error) {
	var f tomlFile
	if _, err := toml.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("theme: parse TOML: %w", err)
	}
	for _, t := range f.Themes {
		if err := validate(t); err != nil {
			return nil, err
		}
	}
	return f.Themes, nil
}

// LoadTOMLFile reads a theme file. A missing file yields no themes.
func LoadTOMLFile(path string) ([]Definition, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()
	return LoadTOML(f)
}
