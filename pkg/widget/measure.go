package widget

import (
	"math"
	"strings"
	"unicode/utf8"
)

// Measurer reports how tall the text surface needs to be to show content
// at a given width. The windowing toolkit provides the real implementation.
type Measurer interface {
	ContentHeight(content string, width float64) float64
}

// TextMeasurer approximates text layout with fixed glyph metrics and greedy
// word wrapping. It is used when no toolkit measurer is wired.
type TextMeasurer struct {
	GlyphWidth float64
	LineHeight float64
	PaddingX   float64 // per side
	PaddingY   float64 // per side
}

// DefaultMeasurer matches a 12pt UI font with the note's inner padding.
var DefaultMeasurer = TextMeasurer{GlyphWidth: 7.5, LineHeight: 16, PaddingX: 8, PaddingY: 8}

func (m TextMeasurer) ContentHeight(content string, width float64) float64 {
	cols := 1
	if m.GlyphWidth > 0 {
		if usable := width - 2*m.PaddingX; usable > m.GlyphWidth {
			cols = int(math.Floor(usable / m.GlyphWidth))
		}
	}

	lines := 0
	for _, line := range strings.Split(content, "\n") {
		lines += wrappedLines(line, cols)
	}
	return float64(lines)*m.LineHeight + 2*m.PaddingY
}

// wrappedLines counts the rows a single paragraph occupies at cols columns.
// Words longer than a row are broken.
func wrappedLines(line string, cols int) int {
	words := strings.Fields(line)
	if len(words) == 0 {
		return 1
	}

	rows, used := 1, 0
	for _, word := range words {
		n := utf8.RuneCountInString(word)
		switch {
		case used == 0:
			// start of row
		case used+1+n <= cols:
			used += 1 + n
			continue
		default:
			rows++
			used = 0
		}
		for n > cols {
			rows++
			n -= cols
		}
		used = n
	}
	return rows
}
