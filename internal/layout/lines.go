package layout

import (
	"math"
	"strings"

	"golang.org/x/net/html"

	"github.com/cygnusreader/folio/internal/document"
)

// DefaultLineTolerance absorbs sub-pixel jitter between glyph tops on one line.
const DefaultLineTolerance = 2.0

// AnalyzeLines groups glyphs into visual lines. A new line starts whenever a
// glyph's top exceeds the current line's top by more than tolerance. An
// element without text nodes is one line of its full height; an element
// whose text is blank has no lines.
func AnalyzeLines(n *html.Node, glyphs []Glyph, height, tolerance float64) []document.Line {
	if !HasTextNodes(n) {
		return []document.Line{{Top: 0, Height: height}}
	}
	if strings.TrimSpace(Text(n)) == "" {
		return nil
	}

	var lines []document.Line
	lastTop := math.Inf(-1)
	for _, g := range glyphs {
		if g.Top > lastTop+tolerance {
			if k := len(lines) - 1; k >= 0 {
				lines[k].End = g.Offset
			}
			lines = append(lines, document.Line{Top: g.Top, Height: g.Height, Start: g.Offset, End: g.Offset + 1})
			lastTop = g.Top
			continue
		}
		k := len(lines) - 1
		lines[k].End = g.Offset + 1
		if g.Height > lines[k].Height {
			lines[k].Height = g.Height
		}
	}
	return lines
}
