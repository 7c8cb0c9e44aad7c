// Package layout defines the measurement capability the pagination engine
// depends on and the text model shared by every probe implementation.
package layout

import (
	"errors"

	"golang.org/x/net/html"

	"github.com/cygnusreader/folio/internal/theme"
)

// ErrUnmeasurable is returned when a probe cannot size an element. The
// accompanying Metrics still carry the probe's best estimate.
var ErrUnmeasurable = errors.New("element cannot be measured")

// Metrics is the rendered box of one element.
type Metrics struct {
	Height       float64
	MarginBottom float64
}

// Glyph is the laid-out position of one rune of Text(n), relative to the
// element's top edge.
type Glyph struct {
	Offset int
	Top    float64
	Height float64
}

// Probe measures elements under a fixed theme and content width.
type Probe interface {
	Measure(n *html.Node) (Metrics, error)
	Glyphs(n *html.Node) ([]Glyph, error)
}

// Factory builds a probe for one pagination pass.
type Factory func(t theme.Theme, width float64) Probe
