// Package typeset is the built-in layout probe. It lays text out with the Go
// font family, breaking lines on UAX #14 opportunities, and sizes block
// boxes with the metrics of the active theme.
package typeset

import (
	"errors"
	"math"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/cygnusreader/folio/internal/layout"
	"github.com/cygnusreader/folio/internal/theme"
)

// Probe measures elements for one theme and content width. A Probe is not
// safe for concurrent use; build one per pagination pass.
type Probe struct {
	theme theme.Theme
	width float64
	faces *faceCache
	err   error
}

// New returns a probe. Font loading errors surface from every Measure call.
func New(t theme.Theme, width float64) *Probe {
	return &Probe{
		theme: t,
		width: width,
		faces: newFaceCache(),
		err:   loadFonts(),
	}
}

// Factory adapts New to layout.Factory.
func Factory() layout.Factory {
	return func(t theme.Theme, width float64) layout.Probe {
		return New(t, width)
	}
}

// Close releases the cached font faces.
func (p *Probe) Close() error {
	p.faces.close()
	return nil
}

// Measure returns the border-box height and bottom margin of n. When n
// holds an image of unknown size the estimate is returned together with
// layout.ErrUnmeasurable.
func (p *Probe) Measure(n *html.Node) (layout.Metrics, error) {
	if p.err != nil {
		return layout.Metrics{}, p.err
	}
	b := p.box(n, p.width)
	m := layout.Metrics{Height: round2(b.height), MarginBottom: round2(b.margin)}
	if b.estimated {
		return m, layout.ErrUnmeasurable
	}
	return m, nil
}

// Glyphs lays out the text of n and returns one glyph per rune of layout.Text(n).
func (p *Probe) Glyphs(n *html.Node) ([]layout.Glyph, error) {
	if p.err != nil {
		return nil, p.err
	}
	if n == nil || n.Type != html.ElementNode {
		return nil, errors.New("typeset: glyphs of a non-element node")
	}
	st, inset, width := p.inlineContext(n, p.width)
	res := p.flow(layout.Runs(n), st, width, inset)
	return res.glyphs, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// box is the measured block box of one element.
type box struct {
	height    float64
	margin    float64
	estimated bool
}

func (p *Probe) body() textStyle {
	t := p.theme
	return textStyle{size: t.BodySize, line: t.BodyLine(), wrap: true}
}

// inlineContext returns the text style, top inset and line width used for
// the inline content of n.
func (p *Probe) inlineContext(n *html.Node, width float64) (textStyle, float64, float64) {
	t := p.theme
	switch n.DataAtom {
	case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
		lvl := headingLevel(n)
		h := t.Docx.Heading(lvl)
		size := t.HeadingSize(lvl)
		return textStyle{size: size, line: size * t.HeadingLineHeight, bold: h.Bold, italic: h.Italic, wrap: true}, 0, width
	case atom.Pre:
		return textStyle{size: t.CodeSize, line: t.CodeLine(), mono: true}, t.CodePadding, width - 2*t.CodePadding
	case atom.Th:
		st := p.body()
		st.bold = true
		return st, t.CellPadding, width - 2*t.CellPadding
	case atom.Td:
		return p.body(), t.CellPadding, width - 2*t.CellPadding
	case atom.Blockquote:
		st := p.body()
		st.italic = t.Docx.QuoteItalic
		return st, 0, width - t.QuoteIndent
	}
	return p.body(), 0, width
}

func headingLevel(n *html.Node) int {
	switch n.DataAtom {
	case atom.H1:
		return 1
	case atom.H2:
		return 2
	case atom.H3:
		return 3
	case atom.H4:
		return 4
	case atom.H5:
		return 5
	case atom.H6:
		return 6
	}
	return 0
}

func (p *Probe) box(n *html.Node, width float64) box {
	t := p.theme
	if n.Type != html.ElementNode {
		return box{}
	}

	switch n.DataAtom {
	case atom.P:
		b := p.inlineBox(n, width)
		b.margin = t.ParagraphGap
		return b
	case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
		b := p.inlineBox(n, width)
		b.margin = t.HeadingMargin(headingLevel(n))
		return b
	case atom.Pre:
		st, inset, w := p.inlineContext(n, width)
		res := p.flow(layout.Runs(n), st, w, inset)
		return box{height: 2*inset + float64(res.lines)*st.line, margin: t.ParagraphGap}
	case atom.Hr:
		return box{height: 1 + t.RuleHeight/2, margin: t.RuleHeight / 2}
	case atom.Img:
		h, ok := p.imageHeight(n, width)
		return box{height: h, margin: 0, estimated: !ok}
	case atom.Ul, atom.Ol:
		b := p.listBox(n, width)
		b.margin = t.ParagraphGap
		return b
	case atom.Blockquote:
		b := p.containerBox(n, width-t.QuoteIndent, atom.Blockquote)
		b.margin = t.ParagraphGap
		return b
	case atom.Table:
		b := p.tableBox(n, width)
		b.margin = t.ParagraphGap
		return b
	case atom.Figure, atom.Dl, atom.Details:
		b := p.containerBox(n, width, 0)
		b.margin = t.ParagraphGap
		return b
	case atom.Script, atom.Style, atom.Head, atom.Meta, atom.Link:
		return box{}
	}
	return p.containerBox(n, width, 0)
}

// inlineBox lays out the text of n and stacks any images it contains.
func (p *Probe) inlineBox(n *html.Node, width float64) box {
	st, inset, w := p.inlineContext(n, width)
	res := p.flow(layout.Runs(n), st, w, inset)
	b := box{height: 2*inset + float64(res.lines)*st.line}
	for _, img := range images(n) {
		h, ok := p.imageHeight(img, w)
		b.height += h
		b.estimated = b.estimated || !ok
	}
	return b
}

func images(n *html.Node) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && c.DataAtom == atom.Img {
				out = append(out, c)
				continue
			}
			walk(c)
		}
	}
	walk(n)
	return out
}

func hasBlockChild(n *html.Node) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if layout.IsBlock(c) || (c.Type == html.ElementNode && c.DataAtom == atom.Img) {
			return true
		}
	}
	return false
}

// containerBox stacks block children vertically. The last child's bottom
// margin collapses through the container. Inline content with no block
// children is laid out as one paragraph.
func (p *Probe) containerBox(n *html.Node, width float64, ctx atom.Atom) box {
	if !hasBlockChild(n) {
		if ctx == atom.Blockquote {
			st := p.body()
			st.italic = p.theme.Docx.QuoteItalic
			res := p.flow(layout.Runs(n), st, width, 0)
			return box{height: float64(res.lines) * st.line}
		}
		return p.inlineBox(n, width)
	}
	var (
		out     box
		lastGap float64
		inline  []*html.Node
	)
	flushInline := func() {
		if len(inline) == 0 {
			return
		}
		wrap := &html.Node{Type: html.ElementNode, DataAtom: atom.Span, Data: "span"}
		for _, c := range inline {
			wrap.AppendChild(cloneShallowTree(c))
		}
		inline = inline[:0]
		if layout.Text(wrap) == "" {
			return
		}
		b := p.inlineBox(wrap, width)
		out.height += lastGap + b.height
		lastGap = 0
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if !layout.IsBlock(c) && !(c.Type == html.ElementNode && c.DataAtom == atom.Img) {
			inline = append(inline, c)
			continue
		}
		flushInline()
		b := p.box(c, width)
		out.height += lastGap + b.height
		lastGap = b.margin
		out.estimated = out.estimated || b.estimated
	}
	flushInline()
	return out
}

func (p *Probe) listBox(n *html.Node, width float64) box {
	t := p.theme
	var out box
	first := true
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode || c.DataAtom != atom.Li {
			continue
		}
		if !first {
			out.height += t.ListItemGap
		}
		first = false
		b := p.containerBox(c, width-t.ListIndent, atom.Li)
		out.height += b.height
		out.estimated = out.estimated || b.estimated
	}
	return out
}

func (p *Probe) tableBox(n *html.Node, width float64) box {
	t := p.theme
	rows := tableRows(n)
	cols := 0
	for _, r := range rows {
		if k := len(r); k > cols {
			cols = k
		}
	}
	if cols == 0 {
		return box{}
	}
	colWidth := width / float64(cols)
	var out box
	for _, r := range rows {
		rowH := 0.0
		for _, cell := range r {
			var b box
			if hasBlockChild(cell) {
				b = p.containerBox(cell, colWidth-2*t.CellPadding, 0)
				b.height += 2 * t.CellPadding
			} else {
				b = p.inlineBox(cell, colWidth)
			}
			if b.height < t.BodyLine()+2*t.CellPadding {
				b.height = t.BodyLine() + 2*t.CellPadding
			}
			rowH = math.Max(rowH, b.height)
			out.estimated = out.estimated || b.estimated
		}
		out.height += rowH + 1
	}
	out.height++
	return out
}

func tableRows(n *html.Node) [][]*html.Node {
	var rows [][]*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			switch c.DataAtom {
			case atom.Thead, atom.Tbody, atom.Tfoot:
				walk(c)
			case atom.Tr:
				var cells []*html.Node
				for td := c.FirstChild; td != nil; td = td.NextSibling {
					if td.Type == html.ElementNode && (td.DataAtom == atom.Td || td.DataAtom == atom.Th) {
						cells = append(cells, td)
					}
				}
				rows = append(rows, cells)
			}
		}
	}
	walk(n)
	return rows
}

// cloneShallowTree deep-copies n without parent or sibling links.
func cloneShallowTree(n *html.Node) *html.Node {
	c := &html.Node{Type: n.Type, DataAtom: n.DataAtom, Data: n.Data, Namespace: n.Namespace}
	c.Attr = append(c.Attr, n.Attr...)
	for k := n.FirstChild; k != nil; k = k.NextSibling {
		c.AppendChild(cloneShallowTree(k))
	}
	return c
}
