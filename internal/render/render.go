// Package render turns planned pages back into markup. It is the only
// place that re-materializes HTML from a block and its clip window.
package render

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/cygnusreader/folio/internal/document"
	"github.com/cygnusreader/folio/internal/theme"
)

// Padding applied to split code blocks so text does not sit flush against
// the clip edge.
const (
	CodeContinuationPadding = 16
	CodeCutPadding          = 8
)

func px(v float64) string {
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64) + "px"
}

// Block renders one fragment. Whole blocks pass through unchanged; partial
// blocks are wrapped in a fixed-height clipping box with the clone shifted
// up by the clip offset. Code padding sits on an outer box so the clipping
// box shows exactly the fragment's window.
func Block(pb document.PageBlock) string {
	if !pb.Partial {
		return pb.Block.HTML
	}

	var padding []string
	if pb.Block.Kind == document.KindCode {
		if pb.Continuation() {
			padding = append(padding, "padding-top:"+px(CodeContinuationPadding))
		}
		if pb.Cut() {
			padding = append(padding, "padding-bottom:"+px(CodeCutPadding))
		}
	}
	clip := "height:" + px(pb.ClipHeight) + ";overflow:hidden;position:relative"
	inner := "margin-top:-" + px(pb.ClipTop) + ";margin-bottom:0"

	var b strings.Builder
	if len(padding) > 0 {
		fmt.Fprintf(&b, `<div class="folio-fragment" style="%s"><div style="%s">`, strings.Join(padding, ";"), clip)
	} else {
		fmt.Fprintf(&b, `<div class="folio-fragment" style="%s">`, clip)
	}
	b.WriteString(shifted(pb.Block.HTML, inner))
	b.WriteString("</div>")
	if len(padding) > 0 {
		b.WriteString("</div>")
	}
	return b.String()
}

// shifted prepends style to the outer element of markup. Markup that does
// not parse to a single element is wrapped in a styled div instead.
func shifted(markup, style string) string {
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(markup), body)
	var el *html.Node
	if err == nil {
		for _, n := range nodes {
			if n.Type == html.ElementNode {
				if el != nil {
					el = nil
					break
				}
				el = n
			}
		}
	}
	if el == nil {
		return `<div style="` + style + `">` + markup + "</div>"
	}
	prependStyle(el, style)
	var b strings.Builder
	if err := html.Render(&b, el); err != nil {
		return `<div style="` + style + `">` + markup + "</div>"
	}
	return b.String()
}

func prependStyle(n *html.Node, style string) {
	for i := range n.Attr {
		if n.Attr[i].Key == "style" {
			n.Attr[i].Val = strings.TrimRight(n.Attr[i].Val, "; ") + ";" + style
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: "style", Val: style})
}

// Materialize fills Markup on every fragment.
func Materialize(pages []document.Page) {
	for i := range pages {
		for j := range pages[i].Blocks {
			pages[i].Blocks[j].Markup = Block(pages[i].Blocks[j])
		}
	}
}

// Page renders one page surface. n is 1-based.
func Page(page document.Page, n, total int, t theme.Theme) string {
	var b strings.Builder
	fmt.Fprintf(&b, `<section class="folio-page %s" data-page="%d"><div class="folio-content">`, t.Class(), n)
	for _, pb := range page.Blocks {
		if pb.Markup != "" {
			b.WriteString(pb.Markup)
		} else {
			b.WriteString(Block(pb))
		}
	}
	fmt.Fprintf(&b, `</div><div class="folio-footer">%d / %d</div></section>`, n, total)
	return b.String()
}

// PrintHTML serializes pages for export. Print targets reflow content
// themselves, so a split block is emitted once, in full, on the page where
// it starts and no clipping is applied.
func PrintHTML(pages []document.Page, t theme.Theme) string {
	var b strings.Builder
	for i, page := range pages {
		var body strings.Builder
		for _, pb := range page.Blocks {
			if pb.Continuation() {
				continue
			}
			body.WriteString(pb.Block.HTML)
		}
		// A page holding only continuations keeps an empty section so
		// data-page numbers match the TOC.
		fmt.Fprintf(&b, `<section class="folio-page %s" data-page="%d">`, t.Class(), i+1)
		b.WriteString(body.String())
		b.WriteString("</section>\n")
	}
	return b.String()
}

// Document wraps rendered sections in a standalone HTML document with the
// page and theme stylesheets inlined.
func Document(title, sections string, t theme.Theme, g document.Geometry) string {
	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html><head><meta charset=\"utf-8\"><title>")
	b.WriteString(html.EscapeString(title))
	b.WriteString("</title><style>\n")
	b.WriteString(theme.PageCSS(g.Width, g.Height, g.Padding))
	b.WriteString(t.CSS())
	b.WriteString("</style></head><body>\n")
	b.WriteString(sections)
	b.WriteString("</body></html>\n")
	return b.String()
}
