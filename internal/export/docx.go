package export

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fumiama/go-docx"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/cygnusreader/folio/internal/document"
	"github.com/cygnusreader/folio/internal/layout"
	"github.com/cygnusreader/folio/internal/theme"
)

// DOCX writes the document as a word-processor file styled per the
// template. Word reflows text itself, so each block is written once in
// full and only top-level headings force page breaks.
func DOCX(w io.Writer, doc *Document) error {
	dw := &docxWriter{
		out:   docx.New().WithDefaultTheme(),
		style: doc.Theme.Docx,
	}
	for _, page := range doc.Pages {
		for _, pb := range page.Blocks {
			if pb.Continuation() {
				continue
			}
			dw.block(pb.Block)
		}
	}
	if _, err := dw.out.WriteTo(w); err != nil {
		return fmt.Errorf("write docx: %w", err)
	}
	return nil
}

type docxWriter struct {
	out    *docx.Docx
	style  theme.DocxStyle
	titled bool // a level-1 heading has been written
}

func (dw *docxWriter) block(b document.Block) {
	n, err := blockNode(b.HTML)
	if err != nil {
		return
	}
	switch b.Kind {
	case document.KindHeading:
		dw.heading(b.Level, layout.Text(n))
	case document.KindCode:
		dw.code(layout.Text(n))
	case document.KindList:
		dw.list(n)
	case document.KindTable:
		dw.table(n)
	case document.KindRule:
		dw.out.AddParagraph().Justification("center").AddText("* * *").Color(dw.style.BodyColor)
	case document.KindQuote:
		dw.quote(n)
	default:
		dw.paragraph(n)
	}
}

func (dw *docxWriter) heading(level int, text string) {
	if level == 1 {
		if dw.titled {
			dw.out.AddParagraph().AddPageBreaks()
		}
		dw.titled = true
	}
	h := dw.style.Heading(level)
	para := dw.out.AddParagraph()
	if h.Center {
		para.Justification("center")
	}
	r := para.AddText(text).Size(strconv.Itoa(h.Size)).Color(h.Color)
	r.Font(dw.style.BodyFont, dw.style.BodyFont, dw.style.BodyFont, "")
	if h.Bold {
		r.Bold()
	}
	if h.Italic {
		r.Italic()
	}
}

func (dw *docxWriter) code(text string) {
	for _, line := range strings.Split(text, "\n") {
		if line == "" {
			line = " "
		}
		dw.out.AddParagraph().AddText(line).
			Font(dw.style.CodeFont, dw.style.CodeFont, dw.style.CodeFont, "").
			Size(strconv.Itoa(dw.style.BodySize-2)).
			Color(dw.style.CodeColor).
			Shade("clear", "auto", dw.style.CodeBackground)
	}
}

// runs writes styled inline runs, opening a new paragraph at each break.
func (dw *docxWriter) runs(rs []layout.Run, prefix string, color string, italic bool) {
	para := dw.out.AddParagraph()
	if prefix != "" {
		dw.text(para.AddText(prefix), color)
	}
	for _, r := range rs {
		if r.Break {
			para = dw.out.AddParagraph()
			continue
		}
		run := para.AddText(r.Text)
		c := color
		if r.Link {
			c = dw.style.LinkColor
		}
		dw.text(run, c)
		if r.Mono {
			run.Font(dw.style.CodeFont, dw.style.CodeFont, dw.style.CodeFont, "")
		}
		if r.Bold {
			run.Bold()
		}
		if r.Italic || italic {
			run.Italic()
		}
	}
}

func (dw *docxWriter) text(r *docx.Run, color string) {
	r.Size(strconv.Itoa(dw.style.BodySize)).Color(color)
	r.Font(dw.style.BodyFont, dw.style.BodyFont, dw.style.BodyFont, "")
}

func (dw *docxWriter) paragraph(n *html.Node) {
	if rs := layout.Runs(n); len(rs) > 0 {
		dw.runs(rs, "", dw.style.BodyColor, false)
	}
	for _, img := range findAll(n, atom.Img) {
		dw.image(img)
	}
}

func (dw *docxWriter) quote(n *html.Node) {
	dw.runs(layout.Runs(n), "", dw.style.QuoteColor, dw.style.QuoteItalic)
}

func (dw *docxWriter) list(n *html.Node) {
	ordered := n.DataAtom == atom.Ol
	i := 0
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode || c.DataAtom != atom.Li {
			continue
		}
		i++
		prefix := "• "
		if ordered {
			prefix = strconv.Itoa(i) + ". "
		}
		dw.runs(layout.Runs(c), prefix, dw.style.BodyColor, false)
	}
}

func (dw *docxWriter) table(n *html.Node) {
	var rows [][]*html.Node
	cols := 0
	for _, tr := range findAll(n, atom.Tr) {
		var cells []*html.Node
		for c := tr.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && (c.DataAtom == atom.Td || c.DataAtom == atom.Th) {
				cells = append(cells, c)
			}
		}
		if len(cells) == 0 {
			continue
		}
		rows = append(rows, cells)
		cols = max(cols, len(cells))
	}
	if len(rows) == 0 {
		return
	}
	tbl := dw.out.AddTable(len(rows), cols, 0, nil)
	for i, cells := range rows {
		for j, cell := range cells {
			r := tbl.TableRows[i].TableCells[j].AddParagraph().AddText(layout.Text(cell))
			dw.text(r, dw.style.BodyColor)
			if cell.DataAtom == atom.Th {
				r.Bold()
			}
		}
	}
}

// image embeds data-URL images; anything else falls back to its alt text.
func (dw *docxWriter) image(n *html.Node) {
	if img, ok := decodeDataURL(attr(n, "src")); ok {
		if _, err := dw.out.AddParagraph().AddInlineDrawing(img.data); err == nil {
			return
		}
	}
	if alt := attr(n, "alt"); alt != "" {
		dw.text(dw.out.AddParagraph().AddText("["+alt+"]"), dw.style.BodyColor)
	}
}
