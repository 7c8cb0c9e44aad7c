package export

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"strconv"

	"codeberg.org/go-pdf/fpdf"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/cygnusreader/folio/internal/document"
	"github.com/cygnusreader/folio/internal/layout"
	"github.com/cygnusreader/folio/internal/typeset"
)

// ptPerPx converts CSS px at 96 DPI to PDF points.
const ptPerPx = 0.75

const (
	familySans = "go"
	familyMono = "gomono"
)

// PDF writes one PDF page per layout page. Text lines are placed at the
// offsets measured during pagination, so fragments break exactly where
// the reader shows them.
func PDF(w io.Writer, doc *Document) error {
	g := doc.Geometry
	pdf := fpdf.NewCustom(&fpdf.InitType{
		UnitStr: "pt",
		Size:    fpdf.SizeType{Wd: g.Width * ptPerPx, Ht: g.Height * ptPerPx},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetTitle(doc.Title, true)
	pdf.SetCreator("folio", true)

	pdf.AddUTF8FontFromBytes(familySans, "", goregular.TTF)
	pdf.AddUTF8FontFromBytes(familySans, "B", gobold.TTF)
	pdf.AddUTF8FontFromBytes(familySans, "I", goitalic.TTF)
	pdf.AddUTF8FontFromBytes(familySans, "BI", gobolditalic.TTF)
	pdf.AddUTF8FontFromBytes(familyMono, "", gomono.TTF)

	pw := &pdfWriter{
		pdf:     pdf,
		doc:     doc,
		probe:   typeset.New(doc.Theme, g.ContentWidth()),
		entries: make(map[string]document.TocEntry, len(doc.Toc)),
		outline: -1,
	}
	defer pw.probe.Close()
	for _, e := range doc.Toc {
		pw.entries[e.ID] = e
	}

	total := max(len(doc.Pages), 1)
	pdf.SetFooterFunc(func() {
		pw.color(doc.Theme.TextColor)
		pdf.SetFont(familySans, "", doc.Theme.BodySize*0.8*ptPerPx)
		pdf.SetXY(0, (g.Height-g.Padding/2)*ptPerPx)
		pdf.CellFormat(g.Width*ptPerPx, 12, fmt.Sprintf("%d / %d", pdf.PageNo(), total), "", 0, "C", false, 0, "")
	})

	if len(doc.Pages) == 0 {
		pw.newPage()
	}
	for _, page := range doc.Pages {
		pw.newPage()
		y := g.Padding
		for _, pb := range page.Blocks {
			pw.block(pb, y)
			y += claimed(pb)
		}
	}
	if err := pdf.Error(); err != nil {
		return fmt.Errorf("build pdf: %w", err)
	}
	return pdf.Output(w)
}

// claimed matches the space the planner reserved for a fragment.
func claimed(pb document.PageBlock) float64 {
	if !pb.Partial {
		return pb.Block.Outer()
	}
	if pb.Cut() {
		return pb.ClipHeight
	}
	return pb.ClipHeight + pb.Block.MarginBottom
}

type pdfWriter struct {
	pdf     *fpdf.Fpdf
	doc     *Document
	probe   *typeset.Probe
	entries map[string]document.TocEntry
	outline int // level of the last bookmark, -1 before the first
	images  int
}

func (pw *pdfWriter) newPage() {
	pw.pdf.AddPage()
	g := pw.doc.Geometry
	if bg := pw.doc.Theme.Background; bg != "" && bg != "FFFFFF" {
		r, gr, b := hexRGB(bg)
		pw.pdf.SetFillColor(r, gr, b)
		pw.pdf.Rect(0, 0, g.Width*ptPerPx, g.Height*ptPerPx, "F")
	}
}

// block draws one fragment whose top edge sits at top px.
func (pw *pdfWriter) block(pb document.PageBlock, top float64) {
	b := pb.Block
	n, err := blockNode(b.HTML)
	if err != nil {
		return
	}
	if b.IsHeading() && !pb.Continuation() {
		pw.bookmark(b, top)
	}

	t := pw.doc.Theme
	g := pw.doc.Geometry
	left := g.Padding
	clipTop, clipHeight := 0.0, b.Height
	if pb.Partial {
		clipTop, clipHeight = pb.ClipTop, pb.ClipHeight
	}

	switch b.Kind {
	case document.KindRule:
		r, gr, bl := hexRGB(t.Docx.TableBorder)
		pw.pdf.SetDrawColor(r, gr, bl)
		mid := (top + b.Height/2) * ptPerPx
		pw.pdf.Line(left*ptPerPx, mid, (left+g.ContentWidth())*ptPerPx, mid)
		return
	case document.KindCode:
		r, gr, bl := hexRGB(t.Docx.CodeBackground)
		pw.pdf.SetFillColor(r, gr, bl)
		pw.pdf.Rect(left*ptPerPx, top*ptPerPx, g.ContentWidth()*ptPerPx, clipHeight*ptPerPx, "F")
		left += t.CodePadding
	case document.KindQuote:
		r, gr, bl := hexRGB(t.Docx.QuoteBorder)
		pw.pdf.SetDrawColor(r, gr, bl)
		pw.pdf.Line(left*ptPerPx, top*ptPerPx, left*ptPerPx, (top+clipHeight)*ptPerPx)
		left += t.QuoteIndent
	case document.KindList:
		left += t.ListIndent
	case document.KindTable:
		left += t.CellPadding
	}

	glyphs, err := pw.probe.Glyphs(n)
	if err != nil {
		return
	}
	lines := layout.AnalyzeLines(n, glyphs, b.Height, layout.DefaultLineTolerance)
	text := []rune(b.Text)
	pw.font(b)
	size := pw.fontSize(b)
	if pb.Partial && pb.FirstLine+pb.LineCount <= len(lines) {
		lines = lines[pb.FirstLine : pb.FirstLine+pb.LineCount]
	}
	for _, ln := range lines {
		if ln.Start < 0 || ln.End > len(text) || ln.Start >= ln.End {
			continue
		}
		s := trimLine(text[ln.Start:ln.End])
		if s == "" {
			continue
		}
		baseline := top + ln.Top - clipTop + (ln.Height+size*0.7)/2
		pw.pdf.Text(left*ptPerPx, baseline*ptPerPx, s)
	}

	if !pb.Partial {
		pw.drawImages(n, top, b.Height)
	}
}

// drawImages stacks embedded images against the bottom of the block,
// where the probe accounted for them.
func (pw *pdfWriter) drawImages(n *html.Node, top, height float64) {
	cw := pw.doc.Geometry.ContentWidth()
	bottom := top + height
	imgs := findAll(n, atom.Img)
	for i := len(imgs) - 1; i >= 0; i-- {
		img, ok := decodeDataURL(attr(imgs[i], "src"))
		if !ok {
			continue
		}
		w := math.Min(cw, float64(img.width))
		h := w * float64(img.height) / float64(img.width)
		pw.images++
		name := "img" + strconv.Itoa(pw.images)
		opts := fpdf.ImageOptions{ImageType: img.format}
		pw.pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(img.data))
		pw.pdf.ImageOptions(name, pw.doc.Geometry.Padding*ptPerPx, (bottom-h)*ptPerPx, w*ptPerPx, h*ptPerPx, false, opts, 0, "")
		bottom -= h
	}
}

// bookmark adds an outline entry. Levels may only deepen one step at a time.
func (pw *pdfWriter) bookmark(b document.Block, top float64) {
	e, ok := pw.entries[b.ID]
	if !ok {
		return
	}
	level := e.Level - 1
	if level > pw.outline+1 {
		level = pw.outline + 1
	}
	pw.outline = level
	pw.pdf.Bookmark(e.Text, level, top*ptPerPx)
}

func (pw *pdfWriter) fontSize(b document.Block) float64 {
	t := pw.doc.Theme
	switch b.Kind {
	case document.KindHeading:
		return t.HeadingSize(b.Level)
	case document.KindCode:
		return t.CodeSize
	}
	return t.BodySize
}

func (pw *pdfWriter) font(b document.Block) {
	t := pw.doc.Theme
	size := pw.fontSize(b) * ptPerPx
	switch b.Kind {
	case document.KindHeading:
		h := t.Docx.Heading(b.Level)
		style := ""
		if h.Bold {
			style += "B"
		}
		if h.Italic {
			style += "I"
		}
		color := h.Color
		if t.HeadingColor != "" {
			color = t.HeadingColor
		}
		pw.color(color)
		pw.pdf.SetFont(familySans, style, size)
	case document.KindCode:
		pw.color(t.Docx.CodeColor)
		pw.pdf.SetFont(familyMono, "", size)
	case document.KindQuote:
		pw.color(t.Docx.QuoteColor)
		style := ""
		if t.Docx.QuoteItalic {
			style = "I"
		}
		pw.pdf.SetFont(familySans, style, size)
	default:
		pw.color(t.TextColor)
		pw.pdf.SetFont(familySans, "", size)
	}
}

func (pw *pdfWriter) color(hex string) {
	r, g, b := hexRGB(hex)
	pw.pdf.SetTextColor(r, g, b)
}

func trimLine(rs []rune) string {
	for len(rs) > 0 && (rs[len(rs)-1] == '\n' || rs[len(rs)-1] == ' ') {
		rs = rs[:len(rs)-1]
	}
	return string(rs)
}

// hexRGB parses RRGGBB, returning black for anything else.
func hexRGB(s string) (int, int, int) {
	if len(s) == 7 && s[0] == '#' {
		s = s[1:]
	}
	if len(s) != 6 {
		return 0, 0, 0
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, 0, 0
	}
	return int(v >> 16 & 0xFF), int(v >> 8 & 0xFF), int(v & 0xFF)
}
