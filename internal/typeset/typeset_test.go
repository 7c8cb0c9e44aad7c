package typeset

import (
	"bytes"
	"encoding/base64"
	"errors"
	"image"
	"image/png"
	"math"
	"strings"
	"testing"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/cygnusreader/folio/internal/layout"
	"github.com/cygnusreader/folio/internal/theme"
)

const contentWidth = 634

func element(t *testing.T, src string) *html.Node {
	t.Helper()
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(src), body)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	for _, n := range nodes {
		if n.Type == html.ElementNode {
			return n
		}
	}
	t.Fatalf("no element in %q", src)
	return nil
}

func near(a, b float64) bool {
	return math.Abs(a-b) < 0.05
}

func TestShortParagraphIsOneLine(t *testing.T) {
	th := theme.Lookup("default")
	p := New(th, contentWidth)
	defer p.Close()

	m, err := p.Measure(element(t, "<p>Hello world</p>"))
	if err != nil {
		t.Fatalf("measure: %v", err)
	}
	if !near(m.Height, th.BodyLine()) {
		t.Errorf("expected height %f, got %f", th.BodyLine(), m.Height)
	}
	if !near(m.MarginBottom, th.ParagraphGap) {
		t.Errorf("expected margin %f, got %f", th.ParagraphGap, m.MarginBottom)
	}
}

func TestLongParagraphWraps(t *testing.T) {
	th := theme.Lookup("default")
	p := New(th, contentWidth)
	n := element(t, "<p>"+strings.Repeat("pagination engines split long paragraphs ", 40)+"</p>")

	m, err := p.Measure(n)
	if err != nil {
		t.Fatalf("measure: %v", err)
	}
	glyphs, err := p.Glyphs(n)
	if err != nil {
		t.Fatalf("glyphs: %v", err)
	}
	if want := len([]rune(layout.Text(n))); len(glyphs) != want {
		t.Fatalf("expected %d glyphs, got %d", want, len(glyphs))
	}
	lines := layout.AnalyzeLines(n, glyphs, m.Height, layout.DefaultLineTolerance)
	if len(lines) < 8 {
		t.Fatalf("expected at least 8 lines, got %d", len(lines))
	}
	if !near(float64(len(lines))*th.BodyLine(), m.Height) {
		t.Errorf("expected height %f for %d lines, got %f", float64(len(lines))*th.BodyLine(), len(lines), m.Height)
	}
	if lines[len(lines)-1].End != len(glyphs) {
		t.Errorf("expected last line to end at %d, got %d", len(glyphs), lines[len(lines)-1].End)
	}
}

func TestNarrowerWidthAddsLines(t *testing.T) {
	th := theme.Lookup("default")
	n := element(t, "<p>"+strings.Repeat("word ", 200)+"</p>")
	wide, _ := New(th, contentWidth).Measure(n)
	narrow, _ := New(th, contentWidth/2).Measure(n)
	if narrow.Height <= wide.Height {
		t.Fatalf("expected narrow layout taller than %f, got %f", wide.Height, narrow.Height)
	}
}

func TestPreKeepsLinesAndPadding(t *testing.T) {
	th := theme.Lookup("default")
	p := New(th, contentWidth)
	n := element(t, "<pre><code>a\nb\nc</code></pre>")
	m, err := p.Measure(n)
	if err != nil {
		t.Fatalf("measure: %v", err)
	}
	want := 2*th.CodePadding + 3*th.CodeLine()
	if !near(m.Height, want) {
		t.Fatalf("expected %f, got %f", want, m.Height)
	}
	glyphs, _ := p.Glyphs(n)
	if glyphs[0].Top != th.CodePadding {
		t.Errorf("expected first glyph at padding %f, got %f", th.CodePadding, glyphs[0].Top)
	}
	lines := layout.AnalyzeLines(n, glyphs, m.Height, layout.DefaultLineTolerance)
	if len(lines) != 3 {
		t.Errorf("expected 3 lines, got %d", len(lines))
	}
}

func TestImageSizing(t *testing.T) {
	th := theme.Lookup("default")
	p := New(th, contentWidth)

	m, err := p.Measure(element(t, `<img width="1268" height="400">`))
	if err != nil {
		t.Fatalf("measure: %v", err)
	}
	if !near(m.Height, 200) {
		t.Errorf("expected scaled height 200, got %f", m.Height)
	}

	m, err = p.Measure(element(t, `<img src="missing.png">`))
	if !errors.Is(err, layout.ErrUnmeasurable) {
		t.Fatalf("expected ErrUnmeasurable, got %v", err)
	}
	if m.Height != th.FallbackImage {
		t.Errorf("expected fallback %f, got %f", th.FallbackImage, m.Height)
	}
}

func TestImageFromDataURL(t *testing.T) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 100, 50))); err != nil {
		t.Fatalf("encode: %v", err)
	}
	src := "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
	p := New(theme.Lookup("default"), contentWidth)
	m, err := p.Measure(element(t, `<p><img src="`+src+`"></p>`))
	if err != nil {
		t.Fatalf("measure: %v", err)
	}
	if !near(m.Height, 50) {
		t.Fatalf("expected 50, got %f", m.Height)
	}
}

func TestListAndTableGrowWithContent(t *testing.T) {
	p := New(theme.Lookup("default"), contentWidth)
	one, _ := p.Measure(element(t, "<ul><li>a</li></ul>"))
	three, _ := p.Measure(element(t, "<ul><li>a</li><li>b</li><li>c</li></ul>"))
	if three.Height <= one.Height {
		t.Errorf("expected longer list to be taller: %f vs %f", three.Height, one.Height)
	}
	small, _ := p.Measure(element(t, "<table><tr><td>a</td></tr></table>"))
	big, _ := p.Measure(element(t, "<table><tr><th>a</th><th>b</th></tr><tr><td>c</td><td>d</td></tr></table>"))
	if big.Height <= small.Height {
		t.Errorf("expected two-row table to be taller: %f vs %f", big.Height, small.Height)
	}
}
