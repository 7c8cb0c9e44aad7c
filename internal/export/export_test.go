package export

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"strings"
	"testing"

	"github.com/fumiama/go-docx"
	pdflib "github.com/ledongthuc/pdf"

	"github.com/cygnusreader/folio/internal/document"
	"github.com/cygnusreader/folio/internal/paginate"
	"github.com/cygnusreader/folio/internal/theme"
)

func pngDataURL(t *testing.T) string {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewGray(image.Rect(0, 0, 40, 20))); err != nil {
		t.Fatal(err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

func paginated(t *testing.T, themeName string) *Document {
	t.Helper()
	var b strings.Builder
	b.WriteString("<h1>First Chapter</h1>\n")
	for i := 0; i < 12; i++ {
		fmt.Fprintf(&b, "<p>%s</p>\n", strings.Repeat("Export keeps the measured layout of every page. ", 10))
	}
	b.WriteString("<pre><code>fmt.Println(\"hello\")\nreturn nil</code></pre>\n")
	b.WriteString("<ul><li>alpha</li><li>beta</li></ul>\n")
	b.WriteString("<table><tr><th>Key</th><th>Value</th></tr><tr><td>a</td><td>1</td></tr></table>\n")
	fmt.Fprintf(&b, "<p><img src=\"%s\" alt=\"square\" width=\"40\" height=\"20\"></p>\n", pngDataURL(t))
	b.WriteString("<h1>Second Chapter</h1>\n<blockquote><p>Quoted words.</p></blockquote>\n<hr>\n<p>The end.</p>\n")

	th := theme.Lookup(themeName)
	res, err := paginate.Paginate(context.Background(), b.String(), paginate.Options{Theme: th})
	if err != nil {
		t.Fatalf("paginate: %v", err)
	}
	return &Document{
		Title:    "Export Test",
		Pages:    res.Pages,
		Toc:      res.Toc,
		Theme:    th,
		Geometry: document.DefaultGeometry(),
	}
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat(" PDF ")
	if err != nil || f != FormatPDF {
		t.Fatalf("expected pdf, got %q (%v)", f, err)
	}
	if _, err := ParseFormat("odt"); !errors.Is(err, ErrUnknownFormat) {
		t.Fatalf("expected ErrUnknownFormat, got %v", err)
	}
	if FormatDOCX.ContentType() == FormatPDF.ContentType() {
		t.Errorf("expected distinct content types")
	}
}

func TestHTMLEmitsSplitBlockOnce(t *testing.T) {
	block := document.Block{Index: 0, Kind: document.KindParagraph, Tag: "p", HTML: "<p>spanning text</p>", Height: 400}
	doc := &Document{
		Title: "Split",
		Pages: []document.Page{
			{Blocks: []document.PageBlock{{Block: block, Partial: true, ClipTop: 0, ClipHeight: 200}}},
			{Blocks: []document.PageBlock{{Block: block, Partial: true, ClipTop: 200, ClipHeight: 200}}},
		},
		Theme:    theme.Lookup("default"),
		Geometry: document.DefaultGeometry(),
	}
	var buf bytes.Buffer
	if err := HTML(&buf, doc); err != nil {
		t.Fatalf("html: %v", err)
	}
	out := buf.String()
	if !strings.HasPrefix(out, "<!DOCTYPE html>") {
		t.Errorf("expected a standalone document, got %q", out[:40])
	}
	if n := strings.Count(out, "spanning text"); n != 1 {
		t.Errorf("expected split block once, got %d", n)
	}
	if strings.Contains(out, "folio-fragment") {
		t.Errorf("expected no clip wrappers in print output")
	}
	if !strings.Contains(out, "<title>Split</title>") {
		t.Errorf("expected title in head")
	}
}

func TestPDFMatchesPageCount(t *testing.T) {
	doc := paginated(t, "default")
	if len(doc.Pages) < 2 {
		t.Fatalf("expected several layout pages, got %d", len(doc.Pages))
	}
	var buf bytes.Buffer
	if err := PDF(&buf, doc); err != nil {
		t.Fatalf("pdf: %v", err)
	}
	data := buf.Bytes()
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		t.Fatalf("expected PDF header")
	}
	r, err := pdflib.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if r.NumPage() != len(doc.Pages) {
		t.Errorf("expected %d pdf pages, got %d", len(doc.Pages), r.NumPage())
	}
}

func TestPDFDarkThemeAndEmptyDocument(t *testing.T) {
	var buf bytes.Buffer
	doc := &Document{Title: "Empty", Theme: theme.Lookup("dark"), Geometry: document.DefaultGeometry()}
	if err := PDF(&buf, doc); err != nil {
		t.Fatalf("pdf: %v", err)
	}
	if buf.Len() == 0 {
		t.Fatalf("expected output for an empty document")
	}
}

func docxTexts(t *testing.T, data []byte) []string {
	t.Helper()
	d, err := docx.Parse(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	var out []string
	for _, item := range d.Document.Body.Items {
		para, ok := item.(*docx.Paragraph)
		if !ok {
			continue
		}
		var b strings.Builder
		for _, child := range para.Children {
			run, ok := child.(*docx.Run)
			if !ok {
				continue
			}
			for _, rc := range run.Children {
				if txt, ok := rc.(*docx.Text); ok {
					b.WriteString(txt.Text)
				}
			}
		}
		if s := strings.TrimSpace(b.String()); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func TestDOCXContent(t *testing.T) {
	doc := paginated(t, "academic")
	var buf bytes.Buffer
	if err := DOCX(&buf, doc); err != nil {
		t.Fatalf("docx: %v", err)
	}
	texts := docxTexts(t, buf.Bytes())
	joined := strings.Join(texts, "\n")
	for _, want := range []string{"First Chapter", "Second Chapter", "fmt.Println(\"hello\")", "• alpha", "• beta", "Quoted words.", "The end."} {
		if !strings.Contains(joined, want) {
			t.Errorf("expected %q in docx text", want)
		}
	}
	if n := strings.Count(joined, "Export keeps the measured layout"); n != 12*10 {
		t.Errorf("expected each paragraph once, got %d sentences", n)
	}
}

func TestAllWritesEveryFormat(t *testing.T) {
	doc := paginated(t, "minimal")
	outs := map[Format]*bytes.Buffer{FormatHTML: {}, FormatPDF: {}, FormatDOCX: {}}
	writers := make(map[Format]io.Writer, len(outs))
	for f, b := range outs {
		writers[f] = b
	}
	if err := All(context.Background(), doc, writers); err != nil {
		t.Fatalf("all: %v", err)
	}
	for f, b := range outs {
		if b.Len() == 0 {
			t.Errorf("expected %s output", f)
		}
	}
}

func TestAllHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var buf bytes.Buffer
	err := All(ctx, &Document{Theme: theme.Lookup("default"), Geometry: document.DefaultGeometry()}, map[Format]io.Writer{FormatHTML: &buf})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestBundleHoldsEveryFormat(t *testing.T) {
	doc := paginated(t, "default")
	var buf bytes.Buffer
	if err := Bundle(context.Background(), &buf, doc, "guide"); err != nil {
		t.Fatalf("bundle: %v", err)
	}
	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("open zip: %v", err)
	}
	want := []string{"guide.html", "guide.pdf", "guide.docx"}
	if len(zr.File) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(zr.File))
	}
	for i, f := range zr.File {
		if f.Name != want[i] {
			t.Errorf("expected entry %d to be %s, got %s", i, want[i], f.Name)
		}
		if f.UncompressedSize64 == 0 {
			t.Errorf("expected %s to have content", f.Name)
		}
	}
}

func TestBundleHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var buf bytes.Buffer
	err := Bundle(ctx, &buf, &Document{Theme: theme.Lookup("default"), Geometry: document.DefaultGeometry()}, "empty")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if buf.Len() != 0 {
		t.Errorf("expected nothing written, got %d bytes", buf.Len())
	}
}
