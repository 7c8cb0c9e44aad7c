package paginate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/cygnusreader/folio/internal/document"
	"github.com/cygnusreader/folio/internal/theme"
)

func longDocument() string {
	var b strings.Builder
	for s := 1; s <= 4; s++ {
		fmt.Fprintf(&b, "<h1>Chapter %d</h1>\n", s)
		for p := 0; p < 6; p++ {
			fmt.Fprintf(&b, "<h2>Section %d.%d</h2>\n<p>%s</p>\n", s, p, strings.Repeat("The planner measures every block before it decides where a page ends. ", 12))
		}
		b.WriteString("<pre><code>")
		for l := 0; l < 30; l++ {
			fmt.Fprintf(&b, "line %d := compute(%d)\n", l, l)
		}
		b.WriteString("</code></pre>\n")
	}
	return b.String()
}

func TestPaginateShortDocument(t *testing.T) {
	var notified int
	res, err := Paginate(context.Background(), "<h1>Title</h1><p>One short paragraph of text.</p>", Options{
		OnPaginated: func(total int) { notified = total },
	})
	if err != nil {
		t.Fatalf("paginate: %v", err)
	}
	if res.TotalPages() != 1 {
		t.Fatalf("expected 1 page, got %d", res.TotalPages())
	}
	if len(res.Toc) != 1 || res.Toc[0].ID != "title" || res.Toc[0].Page != 1 {
		t.Fatalf("expected toc [title p1], got %+v", res.Toc)
	}
	if notified != 1 {
		t.Errorf("expected paginated notification with 1, got %d", notified)
	}
	if res.Pages[0].Blocks[0].Markup == "" {
		t.Errorf("expected materialized markup")
	}
}

func TestPaginateDuplicateHeadings(t *testing.T) {
	res, err := Paginate(context.Background(), "<h2>Intro</h2><p>a</p><h2>Intro</h2><p>b</p>", Options{})
	if err != nil {
		t.Fatalf("paginate: %v", err)
	}
	if res.Toc[0].ID != "intro" || res.Toc[1].ID != "intro-1" {
		t.Fatalf("expected intro and intro-1, got %+v", res.Toc)
	}
	if !strings.Contains(res.Pages[0].Blocks[2].Block.HTML, `id="intro-1"`) {
		t.Errorf("expected stamped id in block markup, got %s", res.Pages[0].Blocks[2].Block.HTML)
	}
}

func TestPaginateLongDocument(t *testing.T) {
	res, err := Paginate(context.Background(), longDocument(), Options{Theme: theme.Lookup("academic")})
	if err != nil {
		t.Fatalf("paginate: %v", err)
	}
	if res.TotalPages() < 4 {
		t.Fatalf("expected at least 4 pages, got %d", res.TotalPages())
	}
	capacity := document.DefaultGeometry().Capacity()
	for i, p := range res.Pages {
		if len(p.Blocks) > 1 && p.Height > capacity+0.01 {
			t.Errorf("page %d: height %f exceeds capacity %f", i+1, p.Height, capacity)
		}
		for j, pb := range p.Blocks {
			if j > 0 && pb.Block.Level == 1 {
				t.Errorf("page %d: h1 not at top", i+1)
			}
		}
	}
	for _, e := range res.Toc {
		want := 0
		for i := range res.Pages {
			if res.Pages[i].HasID(e.ID) {
				want = i + 1
				break
			}
		}
		if want != e.Page {
			t.Errorf("toc %q: expected page %d, got %d", e.ID, want, e.Page)
		}
	}
	if len(res.Toc) != 28 {
		t.Errorf("expected 28 toc entries, got %d", len(res.Toc))
	}
}

func TestPaginateIsIdempotent(t *testing.T) {
	src := longDocument()
	a, err := Paginate(context.Background(), src, Options{})
	if err != nil {
		t.Fatalf("paginate: %v", err)
	}
	b, err := Paginate(context.Background(), src, Options{})
	if err != nil {
		t.Fatalf("paginate: %v", err)
	}
	if a.TotalPages() != b.TotalPages() {
		t.Fatalf("expected %d pages, got %d", a.TotalPages(), b.TotalPages())
	}
	for i := range a.Pages {
		if len(a.Pages[i].Blocks) != len(b.Pages[i].Blocks) {
			t.Fatalf("page %d: block count differs", i+1)
		}
		for j := range a.Pages[i].Blocks {
			x, y := a.Pages[i].Blocks[j], b.Pages[i].Blocks[j]
			if x.Block.Index != y.Block.Index || x.ClipTop != y.ClipTop || x.ClipHeight != y.ClipHeight {
				t.Fatalf("page %d block %d differs", i+1, j)
			}
		}
	}
}

func TestPaginateCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	called := false
	_, err := Paginate(ctx, "<p>x</p>", Options{OnPaginated: func(int) { called = true }})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if called {
		t.Errorf("expected no notification for a cancelled pass")
	}
}

func TestPaginateRejectsBadGeometry(t *testing.T) {
	_, err := Paginate(context.Background(), "<p>x</p>", Options{Geometry: document.Geometry{Width: 100, Height: 100, Padding: 60}})
	if err == nil {
		t.Fatal("expected geometry error")
	}
}

func TestPaginateEmptyDocument(t *testing.T) {
	res, err := Paginate(context.Background(), "   ", Options{})
	if err != nil {
		t.Fatalf("paginate: %v", err)
	}
	if res.TotalPages() != 0 || len(res.Toc) != 0 {
		t.Fatalf("expected empty result, got %d pages", res.TotalPages())
	}
}
