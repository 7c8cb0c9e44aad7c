package search

import (
	"testing"

	"github.com/cygnusreader/folio/internal/document"
)

func whole(idx int, text string) document.PageBlock {
	return document.PageBlock{Block: document.Block{Index: idx, Kind: document.KindParagraph, Text: text}}
}

func TestFindIgnoresCaseAndDiacritics(t *testing.T) {
	pages := []document.Page{
		{Blocks: []document.PageBlock{whole(0, "The Café opened."), whole(1, "nothing here")}},
		{Blocks: []document.PageBlock{whole(2, "CAFE society and another cafe")}},
	}
	got := Find(pages, "café")
	if len(got) != 3 {
		t.Fatalf("expected 3 matches, got %d: %+v", len(got), got)
	}
	if got[0].Page != 1 || got[0].Block != 0 || got[0].Offset != 4 || got[0].Length != 4 {
		t.Errorf("unexpected first match %+v", got[0])
	}
	if got[1].Page != 2 || got[1].Offset != 0 {
		t.Errorf("unexpected second match %+v", got[1])
	}
	if got[2].Offset != 25 {
		t.Errorf("expected offset 25, got %d", got[2].Offset)
	}
}

func TestFindNonOverlapping(t *testing.T) {
	pages := []document.Page{{Blocks: []document.PageBlock{whole(0, "aaaa")}}}
	if got := Find(pages, "aa"); len(got) != 2 || got[1].Offset != 2 {
		t.Fatalf("expected 2 non-overlapping matches, got %+v", got)
	}
}

func TestFindEmptyQuery(t *testing.T) {
	pages := []document.Page{{Blocks: []document.PageBlock{whole(0, "text")}}}
	if got := Find(pages, "   "); got != nil {
		t.Fatalf("expected no matches, got %+v", got)
	}
}

func TestFindAttributesSplitBlockToFragment(t *testing.T) {
	text := "first line\nsecond line\nthird needle"
	block := document.Block{
		Index: 0,
		Kind:  document.KindParagraph,
		Text:  text,
		Lines: []document.Line{
			{Top: 0, Height: 20, Start: 0, End: 11},
			{Top: 20, Height: 20, Start: 11, End: 23},
			{Top: 40, Height: 20, Start: 23, End: 35},
		},
	}
	pages := []document.Page{
		{Blocks: []document.PageBlock{{Block: block, Partial: true, ClipHeight: 40, FirstLine: 0, LineCount: 2}}},
		{Blocks: []document.PageBlock{{Block: block, Partial: true, ClipTop: 40, ClipHeight: 20, FirstLine: 2, LineCount: 1}}},
	}
	got := Find(pages, "needle")
	if len(got) != 1 {
		t.Fatalf("expected 1 match, got %+v", got)
	}
	if got[0].Page != 2 {
		t.Errorf("expected page 2, got %d", got[0].Page)
	}
	if got := Find(pages, "line"); len(got) != 2 || got[0].Page != 1 || got[1].Page != 1 {
		t.Errorf("expected both line hits on page 1, got %+v", got)
	}
}

func TestSnippet(t *testing.T) {
	long := "0123456789012345678901234567890123456789 needle 0123456789012345678901234567890123456789"
	pages := []document.Page{{Blocks: []document.PageBlock{whole(0, long)}}}
	got := Find(pages, "needle")
	if len(got) != 1 {
		t.Fatalf("expected 1 match, got %d", len(got))
	}
	s := []rune(got[0].Snippet)
	if s[0] != '…' || s[len(s)-1] != '…' {
		t.Errorf("expected ellipses on both sides, got %q", got[0].Snippet)
	}
}

func TestCursorWraps(t *testing.T) {
	if Next(2, 3) != 0 || Next(0, 3) != 1 {
		t.Errorf("next did not wrap")
	}
	if Prev(0, 3) != 2 || Prev(2, 3) != 1 {
		t.Errorf("prev did not wrap")
	}
	if Next(5, 0) != 0 || Prev(5, 0) != 0 {
		t.Errorf("expected 0 with no matches")
	}
}
