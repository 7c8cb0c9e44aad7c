// Package search finds text in a paginated document. Matching ignores case
// and diacritics, and every hit is reported on the page that shows it.
package search

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/cygnusreader/folio/internal/document"
)

// SnippetRadius is the context kept on each side of a hit, in runes.
const SnippetRadius = 30

// Match is one hit. Offset and Length are in runes of the block text.
type Match struct {
	Page    int    `json:"page"` // 1-based
	Block   int    `json:"block"`
	Offset  int    `json:"offset"`
	Length  int    `json:"length"`
	Snippet string `json:"snippet"`
}

type folder struct {
	strip transform.Transformer
	fold  cases.Caser
}

func newFolder() *folder {
	return &folder{
		strip: transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC),
		fold:  cases.Fold(),
	}
}

func (f *folder) foldString(s string) string {
	out, _, err := transform.String(f.strip, s)
	if err != nil {
		out = s
	}
	return f.fold.String(out)
}

// foldText folds s rune by rune and returns the folded runes with, for each,
// the index of the source rune it came from.
func (f *folder) foldText(s string) ([]rune, []int) {
	var folded []rune
	var origin []int
	for i, r := range []rune(s) {
		for _, fr := range f.foldString(string(r)) {
			folded = append(folded, fr)
			origin = append(origin, i)
		}
	}
	return folded, origin
}

// Find returns the non-overlapping hits of query in page order. A block
// split across pages is searched once; each hit goes to the fragment whose
// lines contain it.
func Find(pages []document.Page, query string) []Match {
	if strings.TrimSpace(query) == "" {
		return nil
	}
	f := newFolder()
	q := []rune(f.foldString(query))
	if len(q) == 0 {
		return nil
	}

	seen := make(map[int]bool)
	var out []Match
	for pi, page := range pages {
		for _, pb := range page.Blocks {
			b := pb.Block
			if seen[b.Index] {
				continue
			}
			seen[b.Index] = true
			out = append(out, f.block(pages, pi, b, q)...)
		}
	}
	return out
}

func (f *folder) block(pages []document.Page, first int, b document.Block, q []rune) []Match {
	text, origin := f.foldText(b.Text)
	src := []rune(b.Text)
	var out []Match
	for i := 0; i+len(q) <= len(text); {
		if !equal(text[i:i+len(q)], q) {
			i++
			continue
		}
		start := origin[i]
		end := origin[i+len(q)-1] + 1
		out = append(out, Match{
			Page:    locate(pages, first, b.Index, start),
			Block:   b.Index,
			Offset:  start,
			Length:  end - start,
			Snippet: snippet(src, start, end),
		})
		i += len(q)
	}
	return out
}

func equal(a, b []rune) bool {
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// locate returns the 1-based page of the fragment of block idx showing
// rune offset. Whole blocks live on the first page they appear on.
func locate(pages []document.Page, first, idx, offset int) int {
	for pi := first; pi < len(pages); pi++ {
		for _, pb := range pages[pi].Blocks {
			if pb.Block.Index != idx {
				continue
			}
			if !pb.Partial {
				return pi + 1
			}
			lines := pb.Block.Lines
			last := pb.FirstLine + pb.LineCount - 1
			if pb.FirstLine < 0 || last >= len(lines) || pb.LineCount <= 0 {
				return first + 1
			}
			if offset < lines[last].End || last == len(lines)-1 {
				return pi + 1
			}
		}
	}
	return first + 1
}

func snippet(src []rune, start, end int) string {
	from := max(0, start-SnippetRadius)
	to := min(len(src), end+SnippetRadius)
	s := strings.Join(strings.Fields(string(src[from:to])), " ")
	if from > 0 {
		s = "…" + s
	}
	if to < len(src) {
		s += "…"
	}
	return s
}

// Next advances a match cursor, wrapping to the first match.
func Next(i, count int) int {
	if count <= 0 {
		return 0
	}
	return (i + 1) % count
}

// Prev moves a match cursor back, wrapping to the last match.
func Prev(i, count int) int {
	if count <= 0 {
		return 0
	}
	return (i - 1 + count) % count
}
