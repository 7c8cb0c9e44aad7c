// Package toc assigns heading ids and maps them to page numbers.
package toc

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/cygnusreader/folio/internal/document"
	"github.com/cygnusreader/folio/internal/layout"
	"github.com/cygnusreader/folio/internal/sandbox"
)

var (
	nonWord    = regexp.MustCompile(`[^\p{L}\p{N}_\s-]`)
	whitespace = regexp.MustCompile(`\s+`)
)

// Slugify derives a heading anchor: lowercase, punctuation stripped,
// whitespace runs turned into hyphens, outer hyphens trimmed.
func Slugify(s string) string {
	s = strings.TrimSpace(strings.ToLower(s))
	s = nonWord.ReplaceAllString(s, "")
	s = whitespace.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// Index stamps a unique id on every heading under root, in document order,
// and returns the entries. Headings whose text yields an empty slug are
// removed from the tree. Slugs already taken by other elements get a
// numeric suffix.
func Index(root *html.Node) []document.TocEntry {
	// Ids on other elements stay reserved so a stamped slug never repeats one.
	used := make(map[string]bool)
	var headings []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if sandbox.HeadingLevel(c) > 0 {
				headings = append(headings, c)
			} else if id := sandbox.Attr(c, "id"); c.Type == html.ElementNode && id != "" {
				used[id] = true
			}
			walk(c)
		}
	}
	walk(root)

	var entries []document.TocEntry
	for _, h := range headings {
		text := strings.TrimSpace(layout.Text(h))
		id := Slugify(text)
		if id == "" {
			h.Parent.RemoveChild(h)
			continue
		}
		if used[id] {
			n := 1
			for used[id+"-"+strconv.Itoa(n)] {
				n++
			}
			id = id + "-" + strconv.Itoa(n)
		}
		used[id] = true
		sandbox.SetAttr(h, "id", id)
		entries = append(entries, document.TocEntry{ID: id, Text: text, Level: sandbox.HeadingLevel(h)})
	}
	return entries
}

// Reconcile returns a copy of entries with Page set to the 1-based index of
// the first page containing each id. Ids never found map to page 1.
func Reconcile(pages []document.Page, entries []document.TocEntry) []document.TocEntry {
	out := make([]document.TocEntry, len(entries))
	for i, e := range entries {
		e.Page = 1
		for p := range pages {
			if pages[p].HasID(e.ID) {
				e.Page = p + 1
				break
			}
		}
		out[i] = e
	}
	return out
}
