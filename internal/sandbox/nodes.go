package sandbox

import (
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/cygnusreader/folio/internal/document"
)

// KindOf classifies an element by its tag.
func KindOf(n *html.Node) document.Kind {
	switch n.DataAtom {
	case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
		return document.KindHeading
	case atom.P:
		return document.KindParagraph
	case atom.Pre:
		return document.KindCode
	case atom.Ul, atom.Ol, atom.Dl:
		return document.KindList
	case atom.Table:
		return document.KindTable
	case atom.Img, atom.Figure, atom.Svg:
		return document.KindImage
	case atom.Hr:
		return document.KindRule
	case atom.Blockquote:
		return document.KindQuote
	}
	return document.KindOther
}

// HeadingLevel returns 1-6 for h1-h6 and 0 otherwise.
func HeadingLevel(n *html.Node) int {
	if n == nil || n.Type != html.ElementNode {
		return 0
	}
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

// Attr returns the value of an attribute, or "".
func Attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// SetAttr replaces or adds an attribute.
func SetAttr(n *html.Node, key, val string) {
	for i := range n.Attr {
		if n.Attr[i].Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func collectIDs(n *html.Node) []string {
	var ids []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type != html.ElementNode {
			return
		}
		if id := Attr(n, "id"); id != "" {
			ids = append(ids, id)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return ids
}
