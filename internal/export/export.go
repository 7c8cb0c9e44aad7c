// Package export writes a paginated document as HTML, PDF or DOCX using
// the template it was laid out with.
package export

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/sync/errgroup"

	"github.com/cygnusreader/folio/internal/document"
	"github.com/cygnusreader/folio/internal/theme"
)

// Format names an export target.
type Format string

const (
	FormatHTML Format = "html"
	FormatPDF  Format = "pdf"
	FormatDOCX Format = "docx"
)

// ErrUnknownFormat is returned by ParseFormat.
var ErrUnknownFormat = errors.New("unknown export format")

// ParseFormat accepts the lowercase format names.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatHTML, FormatPDF, FormatDOCX:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// ContentType is the MIME type served for the format.
func (f Format) ContentType() string {
	switch f {
	case FormatPDF:
		return "application/pdf"
	case FormatDOCX:
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	}
	return "text/html; charset=utf-8"
}

// Document is everything an exporter needs. Theme and Geometry must be the
// ones the pages were planned with.
type Document struct {
	Title    string
	Pages    []document.Page
	Toc      []document.TocEntry
	Theme    theme.Theme
	Geometry document.Geometry
}

// Write renders doc in format f.
func Write(w io.Writer, f Format, doc *Document) error {
	switch f {
	case FormatHTML:
		return HTML(w, doc)
	case FormatPDF:
		return PDF(w, doc)
	case FormatDOCX:
		return DOCX(w, doc)
	}
	return fmt.Errorf("%w: %q", ErrUnknownFormat, f)
}

// All renders every requested format concurrently. The first failure
// cancels formats that have not started.
func All(ctx context.Context, doc *Document, outs map[Format]io.Writer) error {
	g, ctx := errgroup.WithContext(ctx)
	for f, w := range outs {
		f, w := f, w
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := Write(w, f, doc); err != nil {
				return fmt.Errorf("export %s: %w", f, err)
			}
			return nil
		})
	}
	return g.Wait()
}

// blockNode parses block markup back into its element.
func blockNode(markup string) (*html.Node, error) {
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(markup), body)
	if err != nil {
		return nil, err
	}
	for _, n := range nodes {
		if n.Type == html.ElementNode {
			return n, nil
		}
	}
	return nil, errors.New("block has no element")
}

func findAll(n *html.Node, a atom.Atom) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == a {
			out = append(out, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return out
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
