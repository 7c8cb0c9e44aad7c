package source

import (
	"fmt"
	"io"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// HTML extracts the body of an HTML file with scripts and styles dropped.
type HTML struct{}

func (p *HTML) Convert(r io.Reader, filename string) (*Document, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	out := &Document{Title: baseTitle(filename)}
	if t := findElement(doc, atom.Title); t != nil {
		if title := textContent(t); title != "" {
			out.Title = title
		}
	}
	body := findElement(doc, atom.Body)
	if body == nil {
		body = doc
	}
	(&cleaner{}).clean(body)
	if out.HTML, err = renderChildren(body); err != nil {
		return nil, err
	}
	return out, nil
}
