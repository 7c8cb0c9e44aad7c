package source

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	ghtml "github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"golang.org/x/net/html"
)

// Markdown renders CommonMark with GFM tables, strikethrough, task lists,
// footnotes and definition lists. Raw HTML passes through.
type Markdown struct {
	BaseDir string
}

var markdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM, extension.Footnote, extension.DefinitionList),
	goldmark.WithParserOptions(parser.WithAttribute()),
	goldmark.WithRendererOptions(ghtml.WithUnsafe()),
)

func (m *Markdown) Convert(r io.Reader, filename string) (*Document, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read markdown: %w", err)
	}
	root := markdown.Parser().Parse(text.NewReader(src))

	var buf bytes.Buffer
	if err := markdown.Renderer().Render(&buf, src, root); err != nil {
		return nil, fmt.Errorf("render markdown: %w", err)
	}

	doc := &Document{Title: baseTitle(filename), HTML: buf.String()}
	if t := firstHeading(root, src); t != "" {
		doc.Title = t
	}
	if m.BaseDir != "" {
		out, err := inlineImages(doc.HTML, m.BaseDir)
		if err != nil {
			return nil, err
		}
		doc.HTML = out
	}
	return doc, nil
}

func firstHeading(root ast.Node, src []byte) string {
	for n := root.FirstChild(); n != nil; n = n.NextSibling() {
		h, ok := n.(*ast.Heading)
		if !ok || h.Level != 1 {
			continue
		}
		var b strings.Builder
		for c := h.FirstChild(); c != nil; c = c.NextSibling() {
			if t, ok := c.(*ast.Text); ok {
				b.Write(t.Segment.Value(src))
			}
		}
		return strings.TrimSpace(b.String())
	}
	return ""
}

// inlineImages replaces relative img sources under baseDir with data URLs.
// Images that cannot be read keep their original source.
func inlineImages(markup, baseDir string) (string, error) {
	nodes, err := parseBody(markup)
	if err != nil {
		return "", err
	}
	for _, n := range nodes {
		walkElements(n, func(el *html.Node) {
			if el.Data != "img" {
				return
			}
			src := getAttr(el, "src")
			if src == "" || strings.Contains(src, "://") || strings.HasPrefix(src, "data:") {
				return
			}
			path := filepath.Join(baseDir, filepath.FromSlash(src))
			data, err := os.ReadFile(path)
			if err != nil {
				return
			}
			setAttr(el, "src", dataURL(mime.TypeByExtension(filepath.Ext(path)), data))
		})
	}
	return renderNodes(nodes)
}

func dataURL(mediaType string, data []byte) string {
	if mediaType == "" {
		mediaType = "application/octet-stream"
	}
	return "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(data)
}
