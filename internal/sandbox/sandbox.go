// Package sandbox mounts flowed HTML off-screen and measures its top-level
// blocks with a layout probe.
package sandbox

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/cygnusreader/folio/internal/document"
	"github.com/cygnusreader/folio/internal/layout"
	"github.com/cygnusreader/folio/internal/theme"
)

// ErrClosed is returned by every call on a closed sandbox.
var ErrClosed = errors.New("sandbox is closed")

// Config selects how content is measured.
type Config struct {
	Theme     theme.Theme
	Width     float64
	Factory   layout.Factory
	Tolerance float64
	Logger    *slog.Logger
}

// Sandbox owns the mounted DOM and the probe for one pagination pass.
type Sandbox struct {
	root      *html.Node
	probe     layout.Probe
	tolerance float64
	log       *slog.Logger
	nodes     []*html.Node
	closed    bool
}

// Mount parses src under a content root styled with the theme class.
// Callers must Close the sandbox when the pass ends.
func Mount(ctx context.Context, src string, cfg Config) (*Sandbox, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if cfg.Factory == nil {
		return nil, errors.New("sandbox: no probe factory")
	}
	if cfg.Width <= 0 {
		return nil, fmt.Errorf("sandbox: content width must be positive, got %g", cfg.Width)
	}
	log := cfg.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	tol := cfg.Tolerance
	if tol <= 0 {
		tol = layout.DefaultLineTolerance
	}

	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(src), body)
	if err != nil {
		return nil, fmt.Errorf("parse content: %w", err)
	}
	root := &html.Node{
		Type:     html.ElementNode,
		Data:     "div",
		DataAtom: atom.Div,
		Attr:     []html.Attribute{{Key: "class", Val: "folio-content " + cfg.Theme.Class()}},
	}
	var inline []*html.Node
	flush := func() {
		if len(inline) == 0 {
			return
		}
		p := &html.Node{Type: html.ElementNode, Data: "p", DataAtom: atom.P}
		for _, n := range inline {
			p.AppendChild(n)
		}
		inline = nil
		if strings.TrimSpace(layout.Text(p)) != "" || hasElement(p) {
			root.AppendChild(p)
		}
	}
	for _, n := range nodes {
		switch {
		case n.Type == html.ElementNode && (layout.IsBlock(n) || n.DataAtom == atom.Img):
			flush()
			root.AppendChild(n)
		case n.Type == html.TextNode || n.Type == html.ElementNode:
			inline = append(inline, n)
		}
	}
	flush()

	return &Sandbox{
		root:      root,
		probe:     cfg.Factory(cfg.Theme, cfg.Width),
		tolerance: tol,
		log:       log,
	}, nil
}

func hasElement(n *html.Node) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			return true
		}
	}
	return false
}

// Root returns the mounted content root.
func (s *Sandbox) Root() (*html.Node, error) {
	if s.closed {
		return nil, ErrClosed
	}
	return s.root, nil
}

// Blocks measures the current top-level elements of the root. A block the
// probe cannot size keeps the probe's estimate and is marked Unmeasured.
func (s *Sandbox) Blocks() ([]document.Block, error) {
	if s.closed {
		return nil, ErrClosed
	}
	s.nodes = s.nodes[:0]
	var blocks []document.Block
	for n := s.root.FirstChild; n != nil; n = n.NextSibling {
		if n.Type != html.ElementNode {
			continue
		}
		b, err := s.block(len(blocks), n)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, b)
		s.nodes = append(s.nodes, n)
	}
	return blocks, nil
}

func (s *Sandbox) block(idx int, n *html.Node) (document.Block, error) {
	var sb strings.Builder
	if err := html.Render(&sb, n); err != nil {
		return document.Block{}, fmt.Errorf("serialize block %d: %w", idx, err)
	}
	b := document.Block{
		Index: idx,
		Tag:   n.Data,
		Kind:  KindOf(n),
		Level: HeadingLevel(n),
		ID:    Attr(n, "id"),
		IDs:   collectIDs(n),
		HTML:  sb.String(),
		Text:  layout.Text(n),
	}
	m, err := s.probe.Measure(n)
	if err != nil {
		s.log.Warn("block measurement failed", "block", idx, "tag", b.Tag, "estimate_px", m.Height, "error", err)
		b.Unmeasured = true
	}
	b.Height = nonNegative(m.Height)
	b.MarginBottom = nonNegative(m.MarginBottom)
	return b, nil
}

func nonNegative(v float64) float64 {
	if v > 0 {
		return v
	}
	return 0
}

// Lines returns the measured text lines of a block produced by Blocks.
func (s *Sandbox) Lines(b *document.Block) ([]document.Line, error) {
	if s.closed {
		return nil, ErrClosed
	}
	if b.Index < 0 || b.Index >= len(s.nodes) {
		return nil, fmt.Errorf("block %d is not mounted", b.Index)
	}
	n := s.nodes[b.Index]
	glyphs, err := s.probe.Glyphs(n)
	if err != nil {
		return nil, fmt.Errorf("glyphs for block %d: %w", b.Index, err)
	}
	return layout.AnalyzeLines(n, glyphs, b.Height, s.tolerance), nil
}

// Close releases the probe and the mounted tree. It is safe to call twice.
func (s *Sandbox) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.root = nil
	s.nodes = nil
	if c, ok := s.probe.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
