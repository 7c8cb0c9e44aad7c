// Package paginate splits flowed HTML into fixed-height pages.
//
// A pass mounts the content in a measurement sandbox, indexes headings,
// measures top-level blocks, plans page breaks, materializes fragment
// markup and finally reconciles the table of contents with the pages.
package paginate

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/cygnusreader/folio/internal/document"
	"github.com/cygnusreader/folio/internal/layout"
	"github.com/cygnusreader/folio/internal/render"
	"github.com/cygnusreader/folio/internal/sandbox"
	"github.com/cygnusreader/folio/internal/theme"
	"github.com/cygnusreader/folio/internal/toc"
	"github.com/cygnusreader/folio/internal/typeset"
)

// Options configure one pass. Zero values select the defaults.
type Options struct {
	Theme    theme.Theme
	Geometry document.Geometry
	Policy   Policy
	Probe    layout.Factory
	Logger   *slog.Logger

	// OnPaginated is called with the page count once the result, including
	// the reconciled table of contents, is complete.
	OnPaginated func(total int)
}

func (o Options) withDefaults() Options {
	if o.Theme.Name == "" {
		o.Theme = theme.Lookup(theme.DefaultName)
	}
	if o.Geometry == (document.Geometry{}) {
		o.Geometry = document.DefaultGeometry()
	}
	o.Policy = o.Policy.withDefaults()
	if o.Probe == nil {
		o.Probe = typeset.Factory()
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return o
}

// Paginate runs a full pass over src. It fails only on invalid options or
// when ctx is cancelled before the result is committed; content that cannot
// be measured or split degrades to whole blocks.
func Paginate(ctx context.Context, src string, opts Options) (*document.Result, error) {
	opts = opts.withDefaults()
	if err := opts.Geometry.Validate(); err != nil {
		return nil, fmt.Errorf("geometry: %w", err)
	}
	if err := opts.Policy.Validate(); err != nil {
		return nil, fmt.Errorf("policy: %w", err)
	}
	log := opts.Logger.With("theme", opts.Theme.Name)
	start := time.Now()

	sb, err := sandbox.Mount(ctx, src, sandbox.Config{
		Theme:     opts.Theme,
		Width:     opts.Geometry.ContentWidth(),
		Factory:   opts.Probe,
		Tolerance: opts.Policy.LineTolerance,
		Logger:    log,
	})
	if err != nil {
		return nil, fmt.Errorf("mount: %w", err)
	}
	defer sb.Close()

	root, err := sb.Root()
	if err != nil {
		return nil, err
	}
	entries := toc.Index(root)

	blocks, err := sb.Blocks()
	if err != nil {
		return nil, fmt.Errorf("measure: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pages := Plan(blocks, sb, opts.Geometry.Capacity(), opts.Policy, log)
	render.Materialize(pages)
	res := &document.Result{
		Pages: pages,
		Toc:   toc.Reconcile(pages, entries),
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	log.Info("pagination complete",
		"blocks", len(blocks),
		"pages", res.TotalPages(),
		"toc_entries", len(res.Toc),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	if opts.OnPaginated != nil {
		opts.OnPaginated(res.TotalPages())
	}
	return res, nil
}
