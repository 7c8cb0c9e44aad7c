package paginate

import (
	"io"
	"log/slog"
	"math"

	"github.com/cygnusreader/folio/internal/document"
)

// LineSource yields measured lines for a splittable block.
type LineSource interface {
	Lines(b *document.Block) ([]document.Line, error)
}

// Plan walks blocks once and groups them into pages of at most capacity px.
// A block taller than capacity that cannot be split is placed alone on its
// own page and allowed to overflow it.
func Plan(blocks []document.Block, src LineSource, capacity float64, policy Policy, log *slog.Logger) []document.Page {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	p := &planner{
		policy:   policy.withDefaults(),
		capacity: capacity,
		src:      src,
		log:      log,
		lines:    make(map[int][]document.Line),
	}
	for i := range blocks {
		var next *document.Block
		if i+1 < len(blocks) {
			next = &blocks[i+1]
		}
		p.place(&blocks[i], next)
	}
	p.close()
	return p.pages
}

type planner struct {
	policy   Policy
	capacity float64
	src      LineSource
	log      *slog.Logger
	lines    map[int][]document.Line
	failed   map[int]bool

	pages []document.Page
	cur   document.Page
}

func (p *planner) remaining() float64 {
	return p.capacity - p.cur.Height
}

func (p *planner) empty() bool {
	return len(p.cur.Blocks) == 0
}

func (p *planner) close() {
	if p.empty() {
		return
	}
	p.pages = append(p.pages, p.cur)
	p.cur = document.Page{}
}

func (p *planner) add(pb document.PageBlock, height float64) {
	p.cur.Blocks = append(p.cur.Blocks, pb)
	p.cur.Height += height
}

func (p *planner) place(b, next *document.Block) {
	total := b.Outer()

	if b.Level == 1 && !p.empty() {
		p.close()
	}

	if b.IsHeading() && next != nil && !p.empty() && total <= p.remaining() {
		if p.strandsHeading(total, next) {
			p.close()
		}
	}

	if total <= p.remaining() {
		p.add(document.PageBlock{Block: *b}, total)
		return
	}

	if p.split(b) {
		return
	}

	p.close()
	p.add(document.PageBlock{Block: *b}, total)
	if total >= p.capacity {
		p.close()
	}
}

// strandsHeading reports whether placing a heading of height total on the
// open page would leave it without its following content.
func (p *planner) strandsHeading(total float64, next *document.Block) bool {
	after := p.remaining() - total
	nextTotal := next.Outer()
	if nextTotal > after && !p.splitsInto(next, after) {
		return true
	}
	if next.IsHeading() && after-nextTotal < p.capacity*p.policy.HeadingGuardRatio {
		return true
	}
	return false
}

// splitsInto reports whether b could start in space px with at least the
// orphan minimum of lines.
func (p *planner) splitsInto(b *document.Block, space float64) bool {
	lines, avg, ok := p.measure(b)
	if !ok {
		return false
	}
	return p.fit(space, avg, len(lines)) >= p.policy.OrphanLines
}

// measure returns the lines of a splittable block and their average height.
func (p *planner) measure(b *document.Block) ([]document.Line, float64, bool) {
	if !b.Kind.Splittable() || b.Unmeasured || b.Height <= 0 {
		return nil, 0, false
	}
	lines, ok := p.lines[b.Index]
	if !ok {
		if p.failed[b.Index] {
			return nil, 0, false
		}
		var err error
		lines, err = p.src.Lines(b)
		if err != nil {
			p.log.Warn("line analysis failed", "block", b.Index, "tag", b.Tag, "error", err)
			if p.failed == nil {
				p.failed = make(map[int]bool)
			}
			p.failed[b.Index] = true
			return nil, 0, false
		}
		p.lines[b.Index] = lines
	}
	if len(lines) < p.policy.MinSplitLines {
		return nil, 0, false
	}
	avg := b.Height / float64(len(lines))
	if avg <= 0 || math.IsInf(avg, 0) || math.IsNaN(avg) {
		return nil, 0, false
	}
	return lines, avg, true
}

// fit returns how many of total lines of height avg to place in space,
// after the orphan and widow rules.
func (p *planner) fit(space, avg float64, total int) int {
	if space <= 0 {
		return 0
	}
	n := int(math.Floor(space/avg + 1e-9))
	if n > total {
		n = total
	}
	if n < p.policy.OrphanLines {
		n = 0
	}
	if rest := total - n; rest > 0 && rest < p.policy.WidowLines {
		n = max(0, total-p.policy.WidowLines)
	}
	return n
}

// split places b across the open page and as many following pages as
// needed. It reports false, leaving state untouched, when no valid split
// point exists on the open page.
func (p *planner) split(b *document.Block) bool {
	space := p.remaining()
	if space <= 0 {
		return false
	}
	lines, avg, ok := p.measure(b)
	if !ok {
		return false
	}
	total := len(lines)
	n := p.fit(space, avg, total)
	if n < p.policy.OrphanLines || n >= total {
		return false
	}

	whole := *b
	whole.Lines = lines
	fragment := func(start, count int) document.PageBlock {
		top := float64(start) * avg
		h := float64(count) * avg
		if start+count == total {
			h = whole.Height - top
		}
		return document.PageBlock{
			Block:      whole,
			Partial:    true,
			ClipTop:    top,
			ClipHeight: h,
			FirstLine:  start,
			LineCount:  count,
		}
	}

	first := fragment(0, n)
	p.add(first, first.ClipHeight)
	p.close()

	start, parts := n, 2
	for whole.Height-float64(start)*avg+whole.MarginBottom > p.capacity {
		k := p.fit(p.capacity, avg, total-start)
		if k < p.policy.OrphanLines || k >= total-start {
			break
		}
		mid := fragment(start, k)
		p.add(mid, mid.ClipHeight)
		p.close()
		start += k
		parts++
	}

	last := fragment(start, total-start)
	switch h := last.ClipHeight + whole.MarginBottom; {
	case h > p.capacity && last.ClipHeight <= p.capacity:
		// The lines fill the page; the bottom margin falls past its edge.
		p.add(last, last.ClipHeight)
		p.close()
	default:
		p.add(last, h)
		if h >= p.capacity {
			p.close()
		}
	}
	p.log.Debug("split block", "block", b.Index, "tag", b.Tag, "lines", total, "fragments", parts)
	return true
}
