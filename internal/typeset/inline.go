package typeset

import (
	"unicode"

	"github.com/go-text/typesetting/segmenter"

	"github.com/cygnusreader/folio/internal/layout"
)

// textStyle is the inherited inline style of a block.
type textStyle struct {
	size   float64
	line   float64 // line box height
	bold   bool
	italic bool
	mono   bool
	wrap   bool
}

// flowResult is the outcome of laying out one inline formatting context.
type flowResult struct {
	glyphs []layout.Glyph
	lines  int
}

func (p *Probe) flow(runs []layout.Run, st textStyle, width, top float64) flowResult {
	var (
		text []rune
		advs []float64
	)
	for _, r := range runs {
		k := faceKey{style: pickStyle(st.bold || r.Bold, st.italic || r.Italic, st.mono || r.Mono), size: st.size}
		if r.Mono && !st.mono {
			k.size = st.size * 0.9
		}
		for _, c := range r.Text {
			text = append(text, c)
			advs = append(advs, p.faces.advance(k, c))
		}
	}
	if len(text) == 0 {
		return flowResult{}
	}

	res := flowResult{glyphs: make([]layout.Glyph, len(text))}
	line := 0
	place := func(i int) {
		res.glyphs[i] = layout.Glyph{Offset: i, Top: top + float64(line)*st.line, Height: st.line}
	}

	if !st.wrap {
		for i, c := range text {
			place(i)
			if c == '\n' {
				line++
			}
		}
		res.lines = line + 1
		if text[len(text)-1] == '\n' {
			res.lines = line
		}
		return res
	}

	var seg segmenter.Segmenter
	seg.Init(text)
	it := seg.LineIterator()
	x := 0.0
	for it.Next() {
		s := it.Line()
		start, end := s.Offset, s.Offset+len(s.Text)
		w, trail := 0.0, 0.0
		for i := start; i < end; i++ {
			w += advs[i]
			if unicode.IsSpace(text[i]) {
				trail += advs[i]
			} else {
				trail = 0
			}
		}
		if x > 0 && x+w-trail > width {
			line++
			x = 0
		}
		if x == 0 && w-trail > width {
			// Unbreakable run wider than the line: break between runes.
			for i := start; i < end; i++ {
				if x > 0 && x+advs[i] > width && !unicode.IsSpace(text[i]) {
					line++
					x = 0
				}
				place(i)
				x += advs[i]
			}
		} else {
			for i := start; i < end; i++ {
				place(i)
			}
			x += w
		}
		if text[end-1] == '\n' {
			line++
			x = 0
		}
	}
	res.lines = line + 1
	if text[len(text)-1] == '\n' {
		res.lines = line
	}
	return res
}
