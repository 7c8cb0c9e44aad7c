package typeset

import (
	"fmt"
	"sync"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/math/fixed"
)

type fontStyle int

const (
	styleRegular fontStyle = iota
	styleBold
	styleItalic
	styleBoldItalic
	styleMono
)

var (
	fontsOnce sync.Once
	fonts     [5]*truetype.Font
	fontsErr  error
)

func loadFonts() error {
	fontsOnce.Do(func() {
		for i, ttf := range [][]byte{goregular.TTF, gobold.TTF, goitalic.TTF, gobolditalic.TTF, gomono.TTF} {
			f, err := truetype.Parse(ttf)
			if err != nil {
				fontsErr = fmt.Errorf("parse builtin font %d: %w", i, err)
				return
			}
			fonts[i] = f
		}
	})
	return fontsErr
}

func pickStyle(bold, italic, mono bool) fontStyle {
	switch {
	case mono:
		return styleMono
	case bold && italic:
		return styleBoldItalic
	case bold:
		return styleBold
	case italic:
		return styleItalic
	}
	return styleRegular
}

type faceKey struct {
	style fontStyle
	size  float64
}

// faceCache holds faces and glyph advances for a single probe. font.Face
// values are not safe for concurrent use.
type faceCache struct {
	faces    map[faceKey]font.Face
	advances map[faceKey]map[rune]float64
}

func newFaceCache() *faceCache {
	return &faceCache{
		faces:    make(map[faceKey]font.Face),
		advances: make(map[faceKey]map[rune]float64),
	}
}

func (c *faceCache) face(k faceKey) font.Face {
	if f, ok := c.faces[k]; ok {
		return f
	}
	// 0.75pt per px at 96 DPI.
	f := truetype.NewFace(fonts[k.style], &truetype.Options{Size: k.size * 0.75, DPI: 96, Hinting: font.HintingNone})
	c.faces[k] = f
	return f
}

func (c *faceCache) advance(k faceKey, r rune) float64 {
	m := c.advances[k]
	if m == nil {
		m = make(map[rune]float64)
		c.advances[k] = m
	}
	if a, ok := m[r]; ok {
		return a
	}
	var adv fixed.Int26_6
	switch r {
	case '\n':
	case '\t':
		sp, _ := c.face(k).GlyphAdvance(' ')
		adv = sp * 4
	default:
		var ok bool
		adv, ok = c.face(k).GlyphAdvance(r)
		if !ok {
			// Missing glyphs render as tofu roughly one em wide.
			adv = fixed.Int26_6(k.size * 64)
		}
	}
	a := float64(adv) / 64
	m[r] = a
	return a
}

func (c *faceCache) close() {
	for _, f := range c.faces {
		f.Close()
	}
}
