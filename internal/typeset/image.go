package typeset

import (
	"encoding/base64"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strconv"
	"strings"

	_ "golang.org/x/image/webp"
	"golang.org/x/net/html"
)

// imageHeight sizes an img scaled to fit width. The second result is false
// when neither attributes nor an embedded header give a size, in which
// case the theme's fallback height is returned.
func (p *Probe) imageHeight(n *html.Node, width float64) (float64, bool) {
	w, h := dimension(attr(n, "width")), dimension(attr(n, "height"))
	if w <= 0 || h <= 0 {
		if cw, ch, ok := dataURLSize(attr(n, "src")); ok {
			switch {
			case w > 0:
				h = w * ch / cw
			case h > 0:
				w = h * cw / ch
			default:
				w, h = cw, ch
			}
		}
	}
	if w <= 0 || h <= 0 {
		return p.theme.FallbackImage, false
	}
	if w > width {
		h = h * width / w
	}
	return h, true
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func dimension(s string) float64 {
	s = strings.TrimSuffix(strings.TrimSpace(s), "px")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// dataURLSize decodes only the image header of a base64 data URL.
func dataURLSize(src string) (float64, float64, bool) {
	if !strings.HasPrefix(src, "data:") {
		return 0, 0, false
	}
	meta, payload, ok := strings.Cut(src[len("data:"):], ",")
	if !ok || !strings.HasSuffix(meta, ";base64") {
		return 0, 0, false
	}
	cfg, _, err := image.DecodeConfig(base64.NewDecoder(base64.StdEncoding, strings.NewReader(payload)))
	if err != nil || cfg.Width == 0 || cfg.Height == 0 {
		return 0, 0, false
	}
	return float64(cfg.Width), float64(cfg.Height), true
}
