package export

import (
	"bytes"
	"encoding/base64"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"
)

// embedded is a decoded data-URL image.
type embedded struct {
	data          []byte
	format        string // png, jpeg or gif
	width, height int
}

// decodeDataURL accepts base64 data URLs holding PNG, JPEG or GIF.
func decodeDataURL(src string) (embedded, bool) {
	if !strings.HasPrefix(src, "data:") {
		return embedded{}, false
	}
	meta, payload, ok := strings.Cut(src[len("data:"):], ",")
	if !ok || !strings.HasSuffix(meta, ";base64") {
		return embedded{}, false
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return embedded{}, false
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil || cfg.Width <= 0 || cfg.Height <= 0 {
		return embedded{}, false
	}
	switch format {
	case "png", "jpeg", "gif":
	default:
		return embedded{}, false
	}
	return embedded{data: data, format: format, width: cfg.Width, height: cfg.Height}, true
}
