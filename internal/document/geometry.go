package document

import "fmt"

// A4 at 96 DPI.
const (
	DefaultPageWidth    = 794
	DefaultPageHeight   = 1123
	DefaultPagePadding  = 80
	DefaultBottomBuffer = 32
)

// Geometry describes the fixed page canvas in px.
type Geometry struct {
	Width        float64 `json:"width"`
	Height       float64 `json:"height"`
	Padding      float64 `json:"padding"`
	BottomBuffer float64 `json:"bottom_buffer"`
}

// DefaultGeometry returns the A4 page used by the reader.
func DefaultGeometry() Geometry {
	return Geometry{
		Width:        DefaultPageWidth,
		Height:       DefaultPageHeight,
		Padding:      DefaultPagePadding,
		BottomBuffer: DefaultBottomBuffer,
	}
}

// ContentWidth is the width available to flowed content.
func (g Geometry) ContentWidth() float64 {
	return g.Width - 2*g.Padding
}

// Capacity is the usable vertical space inside a page.
func (g Geometry) Capacity() float64 {
	return g.Height - 2*g.Padding - g.BottomBuffer
}

// Validate checks that the geometry leaves room for content.
func (g Geometry) Validate() error {
	if g.Width <= 0 || g.Height <= 0 {
		return fmt.Errorf("page size must be positive, got %gx%g", g.Width, g.Height)
	}
	if g.Padding < 0 || g.BottomBuffer < 0 {
		return fmt.Errorf("padding and bottom buffer must not be negative")
	}
	if g.ContentWidth() <= 0 {
		return fmt.Errorf("padding %g leaves no content width on a %g px page", g.Padding, g.Width)
	}
	if g.Capacity() <= 0 {
		return fmt.Errorf("padding %g and buffer %g leave no content height on a %g px page", g.Padding, g.BottomBuffer, g.Height)
	}
	return nil
}

// Key is a stable string form used for cache keys.
func (g Geometry) Key() string {
	return fmt.Sprintf("%gx%g/%g/%g", g.Width, g.Height, g.Padding, g.BottomBuffer)
}
