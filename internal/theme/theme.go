// Package theme holds the named visual templates that drive both layout
// measurement and export styling.
package theme

import "sort"

// DefaultName is the template used when a lookup misses.
const DefaultName = "default"

// TextStyle is a run style in DOCX terms. Sizes are half-points, colours hex without '#'.
type TextStyle struct {
	Size   int    `json:"size"`
	Color  string `json:"color"`
	Bold   bool   `json:"bold"`
	Italic bool   `json:"italic"`
	Center bool   `json:"center,omitempty"`
}

// DocxStyle maps a template onto word-processor formatting.
type DocxStyle struct {
	BodyFont       string       `json:"body_font"`
	BodySize       int          `json:"body_size"`
	BodyColor      string       `json:"body_color"`
	LineSpacing    int          `json:"line_spacing"` // 240 = single
	Headings       [4]TextStyle `json:"headings"`     // h1..h4; h5/h6 reuse h4
	QuoteColor     string       `json:"quote_color"`
	QuoteBorder    string       `json:"quote_border"`
	QuoteItalic    bool         `json:"quote_italic"`
	CodeFont       string       `json:"code_font"`
	CodeBackground string       `json:"code_background"`
	CodeColor      string       `json:"code_color"`
	LinkColor      string       `json:"link_color"`
	TableBorder    string       `json:"table_border"`
	TableHeaderBg  string       `json:"table_header_bg"`
}

// Heading returns the style for heading level 1-6.
func (d DocxStyle) Heading(level int) TextStyle {
	switch {
	case level < 1:
		level = 1
	case level > 4:
		level = 4
	}
	return d.Headings[level-1]
}

// Theme is a named template. All lengths are CSS px.
type Theme struct {
	Name       string `json:"name"`
	Background string `json:"background"`
	TextColor  string `json:"text_color"`

	// HeadingColor overrides the DOCX heading colours on screen when set.
	HeadingColor string `json:"heading_color,omitempty"`

	BodySize          float64    `json:"body_size"`
	LineHeight        float64    `json:"line_height"` // multiple of font size
	HeadingSizes      [6]float64 `json:"heading_sizes"`
	HeadingLineHeight float64    `json:"heading_line_height"`
	HeadingMargins    [6]float64 `json:"heading_margins"` // margin-bottom per level
	ParagraphGap      float64    `json:"paragraph_gap"`

	CodeSize       float64 `json:"code_size"`
	CodeLineHeight float64 `json:"code_line_height"`
	CodePadding    float64 `json:"code_padding"`

	ListIndent    float64 `json:"list_indent"`
	ListItemGap   float64 `json:"list_item_gap"`
	QuoteIndent   float64 `json:"quote_indent"`
	CellPadding   float64 `json:"cell_padding"`
	RuleHeight    float64 `json:"rule_height"`
	FallbackImage float64 `json:"fallback_image"` // height assumed for unmeasurable images

	Docx DocxStyle `json:"docx"`
}

// Class is the CSS class selecting this template.
func (t Theme) Class() string {
	return "theme-" + t.Name
}

// HeadingSize returns the font size for heading level 1-6.
func (t Theme) HeadingSize(level int) float64 {
	return t.HeadingSizes[clampLevel(level)-1]
}

// HeadingMargin returns the bottom margin for heading level 1-6.
func (t Theme) HeadingMargin(level int) float64 {
	return t.HeadingMargins[clampLevel(level)-1]
}

// BodyLine is the line box height of body text.
func (t Theme) BodyLine() float64 {
	return t.BodySize * t.LineHeight
}

// CodeLine is the line box height inside code blocks.
func (t Theme) CodeLine() float64 {
	return t.CodeSize * t.CodeLineHeight
}

func clampLevel(level int) int {
	if level < 1 {
		return 1
	}
	if level > 6 {
		return 6
	}
	return level
}

// Lookup returns the named template, falling back to default.
func Lookup(name string) Theme {
	if t, ok := templates[name]; ok {
		return t
	}
	return templates[DefaultName]
}

// Exists reports whether name is a known template.
func Exists(name string) bool {
	_, ok := templates[name]
	return ok
}

// Names lists the known templates in sorted order.
func Names() []string {
	names := make([]string, 0, len(templates))
	for n := range templates {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
