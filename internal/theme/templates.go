package theme

// halfPointsToPx converts a DOCX half-point size to CSS px at 96 DPI.
func halfPointsToPx(hp int) float64 {
	return float64(hp) * 2 / 3
}

type palette struct {
	background, text, heading string
	docx                      DocxStyle
}

func build(name string, s palette) Theme {
	d := s.docx
	body := halfPointsToPx(d.BodySize)
	lh := float64(d.LineSpacing) / 240 * 1.4
	var sizes, margins [6]float64
	for i := 0; i < 4; i++ {
		sizes[i] = halfPointsToPx(d.Headings[i].Size)
	}
	sizes[4] = body
	sizes[5] = body * 0.9
	for i := range margins {
		margins[i] = sizes[i] * 0.5
	}
	text := s.text
	if text == "" {
		text = d.BodyColor
	}
	bg := s.background
	if bg == "" {
		bg = "FFFFFF"
	}
	return Theme{
		Name:              name,
		Background:        bg,
		TextColor:         text,
		HeadingColor:      s.heading,
		BodySize:          body,
		LineHeight:        lh,
		HeadingSizes:      sizes,
		HeadingLineHeight: 1.25,
		HeadingMargins:    margins,
		ParagraphGap:      body,
		CodeSize:          body * 0.9,
		CodeLineHeight:    1.5,
		CodePadding:       16,
		ListIndent:        24,
		ListItemGap:       4,
		QuoteIndent:       20,
		CellPadding:       8,
		RuleHeight:        body * 2,
		FallbackImage:     300,
		Docx:              d,
	}
}

var defaultDocx = DocxStyle{
	BodyFont: "Segoe UI", BodySize: 22, BodyColor: "333333", LineSpacing: 276,
	Headings: [4]TextStyle{
		{Size: 48, Color: "1A1A1A", Bold: true},
		{Size: 36, Color: "2563EB", Bold: true},
		{Size: 28, Color: "374151", Bold: true},
		{Size: 24, Color: "4B5563", Bold: true},
	},
	QuoteColor: "6B7280", QuoteBorder: "3B82F6", QuoteItalic: true,
	CodeFont: "Consolas", CodeBackground: "1F2937", CodeColor: "F3F4F6",
	LinkColor: "2563EB", TableBorder: "D1D5DB", TableHeaderBg: "F3F4F6",
}

var templates = map[string]Theme{
	"default": build("default", palette{docx: defaultDocx}),
	// dark only changes the screen palette; exports keep the default paper colours.
	"dark": build("dark", palette{background: "111827", text: "E5E7EB", heading: "F9FAFB", docx: defaultDocx}),
	"academic": build("academic", palette{docx: DocxStyle{
		BodyFont: "Times New Roman", BodySize: 24, BodyColor: "1A1A1A", LineSpacing: 288,
		Headings: [4]TextStyle{
			{Size: 44, Color: "000000", Bold: true, Center: true},
			{Size: 32, Color: "1A1A1A", Bold: true},
			{Size: 26, Color: "333333", Bold: true, Italic: true},
			{Size: 24, Color: "333333", Bold: true},
		},
		QuoteColor: "444444", QuoteBorder: "666666", QuoteItalic: true,
		CodeFont: "Courier New", CodeBackground: "F8F8F8", CodeColor: "000000",
		LinkColor: "1E40AF", TableBorder: "333333", TableHeaderBg: "F0F0F0",
	}}),
	"minimal": build("minimal", palette{docx: DocxStyle{
		BodyFont: "Arial", BodySize: 22, BodyColor: "444444", LineSpacing: 304,
		Headings: [4]TextStyle{
			{Size: 56, Color: "111111"},
			{Size: 36, Color: "222222"},
			{Size: 28, Color: "333333"},
			{Size: 22, Color: "444444", Bold: true},
		},
		QuoteColor: "666666", QuoteBorder: "CCCCCC",
		CodeFont: "Consolas", CodeBackground: "FAFAFA", CodeColor: "333333",
		LinkColor: "111111", TableBorder: "EEEEEE", TableHeaderBg: "FAFAFA",
	}}),
	"streamline": build("streamline", palette{docx: DocxStyle{
		BodyFont: "Calibri", BodySize: 22, BodyColor: "374151", LineSpacing: 276,
		Headings: [4]TextStyle{
			{Size: 44, Color: "1E40AF", Bold: true},
			{Size: 32, Color: "3B82F6", Bold: true},
			{Size: 26, Color: "1E40AF", Bold: true},
			{Size: 22, Color: "374151", Bold: true},
		},
		QuoteColor: "6B7280", QuoteBorder: "3B82F6", QuoteItalic: true,
		CodeFont: "Consolas", CodeBackground: "EFF6FF", CodeColor: "1E3A5F",
		LinkColor: "2563EB", TableBorder: "BFDBFE", TableHeaderBg: "DBEAFE",
	}}),
	"focus": build("focus", palette{docx: DocxStyle{
		BodyFont: "Arial", BodySize: 24, BodyColor: "111111", LineSpacing: 288,
		Headings: [4]TextStyle{
			{Size: 52, Color: "000000", Bold: true},
			{Size: 36, Color: "000000", Bold: true},
			{Size: 28, Color: "333333", Bold: true},
			{Size: 24, Color: "333333", Bold: true},
		},
		QuoteColor: "333333", QuoteBorder: "000000",
		CodeFont: "Consolas", CodeBackground: "000000", CodeColor: "FFFFFF",
		LinkColor: "000000", TableBorder: "000000", TableHeaderBg: "F0F0F0",
	}}),
	"swiss": build("swiss", palette{docx: DocxStyle{
		BodyFont: "Helvetica", BodySize: 22, BodyColor: "333333", LineSpacing: 276,
		Headings: [4]TextStyle{
			{Size: 48, Color: "DC2626", Bold: true},
			{Size: 32, Color: "1F2937", Bold: true},
			{Size: 24, Color: "374151", Bold: true},
			{Size: 22, Color: "4B5563", Bold: true},
		},
		QuoteColor: "6B7280", QuoteBorder: "DC2626",
		CodeFont: "Consolas", CodeBackground: "F3F4F6", CodeColor: "1F2937",
		LinkColor: "DC2626", TableBorder: "D1D5DB", TableHeaderBg: "F9FAFB",
	}}),
	"paperback": build("paperback", palette{background: "FBF8F1", docx: DocxStyle{
		BodyFont: "Georgia", BodySize: 24, BodyColor: "3D3229", LineSpacing: 288,
		Headings: [4]TextStyle{
			{Size: 44, Color: "5D4E37", Center: true},
			{Size: 32, Color: "5D4E37", Bold: true},
			{Size: 26, Color: "6B5D4D", Italic: true},
			{Size: 24, Color: "6B5D4D", Bold: true},
		},
		QuoteColor: "7D6E5D", QuoteBorder: "C4A77D", QuoteItalic: true,
		CodeFont: "Courier New", CodeBackground: "F5F0E8", CodeColor: "5D4E37",
		LinkColor: "8B7355", TableBorder: "C4A77D", TableHeaderBg: "F5F0E8",
	}}),
	"coral": build("coral", palette{docx: DocxStyle{
		BodyFont: "Segoe UI", BodySize: 22, BodyColor: "4A4A4A", LineSpacing: 276,
		Headings: [4]TextStyle{
			{Size: 48, Color: "E85A71", Bold: true},
			{Size: 34, Color: "D94F63", Bold: true},
			{Size: 26, Color: "4A4A4A", Bold: true},
			{Size: 22, Color: "666666", Bold: true},
		},
		QuoteColor: "666666", QuoteBorder: "F4A5B2", QuoteItalic: true,
		CodeFont: "Consolas", CodeBackground: "FFF5F7", CodeColor: "D94F63",
		LinkColor: "E85A71", TableBorder: "F4A5B2", TableHeaderBg: "FFF0F3",
	}}),
	"slate": build("slate", palette{docx: DocxStyle{
		BodyFont: "Segoe UI", BodySize: 22, BodyColor: "334155", LineSpacing: 276,
		Headings: [4]TextStyle{
			{Size: 46, Color: "1E293B", Bold: true},
			{Size: 32, Color: "475569", Bold: true},
			{Size: 26, Color: "64748B", Bold: true},
			{Size: 22, Color: "64748B", Bold: true},
		},
		QuoteColor: "64748B", QuoteBorder: "94A3B8", QuoteItalic: true,
		CodeFont: "Consolas", CodeBackground: "1E293B", CodeColor: "E2E8F0",
		LinkColor: "3B82F6", TableBorder: "CBD5E1", TableHeaderBg: "F1F5F9",
	}}),
	"luxe": build("luxe", palette{docx: DocxStyle{
		BodyFont: "Georgia", BodySize: 24, BodyColor: "1A1A1A", LineSpacing: 288,
		Headings: [4]TextStyle{
			{Size: 64, Color: "1A1A1A", Center: true},
			{Size: 36, Color: "8B7355"},
			{Size: 28, Color: "4A4A4A", Bold: true, Italic: true},
			{Size: 24, Color: "666666", Bold: true},
		},
		QuoteColor: "555555", QuoteBorder: "D4AF37", QuoteItalic: true,
		CodeFont: "Courier New", CodeBackground: "2C2C2C", CodeColor: "F5F5F5",
		LinkColor: "8B7355", TableBorder: "D4AF37", TableHeaderBg: "F8F6F3",
	}}),
	"geometric": build("geometric", palette{docx: DocxStyle{
		BodyFont: "Arial", BodySize: 22, BodyColor: "2D3748", LineSpacing: 276,
		Headings: [4]TextStyle{
			{Size: 48, Color: "6B46C1", Bold: true},
			{Size: 32, Color: "D53F8C", Bold: true},
			{Size: 26, Color: "2D3748", Bold: true},
			{Size: 22, Color: "4A5568", Bold: true},
		},
		QuoteColor: "718096", QuoteBorder: "6B46C1",
		CodeFont: "Consolas", CodeBackground: "2D3748", CodeColor: "E2E8F0",
		LinkColor: "D53F8C", TableBorder: "E2E8F0", TableHeaderBg: "F7FAFC",
	}}),
}
