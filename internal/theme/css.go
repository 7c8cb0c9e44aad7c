package theme

import (
	"fmt"
	"strings"
)

// FontFamily returns the CSS font stack for the body font.
func (t Theme) FontFamily() string {
	return cssFamily(t.Docx.BodyFont, "sans-serif")
}

// CodeFamily returns the CSS font stack for code.
func (t Theme) CodeFamily() string {
	return cssFamily(t.Docx.CodeFont, "monospace")
}

func cssFamily(name, generic string) string {
	switch name {
	case "Times New Roman", "Georgia":
		generic = "serif"
	}
	return fmt.Sprintf("'%s', %s", name, generic)
}

// CSS renders the template rules scoped under its class. The rules carry
// the same metrics the layout probe measures with.
func (t Theme) CSS() string {
	var b strings.Builder
	sel := "." + t.Class()
	d := t.Docx
	fmt.Fprintf(&b, "%s{background:#%s;color:#%s;font-family:%s;font-size:%.2fpx;line-height:%.3f}\n",
		sel, t.Background, t.TextColor, t.FontFamily(), t.BodySize, t.LineHeight)
	fmt.Fprintf(&b, "%s p{margin:0 0 %.2fpx 0}\n", sel, t.ParagraphGap)
	for i := 1; i <= 6; i++ {
		h := d.Heading(i)
		weight := "normal"
		if h.Bold {
			weight = "bold"
		}
		style := "normal"
		if h.Italic {
			style = "italic"
		}
		align := "left"
		if h.Center {
			align = "center"
		}
		color := h.Color
		if t.HeadingColor != "" {
			color = t.HeadingColor
		}
		fmt.Fprintf(&b, "%s h%d{font-size:%.2fpx;line-height:%.2f;margin:0 0 %.2fpx 0;color:#%s;font-weight:%s;font-style:%s;text-align:%s}\n",
			sel, i, t.HeadingSize(i), t.HeadingLineHeight, t.HeadingMargin(i), color, weight, style, align)
	}
	fmt.Fprintf(&b, "%s pre{font-family:%s;font-size:%.2fpx;line-height:%.2f;padding:%.0fpx;margin:0 0 %.2fpx 0;background:#%s;color:#%s;white-space:pre;overflow:hidden}\n",
		sel, t.CodeFamily(), t.CodeSize, t.CodeLineHeight, t.CodePadding, t.ParagraphGap, d.CodeBackground, d.CodeColor)
	fmt.Fprintf(&b, "%s code{font-family:%s}\n", sel, t.CodeFamily())
	fmt.Fprintf(&b, "%s ul,%s ol{margin:0 0 %.2fpx 0;padding-left:%.0fpx}\n", sel, sel, t.ParagraphGap, t.ListIndent)
	fmt.Fprintf(&b, "%s li{margin-bottom:%.0fpx}\n", sel, t.ListItemGap)
	fmt.Fprintf(&b, "%s blockquote{margin:0 0 %.2fpx 0;padding-left:%.0fpx;border-left:3px solid #%s;color:#%s", sel, t.ParagraphGap, t.QuoteIndent, d.QuoteBorder, d.QuoteColor)
	if d.QuoteItalic {
		b.WriteString(";font-style:italic")
	}
	b.WriteString("}\n")
	fmt.Fprintf(&b, "%s a{color:#%s}\n", sel, d.LinkColor)
	fmt.Fprintf(&b, "%s table{border-collapse:collapse;width:100%%;margin:0 0 %.2fpx 0}\n", sel, t.ParagraphGap)
	fmt.Fprintf(&b, "%s th,%s td{border:1px solid #%s;padding:%.0fpx;text-align:left;vertical-align:top}\n", sel, sel, d.TableBorder, t.CellPadding)
	fmt.Fprintf(&b, "%s th{background:#%s}\n", sel, d.TableHeaderBg)
	fmt.Fprintf(&b, "%s hr{border:0;border-top:1px solid #%s;margin:%.2fpx 0}\n", sel, d.TableBorder, t.RuleHeight/2)
	fmt.Fprintf(&b, "%s img{max-width:100%%;display:block}\n", sel)
	return b.String()
}

// PageCSS renders the page canvas rules shared by every template.
func PageCSS(width, height, padding float64) string {
	return fmt.Sprintf(".folio-page{box-sizing:border-box;width:%gpx;height:%gpx;padding:%gpx;overflow:hidden;position:relative;margin:0 auto 24px auto}\n"+
		".folio-page .folio-footer{position:absolute;bottom:%gpx;left:0;right:0;text-align:center;font-size:11px;opacity:.6}\n"+
		"@media print{.folio-page{margin:0;page-break-after:always;height:auto;overflow:visible}}\n",
		width, height, padding, padding/3)
}
