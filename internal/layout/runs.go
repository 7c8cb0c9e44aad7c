package layout

import (
	"strings"
	"unicode"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Run is a span of inline text sharing one style.
type Run struct {
	Text   string
	Bold   bool
	Italic bool
	Mono   bool
	Link   bool
	Break  bool // mandatory line break; Text is "\n"
}

type runStyle struct {
	bold, italic, mono, link, pre bool
}

// IsBlock reports whether the element starts a new block box.
func IsBlock(n *html.Node) bool {
	if n == nil || n.Type != html.ElementNode {
		return false
	}
	switch n.DataAtom {
	case atom.P, atom.Div, atom.Pre, atom.Blockquote, atom.Ul, atom.Ol, atom.Li,
		atom.Table, atom.Thead, atom.Tbody, atom.Tfoot, atom.Tr, atom.Td, atom.Th,
		atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6, atom.Hr,
		atom.Section, atom.Article, atom.Header, atom.Footer, atom.Nav, atom.Aside,
		atom.Figure, atom.Figcaption, atom.Dl, atom.Dt, atom.Dd, atom.Details, atom.Summary:
		return true
	}
	return false
}

// Runs flattens the inline content of n. Whitespace collapses to single
// spaces outside pre; nested block elements and <br> become breaks.
func Runs(n *html.Node) []Run {
	f := flattener{atLineStart: true}
	st := runStyle{pre: n != nil && n.DataAtom == atom.Pre}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		f.walk(c, st)
	}
	f.trimTrailing()
	for len(f.runs) > 0 && f.runs[len(f.runs)-1].Break {
		f.runs = f.runs[:len(f.runs)-1]
	}
	return f.runs
}

// Text is the concatenation of Runs(n). Glyph offsets index its runes.
func Text(n *html.Node) string {
	var b strings.Builder
	for _, r := range Runs(n) {
		b.WriteString(r.Text)
	}
	return b.String()
}

// HasTextNodes reports whether any text node exists under n.
func HasTextNodes(n *html.Node) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode || HasTextNodes(c) {
			return true
		}
	}
	return false
}

type flattener struct {
	runs        []Run
	atLineStart bool
	lastSpace   bool
}

func (f *flattener) walk(n *html.Node, st runStyle) {
	switch n.Type {
	case html.TextNode:
		f.text(n.Data, st)
		return
	case html.ElementNode:
	default:
		return
	}

	switch n.DataAtom {
	case atom.Br:
		f.lineBreak()
		return
	case atom.Script, atom.Style, atom.Img, atom.Svg:
		return
	case atom.B, atom.Strong, atom.Th:
		st.bold = true
	case atom.I, atom.Em, atom.Cite, atom.Var:
		st.italic = true
	case atom.Code, atom.Kbd, atom.Samp, atom.Tt:
		st.mono = true
	case atom.A:
		st.link = true
	case atom.Pre:
		st.pre, st.mono = true, true
	}

	block := IsBlock(n)
	if block {
		f.softBreak()
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		f.walk(c, st)
	}
	if block {
		f.softBreak()
	}
}

func (f *flattener) text(s string, st runStyle) {
	if st.pre {
		lines := strings.Split(s, "\n")
		for i, line := range lines {
			if i > 0 {
				f.lineBreak()
			}
			if line != "" {
				f.emit(line, st)
				f.atLineStart = false
			}
		}
		return
	}
	var b strings.Builder
	for _, r := range s {
		if unicode.IsSpace(r) {
			if f.atLineStart || f.lastSpace {
				continue
			}
			b.WriteRune(' ')
			f.lastSpace = true
			continue
		}
		b.WriteRune(r)
		f.lastSpace = false
		f.atLineStart = false
	}
	if b.Len() > 0 {
		f.emit(b.String(), st)
	}
}

func (f *flattener) emit(s string, st runStyle) {
	if k := len(f.runs) - 1; k >= 0 {
		last := &f.runs[k]
		if !last.Break && last.Bold == st.bold && last.Italic == st.italic && last.Mono == st.mono && last.Link == st.link {
			last.Text += s
			return
		}
	}
	f.runs = append(f.runs, Run{Text: s, Bold: st.bold, Italic: st.italic, Mono: st.mono, Link: st.link})
}

func (f *flattener) lineBreak() {
	f.trimTrailing()
	f.runs = append(f.runs, Run{Text: "\n", Break: true})
	f.atLineStart = true
	f.lastSpace = false
}

// softBreak ends the current line unless nothing has been written on it.
func (f *flattener) softBreak() {
	if f.atLineStart {
		return
	}
	f.lineBreak()
}

func (f *flattener) trimTrailing() {
	for len(f.runs) > 0 {
		k := len(f.runs) - 1
		if f.runs[k].Break {
			return
		}
		t := strings.TrimRight(f.runs[k].Text, " ")
		if t != "" {
			f.runs[k].Text = t
			f.lastSpace = false
			return
		}
		f.runs = f.runs[:k]
	}
}
