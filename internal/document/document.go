package document

// Kind classifies a top-level flowed element.
type Kind string

const (
	KindHeading   Kind = "heading"
	KindParagraph Kind = "paragraph"
	KindCode      Kind = "code"
	KindList      Kind = "list"
	KindTable     Kind = "table"
	KindImage     Kind = "image"
	KindRule      Kind = "rule"
	KindQuote     Kind = "quote"
	KindOther     Kind = "other"
)

// Splittable reports whether blocks of this kind may break mid-content.
func (k Kind) Splittable() bool {
	return k == KindParagraph || k == KindCode
}

// Block is one top-level flowed element with its measured metrics.
type Block struct {
	Index        int      // Position in the flowed sequence
	Kind         Kind     // Classification derived from Tag
	Tag          string   // Lowercase element name, e.g. "p", "pre", "h2"
	Level        int      // Heading level 1-6, 0 for non-headings
	ID           string   // Element id (stamped for headings)
	IDs          []string // All ids found in the element subtree, including ID
	HTML         string   // Serialized outer markup
	Text         string   // Flattened text content, indexed by Line.Start/End
	Height       float64  // Natural rendered height in px
	MarginBottom float64  // Computed bottom margin in px
	Unmeasured   bool     // Measurement failed; metrics are an estimate
	Lines        []Line   // Populated only for blocks the planner split
}

// Outer returns the space the block claims on a page.
func (b *Block) Outer() float64 {
	return b.Height + b.MarginBottom
}

// IsHeading reports whether the block is an h1-h6 element.
func (b *Block) IsHeading() bool {
	return b.Kind == KindHeading
}

// HasID reports whether id appears anywhere in the block.
func (b *Block) HasID(id string) bool {
	if id == "" {
		return false
	}
	if b.ID == id {
		return true
	}
	for _, v := range b.IDs {
		if v == id {
			return true
		}
	}
	return false
}

// Line is one measured horizontal band of text inside a block.
type Line struct {
	Top    float64 // Offset from the block top in px
	Height float64
	Start  int // First rune offset into Block.Text
	End    int // One past the last rune offset
}

// PageBlock is a whole block or a vertical slice of one placed on a page.
type PageBlock struct {
	Block      Block
	Partial    bool
	ClipTop    float64 // Offset into the original block
	ClipHeight float64 // Height of the visible slice
	FirstLine  int     // First line shown by a partial fragment
	LineCount  int     // Lines shown by a partial fragment
	Markup     string  // Materialized HTML for the page surface
}

// Continuation reports whether the fragment resumes a block begun on an earlier page.
func (pb *PageBlock) Continuation() bool {
	return pb.Partial && pb.ClipTop > 0
}

// Cut reports whether the block continues past the bottom of this fragment.
func (pb *PageBlock) Cut() bool {
	return pb.Partial && pb.ClipTop+pb.ClipHeight < pb.Block.Height
}

// Page is an ordered run of fragments with the content height they claim.
type Page struct {
	Blocks []PageBlock
	Height float64
}

// HasID reports whether any fragment on the page carries id.
func (p *Page) HasID(id string) bool {
	for i := range p.Blocks {
		if p.Blocks[i].Block.HasID(id) {
			return true
		}
	}
	return false
}

// TocEntry is one indexed heading.
type TocEntry struct {
	ID    string `json:"id"`
	Text  string `json:"text"`
	Level int    `json:"level"`
	Page  int    `json:"page"`
}

// Result is the output of one pagination pass.
type Result struct {
	Pages []Page
	Toc   []TocEntry
}

// TotalPages returns the page count.
func (r *Result) TotalPages() int {
	if r == nil {
		return 0
	}
	return len(r.Pages)
}
