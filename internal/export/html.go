package export

import (
	"io"

	"github.com/cygnusreader/folio/internal/render"
)

// HTML writes a standalone print document. Split blocks appear once, in
// full, on the page where they start.
func HTML(w io.Writer, doc *Document) error {
	sections := render.PrintHTML(doc.Pages, doc.Theme)
	_, err := io.WriteString(w, render.Document(doc.Title, sections, doc.Theme, doc.Geometry))
	return err
}
