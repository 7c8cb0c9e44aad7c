package export

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"time"
)

// BundleContentType is served for the zip produced by Bundle.
const BundleContentType = "application/zip"

// Formats lists every export target in bundle order.
var Formats = []Format{FormatHTML, FormatPDF, FormatDOCX}

// Bundle renders every format through All and writes them to w as a zip
// holding base.html, base.pdf and base.docx.
func Bundle(ctx context.Context, w io.Writer, doc *Document, base string) error {
	bufs := make(map[Format]*bytes.Buffer, len(Formats))
	outs := make(map[Format]io.Writer, len(Formats))
	for _, f := range Formats {
		bufs[f] = &bytes.Buffer{}
		outs[f] = bufs[f]
	}
	if err := All(ctx, doc, outs); err != nil {
		return err
	}

	zw := zip.NewWriter(w)
	for _, f := range Formats {
		fw, err := zw.CreateHeader(&zip.FileHeader{
			Name:     base + "." + string(f),
			Method:   zip.Deflate,
			Modified: time.Now(),
		})
		if err != nil {
			return fmt.Errorf("bundle %s: %w", f, err)
		}
		if _, err := bufs[f].WriteTo(fw); err != nil {
			return fmt.Errorf("bundle %s: %w", f, err)
		}
	}
	return zw.Close()
}
