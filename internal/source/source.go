// Package source converts uploaded files into the single flowed HTML
// string the pagination engine consumes.
package source

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// ErrUnsupported is returned by ForFile for unknown extensions.
var ErrUnsupported = errors.New("unsupported file extension")

// Document is converted source content.
type Document struct {
	Title  string
	Author string
	HTML   string
}

// Source converts raw file bytes into a Document.
type Source interface {
	Convert(r io.Reader, filename string) (*Document, error)
}

// Options tune conversion.
type Options struct {
	BaseDir     string // resolves relative Markdown image paths; empty disables inlining
	MaxImages   int    // EPUB images inlined as data URLs
	PDFFallback bool   // shell out to pdftotext when the Go reader fails
}

// DefaultMaxImages caps EPUB image extraction.
const DefaultMaxImages = 30

// SupportedExtensions lists file extensions this service can open.
var SupportedExtensions = map[string]bool{
	".md":       true,
	".markdown": true,
	".html":     true,
	".htm":      true,
	".epub":     true,
	".docx":     true,
	".pdf":      true,
	".txt":      true,
	".csv":      true,
}

// ForFile returns the converter for a filename.
func ForFile(filename string, opts Options) (Source, error) {
	if opts.MaxImages <= 0 {
		opts.MaxImages = DefaultMaxImages
	}
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".md", ".markdown":
		return &Markdown{BaseDir: opts.BaseDir}, nil
	case ".html", ".htm":
		return &HTML{}, nil
	case ".epub":
		return &EPUB{MaxImages: opts.MaxImages}, nil
	case ".docx":
		return &DOCX{}, nil
	case ".pdf":
		return &PDF{FallbackPdftotext: opts.PDFFallback}, nil
	case ".txt":
		return &Text{}, nil
	case ".csv":
		return &CSV{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupported, ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	return SupportedExtensions[strings.ToLower(filepath.Ext(filename))]
}

func baseTitle(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
