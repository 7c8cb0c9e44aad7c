package source

import (
	"archive/zip"
	"bytes"
	"encoding/base64"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// EPUB container errors.
var (
	ErrNoContainer = errors.New("epub: missing META-INF/container.xml")
	ErrNoRootfile  = errors.New("epub: no rootfile found in container.xml")
	ErrNoOPF       = errors.New("epub: missing package document")
	ErrInvalidOPF  = errors.New("epub: invalid package document")
)

// EPUB flattens the spine of an EPUB archive into one document headed by
// the book title and author.
type EPUB struct {
	MaxImages int
}

type containerXML struct {
	Rootfiles []struct {
		FullPath  string `xml:"full-path,attr"`
		MediaType string `xml:"media-type,attr"`
	} `xml:"rootfiles>rootfile"`
}

type opfPackage struct {
	Metadata struct {
		Title   []string `xml:"title"`
		Creator []string `xml:"creator"`
	} `xml:"metadata"`
	Manifest []opfItem `xml:"manifest>item"`
	Spine    []struct {
		IDRef string `xml:"idref,attr"`
	} `xml:"spine>itemref"`
}

type opfItem struct {
	ID        string `xml:"id,attr"`
	Href      string `xml:"href,attr"`
	MediaType string `xml:"media-type,attr"`
}

func (p *EPUB) Convert(r io.Reader, filename string) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read epub: %w", err)
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open epub: %w", err)
	}
	files := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		files[f.Name] = f
	}

	opfPath, err := rootfilePath(files)
	if err != nil {
		return nil, err
	}
	raw, ok := files[opfPath]
	if !ok {
		return nil, ErrNoOPF
	}
	opfData, err := readZipFile(raw)
	if err != nil {
		return nil, fmt.Errorf("read package document: %w", err)
	}
	var pkg opfPackage
	if err := xml.Unmarshal(opfData, &pkg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOPF, err)
	}

	opfDir := path.Dir(opfPath)
	if opfDir == "." {
		opfDir = ""
	}
	images := p.extractImages(files, pkg.Manifest, opfDir)

	manifest := make(map[string]opfItem, len(pkg.Manifest))
	for _, it := range pkg.Manifest {
		if it.ID != "" && it.Href != "" {
			manifest[it.ID] = it
		}
	}

	doc := &Document{Title: baseTitle(filename)}
	if len(pkg.Metadata.Title) > 0 && strings.TrimSpace(pkg.Metadata.Title[0]) != "" {
		doc.Title = strings.TrimSpace(pkg.Metadata.Title[0])
	}
	if len(pkg.Metadata.Creator) > 0 {
		doc.Author = strings.TrimSpace(pkg.Metadata.Creator[0])
	}

	var b strings.Builder
	b.WriteString("<h1>" + html.EscapeString(doc.Title) + "</h1>\n")
	if doc.Author != "" {
		b.WriteString("<p><em>by " + html.EscapeString(doc.Author) + "</em></p>\n")
	}
	b.WriteString("<hr/>\n")

	for _, ref := range pkg.Spine {
		item, ok := manifest[ref.IDRef]
		if !ok || !strings.Contains(item.MediaType, "html") {
			continue
		}
		full := path.Join(opfDir, item.Href)
		f, ok := files[full]
		if !ok {
			continue
		}
		content, err := readZipFile(f)
		if err != nil {
			return nil, fmt.Errorf("read chapter %s: %w", item.Href, err)
		}
		chapter, err := cleanChapter(content, path.Dir(full), images)
		if err != nil {
			return nil, fmt.Errorf("clean chapter %s: %w", item.Href, err)
		}
		b.WriteString(chapter)
		b.WriteString("\n")
	}
	doc.HTML = b.String()
	return doc, nil
}

func rootfilePath(files map[string]*zip.File) (string, error) {
	f, ok := files["META-INF/container.xml"]
	if !ok {
		return "", ErrNoContainer
	}
	data, err := readZipFile(f)
	if err != nil {
		return "", fmt.Errorf("read container: %w", err)
	}
	var c containerXML
	if err := xml.Unmarshal(data, &c); err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoRootfile, err)
	}
	for _, rf := range c.Rootfiles {
		if rf.FullPath != "" && (rf.MediaType == "" || rf.MediaType == "application/oebps-package+xml") {
			return rf.FullPath, nil
		}
	}
	if len(c.Rootfiles) > 0 && c.Rootfiles[0].FullPath != "" {
		return c.Rootfiles[0].FullPath, nil
	}
	return "", ErrNoRootfile
}

func readZipFile(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// extractImages encodes up to MaxImages manifest images as data URLs keyed
// by their full archive path.
func (p *EPUB) extractImages(files map[string]*zip.File, items []opfItem, opfDir string) map[string]string {
	out := make(map[string]string)
	for _, it := range items {
		if len(out) >= p.MaxImages {
			break
		}
		if !strings.HasPrefix(it.MediaType, "image/") {
			continue
		}
		full := path.Join(opfDir, it.Href)
		f, ok := files[full]
		if !ok {
			continue
		}
		data, err := readZipFile(f)
		if err != nil {
			continue
		}
		out[full] = "data:" + it.MediaType + ";base64," + base64.StdEncoding.EncodeToString(data)
	}
	return out
}

func cleanChapter(content []byte, dir string, images map[string]string) (string, error) {
	doc, err := html.Parse(bytes.NewReader(content))
	if err != nil {
		return "", err
	}
	body := findElement(doc, atom.Body)
	if body == nil {
		return "", nil
	}
	c := &cleaner{resolveImage: func(src string) (string, bool) {
		if i := strings.IndexAny(src, "?#"); i >= 0 {
			src = src[:i]
		}
		url, ok := images[path.Join(dir, src)]
		return url, ok
	}}
	c.clean(body)
	return renderChildren(body)
}
