package api

import (
	"bytes"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/cygnusreader/folio/internal/document"
	"github.com/cygnusreader/folio/internal/export"
	"github.com/cygnusreader/folio/internal/render"
	"github.com/cygnusreader/folio/internal/search"
	"github.com/cygnusreader/folio/internal/session"
	"github.com/cygnusreader/folio/internal/theme"
)

// ready returns the published layout of the document in the URL. Until the
// first pass publishes it writes 409 and returns ok=false.
func (s *Server) ready(w http.ResponseWriter, r *http.Request) (*session.Document, *document.Result, session.Layout, bool) {
	doc, err := s.sessions.Get(chi.URLParam(r, "docID"))
	if err != nil {
		sessionError(w, err)
		return nil, nil, session.Layout{}, false
	}
	res, l, ok := doc.Result()
	if !ok {
		jsonError(w, fmt.Sprintf("document is %s", doc.Snapshot().Status), http.StatusConflict)
		return nil, nil, session.Layout{}, false
	}
	return doc, res, l, true
}

type pageSummary struct {
	Page      int     `json:"page"`
	Height    float64 `json:"height"`
	Fragments int     `json:"fragments"`
	Partial   int     `json:"partial"`
}

func (s *Server) handleListPages(w http.ResponseWriter, r *http.Request) {
	doc, res, l, ok := s.ready(w, r)
	if !ok {
		return
	}
	pages := make([]pageSummary, len(res.Pages))
	for i, p := range res.Pages {
		pages[i] = pageSummary{Page: i + 1, Height: p.Height, Fragments: len(p.Blocks)}
		for _, pb := range p.Blocks {
			if pb.Partial {
				pages[i].Partial++
			}
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id":          doc.ID,
		"layout":      l,
		"total_pages": res.TotalPages(),
		"pages":       pages,
	})
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	_, res, l, ok := s.ready(w, r)
	if !ok {
		return
	}
	n, err := strconv.Atoi(chi.URLParam(r, "n"))
	if err != nil || n < 1 || n > res.TotalPages() {
		jsonError(w, "page out of range", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(render.Page(res.Pages[n-1], n, res.TotalPages(), theme.Lookup(l.Theme))))
}

func (s *Server) handleToc(w http.ResponseWriter, r *http.Request) {
	_, res, _, ok := s.ready(w, r)
	if !ok {
		return
	}
	toc := res.Toc
	if toc == nil {
		toc = []document.TocEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"toc": toc})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	_, res, _, ok := s.ready(w, r)
	if !ok {
		return
	}
	q := r.URL.Query().Get("q")
	if strings.TrimSpace(q) == "" {
		jsonError(w, "q query parameter is required", http.StatusBadRequest)
		return
	}
	matches := search.Find(res.Pages, q)
	if matches == nil {
		matches = []search.Match{}
	}
	body := map[string]any{
		"query":   q,
		"count":   len(matches),
		"matches": matches,
	}

	// dir=next|prev steps a match cursor from cursor, wrapping at either end.
	// Without a cursor, next selects the first match and prev the last.
	if dir := r.URL.Query().Get("dir"); dir != "" {
		cursor := -1
		if c := r.URL.Query().Get("cursor"); c != "" {
			n, err := strconv.Atoi(c)
			if err != nil || n < 0 {
				jsonError(w, "cursor must be a non-negative integer", http.StatusBadRequest)
				return
			}
			cursor = n
		}
		var sel int
		switch dir {
		case "next":
			sel = search.Next(cursor, len(matches))
		case "prev":
			if cursor < 0 {
				cursor = 0
			}
			sel = search.Prev(cursor, len(matches))
		default:
			jsonError(w, "dir must be next or prev", http.StatusBadRequest)
			return
		}
		if len(matches) > 0 {
			body["selected"] = sel
			body["match"] = matches[sel]
		}
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	doc, res, l, ok := s.ready(w, r)
	if !ok {
		return
	}
	exp := &export.Document{
		Title:    doc.Title,
		Pages:    res.Pages,
		Toc:      res.Toc,
		Theme:    theme.Lookup(l.Theme),
		Geometry: l.Geometry,
	}
	base := strings.TrimSuffix(doc.Filename, filepath.Ext(doc.Filename))

	var (
		buf         bytes.Buffer
		contentType string
		name        string
	)
	if f := r.URL.Query().Get("format"); strings.EqualFold(strings.TrimSpace(f), "all") {
		if err := export.Bundle(r.Context(), &buf, exp, base); err != nil {
			s.log.Error("export failed", "doc_id", doc.ID, "format", "all", "error", err)
			jsonError(w, "export failed", http.StatusInternalServerError)
			return
		}
		contentType, name = export.BundleContentType, base+".zip"
	} else {
		format, err := export.ParseFormat(f)
		if err != nil {
			jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := export.Write(&buf, format, exp); err != nil {
			s.log.Error("export failed", "doc_id", doc.ID, "format", format, "error", err)
			jsonError(w, "export failed", http.StatusInternalServerError)
			return
		}
		contentType, name = format.ContentType(), base+"."+string(format)
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Write(buf.Bytes())
}
