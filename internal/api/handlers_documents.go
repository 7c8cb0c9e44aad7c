package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/cygnusreader/folio/internal/document"
	"github.com/cygnusreader/folio/internal/session"
	"github.com/cygnusreader/folio/internal/source"
	"github.com/cygnusreader/folio/internal/theme"
)

func (s *Server) handleOpen(w http.ResponseWriter, r *http.Request) {
	// Limit total request size.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	conv, err := source.ForFile(filename, source.Options{
		MaxImages:   s.cfg.EPUBMaxImages,
		PDFFallback: s.cfg.PDFFallbackPdftotext,
	})
	if err != nil {
		jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)), http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		jsonError(w, "failed to read file", http.StatusInternalServerError)
		return
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return
	}

	doc, err := conv.Convert(bytes.NewReader(data), filename)
	if err != nil {
		s.log.Warn("conversion failed", "filename", filename, "error", err)
		jsonError(w, "could not read document: "+err.Error(), http.StatusUnprocessableEntity)
		return
	}
	title := doc.Title
	if t := strings.TrimSpace(r.FormValue("title")); t != "" {
		title = t
	}

	l := session.Layout{Theme: s.cfg.Theme, Geometry: s.cfg.Geometry}
	if t := r.FormValue("theme"); t != "" {
		l.Theme = t
	}
	snap, err := s.sessions.Open(title, filename, doc.HTML, l)
	if err != nil {
		sessionError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"document":   snap,
		"status_url": fmt.Sprintf("/api/documents/%s", snap.ID),
		"events_url": fmt.Sprintf("/api/documents/%s/events", snap.ID),
	})
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := s.sessions.Get(chi.URLParam(r, "docID"))
	if err != nil {
		sessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc.Snapshot())
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Delete(chi.URLParam(r, "docID")); err != nil {
		sessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": true})
}

type layoutRequest struct {
	Theme    string             `json:"theme"`
	Geometry *document.Geometry `json:"geometry,omitempty"`
}

func (s *Server) handleRelayout(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "docID")
	doc, err := s.sessions.Get(id)
	if err != nil {
		sessionError(w, err)
		return
	}

	var req layoutRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<16)).Decode(&req); err != nil {
		jsonError(w, "invalid layout request: "+err.Error(), http.StatusBadRequest)
		return
	}
	current := doc.Snapshot().Layout
	l := session.Layout{Theme: req.Theme, Geometry: current.Geometry}
	if l.Theme == "" {
		l.Theme = current.Theme
	}
	if req.Geometry != nil {
		l.Geometry = *req.Geometry
	}

	snap, err := s.sessions.Relayout(id, l)
	if err != nil {
		sessionError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, snap)
}

func (s *Server) handleThemes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"themes":  theme.Names(),
		"default": s.cfg.Theme,
	})
}

func (s *Server) handlePaginationStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"stats":       s.sessions.Stats(),
		"queue_depth": s.sessions.QueueDepth(),
	})
}

func sessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrNotFound):
		jsonError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, session.ErrBadLayout):
		jsonError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, session.ErrQueueFull):
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
	default:
		jsonError(w, err.Error(), http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}
