package api

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/cygnusreader/folio/internal/config"
	"github.com/cygnusreader/folio/internal/document"
	"github.com/cygnusreader/folio/internal/search"
	"github.com/cygnusreader/folio/internal/session"
	"github.com/cygnusreader/folio/internal/stats"
)

const notes = "# Field Notes\n\nHerons wait in the shallows.\n\n## Second Look\n\nThe herons leave at dusk.\n"

func testConfig() config.Config {
	return config.Config{
		Theme:              "default",
		Geometry:           document.DefaultGeometry(),
		MaxUploadBytes:     1 << 20,
		RateLimitPerMinute: 1000,
		EPUBMaxImages:      30,
	}
}

func newTestServer(t *testing.T, cfg config.Config, start bool) *Server {
	t.Helper()
	svc := session.New(session.Config{Workers: 1, QueueSize: 8}, stats.NewPagination(time.Hour), nil)
	if start {
		svc.Start(context.Background())
	}
	t.Cleanup(svc.Stop)
	return NewServer(svc, slog.New(slog.NewTextHandler(io.Discard, nil)), cfg)
}

func upload(t *testing.T, h http.Handler, filename, content string) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatal(err)
	}
	fw.Write([]byte(content))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/documents", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func get(h http.Handler, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

// openReady uploads notes and waits for the first pass to publish.
func openReady(t *testing.T, h http.Handler) string {
	t.Helper()
	rec := upload(t, h, "notes.md", notes)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
	var opened struct {
		Document session.Snapshot `json:"document"`
	}
	decode(t, rec, &opened)

	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		var snap session.Snapshot
		decode(t, get(h, "/api/documents/"+opened.Document.ID), &snap)
		if snap.Status == session.StatusReady {
			return snap.ID
		}
		if snap.Status == session.StatusFailed {
			t.Fatalf("pagination failed: %s", snap.Error)
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("timed out waiting for document")
	return ""
}

func TestHealthAndThemes(t *testing.T) {
	srv := newTestServer(t, testConfig(), false)

	rec := get(srv, "/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var themes struct {
		Themes  []string `json:"themes"`
		Default string   `json:"default"`
	}
	decode(t, get(srv, "/api/themes"), &themes)
	if themes.Default != "default" {
		t.Errorf("expected default theme, got %q", themes.Default)
	}
	found := false
	for _, n := range themes.Themes {
		if n == "dark" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected dark in %v", themes.Themes)
	}
}

func TestOpenAndRead(t *testing.T) {
	srv := newTestServer(t, testConfig(), true)
	id := openReady(t, srv)
	base := "/api/documents/" + id

	var snap session.Snapshot
	decode(t, get(srv, base), &snap)
	if snap.Title != "Field Notes" {
		t.Errorf("expected title Field Notes, got %q", snap.Title)
	}
	if snap.TotalPages != 1 {
		t.Errorf("expected 1 page, got %d", snap.TotalPages)
	}

	var pages struct {
		TotalPages int           `json:"total_pages"`
		Pages      []pageSummary `json:"pages"`
	}
	decode(t, get(srv, base+"/pages"), &pages)
	if pages.TotalPages != 1 || len(pages.Pages) != 1 {
		t.Fatalf("expected 1 page, got %d (%d listed)", pages.TotalPages, len(pages.Pages))
	}
	if pages.Pages[0].Fragments != 4 {
		t.Errorf("expected 4 fragments, got %d", pages.Pages[0].Fragments)
	}

	rec := get(srv, base+"/pages/1")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Herons wait in the shallows.") {
		t.Errorf("page html missing paragraph: %s", rec.Body.String())
	}
	if rec := get(srv, base+"/pages/2"); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for page 2, got %d", rec.Code)
	}
	if rec := get(srv, base+"/pages/zero"); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for page zero, got %d", rec.Code)
	}

	var toc struct {
		Toc []document.TocEntry `json:"toc"`
	}
	decode(t, get(srv, base+"/toc"), &toc)
	if len(toc.Toc) != 2 {
		t.Fatalf("expected 2 toc entries, got %d", len(toc.Toc))
	}
	if toc.Toc[1].Text != "Second Look" || toc.Toc[1].Level != 2 || toc.Toc[1].Page != 1 {
		t.Errorf("unexpected toc entry %+v", toc.Toc[1])
	}

	var found struct {
		Count int `json:"count"`
	}
	decode(t, get(srv, base+"/search?q=HERONS"), &found)
	if found.Count != 2 {
		t.Errorf("expected 2 matches, got %d", found.Count)
	}

	var step struct {
		Selected int          `json:"selected"`
		Match    search.Match `json:"match"`
	}
	decode(t, get(srv, base+"/search?q=herons&dir=prev"), &step)
	if step.Selected != 1 {
		t.Errorf("expected prev without a cursor to select the last match, got %d", step.Selected)
	}
	if step.Match.Offset != 4 {
		t.Errorf("expected the second hit at offset 4, got %d", step.Match.Offset)
	}
	decode(t, get(srv, base+"/search?q=herons&dir=next&cursor=1"), &step)
	if step.Selected != 0 {
		t.Errorf("expected next to wrap to 0, got %d", step.Selected)
	}
	if rec := get(srv, base+"/search?q=herons&dir=sideways"); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for a bad dir, got %d", rec.Code)
	}
	if rec := get(srv, base+"/search?q=herons&dir=next&cursor=-2"); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for a negative cursor, got %d", rec.Code)
	}
	if rec := get(srv, base+"/search"); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 without q, got %d", rec.Code)
	}
}

func TestExport(t *testing.T) {
	srv := newTestServer(t, testConfig(), true)
	base := "/api/documents/" + openReady(t, srv)

	rec := get(srv, base+"/export?format=pdf")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Errorf("expected application/pdf, got %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, `"notes.pdf"`) {
		t.Errorf("expected notes.pdf attachment, got %q", cd)
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")) {
		t.Errorf("expected PDF header")
	}

	rec = get(srv, base+"/export?format=html")
	if !strings.Contains(rec.Body.String(), "Field Notes") {
		t.Errorf("html export missing title")
	}

	rec = get(srv, base+"/export?format=all")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for the bundle, got %d: %s", rec.Code, rec.Body.String())
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, `"notes.zip"`) {
		t.Errorf("expected notes.zip attachment, got %q", cd)
	}
	zr, err := zip.NewReader(bytes.NewReader(rec.Body.Bytes()), int64(rec.Body.Len()))
	if err != nil {
		t.Fatalf("open bundle: %v", err)
	}
	if len(zr.File) != 3 || zr.File[1].Name != "notes.pdf" {
		t.Errorf("unexpected bundle entries %d", len(zr.File))
	}

	if rec := get(srv, base+"/export?format=rtf"); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for rtf, got %d", rec.Code)
	}
}

func TestNotReady(t *testing.T) {
	srv := newTestServer(t, testConfig(), false)
	rec := upload(t, srv, "notes.md", notes)
	var opened struct {
		Document session.Snapshot `json:"document"`
	}
	decode(t, rec, &opened)

	rec = get(srv, "/api/documents/"+opened.Document.ID+"/pages")
	if rec.Code != http.StatusConflict {
		t.Errorf("expected 409 before the first pass, got %d", rec.Code)
	}
}

func TestUnknownDocument(t *testing.T) {
	srv := newTestServer(t, testConfig(), false)
	for _, path := range []string{"/api/documents/nope", "/api/documents/nope/pages", "/api/documents/nope/toc"} {
		if rec := get(srv, path); rec.Code != http.StatusNotFound {
			t.Errorf("%s: expected 404, got %d", path, rec.Code)
		}
	}

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/documents/nope", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 on delete, got %d", rec.Code)
	}
}

func TestUploadRejected(t *testing.T) {
	cfg := testConfig()
	cfg.MaxUploadBytes = 16
	srv := newTestServer(t, cfg, false)

	if rec := upload(t, srv, "tool.exe", "MZ"); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for exe, got %d", rec.Code)
	}
	if rec := upload(t, srv, "notes.md", notes); rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("expected 413, got %d", rec.Code)
	}
}

func TestRelayoutBadTheme(t *testing.T) {
	srv := newTestServer(t, testConfig(), true)
	id := openReady(t, srv)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/documents/"+id+"/layout", strings.NewReader(`{"theme":"neon"}`))
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestAuth(t *testing.T) {
	cfg := testConfig()
	cfg.APIKey = "secret"
	srv := newTestServer(t, cfg, false)

	if rec := get(srv, "/health"); rec.Code != http.StatusOK {
		t.Errorf("expected health to stay public, got %d", rec.Code)
	}
	if rec := get(srv, "/api/stats/pagination"); rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/stats/pagination", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for a wrong key, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/stats/pagination", nil)
	req.Header.Set("Authorization", "Bearer secret")
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestEventsStream(t *testing.T) {
	srv := newTestServer(t, testConfig(), true)
	id := openReady(t, srv)
	ts := httptest.NewServer(srv)
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/documents/" + id + "/events"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	resp, err := http.Post(ts.URL+"/api/documents/"+id+"/layout", "application/json", strings.NewReader(`{"theme":"dark"}`))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", resp.StatusCode)
	}

	conn.SetReadDeadline(time.Now().Add(10 * time.Second))
	var ev session.Event
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("read event: %v", err)
	}
	if ev.Type != "paginated" || ev.Version != 2 || ev.DocumentID != id {
		t.Errorf("unexpected event %+v", ev)
	}
}
