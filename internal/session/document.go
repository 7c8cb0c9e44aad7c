package session

import (
	"context"
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"github.com/cygnusreader/folio/internal/document"
)

// Status is the lifecycle state of an open document.
type Status string

const (
	StatusQueued     Status = "queued"
	StatusPaginating Status = "paginating"
	StatusReady      Status = "ready"
	StatusFailed     Status = "failed"
)

// Layout is the style a pass is run with.
type Layout struct {
	Theme    string            `json:"theme"`
	Geometry document.Geometry `json:"geometry"`
}

// Event is pushed to subscribers when a pass publishes or fails.
type Event struct {
	Type       string `json:"type"` // "paginated" or "failed"
	DocumentID string `json:"document_id"`
	Version    int    `json:"version"`
	TotalPages int    `json:"total_pages"`
	Error      string `json:"error,omitempty"`
}

// Document is an opened file and its latest published layout.
type Document struct {
	mu sync.Mutex

	ID       string
	Filename string
	Title    string

	status  Status
	version int
	layout  Layout // requested for the current version

	html string
	hash string

	result       *document.Result
	resultLayout Layout
	errMsg       string

	cancelPass context.CancelFunc
	subs       map[int]chan Event
	nextSub    int
	closed     bool

	CreatedAt time.Time
	updatedAt time.Time
}

func newDocument(id, filename, title, html string, l Layout) *Document {
	now := time.Now()
	return &Document{
		ID:        id,
		Filename:  filename,
		Title:     title,
		status:    StatusQueued,
		version:   1,
		layout:    l,
		html:      html,
		hash:      ContentHashHex([]byte(html)),
		subs:      make(map[int]chan Event),
		CreatedAt: now,
		updatedAt: now,
	}
}

// Snapshot is a read-only, JSON-safe copy of document state.
type Snapshot struct {
	ID         string    `json:"id"`
	Filename   string    `json:"filename"`
	Title      string    `json:"title"`
	Status     Status    `json:"status"`
	Version    int       `json:"version"`
	Layout     Layout    `json:"layout"`
	TotalPages int       `json:"total_pages"`
	TocEntries int       `json:"toc_entries"`
	Error      string    `json:"error,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (d *Document) Snapshot() Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	snap := Snapshot{
		ID:        d.ID,
		Filename:  d.Filename,
		Title:     d.Title,
		Status:    d.status,
		Version:   d.version,
		Layout:    d.layout,
		Error:     d.errMsg,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.updatedAt,
	}
	if d.result != nil {
		snap.TotalPages = d.result.TotalPages()
		snap.TocEntries = len(d.result.Toc)
	}
	return snap
}

// Result returns the last published layout and the style it was run with.
// A result stays readable while a newer pass is in flight.
func (d *Document) Result() (*document.Result, Layout, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.result == nil {
		return nil, Layout{}, false
	}
	return d.result, d.resultLayout, true
}

// UpdatedAt returns the time of the last state change.
func (d *Document) UpdatedAt() time.Time {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.updatedAt
}

// request starts a new version and cancels any pass for an older one.
func (d *Document) request(l Layout) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cancelPass != nil {
		d.cancelPass()
		d.cancelPass = nil
	}
	d.version++
	d.layout = l
	d.status = StatusQueued
	d.updatedAt = time.Now()
	return d.version
}

// begin marks version as running. It reports false when version is stale.
func (d *Document) begin(version int, cancel context.CancelFunc) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if version != d.version || d.closed {
		return false
	}
	d.cancelPass = cancel
	d.status = StatusPaginating
	d.updatedAt = time.Now()
	return true
}

// publish commits res if version is still current. Stale results are
// dropped so the newest request always wins.
func (d *Document) publish(version int, res *document.Result, l Layout) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if version != d.version || d.closed {
		return false
	}
	d.result = res
	d.resultLayout = l
	d.status = StatusReady
	d.errMsg = ""
	d.cancelPass = nil
	d.updatedAt = time.Now()
	d.broadcastLocked(Event{Type: "paginated", DocumentID: d.ID, Version: version, TotalPages: res.TotalPages()})
	return true
}

// fail records err if version is still current.
func (d *Document) fail(version int, err error) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if version != d.version || d.closed {
		return false
	}
	d.status = StatusFailed
	d.errMsg = err.Error()
	d.cancelPass = nil
	d.updatedAt = time.Now()
	d.broadcastLocked(Event{Type: "failed", DocumentID: d.ID, Version: version, Error: d.errMsg})
	return true
}

func (d *Document) current() (int, Layout) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.version, d.layout
}

func (d *Document) subscribe() (<-chan Event, func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	ch := make(chan Event, 8)
	if d.closed {
		close(ch)
		return ch, func() {}
	}
	id := d.nextSub
	d.nextSub++
	d.subs[id] = ch
	return ch, func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		if c, ok := d.subs[id]; ok {
			delete(d.subs, id)
			close(c)
		}
	}
}

// broadcastLocked never blocks; a subscriber that falls behind misses
// events and should re-read the snapshot.
func (d *Document) broadcastLocked(ev Event) {
	for _, ch := range d.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// close cancels work and releases subscribers.
func (d *Document) close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.closed = true
	if d.cancelPass != nil {
		d.cancelPass()
		d.cancelPass = nil
	}
	for id, ch := range d.subs {
		delete(d.subs, id)
		close(ch)
	}
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}
