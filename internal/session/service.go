// Package session keeps opened documents in memory and lays them out on a
// bounded worker pool. Every layout request bumps the document version;
// only the pass for the newest version may publish.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/cygnusreader/folio/internal/document"
	"github.com/cygnusreader/folio/internal/layout"
	"github.com/cygnusreader/folio/internal/paginate"
	"github.com/cygnusreader/folio/internal/stats"
	"github.com/cygnusreader/folio/internal/theme"
)

var (
	ErrNotFound  = errors.New("document not found")
	ErrQueueFull = errors.New("layout queue is full")
	ErrBadLayout = errors.New("invalid layout")
)

// Config sizes the service.
type Config struct {
	Workers   int
	QueueSize int
	DocTTL    time.Duration
	CacheTTL  time.Duration
	Policy    paginate.Policy
	Probe     layout.Factory // nil selects the built-in typesetter
}

type task struct {
	doc     *Document
	version int
}

// Service owns the document store, the layout queue and its workers.
type Service struct {
	store *Store
	queue chan task
	memo  *cache.Cache
	stats *stats.Pagination
	log   *slog.Logger
	cfg   Config

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates the service. Call Start to launch workers.
func New(cfg Config, st *stats.Pagination, log *slog.Logger) *Service {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 1
	}
	if cfg.DocTTL <= 0 {
		cfg.DocTTL = 2 * time.Hour
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 30 * time.Minute
	}
	if st == nil {
		st = stats.NewPagination(time.Hour)
	}
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{
		store: NewStore(cfg.DocTTL),
		queue: make(chan task, cfg.QueueSize),
		memo:  cache.New(cfg.CacheTTL, cfg.CacheTTL/2),
		stats: st,
		log:   log,
		cfg:   cfg,
	}
}

// Start launches worker goroutines and the store janitor.
func (s *Service) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	for i := 0; i < s.cfg.Workers; i++ {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			for {
				select {
				case <-workerCtx.Done():
					return
				case t, ok := <-s.queue:
					if !ok {
						return
					}
					s.process(workerCtx, t)
				}
			}
		}()
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C:
				if n := s.store.Cleanup(); n > 0 {
					s.log.Info("expired documents", "count", n)
				}
			}
		}
	}()
}

// Stop cancels in-flight passes and waits for workers to exit.
func (s *Service) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	close(s.queue)
	s.wg.Wait()
}

// Stats returns the rolling pagination aggregate.
func (s *Service) Stats() stats.Snapshot {
	return s.stats.Snapshot()
}

// QueueDepth returns current queue depth.
func (s *Service) QueueDepth() int {
	return len(s.queue)
}

func validLayout(l Layout) error {
	if !theme.Exists(l.Theme) {
		return fmt.Errorf("%w: unknown theme %q", ErrBadLayout, l.Theme)
	}
	if err := l.Geometry.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrBadLayout, err)
	}
	return nil
}

// Open registers converted content and queues its first pass.
func (s *Service) Open(title, filename, html string, l Layout) (Snapshot, error) {
	if err := validLayout(l); err != nil {
		return Snapshot{}, err
	}
	doc := newDocument(uuid.New().String(), filename, title, html, l)
	s.store.Put(doc)
	if err := s.enqueue(task{doc: doc, version: 1}); err != nil {
		s.store.Remove(doc.ID)
		doc.close()
		return Snapshot{}, err
	}
	s.log.Info("document opened", "doc_id", doc.ID, "filename", filename, "theme", l.Theme)
	return doc.Snapshot(), nil
}

// Relayout requests a new pass with a different style. Any pass still
// running for an older version is cancelled and its result discarded.
func (s *Service) Relayout(id string, l Layout) (Snapshot, error) {
	if err := validLayout(l); err != nil {
		return Snapshot{}, err
	}
	doc := s.store.Get(id)
	if doc == nil {
		return Snapshot{}, ErrNotFound
	}
	version := doc.request(l)
	if err := s.enqueue(task{doc: doc, version: version}); err != nil {
		doc.fail(version, err)
		return doc.Snapshot(), err
	}
	return doc.Snapshot(), nil
}

func (s *Service) enqueue(t task) error {
	select {
	case s.queue <- t:
		return nil
	default:
		return fmt.Errorf("%w (%d)", ErrQueueFull, cap(s.queue))
	}
}

// Get returns an open document.
func (s *Service) Get(id string) (*Document, error) {
	doc := s.store.Get(id)
	if doc == nil {
		return nil, ErrNotFound
	}
	return doc, nil
}

// Delete closes a document, cancelling its pass and subscribers.
func (s *Service) Delete(id string) error {
	doc := s.store.Remove(id)
	if doc == nil {
		return ErrNotFound
	}
	doc.close()
	return nil
}

// Subscribe streams events for id until cancel is called or the document
// is deleted, at which point the channel is closed.
func (s *Service) Subscribe(id string) (<-chan Event, func(), error) {
	doc := s.store.Get(id)
	if doc == nil {
		return nil, nil, ErrNotFound
	}
	ch, cancel := doc.subscribe()
	return ch, cancel, nil
}

func memoKey(hash string, l Layout) string {
	return hash + "|" + l.Theme + "|" + l.Geometry.Key()
}

func (s *Service) process(ctx context.Context, t task) {
	doc := t.doc
	version, l := doc.current()
	log := s.log.With("doc_id", doc.ID, "version", t.version)
	if version != t.version {
		log.Debug("skipping superseded layout request", "current", version)
		return
	}

	passCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	if !doc.begin(t.version, cancel) {
		return
	}

	key := memoKey(doc.hash, l)
	if cached, ok := s.memo.Get(key); ok {
		if doc.publish(t.version, cached.(*document.Result), l) {
			log.Info("layout served from cache", "pages", cached.(*document.Result).TotalPages())
		}
		return
	}

	start := time.Now()
	res, err := paginate.Paginate(passCtx, doc.html, paginate.Options{
		Theme:    theme.Lookup(l.Theme),
		Geometry: l.Geometry,
		Policy:   s.cfg.Policy,
		Probe:    s.cfg.Probe,
		Logger:   log,
	})
	elapsed := time.Since(start)
	if err != nil {
		if passCtx.Err() != nil {
			s.stats.RecordStale(elapsed)
			log.Info("layout pass cancelled", "duration_ms", elapsed.Milliseconds())
			return
		}
		log.Error("layout pass failed", "error", err)
		doc.fail(t.version, err)
		return
	}

	s.memo.Set(key, res, cache.DefaultExpiration)
	if !doc.publish(t.version, res, l) {
		s.stats.RecordStale(elapsed)
		log.Info("discarded superseded layout", "duration_ms", elapsed.Milliseconds())
		return
	}
	s.stats.Record(elapsed, res.TotalPages())
}
