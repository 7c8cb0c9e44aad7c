package session

import (
	"sync"
	"time"
)

// Store is a thread-safe in-memory document registry with TTL eviction.
type Store struct {
	mu   sync.Mutex
	docs map[string]*Document
	ttl  time.Duration
}

func NewStore(ttl time.Duration) *Store {
	return &Store{
		docs: make(map[string]*Document),
		ttl:  ttl,
	}
}

func (s *Store) Put(doc *Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[doc.ID] = doc
}

func (s *Store) Get(id string) *Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.docs[id]
}

// Remove deletes id and returns the document it held.
func (s *Store) Remove(id string) *Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc := s.docs[id]
	delete(s.docs, id)
	return doc
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.docs)
}

// Cleanup removes documents untouched for longer than the TTL and returns
// how many were evicted.
func (s *Store) Cleanup() int {
	s.mu.Lock()
	var expired []*Document
	now := time.Now()
	for id, doc := range s.docs {
		if now.Sub(doc.UpdatedAt()) > s.ttl {
			delete(s.docs, id)
			expired = append(expired, doc)
		}
	}
	s.mu.Unlock()

	for _, doc := range expired {
		doc.close()
	}
	return len(expired)
}
