// Package memstore holds the session record in process memory. It backs the
// "memory" store configuration used in development and tests, where losing
// the session on restart is the desired behavior.
package memstore

import (
	"context"
	"sync"

	domainid "github.com/shopfront/identity/internal/domain/identity"
)

// Store is an in-memory session store. Safe for concurrent use.
type Store struct {
	mu  sync.Mutex
	rec *domainid.SessionRecord
}

// New creates an empty in-memory session store.
func New() *Store {
	return &Store{}
}

func (s *Store) Load(_ context.Context) (domainid.SessionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rec == nil || !s.rec.Complete() {
		return domainid.SessionRecord{}, domainid.ErrNoSession
	}
	return *s.rec, nil
}

func (s *Store) Save(_ context.Context, rec domainid.SessionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rec = &rec
	return nil
}

func (s *Store) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rec = nil
	return nil
}
