// Package memstore keeps dashboard sessions in process memory.
package memstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"review_insights/internal/domain"
)

// Sessions stores JSON snapshots so callers never share mutable state
// with the store.
type Sessions struct {
	mu  sync.RWMutex
	m   map[string][]byte
	ttl time.Duration
	now func() time.Time
}

// New returns a store whose sessions expire ttl after their last update;
// ttl <= 0 keeps them for the life of the process.
func New(ttl time.Duration) *Sessions {
	return &Sessions{m: map[string][]byte{}, ttl: ttl, now: time.Now}
}

func (s *Sessions) Load(ctx context.Context, id string) (*domain.Session, error) {
	s.mu.RLock()
	b, ok := s.m[id]
	s.mu.RUnlock()
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	var out domain.Session
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	if s.ttl > 0 && s.now().Sub(out.UpdatedAt) > s.ttl {
		s.mu.Lock()
		delete(s.m, id)
		s.mu.Unlock()
		return nil, domain.ErrSessionNotFound
	}
	return &out, nil
}

func (s *Sessions) Save(ctx context.Context, sess *domain.Session) error {
	b, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	s.mu.Lock()
	s.m[sess.ID] = b
	s.mu.Unlock()
	return nil
}

func (s *Sessions) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.m[id]; !ok {
		return domain.ErrSessionNotFound
	}
	delete(s.m, id)
	return nil
}
