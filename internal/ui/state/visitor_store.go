// Package state keeps the per-visitor form instances of the UI server.
package state

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Its-donkey/chatapp-web/internal/ui/forms"
	"github.com/Its-donkey/chatapp-web/logging"
)

// FormFactory builds a fresh pair of form instances for a new visitor.
type FormFactory func() (login, register *forms.Form)

// Visitor owns one login and one registration form instance.
type Visitor struct {
	ID       string
	Login    *forms.Form
	Register *forms.Form

	lastSeen time.Time
}

func (v *Visitor) close() {
	v.Login.Close()
	v.Register.Close()
}

// Store maps visitor IDs to their form instances and tears down visitors
// that have been idle longer than the TTL. When limit is positive the store
// never holds more than limit visitors; creating one beyond that evicts the
// least recently seen.
type Store struct {
	mu       sync.RWMutex
	visitors map[string]*Visitor
	ttl      time.Duration
	limit    int
	newForms FormFactory
	now      func() time.Time
	logger   *logging.Logger
}

// NewStore constructs an empty Store. A limit of zero or less leaves the store
// bounded only by the TTL.
func NewStore(ttl time.Duration, limit int, factory FormFactory, logger *logging.Logger) *Store {
	return &Store{
		visitors: make(map[string]*Visitor),
		ttl:      ttl,
		limit:    limit,
		newForms: factory,
		now:      time.Now,
		logger:   logger,
	}
}

// Visitor returns the visitor with the given ID and marks it as seen.
func (s *Store) Visitor(id string) (*Visitor, bool) {
	if id == "" {
		return nil, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.visitors[id]
	if !ok {
		return nil, false
	}
	v.lastSeen = s.now()
	return v, true
}

// Create registers a new visitor with a random ID.
func (s *Store) Create() *Visitor {
	login, register := s.newForms()
	v := &Visitor{
		ID:       uuid.NewString(),
		Login:    login,
		Register: register,
	}

	s.mu.Lock()
	var evicted *Visitor
	if s.limit > 0 && len(s.visitors) >= s.limit {
		evicted = s.oldestLocked()
		delete(s.visitors, evicted.ID)
	}
	v.lastSeen = s.now()
	s.visitors[v.ID] = v
	s.mu.Unlock()

	if evicted != nil {
		evicted.close()
		s.logger.Debug("state", "evicted least recently seen visitor", map[string]any{"limit": s.limit})
	}
	return v
}

func (s *Store) oldestLocked() *Visitor {
	var oldest *Visitor
	for _, v := range s.visitors {
		if oldest == nil || v.lastSeen.Before(oldest.lastSeen) {
			oldest = v
		}
	}
	return oldest
}

// Len reports how many visitors are tracked.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.visitors)
}

// Sweep tears down idle visitors and returns how many were removed.
func (s *Store) Sweep() int {
	cutoff := s.now().Add(-s.ttl)

	s.mu.Lock()
	var expired []*Visitor
	for id, v := range s.visitors {
		if v.lastSeen.Before(cutoff) {
			expired = append(expired, v)
			delete(s.visitors, id)
		}
	}
	s.mu.Unlock()

	for _, v := range expired {
		v.close()
	}
	if len(expired) > 0 {
		s.logger.Debug("state", "expired idle visitors", map[string]any{"count": len(expired)})
	}
	return len(expired)
}

// Run sweeps every interval until ctx is done.
func (s *Store) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

// Close tears down every visitor.
func (s *Store) Close() {
	s.mu.Lock()
	visitors := s.visitors
	s.visitors = make(map[string]*Visitor)
	s.mu.Unlock()

	for _, v := range visitors {
		v.close()
	}
}
