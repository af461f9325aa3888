package hangman

import (
	"context"
	"strings"
	"sync"
	"time"
)

// Registry holds at most one active session per chat scope.
// Get returns a copy; callers commit mutations with Save.
type Registry interface {
	Start(ctx context.Context, scopeID, word, startedBy string) (*Session, error)
	Get(ctx context.Context, scopeID string) (*Session, error)
	Save(ctx context.Context, s *Session) error
	End(ctx context.Context, scopeID string) (*Session, error)
}

// MemoryRegistry is the in-process Registry.
type MemoryRegistry struct {
	mu      sync.RWMutex
	byScope map[string]*Session
	idleTTL time.Duration
}

func NewMemoryRegistry(idleTTL time.Duration) *MemoryRegistry {
	return &MemoryRegistry{byScope: make(map[string]*Session), idleTTL: idleTTL}
}

func (r *MemoryRegistry) Start(_ context.Context, scopeID, word, startedBy string) (*Session, error) {
	scopeID = strings.TrimSpace(scopeID)
	s, err := NewSession(scopeID, word, startedBy)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byScope[scopeID]; ok {
		return nil, ErrAlreadyActive
	}
	r.byScope[scopeID] = s
	return s.Clone(), nil
}

func (r *MemoryRegistry) Get(_ context.Context, scopeID string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.byScope[strings.TrimSpace(scopeID)]
	if !ok {
		return nil, nil
	}
	return s.Clone(), nil
}

func (r *MemoryRegistry) Save(_ context.Context, s *Session) error {
	if s == nil {
		return ErrNoActiveGame
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.byScope[s.ScopeID]
	if !ok || cur.ID != s.ID {
		return ErrNoActiveGame
	}
	r.byScope[s.ScopeID] = s.Clone()
	return nil
}

// End removes the session. Ending a scope without a game is an error.
func (r *MemoryRegistry) End(_ context.Context, scopeID string) (*Session, error) {
	scopeID = strings.TrimSpace(scopeID)
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byScope[scopeID]
	if !ok {
		return nil, ErrNoActiveGame
	}
	delete(r.byScope, scopeID)
	return s, nil
}

// Sweep drops sessions without activity for longer than the idle TTL.
func (r *MemoryRegistry) Sweep(now time.Time) int {
	if r.idleTTL <= 0 {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for id, s := range r.byScope {
		if now.Sub(s.UpdatedAt) >= r.idleTTL {
			delete(r.byScope, id)
			removed++
		}
	}
	return removed
}
