package convo

import (
	"container/list"
	"context"
	"sync"
	"time"
)

// MemoryOptions bound the in-process store. Zero values disable the corresponding limit.
type MemoryOptions struct {
	MaxTurns         int
	MaxConversations int
	IdleTTL          time.Duration
}

type transcript struct {
	key        string
	turns      []Turn
	lastActive time.Time
	elem       *list.Element
}

// MemoryStore keeps transcripts in process memory with LRU and idle expiry.
type MemoryStore struct {
	mu    sync.Mutex
	opts  MemoryOptions
	byKey map[string]*transcript
	lru   *list.List // front = most recently used
	now   func() time.Time
}

func NewMemoryStore(opts MemoryOptions) *MemoryStore {
	return &MemoryStore{
		opts:  opts,
		byKey: make(map[string]*transcript),
		lru:   list.New(),
		now:   time.Now,
	}
}

func (s *MemoryStore) Ensure(_ context.Context, key Key) error {
	if !key.valid() {
		return ErrInvalidKey
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchLocked(key.String())
	return nil
}

func (s *MemoryStore) AppendUser(ctx context.Context, key Key, speaker, text string) error {
	return s.append(key, Turn{Role: RoleUser, Speaker: speaker, Content: text})
}

func (s *MemoryStore) AppendAssistant(ctx context.Context, key Key, text string) error {
	return s.append(key, Turn{Role: RoleAssistant, Content: text})
}

func (s *MemoryStore) append(key Key, turn Turn) error {
	if !key.valid() {
		return ErrInvalidKey
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	tr := s.touchLocked(key.String())
	turn.At = tr.lastActive
	tr.turns = append(tr.turns, turn)
	if max := s.opts.MaxTurns; max > 0 && len(tr.turns) > max {
		// 오래된 턴부터 버린다
		tr.turns = append([]Turn(nil), tr.turns[len(tr.turns)-max:]...)
	}
	return nil
}

func (s *MemoryStore) Turns(_ context.Context, key Key) ([]Turn, error) {
	if !key.valid() {
		return nil, ErrInvalidKey
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	tr, ok := s.byKey[key.String()]
	if !ok {
		return []Turn{}, nil
	}
	out := make([]Turn, len(tr.turns))
	copy(out, tr.turns)
	return out, nil
}

// Len reports how many transcripts are currently held.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byKey)
}

// Sweep drops transcripts idle for longer than IdleTTL and returns how many were removed.
func (s *MemoryStore) Sweep(now time.Time) int {
	if s.opts.IdleTTL <= 0 {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for e := s.lru.Back(); e != nil; {
		tr := e.Value.(*transcript)
		if now.Sub(tr.lastActive) < s.opts.IdleTTL {
			break
		}
		prev := e.Prev()
		s.removeLocked(tr)
		removed++
		e = prev
	}
	return removed
}

func (s *MemoryStore) Close() error { return nil }

func (s *MemoryStore) touchLocked(k string) *transcript {
	now := s.now()
	if tr, ok := s.byKey[k]; ok {
		tr.lastActive = now
		s.lru.MoveToFront(tr.elem)
		return tr
	}
	tr := &transcript{key: k, lastActive: now}
	tr.elem = s.lru.PushFront(tr)
	s.byKey[k] = tr
	if max := s.opts.MaxConversations; max > 0 {
		for len(s.byKey) > max {
			oldest := s.lru.Back()
			if oldest == nil || oldest == tr.elem {
				break
			}
			s.removeLocked(oldest.Value.(*transcript))
		}
	}
	return tr
}

func (s *MemoryStore) removeLocked(tr *transcript) {
	s.lru.Remove(tr.elem)
	delete(s.byKey, tr.key)
}
