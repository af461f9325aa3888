package convo

import (
	"context"
	"testing"
	"time"
)

func TestMemoryStoreAppendOrder(t *testing.T) {
	s := NewMemoryStore(MemoryOptions{})
	ctx := context.Background()
	k := ResolveKey(ScopeShared, "g1", "u1")

	if err := s.Ensure(ctx, k); err != nil {
		t.Fatalf("Ensure: %v", err)
	}
	if err := s.Ensure(ctx, k); err != nil {
		t.Fatalf("Ensure twice: %v", err)
	}
	turns, _ := s.Turns(ctx, k)
	if len(turns) != 0 {
		t.Fatalf("ensure must not add turns, got %d", len(turns))
	}

	_ = s.AppendUser(ctx, k, "Ana", "hola")
	_ = s.AppendUser(ctx, k, "Luis", "")
	_ = s.AppendAssistant(ctx, k, "buenas")

	turns, err := s.Turns(ctx, k)
	if err != nil {
		t.Fatalf("Turns: %v", err)
	}
	if len(turns) != 3 {
		t.Fatalf("expected 3 turns, got %d", len(turns))
	}
	if turns[0].Rendered() != "Ana: hola" || turns[1].Content != "" || turns[2].Role != RoleAssistant {
		t.Fatalf("unexpected turns: %+v", turns)
	}

	// 반환값은 복사본
	turns[0].Content = "changed"
	again, _ := s.Turns(ctx, k)
	if again[0].Content != "hola" {
		t.Fatalf("Turns must return a copy")
	}
}

func TestMemoryStoreAppendWithoutEnsure(t *testing.T) {
	s := NewMemoryStore(MemoryOptions{})
	ctx := context.Background()
	k := ResolveKey(ScopeDirect, "c", "u")
	if err := s.AppendAssistant(ctx, k, "hola"); err != nil {
		t.Fatalf("AppendAssistant: %v", err)
	}
	turns, _ := s.Turns(ctx, k)
	if len(turns) != 1 {
		t.Fatalf("expected implicit ensure, got %d turns", len(turns))
	}
}

func TestMemoryStoreInvalidKey(t *testing.T) {
	s := NewMemoryStore(MemoryOptions{})
	if err := s.AppendUser(context.Background(), Key{}, "", "x"); err != ErrInvalidKey {
		t.Fatalf("expected ErrInvalidKey, got %v", err)
	}
}

func TestMemoryStoreMaxTurns(t *testing.T) {
	s := NewMemoryStore(MemoryOptions{MaxTurns: 2})
	ctx := context.Background()
	k := ResolveKey(ScopeDirect, "c", "u")
	_ = s.AppendUser(ctx, k, "", "1")
	_ = s.AppendUser(ctx, k, "", "2")
	_ = s.AppendUser(ctx, k, "", "3")
	turns, _ := s.Turns(ctx, k)
	if len(turns) != 2 || turns[0].Content != "2" || turns[1].Content != "3" {
		t.Fatalf("unexpected trimmed turns: %+v", turns)
	}
}

func TestMemoryStoreLRUEviction(t *testing.T) {
	s := NewMemoryStore(MemoryOptions{MaxConversations: 2})
	ctx := context.Background()
	a := ResolveKey(ScopeShared, "a", "")
	b := ResolveKey(ScopeShared, "b", "")
	c := ResolveKey(ScopeShared, "c", "")

	_ = s.AppendUser(ctx, a, "x", "1")
	_ = s.AppendUser(ctx, b, "x", "1")
	_ = s.AppendUser(ctx, a, "x", "2") // a is now most recent
	_ = s.AppendUser(ctx, c, "x", "1") // evicts b

	if s.Len() != 2 {
		t.Fatalf("expected 2 transcripts, got %d", s.Len())
	}
	if turns, _ := s.Turns(ctx, b); len(turns) != 0 {
		t.Fatalf("expected b evicted, got %d turns", len(turns))
	}
	if turns, _ := s.Turns(ctx, a); len(turns) != 2 {
		t.Fatalf("expected a kept with 2 turns, got %d", len(turns))
	}
}

func TestMemoryStoreSweep(t *testing.T) {
	s := NewMemoryStore(MemoryOptions{IdleTTL: time.Minute})
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := base
	s.now = func() time.Time { return clock }
	ctx := context.Background()

	old := ResolveKey(ScopeDirect, "c", "old")
	fresh := ResolveKey(ScopeDirect, "c", "fresh")
	_ = s.AppendUser(ctx, old, "", "hola")
	clock = base.Add(50 * time.Second)
	_ = s.AppendUser(ctx, fresh, "", "hola")

	if n := s.Sweep(base.Add(90 * time.Second)); n != 1 {
		t.Fatalf("expected 1 swept, got %d", n)
	}
	if turns, _ := s.Turns(ctx, old); len(turns) != 0 {
		t.Fatalf("old transcript should be gone")
	}
	if turns, _ := s.Turns(ctx, fresh); len(turns) != 1 {
		t.Fatalf("fresh transcript should remain")
	}
}
