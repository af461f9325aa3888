package hangman

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedisRegistry(t *testing.T) (*RedisRegistry, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisRegistry(rdb, time.Hour), mr
}

func registries(t *testing.T) map[string]Registry {
	t.Helper()
	rr, _ := newTestRedisRegistry(t)
	return map[string]Registry{
		"memory": NewMemoryRegistry(time.Hour),
		"redis":  rr,
	}
}

func TestRegistryAlreadyActive(t *testing.T) {
	for name, reg := range registries(t) {
		ctx := context.Background()
		first, err := reg.Start(ctx, "g1", "python", "u1")
		if err != nil {
			t.Fatalf("%s Start: %v", name, err)
		}
		if _, err := reg.Start(ctx, "g1", "cat", "u2"); !errors.Is(err, ErrAlreadyActive) {
			t.Fatalf("%s: expected ErrAlreadyActive, got %v", name, err)
		}
		got, err := reg.Get(ctx, "g1")
		if err != nil || got == nil {
			t.Fatalf("%s Get: %v", name, err)
		}
		if got.ID != first.ID || got.Word != "python" {
			t.Fatalf("%s: original session replaced: %+v", name, got)
		}
	}
}

func TestRegistrySaveAndEnd(t *testing.T) {
	for name, reg := range registries(t) {
		ctx := context.Background()
		if got, err := reg.Get(ctx, "g2"); err != nil || got != nil {
			t.Fatalf("%s: expected none, got %v %v", name, got, err)
		}
		s, err := reg.Start(ctx, "g2", "cat", "u1")
		if err != nil {
			t.Fatalf("%s Start: %v", name, err)
		}
		_, _ = s.Guess('c')
		if err := reg.Save(ctx, s); err != nil {
			t.Fatalf("%s Save: %v", name, err)
		}
		got, _ := reg.Get(ctx, "g2")
		if got.Masked() != "c _ _" {
			t.Fatalf("%s: save not persisted, masked=%q", name, got.Masked())
		}

		ended, err := reg.End(ctx, "g2")
		if err != nil || ended == nil || ended.ID != s.ID {
			t.Fatalf("%s End: %v %v", name, ended, err)
		}
		if got, _ := reg.Get(ctx, "g2"); got != nil {
			t.Fatalf("%s: session still present after End", name)
		}
		if _, err := reg.End(ctx, "g2"); !errors.Is(err, ErrNoActiveGame) {
			t.Fatalf("%s: expected ErrNoActiveGame, got %v", name, err)
		}
		if err := reg.Save(ctx, s); !errors.Is(err, ErrNoActiveGame) {
			t.Fatalf("%s: save after end expected ErrNoActiveGame, got %v", name, err)
		}
	}
}

func TestRegistryGetReturnsCopy(t *testing.T) {
	reg := NewMemoryRegistry(0)
	ctx := context.Background()
	_, _ = reg.Start(ctx, "g", "cat", "")
	s, _ := reg.Get(ctx, "g")
	_, _ = s.Guess('x')
	again, _ := reg.Get(ctx, "g")
	if again.Lives != InitialLives {
		t.Fatalf("unsaved mutation leaked into registry")
	}
}

func TestMemoryRegistrySweep(t *testing.T) {
	reg := NewMemoryRegistry(time.Minute)
	ctx := context.Background()
	_, _ = reg.Start(ctx, "g", "cat", "")
	if n := reg.Sweep(time.Now()); n != 0 {
		t.Fatalf("fresh game swept")
	}
	if n := reg.Sweep(time.Now().Add(2 * time.Minute)); n != 1 {
		t.Fatalf("expected stale game swept, got %d", n)
	}
}

func TestRedisRegistryExpires(t *testing.T) {
	reg, mr := newTestRedisRegistry(t)
	ctx := context.Background()
	if _, err := reg.Start(ctx, "g", "cat", ""); err != nil {
		t.Fatalf("Start: %v", err)
	}
	mr.FastForward(2 * time.Hour)
	if got, _ := reg.Get(ctx, "g"); got != nil {
		t.Fatalf("expected expired session")
	}
	if _, err := reg.Start(ctx, "g", "cat", ""); err != nil {
		t.Fatalf("Start after expiry: %v", err)
	}
}
