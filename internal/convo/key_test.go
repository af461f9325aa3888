package convo

import "testing"

func TestResolveKeyDeterministic(t *testing.T) {
	a := ResolveKey(ScopeDirect, "42", "7")
	b := ResolveKey(ScopeDirect, "42", "7")
	if a != b {
		t.Fatalf("expected equal keys: %v vs %v", a, b)
	}
	if a.String() != "direct:42:7" {
		t.Fatalf("unexpected key string: %q", a.String())
	}
}

func TestResolveKeyDirectDiffersByParticipant(t *testing.T) {
	a := ResolveKey(ScopeDirect, "42", "7")
	b := ResolveKey(ScopeDirect, "42", "8")
	if a == b {
		t.Fatalf("direct keys for different participants must differ")
	}
}

func TestResolveKeySharedIgnoresParticipant(t *testing.T) {
	a := ResolveKey(ScopeShared, "-100", "7")
	b := ResolveKey(ScopeShared, "-100", "8")
	if a != b {
		t.Fatalf("shared keys must ignore participant: %v vs %v", a, b)
	}
	if a.String() != "shared:-100" {
		t.Fatalf("unexpected key string: %q", a.String())
	}
}

func TestTurnRendered(t *testing.T) {
	if got := (Turn{Role: RoleUser, Speaker: "Ana", Content: "hola"}).Rendered(); got != "Ana: hola" {
		t.Fatalf("rendered = %q", got)
	}
	if got := (Turn{Role: RoleUser, Content: "hola"}).Rendered(); got != "hola" {
		t.Fatalf("rendered = %q", got)
	}
}
