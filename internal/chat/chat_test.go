package chat

import (
	"slices"
	"testing"
)

func TestParseCommand(t *testing.T) {
	name, args, ok := ParseCommand("  /Juegos ahorcado ", "/")
	if !ok || name != "juegos" || !slices.Equal(args, []string{"ahorcado"}) {
		t.Fatalf("got %q %v %v", name, args, ok)
	}
	name, _, ok = ParseCommand("/start@app_moviles_bot", "/")
	if !ok || name != "start" {
		t.Fatalf("handle suffix not stripped: %q %v", name, ok)
	}
	for _, in := range []string{"hola", "/", "/ ", "", "!start"} {
		if _, _, ok := ParseCommand(in, "/"); ok {
			t.Fatalf("%q should not parse as command", in)
		}
	}
}

func TestEventScopeIDAndName(t *testing.T) {
	ev := Event{Platform: "discord", ChatID: "123", UserID: "u1"}
	if ev.ScopeID() != "discord:123" {
		t.Fatalf("scope id = %q", ev.ScopeID())
	}
	if ev.DisplayName() != "u1" {
		t.Fatalf("display name fallback = %q", ev.DisplayName())
	}
	ev.UserName = "Ana"
	if ev.DisplayName() != "Ana" {
		t.Fatalf("display name = %q", ev.DisplayName())
	}
}
