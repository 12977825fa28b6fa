package keys

import (
	"testing"

	"github.com/gdamore/tcell/v2"
)

func TestViewBindingShadowsGlobal(t *testing.T) {
	r := NewRegistry()
	var got string
	r.AddGlobal(&Action{Key: tcell.KeyRune, Rune: 'f', Handler: func() { got = "global" }})
	r.AddView("queue", &Action{Key: tcell.KeyRune, Rune: 'f', Handler: func() { got = "view" }})

	ev := tcell.NewEventKey(tcell.KeyRune, 'f', tcell.ModNone)
	if !r.HandleEvent("queue", ev) || got != "view" {
		t.Errorf("queue: got %q, want view", got)
	}
	if !r.HandleEvent("caches", ev) || got != "global" {
		t.Errorf("caches: got %q, want global", got)
	}
	if r.HandleEvent("caches", tcell.NewEventKey(tcell.KeyRune, 'z', tcell.ModNone)) {
		t.Error("unbound key handled")
	}
}

func TestSpecialKeyMatch(t *testing.T) {
	a := &Action{Key: tcell.KeyEscape}
	if !a.Matches(tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone)) {
		t.Error("Escape did not match")
	}
	if a.Matches(tcell.NewEventKey(tcell.KeyRune, 'e', tcell.ModNone)) {
		t.Error("rune matched a special-key action")
	}
}

func TestHintsOrderAndVisibility(t *testing.T) {
	r := NewRegistry()
	r.AddGlobal(&Action{Key: tcell.KeyRune, Rune: 'q', Description: "Quit", Visible: true})
	r.AddGlobal(&Action{Key: tcell.KeyRune, Rune: 'x', Description: "Hidden"})
	r.AddView("queue", &Action{Key: tcell.KeyRune, Rune: '1', Description: "Queue", Visible: true})
	r.AddView("queue", &Action{Key: tcell.KeyEscape, Label: "Esc", Description: "Back", Visible: true})

	hints := r.Hints("queue")
	if len(hints) != 3 {
		t.Fatalf("hints = %+v", hints)
	}
	if hints[0].Key != "1" || !hints[0].Numeric {
		t.Errorf("hints[0] = %+v", hints[0])
	}
	if hints[1].Key != "Esc" || hints[2].Key != "q" {
		t.Errorf("hints = %+v", hints)
	}
}
