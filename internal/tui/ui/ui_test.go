package ui

import (
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
)

func TestFormatAge(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		t    time.Time
		want string
	}{
		{time.Time{}, "never"},
		{now.Add(-42 * time.Second), "42s ago"},
		{now.Add(-5 * time.Minute), "5m ago"},
		{now.Add(-(2*time.Hour + 7*time.Minute)), "2h7m ago"},
	}
	for _, tt := range tests {
		if got := formatAge(tt.t, now); got != tt.want {
			t.Errorf("formatAge(%v) = %q, want %q", tt.t, got, tt.want)
		}
	}
}

func TestPagesStack(t *testing.T) {
	p := NewPages()
	var seen [][]string
	p.SetOnChange(func(stack []string) { seen = append(seen, stack) })
	for _, name := range []string{"queue", "caches", "help"} {
		p.AddPage(name, NewLogo(DefaultTheme()), true, false)
	}

	p.Reset("queue")
	p.Push("caches")
	p.Push("help")
	if p.Current() != "help" || p.Depth() != 3 {
		t.Fatalf("stack = %v", p.Stack())
	}
	if got := p.Pop(); got != "help" || p.Current() != "caches" {
		t.Errorf("Pop = %q, current = %q", got, p.Current())
	}
	if len(seen) != 4 {
		t.Errorf("onChange fired %d times, want 4", len(seen))
	}
}

func TestFlashExpires(t *testing.T) {
	f := NewFlashModel()
	f.Set("gone", -time.Second)
	if f.Get() != "" || f.GetMessage() != nil {
		t.Error("expired flash still visible")
	}
	f.Warn("river rising")
	if msg := f.GetMessage(); msg == nil || msg.Level != FlashWarn {
		t.Errorf("message = %+v", msg)
	}
}

func TestPagesPushMovesExistingToTop(t *testing.T) {
	p := NewPages()
	p.Reset("queue")
	p.Push("caches")
	p.Push("events")
	p.Push("caches")
	if got := p.Stack(); len(got) != 3 || got[2] != "caches" || got[1] != "events" {
		t.Errorf("stack = %v", got)
	}
	p.Pop()
	p.Pop()
	if p.Pop() != "" || p.Current() != "queue" {
		t.Errorf("popped the root page: %v", p.Stack())
	}
}

func TestPromptHistory(t *testing.T) {
	p := NewPrompt(DefaultTheme())
	var submitted []string
	p.SetOnSubmit(func(_ PromptMode, text string) { submitted = append(submitted, text) })

	for _, cmd := range []string{"flush", "online", "online"} {
		p.Activate(PromptCommand)
		p.SetText(cmd)
		p.done(tcell.KeyEnter)
	}
	if len(submitted) != 3 {
		t.Fatalf("submitted = %v", submitted)
	}
	if h := p.History(); len(h) != 2 || h[0] != "flush" || h[1] != "online" {
		t.Errorf("history = %v", h)
	}

	p.Activate(PromptCommand)
	p.recall(-1)
	if p.GetText() != "online" {
		t.Errorf("recall(-1) = %q", p.GetText())
	}
	p.recall(-1)
	p.recall(-1)
	if p.GetText() != "flush" {
		t.Errorf("recall past start = %q", p.GetText())
	}
	p.recall(1)
	p.recall(1)
	if p.GetText() != "" {
		t.Errorf("recall past end = %q", p.GetText())
	}
}

func TestFilterSubmitsEmptyText(t *testing.T) {
	p := NewPrompt(DefaultTheme())
	called := false
	p.SetOnSubmit(func(mode PromptMode, text string) {
		called = mode == PromptFilter && text == ""
	})
	p.Activate(PromptFilter)
	p.done(tcell.KeyEnter)
	if !called {
		t.Error("empty filter was not submitted")
	}
	if len(p.History()) != 0 {
		t.Error("filter text entered command history")
	}
}

func TestMenuColumns(t *testing.T) {
	hints := make([]MenuHint, 8)
	for i := range hints {
		hints[i] = MenuHint{Key: "k", Description: "d"}
	}
	if lines := menuLines(hints, DefaultTheme()); len(lines) != menuRows {
		t.Errorf("lines = %d, want %d", len(lines), menuRows)
	}
	if lines := menuLines(hints[:2], DefaultTheme()); len(lines) != 2 {
		t.Errorf("lines = %d, want 2", len(lines))
	}
}
