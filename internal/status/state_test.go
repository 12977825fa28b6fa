package status

import (
	"testing"

	"github.com/matheus3301/floodline/internal/bus"
)

func TestInitialState(t *testing.T) {
	m := NewMachine(nil)
	if m.Current() != Idle {
		t.Errorf("initial state = %s, want idle", m.Current())
	}
	if m.Online() {
		t.Error("initial online = true, want false")
	}
}

func TestValidTransitions(t *testing.T) {
	tests := []struct {
		path []State
	}{
		{[]State{Syncing}},
		{[]State{Syncing, Success}},
		{[]State{Syncing, Error}},
		{[]State{Syncing, Success, Idle}},
		{[]State{Syncing, Error, Idle, Syncing}},
	}
	for _, tt := range tests {
		m := NewMachine(nil)
		for _, to := range tt.path {
			if err := m.Transition(to); err != nil {
				t.Fatalf("path %v: Transition(%s) error = %v", tt.path, to, err)
			}
		}
		if want := tt.path[len(tt.path)-1]; m.Current() != want {
			t.Errorf("state = %s, want %s", m.Current(), want)
		}
	}
}

func TestInvalidTransitions(t *testing.T) {
	tests := []struct {
		name string
		walk []State
		to   State
	}{
		{"idle->success", nil, Success},
		{"idle->error", nil, Error},
		{"syncing->idle", []State{Syncing}, Idle},
		{"success->syncing", []State{Syncing, Success}, Syncing},
		{"error->success", []State{Syncing, Error}, Success},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMachine(nil)
			for _, s := range tt.walk {
				if err := m.Transition(s); err != nil {
					t.Fatal(err)
				}
			}
			if err := m.Transition(tt.to); err == nil {
				t.Errorf("Transition(%s) should fail from %s", tt.to, m.Current())
			}
		})
	}
}

func TestFailRecordsErrorOnlyInErrorState(t *testing.T) {
	m := NewMachine(nil)
	_ = m.Transition(Syncing)
	if err := m.Fail("2 actions failed to sync"); err != nil {
		t.Fatal(err)
	}
	if got := m.Snapshot().LastError; got != "2 actions failed to sync" {
		t.Errorf("LastError = %q", got)
	}

	if err := m.Begin(); err != nil {
		t.Fatal(err)
	}
	if got := m.Snapshot().LastError; got != "" {
		t.Errorf("LastError = %q after Begin(), want empty", got)
	}
	if err := m.Transition(Success); err != nil {
		t.Fatal(err)
	}
	snap := m.Snapshot()
	if snap.LastError != "" || snap.LastSync.IsZero() {
		t.Errorf("snapshot = %+v, want no error and LastSync set", snap)
	}
}

func TestBeginFromEveryRestingState(t *testing.T) {
	for _, end := range []State{Success, Error} {
		m := NewMachine(nil)
		_ = m.Begin()
		_ = m.Transition(end)
		if err := m.Begin(); err != nil {
			t.Errorf("Begin() from %s error = %v", end, err)
		}
		if m.Current() != Syncing {
			t.Errorf("state = %s, want syncing", m.Current())
		}
	}
	m := NewMachine(nil)
	_ = m.Begin()
	if err := m.Begin(); err == nil {
		t.Error("Begin() while syncing should fail")
	}
}

func TestSetOnlineIndependentOfStatus(t *testing.T) {
	m := NewMachine(nil)
	if !m.SetOnline(true) {
		t.Error("SetOnline(true) reported no change")
	}
	if m.SetOnline(true) {
		t.Error("second SetOnline(true) reported a change")
	}
	if m.Current() != Idle {
		t.Errorf("status = %s, connectivity must not move it", m.Current())
	}
}

func TestTransitionEmitsEvent(t *testing.T) {
	b := bus.New()
	ch, unsub := b.Subscribe("sync.", 10)
	defer unsub()

	m := NewMachine(b)
	if err := m.Transition(Syncing); err != nil {
		t.Fatal(err)
	}

	evt := <-ch
	if evt.Kind != bus.KindSyncStatus {
		t.Errorf("event kind = %q, want %s", evt.Kind, bus.KindSyncStatus)
	}
	change, ok := evt.Payload.(StatusChange)
	if !ok {
		t.Fatalf("payload type = %T, want StatusChange", evt.Payload)
	}
	if change.From != Idle || change.To != Syncing {
		t.Errorf("change = %v -> %v, want idle -> syncing", change.From, change.To)
	}
}
