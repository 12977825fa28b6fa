package status

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/matheus3301/floodline/internal/bus"
)

// State is the synchronizer's flush status.
type State string

const (
	Idle    State = "idle"
	Syncing State = "syncing"
	Success State = "success"
	Error   State = "error"
)

// validTransitions defines allowed state transitions.
var validTransitions = map[State][]State{
	Idle:    {Syncing},
	Syncing: {Success, Error},
	Success: {Idle},
	Error:   {Idle},
}

// Snapshot is a point-in-time copy of the sync state.
type Snapshot struct {
	Status    State
	Online    bool
	LastError string
	LastSync  time.Time
}

// Machine tracks the sync status and the connectivity flag. The status only
// moves along validTransitions; the online flag is independent of it.
type Machine struct {
	mu        sync.RWMutex
	current   State
	online    bool
	lastError string
	lastSync  time.Time
	bus       *bus.Bus
}

// NewMachine creates a new state machine starting idle and offline.
func NewMachine(b *bus.Bus) *Machine {
	return &Machine{
		current: Idle,
		bus:     b,
	}
}

// Current returns the current status.
func (m *Machine) Current() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Online returns the last connectivity value reported.
func (m *Machine) Online() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.online
}

// Snapshot returns a copy of the full state.
func (m *Machine) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Snapshot{
		Status:    m.current,
		Online:    m.online,
		LastError: m.lastError,
		LastSync:  m.lastSync,
	}
}

// SetOnline records a connectivity value. Reports whether it changed.
func (m *Machine) SetOnline(online bool) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	changed := m.online != online
	m.online = online
	return changed
}

// Transition attempts to move to a new status. Returns error if transition is invalid.
func (m *Machine) Transition(to State) error {
	return m.transition(to, "")
}

// Fail moves syncing to error and records msg as the last error.
func (m *Machine) Fail(msg string) error {
	return m.transition(Error, msg)
}

// Begin enters syncing, first settling a finished pass back to idle.
func (m *Machine) Begin() error {
	if cur := m.Current(); cur == Success || cur == Error {
		if err := m.Transition(Idle); err != nil {
			return err
		}
	}
	return m.Transition(Syncing)
}

func (m *Machine) transition(to State, errMsg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	allowed := validTransitions[m.current]
	if !slices.Contains(allowed, to) {
		return fmt.Errorf("invalid transition from %s to %s", m.current, to)
	}
	from := m.current
	m.current = to
	switch to {
	case Error:
		m.lastError = errMsg
	case Success:
		m.lastError = ""
		m.lastSync = time.Now()
	case Syncing:
		m.lastError = ""
	}
	if m.bus != nil {
		m.bus.Publish(bus.Event{
			Kind:      bus.KindSyncStatus,
			Timestamp: time.Now(),
			Payload: StatusChange{
				From:  from,
				To:    to,
				Error: m.lastError,
			},
		})
	}
	return nil
}

// StatusChange is the payload for status change events.
type StatusChange struct {
	From  State
	To    State
	Error string
}
