// Package queue holds the durable, ordered list of mutations made while the
// client could not reach the backend.
package queue

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/matheus3301/floodline/internal/bus"
	"github.com/matheus3301/floodline/internal/logging"
	"go.uber.org/zap"
)

// StorageKey is the durable record holding the serialized action list.
const StorageKey = "offline_actions"

// Kind identifies which remote operation an action's payload represents.
type Kind string

const (
	KindReport Kind = "report"
	KindUpdate Kind = "update"
	KindDelete Kind = "delete"
)

// ErrUnknownKind is returned by Enqueue for kinds outside report/update/delete.
var ErrUnknownKind = errors.New("unknown action kind")

// ParseKind validates s as an action kind.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindReport, KindUpdate, KindDelete:
		return k, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Action is a pending local mutation awaiting remote confirmation.
type Action struct {
	ID         string          `json:"id"`
	Kind       Kind            `json:"type"`
	Payload    json.RawMessage `json:"data"`
	CreatedAt  time.Time       `json:"timestamp"`
	RetryCount int             `json:"retryCount"`
}

// KV is the string-keyed durable record store the queue persists into.
type KV interface {
	GetValue(key string) (string, bool, error)
	PutValue(key, value string) error
}

// Queue is the durable action list. Every mutation rewrites the whole list
// under a single key.
type Queue struct {
	mu     sync.Mutex
	kv     KV
	bus    *bus.Bus
	logger *zap.Logger
	now    func() time.Time
}

// New creates a queue persisted in kv.
func New(kv KV, b *bus.Bus, logger *zap.Logger) *Queue {
	return &Queue{
		kv:     kv,
		bus:    b,
		logger: logging.OrNop(logger),
		now:    time.Now,
	}
}

// Enqueue appends a new action with RetryCount 0 and persists the list before
// returning the action's id. payload is stored as JSON; a json.RawMessage or
// []byte is kept verbatim.
func (q *Queue) Enqueue(kind Kind, payload any) (string, error) {
	if _, err := ParseKind(string(kind)); err != nil {
		return "", err
	}
	raw, err := encodePayload(payload)
	if err != nil {
		return "", fmt.Errorf("encode payload: %w", err)
	}

	now := q.now()
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate id: %w", err)
	}
	action := Action{
		ID:        id.String(),
		Kind:      kind,
		Payload:   raw,
		CreatedAt: now,
	}

	q.mu.Lock()
	actions := q.load()
	actions = append(actions, action)
	err = q.save(actions)
	q.mu.Unlock()
	if err != nil {
		return "", err
	}

	q.logger.Info("action queued", zap.String("id", action.ID), zap.String("kind", string(kind)), zap.Int("pending", len(actions)))
	q.bus.Emit(bus.KindEnqueued, action)
	return action.ID, nil
}

// List returns the queued actions in enqueue order.
func (q *Queue) List() []Action {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.load()
}

// Len returns the number of queued actions.
func (q *Queue) Len() int {
	return len(q.List())
}

// Commit writes back the result of a flush pass. processed holds the ids the
// pass took from the queue; remaining holds those that must stay, in order.
// Actions enqueued after the pass read the list are kept behind remaining.
func (q *Queue) Commit(processed map[string]struct{}, remaining []Action) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	next := make([]Action, 0, len(remaining))
	next = append(next, remaining...)
	for _, a := range q.load() {
		if _, seen := processed[a.ID]; !seen {
			next = append(next, a)
		}
	}
	return q.save(next)
}

// Clear drops every queued action.
func (q *Queue) Clear() error {
	q.mu.Lock()
	err := q.save(nil)
	q.mu.Unlock()
	if err != nil {
		return err
	}
	q.bus.Emit(bus.KindCleared, nil)
	return nil
}

// load reads the persisted list. A missing or corrupt record is treated as an
// empty queue.
func (q *Queue) load() []Action {
	raw, ok, err := q.kv.GetValue(StorageKey)
	if err != nil {
		q.logger.Warn("failed to read queued actions", zap.Error(err))
		return nil
	}
	if !ok || raw == "" {
		return nil
	}
	var actions []Action
	if err := json.Unmarshal([]byte(raw), &actions); err != nil {
		q.logger.Warn("discarding corrupt action queue", zap.Error(err))
		return nil
	}
	return actions
}

func (q *Queue) save(actions []Action) error {
	if actions == nil {
		actions = []Action{}
	}
	data, err := json.Marshal(actions)
	if err != nil {
		return fmt.Errorf("encode queue: %w", err)
	}
	if err := q.kv.PutValue(StorageKey, string(data)); err != nil {
		return fmt.Errorf("persist queue: %w", err)
	}
	return nil
}

func encodePayload(payload any) (json.RawMessage, error) {
	switch p := payload.(type) {
	case nil:
		return json.RawMessage("null"), nil
	case json.RawMessage:
		if !json.Valid(p) {
			return nil, errors.New("payload is not valid JSON")
		}
		return p, nil
	case []byte:
		if !json.Valid(p) {
			return nil, errors.New("payload is not valid JSON")
		}
		return json.RawMessage(p), nil
	default:
		return json.Marshal(p)
	}
}
