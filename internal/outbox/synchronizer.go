// Package outbox drains the action queue against the remote backend.
package outbox

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/matheus3301/floodline/internal/bus"
	"github.com/matheus3301/floodline/internal/logging"
	"github.com/matheus3301/floodline/internal/queue"
	"github.com/matheus3301/floodline/internal/status"
	"github.com/matheus3301/floodline/internal/store"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// DefaultMaxRetries is the retry ceiling: an action that already failed this
// many times is dropped on its next failure.
const DefaultMaxRetries = 3

// FailureMessage is the last error recorded when a pass leaves actions behind.
const FailureMessage = "Some actions failed to sync"

// Skip reasons reported in Result.Skipped.
const (
	SkipOffline = "offline"
	SkipEmpty   = "empty"
)

// Dispatcher performs the remote operation for one action.
type Dispatcher interface {
	Dispatch(ctx context.Context, a queue.Action) error
}

// SettingsSource reports whether online edges may trigger a flush.
type SettingsSource interface {
	AutoSyncEnabled() bool
}

// RunRecorder stores the outcome of each flush pass.
type RunRecorder interface {
	RecordSyncRun(r *store.SyncRun) error
}

// Options tunes a Synchronizer. Zero values use defaults.
type Options struct {
	MaxRetries       int
	MinFlushInterval time.Duration
	Settings         SettingsSource
	Runs             RunRecorder
}

// Result summarizes one flush call.
type Result struct {
	Attempted int
	Synced    int
	Retried   int
	Dropped   int
	Remaining int
	Status    status.State
	Coalesced bool
	Skipped   string
}

// Synchronizer flushes the queue on online edges and on demand. At most one
// pass runs at a time.
type Synchronizer struct {
	queue      *queue.Queue
	dispatcher Dispatcher
	machine    *status.Machine
	bus        *bus.Bus
	logger     *zap.Logger
	limiter    *rate.Limiter
	maxRetries int
	settings   SettingsSource
	runs       RunRecorder

	running  atomic.Bool
	deferred atomic.Bool
	cancel   context.CancelFunc
	wg      sync.WaitGroup
}

// NewSynchronizer creates a synchronizer over q.
func NewSynchronizer(q *queue.Queue, d Dispatcher, m *status.Machine, b *bus.Bus, logger *zap.Logger, opts Options) *Synchronizer {
	maxRetries := opts.MaxRetries
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	limit := rate.Inf
	if opts.MinFlushInterval > 0 {
		limit = rate.Every(opts.MinFlushInterval)
	}
	return &Synchronizer{
		queue:      q,
		dispatcher: d,
		machine:    m,
		bus:        b,
		logger:     logging.OrNop(logger),
		limiter:    rate.NewLimiter(limit, 1),
		maxRetries: maxRetries,
		settings:   opts.Settings,
		runs:       opts.Runs,
	}
}

// Start listens for connectivity events until Stop is called.
func (s *Synchronizer) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	events, unsub := s.bus.Subscribe("net.", 16)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer unsub()
		for {
			select {
			case evt := <-events:
				s.SetOnline(ctx, evt.Kind == bus.KindOnline)
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop stops listening and waits for an in-flight automatic flush.
func (s *Synchronizer) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

// SetOnline records a connectivity value. A transition to online runs an
// automatic flush when auto-sync is enabled. A throttled edge postpones the
// flush until the limiter allows it; the postponed flush is skipped if the
// link is down by then or ctx is done.
func (s *Synchronizer) SetOnline(ctx context.Context, online bool) {
	if !s.machine.SetOnline(online) || !online {
		return
	}
	if s.settings != nil && !s.settings.AutoSyncEnabled() {
		s.logger.Debug("auto-sync disabled, not flushing")
		return
	}
	r := s.limiter.Reserve()
	if d := r.Delay(); d > 0 {
		if !s.deferred.CompareAndSwap(false, true) {
			r.Cancel()
			s.logger.Debug("online edge throttled, flush already postponed")
			return
		}
		s.logger.Info("online edge throttled, flush postponed", zap.Duration("delay", d))
		s.wg.Add(1)
		go s.flushAfter(ctx, d)
		return
	}
	s.autoFlush(ctx)
}

func (s *Synchronizer) flushAfter(ctx context.Context, d time.Duration) {
	defer s.wg.Done()
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
		s.deferred.Store(false)
		return
	}
	s.deferred.Store(false)
	if !s.machine.Online() {
		s.logger.Debug("link went down, postponed flush skipped")
		return
	}
	s.autoFlush(ctx)
}

func (s *Synchronizer) autoFlush(ctx context.Context) {
	if _, err := s.Flush(ctx); err != nil {
		s.logger.Error("automatic flush failed", zap.Error(err))
	}
}

// Flush runs one pass over the queue. It is a no-op when offline or when the
// queue is empty, and is coalesced into the running pass if one exists.
func (s *Synchronizer) Flush(ctx context.Context) (Result, error) {
	if !s.running.CompareAndSwap(false, true) {
		s.logger.Debug("flush already running, coalesced")
		return Result{Coalesced: true, Status: status.Syncing}, nil
	}
	defer s.running.Store(false)

	if !s.machine.Online() {
		return Result{Skipped: SkipOffline, Status: s.machine.Current()}, nil
	}
	actions := s.queue.List()
	if len(actions) == 0 {
		return Result{Skipped: SkipEmpty, Status: s.machine.Current()}, nil
	}

	if err := s.machine.Begin(); err != nil {
		return Result{}, err
	}
	started := time.Now()
	s.logger.Info("flush started", zap.Int("pending", len(actions)))

	var res Result
	processed := make(map[string]struct{}, len(actions))
	var remaining []queue.Action
	for _, a := range actions {
		// The current item always completes; cancellation is only observed
		// between items, leaving the rest queued untouched.
		if ctx.Err() != nil {
			break
		}
		processed[a.ID] = struct{}{}
		res.Attempted++

		err := s.dispatcher.Dispatch(ctx, a)
		switch {
		case err == nil:
			res.Synced++
			s.bus.Emit(bus.KindActionSynced, a)
		case a.RetryCount < s.maxRetries:
			a.RetryCount++
			res.Retried++
			remaining = append(remaining, a)
			s.logger.Warn("action failed, will retry",
				zap.String("id", a.ID), zap.String("kind", string(a.Kind)),
				zap.Int("retry_count", a.RetryCount), zap.Error(err))
			s.bus.Emit(bus.KindActionFailed, a)
		default:
			res.Dropped++
			s.logger.Error("action dropped after retry ceiling",
				zap.String("id", a.ID), zap.String("kind", string(a.Kind)),
				zap.Int("retry_count", a.RetryCount), zap.Error(err))
			s.bus.Emit(bus.KindActionDropped, a)
		}
	}
	res.Remaining = len(remaining) + len(actions) - len(processed)

	commitErr := s.queue.Commit(processed, remaining)
	switch {
	case commitErr != nil:
		s.logger.Error("failed to persist queue after flush", zap.Error(commitErr))
		_ = s.machine.Fail(FailureMessage)
	case res.Remaining == 0:
		_ = s.machine.Transition(status.Success)
		s.bus.Emit(bus.KindSyncCompleted, res)
	default:
		_ = s.machine.Fail(FailureMessage)
	}
	res.Status = s.machine.Current()

	s.logger.Info("flush finished",
		zap.String("status", string(res.Status)),
		zap.Int("synced", res.Synced), zap.Int("retried", res.Retried),
		zap.Int("dropped", res.Dropped), zap.Int("remaining", res.Remaining))
	s.record(started, res, commitErr)
	return res, commitErr
}

// Running reports whether a pass is in progress.
func (s *Synchronizer) Running() bool {
	return s.running.Load()
}

func (s *Synchronizer) record(started time.Time, res Result, err error) {
	if s.runs == nil {
		return
	}
	run := &store.SyncRun{
		StartedAt:  started.UnixMilli(),
		FinishedAt: time.Now().UnixMilli(),
		Attempted:  res.Attempted,
		Synced:     res.Synced,
		Retried:    res.Retried,
		Dropped:    res.Dropped,
		Remaining:  res.Remaining,
		Status:     string(res.Status),
	}
	if res.Status == status.Error {
		run.Error = FailureMessage
	}
	if err != nil {
		run.Error = err.Error()
	}
	if err := s.runs.RecordSyncRun(run); err != nil {
		s.logger.Warn("failed to record sync run", zap.Error(err))
	}
}
