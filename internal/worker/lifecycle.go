package worker

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/matheus3301/floodline/internal/bus"
	"github.com/matheus3301/floodline/internal/logging"
	"go.uber.org/zap"
)

// Phase is the worker's lifecycle position.
type Phase string

const (
	PhaseNone       Phase = ""
	PhaseInstalling Phase = "installing"
	PhaseInstalled  Phase = "installed"
	PhaseActivating Phase = "activating"
	PhaseActivated  Phase = "activated"
)

// ControlKind names a message the page side may send to the worker.
type ControlKind string

const (
	ControlSkipWaiting     ControlKind = "SKIP_WAITING"
	ControlRefreshManifest ControlKind = "REFRESH_MANIFEST"
)

// ErrNotInstalled is replied to controls that need an installed generation.
var ErrNotInstalled = errors.New("worker not installed")

// ErrStopped is returned by Send once the lifecycle has stopped.
var ErrStopped = errors.New("worker stopped")

// Control is one message to the worker. The outcome is sent on Reply.
type Control struct {
	Kind  ControlKind
	Reply chan<- error
}

// DefaultInstallRetry is used when no retry interval is configured.
const DefaultInstallRetry = 30 * time.Second

// Lifecycle drives a Manager through install and activation and owns its
// control channel. Until activation, requests go straight to the network.
type Lifecycle struct {
	manager     *Manager
	skipWaiting bool
	retry       time.Duration
	bus         *bus.Bus
	logger      *zap.Logger

	controls chan Control
	done     chan struct{}
	cancel   context.CancelFunc

	mu    sync.RWMutex
	phase Phase
}

// NewLifecycle creates a lifecycle host for m. With skipWaiting set an
// upgraded generation activates without waiting for SKIP_WAITING.
func NewLifecycle(m *Manager, skipWaiting bool, retry time.Duration, b *bus.Bus, logger *zap.Logger) *Lifecycle {
	if retry <= 0 {
		retry = DefaultInstallRetry
	}
	return &Lifecycle{
		manager:     m,
		skipWaiting: skipWaiting,
		retry:       retry,
		bus:         b,
		logger:      logging.OrNop(logger),
		controls:    make(chan Control),
		done:        make(chan struct{}),
	}
}

// Start installs the current generation in the background and then serves
// control messages until Stop is called.
func (l *Lifecycle) Start(ctx context.Context) {
	ctx, l.cancel = context.WithCancel(ctx)
	go l.run(ctx)
}

// Stop ends the lifecycle loop and waits for background revalidations.
func (l *Lifecycle) Stop() {
	if l.cancel != nil {
		l.cancel()
		<-l.done
	}
	l.manager.Wait()
}

// Phase returns the current phase.
func (l *Lifecycle) Phase() Phase {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.phase
}

// Manager returns the managed cache manager.
func (l *Lifecycle) Manager() *Manager {
	return l.manager
}

// Send delivers a control message and waits for its outcome.
func (l *Lifecycle) Send(ctx context.Context, kind ControlKind) error {
	reply := make(chan error, 1)
	select {
	case l.controls <- Control{Kind: kind, Reply: reply}:
	case <-l.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RoundTrip implements http.RoundTripper. Requests are intercepted only once
// the generation is activated.
func (l *Lifecycle) RoundTrip(req *http.Request) (*http.Response, error) {
	if l.Phase() != PhaseActivated {
		return l.manager.Passthrough(req)
	}
	return l.manager.RoundTrip(req)
}

func (l *Lifecycle) run(ctx context.Context) {
	defer close(l.done)

	l.setPhase(PhaseInstalling)
	install := time.NewTimer(0)
	defer install.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-install.C:
			if err := l.manager.Install(ctx); err != nil {
				l.logger.Error("install failed, will retry", zap.Error(err), zap.Duration("retry_in", l.retry))
				install.Reset(l.retry)
				continue
			}
			l.setPhase(PhaseInstalled)
			l.bus.Emit(bus.KindWorkerInstalled, l.manager.Version())
			if l.skipWaiting || !l.manager.IsUpgrade() {
				if err := l.activate(); err != nil {
					l.logger.Error("activation failed", zap.Error(err))
				}
			} else {
				l.logger.Info("new version installed, waiting for skip-waiting",
					zap.String("active", l.manager.ActiveVersion()), zap.String("version", l.manager.Version()))
			}
		case c := <-l.controls:
			c.Reply <- l.handle(ctx, c)
		}
	}
}

func (l *Lifecycle) handle(ctx context.Context, c Control) error {
	l.logger.Info("control message", zap.String("kind", string(c.Kind)), zap.String("phase", string(l.Phase())))
	switch c.Kind {
	case ControlSkipWaiting:
		switch l.Phase() {
		case PhaseActivated:
			return nil
		case PhaseInstalled:
			return l.activate()
		}
		return ErrNotInstalled
	case ControlRefreshManifest:
		if p := l.Phase(); p != PhaseInstalled && p != PhaseActivated {
			return ErrNotInstalled
		}
		return l.manager.RefreshManifest(ctx)
	}
	return errors.New("unknown control message: " + string(c.Kind))
}

func (l *Lifecycle) activate() error {
	l.setPhase(PhaseActivating)
	deleted, err := l.manager.Activate()
	if err != nil {
		// Stay installed so SKIP_WAITING can retry.
		l.setPhase(PhaseInstalled)
		return err
	}
	l.setPhase(PhaseActivated)
	l.logger.Info("worker activated", zap.String("version", l.manager.Version()), zap.Strings("deleted", deleted))
	l.bus.Emit(bus.KindWorkerActivated, l.manager.Version())
	return nil
}

func (l *Lifecycle) setPhase(p Phase) {
	l.mu.Lock()
	l.phase = p
	l.mu.Unlock()
	l.bus.Emit(bus.KindWorkerPhase, p)
}
