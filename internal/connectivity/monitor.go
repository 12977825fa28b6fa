// Package connectivity is the online/offline signal source. It publishes
// edge-triggered net.online and net.offline events on the bus.
package connectivity

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/matheus3301/floodline/internal/bus"
	"github.com/matheus3301/floodline/internal/logging"
	"go.uber.org/zap"
)

// Prober checks whether the backend is reachable.
type Prober interface {
	Probe(ctx context.Context) error
}

// HTTPProber sends a HEAD request to URL. Any response below 500 counts as reachable.
type HTTPProber struct {
	URL    string
	Client *http.Client
}

// Probe implements Prober.
func (p *HTTPProber) Probe(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, p.URL, nil)
	if err != nil {
		return err
	}
	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	_ = resp.Body.Close()
	if resp.StatusCode >= 500 {
		return fmt.Errorf("probe %s: status %d", p.URL, resp.StatusCode)
	}
	return nil
}

// Monitor tracks connectivity and publishes transitions. The initial state is
// offline, so the first successful observation is reported as an online edge.
type Monitor struct {
	prober   Prober
	interval time.Duration
	bus      *bus.Bus
	logger   *zap.Logger

	mu     sync.RWMutex
	online bool
	cancel context.CancelFunc
}

// NewMonitor creates a monitor. A nil prober disables polling; the state then
// only changes through Set.
func NewMonitor(p Prober, interval time.Duration, b *bus.Bus, logger *zap.Logger) *Monitor {
	return &Monitor{
		prober:   p,
		interval: interval,
		bus:      b,
		logger:   logging.OrNop(logger),
	}
}

// Online returns the current connectivity value.
func (m *Monitor) Online() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.online
}

// Set records a connectivity observation and publishes an event if it
// differs from the previous one. Reports whether it changed.
func (m *Monitor) Set(online bool) bool {
	m.mu.Lock()
	changed := m.online != online
	m.online = online
	m.mu.Unlock()

	if !changed {
		return false
	}
	kind := bus.KindOffline
	if online {
		kind = bus.KindOnline
	}
	m.logger.Info("connectivity changed", zap.Bool("online", online))
	m.bus.Emit(kind, online)
	return true
}

// Check probes once and records the result.
func (m *Monitor) Check(ctx context.Context) bool {
	if m.prober == nil {
		return m.Online()
	}
	err := m.prober.Probe(ctx)
	if err != nil {
		m.logger.Debug("connectivity probe failed", zap.Error(err))
	}
	m.Set(err == nil)
	return err == nil
}

// Start begins polling the prober until Stop is called.
func (m *Monitor) Start(ctx context.Context) {
	if m.prober == nil || m.interval <= 0 {
		return
	}
	ctx, m.cancel = context.WithCancel(ctx)
	go m.loop(ctx)
}

// Stop stops polling.
func (m *Monitor) Stop() {
	if m.cancel != nil {
		m.cancel()
	}
}

func (m *Monitor) loop(ctx context.Context) {
	m.Check(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			m.Check(ctx)
		case <-ctx.Done():
			return
		}
	}
}
