// Package worker intercepts HTTP requests and serves them from versioned
// named caches under per-request strategies.
package worker

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"

	"github.com/matheus3301/floodline/internal/bus"
	"github.com/matheus3301/floodline/internal/cache"
	"github.com/matheus3301/floodline/internal/logging"
	"go.uber.org/zap"
)

// ActiveVersionKey is the durable record holding the last activated version.
const ActiveVersionKey = "worker_active_version"

var (
	// ErrInstallFailed is returned when a manifest asset cannot be cached.
	ErrInstallFailed = errors.New("install failed")
	// ErrOffline is returned when neither network nor cache can serve a request.
	ErrOffline = errors.New("offline and not cached")
)

// VersionStore persists the active cache version.
type VersionStore interface {
	GetValue(key string) (string, bool, error)
	PutValue(key, value string) error
}

// Options configures a Manager.
type Options struct {
	Prefix   string
	Version  string
	Origin   string
	Precache []string
	Router   *Router
	// ShouldStore gates dynamic cache writes. Nil stores every eligible response.
	ShouldStore func(*http.Request) bool
}

// CacheInfo describes one named cache.
type CacheInfo struct {
	Name    string
	Entries int
	Current bool
}

// Manager serves intercepted requests from the current cache generation.
type Manager struct {
	storage     cache.Storage
	transport   http.RoundTripper
	versions    VersionStore
	router      *Router
	names       Names
	version     string
	origin      *url.URL
	precache    []string
	shouldStore func(*http.Request) bool
	bus         *bus.Bus
	logger      *zap.Logger

	// background revalidations
	wg sync.WaitGroup
}

// NewManager creates a manager. A nil transport uses http.DefaultTransport.
func NewManager(storage cache.Storage, transport http.RoundTripper, versions VersionStore, b *bus.Bus, logger *zap.Logger, opts Options) (*Manager, error) {
	origin, err := url.Parse(opts.Origin)
	if err != nil || !origin.IsAbs() {
		return nil, fmt.Errorf("invalid origin %q", opts.Origin)
	}
	if transport == nil {
		transport = http.DefaultTransport
	}
	router := opts.Router
	if router == nil {
		if router, err = NewRouter(nil, nil); err != nil {
			return nil, err
		}
	}
	return &Manager{
		storage:     storage,
		transport:   transport,
		versions:    versions,
		router:      router,
		names:       NamesFor(opts.Prefix, opts.Version),
		version:     opts.Version,
		origin:      origin,
		precache:    opts.Precache,
		shouldStore: opts.ShouldStore,
		bus:         b,
		logger:      logging.OrNop(logger),
	}, nil
}

// Names returns the current generation.
func (m *Manager) Names() Names { return m.names }

// Version returns the current version tag.
func (m *Manager) Version() string { return m.version }

// ActiveVersion returns the last activated version, or "" if none.
func (m *Manager) ActiveVersion() string {
	v, ok, err := m.versions.GetValue(ActiveVersionKey)
	if err != nil || !ok {
		return ""
	}
	return v
}

// IsUpgrade reports whether a different generation was active before this one.
func (m *Manager) IsUpgrade() bool {
	prev := m.ActiveVersion()
	return prev != "" && prev != m.version
}

// Install fetches every manifest asset and stores them in the static cache.
// Nothing is written unless all assets were fetched successfully, and a failed
// write rolls back the entries already stored.
func (m *Manager) Install(ctx context.Context) error {
	assets := make([]stagedAsset, 0, len(m.precache))
	for _, p := range m.precache {
		req, err := m.newRequest(ctx, p)
		if err != nil {
			return fmt.Errorf("%w: %s: %w", ErrInstallFailed, p, err)
		}
		resp, err := m.fetch(req)
		if err != nil {
			return fmt.Errorf("%w: %s: %w", ErrInstallFailed, p, err)
		}
		if !resp.OK() {
			return fmt.Errorf("%w: %s: status %d", ErrInstallFailed, p, resp.Status)
		}
		assets = append(assets, stagedAsset{req: req, resp: resp})
	}

	existed, err := m.storage.Has(m.names.Static)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInstallFailed, err)
	}
	static, err := m.storage.Open(m.names.Static)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInstallFailed, err)
	}
	for i := range assets {
		a := &assets[i]
		if existed {
			if a.prev, err = static.Match(a.req); err != nil {
				m.rollbackInstall(static, existed, assets[:i])
				return fmt.Errorf("%w: read %s: %w", ErrInstallFailed, a.req.URL, err)
			}
		}
		if err := static.Put(a.req, a.resp); err != nil {
			m.rollbackInstall(static, existed, assets[:i])
			return fmt.Errorf("%w: store %s: %w", ErrInstallFailed, a.req.URL, err)
		}
	}
	m.logger.Info("static cache populated", zap.String("cache", m.names.Static), zap.Int("assets", len(assets)))
	return nil
}

type stagedAsset struct {
	req  *http.Request
	resp *cache.Response
	prev *cache.Response
}

// rollbackInstall undoes the writes of a partial install. A static cache
// created by the install is removed; otherwise each written entry gets its
// previous value back.
func (m *Manager) rollbackInstall(static cache.Cache, existed bool, written []stagedAsset) {
	if !existed {
		if _, err := m.storage.Delete(static.Name()); err != nil {
			m.logger.Warn("rollback: delete static cache", zap.String("cache", static.Name()), zap.Error(err))
		}
		return
	}
	for _, a := range written {
		var err error
		if a.prev != nil {
			err = static.Put(a.req, a.prev)
		} else {
			_, err = static.Delete(a.req)
		}
		if err != nil {
			m.logger.Warn("rollback: restore entry", zap.String("url", a.req.URL.String()), zap.Error(err))
		}
	}
}

// Activate deletes every cache outside the current generation and records the
// version as active. Returns the deleted names.
func (m *Manager) Activate() ([]string, error) {
	names, err := m.storage.Names()
	if err != nil {
		return nil, fmt.Errorf("list caches: %w", err)
	}
	var deleted []string
	for _, name := range names {
		if m.names.Contains(name) {
			continue
		}
		if _, err := m.storage.Delete(name); err != nil {
			return deleted, fmt.Errorf("delete cache %s: %w", name, err)
		}
		deleted = append(deleted, name)
		m.logger.Info("deleted old cache", zap.String("cache", name))
		m.bus.Emit(bus.KindCacheDeleted, name)
	}
	if err := m.versions.PutValue(ActiveVersionKey, m.version); err != nil {
		return deleted, fmt.Errorf("record active version: %w", err)
	}
	return deleted, nil
}

// RefreshManifest refetches the manifest into the static cache.
func (m *Manager) RefreshManifest(ctx context.Context) error {
	if err := m.Install(ctx); err != nil {
		return err
	}
	m.bus.Emit(bus.KindManifestRefresh, m.names.Static)
	return nil
}

// Caches describes every stored cache.
func (m *Manager) Caches() ([]CacheInfo, error) {
	names, err := m.storage.Names()
	if err != nil {
		return nil, err
	}
	infos := make([]CacheInfo, 0, len(names))
	for _, name := range names {
		c, err := m.storage.Open(name)
		if err != nil {
			return nil, err
		}
		keys, err := c.Keys()
		if err != nil {
			return nil, err
		}
		infos = append(infos, CacheInfo{Name: name, Entries: len(keys), Current: m.names.Contains(name)})
	}
	return infos, nil
}

// RoundTrip implements http.RoundTripper by dispatching req to its strategy.
func (m *Manager) RoundTrip(req *http.Request) (*http.Response, error) {
	rule := m.router.Classify(req)
	m.logger.Debug("intercepted", zap.String("url", req.URL.String()), zap.String("rule", rule.Name))
	switch rule.Strategy {
	case NetworkFirst:
		return m.networkFirst(req)
	case CacheFirst:
		return m.cacheFirst(req)
	case StaleWhileRevalidate:
		return m.staleWhileRevalidate(req)
	}
	return m.transport.RoundTrip(req)
}

// Passthrough sends req to the network without touching any cache.
func (m *Manager) Passthrough(req *http.Request) (*http.Response, error) {
	return m.transport.RoundTrip(req)
}

// Wait blocks until background revalidations have finished.
func (m *Manager) Wait() {
	m.wg.Wait()
}

func (m *Manager) newRequest(ctx context.Context, path string) (*http.Request, error) {
	ref, err := url.Parse(path)
	if err != nil {
		return nil, err
	}
	return http.NewRequestWithContext(ctx, http.MethodGet, m.origin.ResolveReference(ref).String(), nil)
}
