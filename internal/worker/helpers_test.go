package worker

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/matheus3301/floodline/internal/bus"
	"github.com/matheus3301/floodline/internal/cache"
)

const testOrigin = "https://flood.test"

var errNetworkDown = errors.New("network down")

// fakeTransport serves fixed bodies by URL and counts calls.
type fakeTransport struct {
	mu      sync.Mutex
	bodies  map[string]string
	calls   atomic.Int32
	offline atomic.Bool
}

func newFakeTransport(bodies map[string]string) *fakeTransport {
	if bodies == nil {
		bodies = map[string]string{}
	}
	return &fakeTransport{bodies: bodies}
}

func (f *fakeTransport) set(url, body string) {
	f.mu.Lock()
	f.bodies[url] = body
	f.mu.Unlock()
}

func (f *fakeTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	f.calls.Add(1)
	if f.offline.Load() {
		return nil, errNetworkDown
	}
	f.mu.Lock()
	body, ok := f.bodies[req.URL.String()]
	f.mu.Unlock()
	status := http.StatusOK
	if !ok {
		status, body = http.StatusNotFound, "not found"
	}
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": {"text/plain"}},
		Body:       io.NopCloser(strings.NewReader(body)),
		Request:    req,
	}, nil
}

type memVersions struct {
	mu sync.Mutex
	m  map[string]string
}

func (v *memVersions) GetValue(key string) (string, bool, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	s, ok := v.m[key]
	return s, ok, nil
}

func (v *memVersions) PutValue(key, value string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.m == nil {
		v.m = map[string]string{}
	}
	v.m[key] = value
	return nil
}

type testEnv struct {
	storage   *cache.MemoryStorage
	transport *fakeTransport
	versions  *memVersions
	bus       *bus.Bus
	manager   *Manager
}

func newTestEnv(t *testing.T, version string, opts Options) *testEnv {
	t.Helper()
	env := &testEnv{
		storage:   cache.NewMemoryStorage(),
		transport: newFakeTransport(nil),
		versions:  &memVersions{},
		bus:       bus.New(),
	}
	env.manager = env.newManager(t, env.storage, version, opts)
	return env
}

// newBrokenEnv builds a manager whose storage can be told to fail writes.
// env.storage still reaches the underlying caches directly.
func newBrokenEnv(t *testing.T, version string, opts Options) (*testEnv, *brokenStorage) {
	t.Helper()
	env := &testEnv{
		storage:   cache.NewMemoryStorage(),
		transport: newFakeTransport(nil),
		versions:  &memVersions{},
		bus:       bus.New(),
	}
	broken := &brokenStorage{MemoryStorage: env.storage}
	env.manager = env.newManager(t, broken, version, opts)
	return env, broken
}

func (env *testEnv) newManager(t *testing.T, storage cache.Storage, version string, opts Options) *Manager {
	t.Helper()
	if opts.Router == nil {
		router, err := NewRouter([]string{`/rest/v1/`}, []string{`/icons/`})
		if err != nil {
			t.Fatal(err)
		}
		opts.Router = router
	}
	opts.Prefix = "flood-alert"
	opts.Version = version
	if opts.Origin == "" {
		opts.Origin = testOrigin
	}
	m, err := NewManager(storage, env.transport, env.versions, env.bus, nil, opts)
	if err != nil {
		t.Fatal(err)
	}
	return m
}

var errDiskFull = errors.New("disk full")

// brokenStorage fails Open when failOpen is set, and fails Put for failPutURL
// (or for every URL when failAllPuts is set).
type brokenStorage struct {
	*cache.MemoryStorage
	failOpen    atomic.Bool
	failAllPuts atomic.Bool
	failPutURL  string
}

func (s *brokenStorage) Open(name string) (cache.Cache, error) {
	if s.failOpen.Load() {
		return nil, errDiskFull
	}
	c, err := s.MemoryStorage.Open(name)
	if err != nil {
		return nil, err
	}
	return brokenCache{Cache: c, storage: s}, nil
}

type brokenCache struct {
	cache.Cache
	storage *brokenStorage
}

func (c brokenCache) Put(req *http.Request, resp *cache.Response) error {
	if c.storage.failAllPuts.Load() || req.URL.String() == c.storage.failPutURL {
		return errDiskFull
	}
	return c.Cache.Put(req, resp)
}

// seed stores body for url in the named cache.
func (e *testEnv) seed(t *testing.T, cacheName, url, body string) {
	t.Helper()
	c, err := e.storage.Open(cacheName)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Put(getReq(url), &cache.Response{Status: 200, Body: []byte(body)}); err != nil {
		t.Fatal(err)
	}
}

func getReq(url string) *http.Request {
	req, _ := http.NewRequest(http.MethodGet, url, nil)
	return req
}

func navReq(url string) *http.Request {
	req := getReq(url)
	req.Header.Set("Sec-Fetch-Mode", "navigate")
	req.Header.Set("Accept", "text/html")
	return req
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return string(b)
}

func waitPhase(t *testing.T, l *Lifecycle, want Phase) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if l.Phase() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("phase = %q, want %q", l.Phase(), want)
}
