package cache

import (
	"net/http"
	"slices"
	"sync"
	"time"
)

// MemoryStorage keeps caches in process memory.
type MemoryStorage struct {
	mu     sync.Mutex
	order  []string
	caches map[string]*memoryCache
}

// NewMemoryStorage creates an empty in-memory storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{caches: make(map[string]*memoryCache)}
}

func (s *MemoryStorage) Open(name string) (Cache, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.caches[name]
	if !ok {
		c = &memoryCache{name: name, entries: make(map[string]*Response)}
		s.caches[name] = c
		s.order = append(s.order, name)
	}
	return c, nil
}

func (s *MemoryStorage) Has(name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.caches[name]
	return ok, nil
}

func (s *MemoryStorage) Names() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.order), nil
}

func (s *MemoryStorage) Delete(name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.caches[name]; !ok {
		return false, nil
	}
	delete(s.caches, name)
	s.order = slices.DeleteFunc(s.order, func(n string) bool { return n == name })
	return true, nil
}

type memoryCache struct {
	name    string
	mu      sync.RWMutex
	keys    []string
	entries map[string]*Response
}

func (c *memoryCache) Name() string { return c.name }

func (c *memoryCache) Match(req *http.Request) (*Response, error) {
	if cacheable(req) != nil {
		return nil, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.entries[Key(req)]
	if !ok {
		return nil, nil
	}
	cp := *r
	cp.Header = r.Header.Clone()
	return &cp, nil
}

func (c *memoryCache) Put(req *http.Request, resp *Response) error {
	if err := cacheable(req); err != nil {
		return err
	}
	cp := *resp
	cp.Header = resp.Header.Clone()
	if cp.StoredAt.IsZero() {
		cp.StoredAt = time.Now()
	}
	key := Key(req)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.keys = slices.DeleteFunc(c.keys, func(k string) bool { return k == key })
	c.keys = append(c.keys, key)
	c.entries[key] = &cp
	return nil
}

func (c *memoryCache) Delete(req *http.Request) (bool, error) {
	key := Key(req)
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[key]; !ok {
		return false, nil
	}
	delete(c.entries, key)
	c.keys = slices.DeleteFunc(c.keys, func(k string) bool { return k == key })
	return true, nil
}

func (c *memoryCache) Keys() ([]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.keys), nil
}
