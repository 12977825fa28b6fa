package cache

import (
	"fmt"
	"net/http"
	"time"

	"github.com/matheus3301/floodline/internal/store"
)

// SQLStorage keeps caches in the profile database.
type SQLStorage struct {
	db *store.DB
}

// NewSQLStorage creates a storage backed by db's caches and cache_entries tables.
func NewSQLStorage(db *store.DB) *SQLStorage {
	return &SQLStorage{db: db}
}

func (s *SQLStorage) Open(name string) (Cache, error) {
	if err := s.db.CreateCache(name); err != nil {
		return nil, fmt.Errorf("open cache %s: %w", name, err)
	}
	return &sqlCache{db: s.db, name: name}, nil
}

func (s *SQLStorage) Has(name string) (bool, error) {
	return s.db.HasCache(name)
}

func (s *SQLStorage) Names() ([]string, error) {
	return s.db.CacheNames()
}

func (s *SQLStorage) Delete(name string) (bool, error) {
	return s.db.DeleteCache(name)
}

type sqlCache struct {
	db   *store.DB
	name string
}

func (c *sqlCache) Name() string { return c.name }

func (c *sqlCache) Match(req *http.Request) (*Response, error) {
	if cacheable(req) != nil {
		return nil, nil
	}
	e, err := c.db.MatchCacheEntry(c.name, http.MethodGet, Key(req))
	if err != nil || e == nil {
		return nil, err
	}
	return &Response{
		Status:   e.Status,
		Header:   http.Header(e.Header),
		Body:     e.Body,
		StoredAt: time.UnixMilli(e.StoredAt),
	}, nil
}

func (c *sqlCache) Put(req *http.Request, resp *Response) error {
	if err := cacheable(req); err != nil {
		return err
	}
	var storedAt int64
	if !resp.StoredAt.IsZero() {
		storedAt = resp.StoredAt.UnixMilli()
	}
	return c.db.PutCacheEntry(&store.CacheEntry{
		CacheName: c.name,
		Method:    http.MethodGet,
		URL:       Key(req),
		Status:    resp.Status,
		Header:    resp.Header,
		Body:      resp.Body,
		StoredAt:  storedAt,
	})
}

func (c *sqlCache) Delete(req *http.Request) (bool, error) {
	return c.db.DeleteCacheEntry(c.name, http.MethodGet, Key(req))
}

func (c *sqlCache) Keys() ([]string, error) {
	return c.db.CacheEntryKeys(c.name)
}
