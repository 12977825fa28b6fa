package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// CreateCache registers a named cache. Creating an existing cache is a no-op.
func (db *DB) CreateCache(name string) error {
	_, err := db.Exec(`INSERT INTO caches (name, created_at) VALUES (?, ?) ON CONFLICT(name) DO NOTHING`,
		name, time.Now().UnixMilli())
	return err
}

// HasCache reports whether a cache with the given name exists.
func (db *DB) HasCache(name string) (bool, error) {
	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM caches WHERE name = ?`, name).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

// CacheNames returns every registered cache name in creation order.
func (db *DB) CacheNames() ([]string, error) {
	rows, err := db.Query(`SELECT name FROM caches ORDER BY created_at ASC, name ASC`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// DeleteCache removes a cache and all of its entries. Reports whether the cache existed.
func (db *DB) DeleteCache(name string) (bool, error) {
	var existed bool
	err := db.inTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM cache_entries WHERE cache_name = ?`, name); err != nil {
			return fmt.Errorf("delete entries: %w", err)
		}
		res, err := tx.Exec(`DELETE FROM caches WHERE name = ?`, name)
		if err != nil {
			return fmt.Errorf("delete cache: %w", err)
		}
		n, _ := res.RowsAffected()
		existed = n > 0
		return nil
	})
	return existed, err
}

// PutCacheEntry stores e, replacing any entry with the same request identity.
// A replaced entry moves to the end of the cache's insertion order.
func (db *DB) PutCacheEntry(e *CacheEntry) error {
	headers, err := json.Marshal(e.Header)
	if err != nil {
		return fmt.Errorf("encode headers: %w", err)
	}
	if e.StoredAt == 0 {
		e.StoredAt = time.Now().UnixMilli()
	}

	return db.inTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`INSERT INTO caches (name, created_at) VALUES (?, ?) ON CONFLICT(name) DO NOTHING`,
			e.CacheName, e.StoredAt); err != nil {
			return fmt.Errorf("ensure cache: %w", err)
		}
		if _, err := tx.Exec(`DELETE FROM cache_entries WHERE cache_name = ? AND method = ? AND url = ?`,
			e.CacheName, e.Method, e.URL); err != nil {
			return fmt.Errorf("replace entry: %w", err)
		}
		res, err := tx.Exec(`
			INSERT INTO cache_entries (cache_name, method, url, status, headers, body, stored_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			e.CacheName, e.Method, e.URL, e.Status, string(headers), e.Body, e.StoredAt)
		if err != nil {
			return fmt.Errorf("insert entry: %w", err)
		}
		e.ID, _ = res.LastInsertId()
		return nil
	})
}

// MatchCacheEntry returns the entry for the request identity, or nil if none is stored.
func (db *DB) MatchCacheEntry(cacheName, method, url string) (*CacheEntry, error) {
	var e CacheEntry
	var headers string
	err := db.QueryRow(`
		SELECT id, cache_name, method, url, status, headers, body, stored_at
		FROM cache_entries WHERE cache_name = ? AND method = ? AND url = ?`,
		cacheName, method, url).Scan(&e.ID, &e.CacheName, &e.Method, &e.URL, &e.Status, &headers, &e.Body, &e.StoredAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(headers), &e.Header); err != nil {
		return nil, fmt.Errorf("decode headers: %w", err)
	}
	return &e, nil
}

// DeleteCacheEntry removes one entry. Reports whether it existed.
func (db *DB) DeleteCacheEntry(cacheName, method, url string) (bool, error) {
	res, err := db.Exec(`DELETE FROM cache_entries WHERE cache_name = ? AND method = ? AND url = ?`,
		cacheName, method, url)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// CacheEntryKeys returns the URLs stored in a cache in insertion order.
func (db *DB) CacheEntryKeys(cacheName string) ([]string, error) {
	rows, err := db.Query(`SELECT url FROM cache_entries WHERE cache_name = ? ORDER BY id ASC`, cacheName)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var urls []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, err
		}
		urls = append(urls, u)
	}
	return urls, rows.Err()
}
