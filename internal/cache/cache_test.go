package cache

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/matheus3301/floodline/internal/store"
)

func storages(t *testing.T) map[string]Storage {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Migrate(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return map[string]Storage{
		"memory": NewMemoryStorage(),
		"sql":    NewSQLStorage(db),
	}
}

func get(url string) *http.Request {
	req, _ := http.NewRequest(http.MethodGet, url, nil)
	return req
}

func TestPutMatchDelete(t *testing.T) {
	for name, s := range storages(t) {
		t.Run(name, func(t *testing.T) {
			c, err := s.Open("flood-alert-dynamic-v1")
			if err != nil {
				t.Fatal(err)
			}
			req := get("https://example.com/api/alerts?x=1")

			if r, err := c.Match(req); err != nil || r != nil {
				t.Fatalf("Match() on empty cache = %v, %v", r, err)
			}

			want := &Response{Status: 200, Header: http.Header{"Content-Type": {"application/json"}}, Body: []byte(`[1]`)}
			if err := c.Put(req, want); err != nil {
				t.Fatal(err)
			}
			got, err := c.Match(get("https://example.com/api/alerts?x=1#frag"))
			if err != nil || got == nil {
				t.Fatalf("Match() = %v, %v", got, err)
			}
			if got.Status != 200 || string(got.Body) != "[1]" || got.Header.Get("Content-Type") != "application/json" {
				t.Errorf("Match() = %+v", got)
			}
			if got.StoredAt.IsZero() {
				t.Error("StoredAt not set")
			}

			ok, err := c.Delete(req)
			if err != nil || !ok {
				t.Fatalf("Delete() = %v, %v", ok, err)
			}
			if r, _ := c.Match(req); r != nil {
				t.Error("entry still present after Delete")
			}
		})
	}
}

func TestPutRejectsNonGet(t *testing.T) {
	for name, s := range storages(t) {
		t.Run(name, func(t *testing.T) {
			c, _ := s.Open("c")
			req := httptest.NewRequest(http.MethodPost, "https://example.com/reports", nil)
			err := c.Put(req, &Response{Status: 201})
			if !errors.Is(err, ErrNotCacheable) {
				t.Errorf("Put(POST) err = %v, want ErrNotCacheable", err)
			}
		})
	}
}

func TestOverwriteMovesToEnd(t *testing.T) {
	for name, s := range storages(t) {
		t.Run(name, func(t *testing.T) {
			c, _ := s.Open("c")
			for _, u := range []string{"https://a.test/1", "https://a.test/2", "https://a.test/1"} {
				if err := c.Put(get(u), &Response{Status: 200, Body: []byte(u)}); err != nil {
					t.Fatal(err)
				}
			}
			keys, err := c.Keys()
			if err != nil {
				t.Fatal(err)
			}
			want := []string{"https://a.test/2", "https://a.test/1"}
			if !slices.Equal(keys, want) {
				t.Errorf("Keys() = %v, want %v", keys, want)
			}
		})
	}
}

func TestStorageNamesAndDelete(t *testing.T) {
	for name, s := range storages(t) {
		t.Run(name, func(t *testing.T) {
			for _, n := range []string{"a", "b", "a"} {
				if _, err := s.Open(n); err != nil {
					t.Fatal(err)
				}
			}
			c, _ := s.Open("b")
			_ = c.Put(get("https://a.test/x"), &Response{Status: 200})

			names, _ := s.Names()
			if len(names) != 2 {
				t.Fatalf("Names() = %v, want 2 caches", names)
			}
			ok, err := s.Delete("b")
			if err != nil || !ok {
				t.Fatalf("Delete(b) = %v, %v", ok, err)
			}
			if has, _ := s.Has("b"); has {
				t.Error("b still exists")
			}
			if ok, _ := s.Delete("b"); ok {
				t.Error("second Delete(b) reported existing")
			}
			reopened, _ := s.Open("b")
			if r, _ := reopened.Match(get("https://a.test/x")); r != nil {
				t.Error("entries survived cache deletion")
			}
		})
	}
}

func TestNewResponseLeavesBodyReadable(t *testing.T) {
	resp := &http.Response{
		StatusCode: 200,
		Header:     http.Header{"X-Test": {"1"}},
		Body:       io.NopCloser(strings.NewReader("hello")),
	}
	snap, err := NewResponse(resp)
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(resp.Body)
	if string(body) != "hello" || string(snap.Body) != "hello" {
		t.Errorf("body = %q, snapshot = %q", body, snap.Body)
	}
	if !snap.OK() {
		t.Error("200 should be OK")
	}

	out := snap.HTTP(get("https://a.test/"))
	replay, _ := io.ReadAll(out.Body)
	if out.StatusCode != 200 || string(replay) != "hello" || out.Header.Get("X-Test") != "1" {
		t.Errorf("HTTP() = %d %q %v", out.StatusCode, replay, out.Header)
	}
}
