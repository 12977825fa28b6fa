package store

import (
	"path/filepath"
	"testing"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	db, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Migrate(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestMigrateIsIdempotent(t *testing.T) {
	db := testDB(t)

	// testDB already ran Migrate, so a second run must be a no-op.
	result, err := db.Migrate()
	if err != nil {
		t.Fatal(err)
	}
	if result.Changed {
		t.Error("second Migrate() should report Changed=false")
	}
	if result.Version != 2 {
		t.Errorf("version = %d, want 2 (init + sync_runs)", result.Version)
	}
}

func TestSchemaVersion(t *testing.T) {
	fresh, err := Open(filepath.Join(t.TempDir(), "fresh.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = fresh.Close() })

	if v, err := fresh.SchemaVersion(); err != nil || v != 0 {
		t.Errorf("fresh SchemaVersion = %d, %v; want 0", v, err)
	}
	if _, err := fresh.Migrate(); err != nil {
		t.Fatal(err)
	}
	if v, err := fresh.SchemaVersion(); err != nil || v != 2 {
		t.Errorf("migrated SchemaVersion = %d, %v; want 2", v, err)
	}
}

func TestKVRoundTrip(t *testing.T) {
	db := testDB(t)

	if _, ok, err := db.GetValue("offline_actions"); err != nil || ok {
		t.Fatalf("GetValue(absent) = ok %v, err %v; want false, nil", ok, err)
	}

	if err := db.PutValue("offline_actions", `[1]`); err != nil {
		t.Fatal(err)
	}
	if err := db.PutValue("offline_actions", `[1,2]`); err != nil {
		t.Fatal(err)
	}
	v, ok, err := db.GetValue("offline_actions")
	if err != nil || !ok {
		t.Fatalf("GetValue() = ok %v, err %v", ok, err)
	}
	if v != `[1,2]` {
		t.Errorf("value = %q, want [1,2]", v)
	}

	if err := db.DeleteValue("offline_actions"); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := db.GetValue("offline_actions"); ok {
		t.Error("value still present after DeleteValue")
	}
}

func TestCacheEntryPutMatchReplace(t *testing.T) {
	db := testDB(t)

	e := &CacheEntry{
		CacheName: "flood-alert-dynamic-v1",
		Method:    "GET",
		URL:       "https://tiles.example/1.png",
		Status:    200,
		Header:    map[string][]string{"Content-Type": {"image/png"}},
		Body:      []byte("old"),
	}
	if err := db.PutCacheEntry(e); err != nil {
		t.Fatal(err)
	}
	other := &CacheEntry{CacheName: e.CacheName, Method: "GET", URL: "https://tiles.example/2.png", Status: 200, Body: []byte("two")}
	if err := db.PutCacheEntry(other); err != nil {
		t.Fatal(err)
	}

	// Overwrite the first entry: last write wins and it moves to the end.
	e.Body = []byte("new")
	e.StoredAt = 0
	if err := db.PutCacheEntry(e); err != nil {
		t.Fatal(err)
	}

	got, err := db.MatchCacheEntry(e.CacheName, "GET", e.URL)
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || string(got.Body) != "new" {
		t.Fatalf("match = %+v, want body new", got)
	}
	if got.Header["Content-Type"][0] != "image/png" {
		t.Errorf("header = %v, want image/png", got.Header)
	}

	keys, err := db.CacheEntryKeys(e.CacheName)
	if err != nil {
		t.Fatal(err)
	}
	if len(keys) != 2 || keys[0] != other.URL || keys[1] != e.URL {
		t.Errorf("keys = %v, want [2.png 1.png]", keys)
	}

	miss, err := db.MatchCacheEntry(e.CacheName, "GET", "https://tiles.example/3.png")
	if err != nil {
		t.Fatal(err)
	}
	if miss != nil {
		t.Errorf("expected nil for missing entry, got %+v", miss)
	}
}

func TestDeleteCacheRemovesEntries(t *testing.T) {
	db := testDB(t)

	if err := db.CreateCache("flood-alert-static-v1"); err != nil {
		t.Fatal(err)
	}
	if err := db.PutCacheEntry(&CacheEntry{CacheName: "flood-alert-v1", Method: "GET", URL: "/", Status: 200}); err != nil {
		t.Fatal(err)
	}

	names, err := db.CacheNames()
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 2 {
		t.Fatalf("got %d caches, want 2", len(names))
	}

	existed, err := db.DeleteCache("flood-alert-v1")
	if err != nil {
		t.Fatal(err)
	}
	if !existed {
		t.Error("DeleteCache() reported missing cache")
	}
	if ok, _ := db.HasCache("flood-alert-v1"); ok {
		t.Error("cache still present after delete")
	}
	if e, _ := db.MatchCacheEntry("flood-alert-v1", "GET", "/"); e != nil {
		t.Error("entry survived cache deletion")
	}

	existed, err = db.DeleteCache("flood-alert-v1")
	if err != nil {
		t.Fatal(err)
	}
	if existed {
		t.Error("second DeleteCache() reported existing cache")
	}
}

func TestDeleteCacheEntry(t *testing.T) {
	db := testDB(t)

	if err := db.PutCacheEntry(&CacheEntry{CacheName: "c", Method: "GET", URL: "/a", Status: 200}); err != nil {
		t.Fatal(err)
	}
	ok, err := db.DeleteCacheEntry("c", "GET", "/a")
	if err != nil || !ok {
		t.Fatalf("DeleteCacheEntry() = %v, %v; want true, nil", ok, err)
	}
	ok, err = db.DeleteCacheEntry("c", "GET", "/a")
	if err != nil || ok {
		t.Fatalf("second DeleteCacheEntry() = %v, %v; want false, nil", ok, err)
	}
}

func TestSyncRunHistory(t *testing.T) {
	db := testDB(t)

	for i, status := range []string{"error", "success"} {
		if err := db.RecordSyncRun(&SyncRun{StartedAt: int64(i), FinishedAt: int64(i + 1), Attempted: 1, Status: status}); err != nil {
			t.Fatal(err)
		}
	}

	runs, err := db.RecentSyncRuns(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 {
		t.Fatalf("got %d runs, want 2", len(runs))
	}
	if runs[0].Status != "success" {
		t.Errorf("newest run status = %q, want success", runs[0].Status)
	}
}
