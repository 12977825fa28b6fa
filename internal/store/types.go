package store

// CacheEntry is one stored response in a named cache.
type CacheEntry struct {
	ID        int64
	CacheName string
	Method    string
	URL       string
	Status    int
	Header    map[string][]string
	Body      []byte
	StoredAt  int64 // unix ms
}

// SyncRun records the outcome of one flush pass.
type SyncRun struct {
	ID         int64
	StartedAt  int64 // unix ms
	FinishedAt int64 // unix ms
	Attempted  int
	Synced     int
	Retried    int
	Dropped    int
	Remaining  int
	Status     string
	Error      string
}
