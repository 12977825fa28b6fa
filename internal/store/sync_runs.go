package store

// RecordSyncRun appends a flush outcome to the run history.
func (db *DB) RecordSyncRun(r *SyncRun) error {
	res, err := db.Exec(`
		INSERT INTO sync_runs (started_at, finished_at, attempted, synced, retried, dropped, remaining, status, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.StartedAt, r.FinishedAt, r.Attempted, r.Synced, r.Retried, r.Dropped, r.Remaining, r.Status, r.Error)
	if err != nil {
		return err
	}
	r.ID, _ = res.LastInsertId()
	return nil
}

// RecentSyncRuns returns up to limit runs, newest first.
func (db *DB) RecentSyncRuns(limit int) ([]SyncRun, error) {
	rows, err := db.Query(`
		SELECT id, started_at, finished_at, attempted, synced, retried, dropped, remaining, status, error
		FROM sync_runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var runs []SyncRun
	for rows.Next() {
		var r SyncRun
		if err := rows.Scan(&r.ID, &r.StartedAt, &r.FinishedAt, &r.Attempted, &r.Synced, &r.Retried, &r.Dropped, &r.Remaining, &r.Status, &r.Error); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
