package store

import (
	"database/sql"
	"time"
)

// SaveCursor persists the long-poll resumption cursor.
func (db *DB) SaveCursor(ts string, pts int64) error {
	now := time.Now().UnixMilli()
	_, err := db.Exec(`
		INSERT INTO sync_state (id, ts, pts, updated_at)
		VALUES (1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			ts = excluded.ts,
			pts = excluded.pts,
			updated_at = excluded.updated_at`,
		ts, pts, now)
	return err
}

// LoadCursor returns the persisted cursor, empty if never saved.
func (db *DB) LoadCursor() (string, int64, error) {
	var ts string
	var pts int64
	err := db.QueryRow(`SELECT ts, pts FROM sync_state WHERE id = 1`).Scan(&ts, &pts)
	if err == sql.ErrNoRows {
		return "", 0, nil
	}
	if err != nil {
		return "", 0, err
	}
	return ts, pts, nil
}
