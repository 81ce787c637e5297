package store

import (
	"database/sql"
	"time"
)

// UpsertUser inserts or updates a profile record.
func (db *DB) UpsertUser(u *User) error {
	now := time.Now().UnixMilli()
	_, err := db.Exec(`
		INSERT INTO users (id, first_name, last_name, screen_name, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			first_name = excluded.first_name,
			last_name = excluded.last_name,
			screen_name = excluded.screen_name,
			updated_at = excluded.updated_at`,
		u.ID, u.FirstName, u.LastName, u.ScreenName, now)
	return err
}

// GetUser returns a profile by id.
func (db *DB) GetUser(id int64) (*User, error) {
	var u User
	err := db.QueryRow(`
		SELECT id, first_name, last_name, screen_name
		FROM users WHERE id = ?`, id).
		Scan(&u.ID, &u.FirstName, &u.LastName, &u.ScreenName)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}
