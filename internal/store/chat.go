package store

import (
	"database/sql"
	"time"
)

// UpsertChat inserts or updates a chat record.
func (db *DB) UpsertChat(c *Chat) error {
	now := time.Now().UnixMilli()
	_, err := db.Exec(`
		INSERT INTO chats (peer_id, title, unread_count, last_message_at, last_message_preview, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(peer_id) DO UPDATE SET
			title = excluded.title,
			unread_count = excluded.unread_count,
			last_message_at = excluded.last_message_at,
			last_message_preview = excluded.last_message_preview,
			updated_at = excluded.updated_at`,
		c.PeerID, c.Title, c.UnreadCount, c.LastMessageAt, c.LastMessagePreview, now)
	return err
}

// ListChats returns chats sorted by last message timestamp descending.
func (db *DB) ListChats(limit, offset int) ([]Chat, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.Query(`
		SELECT peer_id, title, unread_count, last_message_at, last_message_preview
		FROM chats
		ORDER BY last_message_at DESC
		LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var chats []Chat
	for rows.Next() {
		var c Chat
		if err := rows.Scan(&c.PeerID, &c.Title, &c.UnreadCount, &c.LastMessageAt, &c.LastMessagePreview); err != nil {
			return nil, err
		}
		chats = append(chats, c)
	}
	return chats, rows.Err()
}

// GetChat returns a single chat by peer id.
func (db *DB) GetChat(peerID int64) (*Chat, error) {
	var c Chat
	err := db.QueryRow(`
		SELECT peer_id, title, unread_count, last_message_at, last_message_preview
		FROM chats
		WHERE peer_id = ?`, peerID).
		Scan(&c.PeerID, &c.Title, &c.UnreadCount, &c.LastMessageAt, &c.LastMessagePreview)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// TouchChatPreview updates a chat's preview fields after a push-feed
// message, creating the row if the chat has never been listed.
func (db *DB) TouchChatPreview(peerID int64, preview string, at int64, bumpUnread bool) error {
	now := time.Now().UnixMilli()
	bump := 0
	if bumpUnread {
		bump = 1
	}
	_, err := db.Exec(`
		INSERT INTO chats (peer_id, title, unread_count, last_message_at, last_message_preview, updated_at)
		VALUES (?, '', ?, ?, ?, ?)
		ON CONFLICT(peer_id) DO UPDATE SET
			unread_count = chats.unread_count + ?,
			last_message_at = excluded.last_message_at,
			last_message_preview = excluded.last_message_preview,
			updated_at = excluded.updated_at`,
		peerID, bump, at, preview, now, bump)
	return err
}
