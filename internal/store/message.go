package store

import "time"

// UpsertMessage inserts or updates a message (idempotent on peer_id +
// message_id).
func (db *DB) UpsertMessage(m *Message) error {
	now := time.Now().UnixMilli()
	_, err := db.Exec(`
		INSERT INTO messages (peer_id, message_id, cmid, from_id, from_name, body, is_outgoing, is_read, is_edited, timestamp, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(peer_id, message_id) DO UPDATE SET
			cmid = excluded.cmid,
			from_name = excluded.from_name,
			body = excluded.body,
			is_read = excluded.is_read,
			is_edited = excluded.is_edited`,
		m.PeerID, m.MessageID, m.CMID, m.FromID, m.FromName, m.Body,
		m.IsOutgoing, m.IsRead, m.IsEdited, m.Timestamp, now)
	return err
}

// UpsertMessages stores a batch inside one transaction.
func (db *DB) UpsertMessages(msgs []Message) error {
	if len(msgs) == 0 {
		return nil
	}
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	now := time.Now().UnixMilli()
	stmt, err := tx.Prepare(`
		INSERT INTO messages (peer_id, message_id, cmid, from_id, from_name, body, is_outgoing, is_read, is_edited, timestamp, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(peer_id, message_id) DO UPDATE SET
			cmid = excluded.cmid,
			from_name = excluded.from_name,
			body = excluded.body,
			is_read = excluded.is_read,
			is_edited = excluded.is_edited`)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer func() { _ = stmt.Close() }()

	for i := range msgs {
		m := &msgs[i]
		if _, err := stmt.Exec(m.PeerID, m.MessageID, m.CMID, m.FromID, m.FromName, m.Body,
			m.IsOutgoing, m.IsRead, m.IsEdited, m.Timestamp, now); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// ListMessages returns messages for a chat using keyset pagination by
// message id.
func (db *DB) ListMessages(peerID int64, beforeID int64, limit int) ([]Message, error) {
	if limit <= 0 {
		limit = 50
	}
	if beforeID <= 0 {
		beforeID = 1<<63 - 1
	}
	rows, err := db.Query(`
		SELECT id, peer_id, message_id, cmid, from_id, from_name, body, is_outgoing, is_read, is_edited, timestamp
		FROM messages
		WHERE peer_id = ? AND message_id < ?
		ORDER BY message_id DESC
		LIMIT ?`, peerID, beforeID, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var msgs []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.RowID, &m.PeerID, &m.MessageID, &m.CMID, &m.FromID, &m.FromName,
			&m.Body, &m.IsOutgoing, &m.IsRead, &m.IsEdited, &m.Timestamp); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

// DeleteMessageByID removes a message by its account-global id, used
// when the peer is not known at the call site.
func (db *DB) DeleteMessageByID(messageID int64) error {
	_, err := db.Exec(`DELETE FROM messages WHERE message_id = ?`, messageID)
	return err
}

// DeleteMessage removes a mirrored message.
func (db *DB) DeleteMessage(peerID, messageID int64) error {
	_, err := db.Exec(`DELETE FROM messages WHERE peer_id = ? AND message_id = ?`, peerID, messageID)
	return err
}

// MarkReadUpTo applies an outgoing read receipt: every outgoing message
// in the chat with id <= watermark becomes read. watermark <= 0 means
// all.
func (db *DB) MarkReadUpTo(peerID, watermark int64) error {
	q := `UPDATE messages SET is_read = 1 WHERE peer_id = ? AND is_outgoing = 1`
	args := []any{peerID}
	if watermark > 0 {
		q += ` AND message_id <= ?`
		args = append(args, watermark)
	}
	_, err := db.Exec(q, args...)
	return err
}

// MarkEdited flags a message as edited, optionally replacing its body.
func (db *DB) MarkEdited(peerID, messageID int64, body string) error {
	if body == "" {
		_, err := db.Exec(`UPDATE messages SET is_edited = 1 WHERE peer_id = ? AND message_id = ?`,
			peerID, messageID)
		return err
	}
	_, err := db.Exec(`UPDATE messages SET is_edited = 1, body = ? WHERE peer_id = ? AND message_id = ?`,
		body, peerID, messageID)
	return err
}

// UpdateMessageBody replaces a message body located by its
// account-global id, for callers that do not know the peer.
func (db *DB) UpdateMessageBody(messageID int64, body string, edited bool) error {
	e := 0
	if edited {
		e = 1
	}
	_, err := db.Exec(`UPDATE messages SET body = ?, is_edited = ? WHERE message_id = ?`,
		body, e, messageID)
	return err
}
