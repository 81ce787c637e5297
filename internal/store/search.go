package store

// SearchMessages performs a full-text search on message bodies.
func (db *DB) SearchMessages(query string, peerID int64, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 50
	}

	q := `
		SELECT m.id, m.peer_id, m.message_id, m.cmid, m.from_id, m.from_name, m.body,
		       m.is_outgoing, m.is_read, m.is_edited, m.timestamp,
		       snippet(messages_fts, 0, '<<', '>>', '...', 32)
		FROM messages_fts f
		JOIN messages m ON m.id = f.rowid
		WHERE messages_fts MATCH ?`

	args := []any{query}
	if peerID != 0 {
		q += " AND m.peer_id = ?"
		args = append(args, peerID)
	}
	q += " ORDER BY rank LIMIT ?"
	args = append(args, limit)

	rows, err := db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var results []SearchResult
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(
			&r.Message.RowID, &r.Message.PeerID, &r.Message.MessageID, &r.Message.CMID,
			&r.Message.FromID, &r.Message.FromName, &r.Message.Body,
			&r.Message.IsOutgoing, &r.Message.IsRead, &r.Message.IsEdited,
			&r.Message.Timestamp, &r.Snippet,
		); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}
