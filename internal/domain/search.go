package domain

// SearchResult is a single hit from a message search. Results are
// read-only: selecting one triggers a fresh Around load, they are never
// merged into a chat's message list directly.
type SearchResult struct {
	MessageID int64
	PeerID    int64
	FromID    int64
	FromName  string
	ChatTitle string
	Text      string
	Timestamp int64
}
