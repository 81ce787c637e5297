package store

// Chat is a mirrored conversation record.
type Chat struct {
	PeerID             int64
	Title              string
	UnreadCount        int
	LastMessageAt      int64
	LastMessagePreview string
}

// User is a mirrored profile record.
type User struct {
	ID         int64
	FirstName  string
	LastName   string
	ScreenName string
}

// Message is a mirrored message record.
type Message struct {
	RowID      int64
	PeerID     int64
	MessageID  int64
	CMID       int64
	FromID     int64
	FromName   string
	Body       string
	IsOutgoing bool
	IsRead     bool
	IsEdited   bool
	Timestamp  int64
}

// SearchResult holds a message with a search snippet.
type SearchResult struct {
	Message Message
	Snippet string
}
