// Package domain holds the canonical value types shared by every part
// of the client: the executor, the long-poll listener, the reducer and
// the front ends. These are plain data — all behavior lives elsewhere.
package domain

// Chat is a conversation in the chat list.
type Chat struct {
	// PeerID is the VK conversation identifier (user id for DMs,
	// 2000000000+chat_id for group chats).
	PeerID          int64
	Title           string
	LastMessage     string
	LastMessageTime int64
	UnreadCount     int
	IsOnline        bool
}
