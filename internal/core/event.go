package core

import "github.com/At1ass/VK-TUI/internal/domain"

// Event is an advisory delta emitted by the executor or the long-poll
// listener. Kind returns the bus routing key; command results live
// under "core.", push-feed deltas under "push.".
type Event interface {
	Kind() string
}

// LoadMode describes how a MessagesLoaded window relates to existing
// state.
type LoadMode int

const (
	// ModeReplace resets the window to the newest page.
	ModeReplace LoadMode = iota
	// ModeAround resets the window centered on a target message.
	ModeAround
	// ModeOlder extends the window backwards.
	ModeOlder
)

// ConversationsLoaded carries a page of the chat list.
type ConversationsLoaded struct {
	Chats      []domain.Chat
	Profiles   []domain.User
	TotalCount int
	HasMore    bool
}

// MessagesLoaded carries a history window for one conversation.
type MessagesLoaded struct {
	PeerID     int64
	Messages   []domain.ChatMessage
	Profiles   []domain.User
	TotalCount int
	HasMore    bool
	Mode       LoadMode
	// Generation echoes the token from the originating load command.
	Generation string
}

// SearchResultsLoaded carries search hits.
type SearchResultsLoaded struct {
	Results    []domain.SearchResult
	TotalCount int
}

// MessageSent confirms a send. CMID may be zero until details are
// fetched.
type MessageSent struct {
	PeerID    int64
	MessageID int64
	CMID      int64
}

// MessageEdited confirms an edit issued by this client.
type MessageEdited struct {
	MessageID int64
}

// MessageDeleted confirms a delete issued by this client.
type MessageDeleted struct {
	MessageID int64
}

// MessageDetailsFetched carries refreshed details for one message.
type MessageDetailsFetched struct {
	MessageID   int64
	CMID        int64
	Text        string
	IsEdited    bool
	Attachments []domain.AttachmentInfo
	Reply       *domain.ReplyPreview
	Forwards    []domain.ForwardItem
}

// ErrorEvent surfaces a failed command or listener fault. Never
// retried automatically by the executor.
type ErrorEvent struct {
	Message string
}

// SendFailed surfaces a failed or locally rejected send/edit/delete.
type SendFailed struct {
	Message string
}

// NewMessage is a push-feed message arrival.
type NewMessage struct {
	MessageID  int64
	PeerID     int64
	FromID     int64
	Timestamp  int64
	Text       string
	IsOutgoing bool
}

// MessageRead is a push-feed read receipt: every outgoing message with
// id <= MessageID is now read. MessageID <= 0 means "all".
type MessageRead struct {
	PeerID    int64
	MessageID int64
}

// MessageEditedRemote reports an edit performed on another device.
type MessageEditedRemote struct {
	PeerID    int64
	MessageID int64
}

// MessageDeletedRemote reports a deletion performed on another device.
type MessageDeletedRemote struct {
	PeerID    int64
	MessageID int64
}

// UserOnline / UserOffline report presence changes.
type UserOnline struct {
	UserID int64
}

type UserOffline struct {
	UserID int64
}

// UserTyping is ephemeral; consumers apply a 3-second expiry.
type UserTyping struct {
	PeerID int64
	UserID int64
}

// ConnectionStatus reports long-poll connectivity transitions.
type ConnectionStatus struct {
	Connected bool
}

// ResyncRequired tells the consumer the push-feed cursor was judged
// unrecoverable: reload the active chat and the conversation list.
type ResyncRequired struct{}

func (ConversationsLoaded) Kind() string   { return "core.conversations_loaded" }
func (MessagesLoaded) Kind() string        { return "core.messages_loaded" }
func (SearchResultsLoaded) Kind() string   { return "core.search_results" }
func (MessageSent) Kind() string           { return "core.message_sent" }
func (MessageEdited) Kind() string         { return "core.message_edited" }
func (MessageDeleted) Kind() string        { return "core.message_deleted" }
func (MessageDetailsFetched) Kind() string { return "core.message_details" }
func (ErrorEvent) Kind() string            { return "core.error" }
func (SendFailed) Kind() string            { return "core.send_failed" }
func (NewMessage) Kind() string            { return "push.new_message" }
func (MessageRead) Kind() string           { return "push.message_read" }
func (MessageEditedRemote) Kind() string   { return "push.message_edited" }
func (MessageDeletedRemote) Kind() string  { return "push.message_deleted" }
func (UserOnline) Kind() string            { return "push.user_online" }
func (UserOffline) Kind() string           { return "push.user_offline" }
func (UserTyping) Kind() string            { return "push.user_typing" }
func (ConnectionStatus) Kind() string      { return "push.connection_status" }
func (ResyncRequired) Kind() string        { return "push.resync_required" }
