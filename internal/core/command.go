// Package core defines the closed Command and Event sets exchanged
// between front ends and the synchronization engine. Commands go in
// through the executor, Events come out through the bus; both are
// immutable values.
package core

// Command is a user-initiated action requiring a remote call. The set
// is closed: every variant is defined in this package and the executor
// matches exhaustively.
type Command interface {
	isCommand()
}

// LoadConversations fetches a page of the chat list.
type LoadConversations struct {
	Offset int
}

// LoadMessages replaces the active window with the newest page of a
// conversation (mode Replace / Latest).
type LoadMessages struct {
	PeerID int64
	Offset int
	// Generation is minted by the consumer (a uuid) and echoed on the
	// resulting MessagesLoaded so stale responses can be discarded.
	Generation string
}

// LoadMessagesAround replaces the window with a page centered on a
// specific message (mode Around), e.g. after a search hit.
type LoadMessagesAround struct {
	PeerID     int64
	MessageID  int64
	Generation string
}

// LoadOlder extends the window backwards from StartMessageID.
type LoadOlder struct {
	PeerID         int64
	StartMessageID int64
	Offset         int
	Count          int
	Generation     string
}

// SendMessage sends plain text. Text must be non-empty.
type SendMessage struct {
	PeerID int64
	Text   string
}

// SendReply sends text replying to ReplyTo.
type SendReply struct {
	PeerID  int64
	ReplyTo int64
	Text    string
}

// SendForward forwards messages with a mandatory comment.
type SendForward struct {
	PeerID     int64
	MessageIDs []int64
	Comment    string
}

// EditMessage replaces the text of an existing message. CMID is used
// when the global id is not yet known.
type EditMessage struct {
	PeerID    int64
	MessageID int64
	CMID      int64
	Text      string
}

// DeleteMessage deletes a message. ForAll requires the message to be
// outgoing; Outgoing is the consumer's knowledge of that fact and is
// validated before any remote call.
type DeleteMessage struct {
	PeerID    int64
	MessageID int64
	ForAll    bool
	Outgoing  bool
}

// SearchMessages searches message text, globally or within PeerID.
type SearchMessages struct {
	Query  string
	PeerID int64 // 0 = global
}

// MarkAsRead clears the unread counter of a conversation. No dedicated
// result event.
type MarkAsRead struct {
	PeerID int64
}

// FetchMessageByID refreshes one message's details (cmid, attachments,
// reply, forward tree).
type FetchMessageByID struct {
	MessageID int64
}

func (LoadConversations) isCommand()  {}
func (LoadMessages) isCommand()       {}
func (LoadMessagesAround) isCommand() {}
func (LoadOlder) isCommand()          {}
func (SendMessage) isCommand()        {}
func (SendReply) isCommand()          {}
func (SendForward) isCommand()        {}
func (EditMessage) isCommand()        {}
func (DeleteMessage) isCommand()      {}
func (SearchMessages) isCommand()     {}
func (MarkAsRead) isCommand()         {}
func (FetchMessageByID) isCommand()   {}
