package domain

// DeliveryStatus tracks the local delivery state of an outgoing message.
type DeliveryStatus int

const (
	DeliveryPending DeliveryStatus = iota
	DeliverySent
	DeliveryFailed
)

// AttachmentKind classifies an attachment for display purposes.
type AttachmentKind string

const (
	AttachmentPhoto   AttachmentKind = "photo"
	AttachmentDoc     AttachmentKind = "doc"
	AttachmentLink    AttachmentKind = "link"
	AttachmentAudio   AttachmentKind = "audio"
	AttachmentSticker AttachmentKind = "sticker"
	AttachmentOther   AttachmentKind = "other"
)

// AttachmentInfo is the summary of a message attachment.
type AttachmentInfo struct {
	Kind     AttachmentKind
	Title    string
	URL      string
	Size     int64
	Subtitle string
}

// ReplyPreview is the short form of a message being replied to.
type ReplyPreview struct {
	From        string
	Text        string
	Attachments []AttachmentInfo
}

// ForwardItem is one node of a forwarded-message tree. Forwards nest
// arbitrarily; the mapper caps the depth when building these.
type ForwardItem struct {
	From        string
	Text        string
	Attachments []AttachmentInfo
	Nested      []ForwardItem
}

// ChatMessage is a single message in a conversation.
//
// Within one chat's in-memory list, messages are strictly ordered by ID
// ascending and IDs are unique. That invariant is maintained by the
// merge package and relied on everywhere else.
type ChatMessage struct {
	// ID is the account-global message id.
	ID int64
	// CMID is the conversation-scoped sequence id, when known. Used to
	// correlate edits/deletes right after send, before the global id
	// round-trips.
	CMID        int64
	FromID      int64
	FromName    string
	Text        string
	Timestamp   int64
	IsOutgoing  bool
	IsRead      bool
	IsEdited    bool
	Delivery    DeliveryStatus
	Attachments []AttachmentInfo
	Reply       *ReplyPreview
	Forwards    []ForwardItem
}
