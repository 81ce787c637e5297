package vkapi

import "encoding/json"

// User is a profile entry from the profiles array of extended responses.
type User struct {
	ID         int64  `json:"id"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	ScreenName string `json:"screen_name"`
	Online     int    `json:"online"`
}

// FullName returns "First Last".
func (u User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// Peer identifies a conversation endpoint.
type Peer struct {
	ID      int64  `json:"id"`
	Type    string `json:"type"`
	LocalID int64  `json:"local_id"`
}

// ChatSettings is present for group conversations only.
type ChatSettings struct {
	Title        string `json:"title"`
	MembersCount int    `json:"members_count"`
}

// Conversation is one entry of messages.getConversations.
type Conversation struct {
	Peer         Peer          `json:"peer"`
	UnreadCount  int           `json:"unread_count"`
	OutRead      int64         `json:"out_read"`
	ChatSettings *ChatSettings `json:"chat_settings"`
}

// ConversationItem pairs a conversation with its last message.
type ConversationItem struct {
	Conversation Conversation `json:"conversation"`
	LastMessage  Message      `json:"last_message"`
}

// Attachment is a shape-polymorphic message attachment. Only the fields
// the client renders are decoded; everything else stays in the raw type
// tag.
type Attachment struct {
	Type    string             `json:"type"`
	Photo   *PhotoAttachment   `json:"photo"`
	Doc     *DocAttachment     `json:"doc"`
	Link    *LinkAttachment    `json:"link"`
	Audio   *AudioAttachment   `json:"audio"`
	Sticker *StickerAttachment `json:"sticker"`
}

type PhotoAttachment struct {
	ID    int64       `json:"id"`
	Text  string      `json:"text"`
	Sizes []PhotoSize `json:"sizes"`
}

type PhotoSize struct {
	Type   string `json:"type"`
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

type DocAttachment struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
	Size  int64  `json:"size"`
	Ext   string `json:"ext"`
	URL   string `json:"url"`
}

type LinkAttachment struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

type AudioAttachment struct {
	ID     int64  `json:"id"`
	Artist string `json:"artist"`
	Title  string `json:"title"`
	URL    string `json:"url"`
}

type StickerAttachment struct {
	StickerID int64 `json:"sticker_id"`
}

// Message is the raw messages.* payload. Forwards and replies nest
// recursively; the mapper flattens them with a depth cap.
type Message struct {
	ID          int64        `json:"id"`
	CMID        int64        `json:"conversation_message_id"`
	FromID      int64        `json:"from_id"`
	PeerID      int64        `json:"peer_id"`
	Date        int64        `json:"date"`
	Text        string       `json:"text"`
	Out         int          `json:"out"`
	UpdateTime  int64        `json:"update_time"`
	Attachments []Attachment `json:"attachments"`
	FwdMessages []Message    `json:"fwd_messages"`
	ReplyTo     *Message     `json:"reply_message"`
}

// IsOutgoing reports whether the message was sent by the account owner.
func (m Message) IsOutgoing() bool {
	return m.Out == 1
}

// ConversationsResponse is the messages.getConversations payload.
type ConversationsResponse struct {
	Count    int                `json:"count"`
	Items    []ConversationItem `json:"items"`
	Profiles []User             `json:"profiles"`
}

// HistoryResponse is the messages.getHistory payload.
type HistoryResponse struct {
	Count         int            `json:"count"`
	Items         []Message      `json:"items"`
	Profiles      []User         `json:"profiles"`
	Conversations []Conversation `json:"conversations"`
}

// SearchResponse is the messages.search payload.
type SearchResponse struct {
	Count         int            `json:"count"`
	Items         []Message      `json:"items"`
	Profiles      []User         `json:"profiles"`
	Conversations []Conversation `json:"conversations"`
}

// SentMessage is the messages.send extended result.
type SentMessage struct {
	MessageID int64 `json:"message_id"`
	CMID      int64 `json:"cmid"`
}

// LongPollServer is the descriptor returned by messages.getLongPollServer.
type LongPollServer struct {
	Key    string      `json:"key"`
	Server string      `json:"server"`
	TS     json.Number `json:"ts"`
	PTS    int64       `json:"pts"`
}

// LongPollResponse is one poll result. Updates are heterogeneous arrays
// ([code, args...]) and stay raw until the listener parses them.
type LongPollResponse struct {
	TS      json.Number       `json:"ts"`
	PTS     int64             `json:"pts"`
	Updates []json.RawMessage `json:"updates"`
	Failed  int               `json:"failed"`
}

// LongPollHistory is the messages.getLongPollHistory payload used for
// bounded gap recovery.
type LongPollHistory struct {
	Messages struct {
		Count int       `json:"count"`
		Items []Message `json:"items"`
	} `json:"messages"`
	Profiles []User `json:"profiles"`
	NewPTS   int64  `json:"new_pts"`
}
