package longpoll

import (
	"encoding/json"
	"strconv"

	"github.com/At1ass/VK-TUI/internal/core"
)

// Update codes of long-poll protocol version 3.
const (
	updSetFlags     = 2
	updNewMessage   = 4
	updEditMessage  = 5
	updReadIncoming = 6
	updReadOutgoing = 7
	updUserOnline   = 8
	updUserOffline  = 9
	updTypingDirect = 61
	updTypingChat   = 62
)

// Message flag bits used by updSetFlags / updNewMessage.
const (
	flagOutbox  = 2
	flagDeleted = 128
)

// chatPeerBase offsets group-chat ids into the peer id space.
const chatPeerBase = 2000000000

// ParseUpdate decodes one raw long-poll update array into a typed
// event. Returns false for codes the client does not consume.
//
// Incoming-side read receipts (code 6) are intentionally dropped: they
// describe this account's own reads on another device, and unread
// counters converge on the next conversation load instead.
func ParseUpdate(raw json.RawMessage) (core.Event, bool) {
	var fields []any
	if err := json.Unmarshal(raw, &fields); err != nil || len(fields) == 0 {
		return nil, false
	}

	code, ok := num(fields, 0)
	if !ok {
		return nil, false
	}

	switch code {
	case updNewMessage:
		// [4, msg_id, flags, peer_id, ts, text, {extra}]
		msgID, _ := num(fields, 1)
		flags, _ := num(fields, 2)
		peerID, _ := num(fields, 3)
		ts, _ := num(fields, 4)
		text, _ := str(fields, 5)
		outgoing := flags&flagOutbox != 0

		fromID := peerID
		if outgoing {
			fromID = 0
		} else if peerID > chatPeerBase {
			// Group chat: the sender rides in the extra-fields map.
			if extra, ok := obj(fields, 6); ok {
				fromID = extraFrom(extra)
			}
		}
		return core.NewMessage{
			MessageID:  msgID,
			PeerID:     peerID,
			FromID:     fromID,
			Timestamp:  ts,
			Text:       text,
			IsOutgoing: outgoing,
		}, true

	case updEditMessage:
		// [5, msg_id, mask, peer_id, ts, text, ...]
		msgID, _ := num(fields, 1)
		peerID, _ := num(fields, 3)
		return core.MessageEditedRemote{PeerID: peerID, MessageID: msgID}, true

	case updSetFlags:
		// [2, msg_id, mask, peer_id]
		mask, _ := num(fields, 2)
		if mask&flagDeleted == 0 {
			return nil, false
		}
		msgID, _ := num(fields, 1)
		peerID, _ := num(fields, 3)
		return core.MessageDeletedRemote{PeerID: peerID, MessageID: msgID}, true

	case updReadOutgoing:
		// [7, peer_id, local_id]: peer read our messages up to local_id.
		peerID, _ := num(fields, 1)
		msgID, _ := num(fields, 2)
		return core.MessageRead{PeerID: peerID, MessageID: msgID}, true

	case updUserOnline:
		// [8, -user_id, extra, ts]
		id, _ := num(fields, 1)
		return core.UserOnline{UserID: -id}, true

	case updUserOffline:
		// [9, -user_id, flags, ts]
		id, _ := num(fields, 1)
		return core.UserOffline{UserID: -id}, true

	case updTypingDirect:
		// [61, user_id, flags]
		userID, _ := num(fields, 1)
		return core.UserTyping{PeerID: userID, UserID: userID}, true

	case updTypingChat:
		// [62, user_id, chat_id]
		userID, _ := num(fields, 1)
		chatID, _ := num(fields, 2)
		return core.UserTyping{PeerID: chatPeerBase + chatID, UserID: userID}, true

	default:
		return nil, false
	}
}

func num(fields []any, i int) (int64, bool) {
	if i >= len(fields) {
		return 0, false
	}
	f, ok := fields[i].(float64)
	if !ok {
		return 0, false
	}
	return int64(f), true
}

func str(fields []any, i int) (string, bool) {
	if i >= len(fields) {
		return "", false
	}
	s, ok := fields[i].(string)
	return s, ok
}

func obj(fields []any, i int) (map[string]any, bool) {
	if i >= len(fields) {
		return nil, false
	}
	m, ok := fields[i].(map[string]any)
	return m, ok
}

func extraFrom(extra map[string]any) int64 {
	s, ok := extra["from"].(string)
	if !ok {
		return 0
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return id
}
