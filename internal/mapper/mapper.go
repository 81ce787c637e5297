// Package mapper translates raw API payloads into domain values. Every
// function here is pure and total: no I/O, no side effects, and any
// absent field maps to a documented default.
package mapper

import (
	"fmt"

	"github.com/At1ass/VK-TUI/internal/domain"
	"github.com/At1ass/VK-TUI/internal/vkapi"
)

// maxForwardDepth caps forward-tree recursion. The API nests forwards
// arbitrarily; anything deeper than this renders as a bare count.
const maxForwardDepth = 16

// Profiles indexes a response's profiles array by user id.
type Profiles map[int64]vkapi.User

// IndexProfiles builds a Profiles lookup from a response slice.
func IndexProfiles(users []vkapi.User) Profiles {
	p := make(Profiles, len(users))
	for _, u := range users {
		p[u.ID] = u
	}
	return p
}

// Name resolves a peer or user id to a display name, synthesizing one
// for unknown ids.
func (p Profiles) Name(id int64) string {
	if u, ok := p[id]; ok {
		return u.FullName()
	}
	if id < 0 {
		return fmt.Sprintf("Group %d", -id)
	}
	return fmt.Sprintf("User %d", id)
}

// MapUser converts a raw profile.
func MapUser(u vkapi.User) domain.User {
	return domain.User{
		ID:         u.ID,
		FirstName:  u.FirstName,
		LastName:   u.LastName,
		ScreenName: u.ScreenName,
		IsOnline:   u.Online == 1,
	}
}

// MapUsers converts a profiles slice.
func MapUsers(users []vkapi.User) []domain.User {
	out := make([]domain.User, len(users))
	for i, u := range users {
		out[i] = MapUser(u)
	}
	return out
}

// MapConversation converts one getConversations item. A missing group
// title falls back to the peer's profile name, then to a synthesized
// "User <id>" / "Group <id>".
func MapConversation(item vkapi.ConversationItem, profiles Profiles) domain.Chat {
	peerID := item.Conversation.Peer.ID

	title := ""
	if s := item.Conversation.ChatSettings; s != nil {
		title = s.Title
	}
	if title == "" {
		title = profiles.Name(peerID)
	}

	online := false
	if u, ok := profiles[peerID]; ok {
		online = u.Online == 1
	}

	return domain.Chat{
		PeerID:          peerID,
		Title:           title,
		LastMessage:     item.LastMessage.Text,
		LastMessageTime: item.LastMessage.Date,
		UnreadCount:     item.Conversation.UnreadCount,
		IsOnline:        online,
	}
}

// MapMessage converts a raw history message. readWatermark is the
// conversation's out_read value: outgoing messages at or below it are
// marked read.
func MapMessage(msg vkapi.Message, profiles Profiles, readWatermark int64) domain.ChatMessage {
	out := msg.IsOutgoing()
	m := domain.ChatMessage{
		ID:          msg.ID,
		CMID:        msg.CMID,
		FromID:      msg.FromID,
		FromName:    profiles.Name(msg.FromID),
		Text:        msg.Text,
		Timestamp:   msg.Date,
		IsOutgoing:  out,
		IsRead:      !out || msg.ID <= readWatermark,
		IsEdited:    msg.UpdateTime > 0,
		Delivery:    domain.DeliverySent,
		Attachments: MapAttachments(msg.Attachments),
	}
	if msg.ReplyTo != nil {
		r := MapReply(*msg.ReplyTo, profiles)
		m.Reply = &r
	}
	for _, fwd := range msg.FwdMessages {
		m.Forwards = append(m.Forwards, mapForward(fwd, profiles, 0))
	}
	return m
}

// MapMessages converts a history page, oldest first. The API returns
// items newest-first; the domain invariant is ascending ids.
func MapMessages(items []vkapi.Message, profiles Profiles, readWatermark int64) []domain.ChatMessage {
	out := make([]domain.ChatMessage, len(items))
	for i, raw := range items {
		out[len(items)-1-i] = MapMessage(raw, profiles, readWatermark)
	}
	return out
}

// MapReply converts a reply preview.
func MapReply(msg vkapi.Message, profiles Profiles) domain.ReplyPreview {
	return domain.ReplyPreview{
		From:        profiles.Name(msg.FromID),
		Text:        msg.Text,
		Attachments: MapAttachments(msg.Attachments),
	}
}

// MapForwardTree converts a forwarded message and its nested forwards.
// Depth is capped; see maxForwardDepth.
func MapForwardTree(msg vkapi.Message, profiles Profiles) domain.ForwardItem {
	return mapForward(msg, profiles, 0)
}

func mapForward(msg vkapi.Message, profiles Profiles, depth int) domain.ForwardItem {
	item := domain.ForwardItem{
		From:        profiles.Name(msg.FromID),
		Text:        msg.Text,
		Attachments: MapAttachments(msg.Attachments),
	}
	if depth >= maxForwardDepth {
		return item
	}
	for _, nested := range msg.FwdMessages {
		item.Nested = append(item.Nested, mapForward(nested, profiles, depth+1))
	}
	return item
}

// MapSearchResults converts a messages.search response.
func MapSearchResults(resp *vkapi.SearchResponse) []domain.SearchResult {
	profiles := IndexProfiles(resp.Profiles)

	titles := make(map[int64]string, len(resp.Conversations))
	for _, conv := range resp.Conversations {
		title := ""
		if conv.ChatSettings != nil {
			title = conv.ChatSettings.Title
		}
		if title == "" {
			title = profiles.Name(conv.Peer.ID)
		}
		titles[conv.Peer.ID] = title
	}

	results := make([]domain.SearchResult, len(resp.Items))
	for i, msg := range resp.Items {
		title, ok := titles[msg.PeerID]
		if !ok {
			title = profiles.Name(msg.PeerID)
		}
		results[i] = domain.SearchResult{
			MessageID: msg.ID,
			PeerID:    msg.PeerID,
			FromID:    msg.FromID,
			FromName:  profiles.Name(msg.FromID),
			ChatTitle: title,
			Text:      msg.Text,
			Timestamp: msg.Date,
		}
	}
	return results
}
