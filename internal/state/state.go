// Package state folds the event stream into the view-facing model: the
// chat list, the active conversation window, presence and typing
// indicators. A single consumer goroutine owns a State and feeds it
// events in arrival order.
package state

import (
	"sort"
	"time"

	"github.com/At1ass/VK-TUI/internal/core"
	"github.com/At1ass/VK-TUI/internal/domain"
	"github.com/At1ass/VK-TUI/internal/merge"
)

// typingTTL is how long a typing indicator stays visible without
// further events.
const typingTTL = 3 * time.Second

type typingKey struct {
	PeerID int64
	UserID int64
}

// State is the accumulated client model. Not safe for concurrent use;
// one goroutine applies events and reads the result.
type State struct {
	Chats         []domain.Chat
	Users         map[int64]domain.User
	Messages      []domain.ChatMessage
	Window        *merge.Window
	SearchResults []domain.SearchResult

	SelectedPeer int64
	// Generation is the load token of the last window request for the
	// selected chat. MessagesLoaded events carrying a different token
	// are stale and discarded.
	Generation string

	TotalChats   int
	HasMoreChats bool
	Connected    bool
	NeedResync   bool
	LastError    string

	typing map[typingKey]time.Time
	now    func() time.Time
}

// New returns an empty state.
func New() *State {
	return &State{
		Users:  make(map[int64]domain.User),
		typing: make(map[typingKey]time.Time),
		now:    time.Now,
	}
}

// SelectChat switches the active conversation and arms the generation
// token the next MessagesLoaded must carry.
func (s *State) SelectChat(peerID int64, generation string) {
	s.SelectedPeer = peerID
	s.Generation = generation
	s.Messages = nil
	s.Window = merge.NewWindow(peerID)
}

// TypingUsers lists users currently typing in a chat, dropping expired
// entries as a side effect.
func (s *State) TypingUsers(peerID int64) []int64 {
	now := s.now()
	var out []int64
	for key, deadline := range s.typing {
		if now.After(deadline) {
			delete(s.typing, key)
			continue
		}
		if key.PeerID == peerID {
			out = append(out, key.UserID)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Apply folds one event into the state.
func (s *State) Apply(evt core.Event) {
	switch e := evt.(type) {
	case core.ConversationsLoaded:
		s.applyConversations(e)
	case core.MessagesLoaded:
		s.applyMessages(e)
	case core.SearchResultsLoaded:
		s.SearchResults = e.Results
	case core.MessageSent:
		// The canonical copy arrives through the push feed; nothing to
		// patch locally.
	case core.MessageEdited:
		s.patchMessage(e.MessageID, func(m *domain.ChatMessage) {
			m.IsEdited = true
		})
	case core.MessageDeleted:
		s.removeMessage(e.MessageID)
	case core.MessageDetailsFetched:
		s.applyDetails(e)
	case core.ErrorEvent:
		s.LastError = e.Message
	case core.SendFailed:
		s.LastError = e.Message
	case core.NewMessage:
		s.applyNewMessage(e)
	case core.MessageRead:
		s.applyRead(e)
	case core.MessageEditedRemote:
		if e.PeerID == s.SelectedPeer {
			s.patchMessage(e.MessageID, func(m *domain.ChatMessage) {
				m.IsEdited = true
			})
		}
	case core.MessageDeletedRemote:
		if e.PeerID == s.SelectedPeer {
			s.removeMessage(e.MessageID)
		}
	case core.UserOnline:
		s.setOnline(e.UserID, true)
	case core.UserOffline:
		s.setOnline(e.UserID, false)
	case core.UserTyping:
		s.typing[typingKey{PeerID: e.PeerID, UserID: e.UserID}] = s.now().Add(typingTTL)
	case core.ConnectionStatus:
		s.Connected = e.Connected
	case core.ResyncRequired:
		s.NeedResync = true
	}
}

func (s *State) applyConversations(e core.ConversationsLoaded) {
	for _, u := range e.Profiles {
		s.Users[u.ID] = u
	}
	for _, chat := range e.Chats {
		s.upsertChat(chat)
	}
	s.TotalChats = e.TotalCount
	s.HasMoreChats = e.HasMore
	s.sortChats()
}

func (s *State) applyMessages(e core.MessagesLoaded) {
	if e.PeerID != s.SelectedPeer {
		return
	}
	if s.Generation != "" && e.Generation != s.Generation {
		return
	}
	for _, u := range e.Profiles {
		s.Users[u.ID] = u
	}
	if s.Window == nil {
		s.Window = merge.NewWindow(e.PeerID)
	}

	switch e.Mode {
	case core.ModeReplace:
		s.Messages = e.Messages
		s.Window.ApplyReplace(e.Messages, e.HasMore, merge.Latest)
	case core.ModeAround:
		s.Messages = e.Messages
		s.Window.ApplyReplace(e.Messages, e.HasMore, merge.Around)
	case core.ModeOlder:
		merged, added := merge.Merge(s.Messages, e.Messages, merge.Older)
		s.Messages = merged
		s.Window.ApplyOlder(added, e.HasMore)
	}
}

func (s *State) applyDetails(e core.MessageDetailsFetched) {
	s.patchMessage(e.MessageID, func(m *domain.ChatMessage) {
		m.CMID = e.CMID
		m.Text = e.Text
		m.IsEdited = e.IsEdited
		m.Attachments = e.Attachments
		m.Reply = e.Reply
		m.Forwards = e.Forwards
	})
}

func (s *State) applyNewMessage(e core.NewMessage) {
	if e.PeerID == s.SelectedPeer {
		incoming := []domain.ChatMessage{{
			ID:         e.MessageID,
			FromID:     e.FromID,
			FromName:   s.displayName(e),
			Text:       e.Text,
			Timestamp:  e.Timestamp,
			IsOutgoing: e.IsOutgoing,
			IsRead:     !e.IsOutgoing,
			Delivery:   domain.DeliverySent,
		}}
		merged, added := merge.Merge(s.Messages, incoming, merge.Newer)
		s.Messages = merged
		if added > 0 && s.Window != nil {
			s.Window.ApplyNewer(added, s.Window.HasMoreNewer, incoming)
		}
	}

	for i := range s.Chats {
		if s.Chats[i].PeerID != e.PeerID {
			continue
		}
		s.Chats[i].LastMessage = e.Text
		s.Chats[i].LastMessageTime = e.Timestamp
		if !e.IsOutgoing && e.PeerID != s.SelectedPeer {
			s.Chats[i].UnreadCount++
		}
		break
	}
	s.sortChats()
}

func (s *State) applyRead(e core.MessageRead) {
	if e.PeerID != s.SelectedPeer {
		return
	}
	for i := range s.Messages {
		if !s.Messages[i].IsOutgoing {
			continue
		}
		if e.MessageID <= 0 || s.Messages[i].ID <= e.MessageID {
			s.Messages[i].IsRead = true
		}
	}
}

func (s *State) setOnline(userID int64, online bool) {
	if u, ok := s.Users[userID]; ok {
		u.IsOnline = online
		s.Users[userID] = u
	}
	for i := range s.Chats {
		if s.Chats[i].PeerID == userID {
			s.Chats[i].IsOnline = online
		}
	}
}

func (s *State) upsertChat(chat domain.Chat) {
	for i := range s.Chats {
		if s.Chats[i].PeerID == chat.PeerID {
			s.Chats[i] = chat
			return
		}
	}
	s.Chats = append(s.Chats, chat)
}

func (s *State) sortChats() {
	sort.SliceStable(s.Chats, func(i, j int) bool {
		return s.Chats[i].LastMessageTime > s.Chats[j].LastMessageTime
	})
}

func (s *State) patchMessage(id int64, patch func(*domain.ChatMessage)) {
	for i := range s.Messages {
		if s.Messages[i].ID == id {
			patch(&s.Messages[i])
			return
		}
	}
}

func (s *State) removeMessage(id int64) {
	for i := range s.Messages {
		if s.Messages[i].ID == id {
			s.Messages = append(s.Messages[:i], s.Messages[i+1:]...)
			return
		}
	}
}

func (s *State) displayName(e core.NewMessage) string {
	if e.IsOutgoing {
		return "You"
	}
	return domain.DisplayName(s.Users, e.FromID)
}
