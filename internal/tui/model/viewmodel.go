// Package model is the TUI-side projection of the event stream: a
// guarded state reducer plus transient UI concerns like flash messages.
package model

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/At1ass/VK-TUI/internal/core"
	"github.com/At1ass/VK-TUI/internal/domain"
	"github.com/At1ass/VK-TUI/internal/state"
)

// Commander accepts commands for asynchronous execution.
type Commander interface {
	Submit(ctx context.Context, cmd core.Command)
}

// ViewModel folds bus events into state and issues commands on behalf
// of the views. All reads take a snapshot under the lock; Apply is
// called from the single bus-consumer goroutine.
type ViewModel struct {
	mu sync.RWMutex

	st    *state.State
	exec  Commander
	Flash Flash
}

// NewViewModel creates a view model over the given command executor.
func NewViewModel(exec Commander) *ViewModel {
	return &ViewModel{
		st:   state.New(),
		exec: exec,
	}
}

// Apply folds one event into the model. Returns the event back so the
// UI loop can react to specific kinds after state is updated.
func (vm *ViewModel) Apply(evt core.Event) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	vm.st.Apply(evt)
}

// OpenChat selects a conversation and requests its newest window. The
// freshly minted generation token invalidates any in-flight load for a
// previously selected chat.
func (vm *ViewModel) OpenChat(ctx context.Context, peerID int64) {
	gen := uuid.New().String()
	vm.mu.Lock()
	vm.st.SelectChat(peerID, gen)
	vm.mu.Unlock()

	vm.exec.Submit(ctx, core.LoadMessages{PeerID: peerID, Generation: gen})
	vm.exec.Submit(ctx, core.MarkAsRead{PeerID: peerID})
}

// OpenChatAround selects a conversation centered on a message, e.g.
// after a search hit.
func (vm *ViewModel) OpenChatAround(ctx context.Context, peerID, messageID int64) {
	gen := uuid.New().String()
	vm.mu.Lock()
	vm.st.SelectChat(peerID, gen)
	vm.mu.Unlock()

	vm.exec.Submit(ctx, core.LoadMessagesAround{PeerID: peerID, MessageID: messageID, Generation: gen})
}

// LoadOlder extends the active window backwards, if the window still
// has history.
func (vm *ViewModel) LoadOlder(ctx context.Context) {
	vm.mu.RLock()
	peer := vm.st.SelectedPeer
	gen := vm.st.Generation
	// Anchor on the oldest loaded message; the merge layer drops the
	// one-row overlap.
	var anchor int64
	if len(vm.st.Messages) > 0 {
		anchor = vm.st.Messages[0].ID
	}
	if w := vm.st.Window; w != nil && !w.HasMoreOlder {
		vm.mu.RUnlock()
		return
	}
	vm.mu.RUnlock()

	if peer == 0 || anchor == 0 {
		return
	}
	vm.exec.Submit(ctx, core.LoadOlder{
		PeerID:         peer,
		StartMessageID: anchor,
		Generation:     gen,
	})
}

// LoadChats requests the next page of the conversation list.
func (vm *ViewModel) LoadChats(ctx context.Context, offset int) {
	vm.exec.Submit(ctx, core.LoadConversations{Offset: offset})
}

// Send dispatches plain text to the active chat.
func (vm *ViewModel) Send(ctx context.Context, text string) {
	vm.mu.RLock()
	peer := vm.st.SelectedPeer
	vm.mu.RUnlock()
	if peer == 0 {
		return
	}
	vm.exec.Submit(ctx, core.SendMessage{PeerID: peer, Text: text})
}

// Reply dispatches a reply to a message in the active chat.
func (vm *ViewModel) Reply(ctx context.Context, replyTo int64, text string) {
	vm.mu.RLock()
	peer := vm.st.SelectedPeer
	vm.mu.RUnlock()
	if peer == 0 {
		return
	}
	vm.exec.Submit(ctx, core.SendReply{PeerID: peer, ReplyTo: replyTo, Text: text})
}

// Search dispatches a message search, scoped to the active chat when
// scoped is true.
func (vm *ViewModel) Search(ctx context.Context, query string, scoped bool) {
	var peer int64
	if scoped {
		vm.mu.RLock()
		peer = vm.st.SelectedPeer
		vm.mu.RUnlock()
	}
	vm.exec.Submit(ctx, core.SearchMessages{Query: query, PeerID: peer})
}

// Delete removes a message from the active chat.
func (vm *ViewModel) Delete(ctx context.Context, messageID int64, forAll bool) {
	vm.mu.RLock()
	peer := vm.st.SelectedPeer
	var outgoing bool
	for _, m := range vm.st.Messages {
		if m.ID == messageID {
			outgoing = m.IsOutgoing
			break
		}
	}
	vm.mu.RUnlock()
	vm.exec.Submit(ctx, core.DeleteMessage{PeerID: peer, MessageID: messageID, ForAll: forAll, Outgoing: outgoing})
}

// Edit replaces the text of a message in the active chat.
func (vm *ViewModel) Edit(ctx context.Context, messageID, cmid int64, text string) {
	vm.mu.RLock()
	peer := vm.st.SelectedPeer
	vm.mu.RUnlock()
	vm.exec.Submit(ctx, core.EditMessage{PeerID: peer, MessageID: messageID, CMID: cmid, Text: text})
}

// RefreshMessage refetches one message's details, used after a remote
// edit whose flat update carries no new body.
func (vm *ViewModel) RefreshMessage(ctx context.Context, messageID int64) {
	vm.exec.Submit(ctx, core.FetchMessageByID{MessageID: messageID})
}

// Chats returns a snapshot of the chat list.
func (vm *ViewModel) Chats() []domain.Chat {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	out := make([]domain.Chat, len(vm.st.Chats))
	copy(out, vm.st.Chats)
	return out
}

// Messages returns a snapshot of the active window.
func (vm *ViewModel) Messages() []domain.ChatMessage {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	out := make([]domain.ChatMessage, len(vm.st.Messages))
	copy(out, vm.st.Messages)
	return out
}

// SearchResults returns a snapshot of the last search.
func (vm *ViewModel) SearchResults() []domain.SearchResult {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	out := make([]domain.SearchResult, len(vm.st.SearchResults))
	copy(out, vm.st.SearchResults)
	return out
}

// SelectedPeer returns the active chat's peer id, 0 when none.
func (vm *ViewModel) SelectedPeer() int64 {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.st.SelectedPeer
}

// SelectedTitle resolves the active chat's display title.
func (vm *ViewModel) SelectedTitle() string {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	for _, c := range vm.st.Chats {
		if c.PeerID == vm.st.SelectedPeer {
			return c.Title
		}
	}
	return domain.DisplayName(vm.st.Users, vm.st.SelectedPeer)
}

// Connected reports push-feed connectivity.
func (vm *ViewModel) Connected() bool {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.st.Connected
}

// TypingUsers lists users typing in the active chat.
func (vm *ViewModel) TypingUsers() []int64 {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return vm.st.TypingUsers(vm.st.SelectedPeer)
}

// TypingNames renders typing users as display names.
func (vm *ViewModel) TypingNames() []string {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	ids := vm.st.TypingUsers(vm.st.SelectedPeer)
	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = domain.DisplayName(vm.st.Users, id)
	}
	return names
}

// ConsumeResync reports and clears the pending-resync flag. The caller
// is expected to reload the chat list and the active window.
func (vm *ViewModel) ConsumeResync() bool {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	if !vm.st.NeedResync {
		return false
	}
	vm.st.NeedResync = false
	return true
}

// LastError returns and clears the last surfaced error.
func (vm *ViewModel) LastError() string {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	msg := vm.st.LastError
	vm.st.LastError = ""
	return msg
}
