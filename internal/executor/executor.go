// Package executor turns commands into API calls and publishes exactly
// one result event per command. Commands run on their own goroutines;
// the caller never blocks on the network.
package executor

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/At1ass/VK-TUI/internal/core"
	"github.com/At1ass/VK-TUI/internal/mapper"
	"github.com/At1ass/VK-TUI/internal/vkapi"
)

const (
	conversationsPage = 30
	messagesPage      = 50
	searchPage        = 50
)

// API is the remote surface the executor drives. *vkapi.Client
// satisfies it.
type API interface {
	FetchConversations(ctx context.Context, offset, count int) (*vkapi.ConversationsResponse, error)
	FetchHistory(ctx context.Context, peerID int64, offset, count int) (*vkapi.HistoryResponse, error)
	FetchHistoryAround(ctx context.Context, peerID, messageID int64, count int) (*vkapi.HistoryResponse, error)
	FetchHistoryFrom(ctx context.Context, peerID, startMessageID int64, offset, count int) (*vkapi.HistoryResponse, error)
	SendText(ctx context.Context, peerID int64, text string) (*vkapi.SentMessage, error)
	SendReply(ctx context.Context, peerID int64, text string, replyTo int64) (*vkapi.SentMessage, error)
	SendForward(ctx context.Context, peerID int64, comment string, messageIDs []int64) (*vkapi.SentMessage, error)
	EditMessage(ctx context.Context, peerID, messageID, cmid int64, text string) error
	DeleteMessage(ctx context.Context, messageID int64, forAll bool) error
	SearchMessages(ctx context.Context, query string, peerID int64, count int) (*vkapi.SearchResponse, error)
	MarkAsRead(ctx context.Context, peerID int64) error
	FetchMessageByID(ctx context.Context, messageID int64) (*vkapi.Message, error)
}

// Publisher is where result events go.
type Publisher interface {
	Publish(core.Event)
}

// flightKey identifies a load operation for duplicate suppression.
// Sends and edits are never suppressed; loads are keyed by peer and
// direction so a second scroll-triggered LoadOlder is dropped while the
// first is still running.
type flightKey struct {
	peerID int64
	op     string
}

// Executor dispatches commands. Safe for concurrent Submit calls.
type Executor struct {
	api API
	pub Publisher
	log *zap.Logger

	mu       sync.Mutex
	inFlight map[flightKey]struct{}
	wg       sync.WaitGroup
}

// New returns a ready executor.
func New(api API, pub Publisher, log *zap.Logger) *Executor {
	return &Executor{
		api:      api,
		pub:      pub,
		log:      log.Named("executor"),
		inFlight: make(map[flightKey]struct{}),
	}
}

// Submit runs cmd asynchronously. Duplicate in-flight loads are dropped
// silently; every accepted command produces exactly one event.
func (e *Executor) Submit(ctx context.Context, cmd core.Command) {
	key, tracked := flightOf(cmd)
	if tracked {
		e.mu.Lock()
		if _, busy := e.inFlight[key]; busy {
			e.mu.Unlock()
			e.log.Debug("dropping duplicate in-flight load",
				zap.Int64("peer_id", key.peerID),
				zap.String("op", key.op))
			return
		}
		e.inFlight[key] = struct{}{}
		e.mu.Unlock()
	}

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		if tracked {
			defer func() {
				e.mu.Lock()
				delete(e.inFlight, key)
				e.mu.Unlock()
			}()
		}
		e.dispatch(ctx, cmd)
	}()
}

// Wait blocks until all submitted commands have finished.
func (e *Executor) Wait() {
	e.wg.Wait()
}

func flightOf(cmd core.Command) (flightKey, bool) {
	switch c := cmd.(type) {
	case core.LoadConversations:
		return flightKey{op: "conversations"}, true
	case core.LoadMessages:
		return flightKey{peerID: c.PeerID, op: "replace"}, true
	case core.LoadMessagesAround:
		return flightKey{peerID: c.PeerID, op: "replace"}, true
	case core.LoadOlder:
		return flightKey{peerID: c.PeerID, op: "older"}, true
	case core.SearchMessages:
		return flightKey{op: "search"}, true
	default:
		return flightKey{}, false
	}
}

func (e *Executor) dispatch(ctx context.Context, cmd core.Command) {
	switch c := cmd.(type) {
	case core.LoadConversations:
		e.loadConversations(ctx, c)
	case core.LoadMessages:
		e.loadMessages(ctx, c)
	case core.LoadMessagesAround:
		e.loadMessagesAround(ctx, c)
	case core.LoadOlder:
		e.loadOlder(ctx, c)
	case core.SendMessage:
		e.sendMessage(ctx, c)
	case core.SendReply:
		e.sendReply(ctx, c)
	case core.SendForward:
		e.sendForward(ctx, c)
	case core.EditMessage:
		e.editMessage(ctx, c)
	case core.DeleteMessage:
		e.deleteMessage(ctx, c)
	case core.SearchMessages:
		e.search(ctx, c)
	case core.MarkAsRead:
		e.markAsRead(ctx, c)
	case core.FetchMessageByID:
		e.fetchMessageByID(ctx, c)
	default:
		e.log.Error("unknown command", zap.Any("command", cmd))
		e.pub.Publish(core.ErrorEvent{Message: "internal: unknown command"})
	}
}

func (e *Executor) loadConversations(ctx context.Context, c core.LoadConversations) {
	resp, err := e.api.FetchConversations(ctx, c.Offset, conversationsPage)
	if err != nil {
		e.fail("load conversations", err)
		return
	}
	profiles := mapper.IndexProfiles(resp.Profiles)
	out := core.ConversationsLoaded{
		Profiles:   mapper.MapUsers(resp.Profiles),
		TotalCount: resp.Count,
		HasMore:    c.Offset+len(resp.Items) < resp.Count,
	}
	for _, item := range resp.Items {
		out.Chats = append(out.Chats, mapper.MapConversation(item, profiles))
	}
	e.pub.Publish(out)
}

func (e *Executor) loadMessages(ctx context.Context, c core.LoadMessages) {
	resp, err := e.api.FetchHistory(ctx, c.PeerID, c.Offset, messagesPage)
	if err != nil {
		e.fail("load messages", err)
		return
	}
	e.publishHistory(c.PeerID, resp, core.ModeReplace, c.Generation, c.Offset)
}

func (e *Executor) loadMessagesAround(ctx context.Context, c core.LoadMessagesAround) {
	resp, err := e.api.FetchHistoryAround(ctx, c.PeerID, c.MessageID, messagesPage)
	if err != nil {
		e.fail("load messages around", err)
		return
	}
	e.publishHistory(c.PeerID, resp, core.ModeAround, c.Generation, 0)
}

func (e *Executor) loadOlder(ctx context.Context, c core.LoadOlder) {
	count := c.Count
	if count <= 0 {
		count = messagesPage
	}
	resp, err := e.api.FetchHistoryFrom(ctx, c.PeerID, c.StartMessageID, c.Offset, count)
	if err != nil {
		e.fail("load older", err)
		return
	}
	e.publishHistory(c.PeerID, resp, core.ModeOlder, c.Generation, c.Offset)
}

func (e *Executor) publishHistory(peerID int64, resp *vkapi.HistoryResponse, mode core.LoadMode, generation string, offset int) {
	profiles := mapper.IndexProfiles(resp.Profiles)
	watermark := outRead(resp.Conversations, peerID)
	e.pub.Publish(core.MessagesLoaded{
		PeerID:     peerID,
		Messages:   mapper.MapMessages(resp.Items, profiles, watermark),
		Profiles:   mapper.MapUsers(resp.Profiles),
		TotalCount: resp.Count,
		HasMore:    offset+len(resp.Items) < resp.Count,
		Mode:       mode,
		Generation: generation,
	})
}

func outRead(convs []vkapi.Conversation, peerID int64) int64 {
	for _, conv := range convs {
		if conv.Peer.ID == peerID {
			return conv.OutRead
		}
	}
	return 0
}

func (e *Executor) sendMessage(ctx context.Context, c core.SendMessage) {
	if c.Text == "" {
		e.pub.Publish(core.SendFailed{Message: "message text is empty"})
		return
	}
	sent, err := e.api.SendText(ctx, c.PeerID, c.Text)
	if err != nil {
		e.sendFail("send", err)
		return
	}
	e.pub.Publish(core.MessageSent{PeerID: c.PeerID, MessageID: sent.MessageID, CMID: sent.CMID})
}

func (e *Executor) sendReply(ctx context.Context, c core.SendReply) {
	if c.Text == "" {
		e.pub.Publish(core.SendFailed{Message: "reply text is empty"})
		return
	}
	sent, err := e.api.SendReply(ctx, c.PeerID, c.Text, c.ReplyTo)
	if err != nil {
		e.sendFail("reply", err)
		return
	}
	e.pub.Publish(core.MessageSent{PeerID: c.PeerID, MessageID: sent.MessageID, CMID: sent.CMID})
}

func (e *Executor) sendForward(ctx context.Context, c core.SendForward) {
	if c.Comment == "" {
		e.pub.Publish(core.SendFailed{Message: "forward comment is empty"})
		return
	}
	if len(c.MessageIDs) == 0 {
		e.pub.Publish(core.SendFailed{Message: "nothing selected to forward"})
		return
	}
	sent, err := e.api.SendForward(ctx, c.PeerID, c.Comment, c.MessageIDs)
	if err != nil {
		e.sendFail("forward", err)
		return
	}
	e.pub.Publish(core.MessageSent{PeerID: c.PeerID, MessageID: sent.MessageID, CMID: sent.CMID})
}

func (e *Executor) editMessage(ctx context.Context, c core.EditMessage) {
	if c.Text == "" {
		e.pub.Publish(core.SendFailed{Message: "edited text is empty"})
		return
	}
	if err := e.api.EditMessage(ctx, c.PeerID, c.MessageID, c.CMID, c.Text); err != nil {
		e.sendFail("edit", err)
		return
	}
	e.pub.Publish(core.MessageEdited{MessageID: c.MessageID})
}

func (e *Executor) deleteMessage(ctx context.Context, c core.DeleteMessage) {
	if c.ForAll && !c.Outgoing {
		e.pub.Publish(core.SendFailed{Message: "only your own messages can be deleted for everyone"})
		return
	}
	if err := e.api.DeleteMessage(ctx, c.MessageID, c.ForAll); err != nil {
		e.sendFail("delete", err)
		return
	}
	e.pub.Publish(core.MessageDeleted{MessageID: c.MessageID})
}

func (e *Executor) search(ctx context.Context, c core.SearchMessages) {
	if c.Query == "" {
		e.pub.Publish(core.ErrorEvent{Message: "search query is empty"})
		return
	}
	resp, err := e.api.SearchMessages(ctx, c.Query, c.PeerID, searchPage)
	if err != nil {
		e.fail("search", err)
		return
	}
	e.pub.Publish(core.SearchResultsLoaded{
		Results:    mapper.MapSearchResults(resp),
		TotalCount: resp.Count,
	})
}

func (e *Executor) markAsRead(ctx context.Context, c core.MarkAsRead) {
	// No result event on success; the unread counter converges via the
	// push feed.
	if err := e.api.MarkAsRead(ctx, c.PeerID); err != nil {
		e.fail("mark as read", err)
	}
}

func (e *Executor) fetchMessageByID(ctx context.Context, c core.FetchMessageByID) {
	msg, err := e.api.FetchMessageByID(ctx, c.MessageID)
	if err != nil {
		e.fail("fetch message", err)
		return
	}
	mapped := mapper.MapMessage(*msg, mapper.Profiles{}, 0)
	e.pub.Publish(core.MessageDetailsFetched{
		MessageID:   mapped.ID,
		CMID:        mapped.CMID,
		Text:        mapped.Text,
		IsEdited:    mapped.IsEdited,
		Attachments: mapped.Attachments,
		Reply:       mapped.Reply,
		Forwards:    mapped.Forwards,
	})
}

func (e *Executor) fail(op string, err error) {
	e.log.Warn("command failed", zap.String("op", op), zap.Error(err))
	e.pub.Publish(core.ErrorEvent{Message: op + ": " + err.Error()})
}

func (e *Executor) sendFail(op string, err error) {
	e.log.Warn("command failed", zap.String("op", op), zap.Error(err))
	e.pub.Publish(core.SendFailed{Message: op + ": " + err.Error()})
}
