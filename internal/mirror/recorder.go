// Package mirror maintains the local SQLite copy of everything the
// client has seen. It subscribes to the event bus and ingests command
// results and push-feed deltas idempotently, so restarts and gap
// replays never duplicate rows.
package mirror

import (
	"context"
	"fmt"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/At1ass/VK-TUI/internal/bus"
	"github.com/At1ass/VK-TUI/internal/core"
	"github.com/At1ass/VK-TUI/internal/domain"
	"github.com/At1ass/VK-TUI/internal/store"
)

const previewLimit = 100

// Recorder ingests events into the store.
type Recorder struct {
	db     *store.DB
	bus    *bus.Bus
	logger *zap.Logger
	cancel context.CancelFunc
	done   chan struct{}
}

// NewRecorder creates a recorder over the given database.
func NewRecorder(db *store.DB, b *bus.Bus, logger *zap.Logger) *Recorder {
	return &Recorder{
		db:     db,
		bus:    b,
		logger: logger.Named("mirror"),
	}
}

// Start subscribes to all events and ingests them until Stop.
func (r *Recorder) Start(ctx context.Context) {
	ctx, r.cancel = context.WithCancel(ctx)
	r.done = make(chan struct{})
	ch, unsub := r.bus.Subscribe("")

	go func() {
		defer close(r.done)
		defer unsub()
		for {
			select {
			case evt, ok := <-ch:
				if !ok {
					return
				}
				if err := r.handleEvent(evt); err != nil {
					r.logger.Error("ingest event failed",
						zap.String("kind", evt.Kind()), zap.Error(err))
				}
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop stops the recorder and waits for the ingest goroutine.
func (r *Recorder) Stop() {
	if r.cancel != nil {
		r.cancel()
		<-r.done
	}
}

func (r *Recorder) handleEvent(evt core.Event) error {
	switch e := evt.(type) {
	case core.ConversationsLoaded:
		return r.ingestConversations(e)
	case core.MessagesLoaded:
		return r.ingestMessages(e)
	case core.NewMessage:
		return r.ingestNewMessage(e)
	case core.MessageRead:
		return r.db.MarkReadUpTo(e.PeerID, e.MessageID)
	case core.MessageEditedRemote:
		return r.db.MarkEdited(e.PeerID, e.MessageID, "")
	case core.MessageDetailsFetched:
		if e.Text == "" {
			return nil
		}
		return r.db.UpdateMessageBody(e.MessageID, e.Text, e.IsEdited)
	case core.MessageDeleted:
		return r.db.DeleteMessageByID(e.MessageID)
	case core.MessageDeletedRemote:
		return r.db.DeleteMessage(e.PeerID, e.MessageID)
	default:
		return nil
	}
}

func (r *Recorder) ingestConversations(e core.ConversationsLoaded) error {
	for _, u := range e.Profiles {
		if err := r.db.UpsertUser(&store.User{
			ID:         u.ID,
			FirstName:  u.FirstName,
			LastName:   u.LastName,
			ScreenName: u.ScreenName,
		}); err != nil {
			return fmt.Errorf("upsert user %d: %w", u.ID, err)
		}
	}
	for _, c := range e.Chats {
		if err := r.db.UpsertChat(&store.Chat{
			PeerID:             c.PeerID,
			Title:              c.Title,
			UnreadCount:        c.UnreadCount,
			LastMessageAt:      c.LastMessageTime,
			LastMessagePreview: truncate(c.LastMessage, previewLimit),
		}); err != nil {
			return fmt.Errorf("upsert chat %d: %w", c.PeerID, err)
		}
	}
	return nil
}

func (r *Recorder) ingestMessages(e core.MessagesLoaded) error {
	for _, u := range e.Profiles {
		if err := r.db.UpsertUser(&store.User{
			ID:         u.ID,
			FirstName:  u.FirstName,
			LastName:   u.LastName,
			ScreenName: u.ScreenName,
		}); err != nil {
			return fmt.Errorf("upsert user %d: %w", u.ID, err)
		}
	}
	batch := make([]store.Message, len(e.Messages))
	for i, m := range e.Messages {
		batch[i] = toStoreMessage(e.PeerID, m)
	}
	if err := r.db.UpsertMessages(batch); err != nil {
		return fmt.Errorf("upsert message batch: %w", err)
	}
	r.logger.Debug("history window ingested",
		zap.Int64("peer_id", e.PeerID), zap.Int("messages", len(batch)))
	return nil
}

func (r *Recorder) ingestNewMessage(e core.NewMessage) error {
	if err := r.db.UpsertMessage(&store.Message{
		PeerID:     e.PeerID,
		MessageID:  e.MessageID,
		FromID:     e.FromID,
		Body:       e.Text,
		IsOutgoing: e.IsOutgoing,
		IsRead:     !e.IsOutgoing,
		Timestamp:  e.Timestamp,
	}); err != nil {
		return fmt.Errorf("upsert message %d: %w", e.MessageID, err)
	}
	return r.db.TouchChatPreview(e.PeerID, truncate(e.Text, previewLimit), e.Timestamp, !e.IsOutgoing)
}

func toStoreMessage(peerID int64, m domain.ChatMessage) store.Message {
	return store.Message{
		PeerID:     peerID,
		MessageID:  m.ID,
		CMID:       m.CMID,
		FromID:     m.FromID,
		FromName:   m.FromName,
		Body:       m.Text,
		IsOutgoing: m.IsOutgoing,
		IsRead:     m.IsRead,
		IsEdited:   m.IsEdited,
		Timestamp:  m.Timestamp,
	}
}

// truncate cuts s to at most n bytes without splitting a rune, so
// previews of non-ASCII text stay valid UTF-8.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
