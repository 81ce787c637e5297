package mirror

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/At1ass/VK-TUI/internal/bus"
	"github.com/At1ass/VK-TUI/internal/core"
	"github.com/At1ass/VK-TUI/internal/domain"
	"github.com/At1ass/VK-TUI/internal/store"
)

func testRecorder(t *testing.T) (*Recorder, *store.DB, *bus.Bus) {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Migrate(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })

	b := bus.New()
	r := NewRecorder(db, b, zap.NewNop())
	r.Start(context.Background())
	t.Cleanup(r.Stop)
	return r, db, b
}

// waitFor polls until cond returns true or the deadline passes. The
// recorder ingests asynchronously off the bus.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition never became true")
}

func TestRecorderMirrorsConversations(t *testing.T) {
	_, db, b := testRecorder(t)

	b.Publish(core.ConversationsLoaded{
		Chats: []domain.Chat{
			{PeerID: 42, Title: "Ivan Petrov", UnreadCount: 2, LastMessage: "hey", LastMessageTime: 100},
		},
		Profiles: []domain.User{{ID: 42, FirstName: "Ivan", LastName: "Petrov"}},
	})

	waitFor(t, func() bool {
		c, err := db.GetChat(42)
		return err == nil && c != nil && c.Title == "Ivan Petrov"
	})

	u, err := db.GetUser(42)
	if err != nil || u == nil || u.FirstName != "Ivan" {
		t.Errorf("user = %+v, err = %v", u, err)
	}
}

func TestRecorderMirrorsHistoryWindowIdempotently(t *testing.T) {
	_, db, b := testRecorder(t)

	loaded := core.MessagesLoaded{
		PeerID: 42,
		Messages: []domain.ChatMessage{
			{ID: 101, Text: "one", Timestamp: 1},
			{ID: 102, Text: "two", Timestamp: 2},
		},
	}
	b.Publish(loaded)
	b.Publish(loaded) // replay must not duplicate

	waitFor(t, func() bool {
		msgs, err := db.ListMessages(42, 0, 10)
		return err == nil && len(msgs) == 2
	})

	// Let any duplicate ingestion land before the final check.
	time.Sleep(50 * time.Millisecond)
	msgs, err := db.ListMessages(42, 0, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 2 {
		t.Errorf("messages = %d, want 2 after replay", len(msgs))
	}
}

func TestRecorderAppliesPushDeltas(t *testing.T) {
	_, db, b := testRecorder(t)

	b.Publish(core.NewMessage{MessageID: 200, PeerID: 42, FromID: 42, Text: "ping", Timestamp: 10})
	waitFor(t, func() bool {
		msgs, _ := db.ListMessages(42, 0, 10)
		return len(msgs) == 1
	})

	chat, err := db.GetChat(42)
	if err != nil || chat == nil {
		t.Fatalf("chat = %+v, err = %v", chat, err)
	}
	if chat.UnreadCount != 1 || chat.LastMessagePreview != "ping" {
		t.Errorf("chat = %+v", chat)
	}

	b.Publish(core.MessageDeletedRemote{PeerID: 42, MessageID: 200})
	waitFor(t, func() bool {
		msgs, _ := db.ListMessages(42, 0, 10)
		return len(msgs) == 0
	})
}

func TestRecorderAppliesReadWatermark(t *testing.T) {
	_, db, b := testRecorder(t)

	b.Publish(core.MessagesLoaded{
		PeerID: 42,
		Messages: []domain.ChatMessage{
			{ID: 101, IsOutgoing: true},
			{ID: 102, IsOutgoing: true},
			{ID: 103, IsOutgoing: true},
		},
	})
	waitFor(t, func() bool {
		msgs, _ := db.ListMessages(42, 0, 10)
		return len(msgs) == 3
	})

	b.Publish(core.MessageRead{PeerID: 42, MessageID: 102})
	waitFor(t, func() bool {
		msgs, _ := db.ListMessages(42, 0, 10)
		read := 0
		for _, m := range msgs {
			if m.IsRead {
				read++
			}
		}
		return read == 2
	})

	msgs, _ := db.ListMessages(42, 0, 10)
	for _, m := range msgs {
		want := m.MessageID <= 102
		if m.IsRead != want {
			t.Errorf("id %d: IsRead = %v, want %v", m.MessageID, m.IsRead, want)
		}
	}
}

func TestRecorderPersistsRefreshedBody(t *testing.T) {
	_, db, b := testRecorder(t)

	b.Publish(core.MessagesLoaded{
		PeerID: 42,
		Messages: []domain.ChatMessage{
			{ID: 101, Text: "draft", Timestamp: 1},
		},
	})
	waitFor(t, func() bool {
		msgs, _ := db.ListMessages(42, 0, 10)
		return len(msgs) == 1
	})

	b.Publish(core.MessageDetailsFetched{MessageID: 101, Text: "final", IsEdited: true})
	waitFor(t, func() bool {
		msgs, _ := db.ListMessages(42, 0, 10)
		return len(msgs) == 1 && msgs[0].Body == "final" && msgs[0].IsEdited
	})
}

func TestPreviewTruncationKeepsRuneBoundary(t *testing.T) {
	_, db, b := testRecorder(t)

	// 2 bytes per rune, long enough to force a cut inside the text.
	text := strings.Repeat("привет ", 30)
	b.Publish(core.NewMessage{MessageID: 101, PeerID: 42, FromID: 7, Text: text, Timestamp: 1})

	waitFor(t, func() bool {
		c, err := db.GetChat(42)
		return err == nil && c != nil && c.LastMessagePreview != ""
	})

	c, err := db.GetChat(42)
	if err != nil {
		t.Fatal(err)
	}
	if !utf8.ValidString(c.LastMessagePreview) {
		t.Errorf("preview is not valid UTF-8: %q", c.LastMessagePreview)
	}
	if len(c.LastMessagePreview) > previewLimit {
		t.Errorf("preview is %d bytes, want <= %d", len(c.LastMessagePreview), previewLimit)
	}
	if !strings.HasPrefix(text, c.LastMessagePreview) {
		t.Errorf("preview %q is not a prefix of the message", c.LastMessagePreview)
	}
}
