package store

import (
	"path/filepath"
	"testing"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	db, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Migrate(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestMigrateIdempotent(t *testing.T) {
	db := testDB(t)

	result, err := db.Migrate()
	if err != nil {
		t.Fatal(err)
	}
	if result.Changed {
		t.Error("second Migrate() should report Changed=false")
	}
	if result.Version != 2 {
		t.Errorf("version = %d, want 2 (init + fts)", result.Version)
	}
}

func TestUpsertChatIdempotent(t *testing.T) {
	db := testDB(t)

	c := &Chat{PeerID: 42, Title: "Ivan Petrov", UnreadCount: 2, LastMessageAt: 100, LastMessagePreview: "hey"}
	if err := db.UpsertChat(c); err != nil {
		t.Fatal(err)
	}
	c.UnreadCount = 0
	c.LastMessagePreview = "later"
	if err := db.UpsertChat(c); err != nil {
		t.Fatal(err)
	}

	got, err := db.GetChat(42)
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || got.UnreadCount != 0 || got.LastMessagePreview != "later" {
		t.Errorf("chat = %+v", got)
	}

	chats, err := db.ListChats(10, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(chats) != 1 {
		t.Errorf("chats = %d, want 1 (upsert, not insert)", len(chats))
	}
}

func TestListChatsOrderedByRecency(t *testing.T) {
	db := testDB(t)

	for _, c := range []Chat{
		{PeerID: 1, LastMessageAt: 10},
		{PeerID: 2, LastMessageAt: 30},
		{PeerID: 3, LastMessageAt: 20},
	} {
		c := c
		if err := db.UpsertChat(&c); err != nil {
			t.Fatal(err)
		}
	}

	chats, err := db.ListChats(10, 0)
	if err != nil {
		t.Fatal(err)
	}
	want := []int64{2, 3, 1}
	for i, w := range want {
		if chats[i].PeerID != w {
			t.Fatalf("order = %v, want %v", chats, want)
		}
	}
}

func TestMessagesKeysetPagination(t *testing.T) {
	db := testDB(t)

	var batch []Message
	for id := int64(1); id <= 10; id++ {
		batch = append(batch, Message{PeerID: 42, MessageID: id, Body: "m", Timestamp: id})
	}
	if err := db.UpsertMessages(batch); err != nil {
		t.Fatal(err)
	}

	page, err := db.ListMessages(42, 0, 4)
	if err != nil {
		t.Fatal(err)
	}
	if len(page) != 4 || page[0].MessageID != 10 {
		t.Fatalf("first page = %+v", page)
	}

	oldest := page[len(page)-1].MessageID
	page, err = db.ListMessages(42, oldest, 4)
	if err != nil {
		t.Fatal(err)
	}
	if len(page) != 4 || page[0].MessageID != 6 {
		t.Fatalf("second page = %+v", page)
	}
}

func TestUpsertMessageIdempotent(t *testing.T) {
	db := testDB(t)

	m := &Message{PeerID: 42, MessageID: 7, Body: "first"}
	if err := db.UpsertMessage(m); err != nil {
		t.Fatal(err)
	}
	m.Body = "edited"
	m.IsEdited = true
	if err := db.UpsertMessage(m); err != nil {
		t.Fatal(err)
	}

	msgs, err := db.ListMessages(42, 0, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 1 || msgs[0].Body != "edited" || !msgs[0].IsEdited {
		t.Errorf("msgs = %+v", msgs)
	}
}

func TestMarkReadUpTo(t *testing.T) {
	db := testDB(t)

	for id := int64(100); id <= 103; id++ {
		if err := db.UpsertMessage(&Message{PeerID: 42, MessageID: id, IsOutgoing: true}); err != nil {
			t.Fatal(err)
		}
	}
	if err := db.UpsertMessage(&Message{PeerID: 42, MessageID: 104, IsOutgoing: false}); err != nil {
		t.Fatal(err)
	}

	if err := db.MarkReadUpTo(42, 102); err != nil {
		t.Fatal(err)
	}

	msgs, err := db.ListMessages(42, 0, 10)
	if err != nil {
		t.Fatal(err)
	}
	for _, m := range msgs {
		wantRead := m.IsOutgoing && m.MessageID <= 102
		if m.IsRead != wantRead {
			t.Errorf("id %d: IsRead = %v, want %v", m.MessageID, m.IsRead, wantRead)
		}
	}
}

func TestDeleteMessage(t *testing.T) {
	db := testDB(t)

	if err := db.UpsertMessage(&Message{PeerID: 42, MessageID: 7, Body: "bye"}); err != nil {
		t.Fatal(err)
	}
	if err := db.DeleteMessage(42, 7); err != nil {
		t.Fatal(err)
	}
	msgs, err := db.ListMessages(42, 0, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 0 {
		t.Errorf("msgs = %+v, want empty", msgs)
	}
}

func TestSearchMessagesFTS(t *testing.T) {
	db := testDB(t)

	if err := db.UpsertMessages([]Message{
		{PeerID: 42, MessageID: 1, Body: "deploy finished on staging"},
		{PeerID: 42, MessageID: 2, Body: "lunch at noon?"},
		{PeerID: 7, MessageID: 3, Body: "deploy broke production"},
	}); err != nil {
		t.Fatal(err)
	}

	results, err := db.SearchMessages("deploy", 0, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("results = %d, want 2", len(results))
	}

	results, err = db.SearchMessages("deploy", 42, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].Message.PeerID != 42 {
		t.Errorf("scoped results = %+v", results)
	}
	if results[0].Snippet == "" {
		t.Error("snippet is empty")
	}
}

func TestSearchSeesEditedBody(t *testing.T) {
	db := testDB(t)

	if err := db.UpsertMessage(&Message{PeerID: 42, MessageID: 1, Body: "original"}); err != nil {
		t.Fatal(err)
	}
	if err := db.MarkEdited(42, 1, "rewritten completely"); err != nil {
		t.Fatal(err)
	}

	results, err := db.SearchMessages("rewritten", 0, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 {
		t.Errorf("results = %d, want 1 (FTS trigger on update)", len(results))
	}
	results, err = db.SearchMessages("original", 0, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 0 {
		t.Error("stale body still searchable after edit")
	}
}

func TestCursorRoundTrip(t *testing.T) {
	db := testDB(t)

	ts, pts, err := db.LoadCursor()
	if err != nil {
		t.Fatal(err)
	}
	if ts != "" || pts != 0 {
		t.Errorf("fresh cursor = (%q, %d), want empty", ts, pts)
	}

	if err := db.SaveCursor("1700000001", 42); err != nil {
		t.Fatal(err)
	}
	if err := db.SaveCursor("1700000002", 43); err != nil {
		t.Fatal(err)
	}

	ts, pts, err = db.LoadCursor()
	if err != nil {
		t.Fatal(err)
	}
	if ts != "1700000002" || pts != 43 {
		t.Errorf("cursor = (%q, %d), want latest", ts, pts)
	}
}
