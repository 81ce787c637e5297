package longpoll

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/At1ass/VK-TUI/internal/core"
	"github.com/At1ass/VK-TUI/internal/vkapi"
)

type capturePublisher struct {
	ch chan core.Event
}

func newCapturePublisher() *capturePublisher {
	return &capturePublisher{ch: make(chan core.Event, 64)}
}

func (p *capturePublisher) Publish(evt core.Event) { p.ch <- evt }

func (p *capturePublisher) next(t *testing.T) core.Event {
	t.Helper()
	select {
	case evt := <-p.ch:
		return evt
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
		return nil
	}
}

type histCall struct {
	ts  string
	pts int64
}

// fakePoller replays a scripted sequence of poll responses, then blocks
// until the context is canceled. done is closed when the script runs
// out.
type fakePoller struct {
	mu        sync.Mutex
	acquireTS []string
	acquires  int
	polls     []*vkapi.LongPollResponse
	polledTS  []string
	history   *vkapi.LongPollHistory
	histErr   error
	histCalls []histCall
	done      chan struct{}
	doneOnce  sync.Once
}

func newFakePoller(polls ...*vkapi.LongPollResponse) *fakePoller {
	return &fakePoller{
		acquireTS: []string{"100"},
		polls:     polls,
		done:      make(chan struct{}),
	}
}

func (f *fakePoller) AcquirePollServer(ctx context.Context) (*vkapi.LongPollServer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ts := f.acquireTS[0]
	if f.acquires < len(f.acquireTS) {
		ts = f.acquireTS[f.acquires]
	}
	f.acquires++
	return &vkapi.LongPollServer{Key: "key", Server: "lp.test", TS: json.Number(ts), PTS: 7}, nil
}

func (f *fakePoller) Poll(ctx context.Context, srv *vkapi.LongPollServer, wait int) (*vkapi.LongPollResponse, error) {
	f.mu.Lock()
	f.polledTS = append(f.polledTS, srv.TS.String())
	if len(f.polls) == 0 {
		f.mu.Unlock()
		f.doneOnce.Do(func() { close(f.done) })
		<-ctx.Done()
		return nil, ctx.Err()
	}
	resp := f.polls[0]
	f.polls = f.polls[1:]
	f.mu.Unlock()
	return resp, nil
}

func (f *fakePoller) HistorySince(ctx context.Context, ts string, pts int64) (*vkapi.LongPollHistory, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.histCalls = append(f.histCalls, histCall{ts: ts, pts: pts})
	if f.histErr != nil {
		return nil, f.histErr
	}
	if f.history != nil {
		return f.history, nil
	}
	return &vkapi.LongPollHistory{}, nil
}

type memCursors struct {
	mu  sync.Mutex
	ts  string
	pts int64
}

func (m *memCursors) SaveCursor(ts string, pts int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ts, m.pts = ts, pts
	return nil
}

func (m *memCursors) LoadCursor() (string, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ts, m.pts, nil
}

func runListener(t *testing.T, l *Listener, poller *fakePoller) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- l.Run(ctx) }()

	select {
	case <-poller.done:
	case <-time.After(2 * time.Second):
		t.Fatal("scripted polls never exhausted")
	}
	cancel()
	select {
	case <-errc:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop on cancel")
	}
}

func TestListenerPublishesUpdatesInOrder(t *testing.T) {
	poller := newFakePoller(&vkapi.LongPollResponse{
		TS: "101",
		Updates: []json.RawMessage{
			json.RawMessage(`[4, 1001, 1, 42, 1700000000, "hi"]`),
			json.RawMessage(`[7, 42, 1001]`),
			json.RawMessage(`[999, 0]`),
		},
	})
	pub := newCapturePublisher()
	cursors := &memCursors{}
	l := New(poller, pub, zap.NewNop(), WithCursorStore(cursors))

	runListener(t, l, poller)

	if _, ok := pub.next(t).(core.ConnectionStatus); !ok {
		t.Fatal("first event should be ConnectionStatus")
	}
	if msg, ok := pub.next(t).(core.NewMessage); !ok || msg.MessageID != 1001 {
		t.Fatalf("want NewMessage 1001, got %#v", msg)
	}
	if read, ok := pub.next(t).(core.MessageRead); !ok || read.MessageID != 1001 {
		t.Fatalf("want MessageRead 1001, got %#v", read)
	}

	ts, _, _ := cursors.LoadCursor()
	if ts != "101" {
		t.Errorf("persisted ts = %q, want 101", ts)
	}
}

func TestListenerBoundedGapReplaysHistory(t *testing.T) {
	poller := newFakePoller(
		&vkapi.LongPollResponse{TS: "200", Failed: failedStaleTS},
		&vkapi.LongPollResponse{TS: "201"},
	)
	poller.history = &vkapi.LongPollHistory{NewPTS: 9}
	poller.history.Messages.Items = []vkapi.Message{
		{ID: 1005, PeerID: 42, FromID: 42, Date: 1700000100, Text: "missed"},
	}
	pub := newCapturePublisher()
	l := New(poller, pub, zap.NewNop())

	runListener(t, l, poller)

	pub.next(t) // ConnectionStatus
	msg, ok := pub.next(t).(core.NewMessage)
	if !ok || msg.MessageID != 1005 {
		t.Fatalf("want replayed NewMessage 1005, got %#v", msg)
	}

	poller.mu.Lock()
	defer poller.mu.Unlock()
	if len(poller.histCalls) != 1 {
		t.Fatalf("HistorySince calls = %d, want 1", len(poller.histCalls))
	}
	// Replay must use the pre-gap cursor, not the response's new ts.
	if poller.histCalls[0].ts != "100" || poller.histCalls[0].pts != 7 {
		t.Errorf("HistorySince(%q, %d), want (100, 7)", poller.histCalls[0].ts, poller.histCalls[0].pts)
	}
	// After recovery, polling resumes from the new ts.
	last := poller.polledTS[len(poller.polledTS)-1]
	if last != "201" {
		t.Errorf("final poll ts = %q, want 201", last)
	}
}

func TestListenerUnboundedGapEmitsSingleResync(t *testing.T) {
	poller := newFakePoller(
		&vkapi.LongPollResponse{Failed: failedDataLost},
		&vkapi.LongPollResponse{TS: "301"},
	)
	poller.acquireTS = []string{"100", "300"}
	pub := newCapturePublisher()
	l := New(poller, pub, zap.NewNop())

	runListener(t, l, poller)

	resyncs := 0
	pub.next(t) // ConnectionStatus
	for {
		select {
		case evt := <-pub.ch:
			if _, ok := evt.(core.ResyncRequired); ok {
				resyncs++
			}
		default:
			if resyncs != 1 {
				t.Errorf("ResyncRequired count = %d, want 1", resyncs)
			}
			poller.mu.Lock()
			defer poller.mu.Unlock()
			if len(poller.histCalls) != 0 {
				t.Errorf("HistorySince calls = %d, want 0 for unbounded gap", len(poller.histCalls))
			}
			return
		}
	}
}

func TestListenerKeyExpiryKeepsCursor(t *testing.T) {
	poller := newFakePoller(
		&vkapi.LongPollResponse{Failed: failedKeyExpired},
		&vkapi.LongPollResponse{TS: "102"},
	)
	poller.acquireTS = []string{"100", "999"}
	pub := newCapturePublisher()
	l := New(poller, pub, zap.NewNop())

	runListener(t, l, poller)

	poller.mu.Lock()
	defer poller.mu.Unlock()
	if poller.acquires != 2 {
		t.Fatalf("acquires = %d, want 2", poller.acquires)
	}
	// The poll after re-acquisition must carry the old ts, not the fresh
	// server's.
	if got := poller.polledTS[1]; got != "100" {
		t.Errorf("post-expiry poll ts = %q, want 100", got)
	}
}

func TestListenerOfflineReplayFromSavedCursor(t *testing.T) {
	poller := newFakePoller(&vkapi.LongPollResponse{TS: "101"})
	poller.history = &vkapi.LongPollHistory{NewPTS: 12}
	poller.history.Messages.Items = []vkapi.Message{
		{ID: 2001, PeerID: 42, Text: "while you were away"},
	}
	cursors := &memCursors{ts: "90", pts: 5}
	pub := newCapturePublisher()
	l := New(poller, pub, zap.NewNop(), WithCursorStore(cursors))

	runListener(t, l, poller)

	msg, ok := pub.next(t).(core.NewMessage)
	if !ok || msg.MessageID != 2001 {
		t.Fatalf("want offline-replayed NewMessage, got %#v", msg)
	}

	poller.mu.Lock()
	defer poller.mu.Unlock()
	if len(poller.histCalls) != 1 || poller.histCalls[0].ts != "90" || poller.histCalls[0].pts != 5 {
		t.Errorf("histCalls = %+v, want one call with saved cursor (90, 5)", poller.histCalls)
	}
}
