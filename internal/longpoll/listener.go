// Package longpoll runs the push-feed listener: a background loop that
// keeps a long-poll session alive, converts raw updates into typed
// events, and recovers from cursor gaps.
package longpoll

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/At1ass/VK-TUI/internal/core"
	"github.com/At1ass/VK-TUI/internal/vkapi"
)

const (
	defaultWait    = 25
	initialBackoff = time.Second
	maxBackoff     = 30 * time.Second
)

// Server-side failed codes in a poll response.
const (
	failedStaleTS    = 1
	failedKeyExpired = 2
	failedDataLost   = 3
	failedBadVersion = 4
)

// Poller is the remote surface the listener drives. *vkapi.Client
// satisfies it.
type Poller interface {
	AcquirePollServer(ctx context.Context) (*vkapi.LongPollServer, error)
	Poll(ctx context.Context, srv *vkapi.LongPollServer, wait int) (*vkapi.LongPollResponse, error)
	HistorySince(ctx context.Context, ts string, pts int64) (*vkapi.LongPollHistory, error)
}

// Publisher is where decoded events go.
type Publisher interface {
	Publish(core.Event)
}

// CursorStore persists the resumption cursor across restarts. May be
// nil, in which case every start is a cold start.
type CursorStore interface {
	SaveCursor(ts string, pts int64) error
	LoadCursor() (ts string, pts int64, err error)
}

// Listener is the push-feed loop. Create with New, drive with Run.
type Listener struct {
	poller  Poller
	pub     Publisher
	cursors CursorStore
	log     *zap.Logger
	machine *Machine
	wait    int
}

// Option configures a Listener.
type Option func(*Listener)

// WithWait overrides the server-side hold duration in seconds.
func WithWait(seconds int) Option {
	return func(l *Listener) {
		if seconds > 0 {
			l.wait = seconds
		}
	}
}

// WithCursorStore enables cursor persistence.
func WithCursorStore(cs CursorStore) Option {
	return func(l *Listener) { l.cursors = cs }
}

func New(poller Poller, pub Publisher, log *zap.Logger, opts ...Option) *Listener {
	l := &Listener{
		poller:  poller,
		pub:     pub,
		log:     log.Named("longpoll"),
		machine: NewMachine(log),
		wait:    defaultWait,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Phase exposes the current connection phase, mainly for status bars.
func (l *Listener) Phase() Phase {
	return l.machine.Phase()
}

// Run polls until ctx is canceled. Transport failures back off
// exponentially (1s doubling, 30s cap, reset on success); server-side
// failed codes drive gap recovery. Returns ctx.Err() only.
func (l *Listener) Run(ctx context.Context) error {
	backoff := initialBackoff
	var srv *vkapi.LongPollServer
	coldStart := true

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		switch l.machine.Phase() {
		case PhaseDisconnected:
			s, err := l.poller.AcquirePollServer(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				l.log.Warn("acquire long-poll server", zap.Error(err))
				if !sleep(ctx, backoff) {
					return ctx.Err()
				}
				backoff = nextBackoff(backoff)
				continue
			}
			srv = s
			backoff = initialBackoff
			l.transition(PhaseServerAcquired)

			if coldStart {
				coldStart = false
				l.replayOffline(ctx, srv)
			}

			l.transition(PhasePolling)
			l.pub.Publish(core.ConnectionStatus{Connected: true})
			l.saveCursor(srv)

		case PhasePolling:
			resp, err := l.poller.Poll(ctx, srv, l.wait)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				l.log.Warn("poll", zap.Error(err))
				l.transition(PhaseDisconnected)
				l.pub.Publish(core.ConnectionStatus{Connected: false})
				if !sleep(ctx, backoff) {
					return ctx.Err()
				}
				backoff = nextBackoff(backoff)
				continue
			}
			backoff = initialBackoff

			switch resp.Failed {
			case 0:
				l.publishUpdates(resp.Updates)
				srv.TS = resp.TS
				if resp.PTS > 0 {
					srv.PTS = resp.PTS
				}
				l.saveCursor(srv)

			case failedStaleTS:
				// Events fell out of the replay window but the session
				// is alive: bounded replay, then resume with new ts.
				l.transition(PhaseGapRecovery)
				l.recoverBounded(ctx, srv)
				srv.TS = resp.TS
				l.transition(PhasePolling)
				l.saveCursor(srv)

			case failedKeyExpired:
				// Session key rotated. Re-acquire but keep the old ts so
				// no events are skipped.
				l.transition(PhaseGapRecovery)
				oldTS := srv.TS
				s, err := l.poller.AcquirePollServer(ctx)
				if err != nil {
					if ctx.Err() != nil {
						return ctx.Err()
					}
					l.log.Warn("re-acquire after key expiry", zap.Error(err))
					l.transition(PhaseDisconnected)
					continue
				}
				srv = s
				srv.TS = oldTS
				l.transition(PhasePolling)

			case failedDataLost:
				// Unbounded gap: history is gone server-side. No replay;
				// tell the consumer to reload instead.
				l.transition(PhaseGapRecovery)
				s, err := l.poller.AcquirePollServer(ctx)
				if err != nil {
					if ctx.Err() != nil {
						return ctx.Err()
					}
					l.log.Warn("re-acquire after data loss", zap.Error(err))
					l.transition(PhaseDisconnected)
					continue
				}
				srv = s
				l.pub.Publish(core.ResyncRequired{})
				l.transition(PhasePolling)
				l.saveCursor(srv)

			case failedBadVersion:
				l.log.Error("server rejected long-poll protocol version")
				l.pub.Publish(core.ErrorEvent{Message: "push feed unavailable: protocol version rejected"})
				l.transition(PhaseDisconnected)
				if !sleep(ctx, maxBackoff) {
					return ctx.Err()
				}

			default:
				l.log.Warn("unknown failed code", zap.Int("failed", resp.Failed))
				l.transition(PhaseDisconnected)
			}
		}
	}
}

func (l *Listener) publishUpdates(updates []json.RawMessage) {
	for _, raw := range updates {
		if evt, ok := ParseUpdate(raw); ok {
			l.pub.Publish(evt)
		}
	}
}

// recoverBounded replays missed messages via getLongPollHistory. On
// failure it degrades to a resync notice rather than dropping the gap
// silently.
func (l *Listener) recoverBounded(ctx context.Context, srv *vkapi.LongPollServer) {
	hist, err := l.poller.HistorySince(ctx, srv.TS.String(), srv.PTS)
	if err != nil {
		l.log.Warn("bounded gap replay failed", zap.Error(err))
		l.pub.Publish(core.ResyncRequired{})
		return
	}
	l.publishHistory(hist)
	if hist.NewPTS > 0 {
		srv.PTS = hist.NewPTS
	}
}

// replayOffline replays messages that arrived while the client was not
// running, using the cursor persisted by the previous session.
func (l *Listener) replayOffline(ctx context.Context, srv *vkapi.LongPollServer) {
	if l.cursors == nil {
		return
	}
	ts, pts, err := l.cursors.LoadCursor()
	if err != nil || ts == "" {
		return
	}
	hist, err := l.poller.HistorySince(ctx, ts, pts)
	if err != nil {
		l.log.Warn("offline replay failed", zap.Error(err))
		l.pub.Publish(core.ResyncRequired{})
		return
	}
	l.publishHistory(hist)
	if hist.NewPTS > 0 {
		srv.PTS = hist.NewPTS
	}
}

func (l *Listener) publishHistory(hist *vkapi.LongPollHistory) {
	for _, msg := range hist.Messages.Items {
		l.pub.Publish(core.NewMessage{
			MessageID:  msg.ID,
			PeerID:     msg.PeerID,
			FromID:     msg.FromID,
			Timestamp:  msg.Date,
			Text:       msg.Text,
			IsOutgoing: msg.IsOutgoing(),
		})
	}
}

func (l *Listener) transition(next Phase) {
	if err := l.machine.Set(next); err != nil {
		l.log.Error("phase transition rejected", zap.Error(err))
	}
}

func (l *Listener) saveCursor(srv *vkapi.LongPollServer) {
	if l.cursors == nil {
		return
	}
	if err := l.cursors.SaveCursor(srv.TS.String(), srv.PTS); err != nil {
		l.log.Warn("persist cursor", zap.Error(err))
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func nextBackoff(cur time.Duration) time.Duration {
	next := cur * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}
