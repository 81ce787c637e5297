package merge

import "github.com/At1ass/VK-TUI/internal/domain"

// Mode is the active load mode of a chat's window. Exactly one mode is
// active per chat at a time.
type Mode int

const (
	// Latest is tail-anchored: the window follows new arrivals.
	Latest Mode = iota
	// Around is anchored at a specific message, extendable both ways.
	Around
	// Replace marks a full reset in progress.
	Replace
)

// Window is the pagination cursor for one chat.
type Window struct {
	PeerID int64
	// AnchorID is the highest id seen, used for older-direction
	// bookkeeping.
	AnchorID     int64
	Offset       int
	HasMoreOlder bool
	HasMoreNewer bool
	Mode         Mode
}

// NewWindow returns a fresh cursor for a chat about to be loaded.
func NewWindow(peerID int64) *Window {
	return &Window{PeerID: peerID, HasMoreOlder: true, Mode: Replace}
}

// ApplyReplace resets the window around a freshly loaded page.
// serverMore is the server's has-more claim for the older direction.
func (w *Window) ApplyReplace(msgs []domain.ChatMessage, serverMore bool, mode Mode) {
	w.Mode = mode
	w.Offset = len(msgs)
	w.AnchorID = maxID(msgs)
	w.HasMoreOlder = serverMore && len(msgs) > 0
	w.HasMoreNewer = mode == Around
}

// ApplyOlder folds the result of an older-direction merge into the
// cursor. An empty merge forces HasMoreOlder false regardless of the
// server's claim, so scroll-triggered loads terminate.
func (w *Window) ApplyOlder(addedCount int, serverMore bool) {
	w.Offset += addedCount
	w.HasMoreOlder = addedCount > 0 && serverMore
}

// ApplyNewer is the symmetric bookkeeping for Around-mode windows
// extending toward the present.
func (w *Window) ApplyNewer(addedCount int, serverMore bool, msgs []domain.ChatMessage) {
	if id := maxID(msgs); id > w.AnchorID {
		w.AnchorID = id
	}
	w.HasMoreNewer = addedCount > 0 && serverMore
}

func maxID(msgs []domain.ChatMessage) int64 {
	var max int64
	for _, m := range msgs {
		if m.ID > max {
			max = m.ID
		}
	}
	return max
}
