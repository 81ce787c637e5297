// Package merge implements the pagination-window merge algorithm: it
// reconciles newly fetched history pages with the existing in-memory
// list without duplication and recomputes the window boundaries.
package merge

import "github.com/At1ass/VK-TUI/internal/domain"

// Direction says which end of the window an incoming page extends.
type Direction int

const (
	Older Direction = iota
	Newer
)

// Merge combines an incoming page into an existing id-ascending list.
// Entries whose id is already present are dropped; the survivors are
// prepended (Older) or appended (Newer). Returns the merged list and
// the number of entries actually added.
//
// Both inputs are expected to be sorted ascending by id; the result
// preserves that invariant.
func Merge(existing, incoming []domain.ChatMessage, dir Direction) ([]domain.ChatMessage, int) {
	if len(incoming) == 0 {
		return existing, 0
	}

	seen := make(map[int64]struct{}, len(existing))
	for _, m := range existing {
		seen[m.ID] = struct{}{}
	}

	fresh := make([]domain.ChatMessage, 0, len(incoming))
	for _, m := range incoming {
		if _, dup := seen[m.ID]; dup {
			continue
		}
		seen[m.ID] = struct{}{}
		fresh = append(fresh, m)
	}
	if len(fresh) == 0 {
		return existing, 0
	}

	merged := make([]domain.ChatMessage, 0, len(existing)+len(fresh))
	if dir == Older {
		merged = append(merged, fresh...)
		merged = append(merged, existing...)
	} else {
		merged = append(merged, existing...)
		merged = append(merged, fresh...)
	}
	return merged, len(fresh)
}
