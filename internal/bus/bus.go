// Package bus is the in-process event router: every event published by
// the executor or the long-poll listener fans out, in emission order,
// to all currently attached subscribers. Late subscribers never see
// past events; there is no replay buffer.
package bus

import (
	"strings"
	"sync"

	"github.com/At1ass/VK-TUI/internal/core"
)

// Bus routes core events to subscribers by Kind prefix.
type Bus struct {
	mu   sync.Mutex
	subs map[int]*subscription
	next int
}

// subscription buffers events without bound so a slow consumer delays
// only itself: publishers never block and no attached subscriber ever
// drops an event.
type subscription struct {
	namespace string

	mu      sync.Mutex
	cond    *sync.Cond
	pending []core.Event
	closed  bool
	quit    chan struct{}
	out     chan core.Event
}

// New creates an empty bus.
func New() *Bus {
	return &Bus{subs: make(map[int]*subscription)}
}

// Publish delivers evt to every subscriber whose namespace is a prefix
// of evt.Kind(). Delivery order per subscriber matches publish order.
func (b *Bus) Publish(evt core.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, sub := range b.subs {
		if strings.HasPrefix(evt.Kind(), sub.namespace) {
			sub.enqueue(evt)
		}
	}
}

// Subscribe attaches a consumer for the given Kind prefix ("" matches
// everything). Returns the receive channel and a detach function; the
// channel is closed once detached.
func (b *Bus) Subscribe(namespace string) (<-chan core.Event, func()) {
	sub := &subscription{
		namespace: namespace,
		quit:      make(chan struct{}),
		out:       make(chan core.Event),
	}
	sub.cond = sync.NewCond(&sub.mu)
	go sub.pump()

	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = sub
	b.mu.Unlock()

	return sub.out, func() {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
		sub.close()
	}
}

func (s *subscription) enqueue(evt core.Event) {
	s.mu.Lock()
	if !s.closed {
		s.pending = append(s.pending, evt)
		s.cond.Signal()
	}
	s.mu.Unlock()
}

func (s *subscription) close() {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		s.pending = nil
		close(s.quit)
		s.cond.Signal()
	}
	s.mu.Unlock()
}

// pump drains the pending queue into the out channel, one event at a
// time, preserving order. A delivery in flight when the subscriber
// detaches is abandoned via quit so detach never deadlocks.
func (s *subscription) pump() {
	for {
		s.mu.Lock()
		for len(s.pending) == 0 && !s.closed {
			s.cond.Wait()
		}
		if s.closed {
			s.mu.Unlock()
			close(s.out)
			return
		}
		evt := s.pending[0]
		s.pending = s.pending[1:]
		s.mu.Unlock()

		select {
		case s.out <- evt:
		case <-s.quit:
			close(s.out)
			return
		}
	}
}
