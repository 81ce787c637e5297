package model

import (
	"sync"
	"time"
)

// DefaultFlashTTL is how long a surfaced error or notice stays on the
// status bar when the caller does not pick a duration.
const DefaultFlashTTL = 5 * time.Second

// Flash is the one-line transient notice shown on the status bar. A
// new Set displaces the previous notice; expiry is checked on read so
// no timer goroutine is needed.
type Flash struct {
	mu       sync.RWMutex
	text     string
	deadline time.Time
}

// Set replaces the notice, visible for d (DefaultFlashTTL when d <= 0).
func (f *Flash) Set(text string, d time.Duration) {
	if d <= 0 {
		d = DefaultFlashTTL
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.text = text
	f.deadline = time.Now().Add(d)
}

// Get returns the active notice, empty once expired.
func (f *Flash) Get() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if time.Now().After(f.deadline) {
		return ""
	}
	return f.text
}
