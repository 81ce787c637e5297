// Package lock enforces the single-writer rule for a session: one
// vktui process per session directory, since two long-poll loops
// advancing the same cursor would corrupt the mirror.
package lock

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"
)

const lockFileName = "LOCK"

// LockHeldError reports which process already owns the session.
type LockHeldError struct {
	PID  int
	Host string
	Path string
}

func (e *LockHeldError) Error() string {
	if e.Host != "" {
		return fmt.Sprintf("session in use by PID %d on %s (%s)", e.PID, e.Host, e.Path)
	}
	return fmt.Sprintf("session in use by PID %d (%s)", e.PID, e.Path)
}

// Lock is a held session lock. The flock is tied to the open file
// descriptor and drops automatically if the process dies.
type Lock struct {
	file *os.File
	path string
}

// Acquire takes the exclusive session lock, creating the session
// directory if needed. A held lock surfaces as LockHeldError carrying
// the owner read from the lock file.
func Acquire(sessionDir string) (*Lock, error) {
	path := filepath.Join(sessionDir, lockFileName)

	if err := os.MkdirAll(sessionDir, 0700); err != nil {
		return nil, fmt.Errorf("create session dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return nil, fmt.Errorf("open lock file: %w", err)
	}

	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		held := readOwner(path)
		held.Path = path
		_ = f.Close()
		return nil, held
	}

	if err := f.Truncate(0); err != nil {
		_ = f.Close()
		return nil, err
	}
	if _, err := f.Seek(0, 0); err != nil {
		_ = f.Close()
		return nil, err
	}
	host, _ := os.Hostname()
	owner := fmt.Sprintf("pid=%d\nhost=%s\nstarted=%s\n",
		os.Getpid(), host, time.Now().UTC().Format(time.RFC3339))
	if _, err := f.WriteString(owner); err != nil {
		_ = f.Close()
		return nil, err
	}

	return &Lock{file: f, path: path}, nil
}

// Release drops the lock and removes the lock file. Safe to call on a
// nil receiver and idempotent, so deferred cleanup paths can stack.
func (l *Lock) Release() error {
	if l == nil || l.file == nil {
		return nil
	}
	// Remove before close so a racing Acquire never reads our stale
	// owner info.
	_ = os.Remove(l.path)
	err := l.file.Close()
	l.file = nil
	return err
}

// readOwner parses the held lock file for diagnostics. Missing or
// garbled content yields zero values, never an error: the lock being
// held is the fact that matters.
func readOwner(path string) *LockHeldError {
	held := &LockHeldError{}
	data, err := os.ReadFile(path)
	if err != nil {
		return held
	}
	for _, line := range strings.Split(string(data), "\n") {
		if v, ok := strings.CutPrefix(line, "pid="); ok {
			held.PID, _ = strconv.Atoi(v)
		}
		if v, ok := strings.CutPrefix(line, "host="); ok {
			held.Host = v
		}
	}
	return held
}
