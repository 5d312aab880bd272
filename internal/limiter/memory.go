package limiter

import (
	"context"
	"sync"
	"time"
)

// sweepAt is the table size above which idle entries are dropped.
const sweepAt = 4096

type attempts struct {
	fails        int
	updatedAt    time.Time
	blockedUntil time.Time
}

// Memory is an in-process limiter: failures inside window are counted per
// (username, ip) and reaching maxFails blocks that pair for blockFor.
type Memory struct {
	window   time.Duration
	maxFails int
	blockFor time.Duration
	now      func() time.Time

	mu      sync.Mutex
	entries map[string]*attempts
}

var _ Limiter = (*Memory)(nil)

// NewMemory constructs an in-memory limiter.
func NewMemory(window time.Duration, maxFails int, blockFor time.Duration) *Memory {
	if maxFails <= 0 {
		maxFails = 1
	}
	return &Memory{
		window:   window,
		maxFails: maxFails,
		blockFor: blockFor,
		now:      time.Now,
		entries:  make(map[string]*attempts),
	}
}

func key(username string, ipHash []byte) string {
	return username + "\x00" + string(ipHash)
}

// Allow reports whether login is currently allowed and a retry-after duration.
func (l *Memory) Allow(_ context.Context, username string, ipHash []byte) (bool, time.Duration, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	a, ok := l.entries[key(username, ipHash)]
	if !ok {
		return true, 0, nil
	}
	if now := l.now(); a.blockedUntil.After(now) {
		return false, a.blockedUntil.Sub(now), nil
	}
	return true, 0, nil
}

// Success resets counters for (username, ip).
func (l *Memory) Success(_ context.Context, username string, ipHash []byte) error {
	l.mu.Lock()
	delete(l.entries, key(username, ipHash))
	l.mu.Unlock()
	return nil
}

// Failure records a failed attempt; may set a block until a future time.
func (l *Memory) Failure(_ context.Context, username string, ipHash []byte) (bool, time.Duration, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if len(l.entries) >= sweepAt {
		l.sweep(now)
	}

	k := key(username, ipHash)
	a, ok := l.entries[k]
	if !ok {
		a = &attempts{}
		l.entries[k] = a
	}
	if now.Sub(a.updatedAt) > l.window {
		a.fails = 0
	}
	a.fails++
	a.updatedAt = now

	if a.fails >= l.maxFails {
		a.blockedUntil = now.Add(l.blockFor)
		return true, l.blockFor, nil
	}
	return false, 0, nil
}

// sweep drops entries that are neither blocked nor inside the window.
func (l *Memory) sweep(now time.Time) {
	for k, a := range l.entries {
		if !a.blockedUntil.After(now) && now.Sub(a.updatedAt) > l.window {
			delete(l.entries, k)
		}
	}
}
