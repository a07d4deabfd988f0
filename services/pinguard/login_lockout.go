package pinguard

import (
	// Go Internal Packages
	"sync"
	"time"
)

// LoginLimiter is the password-login counterpart of the PIN lockout.
// It is a deliberately different mechanism: a sliding window of recent
// failures per username, held in memory, that clears itself after the
// window passes. The two policies are not unified.
type LoginLimiter struct {
	mu          sync.Mutex
	maxAttempts int
	window      time.Duration
	failures    map[string][]time.Time
	now         func() time.Time
}

func NewLoginLimiter(maxAttempts int, window time.Duration) *LoginLimiter {
	return &LoginLimiter{
		maxAttempts: maxAttempts,
		window:      window,
		failures:    make(map[string][]time.Time),
		now:         time.Now,
	}
}

// Blocked reports whether username has reached the failure limit
// within the window.
func (l *LoginLimiter) Blocked(username string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.recent(username)) >= l.maxAttempts
}

// RecordFailure notes a failed password attempt and reports whether
// the account is now blocked.
func (l *LoginLimiter) RecordFailure(username string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	recent := append(l.recent(username), l.now())
	l.failures[username] = recent
	return len(recent) >= l.maxAttempts
}

// RecordSuccess clears the failure history for username.
func (l *LoginLimiter) RecordSuccess(username string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.failures, username)
}

// recent drops entries older than the window. Caller holds the lock.
func (l *LoginLimiter) recent(username string) []time.Time {
	cutoff := l.now().Add(-l.window)
	var kept []time.Time
	for _, t := range l.failures[username] {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	if kept == nil {
		delete(l.failures, username)
	} else {
		l.failures[username] = kept
	}
	return kept
}
