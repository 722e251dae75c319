package ledger

import "sync"

// UserLocks serializes wallet read-modify-write sequences per user. The
// durable store has no row locking, so concurrent requests for the same
// user could otherwise lose a wallet update.
type UserLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewUserLocks creates an empty lock table.
func NewUserLocks() *UserLocks {
	return &UserLocks{locks: make(map[string]*sync.Mutex)}
}

// Acquire returns the mutex for the given user, creating it on first use.
// The caller locks and unlocks it around the wallet sequence.
func (l *UserLocks) Acquire(userID string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()

	m, ok := l.locks[userID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[userID] = m
	}
	return m
}
