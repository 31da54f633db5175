package memoryx

import "sync"

// SessionLocks hands out one mutex per session. An entry is dropped once
// nobody holds or waits on it. The zero value is ready to use.
type SessionLocks struct {
	mu    sync.Mutex
	locks map[SessionID]*sessionLock
}

type sessionLock struct {
	mu   sync.Mutex
	refs int
}

// Lock blocks until the session is free and returns the matching unlock
func (l *SessionLocks) Lock(id SessionID) (unlock func()) {
	l.mu.Lock()
	if l.locks == nil {
		l.locks = make(map[SessionID]*sessionLock)
	}
	lock, ok := l.locks[id]
	if !ok {
		lock = &sessionLock{}
		l.locks[id] = lock
	}
	lock.refs++
	l.mu.Unlock()

	lock.mu.Lock()

	return func() {
		lock.mu.Unlock()

		l.mu.Lock()
		defer l.mu.Unlock()
		lock.refs--
		if lock.refs == 0 {
			delete(l.locks, id)
		}
	}
}

// Len returns the number of sessions currently held or waited on
func (l *SessionLocks) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
