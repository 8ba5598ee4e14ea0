package cart

import "sync"

// userLocks hands out one RWMutex per user id. Entries are reference counted
// and removed once nobody holds or waits on them.
type userLocks struct {
	mu    sync.Mutex
	locks map[string]*userLock
}

type userLock struct {
	sync.RWMutex
	refs int
}

func newUserLocks() *userLocks {
	return &userLocks{locks: map[string]*userLock{}}
}

func (l *userLocks) acquire(userID string) *userLock {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.locks[userID]
	if !ok {
		e = &userLock{}
		l.locks[userID] = e
	}
	e.refs++
	return e
}

func (l *userLocks) release(userID string, e *userLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(l.locks, userID)
	}
}

// Lock takes the write lock for userID and returns its release func.
func (l *userLocks) Lock(userID string) func() {
	e := l.acquire(userID)
	e.Lock()
	return func() {
		e.Unlock()
		l.release(userID, e)
	}
}

// RLock takes the read lock for userID and returns its release func.
func (l *userLocks) RLock(userID string) func() {
	e := l.acquire(userID)
	e.RLock()
	return func() {
		e.RUnlock()
		l.release(userID, e)
	}
}

func (l *userLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
