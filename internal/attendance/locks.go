package attendance

import "sync"

// identityLocks serializes punches per employee. Two concurrent captures of
// the same person must resolve their attendance state one after the other,
// while different employees proceed in parallel.
//
// Locks are never evicted; the map is bounded by the number of enrolled
// employees.
type identityLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newIdentityLocks() *identityLocks {
	return &identityLocks{locks: make(map[string]*sync.Mutex)}
}

// lock acquires the mutex for the given identity and returns its unlock
// function.
func (l *identityLocks) lock(id string) func() {
	l.mu.Lock()
	m, ok := l.locks[id]
	if !ok {
		m = &sync.Mutex{}
		l.locks[id] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
