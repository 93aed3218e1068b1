//go:build tgc_mt

package tgc

import "sync"

// Multi-threaded profile: a readers-writer lock guards the collector's
// mutable state. Collection steps take the write lock; registration and
// the write barrier take shared or try locks. Try acquisition keeps
// re-entrant calls from deadlocking when a destructor running under
// Collect touches the collector again; such calls proceed under the
// already-held write lock.
type rwLock struct {
	mu sync.RWMutex
}

func (l *rwLock) lock()   { l.mu.Lock() }
func (l *rwLock) unlock() { l.mu.Unlock() }

func (l *rwLock) tryLock() bool { return l.mu.TryLock() }

func (l *rwLock) unlockIf(got bool) {
	if got {
		l.mu.Unlock()
	}
}

func (l *rwLock) tryRLock() bool { return l.mu.TryRLock() }

func (l *rwLock) runlockIf(got bool) {
	if got {
		l.mu.RUnlock()
	}
}
