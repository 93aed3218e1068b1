//go:build !tgc_mt

package tgc

// Single-threaded cooperative profile: handle operations and collection
// steps are serialized by construction, so every lock is a no-op. Build
// with -tags tgc_mt for the multi-threaded profile.
type rwLock struct{}

func (*rwLock) lock()          {}
func (*rwLock) unlock()        {}
func (*rwLock) tryLock() bool  { return false }
func (*rwLock) unlockIf(bool)  {}
func (*rwLock) tryRLock() bool { return false }
func (*rwLock) runlockIf(bool) {}
