package unionfs

import (
	"sync"
	"time"
)

// timesIndex tracks atime/mtime/ctime for concrete paths whose backing
// afero.Fs cannot durably round-trip three distinct timestamps through
// Chtimes/Stat. afero.MemMapFs collapses everything to a single modtime
// field and no afero backend tracks ctime at all, so without this overlay
// getattr can never return a ctime, or an atime distinct from mtime, for
// anything but a real unix OsFs. Mirrors ownerIndex's role for uid/gid.
type timesIndex struct {
	mu      sync.RWMutex
	entries map[string]timesEntry
}

type timesEntry struct {
	atime, mtime, ctime time.Time
}

func newTimesIndex() *timesIndex {
	return &timesIndex{entries: make(map[string]timesEntry)}
}

func (ti *timesIndex) set(cp ConcretePath, atime, mtime, ctime time.Time) {
	ti.mu.Lock()
	defer ti.mu.Unlock()
	ti.entries[ownerKey(cp)] = timesEntry{atime: atime, mtime: mtime, ctime: ctime}
}

func (ti *timesIndex) get(cp ConcretePath) (atime, mtime, ctime time.Time, ok bool) {
	ti.mu.RLock()
	defer ti.mu.RUnlock()
	e, ok := ti.entries[ownerKey(cp)]
	return e.atime, e.mtime, e.ctime, ok
}

func (ti *timesIndex) remove(cp ConcretePath) {
	ti.mu.Lock()
	defer ti.mu.Unlock()
	delete(ti.entries, ownerKey(cp))
}

func (ti *timesIndex) rename(from, to ConcretePath) {
	ti.mu.Lock()
	defer ti.mu.Unlock()
	if e, ok := ti.entries[ownerKey(from)]; ok {
		ti.entries[ownerKey(to)] = e
		delete(ti.entries, ownerKey(from))
	}
}
