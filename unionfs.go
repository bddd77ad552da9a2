// Package unionfs implements a two-branch union filesystem: a single
// read-write branch overlaid atop a single read-only branch, presented as
// one namespace. Deletions of read-only entries are recorded as whiteout
// markers, and attribute changes on otherwise-unmodified read-only files are
// deported to metadata (ME) sidecar files rather than forcing a full
// copy-up. See doc.go for an overview and SPEC_FULL.md for the full design.
package unionfs

import (
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

// ErrNoReadWriteBranch is returned when a mutating operation is attempted
// but no RW branch has been configured.
var ErrNoReadWriteBranch = errors.New("unionfs: no read-write branch configured")

// ErrNoReadOnlyBranch is returned when an operation that requires an RO
// branch (e.g. copyup or Statfs) is attempted without one.
var ErrNoReadOnlyBranch = errors.New("unionfs: no read-only branch configured")

// MountConfig carries the statfs identity values needed at mount time. The
// two branches are set separately, with WithReadOnlyBranch and
// WithReadWriteBranch.
type MountConfig struct {
	// FSType is reported as statfs's f_type.
	FSType int64
	// FSID seeds statfs's f_fsid.
	FSID uint64
}

// UnionFS is a two-branch union filesystem: one read-only branch, one
// read-write branch, composed into a single namespace.
type UnionFS struct {
	ro afero.Fs
	rw afero.Fs

	mu sync.RWMutex

	cache      *Cache
	owners     *ownerIndex
	times      *timesIndex
	latches    *pathLatches
	log        *logrus.Entry
	mount      MountConfig
	copyBufSiz int
}

// Option configures a UnionFS at construction time.
type Option func(*UnionFS)

// WithReadOnlyBranch sets the RO branch. Required.
func WithReadOnlyBranch(fs afero.Fs) Option {
	return func(u *UnionFS) { u.ro = fs }
}

// WithReadWriteBranch sets the RW branch. Required for any mutating
// operation; a UnionFS with no RW branch can still serve reads.
func WithReadWriteBranch(fs afero.Fs) Option {
	return func(u *UnionFS) { u.rw = fs }
}

// WithStatCache enables stat caching with the given TTL, halving it for the
// negative-result cache.
func WithStatCache(enabled bool, ttl time.Duration) Option {
	return func(u *UnionFS) {
		u.cache = newCache(enabled, ttl, ttl/2, 1000)
	}
}

// WithCacheConfig enables caching with full control over TTLs and eviction
// size.
func WithCacheConfig(enabled bool, statTTL, negativeTTL time.Duration, maxEntries int) Option {
	return func(u *UnionFS) {
		u.cache = newCache(enabled, statTTL, negativeTTL, maxEntries)
	}
}

// WithCopyBufferSize sets the buffer size used to stream data during
// copy-up.
func WithCopyBufferSize(size int) Option {
	return func(u *UnionFS) { u.copyBufSiz = size }
}

// WithMountConfig sets the statfs identity (f_type/f_fsid).
func WithMountConfig(cfg MountConfig) Option {
	return func(u *UnionFS) { u.mount = cfg }
}

// WithLogger injects a structured logger. By default UnionFS logs nothing
// (logrus.New() with output discarded), so library consumers pay nothing
// unless they opt in.
func WithLogger(log *logrus.Entry) Option {
	return func(u *UnionFS) { u.log = log }
}

// New constructs a UnionFS from the given options.
func New(opts ...Option) *UnionFS {
	discard := logrus.New()
	discard.SetOutput(logDiscard{})

	u := &UnionFS{
		cache:      newCache(false, 0, 0, 0),
		owners:     newOwnerIndex(),
		times:      newTimesIndex(),
		latches:    newPathLatches(),
		log:        logrus.NewEntry(discard),
		copyBufSiz: 32 * 1024,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// logDiscard is an io.Writer that drops everything written to it, used as
// the default logger sink.
type logDiscard struct{}

func (logDiscard) Write(p []byte) (int, error) { return len(p), nil }

// Name reports the filesystem's name, matching afero.Fs's Name() method so
// UnionFS remains a drop-in afero.Fs.
func (u *UnionFS) Name() string { return "unionfs" }

// rwBranch returns the RW branch or ErrNoReadWriteBranch.
func (u *UnionFS) rwBranch() (afero.Fs, error) {
	u.mu.RLock()
	defer u.mu.RUnlock()
	if u.rw == nil {
		return nil, ErrNoReadWriteBranch
	}
	return u.rw, nil
}

func (u *UnionFS) fsFor(branch Branch) afero.Fs {
	if branch == BranchReadOnly {
		return u.ro
	}
	return u.rw
}

// InvalidateCache removes a single path from the stat cache.
func (u *UnionFS) InvalidateCache(logical string) {
	u.cache.invalidate(cleanLogicalPath(logical))
}

// InvalidateCacheTree removes every cached path under a prefix.
func (u *UnionFS) InvalidateCacheTree(prefix string) {
	u.cache.invalidateTree(cleanLogicalPath(prefix))
}

// ClearCache drops every cache entry.
func (u *UnionFS) ClearCache() { u.cache.clear() }

// CacheStats reports current cache occupancy and configuration.
func (u *UnionFS) CacheStats() CacheStats { return u.cache.Stats() }
