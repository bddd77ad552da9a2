package unionfs

import (
	"os"

	"github.com/spf13/afero"
)

// Statfs mirrors hepunion_statfs (original_source/fs/hepunion/opts.c): stat
// the RO branch for capacity figures, then stamp the filesystem identity
// from MountConfig. afero.Fs has no syscall.Statfs_t equivalent, so the
// capacity figures here are a best-effort walk of the RO branch rather than
// a real block-device statfs - adequate for the demo CLI and tests, not a
// substitute for a real statfs(2) on whatever afero.OsFs wraps.
type Statfs struct {
	Type      int64
	FSID      uint64
	Files     uint64
	TotalSize int64
}

// Statfs reports filesystem-level statistics, with Type/FSID overridden
// from the UnionFS's MountConfig.
func (u *UnionFS) Statfs() (Statfs, error) {
	u.mu.RLock()
	ro := u.ro
	u.mu.RUnlock()
	if ro == nil {
		return Statfs{}, ErrNoReadOnlyBranch
	}

	var files uint64
	var totalSize int64
	err := afero.Walk(ro, "/", func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if !info.IsDir() {
			files++
			totalSize += info.Size()
		}
		return nil
	})
	if err != nil {
		return Statfs{}, newError(KindIO, "statfs", "/", err)
	}

	return Statfs{
		Type:      u.mount.FSType,
		FSID:      u.mount.FSID,
		Files:     files,
		TotalSize: totalSize,
	}, nil
}
