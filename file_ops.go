package unionfs

import (
	"io"
	"os"
	"time"

	"github.com/spf13/afero"
)

// Stat resolves name with intent Any and returns its merged attributes as
// an os.FileInfo.
func (u *UnionFS) Stat(name string) (os.FileInfo, error) {
	logical := cleanLogicalPath(name)
	stat, err := u.getattr(logical)
	if err != nil {
		return nil, err
	}
	return &statFileInfo{name: baseOf(logical), stat: stat}, nil
}

// Lstat behaves like Stat; this core has no symlink-following distinction
// at the attribute layer since copy-up and ME merge operate on whichever
// concrete entry the resolver finds, symlink or not.
func (u *UnionFS) Lstat(name string) (os.FileInfo, error) {
	return u.Stat(name)
}

// Open opens name for reading.
func (u *UnionFS) Open(name string) (afero.File, error) {
	return u.OpenFile(name, os.O_RDONLY, 0)
}

// OpenFile is the open(logical, flags) dispatcher: a write
// intent resolves with IntentCreateCopyup so an RO-origin file is
// materialised on RW before any write reaches it; a read-only intent
// resolves with IntentAny.
func (u *UnionFS) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	logical := cleanLogicalPath(name)

	if isReserved(baseOf(logical)) {
		return nil, newError(KindInvalidPath, "open", logical, nil)
	}

	isWrite := flag&(os.O_WRONLY|os.O_RDWR|os.O_APPEND|os.O_CREATE|os.O_TRUNC) != 0

	if !isWrite {
		cp, _, err := u.findFile(logical, IntentAny)
		if err != nil {
			return nil, err
		}
		fs := u.fsFor(cp.Branch)
		info, err := fs.Stat(cp.Path)
		if err != nil {
			return nil, newError(KindIO, "open", logical, err)
		}
		if info.IsDir() {
			return newUnionDir(u, logical), nil
		}
		f, err := fs.Open(cp.Path)
		if err != nil {
			return nil, newError(KindIO, "open", logical, err)
		}
		return f, nil
	}

	release := u.latches.lock(logical)
	defer release()

	rw, err := u.rwBranch()
	if err != nil {
		return nil, err
	}

	if flag&os.O_CREATE != 0 {
		if err := u.findPath(parentOf(logical)); err != nil {
			return nil, err
		}
		if flag&os.O_EXCL != 0 {
			if _, _, ferr := u.findFile(logical, IntentAny); ferr == nil {
				return nil, newError(KindAlreadyExists, "open", logical, nil)
			}
		}
	}

	cp, _, err := u.findFile(logical, IntentCreateCopyup)
	if err != nil {
		if !IsNotFound(err) || flag&os.O_CREATE == 0 {
			return nil, err
		}
		cp = toRW(logical)
	}

	f, err := rw.OpenFile(cp.Path, flag, perm)
	if err != nil {
		return nil, newError(KindIO, "open", logical, err)
	}

	if flag&os.O_CREATE != 0 {
		if err := u.unlinkWhiteout(logical); err != nil {
			f.Close()
			return nil, err
		}
	}

	u.cache.invalidate(logical)
	return f, nil
}

// Create creates logical on the RW branch, truncating if it already
// exists there.
func (u *UnionFS) Create(name string) (afero.File, error) {
	return u.OpenFile(name, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0666)
}

// Mkdir is the create/mkdir/mknod/symlink dispatcher applied to
// directories: refuses an existing non-whited-out entry,
// materialises the RW parent chain, creates on RW, unlinks any whiteout.
func (u *UnionFS) Mkdir(name string, perm os.FileMode) error {
	logical := cleanLogicalPath(name)
	if isReserved(baseOf(logical)) {
		return newError(KindInvalidPath, "mkdir", logical, nil)
	}

	release := u.latches.lock(logical)
	defer release()

	rw, err := u.rwBranch()
	if err != nil {
		return err
	}

	if _, _, ferr := u.findFile(logical, IntentAny); ferr == nil {
		return newError(KindAlreadyExists, "mkdir", logical, nil)
	}

	if err := u.findPath(parentOf(logical)); err != nil {
		return err
	}

	if err := rw.Mkdir(logical, perm); err != nil {
		return newError(KindIO, "mkdir", logical, err)
	}
	if err := u.unlinkWhiteout(logical); err != nil {
		return err
	}

	u.cache.invalidate(logical)
	return nil
}

// MkdirAll creates name and any missing parents on the RW branch.
func (u *UnionFS) MkdirAll(name string, perm os.FileMode) error {
	logical := cleanLogicalPath(name)

	release := u.latches.lock(logical)
	defer release()

	if _, err := u.rwBranch(); err != nil {
		return err
	}

	if err := u.findPath(logical); err != nil {
		return err
	}
	if err := u.unlinkWhiteout(logical); err != nil {
		return err
	}

	u.cache.invalidateTree(logical)
	return nil
}

// unlinkRollback captures what unlink needs to retry if whiteout creation
// fails after an ME file was already removed.
type unlinkRollback struct {
	logical string
	stat    Stat
	hadME   bool
}

// Remove is the unlink/rmdir dispatcher. A directory target additionally
// requires the merged view be empty.
func (u *UnionFS) Remove(name string) error {
	logical := cleanLogicalPath(name)

	release := u.latches.lock(logical)
	defer release()

	cp, origin, err := u.findFile(logical, IntentAny)
	if err != nil {
		return err
	}

	fs := u.fsFor(cp.Branch)
	info, serr := fs.Stat(cp.Path)
	if serr != nil {
		return newError(KindIO, "remove", logical, serr)
	}

	if info.IsDir() {
		empty, eerr := u.isEmptyDir(logical)
		if eerr != nil {
			return eerr
		}
		if !empty {
			return newError(KindNotEmpty, "remove", logical, nil)
		}
	}

	switch origin {
	case OriginReadWrite, OriginReadWriteCopyup:
		if err := fs.Remove(cp.Path); err != nil {
			return newError(KindIO, "remove", logical, err)
		}
		if _, _, roErr := u.findFile(logical, IntentMustRO); roErr == nil {
			if err := u.createWhiteout(logical); err != nil {
				return err
			}
		}

	case OriginReadOnly:
		var rollback unlinkRollback
		rollback.logical = logical
		if _, meStat, meErr := u.findME(logical); meErr == nil {
			rollback.hadME = true
			rollback.stat = meStat
			mePath, _ := toME(logical)
			if err := u.rw.Remove(mePath.Path); err != nil && !os.IsNotExist(err) {
				return newError(KindIO, "remove", logical, err)
			}
		}

		if err := u.createWhiteout(logical); err != nil {
			if rollback.hadME {
				if rerr := u.createME(rollback.logical, rollback.stat); rerr != nil {
					u.log.WithFields(map[string]interface{}{"op": "remove", "path": logical}).WithError(rerr).Warn("rollback: recreating ME failed")
				}
			}
			return err
		}
	}

	u.cache.invalidate(logical)
	return nil
}

// RemoveAll removes logical and everything beneath it.
func (u *UnionFS) RemoveAll(name string) error {
	logical := cleanLogicalPath(name)

	release := u.latches.lock(logical)
	defer release()

	cp, origin, err := u.findFile(logical, IntentAny)
	if err != nil {
		if IsNotFound(err) {
			return nil
		}
		return err
	}

	fs := u.fsFor(cp.Branch)

	switch origin {
	case OriginReadWrite, OriginReadWriteCopyup:
		if err := fs.RemoveAll(cp.Path); err != nil {
			return newError(KindIO, "remove_all", logical, err)
		}
		if _, _, roErr := u.findFile(logical, IntentMustRO); roErr == nil {
			if err := u.createWhiteout(logical); err != nil {
				return err
			}
		}
	case OriginReadOnly:
		mePath, _, meErr := u.findME(logical)
		if meErr == nil {
			_ = u.rw.Remove(mePath.Path)
		}
		if err := u.createWhiteout(logical); err != nil {
			return err
		}
	}

	u.cache.invalidateTree(logical)
	return nil
}

// isEmptyDir reports whether logical's merged view (RO ∪ RW − whiteouts)
// has any surviving entries. It lists logical through the Directory Merger,
// which always reads the RW branch before the RO branch.
func (u *UnionFS) isEmptyDir(logical string) (bool, error) {
	d := newUnionDir(u, logical)
	defer d.Close()
	entries, err := d.Readdir(1)
	if err != nil {
		if err == io.EOF {
			return true, nil
		}
		return false, newError(KindIO, "is_empty_dir", logical, err)
	}
	return len(entries) == 0, nil
}

// Rename is the rename dispatcher: an RO-origin source is copied up first
// (this core never renames an entry across branches in place, so the
// result always lands on RW), then moved within the RW branch, leaving a
// whiteout behind if the source also existed on RO.
func (u *UnionFS) Rename(oldname, newname string) error {
	oldLogical := cleanLogicalPath(oldname)
	newLogical := cleanLogicalPath(newname)

	releaseOld := u.latches.lock(oldLogical)
	defer releaseOld()
	releaseNew := u.latches.lock(newLogical)
	defer releaseNew()

	rw, err := u.rwBranch()
	if err != nil {
		return err
	}

	_, origin, err := u.findFile(oldLogical, IntentCreateCopyup)
	if err != nil {
		return err
	}
	hadRO := origin == OriginReadWriteCopyup
	if !hadRO {
		if _, _, roErr := u.findFile(oldLogical, IntentMustRO); roErr == nil {
			hadRO = true
		}
	}

	if err := u.findPath(parentOf(newLogical)); err != nil {
		return err
	}

	if err := rw.Rename(oldLogical, newLogical); err != nil {
		return newError(KindIO, "rename", oldLogical, err)
	}
	if err := u.unlinkWhiteout(newLogical); err != nil {
		return err
	}

	if hadRO {
		if err := u.createWhiteout(oldLogical); err != nil {
			return err
		}
	}

	u.cache.invalidate(oldLogical)
	u.cache.invalidate(newLogical)
	return nil
}

// Chmod routes through the Attribute Engine's setattr.
func (u *UnionFS) Chmod(name string, mode os.FileMode) error {
	logical := cleanLogicalPath(name)
	return u.setattr(logical, AttrMode, Stat{Mode: mode})
}

// Chown routes through the Attribute Engine's setattr.
func (u *UnionFS) Chown(name string, uid, gid int) error {
	logical := cleanLogicalPath(name)
	return u.setattr(logical, AttrOwner, Stat{Uid: uid, Gid: gid})
}

// Chtimes routes through the Attribute Engine's setattr.
func (u *UnionFS) Chtimes(name string, atime, mtime time.Time) error {
	logical := cleanLogicalPath(name)
	return u.setattr(logical, AttrTime, Stat{Atime: atime, Mtime: mtime})
}
