package unionfs

import (
	"io"
	"os"
)

// copyup materialises an RO file onto the RW branch: data plus merged
// metadata, consuming any existing ME file on success. If the RO branch has
// no entry for logical, copyup reports NotFound.
func (u *UnionFS) copyup(logical string) (ConcretePath, error) {
	u.mu.RLock()
	ro, rw := u.ro, u.rw
	u.mu.RUnlock()
	if rw == nil {
		return ConcretePath{}, ErrNoReadWriteBranch
	}
	if ro == nil {
		return ConcretePath{}, ErrNoReadOnlyBranch
	}

	roInfo, err := ro.Stat(logical)
	if err != nil {
		return ConcretePath{}, newError(KindNotFound, "copyup", logical, err)
	}
	roStat := u.statFromInfo(ConcretePath{Branch: BranchReadOnly, Path: logical}, roInfo)

	if err := u.findPath(parentOf(logical)); err != nil {
		return ConcretePath{}, err
	}

	rwCP := ConcretePath{Branch: BranchReadWrite, Path: logical}

	var commitErr error
	if roInfo.IsDir() {
		commitErr = u.copyupDir(logical, roStat)
	} else {
		commitErr = u.copyupFile(logical, roStat)
	}
	if commitErr != nil {
		if rerr := rw.RemoveAll(logical); rerr != nil {
			u.log.WithFields(map[string]interface{}{"op": "copyup", "path": logical}).WithError(rerr).Warn("rollback: removing partial copy-up failed")
		}
		return ConcretePath{}, commitErr
	}

	// Step 5: merge in any ME file, then delete it only once the merged
	// attributes have been applied to the new RW file.
	final := roStat
	mePath, meStat, meErr := u.findME(logical)
	if meErr == nil {
		final = mergeAttr(roStat, meStat)
	}

	if err := u.applyStat(rwCP, final); err != nil {
		return ConcretePath{}, err
	}

	if meErr == nil {
		if err := rw.Remove(mePath.Path); err != nil && !os.IsNotExist(err) {
			// The ME file MUST NOT be considered deleted if removal
			// failed - the data commit already happened, so this is
			// surfaced but the RW file stays.
			return ConcretePath{}, newError(KindIO, "copyup", logical, err)
		}
	}

	u.cache.invalidate(logical)
	u.log.WithFields(map[string]interface{}{"op": "copyup", "path": logical}).Debug("copied up")

	return rwCP, nil
}

func (u *UnionFS) copyupFile(logical string, roStat Stat) error {
	u.mu.RLock()
	ro, rw := u.ro, u.rw
	u.mu.RUnlock()

	src, err := ro.Open(logical)
	if err != nil {
		return newError(KindIO, "copyup", logical, err)
	}
	defer src.Close()

	dst, err := rw.OpenFile(logical, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, clearModeFlags(roStat.Mode)|0600)
	if err != nil {
		return newError(KindIO, "copyup", logical, err)
	}
	defer dst.Close()

	buf := make([]byte, u.bufSize())
	if _, err := io.CopyBuffer(dst, src, buf); err != nil {
		return newError(KindIO, "copyup", logical, err)
	}
	return nil
}

func (u *UnionFS) copyupDir(logical string, roStat Stat) error {
	u.mu.RLock()
	rw := u.rw
	u.mu.RUnlock()

	if err := rw.MkdirAll(logical, clearModeFlags(roStat.Mode)|0700); err != nil {
		return newError(KindIO, "copyup", logical, err)
	}
	return nil
}

func (u *UnionFS) bufSize() int {
	if u.copyBufSiz <= 0 {
		return 32 * 1024
	}
	return u.copyBufSiz
}

// findPath is the parent-chain materialiser: it walks the components of
// logical and, for each RW directory missing along the way, either creates
// it with the RO directory's permission bits plus owner rwx (if RO has a
// directory there) or creates a fresh 0755 directory. The RO directory's
// owner and times are not copied.
func (u *UnionFS) findPath(logical string) error {
	logical = cleanLogicalPath(logical)
	if logical == "/" {
		return nil
	}

	u.mu.RLock()
	ro, rw := u.ro, u.rw
	u.mu.RUnlock()
	if rw == nil {
		return ErrNoReadWriteBranch
	}

	if _, err := rw.Stat(logical); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return newError(KindIO, "find_path", logical, err)
	}

	if err := u.findPath(parentOf(logical)); err != nil {
		return err
	}

	if ro != nil {
		if info, err := ro.Stat(logical); err == nil && info.IsDir() {
			roStat := u.statFromInfo(ConcretePath{Branch: BranchReadOnly, Path: logical}, info)
			return u.copyupDir(logical, roStat)
		}
	}

	if err := rw.MkdirAll(logical, 0755); err != nil {
		return newError(KindIO, "find_path", logical, err)
	}
	return nil
}
