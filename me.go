package unionfs

import "os"

// MEFlags selects which attribute groups setME applies, mirroring me.c's
// MODE/TIME/OWNER flags.
type MEFlags int

const (
	// MEFlagMode selects the mode bits.
	MEFlagMode MEFlags = 1 << iota
	// MEFlagTime selects atime/mtime.
	MEFlagTime
	// MEFlagOwner selects uid/gid.
	MEFlagOwner
)

// findME locates the ME sidecar for logical, if any, and reports its
// concrete path plus its stat.
func (u *UnionFS) findME(logical string) (ConcretePath, Stat, error) {
	u.mu.RLock()
	rw := u.rw
	u.mu.RUnlock()
	if rw == nil {
		return ConcretePath{}, Stat{}, ErrNoReadWriteBranch
	}

	mePath, err := toME(logical)
	if err != nil {
		return ConcretePath{}, Stat{}, err
	}

	info, err := rw.Stat(mePath.Path)
	if err != nil {
		return ConcretePath{}, Stat{}, newError(KindNotFound, "find_me", logical, err)
	}

	return mePath, u.statFromInfo(mePath, info), nil
}

// createME creates a zero-size ME sidecar for logical carrying stat's
// owner/times/alterable-mode.
func (u *UnionFS) createME(logical string, stat Stat) error {
	rw, err := u.rwBranch()
	if err != nil {
		return err
	}

	mePath, err := toME(logical)
	if err != nil {
		return err
	}

	if err := u.findPath(parentOf(logical)); err != nil {
		return err
	}

	creationMode := clearModeFlags(stat.Mode)
	f, err := rw.OpenFile(mePath.Path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, creationMode)
	if err != nil {
		return newError(KindIO, "create_me", logical, err)
	}
	f.Close()

	return u.applyStat(mePath, stat)
}

// setME is me.c's set_me: it creates the ME sidecar if absent (backfilling
// any attribute group not requested by flags from the RO data file's
// current stat so the merge rule stays complete) or, if present, updates
// only the attribute groups requested by flags.
func (u *UnionFS) setME(logical string, flags MEFlags, attr Stat) error {
	if _, err := u.rwBranch(); err != nil {
		return err
	}

	mePath, existing, findErr := u.findME(logical)
	if findErr != nil {
		roCP := ConcretePath{Branch: BranchReadOnly, Path: logical}
		roInfo, statErr := u.ro.Stat(logical)
		if statErr != nil {
			return newError(KindNotFound, "set_me", logical, statErr)
		}
		roStat := u.statFromInfo(roCP, roInfo)

		final := roStat
		if flags&MEFlagMode != 0 {
			final.Mode = attr.Mode
		}
		if flags&MEFlagTime != 0 {
			final.Atime, final.Mtime = attr.Atime, attr.Mtime
		}
		if flags&MEFlagOwner != 0 {
			final.Uid, final.Gid = attr.Uid, attr.Gid
		}
		final.Ctime = roStat.Ctime

		return u.createME(logical, final)
	}

	final := existing
	if flags&MEFlagMode != 0 {
		final.Mode = attr.Mode
	}
	if flags&MEFlagTime != 0 {
		final.Atime, final.Mtime = attr.Atime, attr.Mtime
	}
	if flags&MEFlagOwner != 0 {
		final.Uid, final.Gid = attr.Uid, attr.Gid
	}

	if flags == 0 {
		return nil
	}
	return u.applyStat(mePath, final)
}
