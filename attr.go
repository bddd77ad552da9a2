package unionfs

import (
	"os"

	"github.com/spf13/afero"
)

// statFromInfo builds a Stat from an os.FileInfo obtained from cp's branch,
// filling in uid/gid and atime/ctime from whichever source is
// authoritative: the real platform stat structure if the backend populates
// one (afero.OsFs on linux), falling back to the ownerIndex/timesIndex
// overlays otherwise. mtime always comes from info.ModTime(), which every
// afero backend reports correctly.
func (u *UnionFS) statFromInfo(cp ConcretePath, info os.FileInfo) Stat {
	uid, gid, ok := statOwner(info)
	if !ok {
		uid, gid = u.owners.get(cp)
	}

	mtime := info.ModTime()
	atime, ctime, ok := statTimes(info)
	if !ok {
		if oAtime, oMtime, oCtime, found := u.times.get(cp); found {
			atime, mtime, ctime = oAtime, oMtime, oCtime
		} else {
			atime, ctime = mtime, mtime
		}
	}

	return Stat{
		Mode:  info.Mode(),
		Uid:   uid,
		Gid:   gid,
		Atime: atime,
		Mtime: mtime,
		Ctime: ctime,
		Size:  info.Size(),
		IsDir: info.IsDir(),
	}
}

// applyStat commits stat's mode/owner/times onto cp's concrete file. It is
// used both by copyup (to stamp merged attributes on a freshly-materialised
// RW file) and by setattr/setME (to mutate an existing RW or ME file).
func (u *UnionFS) applyStat(cp ConcretePath, stat Stat) error {
	fs := u.fsFor(cp.Branch)
	if fs == nil {
		return newError(KindIO, "apply_stat", cp.Path, nil)
	}

	if err := fs.Chmod(cp.Path, clearModeFlags(stat.Mode)); err != nil {
		return newError(KindIO, "apply_stat", cp.Path, err)
	}
	if err := fs.Chtimes(cp.Path, stat.Atime, stat.Mtime); err != nil {
		return newError(KindIO, "apply_stat", cp.Path, err)
	}
	if err := chownFs(fs, cp.Path, stat.Uid, stat.Gid); err != nil {
		return newError(KindIO, "apply_stat", cp.Path, err)
	}
	u.owners.set(cp, stat.Uid, stat.Gid)
	u.times.set(cp, stat.Atime, stat.Mtime, stat.Ctime)

	return nil
}

// chownFs calls Chown on the backing Fs, treating a missing file as success
// and returning any other error. applyStat records the owner in the
// ownerIndex overlay only after this call succeeds.
func chownFs(fs afero.Fs, path string, uid, gid int) error {
	if err := fs.Chown(path, uid, gid); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// getattr resolves logical to its merged Stat: origins OriginReadWrite and
// OriginReadWriteCopyup are the RW file's own attributes, while
// OriginReadOnly is the RO data file's attributes merged with any ME
// sidecar.
func (u *UnionFS) getattr(logical string) (Stat, error) {
	cp, origin, err := u.findFile(logical, IntentAny)
	if err != nil {
		return Stat{}, err
	}

	fs := u.fsFor(cp.Branch)
	info, err := fs.Stat(cp.Path)
	if err != nil {
		return Stat{}, newError(KindIO, "getattr", logical, err)
	}
	stat := u.statFromInfo(cp, info)

	if origin != OriginReadOnly {
		return stat, nil
	}

	_, meStat, meErr := u.findME(logical)
	if meErr != nil {
		return stat, nil
	}
	return mergeAttr(stat, meStat), nil
}

// AttrFlags selects which attribute groups setattr applies, mirroring
// MEFlags but named for the public surface.
type AttrFlags = MEFlags

const (
	// AttrMode selects the mode bits.
	AttrMode = MEFlagMode
	// AttrTime selects atime/mtime.
	AttrTime = MEFlagTime
	// AttrOwner selects uid/gid.
	AttrOwner = MEFlagOwner
)

// setattr applies attr's requested groups to logical: a native or
// already-copied-up RW file is mutated directly, while an unmodified RO
// file is deported to (or updates) its ME sidecar instead of forcing a
// copy-up.
func (u *UnionFS) setattr(logical string, flags AttrFlags, attr Stat) error {
	release := u.latches.lock(logical)
	defer release()

	cp, origin, err := u.findFile(logical, IntentAny)
	if err != nil {
		return err
	}

	if origin != OriginReadOnly {
		return u.applyStat(cp, mergeForApply(flags, attr, cp, u))
	}

	return u.setME(logical, flags, attr)
}

// mergeForApply builds the Stat applyStat should commit to an RW-origin
// file: the file's current attributes overridden by the groups flags
// selects from attr.
func mergeForApply(flags AttrFlags, attr Stat, cp ConcretePath, u *UnionFS) Stat {
	fs := u.fsFor(cp.Branch)
	info, err := fs.Stat(cp.Path)
	var current Stat
	if err == nil {
		current = u.statFromInfo(cp, info)
	}

	final := current
	if flags&AttrMode != 0 {
		final.Mode = attr.Mode
	}
	if flags&AttrTime != 0 {
		final.Atime, final.Mtime = attr.Atime, attr.Mtime
	} else {
		final.Atime, final.Mtime = current.Atime, current.Mtime
	}
	if flags&AttrOwner != 0 {
		final.Uid, final.Gid = attr.Uid, attr.Gid
	} else {
		final.Uid, final.Gid = current.Uid, current.Gid
	}
	return final
}
