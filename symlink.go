package unionfs

import (
	"os"

	"github.com/spf13/afero"
)

// linker is unionfs's own optional interface for hard-link creation. afero
// has no Link concept at all (a hard link only makes sense within a single
// concrete filesystem, and afero.Fs never promised one), so this only
// matches a backend that happens to expose a bare Link method itself.
type linker interface {
	Link(oldname, newname string) error
}

// lchowner is unionfs's own optional interface for changing the ownership
// of a symlink without following it. afero has no Lchown concept either;
// Lchown falls back to the backend's regular Chown when this doesn't match.
type lchowner interface {
	Lchown(name string, uid, gid int) error
}

// Readlink returns the destination of the symlink at name, resolving
// against whichever branch the resolver finds it on.
func (u *UnionFS) Readlink(name string) (string, error) {
	logical := cleanLogicalPath(name)

	cp, _, err := u.findFile(logical, IntentAny)
	if err != nil {
		return "", err
	}

	fs := u.fsFor(cp.Branch)
	rl, ok := fs.(afero.LinkReader)
	if !ok {
		return "", newError(KindIO, "readlink", logical, os.ErrInvalid)
	}
	target, err := rl.ReadlinkIfPossible(cp.Path)
	if err != nil {
		return "", newError(KindIO, "readlink", logical, err)
	}
	return target, nil
}

// Symlink is the symlink dispatcher: refuses an existing non-whited-out
// entry, materialises the RW parent chain, creates on RW, unlinks any
// whiteout at the target.
func (u *UnionFS) Symlink(oldname, newname string) error {
	logical := cleanLogicalPath(newname)

	release := u.latches.lock(logical)
	defer release()

	return u.symlinkLocked(oldname, logical)
}

// symlinkLocked is Symlink's body without the path latch, so callers that
// already hold newname's latch (Link's RO-fallback) can reuse it without
// deadlocking on the same path.
func (u *UnionFS) symlinkLocked(oldname, logical string) error {
	if isReserved(baseOf(logical)) {
		return newError(KindInvalidPath, "symlink", logical, nil)
	}

	rw, err := u.rwBranch()
	if err != nil {
		return err
	}

	if _, _, ferr := u.findFile(logical, IntentAny); ferr == nil {
		return newError(KindAlreadyExists, "symlink", logical, nil)
	}

	if err := u.findPath(parentOf(logical)); err != nil {
		return err
	}

	sl, ok := rw.(afero.Linker)
	if !ok {
		return newError(KindIO, "symlink", logical, os.ErrInvalid)
	}
	if err := sl.SymlinkIfPossible(oldname, logical); err != nil {
		return newError(KindIO, "symlink", logical, err)
	}
	if err := u.unlinkWhiteout(logical); err != nil {
		return err
	}

	u.cache.invalidate(logical)
	return nil
}

// Link is the link(old, new) dispatcher: an RO-origin source falls back to
// a symlink since a cross-branch hard link cannot be guaranteed; an
// RW-origin source hard-links within the RW branch. Either way, any
// whiteout at new is unlinked afterwards.
func (u *UnionFS) Link(oldname, newname string) error {
	oldLogical := cleanLogicalPath(oldname)
	newLogical := cleanLogicalPath(newname)
	if isReserved(baseOf(newLogical)) {
		return newError(KindInvalidPath, "link", newLogical, nil)
	}

	release := u.latches.lock(newLogical)
	defer release()

	_, origin, err := u.findFile(oldLogical, IntentAny)
	if err != nil {
		return err
	}

	if _, _, ferr := u.findFile(newLogical, IntentAny); ferr == nil {
		return newError(KindAlreadyExists, "link", newLogical, nil)
	}

	if err := u.findPath(parentOf(newLogical)); err != nil {
		return err
	}

	if origin == OriginReadOnly {
		return u.symlinkLocked(oldLogical, newLogical)
	}

	rw, err := u.rwBranch()
	if err != nil {
		return err
	}
	lk, ok := rw.(linker)
	if !ok {
		return newError(KindCrossBranch, "link", newLogical, os.ErrInvalid)
	}
	if err := lk.Link(oldLogical, newLogical); err != nil {
		return newError(KindIO, "link", newLogical, err)
	}
	if err := u.unlinkWhiteout(newLogical); err != nil {
		return err
	}

	u.cache.invalidate(newLogical)
	return nil
}

// Lchown changes ownership of the symlink itself at name, without
// following it, copying up first if it resolves RO.
func (u *UnionFS) Lchown(name string, uid, gid int) error {
	logical := cleanLogicalPath(name)

	release := u.latches.lock(logical)
	defer release()

	cp, _, err := u.findFile(logical, IntentCreateCopyup)
	if err != nil {
		return err
	}

	rw, err := u.rwBranch()
	if err != nil {
		return err
	}
	if lc, ok := rw.(lchowner); ok {
		if err := lc.Lchown(cp.Path, uid, gid); err != nil {
			return newError(KindIO, "lchown", logical, err)
		}
	} else if err := rw.Chown(cp.Path, uid, gid); err != nil {
		return newError(KindIO, "lchown", logical, err)
	}

	u.owners.set(cp, uid, gid)
	u.cache.invalidate(logical)
	return nil
}

// LstatIfPossible satisfies afero.Lstater so callers that need to
// distinguish symlinks from their targets can do so without an extra type
// assertion on the branch filesystem.
func (u *UnionFS) LstatIfPossible(name string) (os.FileInfo, bool, error) {
	info, err := u.Lstat(name)
	if err != nil {
		return nil, false, err
	}
	return info, true, nil
}

// SymlinkIfPossible satisfies afero.Linker.
func (u *UnionFS) SymlinkIfPossible(oldname, newname string) error {
	return u.Symlink(oldname, newname)
}

// ReadlinkIfPossible satisfies afero.LinkReader.
func (u *UnionFS) ReadlinkIfPossible(name string) (string, error) {
	return u.Readlink(name)
}
