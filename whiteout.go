package unionfs

import "os"

// createWhiteout materialises the ".wh.<name>" marker for logical on the RW
// branch, creating intermediate directories as needed.
func (u *UnionFS) createWhiteout(logical string) error {
	rw, err := u.rwBranch()
	if err != nil {
		return err
	}

	whPath, err := toWhiteout(logical)
	if err != nil {
		return err
	}

	if err := u.findPath(cleanLogicalPath(parentOf(logical))); err != nil {
		return err
	}

	f, err := rw.Create(whPath.Path)
	if err != nil {
		return newError(KindIO, "create_whiteout", logical, err)
	}
	return f.Close()
}

// unlinkWhiteout idempotently removes the whiteout marker for logical if
// present; absence is not an error (L1). Any operation that re-creates a
// logically-deleted name (create/link/symlink/mkdir/mknod) calls this.
func (u *UnionFS) unlinkWhiteout(logical string) error {
	rw, err := u.rwBranch()
	if err != nil {
		return err
	}

	whPath, err := toWhiteout(logical)
	if err != nil {
		return err
	}

	if err := rw.Remove(whPath.Path); err != nil && !os.IsNotExist(err) {
		return newError(KindIO, "unlink_whiteout", logical, err)
	}
	return nil
}

// hasWhiteout reports whether logical is currently whited out on the RW
// branch.
func (u *UnionFS) hasWhiteout(logical string) bool {
	u.mu.RLock()
	rw := u.rw
	u.mu.RUnlock()
	if rw == nil {
		return false
	}
	whPath, err := toWhiteout(logical)
	if err != nil {
		return false
	}
	_, err = rw.Stat(whPath.Path)
	return err == nil
}
