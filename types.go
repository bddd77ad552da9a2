package unionfs

import (
	"os"
	"time"
)

// Branch identifies which underlying tree a ConcretePath belongs to.
type Branch int

const (
	branchNone Branch = iota
	// BranchReadOnly is the immutable base tree.
	BranchReadOnly
	// BranchReadWrite is the mutable overlay tree.
	BranchReadWrite
)

func (b Branch) String() string {
	switch b {
	case BranchReadOnly:
		return "ro"
	case BranchReadWrite:
		return "rw"
	default:
		return "none"
	}
}

// ConcretePath is an absolute logical-style path ("/a/b") qualified with the
// branch it lives on. Each branch is backed by its own afero.Fs rooted at
// "/", so no branch-root string concatenation is needed the way the C
// source concatenates onto ro_root/rw_root - the choice of afero.Fs instance
// already plays that role (see SPEC_FULL.md §3).
type ConcretePath struct {
	Branch Branch
	Path   string
}

// OriginTag identifies which branch satisfied a resolution, and whether the
// resolution materialised a new RW file via copy-up this call.
type OriginTag int

const (
	// OriginNone is the zero value, never returned from a successful
	// resolution.
	OriginNone OriginTag = iota
	// OriginReadOnly means the RO branch satisfied the lookup unchanged.
	OriginReadOnly
	// OriginReadWrite means an existing RW file (native or from a prior
	// copy-up) satisfied the lookup.
	OriginReadWrite
	// OriginReadWriteCopyup means this call triggered copy-up.
	OriginReadWriteCopyup
)

func (o OriginTag) String() string {
	switch o {
	case OriginReadOnly:
		return "ReadOnly"
	case OriginReadWrite:
		return "ReadWrite"
	case OriginReadWriteCopyup:
		return "ReadWriteCopyup"
	default:
		return "None"
	}
}

// Intent selects how the Branch Resolver should treat the two branches for
// a given lookup.
type Intent int

const (
	// IntentAny lets RW shadow RO, the default resolution used by most
	// operations.
	IntentAny Intent = iota
	// IntentMustRO resolves against the RO branch only.
	IntentMustRO
	// IntentMustRW resolves against the RW branch only.
	IntentMustRW
	// IntentCreateCopyup behaves like IntentAny but triggers a copy-up
	// when only the RO branch has the entry.
	IntentCreateCopyup
)

// NameKind classifies a basename as a normal user-visible name or one of
// the two reserved sidecar prefixes.
type NameKind int

const (
	// NameNormal is any basename that isn't a whiteout or ME sidecar.
	NameNormal NameKind = iota
	// NameWhiteout is a ".wh.<name>" basename.
	NameWhiteout
	// NameME is a ".me.<name>" basename.
	NameME
)

// VALID_MODES_MASK is the alterable permission/special bits: rwx for
// user/group/other plus setuid/setgid/sticky. File-type bits (directory,
// symlink, device, ...) are never alterable and are excluded.
const VALID_MODES_MASK = os.ModePerm | os.ModeSetuid | os.ModeSetgid | os.ModeSticky

// Stat is the core's own attribute record. Unlike os.FileInfo it carries a
// portable uid/gid, since neither afero.File nor os.FileInfo exposes
// ownership across platforms - see ownerIndex in owner.go for how this is
// populated from whichever backing afero.Fs is in play.
type Stat struct {
	Mode  os.FileMode
	Uid   int
	Gid   int
	Atime time.Time
	Mtime time.Time
	Ctime time.Time
	Size  int64
	IsDir bool
}

// clearModeFlags strips the file-type bits from a mode, leaving only the
// alterable permission/special bits. Mirrors me.c's clear_mode_flags.
func clearModeFlags(mode os.FileMode) os.FileMode {
	return mode & VALID_MODES_MASK
}

// mergeAttr applies the mode-composition rule: owner and times always come
// from the ME record, file-type bits always come from the data file, and
// alterable mode bits come from the ME record.
func mergeAttr(data, me Stat) Stat {
	merged := data
	merged.Uid = me.Uid
	merged.Gid = me.Gid
	merged.Atime = me.Atime
	merged.Mtime = me.Mtime
	merged.Ctime = me.Ctime
	merged.Mode = (data.Mode &^ VALID_MODES_MASK) | clearModeFlags(me.Mode)
	return merged
}
