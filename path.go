package unionfs

import (
	"path"
	"strings"
)

const (
	whiteoutPrefix = ".wh."
	mePrefix       = ".me."

	// maxPathLen mirrors the conventional POSIX PATH_MAX; the core refuses
	// to construct a derived path longer than this.
	maxPathLen = 4096
)

// cleanLogicalPath normalises a logical path: absolute, no "." or "..", no
// duplicate separators.
func cleanLogicalPath(p string) string {
	if p == "" {
		return "/"
	}
	cleaned := path.Clean(p)
	if !strings.HasPrefix(cleaned, "/") {
		cleaned = "/" + cleaned
	}
	return cleaned
}

// toRO maps a logical path onto the RO branch.
func toRO(logical string) ConcretePath {
	return ConcretePath{Branch: BranchReadOnly, Path: cleanLogicalPath(logical)}
}

// toRW maps a logical path onto the RW branch.
func toRW(logical string) ConcretePath {
	return ConcretePath{Branch: BranchReadWrite, Path: cleanLogicalPath(logical)}
}

// toSpecial splits logical into (parent, name) and emits the RW-branch
// sidecar path for the requested NameKind.
func toSpecial(logical string, kind NameKind) (ConcretePath, error) {
	logical = cleanLogicalPath(logical)

	dir, name := path.Split(logical)
	name = strings.TrimSuffix(name, "/")
	if name == "" {
		// logical has no basename component (e.g. root "/") - no
		// directory separator to split a name off of.
		return ConcretePath{}, newError(KindInvalidPath, "to_special", logical, nil)
	}

	var prefix string
	switch kind {
	case NameWhiteout:
		prefix = whiteoutPrefix
	case NameME:
		prefix = mePrefix
	default:
		return ConcretePath{}, newError(KindInvalidPath, "to_special", logical, nil)
	}

	special := path.Join(cleanLogicalPath(dir), prefix+name)
	if len(special) > maxPathLen {
		return ConcretePath{}, newError(KindNameTooLong, "to_special", logical, nil)
	}

	return ConcretePath{Branch: BranchReadWrite, Path: special}, nil
}

// toWhiteout is a convenience wrapper around toSpecial(logical, NameWhiteout).
func toWhiteout(logical string) (ConcretePath, error) {
	return toSpecial(logical, NameWhiteout)
}

// toME is a convenience wrapper around toSpecial(logical, NameME).
func toME(logical string) (ConcretePath, error) {
	return toSpecial(logical, NameME)
}

// classify reports whether basename is a normal name, a whiteout marker, or
// a deported-metadata sidecar.
func classify(basename string) NameKind {
	switch {
	case strings.HasPrefix(basename, whiteoutPrefix):
		return NameWhiteout
	case strings.HasPrefix(basename, mePrefix):
		return NameME
	default:
		return NameNormal
	}
}

// parentOf returns the logical parent directory of logical.
func parentOf(logical string) string {
	logical = cleanLogicalPath(logical)
	if logical == "/" {
		return "/"
	}
	dir := path.Dir(logical)
	return cleanLogicalPath(dir)
}

// baseOf returns the logical basename of logical.
func baseOf(logical string) string {
	return path.Base(cleanLogicalPath(logical))
}

// isMe reports whether basename begins with the ME reserved prefix.
func isMe(basename string) bool { return strings.HasPrefix(basename, mePrefix) }

// isWhiteout reports whether basename begins with the whiteout reserved
// prefix.
func isWhiteout(basename string) bool { return strings.HasPrefix(basename, whiteoutPrefix) }

// isReserved reports whether basename matches either reserved prefix;
// creation of user files under either predicate MUST be refused.
func isReserved(basename string) bool {
	return isMe(basename) || isWhiteout(basename)
}

// whiteoutTarget strips the ".wh." prefix off a whiteout basename, yielding
// the basename of the entry it hides. ok is false if basename isn't a
// whiteout.
func whiteoutTarget(basename string) (string, bool) {
	if !isWhiteout(basename) {
		return "", false
	}
	return strings.TrimPrefix(basename, whiteoutPrefix), true
}

// meTarget strips the ".me." prefix off an ME basename, yielding the
// basename of the entry it carries metadata for.
func meTarget(basename string) (string, bool) {
	if !isMe(basename) {
		return "", false
	}
	return strings.TrimPrefix(basename, mePrefix), true
}
