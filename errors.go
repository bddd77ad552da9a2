package unionfs

import (
	"os"
	"syscall"

	"github.com/pkg/errors"
)

// Kind classifies the abstract error taxonomy the core operates under.
// It is mapped to a POSIX errno at the dispatcher boundary.
type Kind int

const (
	// KindNotFound means the logical path does not resolve, including
	// whiteout-hidden entries.
	KindNotFound Kind = iota
	// KindAlreadyExists means a non-whited-out entry is already present
	// at a create target.
	KindAlreadyExists
	// KindNameTooLong means a derived concrete path exceeds the platform
	// path limit.
	KindNameTooLong
	// KindInvalidPath means the logical path is malformed or a reserved
	// name was misused.
	KindInvalidPath
	// KindNotEmpty means rmdir was attempted on a directory with
	// surviving merged entries.
	KindNotEmpty
	// KindPermissionDenied means a credential check, delegated to the
	// host, failed.
	KindPermissionDenied
	// KindOutOfMemory means a transient allocation failure occurred.
	KindOutOfMemory
	// KindCrossBranch means an operation required same-branch semantics
	// but its inputs straddle branches.
	KindCrossBranch
	// KindIO is any lower-level failure surfaced as a POSIX errno.
	KindIO
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not found"
	case KindAlreadyExists:
		return "already exists"
	case KindNameTooLong:
		return "name too long"
	case KindInvalidPath:
		return "invalid path"
	case KindNotEmpty:
		return "not empty"
	case KindPermissionDenied:
		return "permission denied"
	case KindOutOfMemory:
		return "out of memory"
	case KindCrossBranch:
		return "cross branch"
	case KindIO:
		return "i/o error"
	default:
		return "unknown"
	}
}

// Error is the error type this package's operations return for failures
// classified by Kind; the ErrNoReadWriteBranch and ErrNoReadOnlyBranch
// sentinels are returned as they are. It carries enough context to be mapped back to a POSIX errno at the VFS
// boundary, and unwraps both to its underlying cause and to the relevant
// stdlib sentinel (os.ErrNotExist, os.ErrExist, os.ErrInvalid).
type Error struct {
	Kind Kind
	Op   string
	Path string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Op + " " + e.Path + ": " + e.Kind.String()
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes the wrapped cause so errors.Is/As and github.com/pkg/errors
// traverse through it.
func (e *Error) Unwrap() error { return e.Err }

// Is lets callers compare against the stdlib sentinels regardless of Kind.
func (e *Error) Is(target error) bool {
	switch target {
	case os.ErrNotExist:
		return e.Kind == KindNotFound
	case os.ErrExist:
		return e.Kind == KindAlreadyExists
	case os.ErrInvalid:
		return e.Kind == KindInvalidPath
	case os.ErrPermission:
		return e.Kind == KindPermissionDenied
	}
	return false
}

// Errno maps Kind to the POSIX errno the dispatcher returns to the VFS
// layer.
func (e *Error) Errno() syscall.Errno {
	switch e.Kind {
	case KindNotFound:
		return syscall.ENOENT
	case KindAlreadyExists:
		return syscall.EEXIST
	case KindNameTooLong:
		return syscall.ENAMETOOLONG
	case KindInvalidPath:
		return syscall.EINVAL
	case KindNotEmpty:
		return syscall.ENOTEMPTY
	case KindPermissionDenied:
		return syscall.EACCES
	case KindOutOfMemory:
		return syscall.ENOMEM
	case KindCrossBranch:
		return syscall.EXDEV
	default:
		return syscall.EIO
	}
}

// newError wraps cause (if any) with github.com/pkg/errors so callers keep a
// stack trace on the original failure, matching the wrapping idiom this
// repository's domain stack draws from.
func newError(kind Kind, op, path string, cause error) *Error {
	var wrapped error
	if cause != nil {
		wrapped = errors.Wrapf(cause, "%s %s", op, path)
	}
	return &Error{Kind: kind, Op: op, Path: path, Err: wrapped}
}

// IsNotFound reports whether err is a KindNotFound Error, following wrapped
// causes via errors.As.
func IsNotFound(err error) bool { return hasKind(err, KindNotFound) }

// IsAlreadyExists reports whether err is a KindAlreadyExists Error.
func IsAlreadyExists(err error) bool { return hasKind(err, KindAlreadyExists) }

// IsNotEmpty reports whether err is a KindNotEmpty Error.
func IsNotEmpty(err error) bool { return hasKind(err, KindNotEmpty) }

// IsIO reports whether err is a KindIO Error.
func IsIO(err error) bool { return hasKind(err, KindIO) }

func hasKind(err error, k Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == k
	}
	return false
}
