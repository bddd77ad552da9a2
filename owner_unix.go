//go:build unix

package unionfs

import (
	"os"
	"syscall"
)

// statOwner extracts uid/gid from the platform-specific stat structure
// tucked behind os.FileInfo.Sys(), the portable idiom for reading ownership
// across afero backends that do populate it (afero.OsFs on unix).
func statOwner(info os.FileInfo) (uid, gid int, ok bool) {
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok || st == nil {
		return 0, 0, false
	}
	return int(st.Uid), int(st.Gid), true
}
