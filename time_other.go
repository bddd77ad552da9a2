//go:build !linux

package unionfs

import (
	"os"
	"time"
)

// statTimes has no portable equivalent outside linux in this core; the
// timesIndex overlay is the sole source of truth for atime/ctime on these
// platforms.
func statTimes(info os.FileInfo) (atime, ctime time.Time, ok bool) {
	return time.Time{}, time.Time{}, false
}
