//go:build linux

package walk

import (
	"os"
	"syscall"
	"time"
)

// creationTime returns the inode change time, the closest Linux stat offers.
func creationTime(fi os.FileInfo) time.Time {
	if st, ok := fi.Sys().(*syscall.Stat_t); ok {
		return time.Unix(int64(st.Ctim.Sec), int64(st.Ctim.Nsec))
	}
	return fi.ModTime()
}
