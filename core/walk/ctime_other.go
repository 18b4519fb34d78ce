//go:build !linux && !darwin && !windows

package walk

import (
	"os"
	"time"
)

func creationTime(fi os.FileInfo) time.Time {
	return fi.ModTime()
}
