//go:build unix

package config

import (
	"os"
	"syscall"
)

// lockExclusive blocks until f is exclusively flocked.
func lockExclusive(f *os.File) error {
	return syscall.Flock(int(f.Fd()), syscall.LOCK_EX)
}

func unlockFile(f *os.File) {
	syscall.Flock(int(f.Fd()), syscall.LOCK_UN)
}
