package db

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	lockFileName   = "db.lock"
	defaultTimeout = 500 * time.Millisecond
	initialBackoff = 5 * time.Millisecond
	maxBackoff     = 50 * time.Millisecond
)

// writeLocker is a cross-process write lock on dataDir/db.lock, so a CLI
// command and a running `onboard ui` never write at the same time. The OS
// drops the lock when the holder exits, crashes included.
type writeLocker struct {
	lockPath string
	lockFile *os.File
}

func newWriteLocker(dataDir string) *writeLocker {
	return &writeLocker{lockPath: filepath.Join(dataDir, lockFileName)}
}

// acquire polls for the lock with exponential backoff until timeout.
func (l *writeLocker) acquire(timeout time.Duration) error {
	f, err := os.OpenFile(l.lockPath, os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return fmt.Errorf("open lock file: %w", err)
	}
	l.lockFile = f

	deadline := time.Now().Add(timeout)
	for wait := initialBackoff; ; wait = min(wait*2, maxBackoff) {
		if l.tryLock() == nil {
			l.recordHolder()
			return nil
		}
		if time.Now().After(deadline) {
			holder := l.readHolder()
			l.closeFile()
			return fmt.Errorf("write lock timeout after %v (holder: %s)", timeout, holder)
		}
		time.Sleep(wait)
	}
}

// release is a no-op when the lock is not held.
func (l *writeLocker) release() error {
	if l.lockFile == nil {
		return nil
	}
	l.lockFile.Truncate(0)
	l.unlock()
	l.closeFile()
	return nil
}

func (l *writeLocker) closeFile() {
	l.lockFile.Close()
	l.lockFile = nil
}

// recordHolder writes "pid:<pid>\ntime:<rfc3339>" for timeout diagnostics.
func (l *writeLocker) recordHolder() {
	l.lockFile.Truncate(0)
	l.lockFile.Seek(0, 0)
	fmt.Fprintf(l.lockFile, "pid:%d\ntime:%s\n", os.Getpid(), time.Now().Format(time.RFC3339))
	l.lockFile.Sync()
}

// readHolder describes the recorded holder, marking it stale when that
// process is gone.
func (l *writeLocker) readHolder() string {
	data, err := os.ReadFile(l.lockPath)
	if err != nil {
		return "unknown"
	}
	fields := map[string]string{}
	for _, line := range strings.Split(string(data), "\n") {
		if k, v, ok := strings.Cut(strings.TrimSpace(line), ":"); ok {
			fields[k] = v
		}
	}
	pid := fields["pid"]
	if pid == "" {
		return "unknown"
	}
	desc := fmt.Sprintf("pid:%s since %s", pid, fields["time"])
	if n, err := strconv.Atoi(pid); err == nil && !isProcessAlive(n) {
		desc += " (stale)"
	}
	return desc
}
