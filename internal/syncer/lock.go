package syncer

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
)

const (
	lockName   = ".classpub.lock"
	markerName = ".sync-in-progress"
)

// ErrLockBusy reports that another sync holds the single-writer lock.
// Callers map it to exit code 75.
var ErrLockBusy = errors.New("another sync is already running")

// AcquireLock takes the single-writer advisory lock at the workspace root.
// The kernel releases it when the process dies, so a crashed run never
// wedges the next one. clean shares this lock so it cannot race a sync.
func AcquireLock(root string) (*flock.Flock, error) {
	lock := flock.New(filepath.Join(root, lockName))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire sync lock: %w", err)
	}
	if !locked {
		return nil, ErrLockBusy
	}
	return lock, nil
}

// marker is the crash breadcrumb a sync leaves while running. Finding one
// at startup means the previous run did not finish.
type marker struct {
	path string
}

func newMarker(root string) marker {
	return marker{path: filepath.Join(root, markerName)}
}

// stale reports whether a marker exists and how old it is. A marker whose
// timestamp cannot be parsed counts as older than any TTL.
func (m marker) stale(ttl time.Duration) (exists, isStale bool) {
	data, err := os.ReadFile(m.path)
	if err != nil {
		return false, false
	}
	for _, line := range strings.Split(string(data), "\n") {
		value, ok := strings.CutPrefix(line, "time: ")
		if !ok {
			continue
		}
		when, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(value))
		if err != nil {
			break
		}
		return true, time.Since(when) > ttl
	}
	return true, true
}

func (m marker) write() error {
	content := fmt.Sprintf("id: %s\npid: %d\ntime: %s\n",
		uuid.NewString(), os.Getpid(), time.Now().UTC().Format(time.RFC3339Nano))
	return os.WriteFile(m.path, []byte(content), 0o644)
}

func (m marker) remove() {
	_ = os.Remove(m.path)
}
