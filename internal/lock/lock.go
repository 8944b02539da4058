// Package lock provides the single-instance lock that keeps two drydock
// processes from racing on host-wide state: volume-group free space,
// snapshot names, and MAC/name uniqueness are all read-then-act, so only
// one engine may run per host at a time.
package lock

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// Guard holds the acquired lock until Release is called. Callers must
// release it on every exit path, typically via defer immediately after
// Acquire succeeds.
type Guard struct {
	fl *flock.Flock
}

// Acquire takes the single-instance lock at path, failing loudly if another
// drydock process already holds it.
func Acquire(path string) (*Guard, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}

	fl := flock.New(path)
	locked, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lock %s: %w", path, err)
	}
	if !locked {
		return nil, fmt.Errorf("lock %s is already held: another drydock operation is running on this host", path)
	}
	return &Guard{fl: fl}, nil
}

// Release drops the lock. Safe to call once per Guard.
func (g *Guard) Release() error {
	if g == nil || g.fl == nil {
		return nil
	}
	if err := g.fl.Unlock(); err != nil {
		return fmt.Errorf("failed to release lock: %w", err)
	}
	return nil
}
