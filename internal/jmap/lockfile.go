package jmap

import (
	"context"
	"time"

	"github.com/gofrs/flock"
	"github.com/gruntwork-io/partools/internal/errors"
	"github.com/gruntwork-io/partools/pkg/log"
)

// DefaultLockRetryDelay is how long to wait between two attempts to lock a map file.
const DefaultLockRetryDelay = 10 * time.Millisecond

// Lockfile is an exclusive advisory lock on a file.
type Lockfile struct {
	*flock.Flock
}

// NewLockfile returns an unlocked lock on filename.
func NewLockfile(filename string) *Lockfile {
	return &Lockfile{
		flock.New(filename),
	}
}

// Lock blocks until the lock is acquired or ctx is done.
func (lockfile *Lockfile) Lock(ctx context.Context, l log.Logger, retryDelay time.Duration) error {
	l.Tracef("Try to lock file %s", lockfile.Path())

	locked, err := lockfile.TryLockContext(ctx, retryDelay)
	if err != nil {
		return errors.WithStackTrace(err)
	}

	if !locked {
		return errors.Errorf("unable to lock file %q", lockfile.Path())
	}

	l.Tracef("Locked file %s", lockfile.Path())

	return nil
}

// Unlock releases the lock, logging a failure instead of returning it.
func (lockfile *Lockfile) Unlock(l log.Logger) {
	if err := lockfile.Flock.Unlock(); err != nil {
		l.Warnf("Failed to unlock file %s: %v", lockfile.Path(), err)
	}
}
