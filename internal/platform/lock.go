package platform

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

// LockFileName is the advisory lock taken by mutating operations.
const LockFileName = ".birdtracker.lock"

// ErrLocked is returned when another process holds the project lock.
var ErrLocked = errors.New("another birdtracker process holds the project lock")

const lockRetryDelay = 50 * time.Millisecond

// acquireLock takes the exclusive project lock, waiting up to timeout.
// The returned function releases it.
func acquireLock(ctx context.Context, root string, timeout time.Duration) (func() error, error) {
	fl := flock.New(filepath.Join(root, LockFileName))

	var (
		ok  bool
		err error
	)
	if timeout <= 0 {
		ok, err = fl.TryLock()
	} else {
		lockCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		ok, err = fl.TryLockContext(lockCtx, lockRetryDelay)
		if err != nil && errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			err = nil
		}
	}
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, ErrLocked
	}
	return fl.Unlock, nil
}
