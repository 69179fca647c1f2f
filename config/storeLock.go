package config

import (
	"context"
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// ErrStoreBusy is returned when the store lock cannot be acquired within the
// configured wait. Callers surface it as a "server busy" result instead of
// queueing indefinitely.
var ErrStoreBusy = errors.New("server is busy, please try again")

// storeLock serializes every logical request against the record store.
// A buffered channel of size one gives us a mutex we can wait on with a
// deadline; sync.Mutex has no bounded acquire.
var storeLock = make(chan struct{}, 1)

const defaultStoreLockWait = 30 * time.Second

func storeLockWait() time.Duration {
	v := strings.TrimSpace(os.Getenv("STORE_LOCK_WAIT_SECONDS"))
	if v == "" {
		return defaultStoreLockWait
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return defaultStoreLockWait
	}
	return time.Duration(n) * time.Second
}

// AcquireStoreLock blocks until the store lock is held, the wait elapses, or
// ctx is cancelled. On success the returned release func MUST be called on
// every exit path (defer it immediately).
func AcquireStoreLock(ctx context.Context) (func(), error) {
	timer := time.NewTimer(storeLockWait())
	defer timer.Stop()

	select {
	case storeLock <- struct{}{}:
		return func() { <-storeLock }, nil
	case <-timer.C:
		return nil, ErrStoreBusy
	case <-ctx.Done():
		return nil, ErrStoreBusy
	}
}
