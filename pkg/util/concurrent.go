package util

import (
	"golang.org/x/sync/semaphore"
)

// ReleaseSemaphore returns a deferred-release func for n units of sem.
// Release panics when it exceeds what was acquired, which a cancelled Acquire
// makes reachable during shutdown, so the release is recover-guarded.
func ReleaseSemaphore(sem *semaphore.Weighted, n int64) func() {
	return func() {
		defer func() {
			_ = recover()
		}()
		sem.Release(n)
	}
}
