package ports

import (
	"context"
	"time"
)

// UnlockFunc releases a lock taken with DistributedLocker.Lock.
type UnlockFunc func(ctx context.Context) error

// DistributedLocker serializes a wizard session across replicas sharing one cache,
// so two requests never navigate the same session at once.
type DistributedLocker interface {
	// Lock blocks until the session key is held or ctx is done. The lock expires after
	// ttl if the holder dies; the returned UnlockFunc must be called otherwise.
	Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}
