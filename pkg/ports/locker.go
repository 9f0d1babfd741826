package ports

import (
	"context"
	"time"
)

// UnlockFunc releases a distributed lock.
type UnlockFunc func(ctx context.Context) error

// DistributedLocker coordinates per-conversation exclusion across replicas sharing a store.
type DistributedLocker interface {
	// Lock acquires the lock for key (a conversation id). It blocks until the lock is
	// acquired or ctx is done. The lock expires after ttl if never released.
	// The returned UnlockFunc must be called to release the lock.
	Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}
