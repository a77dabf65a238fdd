package driven

import (
	"context"
	"time"
)

// DistributedLock provides distributed locking for coordinating work across instances.
// The janitor uses it so only one instance sweeps expired OAuth states per cycle.
type DistributedLock interface {
	// Acquire attempts to acquire a named lock with the given TTL.
	// Returns true if the lock was successfully acquired, false if already held by another instance.
	// The lock will automatically expire after TTL (implementation dependent).
	Acquire(ctx context.Context, name string, ttl time.Duration) (acquired bool, err error)

	// Release releases a named lock.
	// This is best-effort; implementations with TTL will auto-expire anyway.
	// Safe to call even if the lock is not held or has expired.
	Release(ctx context.Context, name string) error

	// Ping checks if the lock backend is healthy.
	Ping(ctx context.Context) error
}

// LockHolder is implemented by locks that can name the instance holding a
// lock. The janitor logs it when it skips a cycle.
type LockHolder interface {
	// Holder returns the holding instance, or "" when the lock is free.
	Holder(ctx context.Context, name string) (string, error)
}
