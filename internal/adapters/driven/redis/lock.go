package redis

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/custodia-labs/sercha-pulse/internal/core/ports/driven"
)

var (
	_ driven.DistributedLock = (*Lock)(nil)
	_ driven.LockHolder      = (*Lock)(nil)
)

// janitorKeyPrefix namespaces janitor task locks, for example
// "sercha-pulse:janitor:oauth-state-cleanup".
const janitorKeyPrefix = "sercha-pulse:janitor:"

// Lock serialises janitor tasks across instances. A task key holds the id of
// the instance running the task and expires after the TTL, so a crashed
// instance cannot block cleanup for longer than one TTL.
type Lock struct {
	client   *redis.Client
	instance string
}

// NewLock creates a janitor lock for this process.
func NewLock(client *redis.Client) *Lock {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "unknown-host"
	}
	return &Lock{
		client:   client,
		instance: host + "/" + uuid.NewString(),
	}
}

// Instance returns the id written into the task keys this lock holds.
func (l *Lock) Instance() string {
	return l.instance
}

func taskKey(task string) string {
	return janitorKeyPrefix + task
}

// acquireScript takes a free task, or renews the TTL when this instance
// already holds it. An instance whose previous release failed can therefore
// run the next cycle without waiting for the key to expire.
var acquireScript = redis.NewScript(`
	local holder = redis.call("get", KEYS[1])
	if not holder then
		redis.call("set", KEYS[1], ARGV[1], "PX", ARGV[2])
		return 1
	end
	if holder == ARGV[1] then
		redis.call("pexpire", KEYS[1], ARGV[2])
		return 1
	end
	return 0
`)

// releaseScript deletes the task key only while this instance holds it.
var releaseScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	end
	return 0
`)

// Acquire claims task for ttl. It returns false while another instance runs
// the task.
func (l *Lock) Acquire(ctx context.Context, task string, ttl time.Duration) (bool, error) {
	if ttl < time.Millisecond {
		return false, fmt.Errorf("acquire janitor task %s: ttl %s too short", task, ttl)
	}
	n, err := acquireScript.Run(ctx, l.client, []string{taskKey(task)}, l.instance, ttl.Milliseconds()).Int()
	if err != nil {
		return false, fmt.Errorf("acquire janitor task %s: %w", task, err)
	}
	return n == 1, nil
}

// Release frees task if this instance holds it. Releasing a task held by
// another instance, or an expired one, is a no-op.
func (l *Lock) Release(ctx context.Context, task string) error {
	err := releaseScript.Run(ctx, l.client, []string{taskKey(task)}, l.instance).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("release janitor task %s: %w", task, err)
	}
	return nil
}

// Holder returns the instance running task, or "" when it is free.
func (l *Lock) Holder(ctx context.Context, task string) (string, error) {
	holder, err := l.client.Get(ctx, taskKey(task)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read janitor task %s: %w", task, err)
	}
	return holder, nil
}

// Ping checks the Redis connection. It doubles as the readiness check.
func (l *Lock) Ping(ctx context.Context) error {
	return l.client.Ping(ctx).Err()
}
