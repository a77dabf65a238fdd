package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/custodia-labs/sercha-pulse/internal/core/ports/driven"
)

// janitorLockName is the distributed lock guarding one cleanup cycle.
const janitorLockName = "oauth-state-cleanup"

// Janitor periodically removes expired OAuth states.
// Stores with native expiry (Redis) make each cycle a no-op.
//
// For multi-instance deployments, configure a DistributedLock so only one
// instance sweeps per cycle.
type Janitor struct {
	states driven.OAuthStateStore
	lock   driven.DistributedLock
	logger *slog.Logger

	mu       sync.Mutex
	running  bool
	stopCh   chan struct{}
	doneCh   chan struct{}
	interval time.Duration
	lockTTL  time.Duration
}

// JanitorConfig holds configuration for the janitor.
type JanitorConfig struct {
	States   driven.OAuthStateStore
	Lock     driven.DistributedLock // Optional
	Logger   *slog.Logger
	Interval time.Duration // default: 5m
	LockTTL  time.Duration // default: 1m
}

// NewJanitor creates a new janitor.
func NewJanitor(cfg JanitorConfig) *Janitor {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	interval := cfg.Interval
	if interval == 0 {
		interval = 5 * time.Minute
	}

	lockTTL := cfg.LockTTL
	if lockTTL == 0 {
		lockTTL = time.Minute
	}

	return &Janitor{
		states:   cfg.States,
		lock:     cfg.Lock,
		logger:   logger.With("component", "janitor"),
		interval: interval,
		lockTTL:  lockTTL,
	}
}

// Start begins the cleanup loop. It runs until Stop is called or ctx is
// cancelled.
func (j *Janitor) Start(ctx context.Context) {
	j.mu.Lock()
	if j.running {
		j.mu.Unlock()
		return
	}
	j.running = true
	j.stopCh = make(chan struct{})
	j.doneCh = make(chan struct{})
	j.mu.Unlock()

	j.logger.Info("janitor starting", "interval", j.interval)

	go j.run(ctx)
}

// Stop stops the loop and waits for the current cycle to finish.
func (j *Janitor) Stop() {
	j.mu.Lock()
	if !j.running {
		j.mu.Unlock()
		return
	}
	close(j.stopCh)
	done := j.doneCh
	j.mu.Unlock()

	<-done

	j.mu.Lock()
	j.running = false
	j.mu.Unlock()

	j.logger.Info("janitor stopped")
}

func (j *Janitor) run(ctx context.Context) {
	defer close(j.doneCh)

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.Sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			j.logger.Info("janitor context cancelled")
			return
		case <-j.stopCh:
			return
		case <-ticker.C:
			j.Sweep(ctx)
		}
	}
}

// Sweep runs one cleanup cycle. It reports whether cleanup ran on this
// instance.
func (j *Janitor) Sweep(ctx context.Context) bool {
	if j.lock != nil {
		acquired, err := j.lock.Acquire(ctx, janitorLockName, j.lockTTL)
		if err != nil {
			j.logger.Warn("failed to acquire janitor lock", "error", err)
			return false
		}
		if !acquired {
			j.logger.Debug("janitor lock held by another instance, skipping cycle", j.holderAttr(ctx)...)
			return false
		}
		defer func() {
			if err := j.lock.Release(ctx, janitorLockName); err != nil {
				j.logger.Warn("failed to release janitor lock", "error", err)
			}
		}()
	}

	start := time.Now()
	if err := j.states.Cleanup(ctx); err != nil {
		j.logger.Error("oauth state cleanup failed", "error", err)
		return false
	}
	j.logger.Debug("oauth state cleanup complete", "duration", time.Since(start))
	return true
}

// holderAttr names the instance holding the janitor lock when the lock can
// report it.
func (j *Janitor) holderAttr(ctx context.Context) []any {
	h, ok := j.lock.(driven.LockHolder)
	if !ok {
		return nil
	}
	holder, err := h.Holder(ctx, janitorLockName)
	if err != nil || holder == "" {
		return nil
	}
	return []any{"holder", holder}
}
