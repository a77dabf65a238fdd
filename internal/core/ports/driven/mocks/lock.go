package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/custodia-labs/sercha-pulse/internal/core/ports/driven"
)

// Ensure MockDistributedLock implements DistributedLock
var _ driven.DistributedLock = (*MockDistributedLock)(nil)

// MockDistributedLock is an in-process DistributedLock. Locks never expire.
type MockDistributedLock struct {
	mu   sync.Mutex
	held map[string]bool

	AcquireErr error
	ReleaseErr error
	releases   int
}

// NewMockDistributedLock creates a new MockDistributedLock
func NewMockDistributedLock() *MockDistributedLock {
	return &MockDistributedLock{held: make(map[string]bool)}
}

func (m *MockDistributedLock) Acquire(ctx context.Context, name string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.AcquireErr != nil {
		return false, m.AcquireErr
	}
	if m.held[name] {
		return false, nil
	}
	m.held[name] = true
	return true, nil
}

func (m *MockDistributedLock) Release(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.releases++
	delete(m.held, name)
	return m.ReleaseErr
}

func (m *MockDistributedLock) Ping(ctx context.Context) error {
	return nil
}

// Hold marks name as held by another instance.
func (m *MockDistributedLock) Hold(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.held[name] = true
}

// Held reports whether name is currently held.
func (m *MockDistributedLock) Held(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.held[name]
}

// Releases returns the number of Release calls.
func (m *MockDistributedLock) Releases() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.releases
}
