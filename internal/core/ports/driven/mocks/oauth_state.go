package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/custodia-labs/sercha-pulse/internal/core/ports/driven"
)

// Ensure MockOAuthStateStore implements OAuthStateStore
var _ driven.OAuthStateStore = (*MockOAuthStateStore)(nil)

// MockOAuthStateStore is an in-memory OAuthStateStore.
type MockOAuthStateStore struct {
	mu     sync.Mutex
	states map[string]*driven.OAuthState
}

// NewMockOAuthStateStore creates a new MockOAuthStateStore
func NewMockOAuthStateStore() *MockOAuthStateStore {
	return &MockOAuthStateStore{
		states: make(map[string]*driven.OAuthState),
	}
}

func (m *MockOAuthStateStore) Save(ctx context.Context, state *driven.OAuthState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[state.Nonce] = state
	return nil
}

func (m *MockOAuthStateStore) GetAndDelete(ctx context.Context, nonce string) (*driven.OAuthState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.states[nonce]
	if !ok {
		return nil, nil
	}
	delete(m.states, nonce)
	if time.Now().After(s.ExpiresAt) {
		return nil, nil
	}
	return s, nil
}

func (m *MockOAuthStateStore) Cleanup(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	for k, v := range m.states {
		if now.After(v.ExpiresAt) {
			delete(m.states, k)
		}
	}
	return nil
}

// Len returns the number of pending states.
func (m *MockOAuthStateStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.states)
}
