package mocks

import (
	"context"
	"sync"

	"github.com/custodia-labs/sercha-pulse/internal/core/domain"
	"github.com/custodia-labs/sercha-pulse/internal/core/ports/driven"
)

// Ensure MockProviderConfigStore implements ProviderConfigStore
var _ driven.ProviderConfigStore = (*MockProviderConfigStore)(nil)

// MockProviderConfigStore is an in-memory ProviderConfigStore.
type MockProviderConfigStore struct {
	mu      sync.RWMutex
	configs map[domain.ProviderType]*domain.ProviderConfig
}

// NewMockProviderConfigStore stores the given configs by provider type.
func NewMockProviderConfigStore(configs ...*domain.ProviderConfig) *MockProviderConfigStore {
	m := &MockProviderConfigStore{configs: make(map[domain.ProviderType]*domain.ProviderConfig)}
	for _, c := range configs {
		m.configs[c.ProviderType] = c
	}
	return m
}

// Set adds or replaces a config.
func (m *MockProviderConfigStore) Set(cfg *domain.ProviderConfig) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.configs[cfg.ProviderType] = cfg
}

func (m *MockProviderConfigStore) Get(ctx context.Context, p domain.ProviderType) (*domain.ProviderConfig, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cfg, ok := m.configs[p]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cfg, nil
}

func (m *MockProviderConfigStore) List(ctx context.Context) ([]domain.ProviderType, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []domain.ProviderType
	for _, p := range domain.SupportedProviders() {
		if _, ok := m.configs[p]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}
