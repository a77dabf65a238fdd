package config

import (
	"context"
	"errors"

	"github.com/custodia-labs/sercha-pulse/internal/core/domain"
	"github.com/custodia-labs/sercha-pulse/internal/core/ports/driven"
)

// Ensure the stores implement driven.ProviderConfigStore
var (
	_ driven.ProviderConfigStore = (*StaticProviderConfigStore)(nil)
	_ driven.ProviderConfigStore = (*ChainProviderConfigStore)(nil)
)

// StaticProviderConfigStore serves provider configs loaded at startup.
type StaticProviderConfigStore struct {
	configs map[domain.ProviderType]*domain.ProviderConfig
}

// NewStaticProviderConfigStore copies configs into a read-only store.
func NewStaticProviderConfigStore(configs map[domain.ProviderType]*domain.ProviderConfig) *StaticProviderConfigStore {
	s := &StaticProviderConfigStore{configs: make(map[domain.ProviderType]*domain.ProviderConfig, len(configs))}
	for p, pc := range configs {
		cp := *pc
		s.configs[p] = &cp
	}
	return s
}

// Get returns a copy of the config, or domain.ErrNotFound.
func (s *StaticProviderConfigStore) Get(ctx context.Context, providerType domain.ProviderType) (*domain.ProviderConfig, error) {
	pc, ok := s.configs[providerType]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *pc
	return &cp, nil
}

// List returns the provider types with a config, in canonical order.
func (s *StaticProviderConfigStore) List(ctx context.Context) ([]domain.ProviderType, error) {
	var out []domain.ProviderType
	for _, p := range domain.SupportedProviders() {
		if _, ok := s.configs[p]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

// ChainProviderConfigStore asks each store in turn. The first answer other
// than domain.ErrNotFound wins.
type ChainProviderConfigStore struct {
	stores []driven.ProviderConfigStore
}

// NewChainProviderConfigStore creates a chain; earlier stores take precedence.
func NewChainProviderConfigStore(stores ...driven.ProviderConfigStore) *ChainProviderConfigStore {
	return &ChainProviderConfigStore{stores: stores}
}

func (c *ChainProviderConfigStore) Get(ctx context.Context, providerType domain.ProviderType) (*domain.ProviderConfig, error) {
	for _, s := range c.stores {
		pc, err := s.Get(ctx, providerType)
		if errors.Is(err, domain.ErrNotFound) {
			continue
		}
		return pc, err
	}
	return nil, domain.ErrNotFound
}

// List returns the union of every store's providers, in canonical order.
func (c *ChainProviderConfigStore) List(ctx context.Context) ([]domain.ProviderType, error) {
	present := make(map[domain.ProviderType]bool)
	for _, s := range c.stores {
		types, err := s.List(ctx)
		if err != nil {
			return nil, err
		}
		for _, p := range types {
			present[p] = true
		}
	}

	var out []domain.ProviderType
	for _, p := range domain.SupportedProviders() {
		if present[p] {
			out = append(out, p)
		}
	}
	return out, nil
}
