package mocks

import (
	"context"

	"github.com/custodia-labs/sercha-pulse/internal/core/domain"
	"github.com/custodia-labs/sercha-pulse/internal/core/ports/driven"
)

// Ensure MockProviderAdapter implements ProviderAdapter
var _ driven.ProviderAdapter = (*MockProviderAdapter)(nil)

// MockProviderAdapter delegates to optional function fields.
// Unset listing functions return no records.
type MockProviderAdapter struct {
	Provider domain.ProviderType
	Caps     domain.Capabilities

	ListContainersFn  func(ctx context.Context, cred *domain.Credential) ([]*domain.Container, error)
	ListMessagesFn    func(ctx context.Context, cred *domain.Credential, c *domain.Container, opts driven.ListOptions) ([]domain.RawRecord, error)
	ListMeetingsFn    func(ctx context.Context, cred *domain.Credential, opts driven.ListOptions) ([]domain.RawRecord, error)
	CollectMessagesFn func(ctx context.Context, cred *domain.Credential, opts driven.ListOptions) ([]domain.RawRecord, error)
}

func (m *MockProviderAdapter) Type() domain.ProviderType { return m.Provider }

func (m *MockProviderAdapter) Capabilities() domain.Capabilities { return m.Caps }

func (m *MockProviderAdapter) ListContainers(ctx context.Context, cred *domain.Credential) ([]*domain.Container, error) {
	if m.ListContainersFn != nil {
		return m.ListContainersFn(ctx, cred)
	}
	return nil, nil
}

func (m *MockProviderAdapter) ListMessages(ctx context.Context, cred *domain.Credential, c *domain.Container, opts driven.ListOptions) ([]domain.RawRecord, error) {
	if m.ListMessagesFn != nil {
		return m.ListMessagesFn(ctx, cred, c, opts)
	}
	return nil, nil
}

func (m *MockProviderAdapter) ListMeetings(ctx context.Context, cred *domain.Credential, opts driven.ListOptions) ([]domain.RawRecord, error) {
	if !m.Caps.Meetings {
		return nil, domain.ErrUnsupported
	}
	if m.ListMeetingsFn != nil {
		return m.ListMeetingsFn(ctx, cred, opts)
	}
	return nil, nil
}

func (m *MockProviderAdapter) CollectMessages(ctx context.Context, cred *domain.Credential, opts driven.ListOptions) ([]domain.RawRecord, error) {
	if !m.Caps.Messages {
		return nil, domain.ErrUnsupported
	}
	if m.CollectMessagesFn != nil {
		return m.CollectMessagesFn(ctx, cred, opts)
	}
	return nil, nil
}

// MockAdapterRegistry is a static ProviderAdapterRegistry.
type MockAdapterRegistry struct {
	Adapters map[domain.ProviderType]driven.ProviderAdapter
}

// NewMockAdapterRegistry registers the given adapters by their type.
func NewMockAdapterRegistry(adapters ...driven.ProviderAdapter) *MockAdapterRegistry {
	r := &MockAdapterRegistry{Adapters: make(map[domain.ProviderType]driven.ProviderAdapter)}
	for _, a := range adapters {
		r.Adapters[a.Type()] = a
	}
	return r
}

func (r *MockAdapterRegistry) Adapter(p domain.ProviderType) (driven.ProviderAdapter, bool) {
	a, ok := r.Adapters[p]
	return a, ok
}

func (r *MockAdapterRegistry) Providers() []domain.ProviderType {
	var out []domain.ProviderType
	for _, p := range domain.SupportedProviders() {
		if _, ok := r.Adapters[p]; ok {
			out = append(out, p)
		}
	}
	return out
}
