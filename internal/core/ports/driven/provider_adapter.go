package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/sercha-pulse/internal/core/domain"
)

// ProviderAdapter reads raw data from one integrated provider.
// Every call attaches the provider's auth header and follows its pagination.
type ProviderAdapter interface {
	// Type returns the provider this adapter serves.
	Type() domain.ProviderType

	// Capabilities reports which unified entities the provider can produce.
	Capabilities() domain.Capabilities

	// ListContainers lists the provider's channels, rooms, guild channels or teams.
	ListContainers(ctx context.Context, cred *domain.Credential) ([]*domain.Container, error)

	// ListMessages lists raw messages of one container.
	ListMessages(ctx context.Context, cred *domain.Credential, container *domain.Container, opts ListOptions) ([]domain.RawRecord, error)

	// ListMeetings lists raw meetings. Returns domain.ErrUnsupported for
	// providers without meeting data.
	ListMeetings(ctx context.Context, cred *domain.Credential, opts ListOptions) ([]domain.RawRecord, error)

	// CollectMessages scans containers under the adapter's scan policy and
	// returns their messages. A failing container is logged and skipped; a
	// failing container listing or rejected credential fails the call.
	CollectMessages(ctx context.Context, cred *domain.Credential, opts ListOptions) ([]domain.RawRecord, error)
}

// ListOptions bounds a single listing call.
type ListOptions struct {
	Since *time.Time
	Until *time.Time
	Limit int
}

// ProviderAdapterRegistry resolves adapters by provider type.
type ProviderAdapterRegistry interface {
	// Adapter returns nil, false if the provider has no adapter.
	Adapter(provider domain.ProviderType) (ProviderAdapter, bool)

	// Providers returns the registered provider types in canonical order.
	Providers() []domain.ProviderType
}

// Pacer waits between successive calls to the same provider.
// Tests inject a fake that records the requested delays.
type Pacer interface {
	// Pause blocks for d or until ctx is done.
	Pause(ctx context.Context, d time.Duration) error
}
