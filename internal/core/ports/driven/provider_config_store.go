package driven

import (
	"context"

	"github.com/custodia-labs/sercha-pulse/internal/core/domain"
)

// ProviderConfigStore resolves OAuth app configuration per provider type.
type ProviderConfigStore interface {
	// Get retrieves provider config by type (with secrets).
	// Returns domain.ErrNotFound if the provider has no configuration.
	Get(ctx context.Context, providerType domain.ProviderType) (*domain.ProviderConfig, error)

	// List retrieves the configured provider types.
	List(ctx context.Context) ([]domain.ProviderType, error)
}
