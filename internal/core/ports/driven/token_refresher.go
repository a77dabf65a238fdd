package driven

import (
	"context"

	"github.com/custodia-labs/sercha-pulse/internal/core/domain"
)

// TokenRefresher exchanges a credential's refresh token for new tokens
// and persists them.
type TokenRefresher interface {
	// Refresh returns the updated credential.
	// Returns domain.ErrUnsupported if the credential or provider cannot refresh.
	Refresh(ctx context.Context, cred *domain.Credential) (*domain.Credential, error)
}
