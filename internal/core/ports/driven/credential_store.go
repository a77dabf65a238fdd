package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/sercha-pulse/internal/core/domain"
)

// CredentialStore persists one credential per (user, provider) with encrypted secrets.
type CredentialStore interface {
	// Upsert creates the credential or updates the existing row for the same
	// (user, provider) pair. The row is reactivated and cred.ID and timestamps
	// are set from the stored row.
	Upsert(ctx context.Context, cred *domain.Credential) error

	// Get retrieves the credential for a pair with decrypted secrets.
	// Returns domain.ErrNotFound if no row exists.
	Get(ctx context.Context, userID string, provider domain.ProviderType) (*domain.Credential, error)

	// ListActive retrieves the user's active credentials with decrypted secrets.
	ListActive(ctx context.Context, userID string) ([]*domain.Credential, error)

	// List retrieves all of the user's credentials as summaries (no secrets).
	List(ctx context.Context, userID string) ([]*domain.CredentialSummary, error)

	// Revoke deactivates the credential and clears its secrets. The row is kept.
	// Returns domain.ErrNotFound if no row exists.
	Revoke(ctx context.Context, userID string, provider domain.ProviderType) error

	// UpdateTokens replaces the secrets and expiry after a token refresh.
	// Returns domain.ErrNotFound if no active row exists, so a refresh
	// racing a disconnect cannot restore secrets on a revoked row.
	UpdateTokens(ctx context.Context, userID string, provider domain.ProviderType, secrets *domain.CredentialSecrets, expiry *time.Time) error
}
