package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/sercha-pulse/internal/core/domain"
)

// OAuthState represents a pending OAuth authorization flow.
// It is keyed by the nonce embedded in the signed state token and mirrored
// in an HTTP-only cookie, so a callback must present all three.
type OAuthState struct {
	// Nonce is a cryptographically random string used for CSRF protection.
	Nonce string

	// UserID is the local user who started the flow.
	UserID string

	// ProviderType is the OAuth provider (slack, zoom, etc.)
	ProviderType domain.ProviderType

	// Mode records whether this is a first connection or a re-authorisation.
	Mode domain.ConnectMode

	// CodeVerifier is the PKCE code verifier (plain text, not hashed).
	// Empty for providers without PKCE support.
	CodeVerifier string

	// RedirectURI is the callback URL where the provider will redirect.
	RedirectURI string

	// CreatedAt is when the state was created.
	CreatedAt time.Time

	// ExpiresAt is when the state expires (typically 10 minutes).
	ExpiresAt time.Time
}

// OAuthStateStore manages OAuth flow state for CSRF protection.
// States are single-use and expire after a short period.
type OAuthStateStore interface {
	// Save stores a new OAuth state.
	Save(ctx context.Context, state *OAuthState) error

	// GetAndDelete atomically retrieves and deletes the state.
	// This ensures single-use semantics.
	// Returns nil, nil if the state doesn't exist or has expired.
	GetAndDelete(ctx context.Context, nonce string) (*OAuthState, error)

	// Cleanup removes expired states.
	// Stores with native expiry may implement this as a no-op.
	Cleanup(ctx context.Context) error
}
