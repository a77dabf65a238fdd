package driven

import (
	"context"

	"github.com/custodia-labs/sercha-pulse/internal/core/domain"
)

// OAuthHandler performs the provider side of the authorization-code flow.
type OAuthHandler interface {
	// BuildAuthURL constructs the authorization URL the user is redirected to.
	// codeChallenge is empty for providers without PKCE support.
	BuildAuthURL(cfg *domain.ProviderConfig, redirectURI, state, codeChallenge string) string

	// ExchangeCode exchanges an authorization code for tokens.
	// Returns an error wrapping domain.ErrTokenExchange on rejection.
	ExchangeCode(ctx context.Context, cfg *domain.ProviderConfig, code, redirectURI, codeVerifier string) (*OAuthToken, error)

	// RefreshToken refreshes an expired access token.
	RefreshToken(ctx context.Context, cfg *domain.ProviderConfig, refreshToken string) (*OAuthToken, error)

	// GetUserInfo resolves the identity behind a freshly issued token.
	// Returns an error wrapping domain.ErrIdentityLookup when the primary
	// lookup fails; secondary organisation lookups are best effort.
	GetUserInfo(ctx context.Context, cfg *domain.ProviderConfig, token *OAuthToken) (*OAuthUserInfo, error)

	// SupportsPKCE reports whether the provider accepts code_challenge.
	SupportsPKCE() bool

	// SupportsRefresh reports whether the provider issues refresh tokens.
	SupportsRefresh() bool

	// IdentityRequired reports whether a failed identity lookup must abort
	// the connection.
	IdentityRequired() bool

	// Validate returns domain.ErrConfiguration when cfg lacks client
	// credentials, or a tenant or base URL the provider needs.
	Validate(cfg *domain.ProviderConfig) error

	// Info describes the provider. Configured is left false.
	Info() domain.ProviderInfo
}

// OAuthHandlerFactory returns the OAuth handler for a provider.
type OAuthHandlerFactory interface {
	// OAuthHandler returns domain.ErrUnsupportedProvider for unknown providers.
	OAuthHandler(provider domain.ProviderType) (OAuthHandler, error)
}

// OAuthToken represents OAuth tokens from a provider.
type OAuthToken struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int    // Seconds until expiry
	TokenType    string // Usually "Bearer"
	Scope        string

	// Extra carries identity hints some providers return with the token
	// (e.g. Slack team id/name, authed user id).
	Extra map[string]string
}

// OAuthUserInfo represents the identity resolved after token exchange.
type OAuthUserInfo struct {
	ID       string // Provider-specific user ID
	Email    string
	Name     string
	TeamID   string
	TeamName string
}
