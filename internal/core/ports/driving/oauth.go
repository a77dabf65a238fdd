package driving

import (
	"context"

	"github.com/custodia-labs/sercha-pulse/internal/core/domain"
)

// OAuthService handles OAuth connection flows for communication providers.
// It manages the authorization flow, token exchange, and credential persistence.
type OAuthService interface {
	// Authorize starts an OAuth authorization flow.
	// Returns an authorization URL to redirect the user to, plus the nonce
	// the caller must place in an HTTP-only cookie.
	Authorize(ctx context.Context, req AuthorizeRequest) (*AuthorizeResponse, error)

	// Callback handles the OAuth callback from the provider.
	// It validates state, exchanges the code for tokens, resolves identity
	// and upserts the user's credential for the provider.
	Callback(ctx context.Context, req CallbackRequest) (*CallbackResponse, error)

	// Disconnect deactivates the user's credential for a provider and clears
	// its secrets. The row is kept for audit.
	Disconnect(ctx context.Context, userID string, provider domain.ProviderType) error

	// ListConnections returns the user's credentials, active or not.
	ListConnections(ctx context.Context, userID string) ([]*domain.CredentialSummary, error)

	// ListProviders returns the supported providers and their configuration status.
	ListProviders(ctx context.Context) ([]*domain.ProviderInfo, error)
}

// CallbackPath returns the route a provider redirects back to.
func CallbackPath(provider domain.ProviderType) string {
	return "/api/v1/oauth/" + string(provider) + "/callback"
}

// AuthorizeRequest represents a request to start an OAuth flow.
// @Description Request to start OAuth authorization flow
type AuthorizeRequest struct {
	// UserID is the authenticated local user.
	UserID string `json:"-"`

	// Provider is the OAuth provider (slack, zoom, etc.)
	Provider domain.ProviderType `json:"integrationId" example:"slack"`

	// Mode defaults to connect, or reconnect when a credential exists.
	Mode domain.ConnectMode `json:"mode,omitempty" example:"connect"`
}

// AuthorizeResponse contains the authorization URL and state.
// @Description Response containing the OAuth authorization URL
type AuthorizeResponse struct {
	// AuthorizationURL is the URL to redirect the user to for authorization.
	AuthorizationURL string `json:"authUrl" example:"https://slack.com/oauth/v2/authorize?client_id=..."`

	// IntegrationID echoes the requested provider.
	IntegrationID domain.ProviderType `json:"integrationId" example:"slack"`

	// State is the signed state token sent to the provider.
	State string `json:"-"`

	// Nonce binds the browser to the flow via an HTTP-only cookie.
	Nonce string `json:"-"`

	// ExpiresAt is when the authorization state expires (typically 10 minutes).
	ExpiresAt string `json:"expiresAt" example:"2024-01-15T10:10:00Z"`

	// Timestamp is when the flow was started.
	Timestamp string `json:"timestamp" example:"2024-01-15T10:00:00Z"`
}

// CallbackRequest represents the OAuth callback from the provider.
// @Description OAuth callback parameters from provider redirect
type CallbackRequest struct {
	// Provider is taken from the callback route, not from user input.
	Provider domain.ProviderType `json:"-"`

	// Code is the authorization code from the provider.
	Code string `json:"code" example:"abc123"`

	// State is the signed state token returned by the provider.
	State string `json:"state" example:"eyJhbGciOi..."`

	// CookieNonce is the nonce read from the flow cookie.
	CookieNonce string `json:"-"`

	// Error is set if the provider returned an error.
	Error string `json:"error,omitempty" example:"access_denied"`

	// ErrorDescription provides details about the error.
	ErrorDescription string `json:"error_description,omitempty" example:"The user denied access"`
}

// CallbackResponse contains the result of the OAuth callback.
// @Description Response after successful OAuth authorization
type CallbackResponse struct {
	// Credential is the stored credential summary.
	Credential *domain.CredentialSummary `json:"credential"`

	// UserName is the provider-side display name, best effort.
	UserName string `json:"user" example:"Alice"`

	// Organization is the provider-side workspace or organisation, best effort.
	Organization string `json:"organization" example:"Acme"`
}

// OAuthError represents an OAuth-specific error.
// Code is used verbatim as the error= parameter of the status page redirect.
type OAuthError struct {
	Code        string `json:"error" example:"state_invalid"`
	Description string `json:"error_description" example:"The state parameter is invalid or expired"`
	Err         error  `json:"-"`
}

func (e *OAuthError) Error() string {
	if e.Description != "" {
		return e.Code + ": " + e.Description
	}
	return e.Code
}

func (e *OAuthError) Unwrap() error {
	return e.Err
}

// Common OAuth errors
var (
	ErrOAuthConfigMissing  = &OAuthError{Code: "config_missing", Description: "The provider is not configured", Err: domain.ErrConfiguration}
	ErrOAuthInvalidState   = &OAuthError{Code: "state_invalid", Description: "The state parameter is invalid or expired", Err: domain.ErrStateMismatch}
	ErrOAuthExchangeFailed = &OAuthError{Code: "token_exchange_failed", Description: "Failed to exchange authorization code for tokens", Err: domain.ErrTokenExchange}
	ErrOAuthUserInfoFailed = &OAuthError{Code: "user_info_failed", Description: "Failed to fetch user information", Err: domain.ErrIdentityLookup}
	ErrOAuthPersistFailed  = &OAuthError{Code: "persist_failed", Description: "Failed to store the connection"}
)
