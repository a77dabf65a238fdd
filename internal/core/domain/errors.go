package domain

import "errors"

// Domain errors - used across all layers
var (
	// ErrNotFound indicates the requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates the input is invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthorized indicates authentication failed or missing
	ErrUnauthorized = errors.New("unauthorized")

	// ErrTokenExpired indicates the auth token has expired
	ErrTokenExpired = errors.New("token expired")

	// ErrTokenInvalid indicates the auth token is malformed or invalid
	ErrTokenInvalid = errors.New("token invalid")

	// ErrUnsupportedProvider indicates the provider tag is not one we integrate with
	ErrUnsupportedProvider = errors.New("unsupported provider")

	// ErrConfiguration indicates missing OAuth app settings for a provider.
	// Fatal to that provider's connect flow only.
	ErrConfiguration = errors.New("configuration error")

	// ErrStateMismatch indicates a missing, tampered, stale or replayed OAuth state
	ErrStateMismatch = errors.New("state mismatch")

	// ErrTokenExchange indicates the provider rejected the authorization code
	ErrTokenExchange = errors.New("token exchange failed")

	// ErrIdentityLookup indicates the provider user-info call failed
	ErrIdentityLookup = errors.New("identity lookup failed")

	// ErrProviderFetch indicates a provider listing call failed
	ErrProviderFetch = errors.New("provider fetch failed")

	// ErrProviderUnauthorized indicates the provider rejected the stored credential (401)
	ErrProviderUnauthorized = errors.New("provider rejected credential")

	// ErrNormalization indicates a raw provider record could not be mapped
	ErrNormalization = errors.New("normalization failed")

	// ErrNotAMeeting indicates a calendar event without conferencing details
	ErrNotAMeeting = errors.New("not a meeting")

	// ErrUnsupported indicates the provider does not expose the requested entity
	ErrUnsupported = errors.New("operation not supported by provider")
)
