package driven

import "github.com/custodia-labs/sercha-pulse/internal/core/domain"

// AuthAdapter handles API token cryptographic operations.
type AuthAdapter interface {
	GenerateToken(claims *domain.TokenClaims) (string, error)
	ParseToken(token string) (*domain.TokenClaims, error)
}

// StateSigner produces and verifies tamper-evident OAuth state tokens.
type StateSigner interface {
	// Sign encodes claims into an opaque signed token.
	Sign(claims *domain.OAuthStateClaims) (string, error)

	// Verify checks signature and expiry.
	// Returns domain.ErrTokenExpired or domain.ErrTokenInvalid on failure.
	Verify(token string) (*domain.OAuthStateClaims, error)
}
