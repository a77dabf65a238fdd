package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/custodia-labs/sercha-pulse/internal/core/domain"
	"github.com/custodia-labs/sercha-pulse/internal/core/ports/driven"
)

// Ensure StateSigner implements driven.StateSigner
var _ driven.StateSigner = (*StateSigner)(nil)

// stateAudience keeps state tokens from being accepted as API tokens.
const stateAudience = "oauth-state"

type stateClaims struct {
	UserID   string              `json:"uid"`
	Provider domain.ProviderType `json:"prv"`
	Mode     domain.ConnectMode  `json:"mode"`
	Nonce    string              `json:"nonce"`
	jwt.RegisteredClaims
}

// StateSigner signs OAuth state parameters as compact HS256 JWTs.
type StateSigner struct {
	key []byte
}

// NewStateSigner creates a signer. key should come from DeriveKey.
func NewStateSigner(key []byte) *StateSigner {
	return &StateSigner{key: key}
}

// Sign encodes claims into a signed token.
func (s *StateSigner) Sign(claims *domain.OAuthStateClaims) (string, error) {
	sc := stateClaims{
		UserID:   claims.UserID,
		Provider: claims.Provider,
		Mode:     claims.Mode,
		Nonce:    claims.Nonce,
		RegisteredClaims: jwt.RegisteredClaims{
			Audience:  jwt.ClaimStrings{stateAudience},
			IssuedAt:  jwt.NewNumericDate(time.Unix(claims.IssuedAt, 0)),
			ExpiresAt: jwt.NewNumericDate(time.Unix(claims.ExpiresAt, 0)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, sc).SignedString(s.key)
}

// Verify checks signature, audience and expiry.
func (s *StateSigner) Verify(token string) (*domain.OAuthStateClaims, error) {
	var sc stateClaims
	_, err := jwt.ParseWithClaims(token, &sc, hmacKey(s.key),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(stateAudience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, mapJWTError(err)
	}

	claims := &domain.OAuthStateClaims{
		UserID:   sc.UserID,
		Provider: sc.Provider,
		Mode:     sc.Mode,
		Nonce:    sc.Nonce,
	}
	if sc.IssuedAt != nil {
		claims.IssuedAt = sc.IssuedAt.Unix()
	}
	claims.ExpiresAt = sc.ExpiresAt.Unix()
	return claims, nil
}
