package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/custodia-labs/sercha-pulse/internal/core/domain"
	"github.com/custodia-labs/sercha-pulse/internal/core/ports/driven"
)

// Ensure tokenRefresher implements TokenRefresher
var _ driven.TokenRefresher = (*tokenRefresher)(nil)

// tokenRefresher exchanges refresh tokens through the provider's OAuth handler.
type tokenRefresher struct {
	handlers        driven.OAuthHandlerFactory
	configs         driven.ProviderConfigStore
	credentialStore driven.CredentialStore
	logger          *slog.Logger
}

// NewTokenRefresher creates a TokenRefresher that persists refreshed tokens.
func NewTokenRefresher(
	handlers driven.OAuthHandlerFactory,
	configs driven.ProviderConfigStore,
	credentialStore driven.CredentialStore,
	logger *slog.Logger,
) driven.TokenRefresher {
	if logger == nil {
		logger = slog.Default()
	}
	return &tokenRefresher{
		handlers:        handlers,
		configs:         configs,
		credentialStore: credentialStore,
		logger:          logger,
	}
}

// Refresh exchanges cred's refresh token and stores the new secrets.
// The previous refresh token is kept when the provider does not rotate it.
func (r *tokenRefresher) Refresh(ctx context.Context, cred *domain.Credential) (*domain.Credential, error) {
	if !cred.CanRefresh() {
		return nil, domain.ErrUnsupported
	}

	handler, err := r.handlers.OAuthHandler(cred.Provider)
	if err != nil {
		return nil, err
	}
	if !handler.SupportsRefresh() {
		return nil, domain.ErrUnsupported
	}

	cfg, err := r.configs.Get(ctx, cred.Provider)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("get provider config: %w", err)
	}
	if err := handler.Validate(cfg); err != nil {
		return nil, err
	}

	token, err := handler.RefreshToken(ctx, cfg, cred.RefreshToken)
	if err != nil {
		return nil, fmt.Errorf("refresh %s token: %w", cred.Provider, err)
	}

	updated := *cred
	updated.AccessToken = token.AccessToken
	if token.RefreshToken != "" {
		updated.RefreshToken = token.RefreshToken
	}
	updated.ExpiresAt = expiryFrom(token.ExpiresIn)

	if err := r.credentialStore.UpdateTokens(ctx, cred.UserID, cred.Provider, updated.Secrets(), updated.ExpiresAt); err != nil {
		return nil, fmt.Errorf("store refreshed tokens: %w", err)
	}

	r.logger.InfoContext(ctx, "refreshed provider token",
		"provider", cred.Provider, "user_id", cred.UserID, "rotated", token.RefreshToken != "")
	return &updated, nil
}
