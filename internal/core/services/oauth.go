package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/sercha-pulse/internal/core/domain"
	"github.com/custodia-labs/sercha-pulse/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-pulse/internal/core/ports/driving"
)

// Ensure oauthService implements OAuthService
var _ driving.OAuthService = (*oauthService)(nil)

// DefaultStateTTL bounds how long an authorization flow may take.
const DefaultStateTTL = 10 * time.Minute

// unknownTeam is stored when the provider's organisation cannot be resolved.
const unknownTeam = "unknown"

// OAuthServiceConfig holds configuration for the OAuth service.
type OAuthServiceConfig struct {
	// ProviderConfigStore retrieves OAuth app credentials.
	ProviderConfigStore driven.ProviderConfigStore

	// OAuthStateStore holds the single-use nonce of each pending flow.
	OAuthStateStore driven.OAuthStateStore

	// CredentialStore persists one credential per (user, provider).
	CredentialStore driven.CredentialStore

	// Handlers provides OAuth handlers per provider.
	Handlers driven.OAuthHandlerFactory

	// StateSigner signs the state parameter.
	StateSigner driven.StateSigner

	// Events receives connect and disconnect events. Optional.
	Events driven.EventPublisher

	Logger *slog.Logger

	// BaseURL is the public base URL the provider redirects back to.
	// Example: "https://pulse.example.com" or "http://localhost:8080"
	BaseURL string

	// StateTTL defaults to DefaultStateTTL.
	StateTTL time.Duration
}

// oauthService implements the OAuthService interface.
type oauthService struct {
	providerConfigStore driven.ProviderConfigStore
	oauthStateStore     driven.OAuthStateStore
	credentialStore     driven.CredentialStore
	handlers            driven.OAuthHandlerFactory
	stateSigner         driven.StateSigner
	events              driven.EventPublisher
	logger              *slog.Logger
	baseURL             string
	stateTTL            time.Duration
}

// NewOAuthService creates a new OAuth service.
func NewOAuthService(cfg OAuthServiceConfig) driving.OAuthService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	ttl := cfg.StateTTL
	if ttl <= 0 {
		ttl = DefaultStateTTL
	}
	return &oauthService{
		providerConfigStore: cfg.ProviderConfigStore,
		oauthStateStore:     cfg.OAuthStateStore,
		credentialStore:     cfg.CredentialStore,
		handlers:            cfg.Handlers,
		stateSigner:         cfg.StateSigner,
		events:              cfg.Events,
		logger:              logger.With("component", "oauth"),
		baseURL:             cfg.BaseURL,
		stateTTL:            ttl,
	}
}

// Authorize starts an OAuth authorization flow.
// It stores a single-use nonce, signs the state and returns the authorization URL.
func (s *oauthService) Authorize(ctx context.Context, req driving.AuthorizeRequest) (*driving.AuthorizeResponse, error) {
	if !req.Provider.IsSupported() {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedProvider, req.Provider)
	}
	if req.UserID == "" {
		return nil, domain.ErrUnauthorized
	}
	s.stage(ctx, domain.StageStarted, req.Provider, req.UserID)

	handler, cfg, err := s.resolve(ctx, req.Provider)
	if err != nil {
		s.stage(ctx, domain.StageConfigMissing, req.Provider, req.UserID, "error", err)
		return nil, err
	}

	if req.Mode != "" && !req.Mode.IsValid() {
		return nil, fmt.Errorf("%w: unknown mode %q", domain.ErrInvalidInput, req.Mode)
	}

	mode := req.Mode
	if mode == "" {
		mode = domain.ConnectModeConnect
		if existing, err := s.credentialStore.Get(ctx, req.UserID, req.Provider); err == nil && existing.IsActive {
			mode = domain.ConnectModeReconnect
		}
	}

	nonce, err := generateRandomString(32)
	if err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}

	var codeVerifier, codeChallenge string
	if handler.SupportsPKCE() {
		codeVerifier, err = generateRandomString(64)
		if err != nil {
			return nil, fmt.Errorf("generate code verifier: %w", err)
		}
		codeChallenge = generateCodeChallenge(codeVerifier)
	}

	now := time.Now()
	expiresAt := now.Add(s.stateTTL)
	redirectURI := s.baseURL + driving.CallbackPath(req.Provider)

	oauthState := &driven.OAuthState{
		Nonce:        nonce,
		UserID:       req.UserID,
		ProviderType: req.Provider,
		Mode:         mode,
		CodeVerifier: codeVerifier,
		RedirectURI:  redirectURI,
		CreatedAt:    now,
		ExpiresAt:    expiresAt,
	}
	if err := s.oauthStateStore.Save(ctx, oauthState); err != nil {
		return nil, fmt.Errorf("save oauth state: %w", err)
	}

	state, err := s.stateSigner.Sign(&domain.OAuthStateClaims{
		UserID:    req.UserID,
		Provider:  req.Provider,
		Mode:      mode,
		Nonce:     nonce,
		IssuedAt:  now.Unix(),
		ExpiresAt: expiresAt.Unix(),
	})
	if err != nil {
		return nil, fmt.Errorf("sign state: %w", err)
	}

	authURL := handler.BuildAuthURL(cfg, redirectURI, state, codeChallenge)
	s.stage(ctx, domain.StageAwaitingProviderRedirect, req.Provider, req.UserID, "mode", mode)

	return &driving.AuthorizeResponse{
		AuthorizationURL: authURL,
		IntegrationID:    req.Provider,
		State:            state,
		Nonce:            nonce,
		ExpiresAt:        expiresAt.UTC().Format(time.RFC3339),
		Timestamp:        now.UTC().Format(time.RFC3339),
	}, nil
}

// Callback handles the OAuth callback from the provider.
// It validates state, exchanges the code for tokens and upserts the credential.
func (s *oauthService) Callback(ctx context.Context, req driving.CallbackRequest) (*driving.CallbackResponse, error) {
	// Check for error from provider
	if req.Error != "" {
		s.logger.InfoContext(ctx, "provider returned error",
			"provider", req.Provider, "error", req.Error, "description", req.ErrorDescription)
		return nil, &driving.OAuthError{
			Code:        req.Error,
			Description: req.ErrorDescription,
		}
	}

	oauthState, err := s.consumeState(ctx, req)
	if err != nil {
		s.stage(ctx, domain.StageStateInvalid, req.Provider, "", "error", err)
		return nil, err
	}
	userID := oauthState.UserID
	s.stage(ctx, domain.StageCodeReceived, req.Provider, userID)

	handler, cfg, err := s.resolve(ctx, req.Provider)
	if err != nil {
		s.stage(ctx, domain.StageConfigMissing, req.Provider, userID, "error", err)
		return nil, err
	}

	if req.Code == "" {
		s.stage(ctx, domain.StageTokenExchangeFailed, req.Provider, userID, "error", "missing code")
		return nil, driving.ErrOAuthExchangeFailed
	}

	// Exchange code for tokens
	token, err := handler.ExchangeCode(ctx, cfg, req.Code, oauthState.RedirectURI, oauthState.CodeVerifier)
	if err != nil {
		s.stage(ctx, domain.StageTokenExchangeFailed, req.Provider, userID, "error", err)
		return nil, &driving.OAuthError{
			Code:        driving.ErrOAuthExchangeFailed.Code,
			Description: driving.ErrOAuthExchangeFailed.Description,
			Err:         err,
		}
	}
	s.stage(ctx, domain.StageTokenExchanged, req.Provider, userID)

	// Resolve the provider-side identity
	userInfo, err := handler.GetUserInfo(ctx, cfg, token)
	if err != nil {
		if handler.IdentityRequired() {
			s.stage(ctx, domain.StageUserInfoFailed, req.Provider, userID, "error", err)
			return nil, &driving.OAuthError{
				Code:        driving.ErrOAuthUserInfoFailed.Code,
				Description: driving.ErrOAuthUserInfoFailed.Description,
				Err:         err,
			}
		}
		s.stage(ctx, domain.StageIdentityUnknown, req.Provider, userID, "error", err)
		userInfo = &driven.OAuthUserInfo{}
	} else {
		s.stage(ctx, domain.StageIdentityResolved, req.Provider, userID, "team", userInfo.TeamName)
	}

	cred := &domain.Credential{
		UserID:           userID,
		Provider:         req.Provider,
		AccessToken:      token.AccessToken,
		RefreshToken:     token.RefreshToken,
		Scopes:           domain.ParseScopes(token.Scope),
		TokenType:        token.TokenType,
		ExpiresAt:        expiryFrom(token.ExpiresIn),
		ExternalTeamID:   userInfo.TeamID,
		ExternalTeamName: userInfo.TeamName,
		ExternalUserID:   userInfo.ID,
		ExternalUserName: firstNonEmpty(userInfo.Name, userInfo.Email),
	}
	if cred.ExternalTeamName == "" {
		cred.ExternalTeamName = unknownTeam
	}

	// Providers may omit the refresh token on re-authorisation.
	if cred.RefreshToken == "" {
		if existing, err := s.credentialStore.Get(ctx, userID, req.Provider); err == nil {
			cred.RefreshToken = existing.RefreshToken
		}
	}

	if err := s.credentialStore.Upsert(ctx, cred); err != nil {
		s.logger.ErrorContext(ctx, "persist credential failed",
			"provider", req.Provider, "user_id", userID, "error", err)
		return nil, &driving.OAuthError{
			Code:        driving.ErrOAuthPersistFailed.Code,
			Description: driving.ErrOAuthPersistFailed.Description,
			Err:         err,
		}
	}
	s.stage(ctx, domain.StagePersisted, req.Provider, userID, "mode", oauthState.Mode, "credential_id", cred.ID)

	s.publish(ctx, domain.EventIntegrationConnected, userID, req.Provider, cred.ExternalTeamName)

	return &driving.CallbackResponse{
		Credential:   cred.ToSummary(),
		UserName:     firstNonEmpty(userInfo.Name, userInfo.Email, userInfo.ID),
		Organization: cred.ExternalTeamName,
	}, nil
}

// consumeState verifies the signed state against the route and cookie, then
// consumes its nonce. Every failure maps to ErrOAuthInvalidState.
func (s *oauthService) consumeState(ctx context.Context, req driving.CallbackRequest) (*driven.OAuthState, error) {
	if req.State == "" {
		return nil, driving.ErrOAuthInvalidState
	}
	claims, err := s.stateSigner.Verify(req.State)
	if err != nil {
		return nil, invalidState(err)
	}
	if claims.Provider != req.Provider {
		return nil, invalidState(fmt.Errorf("state issued for %s", claims.Provider))
	}
	if claims.Nonce == "" || claims.Nonce != req.CookieNonce {
		return nil, invalidState(errors.New("nonce does not match cookie"))
	}

	// Validate and consume state (single-use)
	oauthState, err := s.oauthStateStore.GetAndDelete(ctx, claims.Nonce)
	if err != nil {
		return nil, fmt.Errorf("get oauth state: %w", err)
	}
	if oauthState == nil {
		return nil, invalidState(errors.New("nonce unknown, expired or already used"))
	}
	if oauthState.UserID != claims.UserID || oauthState.ProviderType != claims.Provider {
		return nil, invalidState(errors.New("stored state does not match claims"))
	}
	return oauthState, nil
}

func invalidState(cause error) error {
	return &driving.OAuthError{
		Code:        driving.ErrOAuthInvalidState.Code,
		Description: driving.ErrOAuthInvalidState.Description,
		Err:         fmt.Errorf("%w: %v", domain.ErrStateMismatch, cause),
	}
}

// resolve returns the provider's handler and validated app config.
func (s *oauthService) resolve(ctx context.Context, provider domain.ProviderType) (driven.OAuthHandler, *domain.ProviderConfig, error) {
	handler, err := s.handlers.OAuthHandler(provider)
	if err != nil {
		return nil, nil, err
	}

	cfg, err := s.providerConfigStore.Get(ctx, provider)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, nil, fmt.Errorf("get provider config: %w", err)
	}
	if err := handler.Validate(cfg); err != nil {
		return nil, nil, driving.ErrOAuthConfigMissing
	}
	return handler, cfg, nil
}

// Disconnect deactivates the credential and clears its secrets.
func (s *oauthService) Disconnect(ctx context.Context, userID string, provider domain.ProviderType) error {
	if !provider.IsSupported() {
		return fmt.Errorf("%w: %s", domain.ErrUnsupportedProvider, provider)
	}
	if err := s.credentialStore.Revoke(ctx, userID, provider); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "integration disconnected", "provider", provider, "user_id", userID)
	s.publish(ctx, domain.EventIntegrationDisconnected, userID, provider, "")
	return nil
}

// ListConnections returns every credential row of the user.
func (s *oauthService) ListConnections(ctx context.Context, userID string) ([]*domain.CredentialSummary, error) {
	summaries, err := s.credentialStore.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list credentials: %w", err)
	}
	if summaries == nil {
		summaries = []*domain.CredentialSummary{}
	}
	return summaries, nil
}

// ListProviders returns the provider catalogue in canonical order.
func (s *oauthService) ListProviders(ctx context.Context) ([]*domain.ProviderInfo, error) {
	var out []*domain.ProviderInfo
	for _, p := range domain.SupportedProviders() {
		handler, err := s.handlers.OAuthHandler(p)
		if err != nil {
			continue
		}
		info := handler.Info()
		cfg, err := s.providerConfigStore.Get(ctx, p)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("get provider config: %w", err)
		}
		info.Configured = handler.Validate(cfg) == nil
		out = append(out, &info)
	}
	return out, nil
}

// stage logs a connect-flow transition.
func (s *oauthService) stage(ctx context.Context, stage domain.ConnectStage, provider domain.ProviderType, userID string, attrs ...any) {
	args := append([]any{"stage", stage, "provider", provider, "user_id", userID}, attrs...)
	if stage.IsTerminalFailure() {
		s.logger.WarnContext(ctx, "oauth connect failed", args...)
		return
	}
	s.logger.InfoContext(ctx, "oauth connect", args...)
}

func (s *oauthService) publish(ctx context.Context, typ domain.IntegrationEventType, userID string, provider domain.ProviderType, team string) {
	if s.events == nil {
		return
	}
	event := &domain.IntegrationEvent{
		ID:         uuid.NewString(),
		Type:       typ,
		UserID:     userID,
		Provider:   provider,
		TeamName:   team,
		OccurredAt: time.Now().UTC(),
	}
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "publish integration event failed",
			"event", typ, "provider", provider, "error", err)
	}
}

// generateRandomString generates a cryptographically secure random string.
func generateRandomString(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes)[:length], nil
}

// generateCodeChallenge creates a PKCE code challenge from a verifier (S256 method).
func generateCodeChallenge(verifier string) string {
	hash := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(hash[:])
}

// expiryFrom converts a token's expires_in into an absolute time.
func expiryFrom(expiresIn int) *time.Time {
	if expiresIn <= 0 {
		return nil
	}
	t := time.Now().Add(time.Duration(expiresIn) * time.Second)
	return &t
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
