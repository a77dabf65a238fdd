package connectors

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/custodia-labs/sercha-pulse/internal/core/domain"
	"github.com/custodia-labs/sercha-pulse/internal/core/ports/driven"
)

// Ensure OAuthHandler implements the interface.
var _ driven.OAuthHandler = (*OAuthHandler)(nil)

// OAuthHandler performs the OAuth authorization-code flow for one provider,
// driven by its strategy table row.
type OAuthHandler struct {
	spec       Spec
	api        providerAPI
	httpClient *http.Client
	logger     *slog.Logger
}

// BuildAuthURL constructs the provider's authorization URL.
func (h *OAuthHandler) BuildAuthURL(cfg *domain.ProviderConfig, redirectURI, state, codeChallenge string) string {
	params := url.Values{
		"client_id":     {cfg.ClientID},
		"redirect_uri":  {redirectURI},
		"state":         {state},
		"response_type": {"code"},
	}
	if scopes := h.spec.scopes(cfg); len(scopes) > 0 {
		params.Set(h.spec.scopeParam(), strings.Join(scopes, h.spec.scopeSeparator()))
	}
	for k, v := range h.spec.ExtraAuthParams {
		params.Set(k, v)
	}
	if h.spec.SupportsPKCE && codeChallenge != "" {
		params.Set("code_challenge", codeChallenge)
		params.Set("code_challenge_method", "S256")
	}
	return h.spec.resolve(h.spec.AuthURL, cfg) + "?" + params.Encode()
}

// ExchangeCode exchanges an authorization code for tokens.
func (h *OAuthHandler) ExchangeCode(ctx context.Context, cfg *domain.ProviderConfig, code, redirectURI, codeVerifier string) (*driven.OAuthToken, error) {
	params := url.Values{
		"grant_type":   {"authorization_code"},
		"code":         {code},
		"redirect_uri": {redirectURI},
	}
	if codeVerifier != "" && h.spec.SupportsPKCE {
		params.Set("code_verifier", codeVerifier)
	}
	return h.tokenRequest(ctx, cfg, params, "token exchange")
}

// RefreshToken refreshes an expired access token.
func (h *OAuthHandler) RefreshToken(ctx context.Context, cfg *domain.ProviderConfig, refreshToken string) (*driven.OAuthToken, error) {
	if !h.spec.SupportsRefresh {
		return nil, domain.ErrUnsupported
	}
	params := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
	}
	return h.tokenRequest(ctx, cfg, params, "token refresh")
}

// tokenResponse covers the standard token response plus Slack's
// ok/authed_user/team envelope.
type tokenResponse struct {
	OK           *bool  `json:"ok"`
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	Scope        string `json:"scope"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	Error        string `json:"error"`
	ErrorDesc    string `json:"error_description"`

	AuthedUser *struct {
		ID           string `json:"id"`
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		ExpiresIn    int    `json:"expires_in"`
		Scope        string `json:"scope"`
		TokenType    string `json:"token_type"`
	} `json:"authed_user"`
	Team *struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"team"`
}

func (h *OAuthHandler) tokenRequest(ctx context.Context, cfg *domain.ProviderConfig, params url.Values, op string) (*driven.OAuthToken, error) {
	if h.spec.TokenAuth != AuthStyleBasic {
		params.Set("client_id", cfg.ClientID)
		params.Set("client_secret", cfg.ClientSecret)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		h.spec.resolve(h.spec.TokenURL, cfg),
		strings.NewReader(params.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	if h.spec.TokenAuth == AuthStyleBasic {
		req.SetBasicAuth(cfg.ClientID, cfg.ClientSecret)
	}

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: do request: %v", domain.ErrTokenExchange, h.spec.Type, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: read response: %v", domain.ErrTokenExchange, h.spec.Type, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: %s %s failed (%d): %s", domain.ErrTokenExchange, h.spec.Type, op, resp.StatusCode, string(body))
	}

	var tokenResp tokenResponse
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return nil, fmt.Errorf("%w: %s: decode response: %v", domain.ErrTokenExchange, h.spec.Type, err)
	}

	if tokenResp.Error != "" || (tokenResp.OK != nil && !*tokenResp.OK) {
		return nil, fmt.Errorf("%w: %s: oauth error: %s - %s", domain.ErrTokenExchange, h.spec.Type, tokenResp.Error, tokenResp.ErrorDesc)
	}

	token := &driven.OAuthToken{
		AccessToken:  tokenResp.AccessToken,
		RefreshToken: tokenResp.RefreshToken,
		TokenType:    tokenResp.TokenType,
		Scope:        tokenResp.Scope,
		ExpiresIn:    tokenResp.ExpiresIn,
		Extra:        make(map[string]string),
	}

	// Slack user-token installs return the user token under authed_user.
	if u := tokenResp.AuthedUser; u != nil {
		token.Extra["user_id"] = u.ID
		if u.AccessToken != "" {
			token.AccessToken = u.AccessToken
			token.RefreshToken = u.RefreshToken
			token.ExpiresIn = u.ExpiresIn
			token.Scope = u.Scope
			token.TokenType = u.TokenType
		}
	}
	if t := tokenResp.Team; t != nil {
		token.Extra["team_id"] = t.ID
		token.Extra["team_name"] = t.Name
	}

	if token.AccessToken == "" {
		return nil, fmt.Errorf("%w: %s: response carried no access token", domain.ErrTokenExchange, h.spec.Type)
	}
	if token.TokenType == "" {
		token.TokenType = "Bearer"
	}
	return token, nil
}

// GetUserInfo resolves the identity behind a freshly issued token.
func (h *OAuthHandler) GetUserInfo(ctx context.Context, cfg *domain.ProviderConfig, token *driven.OAuthToken) (*driven.OAuthUserInfo, error) {
	c := &apiClient{
		provider:      h.spec.Type,
		httpClient:    h.httpClient,
		baseURL:       h.spec.resolve(h.spec.APIBaseURL, cfg),
		identityURL:   h.spec.IdentityURL,
		authorization: "Bearer " + token.AccessToken,
		logger:        h.logger,
	}
	info, err := h.api.identity(ctx, c, token)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrIdentityLookup, h.spec.Type, err)
	}
	return info, nil
}

// SupportsPKCE reports whether the provider accepts code_challenge.
func (h *OAuthHandler) SupportsPKCE() bool { return h.spec.SupportsPKCE }

// SupportsRefresh reports whether the provider issues refresh tokens.
func (h *OAuthHandler) SupportsRefresh() bool { return h.spec.SupportsRefresh }

// IdentityRequired reports whether a failed identity lookup aborts the connection.
func (h *OAuthHandler) IdentityRequired() bool { return h.spec.IdentityRequired }

// Validate checks cfg against the provider's configuration needs.
func (h *OAuthHandler) Validate(cfg *domain.ProviderConfig) error { return h.spec.Validate(cfg) }

// Info describes the provider.
func (h *OAuthHandler) Info() domain.ProviderInfo {
	return domain.ProviderInfo{
		Type:         h.spec.Type,
		Name:         h.spec.Name,
		Style:        h.spec.Style,
		Capabilities: h.spec.Capabilities,
	}
}

// Spec returns the strategy table row backing this handler.
func (h *OAuthHandler) Spec() Spec { return h.spec }
