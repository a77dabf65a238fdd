package mocks

import (
	"context"
	"fmt"
	"net/url"
	"sync"

	"github.com/custodia-labs/sercha-pulse/internal/core/domain"
	"github.com/custodia-labs/sercha-pulse/internal/core/ports/driven"
)

// Ensure MockOAuthHandler implements OAuthHandler
var _ driven.OAuthHandler = (*MockOAuthHandler)(nil)

// MockOAuthHandler is a configurable OAuthHandler.
// Zero-value fields produce a working flow that issues "access-<code>" tokens.
type MockOAuthHandler struct {
	Provider domain.ProviderType
	PKCE     bool
	Refresh  bool
	// IdentityOptional lets the flow continue when GetUserInfo fails.
	IdentityOptional bool

	Token       *driven.OAuthToken
	ExchangeErr error
	RefreshFn   func(refreshToken string) (*driven.OAuthToken, error)
	UserInfo    *driven.OAuthUserInfo
	UserInfoErr error

	mu            sync.Mutex
	exchanges     []string
	codeVerifiers []string
	refreshes     int
}

func (m *MockOAuthHandler) BuildAuthURL(cfg *domain.ProviderConfig, redirectURI, state, codeChallenge string) string {
	q := url.Values{
		"client_id":    {cfg.ClientID},
		"redirect_uri": {redirectURI},
		"state":        {state},
	}
	if codeChallenge != "" {
		q.Set("code_challenge", codeChallenge)
		q.Set("code_challenge_method", "S256")
	}
	return fmt.Sprintf("https://%s.example.com/oauth/authorize?%s", m.Provider, q.Encode())
}

func (m *MockOAuthHandler) ExchangeCode(ctx context.Context, cfg *domain.ProviderConfig, code, redirectURI, codeVerifier string) (*driven.OAuthToken, error) {
	m.mu.Lock()
	m.exchanges = append(m.exchanges, code)
	m.codeVerifiers = append(m.codeVerifiers, codeVerifier)
	m.mu.Unlock()

	if m.ExchangeErr != nil {
		return nil, m.ExchangeErr
	}
	if m.Token != nil {
		t := *m.Token
		return &t, nil
	}
	return &driven.OAuthToken{
		AccessToken:  "access-" + code,
		RefreshToken: "refresh-" + code,
		ExpiresIn:    3600,
		TokenType:    "Bearer",
		Scope:        "read",
	}, nil
}

func (m *MockOAuthHandler) RefreshToken(ctx context.Context, cfg *domain.ProviderConfig, refreshToken string) (*driven.OAuthToken, error) {
	m.mu.Lock()
	m.refreshes++
	m.mu.Unlock()

	if m.RefreshFn != nil {
		return m.RefreshFn(refreshToken)
	}
	return &driven.OAuthToken{AccessToken: "refreshed-access", ExpiresIn: 3600, TokenType: "Bearer"}, nil
}

func (m *MockOAuthHandler) GetUserInfo(ctx context.Context, cfg *domain.ProviderConfig, token *driven.OAuthToken) (*driven.OAuthUserInfo, error) {
	if m.UserInfoErr != nil {
		return nil, m.UserInfoErr
	}
	if m.UserInfo != nil {
		u := *m.UserInfo
		return &u, nil
	}
	return &driven.OAuthUserInfo{ID: "U1", Name: "Alice", Email: "alice@acme.test", TeamID: "T1", TeamName: "Acme"}, nil
}

func (m *MockOAuthHandler) SupportsPKCE() bool     { return m.PKCE }
func (m *MockOAuthHandler) SupportsRefresh() bool  { return m.Refresh }
func (m *MockOAuthHandler) IdentityRequired() bool { return !m.IdentityOptional }

func (m *MockOAuthHandler) Validate(cfg *domain.ProviderConfig) error {
	if !cfg.HasCredentials() {
		return domain.ErrConfiguration
	}
	return nil
}

func (m *MockOAuthHandler) Info() domain.ProviderInfo {
	return domain.ProviderInfo{Type: m.Provider, Name: string(m.Provider), Style: "oauth2"}
}

// Exchanges returns the codes passed to ExchangeCode.
func (m *MockOAuthHandler) Exchanges() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.exchanges...)
}

// CodeVerifiers returns the PKCE verifiers passed to ExchangeCode.
func (m *MockOAuthHandler) CodeVerifiers() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.codeVerifiers...)
}

// Refreshes returns the number of RefreshToken calls.
func (m *MockOAuthHandler) Refreshes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.refreshes
}

// Ensure MockOAuthHandlerFactory implements OAuthHandlerFactory
var _ driven.OAuthHandlerFactory = (*MockOAuthHandlerFactory)(nil)

// MockOAuthHandlerFactory returns handlers from a map.
type MockOAuthHandlerFactory struct {
	Handlers map[domain.ProviderType]*MockOAuthHandler
}

// NewMockOAuthHandlerFactory registers one default handler per provider.
func NewMockOAuthHandlerFactory(providers ...domain.ProviderType) *MockOAuthHandlerFactory {
	f := &MockOAuthHandlerFactory{Handlers: make(map[domain.ProviderType]*MockOAuthHandler)}
	for _, p := range providers {
		f.Handlers[p] = &MockOAuthHandler{Provider: p}
	}
	return f
}

func (f *MockOAuthHandlerFactory) OAuthHandler(p domain.ProviderType) (driven.OAuthHandler, error) {
	h, ok := f.Handlers[p]
	if !ok {
		return nil, domain.ErrUnsupportedProvider
	}
	return h, nil
}
