package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"testing"

	"github.com/custodia-labs/sercha-pulse/internal/core/domain"
	"github.com/custodia-labs/sercha-pulse/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-pulse/internal/core/ports/driven/mocks"
	"github.com/custodia-labs/sercha-pulse/internal/core/ports/driving"
)

type oauthFixture struct {
	svc      driving.OAuthService
	configs  *mocks.MockProviderConfigStore
	states   *mocks.MockOAuthStateStore
	creds    *mocks.MockCredentialStore
	handlers *mocks.MockOAuthHandlerFactory
	events   *mocks.MockEventPublisher
}

func newOAuthFixture(t *testing.T) *oauthFixture {
	t.Helper()
	f := &oauthFixture{
		configs: mocks.NewMockProviderConfigStore(
			&domain.ProviderConfig{ProviderType: domain.ProviderTypeSlack, ClientID: "slack-id", ClientSecret: "slack-secret"},
			&domain.ProviderConfig{ProviderType: domain.ProviderTypeZoom, ClientID: "zoom-id", ClientSecret: "zoom-secret"},
		),
		states:   mocks.NewMockOAuthStateStore(),
		creds:    mocks.NewMockCredentialStore(),
		handlers: mocks.NewMockOAuthHandlerFactory(domain.SupportedProviders()...),
		events:   &mocks.MockEventPublisher{},
	}
	f.svc = NewOAuthService(OAuthServiceConfig{
		ProviderConfigStore: f.configs,
		OAuthStateStore:     f.states,
		CredentialStore:     f.creds,
		Handlers:            f.handlers,
		StateSigner:         &mocks.MockStateSigner{},
		Events:              f.events,
		Logger:              slog.New(slog.NewTextHandler(io.Discard, nil)),
		BaseURL:             "http://localhost:8080",
	})
	return f
}

// connect runs a full authorize and callback round trip.
func (f *oauthFixture) connect(t *testing.T, userID string, provider domain.ProviderType, code string) (*driving.CallbackResponse, error) {
	t.Helper()
	auth, err := f.svc.Authorize(context.Background(), driving.AuthorizeRequest{UserID: userID, Provider: provider})
	if err != nil {
		t.Fatalf("Authorize() error = %v", err)
	}
	return f.svc.Callback(context.Background(), driving.CallbackRequest{
		Provider:    provider,
		Code:        code,
		State:       auth.State,
		CookieNonce: auth.Nonce,
	})
}

func oauthErrorCode(err error) string {
	var oauthErr *driving.OAuthError
	if errors.As(err, &oauthErr) {
		return oauthErr.Code
	}
	return ""
}

func TestOAuthService_Authorize(t *testing.T) {
	f := newOAuthFixture(t)

	resp, err := f.svc.Authorize(context.Background(), driving.AuthorizeRequest{
		UserID:   "user-1",
		Provider: domain.ProviderTypeSlack,
	})
	if err != nil {
		t.Fatalf("Authorize() error = %v", err)
	}

	if resp.IntegrationID != domain.ProviderTypeSlack {
		t.Errorf("IntegrationID = %s, want slack", resp.IntegrationID)
	}
	if resp.State == "" || resp.Nonce == "" {
		t.Fatal("Authorize() returned empty state or nonce")
	}
	if resp.ExpiresAt == "" || resp.Timestamp == "" {
		t.Error("Authorize() should set ExpiresAt and Timestamp")
	}

	u, err := url.Parse(resp.AuthorizationURL)
	if err != nil {
		t.Fatalf("AuthorizationURL not parseable: %v", err)
	}
	q := u.Query()
	if q.Get("state") != resp.State {
		t.Error("AuthorizationURL should carry the signed state")
	}
	if q.Get("redirect_uri") != "http://localhost:8080/api/v1/oauth/slack/callback" {
		t.Errorf("redirect_uri = %s", q.Get("redirect_uri"))
	}
	if q.Get("code_challenge") != "" {
		t.Error("code_challenge should be absent for providers without PKCE")
	}
	if f.states.Len() != 1 {
		t.Errorf("pending states = %d, want 1", f.states.Len())
	}
}

func TestOAuthService_Authorize_PKCE(t *testing.T) {
	f := newOAuthFixture(t)
	f.handlers.Handlers[domain.ProviderTypeZoom].PKCE = true

	resp, err := f.svc.Authorize(context.Background(), driving.AuthorizeRequest{UserID: "user-1", Provider: domain.ProviderTypeZoom})
	if err != nil {
		t.Fatalf("Authorize() error = %v", err)
	}
	u, _ := url.Parse(resp.AuthorizationURL)
	challenge := u.Query().Get("code_challenge")
	if challenge == "" {
		t.Fatal("code_challenge missing for PKCE provider")
	}

	_, err = f.svc.Callback(context.Background(), driving.CallbackRequest{
		Provider: domain.ProviderTypeZoom, Code: "c", State: resp.State, CookieNonce: resp.Nonce,
	})
	if err != nil {
		t.Fatalf("Callback() error = %v", err)
	}
	verifiers := f.handlers.Handlers[domain.ProviderTypeZoom].CodeVerifiers()
	if len(verifiers) != 1 || generateCodeChallenge(verifiers[0]) != challenge {
		t.Error("code verifier passed to exchange does not match the challenge")
	}
}

func TestOAuthService_Authorize_ConfigMissing(t *testing.T) {
	f := newOAuthFixture(t)

	_, err := f.svc.Authorize(context.Background(), driving.AuthorizeRequest{
		UserID:   "user-1",
		Provider: domain.ProviderTypeDiscord,
	})
	if !errors.Is(err, domain.ErrConfiguration) {
		t.Errorf("Authorize() error = %v, want ErrConfiguration", err)
	}
	if oauthErrorCode(err) != "config_missing" {
		t.Errorf("error code = %q, want config_missing", oauthErrorCode(err))
	}
	if f.states.Len() != 0 {
		t.Error("no state should be stored when config is missing")
	}
}

func TestOAuthService_Authorize_UnsupportedProvider(t *testing.T) {
	f := newOAuthFixture(t)

	_, err := f.svc.Authorize(context.Background(), driving.AuthorizeRequest{UserID: "user-1", Provider: "github"})
	if !errors.Is(err, domain.ErrUnsupportedProvider) {
		t.Errorf("Authorize() error = %v, want ErrUnsupportedProvider", err)
	}
}

func TestOAuthService_Authorize_InvalidMode(t *testing.T) {
	f := newOAuthFixture(t)

	_, err := f.svc.Authorize(context.Background(), driving.AuthorizeRequest{
		UserID:   "user-1",
		Provider: domain.ProviderTypeSlack,
		Mode:     "sideways",
	})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("Authorize() error = %v, want ErrInvalidInput", err)
	}
}

func TestOAuthService_Authorize_DefaultsToReconnect(t *testing.T) {
	f := newOAuthFixture(t)
	if _, err := f.connect(t, "user-1", domain.ProviderTypeSlack, "first"); err != nil {
		t.Fatalf("connect error = %v", err)
	}

	resp, err := f.svc.Authorize(context.Background(), driving.AuthorizeRequest{UserID: "user-1", Provider: domain.ProviderTypeSlack})
	if err != nil {
		t.Fatalf("Authorize() error = %v", err)
	}
	claims, err := (&mocks.MockStateSigner{}).Verify(resp.State)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if claims.Mode != domain.ConnectModeReconnect {
		t.Errorf("mode = %s, want reconnect", claims.Mode)
	}
}

func TestOAuthService_Callback_Success(t *testing.T) {
	f := newOAuthFixture(t)

	resp, err := f.connect(t, "user-1", domain.ProviderTypeSlack, "code-1")
	if err != nil {
		t.Fatalf("Callback() error = %v", err)
	}
	if resp.Organization != "Acme" || resp.UserName != "Alice" {
		t.Errorf("identity = %q/%q, want Alice/Acme", resp.UserName, resp.Organization)
	}
	if !resp.Credential.IsActive || !resp.Credential.HasRefreshToken {
		t.Error("credential should be active with a refresh token")
	}

	cred, err := f.creds.Get(context.Background(), "user-1", domain.ProviderTypeSlack)
	if err != nil {
		t.Fatalf("credential not stored: %v", err)
	}
	if cred.AccessToken != "access-code-1" {
		t.Errorf("AccessToken = %s, want access-code-1", cred.AccessToken)
	}
	if cred.ExpiresAt == nil {
		t.Error("ExpiresAt should be set from expires_in")
	}

	events := f.events.Events()
	if len(events) != 1 || events[0].Type != domain.EventIntegrationConnected {
		t.Fatalf("events = %+v, want one connected event", events)
	}
	if events[0].ID == "" || events[0].TeamName != "Acme" {
		t.Errorf("event = %+v", events[0])
	}
}

func TestOAuthService_Callback_StoresGrantedScopes(t *testing.T) {
	f := newOAuthFixture(t)
	f.handlers.Handlers[domain.ProviderTypeSlack].Token = &driven.OAuthToken{
		AccessToken: "xoxp-1",
		TokenType:   "Bearer",
		Scope:       "channels:read,channels:history",
	}

	resp, err := f.connect(t, "user-1", domain.ProviderTypeSlack, "code-1")
	if err != nil {
		t.Fatalf("Callback() error = %v", err)
	}

	want := []string{"channels:read", "channels:history"}
	cred, _ := f.creds.Get(context.Background(), "user-1", domain.ProviderTypeSlack)
	for name, got := range map[string][]string{"stored": cred.Scopes, "summary": resp.Credential.Scopes} {
		if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
			t.Errorf("%s scopes = %v, want %v", name, got, want)
		}
	}
}

func TestOAuthService_Callback_ReconnectUpdatesInPlace(t *testing.T) {
	f := newOAuthFixture(t)

	first, err := f.connect(t, "user-1", domain.ProviderTypeSlack, "a")
	if err != nil {
		t.Fatalf("first connect error = %v", err)
	}
	second, err := f.connect(t, "user-1", domain.ProviderTypeSlack, "b")
	if err != nil {
		t.Fatalf("second connect error = %v", err)
	}

	if f.creds.Count() != 1 {
		t.Errorf("rows = %d, want 1", f.creds.Count())
	}
	if first.Credential.ID != second.Credential.ID {
		t.Error("reconnect should keep the credential id")
	}
	cred, _ := f.creds.Get(context.Background(), "user-1", domain.ProviderTypeSlack)
	if cred.AccessToken != "access-b" {
		t.Errorf("AccessToken = %s, want access-b", cred.AccessToken)
	}
}

func TestOAuthService_Callback_KeepsRefreshTokenWhenOmitted(t *testing.T) {
	f := newOAuthFixture(t)
	if _, err := f.connect(t, "user-1", domain.ProviderTypeSlack, "a"); err != nil {
		t.Fatalf("connect error = %v", err)
	}

	f.handlers.Handlers[domain.ProviderTypeSlack].Token = &driven.OAuthToken{AccessToken: "access-b", TokenType: "Bearer"}
	if _, err := f.connect(t, "user-1", domain.ProviderTypeSlack, "b"); err != nil {
		t.Fatalf("reconnect error = %v", err)
	}

	cred, _ := f.creds.Get(context.Background(), "user-1", domain.ProviderTypeSlack)
	if cred.RefreshToken != "refresh-a" {
		t.Errorf("RefreshToken = %q, want refresh-a", cred.RefreshToken)
	}
}

func TestOAuthService_Callback_StateFailures(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(req *driving.CallbackRequest)
	}{
		{"missing state", func(req *driving.CallbackRequest) { req.State = "" }},
		{"tampered state", func(req *driving.CallbackRequest) { req.State = "!!" + req.State }},
		{"cookie mismatch", func(req *driving.CallbackRequest) { req.CookieNonce = "other" }},
		{"missing cookie", func(req *driving.CallbackRequest) { req.CookieNonce = "" }},
		{"provider mismatch", func(req *driving.CallbackRequest) { req.Provider = domain.ProviderTypeZoom }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newOAuthFixture(t)
			auth, err := f.svc.Authorize(context.Background(), driving.AuthorizeRequest{UserID: "user-1", Provider: domain.ProviderTypeSlack})
			if err != nil {
				t.Fatalf("Authorize() error = %v", err)
			}
			req := driving.CallbackRequest{
				Provider:    domain.ProviderTypeSlack,
				Code:        "code",
				State:       auth.State,
				CookieNonce: auth.Nonce,
			}
			tt.mutate(&req)

			_, err = f.svc.Callback(context.Background(), req)
			if oauthErrorCode(err) != "state_invalid" {
				t.Errorf("Callback() error = %v, want state_invalid", err)
			}
			if !errors.Is(err, domain.ErrStateMismatch) {
				t.Error("error should wrap ErrStateMismatch")
			}
			if f.creds.Count() != 0 {
				t.Error("no credential should be stored")
			}
		})
	}
}

func TestOAuthService_Callback_Replay(t *testing.T) {
	f := newOAuthFixture(t)
	auth, err := f.svc.Authorize(context.Background(), driving.AuthorizeRequest{UserID: "user-1", Provider: domain.ProviderTypeSlack})
	if err != nil {
		t.Fatalf("Authorize() error = %v", err)
	}
	req := driving.CallbackRequest{Provider: domain.ProviderTypeSlack, Code: "c", State: auth.State, CookieNonce: auth.Nonce}

	if _, err := f.svc.Callback(context.Background(), req); err != nil {
		t.Fatalf("first Callback() error = %v", err)
	}
	_, err = f.svc.Callback(context.Background(), req)
	if oauthErrorCode(err) != "state_invalid" {
		t.Errorf("replayed Callback() error = %v, want state_invalid", err)
	}
	if got := len(f.handlers.Handlers[domain.ProviderTypeSlack].Exchanges()); got != 1 {
		t.Errorf("exchanges = %d, want 1", got)
	}
}

func TestOAuthService_Callback_ProviderError(t *testing.T) {
	f := newOAuthFixture(t)

	_, err := f.svc.Callback(context.Background(), driving.CallbackRequest{
		Provider:         domain.ProviderTypeSlack,
		State:            "some-state",
		Error:            "access_denied",
		ErrorDescription: "User denied access",
	})
	if oauthErrorCode(err) != "access_denied" {
		t.Errorf("Callback() error = %v, want access_denied", err)
	}
}

func TestOAuthService_Callback_ExchangeFailed(t *testing.T) {
	f := newOAuthFixture(t)
	f.handlers.Handlers[domain.ProviderTypeSlack].ExchangeErr = domain.ErrTokenExchange

	_, err := f.connect(t, "user-1", domain.ProviderTypeSlack, "bad")
	if oauthErrorCode(err) != "token_exchange_failed" {
		t.Errorf("Callback() error = %v, want token_exchange_failed", err)
	}
	if !errors.Is(err, domain.ErrTokenExchange) {
		t.Error("error should wrap ErrTokenExchange")
	}
	if f.creds.Count() != 0 || len(f.events.Events()) != 0 {
		t.Error("failed exchange must not persist or publish")
	}
}

func TestOAuthService_Callback_UserInfoFailed(t *testing.T) {
	t.Run("identity required", func(t *testing.T) {
		f := newOAuthFixture(t)
		f.handlers.Handlers[domain.ProviderTypeSlack].UserInfoErr = domain.ErrIdentityLookup

		_, err := f.connect(t, "user-1", domain.ProviderTypeSlack, "c")
		if oauthErrorCode(err) != "user_info_failed" {
			t.Errorf("Callback() error = %v, want user_info_failed", err)
		}
		if f.creds.Count() != 0 {
			t.Error("credential should not be stored")
		}
	})

	t.Run("identity optional", func(t *testing.T) {
		f := newOAuthFixture(t)
		h := f.handlers.Handlers[domain.ProviderTypeZoom]
		h.UserInfoErr = domain.ErrIdentityLookup
		h.IdentityOptional = true

		resp, err := f.connect(t, "user-1", domain.ProviderTypeZoom, "c")
		if err != nil {
			t.Fatalf("Callback() error = %v", err)
		}
		if resp.Organization != "unknown" {
			t.Errorf("Organization = %q, want unknown", resp.Organization)
		}
		if !resp.Credential.IsActive {
			t.Error("credential should be active")
		}
	})
}

func TestOAuthService_Callback_PersistFailed(t *testing.T) {
	f := newOAuthFixture(t)
	f.creds.UpsertErr = errors.New("db down")

	_, err := f.connect(t, "user-1", domain.ProviderTypeSlack, "c")
	if oauthErrorCode(err) != "persist_failed" {
		t.Errorf("Callback() error = %v, want persist_failed", err)
	}
}

func TestOAuthService_Callback_PublishFailureIgnored(t *testing.T) {
	f := newOAuthFixture(t)
	f.events.Err = errors.New("broker down")

	if _, err := f.connect(t, "user-1", domain.ProviderTypeSlack, "c"); err != nil {
		t.Errorf("Callback() error = %v, want nil", err)
	}
}

func TestOAuthService_Disconnect(t *testing.T) {
	f := newOAuthFixture(t)
	if _, err := f.connect(t, "user-1", domain.ProviderTypeSlack, "c"); err != nil {
		t.Fatalf("connect error = %v", err)
	}

	if err := f.svc.Disconnect(context.Background(), "user-1", domain.ProviderTypeSlack); err != nil {
		t.Fatalf("Disconnect() error = %v", err)
	}

	cred, err := f.creds.Get(context.Background(), "user-1", domain.ProviderTypeSlack)
	if err != nil {
		t.Fatalf("row should be kept: %v", err)
	}
	if cred.IsActive || cred.AccessToken != "" || cred.RefreshToken != "" {
		t.Error("disconnect should deactivate and clear secrets")
	}

	events := f.events.Events()
	if len(events) != 2 || events[1].Type != domain.EventIntegrationDisconnected {
		t.Errorf("events = %+v, want connected then disconnected", events)
	}

	err = f.svc.Disconnect(context.Background(), "user-1", domain.ProviderTypeZoom)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Disconnect() of unknown pair error = %v, want ErrNotFound", err)
	}
}

func TestOAuthService_ListConnections(t *testing.T) {
	f := newOAuthFixture(t)

	conns, err := f.svc.ListConnections(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("ListConnections() error = %v", err)
	}
	if conns == nil || len(conns) != 0 {
		t.Errorf("ListConnections() = %v, want empty slice", conns)
	}

	_, _ = f.connect(t, "user-1", domain.ProviderTypeSlack, "c")
	_, _ = f.connect(t, "user-1", domain.ProviderTypeZoom, "c")
	_ = f.svc.Disconnect(context.Background(), "user-1", domain.ProviderTypeZoom)

	conns, err = f.svc.ListConnections(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("ListConnections() error = %v", err)
	}
	if len(conns) != 2 {
		t.Fatalf("len = %d, want 2", len(conns))
	}
	if !conns[0].IsActive || conns[1].IsActive {
		t.Error("slack should be active and zoom inactive")
	}
}

func TestOAuthService_ListProviders(t *testing.T) {
	f := newOAuthFixture(t)

	providers, err := f.svc.ListProviders(context.Background())
	if err != nil {
		t.Fatalf("ListProviders() error = %v", err)
	}
	if len(providers) != len(domain.SupportedProviders()) {
		t.Fatalf("len = %d, want %d", len(providers), len(domain.SupportedProviders()))
	}
	for i, p := range providers {
		if p.Type != domain.SupportedProviders()[i] {
			t.Errorf("providers[%d] = %s, want canonical order", i, p.Type)
		}
		want := p.Type == domain.ProviderTypeSlack || p.Type == domain.ProviderTypeZoom
		if p.Configured != want {
			t.Errorf("%s Configured = %v, want %v", p.Type, p.Configured, want)
		}
	}
}

func TestGenerateRandomString(t *testing.T) {
	lengths := []int{16, 32, 64}

	for _, length := range lengths {
		s, err := generateRandomString(length)
		if err != nil {
			t.Fatalf("generateRandomString(%d) error = %v", length, err)
		}
		if len(s) != length {
			t.Errorf("generateRandomString(%d) length = %d", length, len(s))
		}
	}

	a, _ := generateRandomString(32)
	b, _ := generateRandomString(32)
	if a == b {
		t.Error("generateRandomString should not repeat")
	}
}

func TestGenerateCodeChallenge(t *testing.T) {
	// RFC 7636 appendix B
	verifier := "dBjftJeZ4CVP-mB92K27uhbUJU1p1r_wW1gFWFOEjXk"
	want := "E9Melhoa2OwvFrEMTJguCHaoeK1t8URWbuGJSstw-cM"

	if got := generateCodeChallenge(verifier); got != want {
		t.Errorf("generateCodeChallenge() = %s, want %s", got, want)
	}
	if strings.ContainsAny(want, "+/=") {
		t.Error("challenge must be base64url without padding")
	}
}
