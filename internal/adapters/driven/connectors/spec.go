package connectors

import (
	"strings"

	"github.com/custodia-labs/sercha-pulse/internal/core/domain"
)

// AuthStyle selects how credentials are attached to an outbound request.
type AuthStyle string

const (
	// AuthStyleForm sends client_id/client_secret in the form body.
	AuthStyleForm AuthStyle = "form"
	// AuthStyleBasic sends client credentials as HTTP Basic auth.
	AuthStyleBasic AuthStyle = "basic"
	// AuthStyleBearer sends "Authorization: Bearer <access token>".
	AuthStyleBearer AuthStyle = "bearer"
	// AuthStyleBot sends "Authorization: Bot <bot token>" when a bot token is
	// configured and falls back to Bearer otherwise.
	AuthStyleBot AuthStyle = "bot"
)

// PaginationStyle names how a provider pages its listings.
type PaginationStyle string

const (
	PaginationNone   PaginationStyle = "none"
	PaginationCursor PaginationStyle = "cursor"
	PaginationPage   PaginationStyle = "page"
)

// Spec is one row of the provider strategy table. URLs may contain the
// placeholders {tenant} and {base}, filled from the provider config.
type Spec struct {
	Type  domain.ProviderType
	Name  string
	Style string

	AuthURL     string
	TokenURL    string
	APIBaseURL  string
	IdentityURL string // absolute user-info URL when it lives outside APIBaseURL

	Scopes          []string
	ScopeParam      string // "scope" unless the provider uses another name
	ScopeSeparator  string
	ExtraAuthParams map[string]string

	TokenAuth  AuthStyle
	APIAuth    AuthStyle
	Pagination PaginationStyle

	ContainerKind string
	Capabilities  domain.Capabilities

	SupportsPKCE     bool
	SupportsRefresh  bool
	IdentityRequired bool
	RequiresTenant   bool
	RequiresBaseURL  bool
}

// DefaultSpecs returns the strategy table for all supported providers in
// canonical order.
func DefaultSpecs() []Spec {
	return []Spec{
		{
			Type:            domain.ProviderTypeSlack,
			Name:            "Slack",
			Style:           "chat",
			AuthURL:         "https://slack.com/oauth/v2/authorize",
			TokenURL:        "https://slack.com/api/oauth.v2.access",
			APIBaseURL:      "https://slack.com/api",
			Scopes:          []string{"channels:read", "channels:history", "groups:read", "groups:history", "users:read", "reactions:read"},
			ScopeParam:      "user_scope",
			ScopeSeparator:  ",",
			TokenAuth:       AuthStyleForm,
			APIAuth:         AuthStyleBearer,
			Pagination:      PaginationCursor,
			ContainerKind:   "channel",
			Capabilities:    domain.Capabilities{Messages: true},
			SupportsRefresh: true,
		},
		{
			Type:             domain.ProviderTypeMattermost,
			Name:             "Mattermost",
			Style:            "team-chat",
			AuthURL:          "{base}/oauth/authorize",
			TokenURL:         "{base}/oauth/access_token",
			APIBaseURL:       "{base}/api/v4",
			ScopeSeparator:   " ",
			TokenAuth:        AuthStyleForm,
			APIAuth:          AuthStyleBearer,
			Pagination:       PaginationPage,
			ContainerKind:    "channel",
			Capabilities:     domain.Capabilities{Messages: true},
			SupportsRefresh:  true,
			IdentityRequired: true,
			RequiresBaseURL:  true,
		},
		{
			Type:            domain.ProviderTypeDiscord,
			Name:            "Discord",
			Style:           "guild",
			AuthURL:         "https://discord.com/oauth2/authorize",
			TokenURL:        "https://discord.com/api/oauth2/token",
			APIBaseURL:      "https://discord.com/api/v10",
			Scopes:          []string{"identify", "email", "guilds"},
			ScopeSeparator:  " ",
			TokenAuth:       AuthStyleForm,
			APIAuth:         AuthStyleBot,
			Pagination:      PaginationNone,
			ContainerKind:   "guild_channel",
			Capabilities:    domain.Capabilities{Messages: true},
			SupportsPKCE:    true,
			SupportsRefresh: true,
		},
		{
			Type:            domain.ProviderTypeMSTeams,
			Name:            "Microsoft Teams",
			Style:           "enterprise-chat",
			AuthURL:         "https://login.microsoftonline.com/{tenant}/oauth2/v2.0/authorize",
			TokenURL:        "https://login.microsoftonline.com/{tenant}/oauth2/v2.0/token",
			APIBaseURL:      "https://graph.microsoft.com/v1.0",
			Scopes:          []string{"offline_access", "User.Read", "Team.ReadBasic.All", "Channel.ReadBasic.All", "ChannelMessage.Read.All"},
			ScopeSeparator:  " ",
			ExtraAuthParams: map[string]string{"response_mode": "query"},
			TokenAuth:       AuthStyleForm,
			APIAuth:         AuthStyleBearer,
			Pagination:      PaginationCursor,
			ContainerKind:   "team_channel",
			Capabilities:    domain.Capabilities{Messages: true},
			SupportsPKCE:    true,
			SupportsRefresh: true,
			RequiresTenant:  true,
		},
		{
			Type:            domain.ProviderTypeGoogle,
			Name:            "Google Meet",
			Style:           "calendar",
			AuthURL:         "https://accounts.google.com/o/oauth2/v2/auth",
			TokenURL:        "https://oauth2.googleapis.com/token",
			APIBaseURL:      "https://www.googleapis.com/calendar/v3",
			IdentityURL:     "https://openidconnect.googleapis.com/v1/userinfo",
			Scopes:          []string{"openid", "email", "profile", "https://www.googleapis.com/auth/calendar.readonly"},
			ScopeSeparator:  " ",
			ExtraAuthParams: map[string]string{"access_type": "offline", "prompt": "consent", "include_granted_scopes": "true"},
			TokenAuth:       AuthStyleForm,
			APIAuth:         AuthStyleBearer,
			Pagination:      PaginationCursor,
			Capabilities:    domain.Capabilities{Meetings: true},
			SupportsPKCE:    true,
			SupportsRefresh: true,
		},
		{
			Type:            domain.ProviderTypeZoom,
			Name:            "Zoom",
			Style:           "webinar",
			AuthURL:         "https://zoom.us/oauth/authorize",
			TokenURL:        "https://zoom.us/oauth/token",
			APIBaseURL:      "https://api.zoom.us/v2",
			ScopeSeparator:  " ",
			TokenAuth:       AuthStyleBasic,
			APIAuth:         AuthStyleBearer,
			Pagination:      PaginationCursor,
			Capabilities:    domain.Capabilities{Meetings: true},
			SupportsPKCE:    true,
			SupportsRefresh: true,
		},
		{
			Type:            domain.ProviderTypeWebex,
			Name:            "Webex",
			Style:           "enterprise-messaging",
			AuthURL:         "https://webexapis.com/v1/authorize",
			TokenURL:        "https://webexapis.com/v1/access_token",
			APIBaseURL:      "https://webexapis.com/v1",
			Scopes:          []string{"spark:rooms_read", "spark:messages_read", "spark:people_read"},
			ScopeSeparator:  " ",
			TokenAuth:       AuthStyleForm,
			APIAuth:         AuthStyleBearer,
			Pagination:      PaginationNone,
			ContainerKind:   "room",
			Capabilities:    domain.Capabilities{Messages: true},
			SupportsRefresh: true,
		},
	}
}

// scopes returns the configured scope override or the spec default.
func (s Spec) scopes(cfg *domain.ProviderConfig) []string {
	if cfg != nil && len(cfg.Scopes) > 0 {
		return cfg.Scopes
	}
	return s.Scopes
}

func (s Spec) scopeParam() string {
	if s.ScopeParam == "" {
		return "scope"
	}
	return s.ScopeParam
}

func (s Spec) scopeSeparator() string {
	if s.ScopeSeparator == "" {
		return " "
	}
	return s.ScopeSeparator
}

// resolve fills URL placeholders from cfg.
func (s Spec) resolve(raw string, cfg *domain.ProviderConfig) string {
	tenant, base := "common", ""
	if cfg != nil {
		if cfg.TenantID != "" {
			tenant = cfg.TenantID
		}
		base = strings.TrimSuffix(cfg.BaseURL, "/")
	}
	raw = strings.ReplaceAll(raw, "{tenant}", tenant)
	raw = strings.ReplaceAll(raw, "{base}", base)
	return raw
}

// Validate reports domain.ErrConfiguration when cfg cannot drive an OAuth
// flow for this provider.
func (s Spec) Validate(cfg *domain.ProviderConfig) error {
	if !cfg.HasCredentials() {
		return domain.ErrConfiguration
	}
	if s.RequiresTenant && cfg.TenantID == "" {
		return domain.ErrConfiguration
	}
	if s.RequiresBaseURL && cfg.BaseURL == "" {
		return domain.ErrConfiguration
	}
	return nil
}
