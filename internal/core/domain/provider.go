package domain

// ProviderType identifies an integrated communication or meeting provider
type ProviderType string

const (
	// Chat
	ProviderTypeSlack      ProviderType = "slack"
	ProviderTypeMattermost ProviderType = "mattermost"
	ProviderTypeDiscord    ProviderType = "discord"

	// Enterprise messaging
	ProviderTypeMSTeams ProviderType = "msteams"
	ProviderTypeWebex   ProviderType = "webex"

	// Meetings
	ProviderTypeGoogle ProviderType = "google"
	ProviderTypeZoom   ProviderType = "zoom"
)

// Capabilities describes which unified entities a provider can produce.
type Capabilities struct {
	Messages bool `json:"messages"`
	Meetings bool `json:"meetings"`
}

// ProviderConfig holds the OAuth application settings for one provider.
// ClientSecret and BotToken are never serialised.
type ProviderConfig struct {
	ProviderType ProviderType `json:"provider_type"`
	ClientID     string       `json:"client_id"`
	ClientSecret string       `json:"-"`
	TenantID     string       `json:"tenant_id,omitempty"` // msteams
	BaseURL      string       `json:"base_url,omitempty"`  // self-hosted providers (mattermost)
	BotToken     string       `json:"-"`                   // discord message reads
	Scopes       []string     `json:"scopes,omitempty"`    // overrides the default scopes
}

// HasCredentials reports whether client id and secret are both present.
func (c *ProviderConfig) HasCredentials() bool {
	return c != nil && c.ClientID != "" && c.ClientSecret != ""
}

// ProviderInfo provides metadata about a provider
type ProviderInfo struct {
	Type         ProviderType `json:"type"`
	Name         string       `json:"name"`
	Style        string       `json:"style"`
	Capabilities Capabilities `json:"capabilities"`
	Configured   bool         `json:"configured"`
}

// SupportedProviders returns the seven providers in canonical order.
// Aggregation results and error maps are reported in this order.
func SupportedProviders() []ProviderType {
	return []ProviderType{
		ProviderTypeSlack,
		ProviderTypeMattermost,
		ProviderTypeDiscord,
		ProviderTypeMSTeams,
		ProviderTypeGoogle,
		ProviderTypeZoom,
		ProviderTypeWebex,
	}
}

// IsSupported reports whether p is one of the supported providers.
func (p ProviderType) IsSupported() bool {
	for _, s := range SupportedProviders() {
		if s == p {
			return true
		}
	}
	return false
}

// ParseProviderType validates a provider tag.
func ParseProviderType(s string) (ProviderType, error) {
	p := ProviderType(s)
	if !p.IsSupported() {
		return "", ErrUnsupportedProvider
	}
	return p, nil
}
