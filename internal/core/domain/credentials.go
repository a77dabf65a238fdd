package domain

import (
	"strings"
	"time"
)

// Credential is the persisted OAuth connection for one (user, provider) pair.
// At most one row exists per pair; reconnecting updates it in place and
// disconnecting deactivates it and clears its secrets.
type Credential struct {
	ID       string       `json:"id"`
	UserID   string       `json:"user_id"`
	Provider ProviderType `json:"provider"`

	AccessToken  string `json:"-"` // Never serialize
	RefreshToken string `json:"-"` // Never serialize; some providers issue none

	Scopes    []string   `json:"scopes,omitempty"`
	TokenType string     `json:"token_type,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`

	// Identity at the provider, best effort
	ExternalTeamID   string `json:"external_team_id,omitempty"`
	ExternalTeamName string `json:"external_team_name,omitempty"`
	ExternalUserID   string `json:"external_user_id,omitempty"`
	ExternalUserName string `json:"external_user_name,omitempty"`

	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CredentialSecrets contains the values encrypted before storage.
type CredentialSecrets struct {
	AccessToken  string `json:"access_token,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

// CredentialSummary provides a safe view without sensitive data
type CredentialSummary struct {
	ID               string       `json:"id"`
	Provider         ProviderType `json:"provider"`
	ExternalTeamID   string       `json:"external_team_id,omitempty"`
	ExternalTeamName string       `json:"external_team_name,omitempty"`
	ExternalUserName string       `json:"external_user_name,omitempty"`
	Scopes           []string     `json:"scopes,omitempty"`
	IsActive         bool         `json:"is_active"`
	HasRefreshToken  bool         `json:"has_refresh_token"`
	ExpiresAt        *time.Time   `json:"expires_at,omitempty"`
	CreatedAt        time.Time    `json:"created_at"`
	UpdatedAt        time.Time    `json:"updated_at"`
}

// ToSummary converts Credential to CredentialSummary
func (c *Credential) ToSummary() *CredentialSummary {
	return &CredentialSummary{
		ID:               c.ID,
		Provider:         c.Provider,
		ExternalTeamID:   c.ExternalTeamID,
		ExternalTeamName: c.ExternalTeamName,
		ExternalUserName: c.ExternalUserName,
		Scopes:           c.Scopes,
		IsActive:         c.IsActive,
		HasRefreshToken:  c.RefreshToken != "",
		ExpiresAt:        c.ExpiresAt,
		CreatedAt:        c.CreatedAt,
		UpdatedAt:        c.UpdatedAt,
	}
}

// ParseScopes splits a granted scope string. Slack separates scopes with
// commas, the other providers with spaces.
func ParseScopes(scope string) []string {
	return strings.FieldsFunc(scope, func(r rune) bool {
		return r == ' ' || r == ','
	})
}

// Secrets returns the secret part of the credential.
func (c *Credential) Secrets() *CredentialSecrets {
	return &CredentialSecrets{
		AccessToken:  c.AccessToken,
		RefreshToken: c.RefreshToken,
	}
}

// IsExpired checks if the access token has expired
func (c *Credential) IsExpired() bool {
	if c.ExpiresAt == nil {
		return false
	}
	return time.Now().After(*c.ExpiresAt)
}

// NeedsRefresh returns true within 5 minutes of expiry.
func (c *Credential) NeedsRefresh() bool {
	if c.ExpiresAt == nil {
		return false
	}
	return time.Until(*c.ExpiresAt) < 5*time.Minute
}

// CanRefresh reports whether a refresh token is available.
func (c *Credential) CanRefresh() bool {
	return c.RefreshToken != ""
}
