package domain

import (
	"errors"
	"testing"
)

func TestProviderTypeConstants(t *testing.T) {
	tests := []struct {
		provider ProviderType
		expected string
	}{
		{ProviderTypeSlack, "slack"},
		{ProviderTypeMattermost, "mattermost"},
		{ProviderTypeDiscord, "discord"},
		{ProviderTypeMSTeams, "msteams"},
		{ProviderTypeGoogle, "google"},
		{ProviderTypeZoom, "zoom"},
		{ProviderTypeWebex, "webex"},
	}

	for _, tt := range tests {
		t.Run(string(tt.provider), func(t *testing.T) {
			if string(tt.provider) != tt.expected {
				t.Errorf("expected %s, got %s", tt.expected, string(tt.provider))
			}
		})
	}
}

func TestSupportedProviders(t *testing.T) {
	providers := SupportedProviders()
	if len(providers) != 7 {
		t.Fatalf("expected 7 supported providers, got %d", len(providers))
	}

	seen := make(map[ProviderType]bool)
	for _, p := range providers {
		if seen[p] {
			t.Errorf("duplicate provider %s", p)
		}
		seen[p] = true
		if !p.IsSupported() {
			t.Errorf("expected %s to be supported", p)
		}
	}
}

func TestParseProviderType(t *testing.T) {
	p, err := ParseProviderType("zoom")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p != ProviderTypeZoom {
		t.Errorf("expected zoom, got %s", p)
	}

	if _, err := ParseProviderType("github"); !errors.Is(err, ErrUnsupportedProvider) {
		t.Errorf("expected ErrUnsupportedProvider, got %v", err)
	}
	if _, err := ParseProviderType(""); !errors.Is(err, ErrUnsupportedProvider) {
		t.Errorf("expected ErrUnsupportedProvider for empty tag, got %v", err)
	}
}

func TestProviderConfigHasCredentials(t *testing.T) {
	var nilCfg *ProviderConfig
	if nilCfg.HasCredentials() {
		t.Error("nil config should not have credentials")
	}

	cfg := &ProviderConfig{ClientID: "id"}
	if cfg.HasCredentials() {
		t.Error("config without secret should not have credentials")
	}

	cfg.ClientSecret = "secret"
	if !cfg.HasCredentials() {
		t.Error("config with id and secret should have credentials")
	}
}
