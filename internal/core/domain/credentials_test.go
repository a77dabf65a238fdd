package domain

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestCredentialToSummary(t *testing.T) {
	now := time.Now()
	cred := &Credential{
		ID:               "cred-123",
		UserID:           "user-1",
		Provider:         ProviderTypeSlack,
		AccessToken:      "xoxp-secret",
		RefreshToken:     "refresh-secret",
		Scopes:           []string{"channels:read", "users:read"},
		ExternalTeamID:   "T123",
		ExternalTeamName: "Acme",
		IsActive:         true,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	summary := cred.ToSummary()
	if summary.ID != cred.ID {
		t.Errorf("expected ID %s, got %s", cred.ID, summary.ID)
	}
	if summary.ExternalTeamName != "Acme" {
		t.Errorf("expected team name Acme, got %s", summary.ExternalTeamName)
	}
	if !summary.HasRefreshToken {
		t.Error("expected HasRefreshToken to be true")
	}
	if !summary.IsActive {
		t.Error("expected summary to be active")
	}
	if len(summary.Scopes) != 2 || summary.Scopes[1] != "users:read" {
		t.Errorf("expected scopes to be copied, got %v", summary.Scopes)
	}
}

func TestParseScopes(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"", []string{}},
		{"channels:history,channels:read", []string{"channels:history", "channels:read"}},
		{"openid email  profile", []string{"openid", "email", "profile"}},
		{"a, b", []string{"a", "b"}},
	}

	for _, tt := range tests {
		got := ParseScopes(tt.input)
		if len(got) != len(tt.want) {
			t.Errorf("ParseScopes(%q) = %v, want %v", tt.input, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("ParseScopes(%q)[%d] = %q, want %q", tt.input, i, got[i], tt.want[i])
			}
		}
	}
}

func TestCredentialJSONOmitsSecrets(t *testing.T) {
	cred := &Credential{
		ID:           "cred-123",
		Provider:     ProviderTypeZoom,
		AccessToken:  "access-secret",
		RefreshToken: "refresh-secret",
	}

	data, err := json.Marshal(cred)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(string(data), "access-secret") || strings.Contains(string(data), "refresh-secret") {
		t.Errorf("secrets leaked into JSON: %s", data)
	}
}

func TestCredentialExpiry(t *testing.T) {
	cred := &Credential{}
	if cred.IsExpired() || cred.NeedsRefresh() {
		t.Error("credential without expiry should never expire")
	}

	past := time.Now().Add(-time.Minute)
	cred.ExpiresAt = &past
	if !cred.IsExpired() {
		t.Error("expected expired credential")
	}

	soon := time.Now().Add(2 * time.Minute)
	cred.ExpiresAt = &soon
	if cred.IsExpired() {
		t.Error("credential expiring soon is not yet expired")
	}
	if !cred.NeedsRefresh() {
		t.Error("expected credential within 5 minutes of expiry to need refresh")
	}

	later := time.Now().Add(time.Hour)
	cred.ExpiresAt = &later
	if cred.NeedsRefresh() {
		t.Error("credential expiring in an hour should not need refresh")
	}
}

func TestCredentialCanRefresh(t *testing.T) {
	cred := &Credential{AccessToken: "a"}
	if cred.CanRefresh() {
		t.Error("expected CanRefresh false without refresh token")
	}
	cred.RefreshToken = "r"
	if !cred.CanRefresh() {
		t.Error("expected CanRefresh true with refresh token")
	}
}
