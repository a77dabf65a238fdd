package auth

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/custodia-labs/sercha-pulse/internal/core/domain"
)

func TestNewAdapter(t *testing.T) {
	adapter := NewAdapter("test-secret")
	if adapter == nil {
		t.Fatal("expected non-nil adapter")
	}
	if string(adapter.jwtSecret) != "test-secret" {
		t.Error("expected jwt secret to be set")
	}
}

func testClaims(now time.Time) *domain.TokenClaims {
	return &domain.TokenClaims{
		UserID:    "user-123",
		Email:     "test@example.com",
		Name:      "Test User",
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(24 * time.Hour).Unix(),
	}
}

func TestGenerateToken(t *testing.T) {
	adapter := NewAdapter("test-jwt-secret")

	token, err := adapter.GenerateToken(testClaims(time.Now()))
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	// JWT tokens have 3 parts separated by dots
	if parts := strings.Count(token, "."); parts != 2 {
		t.Errorf("expected JWT with 2 dots (3 parts), got %d dots", parts)
	}
}

func TestParseToken_ValidToken(t *testing.T) {
	adapter := NewAdapter("test-jwt-secret")

	original := testClaims(time.Now())
	token, _ := adapter.GenerateToken(original)

	parsed, err := adapter.ParseToken(token)
	if err != nil {
		t.Fatalf("failed to parse token: %v", err)
	}

	if parsed.UserID != original.UserID {
		t.Errorf("expected UserID %s, got %s", original.UserID, parsed.UserID)
	}
	if parsed.Email != original.Email {
		t.Errorf("expected Email %s, got %s", original.Email, parsed.Email)
	}
	if parsed.Name != original.Name {
		t.Errorf("expected Name %s, got %s", original.Name, parsed.Name)
	}
	if parsed.IssuedAt != original.IssuedAt || parsed.ExpiresAt != original.ExpiresAt {
		t.Errorf("expected timestamps %d/%d, got %d/%d",
			original.IssuedAt, original.ExpiresAt, parsed.IssuedAt, parsed.ExpiresAt)
	}
}

func TestParseToken_ExpiredToken(t *testing.T) {
	adapter := NewAdapter("test-jwt-secret")

	pastTime := time.Now().Add(-2 * time.Hour)
	claims := testClaims(pastTime.Add(-24 * time.Hour))
	claims.ExpiresAt = pastTime.Unix()

	token, _ := adapter.GenerateToken(claims)

	_, err := adapter.ParseToken(token)
	if !errors.Is(err, domain.ErrTokenExpired) {
		t.Errorf("expected ErrTokenExpired, got %v", err)
	}
}

func TestParseToken_WrongSecret(t *testing.T) {
	adapter1 := NewAdapter("secret-1")
	adapter2 := NewAdapter("secret-2")

	token, _ := adapter1.GenerateToken(testClaims(time.Now()))

	_, err := adapter2.ParseToken(token)
	if !errors.Is(err, domain.ErrTokenInvalid) {
		t.Errorf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestParseToken_MalformedToken(t *testing.T) {
	adapter := NewAdapter("test-secret")

	testCases := []string{
		"",
		"not-a-jwt",
		"invalid.token.here",
		"only.two.parts.missing",
		"header.payload", // missing signature
	}

	for _, tc := range testCases {
		_, err := adapter.ParseToken(tc)
		if !errors.Is(err, domain.ErrTokenInvalid) {
			t.Errorf("expected ErrTokenInvalid for malformed token %q, got %v", tc, err)
		}
	}
}

func TestParseToken_RejectsStateToken(t *testing.T) {
	adapter := NewAdapter("shared-secret")
	signer := NewStateSigner([]byte("shared-secret"))

	state, err := signer.Sign(testStateClaims(time.Now()))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	// A state token carries no sub, so it never authenticates a user.
	claims, err := adapter.ParseToken(state)
	if err == nil && claims.UserID != "" {
		t.Fatalf("state token accepted as API token for %q", claims.UserID)
	}
}

func testStateClaims(now time.Time) *domain.OAuthStateClaims {
	return &domain.OAuthStateClaims{
		UserID:    "user-1",
		Provider:  domain.ProviderTypeSlack,
		Mode:      domain.ConnectModeConnect,
		Nonce:     "nonce-abc",
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(10 * time.Minute).Unix(),
	}
}

func TestStateSigner_RoundTrip(t *testing.T) {
	signer := NewStateSigner([]byte("state-key"))

	original := testStateClaims(time.Now())
	token, err := signer.Sign(original)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	got, err := signer.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if *got != *original {
		t.Errorf("claims mismatch: got %+v, want %+v", got, original)
	}
}

func TestStateSigner_Expired(t *testing.T) {
	signer := NewStateSigner([]byte("state-key"))

	token, _ := signer.Sign(testStateClaims(time.Now().Add(-time.Hour)))

	_, err := signer.Verify(token)
	if !errors.Is(err, domain.ErrTokenExpired) {
		t.Errorf("expected ErrTokenExpired, got %v", err)
	}
}

func TestStateSigner_Tampered(t *testing.T) {
	signer := NewStateSigner([]byte("state-key"))

	token, _ := signer.Sign(testStateClaims(time.Now()))

	parts := strings.Split(token, ".")
	sig := []byte(parts[2])
	if sig[0] == 'A' {
		sig[0] = 'B'
	} else {
		sig[0] = 'A'
	}
	tampered := parts[0] + "." + parts[1] + "." + string(sig)

	if _, err := signer.Verify(tampered); !errors.Is(err, domain.ErrTokenInvalid) {
		t.Errorf("expected ErrTokenInvalid for tampered state, got %v", err)
	}

	other := NewStateSigner([]byte("other-key"))
	if _, err := other.Verify(token); !errors.Is(err, domain.ErrTokenInvalid) {
		t.Errorf("expected ErrTokenInvalid for wrong key, got %v", err)
	}
}

func TestStateSigner_RejectsAPIToken(t *testing.T) {
	adapter := NewAdapter("shared-secret")
	signer := NewStateSigner([]byte("shared-secret"))

	token, _ := adapter.GenerateToken(testClaims(time.Now()))

	if _, err := signer.Verify(token); !errors.Is(err, domain.ErrTokenInvalid) {
		t.Errorf("expected ErrTokenInvalid for API token, got %v", err)
	}
}

func TestDeriveKey(t *testing.T) {
	master := bytes.Repeat([]byte{0x42}, 32)

	k1, err := DeriveKey(master, PurposeOAuthState)
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	if len(k1) != 32 {
		t.Errorf("expected 32-byte key, got %d", len(k1))
	}

	k2, _ := DeriveKey(master, PurposeOAuthState)
	if !bytes.Equal(k1, k2) {
		t.Error("expected derivation to be deterministic")
	}

	k3, _ := DeriveKey(master, PurposeCredentialEncryption)
	if bytes.Equal(k1, k3) {
		t.Error("expected distinct keys per purpose")
	}
	if bytes.Equal(k1, master) {
		t.Error("derived key must differ from master key")
	}
}

func TestDeriveKey_ShortMaster(t *testing.T) {
	_, err := DeriveKey([]byte("short"), PurposeOAuthState)
	if !errors.Is(err, ErrMasterKeyTooShort) {
		t.Errorf("expected ErrMasterKeyTooShort, got %v", err)
	}
}
