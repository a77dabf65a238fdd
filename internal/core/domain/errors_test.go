package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		msg  string
	}{
		{"ErrNotFound", ErrNotFound, "not found"},
		{"ErrInvalidInput", ErrInvalidInput, "invalid input"},
		{"ErrUnauthorized", ErrUnauthorized, "unauthorized"},
		{"ErrTokenExpired", ErrTokenExpired, "token expired"},
		{"ErrTokenInvalid", ErrTokenInvalid, "token invalid"},
		{"ErrConfiguration", ErrConfiguration, "configuration error"},
		{"ErrStateMismatch", ErrStateMismatch, "state mismatch"},
		{"ErrTokenExchange", ErrTokenExchange, "token exchange failed"},
		{"ErrIdentityLookup", ErrIdentityLookup, "identity lookup failed"},
		{"ErrProviderFetch", ErrProviderFetch, "provider fetch failed"},
		{"ErrNormalization", ErrNormalization, "normalization failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Error() != tt.msg {
				t.Errorf("expected %q, got %q", tt.msg, tt.err.Error())
			}
		})
	}
}

func TestErrorsAreDistinct(t *testing.T) {
	allErrors := []error{
		ErrNotFound,
		ErrInvalidInput,
		ErrUnauthorized,
		ErrTokenExpired,
		ErrTokenInvalid,
		ErrUnsupportedProvider,
		ErrConfiguration,
		ErrStateMismatch,
		ErrTokenExchange,
		ErrIdentityLookup,
		ErrProviderFetch,
		ErrProviderUnauthorized,
		ErrNormalization,
		ErrNotAMeeting,
		ErrUnsupported,
	}

	for i, err1 := range allErrors {
		for j, err2 := range allErrors {
			if i != j && errors.Is(err1, err2) {
				t.Errorf("errors should be distinct: %v and %v", err1, err2)
			}
		}
	}
}

func TestErrorsIsThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("slack: %w", ErrProviderUnauthorized)
	if !errors.Is(wrapped, ErrProviderUnauthorized) {
		t.Error("wrapped error should match ErrProviderUnauthorized")
	}
	if errors.Is(wrapped, ErrProviderFetch) {
		t.Error("wrapped error should not match ErrProviderFetch")
	}
}
