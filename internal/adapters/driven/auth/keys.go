package auth

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// Key purposes for DeriveKey.
const (
	PurposeCredentialEncryption = "sercha-pulse credential encryption v1"
	PurposeOAuthState           = "sercha-pulse oauth state v1"
)

// ErrMasterKeyTooShort is returned for master keys under 32 bytes.
var ErrMasterKeyTooShort = errors.New("master key must be at least 32 bytes")

// DeriveKey derives a 32-byte key for one purpose from the master key
// using HKDF-SHA256.
func DeriveKey(masterKey []byte, purpose string) ([]byte, error) {
	if len(masterKey) < 32 {
		return nil, fmt.Errorf("%w: got %d bytes", ErrMasterKeyTooShort, len(masterKey))
	}
	key := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, masterKey, nil, []byte(purpose)), key); err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}
	return key, nil
}
