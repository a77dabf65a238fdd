package postgres

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/custodia-labs/sercha-pulse/internal/core/domain"
)

// Blob layout: version(1) || nonce(12) || AES-GCM ciphertext.
const (
	blobVersion = 0x01
	nonceSize   = 12
	keySize     = 32
)

var (
	// ErrInvalidKeySize is returned when the encryption key is not 32 bytes.
	ErrInvalidKeySize = errors.New("encryption key must be 32 bytes")

	// ErrInvalidBlob is returned for blobs too short or of an unknown version.
	ErrInvalidBlob = errors.New("invalid secret blob")

	// ErrDecryptionFailed is returned when a blob does not open: wrong key,
	// corrupted data, or a blob that belongs to another row.
	ErrDecryptionFailed = errors.New("failed to decrypt secret blob")
)

// SecretEncryptor seals the secret columns of credentials and
// provider_configs. Each blob carries its row identity as GCM additional
// data, so a blob copied onto another user's or provider's row fails to
// open.
type SecretEncryptor struct {
	gcm cipher.AEAD
}

// NewSecretEncryptor creates an encryptor from a 32-byte key
// (see auth.DeriveKey).
func NewSecretEncryptor(key []byte) (*SecretEncryptor, error) {
	if len(key) != keySize {
		return nil, fmt.Errorf("%w: got %d bytes", ErrInvalidKeySize, len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create AES cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create GCM: %w", err)
	}
	return &SecretEncryptor{gcm: gcm}, nil
}

func credentialAAD(userID string, provider domain.ProviderType) []byte {
	return []byte("credential/" + string(provider) + "/" + userID)
}

func providerConfigAAD(provider domain.ProviderType) []byte {
	return []byte("provider-config/" + string(provider))
}

// SealCredential encrypts the tokens of the (userID, provider) credential.
func (e *SecretEncryptor) SealCredential(userID string, provider domain.ProviderType, secrets *domain.CredentialSecrets) ([]byte, error) {
	return e.seal(credentialAAD(userID, provider), secrets)
}

// OpenCredential decrypts a blob sealed by SealCredential for the same pair.
func (e *SecretEncryptor) OpenCredential(userID string, provider domain.ProviderType, blob []byte) (*domain.CredentialSecrets, error) {
	var secrets domain.CredentialSecrets
	if err := e.open(credentialAAD(userID, provider), blob, &secrets); err != nil {
		return nil, err
	}
	return &secrets, nil
}

// SealProviderSecrets encrypts the OAuth app secrets of a provider config.
func (e *SecretEncryptor) SealProviderSecrets(provider domain.ProviderType, secrets *providerSecrets) ([]byte, error) {
	return e.seal(providerConfigAAD(provider), secrets)
}

// OpenProviderSecrets decrypts a blob sealed by SealProviderSecrets.
func (e *SecretEncryptor) OpenProviderSecrets(provider domain.ProviderType, blob []byte) (*providerSecrets, error) {
	var secrets providerSecrets
	if err := e.open(providerConfigAAD(provider), blob, &secrets); err != nil {
		return nil, err
	}
	return &secrets, nil
}

func (e *SecretEncryptor) seal(aad []byte, value any) ([]byte, error) {
	plaintext, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("marshal secrets: %w", err)
	}

	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}

	blob := make([]byte, 0, 1+nonceSize+len(plaintext)+e.gcm.Overhead())
	blob = append(blob, blobVersion)
	blob = append(blob, nonce...)
	return e.gcm.Seal(blob, nonce, plaintext, aad), nil
}

func (e *SecretEncryptor) open(aad, blob []byte, value any) error {
	if len(blob) < 1+nonceSize+e.gcm.Overhead() {
		return fmt.Errorf("%w: %d bytes", ErrInvalidBlob, len(blob))
	}
	if blob[0] != blobVersion {
		return fmt.Errorf("%w: version %d", ErrInvalidBlob, blob[0])
	}

	plaintext, err := e.gcm.Open(nil, blob[1:1+nonceSize], blob[1+nonceSize:], aad)
	if err != nil {
		return ErrDecryptionFailed
	}
	if err := json.Unmarshal(plaintext, value); err != nil {
		return fmt.Errorf("unmarshal secrets: %w", err)
	}
	return nil
}
