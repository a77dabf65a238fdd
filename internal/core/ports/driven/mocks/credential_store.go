package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/sercha-pulse/internal/core/domain"
	"github.com/custodia-labs/sercha-pulse/internal/core/ports/driven"
)

// Ensure MockCredentialStore implements CredentialStore
var _ driven.CredentialStore = (*MockCredentialStore)(nil)

// MockCredentialStore is an in-memory CredentialStore keyed by (user, provider).
type MockCredentialStore struct {
	mu    sync.RWMutex
	creds map[string]*domain.Credential // key: userID:provider

	// UpsertErr, when set, is returned by Upsert.
	UpsertErr error
	// ListActiveErr, when set, is returned by ListActive.
	ListActiveErr error
}

// NewMockCredentialStore creates a new MockCredentialStore
func NewMockCredentialStore() *MockCredentialStore {
	return &MockCredentialStore{
		creds: make(map[string]*domain.Credential),
	}
}

func credKey(userID string, provider domain.ProviderType) string {
	return userID + ":" + string(provider)
}

func (m *MockCredentialStore) Upsert(ctx context.Context, cred *domain.Credential) error {
	if m.UpsertErr != nil {
		return m.UpsertErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	key := credKey(cred.UserID, cred.Provider)
	if existing, ok := m.creds[key]; ok {
		cred.ID = existing.ID
		cred.CreatedAt = existing.CreatedAt
	} else {
		if cred.ID == "" {
			cred.ID = uuid.NewString()
		}
		cred.CreatedAt = now
	}
	cred.UpdatedAt = now
	cred.IsActive = true

	stored := *cred
	m.creds[key] = &stored
	return nil
}

func (m *MockCredentialStore) Get(ctx context.Context, userID string, provider domain.ProviderType) (*domain.Credential, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cred, ok := m.creds[credKey(userID, provider)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	c := *cred
	return &c, nil
}

func (m *MockCredentialStore) ListActive(ctx context.Context, userID string) ([]*domain.Credential, error) {
	if m.ListActiveErr != nil {
		return nil, m.ListActiveErr
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []*domain.Credential
	for _, p := range domain.SupportedProviders() {
		cred, ok := m.creds[credKey(userID, p)]
		if ok && cred.IsActive {
			c := *cred
			result = append(result, &c)
		}
	}
	return result, nil
}

func (m *MockCredentialStore) List(ctx context.Context, userID string) ([]*domain.CredentialSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []*domain.CredentialSummary
	for _, p := range domain.SupportedProviders() {
		if cred, ok := m.creds[credKey(userID, p)]; ok {
			result = append(result, cred.ToSummary())
		}
	}
	return result, nil
}

func (m *MockCredentialStore) Revoke(ctx context.Context, userID string, provider domain.ProviderType) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cred, ok := m.creds[credKey(userID, provider)]
	if !ok {
		return domain.ErrNotFound
	}
	cred.IsActive = false
	cred.AccessToken = ""
	cred.RefreshToken = ""
	cred.UpdatedAt = time.Now()
	return nil
}

func (m *MockCredentialStore) UpdateTokens(ctx context.Context, userID string, provider domain.ProviderType, secrets *domain.CredentialSecrets, expiry *time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cred, ok := m.creds[credKey(userID, provider)]
	if !ok || !cred.IsActive {
		return domain.ErrNotFound
	}
	cred.AccessToken = secrets.AccessToken
	cred.RefreshToken = secrets.RefreshToken
	cred.ExpiresAt = expiry
	cred.UpdatedAt = time.Now()
	return nil
}

// Count returns the number of stored rows, active or not.
func (m *MockCredentialStore) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.creds)
}
