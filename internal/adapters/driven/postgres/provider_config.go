package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/custodia-labs/sercha-pulse/internal/core/domain"
	"github.com/custodia-labs/sercha-pulse/internal/core/ports/driven"
)

// Ensure ProviderConfigStore implements the interface.
var _ driven.ProviderConfigStore = (*ProviderConfigStore)(nil)

// ProviderConfigStore implements driven.ProviderConfigStore using PostgreSQL.
// Rows let operators rotate OAuth app credentials without a redeploy; the
// environment-backed store answers for providers without a row.
type ProviderConfigStore struct {
	db        *sql.DB
	encryptor *SecretEncryptor
}

// providerSecrets is the encrypted part of a provider_configs row.
type providerSecrets struct {
	ClientSecret string `json:"client_secret"`
	BotToken     string `json:"bot_token,omitempty"`
}

// NewProviderConfigStore creates a new PostgreSQL-backed provider config store.
func NewProviderConfigStore(db *sql.DB, encryptor *SecretEncryptor) *ProviderConfigStore {
	return &ProviderConfigStore{
		db:        db,
		encryptor: encryptor,
	}
}

// Save stores or updates a provider config (upsert).
func (s *ProviderConfigStore) Save(ctx context.Context, cfg *domain.ProviderConfig) error {
	if !cfg.ProviderType.IsSupported() {
		return fmt.Errorf("%w: %s", domain.ErrUnsupportedProvider, cfg.ProviderType)
	}

	secretBlob, err := s.encryptor.SealProviderSecrets(cfg.ProviderType, &providerSecrets{
		ClientSecret: cfg.ClientSecret,
		BotToken:     cfg.BotToken,
	})
	if err != nil {
		return fmt.Errorf("encrypt secrets: %w", err)
	}

	query := `
		INSERT INTO provider_configs (
			provider_type, client_id, secret_blob, tenant_id, base_url, scopes,
			enabled, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, TRUE, NOW(), NOW())
		ON CONFLICT (provider_type) DO UPDATE SET
			client_id = EXCLUDED.client_id,
			secret_blob = EXCLUDED.secret_blob,
			tenant_id = EXCLUDED.tenant_id,
			base_url = EXCLUDED.base_url,
			scopes = EXCLUDED.scopes,
			enabled = TRUE,
			updated_at = NOW()
	`

	_, err = s.db.ExecContext(ctx, query,
		cfg.ProviderType,
		cfg.ClientID,
		secretBlob,
		nullString(cfg.TenantID),
		nullString(cfg.BaseURL),
		pq.Array(cfg.Scopes),
	)
	if err != nil {
		return fmt.Errorf("save provider config: %w", err)
	}
	return nil
}

// Get retrieves an enabled provider config with decrypted secrets.
// Returns domain.ErrNotFound when there is no enabled row.
func (s *ProviderConfigStore) Get(ctx context.Context, providerType domain.ProviderType) (*domain.ProviderConfig, error) {
	query := `
		SELECT provider_type, client_id, secret_blob, tenant_id, base_url, scopes
		FROM provider_configs
		WHERE provider_type = $1 AND enabled
	`

	var cfg domain.ProviderConfig
	var secretBlob []byte
	var tenantID, baseURL sql.NullString
	var scopes []string

	err := s.db.QueryRowContext(ctx, query, providerType).Scan(
		&cfg.ProviderType,
		&cfg.ClientID,
		&secretBlob,
		&tenantID,
		&baseURL,
		pq.Array(&scopes),
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get provider config: %w", err)
	}

	if len(secretBlob) > 0 {
		secrets, err := s.encryptor.OpenProviderSecrets(cfg.ProviderType, secretBlob)
		if err != nil {
			return nil, fmt.Errorf("decrypt secrets: %w", err)
		}
		cfg.ClientSecret = secrets.ClientSecret
		cfg.BotToken = secrets.BotToken
	}

	cfg.TenantID = tenantID.String
	cfg.BaseURL = baseURL.String
	if len(scopes) > 0 {
		cfg.Scopes = scopes
	}
	return &cfg, nil
}

// List returns the provider types with an enabled row, in canonical order.
func (s *ProviderConfigStore) List(ctx context.Context) ([]domain.ProviderType, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT provider_type FROM provider_configs WHERE enabled")
	if err != nil {
		return nil, fmt.Errorf("list provider configs: %w", err)
	}
	defer rows.Close()

	present := make(map[domain.ProviderType]bool)
	for rows.Next() {
		var p domain.ProviderType
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("scan provider config: %w", err)
		}
		present[p] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate provider configs: %w", err)
	}

	return canonicalOrder(present), nil
}

// Disable stops a row from overriding the environment configuration.
func (s *ProviderConfigStore) Disable(ctx context.Context, providerType domain.ProviderType) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE provider_configs SET enabled = FALSE, updated_at = NOW() WHERE provider_type = $1", providerType)
	if err != nil {
		return fmt.Errorf("disable provider config: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func canonicalOrder(present map[domain.ProviderType]bool) []domain.ProviderType {
	out := make([]domain.ProviderType, 0, len(present))
	for _, p := range domain.SupportedProviders() {
		if present[p] {
			out = append(out, p)
		}
	}
	return out
}
