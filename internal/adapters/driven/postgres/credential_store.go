package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/custodia-labs/sercha-pulse/internal/core/domain"
	"github.com/custodia-labs/sercha-pulse/internal/core/ports/driven"
)

// Ensure CredentialStore implements the interface.
var _ driven.CredentialStore = (*CredentialStore)(nil)

// CredentialStore implements driven.CredentialStore using PostgreSQL.
// Access and refresh tokens are stored as one encrypted blob.
type CredentialStore struct {
	db        *sql.DB
	encryptor *SecretEncryptor
}

// NewCredentialStore creates a new PostgreSQL-backed credential store.
func NewCredentialStore(db *sql.DB, encryptor *SecretEncryptor) *CredentialStore {
	return &CredentialStore{
		db:        db,
		encryptor: encryptor,
	}
}

const credentialColumns = `
	id, user_id, provider, secret_blob, token_type, scopes, expires_at,
	external_team_id, external_team_name, external_user_id, external_user_name,
	is_active, created_at, updated_at`

// Upsert inserts the credential or updates the row of the same (user, provider).
func (s *CredentialStore) Upsert(ctx context.Context, cred *domain.Credential) error {
	secretBlob, err := s.encryptor.SealCredential(cred.UserID, cred.Provider, cred.Secrets())
	if err != nil {
		return fmt.Errorf("encrypt secrets: %w", err)
	}

	id := cred.ID
	if id == "" {
		id = uuid.NewString()
	}

	query := `
		INSERT INTO credentials (
			id, user_id, provider, secret_blob, token_type, scopes, expires_at,
			external_team_id, external_team_name, external_user_id, external_user_name,
			is_active, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, TRUE, NOW(), NOW())
		ON CONFLICT (user_id, provider) DO UPDATE SET
			secret_blob = EXCLUDED.secret_blob,
			token_type = EXCLUDED.token_type,
			scopes = EXCLUDED.scopes,
			expires_at = EXCLUDED.expires_at,
			external_team_id = EXCLUDED.external_team_id,
			external_team_name = EXCLUDED.external_team_name,
			external_user_id = EXCLUDED.external_user_id,
			external_user_name = EXCLUDED.external_user_name,
			is_active = TRUE,
			updated_at = NOW()
		RETURNING id, created_at, updated_at
	`

	err = s.db.QueryRowContext(ctx, query,
		id,
		cred.UserID,
		cred.Provider,
		secretBlob,
		nullString(cred.TokenType),
		pq.Array(scopesOrEmpty(cred.Scopes)),
		nullTime(cred.ExpiresAt),
		nullString(cred.ExternalTeamID),
		nullString(cred.ExternalTeamName),
		nullString(cred.ExternalUserID),
		nullString(cred.ExternalUserName),
	).Scan(&cred.ID, &cred.CreatedAt, &cred.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert credential: %w", err)
	}
	cred.IsActive = true
	return nil
}

// Get retrieves the credential for a pair with decrypted secrets.
func (s *CredentialStore) Get(ctx context.Context, userID string, provider domain.ProviderType) (*domain.Credential, error) {
	query := `SELECT ` + credentialColumns + ` FROM credentials WHERE user_id = $1 AND provider = $2`

	cred, err := s.scan(s.db.QueryRowContext(ctx, query, userID, provider))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get credential: %w", err)
	}
	return cred, nil
}

// ListActive retrieves the user's active credentials with decrypted secrets.
func (s *CredentialStore) ListActive(ctx context.Context, userID string) ([]*domain.Credential, error) {
	query := `SELECT ` + credentialColumns + `
		FROM credentials
		WHERE user_id = $1 AND is_active
		ORDER BY provider`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list active credentials: %w", err)
	}
	defer rows.Close()

	var creds []*domain.Credential
	for rows.Next() {
		cred, err := s.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan credential: %w", err)
		}
		creds = append(creds, cred)
	}
	return creds, rows.Err()
}

// List retrieves all of the user's credentials as summaries.
func (s *CredentialStore) List(ctx context.Context, userID string) ([]*domain.CredentialSummary, error) {
	query := `SELECT ` + credentialColumns + `
		FROM credentials
		WHERE user_id = $1
		ORDER BY created_at`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list credentials: %w", err)
	}
	defer rows.Close()

	summaries := make([]*domain.CredentialSummary, 0)
	for rows.Next() {
		cred, err := s.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan credential: %w", err)
		}
		summaries = append(summaries, cred.ToSummary())
	}
	return summaries, rows.Err()
}

// Revoke deactivates the credential and clears its secrets.
func (s *CredentialStore) Revoke(ctx context.Context, userID string, provider domain.ProviderType) error {
	query := `
		UPDATE credentials
		SET is_active = FALSE, secret_blob = NULL, updated_at = NOW()
		WHERE user_id = $1 AND provider = $2
	`
	return s.execOne(ctx, "revoke credential", query, userID, provider)
}

// UpdateTokens replaces the secrets and expiry after a token refresh. A
// revoked row is left untouched and reported as domain.ErrNotFound.
func (s *CredentialStore) UpdateTokens(ctx context.Context, userID string, provider domain.ProviderType, secrets *domain.CredentialSecrets, expiry *time.Time) error {
	secretBlob, err := s.encryptor.SealCredential(userID, provider, secrets)
	if err != nil {
		return fmt.Errorf("encrypt secrets: %w", err)
	}

	query := `
		UPDATE credentials
		SET secret_blob = $3, expires_at = $4, updated_at = NOW()
		WHERE user_id = $1 AND provider = $2 AND is_active
	`
	return s.execOne(ctx, "update tokens", query, userID, provider, secretBlob, nullTime(expiry))
}

func (s *CredentialStore) execOne(ctx context.Context, op, query string, args ...any) error {
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *CredentialStore) scan(row rowScanner) (*domain.Credential, error) {
	var cred domain.Credential
	var secretBlob []byte
	var tokenType, teamID, teamName, userID, userName sql.NullString
	var expiresAt sql.NullTime
	var scopes []string

	err := row.Scan(
		&cred.ID,
		&cred.UserID,
		&cred.Provider,
		&secretBlob,
		&tokenType,
		pq.Array(&scopes),
		&expiresAt,
		&teamID,
		&teamName,
		&userID,
		&userName,
		&cred.IsActive,
		&cred.CreatedAt,
		&cred.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	// Revoked rows have no secrets.
	if len(secretBlob) > 0 {
		secrets, err := s.encryptor.OpenCredential(cred.UserID, cred.Provider, secretBlob)
		if err != nil {
			return nil, fmt.Errorf("decrypt secrets: %w", err)
		}
		cred.AccessToken = secrets.AccessToken
		cred.RefreshToken = secrets.RefreshToken
	}

	cred.TokenType = tokenType.String
	cred.Scopes = scopes
	cred.ExpiresAt = timePtr(expiresAt)
	cred.ExternalTeamID = teamID.String
	cred.ExternalTeamName = teamName.String
	cred.ExternalUserID = userID.String
	cred.ExternalUserName = userName.String
	return &cred, nil
}

// scopesOrEmpty keeps the NOT NULL scopes column at '{}' for nil slices.
func scopesOrEmpty(scopes []string) []string {
	if scopes == nil {
		return []string{}
	}
	return scopes
}
