package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/custodia-labs/sercha-pulse/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.OAuthStateStore = (*OAuthStateStore)(nil)

const oauthStatePrefix = "sercha-pulse:oauth_state:"

// OAuthStateStore implements driven.OAuthStateStore using Redis.
// States expire through the key TTL and are consumed with GETDEL.
type OAuthStateStore struct {
	client *redis.Client
}

// NewOAuthStateStore creates a new Redis-backed OAuthStateStore
func NewOAuthStateStore(client *redis.Client) *OAuthStateStore {
	return &OAuthStateStore{client: client}
}

// Save stores a state with TTL based on ExpiresAt
func (s *OAuthStateStore) Save(ctx context.Context, state *driven.OAuthState) error {
	ttl := time.Until(state.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("oauth state already expired at %s", state.ExpiresAt.Format(time.RFC3339))
	}

	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal oauth state: %w", err)
	}

	if err := s.client.Set(ctx, oauthStatePrefix+state.Nonce, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to save oauth state: %w", err)
	}
	return nil
}

// GetAndDelete atomically retrieves and deletes the state.
// Returns nil, nil if the nonce is unknown, expired or already used.
func (s *OAuthStateStore) GetAndDelete(ctx context.Context, nonce string) (*driven.OAuthState, error) {
	data, err := s.client.GetDel(ctx, oauthStatePrefix+nonce).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get oauth state: %w", err)
	}

	var state driven.OAuthState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal oauth state: %w", err)
	}
	if time.Now().After(state.ExpiresAt) {
		return nil, nil
	}
	return &state, nil
}

// Cleanup is a no-op; Redis expires states on its own.
func (s *OAuthStateStore) Cleanup(ctx context.Context) error {
	return nil
}

// Ping checks if the Redis backend is healthy.
func (s *OAuthStateStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
