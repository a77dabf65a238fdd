package driving

import (
	"context"

	"github.com/custodia-labs/sercha-pulse/internal/core/domain"
)

// AggregationService fans a query out to the user's connected providers and
// merges the normalised results. Provider failures are reported in the
// result's Errors map and never returned as the call's error.
type AggregationService interface {
	// ResolveConnectedProviders returns the providers with an active credential,
	// intersected with requested when it is non-empty.
	ResolveConnectedProviders(ctx context.Context, userID string, requested []domain.ProviderType) ([]domain.ProviderType, error)

	// FetchMessages returns merged messages, newest first.
	FetchMessages(ctx context.Context, userID string, opts domain.DataIntegrationOptions) (*domain.AggregateResult[*domain.UnifiedMessage], error)

	// FetchMeetings returns merged meetings, newest first.
	FetchMeetings(ctx context.Context, userID string, opts domain.DataIntegrationOptions) (*domain.AggregateResult[*domain.UnifiedMeeting], error)

	// FetchActivities projects messages and meetings onto one timeline.
	FetchActivities(ctx context.Context, userID string, opts domain.DataIntegrationOptions) (*domain.AggregateResult[*domain.UnifiedActivity], error)

	// FetchAll returns messages, meetings and activities from one fan-out.
	FetchAll(ctx context.Context, userID string, opts domain.DataIntegrationOptions) (*domain.UnifiedBundle, error)

	// ListContainers lists a connected provider's containers.
	ListContainers(ctx context.Context, userID string, provider domain.ProviderType) ([]*domain.Container, error)
}
