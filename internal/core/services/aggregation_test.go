package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-pulse/internal/core/domain"
	"github.com/custodia-labs/sercha-pulse/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-pulse/internal/core/ports/driven/mocks"
	"github.com/custodia-labs/sercha-pulse/internal/normalisers"
)

const testUser = "user-1"

var baseTime = time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

func slackRecord(offset time.Duration, text string) domain.RawRecord {
	ts := baseTime.Add(offset)
	payload, _ := json.Marshal(map[string]any{
		"type": "message",
		"ts":   fmt.Sprintf("%d.000000", ts.Unix()),
		"user": "U1",
		"text": text,
	})
	return domain.RawRecord{
		Provider:  domain.ProviderTypeSlack,
		Kind:      domain.EntityMessages,
		Container: &domain.Container{ID: "C1", Name: "general", Type: "channel"},
		Payload:   payload,
	}
}

func malformedSlackRecord() domain.RawRecord {
	return domain.RawRecord{
		Provider: domain.ProviderTypeSlack,
		Kind:     domain.EntityMessages,
		Payload:  json.RawMessage(`{"type":"message","text":"no ts"}`),
	}
}

func discordRecord(id string, offset time.Duration) domain.RawRecord {
	payload, _ := json.Marshal(map[string]any{
		"id":         id,
		"channel_id": "D1",
		"timestamp":  baseTime.Add(offset).Format(time.RFC3339),
		"content":    "hello",
		"author":     map[string]any{"id": "A1", "username": "bob"},
	})
	return domain.RawRecord{Provider: domain.ProviderTypeDiscord, Kind: domain.EntityMessages, Payload: payload}
}

func zoomRecord(id int, offset time.Duration) domain.RawRecord {
	payload, _ := json.Marshal(map[string]any{
		"id":         id,
		"topic":      fmt.Sprintf("Meeting %d", id),
		"start_time": baseTime.Add(offset).Format(time.RFC3339),
		"duration":   30,
		"host_email": "host@acme.test",
	})
	return domain.RawRecord{Provider: domain.ProviderTypeZoom, Kind: domain.EntityMeetings, Payload: payload}
}

func messageAdapter(p domain.ProviderType, records ...domain.RawRecord) *mocks.MockProviderAdapter {
	return &mocks.MockProviderAdapter{
		Provider: p,
		Caps:     domain.Capabilities{Messages: true},
		CollectMessagesFn: func(ctx context.Context, cred *domain.Credential, opts driven.ListOptions) ([]domain.RawRecord, error) {
			return records, nil
		},
	}
}

type aggregationFixture struct {
	creds    *mocks.MockCredentialStore
	handlers *mocks.MockOAuthHandlerFactory
	svc      *aggregationService
}

func newAggregationFixture(t *testing.T, timeout time.Duration, adapters ...driven.ProviderAdapter) *aggregationFixture {
	t.Helper()
	f := &aggregationFixture{
		creds:    mocks.NewMockCredentialStore(),
		handlers: mocks.NewMockOAuthHandlerFactory(domain.SupportedProviders()...),
	}
	configs := mocks.NewMockProviderConfigStore()
	for _, p := range domain.SupportedProviders() {
		configs.Set(&domain.ProviderConfig{ProviderType: p, ClientID: "id", ClientSecret: "secret"})
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	f.svc = NewAggregationService(AggregationServiceConfig{
		CredentialStore: f.creds,
		Adapters:        mocks.NewMockAdapterRegistry(adapters...),
		Normalisers:     normalisers.DefaultRegistry(),
		Refresher:       NewTokenRefresher(f.handlers, configs, f.creds, logger),
		ProviderTimeout: timeout,
		Logger:          logger,
	}).(*aggregationService)

	for _, a := range adapters {
		f.connect(t, a.Type())
	}
	return f
}

func (f *aggregationFixture) connect(t *testing.T, p domain.ProviderType) {
	t.Helper()
	require.NoError(t, f.creds.Upsert(context.Background(), &domain.Credential{
		UserID:       testUser,
		Provider:     p,
		AccessToken:  "old-access",
		RefreshToken: "refresh-1",
	}))
}

func TestAggregation_PartialFailure(t *testing.T) {
	failing := &mocks.MockProviderAdapter{
		Provider: domain.ProviderTypeDiscord,
		Caps:     domain.Capabilities{Messages: true},
		CollectMessagesFn: func(ctx context.Context, cred *domain.Credential, opts driven.ListOptions) ([]domain.RawRecord, error) {
			return nil, fmt.Errorf("%w: discord API error 500", domain.ErrProviderFetch)
		},
	}
	f := newAggregationFixture(t, time.Second,
		messageAdapter(domain.ProviderTypeSlack, slackRecord(0, "a"), slackRecord(-time.Minute, "b")),
		failing,
	)

	res, err := f.svc.FetchMessages(context.Background(), testUser, domain.DataIntegrationOptions{})
	require.NoError(t, err)

	assert.Len(t, res.Data, 2)
	assert.Equal(t, 2, res.TotalServices)
	assert.Equal(t, 1, res.SuccessfulServices)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors, domain.ProviderTypeDiscord)
	for _, m := range res.Data {
		assert.Equal(t, domain.ProviderTypeSlack, m.Service)
	}
}

func TestAggregation_OrderIndependentOfCompletion(t *testing.T) {
	delayed := func(p domain.ProviderType, records ...domain.RawRecord) *mocks.MockProviderAdapter {
		a := messageAdapter(p, records...)
		a.CollectMessagesFn = func(ctx context.Context, cred *domain.Credential, opts driven.ListOptions) ([]domain.RawRecord, error) {
			time.Sleep(time.Duration(rand.IntN(20)) * time.Millisecond)
			return records, nil
		}
		return a
	}

	var want []string
	for run := 0; run < 5; run++ {
		f := newAggregationFixture(t, time.Second,
			delayed(domain.ProviderTypeSlack, slackRecord(-3*time.Minute, "s1"), slackRecord(time.Minute, "s2"), slackRecord(0, "tie")),
			delayed(domain.ProviderTypeDiscord, discordRecord("d1", -time.Minute), discordRecord("d2", 2*time.Minute), discordRecord("tie", 0)),
		)

		res, err := f.svc.FetchMessages(context.Background(), testUser, domain.DataIntegrationOptions{})
		require.NoError(t, err)

		var ids []string
		for i, m := range res.Data {
			ids = append(ids, m.ID)
			if i > 0 {
				assert.False(t, m.Timestamp.After(res.Data[i-1].Timestamp), "not newest first at %d", i)
			}
		}
		if want == nil {
			want = ids
			continue
		}
		assert.Equal(t, want, ids, "run %d", run)
	}

	// Equal timestamps break ties by service name.
	assert.Equal(t, []string{"d2", "C1:" + fmt.Sprintf("%d.000000", baseTime.Add(time.Minute).Unix()), "tie"}, want[:3])
}

func TestAggregation_LimitTruncates(t *testing.T) {
	var records []domain.RawRecord
	for i := 0; i < 30; i++ {
		records = append(records, slackRecord(-time.Duration(i)*time.Minute, "m"))
	}
	var seen atomic.Int32
	adapter := messageAdapter(domain.ProviderTypeSlack, records...)
	adapter.CollectMessagesFn = func(ctx context.Context, cred *domain.Credential, opts driven.ListOptions) ([]domain.RawRecord, error) {
		seen.Store(int32(opts.Limit))
		return records, nil
	}
	f := newAggregationFixture(t, time.Second, adapter)

	res, err := f.svc.FetchMessages(context.Background(), testUser, domain.DataIntegrationOptions{Limit: 10})
	require.NoError(t, err)

	assert.Len(t, res.Data, 10)
	assert.True(t, res.HasMore)
	assert.Equal(t, int32(10), seen.Load())
	assert.Equal(t, baseTime, res.Data[0].Timestamp.UTC())
}

func TestAggregation_PerProviderLimit(t *testing.T) {
	var limits [3]atomic.Int32
	var adapters []driven.ProviderAdapter
	for i, p := range []domain.ProviderType{domain.ProviderTypeSlack, domain.ProviderTypeMattermost, domain.ProviderTypeDiscord} {
		a := messageAdapter(p)
		a.CollectMessagesFn = func(ctx context.Context, cred *domain.Credential, opts driven.ListOptions) ([]domain.RawRecord, error) {
			limits[i].Store(int32(opts.Limit))
			return nil, nil
		}
		adapters = append(adapters, a)
	}
	f := newAggregationFixture(t, time.Second, adapters...)

	_, err := f.svc.FetchMessages(context.Background(), testUser, domain.DataIntegrationOptions{Limit: 10})
	require.NoError(t, err)
	for i := range limits {
		assert.Equal(t, int32(4), limits[i].Load())
	}
}

func TestPerProviderLimit(t *testing.T) {
	tests := []struct {
		limit, providers, want int
	}{
		{10, 1, 10},
		{10, 3, 4},
		{50, 7, 8},
		{1, 2, 1},
		{10, 0, 10},
	}
	for _, tt := range tests {
		if got := perProviderLimit(tt.limit, tt.providers); got != tt.want {
			t.Errorf("perProviderLimit(%d, %d) = %d, want %d", tt.limit, tt.providers, got, tt.want)
		}
	}
}

func TestAggregation_MalformedRecordDropped(t *testing.T) {
	f := newAggregationFixture(t, time.Second,
		messageAdapter(domain.ProviderTypeSlack, slackRecord(0, "a"), malformedSlackRecord(), slackRecord(-time.Minute, "b")),
	)

	res, err := f.svc.FetchMessages(context.Background(), testUser, domain.DataIntegrationOptions{})
	require.NoError(t, err)
	assert.Len(t, res.Data, 2)
	assert.Empty(t, res.Errors)
	assert.Equal(t, 1, res.SuccessfulServices)
}

func TestAggregation_IncludeMetadata(t *testing.T) {
	for _, include := range []bool{false, true} {
		t.Run(fmt.Sprintf("include=%v", include), func(t *testing.T) {
			f := newAggregationFixture(t, time.Second,
				messageAdapter(domain.ProviderTypeSlack, slackRecord(0, "a")),
				&mocks.MockProviderAdapter{
					Provider: domain.ProviderTypeZoom,
					Caps:     domain.Capabilities{Meetings: true},
					ListMeetingsFn: func(ctx context.Context, cred *domain.Credential, opts driven.ListOptions) ([]domain.RawRecord, error) {
						return []domain.RawRecord{zoomRecord(1, 0)}, nil
					},
				},
			)

			bundle, err := f.svc.FetchAll(context.Background(), testUser, domain.DataIntegrationOptions{IncludeMetadata: include})
			require.NoError(t, err)
			require.Len(t, bundle.Messages.Data, 1)
			require.Len(t, bundle.Meetings.Data, 1)
			require.Len(t, bundle.Activities.Data, 2)

			assert.Equal(t, include, bundle.Messages.Data[0].Metadata != nil)
			assert.Equal(t, include, bundle.Meetings.Data[0].Metadata != nil)
			for _, a := range bundle.Activities.Data {
				assert.Equal(t, include, a.Metadata != nil)
			}
		})
	}
}

func TestAggregation_TimeoutScenario(t *testing.T) {
	var records []domain.RawRecord
	for i := 0; i < 5; i++ {
		records = append(records, slackRecord(-time.Duration(i)*time.Minute, "ok"))
	}
	records = append(records, malformedSlackRecord())

	hanging := &mocks.MockProviderAdapter{
		Provider: domain.ProviderTypeDiscord,
		Caps:     domain.Capabilities{Messages: true},
		CollectMessagesFn: func(ctx context.Context, cred *domain.Credential, opts driven.ListOptions) ([]domain.RawRecord, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		},
	}
	f := newAggregationFixture(t, 50*time.Millisecond, messageAdapter(domain.ProviderTypeSlack, records...), hanging)

	res, err := f.svc.FetchMessages(context.Background(), testUser, domain.DataIntegrationOptions{})
	require.NoError(t, err)

	assert.Len(t, res.Data, 5)
	assert.Equal(t, 2, res.TotalServices)
	assert.Equal(t, 1, res.SuccessfulServices)
	require.Contains(t, res.Errors, domain.ProviderTypeDiscord)
	assert.Contains(t, res.Errors[domain.ProviderTypeDiscord], "timed out")
}

func TestAggregation_DisconnectedProviderExcluded(t *testing.T) {
	f := newAggregationFixture(t, time.Second,
		messageAdapter(domain.ProviderTypeSlack, slackRecord(0, "a")),
		messageAdapter(domain.ProviderTypeDiscord, discordRecord("d1", 0)),
	)
	require.NoError(t, f.creds.Revoke(context.Background(), testUser, domain.ProviderTypeDiscord))

	res, err := f.svc.FetchMessages(context.Background(), testUser, domain.DataIntegrationOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, res.TotalServices)
	require.Len(t, res.Data, 1)
	assert.Equal(t, domain.ProviderTypeSlack, res.Data[0].Service)
}

func TestAggregation_CapabilityFiltering(t *testing.T) {
	f := newAggregationFixture(t, time.Second,
		messageAdapter(domain.ProviderTypeSlack, slackRecord(0, "a")),
		&mocks.MockProviderAdapter{
			Provider: domain.ProviderTypeZoom,
			Caps:     domain.Capabilities{Meetings: true},
			ListMeetingsFn: func(ctx context.Context, cred *domain.Credential, opts driven.ListOptions) ([]domain.RawRecord, error) {
				return []domain.RawRecord{zoomRecord(1, 0), zoomRecord(2, time.Hour)}, nil
			},
		},
	)

	meetings, err := f.svc.FetchMeetings(context.Background(), testUser, domain.DataIntegrationOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, meetings.TotalServices)
	require.Len(t, meetings.Data, 2)
	assert.Equal(t, "2", meetings.Data[0].ID)

	activities, err := f.svc.FetchActivities(context.Background(), testUser, domain.DataIntegrationOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, activities.TotalServices)
	assert.Equal(t, 2, activities.SuccessfulServices)
	require.Len(t, activities.Data, 3)
	assert.Equal(t, domain.ActivityTypeMeeting, activities.Data[0].Type)
}

func TestAggregation_DateWindow(t *testing.T) {
	f := newAggregationFixture(t, time.Second,
		messageAdapter(domain.ProviderTypeSlack, slackRecord(-2*time.Hour, "old"), slackRecord(0, "in"), slackRecord(2*time.Hour, "future")),
	)
	from, to := baseTime.Add(-time.Hour), baseTime.Add(time.Hour)

	res, err := f.svc.FetchMessages(context.Background(), testUser, domain.DataIntegrationOptions{DateFrom: &from, DateTo: &to})
	require.NoError(t, err)
	require.Len(t, res.Data, 1)
	assert.Equal(t, "in", res.Data[0].Content)

	_, err = f.svc.FetchMessages(context.Background(), testUser, domain.DataIntegrationOptions{DateFrom: &to, DateTo: &from})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestAggregation_RefreshOnUnauthorized(t *testing.T) {
	var calls atomic.Int32
	adapter := messageAdapter(domain.ProviderTypeSlack)
	adapter.CollectMessagesFn = func(ctx context.Context, cred *domain.Credential, opts driven.ListOptions) ([]domain.RawRecord, error) {
		calls.Add(1)
		if cred.AccessToken != "refreshed-access" {
			return nil, domain.ErrProviderUnauthorized
		}
		return []domain.RawRecord{slackRecord(0, "a")}, nil
	}
	f := newAggregationFixture(t, time.Second, adapter)
	f.handlers.Handlers[domain.ProviderTypeSlack].Refresh = true

	res, err := f.svc.FetchMessages(context.Background(), testUser, domain.DataIntegrationOptions{})
	require.NoError(t, err)
	assert.Len(t, res.Data, 1)
	assert.Empty(t, res.Errors)
	assert.Equal(t, int32(2), calls.Load())

	stored, err := f.creds.Get(context.Background(), testUser, domain.ProviderTypeSlack)
	require.NoError(t, err)
	assert.Equal(t, "refreshed-access", stored.AccessToken)
	assert.Equal(t, "refresh-1", stored.RefreshToken, "refresh token kept when not rotated")
}

func TestAggregation_RefreshFailures(t *testing.T) {
	unauthorized := func() *mocks.MockProviderAdapter {
		a := messageAdapter(domain.ProviderTypeSlack)
		a.CollectMessagesFn = func(ctx context.Context, cred *domain.Credential, opts driven.ListOptions) ([]domain.RawRecord, error) {
			return nil, domain.ErrProviderUnauthorized
		}
		return a
	}

	t.Run("refresh rejected", func(t *testing.T) {
		f := newAggregationFixture(t, time.Second, unauthorized())
		h := f.handlers.Handlers[domain.ProviderTypeSlack]
		h.Refresh = true
		h.RefreshFn = func(string) (*driven.OAuthToken, error) { return nil, errors.New("invalid_grant") }

		res, err := f.svc.FetchMessages(context.Background(), testUser, domain.DataIntegrationOptions{})
		require.NoError(t, err)
		assert.Contains(t, res.Errors[domain.ProviderTypeSlack], "invalid_grant")
		assert.Equal(t, 1, h.Refreshes())
	})

	t.Run("still rejected after refresh", func(t *testing.T) {
		f := newAggregationFixture(t, time.Second, unauthorized())
		h := f.handlers.Handlers[domain.ProviderTypeSlack]
		h.Refresh = true

		res, err := f.svc.FetchMessages(context.Background(), testUser, domain.DataIntegrationOptions{})
		require.NoError(t, err)
		assert.Contains(t, res.Errors, domain.ProviderTypeSlack)
		assert.Equal(t, 1, h.Refreshes())
	})

	t.Run("provider without refresh", func(t *testing.T) {
		f := newAggregationFixture(t, time.Second, unauthorized())

		res, err := f.svc.FetchMessages(context.Background(), testUser, domain.DataIntegrationOptions{})
		require.NoError(t, err)
		assert.Equal(t, domain.ErrProviderUnauthorized.Error(), res.Errors[domain.ProviderTypeSlack])
		assert.Zero(t, f.handlers.Handlers[domain.ProviderTypeSlack].Refreshes())
	})
}

func TestAggregation_RefreshBeforeExpiry(t *testing.T) {
	connectExpiring := func(f *aggregationFixture) {
		expiry := time.Now().Add(time.Minute)
		require.NoError(t, f.creds.Upsert(context.Background(), &domain.Credential{
			UserID:       testUser,
			Provider:     domain.ProviderTypeSlack,
			AccessToken:  "old-access",
			RefreshToken: "refresh-1",
			ExpiresAt:    &expiry,
		}))
	}

	t.Run("refreshed before the call", func(t *testing.T) {
		var tokens []string
		adapter := messageAdapter(domain.ProviderTypeSlack)
		adapter.CollectMessagesFn = func(ctx context.Context, cred *domain.Credential, opts driven.ListOptions) ([]domain.RawRecord, error) {
			tokens = append(tokens, cred.AccessToken)
			return []domain.RawRecord{slackRecord(0, "a")}, nil
		}
		f := newAggregationFixture(t, time.Second, adapter)
		connectExpiring(f)
		h := f.handlers.Handlers[domain.ProviderTypeSlack]
		h.Refresh = true

		res, err := f.svc.FetchMessages(context.Background(), testUser, domain.DataIntegrationOptions{})
		require.NoError(t, err)
		assert.Len(t, res.Data, 1)
		assert.Equal(t, []string{"refreshed-access"}, tokens, "one provider call with the new token")
		assert.Equal(t, 1, h.Refreshes())

		stored, err := f.creds.Get(context.Background(), testUser, domain.ProviderTypeSlack)
		require.NoError(t, err)
		assert.False(t, stored.NeedsRefresh())
	})

	t.Run("failed refresh falls back to stored token", func(t *testing.T) {
		var tokens []string
		adapter := messageAdapter(domain.ProviderTypeSlack)
		adapter.CollectMessagesFn = func(ctx context.Context, cred *domain.Credential, opts driven.ListOptions) ([]domain.RawRecord, error) {
			tokens = append(tokens, cred.AccessToken)
			return []domain.RawRecord{slackRecord(0, "a")}, nil
		}
		f := newAggregationFixture(t, time.Second, adapter)
		connectExpiring(f)
		h := f.handlers.Handlers[domain.ProviderTypeSlack]
		h.Refresh = true
		h.RefreshFn = func(string) (*driven.OAuthToken, error) { return nil, errors.New("temporarily_unavailable") }

		res, err := f.svc.FetchMessages(context.Background(), testUser, domain.DataIntegrationOptions{})
		require.NoError(t, err)
		assert.Len(t, res.Data, 1)
		assert.Empty(t, res.Errors)
		assert.Equal(t, []string{"old-access"}, tokens)
		assert.Equal(t, 1, h.Refreshes())
	})

	t.Run("fresh token not refreshed", func(t *testing.T) {
		f := newAggregationFixture(t, time.Second, messageAdapter(domain.ProviderTypeSlack, slackRecord(0, "a")))
		h := f.handlers.Handlers[domain.ProviderTypeSlack]
		h.Refresh = true

		_, err := f.svc.FetchMessages(context.Background(), testUser, domain.DataIntegrationOptions{})
		require.NoError(t, err)
		assert.Zero(t, h.Refreshes())
	})
}

func TestAggregation_RateLimitsReported(t *testing.T) {
	adapter := messageAdapter(domain.ProviderTypeSlack)
	adapter.CollectMessagesFn = func(ctx context.Context, cred *domain.Credential, opts driven.ListOptions) ([]domain.RawRecord, error) {
		driven.RecordRateLimit(ctx, domain.RateLimitStatus{Limit: 50, Remaining: 3})
		return []domain.RawRecord{slackRecord(0, "a")}, nil
	}
	f := newAggregationFixture(t, time.Second, adapter)

	res, err := f.svc.FetchMessages(context.Background(), testUser, domain.DataIntegrationOptions{})
	require.NoError(t, err)
	require.Contains(t, res.RateLimits, domain.ProviderTypeSlack)
	assert.Equal(t, 3, res.RateLimits[domain.ProviderTypeSlack].Remaining)
}

func TestAggregation_ResolveConnectedProviders(t *testing.T) {
	f := newAggregationFixture(t, time.Second,
		messageAdapter(domain.ProviderTypeWebex),
		messageAdapter(domain.ProviderTypeSlack),
		messageAdapter(domain.ProviderTypeDiscord),
	)
	// Connected but without an adapter.
	f.connect(t, domain.ProviderTypeGoogle)

	all, err := f.svc.ResolveConnectedProviders(context.Background(), testUser, nil)
	require.NoError(t, err)
	assert.Equal(t, []domain.ProviderType{domain.ProviderTypeSlack, domain.ProviderTypeDiscord, domain.ProviderTypeWebex}, all)

	some, err := f.svc.ResolveConnectedProviders(context.Background(), testUser, []domain.ProviderType{domain.ProviderTypeWebex, domain.ProviderTypeZoom})
	require.NoError(t, err)
	assert.Equal(t, []domain.ProviderType{domain.ProviderTypeWebex}, some)

	none, err := f.svc.ResolveConnectedProviders(context.Background(), "someone-else", nil)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestAggregation_NoProviders(t *testing.T) {
	f := newAggregationFixture(t, time.Second)

	res, err := f.svc.FetchMessages(context.Background(), testUser, domain.DataIntegrationOptions{})
	require.NoError(t, err)
	assert.NotNil(t, res.Data)
	assert.Empty(t, res.Data)
	assert.Zero(t, res.TotalServices)
	assert.False(t, res.HasMore)
}

func TestAggregation_ListContainers(t *testing.T) {
	adapter := messageAdapter(domain.ProviderTypeSlack)
	adapter.ListContainersFn = func(ctx context.Context, cred *domain.Credential) ([]*domain.Container, error) {
		return []*domain.Container{{ID: "C1", Name: "general", Type: "channel"}}, nil
	}
	f := newAggregationFixture(t, time.Second, adapter)

	containers, err := f.svc.ListContainers(context.Background(), testUser, domain.ProviderTypeSlack)
	require.NoError(t, err)
	require.Len(t, containers, 1)
	assert.Equal(t, "general", containers[0].Name)

	_, err = f.svc.ListContainers(context.Background(), testUser, domain.ProviderTypeZoom)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, f.creds.Revoke(context.Background(), testUser, domain.ProviderTypeSlack))
	_, err = f.svc.ListContainers(context.Background(), testUser, domain.ProviderTypeSlack)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
