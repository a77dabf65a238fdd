package services

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/custodia-labs/sercha-pulse/internal/core/domain"
	"github.com/custodia-labs/sercha-pulse/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-pulse/internal/core/ports/driving"
)

// Ensure aggregationService implements AggregationService
var _ driving.AggregationService = (*aggregationService)(nil)

// DefaultProviderTimeout bounds one provider's share of a query.
const DefaultProviderTimeout = 15 * time.Second

// AggregationServiceConfig holds the dependencies of the aggregation service.
type AggregationServiceConfig struct {
	CredentialStore driven.CredentialStore
	Adapters        driven.ProviderAdapterRegistry
	Normalisers     driven.NormaliserRegistry

	// Refresher retries a provider once after a rejected credential. Optional.
	Refresher driven.TokenRefresher

	// ProviderTimeout defaults to DefaultProviderTimeout.
	ProviderTimeout time.Duration

	Logger *slog.Logger
}

type aggregationService struct {
	credentialStore driven.CredentialStore
	adapters        driven.ProviderAdapterRegistry
	normalisers     driven.NormaliserRegistry
	refresher       driven.TokenRefresher
	timeout         time.Duration
	logger          *slog.Logger

	// refreshes collapses concurrent refreshes of one credential.
	refreshes singleflight.Group
}

// NewAggregationService creates a new AggregationService.
func NewAggregationService(cfg AggregationServiceConfig) driving.AggregationService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.ProviderTimeout
	if timeout <= 0 {
		timeout = DefaultProviderTimeout
	}
	return &aggregationService{
		credentialStore: cfg.CredentialStore,
		adapters:        cfg.Adapters,
		normalisers:     cfg.Normalisers,
		refresher:       cfg.Refresher,
		timeout:         timeout,
		logger:          logger.With("component", "aggregation"),
	}
}

// ResolveConnectedProviders returns the user's connected providers in canonical order.
func (s *aggregationService) ResolveConnectedProviders(ctx context.Context, userID string, requested []domain.ProviderType) ([]domain.ProviderType, error) {
	creds, err := s.connected(ctx, userID, requested)
	if err != nil {
		return nil, err
	}
	providers := make([]domain.ProviderType, 0, len(creds))
	for _, c := range creds {
		providers = append(providers, c.Provider)
	}
	return providers, nil
}

// connected returns the active credentials that have an adapter, filtered by
// requested when it is non-empty.
func (s *aggregationService) connected(ctx context.Context, userID string, requested []domain.ProviderType) ([]*domain.Credential, error) {
	if userID == "" {
		return nil, domain.ErrUnauthorized
	}
	active, err := s.credentialStore.ListActive(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list active credentials: %w", err)
	}

	byProvider := make(map[domain.ProviderType]*domain.Credential, len(active))
	for _, c := range active {
		byProvider[c.Provider] = c
	}

	var out []*domain.Credential
	for _, p := range domain.SupportedProviders() {
		cred, ok := byProvider[p]
		if !ok {
			continue
		}
		if len(requested) > 0 && !slices.Contains(requested, p) {
			continue
		}
		if _, ok := s.adapters.Adapter(p); !ok {
			continue
		}
		out = append(out, cred)
	}
	return out, nil
}

// FetchMessages returns merged messages, newest first.
func (s *aggregationService) FetchMessages(ctx context.Context, userID string, opts domain.DataIntegrationOptions) (*domain.AggregateResult[*domain.UnifiedMessage], error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	creds, err := s.connected(ctx, userID, opts.Services)
	if err != nil {
		return nil, err
	}
	return s.fetchMessages(ctx, creds, opts).result(opts.Limit), nil
}

// FetchMeetings returns merged meetings, newest first.
func (s *aggregationService) FetchMeetings(ctx context.Context, userID string, opts domain.DataIntegrationOptions) (*domain.AggregateResult[*domain.UnifiedMeeting], error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	creds, err := s.connected(ctx, userID, opts.Services)
	if err != nil {
		return nil, err
	}
	return s.fetchMeetings(ctx, creds, opts).result(opts.Limit), nil
}

// FetchActivities projects messages and meetings onto one timeline.
func (s *aggregationService) FetchActivities(ctx context.Context, userID string, opts domain.DataIntegrationOptions) (*domain.AggregateResult[*domain.UnifiedActivity], error) {
	bundle, err := s.FetchAll(ctx, userID, opts)
	if err != nil {
		return nil, err
	}
	return bundle.Activities, nil
}

// FetchAll runs the message and meeting fan-outs concurrently and derives
// activities from their results without further provider calls.
func (s *aggregationService) FetchAll(ctx context.Context, userID string, opts domain.DataIntegrationOptions) (*domain.UnifiedBundle, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	creds, err := s.connected(ctx, userID, opts.Services)
	if err != nil {
		return nil, err
	}

	var (
		messages *merged[*domain.UnifiedMessage]
		meetings *merged[*domain.UnifiedMeeting]
	)
	var g errgroup.Group
	g.Go(func() error {
		messages = s.fetchMessages(ctx, creds, opts)
		return nil
	})
	g.Go(func() error {
		meetings = s.fetchMeetings(ctx, creds, opts)
		return nil
	})
	_ = g.Wait()

	return &domain.UnifiedBundle{
		Messages:   messages.result(opts.Limit),
		Meetings:   meetings.result(opts.Limit),
		Activities: activitiesFrom(messages, meetings).result(opts.Limit),
	}, nil
}

// ListContainers lists a connected provider's containers.
func (s *aggregationService) ListContainers(ctx context.Context, userID string, provider domain.ProviderType) ([]*domain.Container, error) {
	if !provider.IsSupported() {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedProvider, provider)
	}
	cred, err := s.credentialStore.Get(ctx, userID, provider)
	if err != nil {
		return nil, err
	}
	if !cred.IsActive {
		return nil, domain.ErrNotFound
	}
	adapter, ok := s.adapters.Adapter(provider)
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedProvider, provider)
	}

	var containers []*domain.Container
	err = s.withRefresh(ctx, cred, func(ctx context.Context, cred *domain.Credential) error {
		var err error
		containers, err = adapter.ListContainers(ctx, cred)
		return err
	})
	if err != nil {
		return nil, err
	}
	if containers == nil {
		containers = []*domain.Container{}
	}
	return containers, nil
}

func (s *aggregationService) fetchMessages(ctx context.Context, creds []*domain.Credential, opts domain.DataIntegrationOptions) *merged[*domain.UnifiedMessage] {
	return fanOut(ctx, s, creds, opts,
		func(c domain.Capabilities) bool { return c.Messages },
		func(ctx context.Context, adapter driven.ProviderAdapter, cred *domain.Credential, lo driven.ListOptions) ([]*domain.UnifiedMessage, error) {
			records, err := adapter.CollectMessages(ctx, cred, lo)
			if err != nil {
				return nil, err
			}
			msgs, errs := s.normalisers.NormaliseMessages(records)
			s.logSkipped(ctx, cred.Provider, domain.EntityMessages, errs)
			return msgs, nil
		},
		func(m *domain.UnifiedMessage) time.Time { return m.Timestamp },
		func(m *domain.UnifiedMessage) (domain.ProviderType, string) { return m.Service, m.ID },
		func(m *domain.UnifiedMessage) { m.Metadata = nil },
	)
}

func (s *aggregationService) fetchMeetings(ctx context.Context, creds []*domain.Credential, opts domain.DataIntegrationOptions) *merged[*domain.UnifiedMeeting] {
	return fanOut(ctx, s, creds, opts,
		func(c domain.Capabilities) bool { return c.Meetings },
		func(ctx context.Context, adapter driven.ProviderAdapter, cred *domain.Credential, lo driven.ListOptions) ([]*domain.UnifiedMeeting, error) {
			records, err := adapter.ListMeetings(ctx, cred, lo)
			if err != nil {
				return nil, err
			}
			meetings, errs := s.normalisers.NormaliseMeetings(records)
			s.logSkipped(ctx, cred.Provider, domain.EntityMeetings, errs)
			return meetings, nil
		},
		func(m *domain.UnifiedMeeting) time.Time { return m.StartTime },
		func(m *domain.UnifiedMeeting) (domain.ProviderType, string) { return m.Service, m.ID },
		func(m *domain.UnifiedMeeting) { m.Metadata = nil },
	)
}

func (s *aggregationService) logSkipped(ctx context.Context, provider domain.ProviderType, kind domain.EntityKind, errs []error) {
	if len(errs) == 0 {
		return
	}
	s.logger.WarnContext(ctx, "skipped malformed records",
		"provider", provider, "kind", kind, "count", len(errs), "first_error", errs[0])
}

// withRefresh runs fn with cred's tokens. A credential close to expiry is
// refreshed first. Otherwise a credential the provider rejects is refreshed
// once and fn is retried with the new tokens.
func (s *aggregationService) withRefresh(ctx context.Context, cred *domain.Credential, fn func(context.Context, *domain.Credential) error) error {
	if s.refresher == nil || !cred.CanRefresh() {
		return fn(ctx, cred)
	}

	if cred.NeedsRefresh() {
		updated, err := s.refresh(ctx, cred)
		switch {
		case err == nil:
			return fn(ctx, updated)
		case errors.Is(err, domain.ErrUnsupported):
		default:
			// The stored token may still be accepted.
			s.logger.WarnContext(ctx, "token refresh before expiry failed",
				"provider", cred.Provider, "expired", cred.IsExpired(), "error", err)
			return fn(ctx, cred)
		}
	}

	err := fn(ctx, cred)
	if err == nil || !errors.Is(err, domain.ErrProviderUnauthorized) {
		return err
	}

	updated, rerr := s.refresh(ctx, cred)
	if rerr != nil {
		if errors.Is(rerr, domain.ErrUnsupported) {
			return err
		}
		s.logger.WarnContext(ctx, "token refresh failed", "provider", cred.Provider, "error", rerr)
		return fmt.Errorf("%w: refresh failed: %v", domain.ErrProviderUnauthorized, rerr)
	}
	return fn(ctx, updated)
}

// refresh collapses concurrent refreshes of one credential into one call.
func (s *aggregationService) refresh(ctx context.Context, cred *domain.Credential) (*domain.Credential, error) {
	v, err, _ := s.refreshes.Do(cred.UserID+":"+string(cred.Provider), func() (any, error) {
		return s.refresher.Refresh(ctx, cred)
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.Credential), nil
}

// providerResult is one goroutine's outcome, written by index.
type providerResult[T any] struct {
	provider  domain.ProviderType
	items     []T
	err       error
	rateLimit *domain.RateLimitStatus
}

// merged holds the window-filtered, sorted records of every provider before
// truncation to the query limit.
type merged[T any] struct {
	items      []T
	errors     map[domain.ProviderType]string
	rateLimits map[domain.ProviderType]domain.RateLimitStatus
	attempted  []domain.ProviderType
	succeeded  []domain.ProviderType
}

func (m *merged[T]) result(limit int) *domain.AggregateResult[T] {
	res := &domain.AggregateResult[T]{
		Data:               m.items,
		TotalServices:      len(m.attempted),
		SuccessfulServices: len(m.succeeded),
		TotalCount:         len(m.items),
	}
	if res.Data == nil {
		res.Data = []T{}
	}
	if limit > 0 && len(res.Data) > limit {
		res.Data = res.Data[:limit]
	}
	res.HasMore = res.TotalCount > limit
	if len(m.errors) > 0 {
		res.Errors = m.errors
	}
	if len(m.rateLimits) > 0 {
		res.RateLimits = m.rateLimits
	}
	return res
}

// perProviderLimit splits limit evenly, rounding up.
func perProviderLimit(limit, providers int) int {
	if providers <= 0 {
		return limit
	}
	return (limit + providers - 1) / providers
}

// fanOut queries every capable provider concurrently and merges the results.
// Provider failures are recorded and never abort the other providers.
func fanOut[T any](
	ctx context.Context,
	s *aggregationService,
	creds []*domain.Credential,
	opts domain.DataIntegrationOptions,
	capable func(domain.Capabilities) bool,
	fetch func(context.Context, driven.ProviderAdapter, *domain.Credential, driven.ListOptions) ([]T, error),
	timestamp func(T) time.Time,
	key func(T) (domain.ProviderType, string),
	strip func(T),
) *merged[T] {
	type target struct {
		cred    *domain.Credential
		adapter driven.ProviderAdapter
	}
	var targets []target
	for _, cred := range creds {
		adapter, ok := s.adapters.Adapter(cred.Provider)
		if !ok || !capable(adapter.Capabilities()) {
			continue
		}
		targets = append(targets, target{cred: cred, adapter: adapter})
	}

	listOpts := driven.ListOptions{
		Since: opts.DateFrom,
		Until: opts.DateTo,
		Limit: perProviderLimit(opts.Limit, len(targets)),
	}

	results := make([]providerResult[T], len(targets))
	var g errgroup.Group
	for i, t := range targets {
		g.Go(func() error {
			pctx, cancel := context.WithTimeout(ctx, s.timeout)
			defer cancel()
			pctx, recorder := driven.WithRateLimitRecorder(pctx)

			var items []T
			err := s.withRefresh(pctx, t.cred, func(ctx context.Context, cred *domain.Credential) error {
				var err error
				items, err = fetch(ctx, t.adapter, cred, listOpts)
				return err
			})
			if err == nil && pctx.Err() != nil {
				err = pctx.Err()
			}
			results[i] = providerResult[T]{
				provider:  t.cred.Provider,
				items:     items,
				err:       err,
				rateLimit: recorder.Status(),
			}
			return nil
		})
	}
	_ = g.Wait()

	out := &merged[T]{
		errors:     make(map[domain.ProviderType]string),
		rateLimits: make(map[domain.ProviderType]domain.RateLimitStatus),
	}
	for _, r := range results {
		out.attempted = append(out.attempted, r.provider)
		if r.rateLimit != nil {
			out.rateLimits[r.provider] = *r.rateLimit
		}
		if r.err != nil {
			out.errors[r.provider] = providerErrorMessage(r.err, s.timeout)
			s.logger.WarnContext(ctx, "provider fetch failed", "provider", r.provider, "error", r.err)
			continue
		}
		out.succeeded = append(out.succeeded, r.provider)

		kept := make([]T, 0, len(r.items))
		for _, item := range r.items {
			if !opts.InWindow(timestamp(item)) {
				continue
			}
			if !opts.IncludeMetadata {
				strip(item)
			}
			kept = append(kept, item)
		}
		sortNewestFirst(kept, timestamp, key)
		if len(kept) > listOpts.Limit {
			kept = kept[:listOpts.Limit]
		}
		out.items = append(out.items, kept...)
	}
	sortNewestFirst(out.items, timestamp, key)
	return out
}

// sortNewestFirst orders by timestamp descending, then service and id ascending.
func sortNewestFirst[T any](items []T, timestamp func(T) time.Time, key func(T) (domain.ProviderType, string)) {
	slices.SortStableFunc(items, func(a, b T) int {
		if c := timestamp(b).Compare(timestamp(a)); c != 0 {
			return c
		}
		sa, ia := key(a)
		sb, ib := key(b)
		if c := cmp.Compare(sa, sb); c != 0 {
			return c
		}
		return cmp.Compare(ia, ib)
	})
}

func providerErrorMessage(err error, timeout time.Duration) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Sprintf("timed out after %s", timeout)
	}
	return err.Error()
}

// activitiesFrom projects both fan-outs onto one timeline. A provider counts
// as successful when neither of its fetches failed.
func activitiesFrom(messages *merged[*domain.UnifiedMessage], meetings *merged[*domain.UnifiedMeeting]) *merged[*domain.UnifiedActivity] {
	out := &merged[*domain.UnifiedActivity]{
		errors:     make(map[domain.ProviderType]string),
		rateLimits: make(map[domain.ProviderType]domain.RateLimitStatus),
	}
	for _, m := range messages.items {
		out.items = append(out.items, domain.ActivityFromMessage(m))
	}
	for _, m := range meetings.items {
		out.items = append(out.items, domain.ActivityFromMeeting(m))
	}
	sortNewestFirst(out.items,
		func(a *domain.UnifiedActivity) time.Time { return a.Timestamp },
		func(a *domain.UnifiedActivity) (domain.ProviderType, string) { return a.Service, a.ID },
	)

	for _, src := range []map[domain.ProviderType]string{messages.errors, meetings.errors} {
		for p, msg := range src {
			if prev, ok := out.errors[p]; ok && prev != msg {
				msg = prev + "; " + msg
			}
			out.errors[p] = msg
		}
	}
	for _, src := range []map[domain.ProviderType]domain.RateLimitStatus{messages.rateLimits, meetings.rateLimits} {
		for p, rl := range src {
			out.rateLimits[p] = rl
		}
	}

	for _, p := range domain.SupportedProviders() {
		if !slices.Contains(messages.attempted, p) && !slices.Contains(meetings.attempted, p) {
			continue
		}
		out.attempted = append(out.attempted, p)
		if _, failed := out.errors[p]; !failed {
			out.succeeded = append(out.succeeded, p)
		}
	}
	return out
}
