package connectors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/custodia-labs/sercha-pulse/internal/core/domain"
	"github.com/custodia-labs/sercha-pulse/internal/core/ports/driven"
)

// providerAPI is the per-provider part of the strategy: the request paths and
// response shapes of identity and listing endpoints. Everything else (auth,
// pacing, truncation, error mapping) is shared.
type providerAPI interface {
	// identity resolves the user and organisation behind a fresh token.
	identity(ctx context.Context, c *apiClient, token *driven.OAuthToken) (*driven.OAuthUserInfo, error)

	// containers lists up to max containers, most recently active first where
	// the provider can sort. max <= 0 means no cap.
	containers(ctx context.Context, c *apiClient, cred *domain.Credential, max int) ([]*domain.Container, error)

	// messages lists raw messages of one container.
	messages(ctx context.Context, c *apiClient, cred *domain.Credential, container *domain.Container, opts driven.ListOptions) ([]json.RawMessage, error)

	// meetings lists raw meetings; container is set on records that need a
	// sub-type (e.g. webinars).
	meetings(ctx context.Context, c *apiClient, cred *domain.Credential, opts driven.ListOptions) ([]domain.RawRecord, error)
}

// Ensure Adapter implements the interface.
var _ driven.ProviderAdapter = (*Adapter)(nil)

// Adapter is the configuration-driven ProviderAdapter for one provider.
type Adapter struct {
	spec       Spec
	api        providerAPI
	httpClient *http.Client
	configs    driven.ProviderConfigStore
	policy     domain.ScanPolicy
	pacer      driven.Pacer
	logger     *slog.Logger
}

// Type returns the provider type.
func (a *Adapter) Type() domain.ProviderType {
	return a.spec.Type
}

// Capabilities reports which unified entities the provider produces.
func (a *Adapter) Capabilities() domain.Capabilities {
	return a.spec.Capabilities
}

// Spec returns the strategy table row backing this adapter.
func (a *Adapter) Spec() Spec {
	return a.spec
}

// client builds an API client for one operation on behalf of cred.
func (a *Adapter) client(ctx context.Context, cred *domain.Credential) *apiClient {
	var cfg *domain.ProviderConfig
	if a.configs != nil {
		if c, err := a.configs.Get(ctx, a.spec.Type); err == nil {
			cfg = c
		}
	}

	authorization := "Bearer " + cred.AccessToken
	if a.spec.APIAuth == AuthStyleBot && cfg != nil && cfg.BotToken != "" {
		authorization = "Bot " + cfg.BotToken
	}

	return &apiClient{
		provider:      a.spec.Type,
		httpClient:    a.httpClient,
		baseURL:       a.spec.resolve(a.spec.APIBaseURL, cfg),
		authorization: authorization,
		pacer:         a.pacer,
		delay:         a.policy.InterCallDelay,
		logger:        a.logger,
	}
}

// ListContainers lists the provider's containers, capped by the scan policy.
func (a *Adapter) ListContainers(ctx context.Context, cred *domain.Credential) ([]*domain.Container, error) {
	if !a.spec.Capabilities.Messages {
		return nil, domain.ErrUnsupported
	}
	return a.listContainers(ctx, a.client(ctx, cred), cred)
}

func (a *Adapter) listContainers(ctx context.Context, c *apiClient, cred *domain.Credential) ([]*domain.Container, error) {
	containers, err := a.api.containers(ctx, c, cred, a.policy.MaxContainers)
	if err != nil {
		return nil, err
	}
	if a.policy.MaxContainers > 0 && len(containers) > a.policy.MaxContainers {
		containers = containers[:a.policy.MaxContainers]
	}
	return containers, nil
}

// ListMessages lists raw messages from one container.
func (a *Adapter) ListMessages(ctx context.Context, cred *domain.Credential, container *domain.Container, opts driven.ListOptions) ([]domain.RawRecord, error) {
	if !a.spec.Capabilities.Messages {
		return nil, domain.ErrUnsupported
	}
	return a.listMessages(ctx, a.client(ctx, cred), cred, container, opts)
}

func (a *Adapter) listMessages(ctx context.Context, c *apiClient, cred *domain.Credential, container *domain.Container, opts driven.ListOptions) ([]domain.RawRecord, error) {
	payloads, err := a.api.messages(ctx, c, cred, container, opts)
	if err != nil {
		return nil, err
	}

	records := make([]domain.RawRecord, 0, len(payloads))
	for _, p := range payloads {
		records = append(records, domain.RawRecord{
			Provider:  a.spec.Type,
			Kind:      domain.EntityMessages,
			Container: container,
			Payload:   p,
		})
	}
	return records, nil
}

// ListMeetings lists raw meetings for meeting-capable providers.
func (a *Adapter) ListMeetings(ctx context.Context, cred *domain.Credential, opts driven.ListOptions) ([]domain.RawRecord, error) {
	if !a.spec.Capabilities.Meetings {
		return nil, domain.ErrUnsupported
	}
	records, err := a.api.meetings(ctx, a.client(ctx, cred), cred, opts)
	if err != nil {
		return nil, err
	}
	for i := range records {
		records[i].Provider = a.spec.Type
		records[i].Kind = domain.EntityMeetings
	}
	return records, nil
}

// CollectMessages lists containers, truncates them to the scan policy and
// reads each container's messages serially. All calls share one client so
// that the inter-call delay separates every request to the provider.
func (a *Adapter) CollectMessages(ctx context.Context, cred *domain.Credential, opts driven.ListOptions) ([]domain.RawRecord, error) {
	if !a.spec.Capabilities.Messages {
		return nil, domain.ErrUnsupported
	}

	c := a.client(ctx, cred)
	containers, err := a.listContainers(ctx, c, cred)
	if err != nil {
		return nil, fmt.Errorf("list containers: %w", err)
	}

	var records []domain.RawRecord
	for _, container := range containers {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", domain.ErrProviderFetch, a.spec.Type, err)
		}

		batch, err := a.listMessages(ctx, c, cred, container, opts)
		if err != nil {
			if errors.Is(err, domain.ErrProviderUnauthorized) {
				return nil, err
			}
			a.logger.Warn("container scan failed",
				"provider", a.spec.Type,
				"container", container.ID,
				"error", err)
			continue
		}
		records = append(records, batch...)
	}

	a.logger.Debug("collected messages",
		"provider", a.spec.Type,
		"containers", len(containers),
		"records", len(records))
	return records, nil
}
