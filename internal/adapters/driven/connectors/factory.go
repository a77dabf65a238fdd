package connectors

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/custodia-labs/sercha-pulse/internal/core/domain"
	"github.com/custodia-labs/sercha-pulse/internal/core/ports/driven"
)

// Ensure Registry implements the interfaces.
var (
	_ driven.ProviderAdapterRegistry = (*Registry)(nil)
	_ driven.OAuthHandlerFactory     = (*Registry)(nil)
)

// providerAPIs binds each provider type to its request/response shapes.
var providerAPIs = map[domain.ProviderType]providerAPI{
	domain.ProviderTypeSlack:      slackAPI{},
	domain.ProviderTypeMattermost: mattermostAPI{},
	domain.ProviderTypeDiscord:    discordAPI{},
	domain.ProviderTypeMSTeams:    msTeamsAPI{},
	domain.ProviderTypeGoogle:     googleAPI{},
	domain.ProviderTypeZoom:       zoomAPI{},
	domain.ProviderTypeWebex:      webexAPI{},
}

// Options configures a Registry.
type Options struct {
	// Specs overrides the strategy table; nil means DefaultSpecs().
	Specs      []Spec
	HTTPClient *http.Client
	Configs    driven.ProviderConfigStore
	Policy     domain.ScanPolicy
	Pacer      driven.Pacer
	Logger     *slog.Logger
}

// Registry holds the adapter and OAuth handler of every provider in the
// strategy table. It is read-only after NewRegistry.
type Registry struct {
	order    []domain.ProviderType
	specs    map[domain.ProviderType]Spec
	adapters map[domain.ProviderType]*Adapter
	handlers map[domain.ProviderType]*OAuthHandler
}

// NewRegistry builds adapters and handlers for every spec that has a known
// provider API.
func NewRegistry(opts Options) *Registry {
	specs := opts.Specs
	if specs == nil {
		specs = DefaultSpecs()
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	pacer := opts.Pacer
	if pacer == nil {
		pacer = TimerPacer{}
	}

	r := &Registry{
		specs:    make(map[domain.ProviderType]Spec),
		adapters: make(map[domain.ProviderType]*Adapter),
		handlers: make(map[domain.ProviderType]*OAuthHandler),
	}
	for _, spec := range specs {
		api, ok := providerAPIs[spec.Type]
		if !ok {
			logger.Warn("no provider API for spec, skipping", "provider", spec.Type)
			continue
		}
		r.order = append(r.order, spec.Type)
		r.specs[spec.Type] = spec
		r.adapters[spec.Type] = &Adapter{
			spec:       spec,
			api:        api,
			httpClient: httpClient,
			configs:    opts.Configs,
			policy:     opts.Policy,
			pacer:      pacer,
			logger:     logger,
		}
		r.handlers[spec.Type] = &OAuthHandler{
			spec:       spec,
			api:        api,
			httpClient: httpClient,
			logger:     logger,
		}
	}
	return r
}

// Adapter returns the data adapter for a provider type.
func (r *Registry) Adapter(provider domain.ProviderType) (driven.ProviderAdapter, bool) {
	a, ok := r.adapters[provider]
	if !ok {
		return nil, false
	}
	return a, true
}

// Providers returns the registered provider types in table order.
func (r *Registry) Providers() []domain.ProviderType {
	out := make([]domain.ProviderType, len(r.order))
	copy(out, r.order)
	return out
}

// OAuthHandler returns the OAuth handler for a provider type.
func (r *Registry) OAuthHandler(provider domain.ProviderType) (driven.OAuthHandler, error) {
	h, ok := r.handlers[provider]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedProvider, provider)
	}
	return h, nil
}

// Spec returns the strategy table row of a provider type.
func (r *Registry) Spec(provider domain.ProviderType) (Spec, bool) {
	s, ok := r.specs[provider]
	return s, ok
}

// Specs returns all registered rows in table order.
func (r *Registry) Specs() []Spec {
	out := make([]Spec, 0, len(r.order))
	for _, p := range r.order {
		out = append(out, r.specs[p])
	}
	return out
}
