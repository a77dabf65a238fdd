package normalisers

import (
	"errors"
	"fmt"
	"sync"

	"github.com/custodia-labs/sercha-pulse/internal/core/domain"
	"github.com/custodia-labs/sercha-pulse/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.NormaliserRegistry = (*Registry)(nil)

// Registry implements NormaliserRegistry with one normaliser per provider.
type Registry struct {
	mu          sync.RWMutex
	normalisers map[domain.ProviderType]driven.Normaliser
}

// NewRegistry creates a new normaliser registry.
func NewRegistry() *Registry {
	return &Registry{
		normalisers: make(map[domain.ProviderType]driven.Normaliser),
	}
}

// Register registers a normaliser, replacing any for the same provider.
func (r *Registry) Register(normaliser driven.Normaliser) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.normalisers[normaliser.Provider()] = normaliser
}

// Get retrieves the normaliser for a provider.
// Returns nil if no normaliser is registered.
func (r *Registry) Get(provider domain.ProviderType) driven.Normaliser {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.normalisers[provider]
}

// List returns the registered providers in canonical order.
func (r *Registry) List() []domain.ProviderType {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []domain.ProviderType
	for _, p := range domain.SupportedProviders() {
		if _, ok := r.normalisers[p]; ok {
			out = append(out, p)
		}
	}
	return out
}

// NormaliseMessages maps a batch of raw messages. Records that fail are
// skipped and reported; the rest of the batch is unaffected.
func (r *Registry) NormaliseMessages(records []domain.RawRecord) ([]*domain.UnifiedMessage, []error) {
	out := make([]*domain.UnifiedMessage, 0, len(records))
	var errs []error

	for _, rec := range records {
		n := r.Get(rec.Provider)
		if n == nil {
			errs = append(errs, fmt.Errorf("%w: no normaliser for %s", domain.ErrNormalization, rec.Provider))
			continue
		}

		msg, err := n.NormaliseMessage(rec)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		msg.Service = rec.Provider
		out = append(out, msg)
	}
	return out, errs
}

// NormaliseMeetings maps a batch of raw meetings. Calendar events without
// conferencing details are dropped without an error.
func (r *Registry) NormaliseMeetings(records []domain.RawRecord) ([]*domain.UnifiedMeeting, []error) {
	out := make([]*domain.UnifiedMeeting, 0, len(records))
	var errs []error

	for _, rec := range records {
		n := r.Get(rec.Provider)
		if n == nil {
			errs = append(errs, fmt.Errorf("%w: no normaliser for %s", domain.ErrNormalization, rec.Provider))
			continue
		}

		m, err := n.NormaliseMeeting(rec)
		if errors.Is(err, domain.ErrNotAMeeting) {
			continue
		}
		if err != nil {
			errs = append(errs, err)
			continue
		}
		m.Service = rec.Provider
		out = append(out, m)
	}
	return out, errs
}

// DefaultRegistry creates a registry with every provider normaliser registered.
func DefaultRegistry() *Registry {
	r := NewRegistry()

	r.Register(SlackNormaliser{})
	r.Register(MattermostNormaliser{})
	r.Register(DiscordNormaliser{})
	r.Register(MSTeamsNormaliser{})
	r.Register(GoogleNormaliser{})
	r.Register(ZoomNormaliser{})
	r.Register(WebexNormaliser{})

	return r
}
