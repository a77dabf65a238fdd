package driven

import (
	"github.com/custodia-labs/sercha-pulse/internal/core/domain"
)

// Normaliser maps raw records of one provider into unified entities.
// Implementations are pure and stateless.
type Normaliser interface {
	// Provider returns the provider this normaliser handles.
	Provider() domain.ProviderType

	// NormaliseMessage maps a raw message.
	// Returns an error wrapping domain.ErrNormalization for malformed input,
	// or domain.ErrUnsupported if the provider has no messages.
	NormaliseMessage(raw domain.RawRecord) (*domain.UnifiedMessage, error)

	// NormaliseMeeting maps a raw meeting or calendar event.
	// Returns domain.ErrNotAMeeting for events without conferencing details.
	NormaliseMeeting(raw domain.RawRecord) (*domain.UnifiedMeeting, error)
}

// NormaliserRegistry dispatches raw records to provider normalisers.
// A record that fails to normalise is skipped; the batch continues.
type NormaliserRegistry interface {
	// Get retrieves the normaliser for a provider, or nil.
	Get(provider domain.ProviderType) Normaliser

	// Register registers a normaliser, replacing any for the same provider.
	Register(normaliser Normaliser)

	// List returns the providers with a registered normaliser.
	List() []domain.ProviderType

	// NormaliseMessages maps a batch, returning the records that succeeded
	// and one error per skipped record.
	NormaliseMessages(records []domain.RawRecord) ([]*domain.UnifiedMessage, []error)

	// NormaliseMeetings maps a batch. Non-meeting events are dropped silently.
	NormaliseMeetings(records []domain.RawRecord) ([]*domain.UnifiedMeeting, []error)
}
