package domain

import "time"

// IntegrationEventType names a credential lifecycle event.
type IntegrationEventType string

const (
	EventIntegrationConnected    IntegrationEventType = "integration.connected"
	EventIntegrationDisconnected IntegrationEventType = "integration.disconnected"
)

// IntegrationEvent is published for downstream notification and email senders.
type IntegrationEvent struct {
	ID         string               `json:"id"`
	Type       IntegrationEventType `json:"type"`
	UserID     string               `json:"user_id"`
	Provider   ProviderType         `json:"provider"`
	TeamName   string               `json:"team_name,omitempty"`
	OccurredAt time.Time            `json:"occurred_at"`
}
