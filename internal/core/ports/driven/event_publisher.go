package driven

import (
	"context"

	"github.com/custodia-labs/sercha-pulse/internal/core/domain"
)

// EventPublisher delivers integration lifecycle events to downstream consumers
// such as the notification and email senders.
type EventPublisher interface {
	Publish(ctx context.Context, event *domain.IntegrationEvent) error
	Close() error
}
