package events

import (
	"context"
	"log/slog"

	"github.com/custodia-labs/sercha-pulse/internal/core/domain"
	"github.com/custodia-labs/sercha-pulse/internal/core/ports/driven"
)

// Ensure LogPublisher implements driven.EventPublisher
var _ driven.EventPublisher = (*LogPublisher)(nil)

// LogPublisher writes integration events to the log. It is used when no
// broker is configured.
type LogPublisher struct {
	logger *slog.Logger
}

// NewLogPublisher creates a LogPublisher.
func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogPublisher{logger: logger.With("component", "events")}
}

func (p *LogPublisher) Publish(ctx context.Context, event *domain.IntegrationEvent) error {
	p.logger.InfoContext(ctx, "integration event",
		"type", event.Type,
		"id", event.ID,
		"user_id", event.UserID,
		"provider", event.Provider,
		"team_name", event.TeamName,
		"occurred_at", event.OccurredAt,
	)
	return nil
}

func (p *LogPublisher) Close() error {
	return nil
}
