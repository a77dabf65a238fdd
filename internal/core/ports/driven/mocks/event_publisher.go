package mocks

import (
	"context"
	"sync"

	"github.com/custodia-labs/sercha-pulse/internal/core/domain"
	"github.com/custodia-labs/sercha-pulse/internal/core/ports/driven"
)

// Ensure MockEventPublisher implements EventPublisher
var _ driven.EventPublisher = (*MockEventPublisher)(nil)

// MockEventPublisher records published events.
type MockEventPublisher struct {
	mu     sync.Mutex
	events []*domain.IntegrationEvent

	// Err, when set, is returned by Publish.
	Err error
}

func (m *MockEventPublisher) Publish(ctx context.Context, event *domain.IntegrationEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return m.Err
}

func (m *MockEventPublisher) Close() error { return nil }

// Events returns a copy of the recorded events.
func (m *MockEventPublisher) Events() []*domain.IntegrationEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domain.IntegrationEvent, len(m.events))
	copy(out, m.events)
	return out
}
