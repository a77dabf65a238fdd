package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-pulse/internal/core/domain"
)

type publishCall struct {
	exchange string
	key      string
	msg      amqp.Publishing
}

type fakeChannel struct {
	mu       sync.Mutex
	calls    []publishCall
	err      error
	closed   bool
	closeErr error
}

func (f *fakeChannel) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.calls = append(f.calls, publishCall{exchange: exchange, key: key, msg: msg})
	return nil
}

func (f *fakeChannel) Close() error {
	f.closed = true
	return f.closeErr
}

func testEvent() *domain.IntegrationEvent {
	return &domain.IntegrationEvent{
		ID:         "evt-1",
		Type:       domain.EventIntegrationConnected,
		UserID:     "user-1",
		Provider:   domain.ProviderTypeSlack,
		TeamName:   "Acme",
		OccurredAt: time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC),
	}
}

func TestEventPublisher_Publish(t *testing.T) {
	ch := &fakeChannel{}
	p := newEventPublisher(ch, DefaultExchange, nil)

	require.NoError(t, p.Publish(context.Background(), testEvent()))
	require.Len(t, ch.calls, 1)

	call := ch.calls[0]
	assert.Equal(t, DefaultExchange, call.exchange)
	assert.Equal(t, "integration.connected", call.key)
	assert.Equal(t, "application/json", call.msg.ContentType)
	assert.Equal(t, amqp.Persistent, call.msg.DeliveryMode)
	assert.Equal(t, "evt-1", call.msg.MessageId)

	var decoded domain.IntegrationEvent
	require.NoError(t, json.Unmarshal(call.msg.Body, &decoded))
	assert.Equal(t, *testEvent(), decoded)
}

func TestEventPublisher_PublishError(t *testing.T) {
	ch := &fakeChannel{err: errors.New("channel closed")}
	p := newEventPublisher(ch, DefaultExchange, nil)

	err := p.Publish(context.Background(), testEvent())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "integration.connected")
}

func TestEventPublisher_ConcurrentPublish(t *testing.T) {
	ch := &fakeChannel{}
	p := newEventPublisher(ch, "custom", nil)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = p.Publish(context.Background(), testEvent())
		}()
	}
	wg.Wait()

	assert.Len(t, ch.calls, 20)
	assert.Equal(t, "custom", ch.calls[0].exchange)
}

func TestEventPublisher_Close(t *testing.T) {
	ch := &fakeChannel{}
	p := newEventPublisher(ch, DefaultExchange, nil)

	require.NoError(t, p.Close())
	assert.True(t, ch.closed)
	// Closing twice is safe.
	require.NoError(t, p.Close())
}
