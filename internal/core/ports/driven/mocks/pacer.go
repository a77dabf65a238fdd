package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/custodia-labs/sercha-pulse/internal/core/ports/driven"
)

// Ensure FakePacer implements Pacer
var _ driven.Pacer = (*FakePacer)(nil)

// FakePacer records requested pauses without sleeping.
type FakePacer struct {
	mu     sync.Mutex
	pauses []time.Duration
}

func (p *FakePacer) Pause(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pauses = append(p.pauses, d)
	return nil
}

// Pauses returns the recorded pause durations in call order.
func (p *FakePacer) Pauses() []time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]time.Duration, len(p.pauses))
	copy(out, p.pauses)
	return out
}
