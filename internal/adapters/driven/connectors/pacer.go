package connectors

import (
	"context"
	"time"

	"github.com/custodia-labs/sercha-pulse/internal/core/ports/driven"
)

// Ensure TimerPacer implements the interface.
var _ driven.Pacer = TimerPacer{}

// TimerPacer sleeps on a real timer.
type TimerPacer struct{}

// Pause blocks for d or until ctx is done.
func (TimerPacer) Pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
