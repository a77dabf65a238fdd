package driven

import (
	"context"
	"sync"

	"github.com/custodia-labs/sercha-pulse/internal/core/domain"
)

// RateLimitRecorder collects the latest rate-limit headers seen during one
// provider fetch. One recorder is created per provider per request.
type RateLimitRecorder struct {
	mu     sync.Mutex
	status *domain.RateLimitStatus
}

// Record stores status, replacing any earlier observation.
func (r *RateLimitRecorder) Record(status domain.RateLimitStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status = &status
}

// Status returns the last observation, or nil if none was recorded.
func (r *RateLimitRecorder) Status() *domain.RateLimitStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.status == nil {
		return nil
	}
	s := *r.status
	return &s
}

type rateLimitRecorderKey struct{}

// WithRateLimitRecorder returns a context carrying a fresh recorder.
func WithRateLimitRecorder(ctx context.Context) (context.Context, *RateLimitRecorder) {
	rec := &RateLimitRecorder{}
	return context.WithValue(ctx, rateLimitRecorderKey{}, rec), rec
}

// RecordRateLimit stores status on the context's recorder, if any.
func RecordRateLimit(ctx context.Context, status domain.RateLimitStatus) {
	if rec, ok := ctx.Value(rateLimitRecorderKey{}).(*RateLimitRecorder); ok {
		rec.Record(status)
	}
}
