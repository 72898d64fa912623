package tracking

import (
	"context"

	"golang.org/x/time/rate"
)

type rateLimiter interface {
	Wait(ctx context.Context) error
}

type limiterAdapter struct {
	limiter *rate.Limiter
}

// newTokenBucketLimiter paces outgoing requests. A non-positive rate disables pacing.
func newTokenBucketLimiter(ratePerSecond float64, burst int) rateLimiter {
	if ratePerSecond <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = 1
	}

	return &limiterAdapter{
		limiter: rate.NewLimiter(rate.Limit(ratePerSecond), burst),
	}
}

func (l *limiterAdapter) Wait(ctx context.Context) error {
	if l == nil || l.limiter == nil {
		return nil
	}
	return l.limiter.Wait(ctx)
}
