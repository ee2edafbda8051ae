package llm

import (
	"context"

	"github.com/pkg/errors"
	"golang.org/x/time/rate"
)

// WithRateLimit blocks each call until the token bucket allows it
func WithRateLimit(cfg RateLimitConfig) Middleware {
	return func(next Completer) Completer {
		if cfg.RPS <= 0 {
			return next
		}
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter := rate.NewLimiter(rate.Limit(cfg.RPS), burst)
		return CompleterFunc(func(ctx context.Context, prompt string) (string, error) {
			if err := limiter.Wait(ctx); err != nil {
				return "", errors.Wrap(err, "rate limiter")
			}
			return next.Complete(ctx, prompt)
		})
	}
}
