package llm

import (
	"context"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/pkg/errors"

	"github.com/jingkaihe/distill/pkg/logger"
)

// WithRetry retries non-fatal provider errors according to cfg
func WithRetry(cfg RetryConfig) Middleware {
	return func(next Completer) Completer {
		if cfg.Attempts <= 1 {
			return next
		}
		return CompleterFunc(func(ctx context.Context, prompt string) (string, error) {
			var out string
			err := executeWithRetry(ctx, cfg, func() error {
				text, err := next.Complete(ctx, prompt)
				if err != nil {
					return err
				}
				out = text
				return nil
			})
			return out, err
		})
	}
}

func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var pe *ProviderError
	if errors.As(err, &pe) {
		return !pe.Fatal
	}
	return false
}

func executeWithRetry(ctx context.Context, cfg RetryConfig, operation func() error) error {
	initialDelay := time.Duration(cfg.InitialDelay) * time.Millisecond
	maxDelay := time.Duration(cfg.MaxDelay) * time.Millisecond

	var delayType retry.DelayTypeFunc
	switch cfg.BackoffType {
	case "fixed":
		delayType = retry.FixedDelay
	case "exponential":
		fallthrough
	default:
		delayType = retry.BackOffDelay
	}

	return retry.Do(
		operation,
		retry.RetryIf(isRetryableError),
		retry.Attempts(uint(cfg.Attempts)),
		retry.Delay(initialDelay),
		retry.DelayType(delayType),
		retry.MaxDelay(maxDelay),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			logger.G(ctx).WithError(err).
				WithField("attempt", n+1).
				WithField("max_attempts", cfg.Attempts).
				Warn("retrying language model call")
		}),
	)
}
