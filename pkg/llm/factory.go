package llm

import (
	"context"

	"github.com/pkg/errors"
)

// NewProvider creates the bare provider named by config.Provider
func NewProvider(ctx context.Context, config Config, meter *Meter) (Completer, error) {
	switch config.Provider {
	case ProviderAnthropic, "":
		return NewAnthropicCompleter(config, meter)
	case ProviderOpenAI:
		return NewOpenAICompleter(config, meter)
	case ProviderGoogle:
		return NewGoogleCompleter(ctx, config, meter)
	default:
		return nil, errors.Errorf("unsupported provider %q; supported providers: %s, %s, %s",
			config.Provider, ProviderAnthropic, ProviderOpenAI, ProviderGoogle)
	}
}

// NewCompleter creates the configured provider wrapped with metering,
// caching, retry and rate limiting, outermost first
func NewCompleter(ctx context.Context, config Config, meter *Meter) (Completer, error) {
	provider, err := NewProvider(ctx, config, meter)
	if err != nil {
		return nil, err
	}
	return Wrap(provider, config, meter), nil
}

// Wrap applies the middleware stack described by config to c
func Wrap(c Completer, config Config, meter *Meter) Completer {
	var mws []Middleware
	if meter != nil {
		mws = append(mws, meter.Middleware())
	}
	mws = append(mws,
		WithCache(config.Cache),
		WithRetry(config.Retry),
		WithRateLimit(config.RateLimit),
	)
	return Chain(c, mws...)
}
