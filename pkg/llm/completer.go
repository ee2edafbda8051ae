// Package llm provides the language-model capability used by the distillation
// passes: a single-prompt completion interface, provider implementations for
// Anthropic, OpenAI and Google, and middlewares for retry, rate limiting,
// caching and usage metering.
package llm

import "context"

// Completer turns one prompt into the model's text answer
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// CompleterFunc adapts a function to Completer
type CompleterFunc func(ctx context.Context, prompt string) (string, error)

// Complete implements Completer
func (f CompleterFunc) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// Middleware decorates a Completer
type Middleware func(Completer) Completer

// Chain wraps c with the middlewares. The first middleware is the outermost.
func Chain(c Completer, mws ...Middleware) Completer {
	for i := len(mws) - 1; i >= 0; i-- {
		if mws[i] != nil {
			c = mws[i](c)
		}
	}
	return c
}
