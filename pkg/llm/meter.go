package llm

import (
	"context"
	"sync"
)

// Usage aggregates language-model usage over a run
type Usage struct {
	Calls        int
	Failures     int
	InputTokens  int64
	OutputTokens int64
}

// TotalTokens returns input plus output tokens
func (u Usage) TotalTokens() int64 {
	return u.InputTokens + u.OutputTokens
}

// Meter accumulates Usage. Providers record tokens, the Middleware counts calls.
type Meter struct {
	mu    sync.Mutex
	usage Usage
}

// NewMeter creates an empty meter
func NewMeter() *Meter {
	return &Meter{}
}

// RecordTokens adds token counts reported by a provider
func (m *Meter) RecordTokens(input, output int64) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.usage.InputTokens += input
	m.usage.OutputTokens += output
}

func (m *Meter) recordCall(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.usage.Calls++
	if err != nil {
		m.usage.Failures++
	}
}

// Usage returns a snapshot of the accumulated usage
func (m *Meter) Usage() Usage {
	if m == nil {
		return Usage{}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.usage
}

// Middleware counts calls and failures seen by the pipeline
func (m *Meter) Middleware() Middleware {
	return func(next Completer) Completer {
		return CompleterFunc(func(ctx context.Context, prompt string) (string, error) {
			text, err := next.Complete(ctx, prompt)
			m.recordCall(err)
			return text, err
		})
	}
}
