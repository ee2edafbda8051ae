package llm

import (
	"context"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/pkg/errors"
)

// DefaultAnthropicModel is used when no model is configured
const DefaultAnthropicModel = "claude-sonnet-4-5"

// AnthropicCompleter completes prompts with the Anthropic Messages API
type AnthropicCompleter struct {
	client    anthropic.Client
	model     string
	maxTokens int64
	meter     *Meter
}

// NewAnthropicCompleter creates a completer from config. SDK retries are
// disabled since WithRetry owns the retry policy.
func NewAnthropicCompleter(config Config, meter *Meter) (*AnthropicCompleter, error) {
	if config.Anthropic.APIKey == "" {
		return nil, missingKeyError(ProviderAnthropic, "ANTHROPIC_API_KEY")
	}

	opts := []option.RequestOption{
		option.WithAPIKey(config.Anthropic.APIKey),
		option.WithMaxRetries(0),
	}
	if config.Anthropic.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(config.Anthropic.BaseURL))
	}

	model := config.Model
	if model == "" {
		model = DefaultAnthropicModel
	}

	return &AnthropicCompleter{
		client:    anthropic.NewClient(opts...),
		model:     model,
		maxTokens: int64(maxTokensOrDefault(config.MaxTokens)),
		meter:     meter,
	}, nil
}

// Complete implements Completer
func (c *AnthropicCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: c.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			return "", newProviderError(ProviderAnthropic, apiErr.StatusCode, err)
		}
		return "", newProviderError(ProviderAnthropic, 0, err)
	}

	c.meter.RecordTokens(resp.Usage.InputTokens, resp.Usage.OutputTokens)

	var text strings.Builder
	for _, block := range resp.Content {
		if tb, ok := block.AsAny().(anthropic.TextBlock); ok {
			text.WriteString(tb.Text)
		}
	}
	if text.Len() == 0 {
		return "", newProviderError(ProviderAnthropic, 0, ErrEmptyCompletion)
	}
	return text.String(), nil
}

func maxTokensOrDefault(n int) int {
	if n <= 0 {
		return 4000
	}
	return n
}
