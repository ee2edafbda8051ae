package llm

import (
	"context"

	"github.com/pkg/errors"
	"github.com/sashabaranov/go-openai"
)

// DefaultOpenAIModel is used when no model is configured
const DefaultOpenAIModel = "gpt-4.1"

// OpenAICompleter completes prompts with the chat completions API of OpenAI
// or any compatible server
type OpenAICompleter struct {
	client    *openai.Client
	model     string
	maxTokens int
	meter     *Meter
}

// NewOpenAICompleter creates a completer from config
func NewOpenAICompleter(config Config, meter *Meter) (*OpenAICompleter, error) {
	if config.OpenAI.APIKey == "" {
		return nil, missingKeyError(ProviderOpenAI, "OPENAI_API_KEY")
	}

	clientConfig := openai.DefaultConfig(config.OpenAI.APIKey)
	if config.OpenAI.BaseURL != "" {
		clientConfig.BaseURL = config.OpenAI.BaseURL
	}

	model := config.Model
	if model == "" {
		model = DefaultOpenAIModel
	}

	return &OpenAICompleter{
		client:    openai.NewClientWithConfig(clientConfig),
		model:     model,
		maxTokens: maxTokensOrDefault(config.MaxTokens),
		meter:     meter,
	}, nil
}

// Complete implements Completer
func (c *OpenAICompleter) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", classifyOpenAIError(err)
	}

	c.meter.RecordTokens(int64(resp.Usage.PromptTokens), int64(resp.Usage.CompletionTokens))

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", newProviderError(ProviderOpenAI, 0, ErrEmptyCompletion)
	}
	return resp.Choices[0].Message.Content, nil
}

func classifyOpenAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return newProviderError(ProviderOpenAI, apiErr.HTTPStatusCode, err)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return newProviderError(ProviderOpenAI, reqErr.HTTPStatusCode, err)
	}
	return newProviderError(ProviderOpenAI, 0, err)
}
