package llm

import (
	"context"
	"os"
	"strings"

	"github.com/pkg/errors"
	"google.golang.org/genai"
)

// DefaultGoogleModel is used when no model is configured
const DefaultGoogleModel = "gemini-2.5-flash"

// GoogleCompleter completes prompts with Gemini through the Gemini API or Vertex AI
type GoogleCompleter struct {
	client    *genai.Client
	model     string
	maxTokens int32
	meter     *Meter
}

// NewGoogleCompleter creates a completer from config
func NewGoogleCompleter(ctx context.Context, config Config, meter *Meter) (*GoogleCompleter, error) {
	clientConfig := &genai.ClientConfig{}
	switch detectBackend(config.Google) {
	case "vertexai":
		clientConfig.Backend = genai.BackendVertexAI
		clientConfig.Project = firstNonEmpty(config.Google.Project, os.Getenv("GOOGLE_CLOUD_PROJECT"))
		clientConfig.Location = firstNonEmpty(config.Google.Location, os.Getenv("GOOGLE_CLOUD_LOCATION"))
	default:
		if config.Google.APIKey == "" {
			return nil, missingKeyError(ProviderGoogle, "GEMINI_API_KEY")
		}
		clientConfig.Backend = genai.BackendGeminiAPI
		clientConfig.APIKey = config.Google.APIKey
	}
	if config.Google.BaseURL != "" {
		clientConfig.HTTPOptions.BaseURL = config.Google.BaseURL
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create Google GenAI client")
	}

	model := config.Model
	if model == "" {
		model = DefaultGoogleModel
	}

	return &GoogleCompleter{
		client:    client,
		model:     model,
		maxTokens: int32(maxTokensOrDefault(config.MaxTokens)),
		meter:     meter,
	}, nil
}

// detectBackend prefers explicit configuration, then GOOGLE_GENAI_USE_VERTEXAI,
// then Vertex settings, and falls back to the Gemini API
func detectBackend(cfg GoogleConfig) string {
	if cfg.Backend != "" {
		return strings.ToLower(cfg.Backend)
	}
	if env := os.Getenv("GOOGLE_GENAI_USE_VERTEXAI"); env != "" {
		if strings.EqualFold(env, "true") || env == "1" {
			return "vertexai"
		}
		return "gemini"
	}
	if cfg.APIKey == "" && (cfg.Project != "" || os.Getenv("GOOGLE_CLOUD_PROJECT") != "") {
		return "vertexai"
	}
	return "gemini"
}

// Complete implements Completer
func (c *GoogleCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), &genai.GenerateContentConfig{
		MaxOutputTokens: c.maxTokens,
	})
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			return "", newProviderError(ProviderGoogle, apiErr.Code, err)
		}
		return "", newProviderError(ProviderGoogle, 0, err)
	}

	if resp.UsageMetadata != nil {
		c.meter.RecordTokens(int64(resp.UsageMetadata.PromptTokenCount), int64(resp.UsageMetadata.CandidatesTokenCount))
	}

	text := resp.Text()
	if text == "" {
		return "", newProviderError(ProviderGoogle, 0, ErrEmptyCompletion)
	}
	return text, nil
}
