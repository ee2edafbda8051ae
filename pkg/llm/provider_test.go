package llm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jingkaihe/distill/pkg/mockllm"
)

func newMockServer(t *testing.T) (*mockllm.Server, *httptest.Server) {
	t.Helper()
	mock, err := mockllm.NewServer(&mockllm.ServerConfig{Host: "localhost", Port: 0})
	require.NoError(t, err)
	srv := httptest.NewServer(mock.Handler())
	t.Cleanup(srv.Close)
	return mock, srv
}

func TestOpenAICompleterAgainstMock(t *testing.T) {
	mock, srv := newMockServer(t)
	meter := NewMeter()

	c, err := NewOpenAICompleter(Config{
		OpenAI: OpenAIConfig{APIKey: "test", BaseURL: srv.URL + "/v1"},
	}, meter)
	require.NoError(t, err)

	out, err := c.Complete(context.Background(), "extract the skills")
	require.NoError(t, err)
	assert.Contains(t, out, `"name":"mock-skill"`)
	assert.Equal(t, []string{"extract the skills"}, mock.Prompts())
	assert.Equal(t, int64(100), meter.Usage().InputTokens)
	assert.Equal(t, int64(50), meter.Usage().OutputTokens)
}

func TestAnthropicCompleterAgainstMock(t *testing.T) {
	mock, srv := newMockServer(t)
	meter := NewMeter()

	c, err := NewAnthropicCompleter(Config{
		Anthropic: AnthropicConfig{APIKey: "test", BaseURL: srv.URL},
	}, meter)
	require.NoError(t, err)

	out, err := c.Complete(context.Background(), "enrich the skill")
	require.NoError(t, err)
	assert.Contains(t, out, "mock-anthropic-skill")
	assert.Equal(t, []string{"enrich the skill"}, mock.Prompts())
	assert.Equal(t, int64(150), meter.Usage().TotalTokens())
}

func TestGoogleCompleterAgainstMock(t *testing.T) {
	t.Setenv("GOOGLE_GENAI_USE_VERTEXAI", "")
	_, srv := newMockServer(t)
	meter := NewMeter()

	c, err := NewGoogleCompleter(context.Background(), Config{
		Google: GoogleConfig{APIKey: "test", BaseURL: srv.URL},
	}, meter)
	require.NoError(t, err)

	out, err := c.Complete(context.Background(), "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "mock-google-skill")
	assert.Equal(t, int64(100), meter.Usage().InputTokens)
}

func unauthorizedServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"authentication_error","message":"invalid api key"}}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestOpenAIUnauthorizedIsFatal(t *testing.T) {
	srv := unauthorizedServer(t)
	c, err := NewOpenAICompleter(Config{OpenAI: OpenAIConfig{APIKey: "bad", BaseURL: srv.URL + "/v1"}}, nil)
	require.NoError(t, err)

	_, err = c.Complete(context.Background(), "p")
	require.Error(t, err)
	assert.True(t, IsFatal(err))

	var pe *ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, http.StatusUnauthorized, pe.StatusCode)
}

func TestAnthropicUnauthorizedIsFatal(t *testing.T) {
	srv := unauthorizedServer(t)
	c, err := NewAnthropicCompleter(Config{Anthropic: AnthropicConfig{APIKey: "bad", BaseURL: srv.URL}}, nil)
	require.NoError(t, err)

	_, err = c.Complete(context.Background(), "p")
	require.Error(t, err)
	assert.True(t, IsFatal(err))
}

func TestUnreachableProviderIsFatal(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := NewOpenAICompleter(Config{OpenAI: OpenAIConfig{APIKey: "k", BaseURL: url + "/v1"}}, nil)
	require.NoError(t, err)
	_, err = c.Complete(context.Background(), "p")
	require.Error(t, err)
	assert.True(t, IsFatal(err))
}

func TestNewProvider(t *testing.T) {
	clearKeys(t)

	_, err := NewProvider(context.Background(), Config{Provider: "cohere"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported provider")

	_, err = NewProvider(context.Background(), Config{Provider: ProviderAnthropic}, nil)
	require.Error(t, err)
	assert.True(t, IsFatal(err))
	assert.Contains(t, err.Error(), "ANTHROPIC_API_KEY")

	_, err = NewProvider(context.Background(), Config{Provider: ProviderOpenAI}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OPENAI_API_KEY")

	c, err := NewCompleter(context.Background(), Config{
		Provider: ProviderOpenAI,
		OpenAI:   OpenAIConfig{APIKey: "k"},
		Retry:    DefaultRetryConfig,
	}, NewMeter())
	require.NoError(t, err)
	assert.NotNil(t, c)
}
