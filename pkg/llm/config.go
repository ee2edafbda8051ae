package llm

import (
	"os"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Provider names accepted by NewCompleter
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
	ProviderGoogle    = "google"
)

// RetryConfig controls retries of transient provider failures. Delays are in milliseconds.
type RetryConfig struct {
	Attempts     int    `mapstructure:"attempts"`
	InitialDelay int    `mapstructure:"initial_delay"`
	MaxDelay     int    `mapstructure:"max_delay"`
	BackoffType  string `mapstructure:"backoff_type"`
}

// DefaultRetryConfig retries three times with exponential backoff from 1s up to 10s
var DefaultRetryConfig = RetryConfig{
	Attempts:     3,
	InitialDelay: 1000,
	MaxDelay:     10000,
	BackoffType:  "exponential",
}

// RateLimitConfig bounds the request rate sent to the provider. Zero RPS disables limiting.
type RateLimitConfig struct {
	RPS   float64 `mapstructure:"rps"`
	Burst int     `mapstructure:"burst"`
}

// CacheConfig sizes the in-memory completion cache. Zero disables it.
type CacheConfig struct {
	Size int `mapstructure:"size"`
}

// AnthropicConfig holds Anthropic specific settings
type AnthropicConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
}

// OpenAIConfig holds OpenAI (and compatible server) settings
type OpenAIConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
}

// GoogleConfig holds Gemini API and Vertex AI settings
type GoogleConfig struct {
	APIKey   string `mapstructure:"api_key"`
	Backend  string `mapstructure:"backend"`
	Project  string `mapstructure:"project"`
	Location string `mapstructure:"location"`
	BaseURL  string `mapstructure:"base_url"`
}

// Config is the language-model section of the configuration
type Config struct {
	Provider  string          `mapstructure:"provider"`
	Model     string          `mapstructure:"model"`
	MaxTokens int             `mapstructure:"max_tokens"`
	Retry     RetryConfig     `mapstructure:"retry"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Anthropic AnthropicConfig `mapstructure:"anthropic"`
	OpenAI    OpenAIConfig    `mapstructure:"openai"`
	Google    GoogleConfig    `mapstructure:"google"`

	Profiles map[string]map[string]any `mapstructure:"profiles"`
}

// SetDefaults registers the default values on v
func SetDefaults(v *viper.Viper) {
	v.SetDefault("provider", ProviderAnthropic)
	v.SetDefault("max_tokens", 4000)
	v.SetDefault("retry.attempts", DefaultRetryConfig.Attempts)
	v.SetDefault("retry.initial_delay", DefaultRetryConfig.InitialDelay)
	v.SetDefault("retry.max_delay", DefaultRetryConfig.MaxDelay)
	v.SetDefault("retry.backoff_type", DefaultRetryConfig.BackoffType)
	// Off by default so no completion crosses from one source to another
	v.SetDefault("cache.size", 0)

	// Registered so environment overrides reach Unmarshal
	for _, key := range []string{
		"model",
		"anthropic.api_key", "anthropic.base_url",
		"openai.api_key", "openai.base_url",
		"google.api_key", "google.backend", "google.project", "google.location", "google.base_url",
	} {
		v.SetDefault(key, "")
	}
	v.SetDefault("rate_limit.rps", 0.0)
	v.SetDefault("rate_limit.burst", 0)
}

// ConfigFromViper loads the language-model configuration from the global viper
// instance, applies the profile selected by the "profile" key and fills API
// keys from the provider environment variables when unset.
func ConfigFromViper() (Config, error) {
	return ConfigFrom(viper.GetViper())
}

// ConfigFrom is ConfigFromViper for an explicit viper instance
func ConfigFrom(v *viper.Viper) (Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return config, errors.Wrap(err, "failed to unmarshal configuration")
	}

	if name := v.GetString("profile"); name != "" && name != "default" {
		profile, ok := config.Profiles[name]
		if !ok {
			return config, errors.Errorf("profile %q not found in configuration", name)
		}
		if err := applyProfile(&config, profile); err != nil {
			return config, err
		}
	}

	if config.Provider == "" {
		config.Provider = ProviderAnthropic
	}
	config.Provider = strings.ToLower(config.Provider)
	if config.Retry.Attempts == 0 {
		config.Retry = DefaultRetryConfig
	}
	applyEnvKeys(&config)

	return config, nil
}

func applyProfile(config *Config, profile map[string]any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           config,
		WeaklyTypedInput: true,
		ZeroFields:       false,
	})
	if err != nil {
		return errors.Wrap(err, "failed to create profile decoder")
	}
	if err := decoder.Decode(profile); err != nil {
		return errors.Wrap(err, "failed to apply profile")
	}
	return nil
}

func applyEnvKeys(config *Config) {
	if config.Anthropic.APIKey == "" {
		config.Anthropic.APIKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if config.OpenAI.APIKey == "" {
		config.OpenAI.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if config.Google.APIKey == "" {
		config.Google.APIKey = firstNonEmpty(os.Getenv("GEMINI_API_KEY"), os.Getenv("GOOGLE_API_KEY"))
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
