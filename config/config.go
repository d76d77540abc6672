// Package config loads the service configuration.
package config

import "time"

// Text-completion providers.
const (
	ProviderOpenRouter = "openrouter"
	ProviderOpenAI     = "openai"
	ProviderNone       = "none"
)

// Config is the root configuration, resolved once at startup.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Meshy     MeshyConfig     `mapstructure:"meshy"`
	Animation AnimationConfig `mapstructure:"animation"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

type AppConfig struct {
	Name    string `mapstructure:"name"`
	Version string `mapstructure:"version"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	// RequestTimeout bounds LLM-backed handlers; waits use their own limit.
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	CORS           CORSConfig    `mapstructure:"cors"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	AllowedMethods []string `mapstructure:"allowed_methods"`
	AllowedHeaders []string `mapstructure:"allowed_headers"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// LLMConfig selects the text-completion provider. Provider is empty until
// Resolve picks one from the available keys.
type LLMConfig struct {
	Provider   string           `mapstructure:"provider"`
	OpenRouter ProviderSettings `mapstructure:"openrouter"`
	OpenAI     ProviderSettings `mapstructure:"openai"`
	Referer    string           `mapstructure:"referer"`
	Title      string           `mapstructure:"title"`
	MaxRetries int              `mapstructure:"max_retries"`
	Timeout    time.Duration    `mapstructure:"timeout"`
}

type ProviderSettings struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
	Model   string `mapstructure:"model"`
}

type MeshyConfig struct {
	APIKey         string        `mapstructure:"api_key"`
	BaseURL        string        `mapstructure:"base_url"`
	ArtStyle       string        `mapstructure:"art_style"`
	NegativePrompt string        `mapstructure:"negative_prompt"`
	Mode           string        `mapstructure:"mode"`
	Timeout        time.Duration `mapstructure:"timeout"`
	PollInterval   time.Duration `mapstructure:"poll_interval"`
	MaxWait        time.Duration `mapstructure:"max_wait"`
	StatusRetries  int           `mapstructure:"status_retries"`
}

type AnimationConfig struct {
	Model string `mapstructure:"model"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// Completion returns the settings of the resolved provider. ok is false when
// no provider is configured.
func (c LLMConfig) Completion() (ProviderSettings, bool) {
	switch c.Provider {
	case ProviderOpenRouter:
		return c.OpenRouter, true
	case ProviderOpenAI:
		return c.OpenAI, true
	default:
		return ProviderSettings{}, false
	}
}
