package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/spf13/viper"
)

// DefaultPath is read when no path is given; it may be absent.
const DefaultPath = "configs/config.yaml"

var envPattern = regexp.MustCompile(`\${(\w+)(:([^}]*))?}`)

// Load reads the YAML file at path (DefaultPath when empty), applies
// environment overrides and defaults, and resolves the LLM provider.
// An explicitly given path must exist.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	optional := path == ""
	if optional {
		path = DefaultPath
	}
	if err := loadConfigFile(v, path, optional); err != nil {
		return nil, err
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindCredentials(v)
	setDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Resolve(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func loadConfigFile(v *viper.Viper, path string, optional bool) error {
	content, err := os.ReadFile(path)
	if err != nil {
		if optional && os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := v.ReadConfig(strings.NewReader(expandEnv(string(content)))); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// expandEnv replaces ${VAR} and ${VAR:default} placeholders. Unknown
// variables without a default are left as written.
func expandEnv(s string) string {
	return envPattern.ReplaceAllStringFunc(s, func(match string) string {
		sub := envPattern.FindStringSubmatch(match)
		if val, ok := os.LookupEnv(sub[1]); ok {
			return val
		}
		if sub[2] != "" {
			return sub[3]
		}
		return match
	})
}

// bindCredentials maps the conventional provider variables onto config keys.
func bindCredentials(v *viper.Viper) {
	_ = v.BindEnv("llm.openrouter.api_key", "OPENROUTER_API_KEY")
	_ = v.BindEnv("llm.openai.api_key", "OPENAI_API_KEY")
	_ = v.BindEnv("meshy.api_key", "MESHY_API_KEY")
	_ = v.BindEnv("llm.provider", "LLM_PROVIDER")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "osce-webxr-api")
	v.SetDefault("app.version", "0.1.0")

	v.SetDefault("server.addr", ":8000")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "330s")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("server.request_timeout", "60s")
	v.SetDefault("server.cors.allowed_origins", []string{"*"})
	v.SetDefault("server.cors.allowed_methods", []string{"GET", "POST", "OPTIONS"})
	v.SetDefault("server.cors.allowed_headers", []string{"Origin", "Content-Type", "X-Request-ID"})

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("llm.provider", "")
	v.SetDefault("llm.openrouter.base_url", "https://openrouter.ai/api/v1")
	v.SetDefault("llm.openrouter.model", "anthropic/claude-3.5-sonnet")
	v.SetDefault("llm.openai.model", "gpt-4o-mini")
	v.SetDefault("llm.referer", "https://osce-webxr-poc.vercel.app")
	v.SetDefault("llm.title", "OSCE WebXR Generation")
	v.SetDefault("llm.max_retries", 0)
	v.SetDefault("llm.timeout", "30s")

	v.SetDefault("meshy.base_url", "https://api.meshy.ai/v2")
	v.SetDefault("meshy.art_style", "realistic")
	v.SetDefault("meshy.negative_prompt", "low quality, blurry, distorted")
	v.SetDefault("meshy.mode", "preview")
	v.SetDefault("meshy.timeout", "60s")
	v.SetDefault("meshy.poll_interval", "5s")
	v.SetDefault("meshy.max_wait", "300s")
	v.SetDefault("meshy.status_retries", 2)

	v.SetDefault("animation.model", "")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
}

// Resolve picks the text-completion provider once. An explicit provider
// must have its key; otherwise OpenRouter wins over OpenAI and no key at all
// selects ProviderNone.
func (c *Config) Resolve() error {
	p := strings.ToLower(strings.TrimSpace(c.LLM.Provider))
	switch p {
	case "":
		switch {
		case c.LLM.OpenRouter.APIKey != "":
			p = ProviderOpenRouter
		case c.LLM.OpenAI.APIKey != "":
			p = ProviderOpenAI
		default:
			p = ProviderNone
		}
	case ProviderOpenRouter, ProviderOpenAI:
		c.LLM.Provider = p
		if s, _ := c.LLM.Completion(); s.APIKey == "" {
			return fmt.Errorf("llm provider %s selected but its api key is not set", p)
		}
	case ProviderNone:
	default:
		return fmt.Errorf("llm provider %s not supported", p)
	}
	c.LLM.Provider = p
	return nil
}
