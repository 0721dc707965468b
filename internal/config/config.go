package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Environment keys that must be present for a run to start.
const (
	KeyGeminiAPIKey    = "GEMINI_API_KEY"
	KeySlashpageAPIKey = "SLASHPAGE_API_KEY"
	KeyTargetURL       = "TARGET_URL"
)

// RequiredKeys lists the mandatory settings in reporting order.
var RequiredKeys = []string{KeyGeminiAPIKey, KeySlashpageAPIKey, KeyTargetURL}

const redacted = "[redacted]"

// Config holds the application configuration loaded from env files and environment variables.
type Config struct {
	AppName  string `mapstructure:"app_name"`
	Env      string `mapstructure:"app_env"`
	LogLevel string `mapstructure:"log_level"`

	GeminiAPIKey   string `mapstructure:"gemini_api_key"`
	GeminiModel    string `mapstructure:"gemini_model"`
	GeminiEndpoint string `mapstructure:"gemini_endpoint"`

	SlashpageAPIKey      string `mapstructure:"slashpage_api_key"`
	SlashpageWebhookBase string `mapstructure:"slashpage_webhook_base"`
	SlashpageNotePath    string `mapstructure:"slashpage_note_path"`
	TitlePrefix          string `mapstructure:"title_prefix"`

	TargetURL           string `mapstructure:"target_url"`
	FetchUserAgent      string `mapstructure:"fetch_user_agent"`
	FetchAcceptLanguage string `mapstructure:"fetch_accept_language"`
	FetchStripScripts   bool   `mapstructure:"fetch_strip_scripts"`

	PromptFile string `mapstructure:"prompt_file"`

	HTTPTimeoutSeconds int64         `mapstructure:"http_timeout_seconds"`
	HTTPTimeout        time.Duration `mapstructure:"-"`
}

// ConfigError reports missing or invalid settings. It is returned before any
// network client is constructed.
type ConfigError struct {
	Missing []string
	Reason  string
}

func (e *ConfigError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("Missing one or more required environment variables: %s (missing: %s)",
			strings.Join(RequiredKeys, ", "), strings.Join(e.Missing, ", "))
	}
	return "invalid configuration: " + e.Reason
}

// Load reads configuration from env files and environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load("configs/.env")
	_ = godotenv.Load()

	return load(viper.New())
}

func load(v *viper.Viper) (*Config, error) {
	v.SetDefault("app_name", "daily-product-news")
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("gemini_model", "gemini-2.0-flash-lite")
	v.SetDefault("gemini_endpoint", "")
	v.SetDefault("slashpage_webhook_base", "https://slashpage.com/api-webhook/note")
	v.SetDefault("slashpage_note_path", "ixtj-dev/1q3vdn2pjv43p2xy49pr")
	v.SetDefault("title_prefix", "Daily Product News")
	v.SetDefault("fetch_user_agent", "")
	v.SetDefault("fetch_accept_language", "")
	v.SetDefault("fetch_strip_scripts", false)
	v.SetDefault("prompt_file", "")
	v.SetDefault("http_timeout_seconds", 0) // 0 keeps the client default

	for _, key := range RequiredKeys {
		_ = v.BindEnv(strings.ToLower(key), key)
	}

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.GeminiAPIKey = strings.TrimSpace(cfg.GeminiAPIKey)
	cfg.SlashpageAPIKey = strings.TrimSpace(cfg.SlashpageAPIKey)
	cfg.TargetURL = strings.TrimSpace(cfg.TargetURL)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.HTTPTimeout = time.Duration(cfg.HTTPTimeoutSeconds) * time.Second

	return &cfg, nil
}

func (c *Config) validate() error {
	var missing []string
	values := map[string]string{
		KeyGeminiAPIKey:    c.GeminiAPIKey,
		KeySlashpageAPIKey: c.SlashpageAPIKey,
		KeyTargetURL:       c.TargetURL,
	}
	for _, key := range RequiredKeys {
		if values[key] == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return &ConfigError{Missing: missing}
	}

	u, err := url.Parse(c.TargetURL)
	if err != nil || !u.IsAbs() || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return &ConfigError{Reason: fmt.Sprintf("%s must be an absolute http(s) URL, got %q", KeyTargetURL, c.TargetURL)}
	}
	if c.HTTPTimeoutSeconds < 0 {
		return &ConfigError{Reason: "invalid http_timeout_seconds (must be zero or positive seconds)"}
	}
	if strings.TrimSpace(c.GeminiModel) == "" {
		return &ConfigError{Reason: "gemini_model must not be empty"}
	}
	return nil
}

// Redacted returns a copy safe for logging, with credentials masked.
func (c Config) Redacted() Config {
	if c.GeminiAPIKey != "" {
		c.GeminiAPIKey = redacted
	}
	if c.SlashpageAPIKey != "" {
		c.SlashpageAPIKey = redacted
	}
	return c
}
