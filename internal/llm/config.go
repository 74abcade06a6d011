package llm

import "time"

type Config struct {
	APIKey     string        `mapstructure:"api_key"`
	BaseURL    string        `mapstructure:"base_url"`
	Model      string        `mapstructure:"model"`
	MaxTokens  int64         `mapstructure:"max_tokens"`
	Timeout    time.Duration `mapstructure:"timeout"`
	MaxRetries int           `mapstructure:"max_retries"`
}

const (
	DefaultModel     = "claude-haiku-4-5-20251001"
	DefaultMaxTokens = int64(512)
)

func DefaultConfig() Config {
	return Config{
		Model:      DefaultModel,
		MaxTokens:  DefaultMaxTokens,
		Timeout:    60 * time.Second,
		MaxRetries: 2,
	}
}
