package app

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"

	"github.com/raysh454/webscrape/internal/cache"
	"github.com/raysh454/webscrape/internal/llm"
	"github.com/raysh454/webscrape/internal/logging"
	"github.com/raysh454/webscrape/internal/scraper"
	"github.com/raysh454/webscrape/internal/webclient"
)

// EnvPrefix prefixes every environment override, e.g. WEBSCRAPE_SERVER_ADDR.
const EnvPrefix = "WEBSCRAPE"

// Config is the full runtime configuration. Each subsystem owns its section.
type Config struct {
	Server    ServerConfig     `mapstructure:"server"`
	Log       logging.Config   `mapstructure:"log"`
	WebClient webclient.Config `mapstructure:"webclient"`
	Scraper   scraper.Config   `mapstructure:"scrape"`
	Cache     cache.Config     `mapstructure:"cache"`
	LLM       llm.Config       `mapstructure:"llm"`
	Jobs      JobsConfig       `mapstructure:"jobs"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type JobsConfig struct {
	// MaxConcurrency caps the scrapes one job runs in parallel.
	MaxConcurrency int `mapstructure:"max_concurrency"`
	// MaxURLs caps the URLs accepted by one job.
	MaxURLs int `mapstructure:"max_urls"`
	// Retention is how long finished jobs stay listable.
	Retention time.Duration `mapstructure:"retention"`
}

// DefaultConfig returns a Config populated with development defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     15 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Log: logging.Config{
			Level:  "info",
			Format: "json",
		},
		WebClient: webclient.DefaultConfig(),
		Scraper:   scraper.DefaultConfig(),
		Cache:     cache.DefaultConfig(),
		LLM:       llm.DefaultConfig(),
		Jobs: JobsConfig{
			MaxConcurrency: 4,
			MaxURLs:        100,
			Retention:      time.Hour,
		},
	}
}

// Load reads configuration from path (or ./webscrape.yaml when path is empty),
// then applies WEBSCRAPE_* environment overrides. A missing default file is
// not an error; a missing explicit file is.
func Load(path string) (*Config, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("webscrape")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v, DefaultConfig())

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}
	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setDefaults registers every key so environment overrides are seen by
// Unmarshal even when no file sets them.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.read_timeout", d.Server.ReadTimeout)
	v.SetDefault("server.shutdown_timeout", d.Server.ShutdownTimeout)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)

	v.SetDefault("webclient.client", string(d.WebClient.Client))
	v.SetDefault("webclient.timeout", d.WebClient.Timeout)
	v.SetDefault("webclient.user_agent", d.WebClient.UserAgent)
	v.SetDefault("webclient.max_body_bytes", d.WebClient.MaxBodyBytes)
	v.SetDefault("webclient.max_redirects", d.WebClient.MaxRedirects)
	v.SetDefault("webclient.rate_per_host", d.WebClient.RatePerHost)
	v.SetDefault("webclient.burst", d.WebClient.Burst)
	v.SetDefault("webclient.retry_max", d.WebClient.RetryMax)
	v.SetDefault("webclient.retry_initial", d.WebClient.RetryInitial)
	v.SetDefault("webclient.retry_max_interval", d.WebClient.RetryMaxInterval)
	v.SetDefault("webclient.idle_after", d.WebClient.IdleAfter)
	v.SetDefault("webclient.headless", d.WebClient.Headless)

	v.SetDefault("scrape.request_timeout", d.Scraper.RequestTimeout)
	v.SetDefault("scrape.default_scheme", d.Scraper.DefaultScheme)
	v.SetDefault("scrape.reject_redirects", d.Scraper.RejectRedirects)
	v.SetDefault("scrape.detect_blocks", d.Scraper.DetectBlocks)
	v.SetDefault("scrape.max_content_chars", d.Scraper.MaxContentChars)
	v.SetDefault("scrape.max_response_bytes", d.Scraper.MaxResponseBytes)
	v.SetDefault("scrape.canonical.drop_tracking_params", d.Scraper.Canonical.DropTrackingParams)
	v.SetDefault("scrape.canonical.strip_trailing_slash", d.Scraper.Canonical.StripTrailingSlash)

	v.SetDefault("cache.enabled", d.Cache.Enabled)
	v.SetDefault("cache.driver", d.Cache.Driver)
	v.SetDefault("cache.path", d.Cache.Path)
	v.SetDefault("cache.ttl", d.Cache.TTL)
	v.SetDefault("cache.purge_interval", d.Cache.PurgeInterval)

	v.SetDefault("llm.api_key", d.LLM.APIKey)
	v.SetDefault("llm.base_url", d.LLM.BaseURL)
	v.SetDefault("llm.model", d.LLM.Model)
	v.SetDefault("llm.max_tokens", d.LLM.MaxTokens)
	v.SetDefault("llm.timeout", d.LLM.Timeout)
	v.SetDefault("llm.max_retries", d.LLM.MaxRetries)

	v.SetDefault("jobs.max_concurrency", d.Jobs.MaxConcurrency)
	v.SetDefault("jobs.max_urls", d.Jobs.MaxURLs)
	v.SetDefault("jobs.retention", d.Jobs.Retention)
}

// Validate rejects settings no component can run with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Server.Addr) == "" {
		return eris.New("config: server.addr is required")
	}
	switch strings.ToLower(c.Scraper.DefaultScheme) {
	case "http", "https":
	default:
		return eris.New(fmt.Sprintf("config: scrape.default_scheme must be http or https, got %q", c.Scraper.DefaultScheme))
	}
	if c.Jobs.MaxConcurrency < 1 {
		return eris.New("config: jobs.max_concurrency must be at least 1")
	}
	if c.Jobs.MaxURLs < 1 {
		return eris.New("config: jobs.max_urls must be at least 1")
	}
	if c.Cache.Enabled {
		switch strings.ToLower(c.Cache.Driver) {
		case "", cache.DriverSQLite, cache.DriverMemory:
		default:
			return eris.New(fmt.Sprintf("config: unknown cache.driver %q", c.Cache.Driver))
		}
	}
	return nil
}
