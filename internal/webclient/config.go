package webclient

import "time"

type Client string

const (
	ClientNetHTTP  Client = "nethttp"
	ClientChromedp Client = "chromedp"
)

// Config holds everything the backends need. It is embedded in app.Config
// under the "webclient" key.
type Config struct {
	Client Client `mapstructure:"client"`

	// Timeout bounds a single HTTP attempt (nethttp) or a page load (chromedp).
	Timeout   time.Duration `mapstructure:"timeout"`
	UserAgent string        `mapstructure:"user_agent"`

	// MaxBodyBytes caps how much of a response body is read; 0 means the default.
	MaxBodyBytes int64 `mapstructure:"max_body_bytes"`
	MaxRedirects int   `mapstructure:"max_redirects"`

	// Per-host token bucket. RatePerHost <= 0 disables limiting.
	RatePerHost float64 `mapstructure:"rate_per_host"`
	Burst       int     `mapstructure:"burst"`

	RetryMax         uint64        `mapstructure:"retry_max"`
	RetryInitial     time.Duration `mapstructure:"retry_initial"`
	RetryMaxInterval time.Duration `mapstructure:"retry_max_interval"`

	// chromedp only
	IdleAfter time.Duration `mapstructure:"idle_after"`
	Headless  bool          `mapstructure:"headless"`
}

const (
	DefaultTimeout      = 30 * time.Second
	DefaultMaxBodyBytes = int64(10 * 1024 * 1024)
	DefaultMaxRedirects = 10
	DefaultUserAgent    = "Mozilla/5.0 (compatible; webscrape/1.0; +https://github.com/raysh454/webscrape)"
)

// DefaultConfig returns a Config populated with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Client:           ClientNetHTTP,
		Timeout:          DefaultTimeout,
		UserAgent:        DefaultUserAgent,
		MaxBodyBytes:     DefaultMaxBodyBytes,
		MaxRedirects:     DefaultMaxRedirects,
		RatePerHost:      5,
		Burst:            5,
		RetryMax:         2,
		RetryInitial:     500 * time.Millisecond,
		RetryMaxInterval: 5 * time.Second,
		IdleAfter:        2 * time.Second,
		Headless:         true,
	}
}

// withDefaults fills zero values so a partially populated Config (tests,
// hand-built configs) still behaves.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Client == "" {
		c.Client = d.Client
	}
	if c.Timeout <= 0 {
		c.Timeout = d.Timeout
	}
	if c.UserAgent == "" {
		c.UserAgent = d.UserAgent
	}
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = d.MaxBodyBytes
	}
	if c.MaxRedirects <= 0 {
		c.MaxRedirects = d.MaxRedirects
	}
	if c.RetryInitial <= 0 {
		c.RetryInitial = d.RetryInitial
	}
	if c.RetryMaxInterval <= 0 {
		c.RetryMaxInterval = d.RetryMaxInterval
	}
	if c.IdleAfter <= 0 {
		c.IdleAfter = d.IdleAfter
	}
	return c
}
