package scraper

import (
	"time"

	"github.com/raysh454/webscrape/internal/extract"
	"github.com/raysh454/webscrape/internal/utils"
)

type Config struct {
	// RequestTimeout is layered over the caller's context for one scrape.
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	// DefaultScheme is prepended to inputs without http:// or https://.
	DefaultScheme string `mapstructure:"default_scheme"`
	// RejectRedirects fails a scrape whose final URL differs from the
	// requested one.
	RejectRedirects bool `mapstructure:"reject_redirects"`
	DetectBlocks    bool `mapstructure:"detect_blocks"`
	MaxContentChars int  `mapstructure:"max_content_chars"`
	// MaxResponseBytes bounds the encoded agent action payload.
	MaxResponseBytes int                       `mapstructure:"max_response_bytes"`
	Canonical        utils.CanonicalizeOptions `mapstructure:"canonical"`
}

const (
	DefaultRequestTimeout   = 30 * time.Second
	DefaultMaxResponseBytes = 22000
)

func DefaultConfig() Config {
	return Config{
		RequestTimeout:   DefaultRequestTimeout,
		DefaultScheme:    "http",
		RejectRedirects:  false,
		DetectBlocks:     true,
		MaxContentChars:  extract.DefaultMaxContentChars,
		MaxResponseBytes: DefaultMaxResponseBytes,
		Canonical: utils.CanonicalizeOptions{
			DropTrackingParams: true,
		},
	}
}
