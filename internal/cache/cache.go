// Package cache stores the text of scraped pages keyed by canonical URL.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/raysh454/webscrape/internal/logging"
)

var ErrNotFound = errors.New("cache entry not found")

// Entry is one cached scrape. PreviousContent holds the content the entry had
// before the last Put, used for change detection.
type Entry struct {
	ID                string    `json:"id"`
	Key               string    `json:"key"`
	URL               string    `json:"url"`
	Title             string    `json:"title,omitempty"`
	Content           string    `json:"content"`
	ContentHash       string    `json:"content_hash"`
	StatusCode        int       `json:"status_code"`
	FetchedAt         time.Time `json:"fetched_at"`
	ExpiresAt         time.Time `json:"expires_at"`
	PreviousContent   string    `json:"-"`
	PreviousFetchedAt time.Time `json:"previous_fetched_at,omitzero"`
	// Expired is computed on read.
	Expired bool `json:"expired"`
}

type Store interface {
	// Get returns ErrNotFound when no entry exists. Expired entries are
	// returned with Expired set.
	Get(ctx context.Context, key string) (*Entry, error)
	Put(ctx context.Context, e *Entry) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Purger is implemented by stores that can drop long-expired entries.
type Purger interface {
	PurgeExpired(ctx context.Context, grace time.Duration) (int64, error)
}

type Config struct {
	Enabled bool          `mapstructure:"enabled"`
	Driver  string        `mapstructure:"driver"`
	Path    string        `mapstructure:"path"`
	TTL     time.Duration `mapstructure:"ttl"`
	// PurgeInterval is how often long-expired entries are removed; 0 disables.
	PurgeInterval time.Duration `mapstructure:"purge_interval"`
}

const (
	DriverSQLite = "sqlite"
	DriverMemory = "memory"
	DefaultTTL   = 24 * time.Hour
)

func DefaultConfig() Config {
	return Config{
		Enabled: true,
		Driver:  DriverSQLite,
		Path:    "data/webscrape-cache.db",
		TTL:     DefaultTTL,

		PurgeInterval: 6 * time.Hour,
	}
}

// Open builds the Store selected by cfg.Driver.
func Open(cfg Config, logger logging.Logger) (Store, error) {
	if logger == nil {
		logger = logging.NopLogger{}
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	switch strings.ToLower(cfg.Driver) {
	case "", DriverSQLite:
		return OpenSQLite(cfg.Path, cfg.TTL, logger)
	case DriverMemory:
		return NewMemoryStore(cfg.TTL), nil
	default:
		return nil, fmt.Errorf("unknown cache driver %q", cfg.Driver)
	}
}

// Hash returns the hex sha256 of content.
func Hash(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// prepare fills the derived fields of e before it is written.
func prepare(e *Entry, ttl time.Duration, now time.Time) error {
	if e == nil || e.Key == "" {
		return errors.New("cache entry requires a key")
	}
	if e.FetchedAt.IsZero() {
		e.FetchedAt = now
	}
	if e.ExpiresAt.IsZero() {
		e.ExpiresAt = e.FetchedAt.Add(ttl)
	}
	if e.ContentHash == "" {
		e.ContentHash = Hash(e.Content)
	}
	return nil
}
