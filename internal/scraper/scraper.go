// Package scraper fetches a URL and returns its readable text, using the
// cache when a fresh copy exists.
package scraper

import (
	"context"
	"errors"
	"time"

	"github.com/raysh454/webscrape/internal/cache"
	"github.com/raysh454/webscrape/internal/extract"
	"github.com/raysh454/webscrape/internal/logging"
	"github.com/raysh454/webscrape/internal/utils"
	"github.com/raysh454/webscrape/internal/webclient"
)

const SourceCache = "cache"

// Result is one successful scrape.
type Result struct {
	RequestedURL string         `json:"requested_url"`
	URL          string         `json:"url"`
	FinalURL     string         `json:"final_url,omitempty"`
	Title        string         `json:"title,omitempty"`
	Content      string         `json:"content"`
	StatusCode   int            `json:"status_code"`
	Source       string         `json:"source"`
	Truncated    bool           `json:"truncated"`
	FetchedAt    time.Time      `json:"fetched_at"`
	Changes      *ChangeSummary `json:"changes,omitempty"`
}

type Scraper struct {
	client    webclient.WebClient
	store     cache.Store
	extractor *extract.Extractor
	cfg       Config
	logger    logging.Logger
}

// New builds a Scraper. store may be nil, which disables caching.
func New(client webclient.WebClient, store cache.Store, cfg Config, logger logging.Logger) *Scraper {
	if logger == nil {
		logger = logging.NopLogger{}
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultRequestTimeout
	}
	if cfg.MaxResponseBytes <= 0 {
		cfg.MaxResponseBytes = DefaultMaxResponseBytes
	}
	return &Scraper{
		client:    client,
		store:     store,
		extractor: extract.New(cfg.MaxContentChars),
		cfg:       cfg,
		logger:    logger.With(logging.Field{Key: "component", Value: "scraper"}),
	}
}

func (s *Scraper) Config() Config { return s.cfg }

// Scrape normalizes input, serves a fresh cache hit when there is one, and
// otherwise fetches, checks and extracts the page.
func (s *Scraper) Scrape(ctx context.Context, input string) (*Result, error) {
	normalized, err := utils.NormalizeInputURL(input, s.cfg.DefaultScheme)
	if err != nil {
		return nil, newError(KindInvalidURL, input, err)
	}
	key := s.cacheKey(normalized)
	log := s.logger.With(logging.Field{Key: "url", Value: normalized})

	var prev *cache.Entry
	if s.store != nil {
		entry, err := s.store.Get(ctx, key)
		switch {
		case err == nil && !entry.Expired:
			log.Debug("cache hit")
			return &Result{
				RequestedURL: input,
				URL:          normalized,
				FinalURL:     entry.URL,
				Title:        entry.Title,
				Content:      entry.Content,
				StatusCode:   entry.StatusCode,
				Source:       SourceCache,
				FetchedAt:    entry.FetchedAt,
			}, nil
		case err == nil:
			prev = entry
		case !errors.Is(err, cache.ErrNotFound):
			log.Warn("cache lookup failed", logging.Err(err))
		}
	}

	fetchCtx, cancel := context.WithTimeout(ctx, s.cfg.RequestTimeout)
	defer cancel()

	resp, err := s.client.Get(fetchCtx, normalized)
	if err != nil {
		log.Warn("fetch failed", logging.Err(err))
		return nil, newError(KindFetch, normalized, err)
	}

	if s.cfg.RejectRedirects && resp.Redirected() {
		log.Info("redirect rejected", logging.Field{Key: "final_url", Value: resp.FinalURL})
		return nil, &ScrapeError{Kind: KindRedirected, URL: normalized, Status: resp.StatusCode,
			Err: errors.New("to " + resp.FinalURL)}
	}

	if s.cfg.DetectBlocks {
		if blocked, kind := DetectBlock(resp.StatusCode, resp.Headers, resp.Body); blocked {
			log.Info("page blocked", logging.Field{Key: "block", Value: string(kind)})
			return nil, &ScrapeError{Kind: KindBlocked, URL: normalized, Status: resp.StatusCode,
				Err: errors.New(string(kind))}
		}
	}

	if resp.StatusCode >= 400 {
		return nil, &ScrapeError{Kind: KindUpstreamStatus, URL: normalized, Status: resp.StatusCode}
	}

	doc, err := s.extractor.Extract(resp.Body, resp.ContentType())
	if err != nil {
		return nil, &ScrapeError{Kind: KindNoContent, URL: normalized, Status: resp.StatusCode, Err: err}
	}

	res := &Result{
		RequestedURL: input,
		URL:          normalized,
		FinalURL:     resp.FinalURL,
		Title:        doc.Title,
		Content:      doc.Text,
		StatusCode:   resp.StatusCode,
		Source:       string(resp.Backend),
		Truncated:    doc.Truncated || resp.Truncated,
		FetchedAt:    resp.FetchedAt,
	}

	if prev != nil {
		res.Changes = CompareContent(prev.Content, res.Content, prev.FetchedAt)
		if res.Changes.Changed {
			log.Info("content changed",
				logging.Field{Key: "inserted", Value: res.Changes.Inserted},
				logging.Field{Key: "deleted", Value: res.Changes.Deleted})
		}
	}

	if s.store != nil {
		err := s.store.Put(ctx, &cache.Entry{
			Key:        key,
			URL:        res.FinalURL,
			Title:      res.Title,
			Content:    res.Content,
			StatusCode: res.StatusCode,
			FetchedAt:  res.FetchedAt,
		})
		if err != nil {
			log.Warn("cache store failed", logging.Err(err))
		}
	}

	log.Info("scraped",
		logging.Field{Key: "status", Value: res.StatusCode},
		logging.Field{Key: "chars", Value: len(res.Content)},
		logging.Field{Key: "truncated", Value: res.Truncated},
		logging.Field{Key: "source", Value: res.Source})
	return res, nil
}

// CachedEntry returns the cache entry for input, expired or not.
func (s *Scraper) CachedEntry(ctx context.Context, input string) (*cache.Entry, error) {
	if s.store == nil {
		return nil, ErrCacheDisabled
	}
	normalized, err := utils.NormalizeInputURL(input, s.cfg.DefaultScheme)
	if err != nil {
		return nil, newError(KindInvalidURL, input, err)
	}
	return s.store.Get(ctx, s.cacheKey(normalized))
}

// Evict drops the cache entry for input.
func (s *Scraper) Evict(ctx context.Context, input string) error {
	if s.store == nil {
		return ErrCacheDisabled
	}
	normalized, err := utils.NormalizeInputURL(input, s.cfg.DefaultScheme)
	if err != nil {
		return newError(KindInvalidURL, input, err)
	}
	return s.store.Delete(ctx, s.cacheKey(normalized))
}

func (s *Scraper) cacheKey(normalized string) string {
	key, err := utils.Canonicalize(normalized, s.cfg.Canonical)
	if err != nil {
		return normalized
	}
	return key
}
