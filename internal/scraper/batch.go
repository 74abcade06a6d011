package scraper

import (
	"context"
	"sync/atomic"

	"github.com/raysh454/webscrape/internal/logging"
	"golang.org/x/sync/errgroup"
)

// BatchResult is the outcome for one URL of a batch.
type BatchResult struct {
	Index  int
	URL    string
	Result *Result
	Err    error
}

// ScrapeAll scrapes urls with at most concurrency scrapes in flight. A failed
// URL is reported in its BatchResult and never aborts the batch. onResult,
// when non-nil, is called from worker goroutines as each URL finishes.
// The returned slice is in input order.
func (s *Scraper) ScrapeAll(ctx context.Context, urls []string, concurrency int, onResult func(BatchResult)) []BatchResult {
	if concurrency <= 0 {
		concurrency = 1
	}
	results := make([]BatchResult, len(urls))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	var succeeded, failed atomic.Int64
	for i, u := range urls {
		g.Go(func() error {
			res, err := s.Scrape(gctx, u)
			br := BatchResult{Index: i, URL: u, Result: res, Err: err}
			if err != nil {
				failed.Add(1)
			} else {
				succeeded.Add(1)
			}
			results[i] = br
			if onResult != nil {
				onResult(br)
			}
			return nil // don't abort batch on individual failure
		})
	}
	_ = g.Wait()

	s.logger.Info("batch complete",
		logging.Field{Key: "urls", Value: len(urls)},
		logging.Field{Key: "succeeded", Value: succeeded.Load()},
		logging.Field{Key: "failed", Value: failed.Load()})
	return results
}
