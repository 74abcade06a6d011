package scraper

import (
	"errors"
	"fmt"
)

// Kind classifies why a scrape failed.
type Kind string

const (
	KindInvalidURL     Kind = "invalid_url"
	KindFetch          Kind = "fetch"
	KindUpstreamStatus Kind = "upstream_status"
	KindBlocked        Kind = "blocked"
	KindRedirected     Kind = "redirected"
	KindNoContent      Kind = "no_content"
)

// Sentinels matched by errors.Is against a *ScrapeError of the same kind.
var (
	ErrInvalidURL     = errors.New("invalid url")
	ErrFetch          = errors.New("failed to retrieve content")
	ErrUpstreamStatus = errors.New("upstream returned an error status")
	ErrBlocked        = errors.New("page is blocked by anti-bot protection")
	ErrRedirected     = errors.New("page redirected")
	ErrNoContent      = errors.New("no readable content")
	ErrCacheDisabled  = errors.New("cache is disabled")
)

var sentinels = map[Kind]error{
	KindInvalidURL:     ErrInvalidURL,
	KindFetch:          ErrFetch,
	KindUpstreamStatus: ErrUpstreamStatus,
	KindBlocked:        ErrBlocked,
	KindRedirected:     ErrRedirected,
	KindNoContent:      ErrNoContent,
}

// ScrapeError is returned for every failed scrape.
type ScrapeError struct {
	Kind Kind
	URL  string
	// Status is the upstream status code when one was received.
	Status int
	Err    error
}

func (e *ScrapeError) Error() string {
	msg := sentinels[e.Kind].Error()
	switch {
	case e.Kind == KindUpstreamStatus:
		return fmt.Sprintf("%s: %d", msg, e.Status)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", msg, e.Err)
	default:
		return msg
	}
}

func (e *ScrapeError) Unwrap() error { return e.Err }

func (e *ScrapeError) Is(target error) bool {
	return target == sentinels[e.Kind]
}

func newError(kind Kind, url string, err error) *ScrapeError {
	return &ScrapeError{Kind: kind, URL: url, Err: err}
}

// KindOf returns the Kind of err, or "" when err is not a *ScrapeError.
func KindOf(err error) Kind {
	var se *ScrapeError
	if errors.As(err, &se) {
		return se.Kind
	}
	return ""
}
