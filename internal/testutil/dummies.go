// Package testutil provides shared test doubles for use across package tests.
// All dummies implement the corresponding interfaces from the production code,
// allowing injection into components under test without real I/O or side effects.
package testutil

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/raysh454/webscrape/internal/logging"
	"github.com/raysh454/webscrape/internal/webclient"
)

// ─── Logger ────────────────────────────────────────────────────────────

// DummyLogger implements logging.Logger with in-memory recording.
type DummyLogger struct {
	mu     sync.Mutex
	Errors []string
	Infos  []string
	Debugs []string
	Warns  []string
}

func (l *DummyLogger) Debug(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Debugs = append(l.Debugs, msg)
}

func (l *DummyLogger) Info(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Infos = append(l.Infos, msg)
}

func (l *DummyLogger) Warn(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Warns = append(l.Warns, msg)
}

func (l *DummyLogger) Error(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Errors = append(l.Errors, msg)
}

func (l *DummyLogger) With(_ ...logging.Field) logging.Logger { return l }

// HasWarn reports whether msg was logged at warn level.
func (l *DummyLogger) HasWarn(msg string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, m := range l.Warns {
		if m == msg {
			return true
		}
	}
	return false
}

// ─── WebClient ─────────────────────────────────────────────────────────

// DummyWebClient implements webclient.WebClient.
// By default it returns an HTML page whose paragraph is "ok:<url>" with status 200.
// Pages overrides the response per URL; FailURLs[url] = true forces an error.
type DummyWebClient struct {
	ResponseDelay time.Duration
	FailURLs      map[string]bool
	Pages         map[string]*webclient.Response

	mu       sync.Mutex
	Requests []*webclient.Request
}

var ErrDummyFetch = errors.New("dummy fetch failure")

func (d *DummyWebClient) Do(ctx context.Context, req *webclient.Request) (*webclient.Response, error) {
	if d.ResponseDelay > 0 {
		select {
		case <-time.After(d.ResponseDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	d.mu.Lock()
	d.Requests = append(d.Requests, req)
	d.mu.Unlock()

	if d.FailURLs != nil && d.FailURLs[req.URL] {
		return nil, ErrDummyFetch
	}

	if page, ok := d.Pages[req.URL]; ok {
		cp := *page
		cp.Request = req
		if cp.FinalURL == "" {
			cp.FinalURL = req.URL
		}
		if cp.FetchedAt.IsZero() {
			cp.FetchedAt = time.Now()
		}
		return &cp, nil
	}

	return &webclient.Response{
		Request:    req,
		FinalURL:   req.URL,
		Headers:    http.Header{"Content-Type": {"text/html; charset=utf-8"}},
		Body:       []byte("<html><body><p>ok:" + req.URL + "</p></body></html>"),
		StatusCode: http.StatusOK,
		Backend:    webclient.ClientNetHTTP,
		FetchedAt:  time.Now(),
	}, nil
}

func (d *DummyWebClient) Get(ctx context.Context, url string) (*webclient.Response, error) {
	return d.Do(ctx, &webclient.Request{Method: http.MethodGet, URL: url})
}

func (d *DummyWebClient) Close() error { return nil }

// RequestCount returns how many requests reached the client.
func (d *DummyWebClient) RequestCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.Requests)
}
