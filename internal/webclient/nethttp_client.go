package webclient

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/raysh454/webscrape/internal/logging"
)

// net/http backed implementation of webclient.
type NetHTTPClient struct {
	client   *http.Client
	cfg      Config
	limiters *hostLimiters
	logger   logging.Logger
}

// retryableStatusError marks a response that should be retried. The response
// itself is kept so the caller can still see it once retries run out.
type retryableStatusError struct {
	resp *Response
}

func (e *retryableStatusError) Error() string {
	return fmt.Sprintf("retryable status %d", e.resp.StatusCode)
}

// NewNetHTTPClient builds a NetHTTPClient. When httpClient is nil a client is
// built from cfg (timeout, redirect cap).
func NewNetHTTPClient(cfg Config, logger logging.Logger, httpClient *http.Client) (*NetHTTPClient, error) {
	if logger == nil {
		logger = logging.NopLogger{}
	}
	cfg = cfg.withDefaults()
	componentLogger := logger.With(logging.Field{Key: "backend", Value: "nethttp"})

	if httpClient == nil {
		maxRedirects := cfg.MaxRedirects
		httpClient = &http.Client{
			Timeout: cfg.Timeout,
			CheckRedirect: func(_ *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("stopped after %d redirects", maxRedirects)
				}
				return nil
			},
		}
	}

	componentLogger.Debug("created nethttp webclient",
		logging.Field{Key: "timeout", Value: httpClient.Timeout.String()},
		logging.Field{Key: "rate_per_host", Value: cfg.RatePerHost},
		logging.Field{Key: "retry_max", Value: cfg.RetryMax})

	return &NetHTTPClient{
		client:   httpClient,
		cfg:      cfg,
		limiters: newHostLimiters(cfg.RatePerHost, cfg.Burst),
		logger:   componentLogger,
	}, nil
}

// Do executes req, retrying transport errors, 429 and 5xx responses with
// exponential backoff. A retryable status that persists past the retry budget
// is returned as a normal response.
func (nhc *NetHTTPClient) Do(ctx context.Context, req *Request) (*Response, error) {
	if req == nil {
		return nil, ErrInvalidRequest
	}
	if req.Method == "" {
		req.Method = http.MethodGet
	}

	var last *Response
	attempt := 0
	op := func() error {
		attempt++
		if err := nhc.limiters.wait(ctx, req.URL); err != nil {
			return backoff.Permanent(err)
		}
		resp, err := nhc.once(ctx, req)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			var ue *invalidRequestError
			if errors.As(err, &ue) {
				return backoff.Permanent(err)
			}
			nhc.logger.Warn("http attempt failed",
				logging.Field{Key: "url", Value: req.URL},
				logging.Field{Key: "attempt", Value: attempt},
				logging.Err(err))
			return err
		}
		if retryableStatus(resp.StatusCode) {
			last = resp
			nhc.logger.Debug("retryable status",
				logging.Field{Key: "url", Value: req.URL},
				logging.Field{Key: "status", Value: resp.StatusCode},
				logging.Field{Key: "attempt", Value: attempt})
			return &retryableStatusError{resp: resp}
		}
		last = resp
		return nil
	}

	err := backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(nhc.newBackOff(), nhc.cfg.RetryMax), ctx))
	if err != nil {
		var rs *retryableStatusError
		if errors.As(err, &rs) {
			return rs.resp, nil
		}
		return nil, err
	}
	return last, nil
}

func (nhc *NetHTTPClient) newBackOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = nhc.cfg.RetryInitial
	b.MaxInterval = nhc.cfg.RetryMaxInterval
	b.MaxElapsedTime = 0
	return b
}

func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= 500
}

func (nhc *NetHTTPClient) once(ctx context.Context, req *Request) (*Response, error) {
	method := strings.ToUpper(req.Method)

	nhc.logger.Debug("sending http request",
		logging.Field{Key: "method", Value: method},
		logging.Field{Key: "url", Value: req.URL})

	var bodyReader io.Reader
	if len(req.Body) > 0 {
		bodyReader = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, req.URL, bodyReader)
	if err != nil {
		return nil, &invalidRequestError{err: err}
	}

	for k, vs := range req.Headers {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	if httpReq.Header.Get("User-Agent") == "" {
		httpReq.Header.Set("User-Agent", nhc.cfg.UserAgent)
	}
	if httpReq.Header.Get("Accept-Encoding") == "" {
		httpReq.Header.Set("Accept-Encoding", "gzip")
	}

	start := time.Now()
	resp, err := nhc.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("http do: %w", err)
	}
	defer resp.Body.Close()

	body, truncated, err := readBody(resp, nhc.cfg.MaxBodyBytes)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	finalURL := req.URL
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	nhc.logger.Debug("http response",
		logging.Field{Key: "url", Value: req.URL},
		logging.Field{Key: "final_url", Value: finalURL},
		logging.Field{Key: "status", Value: resp.StatusCode},
		logging.Field{Key: "bytes", Value: len(body)},
		logging.Field{Key: "duration", Value: time.Since(start).String()})

	return &Response{
		Request:    req,
		FinalURL:   finalURL,
		Body:       body,
		Headers:    resp.Header,
		StatusCode: resp.StatusCode,
		Truncated:  truncated,
		Backend:    ClientNetHTTP,
		FetchedAt:  time.Now(),
	}, nil
}

// readBody decodes a gzip Content-Encoding and reads at most limit bytes.
func readBody(resp *http.Response, limit int64) ([]byte, bool, error) {
	var r io.Reader = resp.Body
	if strings.EqualFold(strings.TrimSpace(resp.Header.Get("Content-Encoding")), "gzip") {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, false, fmt.Errorf("gzip: %w", err)
		}
		defer gz.Close()
		r = gz
		resp.Header.Del("Content-Encoding")
		resp.Header.Del("Content-Length")
	}

	body, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, false, err
	}
	if int64(len(body)) > limit {
		return body[:limit], true, nil
	}
	return body, false, nil
}

// Get is a convenience method for simple GET requests
func (nhc *NetHTTPClient) Get(ctx context.Context, url string) (*Response, error) {
	return nhc.Do(ctx, &Request{Method: http.MethodGet, URL: url})
}

func (nhc *NetHTTPClient) Close() error {
	nhc.logger.Debug("closing nethttp webclient")
	nhc.client.CloseIdleConnections()
	return nil
}

// ErrInvalidRequest is returned for a nil request.
var ErrInvalidRequest = errors.New("request cannot be nil")

type invalidRequestError struct{ err error }

func (e *invalidRequestError) Error() string { return "create request: " + e.err.Error() }
func (e *invalidRequestError) Unwrap() error { return e.err }
