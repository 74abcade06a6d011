package webclient

import (
	"net/http"
	"time"
)

type Request struct {
	Method  string
	URL     string
	Headers http.Header
	Body    []byte
}

type Response struct {
	Request *Request
	// FinalURL is the URL that produced the body, after redirects.
	FinalURL   string
	Headers    http.Header
	Body       []byte
	StatusCode int
	// Truncated is set when the body hit Config.MaxBodyBytes.
	Truncated bool
	Backend   Client
	FetchedAt time.Time
}

// ContentType returns the response Content-Type header, or "".
func (r *Response) ContentType() string {
	if r == nil || r.Headers == nil {
		return ""
	}
	return r.Headers.Get("Content-Type")
}

// Redirected reports whether the final URL differs from the requested one.
func (r *Response) Redirected() bool {
	if r == nil || r.Request == nil || r.FinalURL == "" {
		return false
	}
	return r.FinalURL != r.Request.URL
}
