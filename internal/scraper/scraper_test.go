package scraper_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/raysh454/webscrape/internal/cache"
	"github.com/raysh454/webscrape/internal/logging"
	"github.com/raysh454/webscrape/internal/scraper"
	"github.com/raysh454/webscrape/internal/testutil"
	"github.com/raysh454/webscrape/internal/webclient"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func htmlPage(status int, body string) *webclient.Response {
	return &webclient.Response{
		StatusCode: status,
		Headers:    http.Header{"Content-Type": {"text/html; charset=utf-8"}},
		Body:       []byte(body),
		Backend:    webclient.ClientNetHTTP,
	}
}

func TestScrape_ExtractsReadableText(t *testing.T) {
	wc := &testutil.DummyWebClient{Pages: map[string]*webclient.Response{
		"http://example.com": htmlPage(200, `<html><head><title>Example</title>
<script>track()</script><style>p{}</style></head>
<body><h1>Heading</h1>
<p>Body text.</p></body></html>`),
	}}
	s := scraper.New(wc, nil, scraper.DefaultConfig(), logging.NopLogger{})

	res, err := s.Scrape(context.Background(), "example.com")
	require.NoError(t, err)

	assert.Equal(t, "http://example.com", res.URL)
	assert.Equal(t, "example.com", res.RequestedURL)
	assert.Equal(t, "Example", res.Title)
	assert.Contains(t, res.Content, "Heading\nBody text.")
	assert.NotContains(t, res.Content, "track()")
	assert.Equal(t, "nethttp", res.Source)
	assert.Nil(t, res.Changes)
}

func TestScrape_InvalidURL(t *testing.T) {
	wc := &testutil.DummyWebClient{}
	s := scraper.New(wc, nil, scraper.DefaultConfig(), logging.NopLogger{})

	for _, in := range []string{"", "   ", "ftp://example.com/file", "http://"} {
		_, err := s.Scrape(context.Background(), in)
		assert.ErrorIs(t, err, scraper.ErrInvalidURL, "input %q", in)
		assert.Equal(t, scraper.KindInvalidURL, scraper.KindOf(err))
	}
	assert.Zero(t, wc.RequestCount(), "invalid input must not reach the network")
}

func TestScrape_FetchFailure(t *testing.T) {
	wc := &testutil.DummyWebClient{FailURLs: map[string]bool{"http://down.example": true}}
	s := scraper.New(wc, nil, scraper.DefaultConfig(), logging.NopLogger{})

	_, err := s.Scrape(context.Background(), "http://down.example")
	assert.ErrorIs(t, err, scraper.ErrFetch)
	assert.ErrorIs(t, err, testutil.ErrDummyFetch)
}

func TestScrape_UpstreamStatus(t *testing.T) {
	wc := &testutil.DummyWebClient{Pages: map[string]*webclient.Response{
		"http://example.com/missing": htmlPage(404, "<p>not found</p>"),
	}}
	s := scraper.New(wc, nil, scraper.DefaultConfig(), logging.NopLogger{})

	_, err := s.Scrape(context.Background(), "http://example.com/missing")
	var se *scraper.ScrapeError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, scraper.KindUpstreamStatus, se.Kind)
	assert.Equal(t, 404, se.Status)
	assert.Contains(t, err.Error(), "404")
}

func TestScrape_BlockedPage(t *testing.T) {
	wc := &testutil.DummyWebClient{Pages: map[string]*webclient.Response{
		"http://example.com/captcha": htmlPage(200, "<p>Please solve the CAPTCHA to continue</p>"),
	}}
	s := scraper.New(wc, nil, scraper.DefaultConfig(), logging.NopLogger{})

	_, err := s.Scrape(context.Background(), "http://example.com/captcha")
	assert.ErrorIs(t, err, scraper.ErrBlocked)
}

func TestScrape_BlockDetectionCanBeDisabled(t *testing.T) {
	wc := &testutil.DummyWebClient{Pages: map[string]*webclient.Response{
		"http://example.com/captcha": htmlPage(200, "<p>Please solve the CAPTCHA to continue</p>"),
	}}
	cfg := scraper.DefaultConfig()
	cfg.DetectBlocks = false
	s := scraper.New(wc, nil, cfg, logging.NopLogger{})

	res, err := s.Scrape(context.Background(), "http://example.com/captcha")
	require.NoError(t, err)
	assert.Contains(t, res.Content, "solve the CAPTCHA")
}

func TestScrape_ArticleLoadingCaptchaScriptIsNotBlocked(t *testing.T) {
	article := strings.Repeat("<p>Notes on how captcha systems score visitors.</p>\n", 80)
	body := `<html><head><script src="https://www.google.com/recaptcha/api.js"></script>
<script src="https://cdnjs.cloudflare.com/ajax/libs/x/1.0/x.js"></script></head>
<body><h1>Field report on the challenge</h1>` + article + "</body></html>"
	require.Greater(t, len(body), 2048)

	wc := &testutil.DummyWebClient{Pages: map[string]*webclient.Response{
		"http://example.com/article": htmlPage(200, body),
	}}
	s := scraper.New(wc, nil, scraper.DefaultConfig(), logging.NopLogger{})

	res, err := s.Scrape(context.Background(), "http://example.com/article")
	require.NoError(t, err)
	assert.Contains(t, res.Content, "captcha systems score visitors")
}

func TestScrape_NoContent(t *testing.T) {
	wc := &testutil.DummyWebClient{Pages: map[string]*webclient.Response{
		"http://example.com/empty": htmlPage(200, strings.Repeat(" ", 3000)+"<script>x()</script>"),
	}}
	s := scraper.New(wc, nil, scraper.DefaultConfig(), logging.NopLogger{})

	_, err := s.Scrape(context.Background(), "http://example.com/empty")
	assert.ErrorIs(t, err, scraper.ErrNoContent)
}

func TestScrape_TruncatesToMaxContentChars(t *testing.T) {
	wc := &testutil.DummyWebClient{Pages: map[string]*webclient.Response{
		"http://example.com/big": htmlPage(200, "<p>"+strings.Repeat("a", 500)+"</p>"),
	}}
	cfg := scraper.DefaultConfig()
	cfg.MaxContentChars = 100
	s := scraper.New(wc, nil, cfg, logging.NopLogger{})

	res, err := s.Scrape(context.Background(), "http://example.com/big")
	require.NoError(t, err)
	assert.Len(t, res.Content, 100)
	assert.True(t, res.Truncated)
}

func TestScrape_ServesFreshCacheHit(t *testing.T) {
	wc := &testutil.DummyWebClient{}
	store := cache.NewMemoryStore(time.Hour)
	s := scraper.New(wc, store, scraper.DefaultConfig(), logging.NopLogger{})
	ctx := context.Background()

	first, err := s.Scrape(ctx, "http://example.com/page")
	require.NoError(t, err)
	second, err := s.Scrape(ctx, "HTTP://Example.com/page?utm_source=x")
	require.NoError(t, err)

	assert.Equal(t, 1, wc.RequestCount(), "second scrape should be served from cache")
	assert.Equal(t, scraper.SourceCache, second.Source)
	assert.Equal(t, first.Content, second.Content)
}

func TestScrape_ExpiredEntryIsRefetchedAndDiffed(t *testing.T) {
	wc := &testutil.DummyWebClient{Pages: map[string]*webclient.Response{
		"http://example.com/news": htmlPage(200, "<p>today: rain</p>"),
	}}
	store := cache.NewMemoryStore(time.Hour)
	past := time.Now().Add(-2 * time.Hour)
	require.NoError(t, store.Put(context.Background(), &cache.Entry{
		Key: "http://example.com/news", URL: "http://example.com/news",
		Content: "today: sun", FetchedAt: past, ExpiresAt: past.Add(time.Minute),
	}))
	s := scraper.New(wc, store, scraper.DefaultConfig(), logging.NopLogger{})

	res, err := s.Scrape(context.Background(), "http://example.com/news")
	require.NoError(t, err)

	assert.Equal(t, 1, wc.RequestCount())
	require.NotNil(t, res.Changes)
	assert.True(t, res.Changes.Changed)
	assert.Positive(t, res.Changes.Inserted)
	assert.Positive(t, res.Changes.Deleted)

	entry, err := store.Get(context.Background(), "http://example.com/news")
	require.NoError(t, err)
	assert.Equal(t, "today: rain", entry.Content)
	assert.Equal(t, "today: sun", entry.PreviousContent)
	assert.False(t, entry.Expired)
}

type failingStore struct{ cache.Store }

func (failingStore) Get(context.Context, string) (*cache.Entry, error) {
	return nil, errors.New("disk on fire")
}
func (failingStore) Put(context.Context, *cache.Entry) error { return errors.New("disk on fire") }

func TestScrape_CacheErrorsAreNotFatal(t *testing.T) {
	logger := &testutil.DummyLogger{}
	s := scraper.New(&testutil.DummyWebClient{}, failingStore{}, scraper.DefaultConfig(), logger)

	res, err := s.Scrape(context.Background(), "http://example.com")
	require.NoError(t, err)
	assert.NotEmpty(t, res.Content)
	assert.True(t, logger.HasWarn("cache lookup failed"))
	assert.True(t, logger.HasWarn("cache store failed"))
}

func TestScrape_RejectRedirects(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/old", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/new", http.StatusFound)
	})
	mux.HandleFunc("/new", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = io.WriteString(w, "<p>landed</p>")
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	wc, err := webclient.NewNetHTTPClient(webclient.Config{}, logging.NopLogger{}, nil)
	require.NoError(t, err)
	defer wc.Close()

	cfg := scraper.DefaultConfig()
	res, err := scraper.New(wc, nil, cfg, logging.NopLogger{}).Scrape(context.Background(), ts.URL+"/old")
	require.NoError(t, err)
	assert.Equal(t, ts.URL+"/new", res.FinalURL)

	cfg.RejectRedirects = true
	_, err = scraper.New(wc, nil, cfg, logging.NopLogger{}).Scrape(context.Background(), ts.URL+"/old")
	assert.ErrorIs(t, err, scraper.ErrRedirected)
}

func TestScrape_RequestTimeout(t *testing.T) {
	wc := &testutil.DummyWebClient{ResponseDelay: time.Second}
	cfg := scraper.DefaultConfig()
	cfg.RequestTimeout = 20 * time.Millisecond
	s := scraper.New(wc, nil, cfg, logging.NopLogger{})

	_, err := s.Scrape(context.Background(), "http://slow.example")
	assert.ErrorIs(t, err, scraper.ErrFetch)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestCachedEntryAndEvict(t *testing.T) {
	store := cache.NewMemoryStore(time.Hour)
	s := scraper.New(&testutil.DummyWebClient{}, store, scraper.DefaultConfig(), logging.NopLogger{})
	ctx := context.Background()

	_, err := s.Scrape(ctx, "example.com/a")
	require.NoError(t, err)

	e, err := s.CachedEntry(ctx, "http://EXAMPLE.com/a")
	require.NoError(t, err)
	assert.Contains(t, e.Content, "ok:http://example.com/a")

	require.NoError(t, s.Evict(ctx, "example.com/a"))
	_, err = s.CachedEntry(ctx, "example.com/a")
	assert.ErrorIs(t, err, cache.ErrNotFound)
}

func TestCachedEntry_Disabled(t *testing.T) {
	s := scraper.New(&testutil.DummyWebClient{}, nil, scraper.DefaultConfig(), logging.NopLogger{})
	_, err := s.CachedEntry(context.Background(), "example.com")
	assert.ErrorIs(t, err, scraper.ErrCacheDisabled)
	assert.ErrorIs(t, s.Evict(context.Background(), "example.com"), scraper.ErrCacheDisabled)
}
