package demoserver_test

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raysh454/webscrape/internal/cache"
	"github.com/raysh454/webscrape/internal/demoserver"
	"github.com/raysh454/webscrape/internal/logging"
	"github.com/raysh454/webscrape/internal/scraper"
	"github.com/raysh454/webscrape/internal/webclient"
)

func newDemo(t *testing.T) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(demoserver.NewDemoServer(demoserver.DefaultConfig(), logging.NopLogger{}).Handler())
	t.Cleanup(ts.Close)
	return ts
}

// rawClient neither follows redirects nor decompresses bodies.
var rawClient = &http.Client{
	Transport: &http.Transport{DisableCompression: true},
	CheckRedirect: func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	},
}

func get(t *testing.T, target string, header http.Header) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, target, nil)
	require.NoError(t, err)
	for k, v := range header {
		req.Header[k] = v
	}
	resp, err := rawClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, body
}

func post(t *testing.T, target string, form url.Values) *http.Response {
	t.Helper()
	resp, err := http.PostForm(target, form)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func versions(t *testing.T, base string) map[string]demoserver.PageInfo {
	t.Helper()
	resp, body := get(t, base+"/demo/get-versions", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var pages []demoserver.PageInfo
	require.NoError(t, json.Unmarshal(body, &pages))
	out := make(map[string]demoserver.PageInfo, len(pages))
	for i, p := range pages {
		if i > 0 {
			assert.Less(t, pages[i-1].Path, p.Path, "pages sorted by path")
		}
		out[p.Path] = p
	}
	return out
}

func TestPages_Served(t *testing.T) {
	ts := newDemo(t)

	resp, body := get(t, ts.URL+"/", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/html; charset=utf-8", resp.Header.Get("Content-Type"))
	assert.Equal(t, "1", resp.Header.Get("X-Page-Version"))
	assert.Contains(t, string(body), "Scrape Fixtures")

	resp, _ = get(t, ts.URL+"/missing", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = get(t, ts.URL+"/redirect", nil)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/article", resp.Header.Get("Location"))

	resp, _ = get(t, ts.URL+"/browser-check", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "cloudflare", resp.Header.Get("Server"))

	resp, body = get(t, ts.URL+"/latin1", nil)
	assert.Equal(t, "text/html; charset=iso-8859-1", resp.Header.Get("Content-Type"))
	assert.Contains(t, string(body), "Caf\xe9")

	resp, _ = get(t, ts.URL+"/static/comments.js", nil)
	assert.Equal(t, "application/javascript", resp.Header.Get("Content-Type"))
}

func TestPages_Gzip(t *testing.T) {
	ts := newDemo(t)

	resp, body := get(t, ts.URL+"/gzip", http.Header{"Accept-Encoding": {"gzip"}})
	require.Equal(t, "gzip", resp.Header.Get("Content-Encoding"))
	gz, err := gzip.NewReader(strings.NewReader(string(body)))
	require.NoError(t, err)
	plain, err := io.ReadAll(gz)
	require.NoError(t, err)
	assert.Contains(t, string(plain), "This page travelled compressed.")

	resp, body = get(t, ts.URL+"/gzip", nil)
	assert.Empty(t, resp.Header.Get("Content-Encoding"))
	assert.Contains(t, string(body), "This page travelled compressed.")
}

func TestVersions_SetBumpReset(t *testing.T) {
	ts := newDemo(t)

	v := versions(t, ts.URL)
	require.Contains(t, v, "/article")
	assert.Equal(t, 1, v["/article"].CurrentVersion)
	assert.Equal(t, []int{1, 2, 3}, v["/article"].AvailableVersions)

	resp := post(t, ts.URL+"/demo/set-version", url.Values{"path": {"/article"}, "version": {"3"}})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	_, body := get(t, ts.URL+"/article", nil)
	assert.Contains(t, string(body), "summer level")

	resp = post(t, ts.URL+"/demo/set-version", url.Values{"path": {"/nope"}, "version": {"2"}})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp = post(t, ts.URL+"/demo/set-version", url.Values{"path": {"/article"}, "version": {"zero"}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Bumping is capped at the newest version.
	post(t, ts.URL+"/demo/bump-all", nil)
	v = versions(t, ts.URL)
	assert.Equal(t, 3, v["/article"].CurrentVersion)
	assert.Equal(t, 1, v["/"].CurrentVersion)

	post(t, ts.URL+"/demo/reset", nil)
	v = versions(t, ts.URL)
	assert.Equal(t, 1, v["/article"].CurrentVersion)
}

func TestControlPanel(t *testing.T) {
	ts := newDemo(t)
	resp, body := get(t, ts.URL+"/demo/control", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "/article")
	assert.Contains(t, string(body), "setVersion")
}

func TestListenAndServe_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	srv := demoserver.NewDemoServer(demoserver.Config{Port: 0}, logging.NopLogger{})

	done := make(chan error, 1)
	go func() { done <- srv.ListenAndServe(ctx) }()
	cancel()
	assert.NoError(t, <-done)
}

func TestScraper_AgainstFixtures(t *testing.T) {
	ts := newDemo(t)

	wc, err := webclient.NewNetHTTPClient(webclient.Config{RetryMax: 0}, logging.NopLogger{}, nil)
	require.NoError(t, err)
	defer wc.Close()

	store := cache.NewMemoryStore(0)
	cfg := scraper.DefaultConfig()
	s := scraper.New(wc, store, cfg, logging.NopLogger{})
	ctx := context.Background()

	res, err := s.Scrape(ctx, ts.URL+"/article")
	require.NoError(t, err)
	assert.Equal(t, "Field Notes", res.Title)
	assert.Contains(t, res.Content, "forty herons")
	assert.NotContains(t, res.Content, "analytics")
	assert.NotContains(t, res.Content, "font-family")

	res, err = s.Scrape(ctx, ts.URL+"/gzip")
	require.NoError(t, err)
	assert.Contains(t, res.Content, "This page travelled compressed.")

	res, err = s.Scrape(ctx, ts.URL+"/latin1")
	require.NoError(t, err)
	assert.Contains(t, res.Content, "Café crème")

	res, err = s.Scrape(ctx, ts.URL+"/redirect")
	require.NoError(t, err)
	assert.Equal(t, ts.URL+"/article", res.FinalURL)

	res, err = s.Scrape(ctx, ts.URL+"/large")
	require.NoError(t, err)
	assert.True(t, res.Truncated)

	_, err = s.Scrape(ctx, ts.URL+"/verify")
	assert.ErrorIs(t, err, scraper.ErrBlocked)
	_, err = s.Scrape(ctx, ts.URL+"/browser-check")
	assert.ErrorIs(t, err, scraper.ErrBlocked)
	_, err = s.Scrape(ctx, ts.URL+"/error")
	assert.ErrorIs(t, err, scraper.ErrUpstreamStatus)
}
