package server_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/raysh454/webscrape/internal/app"
	"github.com/raysh454/webscrape/internal/cache"
	"github.com/raysh454/webscrape/internal/server"
	"github.com/raysh454/webscrape/internal/testutil"
	"github.com/raysh454/webscrape/internal/webclient"
)

type testEnv struct {
	srv *server.Server
	wc  *testutil.DummyWebClient
	app *app.Application
}

func newTestEnv(t *testing.T, mutate func(*app.Config)) *testEnv {
	t.Helper()

	logger := &testutil.DummyLogger{}
	cfg := app.DefaultConfig()
	cfg.Cache.Driver = cache.DriverMemory
	cfg.Cache.PurgeInterval = 0
	if mutate != nil {
		mutate(cfg)
	}

	wc := &testutil.DummyWebClient{Pages: map[string]*webclient.Response{
		"http://site.test/captcha": {
			StatusCode: http.StatusOK,
			Headers:    http.Header{"Content-Type": {"text/html"}},
			Body:       []byte("<html><body>Please solve the CAPTCHA</body></html>"),
		},
		"http://site.test/article": {
			StatusCode: http.StatusOK,
			Headers:    http.Header{"Content-Type": {"text/html"}},
			Body: []byte(`<html><head><title>Article</title><script>var tracker = 1;</script></head>
<body><h1>Headline</h1>
<p>Readable paragraph.</p></body></html>`),
		},
	}}

	a, err := app.New(cfg, logger, app.WithWebClient(wc))
	if err != nil {
		t.Fatalf("app.New: %v", err)
	}
	t.Cleanup(func() { a.Shutdown(context.Background()) })

	s, err := server.NewServer(server.Config{ListenAddr: ":0", AppConfig: cfg, Logger: logger, App: a})
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	t.Cleanup(s.Close)
	return &testEnv{srv: s, wc: wc, app: a}
}

func newTestServer(t *testing.T) *server.Server {
	t.Helper()
	return newTestEnv(t, nil).srv
}

func doJSON(t *testing.T, s http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("decode JSON response: %v (body: %s)", err, rec.Body.String())
	}
}

func waitForJob(t *testing.T, s *server.Server, jobID string) *app.Job {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		job := s.Orchestrator().GetJob(jobID)
		if job != nil && !job.EndedAt.IsZero() {
			return job
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("job %s did not finish", jobID)
	return nil
}

// ─── CORS ──────────────────────────────────────────────────────────────

func TestServer_CORS_HeaderPresent(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://ui.test")
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	if origin := rec.Header().Get("Access-Control-Allow-Origin"); origin != "*" {
		t.Errorf("expected CORS origin *, got %q", origin)
	}
}

func TestServer_CORS_Preflight(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/search", nil)
	req.Header.Set("Origin", "http://ui.test")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Content-Type")
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Methods"); !strings.Contains(got, http.MethodPost) {
		t.Errorf("allow methods = %q", got)
	}
	if got := rec.Header().Get("Access-Control-Max-Age"); got != "86400" {
		t.Errorf("max age = %q", got)
	}
}

// ─── /search ───────────────────────────────────────────────────────────

func TestServer_Search_RejectsMalformedInput(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	cases := map[string]string{
		"missing inputURL": `{"url":"http://site.test/a"}`,
		"non-string":       `{"inputURL":42}`,
		"null":             `{"inputURL":null}`,
		"empty":            `{"inputURL":""}`,
		"blank":            `{"inputURL":"   "}`,
		"not an object":    `["http://site.test/a"]`,
		"invalid JSON":     `{invalid}`,
		"empty body":       ``,
		"unsupported":      `{"inputURL":"ftp://site.test/a"}`,
		"trailing garbage": `{"inputURL":"http://site.test/article"} garbage`,
		"two objects":      `{"inputURL":"http://site.test/article"}{"inputURL":"http://site.test/article"}`,
		"extra brace":      `{"inputURL":"http://site.test/article"}}`,
	}
	cases["oversized body"] = `{"inputURL":"http://site.test/article","pad":"` + strings.Repeat("x", 1<<20) + `"}`
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			rec := doJSON(t, s, http.MethodPost, "/search", body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
			}
			var e server.ErrorResponse
			decodeJSON(t, rec, &e)
			if e.Error == "" {
				t.Error("expected an error message")
			}
		})
	}
}

func TestServer_Search_ReturnsScrapedContent(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil)

	rec := doJSON(t, env.srv, http.MethodPost, "/search", `{"inputURL":"http://site.test/article","extra":true}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type = %q", ct)
	}

	var body map[string]any
	decodeJSON(t, rec, &body)
	if len(body) != 1 {
		t.Fatalf("expected only scraped_content, got %v", body)
	}
	content, ok := body["scraped_content"].(string)
	if !ok {
		t.Fatalf("scraped_content is not a string: %v", body)
	}
	if !strings.Contains(content, "Readable paragraph.") {
		t.Errorf("content = %q", content)
	}
	if strings.Contains(content, "tracker") {
		t.Errorf("script text leaked into content: %q", content)
	}
}

func TestServer_Search_SchemelessUsesHTTP(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil)

	rec := doJSON(t, env.srv, http.MethodPost, "/search", `{"inputURL":"site.test/article"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := env.wc.Requests[0].URL; got != "http://site.test/article" {
		t.Errorf("fetched %q", got)
	}
}

func TestServer_Search_FailuresAre400(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil)
	env.wc.FailURLs = map[string]bool{"http://down.test/a": true}

	for _, u := range []string{"http://down.test/a", "http://site.test/captcha"} {
		rec := doJSON(t, env.srv, http.MethodPost, "/search", `{"inputURL":"`+u+`"}`)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", u, rec.Code)
		}
	}
}

func TestServer_Search_SecondCallServedFromCache(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil)

	for i := 0; i < 2; i++ {
		rec := doJSON(t, env.srv, http.MethodPost, "/search", `{"inputURL":"http://site.test/article"}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("call %d: expected 200, got %d", i, rec.Code)
		}
	}
	if n := env.wc.RequestCount(); n != 1 {
		t.Errorf("expected one upstream fetch, got %d", n)
	}
}

// ─── Meta ──────────────────────────────────────────────────────────────

func TestServer_Health(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var h server.HealthResponse
	decodeJSON(t, rec, &h)
	if h.Status != "ok" {
		t.Errorf("status = %q", h.Status)
	}
}

func TestServer_OpenAPIDocuments(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodGet, "/openapi.json", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var doc map[string]any
	decodeJSON(t, rec, &doc)
	if _, ok := doc["paths"].(map[string]any)["/search"]; !ok {
		t.Error("openapi.json is missing /search")
	}

	rec = doJSON(t, s, http.MethodGet, "/openapi.yaml", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "scrapeContent") {
		t.Errorf("unexpected openapi.yaml response: %d", rec.Code)
	}
}

// ─── Jobs ──────────────────────────────────────────────────────────────

func TestServer_ScrapeJob_Lifecycle(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil)
	env.wc.FailURLs = map[string]bool{"http://down.test/a": true}

	rec := doJSON(t, env.srv, http.MethodPost, "/jobs/scrape", `{"urls":["http://site.test/article","http://down.test/a"],"concurrency":2}`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
	var started app.Job
	decodeJSON(t, rec, &started)
	if started.ID == "" || started.Total != 2 {
		t.Fatalf("unexpected job: %+v", started)
	}

	done := waitForJob(t, env.srv, started.ID)
	if done.Status != app.JobDone {
		t.Fatalf("expected done, got %s", done.Status)
	}

	rec = doJSON(t, env.srv, http.MethodGet, "/jobs/"+started.ID, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var got app.Job
	decodeJSON(t, rec, &got)
	if got.Succeeded != 1 || got.Results[1].Error == "" {
		t.Errorf("unexpected results: %+v", got.Results)
	}

	rec = doJSON(t, env.srv, http.MethodGet, "/jobs", "")
	var jobs []app.Job
	decodeJSON(t, rec, &jobs)
	if len(jobs) != 1 {
		t.Errorf("expected 1 job, got %d", len(jobs))
	}
}

func TestServer_ScrapeJob_BadRequests(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	for _, body := range []string{`{invalid}`, `{"urls":[]}`} {
		rec := doJSON(t, s, http.MethodPost, "/jobs/scrape", body)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", body, rec.Code)
		}
	}
}

func TestServer_GetJob_NotFound(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodGet, "/jobs/nonexistent", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestServer_CancelJob(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil)
	env.wc.ResponseDelay = 5 * time.Second

	rec := doJSON(t, env.srv, http.MethodPost, "/jobs/scrape", `{"urls":["http://slow.test/a"]}`)
	var started app.Job
	decodeJSON(t, rec, &started)

	rec = doJSON(t, env.srv, http.MethodDelete, "/jobs/"+started.ID, "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if job := waitForJob(t, env.srv, started.ID); job.Status != app.JobCanceled {
		t.Errorf("expected canceled, got %s", job.Status)
	}
}

func TestServer_ScrapeWS_StreamsEvents(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil)
	ts := httptest.NewServer(env.srv)
	t.Cleanup(ts.Close)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/jobs/scrape?url=http://site.test/article&url=http://site.test/other"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	var job app.Job
	if err := conn.ReadJSON(&job); err != nil {
		t.Fatalf("read job: %v", err)
	}
	if job.Total != 2 {
		t.Fatalf("unexpected job: %+v", job)
	}

	var progress int
	var last app.JobEvent
	for {
		var ev app.JobEvent
		if err := conn.ReadJSON(&ev); err != nil {
			break // server closes the socket after the last event
		}
		if ev.Type == app.JobEventProgress {
			progress++
		}
		last = ev
	}
	if progress != 2 {
		t.Errorf("expected 2 progress events, got %d", progress)
	}
	if last.Status != app.JobDone {
		t.Errorf("last event = %+v", last)
	}
}

// ─── Cache ─────────────────────────────────────────────────────────────

func TestServer_Cache_GetAndEvict(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil)

	rec := doJSON(t, env.srv, http.MethodGet, "/cache?url=http://site.test/article", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 before scraping, got %d", rec.Code)
	}

	doJSON(t, env.srv, http.MethodPost, "/search", `{"inputURL":"http://site.test/article"}`)

	rec = doJSON(t, env.srv, http.MethodGet, "/cache?url=http://site.test/article", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var entry cache.Entry
	decodeJSON(t, rec, &entry)
	if entry.Title != "Article" || entry.ContentHash == "" {
		t.Errorf("unexpected entry: %+v", entry)
	}

	rec = doJSON(t, env.srv, http.MethodDelete, "/cache?url=http://site.test/article", "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	rec = doJSON(t, env.srv, http.MethodDelete, "/cache?url=http://site.test/article", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 on second evict, got %d", rec.Code)
	}
}

func TestServer_Cache_MissingURLAndDisabled(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, func(c *app.Config) { c.Cache.Enabled = false })

	rec := doJSON(t, env.srv, http.MethodGet, "/cache", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 without url, got %d", rec.Code)
	}
	rec = doJSON(t, env.srv, http.MethodGet, "/cache?url=http://site.test/a", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 with cache disabled, got %d", rec.Code)
	}
}

// ─── Agent actions ─────────────────────────────────────────────────────

func TestServer_AgentAction_Search(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	body := `{"messageVersion":"1.0","actionGroup":"web","apiPath":"/search","httpMethod":"POST",
"requestBody":{"content":{"application/json":{"properties":[{"name":"inputURL","type":"string","value":"http://site.test/article"}]}}}}`
	rec := doJSON(t, s, http.MethodPost, "/agent/actions", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Response struct {
			HTTPStatusCode int `json:"httpStatusCode"`
			ResponseBody   map[string]struct {
				Body struct {
					Results struct {
						URL     string `json:"url"`
						Content string `json:"content"`
					} `json:"results"`
				} `json:"body"`
			} `json:"responseBody"`
		} `json:"response"`
	}
	decodeJSON(t, rec, &resp)
	if resp.Response.HTTPStatusCode != http.StatusOK {
		t.Errorf("action status = %d", resp.Response.HTTPStatusCode)
	}
	got := resp.Response.ResponseBody["application/json"].Body.Results
	if got.URL != "http://site.test/article" || !strings.Contains(got.Content, "Readable paragraph.") {
		t.Errorf("unexpected results: %+v", got)
	}
}

func TestServer_AgentAction_UnknownPathAndMalformed(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/agent/actions", `{"actionGroup":"web","apiPath":"/nope","httpMethod":"GET"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp map[string]map[string]any
	decodeJSON(t, rec, &resp)
	if code := resp["response"]["httpStatusCode"]; code != float64(http.StatusNotFound) {
		t.Errorf("action status = %v", code)
	}

	rec = doJSON(t, s, http.MethodPost, "/agent/actions", `{invalid}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

// ─── Converse ──────────────────────────────────────────────────────────

func TestServer_Converse_NotConfigured(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/converse", `{"messages":[{"role":"user","content":[{"text":"hi"}]}]}`)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	var e server.ErrorResponse
	decodeJSON(t, rec, &e)
	if e.Error != "inference not configured" {
		t.Errorf("error = %q", e.Error)
	}
}

func TestServer_Converse_ProxiesToModel(t *testing.T) {
	t.Parallel()
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":          "msg_test",
			"type":        "message",
			"role":        "assistant",
			"content":     []map[string]any{{"type": "text", "text": "Hello there."}},
			"model":       "claude-haiku-4-5-20251001",
			"stop_reason": "end_turn",
			"usage":       map[string]any{"input_tokens": 3, "output_tokens": 2},
		})
	}))
	t.Cleanup(upstream.Close)

	env := newTestEnv(t, func(c *app.Config) {
		c.LLM.APIKey = "test-key"
		c.LLM.BaseURL = upstream.URL
		c.LLM.MaxRetries = 0
	})

	rec := doJSON(t, env.srv, http.MethodPost, "/converse", `{"messages":[{"role":"user","content":[{"text":"hi"}]}],"inferenceConfig":{"temperature":0.5}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Output struct {
			Message struct {
				Content []struct {
					Text string `json:"text"`
				} `json:"content"`
			} `json:"message"`
		} `json:"output"`
		Usage struct {
			TotalTokens int `json:"totalTokens"`
		} `json:"usage"`
	}
	decodeJSON(t, rec, &resp)
	if len(resp.Output.Message.Content) != 1 || resp.Output.Message.Content[0].Text != "Hello there." {
		t.Errorf("unexpected output: %+v", resp.Output)
	}
	if resp.Usage.TotalTokens != 5 {
		t.Errorf("total tokens = %d", resp.Usage.TotalTokens)
	}

	rec = doJSON(t, env.srv, http.MethodPost, "/converse", `{"messages":[]}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for empty messages, got %d", rec.Code)
	}
}
