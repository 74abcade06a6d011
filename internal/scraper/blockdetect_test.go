package scraper

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDetectBlock(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		headers http.Header
		body    string
		want    BlockType
	}{
		{"cloudflare 403 cf-ray", 403, http.Header{"Cf-Ray": {"abc123"}}, "", BlockCloudflare},
		{"cloudflare 503 server", 503, http.Header{"Server": {"cloudflare"}}, "", BlockCloudflare},
		{"challenge marker", 200, nil, "<p>Checking your browser before accessing</p>", BlockCloudflare},
		{"captcha phrase", 200, nil, "<p>Please complete the captcha to continue</p>", BlockCaptcha},
		{"captcha widget", 200, nil, `<form><div class="g-recaptcha" data-sitekey="k"></div></form>`, BlockCaptcha},
		{"captcha word on 429", 429, nil, "<p>captcha required</p>", BlockCaptcha},
		{"small page about captchas", 200, nil, "<p>a page about captcha research</p>", BlockNone},
		{"article loading recaptcha", 200, nil, `<script src="https://www.google.com/recaptcha/api.js"></script>` + strings.Repeat("<p>article text</p>", 200), BlockNone},
		{"article with cloudflare asset", 200, nil, `<script src="https://cdnjs.cloudflare.com/x.js"></script><h1>The challenge</h1>` + strings.Repeat("<p>article text</p>", 200), BlockNone},
		{"large page quoting a challenge marker", 200, nil, "<p>checking your browser</p>" + strings.Repeat("text ", 500), BlockNone},
		{"challenge marker on 503", 503, http.Header{}, "<p>Checking your browser</p>" + strings.Repeat("text ", 500), BlockCloudflare},
		{"js shell", 200, nil, "<html><noscript>Enable JavaScript to continue</noscript></html>", BlockJSShell},
		{"meta refresh", 200, nil, `<meta http-equiv="refresh" content="0;url=/x">`, BlockJSShell},
		{"large noscript page is fine", 200, nil, "<noscript>javascript</noscript>" + strings.Repeat("text ", 500), BlockNone},
		{"clean page", 200, http.Header{}, "<p>Welcome to Acme Corp. We build great products.</p>", BlockNone},
		{"plain 403", 403, http.Header{}, "forbidden", BlockNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			blocked, bt := DetectBlock(tt.status, tt.headers, []byte(tt.body))
			assert.Equal(t, tt.want != BlockNone, blocked)
			assert.Equal(t, tt.want, bt)
		})
	}
}

func TestCompareContent(t *testing.T) {
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	same := CompareContent("héllo", "héllo", at)
	assert.False(t, same.Changed)
	assert.Equal(t, 5, same.Equal)
	assert.Equal(t, at, same.PreviousFetchedAt)

	diff := CompareContent("the cat sat", "the dog sat", at)
	assert.True(t, diff.Changed)
	assert.Equal(t, 3, diff.Inserted)
	assert.Equal(t, 3, diff.Deleted)
	assert.Equal(t, 8, diff.Equal)
}
