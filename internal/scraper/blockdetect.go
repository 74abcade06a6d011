package scraper

import (
	"net/http"
	"strings"
)

// BlockType describes the kind of block detected.
type BlockType string

const (
	BlockNone       BlockType = ""
	BlockCloudflare BlockType = "cloudflare"
	BlockCaptcha    BlockType = "captcha"
	BlockJSShell    BlockType = "js_shell"
)

// smallPageMaxBytes is the size below which body markers count on a normal
// status.
const smallPageMaxBytes = 2000

var (
	cloudflareMarkers = []string{
		"checking your browser",
		"cf-browser-verification",
		"cf-challenge",
		"/cdn-cgi/challenge-platform/",
	}
	// captchaWidgets are the class names challenge widgets render into.
	captchaWidgets = []string{`class="g-recaptcha`, `class="h-captcha`, `class="cf-turnstile`}
	captchaPhrases = []string{
		"complete the captcha",
		"solve the captcha",
		"verify you are human",
		"verify you are a human",
		"are you a robot",
		"not a robot",
	}
)

func blockStatus(status int) bool {
	return status == http.StatusForbidden || status == http.StatusTooManyRequests || status == http.StatusServiceUnavailable
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}

// DetectBlock checks a response for signs of anti-bot protection. Body
// markers only count on a block status or a near-empty page.
func DetectBlock(status int, headers http.Header, body []byte) (bool, BlockType) {
	if headers == nil {
		headers = http.Header{}
	}

	// Cloudflare: 403/503 with cf-* headers.
	if status == http.StatusForbidden || status == http.StatusServiceUnavailable {
		if headers.Get("cf-ray") != "" || headers.Get("cf-cache-status") != "" {
			return true, BlockCloudflare
		}
		if strings.EqualFold(headers.Get("server"), "cloudflare") {
			return true, BlockCloudflare
		}
	}

	blocked := blockStatus(status)
	small := len(body) < smallPageMaxBytes
	if !blocked && !small {
		return false, BlockNone
	}

	lower := strings.ToLower(string(body))

	if containsAny(lower, cloudflareMarkers) {
		return true, BlockCloudflare
	}

	if containsAny(lower, captchaWidgets) || containsAny(lower, captchaPhrases) {
		return true, BlockCaptcha
	}
	if blocked && strings.Contains(lower, "captcha") {
		return true, BlockCaptcha
	}

	// JS-only shell: very small body with noscript or meta refresh.
	if small {
		if strings.Contains(lower, "<noscript") && strings.Contains(lower, "javascript") {
			return true, BlockJSShell
		}
		if strings.Contains(lower, `meta http-equiv="refresh"`) {
			return true, BlockJSShell
		}
	}

	return false, BlockNone
}
