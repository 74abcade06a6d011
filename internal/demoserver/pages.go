package demoserver

import (
	"fmt"
	"net/http"
	"strings"
)

// PageVersion is one version of a fixture page.
type PageVersion struct {
	Body        string
	ContentType string
	// Status defaults to 200.
	Status  int
	Headers map[string]string
	// Gzip compresses the body when the client accepts gzip.
	Gzip bool
}

// PageDefinition holds all versions of a single page.
type PageDefinition struct {
	Path        string
	Description string
	Versions    map[int]PageVersion
}

// GetAllPages returns all fixture page definitions.
func GetAllPages() []PageDefinition {
	return []PageDefinition{
		getIndexPage(),
		getArticlePage(),
		getGzipPage(),
		getRedirectPage(),
		getCaptchaPage(),
		getCloudflarePage(),
		getPlainTextPage(),
		getLargePage(),
		getLatin1Page(),
		getErrorPage(),
	}
}

func getIndexPage() PageDefinition {
	return PageDefinition{
		Path:        "/",
		Description: "Index linking every fixture",
		Versions: map[int]PageVersion{
			1: {
				Body: `<!DOCTYPE html>
<html>
<head><title>Scrape Fixtures</title></head>
<body>
    <h1>Scrape Fixtures</h1>
    <ul>
        <li><a href="/article">Article with script and style noise</a></li>
        <li><a href="/gzip">Gzip-encoded page</a></li>
        <li><a href="/redirect">Redirect to the article</a></li>
        <li><a href="/verify">Human verification wall</a></li>
        <li><a href="/browser-check">Browser check (503)</a></li>
        <li><a href="/plain">Plain text</a></li>
        <li><a href="/large">Large page</a></li>
        <li><a href="/latin1">Latin-1 page</a></li>
        <li><a href="/error">Server error</a></li>
    </ul>
</body>
</html>`,
			},
		},
	}
}

func getArticlePage() PageDefinition {
	head := `<!DOCTYPE html>
<html>
<head>
    <title>Field Notes</title>
    <style>body { font-family: serif; } .ad { display: none; }</style>
    <script>window.analytics = { track: function () {} };</script>
</head>
<body>
    <noscript>Comments need scripts enabled.</noscript>
    <h1>Field Notes</h1>
`
	tail := `
    <script src="/static/comments.js"></script>
</body>
</html>`
	return PageDefinition{
		Path:        "/article",
		Description: "Article whose text changes between versions",
		Versions: map[int]PageVersion{
			1: {Body: head + `    <p>The river was high after the spring rain.</p>
    <p>We counted forty herons along the east bank.</p>` + tail},
			2: {Body: head + `    <p>The river was high after the spring rain.</p>
    <p>We counted fifty-two herons along the east bank.</p>
    <p>A kingfisher nested under the old bridge.</p>` + tail},
			3: {Body: head + `    <p>The river has dropped back to its summer level.</p>
    <p>Most herons have moved downstream.</p>` + tail},
		},
	}
}

func getGzipPage() PageDefinition {
	return PageDefinition{
		Path:        "/gzip",
		Description: "Served with Content-Encoding: gzip",
		Versions: map[int]PageVersion{
			1: {
				Body: `<html><head><title>Compressed</title></head>
<body><p>This page travelled compressed.</p></body></html>`,
				Gzip: true,
			},
		},
	}
}

func getRedirectPage() PageDefinition {
	return PageDefinition{
		Path:        "/redirect",
		Description: "302 to /article",
		Versions: map[int]PageVersion{
			1: {
				Status:  http.StatusFound,
				Headers: map[string]string{"Location": "/article"},
			},
		},
	}
}

func getCaptchaPage() PageDefinition {
	return PageDefinition{
		Path:        "/verify",
		Description: "Anti-bot captcha wall",
		Versions: map[int]PageVersion{
			1: {
				Body: `<html><head><title>Verify</title></head>
<body><form><div class="g-recaptcha"></div><p>Complete the captcha to continue.</p></form></body></html>`,
			},
		},
	}
}

func getCloudflarePage() PageDefinition {
	return PageDefinition{
		Path:        "/browser-check",
		Description: "Cloudflare browser check (503 with cf-ray)",
		Versions: map[int]PageVersion{
			1: {
				Status:  http.StatusServiceUnavailable,
				Headers: map[string]string{"Server": "cloudflare", "Cf-Ray": "8a1b2c3d4e5f-LAX"},
				Body:    `<html><body><p>Checking your browser before accessing the site.</p></body></html>`,
			},
		},
	}
}

func getPlainTextPage() PageDefinition {
	return PageDefinition{
		Path:        "/plain",
		Description: "text/plain body",
		Versions: map[int]PageVersion{
			1: {
				Body:        "Plain notes.\n\n\nThree blank lines above collapse to one.\n",
				ContentType: "text/plain; charset=utf-8",
			},
		},
	}
}

func getLargePage() PageDefinition {
	var b strings.Builder
	b.WriteString("<html><head><title>Large</title></head><body>\n")
	for i := 1; i <= 2000; i++ {
		fmt.Fprintf(&b, "<p>Paragraph %d of a long page that exceeds the content limit.</p>\n", i)
	}
	b.WriteString("</body></html>")
	return PageDefinition{
		Path:        "/large",
		Description: "Text well past the content limit",
		Versions:    map[int]PageVersion{1: {Body: b.String()}},
	}
}

func getLatin1Page() PageDefinition {
	return PageDefinition{
		Path:        "/latin1",
		Description: "ISO-8859-1 encoded page",
		Versions: map[int]PageVersion{
			1: {
				// \xe9 and \xe8 are é and è in ISO-8859-1.
				Body:        "<html><head><title>Menu</title></head><body><p>Caf\xe9 cr\xe8me</p></body></html>",
				ContentType: "text/html; charset=iso-8859-1",
			},
		},
	}
}

func getErrorPage() PageDefinition {
	return PageDefinition{
		Path:        "/error",
		Description: "Always 500",
		Versions: map[int]PageVersion{
			1: {Status: http.StatusInternalServerError, Body: "<html><body><p>Internal error</p></body></html>"},
		},
	}
}
