// Package extract turns fetched HTML (or plain text) into the readable text
// returned as scraped content.
package extract

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"
)

const DefaultMaxContentChars = 25000

var (
	// ErrNoContent is returned when nothing readable is left after cleaning.
	ErrNoContent = errors.New("no readable content")
	// ErrUnsupportedContentType is returned for binary media types.
	ErrUnsupportedContentType = errors.New("unsupported content type")
)

// noiseSelectors are removed before text is taken.
const noiseSelectors = "script, style, noscript, template"

type Document struct {
	Title     string
	Text      string
	Truncated bool
}

type Extractor struct {
	maxChars int
}

// New returns an Extractor that keeps at most maxChars runes of text.
// maxChars <= 0 selects DefaultMaxContentChars.
func New(maxChars int) *Extractor {
	if maxChars <= 0 {
		maxChars = DefaultMaxContentChars
	}
	return &Extractor{maxChars: maxChars}
}

// Extract decodes body to UTF-8 and returns its cleaned text.
func (e *Extractor) Extract(body []byte, contentType string) (*Document, error) {
	kind := classify(contentType)
	if kind == kindUnsupported {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedContentType, contentType)
	}

	r, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		// unknown charset label, read as-is
		r = bytes.NewReader(body)
	}

	var doc Document
	var raw string
	if kind == kindText {
		b, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("read text: %w", err)
		}
		raw = string(b)
	} else {
		gq, err := goquery.NewDocumentFromReader(r)
		if err != nil {
			return nil, fmt.Errorf("parse html: %w", err)
		}
		gq.Find(noiseSelectors).Remove()
		doc.Title = strings.Join(strings.Fields(gq.Find("title").First().Text()), " ")
		raw = gq.Text()
	}

	text := CleanText(raw)
	if text == "" {
		return nil, ErrNoContent
	}
	doc.Text, doc.Truncated = TruncateRunes(text, e.maxChars)
	return &doc, nil
}

// CleanText trims every line, splits lines into phrases on double spaces,
// drops empty phrases and joins the rest with newlines.
func CleanText(s string) string {
	var out []string
	for _, line := range strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		for _, phrase := range strings.Split(line, "  ") {
			if phrase = strings.TrimSpace(phrase); phrase != "" {
				out = append(out, phrase)
			}
		}
	}
	return strings.Join(out, "\n")
}

// TruncateRunes cuts s to at most n runes, never splitting a rune.
func TruncateRunes(s string, n int) (string, bool) {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s, false
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos], true
		}
		i++
	}
	return s, false
}

type contentKind int

const (
	kindHTML contentKind = iota
	kindText
	kindUnsupported
)

func classify(contentType string) contentKind {
	if strings.TrimSpace(contentType) == "" {
		return kindHTML
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return kindHTML
	}
	switch {
	case mt == "text/html", mt == "application/xhtml+xml":
		return kindHTML
	case strings.HasPrefix(mt, "text/"),
		mt == "application/json",
		mt == "application/xml",
		strings.HasSuffix(mt, "+json"),
		strings.HasSuffix(mt, "+xml"):
		return kindText
	default:
		return kindUnsupported
	}
}
