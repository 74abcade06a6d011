package utils

import (
	"errors"
	"testing"
)

func TestCanonicalize(t *testing.T) {
	tests := []struct {
		in   string
		opts CanonicalizeOptions
		want string
	}{
		{
			in:   "HTTP://Example.COM:80/foo/../bar/?b=2&a=1#frag",
			opts: CanonicalizeOptions{DefaultScheme: "", StripTrailingSlash: false},
			want: "http://example.com/bar?a=1&b=2",
		},
		{
			in:   "https://example.com:443/index.html#section",
			opts: CanonicalizeOptions{},
			want: "https://example.com/index.html",
		},
		{
			in:   "example.com/page?utm_source=x&utm_medium=y&z=1",
			opts: CanonicalizeOptions{DefaultScheme: "https", DropTrackingParams: true},
			want: "https://example.com/page?z=1",
		},
		{
			in:   "https://例え.テスト/a",
			opts: CanonicalizeOptions{},
			// punycode-encoded host
			want: "https://xn--r8jz45g.xn--zckzah/a",
		},
		{
			in:   "https://example.com/foo/",
			opts: CanonicalizeOptions{StripTrailingSlash: true},
			want: "https://example.com/foo",
		},
		{
			in:   "http://example.com:8080",
			opts: CanonicalizeOptions{},
			want: "http://example.com:8080/",
		},
	}

	for _, tt := range tests {
		got, err := Canonicalize(tt.in, tt.opts)
		if err != nil {
			t.Fatalf("canonicalize(%q) error: %v", tt.in, err)
		}
		if got != tt.want {
			t.Fatalf("canonicalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCanonicalize_EmptyURL_Error(t *testing.T) {
	_, err := Canonicalize("   ", CanonicalizeOptions{})
	if !errors.Is(err, ErrEmptyURL) {
		t.Fatalf("expected ErrEmptyURL, got %v", err)
	}
}

func TestCanonicalize_MissingHost_Error(t *testing.T) {
	_, err := Canonicalize("/just/a/path", CanonicalizeOptions{})
	if !errors.Is(err, ErrMissingHost) {
		t.Fatalf("expected ErrMissingHost, got %v", err)
	}
}

func TestCanonicalize_AllowlistKeepsOnlyListedParams(t *testing.T) {
	got, err := Canonicalize("https://example.com/?id=7&utm_source=x&page=2", CanonicalizeOptions{
		DropTrackingParams:     true,
		TrackingParamAllowlist: []string{"id"},
	})
	if err != nil {
		t.Fatalf("canonicalize: %v", err)
	}
	if got != "https://example.com/?id=7" {
		t.Fatalf("got %q", got)
	}
}

func TestCanonicalize_SpellingsConverge(t *testing.T) {
	opts := CanonicalizeOptions{DefaultScheme: "http", StripTrailingSlash: true}
	a, _ := Canonicalize("HTTP://Example.com:80/docs/?b=1&a=2", opts)
	b, _ := Canonicalize("http://example.com/docs?a=2&b=1#top", opts)
	if a != b {
		t.Fatalf("expected same canonical form, got %q and %q", a, b)
	}
}
