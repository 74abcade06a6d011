package utils

import (
	"errors"
	"net"
	"net/url"
	"path"
	"sort"
	"strings"

	"golang.org/x/net/idna"
)

// Errors returned by NormalizeInputURL and Canonicalize. They are wrapped in a
// *url.Error, so match them with errors.Is.
var (
	ErrEmptyURL          = errors.New("empty url")
	ErrMissingHost       = errors.New("missing host")
	ErrUnsupportedScheme = errors.New("unsupported scheme")
)

// NormalizeInputURL turns user input into an absolute http(s) URL suitable for
// fetching. Input without a scheme gets defaultScheme ("http" when empty).
//
// Examples:
//
//	"example.com"                 → "http://example.com"
//	"  HTTPS://Example.COM:443/a " → "https://example.com/a"
//	"http://user:pw@host/x#frag"  → "http://host/x"
//	"ftp://example.com"           → ErrUnsupportedScheme
func NormalizeInputURL(raw, defaultScheme string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", &url.Error{Op: "normalize", URL: raw, Err: ErrEmptyURL}
	}
	if defaultScheme == "" {
		defaultScheme = "http"
	}

	lower := strings.ToLower(raw)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		if strings.Contains(raw, "://") {
			return "", &url.Error{Op: "normalize", URL: raw, Err: ErrUnsupportedScheme}
		}
		raw = defaultScheme + "://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	u.Scheme = strings.ToLower(u.Scheme)
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", &url.Error{Op: "normalize", URL: raw, Err: ErrUnsupportedScheme}
	}
	if u.Hostname() == "" {
		return "", &url.Error{Op: "normalize", URL: raw, Err: ErrMissingHost}
	}

	u.Host = normalizeHost(u)
	u.User = nil
	u.Fragment = ""
	u.RawFragment = ""

	return u.String(), nil
}

// normalizeHost lowercases the host, converts IDN to punycode and drops the
// port when it is the scheme default.
func normalizeHost(u *url.URL) string {
	host := strings.ToLower(u.Hostname())
	if puny, err := idna.Lookup.ToASCII(host); err == nil {
		host = puny
	}

	port := u.Port()
	if (u.Scheme == "http" && port == "80") || (u.Scheme == "https" && port == "443") || port == "" {
		if strings.Contains(host, ":") {
			// IPv6 literal
			return "[" + host + "]"
		}
		return host
	}
	return net.JoinHostPort(host, port)
}

// CanonicalizeOptions controls optional canonicalization policies.
type CanonicalizeOptions struct {
	DropTrackingParams     bool     `mapstructure:"drop_tracking_params"`     // remove common tracking params (utm_*, gclid, fbclid, ...)
	StripTrailingSlash     bool     `mapstructure:"strip_trailing_slash"`     // treat /a and /a/ the same by removing trailing slash (except for root "/")
	DefaultScheme          string   `mapstructure:"default_scheme"`           // if empty, require scheme in input; otherwise assume this scheme for schemeless URLs
	TrackingParamAllowlist []string `mapstructure:"tracking_param_allowlist"` // optional allowlist for query params (if non-empty, only these survive)
}

// Common tracking params to strip when DropTrackingParams is true.
var defaultTrackingParams = map[string]struct{}{
	"utm_source": {}, "utm_medium": {}, "utm_campaign": {}, "utm_term": {}, "utm_content": {},
	"gclid": {}, "fbclid": {}, "mc_cid": {}, "mc_eid": {},
}

// Canonicalize returns a deterministic canonical URL string or an error.
// It uses net/url plus path.Clean and sorts query params for determinism.
// The result is used as the cache key, so two spellings of the same page
// must map to the same string.
func Canonicalize(raw string, opts CanonicalizeOptions) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", &url.Error{Op: "canonicalize", URL: raw, Err: ErrEmptyURL}
	}

	if opts.DefaultScheme != "" && !strings.Contains(raw, "://") {
		raw = opts.DefaultScheme + "://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.Host == "" {
		return "", &url.Error{Op: "canonicalize", URL: raw, Err: ErrMissingHost}
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = normalizeHost(u)
	u.User = nil

	cleanPath := path.Clean(u.Path)
	if cleanPath == "." {
		cleanPath = "/"
	}
	if opts.StripTrailingSlash && len(cleanPath) > 1 {
		cleanPath = strings.TrimRight(cleanPath, "/")
		if cleanPath == "" {
			cleanPath = "/"
		}
	}
	u.Path = cleanPath
	u.RawPath = ""
	u.Fragment = ""
	u.RawFragment = ""

	q := u.Query()
	if opts.DropTrackingParams {
		for k := range q {
			if isAllowedByAllowlist(k, opts.TrackingParamAllowlist) {
				continue
			}
			if _, ok := defaultTrackingParams[strings.ToLower(k)]; ok {
				q.Del(k)
			}
		}
	}
	if len(opts.TrackingParamAllowlist) > 0 {
		allow := map[string]struct{}{}
		for _, k := range opts.TrackingParamAllowlist {
			allow[k] = struct{}{}
		}
		for k := range q {
			if _, ok := allow[k]; !ok {
				q.Del(k)
			}
		}
	}

	keys := make([]string, 0, len(q))
	for k := range q {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	ordered := url.Values{}
	for _, k := range keys {
		values := q[k]
		sort.Strings(values)
		for _, v := range values {
			ordered.Add(k, v)
		}
	}
	u.RawQuery = ordered.Encode()

	return u.String(), nil
}

func isAllowedByAllowlist(key string, allowlist []string) bool {
	for _, a := range allowlist {
		if key == a {
			return true
		}
	}
	return false
}

// FileSafeName turns a URL into a flat name usable as a file or key suffix,
// e.g. "https://example.com/a/b" → "example.com_a_b".
func FileSafeName(rawURL string) string {
	s := rawURL
	if i := strings.Index(s, "//"); i >= 0 {
		s = s[i+2:]
	}
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '.', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return strings.Trim(b.String(), "_")
}
