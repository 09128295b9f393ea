package parse

import (
	"fmt"
	"net"
	"net/url"
	"strings"

	"parkfinder/pkg/utils"
)

// NormalizeURL standardizes a URL for use as a cache key
// It lowercases the scheme and host, removes default ports (80 for http, 443 for https), turns an empty path into "/" and drops the fragment
// The query string is kept since it selects a distinct resource
// Does not modify the input *url.URL
func NormalizeURL(u *url.URL) string {
	if u == nil {
		return ""
	}
	normalized := *u

	normalized.Scheme = strings.ToLower(normalized.Scheme)
	normalized.Host = strings.ToLower(normalized.Host)

	if host, port, err := net.SplitHostPort(normalized.Host); err == nil {
		if (normalized.Scheme == "http" && port == "80") ||
			(normalized.Scheme == "https" && port == "443") {
			normalized.Host = host
		}
	}

	if normalized.Path == "" {
		normalized.Path = "/"
	}
	normalized.Fragment = ""
	normalized.RawFragment = ""

	return normalized.String()
}

// ParseAndNormalize parses an absolute URL string and normalizes it using NormalizeURL
// Returns the normalized string, the parsed URL object, and any parse error
func ParseAndNormalize(urlStr string) (string, *url.URL, error) {
	parsed, err := url.ParseRequestURI(urlStr)
	if err != nil {
		return "", nil, fmt.Errorf("%w '%s': %w", utils.ErrParsingURL, urlStr, err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return "", nil, fmt.Errorf("%w '%s' is not absolute", utils.ErrParsingURL, urlStr)
	}
	return NormalizeURL(parsed), parsed, nil
}

// ResolveHref resolves a link found on a page against the site origin
// Root-relative paths ("/state/mi/index.htm") are joined to the origin; absolute hrefs are returned as-is
func ResolveHref(base *url.URL, href string) (string, error) {
	href = strings.TrimSpace(href)
	if href == "" {
		return "", fmt.Errorf("%w: empty href", utils.ErrParsingURL)
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", fmt.Errorf("%w href '%s': %w", utils.ErrParsingURL, href, err)
	}
	return base.ResolveReference(ref).String(), nil
}
