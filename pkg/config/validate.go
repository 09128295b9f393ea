package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"parkfinder/pkg/utils"
)

// Validate checks AppConfig fields and applies sensible defaults.
// Returns collected warnings and any fatal error.
// Modifies receiver in place to apply defaults.
func (c *AppConfig) Validate() (warnings []string, err error) {
	// BaseURL
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	parsed, parseErr := url.Parse(c.BaseURL)
	if parseErr != nil || parsed.Scheme == "" || parsed.Host == "" {
		return warnings, fmt.Errorf("%w: base_url '%s' must be an absolute http(s) URL", utils.ErrConfigValidation, c.BaseURL)
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")

	// RequestDelay
	if c.RequestDelay == nil {
		d := DefaultRequestDelay
		c.RequestDelay = &d
	} else if *c.RequestDelay < 0 {
		warnings = append(warnings, "request_delay cannot be negative, setting to 0 (no pause)")
		zero := time.Duration(0)
		c.RequestDelay = &zero
	}

	// StateDir
	if c.StateDir == "" {
		warnings = append(warnings, "state_dir is empty, defaulting to './parkfinder_state'")
		c.StateDir = "./parkfinder_state"
	}

	// CacheBackend
	switch c.CacheBackend {
	case "":
		c.CacheBackend = CacheBackendJSON
	case CacheBackendJSON, CacheBackendBadger:
	default:
		return warnings, fmt.Errorf("%w: unknown cache_backend '%s' (supported: %s, %s)",
			utils.ErrConfigValidation, c.CacheBackend, CacheBackendJSON, CacheBackendBadger)
	}
	if c.CacheBackend == CacheBackendJSON && c.CacheFile == "" {
		c.CacheFile = DefaultCacheFile
	}
	if c.CacheBackend == CacheBackendBadger && c.CacheFile != "" {
		warnings = append(warnings, "cache_file is ignored by the badger backend")
	}

	c.validateHTTPClientSettings(&warnings)
	c.validateProximity(&warnings)

	return warnings, nil
}

// validateHTTPClientSettings applies defaults to HTTP client settings.
func (c *AppConfig) validateHTTPClientSettings(warnings *[]string) {
	h := &c.HTTPClientSettings
	if h.Timeout < 0 {
		*warnings = append(*warnings, "http_client_settings.timeout cannot be negative, disabling timeout")
		h.Timeout = 0
	}
	if h.MaxIdleConns <= 0 {
		h.MaxIdleConns = 100
	}
	if h.MaxIdleConnsPerHost <= 0 {
		h.MaxIdleConnsPerHost = 2
	}
	if h.IdleConnTimeout <= 0 {
		h.IdleConnTimeout = 90 * time.Second
	}
	if h.TLSHandshakeTimeout <= 0 {
		h.TLSHandshakeTimeout = 10 * time.Second
	}
	if h.ExpectContinueTimeout <= 0 {
		h.ExpectContinueTimeout = 1 * time.Second
	}
	if h.DialerTimeout <= 0 {
		h.DialerTimeout = 15 * time.Second
	}
	if h.DialerKeepAlive <= 0 {
		h.DialerKeepAlive = 30 * time.Second
	}
}

// validateProximity applies the fixed search parameters of the radius query.
func (c *AppConfig) validateProximity(warnings *[]string) {
	p := &c.Proximity
	if p.Endpoint == "" {
		p.Endpoint = DefaultProximityEndpoint
	}
	if p.Radius <= 0 {
		p.Radius = 10
	}
	if p.MaxMatches <= 0 {
		p.MaxMatches = 10
	}
	if p.Ambiguities == "" {
		p.Ambiguities = "ignore"
	}
	if p.OutFormat == "" {
		p.OutFormat = "json"
	} else if p.OutFormat != "json" {
		*warnings = append(*warnings, fmt.Sprintf("proximity.out_format '%s' is not supported, using 'json'", p.OutFormat))
		p.OutFormat = "json"
	}
	if p.Key == "" {
		*warnings = append(*warnings, fmt.Sprintf(
			"proximity.key is empty; nearby lookups will fail unless %s is set", EnvAPIKey))
	}
}
