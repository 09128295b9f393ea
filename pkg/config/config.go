package config

import (
	"os"
	"path/filepath"
	"time"
)

const (
	DefaultBaseURL           = "https://www.nps.gov"
	DefaultProximityEndpoint = "http://www.mapquestapi.com/search/v2/radius"
	DefaultRequestDelay      = 1 * time.Second
	DefaultCacheFile         = "nps_cache.json"

	CacheBackendJSON   = "json"
	CacheBackendBadger = "badger"

	// Environment variables holding the proximity credential pair
	EnvAPIKey    = "PARKFINDER_API_KEY"
	EnvAPISecret = "PARKFINDER_API_SECRET"
)

// AppConfig holds the global application configuration
type AppConfig struct {
	BaseURL            string           `yaml:"base_url"`
	UserAgent          string           `yaml:"user_agent,omitempty"`
	RequestDelay       *time.Duration   `yaml:"request_delay,omitempty"` // Pause before every cache miss (nil = 1s)
	StateDir           string           `yaml:"state_dir"`
	CacheBackend       string           `yaml:"cache_backend,omitempty"` // "json" (single file) or "badger"
	CacheFile          string           `yaml:"cache_file,omitempty"`    // File name within StateDir for the json backend
	RespectRobots      bool             `yaml:"respect_robots,omitempty"`
	HTTPClientSettings HTTPClientConfig `yaml:"http_client_settings,omitempty"`
	Proximity          ProximityConfig  `yaml:"proximity"`
}

// HTTPClientConfig holds settings for the shared HTTP client
type HTTPClientConfig struct {
	Timeout               time.Duration `yaml:"timeout,omitempty"`                 // Overall request timeout (0 = none)
	MaxIdleConns          int           `yaml:"max_idle_conns,omitempty"`          // Max total idle connections
	MaxIdleConnsPerHost   int           `yaml:"max_idle_conns_per_host,omitempty"` // Max idle connections per host
	IdleConnTimeout       time.Duration `yaml:"idle_conn_timeout,omitempty"`       // Timeout for idle connections
	TLSHandshakeTimeout   time.Duration `yaml:"tls_handshake_timeout,omitempty"`   // Timeout for TLS handshake
	ExpectContinueTimeout time.Duration `yaml:"expect_continue_timeout,omitempty"` // Timeout for 100-continue
	ForceAttemptHTTP2     *bool         `yaml:"force_attempt_http2,omitempty"`     // nil=default, true=force, false=disable
	DialerTimeout         time.Duration `yaml:"dialer_timeout,omitempty"`          // Connection dial timeout
	DialerKeepAlive       time.Duration `yaml:"dialer_keep_alive,omitempty"`       // TCP keep-alive interval
}

// ProximityConfig configures the nearby-places radius search
type ProximityConfig struct {
	Endpoint    string `yaml:"endpoint"`
	Key         string `yaml:"key,omitempty"`
	Secret      string `yaml:"secret,omitempty"`
	Radius      int    `yaml:"radius,omitempty"`
	MaxMatches  int    `yaml:"max_matches,omitempty"`
	Ambiguities string `yaml:"ambiguities,omitempty"`
	OutFormat   string `yaml:"out_format,omitempty"`
}

// ApplyEnv overrides the proximity credentials from the environment when set
func (c *AppConfig) ApplyEnv() {
	if key := os.Getenv(EnvAPIKey); key != "" {
		c.Proximity.Key = key
	}
	if secret := os.Getenv(EnvAPISecret); secret != "" {
		c.Proximity.Secret = secret
	}
}

// GetEffectiveRequestDelay returns the configured pacing delay, or the default when unset
func GetEffectiveRequestDelay(appCfg AppConfig) time.Duration {
	if appCfg.RequestDelay != nil {
		return *appCfg.RequestDelay
	}
	return DefaultRequestDelay
}

// GetEffectiveCachePath returns the location of the persisted cache for the configured backend
func GetEffectiveCachePath(appCfg AppConfig) string {
	if appCfg.CacheBackend == CacheBackendBadger {
		return appCfg.StateDir
	}
	name := appCfg.CacheFile
	if name == "" {
		name = DefaultCacheFile
	}
	return filepath.Join(appCfg.StateDir, name)
}
