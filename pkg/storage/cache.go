package storage

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"parkfinder/pkg/config"
	"parkfinder/pkg/utils"
)

const (
	pageKeyPrefix      = "page:" // Prefix for fetched document keys (normalized URL)
	proximityKeyPrefix = "geo:"  // Prefix for proximity response keys (postal code)
)

// ResourceCache namespaces a Store into fetched pages and proximity responses
type ResourceCache struct {
	store Store
	log   *logrus.Entry
}

// NewResourceCache wraps store
func NewResourceCache(store Store, logger *logrus.Entry) *ResourceCache {
	return &ResourceCache{store: store, log: logger}
}

// Open builds the Store selected by the configuration and wraps it in a ResourceCache
func Open(appCfg config.AppConfig, logger *logrus.Entry) (*ResourceCache, error) {
	switch appCfg.CacheBackend {
	case config.CacheBackendBadger:
		host := appCfg.BaseURL
		if u, err := url.Parse(appCfg.BaseURL); err == nil && u.Host != "" {
			host = u.Host
		}
		store, err := NewBadgerStore(appCfg.StateDir, host, logger)
		if err != nil {
			return nil, err
		}
		return NewResourceCache(store, logger), nil
	case config.CacheBackendJSON, "":
		store := NewJSONFileStore(config.GetEffectiveCachePath(appCfg), logger)
		return NewResourceCache(store, logger), nil
	default:
		return nil, fmt.Errorf("%w: unknown cache backend '%s'", utils.ErrConfigValidation, appCfg.CacheBackend)
	}
}

// Store exposes the underlying store
func (c *ResourceCache) Store() Store {
	return c.store
}

// GetPage returns the raw document text cached for pageURL
func (c *ResourceCache) GetPage(pageURL string) (string, bool, error) {
	raw, found, err := c.store.Get(pageKeyPrefix + pageURL)
	if err != nil || !found {
		return "", false, err
	}
	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		return "", false, fmt.Errorf("%w: cached page '%s' is not a string: %w", utils.ErrParsingJSON, pageURL, err)
	}
	return text, true, nil
}

// PutPage stores the raw document text for pageURL
func (c *ResourceCache) PutPage(pageURL, text string) error {
	raw, err := json.Marshal(text)
	if err != nil {
		return fmt.Errorf("%w: encoding page '%s': %w", utils.ErrParsingJSON, pageURL, err)
	}
	return c.store.Put(pageKeyPrefix+pageURL, raw)
}

// GetProximity decodes the response cached for postalCode into out
func (c *ResourceCache) GetProximity(postalCode string, out any) (bool, error) {
	raw, found, err := c.store.Get(proximityKeyPrefix + postalCode)
	if err != nil || !found {
		return false, err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, fmt.Errorf("%w: cached response for '%s': %w", utils.ErrParsingJSON, postalCode, err)
	}
	return true, nil
}

// PutProximity stores the parsed response for postalCode
func (c *ResourceCache) PutProximity(postalCode string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("%w: encoding response for '%s': %w", utils.ErrParsingJSON, postalCode, err)
	}
	return c.store.Put(proximityKeyPrefix+postalCode, raw)
}

// Len returns the number of cached entries across both namespaces
func (c *ResourceCache) Len() int {
	return c.store.Len()
}

// Close closes the underlying store
func (c *ResourceCache) Close() error {
	return c.store.Close()
}

// CacheKey is a stored key split into its namespace and resource key
type CacheKey struct {
	Namespace string // "page", "geo", or "" for keys without a known prefix
	Key       string
}

// ListKeys returns every cached key, split by namespace
func (c *ResourceCache) ListKeys() ([]CacheKey, error) {
	keys, err := c.store.Keys()
	if err != nil {
		return nil, err
	}
	out := make([]CacheKey, 0, len(keys))
	for _, k := range keys {
		switch {
		case strings.HasPrefix(k, pageKeyPrefix):
			out = append(out, CacheKey{Namespace: strings.TrimSuffix(pageKeyPrefix, ":"), Key: k[len(pageKeyPrefix):]})
		case strings.HasPrefix(k, proximityKeyPrefix):
			out = append(out, CacheKey{Namespace: strings.TrimSuffix(proximityKeyPrefix, ":"), Key: k[len(proximityKeyPrefix):]})
		default:
			c.log.Warnf("Unexpected key in cache (no page/geo prefix): %s", k)
			out = append(out, CacheKey{Key: k})
		}
	}
	return out, nil
}

// WriteKeyLog writes every cached resource key (URL or postal code) to filePath, one per line
func (c *ResourceCache) WriteKeyLog(filePath string) error {
	keys, err := c.ListKeys()
	if err != nil {
		return err
	}

	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("%w: create key log '%s': %w", utils.ErrFilesystem, filePath, err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	for _, k := range keys {
		if _, err := writer.WriteString(k.Key + "\n"); err != nil {
			return fmt.Errorf("%w: writing key log '%s': %w", utils.ErrFilesystem, filePath, err)
		}
	}
	if err := writer.Flush(); err != nil {
		return fmt.Errorf("%w: flushing key log '%s': %w", utils.ErrFilesystem, filePath, err)
	}
	if err := file.Sync(); err != nil {
		return fmt.Errorf("%w: syncing key log '%s': %w", utils.ErrFilesystem, filePath, err)
	}
	c.log.Infof("Wrote %d cached keys to %s", len(keys), filePath)
	return nil
}
