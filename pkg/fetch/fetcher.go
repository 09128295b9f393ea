package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/sirupsen/logrus"

	"parkfinder/pkg/models"
	"parkfinder/pkg/parse"
	"parkfinder/pkg/utils"
)

// PageCache is the subset of the resource cache the Fetcher needs
type PageCache interface {
	GetPage(pageURL string) (string, bool, error)
	PutPage(pageURL, text string) error
}

// Fetcher retrieves documents through the page cache. Only misses touch the network.
type Fetcher struct {
	client    *http.Client
	cache     PageCache
	pacer     *Pacer
	robots    *RobotsChecker // nil when robots.txt is not consulted
	userAgent string
	log       *logrus.Entry
}

// NewFetcher creates a Fetcher. robots may be nil.
func NewFetcher(client *http.Client, cache PageCache, pacer *Pacer, robots *RobotsChecker, userAgent string, log *logrus.Entry) *Fetcher {
	return &Fetcher{
		client:    client,
		cache:     cache,
		pacer:     pacer,
		robots:    robots,
		userAgent: userAgent,
		log:       log,
	}
}

// Fetch returns the document text at rawURL and whether it came from the cache.
// Failed fetches are never cached.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (string, models.FetchSource, error) {
	key, target, err := parse.ParseAndNormalize(rawURL)
	if err != nil {
		return "", models.FetchSourceUnset, err
	}
	reqLog := f.log.WithField("url", key)

	text, found, err := f.cache.GetPage(key)
	if err != nil {
		reqLog.Warnf("Cache read failed, fetching instead: %v", err)
	} else if found {
		reqLog.WithField("source", models.FetchSourceCache).Info("Using cache")
		return text, models.FetchSourceCache, nil
	}

	reqLog.WithField("source", models.FetchSourceNetwork).Info("Fetching")

	// The pause also covers the robots.txt request, the first network access for a host
	if err := f.pacer.Wait(ctx); err != nil {
		return "", models.FetchSourceUnset, err
	}

	if f.robots != nil && !f.robots.Allowed(ctx, target) {
		reqLog.Warn("Disallowed by robots.txt")
		return "", models.FetchSourceUnset, fmt.Errorf("%w: %s", utils.ErrRobotsDisallowed, key)
	}

	body, err := f.get(ctx, key, reqLog)
	if err != nil {
		reqLog.WithField("error_type", utils.CategorizeError(err)).Warnf("Fetch failed: %v", err)
		return "", models.FetchSourceUnset, err
	}

	if err := f.cache.PutPage(key, body); err != nil {
		// The document is still usable for this run
		reqLog.WithField("error_type", utils.CategorizeError(err)).Warnf("Failed to cache document: %v", err)
	}
	return body, models.FetchSourceNetwork, nil
}

func (f *Fetcher) get(ctx context.Context, pageURL string, reqLog *logrus.Entry) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", utils.ErrRequestCreation, pageURL, err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return "", err
		}
		return "", fmt.Errorf("GET %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	statusCode := resp.StatusCode
	resLog := reqLog.WithFields(logrus.Fields{"status_code": statusCode, "status": resp.Status})

	if statusCode < 200 || statusCode >= 300 {
		io.Copy(io.Discard, resp.Body)
		return "", utils.NewHTTPStatusError(statusCode, pageURL)
	}
	resLog.Debug("Successfully fetched")

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", utils.ErrResponseBodyRead, pageURL, err)
	}
	return string(body), nil
}
