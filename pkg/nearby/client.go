// Package nearby looks up points of interest around a site's postal code.
package nearby

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"

	"parkfinder/pkg/config"
	"parkfinder/pkg/models"
	"parkfinder/pkg/utils"
)

// ProximityCache stores proximity responses by postal code
type ProximityCache interface {
	GetProximity(postalCode string, out any) (bool, error)
	PutProximity(postalCode string, value any) error
}

// Client queries the radius search service through the cache
type Client struct {
	http  *resty.Client
	cache ProximityCache
	cfg   config.ProximityConfig
	log   *logrus.Entry
}

// NewClient creates a Client. httpClient may be nil to use resty's default transport.
func NewClient(cfg config.ProximityConfig, cache ProximityCache, httpClient *http.Client, log *logrus.Entry) *Client {
	var rc *resty.Client
	if httpClient != nil {
		rc = resty.NewWithClient(httpClient)
	} else {
		rc = resty.New()
	}
	rc.SetHeader("Accept", "application/json")
	return &Client{
		http:  rc,
		cache: cache,
		cfg:   cfg,
		log:   log,
	}
}

// Nearby returns the places near site, one per search result, in service order
func (c *Client) Nearby(ctx context.Context, site models.Site) ([]models.NearbyPlace, error) {
	resp, _, err := c.Lookup(ctx, site.PostalCode)
	if err != nil {
		return nil, err
	}
	places := make([]models.NearbyPlace, 0, len(resp.SearchResults))
	for _, entry := range resp.SearchResults {
		places = append(places, entry.Place())
	}
	return places, nil
}

// Lookup returns the parsed response for postalCode and whether it came from the cache.
// Failed responses are never cached.
func (c *Client) Lookup(ctx context.Context, postalCode string) (models.ProximityResponse, models.FetchSource, error) {
	var resp models.ProximityResponse
	if postalCode == "" {
		return resp, models.FetchSourceUnset, fmt.Errorf("%w: site has no postal code", utils.ErrProximityAPI)
	}
	lookupLog := c.log.WithField("postal_code", postalCode)

	found, err := c.cache.GetProximity(postalCode, &resp)
	switch {
	case err != nil:
		lookupLog.Warnf("Cached response unusable, querying again: %v", err)
		resp = models.ProximityResponse{}
	case found:
		lookupLog.WithField("source", models.FetchSourceCache).Info("Using cache")
		return resp, models.FetchSourceCache, nil
	}

	lookupLog.WithField("source", models.FetchSourceNetwork).Info("Fetching")
	resp, raw, err := c.query(ctx, postalCode)
	if err != nil {
		lookupLog.WithField("error_type", utils.CategorizeError(err)).Warnf("Proximity query failed: %v", err)
		return models.ProximityResponse{}, models.FetchSourceUnset, err
	}

	// The whole response is kept, including fields Place never reads
	if err := c.cache.PutProximity(postalCode, raw); err != nil {
		lookupLog.WithField("error_type", utils.CategorizeError(err)).Warnf("Failed to cache proximity response: %v", err)
	}
	lookupLog.WithField("results", len(resp.SearchResults)).Debug("Proximity query succeeded")
	return resp, models.FetchSourceNetwork, nil
}

// query issues the radius search and validates the response.
// It returns the decoded subset together with the response body as received.
func (c *Client) query(ctx context.Context, postalCode string) (models.ProximityResponse, json.RawMessage, error) {
	var resp models.ProximityResponse

	res, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"key":         c.cfg.Key,
			"origin":      postalCode,
			"radius":      strconv.Itoa(c.cfg.Radius),
			"maxMatches":  strconv.Itoa(c.cfg.MaxMatches),
			"ambiguities": c.cfg.Ambiguities,
			"outformat":   c.cfg.OutFormat,
		}).
		Get(c.cfg.Endpoint)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return resp, nil, err
		}
		return resp, nil, fmt.Errorf("%w: request for '%s': %w", utils.ErrProximityAPI, postalCode, err)
	}
	if res.StatusCode() != http.StatusOK {
		return resp, nil, fmt.Errorf("%w: status %d for '%s'", utils.ErrProximityAPI, res.StatusCode(), postalCode)
	}

	if err := json.Unmarshal(res.Body(), &resp); err != nil {
		return resp, nil, fmt.Errorf("%w response for '%s': %w", utils.ErrParsingJSON, postalCode, err)
	}
	if resp.Info != nil && resp.Info.StatusCode != 0 {
		return resp, nil, fmt.Errorf("%w: service status %d for '%s': %v", utils.ErrProximityAPI, resp.Info.StatusCode, postalCode, resp.Info.Messages)
	}
	if resp.SearchResults == nil {
		return resp, nil, fmt.Errorf("%w response for '%s' has no searchResults", utils.ErrParsingJSON, postalCode)
	}
	return resp, json.RawMessage(res.Body()), nil
}
