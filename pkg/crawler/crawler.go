// Package crawler walks the two-level region -> site hierarchy of the document source.
package crawler

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"

	"parkfinder/pkg/extract"
	"parkfinder/pkg/models"
	"parkfinder/pkg/parse"
	"parkfinder/pkg/utils"
)

// DocumentFetcher returns the text of a document, from cache or network
type DocumentFetcher interface {
	Fetch(ctx context.Context, rawURL string) (string, models.FetchSource, error)
}

// Indexer builds the region index and per-region site listings
type Indexer struct {
	fetcher   DocumentFetcher
	extractor extract.Extractor
	origin    *url.URL
	log       *logrus.Entry
}

// NewIndexer creates an Indexer rooted at baseURL
func NewIndexer(fetcher DocumentFetcher, extractor extract.Extractor, baseURL string, log *logrus.Entry) (*Indexer, error) {
	_, origin, err := parse.ParseAndNormalize(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	return &Indexer{
		fetcher:   fetcher,
		extractor: extractor,
		origin:    origin,
		log:       log,
	}, nil
}

// Origin returns the document source root
func (ix *Indexer) Origin() string {
	return ix.origin.String()
}

// BuildRegionIndex fetches the root document and maps each lower-cased region name to its listing URL
func (ix *Indexer) BuildRegionIndex(ctx context.Context) (models.RegionIndex, error) {
	rootURL := ix.origin.String()
	doc, err := ix.document(ctx, rootURL)
	if err != nil {
		return nil, err
	}
	index, err := ix.extractor.RegionIndex(doc, ix.origin)
	if err != nil {
		return nil, fmt.Errorf("region index %s: %w", rootURL, err)
	}
	ix.log.WithField("regions", len(index)).Info("Built region index")
	return index, nil
}

// ListSites returns every site of the region at regionURL, in listing order.
// Any failure aborts the listing with no partial result.
func (ix *Indexer) ListSites(ctx context.Context, regionURL string) ([]models.Site, error) {
	start := time.Now()
	listLog := ix.log.WithField("region_url", regionURL)

	doc, err := ix.document(ctx, regionURL)
	if err != nil {
		return nil, err
	}
	links, err := ix.extractor.SiteLinks(doc, ix.origin)
	if err != nil {
		return nil, fmt.Errorf("site list %s: %w", regionURL, err)
	}
	listLog.Debugf("Found %d site links", len(links))

	sites := make([]models.Site, 0, len(links))
	for _, link := range links {
		site, err := ix.SiteDetail(ctx, link)
		if err != nil {
			listLog.WithFields(logrus.Fields{
				"site_url":   link,
				"error_type": utils.CategorizeError(err),
			}).Warn("Aborting site listing")
			return nil, err
		}
		sites = append(sites, site)
	}

	listLog.WithFields(logrus.Fields{"sites": len(sites), "duration": time.Since(start)}).Info("Listed sites")
	return sites, nil
}

// SiteDetail fetches and extracts a single site detail page
func (ix *Indexer) SiteDetail(ctx context.Context, siteURL string) (models.Site, error) {
	doc, err := ix.document(ctx, siteURL)
	if err != nil {
		return models.Site{}, err
	}
	site, err := ix.extractor.Site(doc)
	if err != nil {
		return models.Site{}, fmt.Errorf("site detail %s: %w", siteURL, err)
	}
	return site, nil
}

// document fetches and parses rawURL. Errors name the URL.
func (ix *Indexer) document(ctx context.Context, rawURL string) (*goquery.Document, error) {
	text, _, err := ix.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	doc, err := extract.ParseDocument(text)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", rawURL, err)
	}
	return doc, nil
}
