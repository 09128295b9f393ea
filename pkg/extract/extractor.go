// Package extract turns National Park Service HTML documents into region
// indexes, site link lists and Site records.
package extract

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"

	"parkfinder/pkg/models"
	"parkfinder/pkg/parse"
	"parkfinder/pkg/utils"
)

// Extractor isolates the selector rules applied to each kind of document
type Extractor interface {
	// RegionIndex maps each region name in the root document to its listing URL
	RegionIndex(doc *goquery.Document, base *url.URL) (models.RegionIndex, error)
	// SiteLinks returns the detail page URLs of a region listing, in document order
	SiteLinks(doc *goquery.Document, base *url.URL) ([]string, error)
	// Site reads one detail page
	Site(doc *goquery.Document) (models.Site, error)
}

// Selectors used against nps.gov markup
const (
	regionMenuSelector     = "ul.dropdown-menu.SearchBar-keywordSearch"
	siteListSelector       = "ul#list_parks"
	siteEntrySelector      = "li.clearfix"
	siteTitleLinkSelector  = "h3 a"
	titleContainerSelector = "div.Hero-titleContainer"
	designationSelector    = "span.Hero-designation"
	contactSelector        = "div.ParkFooter-contact"
	localitySelector       = "span[itemprop='addressLocality']"
	regionSelector         = "span[itemprop='addressRegion']"
	postalCodeSelector     = "span[itemprop='postalCode']"
	telephoneSelector      = "span[itemprop='telephone']"
)

// ParseDocument parses raw HTML text into a goquery document
func ParseDocument(html string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", utils.ErrParsingHTML, err)
	}
	return doc, nil
}

// NPSExtractor implements Extractor for nps.gov pages
type NPSExtractor struct {
	log *logrus.Entry
}

// NewNPSExtractor creates an NPSExtractor
func NewNPSExtractor(log *logrus.Entry) *NPSExtractor {
	return &NPSExtractor{log: log}
}

// RegionIndex implements Extractor. Duplicate names keep the last URL seen.
func (e *NPSExtractor) RegionIndex(doc *goquery.Document, base *url.URL) (models.RegionIndex, error) {
	menu := doc.Find(regionMenuSelector).First()
	if menu.Length() == 0 {
		return nil, fmt.Errorf("%w: region menu '%s'", utils.ErrStructure, regionMenuSelector)
	}

	index := make(models.RegionIndex)
	menu.Find("a").Each(func(_ int, a *goquery.Selection) {
		name := models.NormalizeRegionName(a.Text())
		href, exists := a.Attr("href")
		if name == "" || !exists {
			e.log.Debugf("Skipping region anchor without name or href: %q", a.Text())
			return
		}
		resolved, err := parse.ResolveHref(base, href)
		if err != nil {
			e.log.Debugf("Skipping region '%s': %v", name, err)
			return
		}
		if previous, dup := index[name]; dup && previous != resolved {
			e.log.Warnf("Duplicate region '%s': replacing %s with %s", name, previous, resolved)
		}
		index[name] = resolved
	})
	return index, nil
}

// SiteLinks implements Extractor
func (e *NPSExtractor) SiteLinks(doc *goquery.Document, base *url.URL) ([]string, error) {
	list := doc.Find(siteListSelector).First()
	if list.Length() == 0 {
		return nil, fmt.Errorf("%w: site list '%s'", utils.ErrStructure, siteListSelector)
	}

	links := []string{}
	var entryErr error
	list.ChildrenFiltered(siteEntrySelector).EachWithBreak(func(i int, li *goquery.Selection) bool {
		a := li.Find(siteTitleLinkSelector).First()
		href, exists := a.Attr("href")
		if a.Length() == 0 || !exists {
			entryErr = fmt.Errorf("%w: site entry %d has no title link", utils.ErrStructure, i+1)
			return false
		}
		resolved, err := parse.ResolveHref(base, href)
		if err != nil {
			entryErr = fmt.Errorf("%w: site entry %d: %w", utils.ErrStructure, i+1, err)
			return false
		}
		links = append(links, resolved)
		return true
	})
	if entryErr != nil {
		return nil, entryErr
	}
	return links, nil
}

// Site implements Extractor. Absent sub-elements yield empty fields.
func (e *NPSExtractor) Site(doc *goquery.Document) (models.Site, error) {
	title := doc.Find(titleContainerSelector).First()
	if title.Length() == 0 {
		return models.Site{}, fmt.Errorf("%w: title region '%s'", utils.ErrStructure, titleContainerSelector)
	}
	contact := doc.Find(contactSelector).First()
	if contact.Length() == 0 {
		return models.Site{}, fmt.Errorf("%w: contact region '%s'", utils.ErrStructure, contactSelector)
	}

	return models.Site{
		Category:   firstText(title, designationSelector),
		Name:       firstText(title, "a"),
		Address:    joinAddress(firstText(contact, localitySelector), firstText(contact, regionSelector)),
		PostalCode: firstText(contact, postalCodeSelector),
		Phone:      firstText(contact, telephoneSelector),
	}, nil
}

// firstText returns the trimmed text of the first match, or "" when nothing matches
func firstText(scope *goquery.Selection, selector string) string {
	return strings.TrimSpace(scope.Find(selector).First().Text())
}

// joinAddress renders "locality, region", dropping whichever part is empty
func joinAddress(locality, region string) string {
	switch {
	case locality == "":
		return region
	case region == "":
		return locality
	default:
		return locality + ", " + region
	}
}
