package extract

import (
	"bytes"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parkfinder/pkg/models"
	"parkfinder/pkg/utils"
)

func testExtractor() *NPSExtractor {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return NewNPSExtractor(logrus.NewEntry(log))
}

func testBase(t *testing.T) *url.URL {
	t.Helper()
	base, err := url.Parse("https://www.nps.gov")
	require.NoError(t, err)
	return base
}

func loadFixture(t *testing.T, name string) *goquery.Document {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	doc, err := ParseDocument(string(data))
	require.NoError(t, err)
	return doc
}

func docFromString(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := ParseDocument(html)
	require.NoError(t, err)
	return doc
}

func TestRegionIndex(t *testing.T) {
	e := testExtractor()

	t.Run("fixture", func(t *testing.T) {
		index, err := e.RegionIndex(loadFixture(t, "root.html"), testBase(t))
		require.NoError(t, err)
		assert.Equal(t, models.RegionIndex{
			"alabama":  "https://www.nps.gov/state/al/index.htm",
			"michigan": "https://www.nps.gov/state/mi/index.htm",
			"wyoming":  "https://www.nps.gov/state/wy/index.htm",
		}, index)

		// Anchors outside the search menu are ignored
		_, found := index["about us"]
		assert.False(t, found)
	})

	t.Run("single entry", func(t *testing.T) {
		doc := docFromString(t, `<ul class="dropdown-menu SearchBar-keywordSearch"><li><a href="/state/mi/index.htm">Michigan</a></li></ul>`)
		index, err := e.RegionIndex(doc, testBase(t))
		require.NoError(t, err)
		assert.Equal(t, models.RegionIndex{"michigan": "https://www.nps.gov/state/mi/index.htm"}, index)

		for _, name := range []string{"Michigan", "michigan", "MICHIGAN", "  Michigan "} {
			u, ok := index.Lookup(name)
			assert.True(t, ok, name)
			assert.Equal(t, "https://www.nps.gov/state/mi/index.htm", u)
		}
	})

	t.Run("duplicate names keep last", func(t *testing.T) {
		doc := docFromString(t, `<ul class="dropdown-menu SearchBar-keywordSearch">
			<li><a href="/state/ga/index.htm">Georgia</a></li>
			<li><a href="/state/ga2/index.htm">GEORGIA</a></li></ul>`)
		var logs bytes.Buffer
		log := logrus.New()
		log.SetOutput(&logs)
		log.SetLevel(logrus.WarnLevel)

		index, err := NewNPSExtractor(logrus.NewEntry(log)).RegionIndex(doc, testBase(t))
		require.NoError(t, err)
		assert.Len(t, index, 1)
		assert.Equal(t, "https://www.nps.gov/state/ga2/index.htm", index["georgia"])
		assert.Contains(t, logs.String(), "level=warning")
		assert.Contains(t, logs.String(), "Duplicate region 'georgia'")
	})

	t.Run("missing menu", func(t *testing.T) {
		doc := docFromString(t, `<ul class="dropdown-menu"><li><a href="/x">X</a></li></ul>`)
		_, err := e.RegionIndex(doc, testBase(t))
		require.Error(t, err)
		assert.ErrorIs(t, err, utils.ErrStructure)
	})

	t.Run("empty menu", func(t *testing.T) {
		doc := docFromString(t, `<ul class="dropdown-menu SearchBar-keywordSearch"></ul>`)
		index, err := e.RegionIndex(doc, testBase(t))
		require.NoError(t, err)
		assert.Empty(t, index)
	})
}

func TestSiteLinks(t *testing.T) {
	e := testExtractor()

	t.Run("fixture preserves document order", func(t *testing.T) {
		links, err := e.SiteLinks(loadFixture(t, "state_mi.html"), testBase(t))
		require.NoError(t, err)
		assert.Equal(t, []string{
			"https://www.nps.gov/isro/",
			"https://www.nps.gov/piro/",
			"https://www.nps.gov/slbe/",
		}, links)
	})

	t.Run("only direct entries count", func(t *testing.T) {
		doc := docFromString(t, `<ul id="list_parks">
			<li class="clearfix"><h3><a href="/a/">A</a></h3>
				<ul><li class="clearfix"><h3><a href="/nested/">Nested</a></h3></li></ul>
			</li>
			<li class="other"><h3><a href="/skip/">Skip</a></h3></li>
			<li class="clearfix"><h3><a href="/a/">A again</a></h3></li>
		</ul>`)
		links, err := e.SiteLinks(doc, testBase(t))
		require.NoError(t, err)
		assert.Equal(t, []string{"https://www.nps.gov/a/", "https://www.nps.gov/a/"}, links)
	})

	t.Run("empty list", func(t *testing.T) {
		links, err := e.SiteLinks(docFromString(t, `<ul id="list_parks"></ul>`), testBase(t))
		require.NoError(t, err)
		assert.Empty(t, links)
	})

	t.Run("missing list", func(t *testing.T) {
		_, err := e.SiteLinks(docFromString(t, `<ul id="other"></ul>`), testBase(t))
		require.Error(t, err)
		assert.ErrorIs(t, err, utils.ErrStructure)
	})

	t.Run("entry without title link", func(t *testing.T) {
		doc := docFromString(t, `<ul id="list_parks"><li class="clearfix"><h3>No link</h3></li></ul>`)
		_, err := e.SiteLinks(doc, testBase(t))
		require.Error(t, err)
		assert.ErrorIs(t, err, utils.ErrStructure)
		assert.Contains(t, err.Error(), "site entry 1")
	})
}

func TestSite(t *testing.T) {
	e := testExtractor()

	t.Run("isle royale fixture", func(t *testing.T) {
		site, err := e.Site(loadFixture(t, "isro.html"))
		require.NoError(t, err)
		assert.Equal(t, models.Site{
			Category:   "National Park",
			Name:       "Isle Royale",
			Address:    "Houghton, MI",
			PostalCode: "49931",
			Phone:      "(906) 482-0984",
		}, site)
	})

	t.Run("missing category yields empty", func(t *testing.T) {
		doc := docFromString(t, `
			<div class="Hero-titleContainer"><a href="/x/">Some Trail</a></div>
			<div class="ParkFooter-contact">
				<span itemprop="addressLocality">Harpers Ferry</span>
				<span itemprop="addressRegion">WV</span>
				<span itemprop="postalCode">25425</span>
				<span itemprop="telephone">304-535-6278</span>
			</div>`)
		site, err := e.Site(doc)
		require.NoError(t, err)
		assert.Equal(t, "", site.Category)
		assert.Equal(t, "Some Trail", site.Name)
		assert.Equal(t, "Harpers Ferry, WV", site.Address)
	})

	t.Run("missing contact sub-elements yield empty", func(t *testing.T) {
		doc := docFromString(t, `
			<div class="Hero-titleContainer"><a>Name</a><span class="Hero-designation">Memorial</span></div>
			<div class="ParkFooter-contact"><span itemprop="addressRegion">DC</span></div>`)
		site, err := e.Site(doc)
		require.NoError(t, err)
		assert.Equal(t, models.Site{Category: "Memorial", Name: "Name", Address: "DC"}, site)
	})

	t.Run("missing title region", func(t *testing.T) {
		doc := docFromString(t, `<div class="ParkFooter-contact"></div>`)
		_, err := e.Site(doc)
		require.Error(t, err)
		assert.ErrorIs(t, err, utils.ErrStructure)
		assert.Equal(t, "Content_StructureMissing", utils.CategorizeError(err))
	})

	t.Run("missing contact region", func(t *testing.T) {
		doc := docFromString(t, `<div class="Hero-titleContainer"><a>Name</a></div>`)
		_, err := e.Site(doc)
		require.Error(t, err)
		assert.ErrorIs(t, err, utils.ErrStructure)
	})
}

func TestSite_FieldsAreTrimmed(t *testing.T) {
	e := testExtractor()
	docs := []string{
		`<div class="Hero-titleContainer">
			<span class="Hero-designation">
				National   Historic Site
			</span>
			<a>	 Name with tabs 	</a>
		</div>
		<div class="ParkFooter-contact">
			<span itemprop="addressLocality">
				 City </span>
			<span itemprop="addressRegion">  ST  </span>
			<span itemprop="postalCode">
12345-6789
</span>
			<span itemprop="telephone">   </span>
		</div>`,
	}
	for _, html := range docs {
		site, err := e.Site(docFromString(t, html))
		require.NoError(t, err)
		for _, field := range []string{site.Category, site.Name, site.Address, site.PostalCode, site.Phone} {
			assert.Equal(t, strings.TrimSpace(field), field)
		}
		assert.Equal(t, "City, ST", site.Address)
		assert.Equal(t, "12345-6789", site.PostalCode)
		assert.Equal(t, "", site.Phone)
	}
	// Fixture too
	site, err := e.Site(loadFixture(t, "isro.html"))
	require.NoError(t, err)
	for _, field := range []string{site.Category, site.Name, site.Address, site.PostalCode, site.Phone} {
		assert.Equal(t, strings.TrimSpace(field), field)
	}
}

func TestJoinAddress(t *testing.T) {
	assert.Equal(t, "Houghton, MI", joinAddress("Houghton", "MI"))
	assert.Equal(t, "MI", joinAddress("", "MI"))
	assert.Equal(t, "Houghton", joinAddress("Houghton", ""))
	assert.Equal(t, "", joinAddress("", ""))
}

// Compile-time check
var _ Extractor = (*NPSExtractor)(nil)
