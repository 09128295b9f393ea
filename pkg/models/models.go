package models

import (
	"fmt"
	"sort"
	"strings"
)

// Sentinels substituted for empty proximity fields
const (
	NoCategory = "no category"
	NoAddress  = "no address"
	NoCity     = "no city"
)

// Site is one national site extracted from its detail page
type Site struct {
	Category   string `json:"category" yaml:"category"`       // e.g. "National Park"; may be empty
	Name       string `json:"name" yaml:"name"`               // e.g. "Isle Royale"
	Address    string `json:"address" yaml:"address"`         // "locality, region", e.g. "Houghton, MI"
	PostalCode string `json:"postal_code" yaml:"postal_code"` // e.g. "49931", "82190-0168"
	Phone      string `json:"phone" yaml:"phone"`             // e.g. "(906) 482-0984"
}

// Info renders the one-line listing form of a site
func (s Site) Info() string {
	return fmt.Sprintf("%s (%s): %s %s", s.Name, s.Category, s.Address, s.PostalCode)
}

// RegionIndex maps a lower-cased region name to its listing URL
type RegionIndex map[string]string

// Lookup resolves a region name case-insensitively
func (ri RegionIndex) Lookup(name string) (string, bool) {
	u, ok := ri[NormalizeRegionName(name)]
	return u, ok
}

// Names returns the region names, sorted
func (ri RegionIndex) Names() []string {
	names := make([]string, 0, len(ri))
	for name := range ri {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NormalizeRegionName is the key form used by RegionIndex
func NormalizeRegionName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// NearbyPlace is a point of interest returned by a proximity query
type NearbyPlace struct {
	Name     string `json:"name" yaml:"name"`
	Category string `json:"category" yaml:"category"`
	Address  string `json:"address" yaml:"address"`
	City     string `json:"city" yaml:"city"`
}

func (p NearbyPlace) String() string {
	return fmt.Sprintf("%s (%s): %s, %s", p.Name, p.Category, p.Address, p.City)
}

// ProximityResponse is the subset of the radius search response that is read and cached
type ProximityResponse struct {
	Info          *ProximityInfo   `json:"info,omitempty"`
	SearchResults []ProximityEntry `json:"searchResults"`
}

// ProximityInfo carries the service's own status report
type ProximityInfo struct {
	StatusCode int      `json:"statuscode"`
	Messages   []string `json:"messages,omitempty"`
}

// ProximityEntry is one element of searchResults
type ProximityEntry struct {
	Name   string          `json:"name"`
	Fields ProximityFields `json:"fields"`
}

// ProximityFields holds the per-result attributes that NearbyPlace is built from
type ProximityFields struct {
	GroupSICCodeNameExt string `json:"group_sic_code_name_ext"`
	Address             string `json:"address"`
	City                string `json:"city"`
}

// Place projects the entry into a NearbyPlace, substituting sentinels for empty fields
func (e ProximityEntry) Place() NearbyPlace {
	return NearbyPlace{
		Name:     e.Name,
		Category: orDefault(e.Fields.GroupSICCodeNameExt, NoCategory),
		Address:  orDefault(e.Fields.Address, NoAddress),
		City:     orDefault(e.Fields.City, NoCity),
	}
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
