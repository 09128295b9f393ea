package crawler

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"parkfinder/pkg/models"
)

// Output formats for a site listing
const (
	FormatText  = "text"
	FormatJSONL = "jsonl"
	FormatTSV   = "tsv"
	FormatYAML  = "yaml"
)

// Listing is a region's site list together with where it came from
type Listing struct {
	Region      string        `yaml:"region"`
	RegionURL   string        `yaml:"region_url"`
	GeneratedAt time.Time     `yaml:"generated_at"`
	Sites       []models.Site `yaml:"sites"`
}

// WriteListing renders the listing to w in the requested format
func WriteListing(w io.Writer, format string, listing Listing) error {
	switch format {
	case FormatText, "":
		return writeText(w, listing.Sites)
	case FormatJSONL:
		return writeJSONL(w, listing.Sites)
	case FormatTSV:
		return writeTSV(w, listing.Sites)
	case FormatYAML:
		return writeYAML(w, listing)
	default:
		return fmt.Errorf("unknown output format '%s'", format)
	}
}

// writeText prints "[n] Info()" lines, numbered from 1
func writeText(w io.Writer, sites []models.Site) error {
	for i, site := range sites {
		if _, err := fmt.Fprintf(w, "[%d] %s\n", i+1, site.Info()); err != nil {
			return err
		}
	}
	return nil
}

func writeJSONL(w io.Writer, sites []models.Site) error {
	enc := json.NewEncoder(w)
	for _, site := range sites {
		if err := enc.Encode(site); err != nil {
			return fmt.Errorf("encoding site '%s': %w", site.Name, err)
		}
	}
	return nil
}

// writeTSV writes a header row then one row per site. Tabs and newlines inside values become spaces.
func writeTSV(w io.Writer, sites []models.Site) error {
	clean := strings.NewReplacer("\t", " ", "\n", " ", "\r", " ")
	if _, err := io.WriteString(w, "category\tname\taddress\tpostal_code\tphone\n"); err != nil {
		return err
	}
	for _, s := range sites {
		row := []string{s.Category, s.Name, s.Address, s.PostalCode, s.Phone}
		for i := range row {
			row[i] = clean.Replace(row[i])
		}
		if _, err := io.WriteString(w, strings.Join(row, "\t")+"\n"); err != nil {
			return err
		}
	}
	return nil
}

func writeYAML(w io.Writer, listing Listing) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(listing); err != nil {
		return fmt.Errorf("encoding listing: %w", err)
	}
	return enc.Close()
}
