// Package session runs the interactive state -> site -> nearby places prompt loop.
package session

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"

	"parkfinder/pkg/models"
	"parkfinder/pkg/utils"
)

const (
	statePrompt  = "Enter a state name (e.g. Michigan, michigan) or 'exit': "
	detailPrompt = "Choose the number for detail search or 'exit' or 'back': "
	separator    = "----------------------------------------"

	cmdExit = "exit"
	cmdBack = "back"
)

var errEnd = errors.New("end of session")

// SiteLister provides the region index and per-region listings
type SiteLister interface {
	BuildRegionIndex(ctx context.Context) (models.RegionIndex, error)
	ListSites(ctx context.Context, regionURL string) ([]models.Site, error)
}

// NearbyFinder returns places near a site
type NearbyFinder interface {
	Nearby(ctx context.Context, site models.Site) ([]models.NearbyPlace, error)
}

// Session is one interactive run over a reader and writer
type Session struct {
	lister SiteLister
	nearby NearbyFinder
	in     *bufio.Reader
	out    io.Writer
	log    *logrus.Entry

	bold *color.Color
	warn *color.Color
}

// New creates a Session reading commands from in and writing to out
func New(lister SiteLister, nearby NearbyFinder, in io.Reader, out io.Writer, log *logrus.Entry) *Session {
	return &Session{
		lister: lister,
		nearby: nearby,
		in:     bufio.NewReader(in),
		out:    out,
		log:    log,
		bold:   color.New(color.Bold),
		warn:   color.New(color.FgYellow),
	}
}

// Run builds the region index then serves prompts until "exit", end of input, or ctx is done
func (s *Session) Run(ctx context.Context) error {
	index, err := s.lister.BuildRegionIndex(ctx)
	if err != nil {
		return fmt.Errorf("building region index: %w", err)
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		input, err := s.read(statePrompt)
		if err != nil {
			return endOrErr(err)
		}
		name := models.NormalizeRegionName(input)
		if name == cmdExit {
			return nil
		}

		regionURL, ok := index.Lookup(name)
		if !ok {
			fmt.Fprintln(s.out, "wrong name")
			continue
		}
		if err := s.region(ctx, name, regionURL); err != nil {
			return endOrErr(err)
		}
	}
}

// region lists one region's sites and serves detail prompts.
// A nil return goes back to the state prompt.
func (s *Session) region(ctx context.Context, name, regionURL string) error {
	sites, err := s.lister.ListSites(ctx, regionURL)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.report("listing sites", err)
		return nil
	}

	s.heading(fmt.Sprintf("List of national sites in %s", name))
	for i, site := range sites {
		fmt.Fprintf(s.out, "[%d] %s\n", i+1, site.Info())
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		input, err := s.read(detailPrompt)
		if err != nil {
			return err
		}
		switch command := strings.ToLower(strings.TrimSpace(input)); command {
		case cmdExit:
			return errEnd
		case cmdBack:
			return nil
		default:
			site, ok := choose(command, sites)
			if !ok {
				fmt.Fprintln(s.out, "invalid input")
				continue
			}
			if err := s.places(ctx, site); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				s.report("finding nearby places", err)
				return nil
			}
		}
	}
}

func (s *Session) places(ctx context.Context, site models.Site) error {
	places, err := s.nearby.Nearby(ctx, site)
	if err != nil {
		return err
	}
	s.heading(fmt.Sprintf("Places near %s", site.Name))
	for _, p := range places {
		fmt.Fprintf(s.out, "- %s\n", p.String())
	}
	return nil
}

// choose resolves a 1-based number against sites
func choose(input string, sites []models.Site) (models.Site, bool) {
	n, err := strconv.Atoi(input)
	if err != nil || n < 1 || n > len(sites) {
		return models.Site{}, false
	}
	return sites[n-1], true
}

func (s *Session) heading(title string) {
	fmt.Fprintln(s.out, separator)
	s.bold.Fprintln(s.out, title)
	fmt.Fprintln(s.out, separator)
}

func (s *Session) report(action string, err error) {
	s.log.WithField("error_type", utils.CategorizeError(err)).Warnf("Failed %s: %v", action, err)
	s.warn.Fprintf(s.out, "Error %s: %v\n", action, err)
}

// read prints prompt and returns the next line without its newline.
// A final line without a newline is returned before io.EOF.
func (s *Session) read(prompt string) (string, error) {
	fmt.Fprint(s.out, prompt)
	line, err := s.in.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimRight(line, "\r\n"), nil
		}
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(s.out)
			return "", errEnd
		}
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func endOrErr(err error) error {
	if errors.Is(err, errEnd) {
		return nil
	}
	return err
}
