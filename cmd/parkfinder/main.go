package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/sirupsen/logrus"

	"parkfinder/pkg/crawler"
	"parkfinder/pkg/models"
	"parkfinder/pkg/session"
	"parkfinder/pkg/utils"
)

const version = "0.4.0"

// formatTable renders listings with go-pretty instead of crawler.WriteListing
const formatTable = "table"

// defaultLogLevel keeps the per-fetch cache/network report visible on stderr
const defaultLogLevel = "info"

func main() {
	if len(os.Args) < 2 {
		// No subcommand starts the interactive session with defaults
		runExplore(nil)
		return
	}

	switch os.Args[1] {
	case "explore":
		runExplore(os.Args[2:])
	case "regions":
		runRegions(os.Args[2:])
	case "sites":
		runSites(os.Args[2:])
	case "nearby":
		runNearby(os.Args[2:])
	case "cache-keys":
		runCacheKeys(os.Args[2:])
	case "validate":
		runValidate(os.Args[2:])
	case "mcp-server":
		runMcpServer(os.Args[2:])
	case "version":
		fmt.Printf("parkfinder %s\n", version)
	case "-h", "--help", "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	printUsageTo(os.Stdout)
}

// printUsageTo writes usage information to the provided writer.
func printUsageTo(w io.Writer) {
	fmt.Fprintln(w, `parkfinder - National Park Service site explorer

Usage:
  parkfinder [command] [options]

Commands:
  explore     Interactive state -> site -> nearby places prompt (default)
  regions     List states/regions and their listing URLs
  sites       List the national sites of one region
  nearby      List places near a site or postal code
  cache-keys  Show or export the keys held in the cache
  validate    Validate configuration file
  mcp-server  Start MCP server for AI tool integration
  version     Show version info

Run 'parkfinder <command> -h' for command-specific help.`)
}

// signalContext returns a context cancelled on SIGINT or SIGTERM
func signalContext(log *logrus.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigChan:
			log.Warnf("Received signal %v, shutting down...", sig)
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigChan)
	}()
	return ctx, cancel
}

// reportError prints err to stderr with its category and returns exit code 1
func reportError(stderr io.Writer, action string, err error) int {
	fmt.Fprintf(stderr, "Error %s: %v [%s]\n", action, err, utils.CategorizeError(err))
	return 1
}

// runExplore handles the explore subcommand
func runExplore(args []string) {
	fs := flag.NewFlagSet("explore", flag.ExitOnError)
	configFile := fs.String("config", defaultConfigPath, "Path to config file")
	logLevel := fs.String("loglevel", defaultLogLevel, "Log level (trace, debug, info, warn, error)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: parkfinder explore [options]\n\nOptions:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	os.Exit(doExplore(*configFile, *logLevel, os.Stdin, os.Stdout, os.Stderr))
}

// doExplore runs one interactive session over stdin/stdout.
// Returns exit code (0 = success, 1 = error).
func doExplore(configPath, logLevel string, stdin io.Reader, stdout, stderr io.Writer) int {
	a, err := newApp(configPath, logLevel, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer a.close()
	a.startGC()

	ctx, cancel := signalContext(a.log)
	defer cancel()

	sess := session.New(a.indexer, a.nearby, stdin, stdout, logrus.NewEntry(a.log).WithField("component", "session"))
	if err := sess.Run(ctx); err != nil {
		return reportError(stderr, "running session", err)
	}
	return 0
}

// runRegions handles the regions subcommand
func runRegions(args []string) {
	fs := flag.NewFlagSet("regions", flag.ExitOnError)
	configFile := fs.String("config", defaultConfigPath, "Path to config file")
	logLevel := fs.String("loglevel", defaultLogLevel, "Log level (trace, debug, info, warn, error)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: parkfinder regions [options]\n\nOptions:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	os.Exit(doRegions(*configFile, *logLevel, os.Stdout, os.Stderr))
}

// doRegions prints the region index as a table
func doRegions(configPath, logLevel string, stdout, stderr io.Writer) int {
	a, err := newApp(configPath, logLevel, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer a.close()

	ctx, cancel := signalContext(a.log)
	defer cancel()

	index, err := a.indexer.BuildRegionIndex(ctx)
	if err != nil {
		return reportError(stderr, "building region index", err)
	}

	tw := table.NewWriter()
	tw.SetOutputMirror(stdout)
	tw.AppendHeader(table.Row{"Region", "Listing URL"})
	for _, name := range index.Names() {
		tw.AppendRow(table.Row{name, index[name]})
	}
	tw.AppendFooter(table.Row{"Total", len(index)})
	tw.SetStyle(table.StyleRounded)
	tw.Render()
	return 0
}

// runSites handles the sites subcommand
func runSites(args []string) {
	fs := flag.NewFlagSet("sites", flag.ExitOnError)
	configFile := fs.String("config", defaultConfigPath, "Path to config file")
	region := fs.String("region", "", "State/region name, e.g. Michigan (required)")
	format := fs.String("format", crawler.FormatText, "Output format (text, jsonl, tsv, yaml, table)")
	logLevel := fs.String("loglevel", defaultLogLevel, "Log level (trace, debug, info, warn, error)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: parkfinder sites -region <name> [options]\n\nOptions:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  parkfinder sites -region michigan\n")
		fmt.Fprintf(os.Stderr, "  parkfinder sites -region \"New York\" -format yaml\n")
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if *region == "" {
		fmt.Fprintln(os.Stderr, "Error: -region is required")
		fs.Usage()
		os.Exit(1)
	}

	os.Exit(doSites(*configFile, *region, *format, *logLevel, os.Stdout, os.Stderr))
}

// doSites lists one region's sites in the requested format
func doSites(configPath, region, format, logLevel string, stdout, stderr io.Writer) int {
	a, err := newApp(configPath, logLevel, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer a.close()

	ctx, cancel := signalContext(a.log)
	defer cancel()

	regionURL, err := a.resolveRegion(ctx, region)
	if err != nil {
		return reportError(stderr, "resolving region", err)
	}
	sites, err := a.indexer.ListSites(ctx, regionURL)
	if err != nil {
		return reportError(stderr, "listing sites", err)
	}

	if format == formatTable {
		renderSitesTable(stdout, sites)
		return 0
	}
	listing := crawler.Listing{
		Region:      models.NormalizeRegionName(region),
		RegionURL:   regionURL,
		GeneratedAt: time.Now().UTC(),
		Sites:       sites,
	}
	if err := crawler.WriteListing(stdout, format, listing); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func renderSitesTable(w io.Writer, sites []models.Site) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.AppendHeader(table.Row{"#", "Name", "Category", "Address", "Postal Code", "Phone"})
	for i, s := range sites {
		tw.AppendRow(table.Row{i + 1, s.Name, s.Category, s.Address, s.PostalCode, s.Phone})
	}
	tw.SetStyle(table.StyleRounded)
	tw.Render()
}

// runNearby handles the nearby subcommand
func runNearby(args []string) {
	fs := flag.NewFlagSet("nearby", flag.ExitOnError)
	configFile := fs.String("config", defaultConfigPath, "Path to config file")
	region := fs.String("region", "", "State/region name of the site")
	siteNum := fs.Int("site", 0, "1-based site number within -region")
	postal := fs.String("postal", "", "Postal code to search around (instead of -region/-site)")
	format := fs.String("format", crawler.FormatText, "Output format (text, table)")
	logLevel := fs.String("loglevel", defaultLogLevel, "Log level (trace, debug, info, warn, error)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: parkfinder nearby (-region <name> -site <n> | -postal <code>) [options]\n\nOptions:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  parkfinder nearby -region michigan -site 2\n")
		fmt.Fprintf(os.Stderr, "  parkfinder nearby -postal 49931 -format table\n")
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if *postal == "" && (*region == "" || *siteNum == 0) {
		fmt.Fprintln(os.Stderr, "Error: either -postal or both -region and -site are required")
		fs.Usage()
		os.Exit(1)
	}

	os.Exit(doNearby(*configFile, *region, *siteNum, *postal, *format, *logLevel, os.Stdout, os.Stderr))
}

// doNearby resolves the origin site and prints the places around it
func doNearby(configPath, region string, siteNum int, postal, format, logLevel string, stdout, stderr io.Writer) int {
	if format != crawler.FormatText && format != formatTable {
		fmt.Fprintf(stderr, "Error: unknown output format '%s'\n", format)
		return 1
	}

	a, err := newApp(configPath, logLevel, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer a.close()

	ctx, cancel := signalContext(a.log)
	defer cancel()

	site := models.Site{PostalCode: postal, Name: postal}
	if postal == "" {
		site, err = a.siteByNumber(ctx, region, siteNum)
		if err != nil {
			return reportError(stderr, "resolving site", err)
		}
	}

	places, err := a.nearby.Nearby(ctx, site)
	if err != nil {
		return reportError(stderr, "finding nearby places", err)
	}

	if format == formatTable {
		tw := table.NewWriter()
		tw.SetOutputMirror(stdout)
		tw.SetTitle("Places near " + site.Name)
		tw.AppendHeader(table.Row{"Name", "Category", "Address", "City"})
		for _, p := range places {
			tw.AppendRow(table.Row{p.Name, p.Category, p.Address, p.City})
		}
		tw.SetStyle(table.StyleRounded)
		tw.Render()
		return 0
	}

	fmt.Fprintf(stdout, "Places near %s\n", site.Name)
	for _, p := range places {
		fmt.Fprintf(stdout, "- %s\n", p.String())
	}
	return 0
}

// runCacheKeys handles the cache-keys subcommand
func runCacheKeys(args []string) {
	fs := flag.NewFlagSet("cache-keys", flag.ExitOnError)
	configFile := fs.String("config", defaultConfigPath, "Path to config file")
	outFile := fs.String("out", "", "Write the keys to this file, one per line, instead of printing a table")
	logLevel := fs.String("loglevel", defaultLogLevel, "Log level (trace, debug, info, warn, error)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: parkfinder cache-keys [options]\n\nOptions:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	os.Exit(doCacheKeys(*configFile, *outFile, *logLevel, os.Stdout, os.Stderr))
}

// doCacheKeys lists the cached keys, or exports them to outFile
func doCacheKeys(configPath, outFile, logLevel string, stdout, stderr io.Writer) int {
	a, err := newApp(configPath, logLevel, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer a.close()

	if outFile != "" {
		if err := a.cache.WriteKeyLog(outFile); err != nil {
			return reportError(stderr, "writing key log", err)
		}
		fmt.Fprintf(stdout, "Wrote %d keys to %s\n", a.cache.Len(), outFile)
		return 0
	}

	keys, err := a.cache.ListKeys()
	if err != nil {
		return reportError(stderr, "listing cache keys", err)
	}
	tw := table.NewWriter()
	tw.SetOutputMirror(stdout)
	tw.AppendHeader(table.Row{"Namespace", "Key"})
	for _, k := range keys {
		ns := k.Namespace
		if ns == "" {
			ns = "?"
		}
		tw.AppendRow(table.Row{ns, k.Key})
	}
	tw.AppendFooter(table.Row{"Total", len(keys)})
	tw.SetStyle(table.StyleRounded)
	tw.Render()
	return 0
}

// runValidate handles the validate subcommand
func runValidate(args []string) {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	configFile := fs.String("config", defaultConfigPath, "Path to config file")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: parkfinder validate [options]\n\nOptions:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	os.Exit(doValidate(*configFile, os.Stdout, os.Stderr))
}

// doValidate performs validation and writes output to provided writers.
// Returns exit code (0 = success, 1 = error).
func doValidate(configPath string, stdout, stderr io.Writer) int {
	appCfg, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	appCfg.ApplyEnv()
	warnings, err := appCfg.Validate()
	for _, w := range warnings {
		fmt.Fprintf(stdout, "WARN: %s\n", w)
	}
	if err != nil {
		fmt.Fprintf(stderr, "ERROR: %v\n", err)
		return 1
	}

	fmt.Fprintf(stdout, "OK: base_url %s\n", appCfg.BaseURL)
	fmt.Fprintf(stdout, "OK: cache %s (%s)\n", appCfg.CacheBackend, appCfg.StateDir)
	fmt.Fprintf(stdout, "OK: proximity endpoint %s\n", appCfg.Proximity.Endpoint)
	fmt.Fprintln(stdout, "\nConfiguration valid.")
	return 0
}
