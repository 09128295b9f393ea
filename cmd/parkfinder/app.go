package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"parkfinder/pkg/config"
	"parkfinder/pkg/crawler"
	"parkfinder/pkg/extract"
	"parkfinder/pkg/fetch"
	plog "parkfinder/pkg/log"
	"parkfinder/pkg/models"
	"parkfinder/pkg/nearby"
	"parkfinder/pkg/storage"
)

const defaultConfigPath = "config.yaml"

// badgerGCInterval is how often value-log GC runs for long-lived commands
const badgerGCInterval = 10 * time.Minute

// loadConfig loads and parses the config file
func loadConfig(path string) (*config.AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg config.AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &cfg, nil
}

// loadConfigOrDefaults behaves like loadConfig, except that a missing file at
// the default location yields an empty config so the built-in defaults apply.
func loadConfigOrDefaults(path string) (*config.AppConfig, error) {
	cfg, err := loadConfig(path)
	if err != nil && path == defaultConfigPath && errors.Is(err, os.ErrNotExist) {
		return &config.AppConfig{}, nil
	}
	return cfg, err
}

// app is the wired component graph shared by every subcommand
type app struct {
	cfg      *config.AppConfig
	log      *logrus.Logger
	cache    *storage.ResourceCache
	indexer  *crawler.Indexer
	nearby   *nearby.Client
	shutdown context.CancelFunc
}

// newApp loads and validates configuration and builds the fetch, extract and
// proximity stack over one cache. Logs go to logOut.
func newApp(configPath, logLevel string, logOut io.Writer) (*app, error) {
	log := plog.New(logOut, logLevel)

	appCfg, err := loadConfigOrDefaults(configPath)
	if err != nil {
		return nil, err
	}
	appCfg.ApplyEnv()
	warnings, err := appCfg.Validate()
	for _, w := range warnings {
		log.Warn(w)
	}
	if err != nil {
		return nil, err
	}

	entry := logrus.NewEntry(log)
	cache, err := storage.Open(*appCfg, entry.WithField("component", "cache"))
	if err != nil {
		return nil, err
	}

	client := fetch.NewClient(appCfg.HTTPClientSettings, entry)
	fetchLog := entry.WithField("component", "fetcher")
	pacer := fetch.NewPacer(config.GetEffectiveRequestDelay(*appCfg), fetchLog)
	var robots *fetch.RobotsChecker
	if appCfg.RespectRobots {
		robots = fetch.NewRobotsChecker(client, appCfg.UserAgent, fetchLog)
	}
	fetcher := fetch.NewFetcher(client, cache, pacer, robots, appCfg.UserAgent, fetchLog)

	indexer, err := crawler.NewIndexer(fetcher, extract.NewNPSExtractor(entry.WithField("component", "extract")),
		appCfg.BaseURL, entry.WithField("component", "crawler"))
	if err != nil {
		cache.Close()
		return nil, err
	}

	a := &app{
		cfg:      appCfg,
		log:      log,
		cache:    cache,
		indexer:  indexer,
		nearby:   nearby.NewClient(appCfg.Proximity, cache, client, entry.WithField("component", "nearby")),
		shutdown: func() {},
	}
	return a, nil
}

// startGC runs badger value-log GC in the background until close
func (a *app) startGC() {
	bs, ok := a.cache.Store().(*storage.BadgerStore)
	if !ok {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.shutdown = cancel
	go bs.RunGC(ctx, badgerGCInterval)
}

func (a *app) close() {
	a.shutdown()
	if err := a.cache.Close(); err != nil {
		a.log.Errorf("Error closing cache: %v", err)
	}
}

// resolveRegion looks a region name up in a freshly built index
func (a *app) resolveRegion(ctx context.Context, region string) (string, error) {
	index, err := a.indexer.BuildRegionIndex(ctx)
	if err != nil {
		return "", err
	}
	regionURL, ok := index.Lookup(region)
	if !ok {
		return "", fmt.Errorf("unknown region '%s'", region)
	}
	return regionURL, nil
}

// siteByNumber returns the 1-based n-th site of a region listing
func (a *app) siteByNumber(ctx context.Context, region string, n int) (models.Site, error) {
	regionURL, err := a.resolveRegion(ctx, region)
	if err != nil {
		return models.Site{}, err
	}
	sites, err := a.indexer.ListSites(ctx, regionURL)
	if err != nil {
		return models.Site{}, err
	}
	if n < 1 || n > len(sites) {
		return models.Site{}, fmt.Errorf("site number %d out of range 1..%d", n, len(sites))
	}
	return sites[n-1], nil
}
