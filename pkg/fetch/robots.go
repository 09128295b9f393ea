package fetch

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/temoto/robotstxt"
)

// RobotsChecker fetches, parses and caches robots.txt per host
type RobotsChecker struct {
	client      *http.Client
	userAgent   string
	robotsCache map[string]*robotstxt.RobotsData // host -> parsed data (nil when unavailable)
	mu          sync.Mutex
	log         *logrus.Entry
}

// NewRobotsChecker creates a RobotsChecker
func NewRobotsChecker(client *http.Client, userAgent string, log *logrus.Entry) *RobotsChecker {
	return &RobotsChecker{
		client:      client,
		userAgent:   userAgent,
		robotsCache: make(map[string]*robotstxt.RobotsData),
		log:         log,
	}
}

// robotsData returns the cached rules for the target's host, fetching them once.
// Any failure is cached as nil.
func (rc *RobotsChecker) robotsData(ctx context.Context, target *url.URL) *robotstxt.RobotsData {
	host := target.Host

	rc.mu.Lock()
	data, found := rc.robotsCache[host]
	rc.mu.Unlock()
	if found {
		return data
	}

	scheme := target.Scheme
	if scheme != "http" && scheme != "https" {
		scheme = "https"
	}
	robotsURL := (&url.URL{Scheme: scheme, Host: host, Path: "/robots.txt"}).String()
	robotsLog := rc.log.WithField("robots_url", robotsURL)
	robotsLog.Info("Fetching robots.txt...")

	data = rc.fetchRobots(ctx, robotsURL, robotsLog)

	rc.mu.Lock()
	rc.robotsCache[host] = data
	rc.mu.Unlock()
	return data
}

func (rc *RobotsChecker) fetchRobots(ctx context.Context, robotsURL string, robotsLog *logrus.Entry) *robotstxt.RobotsData {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		robotsLog.Errorf("Error creating request: %v", err)
		return nil
	}
	if rc.userAgent != "" {
		req.Header.Set("User-Agent", rc.userAgent)
	}

	resp, err := rc.client.Do(req)
	if err != nil {
		robotsLog.Warnf("Fetching robots.txt failed: %v", err)
		return nil
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		robotsLog.Warnf("Error reading body: %v", err)
		return nil
	}

	// FromStatusAndBytes treats 4xx as allow-all and 5xx as disallow-all
	data, err := robotstxt.FromStatusAndBytes(resp.StatusCode, body)
	if err != nil {
		robotsLog.Warnf("Error parsing content: %v", err)
		return nil
	}
	robotsLog.WithField("status_code", resp.StatusCode).Debug("Parsed robots.txt")
	return data
}

// Allowed reports whether target may be fetched. Missing rules allow everything.
func (rc *RobotsChecker) Allowed(ctx context.Context, target *url.URL) bool {
	data := rc.robotsData(ctx, target)
	if data == nil {
		return true
	}
	agent := rc.userAgent
	if agent == "" {
		agent = "*"
	}
	return data.TestAgent(target.RequestURI(), agent)
}
