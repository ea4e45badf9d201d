// Package scraper fetches a page and distills it into an analyzer.Snapshot.
// All network concerns (timeouts, status handling, encoding) stop here;
// the analyzer only ever sees well-formed snapshots.
package scraper

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/seo-insight/backend/analyzer"
)

const userAgent = "SEOInsight/1.0"

type cacheEntry struct {
	snapshot  *analyzer.Snapshot
	timestamp time.Time
}

// Scraper fetches and parses pages. Snapshots are cached per URL for a
// short TTL so repeated analyses of the same page do not refetch it.
type Scraper struct {
	client       *http.Client
	cache        map[string]cacheEntry
	cacheMutex   sync.RWMutex
	cacheTTL     time.Duration
	maxCacheSize int
}

// New creates a Scraper with a pooled, keep-alive HTTP client.
func New() *Scraper {
	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}

	return &Scraper{
		client: &http.Client{
			Timeout:   15 * time.Second,
			Transport: transport,
		},
		cache:        make(map[string]cacheEntry),
		cacheTTL:     30 * time.Minute,
		maxCacheSize: 1000,
	}
}

// SetCacheTTL overrides the snapshot cache TTL.
func (s *Scraper) SetCacheTTL(ttl time.Duration) {
	s.cacheMutex.Lock()
	defer s.cacheMutex.Unlock()
	s.cacheTTL = ttl
}

// Fetch retrieves the URL and extracts its snapshot. Responses with status
// 400 or above are errors.
func (s *Scraper) Fetch(ctx context.Context, url string) (*analyzer.Snapshot, error) {
	s.cacheMutex.RLock()
	if entry, found := s.cache[url]; found && time.Since(entry.timestamp) < s.cacheTTL {
		s.cacheMutex.RUnlock()
		return entry.snapshot, nil
	}
	s.cacheMutex.RUnlock()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("scrape %s: build request: %w", url, err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("scrape %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("scrape %s: HTTP %d", url, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("scrape %s: parse HTML: %w", url, err)
	}

	snapshot := snapshotFromDocument(doc, url)

	s.cacheMutex.Lock()
	if len(s.cache) >= s.maxCacheSize {
		s.evictOldestLocked()
	}
	s.cache[url] = cacheEntry{snapshot: snapshot, timestamp: time.Now()}
	s.cacheMutex.Unlock()

	return snapshot, nil
}

// evictOldestLocked removes the oldest cache entry. Caller holds the lock.
func (s *Scraper) evictOldestLocked() {
	var oldestKey string
	var oldestTime time.Time
	for key, entry := range s.cache {
		if oldestKey == "" || entry.timestamp.Before(oldestTime) {
			oldestKey = key
			oldestTime = entry.timestamp
		}
	}
	if oldestKey != "" {
		delete(s.cache, oldestKey)
	}
}
