// Package stats collects lightweight usage statistics for the service:
// unique visitors, analysis counts, error rate, average pipeline time and
// the most-analyzed pages. Statistics persist across restarts via a JSON
// file in the data directory.
package stats

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// persistedStats is the on-disk shape of the tracker state.
type persistedStats struct {
	UniqueVisitors   map[string]time.Time `json:"uniqueVisitors"`
	AnalysisRequests int                  `json:"analysisRequests"`
	ErrorCount       int                  `json:"errorCount"`
	PopularURLs      map[string]int       `json:"popularUrls"`
	TotalDuration    float64              `json:"totalDuration"`
	DurationSamples  int                  `json:"durationSamples"`
	LastPersisted    time.Time            `json:"lastPersisted"`
}

// Tracker accumulates usage statistics. Safe for concurrent use.
type Tracker struct {
	mutex    sync.RWMutex
	filePath string
	devMode  bool
	state    persistedStats
}

// NewTracker loads any existing statistics file from the data directory.
// devMode controls how much detail Snapshot exposes.
func NewTracker(dataDir string, devMode bool) (*Tracker, error) {
	t := &Tracker{
		filePath: filepath.Join(dataDir, "statistics.json"),
		devMode:  devMode,
		state: persistedStats{
			UniqueVisitors: make(map[string]time.Time),
			PopularURLs:    make(map[string]int),
		},
	}
	if err := t.load(); err != nil {
		return nil, err
	}
	return t, nil
}

// TrackVisitor records a request from the given IP.
func (t *Tracker) TrackVisitor(ip string) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	t.state.UniqueVisitors[ip] = time.Now()
}

// TrackAnalysis records one analysis run against a target page.
func (t *Tracker) TrackAnalysis(target string, durationMs float64, failed bool) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	t.state.AnalysisRequests++
	if failed {
		t.state.ErrorCount++
	}

	if cleaned := cleanTarget(target); cleaned != "" {
		t.state.PopularURLs[cleaned]++
	}

	t.state.TotalDuration += durationMs
	t.state.DurationSamples++
}

// cleanTarget reduces an analyzed URL to scheme://host/path and drops
// local addresses so the popular list only contains real pages.
func cleanTarget(target string) string {
	u, err := url.Parse(target)
	if err != nil || u.Host == "" {
		return ""
	}
	if strings.Contains(u.Host, "localhost") || strings.Contains(u.Host, "127.0.0.1") {
		return ""
	}

	cleaned := u.Scheme + "://" + u.Host
	if u.Path != "" && u.Path != "/" {
		cleaned += u.Path
	}
	return strings.TrimSuffix(cleaned, "/")
}

// UniqueVisitors24h counts visitors seen in the last 24 hours.
func (t *Tracker) UniqueVisitors24h() int {
	t.mutex.RLock()
	defer t.mutex.RUnlock()

	cutoff := time.Now().Add(-24 * time.Hour)
	count := 0
	for _, lastVisit := range t.state.UniqueVisitors {
		if lastVisit.After(cutoff) {
			count++
		}
	}
	return count
}

// ErrorRate returns the failed-analysis percentage.
func (t *Tracker) ErrorRate() float64 {
	t.mutex.RLock()
	defer t.mutex.RUnlock()

	if t.state.AnalysisRequests == 0 {
		return 0
	}
	return float64(t.state.ErrorCount) / float64(t.state.AnalysisRequests) * 100
}

// AverageDuration returns the mean pipeline time in milliseconds.
func (t *Tracker) AverageDuration() float64 {
	t.mutex.RLock()
	defer t.mutex.RUnlock()

	if t.state.DurationSamples == 0 {
		return 0
	}
	return t.state.TotalDuration / float64(t.state.DurationSamples)
}

// popularURLs returns up to n entries from the popularity map.
func (t *Tracker) popularURLs(n int) map[string]int {
	t.mutex.RLock()
	defer t.mutex.RUnlock()

	result := make(map[string]int, n)
	for target, count := range t.state.PopularURLs {
		if len(result) >= n {
			break
		}
		result[target] = count
	}
	return result
}

// Snapshot returns the stats payload for the statistics endpoint. The
// popular-URL detail is only exposed in dev mode.
func (t *Tracker) Snapshot() map[string]interface{} {
	snapshot := map[string]interface{}{
		"uniqueVisitors24h": t.UniqueVisitors24h(),
		"totalRequests":     t.totalRequests(),
		"errorRate":         t.ErrorRate(),
		"averageDuration":   t.AverageDuration(),
	}
	if t.devMode {
		snapshot["popularUrls"] = t.popularURLs(5)
	}
	return snapshot
}

func (t *Tracker) totalRequests() int {
	t.mutex.RLock()
	defer t.mutex.RUnlock()
	return t.state.AnalysisRequests
}

// Save persists the statistics file.
func (t *Tracker) Save() error {
	t.mutex.Lock()
	t.state.LastPersisted = time.Now()
	data, err := json.Marshal(t.state)
	t.mutex.Unlock()
	if err != nil {
		return fmt.Errorf("could not encode statistics: %w", err)
	}

	if err := os.WriteFile(t.filePath, data, 0644); err != nil {
		return fmt.Errorf("could not write statistics file: %w", err)
	}
	return nil
}

func (t *Tracker) load() error {
	data, err := os.ReadFile(t.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("could not read statistics file: %w", err)
	}

	if err := json.Unmarshal(data, &t.state); err != nil {
		return fmt.Errorf("could not decode statistics: %w", err)
	}
	if t.state.UniqueVisitors == nil {
		t.state.UniqueVisitors = make(map[string]time.Time)
	}
	if t.state.PopularURLs == nil {
		t.state.PopularURLs = make(map[string]int)
	}
	return nil
}
