// Package audit obtains external page-quality scores by invoking the
// Lighthouse CLI.
package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"time"
)

// Scores are the four Lighthouse category scores, each in [0,100].
type Scores struct {
	Performance   float64 `json:"performance"`
	SEO           float64 `json:"seo"`
	Accessibility float64 `json:"accessibility"`
	BestPractices float64 `json:"bestPractices"`
}

// ErrInvalidScores marks scores outside the [0,100] contract.
var ErrInvalidScores = errors.New("audit scores out of range")

// Validate checks that every score is within [0,100].
func (s Scores) Validate() error {
	for _, check := range []struct {
		name  string
		value float64
	}{
		{"performance", s.Performance},
		{"seo", s.SEO},
		{"accessibility", s.Accessibility},
		{"bestPractices", s.BestPractices},
	} {
		if check.value < 0 || check.value > 100 {
			return fmt.Errorf("%w: %s=%g", ErrInvalidScores, check.name, check.value)
		}
	}
	return nil
}

// Runner executes Lighthouse audits against a URL.
type Runner struct {
	binary  string
	timeout time.Duration
}

// NewRunner creates a Runner using the given lighthouse binary. An empty
// binary falls back to "lighthouse" on PATH.
func NewRunner(binary string, timeout time.Duration) *Runner {
	if binary == "" {
		binary = "lighthouse"
	}
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	return &Runner{binary: binary, timeout: timeout}
}

// Run audits the URL and returns its category scores.
func (r *Runner) Run(ctx context.Context, url string) (Scores, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, r.binary, url,
		"--output=json",
		"--quiet",
		"--only-categories=performance,seo,accessibility,best-practices",
		"--chrome-flags=--headless --no-sandbox")

	output, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return Scores{}, fmt.Errorf("lighthouse failed for %s: %w: %s", url, err, exitErr.Stderr)
		}
		return Scores{}, fmt.Errorf("lighthouse failed for %s: %w", url, err)
	}

	return parseReport(output)
}

// lighthouseReport is the subset of the Lighthouse JSON output we consume.
// Category scores come back in [0,1]; a null score means the category
// could not be computed.
type lighthouseReport struct {
	Categories map[string]struct {
		Score *float64 `json:"score"`
	} `json:"categories"`
}

func parseReport(data []byte) (Scores, error) {
	var report lighthouseReport
	if err := json.Unmarshal(data, &report); err != nil {
		return Scores{}, fmt.Errorf("parse lighthouse report: %w", err)
	}

	scores := Scores{}
	for category, target := range map[string]*float64{
		"performance":    &scores.Performance,
		"seo":            &scores.SEO,
		"accessibility":  &scores.Accessibility,
		"best-practices": &scores.BestPractices,
	} {
		entry, ok := report.Categories[category]
		if !ok || entry.Score == nil {
			return Scores{}, fmt.Errorf("lighthouse report missing %s score", category)
		}
		*target = *entry.Score * 100
	}

	if err := scores.Validate(); err != nil {
		return Scores{}, err
	}
	return scores, nil
}
