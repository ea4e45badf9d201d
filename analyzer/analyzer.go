// Package analyzer computes on-page SEO metrics from a page snapshot.
//
// Analyze is a pure function: no I/O, no retained state, and identical
// inputs always yield identical output. It may be called concurrently.
package analyzer

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	titleOptimalMin = 50
	titleOptimalMax = 60
	metaOptimalMin  = 150
	metaOptimalMax  = 160

	// minWordCount is the threshold below which a page is considered thin.
	minWordCount = 300
)

// wordPattern matches maximal runs of word characters (letters, digits,
// underscore). The match count over the lower-cased content is the single
// source of truth for word count and for keyword density denominators.
var wordPattern = regexp.MustCompile(`[\p{L}\p{N}_]+`)

// ErrMalformedSnapshot is returned when a snapshot is missing required
// fields. This is a contract violation by the scraper, not a property of
// the page: a page with no title still analyzes successfully.
var ErrMalformedSnapshot = errors.New("malformed page snapshot")

// Analyze computes the full metrics set for one snapshot. keywords is
// optional; when empty, the result carries no keyword metrics.
func Analyze(snap *Snapshot, keywords []string) (*Analysis, error) {
	if snap == nil {
		return nil, fmt.Errorf("%w: snapshot is nil", ErrMalformedSnapshot)
	}
	if snap.URL == "" {
		return nil, fmt.Errorf("%w: url is empty", ErrMalformedSnapshot)
	}

	loweredContent := strings.ToLower(snap.Content)
	wordCount := len(wordPattern.FindAllStringIndex(loweredContent, -1))

	analysis := &Analysis{
		Title:           analyzeTitle(snap.Title),
		MetaDescription: analyzeMeta(snap.MetaDescription),
		Headings:        analyzeHeadings(snap.Headings),
		Content: ContentMetrics{
			WordCount:            wordCount,
			HasSufficientContent: wordCount >= minWordCount,
		},
		Links:  analyzeLinks(snap.URL, snap.Links),
		Images: analyzeImages(snap.Images),
	}

	if len(keywords) > 0 {
		analysis.Keywords = analyzeKeywords(snap, loweredContent, wordCount, keywords)
	}

	return analysis, nil
}

func analyzeTitle(title string) TitleMetrics {
	length := utf8.RuneCountInString(title)
	return TitleMetrics{
		Length:        length,
		HasTitle:      title != "",
		OptimalLength: title != "" && length >= titleOptimalMin && length <= titleOptimalMax,
	}
}

func analyzeMeta(desc string) MetaMetrics {
	length := utf8.RuneCountInString(desc)
	return MetaMetrics{
		Length:        length,
		HasMeta:       desc != "",
		OptimalLength: desc != "" && length >= metaOptimalMin && length <= metaOptimalMax,
	}
}

func analyzeHeadings(h Headings) HeadingMetrics {
	return HeadingMetrics{
		H1Count:            len(h.H1),
		H2Count:            len(h.H2),
		H3Count:            len(h.H3),
		HasProperStructure: len(h.H1) == 1,
	}
}

// analyzeKeywords counts case-insensitive substring occurrences of each
// keyword in the body text. Substring counting is deliberate: a keyword
// inside a larger word still counts. Keys preserve the caller's casing.
func analyzeKeywords(snap *Snapshot, loweredContent string, wordCount int, keywords []string) map[string]KeywordMetrics {
	loweredTitle := strings.ToLower(snap.Title)
	loweredMeta := strings.ToLower(snap.MetaDescription)

	result := make(map[string]KeywordMetrics, len(keywords))
	for _, keyword := range keywords {
		lowered := strings.ToLower(keyword)
		count := strings.Count(loweredContent, lowered)

		density := 0.0
		if wordCount > 0 {
			density = round2(float64(count) / float64(wordCount) * 100)
		}

		result[keyword] = KeywordMetrics{
			Count:      count,
			Density:    density,
			InTitle:    strings.Contains(loweredTitle, lowered),
			InMeta:     strings.Contains(loweredMeta, lowered),
			InHeadings: inAnyHeading(snap.Headings, lowered),
		}
	}
	return result
}

func inAnyHeading(h Headings, loweredKeyword string) bool {
	for _, level := range [][]string{h.H1, h.H2, h.H3} {
		for _, heading := range level {
			if strings.Contains(strings.ToLower(heading), loweredKeyword) {
				return true
			}
		}
	}
	return false
}

// analyzeLinks classifies each link independently. Internal means the href
// starts with "/" or with the page's own URL; external means it starts
// with "http". An absolute href under the page's own http(s) URL therefore
// counts as both - that overlap is part of the published rule set and is
// kept as-is.
func analyzeLinks(pageURL string, links []Link) LinkMetrics {
	metrics := LinkMetrics{TotalCount: len(links)}
	for _, link := range links {
		if strings.HasPrefix(link.Href, "/") || strings.HasPrefix(link.Href, pageURL) {
			metrics.InternalCount++
		}
		if strings.HasPrefix(link.Href, "http") {
			metrics.ExternalCount++
		}
	}
	return metrics
}

func analyzeImages(images []Image) ImageMetrics {
	metrics := ImageMetrics{TotalCount: len(images)}
	for _, img := range images {
		if img.Alt == "" {
			metrics.MissingAltCount++
		}
	}
	return metrics
}

// round2 rounds to two decimal places, ties away from zero.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
