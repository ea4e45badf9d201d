// Package recommend turns an analysis and a set of audit scores into
// severity-bucketed, human-readable recommendations.
//
// Generate is pure and total: any well-formed Analysis/Scores pair yields
// a result, and the same pair always yields the same result. The emitted
// strings are the display contract; clients match on them verbatim.
package recommend

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/seo-insight/backend/analyzer"
	"github.com/seo-insight/backend/audit"
)

// Recommendations groups recommendation messages by severity.
type Recommendations struct {
	Critical  []string `json:"critical"`
	Important []string `json:"important"`
	Minor     []string `json:"minor"`
}

// Message templates. These are the wire format for display; changing any
// of them is a breaking change for clients.
const (
	msgAddTitle    = "Add a title tag to your page"
	msgTitleLength = "Adjust title length to be between 50-60 characters for optimal display in search results"

	msgAddMeta    = "Add a meta description to your page"
	msgMetaLength = "Adjust meta description length to be between 150-160 characters for optimal display"

	msgAddH1    = "Add an H1 heading to your page"
	msgSingleH1 = "Use only one H1 heading per page"

	msgThinContent = "Add more content to your page (aim for at least 300 words)"

	msgKeywordPlacement = "Include the keyword '%s' in your title, meta description, or headings"
	msgKeywordUnderused = "Consider increasing the usage of keyword '%s' (current density: %s%%)"
	msgKeywordOverused  = "Reduce the usage of keyword '%s' to avoid keyword stuffing (current density: %s%%)"

	msgMissingAlt = "Add alt text to %d images"

	msgNoInternalLinks = "Add internal links to improve site navigation"
	msgNoExternalLinks = "Consider adding relevant external links"

	msgPerformanceLow = "Improve page performance (current score: %.0f/100)"
	msgPerformanceMid = "Consider optimizing page performance (current score: %.0f/100)"
	msgSEOLow         = "Address technical SEO issues (current score: %.0f/100)"
	msgAccessLow      = "Improve accessibility (current score: %.0f/100)"
)

// Density thresholds, in percent. Both comparisons are strict: a density
// of exactly 0.5 or exactly 3 raises no flag.
const (
	densityUnderused = 0.5
	densityOverused  = 3
)

// Performance score tiers.
const (
	performanceCritical = 90
	performanceWarn     = 95
	categoryWarn        = 90
)

// titleState captures the mutually exclusive title conditions so each
// signal fires at most one rule.
type titleState int

const (
	titleMissing titleState = iota
	titleSuboptimal
	titleOptimal
)

func classifyTitle(m analyzer.TitleMetrics) titleState {
	switch {
	case !m.HasTitle:
		return titleMissing
	case !m.OptimalLength:
		return titleSuboptimal
	default:
		return titleOptimal
	}
}

type metaState int

const (
	metaMissing metaState = iota
	metaSuboptimal
	metaOptimal
)

func classifyMeta(m analyzer.MetaMetrics) metaState {
	switch {
	case !m.HasMeta:
		return metaMissing
	case !m.OptimalLength:
		return metaSuboptimal
	default:
		return metaOptimal
	}
}

type headingState int

const (
	headingMissing headingState = iota
	headingMultiple
	headingProper
)

func classifyHeadings(m analyzer.HeadingMetrics) headingState {
	switch {
	case m.HasProperStructure:
		return headingProper
	case m.H1Count == 0:
		return headingMissing
	case m.H1Count > 1:
		return headingMultiple
	default:
		return headingProper
	}
}

// Generate evaluates the full rule table against the analysis and audit
// scores. Buckets accumulate independently across rules; within a signal
// the states above keep the branches exclusive.
func Generate(a analyzer.Analysis, scores audit.Scores) Recommendations {
	recs := Recommendations{
		Critical:  []string{},
		Important: []string{},
		Minor:     []string{},
	}

	switch classifyTitle(a.Title) {
	case titleMissing:
		recs.Critical = append(recs.Critical, msgAddTitle)
	case titleSuboptimal:
		recs.Important = append(recs.Important, msgTitleLength)
	}

	switch classifyMeta(a.MetaDescription) {
	case metaMissing:
		recs.Critical = append(recs.Critical, msgAddMeta)
	case metaSuboptimal:
		recs.Important = append(recs.Important, msgMetaLength)
	}

	switch classifyHeadings(a.Headings) {
	case headingMissing:
		recs.Critical = append(recs.Critical, msgAddH1)
	case headingMultiple:
		recs.Important = append(recs.Important, msgSingleH1)
	}

	if !a.Content.HasSufficientContent {
		recs.Important = append(recs.Important, msgThinContent)
	}

	// Keywords are walked in sorted order so output is deterministic
	// regardless of map iteration.
	for _, keyword := range sortedKeywords(a.Keywords) {
		data := a.Keywords[keyword]
		if !data.InTitle && !data.InMeta && !data.InHeadings {
			recs.Important = append(recs.Important, fmt.Sprintf(msgKeywordPlacement, keyword))
		}
		if data.Density < densityUnderused {
			recs.Minor = append(recs.Minor, fmt.Sprintf(msgKeywordUnderused, keyword, formatDensity(data.Density)))
		} else if data.Density > densityOverused {
			recs.Important = append(recs.Important, fmt.Sprintf(msgKeywordOverused, keyword, formatDensity(data.Density)))
		}
	}

	if a.Images.MissingAltCount > 0 {
		recs.Important = append(recs.Important, fmt.Sprintf(msgMissingAlt, a.Images.MissingAltCount))
	}

	if a.Links.InternalCount == 0 {
		recs.Minor = append(recs.Minor, msgNoInternalLinks)
	}
	if a.Links.ExternalCount == 0 {
		recs.Minor = append(recs.Minor, msgNoExternalLinks)
	}

	if scores.Performance < performanceCritical {
		recs.Critical = append(recs.Critical, fmt.Sprintf(msgPerformanceLow, scores.Performance))
	} else if scores.Performance < performanceWarn {
		recs.Important = append(recs.Important, fmt.Sprintf(msgPerformanceMid, scores.Performance))
	}

	if scores.SEO < categoryWarn {
		recs.Important = append(recs.Important, fmt.Sprintf(msgSEOLow, scores.SEO))
	}

	if scores.Accessibility < categoryWarn {
		recs.Important = append(recs.Important, fmt.Sprintf(msgAccessLow, scores.Accessibility))
	}

	return recs
}

func sortedKeywords(keywords map[string]analyzer.KeywordMetrics) []string {
	if len(keywords) == 0 {
		return nil
	}
	keys := make([]string, 0, len(keywords))
	for keyword := range keywords {
		keys = append(keys, keyword)
	}
	sort.Strings(keys)
	return keys
}

// formatDensity renders a two-decimal density the way the historical
// service did: trailing zeros trimmed but never below one decimal place
// ("100.0", "2.5", "0.25").
func formatDensity(d float64) string {
	if d == math.Trunc(d) {
		return strconv.FormatFloat(d, 'f', 1, 64)
	}
	return strconv.FormatFloat(d, 'f', -1, 64)
}
