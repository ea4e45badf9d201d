package recommend

import (
	"reflect"
	"strings"
	"testing"

	"github.com/seo-insight/backend/analyzer"
	"github.com/seo-insight/backend/audit"
)

func contains(list []string, msg string) bool {
	for _, entry := range list {
		if entry == msg {
			return true
		}
	}
	return false
}

func containsPrefix(list []string, prefix string) bool {
	for _, entry := range list {
		if strings.HasPrefix(entry, prefix) {
			return true
		}
	}
	return false
}

func goodScores() audit.Scores {
	return audit.Scores{Performance: 100, SEO: 100, Accessibility: 100, BestPractices: 100}
}

// optimalAnalysis is a page with nothing to complain about.
func optimalAnalysis() analyzer.Analysis {
	return analyzer.Analysis{
		Title:           analyzer.TitleMetrics{Length: 55, HasTitle: true, OptimalLength: true},
		MetaDescription: analyzer.MetaMetrics{Length: 155, HasMeta: true, OptimalLength: true},
		Headings:        analyzer.HeadingMetrics{H1Count: 1, H2Count: 2, HasProperStructure: true},
		Content:         analyzer.ContentMetrics{WordCount: 500, HasSufficientContent: true},
		Links:           analyzer.LinkMetrics{InternalCount: 3, ExternalCount: 2, TotalCount: 5},
		Images:          analyzer.ImageMetrics{TotalCount: 2, MissingAltCount: 0},
	}
}

func TestGenerateCleanPage(t *testing.T) {
	recs := Generate(optimalAnalysis(), goodScores())

	if len(recs.Critical) != 0 || len(recs.Important) != 0 || len(recs.Minor) != 0 {
		t.Errorf("Optimal page should yield no recommendations, got %+v", recs)
	}
	if recs.Critical == nil || recs.Important == nil || recs.Minor == nil {
		t.Error("Buckets should be empty slices, not nil")
	}
}

func TestGenerateEmptyPage(t *testing.T) {
	analysis, err := analyzer.Analyze(&analyzer.Snapshot{URL: "https://x.com"}, nil)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	recs := Generate(*analysis, audit.Scores{Performance: 50, SEO: 50, Accessibility: 50, BestPractices: 50})

	expectedCritical := []string{
		"Add a title tag to your page",
		"Add a meta description to your page",
		"Add an H1 heading to your page",
		"Improve page performance (current score: 50/100)",
	}
	if !reflect.DeepEqual(recs.Critical, expectedCritical) {
		t.Errorf("Critical bucket mismatch:\ngot  %v\nwant %v", recs.Critical, expectedCritical)
	}

	expectedImportant := []string{
		"Add more content to your page (aim for at least 300 words)",
		"Address technical SEO issues (current score: 50/100)",
		"Improve accessibility (current score: 50/100)",
	}
	if !reflect.DeepEqual(recs.Important, expectedImportant) {
		t.Errorf("Important bucket mismatch:\ngot  %v\nwant %v", recs.Important, expectedImportant)
	}

	expectedMinor := []string{
		"Add internal links to improve site navigation",
		"Consider adding relevant external links",
	}
	if !reflect.DeepEqual(recs.Minor, expectedMinor) {
		t.Errorf("Minor bucket mismatch:\ngot  %v\nwant %v", recs.Minor, expectedMinor)
	}
}

func TestTitleRulesAreExclusive(t *testing.T) {
	a := optimalAnalysis()
	a.Title = analyzer.TitleMetrics{Length: 10, HasTitle: true, OptimalLength: false}

	recs := Generate(a, goodScores())

	if contains(recs.Critical, "Add a title tag to your page") {
		t.Error("Present title must not trigger the missing-title rule")
	}
	if !contains(recs.Important, "Adjust title length to be between 50-60 characters for optimal display in search results") {
		t.Errorf("Expected title-length recommendation, got %v", recs.Important)
	}
}

func TestMetaRulesAreExclusive(t *testing.T) {
	a := optimalAnalysis()
	a.MetaDescription = analyzer.MetaMetrics{Length: 80, HasMeta: true, OptimalLength: false}

	recs := Generate(a, goodScores())

	if contains(recs.Critical, "Add a meta description to your page") {
		t.Error("Present meta must not trigger the missing-meta rule")
	}
	if !contains(recs.Important, "Adjust meta description length to be between 150-160 characters for optimal display") {
		t.Errorf("Expected meta-length recommendation, got %v", recs.Important)
	}
}

func TestMultipleH1(t *testing.T) {
	a := optimalAnalysis()
	a.Headings = analyzer.HeadingMetrics{H1Count: 3, HasProperStructure: false}

	recs := Generate(a, goodScores())

	if contains(recs.Critical, "Add an H1 heading to your page") {
		t.Error("Multiple H1s must not trigger the missing-H1 rule")
	}
	if !contains(recs.Important, "Use only one H1 heading per page") {
		t.Errorf("Expected single-H1 recommendation, got %v", recs.Important)
	}
}

func TestKeywordDensityBoundaries(t *testing.T) {
	cases := []struct {
		density   float64
		underused bool
		overused  bool
	}{
		{0.49, true, false},
		{0.5, false, false}, // strict: exactly 0.5 raises nothing
		{3, false, false},   // strict: exactly 3 raises nothing
		{3.01, false, true},
	}

	for _, tc := range cases {
		a := optimalAnalysis()
		a.Keywords = map[string]analyzer.KeywordMetrics{
			"go": {Count: 1, Density: tc.density, InTitle: true},
		}

		recs := Generate(a, goodScores())

		if got := containsPrefix(recs.Minor, "Consider increasing the usage of keyword 'go'"); got != tc.underused {
			t.Errorf("Density %v: underused=%v, expected %v", tc.density, got, tc.underused)
		}
		if got := containsPrefix(recs.Important, "Reduce the usage of keyword 'go'"); got != tc.overused {
			t.Errorf("Density %v: overused=%v, expected %v", tc.density, got, tc.overused)
		}
	}
}

func TestKeywordAbsentEverywhere(t *testing.T) {
	a := optimalAnalysis()
	a.Keywords = map[string]analyzer.KeywordMetrics{
		"go": {Count: 0, Density: 0},
	}

	recs := Generate(a, goodScores())

	if !contains(recs.Important, "Include the keyword 'go' in your title, meta description, or headings") {
		t.Errorf("Expected placement recommendation, got %v", recs.Important)
	}
	// A zero density also triggers the under-used rule; absence does not
	// exempt the keyword from density checks.
	if !contains(recs.Minor, "Consider increasing the usage of keyword 'go' (current density: 0.0%)") {
		t.Errorf("Expected under-used recommendation alongside placement, got %v", recs.Minor)
	}
}

func TestKeywordOverusedMessage(t *testing.T) {
	a := optimalAnalysis()
	a.Keywords = map[string]analyzer.KeywordMetrics{
		"seo": {Count: 3, Density: 100.0, InTitle: true},
	}

	recs := Generate(a, goodScores())

	want := "Reduce the usage of keyword 'seo' to avoid keyword stuffing (current density: 100.0%)"
	if !contains(recs.Important, want) {
		t.Errorf("Expected %q, got %v", want, recs.Important)
	}
	if containsPrefix(recs.Minor, "Consider increasing the usage of keyword 'seo'") {
		t.Error("Over-used keyword must not also be flagged under-used")
	}
}

func TestKeywordOrderIsDeterministic(t *testing.T) {
	a := optimalAnalysis()
	a.Keywords = map[string]analyzer.KeywordMetrics{
		"zebra": {Density: 1, InTitle: true},
		"alpha": {Density: 0.1, InTitle: true},
		"mango": {Density: 0.2, InTitle: true},
	}

	expected := []string{
		"Consider increasing the usage of keyword 'alpha' (current density: 0.1%)",
		"Consider increasing the usage of keyword 'mango' (current density: 0.2%)",
	}

	for i := 0; i < 10; i++ {
		recs := Generate(a, goodScores())
		if !reflect.DeepEqual(recs.Minor, expected) {
			t.Fatalf("Keyword order not deterministic: got %v", recs.Minor)
		}
	}
}

func TestNoKeywordMessagesWithoutKeywords(t *testing.T) {
	recs := Generate(optimalAnalysis(), audit.Scores{Performance: 10, SEO: 10, Accessibility: 10})

	for _, bucket := range [][]string{recs.Critical, recs.Important, recs.Minor} {
		for _, msg := range bucket {
			if strings.Contains(msg, "keyword") {
				t.Errorf("Keyword recommendation emitted without keywords: %q", msg)
			}
		}
	}
}

func TestMissingAltText(t *testing.T) {
	a := optimalAnalysis()
	a.Images = analyzer.ImageMetrics{TotalCount: 5, MissingAltCount: 4}

	recs := Generate(a, goodScores())
	if !contains(recs.Important, "Add alt text to 4 images") {
		t.Errorf("Expected alt-text recommendation, got %v", recs.Important)
	}
}

func TestPerformanceTiers(t *testing.T) {
	cases := []struct {
		score     float64
		critical  bool
		important bool
	}{
		{89, true, false},
		{90, false, true},
		{94, false, true},
		{95, false, false},
	}

	for _, tc := range cases {
		scores := goodScores()
		scores.Performance = tc.score

		recs := Generate(optimalAnalysis(), scores)

		if got := containsPrefix(recs.Critical, "Improve page performance"); got != tc.critical {
			t.Errorf("Performance %v: critical=%v, expected %v", tc.score, got, tc.critical)
		}
		if got := containsPrefix(recs.Important, "Consider optimizing page performance"); got != tc.important {
			t.Errorf("Performance %v: important=%v, expected %v", tc.score, got, tc.important)
		}
	}
}

func TestAuditScoreFormatting(t *testing.T) {
	scores := audit.Scores{Performance: 87.4, SEO: 72, Accessibility: 89.6, BestPractices: 100}

	recs := Generate(optimalAnalysis(), scores)

	if !contains(recs.Critical, "Improve page performance (current score: 87/100)") {
		t.Errorf("Expected rounded performance score, got %v", recs.Critical)
	}
	if !contains(recs.Important, "Address technical SEO issues (current score: 72/100)") {
		t.Errorf("Expected SEO recommendation, got %v", recs.Important)
	}
	if !contains(recs.Important, "Improve accessibility (current score: 90/100)") {
		t.Errorf("Expected rounded accessibility score, got %v", recs.Important)
	}
}

func TestFormatDensity(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{100, "100.0"},
		{0, "0.0"},
		{2.5, "2.5"},
		{0.25, "0.25"},
		{33.33, "33.33"},
	}

	for _, tc := range cases {
		if got := formatDensity(tc.in); got != tc.want {
			t.Errorf("formatDensity(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
