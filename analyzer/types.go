package analyzer

// Snapshot is the structured extraction of a single page's SEO-relevant
// features, produced by the scraper. It is the analyzer's only input; the
// analyzer never touches the network itself.
type Snapshot struct {
	URL             string   `json:"url"`
	Title           string   `json:"title"`
	MetaDescription string   `json:"metaDescription"`
	Headings        Headings `json:"headings"`
	Content         string   `json:"content"`
	Links           []Link   `json:"links"`
	Images          []Image  `json:"images"`
}

// Headings holds the heading texts per level, in document order.
type Headings struct {
	H1 []string `json:"h1"`
	H2 []string `json:"h2"`
	H3 []string `json:"h3"`
}

// Link is an anchor with a non-empty href and non-empty text.
type Link struct {
	Href string `json:"href"`
	Text string `json:"text"`
}

// Image is an img element with a src attribute. Alt may be empty.
type Image struct {
	Src string `json:"src"`
	Alt string `json:"alt"`
}

// Analysis is the complete set of on-page metrics for one snapshot.
type Analysis struct {
	Title           TitleMetrics              `json:"title"`
	MetaDescription MetaMetrics               `json:"metaDescription"`
	Headings        HeadingMetrics            `json:"headings"`
	Content         ContentMetrics            `json:"content"`
	Keywords        map[string]KeywordMetrics `json:"keywords,omitempty"`
	Links           LinkMetrics               `json:"links"`
	Images          ImageMetrics              `json:"images"`
}

type TitleMetrics struct {
	Length        int  `json:"length"`
	HasTitle      bool `json:"hasTitle"`
	OptimalLength bool `json:"optimalLength"`
}

type MetaMetrics struct {
	Length        int  `json:"length"`
	HasMeta       bool `json:"hasMeta"`
	OptimalLength bool `json:"optimalLength"`
}

type HeadingMetrics struct {
	H1Count            int  `json:"h1Count"`
	H2Count            int  `json:"h2Count"`
	H3Count            int  `json:"h3Count"`
	HasProperStructure bool `json:"hasProperStructure"`
}

type ContentMetrics struct {
	WordCount            int  `json:"wordCount"`
	HasSufficientContent bool `json:"hasSufficientContent"`
}

// KeywordMetrics describes how one target keyword is used on the page.
// Density is the occurrence count normalized by total word count, as a
// percentage rounded to two decimals.
type KeywordMetrics struct {
	Count      int     `json:"count"`
	Density    float64 `json:"density"`
	InTitle    bool    `json:"inTitle"`
	InMeta     bool    `json:"inMeta"`
	InHeadings bool    `json:"inHeadings"`
}

type LinkMetrics struct {
	InternalCount int `json:"internalCount"`
	ExternalCount int `json:"externalCount"`
	TotalCount    int `json:"totalCount"`
}

type ImageMetrics struct {
	TotalCount      int `json:"totalCount"`
	MissingAltCount int `json:"missingAltCount"`
}
