package scraper

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/seo-insight/backend/analyzer"
)

// snapshotFromDocument extracts the SEO-relevant features from a parsed
// document. Extraction rules:
//
//   - headings are trimmed, kept in document order
//   - body text is taken after removing script/style subtrees, with
//     whitespace collapsed to single spaces
//   - anchors are kept only with a non-empty href and non-empty text
//   - images are kept only with a src attribute; alt defaults to ""
func snapshotFromDocument(doc *goquery.Document, pageURL string) *analyzer.Snapshot {
	snap := &analyzer.Snapshot{
		URL:   pageURL,
		Title: doc.Find("title").First().Text(),
	}

	snap.MetaDescription, _ = doc.Find(`meta[name="description"]`).Attr("content")

	snap.Headings = analyzer.Headings{
		H1: headingTexts(doc, "h1"),
		H2: headingTexts(doc, "h2"),
		H3: headingTexts(doc, "h3"),
	}

	doc.Find("script, style").Remove()
	snap.Content = strings.Join(strings.Fields(doc.Text()), " ")

	doc.Find("a").Each(func(_ int, sel *goquery.Selection) {
		href, hasHref := sel.Attr("href")
		text := strings.TrimSpace(sel.Text())
		if hasHref && href != "" && text != "" {
			snap.Links = append(snap.Links, analyzer.Link{Href: href, Text: text})
		}
	})

	doc.Find("img").Each(func(_ int, sel *goquery.Selection) {
		src, hasSrc := sel.Attr("src")
		if !hasSrc {
			return
		}
		alt := sel.AttrOr("alt", "")
		snap.Images = append(snap.Images, analyzer.Image{Src: src, Alt: alt})
	})

	return snap
}

// headingTexts returns the trimmed text of every element matching the
// selector, in document order.
func headingTexts(doc *goquery.Document, selector string) []string {
	var texts []string
	doc.Find(selector).Each(func(_ int, sel *goquery.Selection) {
		texts = append(texts, strings.TrimSpace(sel.Text()))
	})
	return texts
}
