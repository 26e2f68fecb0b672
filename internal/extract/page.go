package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/visionprobe/probe-cli/internal/model"
)

// Page builds a lightweight summary of a product page for use as local web
// context. Missing fields are left empty rather than failing the summary.
func Page(html, pageURL string) model.PageSummary {
	summary := model.PageSummary{URL: pageURL}
	if html == "" {
		return summary
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return summary
	}

	summary.Title = strings.TrimSpace(doc.Find("head title").First().Text())
	if summary.Title == "" {
		summary.Title = metaContent(doc, "og:title")
	}

	summary.Description = metaContent(doc, "description")
	if summary.Description == "" {
		summary.Description = metaContent(doc, "og:description")
	}

	summary.Price = Price(html)
	return summary
}
