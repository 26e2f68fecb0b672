// Package extract pulls structured product signals (price, representative
// image, page summary) out of raw page markup using ordered fallback tiers.
// The first tier that yields a value wins; a miss on every tier is a normal
// outcome, not an error.
package extract

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/visionprobe/probe-cli/internal/model"
)

// priceRe matches a currency symbol immediately followed by a decimal-
// formatted number, e.g. "$1,299.00" or "₹499".
var priceRe = regexp.MustCompile(`(?:₹|\$|€|£)\s?([0-9]{1,3}(?:,[0-9]{3})*(?:\.[0-9]{1,2})?)`)

// Price extracts a single product price from HTML. Tier precedence:
// product meta tags, then JSON-LD price nodes, then the symbol-number regex.
// Returns nil when no tier matches.
func Price(html string) *model.PriceInfo {
	if html == "" {
		return nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return priceFromRegex(html)
	}

	if p := priceFromMeta(doc); p != nil {
		return p
	}
	if p := priceFromJSONLD(doc); p != nil {
		return p
	}
	return priceFromRegex(html)
}

func priceFromMeta(doc *goquery.Document) *model.PriceInfo {
	amount := metaContent(doc, "product:price:amount")
	if amount == "" {
		return nil
	}
	currency := metaContent(doc, "product:price:currency")
	return &model.PriceInfo{
		Display:  displayPrice(amount, currency),
		Amount:   amount,
		Currency: currency,
		Source:   model.PriceSourceMeta,
	}
}

func priceFromJSONLD(doc *goquery.Document) *model.PriceInfo {
	for _, block := range jsonLDBlocks(doc) {
		v, ok := findField(block, "price", "offers")
		if !ok {
			continue
		}
		amount := stringify(v)
		if amount == "" {
			continue
		}
		currency := siblingString(block, "price", "priceCurrency", "offers")
		return &model.PriceInfo{
			Display:  displayPrice(amount, currency),
			Amount:   amount,
			Currency: currency,
			Source:   model.PriceSourceJSONLD,
		}
	}
	return nil
}

func priceFromRegex(html string) *model.PriceInfo {
	m := priceRe.FindStringSubmatch(html)
	if m == nil {
		return nil
	}
	return &model.PriceInfo{
		Display: strings.TrimSpace(m[0]),
		Amount:  m[1],
		// The symbol is not normalized to an ISO code, so currency stays empty.
		Source: model.PriceSourceRegex,
	}
}

// metaContent returns the content attribute of a meta tag matched by either
// its property or name attribute.
func metaContent(doc *goquery.Document, key string) string {
	sel := fmt.Sprintf(`meta[property=%q], meta[name=%q]`, key, key)
	content, _ := doc.Find(sel).First().Attr("content")
	return strings.TrimSpace(content)
}

func displayPrice(amount, currency string) string {
	if currency == "" {
		return amount
	}
	return currency + " " + amount
}

// stringify renders a scalar JSON value as a string. Prices appear in the
// wild as both strings and numbers.
func stringify(v any) string {
	switch n := v.(type) {
	case string:
		return strings.TrimSpace(n)
	case float64:
		if n == float64(int64(n)) {
			return fmt.Sprintf("%d", int64(n))
		}
		return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.2f", n), "0"), ".")
	default:
		return ""
	}
}
