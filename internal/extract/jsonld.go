package extract

import (
	"encoding/json"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// jsonLDBlocks parses every <script type="application/ld+json"> block in the
// document. Blocks that are not valid JSON are skipped.
func jsonLDBlocks(doc *goquery.Document) []any {
	var blocks []any
	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, s *goquery.Selection) {
		blob := strings.TrimSpace(s.Text())
		if blob == "" {
			return
		}
		var payload any
		if err := json.Unmarshal([]byte(blob), &payload); err != nil {
			return
		}
		blocks = append(blocks, payload)
	})
	return blocks
}

// findField walks an arbitrarily nested JSON document depth-first and returns
// the value of the first node carrying the given field. When a node has a
// "preferKey" child (e.g. an offers object for prices), that subtree is
// searched before the node's remaining children.
func findField(node any, field, preferKey string) (any, bool) {
	switch n := node.(type) {
	case map[string]any:
		if preferKey != "" {
			if sub, ok := n[preferKey]; ok {
				if v, found := findField(sub, field, preferKey); found {
					return v, true
				}
			}
		}
		if v, ok := n[field]; ok {
			return v, true
		}
		for k, v := range n {
			if k == preferKey {
				continue
			}
			if found, ok := findField(v, field, preferKey); ok {
				return found, true
			}
		}
	case []any:
		for _, item := range n {
			if v, ok := findField(item, field, preferKey); ok {
				return v, true
			}
		}
	}
	return nil, false
}

// siblingString returns the string value of a sibling field on the map that
// contains the located field, if any. Used to pick up priceCurrency next to
// price.
func siblingString(node any, field, sibling, preferKey string) string {
	switch n := node.(type) {
	case map[string]any:
		if preferKey != "" {
			if sub, ok := n[preferKey]; ok {
				if _, found := findField(sub, field, preferKey); found {
					return siblingString(sub, field, sibling, preferKey)
				}
			}
		}
		if _, ok := n[field]; ok {
			if s, ok := n[sibling].(string); ok {
				return s
			}
			return ""
		}
		for k, v := range n {
			if k == preferKey {
				continue
			}
			if _, found := findField(v, field, preferKey); found {
				return siblingString(v, field, sibling, preferKey)
			}
		}
	case []any:
		for _, item := range n {
			if _, found := findField(item, field, preferKey); found {
				return siblingString(item, field, sibling, preferKey)
			}
		}
	}
	return ""
}
