package extract

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Image extracts a representative product image URL from HTML. Tier
// precedence: social-preview meta tags, then JSON-LD image fields, then the
// first <img> source in the markup. Relative URLs are resolved against
// baseURL. Returns "" when no tier matches.
func Image(html, baseURL string) string {
	if html == "" {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}

	if img := imageFromMeta(doc); img != "" {
		return resolveRef(img, baseURL)
	}
	if img := imageFromJSONLD(doc); img != "" {
		return resolveRef(img, baseURL)
	}
	if img, ok := doc.Find("img[src]").First().Attr("src"); ok && strings.TrimSpace(img) != "" {
		return resolveRef(img, baseURL)
	}
	return ""
}

func imageFromMeta(doc *goquery.Document) string {
	if img := metaContent(doc, "og:image"); img != "" {
		return img
	}
	return metaContent(doc, "twitter:image")
}

func imageFromJSONLD(doc *goquery.Document) string {
	for _, block := range jsonLDBlocks(doc) {
		v, ok := findField(block, "image", "")
		if !ok {
			continue
		}
		switch img := v.(type) {
		case string:
			if s := strings.TrimSpace(img); s != "" {
				return s
			}
		case map[string]any:
			if u, ok := img["url"].(string); ok && strings.TrimSpace(u) != "" {
				return strings.TrimSpace(u)
			}
		case []any:
			for _, item := range img {
				if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
					return strings.TrimSpace(s)
				}
			}
		}
	}
	return ""
}

// resolveRef makes an image reference absolute. Protocol-relative URLs are
// upgraded to https; relative paths are joined against the base. On any
// parse failure the reference is returned as-is.
func resolveRef(ref, base string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	if strings.HasPrefix(ref, "//") {
		return "https:" + ref
	}
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref
	}
	if base == "" {
		return ref
	}
	baseU, err := url.Parse(base)
	if err != nil {
		return ref
	}
	refU, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return baseU.ResolveReference(refU).String()
}
