// Package sanitize normalizes user-supplied product URLs before they enter
// the pipeline: scheme defaulting, fragment stripping, and removal of known
// tracking query parameters.
package sanitize

import (
	"net/url"
	"strings"
)

// trackingParams are removed from query strings by exact, case-insensitive
// name match.
var trackingParams = map[string]bool{
	"fbclid":      true,
	"gclid":       true,
	"dclid":       true,
	"msclkid":     true,
	"igshid":      true,
	"mc_cid":      true,
	"mc_eid":      true,
	"yclid":       true,
	"twclid":      true,
	"ttclid":      true,
	"ref":         true,
	"ref_":        true,
	"referrer":    true,
	"spm":         true,
	"scid":        true,
	"affid":       true,
	"affiliateid": true,
	"cmpid":       true,
	"s_kwcid":     true,
}

// trackingPrefixes are removed from query strings by case-insensitive
// name-prefix match.
var trackingPrefixes = []string{
	"utm_",
	"pk_",
	"mtm_",
	"hsa_",
	"vero_",
	"oly_",
	"_hs",
}

// URL normalizes a single raw URL string. It trims whitespace, defaults the
// scheme to https, drops the fragment, and filters tracking parameters.
// It never fails: when the input cannot be parsed, the trimmed (and
// scheme-prefixed) string is returned unchanged.
func URL(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	if !strings.HasPrefix(s, "http://") && !strings.HasPrefix(s, "https://") {
		s = "https://" + s
	}

	u, err := url.Parse(s)
	if err != nil {
		return s
	}

	// Hosts are case-insensitive; lowercase so duplicate detection works.
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	u.RawFragment = ""

	if u.RawQuery != "" {
		u.RawQuery = filterQuery(u.RawQuery)
	}

	out := u.String()
	return strings.TrimSuffix(out, "?")
}

// filterQuery drops tracking parameters while preserving the order of the
// surviving pairs. url.Values would lose ordering, so the raw query is
// walked pair by pair.
func filterQuery(rawQuery string) string {
	pairs := strings.Split(rawQuery, "&")
	kept := make([]string, 0, len(pairs))
	for _, pair := range pairs {
		if pair == "" {
			continue
		}
		name := pair
		if idx := strings.Index(pair, "="); idx >= 0 {
			name = pair[:idx]
		}
		if isTracking(name) {
			continue
		}
		kept = append(kept, pair)
	}
	return strings.Join(kept, "&")
}

func isTracking(name string) bool {
	lower := strings.ToLower(name)
	if trackingParams[lower] {
		return true
	}
	for _, prefix := range trackingPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}

// URLs sanitizes each entry and deduplicates the results, preserving
// first-seen order. Empty inputs are dropped.
func URLs(raw []string) []string {
	seen := make(map[string]bool, len(raw))
	var out []string
	for _, r := range raw {
		clean := URL(r)
		if clean == "" || seen[clean] {
			continue
		}
		seen[clean] = true
		out = append(out, clean)
	}
	return out
}
