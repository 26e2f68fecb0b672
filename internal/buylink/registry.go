// Package buylink enforces link quality for purchase guidance: buy links must
// be direct product detail pages, never search or listing pages.
package buylink

import (
	_ "embed"
	"net/url"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

//go:embed platforms.yaml
var platformsYAML []byte

// Platform describes one trusted retail platform and its URL shapes.
type Platform struct {
	Name           string   `yaml:"name"`
	Domains        []string `yaml:"domains"`
	PDPPatterns    []string `yaml:"pdp_patterns"`
	SearchPatterns []string `yaml:"search_patterns"`
}

// Registry holds the trusted-platform catalog.
type Registry struct {
	Platforms             []Platform `yaml:"platforms"`
	GenericSearchPatterns []string   `yaml:"generic_search_patterns"`
}

// Load parses the embedded platform catalog.
func Load() (*Registry, error) {
	var r Registry
	if err := yaml.Unmarshal(platformsYAML, &r); err != nil {
		return nil, eris.Wrap(err, "buylink: parse platform registry")
	}
	return &r, nil
}

// platformFor returns the platform whose domain matches the URL's host.
func (r *Registry) platformFor(host string) *Platform {
	host = strings.TrimPrefix(strings.ToLower(host), "www.")
	for i := range r.Platforms {
		for _, d := range r.Platforms[i].Domains {
			if host == d || strings.HasSuffix(host, "."+d) {
				return &r.Platforms[i]
			}
		}
	}
	return nil
}

// IsSearchURL reports whether the link points at a search or listing page
// rather than a single product.
func (r *Registry) IsSearchURL(rawURL string) bool {
	lower := strings.ToLower(rawURL)
	for _, p := range r.GenericSearchPatterns {
		if strings.Contains(lower, p) {
			return true
		}
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	if platform := r.platformFor(u.Host); platform != nil {
		pathAndQuery := u.Path
		if u.RawQuery != "" {
			pathAndQuery += "?" + u.RawQuery
		}
		for _, p := range platform.SearchPatterns {
			if strings.Contains(pathAndQuery, p) {
				return true
			}
		}
	}
	return false
}

// Acceptable reports whether a link may be surfaced as a buy link: it must be
// an absolute http(s) URL and not a search page. Links on known platforms
// must additionally match one of that platform's product page shapes.
func (r *Registry) Acceptable(rawURL string) bool {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	if u.Host == "" {
		return false
	}
	if r.IsSearchURL(rawURL) {
		return false
	}
	if platform := r.platformFor(u.Host); platform != nil {
		for _, p := range platform.PDPPatterns {
			if strings.Contains(u.Path, p) {
				return true
			}
		}
		return false
	}
	// Unknown retailers pass as long as the link is not a search page.
	return true
}
