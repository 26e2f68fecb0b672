package model

// ContextMethod names the tier that produced a WebContext.
type ContextMethod string

const (
	ContextHostedSearch ContextMethod = "hosted_search"
	ContextLocalExtract ContextMethod = "local_extract"
	ContextURLsOnly     ContextMethod = "urls_only"
)

// PageSummary holds the lightweight signals extracted from one fetched page.
type PageSummary struct {
	URL         string     `json:"url"`
	Title       string     `json:"title,omitempty"`
	Description string     `json:"description,omitempty"`
	Price       *PriceInfo `json:"price,omitempty"`
}

// WebContext is a merged, best-effort summary of a product derived from
// user-supplied URLs. Immutable once produced for a given request.
type WebContext struct {
	Method ContextMethod `json:"method"`
	Text   string        `json:"text,omitempty"`
	URLs   []string      `json:"urls"`
	// Sources is populated only for the local_extract tier.
	Sources []PageSummary `json:"sources,omitempty"`
}

// PriceSource names the extraction tier that yielded a PriceInfo.
type PriceSource string

const (
	PriceSourceMeta   PriceSource = "meta"
	PriceSourceJSONLD PriceSource = "jsonld"
	PriceSourceRegex  PriceSource = "regex"
)

// PriceInfo is a single extracted price. Tiers are mutually exclusive; the
// first tier that yields a value wins.
type PriceInfo struct {
	Display  string      `json:"display"`
	Amount   string      `json:"amount"`
	Currency string      `json:"currency,omitempty"`
	Source   PriceSource `json:"source"`
}
