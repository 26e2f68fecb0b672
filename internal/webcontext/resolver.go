// Package webcontext turns user-supplied product URLs into a text context
// block for downstream analysis. Resolution degrades through tiers: hosted
// web search, local page extraction, then the bare URL list.
package webcontext

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/visionprobe/probe-cli/internal/extract"
	"github.com/visionprobe/probe-cli/internal/model"
	"github.com/visionprobe/probe-cli/pkg/perplexity"
)

// Fetcher retrieves a page's HTML.
type Fetcher interface {
	Page(ctx context.Context, rawURL string) (string, error)
}

// Resolver produces a WebContext for a set of sanitized URLs.
type Resolver struct {
	search  perplexity.Client
	fetcher Fetcher
}

// NewResolver creates a Resolver. Either dependency may be nil, which
// disables its tier.
func NewResolver(search perplexity.Client, fetcher Fetcher) *Resolver {
	return &Resolver{search: search, fetcher: fetcher}
}

// Resolve builds a WebContext for the given URLs. It returns nil context and
// zero tokens when urls is empty. Resolution never fails: if every tier
// comes up empty the URL list itself is the context.
func (r *Resolver) Resolve(ctx context.Context, urls []string) (*model.WebContext, int) {
	if len(urls) == 0 {
		return nil, 0
	}

	if r.search != nil {
		if wc, tokens := r.hostedSearch(ctx, urls); wc != nil {
			return wc, tokens
		}
	}

	if r.fetcher != nil {
		if wc := r.localExtract(ctx, urls); wc != nil {
			return wc, 0
		}
	}

	zap.L().Info("web context degraded to url list", zap.Int("urls", len(urls)))
	return &model.WebContext{
		Method: model.ContextURLsOnly,
		URLs:   urls,
	}, 0
}

func (r *Resolver) hostedSearch(ctx context.Context, urls []string) (*model.WebContext, int) {
	prompt := fmt.Sprintf(
		"Summarize the product sold at the following page(s). Cover the product "+
			"name, brand, category, key specifications, and current price if shown. "+
			"Be factual and concise.\n\n%s",
		strings.Join(urls, "\n"),
	)

	resp, err := r.search.ChatCompletion(ctx, perplexity.ChatCompletionRequest{
		Messages: []perplexity.Message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		zap.L().Warn("hosted search failed, falling back", zap.Error(err))
		return nil, 0
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return nil, 0
	}

	return &model.WebContext{
		Method:  model.ContextHostedSearch,
		Text:    text,
		URLs:    urls,
		Sources: nil,
	}, resp.Usage.TotalTokens
}

func (r *Resolver) localExtract(ctx context.Context, urls []string) *model.WebContext {
	var sources []model.PageSummary
	for _, u := range urls {
		html, err := r.fetcher.Page(ctx, u)
		if err != nil || html == "" {
			zap.L().Debug("page skipped for local extract", zap.String("url", u), zap.Error(err))
			continue
		}
		s := extract.Page(html, u)
		if s.Title == "" && s.Description == "" && s.Price == nil {
			continue
		}
		sources = append(sources, s)
	}
	if len(sources) == 0 {
		return nil
	}

	var b strings.Builder
	b.WriteString("Extracted from the user's product pages:\n")
	for _, s := range sources {
		fmt.Fprintf(&b, "\n- %s\n", s.URL)
		if s.Title != "" {
			fmt.Fprintf(&b, "  Title: %s\n", s.Title)
		}
		if s.Description != "" {
			fmt.Fprintf(&b, "  Description: %s\n", s.Description)
		}
		if s.Price != nil {
			fmt.Fprintf(&b, "  Price: %s\n", s.Price.Display)
		}
	}

	return &model.WebContext{
		Method:  model.ContextLocalExtract,
		Text:    b.String(),
		URLs:    urls,
		Sources: sources,
	}
}
