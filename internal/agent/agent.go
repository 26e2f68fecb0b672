// Package agent holds the per-stage reasoning strategies. Each stage shares
// the same call mechanics (prompt in, validated JSON out) but carries its own
// prompt contract and output schema.
package agent

import (
	"context"

	"github.com/visionprobe/probe-cli/internal/model"
	"github.com/visionprobe/probe-cli/pkg/anthropic"
)

// IdentifyInput is the stage input for product identification. Image is
// optional; when present the image drives identification and any web context
// is corroborating signal only.
type IdentifyInput struct {
	Image      *anthropic.ImageData
	WebContext *model.WebContext
}

// ImpactInput is the stage input for impact analysis. Features come from
// knowledge enrichment when it succeeded, otherwise the list is empty.
type ImpactInput struct {
	ProductName string
	Category    string
	Features    []string
}

// BuyGuidanceInput is the stage input for purchase guidance.
type BuyGuidanceInput struct {
	ProductName     string
	ProductCategory string
	Brand           string
	Recommendations *model.Recommendation
	Impact          *model.Impact
}

// Agent runs the individual analysis stages. Implementations make exactly one
// upstream attempt per call; retries are the caller's decision and the
// current pipeline never retries.
type Agent interface {
	Identify(ctx context.Context, in IdentifyInput) (*model.Identification, error)
	EnrichKnowledge(ctx context.Context, productName, category string) (*model.Knowledge, error)
	UseCases(ctx context.Context, productName string) (*model.UseCases, error)
	Impact(ctx context.Context, in ImpactInput) (*model.Impact, error)
	Recommend(ctx context.Context, productName string, impact *model.Impact) (*model.Recommendation, error)
	BuyGuidance(ctx context.Context, in BuyGuidanceInput) (*model.BuyGuidance, error)

	// Usage reports cumulative token consumption across all calls so far.
	Usage() anthropic.TokenUsage
}
