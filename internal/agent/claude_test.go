package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/visionprobe/probe-cli/internal/model"
	"github.com/visionprobe/probe-cli/pkg/anthropic"
	"github.com/visionprobe/probe-cli/pkg/perplexity"
)

// stubAI returns canned responses keyed by call order.
type stubAI struct {
	responses []string
	err       error
	requests  []anthropic.MessageRequest
}

func (s *stubAI) CreateMessage(_ context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	s.requests = append(s.requests, req)
	if s.err != nil {
		return nil, s.err
	}
	idx := len(s.requests) - 1
	if idx >= len(s.responses) {
		idx = len(s.responses) - 1
	}
	return &anthropic.MessageResponse{
		Content: []anthropic.ContentBlock{{Type: "text", Text: s.responses[idx]}},
		Usage:   anthropic.TokenUsage{InputTokens: 100, OutputTokens: 50},
	}, nil
}

type stubSearch struct {
	text string
	err  error
}

func (s *stubSearch) ChatCompletion(_ context.Context, _ perplexity.ChatCompletionRequest) (*perplexity.ChatCompletionResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &perplexity.ChatCompletionResponse{
		Choices: []perplexity.Choice{{Message: perplexity.Message{Content: s.text}}},
		Usage:   perplexity.Usage{PromptTokens: 20, CompletionTokens: 10, TotalTokens: 30},
	}, nil
}

func TestIdentifyWithImage(t *testing.T) {
	ai := &stubAI{responses: []string{
		"```json\n{\"product_name\": \"Acme Widget Pro\", \"category\": \"tools\", \"brand\": \"Acme\", \"confidence\": 0.91, \"visual_clues\": [\"logo on handle\"]}\n```",
	}}
	a := NewClaudeAgent(ai, nil, Options{Model: "claude-sonnet-4-5-20250929"})

	ident, err := a.Identify(t.Context(), IdentifyInput{
		Image: &anthropic.ImageData{MediaType: "image/jpeg", Base64: "aGVsbG8="},
	})
	require.NoError(t, err)
	assert.Equal(t, "Acme Widget Pro", ident.ProductName)
	assert.Equal(t, "Acme", ident.Brand)
	assert.InDelta(t, 0.91, ident.Confidence, 1e-9)

	require.Len(t, ai.requests, 1)
	require.Len(t, ai.requests[0].Messages, 1)
	assert.NotNil(t, ai.requests[0].Messages[0].Image)
}

func TestIdentifyFromURLsOnly(t *testing.T) {
	ai := &stubAI{responses: []string{
		`{"product_name": "Widget Pro", "category": "tools", "confidence": 0.4, "visual_clues": []}`,
	}}
	a := NewClaudeAgent(ai, nil, Options{Model: "m"})

	ident, err := a.Identify(t.Context(), IdentifyInput{
		WebContext: &model.WebContext{
			Method: model.ContextURLsOnly,
			URLs:   []string{"https://shop.example.com/p/widget"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "Widget Pro", ident.ProductName)
	assert.Nil(t, ai.requests[0].Messages[0].Image)
	assert.Contains(t, ai.requests[0].Messages[0].Content, "https://shop.example.com/p/widget")
}

func TestIdentifyRejectsEmptyName(t *testing.T) {
	ai := &stubAI{responses: []string{`{"product_name": "", "confidence": 0.9}`}}
	a := NewClaudeAgent(ai, nil, Options{Model: "m"})

	_, err := a.Identify(t.Context(), IdentifyInput{WebContext: &model.WebContext{}})
	assert.Error(t, err)
}

func TestImpactNormalizesUnknownRiskLevel(t *testing.T) {
	ai := &stubAI{responses: []string{
		`{"health_impact": "x", "environmental_impact": "y", "risk_level": "severe", "impact_score": 70, "limitations": []}`,
	}}
	a := NewClaudeAgent(ai, nil, Options{Model: "m"})

	impact, err := a.Impact(t.Context(), ImpactInput{ProductName: "Widget", Category: "tools"})
	require.NoError(t, err)
	assert.Equal(t, model.RiskMedium, impact.RiskLevel)
}

func TestBuyGuidanceUsesSearchClient(t *testing.T) {
	ai := &stubAI{responses: []string{"unused"}}
	search := &stubSearch{text: `{"purchase_recommended": true, "purchase_reason": "widely available", "buy_links": [{"platform": "Amazon", "link": "https://www.amazon.com/dp/B0TEST", "description": "Widget Pro listing"}]}`}
	a := NewClaudeAgent(ai, search, Options{Model: "m"})

	bg, err := a.BuyGuidance(t.Context(), BuyGuidanceInput{ProductName: "Widget Pro", ProductCategory: "tools"})
	require.NoError(t, err)
	assert.True(t, bg.PurchaseRecommended)
	require.Len(t, bg.BuyLinks, 1)
	assert.Equal(t, "Amazon", bg.BuyLinks[0].Platform)
	assert.Empty(t, ai.requests, "buy guidance should not hit the anthropic client when search is available")
	assert.Equal(t, int64(30), a.Usage().Total())
}

func TestBuyGuidanceFallsBackToClaudeWithoutSearch(t *testing.T) {
	ai := &stubAI{responses: []string{
		`{"purchase_recommended": false, "purchase_reason": "niche item", "buy_links": []}`,
	}}
	a := NewClaudeAgent(ai, nil, Options{Model: "m"})

	bg, err := a.BuyGuidance(t.Context(), BuyGuidanceInput{ProductName: "Widget"})
	require.NoError(t, err)
	assert.False(t, bg.PurchaseRecommended)
	assert.Len(t, ai.requests, 1)
}

func TestStageErrorPropagates(t *testing.T) {
	ai := &stubAI{err: errors.New("overloaded")}
	a := NewClaudeAgent(ai, nil, Options{Model: "m"})

	_, err := a.EnrichKnowledge(t.Context(), "Widget", "tools")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "enrich_knowledge")
}

func TestUsageAccumulatesAcrossStages(t *testing.T) {
	ai := &stubAI{responses: []string{
		`{"overview": "a", "key_features": [], "common_variants": [], "uncertainties": []}`,
		`{"intended_users": [], "common_use_cases": [], "usage_frequency": "daily", "misuse_warnings": []}`,
	}}
	a := NewClaudeAgent(ai, nil, Options{Model: "m"})

	_, err := a.EnrichKnowledge(t.Context(), "Widget", "tools")
	require.NoError(t, err)
	_, err = a.UseCases(t.Context(), "Widget")
	require.NoError(t, err)

	u := a.Usage()
	assert.Equal(t, int64(200), u.InputTokens)
	assert.Equal(t, int64(100), u.OutputTokens)
}

func TestCleanJSON(t *testing.T) {
	assert.Equal(t, `{"a":1}`, cleanJSON("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, cleanJSON("Here you go: {\"a\":1} hope that helps"))
	assert.Equal(t, `{"a":1}`, cleanJSON(`{"a":1}`))
}
