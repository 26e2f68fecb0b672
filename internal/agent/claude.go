package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/visionprobe/probe-cli/internal/model"
	"github.com/visionprobe/probe-cli/pkg/anthropic"
	"github.com/visionprobe/probe-cli/pkg/perplexity"
)

// Options configures the Claude-backed agent.
type Options struct {
	Model       string
	MaxTokens   int64
	Temperature *float64
}

// ClaudeAgent implements Agent over the Anthropic API, with purchase guidance
// delegated to a search-grounded Perplexity call so links reflect the live
// web rather than training data. Perplexity may be nil, in which case buy
// guidance also runs on Claude.
type ClaudeAgent struct {
	ai     anthropic.Client
	search perplexity.Client
	opts   Options

	mu    sync.Mutex
	usage anthropic.TokenUsage
}

// NewClaudeAgent creates a ClaudeAgent.
func NewClaudeAgent(ai anthropic.Client, search perplexity.Client, opts Options) *ClaudeAgent {
	if opts.MaxTokens == 0 {
		opts.MaxTokens = 1024
	}
	return &ClaudeAgent{ai: ai, search: search, opts: opts}
}

// Usage reports cumulative token consumption across all calls so far.
func (a *ClaudeAgent) Usage() anthropic.TokenUsage {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.usage
}

func (a *ClaudeAgent) addUsage(u anthropic.TokenUsage) {
	a.mu.Lock()
	a.usage.Add(u)
	a.mu.Unlock()
}

// call sends one message and returns the concatenated response text. One
// attempt only; failures propagate to the orchestrator's isolation logic.
func (a *ClaudeAgent) call(ctx context.Context, stage, prompt string, image *anthropic.ImageData) (string, error) {
	resp, err := a.ai.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     a.opts.Model,
		MaxTokens: a.opts.MaxTokens,
		System:    []anthropic.SystemBlock{{Text: systemText}},
		Messages: []anthropic.Message{
			{Role: "user", Content: prompt, Image: image},
		},
		Temperature: a.opts.Temperature,
	})
	if err != nil {
		return "", eris.Wrapf(err, "agent: %s", stage)
	}
	a.addUsage(resp.Usage)
	resp.Usage.LogCost(a.opts.Model, stage)
	return extractText(resp), nil
}

func (a *ClaudeAgent) Identify(ctx context.Context, in IdentifyInput) (*model.Identification, error) {
	var prompt string
	if in.Image != nil {
		contextBlock := ""
		if in.WebContext != nil && in.WebContext.Text != "" {
			contextBlock = "Web context from the user's product links:\n" + in.WebContext.Text + "\n"
		}
		prompt = fmt.Sprintf(identifyImagePrompt, contextBlock)
	} else {
		prompt = fmt.Sprintf(identifyURLPrompt, webContextText(in.WebContext))
	}

	text, err := a.call(ctx, string(model.StageIdentify), prompt, in.Image)
	if err != nil {
		return nil, err
	}
	ident, err := decodeStage[model.Identification](text, string(model.StageIdentify))
	if err != nil {
		return nil, err
	}
	if ident.ProductName == "" {
		return nil, eris.New("agent: identify returned no product name")
	}
	return ident, nil
}

func (a *ClaudeAgent) EnrichKnowledge(ctx context.Context, productName, category string) (*model.Knowledge, error) {
	text, err := a.call(ctx, string(model.StageKnowledge),
		fmt.Sprintf(knowledgePrompt, productName, category), nil)
	if err != nil {
		return nil, err
	}
	return decodeStage[model.Knowledge](text, string(model.StageKnowledge))
}

func (a *ClaudeAgent) UseCases(ctx context.Context, productName string) (*model.UseCases, error) {
	text, err := a.call(ctx, string(model.StageUseCases),
		fmt.Sprintf(useCasesPrompt, productName), nil)
	if err != nil {
		return nil, err
	}
	return decodeStage[model.UseCases](text, string(model.StageUseCases))
}

func (a *ClaudeAgent) Impact(ctx context.Context, in ImpactInput) (*model.Impact, error) {
	features := "none listed"
	if len(in.Features) > 0 {
		features = strings.Join(in.Features, "; ")
	}
	text, err := a.call(ctx, string(model.StageImpact),
		fmt.Sprintf(impactPrompt, in.ProductName, in.Category, features), nil)
	if err != nil {
		return nil, err
	}
	impact, err := decodeStage[model.Impact](text, string(model.StageImpact))
	if err != nil {
		return nil, err
	}
	switch impact.RiskLevel {
	case model.RiskLow, model.RiskMedium, model.RiskHigh:
	default:
		zap.L().Warn("impact returned unknown risk level, treating as medium",
			zap.String("risk_level", string(impact.RiskLevel)),
		)
		impact.RiskLevel = model.RiskMedium
	}
	return impact, nil
}

func (a *ClaudeAgent) Recommend(ctx context.Context, productName string, impact *model.Impact) (*model.Recommendation, error) {
	impactJSON := "not available"
	if impact != nil {
		if b, err := json.Marshal(impact); err == nil {
			impactJSON = string(b)
		}
	}
	text, err := a.call(ctx, string(model.StageRecommend),
		fmt.Sprintf(recommendPrompt, productName, impactJSON), nil)
	if err != nil {
		return nil, err
	}
	return decodeStage[model.Recommendation](text, string(model.StageRecommend))
}

func (a *ClaudeAgent) BuyGuidance(ctx context.Context, in BuyGuidanceInput) (*model.BuyGuidance, error) {
	recJSON := "not available"
	if in.Recommendations != nil {
		if b, err := json.Marshal(in.Recommendations); err == nil {
			recJSON = string(b)
		}
	}
	impactJSON := "not available"
	if in.Impact != nil {
		if b, err := json.Marshal(in.Impact); err == nil {
			impactJSON = string(b)
		}
	}
	prompt := fmt.Sprintf(buyGuidancePrompt,
		in.ProductName, in.ProductCategory, in.Brand, recJSON, impactJSON)

	text, err := a.buyGuidanceText(ctx, prompt)
	if err != nil {
		return nil, err
	}
	return decodeStage[model.BuyGuidance](text, string(model.StageBuyLinks))
}

func (a *ClaudeAgent) buyGuidanceText(ctx context.Context, prompt string) (string, error) {
	if a.search == nil {
		return a.call(ctx, string(model.StageBuyLinks), prompt, nil)
	}

	resp, err := a.search.ChatCompletion(ctx, perplexity.ChatCompletionRequest{
		Messages: []perplexity.Message{
			{Role: "system", Content: systemText},
			{Role: "user", Content: prompt},
		},
	})
	if err != nil {
		return "", eris.Wrap(err, "agent: buy_guidance")
	}
	a.addUsage(anthropic.TokenUsage{
		InputTokens:  int64(resp.Usage.PromptTokens),
		OutputTokens: int64(resp.Usage.CompletionTokens),
	})
	return resp.Text(), nil
}

func webContextText(wc *model.WebContext) string {
	if wc == nil {
		return "No web context is available."
	}
	if wc.Text != "" {
		return wc.Text
	}
	return "Only the raw product URLs are known:\n" + strings.Join(wc.URLs, "\n")
}
