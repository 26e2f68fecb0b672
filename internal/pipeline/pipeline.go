// Package pipeline orchestrates the six-stage product analysis. Stage 1
// identifies the product and gates on confidence; stages 2-5 analyze it with
// per-stage fault isolation; stage 6 produces purchase guidance, skipped
// entirely for high-risk products.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/visionprobe/probe-cli/internal/agent"
	"github.com/visionprobe/probe-cli/internal/buylink"
	"github.com/visionprobe/probe-cli/internal/config"
	"github.com/visionprobe/probe-cli/internal/extract"
	"github.com/visionprobe/probe-cli/internal/model"
	"github.com/visionprobe/probe-cli/internal/sanitize"
	"github.com/visionprobe/probe-cli/internal/store"
	"github.com/visionprobe/probe-cli/internal/webcontext"
	"github.com/visionprobe/probe-cli/pkg/anthropic"
)

const (
	abortNotice   = "Low confidence in identification. Stopping analysis to save cost."
	lowConfNotice = "Low confidence from URL-only analysis; downstream steps may be less accurate."
)

// Input is what the caller supplies for one analysis run.
type Input struct {
	Image     *anthropic.ImageData
	ImageName string
	// ImageURL is where the uploaded image can be retrieved, echoed into the
	// result. When no image is uploaded a best-effort image is discovered
	// from the product pages instead.
	ImageURL string
	RawURLs  []string
}

// Pipeline drives the analysis stages and assembles the final report.
type Pipeline struct {
	cfg      *config.Config
	store    store.Store
	agent    agent.Agent
	resolver *webcontext.Resolver
	fetcher  webcontext.Fetcher
	registry *buylink.Registry
}

// New creates a Pipeline. store may be nil to disable run persistence;
// registry may be nil to disable buy-link quality filtering.
func New(
	cfg *config.Config,
	st store.Store,
	ag agent.Agent,
	resolver *webcontext.Resolver,
	fetcher webcontext.Fetcher,
	registry *buylink.Registry,
) *Pipeline {
	return &Pipeline{
		cfg:      cfg,
		store:    st,
		agent:    ag,
		resolver: resolver,
		fetcher:  fetcher,
		registry: registry,
	}
}

// Process runs the full pipeline once. It fails with an error only when the
// reasoning-service credential is missing; every other outcome, including
// total stage failure, is captured inside the returned result's report.
func (p *Pipeline) Process(ctx context.Context, in Input) (*model.RunResult, error) {
	if p.cfg.Anthropic.APIKey == "" {
		return nil, eris.New("pipeline: anthropic api key is not configured")
	}

	start := time.Now()
	hasImage := in.Image != nil
	urls := sanitize.URLs(in.RawURLs)

	log := zap.L().With(
		zap.Bool("has_image", hasImage),
		zap.Int("urls", len(urls)),
	)
	log.Info("pipeline: starting analysis")

	report := model.NewReport()
	report.Data.InputURLs = urls

	runID := p.createRun(ctx, in, urls)

	result := func(report *model.Report) *model.RunResult {
		return p.finish(ctx, runID, report, in, urls, start)
	}

	// Web context resolves before stage 1 so identification can use it.
	var webTokens int
	if p.resolver != nil {
		var wc *model.WebContext
		wc, webTokens = p.resolver.Resolve(ctx, urls)
		if wc != nil {
			report.Data.WebContext = wc
		}
	}

	// Stage 1: identify. The only fatal stage.
	ident, err := p.agent.Identify(ctx, agent.IdentifyInput{
		Image:      in.Image,
		WebContext: report.Data.WebContext,
	})
	if err != nil {
		log.Error("pipeline: identification failed", zap.Error(err))
		report.AddError(fmt.Sprintf("%s: %s", model.StageIdentify, err.Error()))
		report.Status = model.ReportStatusFailed
		report.Data.Identification = &model.Identification{
			ProductName: "Analysis Failed",
			Category:    "Error",
			Confidence:  0,
			Error:       err.Error(),
		}
		report.Data.WebContext = nil
		return result(report), nil
	}

	report.Data.Identification = ident
	report.CompleteStep(model.StageIdentify)
	if report.Data.WebContext != nil {
		report.CompleteStep(model.StageWebContext)
	}

	// Confidence gate. An image match below the abort threshold stops the
	// run to avoid spending further paid calls on a likely misidentification.
	// URL-only identification is inherently noisier, so low confidence there
	// is clamped to a floor and the run continues with a notice.
	switch {
	case hasImage && ident.Confidence < p.cfg.Pipeline.AbortConfidence:
		log.Warn("pipeline: aborting on low visual confidence",
			zap.Float64("confidence", ident.Confidence),
		)
		report.Status = model.ReportStatusAborted
		report.ConfidenceNotice = abortNotice
		return result(report), nil
	case !hasImage && ident.Confidence < p.cfg.Pipeline.ConfidenceFloor:
		log.Warn("pipeline: proceeding despite low confidence",
			zap.Float64("confidence", ident.Confidence),
		)
		report.ConfidenceNotice = lowConfNotice
		ident.Confidence = p.cfg.Pipeline.ConfidenceFloor
	}

	log.Info("pipeline: product identified",
		zap.String("product", ident.ProductName),
		zap.String("category", ident.Category),
		zap.Float64("confidence", ident.Confidence),
	)

	// record commits one non-fatal stage outcome. Called in fixed stage
	// order so steps_completed stays an ordered subsequence even when the
	// stages themselves ran in parallel.
	record := func(stage model.Stage, stageErr error, commit func()) {
		if stageErr != nil {
			log.Warn("pipeline: stage failed",
				zap.String("stage", string(stage)),
				zap.Error(stageErr),
			)
			report.AddError(fmt.Sprintf("%s: %s", stage, stageErr.Error()))
			return
		}
		commit()
		report.CompleteStep(stage)
	}

	// Stages 2 and 3 depend only on identification, so they run in parallel.
	var (
		knowledge    *model.Knowledge
		knowledgeErr error
		useCases     *model.UseCases
		useCasesErr  error
	)
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		knowledge, knowledgeErr = p.agent.EnrichKnowledge(gCtx, ident.ProductName, ident.Category)
		return nil
	})
	g.Go(func() error {
		useCases, useCasesErr = p.agent.UseCases(gCtx, ident.ProductName)
		return nil
	})
	_ = g.Wait()

	record(model.StageKnowledge, knowledgeErr, func() { report.Data.Knowledge = knowledge })
	record(model.StageUseCases, useCasesErr, func() { report.Data.UseCases = useCases })

	// Stage 4: impact, fed by stage 2's features when available.
	var features []string
	if report.Data.Knowledge != nil {
		features = report.Data.Knowledge.KeyFeatures
	}
	impact, impactErr := p.agent.Impact(ctx, agent.ImpactInput{
		ProductName: ident.ProductName,
		Category:    ident.Category,
		Features:    features,
	})
	record(model.StageImpact, impactErr, func() { report.Data.Impact = impact })

	// Stage 5: recommendation, fed by stage 4's result (possibly absent).
	rec, recErr := p.agent.Recommend(ctx, ident.ProductName, report.Data.Impact)
	record(model.StageRecommend, recErr, func() { report.Data.Recommendation = rec })

	p.runBuyGuidance(ctx, report, ident, log)

	// There is no other path to complete; even a run where every non-fatal
	// stage failed still completes with its errors listed.
	report.Status = model.ReportStatusComplete
	report.Disclaimer = model.Disclaimer

	res := result(report)
	res.TotalTokens += int64(webTokens)
	log.Info("pipeline: analysis complete",
		zap.Int("steps", len(report.StepsCompleted)),
		zap.Int("errors", len(report.Errors)),
		zap.Int64("duration_ms", res.DurationMS),
	)
	return res, nil
}

// runBuyGuidance executes stage 6: skipped outright for high-risk products,
// otherwise invoked and best-effort enriched with per-link prices.
func (p *Pipeline) runBuyGuidance(ctx context.Context, report *model.Report, ident *model.Identification, log *zap.Logger) {
	riskLevel := model.RiskLow
	if report.Data.Impact != nil {
		riskLevel = report.Data.Impact.RiskLevel
	}

	if riskLevel == model.RiskHigh {
		log.Info("pipeline: buy guidance skipped for high-risk product")
		report.Data.BuyGuidance = model.SafetyRefusal()
		report.CompleteStep(model.StageBuyLinksSkipped)
		return
	}

	brand := ident.Brand
	guidance, err := p.agent.BuyGuidance(ctx, agent.BuyGuidanceInput{
		ProductName:     ident.ProductName,
		ProductCategory: ident.Category,
		Brand:           brand,
		Recommendations: report.Data.Recommendation,
		Impact:          report.Data.Impact,
	})
	if err != nil {
		log.Warn("pipeline: buy guidance failed", zap.Error(err))
		report.AddError(fmt.Sprintf("%s: %s", model.StageBuyLinks, err.Error()))
		report.Data.BuyGuidance = model.FailureRefusal()
		return
	}

	guidance.BuyLinks = p.filterLinks(guidance.BuyLinks, log)
	p.enrichLinkPrices(ctx, guidance.BuyLinks, log)

	report.Data.BuyGuidance = guidance
	report.CompleteStep(model.StageBuyLinks)
}

// filterLinks drops links with no URL and links that fail the platform
// quality policy (search pages, malformed URLs).
func (p *Pipeline) filterLinks(links []model.BuyLink, log *zap.Logger) []model.BuyLink {
	kept := links[:0]
	for _, l := range links {
		if l.Link == "" {
			continue
		}
		if p.registry != nil && !p.registry.Acceptable(l.Link) {
			log.Debug("pipeline: dropping unacceptable buy link",
				zap.String("platform", l.Platform),
				zap.String("link", l.Link),
			)
			continue
		}
		kept = append(kept, l)
	}
	return kept
}

// enrichLinkPrices attaches a scraped price to each link when one can be
// found. Links are processed one at a time and any failure is swallowed;
// enrichment never fails the stage.
func (p *Pipeline) enrichLinkPrices(ctx context.Context, links []model.BuyLink, log *zap.Logger) {
	if p.fetcher == nil {
		return
	}
	for i := range links {
		html, err := p.fetcher.Page(ctx, links[i].Link)
		if err != nil || html == "" {
			log.Debug("pipeline: price enrichment fetch miss",
				zap.String("link", links[i].Link),
				zap.Error(err),
			)
			continue
		}
		price := extract.Price(html)
		if price == nil {
			continue
		}
		links[i].Price = price.Display
		links[i].PriceAmount = price.Amount
		links[i].PriceCurrency = price.Currency
	}
}

// discoverImage finds a representative product image from the first candidate
// URL that yields one. Used when the caller did not upload a photo.
func (p *Pipeline) discoverImage(ctx context.Context, urls []string) string {
	if p.fetcher == nil {
		return ""
	}
	for _, u := range urls {
		html, err := p.fetcher.Page(ctx, u)
		if err != nil || html == "" {
			continue
		}
		if img := extract.Image(html, u); img != "" {
			return img
		}
	}
	return ""
}

// createRun records the run start. Persistence is best effort; a storage
// failure never affects the analysis.
func (p *Pipeline) createRun(ctx context.Context, in Input, urls []string) string {
	if p.store == nil {
		return ""
	}
	input := model.AnalysisInput{
		ImageName: in.ImageName,
		URLs:      urls,
	}
	if in.Image != nil {
		input.ImageSize = int64(len(in.Image.Base64))
	}
	run, err := p.store.CreateRun(ctx, input)
	if err != nil {
		zap.L().Warn("pipeline: failed to create run record", zap.Error(err))
		return ""
	}
	if err := p.store.UpdateRunStatus(ctx, run.ID, model.RunStatusRunning); err != nil {
		zap.L().Warn("pipeline: failed to update run status", zap.Error(err))
	}
	return run.ID
}

// finish assembles the RunResult and persists the outcome.
func (p *Pipeline) finish(ctx context.Context, runID string, report *model.Report, in Input, urls []string, start time.Time) *model.RunResult {
	imageURL := in.ImageURL
	if imageURL == "" && in.Image == nil && report.Status == model.ReportStatusComplete {
		imageURL = p.discoverImage(ctx, urls)
	}

	usage := p.agent.Usage()
	res := &model.RunResult{
		Report:       report,
		ImageURL:     imageURL,
		DurationMS:   time.Since(start).Milliseconds(),
		TotalTokens:  usage.Total(),
		EstimatedUSD: usage.EstimateCost(p.cfg.Anthropic.Model),
	}

	if p.store != nil && runID != "" {
		if err := p.store.UpdateRunResult(ctx, runID, runStatusFor(report.Status), res); err != nil {
			zap.L().Warn("pipeline: failed to persist run result", zap.Error(err))
		}
	}
	return res
}

func runStatusFor(s model.ReportStatus) model.RunStatus {
	switch s {
	case model.ReportStatusAborted:
		return model.RunStatusAborted
	case model.ReportStatusFailed:
		return model.RunStatusFailed
	default:
		return model.RunStatusComplete
	}
}
