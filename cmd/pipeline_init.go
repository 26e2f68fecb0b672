package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/visionprobe/probe-cli/internal/agent"
	"github.com/visionprobe/probe-cli/internal/buylink"
	"github.com/visionprobe/probe-cli/internal/fetch"
	"github.com/visionprobe/probe-cli/internal/pipeline"
	"github.com/visionprobe/probe-cli/internal/store"
	"github.com/visionprobe/probe-cli/internal/webcontext"
	anthropicpkg "github.com/visionprobe/probe-cli/pkg/anthropic"
	"github.com/visionprobe/probe-cli/pkg/perplexity"
)

// pipelineEnv holds the initialized store and pipeline used by the
// analyze/serve commands.
type pipelineEnv struct {
	Store    store.Store
	Pipeline *pipeline.Pipeline
}

// Close releases resources held by the pipeline environment.
func (pe *pipelineEnv) Close() {
	if pe.Store != nil {
		_ = pe.Store.Close()
	}
}

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		path := cfg.Store.Path
		if path == "" {
			path = "probe.db"
		}
		return store.NewSQLite(path)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// initPipeline sets up the store, API clients, and the pipeline for the given
// mode. Callers should defer env.Close().
func initPipeline(ctx context.Context, mode string) (*pipelineEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}

	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	anthropicClient := anthropicpkg.NewClient(cfg.Anthropic.APIKey)

	// Perplexity is optional. Without it, web context falls back to direct
	// page fetching and buy guidance runs on Claude alone.
	var perplexityClient perplexity.Client
	if cfg.Perplexity.APIKey != "" {
		perplexityClient = perplexity.NewClient(cfg.Perplexity.APIKey,
			perplexity.WithBaseURL(cfg.Perplexity.BaseURL),
			perplexity.WithModel(cfg.Perplexity.Model),
		)
	} else {
		zap.L().Debug("PROBE_PERPLEXITY_API_KEY not set, hosted search disabled")
	}

	fetcher := fetch.New(fetch.Options{
		UserAgent:    cfg.Fetch.UserAgent,
		Timeout:      time.Duration(cfg.Fetch.TimeoutSecs) * time.Second,
		PerHostRate:  rate.Limit(cfg.Fetch.PerHostRate),
		PerHostBurst: cfg.Fetch.PerHostBurst,
	})

	registry, err := buylink.Load()
	if err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "load platform registry")
	}

	ag := agent.NewClaudeAgent(anthropicClient, perplexityClient, agent.Options{
		Model:     cfg.Anthropic.Model,
		MaxTokens: int64(cfg.Anthropic.MaxTokens),
	})
	resolver := webcontext.NewResolver(perplexityClient, fetcher)

	p := pipeline.New(cfg, st, ag, resolver, fetcher, registry)

	return &pipelineEnv{
		Store:    st,
		Pipeline: p,
	}, nil
}
