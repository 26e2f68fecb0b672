package webcontext

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/visionprobe/probe-cli/internal/model"
	"github.com/visionprobe/probe-cli/pkg/perplexity"
)

type stubSearch struct {
	text   string
	tokens int
	err    error
	calls  int
}

func (s *stubSearch) ChatCompletion(_ context.Context, _ perplexity.ChatCompletionRequest) (*perplexity.ChatCompletionResponse, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &perplexity.ChatCompletionResponse{
		Choices: []perplexity.Choice{{Message: perplexity.Message{Role: "assistant", Content: s.text}}},
		Usage:   perplexity.Usage{TotalTokens: s.tokens},
	}, nil
}

type stubFetcher struct {
	pages map[string]string
}

func (f *stubFetcher) Page(_ context.Context, rawURL string) (string, error) {
	html, ok := f.pages[rawURL]
	if !ok {
		return "", errors.New("fetch failed")
	}
	return html, nil
}

func TestResolveNoURLs(t *testing.T) {
	r := NewResolver(&stubSearch{text: "unused"}, &stubFetcher{})
	wc, tokens := r.Resolve(t.Context(), nil)
	assert.Nil(t, wc)
	assert.Zero(t, tokens)
}

func TestResolveHostedSearchTier(t *testing.T) {
	search := &stubSearch{text: "The page sells the Acme Widget Pro for USD 29.99.", tokens: 42}
	r := NewResolver(search, &stubFetcher{})

	wc, tokens := r.Resolve(t.Context(), []string{"https://shop.example.com/p/widget"})
	require.NotNil(t, wc)
	assert.Equal(t, model.ContextHostedSearch, wc.Method)
	assert.Contains(t, wc.Text, "Acme Widget Pro")
	assert.Equal(t, []string{"https://shop.example.com/p/widget"}, wc.URLs)
	assert.Equal(t, 42, tokens)
	assert.Equal(t, 1, search.calls)
}

func TestResolveFallsBackToLocalExtract(t *testing.T) {
	search := &stubSearch{err: errors.New("quota exceeded")}
	fetcher := &stubFetcher{pages: map[string]string{
		"https://shop.example.com/p/widget": `<html><head>
			<title>Acme Widget Pro</title>
			<meta name="description" content="Does widget things.">
		</head></html>`,
	}}
	r := NewResolver(search, fetcher)

	wc, tokens := r.Resolve(t.Context(), []string{"https://shop.example.com/p/widget"})
	require.NotNil(t, wc)
	assert.Equal(t, model.ContextLocalExtract, wc.Method)
	assert.Contains(t, wc.Text, "Acme Widget Pro")
	require.Len(t, wc.Sources, 1)
	assert.Equal(t, "Acme Widget Pro", wc.Sources[0].Title)
	assert.Zero(t, tokens)
}

func TestResolveSkipsUnfetchablePages(t *testing.T) {
	fetcher := &stubFetcher{pages: map[string]string{
		"https://b.example.com/p": `<html><head><title>Reachable Product</title></head></html>`,
	}}
	r := NewResolver(&stubSearch{err: errors.New("down")}, fetcher)

	wc, _ := r.Resolve(t.Context(), []string{"https://a.example.com/p", "https://b.example.com/p"})
	require.NotNil(t, wc)
	assert.Equal(t, model.ContextLocalExtract, wc.Method)
	require.Len(t, wc.Sources, 1)
	assert.Equal(t, "https://b.example.com/p", wc.Sources[0].URL)
	assert.Equal(t, []string{"https://a.example.com/p", "https://b.example.com/p"}, wc.URLs)
}

func TestResolveURLsOnlyTier(t *testing.T) {
	r := NewResolver(&stubSearch{err: errors.New("down")}, &stubFetcher{})

	wc, _ := r.Resolve(t.Context(), []string{"https://dead.example.com/p"})
	require.NotNil(t, wc)
	assert.Equal(t, model.ContextURLsOnly, wc.Method)
	assert.Empty(t, wc.Text)
	assert.Equal(t, []string{"https://dead.example.com/p"}, wc.URLs)
}

func TestResolveNilDependencies(t *testing.T) {
	r := NewResolver(nil, nil)
	wc, _ := r.Resolve(t.Context(), []string{"https://x.example.com"})
	require.NotNil(t, wc)
	assert.Equal(t, model.ContextURLsOnly, wc.Method)
}
