// Package fetch retrieves product pages over HTTP. Failures are soft by
// design: callers treat any error as a missing page and move on.
package fetch

import (
	"context"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
	"golang.org/x/time/rate"
)

const (
	// Retail sites routinely serve degraded pages to non-browser agents, so
	// requests carry a desktop browser identity.
	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/124.0 Safari/537.36"
	defaultAccept = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"

	defaultTimeout = 12 * time.Second

	// maxBodyBytes caps how much of a page is read. Product signals live in
	// the head and early body, so truncation is acceptable.
	maxBodyBytes = 5 << 20
)

// Options configures a PageFetcher.
type Options struct {
	UserAgent string
	Timeout   time.Duration
	// PerHostRate limits request frequency against any single host.
	PerHostRate  rate.Limit
	PerHostBurst int
}

// PageFetcher retrieves HTML pages with per-host rate limiting.
type PageFetcher struct {
	client *http.Client
	opts   Options

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// New creates a PageFetcher with the given options, filling in defaults for
// any zero fields.
func New(opts Options) *PageFetcher {
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}
	if opts.Timeout == 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.PerHostRate == 0 {
		opts.PerHostRate = 2
	}
	if opts.PerHostBurst == 0 {
		opts.PerHostBurst = 4
	}
	transport := &http.Transport{
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     90 * time.Second,
	}
	return &PageFetcher{
		client: &http.Client{
			Timeout:   opts.Timeout,
			Transport: transport,
		},
		opts:     opts,
		limiters: make(map[string]*rate.Limiter),
	}
}

func (f *PageFetcher) limiterFor(rawURL string) *rate.Limiter {
	host := ""
	if u, err := url.Parse(rawURL); err == nil {
		host = u.Host
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	lim, ok := f.limiters[host]
	if !ok {
		lim = rate.NewLimiter(f.opts.PerHostRate, f.opts.PerHostBurst)
		f.limiters[host] = lim
	}
	return lim
}

// Page fetches a URL and returns its HTML decoded to UTF-8. Redirects are
// followed. Any transport error or status of 400 and above yields an error;
// callers treat that as "no page", never as a pipeline failure.
func (f *PageFetcher) Page(ctx context.Context, rawURL string) (string, error) {
	if err := f.limiterFor(rawURL).Wait(ctx); err != nil {
		return "", eris.Wrap(err, "fetch: rate limiter wait")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", eris.Wrap(err, "fetch: create request")
	}
	req.Header.Set("User-Agent", f.opts.UserAgent)
	req.Header.Set("Accept", defaultAccept)

	resp, err := f.client.Do(req)
	if err != nil {
		zap.L().Debug("page fetch failed",
			zap.String("url", rawURL),
			zap.Error(err),
		)
		return "", eris.Wrap(err, "fetch: request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode >= http.StatusBadRequest {
		zap.L().Debug("page fetch returned error status",
			zap.String("url", rawURL),
			zap.Int("status", resp.StatusCode),
		)
		return "", eris.Errorf("fetch: status %d from %s", resp.StatusCode, rawURL)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", eris.Wrap(err, "fetch: read body")
	}

	return decodeBody(body, resp.Header.Get("Content-Type")), nil
}

// decodeBody converts a response body to UTF-8 using the charset declared in
// the Content-Type header. Unknown or missing charsets pass through as-is.
func decodeBody(body []byte, contentType string) string {
	charset := ""
	if _, params, err := mime.ParseMediaType(contentType); err == nil {
		charset = strings.ToLower(params["charset"])
	}
	if charset == "" || charset == "utf-8" || charset == "utf8" {
		return string(body)
	}
	enc, err := htmlindex.Get(charset)
	if err != nil {
		return string(body)
	}
	decoded, _, err := transform.Bytes(enc.NewDecoder(), body)
	if err != nil {
		return string(body)
	}
	return string(decoded)
}
