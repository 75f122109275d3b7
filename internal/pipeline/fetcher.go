package pipeline

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pmilanese/kinseek/internal/extract"
	"github.com/pmilanese/kinseek/internal/model"
	"github.com/pmilanese/kinseek/internal/util"
	"github.com/pmilanese/kinseek/internal/worker"
)

// Fetcher retrieves search result pages over HTTP, honoring robots.txt and
// per-domain rate limits.
type Fetcher struct {
	httpClient *http.Client
	registry   *extract.Registry
	limiter    *worker.Limiter
	robots     *util.RobotsChecker
	userAgent  string
	maxBytes   int64
}

// NewFetcher builds a fetcher from the HTTP and rate configuration.
func NewFetcher(cfg *model.Config, registry *extract.Registry) *Fetcher {
	timeout := time.Duration(cfg.HTTP.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	maxRedirects := cfg.HTTP.MaxRedirects
	if maxRedirects <= 0 {
		maxRedirects = 5
	}
	maxBytes := cfg.HTTP.MaxBodyBytes
	if maxBytes <= 0 {
		maxBytes = 10 << 20
	}

	var robots *util.RobotsChecker
	if cfg.HTTP.RespectRobots {
		robots = util.NewRobotsChecker(cfg.HTTP.UserAgent, timeout)
	}

	return &Fetcher{
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy: util.ProxyFunc(cfg.HTTP.HTTPProxy, cfg.HTTP.HTTPSProxy),
			},
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("stopped after %d redirects", maxRedirects)
				}
				return nil
			},
		},
		registry:  registry,
		limiter:   worker.NewLimiter(cfg.Rate.RequestsPerSecond, cfg.Rate.Burst),
		robots:    robots,
		userAgent: cfg.HTTP.UserAgent,
		maxBytes:  maxBytes,
	}
}

// Fetch retrieves the search page for a source and query. It satisfies the
// pipeline's FetchFunc.
func (f *Fetcher) Fetch(ctx context.Context, source string, q model.SearchQuery) (string, error) {
	ex, ok := f.registry.Get(source)
	if !ok {
		return "", fmt.Errorf("unknown source %q", source)
	}
	searchURL := ex.SearchURL(q)
	if searchURL == "" {
		return "", fmt.Errorf("source %q built no search URL", source)
	}

	delay := time.Duration(0)
	if f.robots != nil {
		allowed, crawlDelay, err := f.robots.CanFetch(ctx, searchURL)
		if err == nil && !allowed {
			return "", fmt.Errorf("robots.txt disallows %s", searchURL)
		}
		delay = crawlDelay
	}

	if err := f.limiter.WaitWithDelay(ctx, searchURL, delay); err != nil {
		return "", fmt.Errorf("rate limit: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/json;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("unexpected status: %d %s", resp.StatusCode, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	return string(body), nil
}
