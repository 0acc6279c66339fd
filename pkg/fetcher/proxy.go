package fetcher

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/jmylchreest/pagewash/internal/logger"
)

// DefaultProxyURL is the ScraperAPI endpoint.
const DefaultProxyURL = "https://api.scraperapi.com/"

// ProxyConfig holds configuration for the rendering proxy fetcher.
type ProxyConfig struct {
	APIKey   string
	Endpoint string
	Render   bool
	Timeout  time.Duration
}

// ProxyFetcher retrieves pages through a ScraperAPI-compatible proxy:
// GET <endpoint>?api_key=...&url=...&render=true.
type ProxyFetcher struct {
	config ProxyConfig
}

// NewProxy creates a proxy fetcher. An empty endpoint uses DefaultProxyURL.
func NewProxy(cfg ProxyConfig) *ProxyFetcher {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultProxyURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &ProxyFetcher{config: cfg}
}

// Fetch asks the proxy for the rendered HTML of targetURL.
func (f *ProxyFetcher) Fetch(ctx context.Context, targetURL string, opts Options) (Content, error) {
	requestURL, err := f.requestURL(targetURL)
	if err != nil {
		return Content{URL: targetURL}, err
	}

	logger.DebugContext(ctx, "proxy fetch starting",
		"url", targetURL,
		"render", f.config.Render)

	return visit(ctx, visitRequest{
		requestURL: requestURL,
		targetURL:  targetURL,
		timeout:    firstDuration(opts.Timeout, f.config.Timeout),
		headers:    opts.Headers,
	})
}

func (f *ProxyFetcher) requestURL(targetURL string) (string, error) {
	u, err := url.Parse(f.config.Endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid proxy endpoint %q: %w", f.config.Endpoint, err)
	}
	q := u.Query()
	q.Set("api_key", f.config.APIKey)
	q.Set("url", targetURL)
	if f.config.Render {
		q.Set("render", "true")
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Close releases resources.
func (f *ProxyFetcher) Close() error {
	return nil
}

// Type returns the fetcher type.
func (f *ProxyFetcher) Type() string {
	return ModeProxy
}
