// Package fetcher retrieves rendered HTML for a URL.
//
// The default fetcher goes through a ScraperAPI-compatible rendering proxy.
// Static (direct HTTP) and browser (local headless Chrome) fetchers share the
// same interface so the pipeline does not care where the HTML came from.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Fetcher abstracts page fetching strategies.
type Fetcher interface {
	// Fetch retrieves page content from a URL.
	Fetch(ctx context.Context, url string, opts Options) (Content, error)

	// Close releases any resources (browser instances, etc.).
	Close() error

	// Type returns a string identifying the fetcher type (e.g., "proxy", "static").
	Type() string
}

// Options controls a single fetch. Zero values fall back to the fetcher config.
type Options struct {
	Timeout time.Duration
	Headers map[string]string
}

// Content represents fetched page data.
type Content struct {
	URL         string
	HTML        string
	StatusCode  int
	ContentType string
	FetchedAt   time.Time
}

// Fetch modes accepted by New.
const (
	ModeProxy   = "proxy"
	ModeStatic  = "static"
	ModeBrowser = "browser"
)

// DefaultTimeout bounds a fetch when nothing else is configured.
// Rendering proxies routinely need close to a minute for JS-heavy pages.
const DefaultTimeout = 70 * time.Second

// Error types for distinguishing failure reasons.
var (
	// ErrUpstreamStatus indicates the proxy or site answered with a non-2xx status.
	ErrUpstreamStatus = errors.New("upstream returned non-2xx status")
	// ErrUnknownMode is returned by New for an unrecognised fetch mode.
	ErrUnknownMode = errors.New("unknown fetch mode")
)

// Config selects and configures a fetcher.
type Config struct {
	Mode      string
	APIKey    string // Proxy API key
	ProxyURL  string // Proxy endpoint; defaults to DefaultProxyURL
	Render    bool   // Ask the proxy to execute JavaScript
	UserAgent string
	Timeout   time.Duration
}

// New builds the fetcher for cfg.Mode.
func New(cfg Config) (Fetcher, error) {
	switch cfg.Mode {
	case ModeProxy, "":
		return NewProxy(ProxyConfig{
			APIKey:   cfg.APIKey,
			Endpoint: cfg.ProxyURL,
			Render:   cfg.Render,
			Timeout:  cfg.Timeout,
		}), nil
	case ModeStatic:
		return NewStatic(StaticConfig{
			UserAgent: cfg.UserAgent,
			Timeout:   cfg.Timeout,
		}), nil
	case ModeBrowser:
		return NewBrowser(BrowserConfig{
			UserAgent: cfg.UserAgent,
			Timeout:   cfg.Timeout,
		})
	default:
		return nil, fmt.Errorf("%w: %s (use proxy, static or browser)", ErrUnknownMode, cfg.Mode)
	}
}

// firstDuration returns the first positive duration.
func firstDuration(values ...time.Duration) time.Duration {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 0
}
