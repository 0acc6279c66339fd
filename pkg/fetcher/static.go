package fetcher

import (
	"context"
	"time"

	"github.com/jmylchreest/pagewash/internal/logger"
)

// DefaultUserAgent is sent by the static and browser fetchers when none is
// configured. The proxy picks its own.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// StaticConfig holds configuration for the static fetcher.
type StaticConfig struct {
	UserAgent string
	Timeout   time.Duration
}

// StaticFetcher GETs the target directly. No proxy, no JavaScript: pages
// that render client-side come back mostly empty.
type StaticFetcher struct {
	userAgent string
	timeout   time.Duration
}

// NewStatic creates a static fetcher, filling in DefaultUserAgent and
// DefaultTimeout for zero values.
func NewStatic(cfg StaticConfig) *StaticFetcher {
	f := &StaticFetcher{userAgent: cfg.UserAgent, timeout: cfg.Timeout}
	if f.userAgent == "" {
		f.userAgent = DefaultUserAgent
	}
	if f.timeout <= 0 {
		f.timeout = DefaultTimeout
	}
	return f
}

// Fetch retrieves targetURL with a single colly GET.
func (f *StaticFetcher) Fetch(ctx context.Context, targetURL string, opts Options) (Content, error) {
	logger.DebugContext(ctx, "static fetch starting", "url", targetURL, "user_agent", f.userAgent)

	return visit(ctx, visitRequest{
		requestURL: targetURL,
		targetURL:  targetURL,
		userAgent:  f.userAgent,
		timeout:    firstDuration(opts.Timeout, f.timeout),
		headers:    opts.Headers,
	})
}

// Close releases resources. The static fetcher holds none.
func (f *StaticFetcher) Close() error { return nil }

// Type returns the fetcher type.
func (f *StaticFetcher) Type() string { return ModeStatic }
