package fetcher

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"github.com/jmylchreest/pagewash/internal/logger"
)

// BrowserConfig holds configuration for the headless browser fetcher.
type BrowserConfig struct {
	UserAgent string
	Timeout   time.Duration
	// WaitDuration is an extra pause after <body> becomes visible, for pages
	// that keep rendering after load.
	WaitDuration time.Duration
}

// hideWebdriver runs before any page script so sites see a regular browser.
const hideWebdriver = `Object.defineProperty(navigator, 'webdriver', {get: () => undefined});`

// BrowserFetcher renders pages in a local headless Chrome via chromedp.
// It is the proxy-less way to get JavaScript-generated content.
type BrowserFetcher struct {
	config      BrowserConfig
	allocCtx    context.Context
	cancelAlloc context.CancelFunc
}

// NewBrowser creates a browser allocator. Chrome itself is started lazily on
// the first Fetch.
func NewBrowser(cfg BrowserConfig) (*BrowserFetcher, error) {
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.UserAgent(cfg.UserAgent),
		chromedp.WindowSize(1920, 1080),
	)

	allocCtx, cancel := chromedp.NewExecAllocator(context.Background(), opts...)
	logger.Debug("browser fetcher allocator created", "user_agent", cfg.UserAgent)

	return &BrowserFetcher{
		config:      cfg,
		allocCtx:    allocCtx,
		cancelAlloc: cancel,
	}, nil
}

// Fetch navigates to targetURL and returns the rendered document HTML.
func (f *BrowserFetcher) Fetch(ctx context.Context, targetURL string, opts Options) (Content, error) {
	logger.DebugContext(ctx, "browser fetch starting", "url", targetURL)

	result := Content{
		URL:       targetURL,
		FetchedAt: time.Now(),
	}

	browserCtx, cancelBrowser := chromedp.NewContext(f.allocCtx)
	defer cancelBrowser()

	timeoutCtx, cancelTimeout := context.WithTimeout(browserCtx, firstDuration(opts.Timeout, f.config.Timeout))
	defer cancelTimeout()

	// Propagate caller cancellation into the browser tab.
	stop := context.AfterFunc(ctx, cancelTimeout)
	defer stop()

	var (
		mu     sync.Mutex
		status int64
	)
	chromedp.ListenTarget(browserCtx, func(ev any) {
		if e, ok := ev.(*network.EventResponseReceived); ok && e.Type == network.ResourceTypeDocument {
			mu.Lock()
			if status == 0 {
				status = e.Response.Status
			}
			mu.Unlock()
		}
	})

	actions := []chromedp.Action{
		network.Enable(),
		chromedp.ActionFunc(func(ctx context.Context) error {
			_, err := page.AddScriptToEvaluateOnNewDocument(hideWebdriver).Do(ctx)
			return err
		}),
	}
	if len(opts.Headers) > 0 {
		headers := make(network.Headers, len(opts.Headers))
		for k, v := range opts.Headers {
			headers[k] = v
		}
		actions = append(actions, network.SetExtraHTTPHeaders(headers))
	}
	actions = append(actions,
		chromedp.Navigate(targetURL),
		chromedp.WaitVisible("body"),
	)
	if f.config.WaitDuration > 0 {
		actions = append(actions, chromedp.Sleep(f.config.WaitDuration))
	}

	var html string
	actions = append(actions, chromedp.OuterHTML("html", &html))

	err := chromedp.Run(timeoutCtx, actions...)
	if err != nil {
		return result, fmt.Errorf("browser fetch %s: %w", targetURL, err)
	}

	mu.Lock()
	code := status
	mu.Unlock()
	result.StatusCode, err = documentStatus(code, targetURL)
	if err != nil {
		return result, err
	}

	result.HTML = html
	result.ContentType = "text/html"

	logger.DebugContext(ctx, "browser fetch complete", "url", targetURL, "html_size", len(html))
	return result, nil
}

// documentStatus turns the first document response status into the reported
// status code. Zero means no response event arrived and is treated as 200.
func documentStatus(status int64, targetURL string) (int, error) {
	code := int(status)
	if code == 0 {
		code = http.StatusOK
	}
	if code < 200 || code > 299 {
		return code, statusError(code, nil, targetURL)
	}
	return code, nil
}

// Close shuts down the browser allocator.
func (f *BrowserFetcher) Close() error {
	if f.cancelAlloc != nil {
		f.cancelAlloc()
	}
	return nil
}

// Type returns the fetcher type.
func (f *BrowserFetcher) Type() string {
	return ModeBrowser
}
