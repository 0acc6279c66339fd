package fetcher

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/jmylchreest/pagewash/internal/logger"
)

// maxErrorBody caps how much of an upstream error body ends up in an error message.
const maxErrorBody = 256

// visitRequest describes one colly GET.
type visitRequest struct {
	requestURL string // URL actually requested (may be the proxy endpoint)
	targetURL  string // URL the caller asked for, used in results and errors
	userAgent  string
	timeout    time.Duration
	headers    map[string]string
}

// visit performs a single GET with a fresh collector. Every HTTP status is
// delivered to OnResponse so that non-2xx answers become ErrUpstreamStatus
// rather than colly's bare status text.
func visit(ctx context.Context, req visitRequest) (Content, error) {
	result := Content{
		URL:       req.targetURL,
		FetchedAt: time.Now(),
	}

	opts := []colly.CollectorOption{
		colly.ParseHTTPErrorResponse(),
		colly.AllowURLRevisit(),
		colly.StdlibContext(ctx),
		// colly truncates bodies over 10MiB by default; pages are read whole.
		colly.MaxBodySize(0),
	}
	if req.userAgent != "" {
		opts = append(opts, colly.UserAgent(req.userAgent))
	}
	c := colly.NewCollector(opts...)
	c.SetRequestTimeout(req.timeout)

	if len(req.headers) > 0 {
		c.OnRequest(func(r *colly.Request) {
			for k, v := range req.headers {
				r.Headers.Set(k, v)
			}
		})
	}

	var fetchErr error

	c.OnResponse(func(r *colly.Response) {
		result.StatusCode = r.StatusCode
		if r.Headers != nil {
			result.ContentType = r.Headers.Get("Content-Type")
		}
		logger.DebugContext(ctx, "fetch response received",
			"url", req.targetURL,
			"status", r.StatusCode,
			"content_type", result.ContentType,
			"body_size", len(r.Body))

		if r.StatusCode < 200 || r.StatusCode > 299 {
			fetchErr = statusError(r.StatusCode, r.Body, req.targetURL)
			return
		}
		result.HTML = string(r.Body)
	})

	c.OnError(func(r *colly.Response, err error) {
		if fetchErr != nil {
			return
		}
		if r != nil && r.StatusCode != 0 {
			result.StatusCode = r.StatusCode
		}
		fetchErr = fmt.Errorf("fetch %s: %w", req.targetURL, hideRequestURL(err, req.targetURL))
	})

	if err := c.Visit(req.requestURL); err != nil && fetchErr == nil {
		fetchErr = fmt.Errorf("fetch %s: %w", req.targetURL, hideRequestURL(err, req.targetURL))
	}
	if fetchErr != nil {
		logger.DebugContext(ctx, "fetch failed", "url", req.targetURL, "error", fetchErr)
		return result, fetchErr
	}

	return result, nil
}

// statusError renders a non-2xx answer. The requested URL is reported instead
// of the proxy URL so API keys never leak into error messages.
func statusError(code int, body []byte, targetURL string) error {
	detail := strings.TrimSpace(string(body))
	if len(detail) > maxErrorBody {
		detail = detail[:maxErrorBody] + "..."
	}
	msg := fmt.Sprintf("%d %s for url: %s", code, http.StatusText(code), targetURL)
	if detail != "" {
		msg += " (" + detail + ")"
	}
	return fmt.Errorf("%w: %s", ErrUpstreamStatus, msg)
}

// hideRequestURL rewrites the URL inside transport errors to the target URL,
// since the proxy request URL carries the API key.
func hideRequestURL(err error, targetURL string) error {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		uerr.URL = targetURL
	}
	return err
}
