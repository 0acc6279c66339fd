// Package pipeline turns a URL into cleaned page text: fetch, extract,
// chunk, clean each chunk with a language model, and number the results.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jmylchreest/pagewash/internal/logger"
	"github.com/jmylchreest/pagewash/pkg/chunker"
	"github.com/jmylchreest/pagewash/pkg/cleaner"
	"github.com/jmylchreest/pagewash/pkg/extract"
	"github.com/jmylchreest/pagewash/pkg/fetcher"
	"github.com/jmylchreest/pagewash/pkg/llm"
)

// ErrMissingURL is returned by Run for an empty URL.
var ErrMissingURL = errors.New("missing url")

// ChunkCleaner cleans one chunk. *cleaner.LLMCleaner implements it.
type ChunkCleaner interface {
	CleanChunk(ctx context.Context, chunk string, index int) (cleaner.Result, error)
}

// Result is the outcome of one Run. Only URL, Chunks and FinalOutput are part
// of the wire response; the rest is for logs and the CLI.
type Result struct {
	URL         string `json:"url" yaml:"url"`
	Chunks      int    `json:"chunks" yaml:"chunks"`
	FinalOutput string `json:"final_output" yaml:"final_output"`

	Cleaned       []string      `json:"-" yaml:"-"`
	TextLength    int           `json:"-" yaml:"-"` // code points of extracted text
	FetchedAt     time.Time     `json:"-" yaml:"-"`
	FetchDuration time.Duration `json:"-" yaml:"-"`
	CleanDuration time.Duration `json:"-" yaml:"-"`
	TokenUsage    llm.Usage     `json:"-" yaml:"-"`
	Model         string        `json:"-" yaml:"-"`

	// Error is set only on results delivered by RunMany.
	Error error `json:"-" yaml:"-"`
}

// Pipeline is safe for concurrent use when its components are.
type Pipeline struct {
	fetcher   fetcher.Fetcher
	extractor extract.Extractor
	chunker   chunker.Chunker
	cleaner   ChunkCleaner
	config    Config
}

// New assembles a pipeline from its stages.
func New(f fetcher.Fetcher, e extract.Extractor, c chunker.Chunker, cl ChunkCleaner, opts ...Option) *Pipeline {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}

	return &Pipeline{
		fetcher:   f,
		extractor: e,
		chunker:   c,
		cleaner:   cl,
		config:    cfg,
	}
}

// Run processes a single URL. On any failure it returns a *Error and no
// partial result.
func (p *Pipeline) Run(ctx context.Context, url string) (*Result, error) {
	if url == "" {
		return nil, ErrMissingURL
	}

	fetchStart := time.Now()
	content, err := p.fetcher.Fetch(ctx, url, p.config.FetchOptions)
	fetchDuration := time.Since(fetchStart)
	if p.config.Recorder != nil {
		p.config.Recorder.ObserveFetch(p.fetcher.Type(), fetchDuration, err)
	}
	if err != nil {
		return nil, stageError(StageFetch, err)
	}

	logger.DebugContext(ctx, "page fetched",
		"url", url,
		"fetcher", p.fetcher.Type(),
		"status", content.StatusCode,
		"html_size", len(content.HTML),
		"duration", fetchDuration)

	text, err := p.extractor.Extract(content.HTML)
	if err != nil {
		return nil, stageError(StageExtract, err)
	}

	chunks := p.chunker.Split(text)
	if p.config.Recorder != nil {
		p.config.Recorder.ObserveChunks(len(chunks))
	}

	logger.DebugContext(ctx, "text extracted",
		"extractor", p.extractor.Name(),
		"chunker", p.chunker.Name(),
		"text_size", len(text),
		"chunks", len(chunks))

	cleanStart := time.Now()
	results, err := p.cleanAll(ctx, chunks)
	if err != nil {
		return nil, stageError(StageModel, err)
	}

	res := &Result{
		URL:           url,
		Chunks:        len(chunks),
		Cleaned:       make([]string, len(results)),
		TextLength:    len([]rune(text)),
		FetchedAt:     content.FetchedAt,
		FetchDuration: fetchDuration,
		CleanDuration: time.Since(cleanStart),
	}
	for i, r := range results {
		res.Cleaned[i] = r.Text
		res.TokenUsage = res.TokenUsage.Add(r.Usage)
		if r.Model != "" {
			res.Model = r.Model
		}
	}
	res.FinalOutput = FormatOutput(res.Cleaned)

	return res, nil
}

// cleanAll returns one result per chunk, in chunk order.
func (p *Pipeline) cleanAll(ctx context.Context, chunks []string) ([]cleaner.Result, error) {
	results := make([]cleaner.Result, len(chunks))

	if p.config.Workers == 1 || len(chunks) < 2 {
		for i, chunk := range chunks {
			r, err := p.cleaner.CleanChunk(ctx, chunk, i)
			if err != nil {
				return nil, err
			}
			results[i] = r
		}
		return results, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.config.Workers)
	for i, chunk := range chunks {
		g.Go(func() error {
			r, err := p.cleaner.CleanChunk(gctx, chunk, i)
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// RunMany processes urls with at most concurrency pipelines in flight.
// Failures are delivered as results with Error set. The channel is closed
// once every URL has been handled.
func (p *Pipeline) RunMany(ctx context.Context, urls []string, concurrency int) <-chan *Result {
	if concurrency < 1 {
		concurrency = 1
	}

	results := make(chan *Result, len(urls))
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

	for _, url := range urls {
		wg.Add(1)
		go func(u string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			result, err := p.Run(ctx, u)
			if err != nil {
				results <- &Result{URL: u, Error: err}
				return
			}
			results <- result
		}(url)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	return results
}

// Close releases the fetcher.
func (p *Pipeline) Close() error {
	if p.fetcher != nil {
		return p.fetcher.Close()
	}
	return nil
}

// String describes the configured stages for startup logs.
func (p *Pipeline) String() string {
	return fmt.Sprintf("%s -> %s -> %s (workers=%d)",
		p.fetcher.Type(), p.extractor.Name(), p.chunker.Name(), p.config.Workers)
}
