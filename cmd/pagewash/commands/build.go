package commands

import (
	"context"
	"fmt"

	"github.com/jmylchreest/pagewash/internal/config"
	"github.com/jmylchreest/pagewash/internal/logger"
	"github.com/jmylchreest/pagewash/internal/metrics"
	"github.com/jmylchreest/pagewash/pkg/chunker"
	"github.com/jmylchreest/pagewash/pkg/cleaner"
	"github.com/jmylchreest/pagewash/pkg/extract"
	"github.com/jmylchreest/pagewash/pkg/fetcher"
	"github.com/jmylchreest/pagewash/pkg/llm"
	"github.com/jmylchreest/pagewash/pkg/pipeline"
)

const projectURL = "https://github.com/jmylchreest/pagewash"

// buildPipeline wires every stage from cfg. m may be nil when no metrics are
// exported.
func buildPipeline(cfg *config.Config, m *metrics.Metrics) (*pipeline.Pipeline, error) {
	if cfg.Fetch.Mode == fetcher.ModeProxy && cfg.Fetch.APIKey == "" {
		logger.Warn("no proxy API key configured; set SCRAPER_API_KEY or fetch.api_key")
	}

	f, err := fetcher.New(fetcher.Config{
		Mode:      cfg.Fetch.Mode,
		APIKey:    cfg.Fetch.APIKey,
		ProxyURL:  cfg.Fetch.ProxyURL,
		Render:    cfg.Fetch.Render,
		UserAgent: cfg.Fetch.UserAgent,
		Timeout:   cfg.Fetch.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create fetcher: %w", err)
	}

	ext, err := extract.New(cfg.Extract.Mode)
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	ch, err := chunker.New(chunker.Config{
		Strategy: cfg.Chunk.Strategy,
		Size:     cfg.Chunk.Size,
		Encoding: cfg.Chunk.Encoding,
	})
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to create chunker: %w", err)
	}

	provider, err := llm.NewProvider(cfg.LLM.Provider, llm.ProviderConfig{
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		Timeout:     cfg.LLM.Timeout,
		MaxTokens:   cfg.LLM.MaxTokens,
		HTTPReferer: projectURL,
		AppTitle:    "pagewash",
	})
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to create %s provider: %w", cfg.LLM.Provider, err)
	}

	observers := llm.MultiObserver{llm.ObserverFunc(logLLMCall)}
	if m != nil {
		observers = append(observers, m)
	}

	cl := cleaner.New(llm.WithObserver(provider, observers),
		cleaner.WithTemperature(cfg.LLM.Temperature),
		cleaner.WithMaxTokens(cfg.LLM.MaxTokens),
	)

	opts := []pipeline.Option{pipeline.WithWorkers(cfg.Clean.Workers)}
	if m != nil {
		opts = append(opts, pipeline.WithRecorder(m))
	}

	p := pipeline.New(f, ext, ch, cl, opts...)
	logger.Debug("pipeline built", "stages", p.String(), "provider", provider.Name(), "model", provider.Model())
	return p, nil
}

func logLLMCall(ctx context.Context, e llm.CallEvent) {
	log := logger.FromContext(ctx)
	if e.Err != nil {
		log.Warn("llm call failed",
			"provider", e.Provider,
			"model", e.Model,
			"duration", e.Duration,
			"error", e.Err)
		return
	}
	log.Debug("llm call",
		"provider", e.Provider,
		"model", e.Model,
		"input_chars", e.InputChars,
		"input_tokens", e.Usage.InputTokens,
		"output_tokens", e.Usage.OutputTokens,
		"finish", e.Finish,
		"duration", e.Duration)
}
