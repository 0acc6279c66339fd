package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/pagewash/internal/logger"
	"github.com/jmylchreest/pagewash/internal/output"
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Clean one or more URLs and print the result",
	Long: `Run the fetch, extract, chunk and clean pipeline once per URL without
starting a server.

Examples:
  # Single page, JSON shaped like the POST /scrape response
  pagewash scrape -u "https://example.com/article"

  # Several pages as JSON lines, two at a time, with token stats
  pagewash scrape -u https://a.example -u https://b.example \
      --format jsonl -c 2 --stats

  # Just the cleaned text
  pagewash scrape -u "https://example.com" --format text`,
	RunE: runScrape,
}

func init() {
	rootCmd.AddCommand(scrapeCmd)

	flags := scrapeCmd.Flags()
	flags.StringSliceP("url", "u", nil, "URL(s) to scrape (can be repeated)")
	flags.StringP("output", "o", "", "output file (default: stdout)")
	flags.String("format", string(output.FormatJSON), "output format: "+formatNames())
	flags.Bool("stats", false, "include model, token and timing stats per URL")
	flags.IntP("concurrency", "c", 1, "URLs processed concurrently")
}

func formatNames() string {
	names := make([]string, len(output.Formats))
	for i, f := range output.Formats {
		names[i] = string(f)
	}
	return strings.Join(names, ", ")
}

func runScrape(cmd *cobra.Command, args []string) error {
	urls, _ := cmd.Flags().GetStringSlice("url")
	urls = append(urls, args...)
	if len(urls) == 0 {
		return cmd.Help()
	}

	cfg, err := loadConfig()
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	p, err := buildPipeline(cfg, nil)
	if err != nil {
		logger.Error("failed to build pipeline", "error", err)
		return err
	}
	defer func() { _ = p.Close() }()

	// Setup output
	outFile := os.Stdout
	if outPath, _ := cmd.Flags().GetString("output"); outPath != "" {
		f, err := os.Create(outPath) //#nosec G304 -- CLI tool writes to user-specified output file
		if err != nil {
			logger.Error("failed to create output file", "path", outPath, "error", err)
			return err
		}
		defer func() { _ = f.Close() }()
		outFile = f
	}

	formatStr, _ := cmd.Flags().GetString("format")
	writer, err := output.NewWriter(outFile, output.Format(formatStr))
	if err != nil {
		logger.Error("failed to create output writer", "format", formatStr, "error", err)
		return err
	}

	withStats, _ := cmd.Flags().GetBool("stats")
	concurrency, _ := cmd.Flags().GetInt("concurrency")

	logger.Info("starting scrape", "urls", len(urls), "pipeline", p.String(), "concurrency", concurrency)

	var count, errorCount, inputTokens, outputTokens int
	for res := range p.RunMany(ctx, urls, concurrency) {
		if res.Error != nil {
			errorCount++
			logger.Error("scrape failed", "url", res.URL, "error", res.Error)
		} else {
			count++
			inputTokens += res.TokenUsage.InputTokens
			outputTokens += res.TokenUsage.OutputTokens
			logger.Info("scraped",
				"url", res.URL,
				"chunks", res.Chunks,
				"text", humanize.Comma(int64(res.TextLength))+" chars",
				"fetch", res.FetchDuration,
				"clean", res.CleanDuration)
		}

		if err := writer.Write(output.FromResult(res, withStats)); err != nil {
			logger.Error("failed to write output", "error", err)
			return err
		}
	}
	if err := writer.Close(); err != nil {
		logger.Error("failed to write output", "error", err)
		return err
	}

	logger.Info("scrape complete",
		"cleaned", count,
		"errors", errorCount,
		"input_tokens", humanize.Comma(int64(inputTokens)),
		"output_tokens", humanize.Comma(int64(outputTokens)))

	if errorCount > 0 {
		return fmt.Errorf("%d of %d URLs failed", errorCount, len(urls))
	}
	return nil
}
