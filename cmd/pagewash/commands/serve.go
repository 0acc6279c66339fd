package commands

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/pagewash/internal/logger"
	"github.com/jmylchreest/pagewash/internal/metrics"
	"github.com/jmylchreest/pagewash/internal/server"
	"github.com/jmylchreest/pagewash/internal/version"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP service",
	Long: `Serve POST /scrape, GET /healthz and GET /metrics.

  curl -s localhost:5000/scrape -d '{"url": "https://example.com"}'`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	flags := serveCmd.Flags()
	flags.String("host", "", "listen address (default 0.0.0.0)")
	flags.Int("port", 0, "listen port (default $PORT or 5000)")
	flags.Bool("distinct-status", false, "answer 502 for fetch and model failures instead of 500")

	_ = v.BindPFlag("server.host", flags.Lookup("host"))
	_ = v.BindPFlag("server.port", flags.Lookup("port"))
	_ = v.BindPFlag("server.distinct_status", flags.Lookup("distinct-status"))
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	m := metrics.New()
	p, err := buildPipeline(cfg, m)
	if err != nil {
		logger.Error("failed to build pipeline", "error", err)
		return err
	}
	defer func() { _ = p.Close() }()

	srv := server.New(p, server.Options{
		Addr:           cfg.Server.Addr(),
		MaxBodyBytes:   cfg.Server.MaxBodyBytes,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		DistinctStatus: cfg.Server.DistinctStatus,
		Metrics:        m.Handler(),
		Observer:       m,
	})

	logger.Info("starting pagewash",
		"version", version.String(),
		"addr", cfg.Server.Addr(),
		"pipeline", p.String(),
		"provider", cfg.LLM.Provider,
		"model", cfg.LLM.Model,
		"max_body", humanize.Bytes(uint64(cfg.Server.MaxBodyBytes)))

	return srv.ListenAndServe(ctx)
}
