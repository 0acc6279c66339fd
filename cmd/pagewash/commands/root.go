// Package commands implements the CLI commands for pagewash.
package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/pagewash/internal/config"
	"github.com/jmylchreest/pagewash/internal/logger"
)

// v holds the layered configuration shared by every command.
var v = config.New()

var rootCmd = &cobra.Command{
	Use:   "pagewash",
	Short: "Fetch web pages and return LLM-cleaned readable text",
	Long: `pagewash fetches a page through a rendering proxy, strips it to plain
text, splits the text into chunks and asks a language model to remove ads,
navigation and other boilerplate from each chunk.

Examples:
  # Run the HTTP service on :5000
  GEMINI_API_KEY=... SCRAPER_API_KEY=... pagewash serve

  # Clean a single page from the command line
  pagewash scrape -u "https://example.com/article"

  # Fetch directly without the proxy and use a local Ollama model
  pagewash scrape -u "https://example.com" --fetch-mode static -p ollama -m llama3.2`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		return initLogger(cmd)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()

	// Global flags
	pf.String("config", "", "config file (default ./.pagewash.yaml or $HOME/.pagewash.yaml)")
	pf.String("env-file", ".env", "dotenv file loaded into the environment if present")
	pf.Bool("debug", false, "enable debug logging")
	pf.BoolP("quiet", "q", false, "only log errors")
	pf.String("log-level", "", "log level: debug, info, warn, error")
	pf.Bool("log-json", false, "log as JSON")

	// Fetch settings
	pf.String("fetch-mode", "", "fetch mode: proxy, static, browser")
	pf.Duration("fetch-timeout", 0, "fetch timeout (default 70s)")

	// Text settings
	pf.String("extract", "", "text extraction: text, readability")
	pf.String("chunk-strategy", "", "chunking: fixed (code points), tokens")
	pf.Int("chunk-size", 0, "chunk size: code points for fixed (default 50000), tokens for tokens (default 12000)")

	// LLM settings
	pf.StringP("provider", "p", "", "LLM provider: gemini, openai, anthropic, openrouter, ollama")
	pf.StringP("model", "m", "", "model name (provider-specific)")
	pf.StringP("api-key", "k", "", "LLM API key (or use the provider's env var)")
	pf.String("base-url", "", "custom LLM API base URL")
	pf.Int("workers", 0, "chunks cleaned concurrently (default 1, sequential)")

	// Viper only prefers a bound flag over lower layers once it has been
	// set on the command line.
	for key, flag := range map[string]string{
		"log.level":      "log-level",
		"log.json":       "log-json",
		"fetch.mode":     "fetch-mode",
		"fetch.timeout":  "fetch-timeout",
		"extract.mode":   "extract",
		"chunk.strategy": "chunk-strategy",
		"chunk.size":     "chunk-size",
		"llm.provider":   "provider",
		"llm.model":      "model",
		"llm.api_key":    "api-key",
		"llm.base_url":   "base-url",
		"clean.workers":  "workers",
	} {
		_ = v.BindPFlag(key, pf.Lookup(flag))
	}
}

func initConfig() {
	envFile, _ := rootCmd.PersistentFlags().GetString("env-file")
	if err := config.LoadDotEnv(envFile); err != nil {
		logError("%v", err)
	}

	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if err := config.ReadFile(v, cfgFile); err != nil {
		logError("%v", err)
		os.Exit(1)
	}
}

// initLogger reads the flags through cmd; referencing rootCmd here would make
// its initializer depend on itself.
func initLogger(cmd *cobra.Command) error {
	pf := cmd.Root().PersistentFlags()
	debug, _ := pf.GetBool("debug")
	quiet, _ := pf.GetBool("quiet")
	return logger.Init(logger.Options{
		Level: v.GetString("log.level"),
		Debug: debug,
		Quiet: quiet,
		JSON:  v.GetBool("log.json"),
	})
}

// loadConfig resolves the final configuration after flags are parsed.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(v)
	if err != nil {
		return nil, err
	}
	logger.Debug("configuration loaded",
		"config_file", v.ConfigFileUsed(),
		"fetch_mode", cfg.Fetch.Mode,
		"provider", cfg.LLM.Provider,
		"model", cfg.LLM.Model,
		"chunk_strategy", cfg.Chunk.Strategy,
		"chunk_size", cfg.Chunk.Size,
		"workers", cfg.Clean.Workers)
	return cfg, nil
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// logError prints an error message to stderr.
func logError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
}
