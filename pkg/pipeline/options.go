package pipeline

import (
	"time"

	"github.com/jmylchreest/pagewash/pkg/fetcher"
)

// Recorder receives per-stage measurements. internal/metrics implements it.
type Recorder interface {
	ObserveFetch(mode string, d time.Duration, err error)
	ObserveChunks(n int)
}

// Config holds pipeline settings.
type Config struct {
	// Workers bounds how many chunks are cleaned at once. 1 (the default)
	// cleans strictly in index order.
	Workers int

	FetchOptions fetcher.Options
	Recorder     Recorder
}

// DefaultConfig returns sequential cleaning with no recorder.
func DefaultConfig() Config {
	return Config{Workers: 1}
}

// Option configures a Pipeline.
type Option func(*Config)

// WithWorkers sets the number of chunks cleaned concurrently.
func WithWorkers(n int) Option {
	return func(c *Config) {
		c.Workers = n
	}
}

// WithFetchOptions sets per-request fetch options.
func WithFetchOptions(opts fetcher.Options) Option {
	return func(c *Config) {
		c.FetchOptions = opts
	}
}

// WithRecorder attaches a stage recorder.
func WithRecorder(r Recorder) Option {
	return func(c *Config) {
		c.Recorder = r
	}
}
