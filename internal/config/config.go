// Package config loads the service configuration from defaults, an optional
// config file, an optional .env file, environment variables and CLI flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/jmylchreest/pagewash/pkg/chunker"
	"github.com/jmylchreest/pagewash/pkg/fetcher"
	"github.com/jmylchreest/pagewash/pkg/llm"
)

// EnvPrefix namespaces every configuration key in the environment, e.g.
// PAGEWASH_LLM_PROVIDER for llm.provider.
const EnvPrefix = "PAGEWASH"

// ErrMissingAPIKey is returned by Load when the selected LLM provider needs a
// key and none was configured.
var ErrMissingAPIKey = errors.New("missing LLM API key")

// Config is the fully resolved configuration. It is built once at startup and
// never mutated afterwards.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Fetch   FetchConfig   `mapstructure:"fetch"`
	Extract ExtractConfig `mapstructure:"extract"`
	Chunk   ChunkConfig   `mapstructure:"chunk"`
	LLM     LLMConfig     `mapstructure:"llm"`
	Clean   CleanConfig   `mapstructure:"clean"`
	Log     LogConfig     `mapstructure:"log"`
}

type ServerConfig struct {
	Host           string        `mapstructure:"host"`
	Port           int           `mapstructure:"port" validate:"min=1,max=65535"`
	MaxBodySize    string        `mapstructure:"max_body_size" validate:"required"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout" validate:"gte=0"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout" validate:"gte=0"`
	DistinctStatus bool          `mapstructure:"distinct_status"`

	// MaxBodyBytes is MaxBodySize parsed by Load.
	MaxBodyBytes int64 `mapstructure:"-"`
}

// Addr returns host:port for net/http.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type FetchConfig struct {
	Mode      string        `mapstructure:"mode" validate:"oneof=proxy static browser"`
	APIKey    string        `mapstructure:"api_key"`
	ProxyURL  string        `mapstructure:"proxy_url" validate:"omitempty,url"`
	Render    bool          `mapstructure:"render"`
	Timeout   time.Duration `mapstructure:"timeout" validate:"gt=0"`
	UserAgent string        `mapstructure:"user_agent"`
}

type ExtractConfig struct {
	Mode string `mapstructure:"mode" validate:"oneof=text readability"`
}

type ChunkConfig struct {
	Strategy string `mapstructure:"strategy" validate:"oneof=fixed tokens"`
	Size     int    `mapstructure:"size" validate:"min=1"`
	Encoding string `mapstructure:"encoding"`
}

type LLMConfig struct {
	Provider    string        `mapstructure:"provider" validate:"oneof=gemini openai anthropic openrouter ollama"`
	Model       string        `mapstructure:"model"`
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url" validate:"omitempty,url"`
	Timeout     time.Duration `mapstructure:"timeout" validate:"gt=0"`
	Temperature float64       `mapstructure:"temperature" validate:"min=0,max=2"`
	MaxTokens   int           `mapstructure:"max_tokens" validate:"min=0"`
}

type CleanConfig struct {
	Workers int `mapstructure:"workers" validate:"min=1,max=64"`
}

type LogConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

// SetDefaults registers every key's default on v. Registering defaults also
// makes each key visible to AutomaticEnv during Unmarshal.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.max_body_size", "1MB")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Minute)
	v.SetDefault("server.distinct_status", false)

	v.SetDefault("fetch.mode", fetcher.ModeProxy)
	v.SetDefault("fetch.api_key", "")
	v.SetDefault("fetch.proxy_url", fetcher.DefaultProxyURL)
	v.SetDefault("fetch.render", true)
	v.SetDefault("fetch.timeout", fetcher.DefaultTimeout)
	v.SetDefault("fetch.user_agent", "")

	v.SetDefault("extract.mode", "text")

	v.SetDefault("chunk.strategy", chunker.StrategyFixed)
	v.SetDefault("chunk.size", 0) // 0 picks the strategy's own default
	v.SetDefault("chunk.encoding", chunker.DefaultEncoding)

	v.SetDefault("llm.provider", "gemini")
	v.SetDefault("llm.model", "")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.timeout", llm.DefaultTimeout)
	v.SetDefault("llm.temperature", 0.0)
	v.SetDefault("llm.max_tokens", llm.DefaultMaxTokens)

	v.SetDefault("clean.workers", 1)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", false)
}

// BindEnv maps PAGEWASH_<SECTION>_<KEY> onto every key and adds the
// unprefixed variables the service has always honoured.
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	_ = v.BindEnv("server.port", EnvPrefix+"_SERVER_PORT", "PORT")
	_ = v.BindEnv("fetch.api_key", EnvPrefix+"_FETCH_API_KEY", "SCRAPER_API_KEY")
}

// New returns a viper instance with defaults and environment bindings applied.
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	BindEnv(v)
	return v
}

// ReadFile reads cfgFile, or looks for .pagewash.yaml in the working
// directory and then $HOME. A missing default file is not an error.
func ReadFile(v *viper.Viper, cfgFile string) error {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", cfgFile, err)
		}
		return nil
	}

	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(home)
	}
	v.SetConfigName(".pagewash")
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

// LoadDotEnv copies KEY=value pairs from path into the process environment.
// Variables that are already set win. A missing file is not an error.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}

	env := viper.New()
	env.SetConfigFile(path)
	env.SetConfigType("env")
	if err := env.ReadInConfig(); err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	for _, key := range env.AllKeys() {
		name := strings.ToUpper(key)
		if _, set := os.LookupEnv(name); set {
			continue
		}
		if err := os.Setenv(name, env.GetString(key)); err != nil {
			return fmt.Errorf("set %s: %w", name, err)
		}
	}
	return nil
}

// Load decodes v into a Config, fills provider-dependent defaults and
// validates the result.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = llm.APIKeyFromEnv(cfg.LLM.Provider)
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = llm.GetDefaultModel(cfg.LLM.Provider)
	}
	if cfg.Chunk.Size == 0 {
		cfg.Chunk.Size = defaultChunkSize(cfg.Chunk.Strategy)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	size, err := humanize.ParseBytes(cfg.Server.MaxBodySize)
	if err != nil {
		return nil, fmt.Errorf("invalid server.max_body_size %q: %w", cfg.Server.MaxBodySize, err)
	}
	cfg.Server.MaxBodyBytes = int64(size)

	return &cfg, nil
}

// defaultChunkSize is code points for the fixed strategy and tokens for the
// tokens strategy.
func defaultChunkSize(strategy string) int {
	if strategy == chunker.StrategyTokens {
		return chunker.DefaultTokenSize
	}
	return chunker.DefaultSize
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints and that the LLM provider has a key.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, describe(fe))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}

	if llm.RequiresAPIKey(c.LLM.Provider) && c.LLM.APIKey == "" {
		return fmt.Errorf("%w for provider %s (set llm.api_key or one of %s)",
			ErrMissingAPIKey, c.LLM.Provider, strings.Join(llm.APIKeyEnvVars(c.LLM.Provider), ", "))
	}
	return nil
}

// describe renders a validation failure using the config key path, e.g.
// "fetch.mode must be one of [proxy static browser], got \"ftp\"".
func describe(fe validator.FieldError) string {
	key := keyPath(fe.Namespace())
	switch fe.Tag() {
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got %q", key, fe.Param(), fmt.Sprint(fe.Value()))
	case "min", "gte":
		return fmt.Sprintf("%s must be at least %s", key, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", key, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", key, fe.Param())
	case "url":
		return fmt.Sprintf("%s must be a URL", key)
	case "required":
		return fmt.Sprintf("%s is required", key)
	default:
		return fmt.Sprintf("%s failed %s validation", key, fe.Tag())
	}
}

var keyNames = strings.NewReplacer(
	"MaxBodySize", "max_body_size",
	"ReadTimeout", "read_timeout",
	"WriteTimeout", "write_timeout",
	"DistinctStatus", "distinct_status",
	"APIKey", "api_key",
	"ProxyURL", "proxy_url",
	"UserAgent", "user_agent",
	"BaseURL", "base_url",
	"MaxTokens", "max_tokens",
)

// keyPath turns "Config.Fetch.ProxyURL" into "fetch.proxy_url".
func keyPath(namespace string) string {
	namespace = strings.TrimPrefix(namespace, "Config.")
	return strings.ToLower(keyNames.Replace(namespace))
}
