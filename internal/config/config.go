package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Discovery DiscoveryConfig `yaml:"discovery" mapstructure:"discovery"`
	Catalog   CatalogConfig   `yaml:"catalog" mapstructure:"catalog"`
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Batch     BatchConfig     `yaml:"batch" mapstructure:"batch"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	RateLimitRPS   float64  `yaml:"rate_limit_rps" mapstructure:"rate_limit_rps"`
	RateLimitBurst int      `yaml:"rate_limit_burst" mapstructure:"rate_limit_burst"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	// TrustProxyHeaders takes the client IP from X-Forwarded-For/X-Real-IP.
	// Enable only behind a proxy that overwrites those headers.
	TrustProxyHeaders bool `yaml:"trust_proxy_headers" mapstructure:"trust_proxy_headers"`
}

// DiscoveryConfig configures homepage fetching and extraction.
type DiscoveryConfig struct {
	FetchTimeoutSecs int    `yaml:"fetch_timeout_secs" mapstructure:"fetch_timeout_secs"`
	UserAgent        string `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes     int64  `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	ExcerptChars     int    `yaml:"excerpt_chars" mapstructure:"excerpt_chars"`
	MaxKeywords      int    `yaml:"max_keywords" mapstructure:"max_keywords"`
}

// FetchTimeout returns the fetch timeout as a duration.
func (d DiscoveryConfig) FetchTimeout() time.Duration {
	return time.Duration(d.FetchTimeoutSecs) * time.Second
}

// CatalogConfig points at an override table. Empty means the embedded one.
type CatalogConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// StoreConfig configures the optional run journal.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// Journal drivers.
const (
	DriverNone     = "none"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Enabled reports whether a journal driver is configured.
func (s StoreConfig) Enabled() bool {
	return s.Driver != "" && s.Driver != DriverNone
}

// BatchConfig configures batch discovery.
type BatchConfig struct {
	Concurrency int `yaml:"concurrency" mapstructure:"concurrency"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("COMPETITOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.rate_limit_rps", 2)
	v.SetDefault("server.rate_limit_burst", 5)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.trust_proxy_headers", false)
	v.SetDefault("discovery.fetch_timeout_secs", 10)
	v.SetDefault("discovery.user_agent", "Mozilla/5.0 (compatible; AEOBot/1.0; +https://aeo.live)")
	v.SetDefault("discovery.max_body_bytes", 2<<20)
	v.SetDefault("discovery.excerpt_chars", 2000)
	v.SetDefault("discovery.max_keywords", 10)
	v.SetDefault("catalog.path", "")
	v.SetDefault("store.driver", DriverNone)
	v.SetDefault("store.database_url", "")
	v.SetDefault("batch.concurrency", 5)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings a command mode depends on. Modes are
// "discover", "batch", "serve", and "store".
func (c *Config) Validate(mode string) error {
	var errs []string

	checkDiscovery := func() {
		if c.Discovery.FetchTimeoutSecs <= 0 || c.Discovery.FetchTimeoutSecs > 120 {
			errs = append(errs, fmt.Sprintf("discovery.fetch_timeout_secs must be 1..120, got %d", c.Discovery.FetchTimeoutSecs))
		}
		if c.Discovery.MaxKeywords <= 0 {
			errs = append(errs, "discovery.max_keywords must be positive")
		}
		if c.Discovery.MaxBodyBytes <= 0 {
			errs = append(errs, "discovery.max_body_bytes must be positive")
		}
	}
	checkStore := func() {
		switch c.Store.Driver {
		case DriverNone, "":
		case DriverSQLite, DriverPostgres:
			if c.Store.DatabaseURL == "" {
				errs = append(errs, fmt.Sprintf("store.database_url is required for driver %q", c.Store.Driver))
			}
		default:
			errs = append(errs, fmt.Sprintf("store.driver must be none, sqlite, or postgres, got %q", c.Store.Driver))
		}
	}

	switch mode {
	case "discover":
		checkDiscovery()
		checkStore()
	case "batch":
		checkDiscovery()
		checkStore()
		if c.Batch.Concurrency < 1 || c.Batch.Concurrency > 100 {
			errs = append(errs, fmt.Sprintf("batch.concurrency must be 1..100, got %d", c.Batch.Concurrency))
		}
	case "serve":
		checkDiscovery()
		checkStore()
		if c.Server.Port < 1 || c.Server.Port > 65535 {
			errs = append(errs, fmt.Sprintf("server.port must be 1..65535, got %d", c.Server.Port))
		}
		if c.Server.RateLimitRPS <= 0 {
			errs = append(errs, "server.rate_limit_rps must be positive")
		}
		if c.Server.RateLimitBurst < 1 {
			errs = append(errs, "server.rate_limit_burst must be at least 1")
		}
	case "store":
		checkStore()
		if c.Store.Driver == DriverNone || c.Store.Driver == "" {
			errs = append(errs, "store.driver must be sqlite or postgres")
		}
	default:
		return eris.Errorf("config: unknown validation mode %q", mode)
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
