package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/valuation-cli/internal/store"
	"github.com/sells-group/valuation-cli/internal/valuation"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig       `yaml:"store" mapstructure:"store"`
	Redis     RedisConfig       `yaml:"redis" mapstructure:"redis"`
	Industry  IndustryConfig    `yaml:"industry" mapstructure:"industry"`
	Valuation valuation.Options `yaml:"valuation" mapstructure:"valuation"`
	Batch     BatchConfig       `yaml:"batch" mapstructure:"batch"`
	Server    ServerConfig      `yaml:"server" mapstructure:"server"`
	Log       LogConfig         `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the assessment database.
type StoreConfig struct {
	Driver      string           `yaml:"driver" mapstructure:"driver"` // sqlite or postgres
	DatabaseURL string           `yaml:"database_url" mapstructure:"database_url"`
	Pool        store.PoolConfig `yaml:"pool" mapstructure:"pool"`
}

// RedisConfig configures the optional industry lookup cache. An empty
// Addr disables caching.
type RedisConfig struct {
	Addr     string `yaml:"addr" mapstructure:"addr"`
	Password string `yaml:"password" mapstructure:"password"`
	DB       int    `yaml:"db" mapstructure:"db"`
}

// IndustryConfig selects where multiplier ranges come from.
type IndustryConfig struct {
	Source    string        `yaml:"source" mapstructure:"source"` // table or postgres
	TablePath string        `yaml:"table_path" mapstructure:"table_path"`
	CacheTTL  time.Duration `yaml:"cache_ttl" mapstructure:"cache_ttl"`
}

// BatchConfig configures batch valuation.
type BatchConfig struct {
	MaxConcurrent int `yaml:"max_concurrent" mapstructure:"max_concurrent"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port        int       `yaml:"port" mapstructure:"port"`
	CORSOrigins []string  `yaml:"cors_origins" mapstructure:"cors_origins"`
	RateLimit   RateLimit `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// RateLimit bounds requests per second across the API. RPS <= 0 disables it.
type RateLimit struct {
	RPS   float64 `yaml:"rps" mapstructure:"rps"`
	Burst int     `yaml:"burst" mapstructure:"burst"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("VALUATION")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "valuation.db")
	v.SetDefault("store.pool.max_conns", 10)
	v.SetDefault("store.pool.min_conns", 2)
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("industry.source", "table")
	v.SetDefault("industry.table_path", "")
	v.SetDefault("industry.cache_ttl", 24*time.Hour)
	// With every answer feeding the adjustment, a full form can exceed
	// max_score five-fold; see valuation.Options.
	v.SetDefault("valuation.max_score", valuation.MaxScore)
	v.SetDefault("valuation.adjustment_questions", []string{})
	v.SetDefault("batch.max_concurrent", 8)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("server.rate_limit.rps", 20.0)
	v.SetDefault("server.rate_limit.burst", 40)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

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

// Validation modes name the command family being started.
const (
	ModeLocal    = "local"    // value, batch, export, assessments
	ModeServe    = "serve"    // HTTP API
	ModePostgres = "postgres" // industry load and other Postgres-only commands
)

// Validate checks the configuration for mode, reporting every problem at once.
func (c *Config) Validate(mode string) error {
	var errs []string

	switch c.Store.Driver {
	case "sqlite", "postgres":
	default:
		errs = append(errs, fmt.Sprintf("store.driver %q must be sqlite or postgres", c.Store.Driver))
	}
	if c.Store.DatabaseURL == "" {
		errs = append(errs, "store.database_url is required")
	}
	switch c.Industry.Source {
	case "table":
	case "postgres":
		if c.Store.Driver != "postgres" {
			errs = append(errs, "industry.source postgres requires store.driver postgres")
		}
	default:
		errs = append(errs, fmt.Sprintf("industry.source %q must be table or postgres", c.Industry.Source))
	}
	if c.Valuation.MaxScore < 0 {
		errs = append(errs, "valuation.max_score must be >= 0")
	}
	if c.Batch.MaxConcurrent < 1 || c.Batch.MaxConcurrent > 64 {
		errs = append(errs, "batch.max_concurrent must be between 1 and 64")
	}

	switch mode {
	case ModeLocal:
	case ModeServe:
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, "server.port must be > 0 and <= 65535")
		}
		if c.Server.RateLimit.RPS > 0 && c.Server.RateLimit.Burst < 1 {
			errs = append(errs, "server.rate_limit.burst must be >= 1 when rps is set")
		}
	case ModePostgres:
		if c.Store.Driver != "postgres" {
			errs = append(errs, "store.driver must be postgres")
		}
	default:
		errs = append(errs, fmt.Sprintf("unknown mode %q", mode))
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
