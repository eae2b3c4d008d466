package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Oracle    OracleConfig    `yaml:"oracle" mapstructure:"oracle"`
	Rules     RulesConfig     `yaml:"rules" mapstructure:"rules"`
	Trainer   TrainerConfig   `yaml:"trainer" mapstructure:"trainer"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key   string `yaml:"key" mapstructure:"key"`
	Model string `yaml:"model" mapstructure:"model"`
}

// OracleConfig configures the oracle extractor call.
type OracleConfig struct {
	TimeoutSecs   int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RatePerSecond float64 `yaml:"rate_per_second" mapstructure:"rate_per_second"`
	Burst         int     `yaml:"burst" mapstructure:"burst"`
	MaxRetries    int     `yaml:"max_retries" mapstructure:"max_retries"`
}

// Timeout returns the oracle call timeout as a duration.
func (c OracleConfig) Timeout() time.Duration {
	if c.TimeoutSecs <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.TimeoutSecs) * time.Second
}

// RulesConfig configures rule selection and confidence scoring.
type RulesConfig struct {
	// Floors gates rule selection per category. Date and time run stricter
	// than venue: a false positive on time costs more than a missed alias.
	Floors       map[string]float64 `yaml:"floors" mapstructure:"floors"`
	DefaultFloor float64            `yaml:"default_floor" mapstructure:"default_floor"`
	FetchLimit   int                `yaml:"fetch_limit" mapstructure:"fetch_limit"`
}

// Floor returns the selection confidence floor for a category.
func (c RulesConfig) Floor(category string) float64 {
	if f, ok := c.Floors[category]; ok {
		return f
	}
	return c.DefaultFloor
}

// TrainerConfig configures the ground-truth recorder.
type TrainerConfig struct {
	ConfidenceGate float64 `yaml:"confidence_gate" mapstructure:"confidence_gate"`
}

// ServerConfig configures the admin/API server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
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
	v.SetEnvPrefix("CAPTIOND")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "captiond.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("oracle.timeout_secs", 30)
	v.SetDefault("oracle.rate_per_second", 2)
	v.SetDefault("oracle.burst", 4)
	v.SetDefault("oracle.max_retries", 3)
	v.SetDefault("rules.default_floor", 0.3)
	v.SetDefault("rules.fetch_limit", 20)
	v.SetDefault("rules.floors", map[string]float64{
		"date":  0.5,
		"time":  0.5,
		"price": 0.4,
		"venue": 0.3,
	})
	v.SetDefault("trainer.confidence_gate", 0.7)

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
