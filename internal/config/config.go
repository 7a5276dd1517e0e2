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
	YouCom    YouComConfig    `yaml:"youcom" mapstructure:"youcom"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Pipeline  PipelineConfig  `yaml:"pipeline" mapstructure:"pipeline"`
	Ingest    IngestConfig    `yaml:"ingest" mapstructure:"ingest"`
	Outreach  OutreachConfig  `yaml:"outreach" mapstructure:"outreach"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Monitor   MonitorConfig   `yaml:"monitor" mapstructure:"monitor"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// YouComConfig holds You.com Web Search API settings.
type YouComConfig struct {
	Key         string `yaml:"key" mapstructure:"key"`
	BaseURL     string `yaml:"base_url" mapstructure:"base_url"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// AnthropicConfig holds Anthropic API settings for draft generation.
type AnthropicConfig struct {
	Key       string `yaml:"key" mapstructure:"key"`
	Model     string `yaml:"model" mapstructure:"model"`
	MaxTokens int64  `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// PipelineConfig configures the enrichment pipeline.
type PipelineConfig struct {
	// ContactDelayMs is the fixed inter-contact delay applied after every
	// contact except the last, to respect downstream API quotas.
	ContactDelayMs int `yaml:"contact_delay_ms" mapstructure:"contact_delay_ms"`
	// RunTimeoutSecs is the ceiling for one whole enrichment run.
	RunTimeoutSecs int `yaml:"run_timeout_secs" mapstructure:"run_timeout_secs"`
	// SearchFailureThreshold opens the search circuit breaker after this
	// many consecutive provider failures within a process.
	SearchFailureThreshold int `yaml:"search_failure_threshold" mapstructure:"search_failure_threshold"`
	SearchResetTimeoutSecs int `yaml:"search_reset_timeout_secs" mapstructure:"search_reset_timeout_secs"`
}

// ContactDelay returns the inter-contact delay as a duration.
func (c PipelineConfig) ContactDelay() time.Duration {
	return time.Duration(c.ContactDelayMs) * time.Millisecond
}

// RunTimeout returns the per-run ceiling as a duration.
func (c PipelineConfig) RunTimeout() time.Duration {
	return time.Duration(c.RunTimeoutSecs) * time.Second
}

// IngestConfig configures CSV ingestion.
type IngestConfig struct {
	MaxContacts int `yaml:"max_contacts" mapstructure:"max_contacts"`
}

// OutreachConfig configures the send/feedback flow.
type OutreachConfig struct {
	FeedbackDueHours int `yaml:"feedback_due_hours" mapstructure:"feedback_due_hours"`
}

// FeedbackDue returns the feedback window as a duration.
func (c OutreachConfig) FeedbackDue() time.Duration {
	return time.Duration(c.FeedbackDueHours) * time.Hour
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// MonitorConfig configures health monitoring.
type MonitorConfig struct {
	// StallThresholdMins marks a RUNNING job as stalled when its counters
	// have not advanced for this long.
	StallThresholdMins int `yaml:"stall_threshold_mins" mapstructure:"stall_threshold_mins"`
	LookbackHours      int `yaml:"lookback_hours" mapstructure:"lookback_hours"`
	IntervalSecs       int `yaml:"interval_secs" mapstructure:"interval_secs"`
	// FailureRateThreshold triggers an alert when the share of failed
	// contacts across recent jobs exceeds it.
	FailureRateThreshold float64 `yaml:"failure_rate_threshold" mapstructure:"failure_rate_threshold"`
	WebhookURL           string  `yaml:"webhook_url" mapstructure:"webhook_url"`
}

// StallThreshold returns the stall threshold as a duration.
func (c MonitorConfig) StallThreshold() time.Duration {
	return time.Duration(c.StallThresholdMins) * time.Minute
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("OUTREACH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("store.driver", "postgres")
	v.SetDefault("store.max_conns", 10)
	v.SetDefault("store.min_conns", 2)
	v.SetDefault("youcom.base_url", "https://ydc-index.io/v1")
	v.SetDefault("youcom.timeout_secs", 30)
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.max_tokens", 1024)
	v.SetDefault("pipeline.contact_delay_ms", 2000)
	v.SetDefault("pipeline.run_timeout_secs", 3600)
	v.SetDefault("pipeline.search_failure_threshold", 5)
	v.SetDefault("pipeline.search_reset_timeout_secs", 60)
	v.SetDefault("ingest.max_contacts", 500)
	v.SetDefault("outreach.feedback_due_hours", 72)
	v.SetDefault("server.port", 8080)
	v.SetDefault("monitor.stall_threshold_mins", 30)
	v.SetDefault("monitor.lookback_hours", 24)
	v.SetDefault("monitor.interval_secs", 300)
	v.SetDefault("monitor.failure_rate_threshold", 0.25)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Config file is optional; env vars and defaults are enough to run.
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
