package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Anthropic  AnthropicConfig  `yaml:"anthropic" mapstructure:"anthropic"`
	Retry      RetryConfig      `yaml:"retry" mapstructure:"retry"`
	Scoring    ScoringConfig    `yaml:"scoring" mapstructure:"scoring"`
	Gate       GateConfig       `yaml:"gate" mapstructure:"gate"`
	Policy     PolicyConfig     `yaml:"policy" mapstructure:"policy"`
	Audit      AuditConfig      `yaml:"audit" mapstructure:"audit"`
	Monitoring MonitoringConfig `yaml:"monitoring" mapstructure:"monitoring"`
	Batch      BatchConfig      `yaml:"batch" mapstructure:"batch"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the history store backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// AnthropicConfig holds Anthropic API settings for the generation provider.
type AnthropicConfig struct {
	Key               string  `yaml:"key" mapstructure:"key"`
	BaseURL           string  `yaml:"base_url" mapstructure:"base_url"`
	Model             string  `yaml:"model" mapstructure:"model"`
	MaxTokens         int64   `yaml:"max_tokens" mapstructure:"max_tokens"`
	Temperature       float64 `yaml:"temperature" mapstructure:"temperature"`
	SystemPrompt      string  `yaml:"system_prompt" mapstructure:"system_prompt"`
	TimeoutSecs       int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst             int     `yaml:"burst" mapstructure:"burst"`
	BreakerFailures   int     `yaml:"breaker_failures" mapstructure:"breaker_failures"`
	BreakerResetSecs  int     `yaml:"breaker_reset_secs" mapstructure:"breaker_reset_secs"`
}

// RetryConfig configures the generation retry loop.
type RetryConfig struct {
	MaxRetries         int     `yaml:"max_retries" mapstructure:"max_retries"`
	AttemptTimeoutSecs int     `yaml:"attempt_timeout_secs" mapstructure:"attempt_timeout_secs"`
	InitialBackoffMs   int     `yaml:"initial_backoff_ms" mapstructure:"initial_backoff_ms"`
	MaxBackoffMs       int     `yaml:"max_backoff_ms" mapstructure:"max_backoff_ms"`
	Multiplier         float64 `yaml:"multiplier" mapstructure:"multiplier"`
	JitterFraction     float64 `yaml:"jitter_fraction" mapstructure:"jitter_fraction"`
}

// ScoringConfig holds the quality dimension weights. Weights sum to 1.
type ScoringConfig struct {
	WordLimitWeight   float64 `yaml:"word_limit_weight" mapstructure:"word_limit_weight" json:"wordLimitWeight"`
	EmotionWeight     float64 `yaml:"emotion_weight" mapstructure:"emotion_weight" json:"emotionWeight"`
	RepetitionWeight  float64 `yaml:"repetition_weight" mapstructure:"repetition_weight" json:"repetitionWeight"`
	ReadabilityWeight float64 `yaml:"readability_weight" mapstructure:"readability_weight" json:"readabilityWeight"`
	StructureWeight   float64 `yaml:"structure_weight" mapstructure:"structure_weight" json:"structureWeight"`
}

// GateConfig holds the promotion gate parameters.
type GateConfig struct {
	CooldownHours       float64 `yaml:"cooldown_hours" mapstructure:"cooldown_hours"`
	MinQualityScore     float64 `yaml:"min_quality_score" mapstructure:"min_quality_score"`
	MinFeedbackScore    float64 `yaml:"min_feedback_score" mapstructure:"min_feedback_score"`
	StabilityWindowSize int     `yaml:"stability_window_size" mapstructure:"stability_window_size"`
	StabilityThreshold  float64 `yaml:"stability_threshold" mapstructure:"stability_threshold"`
	MinScoreCount       int     `yaml:"min_score_count" mapstructure:"min_score_count"`
	ScoreWeight         float64 `yaml:"score_weight" mapstructure:"score_weight"`
	FeedbackWeight      float64 `yaml:"feedback_weight" mapstructure:"feedback_weight"`
}

// PolicyConfig points at an optional YAML policy table.
type PolicyConfig struct {
	File string `yaml:"file" mapstructure:"file"`
}

// AuditConfig configures decision audit publishing. An empty broker list
// disables publishing.
type AuditConfig struct {
	Brokers          []string `yaml:"brokers" mapstructure:"brokers"`
	Topic            string   `yaml:"topic" mapstructure:"topic"`
	MaxAttempts      int      `yaml:"max_attempts" mapstructure:"max_attempts"`
	WriteTimeoutSecs int      `yaml:"write_timeout_secs" mapstructure:"write_timeout_secs"`
}

// MonitoringConfig configures the background gate health checker.
type MonitoringConfig struct {
	WebhookURL             string  `yaml:"webhook_url" mapstructure:"webhook_url"`
	CheckIntervalSecs      int     `yaml:"check_interval_secs" mapstructure:"check_interval_secs"`
	LookbackWindowHours    int     `yaml:"lookback_window_hours" mapstructure:"lookback_window_hours"`
	RejectionRateThreshold float64 `yaml:"rejection_rate_threshold" mapstructure:"rejection_rate_threshold"`
	ErrorThreshold         int     `yaml:"error_threshold" mapstructure:"error_threshold"`
}

// BatchConfig configures batch evaluation.
type BatchConfig struct {
	Concurrency int `yaml:"concurrency" mapstructure:"concurrency"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Port        int      `yaml:"port" mapstructure:"port"`
	CORSOrigins []string `yaml:"cors_origins" mapstructure:"cors_origins"`
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
	v.SetEnvPrefix("CONTENTGATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "content-gate.db")
	v.SetDefault("store.max_conns", 10)
	v.SetDefault("store.min_conns", 2)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("batch.concurrency", 5)
	v.SetDefault("anthropic.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("anthropic.max_tokens", 8000)
	v.SetDefault("anthropic.temperature", 0.4)
	v.SetDefault("anthropic.system_prompt", "You write original stories that follow the length, tone and audience constraints in the prompt exactly.")
	v.SetDefault("anthropic.timeout_secs", 120)
	v.SetDefault("anthropic.requests_per_second", 2.0)
	v.SetDefault("anthropic.burst", 2)
	v.SetDefault("anthropic.breaker_failures", 5)
	v.SetDefault("anthropic.breaker_reset_secs", 30)
	v.SetDefault("retry.max_retries", 3)
	v.SetDefault("retry.attempt_timeout_secs", 120)
	v.SetDefault("retry.initial_backoff_ms", 500)
	v.SetDefault("retry.max_backoff_ms", 10000)
	v.SetDefault("retry.multiplier", 2.0)
	v.SetDefault("retry.jitter_fraction", 0.25)
	v.SetDefault("scoring.word_limit_weight", 0.25)
	v.SetDefault("scoring.emotion_weight", 0.20)
	v.SetDefault("scoring.repetition_weight", 0.15)
	v.SetDefault("scoring.readability_weight", 0.20)
	v.SetDefault("scoring.structure_weight", 0.20)
	v.SetDefault("gate.cooldown_hours", 24.0)
	v.SetDefault("gate.min_quality_score", 0.7)
	v.SetDefault("gate.min_feedback_score", 0.6)
	v.SetDefault("gate.stability_window_size", 10)
	v.SetDefault("gate.stability_threshold", 0.1)
	v.SetDefault("gate.min_score_count", 5)
	v.SetDefault("gate.score_weight", 0.7)
	v.SetDefault("gate.feedback_weight", 0.3)
	v.SetDefault("audit.topic", "content-gate.decisions")
	v.SetDefault("audit.max_attempts", 3)
	v.SetDefault("audit.write_timeout_secs", 10)
	v.SetDefault("monitoring.check_interval_secs", 300)
	v.SetDefault("monitoring.lookback_window_hours", 24)
	v.SetDefault("monitoring.rejection_rate_threshold", 0.8)
	v.SetDefault("monitoring.error_threshold", 1)

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
