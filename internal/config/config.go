package config

import (
	"log/slog"
	"strings"
	"time"
)

// Config is the root configuration for a poller instance.
type Config struct {
	Poller  PollerConfig  `yaml:"poller"`
	Sources SourcesConfig `yaml:"sources"`
	HTTP    HTTPConfig    `yaml:"http"`
	Retry   RetryConfig   `yaml:"retry"`
	Queue   QueueConfig   `yaml:"queue"`
	Vault   VaultConfig   `yaml:"vault"`
	Metrics MetricsConfig `yaml:"metrics"`
	Log     LogConfig     `yaml:"log"`
}

// PollerConfig holds the polling loop settings.
type PollerConfig struct {
	Source   string        `yaml:"source" env:"POLLER_TYPE"`
	Symbols  []string      `yaml:"symbols" env:"SYMBOLS" envSeparator:","`
	Interval time.Duration `yaml:"interval" env:"POLL_INTERVAL"`
	DryRun   bool          `yaml:"dry_run" env:"DRY_RUN"`
}

// SourcesConfig holds per-vendor settings plus the global default rate
// limit applied when a vendor has none of its own.
type SourcesConfig struct {
	DefaultRateLimit int `yaml:"default_rate_limit" env:"RATE_LIMIT"`

	AlphaVantage SourceConfig `yaml:"alphavantage" envPrefix:"ALPHA_VANTAGE_"`
	Finnhub      SourceConfig `yaml:"finnhub" envPrefix:"FINNHUB_"`
	IEX          SourceConfig `yaml:"iex" envPrefix:"IEX_"`
	Polygon      SourceConfig `yaml:"polygon" envPrefix:"POLYGON_"`
	Quandl       SourceConfig `yaml:"quandl" envPrefix:"QUANDL_"`
	YFinance     SourceConfig `yaml:"yfinance" envPrefix:"YFINANCE_"`
	Intrinio     SourceConfig `yaml:"intrinio" envPrefix:"INTRINIO_"`
	Finazon      SourceConfig `yaml:"finazon" envPrefix:"FINAZON_"`
}

// SourceConfig holds one vendor's credentials and per-minute rate limit.
type SourceConfig struct {
	APIKey    string `yaml:"api_key" env:"API_KEY"`
	RateLimit int    `yaml:"rate_limit" env:"RATE_LIMIT"` // requests per minute
}

// ForSource returns the settings for the named source, with the global
// default rate limit applied when the vendor has no override.
func (s SourcesConfig) ForSource(name string) SourceConfig {
	var cfg SourceConfig
	switch strings.ToLower(name) {
	case "alphavantage":
		cfg = s.AlphaVantage
	case "finnhub":
		cfg = s.Finnhub
	case "iex":
		cfg = s.IEX
	case "polygon":
		cfg = s.Polygon
	case "quandl":
		cfg = s.Quandl
	case "yfinance":
		cfg = s.YFinance
	case "intrinio":
		cfg = s.Intrinio
	case "finazon":
		cfg = s.Finazon
	}
	if cfg.RateLimit == 0 {
		cfg.RateLimit = s.DefaultRateLimit
	}
	return cfg
}

// HTTPConfig holds upstream request settings.
type HTTPConfig struct {
	Timeout time.Duration `yaml:"timeout" env:"REQUEST_TIMEOUT"`
}

// RetryConfig holds the fetch retry policy.
type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts" env:"MAX_RETRIES"`
	Delay       time.Duration `yaml:"delay" env:"RETRY_DELAY"`
	Backoff     string        `yaml:"backoff" env:"RETRY_BACKOFF"` // fixed | exponential
	Factor      float64       `yaml:"factor" env:"RETRY_FACTOR"`
}

// QueueConfig selects and configures the delivery backend.
type QueueConfig struct {
	Type     string         `yaml:"type" env:"QUEUE_TYPE"` // rabbitmq | sqs
	RabbitMQ RabbitMQConfig `yaml:"rabbitmq" envPrefix:"RABBITMQ_"`
	SQS      SQSConfig      `yaml:"sqs"`
}

// RabbitMQConfig holds the broker connection parameters.
type RabbitMQConfig struct {
	Host       string `yaml:"host" env:"HOST"`
	Port       int    `yaml:"port" env:"PORT"`
	VHost      string `yaml:"vhost" env:"VHOST"`
	Exchange   string `yaml:"exchange" env:"EXCHANGE"`
	RoutingKey string `yaml:"routing_key" env:"ROUTING_KEY"`
	User       string `yaml:"user" env:"USER"`
	Password   string `yaml:"password" env:"PASS"`
}

// SQSConfig holds the cloud-queue parameters.
type SQSConfig struct {
	QueueURL     string `yaml:"queue_url" env:"SQS_QUEUE_URL"`
	MessageGroup string `yaml:"message_group" env:"SQS_MESSAGE_GROUP"` // FIFO queues only
}

// VaultConfig holds the optional secret-store overlay settings.
type VaultConfig struct {
	Addr  string `yaml:"addr" env:"VAULT_ADDR"`
	Token string `yaml:"token" env:"VAULT_TOKEN"`
	Mount string `yaml:"mount" env:"VAULT_MOUNT"`
	Path  string `yaml:"path" env:"VAULT_PATH"`
}

// MetricsConfig holds the Prometheus exposition settings.
type MetricsConfig struct {
	Port int    `yaml:"port" env:"METRICS_PORT"`
	Path string `yaml:"path" env:"METRICS_PATH"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `yaml:"level" env:"LOG_LEVEL"`
}

// SlogLevel maps the configured level onto a slog.Level, defaulting to
// info for unknown values.
func (l LogConfig) SlogLevel() slog.Level {
	switch strings.ToLower(l.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
