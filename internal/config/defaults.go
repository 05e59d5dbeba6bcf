package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultPollInterval   = 60 * time.Second
	DefaultRateLimit      = 5 // requests per minute
	DefaultRequestTimeout = 10 * time.Second
	DefaultMaxRetries     = 3
	DefaultRetryDelay     = 5 * time.Second
	DefaultRetryBackoff   = "fixed"
	DefaultRetryFactor    = 2.0
	DefaultRabbitMQPort   = 5672
	DefaultRabbitMQVHost  = "/"
	DefaultVaultMount     = "secret"
	DefaultVaultPath      = "poller"
	DefaultMetricsPort    = 9090
	DefaultMetricsPath    = "/metrics"
	DefaultLogLevel       = "info"
)

// DefaultSymbols is polled when no symbol list is configured.
var DefaultSymbols = []string{"AAPL", "GOOG", "MSFT"}

func (c *Config) applyDefaults() {
	// Poller defaults
	if len(c.Poller.Symbols) == 0 {
		c.Poller.Symbols = append([]string(nil), DefaultSymbols...)
	}
	if c.Poller.Interval == 0 {
		c.Poller.Interval = DefaultPollInterval
	}

	// Source defaults
	if c.Sources.DefaultRateLimit == 0 {
		c.Sources.DefaultRateLimit = DefaultRateLimit
	}

	// HTTP defaults
	if c.HTTP.Timeout == 0 {
		c.HTTP.Timeout = DefaultRequestTimeout
	}

	// Retry defaults
	if c.Retry.MaxAttempts == 0 {
		c.Retry.MaxAttempts = DefaultMaxRetries
	}
	if c.Retry.Delay == 0 {
		c.Retry.Delay = DefaultRetryDelay
	}
	if c.Retry.Backoff == "" {
		c.Retry.Backoff = DefaultRetryBackoff
	}
	if c.Retry.Factor == 0 {
		c.Retry.Factor = DefaultRetryFactor
	}

	// Queue defaults
	if c.Queue.RabbitMQ.Port == 0 {
		c.Queue.RabbitMQ.Port = DefaultRabbitMQPort
	}
	if c.Queue.RabbitMQ.VHost == "" {
		c.Queue.RabbitMQ.VHost = DefaultRabbitMQVHost
	}

	// Vault defaults
	if c.Vault.Mount == "" {
		c.Vault.Mount = DefaultVaultMount
	}
	if c.Vault.Path == "" {
		c.Vault.Path = DefaultVaultPath
	}

	// Metrics defaults
	if c.Metrics.Port == 0 {
		c.Metrics.Port = DefaultMetricsPort
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = DefaultMetricsPath
	}

	// Log defaults
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
}
