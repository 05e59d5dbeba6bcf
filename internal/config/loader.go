package config

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Load builds a Config from the YAML file at path (with ${VAR} expansion)
// and then applies environment variable overrides. An empty path skips the
// file and reads the environment alone.
func Load(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}

		// Expand ${VAR} environment variables
		expanded := os.ExpandEnv(string(data))

		if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
			return nil, fmt.Errorf("parse config yaml: %w", err)
		}
	}

	// Environment variables override file values.
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	return &cfg, nil
}

// ApplySecrets overlays secret-store values onto the config. Secrets take
// precedence over both file and environment values. Keys follow the
// environment variable naming.
func (c *Config) ApplySecrets(secrets map[string]string) {
	set := func(key string, dst *string) {
		if v, ok := secrets[key]; ok && v != "" {
			*dst = v
		}
	}

	set("ALPHA_VANTAGE_API_KEY", &c.Sources.AlphaVantage.APIKey)
	set("FINNHUB_API_KEY", &c.Sources.Finnhub.APIKey)
	set("IEX_API_KEY", &c.Sources.IEX.APIKey)
	set("POLYGON_API_KEY", &c.Sources.Polygon.APIKey)
	set("QUANDL_API_KEY", &c.Sources.Quandl.APIKey)
	set("INTRINIO_API_KEY", &c.Sources.Intrinio.APIKey)
	set("FINAZON_API_KEY", &c.Sources.Finazon.APIKey)

	set("RABBITMQ_USER", &c.Queue.RabbitMQ.User)
	set("RABBITMQ_PASS", &c.Queue.RabbitMQ.Password)
	set("SQS_QUEUE_URL", &c.Queue.SQS.QueueURL)
}

// LoadAndValidate loads config, applies defaults, and validates.
func LoadAndValidate(path string) (*Config, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Finalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Finalize applies defaults and validates. Call it after any secret
// overlay has been applied.
func (c *Config) Finalize() error {
	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}
	return nil
}
