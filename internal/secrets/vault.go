package secrets

import (
	"context"
	"fmt"
	"log/slog"

	vault "github.com/hashicorp/vault/api"

	"stockpoller/internal/config"
)

// Load fetches the poller's secret map from the Vault KV v2 store named
// in cfg. Vault is an optional overlay: when no token is configured or
// Vault is unreachable, Load logs the condition and returns an empty map
// rather than failing, so operators without Vault still get a working
// process from environment variables alone.
func Load(ctx context.Context, cfg config.VaultConfig, logger *slog.Logger) map[string]string {
	if logger == nil {
		logger = slog.Default()
	}

	if cfg.Token == "" {
		logger.Warn("vault token not set, skipping secret load")
		return map[string]string{}
	}

	secrets, err := fetch(ctx, cfg)
	if err != nil {
		logger.Warn("vault not available, continuing without secrets", "error", err)
		return map[string]string{}
	}

	logger.Info("loaded secrets from vault",
		"mount", cfg.Mount,
		"path", cfg.Path,
		"keys", len(secrets),
	)
	return secrets
}

func fetch(ctx context.Context, cfg config.VaultConfig) (map[string]string, error) {
	clientCfg := vault.DefaultConfig()
	if cfg.Addr != "" {
		clientCfg.Address = cfg.Addr
	}

	client, err := vault.NewClient(clientCfg)
	if err != nil {
		return nil, fmt.Errorf("create vault client: %w", err)
	}
	client.SetToken(cfg.Token)

	secret, err := client.KVv2(cfg.Mount).Get(ctx, cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("read secret %s/%s: %w", cfg.Mount, cfg.Path, err)
	}

	out := make(map[string]string, len(secret.Data))
	for key, value := range secret.Data {
		if s, ok := value.(string); ok {
			out[key] = s
		}
	}
	return out, nil
}
