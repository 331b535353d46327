package config

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"clyptusrank/internal/errors"

	"github.com/hashicorp/vault/api"
)

// VaultConfig holds Vault connection configuration
type VaultConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	Address   string        `mapstructure:"address"`
	Token     string        `mapstructure:"token"`
	TokenFile string        `mapstructure:"tokenFile"`
	Namespace string        `mapstructure:"namespace"`
	Timeout   time.Duration `mapstructure:"timeout"`

	Secrets VaultSecrets `mapstructure:"secrets"`
}

// VaultSecrets are KVv2 read paths, e.g. "secret/data/clyptusrank/gemini"
type VaultSecrets struct {
	APIKeys   string `mapstructure:"apiKeys"`   // "keys": comma-separated server API keys
	GeminiKey string `mapstructure:"geminiKey"` // "api_key"
	TLSCerts  string `mapstructure:"tlsCerts"`  // "cert" and "key" PEM content
}

const defaultVaultTimeout = 10 * time.Second

// VaultSecret is the data and version of one KVv2 secret
type VaultSecret struct {
	Data    map[string]any
	Version int64
}

// VaultClient reads KVv2 secrets
type VaultClient struct {
	client *api.Client
	logger *errors.Logger
}

// NewVaultClient connects to Vault and checks its health. It returns nil when
// Vault is disabled.
func NewVaultClient(ctx context.Context, cfg VaultConfig, logger *errors.Logger) (*VaultClient, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	apiConfig := api.DefaultConfig()
	if cfg.Address != "" {
		apiConfig.Address = cfg.Address
	}
	client, err := api.NewClient(apiConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault client: %w", err)
	}
	if cfg.Namespace != "" {
		client.SetNamespace(cfg.Namespace)
	}

	token, err := resolveVaultToken(cfg, logger)
	if err != nil {
		return nil, err
	}
	client.SetToken(token)

	health, err := client.Sys().HealthWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to vault at %s: %w", apiConfig.Address, err)
	}
	logger.Info("Connected to Vault",
		"address", apiConfig.Address,
		"version", health.Version,
		"sealed", health.Sealed)

	return &VaultClient{client: client, logger: logger}, nil
}

// resolveVaultToken prefers the inline token over the token file
func resolveVaultToken(cfg VaultConfig, logger *errors.Logger) (string, error) {
	token := cfg.Token
	if token == "" && cfg.TokenFile != "" {
		data, err := os.ReadFile(cfg.TokenFile)
		if err != nil {
			return "", fmt.Errorf("failed to read vault token file: %w", err)
		}
		token = strings.TrimSpace(string(data))
		logger.Debug("Vault token read from file", "file", cfg.TokenFile)
	}
	if token == "" {
		return "", fmt.Errorf("vault token is required when vault is enabled")
	}
	return token, nil
}

// Secret reads a KVv2 secret at path
func (vc *VaultClient) Secret(ctx context.Context, path string) (*VaultSecret, error) {
	secret, err := vc.client.Logical().ReadWithContext(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read secret from %s: %w", path, err)
	}
	if secret == nil || secret.Data == nil {
		return nil, fmt.Errorf("secret not found at path: %s", path)
	}

	data, err := vc.extractSecretData(secret, path)
	if err != nil {
		return nil, err
	}
	version, err := vc.extractSecretVersion(secret, path)
	if err != nil {
		return nil, err
	}
	return &VaultSecret{Data: data, Version: version}, nil
}

func (vc *VaultClient) extractSecretData(secret *api.Secret, path string) (map[string]any, error) {
	data, ok := secret.Data["data"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("secret at %s is not in KVv2 format (missing 'data' field)", path)
	}
	return data, nil
}

func (vc *VaultClient) extractSecretVersion(secret *api.Secret, path string) (int64, error) {
	metadata, ok := secret.Data["metadata"].(map[string]any)
	if !ok {
		return 0, fmt.Errorf("secret at %s is not in KVv2 format (missing 'metadata' field)", path)
	}
	raw, ok := metadata["version"]
	if !ok {
		return 0, fmt.Errorf("secret metadata at %s is missing 'version' field", path)
	}
	return parseVersionValue(raw, path)
}

// parseVersionValue accepts the numeric shapes the JSON decoder may produce
func parseVersionValue(raw any, path string) (int64, error) {
	switch v := raw.(type) {
	case int64:
		return v, nil
	case float64:
		return int64(v), nil
	case json.Number:
		return parseVersionValue(v.String(), path)
	case string:
		version, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("could not parse secret version at %s: %w", path, err)
		}
		return version, nil
	default:
		return 0, fmt.Errorf("unexpected type for version at %s: %T", path, raw)
	}
}

// String returns the string value stored under key
func (s *VaultSecret) String(key string) (string, bool) {
	value, ok := s.Data[key].(string)
	return value, ok && value != ""
}

// vaultSecretLoader applies one configured secret to the config
type vaultSecretLoader struct {
	name  string
	path  string
	apply func(cfg *Config, secret *VaultSecret, logger *errors.Logger) error
}

func vaultSecretLoaders(secrets VaultSecrets) []vaultSecretLoader {
	return []vaultSecretLoader{
		{name: "API keys", path: secrets.APIKeys, apply: applyAPIKeysSecret},
		{name: "Gemini API key", path: secrets.GeminiKey, apply: applyGeminiKeySecret},
		{name: "TLS certificates", path: secrets.TLSCerts, apply: applyTLSSecret},
	}
}

// ApplyVaultSecrets overrides configured secrets with the values stored in Vault
func ApplyVaultSecrets(ctx context.Context, cfg *Config, logger *errors.Logger) error {
	if !cfg.Vault.Enabled {
		return nil
	}

	timeout := cfg.Vault.Timeout
	if timeout <= 0 {
		timeout = defaultVaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := NewVaultClient(ctx, cfg.Vault, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize vault client: %w", err)
	}

	for _, loader := range vaultSecretLoaders(cfg.Vault.Secrets) {
		if loader.path == "" {
			continue
		}
		secret, err := client.Secret(ctx, loader.path)
		if err != nil {
			return fmt.Errorf("failed to load %s from vault: %w", loader.name, err)
		}
		if err := loader.apply(cfg, secret, logger); err != nil {
			return fmt.Errorf("failed to apply %s from vault: %w", loader.name, err)
		}
		logger.Info("Secret loaded from Vault", "secret", loader.name, "version", secret.Version)
	}
	return nil
}

func applyAPIKeysSecret(cfg *Config, secret *VaultSecret, logger *errors.Logger) error {
	value, ok := secret.String("keys")
	if !ok {
		return fmt.Errorf("missing string value 'keys'")
	}
	var keys []string
	for part := range strings.SplitSeq(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			keys = append(keys, part)
		}
	}
	if len(keys) == 0 {
		logger.Warn("No API keys found in Vault secret")
		return nil
	}
	cfg.Server.APIKeys = keys
	return nil
}

func applyGeminiKeySecret(cfg *Config, secret *VaultSecret, logger *errors.Logger) error {
	key, ok := secret.String("api_key")
	if !ok {
		return fmt.Errorf("missing string value 'api_key'")
	}
	logger.Debug("Gemini API key from Vault", "masked_value", maskSecret(key))
	applyGeminiKeyToConfig(cfg, key)
	return nil
}

// applyGeminiKeyToConfig sets the global key and fills operations that have none
func applyGeminiKeyToConfig(cfg *Config, geminiKey string) {
	cfg.AI.APIKey = geminiKey
	for _, op := range []*OperationAIConfig{&cfg.AI.Extract, &cfg.AI.Score} {
		if op.APIKey == "" {
			op.APIKey = geminiKey
		}
	}
}

// applyTLSSecret replaces file-based certificates with PEM content
func applyTLSSecret(cfg *Config, secret *VaultSecret, logger *errors.Logger) error {
	if cert, ok := secret.String("cert"); ok {
		cfg.Server.TLS.CertContent = cert
		cfg.Server.TLS.CertFile = ""
	}
	if key, ok := secret.String("key"); ok {
		cfg.Server.TLS.KeyContent = key
		cfg.Server.TLS.KeyFile = ""
	}
	logger.Debug("TLS material from Vault",
		"cert_length", len(cfg.Server.TLS.CertContent),
		"key_length", len(cfg.Server.TLS.KeyContent))
	return nil
}

// maskSecret keeps the first and last four characters of long values
func maskSecret(value string) string {
	switch {
	case len(value) > 8:
		return value[:4] + "****" + value[len(value)-4:]
	case value != "":
		return "****"
	default:
		return ""
	}
}
