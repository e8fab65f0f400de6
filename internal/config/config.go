// Package config loads the wallet kit configuration.
//
// Sources are applied in order, later ones winning: built-in defaults, an
// optional YAML file, a .env file (never overriding variables already set),
// the process environment, then command-line flags.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"solana-wallet-kit/internal/program"
	"solana-wallet-kit/internal/solana"
	"solana-wallet-kit/internal/tokenmeta"
)

// DefaultRPCEndpoint is used when no endpoint is configured.
const DefaultRPCEndpoint = "https://api.devnet.solana.com"

// Approval modes for the keypair wallet.
const (
	ApprovalAuto   = "auto"
	ApprovalPrompt = "prompt"
	ApprovalDeny   = "deny"
)

// Storage drivers.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
)

// Config is the full application configuration.
type Config struct {
	RPC      RPCConfig      `yaml:"rpc"`
	Wallet   WalletConfig   `yaml:"wallet"`
	Transfer TransferConfig `yaml:"transfer"`
	Send     SendConfig     `yaml:"send"`
	Airdrop  AirdropConfig  `yaml:"airdrop"`
	Tokens   TokensConfig   `yaml:"tokens"`
	Server   ServerConfig   `yaml:"server"`
	Storage  StorageConfig  `yaml:"storage"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// RPCConfig configures the Solana node connection.
type RPCConfig struct {
	Endpoint   string        `yaml:"endpoint"`
	WSEndpoint string        `yaml:"ws_endpoint"` // empty disables signature subscriptions
	Timeout    time.Duration `yaml:"timeout"`
	MaxRetries int           `yaml:"max_retries"`
	Commitment string        `yaml:"commitment"`
	// ConfirmTimeout caps each wait for a transaction confirmation.
	ConfirmTimeout time.Duration `yaml:"confirm_timeout"`
	// Cluster names the network for explorer links and the airdrop guard.
	// Inferred from Endpoint when empty.
	Cluster string `yaml:"cluster"`
}

// WalletConfig selects the signing keypair.
type WalletConfig struct {
	KeypairPath string `yaml:"keypair_path"`
	Approval    string `yaml:"approval"`
}

// TransferConfig holds SOL transfer options.
type TransferConfig struct {
	DefaultFeeLamports uint64                      `yaml:"default_fee_lamports"`
	ComputeBudget      program.ComputeBudgetConfig `yaml:"compute_budget"`
}

// SendConfig mirrors solana.SendConfig.
type SendConfig struct {
	MaxRetries          int    `yaml:"max_retries"`
	SkipPreflight       bool   `yaml:"skip_preflight"`
	PreflightCommitment string `yaml:"preflight_commitment"`
}

// AirdropConfig holds faucet options.
type AirdropConfig struct {
	Lamports uint64 `yaml:"lamports"`
}

// TokensConfig holds token panel options.
type TokensConfig struct {
	MintCap          uint64        `yaml:"mint_cap"`
	PlaceholderImage string        `yaml:"placeholder_image"`
	MetadataTimeout  time.Duration `yaml:"metadata_timeout"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// StorageConfig selects the activity journal backend. ClickHouseDSN is
// optional; action analytics stay in memory without it.
type StorageConfig struct {
	Driver        string `yaml:"driver"`
	PostgresDSN   string `yaml:"postgres_dsn"`
	ClickHouseDSN string `yaml:"clickhouse_dsn"`
}

// LoggingConfig configures zap.
type LoggingConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		RPC: RPCConfig{
			Endpoint:   DefaultRPCEndpoint,
			Timeout:    30 * time.Second,
			MaxRetries: 3,
			Commitment: string(solana.CommitmentConfirmed),

			ConfirmTimeout: solana.DefaultConfirmTimeout,
		},
		Wallet: WalletConfig{Approval: ApprovalPrompt},
		Transfer: TransferConfig{
			DefaultFeeLamports: 5000,
			ComputeBudget:      program.DefaultComputeBudgetConfig(),
		},
		Send: SendConfig{
			MaxRetries:          3,
			PreflightCommitment: string(solana.CommitmentConfirmed),
		},
		Airdrop: AirdropConfig{Lamports: 1_000_000_000},
		Tokens: TokensConfig{
			MintCap:          1_000_000,
			PlaceholderImage: tokenmeta.DefaultPlaceholderImage,
			MetadataTimeout:  5 * time.Second,
		},
		Server:  ServerConfig{Addr: ":8080"},
		Storage: StorageConfig{Driver: DriverMemory},
		Logging: LoggingConfig{Level: "info"},
	}
}

// Load builds the configuration from defaults, the YAML file at path (skipped
// when empty), envFile (skipped when missing) and the environment.
func Load(path, envFile string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if envFile != "" {
		if err := LoadEnvFile(envFile); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadEnvFile sets variables from a KEY=VALUE file. Existing variables are
// kept. A missing file is not an error.
func LoadEnvFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read env file: %w", err)
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.Trim(strings.TrimSpace(parts[1]), `"'`)

		if _, set := os.LookupEnv(key); !set {
			os.Setenv(key, value)
		}
	}
	return nil
}

func (c *Config) applyEnv() error {
	// SOLANA_RPC_URL wins over the older SOLANA_RPC_ENDPOINT.
	setString(&c.RPC.Endpoint, "SOLANA_RPC_ENDPOINT")
	setString(&c.RPC.Endpoint, "SOLANA_RPC_URL")
	setString(&c.RPC.WSEndpoint, "SOLANA_WS_ENDPOINT")
	setString(&c.RPC.Cluster, "SOLANA_CLUSTER")
	setString(&c.RPC.Commitment, "SOLANA_COMMITMENT")
	setString(&c.Wallet.KeypairPath, "WALLET_KEYPAIR")
	setString(&c.Wallet.Approval, "WALLET_APPROVAL")
	setString(&c.Server.Addr, "SERVER_ADDR")
	setString(&c.Storage.Driver, "STORAGE_DRIVER")
	setString(&c.Storage.PostgresDSN, "POSTGRES_DSN")
	setString(&c.Storage.ClickHouseDSN, "CLICKHOUSE_DSN")
	setString(&c.Logging.Level, "LOG_LEVEL")

	if v := os.Getenv("LOG_DEVELOPMENT"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("LOG_DEVELOPMENT: %w", err)
		}
		c.Logging.Development = b
	}
	if v := os.Getenv("SOLANA_RPC_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("SOLANA_RPC_TIMEOUT: %w", err)
		}
		c.RPC.Timeout = d
	}
	return nil
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

// Validate checks the configuration and fills derived values.
func (c *Config) Validate() error {
	u, err := url.Parse(c.RPC.Endpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("rpc endpoint must be an http(s) URL: %q", c.RPC.Endpoint)
	}
	if c.RPC.WSEndpoint != "" {
		u, err := url.Parse(c.RPC.WSEndpoint)
		if err != nil || (u.Scheme != "ws" && u.Scheme != "wss") {
			return fmt.Errorf("ws endpoint must be a ws(s) URL: %q", c.RPC.WSEndpoint)
		}
	}
	if c.RPC.Cluster == "" {
		c.RPC.Cluster = InferCluster(c.RPC.Endpoint)
	}
	if c.RPC.MaxRetries < 0 {
		return fmt.Errorf("rpc max_retries must be >= 0, got %d", c.RPC.MaxRetries)
	}
	if c.RPC.ConfirmTimeout < 0 {
		return fmt.Errorf("rpc confirm_timeout must be >= 0, got %s", c.RPC.ConfirmTimeout)
	}

	switch c.Wallet.Approval {
	case ApprovalAuto, ApprovalPrompt, ApprovalDeny:
	default:
		return fmt.Errorf("wallet approval must be auto, prompt or deny, got %q", c.Wallet.Approval)
	}

	if c.Transfer.ComputeBudget.Enabled && c.Transfer.ComputeBudget.UnitMargin < 1 {
		return fmt.Errorf("compute budget unit_margin must be >= 1, got %v", c.Transfer.ComputeBudget.UnitMargin)
	}
	if c.Tokens.MintCap == 0 {
		return errors.New("tokens mint_cap must be > 0")
	}

	switch c.Storage.Driver {
	case DriverMemory:
		if c.Storage.ClickHouseDSN != "" {
			return errors.New("storage clickhouse_dsn requires driver postgres")
		}
	case DriverPostgres:
		if c.Storage.PostgresDSN == "" {
			return errors.New("storage driver postgres requires postgres_dsn")
		}
	default:
		return fmt.Errorf("storage driver must be memory or postgres, got %q", c.Storage.Driver)
	}
	return nil
}

// InferCluster guesses the cluster name from a well-known endpoint host.
// Unknown hosts yield "".
func InferCluster(endpoint string) string {
	u, err := url.Parse(endpoint)
	if err != nil {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	switch {
	case strings.Contains(host, "devnet"):
		return "devnet"
	case strings.Contains(host, "testnet"):
		return "testnet"
	case strings.Contains(host, "mainnet"):
		return "mainnet-beta"
	case host == "localhost" || host == "127.0.0.1" || host == "0.0.0.0":
		return "localnet"
	}
	return ""
}

// SendConfig converts the send section.
func (c *Config) SendConfig() solana.SendConfig {
	return solana.SendConfig{
		SkipPreflight:       c.Send.SkipPreflight,
		PreflightCommitment: solana.Commitment(c.Send.PreflightCommitment),
		MaxRetries:          c.Send.MaxRetries,
	}
}
