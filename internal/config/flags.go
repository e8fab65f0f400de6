package config

import (
	"github.com/spf13/pflag"
)

// Flags holds command-line overrides. Only flags that were set on the
// command line are applied, so file and environment values survive.
type Flags struct {
	fs *pflag.FlagSet

	ConfigPath string
	EnvFile    string

	rpcEndpoint   string
	wsEndpoint    string
	cluster       string
	keypair       string
	approval      string
	addr          string
	storageDriver string
	postgresDSN   string
	clickhouseDSN string
	logLevel      string
	logDev        bool
}

// RegisterFlags adds the configuration flags to fs.
func RegisterFlags(fs *pflag.FlagSet) *Flags {
	f := &Flags{fs: fs}
	fs.StringVar(&f.ConfigPath, "config", "", "YAML configuration file")
	fs.StringVar(&f.EnvFile, "env-file", ".env", "KEY=VALUE file loaded into the environment")
	fs.StringVar(&f.rpcEndpoint, "rpc-endpoint", "", "Solana RPC HTTP endpoint (default "+DefaultRPCEndpoint+")")
	fs.StringVar(&f.wsEndpoint, "ws-endpoint", "", "Solana WebSocket endpoint for signature subscriptions")
	fs.StringVar(&f.cluster, "cluster", "", "Cluster name for explorer links (devnet, testnet, mainnet-beta, localnet)")
	fs.StringVar(&f.keypair, "keypair", "", "Path to a Solana CLI keypair file")
	fs.StringVar(&f.approval, "approval", "", "Signing approval mode: auto, prompt or deny")
	fs.StringVar(&f.addr, "addr", "", "HTTP listen address")
	fs.StringVar(&f.storageDriver, "storage", "", "Activity storage driver: memory or postgres")
	fs.StringVar(&f.postgresDSN, "postgres-dsn", "", "PostgreSQL connection string")
	fs.StringVar(&f.clickhouseDSN, "clickhouse-dsn", "", "ClickHouse connection string")
	fs.StringVar(&f.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	fs.BoolVar(&f.logDev, "log-dev", false, "Human-readable development logging")
	return f
}

// Load reads the configuration named by the flags and applies the overrides.
// The result is validated.
func (f *Flags) Load() (*Config, error) {
	cfg, err := Load(f.ConfigPath, f.EnvFile)
	if err != nil {
		return nil, err
	}
	f.Apply(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Apply copies every changed flag into cfg.
func (f *Flags) Apply(cfg *Config) {
	set := func(name string, dst *string, v string) {
		if f.fs.Changed(name) {
			*dst = v
		}
	}
	set("rpc-endpoint", &cfg.RPC.Endpoint, f.rpcEndpoint)
	set("ws-endpoint", &cfg.RPC.WSEndpoint, f.wsEndpoint)
	set("cluster", &cfg.RPC.Cluster, f.cluster)
	set("keypair", &cfg.Wallet.KeypairPath, f.keypair)
	set("approval", &cfg.Wallet.Approval, f.approval)
	set("addr", &cfg.Server.Addr, f.addr)
	set("storage", &cfg.Storage.Driver, f.storageDriver)
	set("postgres-dsn", &cfg.Storage.PostgresDSN, f.postgresDSN)
	set("clickhouse-dsn", &cfg.Storage.ClickHouseDSN, f.clickhouseDSN)
	set("log-level", &cfg.Logging.Level, f.logLevel)
	if f.fs.Changed("log-dev") {
		cfg.Logging.Development = f.logDev
	}
}
