// Package app wires the configuration into a running wallet session: RPC and
// WebSocket clients, confirmer, connected wallet, activity journal, action
// runner and the full panel set.
package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"

	"solana-wallet-kit/internal/action"
	"solana-wallet-kit/internal/config"
	"solana-wallet-kit/internal/observability"
	"solana-wallet-kit/internal/panels"
	"solana-wallet-kit/internal/solana"
	"solana-wallet-kit/internal/storage"
	chstore "solana-wallet-kit/internal/storage/clickhouse"
	"solana-wallet-kit/internal/storage/memory"
	"solana-wallet-kit/internal/storage/migrations"
	pgstore "solana-wallet-kit/internal/storage/postgres"
	"solana-wallet-kit/internal/tokenmeta"
	"solana-wallet-kit/internal/wallet"
)

// journalBatchSize is how many action events are buffered before a flush.
const journalBatchSize = 20

// Options customizes New beyond the configuration.
type Options struct {
	// RPC replaces the HTTP client built from the configuration.
	RPC solana.RPCClient
	// Approver replaces the one selected by wallet.approval.
	Approver wallet.Approver
	// Sinks receive statuses in addition to the log.
	Sinks []action.Sink
	// PromptIn and PromptOut back the prompt approver. Default to stdin and stderr.
	PromptIn  io.Reader
	PromptOut io.Writer
}

// App is a wired wallet session.
type App struct {
	Config  *config.Config
	Logger  *zap.Logger
	Session *wallet.Session
	Journal *storage.Journal
	Runner  *action.Runner
	Panels  *panels.Set

	closers []func()
}

// New builds the application. The wallet is connected when a keypair path is
// configured; otherwise the session starts disconnected.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger, opts Options) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &App{Config: cfg, Logger: logger}

	rpc := opts.RPC
	if rpc == nil {
		rpc = solana.NewHTTPClient(cfg.RPC.Endpoint,
			solana.WithTimeout(cfg.RPC.Timeout),
			solana.WithMaxRetries(cfg.RPC.MaxRetries),
			solana.WithCallObserver(observability.RecordRPCCall),
		)
	}

	confirmOpts := []solana.ConfirmerOption{
		solana.WithConfirmLogger(logger.Named("confirm")),
		solana.WithResultHook(observability.RecordConfirmation),
		solana.WithConfirmTimeout(cfg.RPC.ConfirmTimeout),
	}
	if cfg.RPC.WSEndpoint != "" {
		wsCfg := solana.DefaultWSConfig()
		wsCfg.Logger = logger.Named("ws")
		ws, err := solana.NewWSClient(ctx, cfg.RPC.WSEndpoint, &wsCfg)
		if err != nil {
			// Polling still confirms; subscriptions only make it faster.
			logger.Warn("websocket unavailable, confirming by polling",
				zap.String("endpoint", cfg.RPC.WSEndpoint),
				zap.Error(err))
		} else {
			a.closers = append(a.closers, func() { ws.Close() })
			confirmOpts = append(confirmOpts, solana.WithWSClient(ws))
		}
	}
	confirmer := solana.NewConfirmer(rpc, confirmOpts...)

	a.Session = wallet.NewSession(rpc, confirmer, cfg.RPC.Cluster, logger)
	if cfg.Wallet.KeypairPath != "" {
		approver := opts.Approver
		if approver == nil {
			approver = selectApprover(cfg.Wallet.Approval, opts)
		}
		w, err := wallet.LoadKeypairWallet(cfg.Wallet.KeypairPath, approver)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("load wallet: %w", err)
		}
		a.Session.Connect(w)
	} else {
		logger.Info("no keypair configured, wallet disconnected")
	}

	activities, events, err := a.openStores(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Journal = storage.NewJournal(activities, events, journalBatchSize, logger)

	sinks := append(action.MultiSink{action.LogSink{Logger: logger.Named("status")}}, opts.Sinks...)
	a.Runner = action.NewRunner(sinks,
		action.WithJournal(a.Journal),
		action.WithLogger(logger.Named("action")),
	)

	deps := panels.Deps{Session: a.Session, Runner: a.Runner, Logger: logger}
	fetcher := tokenmeta.NewFetcher(
		tokenmeta.WithFetchTimeout(cfg.Tokens.MetadataTimeout),
		tokenmeta.WithFetchLogger(logger.Named("metadata")),
	)

	sendCfg := cfg.SendConfig()
	a.Panels = panels.NewSet(deps, panels.SetConfig{
		AirdropLamports: cfg.Airdrop.Lamports,
		Transfer: panels.TransferConfig{
			DefaultFeeLamports: cfg.Transfer.DefaultFeeLamports,
			ComputeBudget:      cfg.Transfer.ComputeBudget,
			Send:               sendCfg,
		},
		Tokens: panels.TokensConfig{
			MintCap:            cfg.Tokens.MintCap,
			PlaceholderImage:   cfg.Tokens.PlaceholderImage,
			DefaultFeeLamports: cfg.Transfer.DefaultFeeLamports,
			Send:               sendCfg,
		},
		Resolver: tokenmeta.NewResolver(rpc, fetcher, logger),
	})

	return a, nil
}

func selectApprover(mode string, opts Options) wallet.Approver {
	switch mode {
	case config.ApprovalAuto:
		return wallet.AutoApprove
	case config.ApprovalDeny:
		return wallet.DenyAll
	default:
		in, out := opts.PromptIn, opts.PromptOut
		if in == nil {
			in = os.Stdin
		}
		if out == nil {
			out = os.Stderr
		}
		return wallet.NewPromptApprover(in, out)
	}
}

// openStores returns the activity and event stores for the configured
// driver. Postgres runs its migrations first; ClickHouse is used for events
// only when a DSN is set.
func (a *App) openStores(ctx context.Context) (storage.ActivityStore, storage.ActionEventStore, error) {
	sc := a.Config.Storage
	if sc.Driver != config.DriverPostgres {
		return memory.NewActivityStore(), memory.NewActionEventStore(), nil
	}

	pool, err := pgstore.NewPool(ctx, sc.PostgresDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	a.closers = append(a.closers, pool.Close)
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		return nil, nil, fmt.Errorf("postgres migrations: %w", err)
	}
	activities := pgstore.NewActivityStore(pool)

	if sc.ClickHouseDSN == "" {
		return activities, memory.NewActionEventStore(), nil
	}
	conn, err := migrations.RunClickhouseMigrations(ctx, sc.ClickHouseDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("clickhouse migrations: %w", err)
	}
	a.closers = append(a.closers, func() { conn.Close() })
	return activities, chstore.NewActionEventStore(conn), nil
}

// Close flushes the journal, disconnects the wallet and releases every
// connection in reverse order of creation.
func (a *App) Close() {
	if a.Journal != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := a.Journal.Flush(ctx); err != nil {
			a.Logger.Warn("flush journal", zap.Error(err))
		}
		cancel()
	}
	if a.Session != nil {
		a.Session.Disconnect()
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
