// Package main serves the wallet panels over HTTP:
// - HTML pages for airdrop, sign, verify, transfer and token management
// - JSON API mirroring every panel operation
// - /ws status stream, /health, /metrics and /status
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"solana-wallet-kit/internal/action"
	"solana-wallet-kit/internal/app"
	"solana-wallet-kit/internal/config"
	"solana-wallet-kit/internal/logging"
	"solana-wallet-kit/internal/web"
)

func main() {
	flags := config.RegisterFlags(pflag.CommandLine)
	pflag.Parse()

	cfg, err := flags.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}

	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(2)
	}
	defer logger.Sync()
	logger = logger.Named("server")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := web.NewHub(logger.Named("hub"))
	a, err := app.New(ctx, cfg, logger, app.Options{Sinks: []action.Sink{hub}})
	if err != nil {
		logger.Fatal("failed to start", zap.Error(err))
	}
	defer a.Close()

	srv, err := web.NewServer(web.Options{
		Panels:  a.Panels,
		Session: a.Session,
		Journal: a.Journal,
		Hub:     hub,
		Logger:  logger,
	})
	if err != nil {
		logger.Fatal("failed to build server", zap.Error(err))
	}

	logger.Info("wallet server configured",
		zap.String("rpc", cfg.RPC.Endpoint),
		zap.String("cluster", cfg.RPC.Cluster),
		zap.String("storage", cfg.Storage.Driver),
		zap.Bool("wallet_connected", a.Session.Connected()))

	// Channel to signal completion
	done := make(chan struct{})

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Info("received signal, initiating graceful shutdown", zap.String("signal", sig.String()))
		cancel()

		// Wait for second signal for immediate shutdown
		select {
		case sig := <-sigCh:
			logger.Warn("received second signal, forcing immediate shutdown", zap.String("signal", sig.String()))
			os.Exit(1)
		case <-time.After(30 * time.Second):
			logger.Warn("graceful shutdown timed out after 30s, forcing exit")
			os.Exit(1)
		case <-done:
		}
	}()

	err = srv.Serve(ctx, cfg.Server.Addr)
	close(done)
	if err != nil {
		logger.Error("server error", zap.Error(err))
		a.Close()
		os.Exit(1)
	}

	logger.Info("shutdown complete")
}
