// Package main is the command-line wallet. Every subcommand runs one panel
// operation against the configured cluster and prints the result.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"solana-wallet-kit/internal/action"
	"solana-wallet-kit/internal/app"
	"solana-wallet-kit/internal/config"
	"solana-wallet-kit/internal/logging"
)

// cli carries the state shared by every subcommand.
type cli struct {
	flags *config.Flags
	out   io.Writer
	errw  io.Writer

	// newApp is replaced in tests.
	newApp func(ctx context.Context, cfg *config.Config, logger *zap.Logger, opts app.Options) (*app.App, error)

	app    *app.App
	logger *zap.Logger
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c := &cli{out: os.Stdout, errw: os.Stderr, newApp: app.New}
	if err := c.execute(ctx, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(exitCode(err))
	}
}

// exitCode maps failure kinds to distinct exit statuses.
func exitCode(err error) int {
	var f *action.Failure
	if !errors.As(err, &f) {
		return 1
	}
	switch f.Kind {
	case action.KindPrecondition, action.KindMalformedInput:
		return 2
	case action.KindRejected:
		return 3
	case action.KindInsufficientFunds:
		return 4
	case action.KindNetwork:
		return 5
	}
	return 1
}

// execute runs one command line and always releases the application.
func (c *cli) execute(ctx context.Context, args []string) error {
	root := c.rootCommand()
	root.SetArgs(args)
	defer c.teardown()
	return root.ExecuteContext(ctx)
}

func (c *cli) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "wallet",
		Short: "Solana wallet toolkit",
		Long: `Request airdrops, sign and verify messages, transfer SOL and manage
SPL tokens from the command line.

Configuration is read from --config, the environment (.env included) and
flags, in increasing precedence.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.setup,
	}
	root.CompletionOptions.DisableDefaultCmd = true
	c.flags = config.RegisterFlags(root.PersistentFlags())

	root.AddCommand(
		c.balanceCommand(),
		c.airdropCommand(),
		c.signCommand(),
		c.verifyCommand(),
		c.transferCommand(),
		c.tokensCommand(),
		c.activityCommand(),
	)
	root.SetOut(c.out)
	root.SetErr(c.errw)
	return root
}

// setup builds the application before any subcommand runs.
func (c *cli) setup(cmd *cobra.Command, _ []string) error {
	if cmd.Name() == "help" {
		return nil
	}
	cfg, err := c.flags.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	// Statuses go to stderr already; keep the log quiet unless asked.
	if !cmd.Flags().Changed("log-level") && os.Getenv("LOG_LEVEL") == "" {
		cfg.Logging.Level = "warn"
	}
	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Development)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	c.logger = logger

	status := action.SinkFunc(func(s action.Status) {
		fmt.Fprintf(c.errw, "[%s] %s\n", s.Level, s.Message)
	})
	a, err := c.newApp(cmd.Context(), cfg, logger, app.Options{
		Sinks:     []action.Sink{status},
		PromptOut: c.errw,
	})
	if err != nil {
		return err
	}
	c.app = a
	return nil
}

func (c *cli) teardown() {
	if c.app != nil {
		c.app.Close()
		c.app = nil
	}
	if c.logger != nil {
		_ = c.logger.Sync()
	}
}
