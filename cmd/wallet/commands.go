package main

import (
	"fmt"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"solana-wallet-kit/internal/domain"
	"solana-wallet-kit/internal/panels"
)

func (c *cli) balanceCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "balance",
		Short: "Show the connected wallet's SOL balance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := c.app.Panels.Balance.Get(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(c.out, "%s\n%s SOL\n", res.Address, res.SOL)
			return nil
		},
	}
}

func (c *cli) airdropCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "airdrop",
		Short: "Request faucet SOL (devnet and testnet only)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := c.app.Panels.Airdrop.Request(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(c.out, "Airdropped %s SOL\nSignature: %s\n", domain.FormatSOL(res.Lamports), res.Signature)
			return nil
		},
	}
}

func (c *cli) signCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sign <message>",
		Short: "Sign a message with the connected wallet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := c.app.Panels.Sign.Sign(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(c.out, res.SignatureHex)
			return nil
		},
	}
}

func (c *cli) verifyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "verify <message> <signature-hex>",
		Short: "Verify a hex signature against the connected wallet",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := c.app.Panels.Verify.Verify(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			if !res.Valid {
				return panels.ErrSignatureMismatch
			}
			fmt.Fprintf(c.out, "Valid signature from %s\n", res.PublicKey)
			return nil
		},
	}
}

func (c *cli) transferCommand() *cobra.Command {
	var (
		quoteOnly bool
		useMax    bool
	)
	cmd := &cobra.Command{
		Use:   "transfer <recipient> [amount]",
		Short: "Send SOL to a recipient",
		Long: `Send SOL to a recipient. The amount is in SOL.

With --max the amount is the whole balance minus the network fee.
With --quote nothing is sent; the fee and remaining balance are shown.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			recipient := args[0]
			var amount string
			switch {
			case useMax:
				lamports, err := c.app.Panels.Transfer.MaxAmount(ctx, recipient)
				if err != nil {
					return err
				}
				amount = domain.FormatSOL(lamports)
			case len(args) == 2:
				amount = args[1]
			default:
				return fmt.Errorf("amount is required unless --max is set")
			}

			if quoteOnly {
				q, err := c.app.Panels.Transfer.Quote(ctx, recipient, amount)
				if err != nil {
					return err
				}
				c.printQuote(q)
				return nil
			}

			res, err := c.app.Panels.Transfer.Submit(ctx, recipient, amount)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.out, "Sent %s SOL to %s\nFee: %s SOL\nSignature: %s\n%s\n",
				domain.FormatSOL(res.Lamports), res.Recipient,
				domain.FormatSOL(res.FeeLamports), res.Signature, res.ExplorerURL)
			return nil
		},
	}
	cmd.Flags().BoolVar(&quoteOnly, "quote", false, "Show the fee and totals without sending")
	cmd.Flags().BoolVar(&useMax, "max", false, "Send the maximum affordable amount")
	return cmd
}

func (c *cli) printQuote(q *domain.TransferQuote) {
	tw := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
	fee := domain.FormatSOL(q.FeeLamports) + " SOL"
	if q.FeeFallback {
		fee += " (estimated)"
	}
	fmt.Fprintf(tw, "Amount:\t%s SOL\n", domain.FormatSOL(q.Lamports))
	fmt.Fprintf(tw, "Fee:\t%s\n", fee)
	fmt.Fprintf(tw, "Total:\t%s SOL\n", domain.FormatSOL(q.TotalLamports()))
	fmt.Fprintf(tw, "Balance:\t%s SOL\n", domain.FormatSOL(q.BalanceLamports))
	if q.Sufficient {
		fmt.Fprintf(tw, "Remaining:\t%s SOL\n", domain.FormatSOL(q.RemainingLamports))
	} else {
		fmt.Fprintf(tw, "Remaining:\tinsufficient balance\n")
	}
	tw.Flush()
}

func (c *cli) tokensCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tokens",
		Short: "List, create, mint and burn SPL tokens",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List the wallet's token accounts",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				tokens, err := c.app.Panels.Tokens.List(cmd.Context())
				if err != nil {
					return err
				}
				if len(tokens) == 0 {
					fmt.Fprintln(c.out, "No tokens found")
					return nil
				}
				tw := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
				fmt.Fprintln(tw, "SYMBOL\tNAME\tAMOUNT\tSUPPLY\tMINT\tAUTHORITY")
				for _, t := range tokens {
					owned := ""
					if t.OwnedByWallet {
						owned = "yes"
					}
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", t.Symbol, t.Name, t.Amount, t.Supply, t.Mint, owned)
				}
				return tw.Flush()
			},
		},
		c.createTokenCommand(),
		c.tokenOpCommand("mint", "Mint more tokens (mint authority only)"),
		c.tokenOpCommand("burn", "Burn tokens from the wallet"),
	)
	return cmd
}

func (c *cli) createTokenCommand() *cobra.Command {
	var form domain.TokenForm
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new token and mint its initial supply",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := c.app.Panels.CreateToken.Create(cmd.Context(), form)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
			fmt.Fprintf(tw, "Mint:\t%s\n", res.Mint)
			fmt.Fprintf(tw, "Token account:\t%s\n", res.TokenAccount)
			fmt.Fprintf(tw, "Minted:\t%s\n", res.Minted)
			fmt.Fprintf(tw, "Signature:\t%s\n", res.Signature)
			fmt.Fprintf(tw, "Explorer:\t%s\n", res.ExplorerURL)
			return tw.Flush()
		},
	}
	f := cmd.Flags()
	f.StringVar(&form.Name, "name", "", "Token name")
	f.StringVar(&form.Symbol, "symbol", "", "Token symbol, at most 10 characters")
	f.StringVar(&form.Description, "description", "", "Token description")
	f.StringVar(&form.Image, "image", "", "Image URL")
	f.StringVar(&form.MetadataURI, "uri", "", "Metadata URI; generated when empty")
	f.IntVar(&form.Decimals, "decimals", 9, "Decimal places, 0 to 9")
	f.StringVar(&form.InitialSupply, "supply", "", "Initial supply in whole tokens")
	return cmd
}

func (c *cli) tokenOpCommand(op, short string) *cobra.Command {
	return &cobra.Command{
		Use:   op + " <mint> <amount>",
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			token, err := c.app.Panels.Tokens.Find(ctx, args[0])
			if err != nil {
				return err
			}
			run := c.app.Panels.Tokens.Burn
			if op == "mint" {
				run = c.app.Panels.Tokens.Mint
			}
			res, err := run(ctx, *token, args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(c.out, "%s %s %s\nSignature: %s\n", op, res.Amount, res.Symbol, res.Signature)
			return nil
		},
	}
}

func (c *cli) activityCommand() *cobra.Command {
	var (
		limit int
		all   bool
	)
	cmd := &cobra.Command{
		Use:   "activity",
		Short: "Show recent wallet actions",
		Long: `Show recent wallet actions from the activity journal. With the memory
driver the journal only holds actions from this process.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			wallet := ""
			if pk, ok := c.app.Session.PublicKey(); ok && !all {
				wallet = pk.String()
			}
			acts, err := c.app.Journal.Recent(cmd.Context(), wallet, limit)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "TIME\tPANEL\tACTION\tOUTCOME\tDURATION\tMESSAGE")
			for _, a := range acts {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
					time.UnixMilli(a.FinishedAt).Format(time.DateTime),
					a.Panel, a.Action, a.Outcome,
					strconv.FormatInt(a.DurationMs(), 10)+"ms", a.Message)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Number of entries")
	cmd.Flags().BoolVar(&all, "all", false, "Include every wallet")
	return cmd
}
