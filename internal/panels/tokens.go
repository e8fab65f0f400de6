package panels

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	solanago "github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"solana-wallet-kit/internal/action"
	"solana-wallet-kit/internal/domain"
	"solana-wallet-kit/internal/program"
	"solana-wallet-kit/internal/solana"
	"solana-wallet-kit/internal/tokenmeta"
)

// resolveConcurrency bounds parallel mint lookups during a listing.
const resolveConcurrency = 4

// ErrTokenNotFound is returned when the wallet holds no account for a mint.
var ErrTokenNotFound = errors.New("token not found in wallet")

// TokenOpResult is a confirmed mint or burn.
type TokenOpResult struct {
	Signature string
	Mint      string
	Amount    string // whole tokens
	Symbol    string
}

// Tokens lists the wallet's token accounts and mints or burns them.
type Tokens struct {
	deps     Deps
	cfg      TokensConfig
	resolver *tokenmeta.Resolver
	mintFlag action.Flag
	burnFlag action.Flag
	logger   *zap.Logger
}

// NewTokens creates the token listing panel.
func NewTokens(deps Deps, cfg TokensConfig, resolver *tokenmeta.Resolver) *Tokens {
	if resolver == nil {
		resolver = tokenmeta.NewResolver(deps.Session.RPC(), tokenmeta.NewFetcher(), deps.Logger)
	}
	return &Tokens{
		deps:     deps,
		cfg:      cfg.withDefaults(),
		resolver: resolver,
		logger:   deps.logger("tokens"),
	}
}

// List returns every token account the wallet holds under both token
// programs. A failing program query is logged and skipped; missing metadata
// degrades to placeholders.
func (p *Tokens) List(ctx context.Context) ([]domain.TokenBalance, error) {
	s := p.deps.Session
	owner, ok := s.PublicKey()
	if !ok {
		return nil, requireWallet(s)
	}

	programs := program.TokenPrograms()
	perProgram := make([][]solana.TokenAccount, len(programs))

	g, gctx := errgroup.WithContext(ctx)
	for i, prog := range programs {
		g.Go(func() error {
			accts, err := s.RPC().GetTokenAccountsByOwner(gctx, owner.String(), prog.String())
			if err != nil {
				p.logger.Warn("token account query failed",
					zap.String("program", prog.String()),
					zap.Error(err))
				return nil
			}
			perProgram[i] = accts
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var accounts []solana.TokenAccount
	for _, accts := range perProgram {
		accounts = append(accounts, accts...)
	}

	balances := make([]domain.TokenBalance, len(accounts))
	valid := make([]bool, len(accounts))
	g, gctx = errgroup.WithContext(ctx)
	g.SetLimit(resolveConcurrency)
	for i, acct := range accounts {
		g.Go(func() error {
			balances[i], valid[i] = p.balance(gctx, owner, acct)
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := balances[:0]
	for i, b := range balances {
		if valid[i] {
			out = append(out, b)
		}
	}
	return out, nil
}

// balance builds the view of one token account. Accounts whose amount
// cannot be parsed are reported as not ok and left out of the list.
func (p *Tokens) balance(ctx context.Context, owner solanago.PublicKey, acct solana.TokenAccount) (domain.TokenBalance, bool) {
	raw, err := strconv.ParseUint(acct.Amount, 10, 64)
	if err != nil {
		p.logger.Warn("skipping token account with malformed amount",
			zap.String("account", acct.Pubkey),
			zap.String("mint", acct.Mint),
			zap.String("amount", acct.Amount),
			zap.Error(err),
		)
		return domain.TokenBalance{}, false
	}
	b := domain.TokenBalance{
		Mint:         acct.Mint,
		TokenAccount: acct.Pubkey,
		ProgramID:    acct.ProgramID,
		RawAmount:    raw,
		Decimals:     acct.Decimals,
		Amount:       domain.FromBaseUnits(raw, acct.Decimals).String(),
		Name:         domain.UnknownTokenName,
		Symbol:       domain.UnknownTokenSymbol,
	}

	res, err := p.resolver.Resolve(ctx, acct.Mint)
	if err != nil {
		p.logger.Warn("failed to fetch token metadata", zap.String("mint", acct.Mint), zap.Error(err))
		return b, true
	}

	b.MintAuthority = res.Mint.MintAuthority
	b.FreezeAuthority = res.Mint.FreezeAuthority
	b.Supply = domain.FromBaseUnits(res.Mint.Supply, res.Mint.Decimals).String()
	b.OwnedByWallet = res.Mint.MintAuthority != nil && *res.Mint.MintAuthority == owner.String()

	if m := res.Metadata; m != nil {
		if m.Name != "" {
			b.Name = m.Name
		}
		if m.Symbol != "" {
			b.Symbol = m.Symbol
		}
		b.URI = optional(m.URI)
		b.Image = optional(m.Image)
		b.Description = optional(m.Description)
	}
	return b, true
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Find returns the wallet's balance of mint.
func (p *Tokens) Find(ctx context.Context, mint string) (*domain.TokenBalance, error) {
	balances, err := p.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range balances {
		if balances[i].Mint == mint {
			return &balances[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrTokenNotFound, mint)
}

// InFlight reports whether a mint or burn is pending.
func (p *Tokens) InFlight() bool { return p.mintFlag.InFlight() || p.burnFlag.InFlight() }

// tokenKeys parses the addresses of token.
func tokenKeys(token domain.TokenBalance) (mint, account, programID solanago.PublicKey, err error) {
	if mint, err = solanago.PublicKeyFromBase58(token.Mint); err != nil {
		return
	}
	if account, err = solanago.PublicKeyFromBase58(token.TokenAccount); err != nil {
		return
	}
	programID, err = solanago.PublicKeyFromBase58(token.ProgramID)
	return
}

// Burn destroys amount whole tokens from token's account. The amount is
// floored to base units and may not exceed the held balance.
func (p *Tokens) Burn(ctx context.Context, token domain.TokenBalance, amount string) (*TokenOpResult, error) {
	s := p.deps.Session
	var base uint64
	var qty decimal.Decimal
	var mint, account, programID solanago.PublicKey

	return action.Run(ctx, p.deps.Runner, &p.burnFlag, action.Step[*TokenOpResult]{
		Panel:   "token",
		Action:  "burn",
		Wallet:  walletAddress(s),
		Pending: "Burning tokens...",
		Validate: func() error {
			if err := requireWallet(s); err != nil {
				return err
			}
			var err error
			if mint, account, programID, err = tokenKeys(token); err != nil {
				return action.Invalid("Missing required information for burn operation")
			}
			if qty, err = domain.ParseAmount(amount); err != nil {
				return action.Invalid("Please enter a valid burn amount")
			}
			if base, err = domain.ToBaseUnits(qty, token.Decimals); err != nil || base == 0 {
				return action.Invalid("Please enter a valid burn amount")
			}
			if base > token.RawAmount {
				return action.Invalid("Burn amount cannot exceed your token balance")
			}
			return nil
		},
		Do: func(ctx context.Context, progress func(string)) (*TokenOpResult, error) {
			owner, ok := s.PublicKey()
			if !ok {
				return nil, requireWallet(s)
			}
			ix := program.Burn(programID, account, mint, owner, base)
			sig, err := p.send(ctx, owner, []solanago.Instruction{ix}, progress)
			if err != nil {
				return nil, err
			}
			return &TokenOpResult{Signature: sig, Mint: token.Mint, Amount: qty.String(), Symbol: token.Symbol}, nil
		},
		Success: func(r *TokenOpResult) string {
			return fmt.Sprintf("Successfully burned %s %s tokens!", r.Amount, r.Symbol)
		},
		Signature:  func(r *TokenOpResult) string { return r.Signature },
		Classifier: action.Classifier{
			Prefix: "Failed to burn tokens",
			Rules:  []action.Rule{{Contains: "User rejected", Kind: action.KindRejected, Message: "Transaction was rejected"}},
		},
	})
}

// Mint creates amount more whole tokens into the wallet's associated token
// account, which is created if missing. Only the mint authority may mint.
func (p *Tokens) Mint(ctx context.Context, token domain.TokenBalance, amount string) (*TokenOpResult, error) {
	s := p.deps.Session
	var base uint64
	var qty decimal.Decimal
	var mint, programID solanago.PublicKey

	return action.Run(ctx, p.deps.Runner, &p.mintFlag, action.Step[*TokenOpResult]{
		Panel:   "token",
		Action:  "mint",
		Wallet:  walletAddress(s),
		Pending: "Minting tokens...",
		Validate: func() error {
			if err := requireWallet(s); err != nil {
				return err
			}
			var err error
			if mint, _, programID, err = tokenKeys(token); err != nil {
				return action.Invalid("Missing required information for mint operation")
			}
			if qty, err = domain.ParseAmount(amount); err != nil {
				return action.Invalid("Please enter a valid mint amount")
			}
			if qty.GreaterThan(decimal.NewFromInt(int64(p.cfg.MintCap))) {
				return action.Invalid("Mint amount cannot exceed %s tokens at once", formatThousands(p.cfg.MintCap))
			}
			if base, err = domain.ToBaseUnits(qty, token.Decimals); err != nil || base == 0 {
				return action.Invalid("Please enter a valid mint amount")
			}
			if !token.OwnedByWallet {
				return action.Invalid("Only the mint authority can mint more tokens")
			}
			return nil
		},
		Do: func(ctx context.Context, progress func(string)) (*TokenOpResult, error) {
			owner, ok := s.PublicKey()
			if !ok {
				return nil, requireWallet(s)
			}
			ata, err := program.AssociatedTokenAddress(owner, mint, programID)
			if err != nil {
				return nil, err
			}
			ixs := []solanago.Instruction{
				program.CreateAssociatedTokenAccountIdempotent(owner, ata, owner, mint, programID),
				program.MintTo(programID, mint, ata, owner, base),
			}
			sig, err := p.send(ctx, owner, ixs, progress)
			if err != nil {
				return nil, err
			}
			return &TokenOpResult{Signature: sig, Mint: token.Mint, Amount: qty.String(), Symbol: token.Symbol}, nil
		},
		Success: func(r *TokenOpResult) string {
			return fmt.Sprintf("Successfully minted %s %s tokens!", r.Amount, r.Symbol)
		},
		Signature:  func(r *TokenOpResult) string { return r.Signature },
		Classifier: action.Classifier{
			Prefix: "Failed to mint tokens",
			Rules:  []action.Rule{{Contains: "User rejected", Kind: action.KindRejected, Message: "Transaction was rejected"}},
		},
	})
}

func (p *Tokens) send(ctx context.Context, owner solanago.PublicKey, ixs []solanago.Instruction, progress func(string)) (string, error) {
	s := p.deps.Session
	bh, err := s.RPC().GetLatestBlockhash(ctx, solana.CommitmentConfirmed)
	if err != nil {
		return "", err
	}
	tx, err := program.NewTransaction(ixs, bh.Blockhash, owner)
	if err != nil {
		return "", err
	}
	return sendAndConfirm(ctx, s, tx, bh, p.cfg.Send, progress)
}

// formatThousands renders n with comma separators.
func formatThousands(n uint64) string {
	s := strconv.FormatUint(n, 10)
	for i := len(s) - 3; i > 0; i -= 3 {
		s = s[:i] + "," + s[i:]
	}
	return s
}
