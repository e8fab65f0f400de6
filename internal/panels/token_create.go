package panels

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	solanago "github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"solana-wallet-kit/internal/action"
	"solana-wallet-kit/internal/domain"
	"solana-wallet-kit/internal/program"
	"solana-wallet-kit/internal/solana"
	"solana-wallet-kit/internal/tokenmeta"
)

// MaxSymbolLen bounds token symbols.
const MaxSymbolLen = 10

// TokensConfig holds the token panel options.
type TokensConfig struct {
	// MintCap is the most whole tokens one mint-more request may create.
	MintCap uint64
	// PlaceholderImage is written into generated metadata when no image is given.
	PlaceholderImage string
	// DefaultFeeLamports is assumed when a message cannot be priced.
	DefaultFeeLamports uint64
	// Send is passed to sendTransaction.
	Send solana.SendConfig
}

// DefaultTokensConfig returns the defaults.
func DefaultTokensConfig() TokensConfig {
	return TokensConfig{
		MintCap:            1_000_000,
		PlaceholderImage:   tokenmeta.DefaultPlaceholderImage,
		DefaultFeeLamports: DefaultFeeLamports,
		Send:               solana.DefaultSendConfig(),
	}
}

func (c TokensConfig) withDefaults() TokensConfig {
	d := DefaultTokensConfig()
	if c.MintCap == 0 {
		c.MintCap = d.MintCap
	}
	if c.PlaceholderImage == "" {
		c.PlaceholderImage = d.PlaceholderImage
	}
	if c.DefaultFeeLamports == 0 {
		c.DefaultFeeLamports = d.DefaultFeeLamports
	}
	return c
}

// CreateToken creates Token-2022 mints carrying their metadata inline.
type CreateToken struct {
	deps   Deps
	cfg    TokensConfig
	flag   action.Flag
	logger *zap.Logger
}

// NewCreateToken creates the token creation panel.
func NewCreateToken(deps Deps, cfg TokensConfig) *CreateToken {
	return &CreateToken{deps: deps, cfg: cfg.withDefaults(), logger: deps.logger("create_token")}
}

var createTokenClassifier = action.Classifier{
	Prefix: "Token creation failed",
	Rules: []action.Rule{
		{Contains: "User rejected", Kind: action.KindRejected, Message: "Transaction was rejected"},
	},
}

// InFlight reports whether a creation is pending.
func (p *CreateToken) InFlight() bool { return p.flag.InFlight() }

// validateForm checks form and returns the initial supply in base units.
func validateForm(form domain.TokenForm) (uint64, error) {
	if strings.TrimSpace(form.Name) == "" || strings.TrimSpace(form.Symbol) == "" {
		return 0, action.Invalid("Please provide both a name and a symbol for the token")
	}
	if utf8.RuneCountInString(strings.TrimSpace(form.Symbol)) > MaxSymbolLen {
		return 0, action.Invalid("Symbol must be at most %d characters", MaxSymbolLen)
	}
	if form.Decimals < 0 || form.Decimals > 9 {
		return 0, action.Invalid("Decimals must be between 0 and 9")
	}
	supply, err := domain.ParseAmount(form.InitialSupply)
	if err != nil {
		return 0, action.Invalid("Initial supply must be greater than 0")
	}
	base, err := domain.ToBaseUnits(supply, form.Decimals)
	if err != nil {
		return 0, action.Invalid("Initial supply is too large for %d decimals", form.Decimals)
	}
	if base == 0 {
		return 0, action.Invalid("Initial supply must be greater than 0")
	}
	return base, nil
}

// Create builds, simulates, signs and sends the mint creation transaction.
func (p *CreateToken) Create(ctx context.Context, form domain.TokenForm) (*domain.CreatedToken, error) {
	s := p.deps.Session
	var supply uint64

	return action.Run(ctx, p.deps.Runner, &p.flag, action.Step[*domain.CreatedToken]{
		Panel:   "token",
		Action:  "create",
		Wallet:  walletAddress(s),
		Pending: "Creating token...",
		Validate: func() error {
			if err := requireWallet(s); err != nil {
				return err
			}
			var err error
			supply, err = validateForm(form)
			return err
		},
		Do: func(ctx context.Context, progress func(string)) (*domain.CreatedToken, error) {
			return p.create(ctx, form, supply, progress)
		},
		Success: func(t *domain.CreatedToken) string {
			return "Token created successfully! Mint: " + t.Mint
		},
		Signature:  func(t *domain.CreatedToken) string { return t.Signature },
		Classifier: createTokenClassifier,
	})
}

func (p *CreateToken) create(ctx context.Context, form domain.TokenForm, supply uint64, progress func(string)) (*domain.CreatedToken, error) {
	s := p.deps.Session
	owner, ok := s.PublicKey()
	if !ok {
		return nil, requireWallet(s)
	}

	mintKey, err := solanago.NewRandomPrivateKey()
	if err != nil {
		return nil, fmt.Errorf("generate mint keypair: %w", err)
	}
	mint := mintKey.PublicKey()

	uri := strings.TrimSpace(form.MetadataURI)
	if uri == "" {
		doc := tokenmeta.NewDocument(form.Name, form.Symbol, form.Description, form.Image, p.cfg.PlaceholderImage)
		if uri, err = doc.DataURI(); err != nil {
			return nil, err
		}
	}
	fields := program.TokenMetadataFields{
		Name:   strings.TrimSpace(form.Name),
		Symbol: strings.TrimSpace(form.Symbol),
		URI:    uri,
	}

	// The account is allocated for the pointer only; the metadata TLV is
	// appended by the metadata program and must be prefunded.
	rent, err := s.RPC().GetMinimumBalanceForRentExemption(ctx, uint64(program.MintWithMetadataPointerLen+fields.TLVLen()))
	if err != nil {
		return nil, err
	}

	ata, err := program.AssociatedTokenAddress(owner, mint, program.Token2022ProgramID)
	if err != nil {
		return nil, err
	}

	ixs := []solanago.Instruction{
		program.CreateAccount(owner, mint, program.Token2022ProgramID, rent, program.MintWithMetadataPointerLen),
		program.InitializeMetadataPointer(mint, owner, mint),
		program.InitializeMint2(program.Token2022ProgramID, mint, uint8(form.Decimals), owner, &owner),
		program.InitializeTokenMetadata(program.Token2022ProgramID, mint, owner, mint, owner, fields),
		program.CreateAssociatedTokenAccountIdempotent(owner, ata, owner, mint, program.Token2022ProgramID),
		program.MintTo(program.Token2022ProgramID, mint, ata, owner, supply),
	}

	bh, err := s.RPC().GetLatestBlockhash(ctx, solana.CommitmentConfirmed)
	if err != nil {
		return nil, err
	}
	tx, err := program.NewTransaction(ixs, bh.Blockhash, owner)
	if err != nil {
		return nil, err
	}

	fee, _ := messageFee(ctx, s.RPC(), tx, p.cfg.DefaultFeeLamports)
	balance, err := s.RPC().GetBalance(ctx, owner.String(), solana.CommitmentConfirmed)
	if err != nil {
		return nil, err
	}
	if need := domain.AddLamports(rent, fee); need > balance {
		return nil, &action.InsufficientFundsError{Need: need, Have: balance}
	}

	if _, err := simulate(ctx, s.RPC(), tx); err != nil {
		return nil, err
	}

	if err := program.Sign(tx, mintKey); err != nil {
		return nil, fmt.Errorf("sign with mint keypair: %w", err)
	}

	p.logger.Debug("creating token",
		zap.String("mint", mint.String()),
		zap.Uint64("rent", rent),
		zap.Uint64("fee", fee),
		zap.Int("uri_len", len(uri)))

	sig, err := sendAndConfirm(ctx, s, tx, bh, p.cfg.Send, progress)
	if err != nil {
		return nil, err
	}

	return &domain.CreatedToken{
		Mint:         mint.String(),
		TokenAccount: ata.String(),
		Signature:    sig,
		MetadataURI:  uri,
		ExplorerURL:  ExplorerAddressURL(mint.String(), s.Cluster()),
		Minted:       domain.FromBaseUnits(supply, form.Decimals).String(),
	}, nil
}
