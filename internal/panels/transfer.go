package panels

import (
	"context"
	"strings"
	"sync"

	solanago "github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"solana-wallet-kit/internal/action"
	"solana-wallet-kit/internal/domain"
	"solana-wallet-kit/internal/program"
	"solana-wallet-kit/internal/solana"
)

// quoteDraftLamports prices drafts built before the user typed an amount.
const quoteDraftLamports = 1000

// TransferConfig holds the transfer options.
type TransferConfig struct {
	// DefaultFeeLamports is assumed when getFeeForMessage returns null or fails.
	DefaultFeeLamports uint64
	// ComputeBudget rebuilds the simulated transaction with explicit limits.
	ComputeBudget program.ComputeBudgetConfig
	// Send is passed to sendTransaction.
	Send solana.SendConfig
}

// DefaultTransferConfig returns the defaults.
func DefaultTransferConfig() TransferConfig {
	return TransferConfig{
		DefaultFeeLamports: DefaultFeeLamports,
		ComputeBudget:      program.DefaultComputeBudgetConfig(),
		Send:               solana.DefaultSendConfig(),
	}
}

// TransferResult is a confirmed SOL transfer.
type TransferResult struct {
	Signature   string
	Recipient   string
	Lamports    uint64
	FeeLamports uint64
	ExplorerURL string
}

// Transfer sends SOL from the connected wallet.
type Transfer struct {
	deps   Deps
	cfg    TransferConfig
	flag   action.Flag
	logger *zap.Logger

	mu          sync.Mutex
	lastBalance *uint64
	lastFee     uint64
}

// NewTransfer creates the transfer panel.
func NewTransfer(deps Deps, cfg TransferConfig) *Transfer {
	if cfg.DefaultFeeLamports == 0 {
		cfg.DefaultFeeLamports = DefaultFeeLamports
	}
	return &Transfer{
		deps:    deps,
		cfg:     cfg,
		logger:  deps.logger("transfer"),
		lastFee: cfg.DefaultFeeLamports,
	}
}

var transferClassifier = action.Classifier{
	Prefix: "Transfer failed",
	Rules: []action.Rule{
		{Contains: "User rejected", Kind: action.KindRejected, Message: "Transaction was rejected"},
		{Contains: "insufficient funds", Kind: action.KindInsufficientFunds, Message: "Insufficient funds for this transaction"},
		{Contains: "Invalid public key", Kind: action.KindMalformedInput, Message: "Invalid recipient address"},
	},
}

// InFlight reports whether a transfer is pending.
func (p *Transfer) InFlight() bool { return p.flag.InFlight() }

func (p *Transfer) remember(balance, fee uint64) {
	p.mu.Lock()
	p.lastBalance = &balance
	p.lastFee = fee
	p.mu.Unlock()
}

// known returns the last observed balance and fee, if any.
func (p *Transfer) known() (uint64, uint64, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.lastBalance == nil {
		return 0, p.lastFee, false
	}
	return *p.lastBalance, p.lastFee, true
}

// instructions builds the transfer, preceded by compute budget instructions
// when consumed units are known.
func (p *Transfer) instructions(from, to solanago.PublicKey, lamports uint64, consumed *uint64, budget bool) []solanago.Instruction {
	var ixs []solanago.Instruction
	if budget {
		ixs = append(ixs, p.cfg.ComputeBudget.Instructions(consumed)...)
	}
	return append(ixs, program.Transfer(from, to, lamports))
}

// Quote estimates the cost of sending amount SOL to recipient. It publishes no
// statuses and never fails on an unparseable recipient or amount; those price
// at the default fee.
func (p *Transfer) Quote(ctx context.Context, recipient, amount string) (*domain.TransferQuote, error) {
	s := p.deps.Session
	from, ok := s.PublicKey()
	if !ok {
		return nil, requireWallet(s)
	}

	lamports, err := domain.SOLToLamports(amount)
	draftLamports := lamports
	if err != nil {
		lamports, draftLamports = 0, quoteDraftLamports
	}

	balance, err := s.RPC().GetBalance(ctx, from.String(), solana.CommitmentConfirmed)
	if err != nil {
		return nil, err
	}

	fee, fallback := p.cfg.DefaultFeeLamports, true
	if to, err := solanago.PublicKeyFromBase58(strings.TrimSpace(recipient)); err == nil {
		bh, err := s.RPC().GetLatestBlockhash(ctx, solana.CommitmentConfirmed)
		if err != nil {
			return nil, err
		}
		draft, err := program.NewTransaction(p.instructions(from, to, draftLamports, nil, false), bh.Blockhash, from)
		if err != nil {
			return nil, err
		}
		fee, fallback = messageFee(ctx, s.RPC(), draft, p.cfg.DefaultFeeLamports)
	}
	p.remember(balance, fee)

	q := &domain.TransferQuote{
		Recipient:       strings.TrimSpace(recipient),
		Lamports:        lamports,
		FeeLamports:     fee,
		FeeFallback:     fallback,
		BalanceLamports: balance,
	}
	if domain.Covers(balance, lamports, fee) {
		q.Sufficient = true
		q.RemainingLamports = balance - lamports - fee
	}
	return q, nil
}

// MaxAmount returns the largest amount in lamports that leaves enough for the fee.
func (p *Transfer) MaxAmount(ctx context.Context, recipient string) (uint64, error) {
	s := p.deps.Session
	from, ok := s.PublicKey()
	if !ok {
		return 0, requireWallet(s)
	}
	recipient = strings.TrimSpace(recipient)
	if recipient == "" {
		return 0, action.Invalid("Please enter a recipient address first")
	}
	if err := solana.ValidateAddress(recipient); err != nil {
		return 0, err
	}
	to, err := solanago.PublicKeyFromBase58(recipient)
	if err != nil {
		return 0, solana.ErrInvalidPublicKey
	}

	balance, err := s.RPC().GetBalance(ctx, from.String(), solana.CommitmentConfirmed)
	if err != nil {
		return 0, err
	}
	if balance == 0 {
		return 0, action.Invalid("Insufficient balance to cover transaction fees")
	}

	bh, err := s.RPC().GetLatestBlockhash(ctx, solana.CommitmentConfirmed)
	if err != nil {
		return 0, err
	}
	draft, err := program.NewTransaction(p.instructions(from, to, balance, nil, false), bh.Blockhash, from)
	if err != nil {
		return 0, err
	}
	fee, _ := messageFee(ctx, s.RPC(), draft, p.cfg.DefaultFeeLamports)
	p.remember(balance, fee)

	if balance <= fee {
		return 0, action.Invalid("Insufficient balance to cover transaction fees")
	}
	return balance - fee, nil
}

// Submit sends amount SOL to recipient. The cost is re-derived from fresh
// state, the transaction is simulated, and nothing is sent when the balance
// cannot cover amount plus fee.
func (p *Transfer) Submit(ctx context.Context, recipient, amount string) (*TransferResult, error) {
	s := p.deps.Session
	recipient = strings.TrimSpace(recipient)
	var lamports uint64

	return action.Run(ctx, p.deps.Runner, &p.flag, action.Step[*TransferResult]{
		Panel:   "transfer",
		Action:  "submit",
		Wallet:  walletAddress(s),
		Pending: "Preparing transaction...",
		Validate: func() error {
			if err := requireWallet(s); err != nil {
				return err
			}
			if recipient == "" {
				return action.Invalid("Please enter a valid recipient address and amount")
			}
			var err error
			if lamports, err = domain.SOLToLamports(amount); err != nil {
				return err
			}
			if lamports == 0 {
				return domain.ErrInvalidAmount
			}
			if balance, fee, ok := p.known(); ok && !domain.Covers(balance, lamports, fee) {
				return &action.InsufficientFundsError{Need: domain.AddLamports(lamports, fee), Have: balance}
			}
			return nil
		},
		Do: func(ctx context.Context, progress func(string)) (*TransferResult, error) {
			return p.submit(ctx, recipient, lamports, progress)
		},
		Success:    func(*TransferResult) string { return "Transfer successful!" },
		Signature:  func(r *TransferResult) string { return r.Signature },
		Classifier: transferClassifier,
	})
}

func (p *Transfer) submit(ctx context.Context, recipient string, lamports uint64, progress func(string)) (*TransferResult, error) {
	s := p.deps.Session
	from, ok := s.PublicKey()
	if !ok {
		return nil, requireWallet(s)
	}
	if err := solana.ValidateAddress(recipient); err != nil {
		return nil, err
	}
	to, err := solanago.PublicKeyFromBase58(recipient)
	if err != nil {
		return nil, solana.ErrInvalidPublicKey
	}

	bh, err := s.RPC().GetLatestBlockhash(ctx, solana.CommitmentConfirmed)
	if err != nil {
		return nil, err
	}
	tx, err := program.NewTransaction(p.instructions(from, to, lamports, nil, false), bh.Blockhash, from)
	if err != nil {
		return nil, err
	}

	fee, _ := messageFee(ctx, s.RPC(), tx, p.cfg.DefaultFeeLamports)
	balance, err := s.RPC().GetBalance(ctx, from.String(), solana.CommitmentConfirmed)
	if err != nil {
		return nil, err
	}
	p.remember(balance, fee)
	if !domain.Covers(balance, lamports, fee) {
		return nil, &action.InsufficientFundsError{Need: domain.AddLamports(lamports, fee), Have: balance}
	}

	sim, err := simulate(ctx, s.RPC(), tx)
	if err != nil {
		return nil, err
	}

	if p.cfg.ComputeBudget.Enabled {
		tx, err = program.NewTransaction(p.instructions(from, to, lamports, sim.UnitsConsumed, true), bh.Blockhash, from)
		if err != nil {
			return nil, err
		}
		fee, _ = messageFee(ctx, s.RPC(), tx, p.cfg.DefaultFeeLamports)
		if !domain.Covers(balance, lamports, fee) {
			return nil, &action.InsufficientFundsError{Need: domain.AddLamports(lamports, fee), Have: balance}
		}
	}

	p.logger.Debug("sending transfer",
		zap.String("recipient", recipient),
		zap.Uint64("lamports", lamports),
		zap.Uint64("fee", fee),
		zap.Uint64("balance", balance))

	sig, err := sendAndConfirm(ctx, s, tx, bh, p.cfg.Send, progress)
	if err != nil {
		return nil, err
	}
	return &TransferResult{
		Signature:   sig,
		Recipient:   recipient,
		Lamports:    lamports,
		FeeLamports: fee,
		ExplorerURL: ExplorerTxURL(sig, s.Cluster()),
	}, nil
}
