package panels

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"solana-wallet-kit/internal/action"
	"solana-wallet-kit/internal/domain"
	"solana-wallet-kit/internal/solana"
)

// AirdropResult is a confirmed faucet credit.
type AirdropResult struct {
	Signature string
	Lamports  uint64
}

// Airdrop requests faucet SOL on devnet and testnet.
type Airdrop struct {
	deps     Deps
	lamports uint64
	flag     action.Flag
	logger   *zap.Logger
}

// NewAirdrop creates the airdrop panel. lamports defaults to 1 SOL.
func NewAirdrop(deps Deps, lamports uint64) *Airdrop {
	if lamports == 0 {
		lamports = domain.LamportsPerSOL
	}
	return &Airdrop{deps: deps, lamports: lamports, logger: deps.logger("airdrop")}
}

var airdropClassifier = action.Classifier{
	Prefix: "Airdrop failed",
	Rules: []action.Rule{
		{Contains: "insufficient funds", Kind: action.KindNetwork, Message: "Faucet is empty. Try again later."},
	},
}

// InFlight reports whether a request is pending.
func (p *Airdrop) InFlight() bool { return p.flag.InFlight() }

// Request asks the faucet for the configured amount and waits for confirmation.
func (p *Airdrop) Request(ctx context.Context) (*AirdropResult, error) {
	s := p.deps.Session
	return action.Run(ctx, p.deps.Runner, &p.flag, action.Step[*AirdropResult]{
		Panel:   "airdrop",
		Action:  "request",
		Wallet:  walletAddress(s),
		Pending: "Requesting airdrop...",
		Validate: func() error {
			if err := requireWallet(s); err != nil {
				return err
			}
			switch s.Cluster() {
			case "devnet", "testnet", "localnet", "":
				return nil
			}
			return action.Invalid("Airdrops are only available on devnet and testnet")
		},
		Do: func(ctx context.Context, progress func(string)) (*AirdropResult, error) {
			pk, _ := s.PublicKey()
			// The faucet transaction is built against a current blockhash; its
			// last valid height bounds the wait.
			bh, err := s.RPC().GetLatestBlockhash(ctx, solana.CommitmentConfirmed)
			if err != nil {
				return nil, err
			}
			sig, err := s.RPC().RequestAirdrop(ctx, pk.String(), p.lamports)
			if err != nil {
				return nil, err
			}
			p.logger.Debug("airdrop requested", zap.String("signature", sig))

			progress("Airdrop requested, waiting for confirmation...")
			if err := s.Confirmer().Confirm(ctx, solana.Confirmation{
				Signature:            sig,
				Blockhash:            bh.Blockhash,
				LastValidBlockHeight: bh.LastValidBlockHeight,
				Commitment:           solana.CommitmentConfirmed,
			}); err != nil {
				return nil, err
			}
			return &AirdropResult{Signature: sig, Lamports: p.lamports}, nil
		},
		Success: func(r *AirdropResult) string {
			return fmt.Sprintf("Airdrop successful! %s SOL added to your wallet", domain.FormatSOL(r.Lamports))
		},
		Signature:  func(r *AirdropResult) string { return r.Signature },
		Classifier: airdropClassifier,
	})
}
