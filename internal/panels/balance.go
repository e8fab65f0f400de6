package panels

import (
	"context"
	"fmt"

	"solana-wallet-kit/internal/domain"
	"solana-wallet-kit/internal/solana"
)

// BalanceResult is the connected wallet's SOL balance.
type BalanceResult struct {
	Address  string
	Lamports uint64
	SOL      string
}

// Balance reads the connected wallet's balance. It is a plain query and
// publishes no statuses.
type Balance struct {
	deps Deps
}

// NewBalance creates the balance panel.
func NewBalance(deps Deps) *Balance {
	return &Balance{deps: deps}
}

// Get returns the balance at confirmed commitment.
func (p *Balance) Get(ctx context.Context) (*BalanceResult, error) {
	s := p.deps.Session
	pk, ok := s.PublicKey()
	if !ok {
		return nil, fmt.Errorf("get balance: %w", requireWallet(s))
	}
	lamports, err := s.RPC().GetBalance(ctx, pk.String(), solana.CommitmentConfirmed)
	if err != nil {
		return nil, fmt.Errorf("get balance: %w", err)
	}
	return &BalanceResult{
		Address:  pk.String(),
		Lamports: lamports,
		SOL:      domain.FormatSOL(lamports),
	}, nil
}
