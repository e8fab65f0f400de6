package panels

import (
	"solana-wallet-kit/internal/tokenmeta"
)

// SetConfig configures every panel of a Set.
type SetConfig struct {
	AirdropLamports uint64
	Transfer        TransferConfig
	Tokens          TokensConfig
	// Resolver reads mint metadata for listings. Nil builds a default one.
	Resolver *tokenmeta.Resolver
}

// Set is the full panel lineup sharing one session and runner.
type Set struct {
	Airdrop     *Airdrop
	Sign        *Sign
	Verify      *Verify
	Balance     *Balance
	Transfer    *Transfer
	CreateToken *CreateToken
	Tokens      *Tokens
}

// NewSet builds every panel.
func NewSet(deps Deps, cfg SetConfig) *Set {
	return &Set{
		Airdrop:     NewAirdrop(deps, cfg.AirdropLamports),
		Sign:        NewSign(deps),
		Verify:      NewVerify(deps),
		Balance:     NewBalance(deps),
		Transfer:    NewTransfer(deps, cfg.Transfer),
		CreateToken: NewCreateToken(deps, cfg.Tokens),
		Tokens:      NewTokens(deps, cfg.Tokens, cfg.Resolver),
	}
}

// Busy reports which panels have an action in flight.
func (s *Set) Busy() map[string]bool {
	return map[string]bool{
		"airdrop":  s.Airdrop.InFlight(),
		"sign":     s.Sign.InFlight(),
		"verify":   s.Verify.InFlight(),
		"transfer": s.Transfer.InFlight(),
		"token":    s.CreateToken.InFlight() || s.Tokens.InFlight(),
	}
}
