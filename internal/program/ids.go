// Package program builds the client-side instructions the wallet panels send:
// system transfers, compute budget, SPL Token / Token-2022 and the token
// metadata interface. Nothing here executes on-chain logic.
package program

import solanago "github.com/gagliardetto/solana-go"

// Well-known program addresses.
var (
	SystemProgramID          = solanago.SystemProgramID
	TokenProgramID           = solanago.MustPublicKeyFromBase58("TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA")
	Token2022ProgramID       = solanago.MustPublicKeyFromBase58("TokenzQdBNbLqP5VEhdkAS6EPFLC1PHnBqCXEpPxuEb")
	AssociatedTokenProgramID = solanago.MustPublicKeyFromBase58("ATokenGPvbdGVxr1b2hvZbsiqW5xWH25efTNsLJA8knL")
	ComputeBudgetProgramID   = solanago.MustPublicKeyFromBase58("ComputeBudget111111111111111111111111111111")
	MetaplexProgramID        = solanago.MustPublicKeyFromBase58("metaqbxxUerdq28cj1RbAWkYQm3ybzjb6a8bt518x1s")
)

// TokenPrograms lists the token programs a wallet can hold balances under.
func TokenPrograms() []solanago.PublicKey {
	return []solanago.PublicKey{TokenProgramID, Token2022ProgramID}
}
