package program

import (
	solanago "github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
)

// Transfer moves lamports between system accounts.
func Transfer(from, to solanago.PublicKey, lamports uint64) solanago.Instruction {
	return system.NewTransferInstruction(lamports, from, to).Build()
}

// CreateAccount allocates space bytes owned by owner, funded by payer.
func CreateAccount(payer, account, owner solanago.PublicKey, lamports, space uint64) solanago.Instruction {
	return system.NewCreateAccountInstruction(lamports, space, owner, payer, account).Build()
}
