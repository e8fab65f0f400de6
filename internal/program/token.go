package program

import (
	"encoding/binary"
	"fmt"

	solanago "github.com/gagliardetto/solana-go"

	"solana-wallet-kit/internal/solana"
)

// Token-2022 account layout sizes.
const (
	// MintBaseLen is the legacy mint layout length.
	MintBaseLen = 82
	// AccountBaseLen is the base account length that extension mints pad to.
	AccountBaseLen = 165
	// accountTypeLen is the account-type discriminator following the base.
	accountTypeLen = 1
	// tlvHeaderLen is the u16 extension type plus u16 length.
	tlvHeaderLen = 4
	// metadataPointerLen is authority plus metadata address.
	metadataPointerLen = 64

	// MintWithMetadataPointerLen is the size of a Token-2022 mint carrying
	// only the MetadataPointer extension.
	MintWithMetadataPointerLen = AccountBaseLen + accountTypeLen + tlvHeaderLen + metadataPointerLen
)

// SPL token instruction tags.
const (
	tokenIxMintTo               = 7
	tokenIxBurn                 = 8
	tokenIxInitializeMint2      = 20
	tokenIxMetadataPointerExt   = 39
	metadataPointerIxInitialize = 0
	ataIxCreateIdempotent       = 1
)

// InitializeMetadataPointer points the mint's metadata at metadata, editable by authority.
// Must precede InitializeMint2.
func InitializeMetadataPointer(mint, authority, metadata solanago.PublicKey) solanago.Instruction {
	data := make([]byte, 0, 2+64)
	data = append(data, tokenIxMetadataPointerExt, metadataPointerIxInitialize)
	data = append(data, authority[:]...)
	data = append(data, metadata[:]...)
	return solanago.NewInstruction(Token2022ProgramID, solanago.AccountMetaSlice{
		solanago.NewAccountMeta(mint, true, false),
	}, data)
}

// InitializeMint2 initializes mint. A nil freezeAuthority leaves freezing disabled.
func InitializeMint2(programID, mint solanago.PublicKey, decimals uint8, mintAuthority solanago.PublicKey, freezeAuthority *solanago.PublicKey) solanago.Instruction {
	data := make([]byte, 0, 67)
	data = append(data, tokenIxInitializeMint2, decimals)
	data = append(data, mintAuthority[:]...)
	if freezeAuthority != nil {
		data = append(data, 1)
		data = append(data, freezeAuthority[:]...)
	} else {
		data = append(data, 0)
		data = append(data, make([]byte, 32)...)
	}
	return solanago.NewInstruction(programID, solanago.AccountMetaSlice{
		solanago.NewAccountMeta(mint, true, false),
	}, data)
}

// MintTo mints amount base units of mint into destination.
func MintTo(programID, mint, destination, authority solanago.PublicKey, amount uint64) solanago.Instruction {
	return solanago.NewInstruction(programID, solanago.AccountMetaSlice{
		solanago.NewAccountMeta(mint, true, false),
		solanago.NewAccountMeta(destination, true, false),
		solanago.NewAccountMeta(authority, false, true),
	}, amountData(tokenIxMintTo, amount))
}

// Burn destroys amount base units held in account.
func Burn(programID, account, mint, owner solanago.PublicKey, amount uint64) solanago.Instruction {
	return solanago.NewInstruction(programID, solanago.AccountMetaSlice{
		solanago.NewAccountMeta(account, true, false),
		solanago.NewAccountMeta(mint, true, false),
		solanago.NewAccountMeta(owner, false, true),
	}, amountData(tokenIxBurn, amount))
}

func amountData(tag byte, amount uint64) []byte {
	data := make([]byte, 9)
	data[0] = tag
	binary.LittleEndian.PutUint64(data[1:], amount)
	return data
}

// AssociatedTokenAddress derives the owner's associated token account for mint
// under tokenProgram.
func AssociatedTokenAddress(owner, mint, tokenProgram solanago.PublicKey) (solanago.PublicKey, error) {
	addr, _, err := solana.FindProgramAddress(
		[][]byte{owner[:], tokenProgram[:], mint[:]},
		AssociatedTokenProgramID.String(),
	)
	if err != nil {
		return solanago.PublicKey{}, fmt.Errorf("derive associated token address: %w", err)
	}
	return solanago.PublicKeyFromBase58(addr)
}

// CreateAssociatedTokenAccountIdempotent creates ata unless it already exists.
func CreateAssociatedTokenAccountIdempotent(payer, ata, owner, mint, tokenProgram solanago.PublicKey) solanago.Instruction {
	return solanago.NewInstruction(AssociatedTokenProgramID, solanago.AccountMetaSlice{
		solanago.NewAccountMeta(payer, true, true),
		solanago.NewAccountMeta(ata, true, false),
		solanago.NewAccountMeta(owner, false, false),
		solanago.NewAccountMeta(mint, false, false),
		solanago.NewAccountMeta(SystemProgramID, false, false),
		solanago.NewAccountMeta(tokenProgram, false, false),
	}, []byte{ataIxCreateIdempotent})
}
