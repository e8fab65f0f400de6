package program

import (
	"crypto/sha256"
	"encoding/binary"

	solanago "github.com/gagliardetto/solana-go"
)

// tokenMetadataInitializeDiscriminator is sha256("spl_token_metadata_interface:initialize_account")[:8].
var tokenMetadataInitializeDiscriminator = func() []byte {
	sum := sha256.Sum256([]byte("spl_token_metadata_interface:initialize_account"))
	return sum[:8]
}()

// TokenMetadataFields are the variable-length fields stored in the metadata TLV.
type TokenMetadataFields struct {
	Name   string
	Symbol string
	URI    string
}

// PackedLen returns the borsh size of the TokenMetadata extension value with
// no additional metadata entries.
func (f TokenMetadataFields) PackedLen() int {
	return 32 + 32 + // update authority + mint
		4 + len(f.Name) +
		4 + len(f.Symbol) +
		4 + len(f.URI) +
		4 // empty additional_metadata vec
}

// TLVLen returns the bytes the metadata extension occupies in the mint, header included.
func (f TokenMetadataFields) TLVLen() int {
	return tlvHeaderLen + f.PackedLen()
}

// InitializeTokenMetadata writes name, symbol and uri into metadata (the mint
// itself when it carries a self-referencing MetadataPointer).
func InitializeTokenMetadata(programID, metadata, updateAuthority, mint, mintAuthority solanago.PublicKey, f TokenMetadataFields) solanago.Instruction {
	data := make([]byte, 0, 8+12+len(f.Name)+len(f.Symbol)+len(f.URI))
	data = append(data, tokenMetadataInitializeDiscriminator...)
	data = appendBorshString(data, f.Name)
	data = appendBorshString(data, f.Symbol)
	data = appendBorshString(data, f.URI)
	return solanago.NewInstruction(programID, solanago.AccountMetaSlice{
		solanago.NewAccountMeta(metadata, true, false),
		solanago.NewAccountMeta(updateAuthority, false, false),
		solanago.NewAccountMeta(mint, false, false),
		solanago.NewAccountMeta(mintAuthority, false, true),
	}, data)
}

func appendBorshString(dst []byte, s string) []byte {
	var n [4]byte
	binary.LittleEndian.PutUint32(n[:], uint32(len(s)))
	dst = append(dst, n[:]...)
	return append(dst, s...)
}
