package tokenmeta

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"

	"github.com/mr-tron/base58"

	"solana-wallet-kit/internal/domain"
	"solana-wallet-kit/internal/program"
	"solana-wallet-kit/internal/solana"
)

// Account layout sizes.
const (
	MintLen            = 82
	accountLen         = 165 // base token account size; Token-2022 mint extensions start after it
	accountTypeMint    = 1
	extensionTokenMeta = 19
	metaplexKeyV1      = 4
)

// ErrNoMetadata means the account carries no readable metadata record.
var ErrNoMetadata = errors.New("no metadata found")

// ParseMint decodes the SPL mint layout shared by Token and Token-2022.
//
//	mintAuthority   COption<Pubkey> (4 + 32)
//	supply          u64
//	decimals        u8
//	isInitialized   bool
//	freezeAuthority COption<Pubkey> (4 + 32)
func ParseMint(data []byte) (*domain.MintInfo, error) {
	if len(data) < MintLen {
		return nil, fmt.Errorf("mint data too short: %d", len(data))
	}

	info := &domain.MintInfo{
		MintAuthority:   readCOptionPubkey(data[0:36]),
		Supply:          binary.LittleEndian.Uint64(data[36:44]),
		Decimals:        int(data[44]),
		IsInitialized:   data[45] != 0,
		FreezeAuthority: readCOptionPubkey(data[46:82]),
	}
	return info, nil
}

func readCOptionPubkey(b []byte) *string {
	if binary.LittleEndian.Uint32(b[0:4]) == 0 {
		return nil
	}
	key := base58.Encode(b[4:36])
	return &key
}

// ParseToken2022Metadata reads the TokenMetadata extension embedded in a
// Token-2022 mint. Returns ErrNoMetadata when the extension is absent.
func ParseToken2022Metadata(data []byte) (*domain.TokenMetadata, error) {
	if len(data) <= accountLen {
		return nil, ErrNoMetadata
	}
	if data[accountLen] != accountTypeMint {
		return nil, fmt.Errorf("account type %d is not a mint", data[accountLen])
	}

	offset := accountLen + 1
	for offset+4 <= len(data) {
		extType := binary.LittleEndian.Uint16(data[offset:])
		extLen := int(binary.LittleEndian.Uint16(data[offset+2:]))
		offset += 4
		if extType == 0 {
			break // uninitialized tail
		}
		if offset+extLen > len(data) {
			return nil, fmt.Errorf("extension %d overruns account: %d > %d", extType, offset+extLen, len(data))
		}
		if extType == extensionTokenMeta {
			return parseTokenMetadataValue(data[offset : offset+extLen])
		}
		offset += extLen
	}
	return nil, ErrNoMetadata
}

// parseTokenMetadataValue decodes updateAuthority(32) mint(32) name symbol uri.
// Additional metadata pairs follow and are ignored.
func parseTokenMetadataValue(v []byte) (*domain.TokenMetadata, error) {
	if len(v) < 64 {
		return nil, fmt.Errorf("token metadata too short: %d", len(v))
	}
	r := borshReader{buf: v, off: 64}

	meta := &domain.TokenMetadata{}
	var err error
	if meta.Name, err = r.string(); err != nil {
		return nil, fmt.Errorf("read name: %w", err)
	}
	if meta.Symbol, err = r.string(); err != nil {
		return nil, fmt.Errorf("read symbol: %w", err)
	}
	if meta.URI, err = r.string(); err != nil {
		return nil, fmt.Errorf("read uri: %w", err)
	}
	return meta, nil
}

// ParseMetaplex decodes a Metaplex Token Metadata account.
//
//	key             u8 (4 for MetadataV1)
//	updateAuthority Pubkey
//	mint            Pubkey
//	name            String (padded with NULs to 32)
//	symbol          String (padded to 10)
//	uri             String (padded to 200)
func ParseMetaplex(data []byte) (*domain.TokenMetadata, error) {
	if len(data) < 65 {
		return nil, fmt.Errorf("metaplex data too short: %d", len(data))
	}
	if data[0] != metaplexKeyV1 {
		return nil, fmt.Errorf("unexpected metaplex key %d", data[0])
	}

	r := borshReader{buf: data, off: 65}
	meta := &domain.TokenMetadata{}
	var err error
	if meta.Name, err = r.string(); err != nil {
		return nil, fmt.Errorf("read name: %w", err)
	}
	if meta.Symbol, err = r.string(); err != nil {
		return nil, fmt.Errorf("read symbol: %w", err)
	}
	if meta.URI, err = r.string(); err != nil {
		return nil, fmt.Errorf("read uri: %w", err)
	}

	meta.Name = strings.TrimRight(meta.Name, "\x00")
	meta.Symbol = strings.TrimRight(meta.Symbol, "\x00")
	meta.URI = strings.TrimRight(meta.URI, "\x00")
	return meta, nil
}

// MetaplexMetadataAddress derives the Metaplex metadata PDA of mint.
// Seeds: ["metadata", metaplex_program_id, mint]
func MetaplexMetadataAddress(mint string) (string, error) {
	mintBytes, err := solana.DecodeAddress(mint)
	if err != nil {
		return "", err
	}
	programID := program.MetaplexProgramID
	seeds := [][]byte{
		[]byte("metadata"),
		programID[:],
		mintBytes,
	}
	addr, _, err := solana.FindProgramAddress(seeds, programID.String())
	if err != nil {
		return "", fmt.Errorf("derive metadata address: %w", err)
	}
	return addr, nil
}

// borshReader reads length-prefixed strings.
type borshReader struct {
	buf []byte
	off int
}

const maxBorshString = 1 << 12

func (r *borshReader) string() (string, error) {
	if r.off+4 > len(r.buf) {
		return "", fmt.Errorf("length prefix at %d out of range", r.off)
	}
	n := int(binary.LittleEndian.Uint32(r.buf[r.off:]))
	r.off += 4
	if n > maxBorshString || r.off+n > len(r.buf) {
		return "", fmt.Errorf("string of %d bytes at %d out of range", n, r.off)
	}
	s := string(r.buf[r.off : r.off+n])
	r.off += n
	return s, nil
}
