package domain

// TokenMetadata is the descriptive metadata of a mint, merged from the
// on-chain record (Token-2022 TLV or Metaplex account) and the off-chain
// JSON document the URI points at. Empty fields mean "not present".
type TokenMetadata struct {
	Name        string
	Symbol      string
	URI         string
	Image       string
	Description string
}

// MintInfo is the decoded state of a mint account.
type MintInfo struct {
	MintAuthority   *string // nil when minting is disabled
	FreezeAuthority *string // nil when freezing is disabled
	Supply          uint64  // base units
	Decimals        int
	IsInitialized   bool
}
