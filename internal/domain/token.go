package domain

// Placeholder values shown when a token has no readable metadata.
const (
	UnknownTokenName   = "Unknown Token"
	UnknownTokenSymbol = "N/A"
)

// TokenForm holds the transient input of the create-token form.
// It is validated before submission and discarded afterwards.
type TokenForm struct {
	Name          string // required
	Symbol        string // required, max 10 chars
	Description   string // optional
	Image         string // optional image URL, placeholder when empty
	MetadataURI   string // optional; embedded data URI is generated when empty
	Decimals      int    // 0..9
	InitialSupply string // decimal string in whole tokens, > 0
}

// TokenBalance is one token account held by the connected wallet.
// Rebuilt from the network on every listing; never cached.
type TokenBalance struct {
	Mint         string // mint address
	TokenAccount string // token account address
	ProgramID    string // Token or Token-2022 program
	Amount       string // decimal-adjusted amount
	RawAmount    uint64 // base units
	Decimals     int

	Name        string
	Symbol      string
	URI         *string
	Image       *string
	Description *string

	MintAuthority   *string
	FreezeAuthority *string
	Supply          string // decimal-adjusted supply

	OwnedByWallet bool // mint authority equals the connected wallet
}

// CreatedToken is the result of a successful token creation.
type CreatedToken struct {
	Mint         string
	TokenAccount string
	Signature    string
	MetadataURI  string
	ExplorerURL  string
	Minted       string // initial supply actually minted, decimal string
}
