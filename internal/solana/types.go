package solana

import (
	"encoding/base64"
	"fmt"
)

// Commitment is the level of cluster agreement a query waits for.
type Commitment string

const (
	CommitmentProcessed Commitment = "processed"
	CommitmentConfirmed Commitment = "confirmed"
	CommitmentFinalized Commitment = "finalized"
)

// reached reports whether status satisfies commitment c.
func (c Commitment) reached(status string) bool {
	rank := map[string]int{
		string(CommitmentProcessed): 1,
		string(CommitmentConfirmed): 2,
		string(CommitmentFinalized): 3,
	}
	want, ok := rank[string(c)]
	if !ok {
		want = rank[string(CommitmentConfirmed)]
	}
	return rank[status] >= want
}

// LatestBlockhash is the result of getLatestBlockhash.
type LatestBlockhash struct {
	Blockhash            string
	LastValidBlockHeight uint64
}

// SimulateConfig enumerates the simulateTransaction options.
type SimulateConfig struct {
	// SigVerify verifies signatures during simulation. Must be false for
	// unsigned draft transactions.
	SigVerify bool
	// ReplaceRecentBlockhash swaps in the latest blockhash; incompatible with SigVerify.
	ReplaceRecentBlockhash bool
	// Commitment used for the simulation bank. Empty uses the node default.
	Commitment Commitment
}

func (c SimulateConfig) params() map[string]interface{} {
	p := map[string]interface{}{
		"encoding":               "base64",
		"sigVerify":              c.SigVerify,
		"replaceRecentBlockhash": c.ReplaceRecentBlockhash,
	}
	if c.Commitment != "" {
		p["commitment"] = c.Commitment
	}
	return p
}

// SendConfig enumerates the sendTransaction options.
type SendConfig struct {
	// SkipPreflight disables the node's preflight simulation.
	SkipPreflight bool
	// PreflightCommitment is the bank used for preflight checks.
	PreflightCommitment Commitment
	// MaxRetries is how many times the node rebroadcasts. Zero leaves it to the node.
	MaxRetries int
}

func (c SendConfig) params() map[string]interface{} {
	p := map[string]interface{}{
		"encoding":      "base64",
		"skipPreflight": c.SkipPreflight,
	}
	if c.PreflightCommitment != "" {
		p["preflightCommitment"] = c.PreflightCommitment
	}
	if c.MaxRetries > 0 {
		p["maxRetries"] = c.MaxRetries
	}
	return p
}

// DefaultSendConfig mirrors the options the transfer panel sends with.
func DefaultSendConfig() SendConfig {
	return SendConfig{
		SkipPreflight:       false,
		PreflightCommitment: CommitmentConfirmed,
		MaxRetries:          3,
	}
}

// SimulationResult is the value of simulateTransaction.
type SimulationResult struct {
	Err           interface{}
	Logs          []string
	UnitsConsumed *uint64
}

// Failed reports whether the simulated transaction errored.
func (r *SimulationResult) Failed() bool {
	return r != nil && r.Err != nil
}

// SignatureStatus is one entry of getSignatureStatuses.
type SignatureStatus struct {
	Slot               uint64
	Confirmations      *uint64
	Err                interface{}
	ConfirmationStatus string
}

// AccountInfo represents Solana account information.
type AccountInfo struct {
	Lamports   uint64 `json:"lamports"`
	Owner      string `json:"owner"`
	Data       string `json:"data"` // base64 encoded
	Executable bool   `json:"executable"`
	RentEpoch  uint64 `json:"rentEpoch"`
}

// DecodeData returns the raw account bytes.
func (a *AccountInfo) DecodeData() ([]byte, error) {
	decoded, err := base64.StdEncoding.DecodeString(a.Data)
	if err != nil {
		return nil, fmt.Errorf("decode account data: %w", err)
	}
	return decoded, nil
}

// TokenAccount is a jsonParsed token account owned by a wallet.
type TokenAccount struct {
	Pubkey    string // token account address
	ProgramID string
	Mint      string
	Owner     string
	Amount    string // base units as decimal string
	Decimals  int
	UIAmount  string // decimal-adjusted amount
}
