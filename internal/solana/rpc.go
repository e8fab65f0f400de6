package solana

import "context"

// RPCClient defines the Solana JSON-RPC methods the wallet panels rely on.
type RPCClient interface {
	// GetBalance returns the lamport balance of an account.
	GetBalance(ctx context.Context, pubkey string, commitment Commitment) (uint64, error)

	// RequestAirdrop asks the cluster faucet for lamports. Devnet/testnet only.
	RequestAirdrop(ctx context.Context, pubkey string, lamports uint64) (string, error)

	// GetLatestBlockhash returns a recent blockhash and its expiry height.
	GetLatestBlockhash(ctx context.Context, commitment Commitment) (*LatestBlockhash, error)

	// GetFeeForMessage returns the fee for a compiled message.
	// Returns nil when the node cannot price the message (e.g. stale blockhash).
	GetFeeForMessage(ctx context.Context, message []byte) (*uint64, error)

	// SimulateTransaction dry-runs a serialized transaction.
	SimulateTransaction(ctx context.Context, tx []byte, cfg SimulateConfig) (*SimulationResult, error)

	// SendTransaction submits a signed, serialized transaction and returns its signature.
	SendTransaction(ctx context.Context, tx []byte, cfg SendConfig) (string, error)

	// GetSignatureStatuses returns statuses in the same order as signatures.
	// Unknown signatures yield nil entries.
	GetSignatureStatuses(ctx context.Context, signatures []string) ([]*SignatureStatus, error)

	// GetBlockHeight returns the current block height.
	GetBlockHeight(ctx context.Context, commitment Commitment) (uint64, error)

	// GetMinimumBalanceForRentExemption returns the rent-exempt minimum for an account size.
	GetMinimumBalanceForRentExemption(ctx context.Context, size uint64) (uint64, error)

	// GetAccountInfo returns raw account data. Returns nil if account not found.
	GetAccountInfo(ctx context.Context, pubkey string) (*AccountInfo, error)

	// GetTokenAccountsByOwner returns parsed token accounts of owner under programID.
	GetTokenAccountsByOwner(ctx context.Context, owner, programID string) ([]TokenAccount, error)
}
