package stub

import (
	"context"
	"fmt"
	"sync"

	"github.com/mr-tron/base58"

	"solana-wallet-kit/internal/solana"
)

// DefaultBlockhash is the blockhash handed out by the stub. It is a valid
// base58 32-byte value so transactions can be compiled against it.
const DefaultBlockhash = "EkSnNWid2cvwEVnVx9aBqawnmiCNiDgp3gUdkDPTKN1N"

// RPCClient implements solana.RPCClient as an in-memory ledger for testing.
// Every method increments a per-method call counter keyed by its RPC name.
type RPCClient struct {
	mu sync.Mutex

	Balances      map[string]uint64
	Accounts      map[string]*solana.AccountInfo
	TokenAccounts map[string][]solana.TokenAccount // key: owner + "/" + programID

	// Fee is returned by getFeeForMessage; nil simulates an unpriceable message.
	Fee *uint64
	// UnitsConsumed is reported by simulateTransaction.
	UnitsConsumed uint64
	// SimulationErr, when set, is the simulated transaction error.
	SimulationErr interface{}
	// TxErr, when set, is reported as the on-chain failure of sent transactions.
	TxErr interface{}
	// Rent is returned for any account size.
	Rent        uint64
	BlockHeight uint64
	LastValid   uint64
	// Errors injects a failure per RPC method name.
	Errors map[string]error

	Sent      [][]byte
	Simulated [][]byte
	landed    map[string]bool
	calls     map[string]int
	airdrops  int
}

// NewRPCClient creates a new stub RPC client.
func NewRPCClient() *RPCClient {
	fee := uint64(5000)
	return &RPCClient{
		Balances:      make(map[string]uint64),
		Accounts:      make(map[string]*solana.AccountInfo),
		TokenAccounts: make(map[string][]solana.TokenAccount),
		Fee:           &fee,
		UnitsConsumed: 450,
		Rent:          2_039_280,
		BlockHeight:   100,
		LastValid:     250,
		Errors:        make(map[string]error),
		landed:        make(map[string]bool),
		calls:         make(map[string]int),
	}
}

// Calls returns how many times method was invoked.
func (c *RPCClient) Calls(method string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[method]
}

// TotalCalls returns the number of RPC calls of any kind.
func (c *RPCClient) TotalCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	total := 0
	for _, n := range c.calls {
		total += n
	}
	return total
}

// SetError injects err for method. A nil err clears it.
func (c *RPCClient) SetError(method string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err == nil {
		delete(c.Errors, method)
		return
	}
	c.Errors[method] = err
}

// AddTokenAccount registers a token account for owner under its program.
func (c *RPCClient) AddTokenAccount(owner string, acct solana.TokenAccount) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := owner + "/" + acct.ProgramID
	c.TokenAccounts[key] = append(c.TokenAccounts[key], acct)
}

// enter records a call and returns the injected error for method, if any.
// Caller must hold c.mu.
func (c *RPCClient) enter(method string) error {
	c.calls[method]++
	return c.Errors[method]
}

// GetBalance returns the stored balance.
func (c *RPCClient) GetBalance(_ context.Context, pubkey string, _ solana.Commitment) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.enter("getBalance"); err != nil {
		return 0, err
	}
	return c.Balances[pubkey], nil
}

// RequestAirdrop credits lamports immediately and marks the airdrop landed.
func (c *RPCClient) RequestAirdrop(_ context.Context, pubkey string, lamports uint64) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.enter("requestAirdrop"); err != nil {
		return "", err
	}
	c.airdrops++
	c.Balances[pubkey] += lamports
	sig := fmt.Sprintf("airdrop%d", c.airdrops)
	c.landed[sig] = true
	return sig, nil
}

// GetLatestBlockhash returns DefaultBlockhash.
func (c *RPCClient) GetLatestBlockhash(_ context.Context, _ solana.Commitment) (*solana.LatestBlockhash, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.enter("getLatestBlockhash"); err != nil {
		return nil, err
	}
	return &solana.LatestBlockhash{Blockhash: DefaultBlockhash, LastValidBlockHeight: c.LastValid}, nil
}

// GetFeeForMessage returns Fee.
func (c *RPCClient) GetFeeForMessage(_ context.Context, _ []byte) (*uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.enter("getFeeForMessage"); err != nil {
		return nil, err
	}
	if c.Fee == nil {
		return nil, nil
	}
	fee := *c.Fee
	return &fee, nil
}

// SimulateTransaction records the transaction and reports SimulationErr.
func (c *RPCClient) SimulateTransaction(_ context.Context, tx []byte, _ solana.SimulateConfig) (*solana.SimulationResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.enter("simulateTransaction"); err != nil {
		return nil, err
	}
	c.Simulated = append(c.Simulated, tx)
	units := c.UnitsConsumed
	return &solana.SimulationResult{
		Err:           c.SimulationErr,
		Logs:          []string{"Program log: simulated"},
		UnitsConsumed: &units,
	}, nil
}

// SendTransaction records the transaction and returns its first signature.
func (c *RPCClient) SendTransaction(_ context.Context, tx []byte, _ solana.SendConfig) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.enter("sendTransaction"); err != nil {
		return "", err
	}
	// Wire format starts with a compact-u16 signature count; counts below 128 take one byte.
	if len(tx) < 65 {
		return "", fmt.Errorf("transaction too short: %d bytes", len(tx))
	}
	c.Sent = append(c.Sent, tx)
	sig := base58.Encode(tx[1:65])
	c.landed[sig] = true
	return sig, nil
}

// GetSignatureStatuses reports landed signatures as finalized.
func (c *RPCClient) GetSignatureStatuses(_ context.Context, signatures []string) ([]*solana.SignatureStatus, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.enter("getSignatureStatuses"); err != nil {
		return nil, err
	}
	out := make([]*solana.SignatureStatus, len(signatures))
	for i, sig := range signatures {
		if !c.landed[sig] {
			continue
		}
		out[i] = &solana.SignatureStatus{
			Slot:               c.BlockHeight,
			Err:                c.TxErr,
			ConfirmationStatus: string(solana.CommitmentFinalized),
		}
	}
	return out, nil
}

// GetBlockHeight returns BlockHeight.
func (c *RPCClient) GetBlockHeight(_ context.Context, _ solana.Commitment) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.enter("getBlockHeight"); err != nil {
		return 0, err
	}
	return c.BlockHeight, nil
}

// GetMinimumBalanceForRentExemption returns Rent.
func (c *RPCClient) GetMinimumBalanceForRentExemption(_ context.Context, _ uint64) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.enter("getMinimumBalanceForRentExemption"); err != nil {
		return 0, err
	}
	return c.Rent, nil
}

// GetAccountInfo returns the stored account or nil.
func (c *RPCClient) GetAccountInfo(_ context.Context, pubkey string) (*solana.AccountInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.enter("getAccountInfo"); err != nil {
		return nil, err
	}
	return c.Accounts[pubkey], nil
}

// GetTokenAccountsByOwner returns accounts registered with AddTokenAccount.
func (c *RPCClient) GetTokenAccountsByOwner(_ context.Context, owner, programID string) ([]solana.TokenAccount, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.enter("getTokenAccountsByOwner:" + programID); err != nil {
		return nil, err
	}
	c.calls["getTokenAccountsByOwner"]++
	accts := c.TokenAccounts[owner+"/"+programID]
	return append([]solana.TokenAccount(nil), accts...), nil
}

var _ solana.RPCClient = (*RPCClient)(nil)
