// Package panels implements the wallet features: airdrop, message signing and
// verification, balance, SOL transfer and token create/list/mint/burn. Each
// panel owns its in-flight flag and runs its actions through action.Run.
package panels

import (
	"context"
	"encoding/json"
	"fmt"

	solanago "github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"solana-wallet-kit/internal/action"
	"solana-wallet-kit/internal/program"
	"solana-wallet-kit/internal/solana"
	"solana-wallet-kit/internal/wallet"
)

// DefaultFeeLamports is assumed when the node cannot price a message.
const DefaultFeeLamports = 5000

// Deps are the collaborators every panel shares.
type Deps struct {
	Session *wallet.Session
	Runner  *action.Runner
	Logger  *zap.Logger
}

func (d Deps) logger(name string) *zap.Logger {
	if d.Logger == nil {
		return zap.NewNop()
	}
	return d.Logger.Named(name)
}

// walletAddress returns the connected address, empty if none.
func walletAddress(s *wallet.Session) string {
	pk, ok := s.PublicKey()
	if !ok {
		return ""
	}
	return pk.String()
}

// requireWallet returns the connected wallet or ErrNotConnected.
func requireWallet(s *wallet.Session) error {
	_, err := s.Wallet()
	return err
}

// SimulationError is a simulated transaction that would fail on-chain.
type SimulationError struct {
	Err  interface{}
	Logs []string
}

func (e *SimulationError) Error() string {
	detail, err := json.Marshal(e.Err)
	if err != nil {
		return fmt.Sprintf("Transaction simulation failed: %v", e.Err)
	}
	return "Transaction simulation failed: " + string(detail)
}

// simulate dry-runs an unsigned draft. A failing simulation is reported as a
// network failure carrying the program error.
func simulate(ctx context.Context, rpc solana.RPCClient, tx *solanago.Transaction) (*solana.SimulationResult, error) {
	raw, err := program.Encode(tx)
	if err != nil {
		return nil, err
	}
	res, err := rpc.SimulateTransaction(ctx, raw, solana.SimulateConfig{
		SigVerify:              false,
		ReplaceRecentBlockhash: true,
		Commitment:             solana.CommitmentConfirmed,
	})
	if err != nil {
		return nil, fmt.Errorf("Transaction simulation error: %w", err)
	}
	if res.Failed() {
		serr := &SimulationError{Err: res.Err, Logs: res.Logs}
		return nil, &action.Failure{Kind: action.KindNetwork, Message: serr.Error(), Err: serr}
	}
	return res, nil
}

// messageFee prices tx's message. Unpriceable messages fall back to fallback.
func messageFee(ctx context.Context, rpc solana.RPCClient, tx *solanago.Transaction, fallback uint64) (uint64, bool) {
	msg, err := program.MessageBytes(tx)
	if err != nil {
		return fallback, true
	}
	fee, err := rpc.GetFeeForMessage(ctx, msg)
	if err != nil || fee == nil {
		return fallback, true
	}
	return *fee, false
}

// sendAndConfirm has the wallet sign tx, sends it and waits for confirmation
// against the blockhash it was built with.
func sendAndConfirm(
	ctx context.Context,
	s *wallet.Session,
	tx *solanago.Transaction,
	bh *solana.LatestBlockhash,
	cfg solana.SendConfig,
	progress func(string),
) (string, error) {
	w, err := s.Wallet()
	if err != nil {
		return "", err
	}

	progress("Please approve the transaction in your wallet...")
	if err := w.SignTransaction(ctx, tx); err != nil {
		return "", err
	}

	raw, err := program.Encode(tx)
	if err != nil {
		return "", err
	}
	sig, err := s.RPC().SendTransaction(ctx, raw, cfg)
	if err != nil {
		return "", err
	}

	progress("Transaction sent, awaiting confirmation...")
	err = s.Confirmer().Confirm(ctx, solana.Confirmation{
		Signature:            sig,
		Blockhash:            bh.Blockhash,
		LastValidBlockHeight: bh.LastValidBlockHeight,
		Commitment:           solana.CommitmentConfirmed,
	})
	if err != nil {
		return "", err
	}
	return sig, nil
}

// ExplorerAddressURL links to an account on the Solana explorer.
func ExplorerAddressURL(addr, cluster string) string {
	return "https://explorer.solana.com/address/" + addr + clusterQuery(cluster)
}

// ExplorerTxURL links to a transaction on the Solana explorer.
func ExplorerTxURL(sig, cluster string) string {
	return "https://explorer.solana.com/tx/" + sig + clusterQuery(cluster)
}

func clusterQuery(cluster string) string {
	if cluster == "" || cluster == "mainnet-beta" {
		return ""
	}
	return "?cluster=" + cluster
}
