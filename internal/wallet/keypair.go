package wallet

import (
	"context"
	"fmt"

	solanago "github.com/gagliardetto/solana-go"

	"solana-wallet-kit/internal/program"
)

// KeypairWallet signs with a local ed25519 key after asking its Approver.
type KeypairWallet struct {
	key      solanago.PrivateKey
	approver Approver
}

// NewKeypairWallet wraps key. A nil approver approves everything.
func NewKeypairWallet(key solanago.PrivateKey, approver Approver) *KeypairWallet {
	if approver == nil {
		approver = AutoApprove
	}
	return &KeypairWallet{key: key, approver: approver}
}

// LoadKeypairWallet reads a Solana CLI keypair file (a JSON array of 64 bytes).
func LoadKeypairWallet(path string, approver Approver) (*KeypairWallet, error) {
	key, err := solanago.PrivateKeyFromSolanaKeygenFile(path)
	if err != nil {
		return nil, fmt.Errorf("load keypair %s: %w", path, err)
	}
	return NewKeypairWallet(key, approver), nil
}

// PublicKey returns the wallet address.
func (w *KeypairWallet) PublicKey() solanago.PublicKey {
	return w.key.PublicKey()
}

// SignMessage signs message after approval.
func (w *KeypairWallet) SignMessage(ctx context.Context, message []byte) (solanago.Signature, error) {
	if err := w.approve(ctx, Request{
		Kind:    RequestMessage,
		Summary: fmt.Sprintf("%d byte message", len(message)),
	}); err != nil {
		return solanago.Signature{}, err
	}
	sig, err := w.key.Sign(message)
	if err != nil {
		return solanago.Signature{}, fmt.Errorf("sign message: %w", err)
	}
	return sig, nil
}

// SignTransaction signs tx in place after approval.
func (w *KeypairWallet) SignTransaction(ctx context.Context, tx *solanago.Transaction) error {
	if err := w.approve(ctx, Request{
		Kind:    RequestTransaction,
		Summary: fmt.Sprintf("%d instruction(s), blockhash %s", len(tx.Message.Instructions), tx.Message.RecentBlockhash),
	}); err != nil {
		return err
	}
	return program.Sign(tx, w.key)
}

func (w *KeypairWallet) approve(ctx context.Context, req Request) error {
	req.Signer = w.PublicKey().String()
	ok, err := w.approver.Approve(ctx, req)
	if err != nil {
		return fmt.Errorf("approval: %w", err)
	}
	if !ok {
		return ErrUserRejected
	}
	return nil
}

var _ Wallet = (*KeypairWallet)(nil)
