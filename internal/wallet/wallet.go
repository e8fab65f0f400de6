// Package wallet is the boundary between the panels and whatever holds the
// user's keys. Panels only ever see the Wallet interface through a Session.
package wallet

import (
	"context"
	"errors"

	solanago "github.com/gagliardetto/solana-go"
)

var (
	// ErrNotConnected is returned when an action needs a wallet and none is connected.
	ErrNotConnected = errors.New("Wallet not connected")
	// ErrUserRejected is returned when the user declines a signing request.
	ErrUserRejected = errors.New("User rejected the request")
	// ErrSigningUnsupported is returned by wallets that cannot sign arbitrary messages.
	ErrSigningUnsupported = errors.New("Message signing is not supported by this wallet")
)

// Wallet signs on behalf of a single account.
type Wallet interface {
	PublicKey() solanago.PublicKey
	// SignMessage signs raw bytes off-chain.
	SignMessage(ctx context.Context, message []byte) (solanago.Signature, error)
	// SignTransaction adds the wallet's signature to tx in place, keeping
	// signatures already present.
	SignTransaction(ctx context.Context, tx *solanago.Transaction) error
}
