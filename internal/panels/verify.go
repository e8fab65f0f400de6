package panels

import (
	"context"
	"errors"
	"strings"

	"solana-wallet-kit/internal/action"
	"solana-wallet-kit/internal/wallet"
)

// ErrSignatureMismatch is a well-formed signature that does not verify. The
// verification itself still succeeds; callers that need an error return it.
var ErrSignatureMismatch = errors.New("Signature verification failed")

// VerifyResult is the outcome of a verification.
type VerifyResult struct {
	Valid     bool
	PublicKey string
}

// Verify checks hex signatures against the connected wallet's key.
type Verify struct {
	deps Deps
	flag action.Flag
}

// NewVerify creates the verification panel.
func NewVerify(deps Deps) *Verify {
	return &Verify{deps: deps}
}

var verifyClassifier = action.Classifier{Prefix: "Verification error"}

// InFlight reports whether a verification is running.
func (p *Verify) InFlight() bool { return p.flag.InFlight() }

// Verify reports whether signatureHex is the connected wallet's signature of
// message. A mismatch is a successful run with Valid false; malformed hex is
// an error.
func (p *Verify) Verify(ctx context.Context, message, signatureHex string) (*VerifyResult, error) {
	s := p.deps.Session
	return action.Run(ctx, p.deps.Runner, &p.flag, action.Step[*VerifyResult]{
		Panel:  "verify",
		Action: "verify",
		Wallet: walletAddress(s),
		Validate: func() error {
			if err := requireWallet(s); err != nil {
				return err
			}
			if strings.TrimSpace(message) == "" || strings.TrimSpace(signatureHex) == "" {
				return action.Invalid("Please enter both a message and a signature to verify")
			}
			return nil
		},
		Do: func(context.Context, func(string)) (*VerifyResult, error) {
			pk, ok := s.PublicKey()
			if !ok {
				return nil, wallet.ErrNotConnected
			}
			valid, err := wallet.VerifyHex(message, strings.TrimSpace(signatureHex), pk)
			if err != nil {
				return nil, err
			}
			return &VerifyResult{Valid: valid, PublicKey: pk.String()}, nil
		},
		Success: func(r *VerifyResult) string {
			if !r.Valid {
				return ErrSignatureMismatch.Error()
			}
			return "Signature verified successfully!"
		},
		Classifier: verifyClassifier,
	})
}
