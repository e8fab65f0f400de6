package panels

import (
	"context"
	"encoding/hex"
	"strings"

	"solana-wallet-kit/internal/action"
)

// SignedMessage is an off-chain signature over a UTF-8 message.
type SignedMessage struct {
	Message      string
	SignatureHex string // lowercase hex, 128 chars
	PublicKey    string
}

// Sign signs arbitrary messages with the connected wallet.
type Sign struct {
	deps Deps
	flag action.Flag
}

// NewSign creates the message signing panel.
func NewSign(deps Deps) *Sign {
	return &Sign{deps: deps}
}

var signClassifier = action.Classifier{
	Prefix: "Failed to sign message",
	Rules: []action.Rule{
		{Contains: "User rejected", Kind: action.KindRejected, Message: "Signature request was rejected"},
		{Contains: "not supported", Kind: action.KindPrecondition, Message: "Your wallet doesn't support message signing"},
	},
}

// InFlight reports whether a signature is pending.
func (p *Sign) InFlight() bool { return p.flag.InFlight() }

// Sign asks the wallet to sign message.
func (p *Sign) Sign(ctx context.Context, message string) (*SignedMessage, error) {
	s := p.deps.Session
	return action.Run(ctx, p.deps.Runner, &p.flag, action.Step[*SignedMessage]{
		Panel:   "sign",
		Action:  "sign",
		Wallet:  walletAddress(s),
		Pending: "Please approve the signature request in your wallet...",
		Validate: func() error {
			if err := requireWallet(s); err != nil {
				return err
			}
			if strings.TrimSpace(message) == "" {
				return action.Invalid("Please enter a message to sign")
			}
			return nil
		},
		Do: func(ctx context.Context, _ func(string)) (*SignedMessage, error) {
			w, err := s.Wallet()
			if err != nil {
				return nil, err
			}
			sig, err := w.SignMessage(ctx, []byte(message))
			if err != nil {
				return nil, err
			}
			return &SignedMessage{
				Message:      message,
				SignatureHex: hex.EncodeToString(sig[:]),
				PublicKey:    w.PublicKey().String(),
			}, nil
		},
		Success:    func(*SignedMessage) string { return "Message signed successfully!" },
		Classifier: signClassifier,
	})
}
