package action

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"solana-wallet-kit/internal/domain"
	"solana-wallet-kit/internal/solana"
	"solana-wallet-kit/internal/wallet"
)

// Kind classifies why an action failed.
type Kind string

const (
	KindPrecondition      Kind = "precondition"
	KindRejected          Kind = "rejected"
	KindNetwork           Kind = "network"
	KindInsufficientFunds Kind = "insufficient_funds"
	KindMalformedInput    Kind = "malformed_input"
	KindUnknown           Kind = "unknown"
)

// ErrBusy is returned when a panel already has an action in flight.
var ErrBusy = errors.New("A request is already in progress")

// ValidationError is a local precondition failure detected before any network call.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Invalid returns a ValidationError with a formatted message.
func Invalid(format string, args ...interface{}) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// InsufficientFundsError reports a shortfall in lamports.
type InsufficientFundsError struct {
	Need uint64
	Have uint64
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("Insufficient funds. Need %s SOL but only have %s SOL",
		domain.FormatSOL(e.Need), domain.FormatSOL(e.Have))
}

// Shortfall returns the missing lamports.
func (e *InsufficientFundsError) Shortfall() uint64 {
	if e.Need <= e.Have {
		return 0
	}
	return e.Need - e.Have
}

// Failure is the classified error returned by Run.
type Failure struct {
	Kind    Kind
	Message string // user-facing
	Err     error
}

func (f *Failure) Error() string { return f.Message }

func (f *Failure) Unwrap() error { return f.Err }

// Rule maps an error containing Contains to a kind and message.
type Rule struct {
	Contains string
	Kind     Kind
	Message  string
}

// SharedRules apply to every panel after its own rules.
var SharedRules = []Rule{
	{Contains: "429", Kind: KindNetwork, Message: "Rate limited. Please try again later."},
	{Contains: "Blockhash not found", Kind: KindNetwork, Message: "Transaction expired. Please try again."},
	{Contains: "block height exceeded", Kind: KindNetwork, Message: "Transaction expired. Please try again."},
}

// Classifier turns errors into user messages for one panel.
type Classifier struct {
	// Prefix heads the fallback message, "<Prefix>: <error>".
	Prefix string
	Rules  []Rule
}

// Classify maps err to a Failure. Typed errors carrying their own message
// come first, then substring rules, then typed defaults, then the fallback.
func (c Classifier) Classify(err error) *Failure {
	var f *Failure
	if errors.As(err, &f) {
		return f
	}

	var verr *ValidationError
	if errors.As(err, &verr) {
		return &Failure{Kind: KindPrecondition, Message: verr.Message, Err: err}
	}
	var ferr *InsufficientFundsError
	if errors.As(err, &ferr) {
		return &Failure{Kind: KindInsufficientFunds, Message: ferr.Error(), Err: err}
	}
	switch {
	case errors.Is(err, wallet.ErrNotConnected):
		return &Failure{Kind: KindPrecondition, Message: "Please connect your wallet first", Err: err}
	case errors.Is(err, ErrBusy):
		return &Failure{Kind: KindPrecondition, Message: ErrBusy.Error(), Err: err}
	case errors.Is(err, domain.ErrInvalidAmount):
		return &Failure{Kind: KindPrecondition, Message: domain.ErrInvalidAmount.Error(), Err: err}
	}

	text := err.Error()
	for _, rules := range [][]Rule{c.Rules, SharedRules} {
		for _, r := range rules {
			if strings.Contains(text, r.Contains) {
				return &Failure{Kind: r.Kind, Message: r.Message, Err: err}
			}
		}
	}

	var rpcErr *solana.RPCError
	var txErr *solana.TransactionError
	switch {
	case errors.Is(err, wallet.ErrUserRejected):
		return &Failure{Kind: KindRejected, Message: "Request was rejected", Err: err}
	case errors.Is(err, context.Canceled):
		return &Failure{Kind: KindRejected, Message: "Request was cancelled", Err: err}
	case errors.Is(err, wallet.ErrMalformedSignature):
		return &Failure{Kind: KindMalformedInput, Message: "Invalid signature format", Err: err}
	case errors.Is(err, solana.ErrInvalidPublicKey):
		return &Failure{Kind: KindMalformedInput, Message: "Invalid address", Err: err}
	case errors.Is(err, solana.ErrBlockHeightExceeded):
		return &Failure{Kind: KindNetwork, Message: "Transaction expired. Please try again.", Err: err}
	case errors.Is(err, solana.ErrConfirmTimeout):
		return &Failure{Kind: KindNetwork, Message: "Confirmation timed out. Check the explorer before retrying.", Err: err}
	case errors.As(err, &rpcErr), errors.As(err, &txErr), errors.Is(err, context.DeadlineExceeded):
		return &Failure{Kind: KindNetwork, Message: c.fallback(err), Err: err}
	}

	return &Failure{Kind: KindUnknown, Message: c.fallback(err), Err: err}
}

func (c Classifier) fallback(err error) string {
	if c.Prefix == "" {
		return err.Error()
	}
	return c.Prefix + ": " + err.Error()
}
