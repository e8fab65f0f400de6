package solana

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// ErrBlockHeightExceeded means the blockhash expired before the transaction landed.
var ErrBlockHeightExceeded = errors.New("block height exceeded: transaction expired before confirmation")

// ErrConfirmTimeout means the confirmer's own wait limit elapsed first.
var ErrConfirmTimeout = errors.New("confirmation timed out")

// DefaultConfirmTimeout bounds a single Confirm call. It outlasts a blockhash,
// which stays valid for about 150 blocks.
const DefaultConfirmTimeout = 2 * time.Minute

// TransactionError is an on-chain execution failure reported for a signature.
type TransactionError struct {
	Signature string
	Err       interface{}
}

func (e *TransactionError) Error() string {
	return fmt.Sprintf("transaction %s failed: %v", e.Signature, e.Err)
}

// Confirmation identifies a transaction awaiting confirmation.
type Confirmation struct {
	Signature string
	// Blockhash and LastValidBlockHeight bound the wait. A zero height
	// disables the expiry check and leaves the bound to the context.
	Blockhash            string
	LastValidBlockHeight uint64
	Commitment           Commitment
}

// Confirmation results passed to the confirmer's result hook.
const (
	ConfirmResultConfirmed = "confirmed"
	ConfirmResultFailed    = "failed"
	ConfirmResultExpired   = "expired"
	ConfirmResultTimeout   = "timeout"
	ConfirmResultCancelled = "cancelled"
)

// Confirmer waits for signatures by polling, optionally racing a signature subscription.
type Confirmer struct {
	rpc          RPCClient
	ws           WSClient
	pollInterval time.Duration
	timeout      time.Duration
	logger       *zap.Logger
	onResult     func(result string)
}

// ConfirmerOption configures Confirmer.
type ConfirmerOption func(*Confirmer)

// WithWSClient enables signatureSubscribe alongside polling.
func WithWSClient(ws WSClient) ConfirmerOption {
	return func(c *Confirmer) {
		c.ws = ws
	}
}

// WithPollInterval sets the status polling interval.
func WithPollInterval(d time.Duration) ConfirmerOption {
	return func(c *Confirmer) {
		c.pollInterval = d
	}
}

// WithConfirmTimeout caps how long Confirm waits. Zero leaves the bound to
// the caller's context and the blockhash expiry.
func WithConfirmTimeout(d time.Duration) ConfirmerOption {
	return func(c *Confirmer) {
		c.timeout = d
	}
}

// WithConfirmLogger sets the logger.
func WithConfirmLogger(l *zap.Logger) ConfirmerOption {
	return func(c *Confirmer) {
		c.logger = l
	}
}

// WithResultHook registers a callback receiving one of the ConfirmResult values.
func WithResultHook(fn func(result string)) ConfirmerOption {
	return func(c *Confirmer) {
		c.onResult = fn
	}
}

// NewConfirmer creates a Confirmer.
func NewConfirmer(rpc RPCClient, opts ...ConfirmerOption) *Confirmer {
	c := &Confirmer{
		rpc:          rpc,
		pollInterval: time.Second,
		timeout:      DefaultConfirmTimeout,
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Confirm blocks until the transaction reaches its commitment, fails, expires,
// times out, or ctx is done.
func (c *Confirmer) Confirm(ctx context.Context, req Confirmation) error {
	err := c.bounded(ctx, req)
	if c.onResult != nil {
		c.onResult(resultOf(err))
	}
	return err
}

// bounded applies the confirmer's timeout and tells it apart from the caller's.
func (c *Confirmer) bounded(parent context.Context, req Confirmation) error {
	if c.timeout <= 0 {
		return c.confirm(parent, req)
	}
	ctx, cancel := context.WithTimeout(parent, c.timeout)
	defer cancel()
	err := c.confirm(ctx, req)
	if errors.Is(err, context.DeadlineExceeded) && parent.Err() == nil {
		return fmt.Errorf("%w after %s: %s", ErrConfirmTimeout, c.timeout, req.Signature)
	}
	return err
}

func resultOf(err error) string {
	var txErr *TransactionError
	switch {
	case err == nil:
		return ConfirmResultConfirmed
	case errors.Is(err, ErrBlockHeightExceeded):
		return ConfirmResultExpired
	case errors.Is(err, ErrConfirmTimeout):
		return ConfirmResultTimeout
	case errors.As(err, &txErr):
		return ConfirmResultFailed
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return ConfirmResultCancelled
	default:
		return ConfirmResultFailed
	}
}

func (c *Confirmer) confirm(ctx context.Context, req Confirmation) error {
	if req.Commitment == "" {
		req.Commitment = CommitmentConfirmed
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var notifications <-chan SignatureNotification
	if c.ws != nil {
		ch, err := c.ws.SubscribeSignature(ctx, req.Signature, req.Commitment)
		if err != nil {
			c.logger.Debug("signature subscription unavailable, polling only",
				zap.String("signature", req.Signature), zap.Error(err))
		} else {
			notifications = ch
		}
	}

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		done, err := c.poll(ctx, req)
		if done {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case n, ok := <-notifications:
			if !ok {
				notifications = nil
				continue
			}
			if n.Err != nil {
				return &TransactionError{Signature: req.Signature, Err: n.Err}
			}
			return nil
		case <-ticker.C:
		}
	}
}

// poll checks status then expiry once. Transient RPC errors keep the wait
// going; a failed status poll still checks expiry.
func (c *Confirmer) poll(ctx context.Context, req Confirmation) (bool, error) {
	statuses, err := c.rpc.GetSignatureStatuses(ctx, []string{req.Signature})
	if err != nil {
		if ctx.Err() != nil {
			return true, ctx.Err()
		}
		c.logger.Debug("signature status poll failed", zap.Error(err))
		statuses = nil
	}
	if len(statuses) > 0 && statuses[0] != nil {
		st := statuses[0]
		if st.Err != nil {
			return true, &TransactionError{Signature: req.Signature, Err: st.Err}
		}
		if req.Commitment.reached(st.ConfirmationStatus) {
			return true, nil
		}
	}

	if req.LastValidBlockHeight == 0 {
		return false, nil
	}
	height, err := c.rpc.GetBlockHeight(ctx, req.Commitment)
	if err != nil {
		if ctx.Err() != nil {
			return true, ctx.Err()
		}
		c.logger.Debug("block height poll failed", zap.Error(err))
		return false, nil
	}
	if height > req.LastValidBlockHeight {
		return true, ErrBlockHeightExceeded
	}
	return false, nil
}
