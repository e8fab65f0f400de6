package domain

import "math"

// TransferQuote is the advisory cost summary shown before a transfer.
// Submit re-derives every figure from fresh network state.
type TransferQuote struct {
	Recipient         string
	Lamports          uint64
	FeeLamports       uint64
	FeeFallback       bool // fee could not be priced; default used
	BalanceLamports   uint64
	RemainingLamports uint64 // balance - lamports - fee, zero when insufficient
	Sufficient        bool
}

// TotalLamports is the amount plus the fee, saturating at math.MaxUint64.
func (q TransferQuote) TotalLamports() uint64 {
	return AddLamports(q.Lamports, q.FeeLamports)
}

// AddLamports returns a+b, saturating at math.MaxUint64.
func AddLamports(a, b uint64) uint64 {
	if a > math.MaxUint64-b {
		return math.MaxUint64
	}
	return a + b
}

// Covers reports whether balance pays for amount plus fee. It never overflows.
func Covers(balance, amount, fee uint64) bool {
	return amount <= balance && fee <= balance-amount
}
