package domain

// Outcome is the terminal state of a user action.
type Outcome string

const (
	OutcomeSuccess  Outcome = "success"
	OutcomeFailure  Outcome = "failure"
	OutcomeRejected Outcome = "rejected" // validation rejection or user cancellation
)

// Activity is one finished user action as recorded in the activity journal.
// Corresponds to wallet_activity table in PostgreSQL.
type Activity struct {
	ID         string  // uuid
	Panel      string  // airdrop, sign, verify, transfer, token
	Action     string  // e.g. "request", "submit", "burn"
	Wallet     string  // base58 public key, empty if not connected
	Signature  *string // transaction signature (nullable)
	Outcome    Outcome
	ErrorKind  string // empty on success
	Message    string // user-facing status message
	StartedAt  int64  // ms
	FinishedAt int64  // ms
}

// DurationMs returns the wall time of the action.
func (a *Activity) DurationMs() int64 {
	return a.FinishedAt - a.StartedAt
}

// ActionEvent is the analytics projection of an Activity.
// Corresponds to action_events table in ClickHouse.
type ActionEvent struct {
	ActivityID  string
	Panel       string
	Action      string
	Outcome     Outcome
	ErrorKind   string
	DurationMs  int64
	TimestampMs int64
}

// NewActionEvent projects an activity into an analytics event.
func NewActionEvent(a *Activity) *ActionEvent {
	return &ActionEvent{
		ActivityID:  a.ID,
		Panel:       a.Panel,
		Action:      a.Action,
		Outcome:     a.Outcome,
		ErrorKind:   a.ErrorKind,
		DurationMs:  a.DurationMs(),
		TimestampMs: a.FinishedAt,
	}
}
