// Package action runs panel actions through one lifecycle: reject when busy,
// validate locally, announce, perform the round trip, then reconcile the
// result into a status, a journal entry and metrics.
package action

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"solana-wallet-kit/internal/domain"
	"solana-wallet-kit/internal/observability"
)

// Flag is a panel's in-flight marker. The zero value is idle.
type Flag struct {
	busy atomic.Bool
}

// TryAcquire marks the flag busy; false if it already was.
func (f *Flag) TryAcquire() bool { return f.busy.CompareAndSwap(false, true) }

// Release marks the flag idle.
func (f *Flag) Release() { f.busy.Store(false) }

// InFlight reports whether an action is running.
func (f *Flag) InFlight() bool { return f.busy.Load() }

// Journal persists finished actions.
type Journal interface {
	Record(ctx context.Context, a *domain.Activity) error
}

// Step describes one panel action.
type Step[T any] struct {
	Panel  string
	Action string
	// Wallet is the connected address, empty if none.
	Wallet string
	// Pending is published before Do starts.
	Pending string
	// Validate runs before any network access. Optional.
	Validate func() error
	// Do performs the action. progress publishes intermediate info statuses.
	Do func(ctx context.Context, progress func(msg string)) (T, error)
	// Success renders the success message.
	Success func(T) string
	// Signature extracts a transaction signature for the journal. Optional.
	Signature  func(T) string
	Classifier Classifier
}

// Runner carries the collaborators shared by all actions.
type Runner struct {
	sink    Sink
	journal Journal
	logger  *zap.Logger
	now     func() time.Time
}

// RunnerOption configures Runner.
type RunnerOption func(*Runner)

// WithJournal records every finished action.
func WithJournal(j Journal) RunnerOption {
	return func(r *Runner) { r.journal = j }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) RunnerOption {
	return func(r *Runner) { r.logger = l }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) RunnerOption {
	return func(r *Runner) { r.now = now }
}

// NewRunner creates a Runner publishing to sink.
func NewRunner(sink Sink, opts ...RunnerOption) *Runner {
	if sink == nil {
		sink = Discard
	}
	r := &Runner{
		sink:   sink,
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes step guarded by flag. A busy flag yields a Failure wrapping
// ErrBusy without publishing anything. Every other error is a *Failure.
func Run[T any](ctx context.Context, r *Runner, flag *Flag, step Step[T]) (T, error) {
	var zero T

	if !flag.TryAcquire() {
		observability.RecordActionBusy(step.Panel)
		return zero, &Failure{Kind: KindPrecondition, Message: ErrBusy.Error(), Err: ErrBusy}
	}
	defer flag.Release()

	observability.RecordActionStart(step.Panel)
	started := r.now()
	id := uuid.NewString()

	publish := func(level Level, msg string, kind Kind, sig string) {
		r.sink.Publish(Status{
			ID:        id,
			Panel:     step.Panel,
			Action:    step.Action,
			Level:     level,
			Message:   msg,
			Kind:      kind,
			Signature: sig,
			Time:      r.now(),
		})
	}

	fail := func(err error) (T, error) {
		f := step.Classifier.Classify(err)
		publish(LevelError, f.Message, f.Kind, "")
		outcome := domain.OutcomeFailure
		if f.Kind == KindRejected || f.Kind == KindPrecondition {
			outcome = domain.OutcomeRejected
		}
		r.finish(ctx, newActivity(id, step, outcome, f.Kind, f.Message, ""), started)
		r.logger.Debug("action failed",
			zap.String("panel", step.Panel),
			zap.String("action", step.Action),
			zap.String("kind", string(f.Kind)),
			zap.Error(err))
		return zero, f
	}

	if step.Validate != nil {
		if err := step.Validate(); err != nil {
			return fail(err)
		}
	}

	if step.Pending != "" {
		publish(LevelInfo, step.Pending, "", "")
	}

	v, err := step.Do(ctx, func(msg string) { publish(LevelInfo, msg, "", "") })
	if err != nil {
		return fail(err)
	}

	var sig string
	if step.Signature != nil {
		sig = step.Signature(v)
	}
	msg := "Done"
	if step.Success != nil {
		msg = step.Success(v)
	}
	publish(LevelSuccess, msg, "", sig)
	r.finish(ctx, newActivity(id, step, domain.OutcomeSuccess, "", msg, sig), started)
	return v, nil
}

// finish records metrics and the journal entry. Journal errors are logged only.
func (r *Runner) finish(ctx context.Context, a *domain.Activity, started time.Time) {
	finished := r.now()
	a.StartedAt = started.UnixMilli()
	a.FinishedAt = finished.UnixMilli()
	observability.RecordActionFinish(a.Panel, a.Action, string(a.Outcome), finished.Sub(started))

	if r.journal == nil {
		return
	}
	// The journal outlives a cancelled request context.
	if err := r.journal.Record(context.WithoutCancel(ctx), a); err != nil {
		r.logger.Warn("record activity failed", zap.String("id", a.ID), zap.Error(err))
	}
}

func newActivity[T any](id string, step Step[T], outcome domain.Outcome, kind Kind, msg, sig string) *domain.Activity {
	a := &domain.Activity{
		ID:        id,
		Panel:     step.Panel,
		Action:    step.Action,
		Wallet:    step.Wallet,
		Outcome:   outcome,
		ErrorKind: string(kind),
		Message:   msg,
	}
	if sig != "" {
		a.Signature = &sig
	}
	return a
}

// IsBusy reports whether err came from a busy flag.
func IsBusy(err error) bool {
	return errors.Is(err, ErrBusy)
}
